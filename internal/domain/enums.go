package domain

// CaseType classifies the legal matter a case tracks.
type CaseType string

const (
	CaseTypeDivorce         CaseType = "divorce"
	CaseTypeCustody         CaseType = "custody"
	CaseTypeSupport         CaseType = "support"
	CaseTypeModification    CaseType = "modification"
	CaseTypeProtectionOrder CaseType = "protection_order"
	CaseTypePaternity       CaseType = "paternity"
	CaseTypeAdoption        CaseType = "adoption"
)

// CaseTypes lists every supported case type in canonical order.
var CaseTypes = []CaseType{
	CaseTypeDivorce,
	CaseTypeCustody,
	CaseTypeSupport,
	CaseTypeModification,
	CaseTypeProtectionOrder,
	CaseTypePaternity,
	CaseTypeAdoption,
}

func (t CaseType) Valid() bool {
	for _, v := range CaseTypes {
		if t == v {
			return true
		}
	}
	return false
}

// CaseStatus is a case lifecycle stage. Stages form a total order;
// transitions may only move forward (closed is the final stage).
type CaseStatus string

const (
	CaseStatusIntake      CaseStatus = "intake"
	CaseStatusFiled       CaseStatus = "filed"
	CaseStatusServed      CaseStatus = "served"
	CaseStatusDiscovery   CaseStatus = "discovery"
	CaseStatusNegotiation CaseStatus = "negotiation"
	CaseStatusTrialPrep   CaseStatus = "trial_prep"
	CaseStatusTrial       CaseStatus = "trial"
	CaseStatusSettled     CaseStatus = "settled"
	CaseStatusClosed      CaseStatus = "closed"
)

// CaseStatuses lists lifecycle stages in order.
var CaseStatuses = []CaseStatus{
	CaseStatusIntake,
	CaseStatusFiled,
	CaseStatusServed,
	CaseStatusDiscovery,
	CaseStatusNegotiation,
	CaseStatusTrialPrep,
	CaseStatusTrial,
	CaseStatusSettled,
	CaseStatusClosed,
}

func (s CaseStatus) Valid() bool {
	return s.Stage() >= 0
}

// Stage returns the ordinal of the status in the lifecycle, or -1 for an
// unknown status.
func (s CaseStatus) Stage() int {
	for i, v := range CaseStatuses {
		if s == v {
			return i
		}
	}
	return -1
}

// Priority ranks cases and tasks for triage.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

// EventType classifies a scheduled case event.
type EventType string

const (
	EventTypeFiling        EventType = "filing"
	EventTypeHearing       EventType = "hearing"
	EventTypeDeadline      EventType = "deadline"
	EventTypeMeeting       EventType = "meeting"
	EventTypeCommunication EventType = "communication"
	EventTypeDiscovery     EventType = "discovery"
	EventTypeMotion        EventType = "motion"
	EventTypeOrder         EventType = "order"
	EventTypeSettlement    EventType = "settlement"
	EventTypeOther         EventType = "other"
)

var EventTypes = []EventType{
	EventTypeFiling,
	EventTypeHearing,
	EventTypeDeadline,
	EventTypeMeeting,
	EventTypeCommunication,
	EventTypeDiscovery,
	EventTypeMotion,
	EventTypeOrder,
	EventTypeSettlement,
	EventTypeOther,
}

func (t EventType) Valid() bool {
	for _, v := range EventTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Critical reports whether events of this type feed the next-critical-date
// statistic.
func (t EventType) Critical() bool {
	return t == EventTypeHearing || t == EventTypeDeadline
}

// EventStatus is the scheduling state of one event.
type EventStatus string

const (
	EventStatusScheduled   EventStatus = "scheduled"
	EventStatusCompleted   EventStatus = "completed"
	EventStatusCancelled   EventStatus = "cancelled"
	EventStatusRescheduled EventStatus = "rescheduled"
	EventStatusMissed      EventStatus = "missed"
)

var EventStatuses = []EventStatus{
	EventStatusScheduled,
	EventStatusCompleted,
	EventStatusCancelled,
	EventStatusRescheduled,
	EventStatusMissed,
}

func (s EventStatus) Valid() bool {
	for _, v := range EventStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no further status change is allowed.
func (s EventStatus) Terminal() bool {
	return s == EventStatusCompleted || s == EventStatusCancelled
}

// ReminderChannel is the delivery channel a reminder asks for.
type ReminderChannel string

const (
	ReminderChannelEmail ReminderChannel = "email"
	ReminderChannelPush  ReminderChannel = "push"
	ReminderChannelSMS   ReminderChannel = "sms"
)

func (c ReminderChannel) Valid() bool {
	switch c {
	case ReminderChannelEmail, ReminderChannelPush, ReminderChannelSMS:
		return true
	}
	return false
}

// RecurrenceFrequency is the step unit for recurrence expansion.
type RecurrenceFrequency string

const (
	RecurDaily   RecurrenceFrequency = "daily"
	RecurWeekly  RecurrenceFrequency = "weekly"
	RecurMonthly RecurrenceFrequency = "monthly"
)

func (f RecurrenceFrequency) Valid() bool {
	switch f {
	case RecurDaily, RecurWeekly, RecurMonthly:
		return true
	}
	return false
}

// TaskCategory classifies a unit of case work.
type TaskCategory string

const (
	TaskCategoryFiling        TaskCategory = "filing"
	TaskCategoryDiscovery     TaskCategory = "discovery"
	TaskCategoryCommunication TaskCategory = "communication"
	TaskCategoryCourt         TaskCategory = "court"
	TaskCategoryFinancial     TaskCategory = "financial"
	TaskCategoryInvestigation TaskCategory = "investigation"
	TaskCategoryPreparation   TaskCategory = "preparation"
	TaskCategoryOther         TaskCategory = "other"
)

var TaskCategories = []TaskCategory{
	TaskCategoryFiling,
	TaskCategoryDiscovery,
	TaskCategoryCommunication,
	TaskCategoryCourt,
	TaskCategoryFinancial,
	TaskCategoryInvestigation,
	TaskCategoryPreparation,
	TaskCategoryOther,
}

func (c TaskCategory) Valid() bool {
	for _, v := range TaskCategories {
		if c == v {
			return true
		}
	}
	return false
}

// TaskStatus is the working state of one task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
	TaskStatusBlocked    TaskStatus = "blocked"
)

var TaskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusInProgress,
	TaskStatusCompleted,
	TaskStatusCancelled,
	TaskStatusBlocked,
}

func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no further status change is allowed.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

// Open reports whether the task still counts toward overdue checks.
func (s TaskStatus) Open() bool {
	return !s.Terminal()
}

// PhaseStatus is the derived state of one timeline phase.
type PhaseStatus string

const (
	PhasePending   PhaseStatus = "pending"
	PhaseActive    PhaseStatus = "active"
	PhaseCompleted PhaseStatus = "completed"
)

// ComplianceStatus is the derived risk classification of a case.
type ComplianceStatus string

const (
	Compliant    ComplianceStatus = "compliant"
	AtRisk       ComplianceStatus = "at_risk"
	NonCompliant ComplianceStatus = "non_compliant"
)
