package domain

import "time"

// Party is one participant in a case (petitioner, respondent, counsel).
type Party struct {
	Name            string `json:"name"`
	Role            string `json:"role"`
	Attorney        string `json:"attorney,omitempty"`
	SelfRepresented bool   `json:"self_represented,omitempty"`
}

// Child records a minor attached to a case.
type Child struct {
	Name        string    `json:"name"`
	DateOfBirth time.Time `json:"date_of_birth"`
}

// Court describes where a case is heard.
type Court struct {
	Name       string `json:"name"`
	County     string `json:"county,omitempty"`
	Department string `json:"department,omitempty"`
	Judge      string `json:"judge,omitempty"`
}

// IssueFlags marks which matters a case contests.
type IssueFlags struct {
	Custody    bool `json:"custody"`
	Support    bool `json:"support"`
	Property   bool `json:"property"`
	Visitation bool `json:"visitation"`
	Protection bool `json:"protection"`
}

// Financials is an optional money snapshot attached to a case.
type Financials struct {
	PetitionerIncome float64 `json:"petitioner_income,omitempty"`
	RespondentIncome float64 `json:"respondent_income,omitempty"`
	SupportAmount    float64 `json:"support_amount,omitempty"`
	PropertyValue    float64 `json:"property_value,omitempty"`
	DebtValue        float64 `json:"debt_value,omitempty"`
}

// Case is one legal matter. Cases are never deleted; closing is the end of
// life.
type Case struct {
	ID          string      `json:"id"`
	CaseNumber  string      `json:"case_number"`
	Title       string      `json:"title"`
	Type        CaseType    `json:"type" enum:"divorce,custody,support,modification,protection_order,paternity,adoption"`
	Status      CaseStatus  `json:"status" enum:"intake,filed,served,discovery,negotiation,trial_prep,trial,settled,closed"`
	Priority    Priority    `json:"priority" enum:"low,medium,high,urgent"`
	CreatedAt   time.Time   `json:"created_at"`
	FiledDate   *time.Time  `json:"filed_date,omitempty"`
	ServiceDate *time.Time  `json:"service_date,omitempty"`
	Parties     []Party     `json:"parties"`
	Court       Court       `json:"court"`
	Children    []Child     `json:"children,omitempty"`
	Issues      IssueFlags  `json:"issues"`
	Financials  *Financials `json:"financials,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
}

// Reminder is one reminder spec attached to an event. The fire time is
// derived: event date minus MinutesBefore.
type Reminder struct {
	Channel       ReminderChannel `json:"channel" enum:"email,push,sms"`
	MinutesBefore int             `json:"minutes_before"`
	Sent          bool            `json:"sent"`
	SentAt        *time.Time      `json:"sent_at,omitempty"`
}

// Recurrence configures sibling expansion for an event. At least one of
// EndDate or Occurrences must be set so expansion is finite. Occurrences
// counts the base event.
type Recurrence struct {
	Frequency   RecurrenceFrequency `json:"frequency" enum:"daily,weekly,monthly"`
	EndDate     *time.Time          `json:"end_date,omitempty"`
	Occurrences *int                `json:"occurrences,omitempty"`
}

// CaseEvent is a scheduled occurrence tied to one case by id.
type CaseEvent struct {
	ID              string      `json:"id"`
	CaseID          string      `json:"case_id"`
	Type            EventType   `json:"type" enum:"filing,hearing,deadline,meeting,communication,discovery,motion,order,settlement,other"`
	Title           string      `json:"title"`
	Description     string      `json:"description,omitempty"`
	Date            time.Time   `json:"date"`
	DurationMinutes int         `json:"duration_minutes,omitempty"`
	Location        string      `json:"location,omitempty"`
	Participants    []string    `json:"participants,omitempty"`
	Status          EventStatus `json:"status" enum:"scheduled,completed,cancelled,rescheduled,missed"`
	Outcome         *string     `json:"outcome,omitempty"`
	Reminders       []Reminder  `json:"reminders,omitempty"`
	Recurrence      *Recurrence `json:"recurrence,omitempty"`
	LinkedEvents    []string    `json:"linked_events,omitempty"`
	Private         bool        `json:"private,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

// Subtask is one checklist entry under a task. Completing every subtask does
// not complete the parent; that stays an explicit action.
type Subtask struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CaseTask is one unit of work tied to a case. Dependencies reference sibling
// tasks in the same case and must stay acyclic.
type CaseTask struct {
	ID             string       `json:"id"`
	CaseID         string       `json:"case_id"`
	Title          string       `json:"title"`
	Description    string       `json:"description,omitempty"`
	Assignee       string       `json:"assignee,omitempty"`
	Category       TaskCategory `json:"category" enum:"filing,discovery,communication,court,financial,investigation,preparation,other"`
	Priority       Priority     `json:"priority" enum:"low,medium,high,urgent"`
	Status         TaskStatus   `json:"status" enum:"pending,in_progress,completed,cancelled,blocked"`
	DueDate        *time.Time   `json:"due_date,omitempty"`
	CompletedDate  *time.Time   `json:"completed_date,omitempty"`
	EstimatedHours float64      `json:"estimated_hours,omitempty"`
	ActualHours    float64      `json:"actual_hours,omitempty"`
	Dependencies   []string     `json:"dependencies,omitempty"`
	Subtasks       []Subtask    `json:"subtasks,omitempty"`
	Billable       bool         `json:"billable,omitempty"`
	HourlyRate     float64      `json:"hourly_rate,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// DependenciesSatisfied reports whether every dependency id is completed
// according to the lookup.
func (t CaseTask) DependenciesSatisfied(status func(id string) (TaskStatus, bool)) bool {
	for _, dep := range t.Dependencies {
		s, ok := status(dep)
		if !ok || s != TaskStatusCompleted {
			return false
		}
	}
	return true
}

// Milestone is one derived timeline anchor.
type Milestone struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
	Achieved bool      `json:"achieved"`
}

// Phase is one derived timeline phase.
type Phase struct {
	Name        string      `json:"name"`
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	Status      PhaseStatus `json:"status" enum:"pending,active,completed"`
	Description string      `json:"description,omitempty"`
}

// CaseTimeline is a derived view; it is recomputed on every read and never
// stored.
type CaseTimeline struct {
	CaseID     string      `json:"case_id"`
	Events     []CaseEvent `json:"events"`
	Milestones []Milestone `json:"milestones"`
	Phases     []Phase     `json:"phases"`
}

// CaseStatistics is a derived snapshot; it is recomputed on every read and
// never stored.
type CaseStatistics struct {
	CaseID             string           `json:"case_id"`
	TotalEvents        int              `json:"total_events"`
	CompletedEvents    int              `json:"completed_events"`
	TotalTasks         int              `json:"total_tasks"`
	CompletedTasks     int              `json:"completed_tasks"`
	OverdueTasks       int              `json:"overdue_tasks"`
	TotalHours         float64          `json:"total_hours"`
	TotalBillableHours float64          `json:"total_billable_hours"`
	ActiveDays         int              `json:"active_days"`
	NextCriticalDate   *time.Time       `json:"next_critical_date,omitempty"`
	Compliance         ComplianceStatus `json:"compliance" enum:"compliant,at_risk,non_compliant"`
}

// DueReminder pairs an event with one of its unsent reminders whose fire time
// has passed.
type DueReminder struct {
	Event    CaseEvent `json:"event"`
	Index    int       `json:"index"`
	FireAt   time.Time `json:"fire_at"`
	Reminder Reminder  `json:"reminder"`
}
