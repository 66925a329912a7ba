package server

import (
	"time"

	"caseline/internal/domain"
	"caseline/internal/notify"
)

// Request payloads

type CreateCaseRequest struct {
	CaseNumber  string             `json:"case_number"`
	Title       string             `json:"title"`
	Type        domain.CaseType    `json:"type" enum:"divorce,custody,support,modification,protection_order,paternity,adoption"`
	Priority    domain.Priority    `json:"priority,omitempty" enum:"low,medium,high,urgent"`
	Parties     []domain.Party     `json:"parties"`
	Court       domain.Court       `json:"court"`
	Children    []domain.Child     `json:"children,omitempty"`
	Issues      domain.IssueFlags  `json:"issues,omitempty"`
	Financials  *domain.Financials `json:"financials,omitempty"`
	Tags        []string           `json:"tags,omitempty"`
	FiledDate   *time.Time         `json:"filed_date,omitempty"`
	ServiceDate *time.Time         `json:"service_date,omitempty"`
}

type UpdateCaseStatusRequest struct {
	Status domain.CaseStatus `json:"status" enum:"intake,filed,served,discovery,negotiation,trial_prep,trial,settled,closed"`
}

type SetCaseDatesRequest struct {
	FiledDate   *time.Time `json:"filed_date,omitempty"`
	ServiceDate *time.Time `json:"service_date,omitempty"`
}

type ReminderRequest struct {
	Channel       domain.ReminderChannel `json:"channel" enum:"email,push,sms"`
	MinutesBefore int                    `json:"minutes_before"`
}

type CreateEventRequest struct {
	Type            domain.EventType   `json:"type,omitempty" enum:"filing,hearing,deadline,meeting,communication,discovery,motion,order,settlement,other"`
	Title           string             `json:"title"`
	Description     string             `json:"description,omitempty"`
	Date            time.Time          `json:"date"`
	DurationMinutes int                `json:"duration_minutes,omitempty"`
	Location        string             `json:"location,omitempty"`
	Participants    []string           `json:"participants,omitempty"`
	Reminders       []ReminderRequest  `json:"reminders,omitempty"`
	Recurrence      *domain.Recurrence `json:"recurrence,omitempty"`
	Private         bool               `json:"private,omitempty"`
}

type UpdateEventStatusRequest struct {
	Status  domain.EventStatus `json:"status" enum:"scheduled,completed,cancelled,rescheduled,missed"`
	Outcome *string            `json:"outcome,omitempty"`
}

type CreateTaskRequest struct {
	Title          string              `json:"title"`
	Description    string              `json:"description,omitempty"`
	Assignee       string              `json:"assignee,omitempty"`
	Category       domain.TaskCategory `json:"category,omitempty" enum:"filing,discovery,communication,court,financial,investigation,preparation,other"`
	Priority       domain.Priority     `json:"priority,omitempty" enum:"low,medium,high,urgent"`
	DueDate        *time.Time          `json:"due_date,omitempty"`
	EstimatedHours float64             `json:"estimated_hours,omitempty"`
	Dependencies   []string            `json:"dependencies,omitempty"`
	Subtasks       []string            `json:"subtasks,omitempty"`
	Billable       bool                `json:"billable,omitempty"`
	HourlyRate     float64             `json:"hourly_rate,omitempty"`
}

type UpdateTaskStatusRequest struct {
	Status domain.TaskStatus `json:"status" enum:"pending,in_progress,completed,cancelled,blocked"`
}

type UpdateTaskDependenciesRequest struct {
	Add    []string `json:"add,omitempty"`
	Remove []string `json:"remove,omitempty"`
}

type AssignTaskRequest struct {
	Assignee string `json:"assignee"`
}

type AddSubtaskRequest struct {
	Title string `json:"title"`
}

type LogHoursRequest struct {
	Hours float64 `json:"hours"`
}

// Response payloads

type NotificationsResponse struct {
	Items  []notify.Notification `json:"items"`
	Latest int64                 `json:"latest"`
}
