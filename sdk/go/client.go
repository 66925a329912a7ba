// Package caselinesdk is a thin Go client for the Caseline HTTP API. It
// exposes the API's JSON payloads as the engine's own domain types.
package caselinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"caseline/internal/domain"
	"caseline/internal/notify"
)

// Client is a minimal Caseline HTTP API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Notifications wraps a cursor pull over the notification log.
type Notifications struct {
	Items  []notify.Notification `json:"items"`
	Latest int64                 `json:"latest"`
}

// CreateCase creates a case. The body follows the create-case request schema.
func (c *Client) CreateCase(ctx context.Context, body map[string]any) (domain.Case, error) {
	var resp domain.Case
	err := c.do(ctx, http.MethodPost, "v0/cases", body, &resp)
	return resp, err
}

// GetCase fetches one case.
func (c *Client) GetCase(ctx context.Context, caseID string) (domain.Case, error) {
	var resp domain.Case
	err := c.do(ctx, http.MethodGet, "v0/cases/"+url.PathEscape(caseID), nil, &resp)
	return resp, err
}

// ListCases lists all cases, or searches when query is non-empty.
func (c *Client) ListCases(ctx context.Context, query string) ([]domain.Case, error) {
	endpoint := "v0/cases"
	if query != "" {
		endpoint += "?q=" + url.QueryEscape(query)
	}
	var resp []domain.Case
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// UpdateCaseStatus advances a case's lifecycle status.
func (c *Client) UpdateCaseStatus(ctx context.Context, caseID, status string) (domain.Case, error) {
	var resp domain.Case
	endpoint := fmt.Sprintf("v0/cases/%s/status", url.PathEscape(caseID))
	err := c.do(ctx, http.MethodPatch, endpoint, map[string]any{"status": status}, &resp)
	return resp, err
}

// SetCaseDates sets the filed and service dates.
func (c *Client) SetCaseDates(ctx context.Context, caseID string, filed, served *time.Time) (domain.Case, error) {
	body := map[string]any{}
	if filed != nil {
		body["filed_date"] = filed
	}
	if served != nil {
		body["service_date"] = served
	}
	var resp domain.Case
	endpoint := fmt.Sprintf("v0/cases/%s/dates", url.PathEscape(caseID))
	err := c.do(ctx, http.MethodPatch, endpoint, body, &resp)
	return resp, err
}

// AddEvent schedules an event against a case.
func (c *Client) AddEvent(ctx context.Context, caseID string, body map[string]any) (domain.CaseEvent, error) {
	var resp domain.CaseEvent
	endpoint := fmt.Sprintf("v0/cases/%s/events", url.PathEscape(caseID))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// ListEvents lists a case's events.
func (c *Client) ListEvents(ctx context.Context, caseID string) ([]domain.CaseEvent, error) {
	var resp []domain.CaseEvent
	endpoint := fmt.Sprintf("v0/cases/%s/events", url.PathEscape(caseID))
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// UpdateEventStatus moves an event to a new status, optionally recording an
// outcome.
func (c *Client) UpdateEventStatus(ctx context.Context, eventID, status string, outcome *string) (domain.CaseEvent, error) {
	body := map[string]any{"status": status}
	if outcome != nil {
		body["outcome"] = *outcome
	}
	var resp domain.CaseEvent
	endpoint := fmt.Sprintf("v0/events/%s/status", url.PathEscape(eventID))
	err := c.do(ctx, http.MethodPatch, endpoint, body, &resp)
	return resp, err
}

// Upcoming lists scheduled events inside the window. An empty caseID spans
// all cases.
func (c *Client) Upcoming(ctx context.Context, caseID string, withinDays int) ([]domain.CaseEvent, error) {
	endpoint := fmt.Sprintf("v0/events/upcoming?within_days=%d", withinDays)
	if caseID != "" {
		endpoint += "&case_id=" + url.QueryEscape(caseID)
	}
	var resp []domain.CaseEvent
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// DueReminders lists reminders whose fire time has passed.
func (c *Client) DueReminders(ctx context.Context) ([]domain.DueReminder, error) {
	var resp []domain.DueReminder
	err := c.do(ctx, http.MethodGet, "v0/reminders/due", nil, &resp)
	return resp, err
}

// MarkReminderSent marks one reminder on an event as delivered.
func (c *Client) MarkReminderSent(ctx context.Context, eventID string, index int) (domain.CaseEvent, error) {
	var resp domain.CaseEvent
	endpoint := fmt.Sprintf("v0/events/%s/reminders/%d/sent", url.PathEscape(eventID), index)
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// AddTask adds a task to a case.
func (c *Client) AddTask(ctx context.Context, caseID string, body map[string]any) (domain.CaseTask, error) {
	var resp domain.CaseTask
	endpoint := fmt.Sprintf("v0/cases/%s/tasks", url.PathEscape(caseID))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// ListTasks lists a case's tasks.
func (c *Client) ListTasks(ctx context.Context, caseID string) ([]domain.CaseTask, error) {
	var resp []domain.CaseTask
	endpoint := fmt.Sprintf("v0/cases/%s/tasks", url.PathEscape(caseID))
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// GetTask fetches one task.
func (c *Client) GetTask(ctx context.Context, taskID string) (domain.CaseTask, error) {
	var resp domain.CaseTask
	err := c.do(ctx, http.MethodGet, "v0/tasks/"+url.PathEscape(taskID), nil, &resp)
	return resp, err
}

// UpdateTaskStatus moves a task to a new working status.
func (c *Client) UpdateTaskStatus(ctx context.Context, taskID, status string) (domain.CaseTask, error) {
	var resp domain.CaseTask
	endpoint := fmt.Sprintf("v0/tasks/%s/status", url.PathEscape(taskID))
	err := c.do(ctx, http.MethodPatch, endpoint, map[string]any{"status": status}, &resp)
	return resp, err
}

// UpdateTaskDependencies adds and removes dependency edges.
func (c *Client) UpdateTaskDependencies(ctx context.Context, taskID string, add, remove []string) (domain.CaseTask, error) {
	var resp domain.CaseTask
	endpoint := fmt.Sprintf("v0/tasks/%s/dependencies", url.PathEscape(taskID))
	err := c.do(ctx, http.MethodPatch, endpoint, map[string]any{"add": add, "remove": remove}, &resp)
	return resp, err
}

// AssignTask sets or clears the assignee.
func (c *Client) AssignTask(ctx context.Context, taskID, assignee string) (domain.CaseTask, error) {
	var resp domain.CaseTask
	endpoint := fmt.Sprintf("v0/tasks/%s/assignee", url.PathEscape(taskID))
	err := c.do(ctx, http.MethodPatch, endpoint, map[string]any{"assignee": assignee}, &resp)
	return resp, err
}

// AddSubtask appends a checklist entry.
func (c *Client) AddSubtask(ctx context.Context, taskID, title string) (domain.Subtask, error) {
	var resp domain.Subtask
	endpoint := fmt.Sprintf("v0/tasks/%s/subtasks", url.PathEscape(taskID))
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"title": title}, &resp)
	return resp, err
}

// ToggleSubtask flips a subtask's completed flag.
func (c *Client) ToggleSubtask(ctx context.Context, taskID, subtaskID string) (domain.CaseTask, error) {
	var resp domain.CaseTask
	endpoint := fmt.Sprintf("v0/tasks/%s/subtasks/%s/toggle", url.PathEscape(taskID), url.PathEscape(subtaskID))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// LogHours adds worked hours to a task.
func (c *Client) LogHours(ctx context.Context, taskID string, hours float64) (domain.CaseTask, error) {
	var resp domain.CaseTask
	endpoint := fmt.Sprintf("v0/tasks/%s/hours", url.PathEscape(taskID))
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"hours": hours}, &resp)
	return resp, err
}

// Overdue lists overdue open tasks. An empty caseID spans all cases.
func (c *Client) Overdue(ctx context.Context, caseID string) ([]domain.CaseTask, error) {
	endpoint := "v0/tasks/overdue"
	if caseID != "" {
		endpoint += "?case_id=" + url.QueryEscape(caseID)
	}
	var resp []domain.CaseTask
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Timeline fetches the derived timeline view for a case.
func (c *Client) Timeline(ctx context.Context, caseID string) (domain.CaseTimeline, error) {
	var resp domain.CaseTimeline
	endpoint := fmt.Sprintf("v0/cases/%s/timeline", url.PathEscape(caseID))
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Statistics fetches the derived statistics snapshot for a case.
func (c *Client) Statistics(ctx context.Context, caseID string) (domain.CaseStatistics, error) {
	var resp domain.CaseStatistics
	endpoint := fmt.Sprintf("v0/cases/%s/statistics", url.PathEscape(caseID))
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// NotificationsAfter pulls notifications with id greater than cursor.
func (c *Client) NotificationsAfter(ctx context.Context, cursor int64, limit int) (Notifications, error) {
	endpoint := fmt.Sprintf("v0/notifications?after=%d&limit=%d", cursor, limit)
	var resp Notifications
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
