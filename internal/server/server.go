// Package server exposes the case engine over HTTP. Handlers are thin: every
// operation delegates to the engine and maps its errors onto the API error
// envelope.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"caseline/internal/domain"
	"caseline/internal/engine"
	"caseline/internal/notify"
	"caseline/internal/store"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"invalid_transition"`
	Message string         `json:"message" example:"case status may only move forward"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true" example:"{\"field\":\"status\"}"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Caseline API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// Schema/request validation errors should be 400 bad_request
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	hcfg := huma.DefaultConfig("Caseline API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerCases(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerTasks(group, cfg.Engine)
	registerViews(group, cfg.Engine)
	registerNotifications(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var ve store.ValidationError
	if errors.As(err, &ve) {
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), map[string]any{"field": ve.Field})
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, store.ErrInvalidTransition):
		return newAPIError(http.StatusConflict, "invalid_transition", err.Error(), nil)
	case errors.Is(err, store.ErrCyclicDependency):
		return newAPIError(http.StatusUnprocessableEntity, "cyclic_dependency", err.Error(), nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "invalid_transition"
	case http.StatusUnprocessableEntity:
		return "cyclic_dependency"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			spec, _ = json.Marshal(api.OpenAPI())
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Caseline API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerCases(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-case",
		Method:        http.MethodPost,
		Path:          "/cases",
		Summary:       "Create case",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreateCaseRequest `json:"body"`
	}) (*struct {
		Body domain.Case `json:"body"`
	}, error) {
		c, err := e.CreateCase(ctx, engine.CaseCreateOptions{
			CaseNumber:  input.Body.CaseNumber,
			Title:       input.Body.Title,
			Type:        input.Body.Type,
			Priority:    input.Body.Priority,
			Parties:     input.Body.Parties,
			Court:       input.Body.Court,
			Children:    input.Body.Children,
			Issues:      input.Body.Issues,
			Financials:  input.Body.Financials,
			Tags:        input.Body.Tags,
			FiledDate:   input.Body.FiledDate,
			ServiceDate: input.Body.ServiceDate,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Case `json:"body"`
		}{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-cases",
		Method:      http.MethodGet,
		Path:        "/cases",
		Summary:     "List or search cases",
	}, func(ctx context.Context, input *struct {
		Query string `query:"q"`
	}) (*struct {
		Body []domain.Case `json:"body"`
	}, error) {
		var items []domain.Case
		if input.Query != "" {
			items = e.SearchCases(ctx, input.Query)
		} else {
			items = e.ListCases(ctx)
		}
		return &struct {
			Body []domain.Case `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-case",
		Method:      http.MethodGet,
		Path:        "/cases/{case_id}",
		Summary:     "Get case",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CaseID string `path:"case_id"`
	}) (*struct {
		Body domain.Case `json:"body"`
	}, error) {
		c, err := e.GetCase(ctx, input.CaseID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Case `json:"body"`
		}{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-case-status",
		Method:      http.MethodPatch,
		Path:        "/cases/{case_id}/status",
		Summary:     "Advance case status",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		CaseID string                  `path:"case_id"`
		Body   UpdateCaseStatusRequest `json:"body"`
	}) (*struct {
		Body domain.Case `json:"body"`
	}, error) {
		if err := e.UpdateCaseStatus(ctx, input.CaseID, input.Body.Status); err != nil {
			return nil, handleError(err)
		}
		c, err := e.GetCase(ctx, input.CaseID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Case `json:"body"`
		}{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-case-dates",
		Method:      http.MethodPatch,
		Path:        "/cases/{case_id}/dates",
		Summary:     "Set filed and service dates",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CaseID string              `path:"case_id"`
		Body   SetCaseDatesRequest `json:"body"`
	}) (*struct {
		Body domain.Case `json:"body"`
	}, error) {
		if err := e.SetCaseDates(ctx, input.CaseID, input.Body.FiledDate, input.Body.ServiceDate); err != nil {
			return nil, handleError(err)
		}
		c, err := e.GetCase(ctx, input.CaseID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Case `json:"body"`
		}{Body: c}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "add-event",
		Method:        http.MethodPost,
		Path:          "/cases/{case_id}/events",
		Summary:       "Schedule event",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CaseID string             `path:"case_id"`
		Body   CreateEventRequest `json:"body"`
	}) (*struct {
		Body domain.CaseEvent `json:"body"`
	}, error) {
		opts := engine.EventCreateOptions{
			Type:            input.Body.Type,
			Title:           input.Body.Title,
			Description:     input.Body.Description,
			Date:            input.Body.Date,
			DurationMinutes: input.Body.DurationMinutes,
			Location:        input.Body.Location,
			Participants:    input.Body.Participants,
			Recurrence:      input.Body.Recurrence,
			Private:         input.Body.Private,
		}
		for _, r := range input.Body.Reminders {
			opts.Reminders = append(opts.Reminders, engine.ReminderSpec{
				Channel:       r.Channel,
				MinutesBefore: r.MinutesBefore,
			})
		}
		ev, err := e.AddEvent(ctx, input.CaseID, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.CaseEvent `json:"body"`
		}{Body: ev}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/cases/{case_id}/events",
		Summary:     "List events",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CaseID string `path:"case_id"`
	}) (*struct {
		Body []domain.CaseEvent `json:"body"`
	}, error) {
		items, err := e.ListEvents(ctx, input.CaseID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.CaseEvent `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-event",
		Method:      http.MethodGet,
		Path:        "/events/{event_id}",
		Summary:     "Get event",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		EventID string `path:"event_id"`
	}) (*struct {
		Body domain.CaseEvent `json:"body"`
	}, error) {
		ev, err := e.GetEvent(ctx, input.EventID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.CaseEvent `json:"body"`
		}{Body: ev}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-event-status",
		Method:      http.MethodPatch,
		Path:        "/events/{event_id}/status",
		Summary:     "Update event status",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		EventID string                   `path:"event_id"`
		Body    UpdateEventStatusRequest `json:"body"`
	}) (*struct {
		Body domain.CaseEvent `json:"body"`
	}, error) {
		if err := e.UpdateEventStatus(ctx, input.EventID, input.Body.Status, input.Body.Outcome); err != nil {
			return nil, handleError(err)
		}
		ev, err := e.GetEvent(ctx, input.EventID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.CaseEvent `json:"body"`
		}{Body: ev}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "upcoming-events",
		Method:      http.MethodGet,
		Path:        "/events/upcoming",
		Summary:     "Upcoming events",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CaseID     string `query:"case_id"`
		WithinDays int    `query:"within_days" default:"7"`
	}) (*struct {
		Body []domain.CaseEvent `json:"body"`
	}, error) {
		items, err := e.GetUpcoming(ctx, input.CaseID, input.WithinDays)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.CaseEvent `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "due-reminders",
		Method:      http.MethodGet,
		Path:        "/reminders/due",
		Summary:     "Reminders due for delivery",
	}, func(ctx context.Context, input *struct {
		AsOf time.Time `query:"as_of"`
	}) (*struct {
		Body []domain.DueReminder `json:"body"`
	}, error) {
		asOf := input.AsOf
		if asOf.IsZero() {
			asOf = time.Now().UTC()
		}
		return &struct {
			Body []domain.DueReminder `json:"body"`
		}{Body: e.DueReminders(ctx, asOf)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "mark-reminder-sent",
		Method:      http.MethodPost,
		Path:        "/events/{event_id}/reminders/{index}/sent",
		Summary:     "Mark reminder as sent",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		EventID string `path:"event_id"`
		Index   int    `path:"index"`
	}) (*struct {
		Body domain.CaseEvent `json:"body"`
	}, error) {
		if err := e.MarkReminderSent(ctx, input.EventID, input.Index); err != nil {
			return nil, handleError(err)
		}
		ev, err := e.GetEvent(ctx, input.EventID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.CaseEvent `json:"body"`
		}{Body: ev}, nil
	})
}

func registerTasks(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "add-task",
		Method:        http.MethodPost,
		Path:          "/cases/{case_id}/tasks",
		Summary:       "Add task",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		CaseID string            `path:"case_id"`
		Body   CreateTaskRequest `json:"body"`
	}) (*struct {
		Body domain.CaseTask `json:"body"`
	}, error) {
		t, err := e.AddTask(ctx, input.CaseID, engine.TaskCreateOptions{
			Title:          input.Body.Title,
			Description:    input.Body.Description,
			Assignee:       input.Body.Assignee,
			Category:       input.Body.Category,
			Priority:       input.Body.Priority,
			DueDate:        input.Body.DueDate,
			EstimatedHours: input.Body.EstimatedHours,
			Dependencies:   input.Body.Dependencies,
			Subtasks:       input.Body.Subtasks,
			Billable:       input.Body.Billable,
			HourlyRate:     input.Body.HourlyRate,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.CaseTask `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/cases/{case_id}/tasks",
		Summary:     "List tasks",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CaseID string `path:"case_id"`
	}) (*struct {
		Body []domain.CaseTask `json:"body"`
	}, error) {
		items, err := e.ListTasks(ctx, input.CaseID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.CaseTask `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{task_id}",
		Summary:     "Get task",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
	}) (*struct {
		Body domain.CaseTask `json:"body"`
	}, error) {
		t, err := e.GetTask(ctx, input.TaskID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.CaseTask `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task-status",
		Method:      http.MethodPatch,
		Path:        "/tasks/{task_id}/status",
		Summary:     "Update task status",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		TaskID string                  `path:"task_id"`
		Body   UpdateTaskStatusRequest `json:"body"`
	}) (*struct {
		Body domain.CaseTask `json:"body"`
	}, error) {
		if err := e.UpdateTaskStatus(ctx, input.TaskID, input.Body.Status); err != nil {
			return nil, handleError(err)
		}
		t, err := e.GetTask(ctx, input.TaskID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.CaseTask `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task-dependencies",
		Method:      http.MethodPatch,
		Path:        "/tasks/{task_id}/dependencies",
		Summary:     "Add or remove task dependencies",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		TaskID string                        `path:"task_id"`
		Body   UpdateTaskDependenciesRequest `json:"body"`
	}) (*struct {
		Body domain.CaseTask `json:"body"`
	}, error) {
		if err := e.UpdateTaskDependencies(ctx, input.TaskID, input.Body.Add, input.Body.Remove); err != nil {
			return nil, handleError(err)
		}
		t, err := e.GetTask(ctx, input.TaskID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.CaseTask `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "assign-task",
		Method:      http.MethodPatch,
		Path:        "/tasks/{task_id}/assignee",
		Summary:     "Assign task",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string            `path:"task_id"`
		Body   AssignTaskRequest `json:"body"`
	}) (*struct {
		Body domain.CaseTask `json:"body"`
	}, error) {
		if err := e.AssignTask(ctx, input.TaskID, input.Body.Assignee); err != nil {
			return nil, handleError(err)
		}
		t, err := e.GetTask(ctx, input.TaskID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.CaseTask `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-subtask",
		Method:        http.MethodPost,
		Path:          "/tasks/{task_id}/subtasks",
		Summary:       "Add subtask",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string            `path:"task_id"`
		Body   AddSubtaskRequest `json:"body"`
	}) (*struct {
		Body domain.Subtask `json:"body"`
	}, error) {
		st, err := e.AddSubtask(ctx, input.TaskID, input.Body.Title)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Subtask `json:"body"`
		}{Body: st}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "toggle-subtask",
		Method:      http.MethodPost,
		Path:        "/tasks/{task_id}/subtasks/{subtask_id}/toggle",
		Summary:     "Toggle subtask completion",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID    string `path:"task_id"`
		SubtaskID string `path:"subtask_id"`
	}) (*struct {
		Body domain.CaseTask `json:"body"`
	}, error) {
		if err := e.ToggleSubtask(ctx, input.TaskID, input.SubtaskID); err != nil {
			return nil, handleError(err)
		}
		t, err := e.GetTask(ctx, input.TaskID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.CaseTask `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "log-task-hours",
		Method:      http.MethodPost,
		Path:        "/tasks/{task_id}/hours",
		Summary:     "Log worked hours",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string          `path:"task_id"`
		Body   LogHoursRequest `json:"body"`
	}) (*struct {
		Body domain.CaseTask `json:"body"`
	}, error) {
		if err := e.LogTaskHours(ctx, input.TaskID, input.Body.Hours); err != nil {
			return nil, handleError(err)
		}
		t, err := e.GetTask(ctx, input.TaskID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.CaseTask `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "overdue-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks/overdue",
		Summary:     "Overdue tasks",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CaseID string `query:"case_id"`
	}) (*struct {
		Body []domain.CaseTask `json:"body"`
	}, error) {
		items, err := e.GetOverdue(ctx, input.CaseID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.CaseTask `json:"body"`
		}{Body: items}, nil
	})
}

func registerViews(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "case-timeline",
		Method:      http.MethodGet,
		Path:        "/cases/{case_id}/timeline",
		Summary:     "Derived case timeline",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CaseID string `path:"case_id"`
	}) (*struct {
		Body domain.CaseTimeline `json:"body"`
	}, error) {
		tl, err := e.ProjectTimeline(ctx, input.CaseID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.CaseTimeline `json:"body"`
		}{Body: tl}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "case-statistics",
		Method:      http.MethodGet,
		Path:        "/cases/{case_id}/statistics",
		Summary:     "Derived case statistics",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CaseID string `path:"case_id"`
	}) (*struct {
		Body domain.CaseStatistics `json:"body"`
	}, error) {
		st, err := e.AggregateStatistics(ctx, input.CaseID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.CaseStatistics `json:"body"`
		}{Body: st}, nil
	})
}

func registerNotifications(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "notifications",
		Method:      http.MethodGet,
		Path:        "/notifications",
		Summary:     "Notification log (cursor pull)",
	}, func(ctx context.Context, input *struct {
		After int64 `query:"after"`
		Limit int   `query:"limit" default:"100"`
	}) (*struct {
		Body NotificationsResponse `json:"body"`
	}, error) {
		items := e.Log.After(input.After, input.Limit)
		if items == nil {
			items = []notify.Notification{}
		}
		resp := NotificationsResponse{Items: items, Latest: e.Log.Latest()}
		return &struct {
			Body NotificationsResponse `json:"body"`
		}{Body: resp}, nil
	})
}
