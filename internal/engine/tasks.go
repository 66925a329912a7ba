package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"caseline/internal/domain"
	"caseline/internal/notify"
	"caseline/internal/store"
)

// TaskCreateOptions are parameters for adding a task.
type TaskCreateOptions struct {
	Title          string
	Description    string
	Assignee       string
	Category       domain.TaskCategory
	Priority       domain.Priority
	DueDate        *time.Time
	EstimatedHours float64
	Dependencies   []string
	Subtasks       []string
	Billable       bool
	HourlyRate     float64
}

// AddTask adds a task to a case. Dependencies must name existing tasks of the
// same case and must not introduce a cycle. The initial status is blocked
// unless every dependency is already completed.
func (e Engine) AddTask(ctx context.Context, caseID string, opts TaskCreateOptions) (domain.CaseTask, error) {
	if opts.Title == "" {
		return domain.CaseTask{}, store.Invalidf("title", "is required")
	}
	category := opts.Category
	if category == "" {
		category = domain.TaskCategoryOther
	}
	if !category.Valid() {
		return domain.CaseTask{}, store.Invalidf("category", "unknown category %q", opts.Category)
	}
	priority := opts.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return domain.CaseTask{}, store.Invalidf("priority", "unknown priority %q", opts.Priority)
	}
	if opts.EstimatedHours < 0 {
		return domain.CaseTask{}, store.Invalidf("estimated_hours", "must not be negative")
	}
	if opts.HourlyRate < 0 {
		return domain.CaseTask{}, store.Invalidf("hourly_rate", "must not be negative")
	}

	now := e.now()
	t := domain.CaseTask{
		ID:             e.newID(),
		CaseID:         caseID,
		Title:          opts.Title,
		Description:    opts.Description,
		Assignee:       opts.Assignee,
		Category:       category,
		Priority:       priority,
		DueDate:        opts.DueDate,
		EstimatedHours: opts.EstimatedHours,
		Dependencies:   dedupe(opts.Dependencies),
		Billable:       opts.Billable,
		HourlyRate:     opts.HourlyRate,
		CreatedAt:      now,
	}
	for _, title := range opts.Subtasks {
		t.Subtasks = append(t.Subtasks, domain.Subtask{ID: e.newID(), Title: title})
	}
	err := e.Store.Update(caseID, func(cs *store.CaseState) error {
		for _, dep := range t.Dependencies {
			if dep == t.ID {
				return store.Invalidf("dependencies", "task cannot depend on itself")
			}
			if _, ok := cs.TaskStatus(dep); !ok {
				return store.Invalidf("dependencies", "task %s does not exist in this case", dep)
			}
		}
		if wouldCycle(cs, t.ID, t.Dependencies) {
			return fmt.Errorf("%w: task %q", store.ErrCyclicDependency, t.Title)
		}
		t.Status = domain.TaskStatusPending
		if !t.DependenciesSatisfied(cs.TaskStatus) {
			t.Status = domain.TaskStatusBlocked
		}
		cs.PutTask(t)
		return nil
	})
	if err != nil {
		return domain.CaseTask{}, err
	}
	e.emit(caseID, notify.KindTaskCreated, map[string]any{"task_id": t.ID, "title": t.Title, "status": string(t.Status)})
	return t, nil
}

// wouldCycle reports whether making taskID depend on deps would create a
// dependency cycle: depth-first reachability from each dependency back to
// taskID.
func wouldCycle(cs *store.CaseState, taskID string, deps []string) bool {
	visited := map[string]bool{}
	var reaches func(id string) bool
	reaches = func(id string) bool {
		if id == taskID {
			return true
		}
		if visited[id] {
			return false
		}
		visited[id] = true
		t, ok := cs.Task(id)
		if !ok {
			return false
		}
		for _, dep := range t.Dependencies {
			if reaches(dep) {
				return true
			}
		}
		return false
	}
	for _, dep := range deps {
		if reaches(dep) {
			return true
		}
	}
	return false
}

// UpdateTaskStatus moves a task to a new working status. Completed and
// cancelled are terminal. A task whose dependencies are not all completed may
// not become pending or in_progress. Completing a task stamps its completion
// date and re-evaluates its dependents: blocked tasks whose dependencies are
// now all completed become pending.
func (e Engine) UpdateTaskStatus(ctx context.Context, taskID string, status domain.TaskStatus) error {
	if !status.Valid() {
		return store.Invalidf("status", "unknown task status %q", status)
	}
	caseID, ok := e.Store.CaseIDForTask(taskID)
	if !ok {
		return store.ErrNotFound
	}
	var from domain.TaskStatus
	var unblocked []string
	err := e.Store.Update(caseID, func(cs *store.CaseState) error {
		t, ok := cs.Task(taskID)
		if !ok {
			return store.ErrNotFound
		}
		if t.Status.Terminal() {
			return fmt.Errorf("%w: task is %s", store.ErrInvalidTransition, t.Status)
		}
		if (status == domain.TaskStatusPending || status == domain.TaskStatusInProgress) &&
			!t.DependenciesSatisfied(cs.TaskStatus) {
			return fmt.Errorf("%w: dependencies not complete", store.ErrInvalidTransition)
		}
		from = t.Status
		t.Status = status
		if status == domain.TaskStatusCompleted {
			now := e.now()
			t.CompletedDate = &now
		}
		cs.PutTask(t)
		if status == domain.TaskStatusCompleted {
			unblocked = propagateCompletion(cs, taskID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.emit(caseID, notify.KindTaskStatusChanged, map[string]any{
		"task_id": taskID,
		"from":    string(from),
		"to":      string(status),
	})
	for _, id := range unblocked {
		e.emit(caseID, notify.KindTaskUnblocked, map[string]any{"task_id": id, "unblocked_by": taskID})
	}
	return nil
}

// propagateCompletion runs one local pass over the completed task's
// dependents. Unblocked tasks become pending, never in_progress; later
// completions trigger their own passes, which is what makes the fixed point
// transitive.
func propagateCompletion(cs *store.CaseState, completedID string) []string {
	var unblocked []string
	for _, t := range cs.Tasks() {
		if t.Status != domain.TaskStatusBlocked {
			continue
		}
		dependsOnCompleted := false
		for _, dep := range t.Dependencies {
			if dep == completedID {
				dependsOnCompleted = true
				break
			}
		}
		if !dependsOnCompleted {
			continue
		}
		if t.DependenciesSatisfied(cs.TaskStatus) {
			t.Status = domain.TaskStatusPending
			cs.PutTask(t)
			unblocked = append(unblocked, t.ID)
		}
	}
	return unblocked
}

// UpdateTaskDependencies adds and removes dependency edges, re-running the
// cycle check and the blocked/pending evaluation.
func (e Engine) UpdateTaskDependencies(ctx context.Context, taskID string, add, remove []string) error {
	caseID, ok := e.Store.CaseIDForTask(taskID)
	if !ok {
		return store.ErrNotFound
	}
	var from, to domain.TaskStatus
	err := e.Store.Update(caseID, func(cs *store.CaseState) error {
		t, ok := cs.Task(taskID)
		if !ok {
			return store.ErrNotFound
		}
		removeSet := map[string]bool{}
		for _, id := range remove {
			removeSet[id] = true
		}
		next := []string{}
		for _, dep := range t.Dependencies {
			if !removeSet[dep] {
				next = append(next, dep)
			}
		}
		for _, dep := range add {
			if dep == taskID {
				return store.Invalidf("dependencies", "task cannot depend on itself")
			}
			if _, ok := cs.TaskStatus(dep); !ok {
				return store.Invalidf("dependencies", "task %s does not exist in this case", dep)
			}
			next = append(next, dep)
		}
		next = dedupe(next)
		if wouldCycle(cs, taskID, next) {
			return fmt.Errorf("%w: task %s", store.ErrCyclicDependency, taskID)
		}
		from = t.Status
		to = from
		t.Dependencies = next
		satisfied := t.DependenciesSatisfied(cs.TaskStatus)
		switch {
		case t.Status == domain.TaskStatusBlocked && satisfied:
			to = domain.TaskStatusPending
		case (t.Status == domain.TaskStatusPending || t.Status == domain.TaskStatusInProgress) && !satisfied:
			to = domain.TaskStatusBlocked
		}
		t.Status = to
		cs.PutTask(t)
		return nil
	})
	if err != nil {
		return err
	}
	if to != from {
		if to == domain.TaskStatusPending {
			e.emit(caseID, notify.KindTaskUnblocked, map[string]any{"task_id": taskID})
		} else {
			e.emit(caseID, notify.KindTaskStatusChanged, map[string]any{"task_id": taskID, "from": string(from), "to": string(to)})
		}
	}
	return nil
}

// AddSubtask appends a checklist entry to a task.
func (e Engine) AddSubtask(ctx context.Context, taskID, title string) (domain.Subtask, error) {
	if title == "" {
		return domain.Subtask{}, store.Invalidf("title", "is required")
	}
	caseID, ok := e.Store.CaseIDForTask(taskID)
	if !ok {
		return domain.Subtask{}, store.ErrNotFound
	}
	st := domain.Subtask{ID: e.newID(), Title: title}
	err := e.Store.Update(caseID, func(cs *store.CaseState) error {
		t, ok := cs.Task(taskID)
		if !ok {
			return store.ErrNotFound
		}
		t.Subtasks = append(t.Subtasks, st)
		cs.PutTask(t)
		return nil
	})
	if err != nil {
		return domain.Subtask{}, err
	}
	return st, nil
}

// ToggleSubtask flips a subtask's completed flag and stamps or clears its
// completion time. The parent task's status is untouched: parent completion
// is always an explicit action.
func (e Engine) ToggleSubtask(ctx context.Context, taskID, subtaskID string) error {
	caseID, ok := e.Store.CaseIDForTask(taskID)
	if !ok {
		return store.ErrNotFound
	}
	return e.Store.Update(caseID, func(cs *store.CaseState) error {
		t, ok := cs.Task(taskID)
		if !ok {
			return store.ErrNotFound
		}
		for i := range t.Subtasks {
			if t.Subtasks[i].ID != subtaskID {
				continue
			}
			if t.Subtasks[i].Completed {
				t.Subtasks[i].Completed = false
				t.Subtasks[i].CompletedAt = nil
			} else {
				now := e.now()
				t.Subtasks[i].Completed = true
				t.Subtasks[i].CompletedAt = &now
			}
			cs.PutTask(t)
			return nil
		}
		return store.ErrNotFound
	})
}

// AssignTask sets or clears a task's assignee.
func (e Engine) AssignTask(ctx context.Context, taskID, assignee string) error {
	caseID, ok := e.Store.CaseIDForTask(taskID)
	if !ok {
		return store.ErrNotFound
	}
	return e.Store.Update(caseID, func(cs *store.CaseState) error {
		t, ok := cs.Task(taskID)
		if !ok {
			return store.ErrNotFound
		}
		t.Assignee = assignee
		cs.PutTask(t)
		return nil
	})
}

// LogTaskHours adds worked hours to a task's actual total.
func (e Engine) LogTaskHours(ctx context.Context, taskID string, hours float64) error {
	if hours <= 0 {
		return store.Invalidf("hours", "must be positive")
	}
	caseID, ok := e.Store.CaseIDForTask(taskID)
	if !ok {
		return store.ErrNotFound
	}
	return e.Store.Update(caseID, func(cs *store.CaseState) error {
		t, ok := cs.Task(taskID)
		if !ok {
			return store.ErrNotFound
		}
		t.ActualHours += hours
		cs.PutTask(t)
		return nil
	})
}

// GetTask returns one task by id.
func (e Engine) GetTask(ctx context.Context, taskID string) (domain.CaseTask, error) {
	caseID, ok := e.Store.CaseIDForTask(taskID)
	if !ok {
		return domain.CaseTask{}, store.ErrNotFound
	}
	var t domain.CaseTask
	err := e.Store.View(caseID, func(cs *store.CaseState) error {
		got, ok := cs.Task(taskID)
		if !ok {
			return store.ErrNotFound
		}
		t = got
		return nil
	})
	return t, err
}

// ListTasks returns a case's tasks in insertion order.
func (e Engine) ListTasks(ctx context.Context, caseID string) ([]domain.CaseTask, error) {
	var out []domain.CaseTask
	err := e.Store.View(caseID, func(cs *store.CaseState) error {
		out = cs.Tasks()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetOverdue returns open tasks whose due date is strictly before now,
// ordered by due date ascending. An empty caseID spans all cases.
func (e Engine) GetOverdue(ctx context.Context, caseID string) ([]domain.CaseTask, error) {
	now := e.now()
	overdue := func(t domain.CaseTask) bool {
		return t.DueDate != nil && t.DueDate.Before(now) && t.Status.Open()
	}
	out := []domain.CaseTask{}
	if caseID != "" {
		err := e.Store.View(caseID, func(cs *store.CaseState) error {
			for _, t := range cs.Tasks() {
				if overdue(t) {
					out = append(out, t)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		e.Store.EachCase(func(cs *store.CaseState) {
			for _, t := range cs.Tasks() {
				if overdue(t) {
					out = append(out, t)
				}
			}
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(*out[j].DueDate) })
	return out, nil
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
