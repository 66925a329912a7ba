package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"caseline/internal/domain"
	"caseline/internal/notify"
	"caseline/internal/store"
)

// CaseCreateOptions are parameters for creating a case.
type CaseCreateOptions struct {
	CaseNumber  string
	Title       string
	Type        domain.CaseType
	Priority    domain.Priority
	Parties     []domain.Party
	Court       domain.Court
	Children    []domain.Child
	Issues      domain.IssueFlags
	Financials  *domain.Financials
	Tags        []string
	FiledDate   *time.Time
	ServiceDate *time.Time
}

// CreateCase validates the options, registers the case, and instantiates the
// template catalog's defaults for the case type.
func (e Engine) CreateCase(ctx context.Context, opts CaseCreateOptions) (domain.Case, error) {
	if opts.CaseNumber == "" {
		return domain.Case{}, store.Invalidf("case_number", "is required")
	}
	if opts.Title == "" {
		return domain.Case{}, store.Invalidf("title", "is required")
	}
	if !opts.Type.Valid() {
		return domain.Case{}, store.Invalidf("type", "unknown case type %q", opts.Type)
	}
	if len(opts.Parties) == 0 {
		return domain.Case{}, store.Invalidf("parties", "at least one party is required")
	}
	for i, p := range opts.Parties {
		if p.Name == "" {
			return domain.Case{}, store.Invalidf("parties", "party %d has no name", i)
		}
	}
	if opts.Court.Name == "" {
		return domain.Case{}, store.Invalidf("court.name", "is required")
	}
	priority := opts.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return domain.Case{}, store.Invalidf("priority", "unknown priority %q", priority)
	}
	now := e.now()
	if opts.FiledDate != nil && opts.FiledDate.Before(now) {
		return domain.Case{}, store.Invalidf("filed_date", "must not precede case creation")
	}
	if opts.ServiceDate != nil {
		if opts.FiledDate == nil {
			return domain.Case{}, store.Invalidf("service_date", "requires a filed date")
		}
		if opts.ServiceDate.Before(*opts.FiledDate) {
			return domain.Case{}, store.Invalidf("service_date", "must not precede the filed date")
		}
	}

	c := domain.Case{
		ID:          e.newID(),
		CaseNumber:  opts.CaseNumber,
		Title:       opts.Title,
		Type:        opts.Type,
		Status:      domain.CaseStatusIntake,
		Priority:    priority,
		CreatedAt:   now,
		FiledDate:   opts.FiledDate,
		ServiceDate: opts.ServiceDate,
		Parties:     opts.Parties,
		Court:       opts.Court,
		Children:    opts.Children,
		Issues:      opts.Issues,
		Financials:  opts.Financials,
		Tags:        opts.Tags,
	}
	if err := e.Store.InsertCase(c); err != nil {
		return domain.Case{}, err
	}
	e.emit(c.ID, notify.KindCaseCreated, map[string]any{
		"case_number": c.CaseNumber,
		"type":        string(c.Type),
		"status":      string(c.Status),
	})
	if err := e.instantiateTemplate(c); err != nil {
		return domain.Case{}, err
	}
	return e.Store.GetCase(c.ID)
}

// instantiateTemplate creates the catalog's default tasks and events for a
// freshly created case. Dependency titles resolve to the new task ids.
func (e Engine) instantiateTemplate(c domain.Case) error {
	tpl, ok := e.Catalog.For(c.Type)
	if !ok {
		return nil
	}
	now := e.now()
	idByTitle := make(map[string]string, len(tpl.Tasks))
	for _, ts := range tpl.Tasks {
		idByTitle[ts.Title] = e.newID()
	}
	var created []domain.CaseTask
	for _, ts := range tpl.Tasks {
		deps := make([]string, 0, len(ts.DependsOn))
		for _, title := range ts.DependsOn {
			deps = append(deps, idByTitle[title])
		}
		status := domain.TaskStatusPending
		if len(deps) > 0 {
			status = domain.TaskStatusBlocked
		}
		category := ts.Category
		if category == "" {
			category = domain.TaskCategoryOther
		}
		priority := ts.Priority
		if priority == "" {
			priority = domain.PriorityMedium
		}
		t := domain.CaseTask{
			ID:             idByTitle[ts.Title],
			CaseID:         c.ID,
			Title:          ts.Title,
			Description:    ts.Description,
			Category:       category,
			Priority:       priority,
			Status:         status,
			EstimatedHours: ts.EstimatedHours,
			Dependencies:   deps,
			Billable:       ts.Billable,
			CreatedAt:      now,
		}
		if ts.DueInDays > 0 {
			due := now.AddDate(0, 0, ts.DueInDays)
			t.DueDate = &due
		}
		created = append(created, t)
	}
	var events []domain.CaseEvent
	for _, es := range tpl.Events {
		typ := es.Type
		if typ == "" {
			typ = domain.EventTypeOther
		}
		events = append(events, domain.CaseEvent{
			ID:              e.newID(),
			CaseID:          c.ID,
			Type:            typ,
			Title:           es.Title,
			Description:     es.Description,
			Date:            now.AddDate(0, 0, es.InDays),
			DurationMinutes: es.DurationMinutes,
			Status:          domain.EventStatusScheduled,
			CreatedAt:       now,
		})
	}
	err := e.Store.Update(c.ID, func(cs *store.CaseState) error {
		for _, t := range created {
			cs.PutTask(t)
		}
		for _, ev := range events {
			cs.PutEvent(ev)
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, t := range created {
		e.emit(c.ID, notify.KindTaskCreated, map[string]any{"task_id": t.ID, "title": t.Title, "status": string(t.Status)})
	}
	for _, ev := range events {
		e.emit(c.ID, notify.KindEventCreated, map[string]any{"event_id": ev.ID, "title": ev.Title, "type": string(ev.Type)})
	}
	return nil
}

// GetCase returns one case by id.
func (e Engine) GetCase(ctx context.Context, caseID string) (domain.Case, error) {
	return e.Store.GetCase(caseID)
}

// ListCases returns all cases in insertion order.
func (e Engine) ListCases(ctx context.Context) []domain.Case {
	return e.Store.ListCases()
}

// SearchCases matches query case-insensitively against case number, title,
// party names, and tags. Results keep insertion order.
func (e Engine) SearchCases(ctx context.Context, query string) []domain.Case {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []domain.Case{}
	if q == "" {
		return out
	}
	for _, c := range e.Store.ListCases() {
		if caseMatches(c, q) {
			out = append(out, c)
		}
	}
	return out
}

func caseMatches(c domain.Case, q string) bool {
	if strings.Contains(strings.ToLower(c.CaseNumber), q) ||
		strings.Contains(strings.ToLower(c.Title), q) {
		return true
	}
	for _, p := range c.Parties {
		if strings.Contains(strings.ToLower(p.Name), q) {
			return true
		}
	}
	for _, tag := range c.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// UpdateCaseStatus moves a case forward through its lifecycle. Transitions to
// an earlier or equal stage fail with ErrInvalidTransition; closed is the
// final stage and is reachable from anywhere before it. Entering filed or
// served stamps the corresponding date when unset, and every successful
// transition appends a private audit event.
func (e Engine) UpdateCaseStatus(ctx context.Context, caseID string, newStatus domain.CaseStatus) error {
	if !newStatus.Valid() {
		return store.Invalidf("status", "unknown case status %q", newStatus)
	}
	var from domain.CaseStatus
	err := e.Store.Update(caseID, func(cs *store.CaseState) error {
		c := cs.Case()
		from = c.Status
		if newStatus.Stage() <= c.Status.Stage() {
			return fmt.Errorf("%w: case status %s -> %s", store.ErrInvalidTransition, c.Status, newStatus)
		}
		now := e.now()
		c.Status = newStatus
		if newStatus == domain.CaseStatusFiled && c.FiledDate == nil {
			c.FiledDate = &now
		}
		if newStatus == domain.CaseStatusServed {
			if c.FiledDate == nil {
				c.FiledDate = &now
			}
			if c.ServiceDate == nil {
				c.ServiceDate = &now
			}
		}
		cs.SetCase(c)
		cs.PutEvent(domain.CaseEvent{
			ID:        e.newID(),
			CaseID:    caseID,
			Type:      domain.EventTypeOther,
			Title:     fmt.Sprintf("Status changed: %s -> %s", from, newStatus),
			Date:      now,
			Status:    domain.EventStatusCompleted,
			Private:   true,
			CreatedAt: now,
		})
		return nil
	})
	if err != nil {
		return err
	}
	e.emit(caseID, notify.KindStatusChanged, map[string]any{
		"from": string(from),
		"to":   string(newStatus),
	})
	return nil
}

// SetCaseDates records filed and service dates directly, enforcing the date
// ordering invariants.
func (e Engine) SetCaseDates(ctx context.Context, caseID string, filed, served *time.Time) error {
	return e.Store.Update(caseID, func(cs *store.CaseState) error {
		c := cs.Case()
		newFiled := c.FiledDate
		if filed != nil {
			newFiled = filed
		}
		newServed := c.ServiceDate
		if served != nil {
			newServed = served
		}
		if newFiled != nil && newFiled.Before(c.CreatedAt) {
			return store.Invalidf("filed_date", "must not precede case creation")
		}
		if newServed != nil {
			if newFiled == nil {
				return store.Invalidf("service_date", "requires a filed date")
			}
			if newServed.Before(*newFiled) {
				return store.Invalidf("service_date", "must not precede the filed date")
			}
		}
		c.FiledDate = newFiled
		c.ServiceDate = newServed
		cs.SetCase(c)
		return nil
	})
}
