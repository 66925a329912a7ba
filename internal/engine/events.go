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

// ReminderSpec is a reminder request on a new event.
type ReminderSpec struct {
	Channel       domain.ReminderChannel
	MinutesBefore int
}

// EventCreateOptions are parameters for scheduling an event.
type EventCreateOptions struct {
	Type            domain.EventType
	Title           string
	Description     string
	Date            time.Time
	DurationMinutes int
	Location        string
	Participants    []string
	Reminders       []ReminderSpec
	Recurrence      *domain.Recurrence
	Private         bool
}

// AddEvent schedules an event against a case. A recurring event is expanded
// synchronously into sibling occurrences; the base event is never mutated by
// the expansion.
func (e Engine) AddEvent(ctx context.Context, caseID string, opts EventCreateOptions) (domain.CaseEvent, error) {
	if opts.Title == "" {
		return domain.CaseEvent{}, store.Invalidf("title", "is required")
	}
	typ := opts.Type
	if typ == "" {
		typ = domain.EventTypeOther
	}
	if !typ.Valid() {
		return domain.CaseEvent{}, store.Invalidf("type", "unknown event type %q", opts.Type)
	}
	if opts.Date.IsZero() {
		return domain.CaseEvent{}, store.Invalidf("date", "is required")
	}
	if opts.DurationMinutes < 0 {
		return domain.CaseEvent{}, store.Invalidf("duration_minutes", "must not be negative")
	}
	reminders := make([]domain.Reminder, 0, len(opts.Reminders))
	for i, r := range opts.Reminders {
		if !r.Channel.Valid() {
			return domain.CaseEvent{}, store.Invalidf("reminders", "reminder %d: unknown channel %q", i, r.Channel)
		}
		if r.MinutesBefore <= 0 {
			return domain.CaseEvent{}, store.Invalidf("reminders", "reminder %d: minutes_before must be positive", i)
		}
		reminders = append(reminders, domain.Reminder{Channel: r.Channel, MinutesBefore: r.MinutesBefore})
	}
	if rec := opts.Recurrence; rec != nil {
		if !rec.Frequency.Valid() {
			return domain.CaseEvent{}, store.Invalidf("recurrence.frequency", "unknown frequency %q", rec.Frequency)
		}
		// Expansion must be finite.
		if rec.EndDate == nil && rec.Occurrences == nil {
			return domain.CaseEvent{}, store.Invalidf("recurrence", "needs an end date or an occurrence count")
		}
		if rec.Occurrences != nil && *rec.Occurrences < 1 {
			return domain.CaseEvent{}, store.Invalidf("recurrence.occurrences", "must be at least 1")
		}
	}

	now := e.now()
	base := domain.CaseEvent{
		ID:              e.newID(),
		CaseID:          caseID,
		Type:            typ,
		Title:           opts.Title,
		Description:     opts.Description,
		Date:            opts.Date,
		DurationMinutes: opts.DurationMinutes,
		Location:        opts.Location,
		Participants:    opts.Participants,
		Status:          domain.EventStatusScheduled,
		Reminders:       reminders,
		Recurrence:      opts.Recurrence,
		Private:         opts.Private,
		CreatedAt:       now,
	}
	siblings := e.expandRecurrence(base)
	err := e.Store.Update(caseID, func(cs *store.CaseState) error {
		cs.PutEvent(base)
		for _, sib := range siblings {
			cs.PutEvent(sib)
		}
		return nil
	})
	if err != nil {
		return domain.CaseEvent{}, err
	}
	e.emit(caseID, notify.KindEventCreated, map[string]any{"event_id": base.ID, "title": base.Title, "type": string(base.Type)})
	for _, sib := range siblings {
		e.emit(caseID, notify.KindEventCreated, map[string]any{"event_id": sib.ID, "title": sib.Title, "type": string(sib.Type), "linked_to": base.ID})
	}
	return base, nil
}

// expandRecurrence produces the sibling occurrences of a recurring base
// event. Each sibling copies the base except id, date, and linked events;
// siblings link back to the base. The occurrence count includes the base, and
// the tighter of the two bounds wins.
func (e Engine) expandRecurrence(base domain.CaseEvent) []domain.CaseEvent {
	rec := base.Recurrence
	if rec == nil {
		return nil
	}
	var siblings []domain.CaseEvent
	count := 1
	next := advance(base.Date, rec.Frequency)
	for {
		if rec.Occurrences != nil && count >= *rec.Occurrences {
			break
		}
		if rec.EndDate != nil && next.After(*rec.EndDate) {
			break
		}
		sib := base
		sib.ID = e.newID()
		sib.Date = next
		sib.LinkedEvents = append([]string{base.ID}, base.LinkedEvents...)
		sib.Reminders = append([]domain.Reminder(nil), base.Reminders...)
		sib.Participants = append([]string(nil), base.Participants...)
		siblings = append(siblings, sib)
		count++
		next = advance(next, rec.Frequency)
	}
	return siblings
}

func advance(d time.Time, f domain.RecurrenceFrequency) time.Time {
	switch f {
	case domain.RecurDaily:
		return d.AddDate(0, 0, 1)
	case domain.RecurWeekly:
		return d.AddDate(0, 0, 7)
	case domain.RecurMonthly:
		return d.AddDate(0, 1, 0)
	}
	return d
}

// UpdateEventStatus moves an event to a new scheduling status. Completed and
// cancelled are terminal. An outcome, when given, is recorded with the
// update.
func (e Engine) UpdateEventStatus(ctx context.Context, eventID string, status domain.EventStatus, outcome *string) error {
	if !status.Valid() {
		return store.Invalidf("status", "unknown event status %q", status)
	}
	caseID, ok := e.Store.CaseIDForEvent(eventID)
	if !ok {
		return store.ErrNotFound
	}
	var from domain.EventStatus
	err := e.Store.Update(caseID, func(cs *store.CaseState) error {
		ev, ok := cs.Event(eventID)
		if !ok {
			return store.ErrNotFound
		}
		if ev.Status.Terminal() {
			return fmt.Errorf("%w: event is %s", store.ErrInvalidTransition, ev.Status)
		}
		from = ev.Status
		ev.Status = status
		if outcome != nil {
			ev.Outcome = outcome
		}
		cs.PutEvent(ev)
		return nil
	})
	if err != nil {
		return err
	}
	e.emit(caseID, notify.KindEventStatusChanged, map[string]any{
		"event_id": eventID,
		"from":     string(from),
		"to":       string(status),
	})
	return nil
}

// GetEvent returns one event by id.
func (e Engine) GetEvent(ctx context.Context, eventID string) (domain.CaseEvent, error) {
	caseID, ok := e.Store.CaseIDForEvent(eventID)
	if !ok {
		return domain.CaseEvent{}, store.ErrNotFound
	}
	var ev domain.CaseEvent
	err := e.Store.View(caseID, func(cs *store.CaseState) error {
		got, ok := cs.Event(eventID)
		if !ok {
			return store.ErrNotFound
		}
		ev = got
		return nil
	})
	return ev, err
}

// ListEvents returns a case's events ordered by date ascending.
func (e Engine) ListEvents(ctx context.Context, caseID string) ([]domain.CaseEvent, error) {
	var out []domain.CaseEvent
	err := e.Store.View(caseID, func(cs *store.CaseState) error {
		out = cs.Events()
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortEventsByDate(out)
	return out, nil
}

// GetUpcoming returns scheduled events dated within [now, now+withinDays],
// ordered by date ascending. An empty caseID spans all cases.
func (e Engine) GetUpcoming(ctx context.Context, caseID string, withinDays int) ([]domain.CaseEvent, error) {
	now := e.now()
	horizon := now.AddDate(0, 0, withinDays)
	inWindow := func(ev domain.CaseEvent) bool {
		return ev.Status == domain.EventStatusScheduled && !ev.Date.Before(now) && !ev.Date.After(horizon)
	}
	out := []domain.CaseEvent{}
	if caseID != "" {
		err := e.Store.View(caseID, func(cs *store.CaseState) error {
			for _, ev := range cs.Events() {
				if inWindow(ev) {
					out = append(out, ev)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		e.Store.EachCase(func(cs *store.CaseState) {
			for _, ev := range cs.Events() {
				if inWindow(ev) {
					out = append(out, ev)
				}
			}
		})
	}
	sortEventsByDate(out)
	return out, nil
}

// DueReminders returns every unsent reminder of a scheduled event whose fire
// time (event date minus the lead) is at or before asOf. The dispatcher polls
// this instead of the engine holding timers.
func (e Engine) DueReminders(ctx context.Context, asOf time.Time) []domain.DueReminder {
	out := []domain.DueReminder{}
	e.Store.EachCase(func(cs *store.CaseState) {
		for _, ev := range cs.Events() {
			if ev.Status != domain.EventStatusScheduled {
				continue
			}
			for i, r := range ev.Reminders {
				if r.Sent {
					continue
				}
				fireAt := ev.Date.Add(-time.Duration(r.MinutesBefore) * time.Minute)
				if fireAt.After(asOf) {
					continue
				}
				out = append(out, domain.DueReminder{Event: ev, Index: i, FireAt: fireAt, Reminder: r})
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out
}

// MarkReminderSent records that a reminder was handed to the dispatcher and
// emits reminder-fired. Marking an already-sent reminder is a no-op.
func (e Engine) MarkReminderSent(ctx context.Context, eventID string, index int) error {
	caseID, ok := e.Store.CaseIDForEvent(eventID)
	if !ok {
		return store.ErrNotFound
	}
	fired := false
	var channel domain.ReminderChannel
	err := e.Store.Update(caseID, func(cs *store.CaseState) error {
		ev, ok := cs.Event(eventID)
		if !ok {
			return store.ErrNotFound
		}
		if index < 0 || index >= len(ev.Reminders) {
			return store.Invalidf("index", "event %s has no reminder %d", eventID, index)
		}
		if ev.Reminders[index].Sent {
			return nil
		}
		now := e.now()
		ev.Reminders[index].Sent = true
		ev.Reminders[index].SentAt = &now
		channel = ev.Reminders[index].Channel
		cs.PutEvent(ev)
		fired = true
		return nil
	})
	if err != nil {
		return err
	}
	if fired {
		e.emit(caseID, notify.KindReminderFired, map[string]any{
			"event_id": eventID,
			"index":    index,
			"channel":  string(channel),
		})
	}
	return nil
}

func sortEventsByDate(events []domain.CaseEvent) {
	sort.SliceStable(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
}
