package store

import (
	"time"

	"caseline/internal/domain"
)

// Deep copies keep snapshots consistent: a caller never observes a mutation
// half applied through a previously returned value.

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func copyCase(c domain.Case) domain.Case {
	out := c
	out.FiledDate = copyTime(c.FiledDate)
	out.ServiceDate = copyTime(c.ServiceDate)
	out.Parties = append([]domain.Party(nil), c.Parties...)
	out.Children = append([]domain.Child(nil), c.Children...)
	out.Tags = append([]string(nil), c.Tags...)
	if c.Financials != nil {
		f := *c.Financials
		out.Financials = &f
	}
	return out
}

func copyEvent(e domain.CaseEvent) domain.CaseEvent {
	out := e
	out.Outcome = copyString(e.Outcome)
	out.Participants = append([]string(nil), e.Participants...)
	out.LinkedEvents = append([]string(nil), e.LinkedEvents...)
	if len(e.Reminders) > 0 {
		out.Reminders = make([]domain.Reminder, len(e.Reminders))
		for i, r := range e.Reminders {
			r.SentAt = copyTime(r.SentAt)
			out.Reminders[i] = r
		}
	}
	if e.Recurrence != nil {
		r := *e.Recurrence
		r.EndDate = copyTime(e.Recurrence.EndDate)
		r.Occurrences = copyInt(e.Recurrence.Occurrences)
		out.Recurrence = &r
	}
	return out
}

func copyTask(t domain.CaseTask) domain.CaseTask {
	out := t
	out.DueDate = copyTime(t.DueDate)
	out.CompletedDate = copyTime(t.CompletedDate)
	out.Dependencies = append([]string(nil), t.Dependencies...)
	if len(t.Subtasks) > 0 {
		out.Subtasks = make([]domain.Subtask, len(t.Subtasks))
		for i, st := range t.Subtasks {
			st.CompletedAt = copyTime(st.CompletedAt)
			out.Subtasks[i] = st
		}
	}
	return out
}
