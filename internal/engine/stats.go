package engine

import (
	"context"

	"caseline/internal/domain"
	"caseline/internal/store"
)

// AggregateStatistics derives a statistics snapshot for one case. Pure read;
// the result is recomputed on every call and never stored.
func (e Engine) AggregateStatistics(ctx context.Context, caseID string) (domain.CaseStatistics, error) {
	now := e.now()
	var st domain.CaseStatistics
	err := e.Store.View(caseID, func(cs *store.CaseState) error {
		c := cs.Case()
		st.CaseID = c.ID
		st.ActiveDays = int(now.Sub(c.CreatedAt).Hours() / 24)
		if st.ActiveDays < 0 {
			st.ActiveDays = 0
		}

		for _, ev := range cs.Events() {
			st.TotalEvents++
			if ev.Status == domain.EventStatusCompleted {
				st.CompletedEvents++
			}
			if ev.Status == domain.EventStatusScheduled && ev.Type.Critical() && !ev.Date.Before(now) {
				if st.NextCriticalDate == nil || ev.Date.Before(*st.NextCriticalDate) {
					d := ev.Date
					st.NextCriticalDate = &d
				}
			}
		}

		overdueSevere := false
		for _, t := range cs.Tasks() {
			st.TotalTasks++
			if t.Status == domain.TaskStatusCompleted {
				st.CompletedTasks++
			}
			st.TotalHours += t.ActualHours
			if t.Billable {
				st.TotalBillableHours += t.ActualHours
			}
			if t.DueDate != nil && t.DueDate.Before(now) && t.Status.Open() {
				st.OverdueTasks++
				if t.Priority == domain.PriorityUrgent || t.Priority == domain.PriorityHigh {
					overdueSevere = true
				}
			}
		}

		switch {
		case overdueSevere:
			st.Compliance = domain.NonCompliant
		case st.OverdueTasks > 0:
			st.Compliance = domain.AtRisk
		default:
			st.Compliance = domain.Compliant
		}
		return nil
	})
	if err != nil {
		return domain.CaseStatistics{}, err
	}
	return st, nil
}
