package engine

import (
	"context"
	"sort"
	"time"

	"caseline/internal/domain"
	"caseline/internal/store"
	"caseline/internal/template"
)

// Nominal offsets, in days from case creation, used for milestones whose real
// date is not yet known.
const (
	projectedFilingDays     = 14
	projectedServiceDays    = 30
	projectedResolutionDays = 180
)

// ProjectTimeline derives a case's timeline: its non-private events sorted by
// date, the four standard milestones, and the template phases for its type.
// The result is computed fresh on every call and never stored.
func (e Engine) ProjectTimeline(ctx context.Context, caseID string) (domain.CaseTimeline, error) {
	var tl domain.CaseTimeline
	err := e.Store.View(caseID, func(cs *store.CaseState) error {
		c := cs.Case()
		tl.CaseID = c.ID
		tl.Events = []domain.CaseEvent{}
		for _, ev := range cs.Events() {
			if ev.Private {
				continue
			}
			tl.Events = append(tl.Events, ev)
		}
		sort.SliceStable(tl.Events, func(i, j int) bool { return tl.Events[i].Date.Before(tl.Events[j].Date) })
		tl.Milestones = milestones(c)
		tl.Phases = phases(c, e.Catalog)
		return nil
	})
	if err != nil {
		return domain.CaseTimeline{}, err
	}
	return tl, nil
}

func milestones(c domain.Case) []domain.Milestone {
	resolved := c.Status.Stage() >= domain.CaseStatusSettled.Stage()
	return []domain.Milestone{
		{
			ID:       "opened",
			Title:    "Case Opened",
			Date:     c.CreatedAt,
			Achieved: true,
		},
		{
			ID:       "filed",
			Title:    "Petition Filed",
			Date:     dateOr(c.FiledDate, c.CreatedAt.AddDate(0, 0, projectedFilingDays)),
			Achieved: c.FiledDate != nil,
		},
		{
			ID:       "served",
			Title:    "Service Complete",
			Date:     dateOr(c.ServiceDate, c.CreatedAt.AddDate(0, 0, projectedServiceDays)),
			Achieved: c.ServiceDate != nil,
		},
		{
			ID:       "resolved",
			Title:    "Resolution",
			Date:     c.CreatedAt.AddDate(0, 0, projectedResolutionDays),
			Achieved: resolved,
		},
	}
}

// phases maps the template phase list onto the case's current status. Phase
// start and end are projections from the creation date plus cumulative
// nominal durations, not observed dates.
func phases(c domain.Case, catalog *template.Catalog) []domain.Phase {
	tpl, ok := catalog.For(c.Type)
	if !ok || len(tpl.Phases) == 0 {
		return []domain.Phase{}
	}
	stage := c.Status.Stage()
	out := make([]domain.Phase, 0, len(tpl.Phases))
	start := c.CreatedAt
	for _, ps := range tpl.Phases {
		end := start.AddDate(0, 0, ps.NominalDays)
		status := domain.PhasePending
		maxStage := -1
		for _, s := range ps.Statuses {
			if s == c.Status {
				status = domain.PhaseActive
			}
			if s.Stage() > maxStage {
				maxStage = s.Stage()
			}
		}
		if status != domain.PhaseActive && stage > maxStage {
			status = domain.PhaseCompleted
		}
		out = append(out, domain.Phase{
			Name:        ps.Name,
			Start:       start,
			End:         end,
			Status:      status,
			Description: ps.Description,
		})
		start = end
	}
	return out
}

func dateOr(t *time.Time, fallback time.Time) time.Time {
	if t != nil {
		return *t
	}
	return fallback
}
