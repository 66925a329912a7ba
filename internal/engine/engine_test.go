package engine_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"caseline/internal/domain"
	"caseline/internal/engine"
	"caseline/internal/notify"
	"caseline/internal/store"
	"caseline/internal/template"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
	now    *time.Time
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seq := 0
	eng := engine.New(store.New(), template.Default(), notify.NewLog())
	eng.Now = func() time.Time { return now }
	eng.NewID = func() string {
		seq++
		return fmt.Sprintf("id-%04d", seq)
	}
	return testEnv{Engine: eng, Ctx: context.Background(), now: &now}
}

func (env *testEnv) advance(d time.Duration) {
	*env.now = env.now.Add(d)
}

// newCase creates a case of a type with no template, so task tests start from
// an empty graph.
func (env *testEnv) newCase(t *testing.T) domain.Case {
	t.Helper()
	c, err := env.Engine.CreateCase(env.Ctx, engine.CaseCreateOptions{
		CaseNumber: "FL-2024-001",
		Title:      "Smith v. Smith",
		Type:       domain.CaseTypeModification,
		Parties:    []domain.Party{{Name: "Pat Smith", Role: "petitioner"}},
		Court:      domain.Court{Name: "Superior Court"},
	})
	if err != nil {
		t.Fatalf("create case: %v", err)
	}
	return c
}

func (env *testEnv) addTask(t *testing.T, caseID, title string, deps ...string) domain.CaseTask {
	t.Helper()
	task, err := env.Engine.AddTask(env.Ctx, caseID, engine.TaskCreateOptions{
		Title:        title,
		Dependencies: deps,
	})
	if err != nil {
		t.Fatalf("add task %s: %v", title, err)
	}
	return task
}

func TestCreateCaseValidation(t *testing.T) {
	env := newTestEnv(t)
	cases := []engine.CaseCreateOptions{
		{Title: "no number", Type: domain.CaseTypeDivorce, Parties: []domain.Party{{Name: "A"}}, Court: domain.Court{Name: "C"}},
		{CaseNumber: "1", Type: domain.CaseTypeDivorce, Parties: []domain.Party{{Name: "A"}}, Court: domain.Court{Name: "C"}},
		{CaseNumber: "1", Title: "t", Type: "felony", Parties: []domain.Party{{Name: "A"}}, Court: domain.Court{Name: "C"}},
		{CaseNumber: "1", Title: "t", Type: domain.CaseTypeDivorce, Court: domain.Court{Name: "C"}},
		{CaseNumber: "1", Title: "t", Type: domain.CaseTypeDivorce, Parties: []domain.Party{{Name: "A"}}},
	}
	for i, opts := range cases {
		if _, err := env.Engine.CreateCase(env.Ctx, opts); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestDefaultTemplateInstantiation(t *testing.T) {
	env := newTestEnv(t)
	c, err := env.Engine.CreateCase(env.Ctx, engine.CaseCreateOptions{
		CaseNumber: "FL-2024-002",
		Title:      "In re Marriage of Doe",
		Type:       domain.CaseTypeDivorce,
		Parties:    []domain.Party{{Name: "Alex Doe", Role: "petitioner"}, {Name: "Jordan Doe", Role: "respondent"}},
		Court:      domain.Court{Name: "Superior Court", County: "King"},
	})
	if err != nil {
		t.Fatalf("create case: %v", err)
	}
	tasks, err := env.Engine.ListTasks(env.Ctx, c.ID)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 5 {
		t.Fatalf("expected 5 template tasks, got %d", len(tasks))
	}
	byTitle := map[string]domain.CaseTask{}
	for _, task := range tasks {
		byTitle[task.Title] = task
	}
	if got := byTitle["Prepare petition"].Status; got != domain.TaskStatusPending {
		t.Fatalf("root task status = %s, want pending", got)
	}
	if got := byTitle["File petition with court"].Status; got != domain.TaskStatusBlocked {
		t.Fatalf("dependent task status = %s, want blocked", got)
	}
	if deps := byTitle["File petition with court"].Dependencies; len(deps) != 1 || deps[0] != byTitle["Prepare petition"].ID {
		t.Fatalf("dependency titles not resolved to ids: %v", deps)
	}
	events, err := env.Engine.ListEvents(env.Ctx, c.ID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 template events, got %d", len(events))
	}
	for _, ev := range events {
		if ev.Status != domain.EventStatusScheduled {
			t.Fatalf("template event %s status = %s, want scheduled", ev.Title, ev.Status)
		}
	}
}

func TestDependencyPropagation(t *testing.T) {
	env := newTestEnv(t)
	c := env.newCase(t)
	a := env.addTask(t, c.ID, "A")
	b := env.addTask(t, c.ID, "B", a.ID)
	if b.Status != domain.TaskStatusBlocked {
		t.Fatalf("B initial status = %s, want blocked", b.Status)
	}
	if err := env.Engine.UpdateTaskStatus(env.Ctx, a.ID, domain.TaskStatusCompleted); err != nil {
		t.Fatalf("complete A: %v", err)
	}
	a, err := env.Engine.GetTask(env.Ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if a.CompletedDate == nil {
		t.Fatalf("A completedDate not stamped")
	}
	b, err = env.Engine.GetTask(env.Ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if b.Status != domain.TaskStatusPending {
		t.Fatalf("B status after A completes = %s, want pending", b.Status)
	}
	if b.CompletedDate != nil {
		t.Fatalf("B must not have a completedDate")
	}
}

func TestPropagationRequiresAllDependencies(t *testing.T) {
	env := newTestEnv(t)
	c := env.newCase(t)
	a := env.addTask(t, c.ID, "A")
	b := env.addTask(t, c.ID, "B")
	d := env.addTask(t, c.ID, "D", a.ID, b.ID)
	if err := env.Engine.UpdateTaskStatus(env.Ctx, a.ID, domain.TaskStatusCompleted); err != nil {
		t.Fatal(err)
	}
	got, _ := env.Engine.GetTask(env.Ctx, d.ID)
	if got.Status != domain.TaskStatusBlocked {
		t.Fatalf("D status with one dep open = %s, want blocked", got.Status)
	}
	if err := env.Engine.UpdateTaskStatus(env.Ctx, b.ID, domain.TaskStatusCompleted); err != nil {
		t.Fatal(err)
	}
	got, _ = env.Engine.GetTask(env.Ctx, d.ID)
	if got.Status != domain.TaskStatusPending {
		t.Fatalf("D status with all deps done = %s, want pending", got.Status)
	}
}

func TestBlockedRuleEnforcedBothWays(t *testing.T) {
	env := newTestEnv(t)
	c := env.newCase(t)
	a := env.addTask(t, c.ID, "A")
	b := env.addTask(t, c.ID, "B", a.ID)
	err := env.Engine.UpdateTaskStatus(env.Ctx, b.ID, domain.TaskStatusInProgress)
	if !errors.Is(err, store.ErrInvalidTransition) {
		t.Fatalf("starting a blocked task: got %v, want ErrInvalidTransition", err)
	}
}

func TestTerminalTaskStatuses(t *testing.T) {
	env := newTestEnv(t)
	c := env.newCase(t)
	a := env.addTask(t, c.ID, "A")
	if err := env.Engine.UpdateTaskStatus(env.Ctx, a.ID, domain.TaskStatusCancelled); err != nil {
		t.Fatal(err)
	}
	err := env.Engine.UpdateTaskStatus(env.Ctx, a.ID, domain.TaskStatusPending)
	if !errors.Is(err, store.ErrInvalidTransition) {
		t.Fatalf("reopening cancelled task: got %v, want ErrInvalidTransition", err)
	}
}

func TestCycleRejectionLeavesGraphUnchanged(t *testing.T) {
	env := newTestEnv(t)
	c := env.newCase(t)
	a := env.addTask(t, c.ID, "A")
	b := env.addTask(t, c.ID, "B", a.ID)
	err := env.Engine.UpdateTaskDependencies(env.Ctx, a.ID, []string{b.ID}, nil)
	if !errors.Is(err, store.ErrCyclicDependency) {
		t.Fatalf("cycle: got %v, want ErrCyclicDependency", err)
	}
	got, _ := env.Engine.GetTask(env.Ctx, a.ID)
	if len(got.Dependencies) != 0 {
		t.Fatalf("A dependencies changed on failed update: %v", got.Dependencies)
	}
	if _, err := env.Engine.AddTask(env.Ctx, c.ID, engine.TaskCreateOptions{
		Title:        "self",
		Dependencies: []string{"self"},
	}); err == nil {
		t.Fatalf("expected error for unknown dependency id")
	}
}

func TestDependencyMustBeSameCase(t *testing.T) {
	env := newTestEnv(t)
	c1 := env.newCase(t)
	c2, err := env.Engine.CreateCase(env.Ctx, engine.CaseCreateOptions{
		CaseNumber: "FL-2024-003",
		Title:      "Other matter",
		Type:       domain.CaseTypePaternity,
		Parties:    []domain.Party{{Name: "Sam"}},
		Court:      domain.Court{Name: "Superior Court"},
	})
	if err != nil {
		t.Fatal(err)
	}
	other := env.addTask(t, c2.ID, "elsewhere")
	_, err = env.Engine.AddTask(env.Ctx, c1.ID, engine.TaskCreateOptions{
		Title:        "cross",
		Dependencies: []string{other.ID},
	})
	var ve store.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("cross-case dependency: got %v, want ValidationError", err)
	}
}

func TestRecurrenceExpansionWeekly(t *testing.T) {
	env := newTestEnv(t)
	c := env.newCase(t)
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	occurrences := 3
	base, err := env.Engine.AddEvent(env.Ctx, c.ID, engine.EventCreateOptions{
		Type:  domain.EventTypeHearing,
		Title: "Review hearing",
		Date:  start,
		Recurrence: &domain.Recurrence{
			Frequency:   domain.RecurWeekly,
			Occurrences: &occurrences,
		},
	})
	if err != nil {
		t.Fatalf("add recurring event: %v", err)
	}
	events, err := env.Engine.ListEvents(env.Ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 occurrences, got %d", len(events))
	}
	want := []time.Time{start, start.AddDate(0, 0, 7), start.AddDate(0, 0, 14)}
	for i, ev := range events {
		if !ev.Date.Equal(want[i]) {
			t.Fatalf("occurrence %d date = %s, want %s", i, ev.Date, want[i])
		}
		if i > 0 {
			if len(ev.LinkedEvents) == 0 || ev.LinkedEvents[0] != base.ID {
				t.Fatalf("occurrence %d not linked to base", i)
			}
		}
	}
}

func TestRecurrenceTighterBoundWins(t *testing.T) {
	env := newTestEnv(t)
	c := env.newCase(t)
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 10) // allows 2 weekly occurrences
	occurrences := 5
	_, err := env.Engine.AddEvent(env.Ctx, c.ID, engine.EventCreateOptions{
		Title: "Check-in",
		Type:  domain.EventTypeMeeting,
		Date:  start,
		Recurrence: &domain.Recurrence{
			Frequency:   domain.RecurWeekly,
			EndDate:     &end,
			Occurrences: &occurrences,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	events, _ := env.Engine.ListEvents(env.Ctx, c.ID)
	if len(events) != 2 {
		t.Fatalf("expected end date to cap expansion at 2, got %d", len(events))
	}
}

func TestOpenEndedRecurrenceRejected(t *testing.T) {
	env := newTestEnv(t)
	c := env.newCase(t)
	_, err := env.Engine.AddEvent(env.Ctx, c.ID, engine.EventCreateOptions{
		Title:      "Forever",
		Date:       time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Recurrence: &domain.Recurrence{Frequency: domain.RecurDaily},
	})
	var ve store.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("open-ended recurrence: got %v, want ValidationError", err)
	}
}

func TestMonthlyRecurrenceUsesCalendarMonths(t *testing.T) {
	env := newTestEnv(t)
	c := env.newCase(t)
	start := time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)
	occurrences := 3
	_, err := env.Engine.AddEvent(env.Ctx, c.ID, engine.EventCreateOptions{
		Title: "Support payment due",
		Type:  domain.EventTypeDeadline,
		Date:  start,
		Recurrence: &domain.Recurrence{
			Frequency:   domain.RecurMonthly,
			Occurrences: &occurrences,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	events, _ := env.Engine.ListEvents(env.Ctx, c.ID)
	if len(events) != 3 {
		t.Fatalf("expected 3 occurrences, got %d", len(events))
	}
	// Jan 31 + 1 month normalizes to Mar 2 in Go's calendar arithmetic.
	if got := events[1].Date; got.Month() != time.March {
		t.Fatalf("second occurrence month = %s", got.Month())
	}
}

func TestCaseStatusMonotonicity(t *testing.T) {
	env := newTestEnv(t)
	c := env.newCase(t)
	if err := env.Engine.UpdateCaseStatus(env.Ctx, c.ID, domain.CaseStatusDiscovery); err != nil {
		t.Fatalf("to discovery: %v", err)
	}
	err := env.Engine.UpdateCaseStatus(env.Ctx, c.ID, domain.CaseStatusIntake)
	if !errors.Is(err, store.ErrInvalidTransition) {
		t.Fatalf("backward transition: got %v, want ErrInvalidTransition", err)
	}
	err = env.Engine.UpdateCaseStatus(env.Ctx, c.ID, domain.CaseStatusDiscovery)
	if !errors.Is(err, store.ErrInvalidTransition) {
		t.Fatalf("same-status transition: got %v, want ErrInvalidTransition", err)
	}
	if err := env.Engine.UpdateCaseStatus(env.Ctx, c.ID, domain.CaseStatusClosed); err != nil {
		t.Fatalf("to closed: %v", err)
	}
	err = env.Engine.UpdateCaseStatus(env.Ctx, c.ID, domain.CaseStatusSettled)
	if !errors.Is(err, store.ErrInvalidTransition) {
		t.Fatalf("leaving closed: got %v, want ErrInvalidTransition", err)
	}
}

func TestStatusTransitionStampsDates(t *testing.T) {
	env := newTestEnv(t)
	c := env.newCase(t)
	if err := env.Engine.UpdateCaseStatus(env.Ctx, c.ID, domain.CaseStatusServed); err != nil {
		t.Fatal(err)
	}
	got, _ := env.Engine.GetCase(env.Ctx, c.ID)
	if got.FiledDate == nil || got.ServiceDate == nil {
		t.Fatalf("served transition should stamp filed and service dates")
	}
}

func TestSetCaseDatesInvariants(t *testing.T) {
	env := newTestEnv(t)
	c := env.newCase(t)
	served := env.now.AddDate(0, 0, 5)
	err := env.Engine.SetCaseDates(env.Ctx, c.ID, nil, &served)
	var ve store.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("service date without filed date: got %v", err)
	}
	filed := env.now.AddDate(0, 0, 10)
	err = env.Engine.SetCaseDates(env.Ctx, c.ID, &filed, &served)
	if !errors.As(err, &ve) {
		t.Fatalf("service before filed: got %v", err)
	}
	if err := env.Engine.SetCaseDates(env.Ctx, c.ID, &filed, nil); err != nil {
		t.Fatalf("set filed: %v", err)
	}
	later := filed.AddDate(0, 0, 3)
	if err := env.Engine.SetCaseDates(env.Ctx, c.ID, nil, &later); err != nil {
		t.Fatalf("set served after filed: %v", err)
	}
}

func TestSearchCases(t *testing.T) {
	env := newTestEnv(t)
	env.newCase(t)
	found := env.Engine.SearchCases(env.Ctx, "smith")
	if len(found) != 1 {
		t.Fatalf("search by party name: got %d results", len(found))
	}
	if len(env.Engine.SearchCases(env.Ctx, "nowhere")) != 0 {
		t.Fatalf("unexpected match")
	}
}

func TestGetUpcomingWindow(t *testing.T) {
	env := newTestEnv(t)
	c := env.newCase(t)
	in3 := env.now.AddDate(0, 0, 3)
	in10 := env.now.AddDate(0, 0, 10)
	if _, err := env.Engine.AddEvent(env.Ctx, c.ID, engine.EventCreateOptions{Title: "soon", Date: in3}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.AddEvent(env.Ctx, c.ID, engine.EventCreateOptions{Title: "later", Date: in10}); err != nil {
		t.Fatal(err)
	}
	got, err := env.Engine.GetUpcoming(env.Ctx, c.ID, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Title != "soon" {
		t.Fatalf("upcoming window wrong: %+v", got)
	}
	all, err := env.Engine.GetUpcoming(env.Ctx, "", 30)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("all-case window: got %d", len(all))
	}
}

func TestDueRemindersAndMarkSent(t *testing.T) {
	env := newTestEnv(t)
	c := env.newCase(t)
	at := env.now.Add(2 * time.Hour)
	ev, err := env.Engine.AddEvent(env.Ctx, c.ID, engine.EventCreateOptions{
		Title:     "Hearing",
		Type:      domain.EventTypeHearing,
		Date:      at,
		Reminders: []engine.ReminderSpec{{Channel: domain.ReminderChannelEmail, MinutesBefore: 60}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if due := env.Engine.DueReminders(env.Ctx, *env.now); len(due) != 0 {
		t.Fatalf("reminder fired too early: %+v", due)
	}
	asOf := env.now.Add(90 * time.Minute)
	due := env.Engine.DueReminders(env.Ctx, asOf)
	if len(due) != 1 || due[0].Event.ID != ev.ID || due[0].Index != 0 {
		t.Fatalf("due reminders = %+v", due)
	}
	if err := env.Engine.MarkReminderSent(env.Ctx, ev.ID, 0); err != nil {
		t.Fatal(err)
	}
	// marking twice is a no-op
	if err := env.Engine.MarkReminderSent(env.Ctx, ev.ID, 0); err != nil {
		t.Fatal(err)
	}
	if due := env.Engine.DueReminders(env.Ctx, asOf); len(due) != 0 {
		t.Fatalf("sent reminder still due: %+v", due)
	}
}

func TestOverdueTasksOrdering(t *testing.T) {
	env := newTestEnv(t)
	c := env.newCase(t)
	d1 := env.now.AddDate(0, 0, 1)
	d2 := env.now.AddDate(0, 0, 2)
	late2, err := env.Engine.AddTask(env.Ctx, c.ID, engine.TaskCreateOptions{Title: "late2", DueDate: &d2})
	if err != nil {
		t.Fatal(err)
	}
	late1, err := env.Engine.AddTask(env.Ctx, c.ID, engine.TaskCreateOptions{Title: "late1", DueDate: &d1})
	if err != nil {
		t.Fatal(err)
	}
	done, err := env.Engine.AddTask(env.Ctx, c.ID, engine.TaskCreateOptions{Title: "done", DueDate: &d1})
	if err != nil {
		t.Fatal(err)
	}
	if err := env.Engine.UpdateTaskStatus(env.Ctx, done.ID, domain.TaskStatusCompleted); err != nil {
		t.Fatal(err)
	}
	env.advance(72 * time.Hour)
	got, err := env.Engine.GetOverdue(env.Ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != late1.ID || got[1].ID != late2.ID {
		t.Fatalf("overdue ordering wrong: %+v", got)
	}
}

func TestComplianceClassification(t *testing.T) {
	env := newTestEnv(t)
	c := env.newCase(t)
	due := env.now.AddDate(0, 0, 1)
	urgent, err := env.Engine.AddTask(env.Ctx, c.ID, engine.TaskCreateOptions{
		Title:    "urgent filing",
		Priority: domain.PriorityUrgent,
		DueDate:  &due,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.AddTask(env.Ctx, c.ID, engine.TaskCreateOptions{
		Title:    "routine",
		Priority: domain.PriorityLow,
		DueDate:  &due,
	}); err != nil {
		t.Fatal(err)
	}
	env.advance(48 * time.Hour)
	st, err := env.Engine.AggregateStatistics(env.Ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if st.Compliance != domain.NonCompliant {
		t.Fatalf("compliance = %s, want non_compliant", st.Compliance)
	}
	if err := env.Engine.UpdateTaskStatus(env.Ctx, urgent.ID, domain.TaskStatusCompleted); err != nil {
		t.Fatal(err)
	}
	st, _ = env.Engine.AggregateStatistics(env.Ctx, c.ID)
	if st.Compliance != domain.AtRisk {
		t.Fatalf("compliance = %s, want at_risk", st.Compliance)
	}
}

func TestBillableHoursAndNextCriticalDate(t *testing.T) {
	env := newTestEnv(t)
	c := env.newCase(t)
	billable, err := env.Engine.AddTask(env.Ctx, c.ID, engine.TaskCreateOptions{Title: "brief", Billable: true, HourlyRate: 250})
	if err != nil {
		t.Fatal(err)
	}
	plain, err := env.Engine.AddTask(env.Ctx, c.ID, engine.TaskCreateOptions{Title: "admin"})
	if err != nil {
		t.Fatal(err)
	}
	if err := env.Engine.LogTaskHours(env.Ctx, billable.ID, 3.5); err != nil {
		t.Fatal(err)
	}
	if err := env.Engine.LogTaskHours(env.Ctx, plain.ID, 2); err != nil {
		t.Fatal(err)
	}
	hearing := env.now.AddDate(0, 0, 14)
	meeting := env.now.AddDate(0, 0, 2)
	if _, err := env.Engine.AddEvent(env.Ctx, c.ID, engine.EventCreateOptions{Title: "h", Type: domain.EventTypeHearing, Date: hearing}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.AddEvent(env.Ctx, c.ID, engine.EventCreateOptions{Title: "m", Type: domain.EventTypeMeeting, Date: meeting}); err != nil {
		t.Fatal(err)
	}
	st, err := env.Engine.AggregateStatistics(env.Ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalHours != 5.5 {
		t.Fatalf("total hours = %v", st.TotalHours)
	}
	if st.TotalBillableHours != 3.5 {
		t.Fatalf("billable hours = %v", st.TotalBillableHours)
	}
	if st.NextCriticalDate == nil || !st.NextCriticalDate.Equal(hearing) {
		t.Fatalf("next critical date = %v, want %v", st.NextCriticalDate, hearing)
	}
}

func TestProjectionsAreIdempotent(t *testing.T) {
	env := newTestEnv(t)
	c := env.newCase(t)
	first, err := env.Engine.AggregateStatistics(env.Ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	second, err := env.Engine.AggregateStatistics(env.Ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("statistics not idempotent: %+v vs %+v", first, second)
	}
	tl1, err := env.Engine.ProjectTimeline(env.Ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	tl2, err := env.Engine.ProjectTimeline(env.Ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tl1.Milestones) != len(tl2.Milestones) || len(tl1.Phases) != len(tl2.Phases) {
		t.Fatalf("timeline not idempotent")
	}
}

func TestTimelineMilestonesAndPhases(t *testing.T) {
	env := newTestEnv(t)
	c, err := env.Engine.CreateCase(env.Ctx, engine.CaseCreateOptions{
		CaseNumber: "FL-2024-010",
		Title:      "Timeline matter",
		Type:       domain.CaseTypeDivorce,
		Parties:    []domain.Party{{Name: "Robin"}},
		Court:      domain.Court{Name: "Superior Court"},
	})
	if err != nil {
		t.Fatal(err)
	}
	tl, err := env.Engine.ProjectTimeline(env.Ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tl.Milestones) != 4 {
		t.Fatalf("milestones = %d, want 4", len(tl.Milestones))
	}
	if !tl.Milestones[0].Achieved {
		t.Fatalf("case opened must be achieved")
	}
	if tl.Milestones[1].Achieved {
		t.Fatalf("petition filed must not be achieved yet")
	}
	wantFiled := c.CreatedAt.AddDate(0, 0, 14)
	if !tl.Milestones[1].Date.Equal(wantFiled) {
		t.Fatalf("projected filed date = %s, want %s", tl.Milestones[1].Date, wantFiled)
	}
	if len(tl.Phases) != 5 {
		t.Fatalf("divorce phases = %d, want 5", len(tl.Phases))
	}
	if tl.Phases[0].Status != domain.PhaseActive {
		t.Fatalf("intake phase status = %s, want active", tl.Phases[0].Status)
	}
	if tl.Phases[1].Status != domain.PhasePending {
		t.Fatalf("later phase status = %s, want pending", tl.Phases[1].Status)
	}
	if err := env.Engine.UpdateCaseStatus(env.Ctx, c.ID, domain.CaseStatusDiscovery); err != nil {
		t.Fatal(err)
	}
	tl, _ = env.Engine.ProjectTimeline(env.Ctx, c.ID)
	if tl.Phases[0].Status != domain.PhaseCompleted {
		t.Fatalf("filing phase after discovery = %s, want completed", tl.Phases[0].Status)
	}
	if tl.Phases[2].Status != domain.PhaseActive {
		t.Fatalf("discovery phase = %s, want active", tl.Phases[2].Status)
	}
}

func TestTimelineNoPhaseMapping(t *testing.T) {
	env := newTestEnv(t)
	c := env.newCase(t) // modification has no template
	tl, err := env.Engine.ProjectTimeline(env.Ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tl.Phases) != 0 {
		t.Fatalf("expected empty phase list, got %d", len(tl.Phases))
	}
}

func TestTimelineExcludesPrivateEvents(t *testing.T) {
	env := newTestEnv(t)
	c := env.newCase(t)
	if _, err := env.Engine.AddEvent(env.Ctx, c.ID, engine.EventCreateOptions{
		Title:   "internal note",
		Date:    env.now.AddDate(0, 0, 1),
		Private: true,
	}); err != nil {
		t.Fatal(err)
	}
	tl, err := env.Engine.ProjectTimeline(env.Ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tl.Events) != 0 {
		t.Fatalf("private event leaked into timeline: %+v", tl.Events)
	}
}

func TestEventStatusTerminal(t *testing.T) {
	env := newTestEnv(t)
	c := env.newCase(t)
	ev, err := env.Engine.AddEvent(env.Ctx, c.ID, engine.EventCreateOptions{
		Title: "Hearing",
		Type:  domain.EventTypeHearing,
		Date:  env.now.AddDate(0, 0, 1),
	})
	if err != nil {
		t.Fatal(err)
	}
	outcome := "granted"
	if err := env.Engine.UpdateEventStatus(env.Ctx, ev.ID, domain.EventStatusCompleted, &outcome); err != nil {
		t.Fatal(err)
	}
	got, _ := env.Engine.GetEvent(env.Ctx, ev.ID)
	if got.Outcome == nil || *got.Outcome != "granted" {
		t.Fatalf("outcome not recorded: %+v", got.Outcome)
	}
	err = env.Engine.UpdateEventStatus(env.Ctx, ev.ID, domain.EventStatusScheduled, nil)
	if !errors.Is(err, store.ErrInvalidTransition) {
		t.Fatalf("reopening completed event: got %v", err)
	}
}

func TestSubtasksDoNotCompleteParent(t *testing.T) {
	env := newTestEnv(t)
	c := env.newCase(t)
	task, err := env.Engine.AddTask(env.Ctx, c.ID, engine.TaskCreateOptions{
		Title:    "Discovery responses",
		Subtasks: []string{"draft", "review"},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, st := range task.Subtasks {
		if err := env.Engine.ToggleSubtask(env.Ctx, task.ID, st.ID); err != nil {
			t.Fatal(err)
		}
	}
	got, _ := env.Engine.GetTask(env.Ctx, task.ID)
	if got.Status != domain.TaskStatusPending {
		t.Fatalf("parent status changed by subtasks: %s", got.Status)
	}
	for _, st := range got.Subtasks {
		if !st.Completed || st.CompletedAt == nil {
			t.Fatalf("subtask not completed: %+v", st)
		}
	}
	if err := env.Engine.ToggleSubtask(env.Ctx, task.ID, got.Subtasks[0].ID); err != nil {
		t.Fatal(err)
	}
	got, _ = env.Engine.GetTask(env.Ctx, task.ID)
	if got.Subtasks[0].Completed || got.Subtasks[0].CompletedAt != nil {
		t.Fatalf("toggle back did not clear completion")
	}
}

func TestNotificationsEmitted(t *testing.T) {
	env := newTestEnv(t)
	c := env.newCase(t)
	a := env.addTask(t, c.ID, "A")
	env.addTask(t, c.ID, "B", a.ID)
	if err := env.Engine.UpdateTaskStatus(env.Ctx, a.ID, domain.TaskStatusCompleted); err != nil {
		t.Fatal(err)
	}
	kinds := map[notify.Kind]int{}
	for _, n := range env.Engine.Log.After(0, 0) {
		kinds[n.Kind]++
	}
	if kinds[notify.KindCaseCreated] != 1 {
		t.Fatalf("case-created emitted %d times", kinds[notify.KindCaseCreated])
	}
	if kinds[notify.KindTaskCreated] != 2 {
		t.Fatalf("task-created emitted %d times", kinds[notify.KindTaskCreated])
	}
	if kinds[notify.KindTaskUnblocked] != 1 {
		t.Fatalf("task-unblocked emitted %d times", kinds[notify.KindTaskUnblocked])
	}
}

func TestNotFoundErrors(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.GetCase(env.Ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("get case: %v", err)
	}
	if err := env.Engine.UpdateTaskStatus(env.Ctx, "missing", domain.TaskStatusPending); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("update task: %v", err)
	}
	if err := env.Engine.UpdateEventStatus(env.Ctx, "missing", domain.EventStatusCompleted, nil); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("update event: %v", err)
	}
}
