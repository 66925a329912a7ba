package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"caseline/internal/config"
	"caseline/internal/domain"
	"caseline/internal/engine"
	"caseline/internal/notify"
	"caseline/internal/server"
	"caseline/internal/store"
	"caseline/internal/template"
	caselinesdk "caseline/sdk/go"
)

var rootCmd = &cobra.Command{
	Use:   "cl",
	Short: "Caseline CLI",
	Long: `Caseline orchestrates legal case lifecycles: status transitions, scheduled
events with recurrence and reminders, dependency-ordered tasks, and the
derived timeline and statistics views.

State lives in the serve process; every other command talks to a running
server over its HTTP API (--addr or CASELINE_ADDR).`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("CASELINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().String("addr", "http://127.0.0.1:8787", "server address")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("addr", rootCmd.PersistentFlags().Lookup("addr"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(caseCmd())
	rootCmd.AddCommand(eventCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(timelineCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(templatesCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveCmd())
}

func client() *caselinesdk.Client {
	return caselinesdk.New(viper.GetString("addr"))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: use RFC3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

func parseTimeFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func fmtDate(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}

func fmtDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return fmtDate(*t)
}

// case commands

func caseCmd() *cobra.Command {
	c := &cobra.Command{Use: "case", Short: "Manage cases"}
	c.AddCommand(caseCreateCmd())
	c.AddCommand(caseListCmd())
	c.AddCommand(caseShowCmd())
	c.AddCommand(caseStatusCmd())
	c.AddCommand(caseDatesCmd())
	return c
}

func caseCreateCmd() *cobra.Command {
	var number, title, caseType, priority, courtName, county, judge string
	var parties, tags []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create case",
		RunE: func(cmd *cobra.Command, args []string) error {
			ps := make([]map[string]any, 0, len(parties))
			for _, p := range parties {
				// name:role, role defaults to petitioner
				name, role, found := strings.Cut(p, ":")
				if !found {
					role = "petitioner"
				}
				ps = append(ps, map[string]any{"name": name, "role": role})
			}
			body := map[string]any{
				"case_number": number,
				"title":       title,
				"type":        caseType,
				"parties":     ps,
				"court":       map[string]any{"name": courtName, "county": county, "judge": judge},
			}
			if priority != "" {
				body["priority"] = priority
			}
			if len(tags) > 0 {
				body["tags"] = tags
			}
			c, err := client().CreateCase(cmd.Context(), body)
			if err != nil {
				return err
			}
			return printJSON(c)
		},
	}
	cmd.Flags().StringVar(&number, "number", "", "case number")
	cmd.Flags().StringVar(&title, "title", "", "case title")
	cmd.Flags().StringVar(&caseType, "type", "", "case type")
	cmd.Flags().StringVar(&priority, "priority", "", "priority")
	cmd.Flags().StringArrayVar(&parties, "party", nil, "party as name:role (repeatable)")
	cmd.Flags().StringVar(&courtName, "court", "", "court name")
	cmd.Flags().StringVar(&county, "county", "", "court county")
	cmd.Flags().StringVar(&judge, "judge", "", "assigned judge")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "tag (repeatable)")
	_ = cmd.MarkFlagRequired("number")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("court")
	return cmd
}

func caseListCmd() *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List or search cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := client().ListCases(cmd.Context(), query)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(items)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"ID", "Number", "Title", "Type", "Status", "Priority"})
			for _, c := range items {
				tw.AppendRow(table.Row{c.ID, c.CaseNumber, c.Title, c.Type, c.Status, c.Priority})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "search text")
	return cmd
}

func caseShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <case-id>",
		Short: "Show case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client().GetCase(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(c)
		},
	}
	return cmd
}

func caseStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <case-id> <status>",
		Short: "Advance case status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client().UpdateCaseStatus(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(c)
		},
	}
	return cmd
}

func caseDatesCmd() *cobra.Command {
	var filed, served string
	cmd := &cobra.Command{
		Use:   "dates <case-id>",
		Short: "Set filed and service dates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filedAt, err := parseTimeFlag(filed)
			if err != nil {
				return err
			}
			servedAt, err := parseTimeFlag(served)
			if err != nil {
				return err
			}
			c, err := client().SetCaseDates(cmd.Context(), args[0], filedAt, servedAt)
			if err != nil {
				return err
			}
			return printJSON(c)
		},
	}
	cmd.Flags().StringVar(&filed, "filed", "", "filed date")
	cmd.Flags().StringVar(&served, "served", "", "service date")
	return cmd
}

// event commands

func eventCmd() *cobra.Command {
	c := &cobra.Command{Use: "event", Short: "Manage events"}
	c.AddCommand(eventAddCmd())
	c.AddCommand(eventListCmd())
	c.AddCommand(eventStatusCmd())
	c.AddCommand(eventUpcomingCmd())
	c.AddCommand(reminderCmd())
	return c
}

func eventAddCmd() *cobra.Command {
	var title, eventType, date, location, recurFreq, recurEnd string
	var duration, recurCount int
	var remind []int
	cmd := &cobra.Command{
		Use:   "add <case-id>",
		Short: "Schedule event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseTime(date)
			if err != nil {
				return err
			}
			body := map[string]any{
				"title": title,
				"type":  eventType,
				"date":  at,
			}
			if duration > 0 {
				body["duration_minutes"] = duration
			}
			if location != "" {
				body["location"] = location
			}
			if len(remind) > 0 {
				rs := make([]map[string]any, 0, len(remind))
				for _, m := range remind {
					rs = append(rs, map[string]any{"channel": "email", "minutes_before": m})
				}
				body["reminders"] = rs
			}
			if recurFreq != "" {
				rec := map[string]any{"frequency": recurFreq}
				if recurCount > 0 {
					rec["occurrences"] = recurCount
				}
				if recurEnd != "" {
					end, err := parseTime(recurEnd)
					if err != nil {
						return err
					}
					rec["end_date"] = end
				}
				body["recurrence"] = rec
			}
			ev, err := client().AddEvent(cmd.Context(), args[0], body)
			if err != nil {
				return err
			}
			return printJSON(ev)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "event title")
	cmd.Flags().StringVar(&eventType, "type", "other", "event type")
	cmd.Flags().StringVar(&date, "date", "", "event date")
	cmd.Flags().IntVar(&duration, "duration", 0, "duration in minutes")
	cmd.Flags().StringVar(&location, "location", "", "location")
	cmd.Flags().IntSliceVar(&remind, "remind", nil, "reminder minutes before (repeatable)")
	cmd.Flags().StringVar(&recurFreq, "recur", "", "recurrence frequency (daily|weekly|monthly)")
	cmd.Flags().IntVar(&recurCount, "recur-count", 0, "recurrence occurrence count")
	cmd.Flags().StringVar(&recurEnd, "recur-until", "", "recurrence end date")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func eventListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <case-id>",
		Short: "List events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := client().ListEvents(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(items)
			}
			renderEvents(items)
			return nil
		},
	}
	return cmd
}

func eventStatusCmd() *cobra.Command {
	var outcome string
	cmd := &cobra.Command{
		Use:   "status <event-id> <status>",
		Short: "Update event status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out *string
			if cmd.Flags().Changed("outcome") {
				out = &outcome
			}
			ev, err := client().UpdateEventStatus(cmd.Context(), args[0], args[1], out)
			if err != nil {
				return err
			}
			return printJSON(ev)
		},
	}
	cmd.Flags().StringVar(&outcome, "outcome", "", "recorded outcome")
	return cmd
}

func eventUpcomingCmd() *cobra.Command {
	var caseID string
	var days int
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "Upcoming events",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := client().Upcoming(cmd.Context(), caseID, days)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(items)
			}
			renderEvents(items)
			return nil
		},
	}
	cmd.Flags().StringVar(&caseID, "case", "", "restrict to one case")
	cmd.Flags().IntVar(&days, "days", 7, "window in days")
	return cmd
}

func renderEvents(items []domain.CaseEvent) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Date", "Type", "Title", "Status"})
	for _, ev := range items {
		tw.AppendRow(table.Row{ev.ID, fmtDate(ev.Date), ev.Type, ev.Title, ev.Status})
	}
	tw.Render()
}

func reminderCmd() *cobra.Command {
	c := &cobra.Command{Use: "reminder", Short: "Manage reminders"}
	c.AddCommand(&cobra.Command{
		Use:   "due",
		Short: "Reminders due for delivery",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := client().DueReminders(cmd.Context())
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(items)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Event", "Index", "Fire at", "Channel", "Title"})
			for _, r := range items {
				tw.AppendRow(table.Row{r.Event.ID, r.Index, fmtDate(r.FireAt), r.Reminder.Channel, r.Event.Title})
			}
			tw.Render()
			return nil
		},
	})
	var index int
	sent := &cobra.Command{
		Use:   "sent <event-id>",
		Short: "Mark reminder as sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := client().MarkReminderSent(cmd.Context(), args[0], index)
			if err != nil {
				return err
			}
			return printJSON(ev)
		},
	}
	sent.Flags().IntVar(&index, "index", 0, "reminder index on the event")
	c.AddCommand(sent)
	return c
}

// task commands

func taskCmd() *cobra.Command {
	c := &cobra.Command{Use: "task", Short: "Manage tasks"}
	c.AddCommand(taskAddCmd())
	c.AddCommand(taskListCmd())
	c.AddCommand(taskShowCmd())
	c.AddCommand(taskStatusCmd())
	c.AddCommand(taskDepsCmd())
	c.AddCommand(taskAssignCmd())
	c.AddCommand(taskSubtaskCmd())
	c.AddCommand(taskHoursCmd())
	c.AddCommand(taskOverdueCmd())
	return c
}

func taskAddCmd() *cobra.Command {
	var title, desc, assignee, category, priority, due string
	var deps, subtasks []string
	var estimated, rate float64
	var billable bool
	cmd := &cobra.Command{
		Use:   "add <case-id>",
		Short: "Add task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"title": title}
			if desc != "" {
				body["description"] = desc
			}
			if assignee != "" {
				body["assignee"] = assignee
			}
			if category != "" {
				body["category"] = category
			}
			if priority != "" {
				body["priority"] = priority
			}
			if due != "" {
				at, err := parseTime(due)
				if err != nil {
					return err
				}
				body["due_date"] = at
			}
			if estimated > 0 {
				body["estimated_hours"] = estimated
			}
			if len(deps) > 0 {
				body["dependencies"] = deps
			}
			if len(subtasks) > 0 {
				body["subtasks"] = subtasks
			}
			if billable {
				body["billable"] = true
				if rate > 0 {
					body["hourly_rate"] = rate
				}
			}
			t, err := client().AddTask(cmd.Context(), args[0], body)
			if err != nil {
				return err
			}
			return printJSON(t)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "task title")
	cmd.Flags().StringVar(&desc, "desc", "", "description")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assignee")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().StringVar(&priority, "priority", "", "priority")
	cmd.Flags().StringVar(&due, "due", "", "due date")
	cmd.Flags().Float64Var(&estimated, "estimate", 0, "estimated hours")
	cmd.Flags().StringArrayVar(&deps, "depends-on", nil, "dependency task id (repeatable)")
	cmd.Flags().StringArrayVar(&subtasks, "subtask", nil, "subtask title (repeatable)")
	cmd.Flags().BoolVar(&billable, "billable", false, "billable task")
	cmd.Flags().Float64Var(&rate, "rate", 0, "hourly rate")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func taskListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <case-id>",
		Short: "List tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := client().ListTasks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(items)
			}
			renderTasks(items)
			return nil
		},
	}
	return cmd
}

func renderTasks(items []domain.CaseTask) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Title", "Status", "Priority", "Due", "Assignee", "Deps"})
	for _, t := range items {
		tw.AppendRow(table.Row{t.ID, t.Title, t.Status, t.Priority, fmtDatePtr(t.DueDate), t.Assignee, len(t.Dependencies)})
	}
	tw.Render()
}

func taskShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := client().GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(t)
		},
	}
}

func taskStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <task-id> <status>",
		Short: "Update task status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := client().UpdateTaskStatus(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(t)
		},
	}
}

func taskDepsCmd() *cobra.Command {
	var add, remove []string
	cmd := &cobra.Command{
		Use:   "deps <task-id>",
		Short: "Add or remove dependencies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := client().UpdateTaskDependencies(cmd.Context(), args[0], add, remove)
			if err != nil {
				return err
			}
			return printJSON(t)
		},
	}
	cmd.Flags().StringArrayVar(&add, "add", nil, "dependency to add (repeatable)")
	cmd.Flags().StringArrayVar(&remove, "remove", nil, "dependency to remove (repeatable)")
	return cmd
}

func taskAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <task-id> <assignee>",
		Short: "Assign task",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			assignee := ""
			if len(args) == 2 {
				assignee = args[1]
			}
			t, err := client().AssignTask(cmd.Context(), args[0], assignee)
			if err != nil {
				return err
			}
			return printJSON(t)
		},
	}
}

func taskSubtaskCmd() *cobra.Command {
	c := &cobra.Command{Use: "subtask", Short: "Manage subtasks"}
	c.AddCommand(&cobra.Command{
		Use:   "add <task-id> <title>",
		Short: "Add subtask",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := client().AddSubtask(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(st)
		},
	})
	c.AddCommand(&cobra.Command{
		Use:   "toggle <task-id> <subtask-id>",
		Short: "Toggle subtask completion",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := client().ToggleSubtask(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(t)
		},
	})
	return c
}

func taskHoursCmd() *cobra.Command {
	var hours float64
	cmd := &cobra.Command{
		Use:   "hours <task-id>",
		Short: "Log worked hours",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := client().LogHours(cmd.Context(), args[0], hours)
			if err != nil {
				return err
			}
			return printJSON(t)
		},
	}
	cmd.Flags().Float64Var(&hours, "hours", 0, "hours worked")
	_ = cmd.MarkFlagRequired("hours")
	return cmd
}

func taskOverdueCmd() *cobra.Command {
	var caseID string
	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "Overdue tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := client().Overdue(cmd.Context(), caseID)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(items)
			}
			renderTasks(items)
			return nil
		},
	}
	cmd.Flags().StringVar(&caseID, "case", "", "restrict to one case")
	return cmd
}

// derived views

func timelineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "timeline <case-id>",
		Short: "Derived case timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tl, err := client().Timeline(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(tl)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Milestone", "Date", "Achieved"})
			for _, m := range tl.Milestones {
				tw.AppendRow(table.Row{m.Title, fmtDate(m.Date), m.Achieved})
			}
			tw.Render()
			tw = table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Phase", "Start", "End", "Status"})
			for _, p := range tl.Phases {
				tw.AppendRow(table.Row{p.Name, fmtDate(p.Start), fmtDate(p.End), p.Status})
			}
			tw.Render()
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <case-id>",
		Short: "Derived case statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := client().Statistics(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(st)
		},
	}
}

func logCmd() *cobra.Command {
	c := &cobra.Command{Use: "log", Short: "Notification log"}
	var after int64
	var limit int
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Pull notifications after a cursor",
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := client().NotificationsAfter(cmd.Context(), after, limit)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(page)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"ID", "TS", "Kind", "Case"})
			for _, n := range page.Items {
				tw.AppendRow(table.Row{n.ID, fmtDate(n.TS), n.Kind, n.CaseID})
			}
			tw.Render()
			fmt.Printf("latest: %d\n", page.Latest)
			return nil
		},
	}
	tail.Flags().Int64Var(&after, "after", 0, "cursor")
	tail.Flags().IntVar(&limit, "limit", 50, "max entries")
	c.AddCommand(tail)
	return c
}

// templates and config operate locally, without a server.

func templatesCmd() *cobra.Command {
	c := &cobra.Command{Use: "templates", Short: "Template catalog"}
	c.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the active catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog()
			if err != nil {
				return err
			}
			return printJSON(cat)
		},
	})
	c.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a catalog file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := template.FromFile(args[0]); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	})
	return c
}

func configCmd() *cobra.Command {
	c := &cobra.Command{Use: "config", Short: "Workspace configuration"}
	c.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default caseline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	})
	c.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			if cfg == nil {
				cfg = config.Default()
			}
			return printJSON(cfg)
		},
	})
	c.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate caseline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(viper.GetString("workspace")); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	})
	return c
}

func loadCatalog() (*template.Catalog, error) {
	cfg, err := config.LoadOptional(viper.GetString("workspace"))
	if err != nil {
		return nil, err
	}
	if cfg != nil && cfg.Templates.Path != "" {
		return template.FromFile(cfg.Templates.Path)
	}
	return template.Default(), nil
}

func serveCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			if cfg == nil {
				cfg = config.Default()
			}
			if listen != "" {
				cfg.Server.Listen = listen
			}
			cat, err := loadCatalog()
			if err != nil {
				return err
			}
			eng := engine.New(store.New(), cat, notify.NewLog())
			handler, err := server.New(server.Config{Engine: eng, BasePath: cfg.Server.BasePath})
			if err != nil {
				return err
			}
			server.StartWebhookDispatcher(eng.Log, cfg.Webhooks)
			fmt.Printf("caseline listening on %s\n", cfg.Server.Listen)
			return http.ListenAndServe(cfg.Server.Listen, handler)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config)")
	return cmd
}
