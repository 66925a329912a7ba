// Package template holds the per-case-type catalog of default tasks, events,
// and phases used to bootstrap a new case. The catalog is read-only
// configuration, not user input.
package template

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"caseline/internal/domain"
)

// TaskSpec is one default task. DependsOn names sibling specs by title;
// titles are resolved to ids when the template is instantiated.
type TaskSpec struct {
	Title          string              `yaml:"title"`
	Description    string              `yaml:"description"`
	Category       domain.TaskCategory `yaml:"category"`
	Priority       domain.Priority     `yaml:"priority"`
	EstimatedHours float64             `yaml:"estimated_hours"`
	DueInDays      int                 `yaml:"due_in_days"`
	DependsOn      []string            `yaml:"depends_on"`
	Billable       bool                `yaml:"billable"`
}

// EventSpec is one default event, scheduled relative to case creation.
type EventSpec struct {
	Type            domain.EventType `yaml:"type"`
	Title           string           `yaml:"title"`
	Description     string           `yaml:"description"`
	InDays          int              `yaml:"in_days"`
	DurationMinutes int              `yaml:"duration_minutes"`
}

// PhaseSpec is one named phase with the lifecycle statuses it covers and a
// nominal duration used only for projected timeline dates.
type PhaseSpec struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Statuses    []domain.CaseStatus `yaml:"statuses"`
	NominalDays int                 `yaml:"nominal_days"`
}

// Template is the full default set for one case type.
type Template struct {
	Tasks  []TaskSpec  `yaml:"tasks"`
	Events []EventSpec `yaml:"events"`
	Phases []PhaseSpec `yaml:"phases"`
}

// Catalog maps case types to templates. Types without an entry bootstrap
// empty cases and project empty phase lists.
type Catalog struct {
	Templates map[domain.CaseType]Template `yaml:"templates"`
}

// For returns the template for a case type.
func (c *Catalog) For(t domain.CaseType) (Template, bool) {
	if c == nil {
		return Template{}, false
	}
	tpl, ok := c.Templates[t]
	return tpl, ok
}

// Validate checks the catalog: known enums, dependency titles that resolve
// within the same template, and an acyclic dependency graph.
func (c *Catalog) Validate() error {
	for caseType, tpl := range c.Templates {
		if !caseType.Valid() {
			return fmt.Errorf("templates: unknown case type %q", caseType)
		}
		titles := make(map[string]int, len(tpl.Tasks))
		for i, ts := range tpl.Tasks {
			if ts.Title == "" {
				return fmt.Errorf("templates.%s.tasks[%d]: title is required", caseType, i)
			}
			if _, dup := titles[ts.Title]; dup {
				return fmt.Errorf("templates.%s: duplicate task title %q", caseType, ts.Title)
			}
			titles[ts.Title] = i
			if ts.Category != "" && !ts.Category.Valid() {
				return fmt.Errorf("templates.%s.tasks[%d]: unknown category %q", caseType, i, ts.Category)
			}
			if ts.Priority != "" && !ts.Priority.Valid() {
				return fmt.Errorf("templates.%s.tasks[%d]: unknown priority %q", caseType, i, ts.Priority)
			}
		}
		for i, ts := range tpl.Tasks {
			for _, dep := range ts.DependsOn {
				j, ok := titles[dep]
				if !ok {
					return fmt.Errorf("templates.%s.tasks[%d]: depends_on %q does not name a task in this template", caseType, i, dep)
				}
				if j == i {
					return fmt.Errorf("templates.%s.tasks[%d]: depends on itself", caseType, i)
				}
			}
		}
		if err := checkAcyclic(caseType, tpl.Tasks, titles); err != nil {
			return err
		}
		for i, es := range tpl.Events {
			if es.Title == "" {
				return fmt.Errorf("templates.%s.events[%d]: title is required", caseType, i)
			}
			if es.Type != "" && !es.Type.Valid() {
				return fmt.Errorf("templates.%s.events[%d]: unknown type %q", caseType, i, es.Type)
			}
		}
		for i, ps := range tpl.Phases {
			if ps.Name == "" {
				return fmt.Errorf("templates.%s.phases[%d]: name is required", caseType, i)
			}
			if len(ps.Statuses) == 0 {
				return fmt.Errorf("templates.%s.phases[%d]: statuses is required", caseType, i)
			}
			for _, st := range ps.Statuses {
				if !st.Valid() {
					return fmt.Errorf("templates.%s.phases[%d]: unknown status %q", caseType, i, st)
				}
			}
		}
	}
	return nil
}

// checkAcyclic rejects dependency cycles among a template's task specs.
func checkAcyclic(caseType domain.CaseType, tasks []TaskSpec, titles map[string]int) error {
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make([]int, len(tasks))
	var visit func(i int) error
	visit = func(i int) error {
		color[i] = grey
		for _, dep := range tasks[i].DependsOn {
			j := titles[dep]
			switch color[j] {
			case grey:
				return fmt.Errorf("templates.%s: dependency cycle through task %q", caseType, tasks[j].Title)
			case white:
				if err := visit(j); err != nil {
					return err
				}
			}
		}
		color[i] = black
		return nil
	}
	for i := range tasks {
		if color[i] == white {
			if err := visit(i); err != nil {
				return err
			}
		}
	}
	return nil
}

// FromYAML parses and validates a catalog.
func FromYAML(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("invalid template catalog yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// FromFile reads a catalog from the given path.
func FromFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := FromYAML([]byte(defaultCatalog))
	if err != nil {
		panic(fmt.Sprintf("built-in template catalog invalid: %v", err))
	}
	return c
}

const defaultCatalog = `templates:
  divorce:
    tasks:
      - title: "Prepare petition"
        description: "Draft the dissolution petition and summons"
        category: filing
        priority: high
        estimated_hours: 4
        due_in_days: 7
        billable: true
      - title: "File petition with court"
        category: filing
        priority: high
        estimated_hours: 1
        due_in_days: 14
        depends_on: ["Prepare petition"]
        billable: true
      - title: "Serve respondent"
        category: court
        priority: high
        estimated_hours: 2
        due_in_days: 30
        depends_on: ["File petition with court"]
      - title: "Financial disclosures"
        description: "Exchange income and expense declarations"
        category: financial
        priority: medium
        estimated_hours: 6
        due_in_days: 60
        depends_on: ["Serve respondent"]
        billable: true
      - title: "Draft settlement proposal"
        category: preparation
        priority: medium
        estimated_hours: 8
        due_in_days: 90
        depends_on: ["Financial disclosures"]
        billable: true
    events:
      - type: deadline
        title: "Response due"
        description: "Respondent must answer within 30 days of service"
        in_days: 30
      - type: deadline
        title: "Financial disclosure deadline"
        in_days: 60
    phases:
      - name: "Filing"
        description: "Petition prepared and filed"
        statuses: [intake, filed]
        nominal_days: 21
      - name: "Service"
        description: "Respondent served and response received"
        statuses: [served]
        nominal_days: 30
      - name: "Discovery"
        description: "Financial and custody discovery"
        statuses: [discovery]
        nominal_days: 60
      - name: "Resolution"
        description: "Negotiation, trial preparation, and trial"
        statuses: [negotiation, trial_prep, trial]
        nominal_days: 90
      - name: "Judgment"
        description: "Settlement entered and case closed"
        statuses: [settled, closed]
        nominal_days: 30
  custody:
    tasks:
      - title: "Prepare custody petition"
        category: filing
        priority: high
        estimated_hours: 3
        due_in_days: 7
        billable: true
      - title: "File custody petition"
        category: filing
        priority: high
        estimated_hours: 1
        due_in_days: 14
        depends_on: ["Prepare custody petition"]
      - title: "Prepare parenting plan"
        category: preparation
        priority: medium
        estimated_hours: 5
        due_in_days: 45
        depends_on: ["File custody petition"]
        billable: true
    events:
      - type: meeting
        title: "Mediation orientation"
        in_days: 21
        duration_minutes: 90
    phases:
      - name: "Filing"
        statuses: [intake, filed, served]
        nominal_days: 30
      - name: "Mediation"
        statuses: [discovery, negotiation]
        nominal_days: 60
      - name: "Hearing"
        statuses: [trial_prep, trial]
        nominal_days: 45
      - name: "Order"
        statuses: [settled, closed]
        nominal_days: 15
  support:
    tasks:
      - title: "Gather income records"
        category: financial
        priority: high
        estimated_hours: 2
        due_in_days: 10
      - title: "Complete support worksheet"
        category: financial
        priority: medium
        estimated_hours: 2
        due_in_days: 20
        depends_on: ["Gather income records"]
        billable: true
    events:
      - type: hearing
        title: "Support hearing"
        in_days: 45
        duration_minutes: 60
    phases:
      - name: "Preparation"
        statuses: [intake, filed, served]
        nominal_days: 30
      - name: "Determination"
        statuses: [discovery, negotiation, trial_prep, trial]
        nominal_days: 45
      - name: "Order"
        statuses: [settled, closed]
        nominal_days: 15
  protection_order:
    tasks:
      - title: "Prepare protection order request"
        category: filing
        priority: urgent
        estimated_hours: 2
        due_in_days: 1
      - title: "Serve restrained party"
        category: court
        priority: urgent
        estimated_hours: 1
        due_in_days: 5
        depends_on: ["Prepare protection order request"]
    events:
      - type: hearing
        title: "Ex parte hearing"
        in_days: 1
        duration_minutes: 30
      - type: hearing
        title: "Full order hearing"
        in_days: 14
        duration_minutes: 60
    phases:
      - name: "Emergency"
        statuses: [intake, filed]
        nominal_days: 2
      - name: "Hearing"
        statuses: [served, discovery, negotiation, trial_prep, trial]
        nominal_days: 14
      - name: "Order"
        statuses: [settled, closed]
        nominal_days: 7
`
