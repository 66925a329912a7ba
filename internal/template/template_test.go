package template_test

import (
	"strings"
	"testing"

	"caseline/internal/domain"
	"caseline/internal/template"
)

func TestDefaultCatalogValid(t *testing.T) {
	cat := template.Default()
	if err := cat.Validate(); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
	for _, typ := range []domain.CaseType{
		domain.CaseTypeDivorce,
		domain.CaseTypeCustody,
		domain.CaseTypeSupport,
		domain.CaseTypeProtectionOrder,
	} {
		if _, ok := cat.For(typ); !ok {
			t.Fatalf("default catalog missing template for %s", typ)
		}
	}
	if _, ok := cat.For(domain.CaseTypeModification); ok {
		t.Fatalf("modification should have no default template")
	}
}

func TestFromYAMLRejectsUnknownEnum(t *testing.T) {
	_, err := template.FromYAML([]byte(`
templates:
  divorce:
    tasks:
      - title: "T"
        category: skydiving
`))
	if err == nil || !strings.Contains(err.Error(), "category") {
		t.Fatalf("unknown category: %v", err)
	}
}

func TestFromYAMLRejectsUnresolvedDependency(t *testing.T) {
	_, err := template.FromYAML([]byte(`
templates:
  divorce:
    tasks:
      - title: "T"
        depends_on: ["Missing"]
`))
	if err == nil || !strings.Contains(err.Error(), "Missing") {
		t.Fatalf("unresolved dependency: %v", err)
	}
}

func TestFromYAMLRejectsDependencyCycle(t *testing.T) {
	_, err := template.FromYAML([]byte(`
templates:
  divorce:
    tasks:
      - title: "A"
        depends_on: ["B"]
      - title: "B"
        depends_on: ["A"]
`))
	if err == nil {
		t.Fatalf("expected cycle error")
	}
}

func TestFromYAMLRejectsDuplicateTitle(t *testing.T) {
	_, err := template.FromYAML([]byte(`
templates:
  divorce:
    tasks:
      - title: "A"
      - title: "A"
`))
	if err == nil {
		t.Fatalf("expected duplicate title error")
	}
}

func TestFromYAMLRejectsUnknownCaseType(t *testing.T) {
	_, err := template.FromYAML([]byte(`
templates:
  felony:
    tasks:
      - title: "A"
`))
	if err == nil {
		t.Fatalf("expected unknown case type error")
	}
}
