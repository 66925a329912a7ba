// Package engine implements the case lifecycle and task/event orchestration
// operations on top of the in-memory store: case status transitions,
// recurrence expansion, dependency propagation, and the derived timeline and
// statistics views.
package engine

import (
	"time"

	"caseline/internal/ident"
	"caseline/internal/notify"
	"caseline/internal/store"
	"caseline/internal/template"
)

// Engine wires the store, the template catalog, and the notification log.
// Now and NewID are injectable for tests.
type Engine struct {
	Store   *store.Store
	Catalog *template.Catalog
	Log     *notify.Log
	Now     func() time.Time
	NewID   func() string
}

// New returns an Engine over st with the given catalog and notification log.
func New(st *store.Store, cat *template.Catalog, log *notify.Log) Engine {
	return Engine{
		Store:   st,
		Catalog: cat,
		Log:     log,
		Now:     time.Now,
		NewID:   ident.New,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

func (e Engine) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return ident.New()
}

func (e Engine) emit(caseID string, kind notify.Kind, payload map[string]any) {
	if e.Log == nil {
		return
	}
	e.Log.Emit(caseID, kind, payload)
}
