package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"caseline/internal/domain"
	"caseline/internal/engine"
	"caseline/internal/notify"
	"caseline/internal/store"
	"caseline/internal/template"
)

type testServer struct {
	URL    string
	Engine engine.Engine
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	seq := 0
	e := engine.New(store.New(), template.Default(), notify.NewLog())
	e.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	e.NewID = func() string {
		seq++
		return fmt.Sprintf("id-%04d", seq)
	}
	handler, err := New(Config{Engine: e, BasePath: "/v0"})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		Engine: e,
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func decodeInto(t *testing.T, data []byte, out any) {
	t.Helper()
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
}

func errorCode(t *testing.T, data []byte) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeInto(t, data, &envelope)
	return envelope.Error.Code
}

func createCase(t *testing.T, srv *testServer) domain.Case {
	t.Helper()
	resp, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/cases", map[string]any{
		"case_number": "FL-2024-100",
		"title":       "Doe v. Doe",
		"type":        "modification",
		"parties":     []map[string]any{{"name": "Alex Doe", "role": "petitioner"}},
		"court":       map[string]any{"name": "Superior Court"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create case: %d %s", resp.StatusCode, data)
	}
	var c domain.Case
	decodeInto(t, data, &c)
	return c
}

func TestHealth(t *testing.T) {
	srv, done := newTestServer(t)
	defer done()
	resp, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health: %d %s", resp.StatusCode, data)
	}
}

func TestCaseLifecycleOverHTTP(t *testing.T) {
	srv, done := newTestServer(t)
	defer done()
	c := createCase(t, srv)
	if c.Status != domain.CaseStatusIntake {
		t.Fatalf("new case status = %s", c.Status)
	}

	resp, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/cases/"+c.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get case: %d %s", resp.StatusCode, data)
	}

	resp, data = doJSON(t, srv.Client(), http.MethodPatch, srv.URL+"/v0/cases/"+c.ID+"/status", map[string]any{
		"status": "filed",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("advance status: %d %s", resp.StatusCode, data)
	}
	var updated domain.Case
	decodeInto(t, data, &updated)
	if updated.Status != domain.CaseStatusFiled || updated.FiledDate == nil {
		t.Fatalf("after filing: status=%s filed=%v", updated.Status, updated.FiledDate)
	}

	resp, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/cases?q=doe", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search: %d %s", resp.StatusCode, data)
	}
	var found []domain.Case
	decodeInto(t, data, &found)
	if len(found) != 1 {
		t.Fatalf("search results: %+v", found)
	}
}

func TestErrorEnvelopeMapping(t *testing.T) {
	srv, done := newTestServer(t)
	defer done()
	c := createCase(t, srv)

	// missing required field
	resp, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/cases", map[string]any{
		"title": "no number",
		"type":  "divorce",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("validation status = %d %s", resp.StatusCode, data)
	}
	if code := errorCode(t, data); code != "bad_request" {
		t.Fatalf("validation code = %q", code)
	}

	// unknown case
	resp, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/cases/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("not found status = %d", resp.StatusCode)
	}
	if code := errorCode(t, data); code != "not_found" {
		t.Fatalf("not found code = %q", code)
	}

	// backward status transition
	doJSON(t, srv.Client(), http.MethodPatch, srv.URL+"/v0/cases/"+c.ID+"/status", map[string]any{"status": "discovery"})
	resp, data = doJSON(t, srv.Client(), http.MethodPatch, srv.URL+"/v0/cases/"+c.ID+"/status", map[string]any{"status": "intake"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("transition status = %d %s", resp.StatusCode, data)
	}
	if code := errorCode(t, data); code != "invalid_transition" {
		t.Fatalf("transition code = %q", code)
	}

	// dependency cycle
	resp, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/cases/"+c.ID+"/tasks", map[string]any{"title": "A"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add task: %d %s", resp.StatusCode, data)
	}
	var a domain.CaseTask
	decodeInto(t, data, &a)
	resp, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/cases/"+c.ID+"/tasks", map[string]any{
		"title":        "B",
		"dependencies": []string{a.ID},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add task B: %d %s", resp.StatusCode, data)
	}
	var b domain.CaseTask
	decodeInto(t, data, &b)
	resp, data = doJSON(t, srv.Client(), http.MethodPatch, srv.URL+"/v0/tasks/"+a.ID+"/dependencies", map[string]any{
		"add": []string{b.ID},
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("cycle status = %d %s", resp.StatusCode, data)
	}
	if code := errorCode(t, data); code != "cyclic_dependency" {
		t.Fatalf("cycle code = %q", code)
	}
}

func TestEventAndReminderEndpoints(t *testing.T) {
	srv, done := newTestServer(t)
	defer done()
	c := createCase(t, srv)

	resp, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/cases/"+c.ID+"/events", map[string]any{
		"title": "Status conference",
		"type":  "hearing",
		"date":  "2024-01-10T09:00:00Z",
		"reminders": []map[string]any{
			{"channel": "email", "minutes_before": 60},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add event: %d %s", resp.StatusCode, data)
	}
	var ev domain.CaseEvent
	decodeInto(t, data, &ev)

	resp, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/events/upcoming?case_id="+c.ID+"&within_days=30", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upcoming: %d %s", resp.StatusCode, data)
	}
	var upcoming []domain.CaseEvent
	decodeInto(t, data, &upcoming)
	if len(upcoming) != 1 {
		t.Fatalf("upcoming = %+v", upcoming)
	}

	resp, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/reminders/due?as_of=2024-01-10T08:30:00Z", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("due reminders: %d %s", resp.StatusCode, data)
	}
	var due []domain.DueReminder
	decodeInto(t, data, &due)
	if len(due) != 1 || due[0].Event.ID != ev.ID {
		t.Fatalf("due = %+v", due)
	}

	resp, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/events/"+ev.ID+"/reminders/0/sent", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mark sent: %d %s", resp.StatusCode, data)
	}
	var sent domain.CaseEvent
	decodeInto(t, data, &sent)
	if !sent.Reminders[0].Sent {
		t.Fatalf("reminder not marked sent: %+v", sent.Reminders)
	}

	outcome := "continued to February"
	resp, data = doJSON(t, srv.Client(), http.MethodPatch, srv.URL+"/v0/events/"+ev.ID+"/status", map[string]any{
		"status":  "completed",
		"outcome": outcome,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("event status: %d %s", resp.StatusCode, data)
	}
	var completed domain.CaseEvent
	decodeInto(t, data, &completed)
	if completed.Outcome == nil || *completed.Outcome != outcome {
		t.Fatalf("outcome = %v", completed.Outcome)
	}
}

func TestDerivedViews(t *testing.T) {
	srv, done := newTestServer(t)
	defer done()
	c := createCase(t, srv)

	resp, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/cases/"+c.ID+"/timeline", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("timeline: %d %s", resp.StatusCode, data)
	}
	var tl domain.CaseTimeline
	decodeInto(t, data, &tl)
	if len(tl.Milestones) != 4 {
		t.Fatalf("milestones = %d", len(tl.Milestones))
	}

	resp, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/cases/"+c.ID+"/statistics", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("statistics: %d %s", resp.StatusCode, data)
	}
	var st domain.CaseStatistics
	decodeInto(t, data, &st)
	if st.CaseID != c.ID || st.Compliance != domain.Compliant {
		t.Fatalf("statistics = %+v", st)
	}
}

func TestNotificationsCursor(t *testing.T) {
	srv, done := newTestServer(t)
	defer done()
	createCase(t, srv)

	resp, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/notifications", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("notifications: %d %s", resp.StatusCode, data)
	}
	var page NotificationsResponse
	decodeInto(t, data, &page)
	if len(page.Items) == 0 || page.Items[0].Kind != notify.KindCaseCreated {
		t.Fatalf("page = %+v", page)
	}
	if page.Latest != page.Items[len(page.Items)-1].ID {
		t.Fatalf("latest = %d, last item id = %d", page.Latest, page.Items[len(page.Items)-1].ID)
	}

	resp, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+fmt.Sprintf("/v0/notifications?after=%d", page.Latest), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("notifications after: %d %s", resp.StatusCode, data)
	}
	var empty NotificationsResponse
	decodeInto(t, data, &empty)
	if len(empty.Items) != 0 {
		t.Fatalf("expected no items past the cursor, got %+v", empty.Items)
	}
}
