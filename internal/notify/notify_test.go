package notify_test

import (
	"sync"
	"testing"
	"time"

	"caseline/internal/notify"
)

func TestEmitAssignsSequentialIDs(t *testing.T) {
	log := notify.NewLog()
	log.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	a := log.Emit("c1", notify.KindCaseCreated, nil)
	b := log.Emit("c1", notify.KindTaskCreated, map[string]any{"task_id": "t1"})
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("ids = %d, %d", a.ID, b.ID)
	}
	if a.Payload == nil {
		t.Fatalf("nil payload must be normalized to an empty map")
	}
	if log.Latest() != 2 {
		t.Fatalf("latest = %d", log.Latest())
	}
}

func TestAfterCursorSemantics(t *testing.T) {
	log := notify.NewLog()
	for i := 0; i < 5; i++ {
		log.Emit("c1", notify.KindEventCreated, nil)
	}
	all := log.After(0, 0)
	if len(all) != 5 || all[0].ID != 1 {
		t.Fatalf("after(0): %d entries, first id %d", len(all), all[0].ID)
	}
	tail := log.After(3, 0)
	if len(tail) != 2 || tail[0].ID != 4 {
		t.Fatalf("after(3): %+v", tail)
	}
	limited := log.After(0, 2)
	if len(limited) != 2 || limited[1].ID != 2 {
		t.Fatalf("after(0, 2): %+v", limited)
	}
	if got := log.After(5, 0); got != nil {
		t.Fatalf("after(latest) should be empty, got %+v", got)
	}
}

func TestSubscribeReceivesFutureNotifications(t *testing.T) {
	log := notify.NewLog()
	var (
		mu  sync.Mutex
		got []notify.Notification
	)
	done := make(chan struct{}, 1)
	log.Subscribe(func(n notify.Notification) {
		mu.Lock()
		got = append(got, n)
		mu.Unlock()
		done <- struct{}{}
	})
	log.Emit("c1", notify.KindStatusChanged, map[string]any{"to": "filed"})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("sink never invoked")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].Kind != notify.KindStatusChanged {
		t.Fatalf("sink received %+v", got)
	}
}
