package metrics

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smazurov/ledstack/internal/events"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// eventually polls cond until it holds; bus delivery is asynchronous.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestRecorder_CountsEvents(t *testing.T) {
	bus := events.New()
	r := NewRecorder(testLogger())
	r.Subscribe(bus)
	defer r.Close()

	for i := 1; i <= 3; i++ {
		bus.Publish(events.FrameRenderedEvent{Mode: "stack-left", Pattern: 0x81, Frame: i})
	}
	bus.Publish(events.ButtonPressedEvent{Mode: "stack-left"})
	bus.Publish(events.SequenceInterruptedEvent{Mode: "stack-left", Locked: 0x80, NumLocked: 1})
	bus.Publish(events.CycleCompletedEvent{Mode: "stack-right", Frames: 38})
	bus.Publish(events.ModeChangedEvent{From: "stack-left", To: "stack-right"})

	eventually(t, func() bool {
		return testutil.ToFloat64(r.frames.WithLabelValues("stack-left")) == 3
	}, "frames_total never reached 3")
	eventually(t, func() bool {
		return testutil.ToFloat64(r.presses.WithLabelValues("stack-left")) == 1
	}, "presses_total never reached 1")
	eventually(t, func() bool {
		return testutil.ToFloat64(r.interruptions.WithLabelValues("stack-left")) == 1
	}, "interruptions_total never reached 1")
	eventually(t, func() bool {
		return testutil.ToFloat64(r.cycles.WithLabelValues("stack-right")) == 1
	}, "cycles_completed_total never reached 1")
	eventually(t, func() bool {
		return testutil.ToFloat64(r.mode.WithLabelValues("stack-right")) == 1
	}, "mode gauge never switched")

	if got := testutil.ToFloat64(r.pattern); got != 0x81 {
		t.Errorf("pattern gauge = %v, want 129", got)
	}
	if got := testutil.ToFloat64(r.mode.WithLabelValues("stack-left")); got != 0 {
		t.Errorf("stack-left mode gauge = %v, want 0", got)
	}
}

func TestRecorder_CloseStopsRecording(t *testing.T) {
	bus := events.New()
	r := NewRecorder(testLogger())
	r.Subscribe(bus)
	r.Close()

	bus.Publish(events.ButtonPressedEvent{Mode: "stack-right"})
	time.Sleep(20 * time.Millisecond)

	if got := testutil.ToFloat64(r.presses.WithLabelValues("stack-right")); got != 0 {
		t.Errorf("presses after Close = %v, want 0", got)
	}
}

func TestServer_Routes(t *testing.T) {
	r := NewRecorder(testLogger())
	r.SetMode("stack-left")
	srv := NewServer(":0", r, func() string { return "stack-left" }, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	for _, want := range []string{
		`ledstack_sequence_frames_total{mode="stack-left"} 0`,
		`ledstack_sequence_mode{mode="stack-left"} 1`,
		"ledstack_button_presses_total",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("/metrics missing %q", want)
		}
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("/healthz status = %d", w.Code)
	}
	var health map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode /healthz: %v", err)
	}
	if health["status"] != "ok" || health["mode"] != "stack-left" {
		t.Errorf("/healthz = %v", health)
	}
}

func TestServer_StopBeforeStart(t *testing.T) {
	srv := NewServer(":0", NewRecorder(testLogger()), func() string { return "" }, testLogger())
	if err := srv.Stop(t.Context()); err != nil {
		t.Errorf("Stop() before Start = %v, want nil", err)
	}
}
