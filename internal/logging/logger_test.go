package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func resetState() {
	mutex.Lock()
	modules = make(map[string]*module)
	initialized = false
	active = Config{}
	mutex.Unlock()
}

func TestModuleLevelOverride(t *testing.T) {
	resetState()

	// Global info, sequence module at debug, gpio at warn
	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"sequence": "debug",
			"gpio":     "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"sequence", true, true, true},
		{"gpio", false, false, true},
		{"button", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			handler := GetLogger(tt.module).Handler()

			gotDebug := handler.Enabled(context.Background(), slog.LevelDebug)
			gotInfo := handler.Enabled(context.Background(), slog.LevelInfo)
			gotWarn := handler.Enabled(context.Background(), slog.LevelWarn)

			if gotDebug != tt.wantDebug {
				t.Errorf("module %q: Debug enabled = %v, want %v", tt.module, gotDebug, tt.wantDebug)
			}
			if gotInfo != tt.wantInfo {
				t.Errorf("module %q: Info enabled = %v, want %v", tt.module, gotInfo, tt.wantInfo)
			}
			if gotWarn != tt.wantWarn {
				t.Errorf("module %q: Warn enabled = %v, want %v", tt.module, gotWarn, tt.wantWarn)
			}
		})
	}
}

func TestInvalidGlobalLevelFallsBackToInfo(t *testing.T) {
	resetState()

	Initialize(Config{Level: "loud", Format: "text"})

	handler := GetLogger("metrics").Handler()
	if handler.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Debug should be disabled when the global level is invalid")
	}
	if !handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Info should be enabled when the global level is invalid")
	}
}

func TestGetLoggerCachesPerModule(t *testing.T) {
	resetState()

	a := GetLogger("sequence")
	b := GetLogger("sequence")
	c := GetLogger("button")

	if a != b {
		t.Error("GetLogger should return the cached logger for the same module")
	}
	if a == c {
		t.Error("GetLogger should return distinct loggers for distinct modules")
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	resetState()

	// Before Initialize the level defaults to info
	loggerBefore := GetLogger("button")
	handlerBefore := loggerBefore.Handler()

	if handlerBefore.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Logger created before Initialize should NOT have debug enabled")
	}

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"button": "debug",
		},
	})

	loggerAfter := GetLogger("button")
	if loggerBefore != loggerAfter {
		t.Error("Logger should be cached - same pointer before and after Initialize")
	}

	// Level lives in a LevelVar, so the old handler sees the new level too
	if !handlerBefore.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Cached logger should have debug enabled after Initialize updates LevelVar")
	}
}

func TestMultiHandlerDebugOutput(t *testing.T) {
	var buf bytes.Buffer

	debugHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	infoHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	multi := NewMultiHandler(debugHandler, infoHandler)
	logger := slog.New(multi).With("module", "sequence")

	// Only the debug handler writes it
	logger.Debug("debug only message")

	output := buf.String()
	if count := strings.Count(output, "debug only message"); count != 1 {
		t.Errorf("Expected 1 debug message, got %d. Output: %s", count, output)
	}

	buf.Reset()
	logger.Info("frame rendered", "pattern", "0x81")

	output = buf.String()
	if count := strings.Count(output, "frame rendered"); count != 2 {
		t.Errorf("Expected 2 info messages, got %d. Output: %s", count, output)
	}
	if strings.Count(output, "module=sequence") != 2 {
		t.Errorf("WithAttrs not propagated to every handler. Output: %s", output)
	}
}

func TestMultiHandlerEnabled(t *testing.T) {
	var buf bytes.Buffer
	warn := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	errOnly := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError})

	multi := NewMultiHandler(warn, errOnly)
	if multi.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Info should be disabled when no handler accepts it")
	}
	if !multi.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("Warn should be enabled when any handler accepts it")
	}
}

func TestJournalHandlerFollowsLevelVar(t *testing.T) {
	levelVar := &slog.LevelVar{}
	levelVar.Set(slog.LevelWarn)

	h := NewJournalHandler(levelVar)
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Info should be disabled at warn level")
	}

	levelVar.Set(slog.LevelDebug)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Debug should be enabled after lowering the LevelVar")
	}

	// Derived handlers share the leveler
	derived := h.WithAttrs([]slog.Attr{slog.String("module", "gpio")})
	levelVar.Set(slog.LevelError)
	if derived.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("Derived handler should follow the shared LevelVar")
	}
}

func TestParseLevelValues(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		isNil bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"invalid", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input)
			if tt.isNil {
				if got != nil {
					t.Errorf("parseLevel(%q) = %v, want nil", tt.input, *got)
				}
			} else {
				if got == nil {
					t.Errorf("parseLevel(%q) = nil, want %v", tt.input, tt.want)
				} else if *got != tt.want {
					t.Errorf("parseLevel(%q) = %v, want %v", tt.input, *got, tt.want)
				}
			}
		})
	}
}

type failingHandler struct {
	slog.Handler
	err error
}

func (f failingHandler) Handle(context.Context, slog.Record) error {
	return f.err
}

func TestMultiHandlerJoinsErrors(t *testing.T) {
	var buf bytes.Buffer
	journalDown := errors.New("journal socket closed")

	multi := NewMultiHandler(
		failingHandler{Handler: slog.NewTextHandler(&buf, nil), err: journalDown},
		slog.NewTextHandler(&buf, nil),
	)

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "mode changed", 0)
	err := multi.Handle(context.Background(), r)
	if !errors.Is(err, journalDown) {
		t.Errorf("Handle() error = %v, want journal error", err)
	}
	if !strings.Contains(buf.String(), "mode changed") {
		t.Errorf("second handler skipped after first failed. Output: %s", buf.String())
	}
}

func TestInitializeReloadRetunesExistingLoggers(t *testing.T) {
	resetState()

	Initialize(Config{Level: "info", Format: "text"})
	logger := GetLogger("gpio")
	if logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("gpio should start at info")
	}

	Initialize(Config{Level: "info", Format: "json", Modules: map[string]string{"gpio": "debug"}})
	if GetLogger("gpio") != logger {
		t.Error("reload replaced the gpio logger")
	}
	if !logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("gpio should log debug after reload")
	}

	Initialize(Config{Level: "error", Format: "json"})
	if logger.Handler().Enabled(context.Background(), slog.LevelWarn) {
		t.Error("dropping the override should fall back to the global error level")
	}
}

func TestConfigEqual(t *testing.T) {
	base := Config{Level: "info", Format: "text", Modules: map[string]string{"sequence": "debug"}}

	tests := []struct {
		name  string
		other Config
		want  bool
	}{
		{"same", Config{Level: "info", Format: "text", Modules: map[string]string{"sequence": "debug"}}, true},
		{"level", Config{Level: "warn", Format: "text", Modules: map[string]string{"sequence": "debug"}}, false},
		{"format", Config{Level: "info", Format: "json", Modules: map[string]string{"sequence": "debug"}}, false},
		{"module", Config{Level: "info", Format: "text", Modules: map[string]string{"sequence": "warn"}}, false},
		{"no modules", Config{Level: "info", Format: "text"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Equal(tt.other); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}

	if !(Config{}).Equal(Config{Modules: map[string]string{}}) {
		t.Error("nil and empty module maps should compare equal")
	}
}

func TestSwapHandlerFollowsReplacement(t *testing.T) {
	var before, after bytes.Buffer

	out := newSwapHandler(slog.NewTextHandler(&before, nil))
	logger := slog.New(out).With("module", "sequence").WithGroup("run")

	logger.Info("frame rendered", "pattern", 129)
	out.swap(slog.NewJSONHandler(&after, nil))
	logger.Info("mode changed", "to", "stack-right")

	if !strings.Contains(before.String(), "run.pattern=129") {
		t.Errorf("first handler output = %q", before.String())
	}
	if strings.Contains(before.String(), "mode changed") {
		t.Error("record went to the replaced handler")
	}
	got := after.String()
	if !strings.Contains(got, `"module":"sequence"`) || !strings.Contains(got, `"run":{"to":"stack-right"}`) {
		t.Errorf("derived attrs and groups not replayed on the new handler: %s", got)
	}
}
