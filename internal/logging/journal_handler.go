package logging

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/coreos/go-systemd/v22/journal"
)

const syslogIdentifier = "ledstack"

// modeField is the journal field naming the running sequence.
const modeField = "MODE"

var currentMode atomic.Pointer[string]

// SetMode records the running sequence mode. Journal entries carry it as
// MODE unless the record has a mode attribute of its own.
func SetMode(mode string) {
	currentMode.Store(&mode)
}

func runningMode() string {
	if m := currentMode.Load(); m != nil {
		return *m
	}
	return ""
}

type sendFunc func(message string, priority journal.Priority, fields map[string]string) error

// JournalHandler is a slog.Handler that sends records to the systemd
// journal. Attribute keys become upper-case fields; groups are joined
// with '_', so "build.version" is stored as BUILD_VERSION.
type JournalHandler struct {
	level  slog.Leveler
	fields map[string]string
	prefix string
	send   sendFunc
}

// NewJournalHandler creates a journal handler gated by level.
func NewJournalHandler(level slog.Leveler) *JournalHandler {
	return newJournalHandler(level, journal.Send)
}

func newJournalHandler(level slog.Leveler, send sendFunc) *JournalHandler {
	return &JournalHandler{
		level:  level,
		fields: map[string]string{},
		send:   send,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *JournalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle sends the record to the journal.
func (h *JournalHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make(map[string]string, len(h.fields)+r.NumAttrs()+2)
	maps.Copy(fields, h.fields)
	r.Attrs(func(a slog.Attr) bool {
		putField(fields, h.prefix, a)
		return true
	})

	if _, ok := fields[modeField]; !ok {
		if mode := runningMode(); mode != "" {
			fields[modeField] = mode
		}
	}
	fields["SYSLOG_IDENTIFIER"] = syslogIdentifier

	if err := h.send(r.Message, priorityOf(r.Level), fields); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to send to journal: %v\n", err)
		return err
	}
	return nil
}

// WithAttrs renders attrs once, under the groups open at this point.
func (h *JournalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	child := h.clone()
	for _, a := range attrs {
		putField(child.fields, h.prefix, a)
	}
	return child
}

// WithGroup prefixes the fields of later attributes.
func (h *JournalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	child := h.clone()
	child.prefix = h.prefix + fieldName(name) + "_"
	return child
}

func (h *JournalHandler) clone() *JournalHandler {
	return &JournalHandler{
		level:  h.level,
		fields: maps.Clone(h.fields),
		prefix: h.prefix,
		send:   h.send,
	}
}

func priorityOf(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

// putField stores a under prefix, flattening groups and LogValuers such as
// version.Info.
func putField(fields map[string]string, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner += fieldName(a.Key) + "_"
		}
		for _, g := range a.Value.Group() {
			putField(fields, inner, g)
		}
		return
	}

	fields[prefix+fieldName(a.Key)] = fieldValue(a.Value)
}

// fieldName maps an attribute key onto the journal's [A-Z0-9_] alphabet.
// Journal field names may not start with a digit or an underscore.
func fieldName(key string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(key) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	name := strings.TrimLeft(b.String(), "_")
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "F_" + name
	}
	return name
}

func fieldValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	default:
		return v.String()
	}
}

// IsJournalAvailable checks if systemd journal is available.
func IsJournalAvailable() bool {
	return journal.Enabled()
}
