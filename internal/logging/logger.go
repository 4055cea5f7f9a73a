package logging

import (
	"log/slog"
	"maps"
	"os"
	"strings"
	"sync"
)

// Config represents logging configuration.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

// Equal reports whether both configs produce the same loggers.
func (c Config) Equal(other Config) bool {
	return c.Level == other.Level &&
		c.Format == other.Format &&
		maps.Equal(c.Modules, other.Modules)
}

// module is the state behind one GetLogger name. The logger pointer never
// changes; Initialize retunes level and swaps out.
type module struct {
	logger *slog.Logger
	level  *slog.LevelVar
	out    *swapHandler
}

var (
	modules     = make(map[string]*module)
	active      Config
	initialized bool
	rootLevel   = &slog.LevelVar{}
	mutex       sync.RWMutex
)

// Initialize applies config to every module logger, existing or future, and
// to the slog default. It may be called again to reload the configuration.
func Initialize(config Config) {
	mutex.Lock()
	defer mutex.Unlock()

	active = config
	initialized = true

	rootLevel.Set(globalLevel(config))
	for name, m := range modules {
		m.level.Set(moduleLevel(config, name))
		m.out.swap(createHandler(config.Format, m.level))
	}

	slog.SetDefault(slog.New(createHandler(config.Format, rootLevel)))
}

// GetLogger returns the logger for module, creating it on first use.
// Loggers obtained before Initialize pick up its format and outputs.
func GetLogger(name string) *slog.Logger {
	mutex.RLock()
	m, ok := modules[name]
	mutex.RUnlock()
	if ok {
		return m.logger
	}

	mutex.Lock()
	defer mutex.Unlock()
	if m, ok := modules[name]; ok {
		return m.logger
	}

	level := &slog.LevelVar{} // info until Initialize
	format := "text"
	if initialized {
		level.Set(moduleLevel(active, name))
		format = active.Format
	}

	out := newSwapHandler(createHandler(format, level))
	m = &module{
		logger: slog.New(out).With("module", name),
		level:  level,
		out:    out,
	}
	modules[name] = m
	return m.logger
}

func globalLevel(config Config) slog.Level {
	if l := parseLevel(config.Level); l != nil {
		return *l
	}
	return slog.LevelInfo
}

// moduleLevel is the module override when it parses, else the global level.
func moduleLevel(config Config, name string) slog.Level {
	if l := parseLevel(config.Modules[name]); l != nil {
		return *l
	}
	return globalLevel(config)
}

// createHandler writes to stdout when something is attached to it and to
// the journal when journald is running.
func createHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var stdout slog.Handler
	if format == "json" {
		stdout = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		stdout = slog.NewTextHandler(os.Stdout, opts)
	}

	var handlers []slog.Handler
	if isStdoutAvailable() {
		handlers = append(handlers, stdout)
	}
	if IsJournalAvailable() {
		handlers = append(handlers, NewJournalHandler(level))
	}

	switch len(handlers) {
	case 0:
		return stdout
	case 1:
		return handlers[0]
	default:
		return NewMultiHandler(handlers...)
	}
}

// isStdoutAvailable is false when stdout is closed or /dev/null.
func isStdoutAvailable() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return (mode&os.ModeCharDevice) != 0 || (mode&os.ModeNamedPipe) != 0 || (mode&os.ModeSocket) != 0 || mode.IsRegular()
}

// parseLevel returns nil for anything it does not recognize.
func parseLevel(level string) *slog.Level {
	var l slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		return nil
	}
	return &l
}
