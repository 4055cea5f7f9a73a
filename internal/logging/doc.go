// Package logging hands out one slog logger per ledstack component
// (sequence, button, led, gpio, metrics, main) and routes them to stdout
// and the systemd journal.
//
// Loggers can be fetched at any time, including from package-level vars
// before Initialize runs. They keep their identity for the life of the
// process: Initialize, whether at startup or after the [logging] section
// of config.toml changed on disk, retunes each module's LevelVar and swaps
// its output in place.
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"sequence": "debug",
//			"gpio":     "warn",
//		},
//	})
//
//	logger := logging.GetLogger("button")
//	logger.Debug("Press debounced", "pin", pin)
//
// A module without an override, or with one that does not parse, logs at
// the global level. Unknown global levels mean info.
//
// # Journal
//
// When journald is running every record is also sent to the journal under
// the identifier ledstack. Attributes become upper-case fields, so the
// module attribute is MODULE. Each entry also carries MODE, the sequence
// running when it was logged, as last reported through SetMode:
//
//	journalctl -t ledstack MODULE=gpio -p warning
//	journalctl -t ledstack MODE=stack-right --since "10m"
//
// Stdout gets text or json per Config.Format when a terminal, pipe or file
// is attached; /dev/null is skipped.
package logging
