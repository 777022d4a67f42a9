package avplay

import "github.com/avplay/engine/internal/telemetry"

// pkgLogger is the engine-wide default logger, used by the controller and
// handed down (tagged per component) to every worker it spawns.
var pkgLogger Logger = telemetry.NewDefault()

// Logger is the logging surface the engine depends on. Implement it to
// route engine logs into a GUI shell's own sink.
type Logger interface {
	Printf(format string, v ...any)
}

// SetLogger replaces the package-wide default logger. Call it before
// Open() so that the spawned workers pick up the new logger.
func SetLogger(logger Logger) {
	pkgLogger = logger
}
