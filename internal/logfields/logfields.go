package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID       = "run_id"
	KeyStage       = "stage"
	KeyTool        = "tool"
	KeyExitCode    = "exit_code"
	KeyPath        = "path"
	KeyEvent       = "event"
	KeyTarget      = "target"
	KeyAction      = "action"
	KeyEnvironment = "environment"
	KeyVersion     = "version"
	KeySource      = "source"
	KeyDurationMS  = "duration_ms"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr         { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr       { return slog.String(KeyStage, name) }
func Tool(name string) slog.Attr        { return slog.String(KeyTool, name) }
func ExitCode(code int) slog.Attr       { return slog.Int(KeyExitCode, code) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func Event(e string) slog.Attr          { return slog.String(KeyEvent, e) }
func Target(t string) slog.Attr         { return slog.String(KeyTarget, t) }
func Action(name string) slog.Attr      { return slog.String(KeyAction, name) }
func Environment(env string) slog.Attr  { return slog.String(KeyEnvironment, env) }
func Version(v string) slog.Attr        { return slog.String(KeyVersion, v) }
func Source(s string) slog.Attr         { return slog.String(KeySource, s) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
