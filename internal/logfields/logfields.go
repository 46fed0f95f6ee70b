package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyTool       = "tool"
	KeyArgs       = "args"
	KeyExitCode   = "exit_code"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyArtifact   = "artifact"
	KeyTarget     = "target"
	KeyPackage    = "package"
	KeyABI        = "abi"
	KeyMode       = "mode"
	KeyDir        = "dir"
	KeyOutput     = "output"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Tool(name string) slog.Attr      { return slog.String(KeyTool, name) }
func Args(args []string) slog.Attr    { return slog.Any(KeyArgs, args) }
func ExitCode(code int) slog.Attr     { return slog.Int(KeyExitCode, code) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Artifact(name string) slog.Attr  { return slog.String(KeyArtifact, name) }
func Target(name string) slog.Attr    { return slog.String(KeyTarget, name) }
func Package(id string) slog.Attr     { return slog.String(KeyPackage, id) }
func ABI(abi string) slog.Attr        { return slog.String(KeyABI, abi) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func Dir(d string) slog.Attr          { return slog.String(KeyDir, d) }
func Output(s string) slog.Attr       { return slog.String(KeyOutput, s) }

// Duration renders d as fractional milliseconds under KeyDurationMS.
func Duration(d time.Duration) slog.Attr {
	return DurationMS(float64(d.Microseconds()) / 1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
