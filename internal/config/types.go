package config

import (
	"time"

	"git.home.luguber.info/inful/apkbuilder/internal/foundation/normalization"
)

// ExecMode controls how the pipeline reacts to a failing stage.
type ExecMode string

const (
	// ExecModeStrict halts the pipeline at the first failing stage.
	ExecModeStrict ExecMode = "strict"
	// ExecModePermissive logs failures as warnings and keeps going.
	ExecModePermissive ExecMode = "permissive"
)

var execModeNormalizer = normalization.NewNormalizer("mode", map[string]ExecMode{
	"strict":     ExecModeStrict,
	"permissive": ExecModePermissive,
}, ExecModeStrict)

// ParseExecMode converts a raw string into an ExecMode. Empty input yields strict.
func ParseExecMode(raw string) (ExecMode, error) {
	return execModeNormalizer.Parse(raw)
}

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevelNormalizer = normalization.NewNormalizer("log level", map[string]LogLevel{
	"debug": LogLevelDebug,
	"info":  LogLevelInfo,
	"warn":  LogLevelWarn,
	"error": LogLevelError,
}, LogLevelInfo)

// ParseLogLevel converts a raw string into a LogLevel. Empty input yields info.
func ParseLogLevel(raw string) (LogLevel, error) {
	return logLevelNormalizer.Parse(raw)
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormatNormalizer = normalization.NewNormalizer("log format", map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
}, LogFormatText)

// ParseLogFormat converts a raw string into a LogFormat. Empty input yields text.
func ParseLogFormat(raw string) (LogFormat, error) {
	return logFormatNormalizer.Parse(raw)
}

// KnownABIs lists the ABI tags current Android releases load from lib/.
// Older or newer tags (armeabi, mips, riscv64) are still accepted.
var KnownABIs = []string{"armeabi-v7a", "arm64-v8a", "x86", "x86_64"}

// Config is the apkbuilder.yaml file. Every field is optional; command line
// flags override whatever is set here.
type Config struct {
	SDK      SDKConfig      `yaml:"sdk"`
	Project  ProjectConfig  `yaml:"project"`
	Manifest ManifestConfig `yaml:"manifest"`
	Build    BuildConfig    `yaml:"build"`
	Signing  SigningConfig  `yaml:"signing"`
	Logging  LoggingConfig  `yaml:"logging"`
	Watch    WatchConfig    `yaml:"watch"`
}

// SDKConfig locates the Android SDK installation.
type SDKConfig struct {
	Root       string `yaml:"root,omitempty"`        // SDK root directory
	BuildTools string `yaml:"build_tools,omitempty"` // build-tools version directory, e.g. 35.0.0
}

// ProjectConfig describes the target being packaged.
type ProjectConfig struct {
	Path        string `yaml:"path,omitempty"`         // build output root holding lib<name>.so
	Deploy      string `yaml:"deploy,omitempty"`       // deployment directory
	Name        string `yaml:"name,omitempty"`         // target name
	Package     string `yaml:"package,omitempty"`      // application package id
	ABI         string `yaml:"abi,omitempty"`          // ABI tag
	Version     int    `yaml:"version,omitempty"`      // target platform API level
	Label       string `yaml:"label,omitempty"`        // display name; Title(name) when empty
	Icon        string `yaml:"icon,omitempty"`         // launcher icon PNG
	ResTemplate string `yaml:"res_template,omitempty"` // resource template dir; embedded when empty
}

// ManifestConfig holds the manifest constants.
type ManifestConfig struct {
	MinSDK      int      `yaml:"min_sdk,omitempty"`
	VersionCode int      `yaml:"version_code,omitempty"`
	VersionName string   `yaml:"version_name,omitempty"`
	Permissions []string `yaml:"permissions,omitempty"`
	GLESVersion string   `yaml:"gles_version,omitempty"`
}

// BuildConfig controls the pipeline.
type BuildConfig struct {
	Mode        ExecMode      `yaml:"mode,omitempty"`
	ToolTimeout time.Duration `yaml:"tool_timeout,omitempty"` // per tool invocation, zero disables
	JavaRelease string        `yaml:"java_release,omitempty"` // javac -source/-target
	Validate    *bool         `yaml:"validate,omitempty"`     // run the validate stage after deploy
	MetricsFile string        `yaml:"metrics_file,omitempty"`
	ReportFile  string        `yaml:"report_file,omitempty"`
}

// ValidateEnabled reports whether the post-deploy validation stage runs.
func (b BuildConfig) ValidateEnabled() bool {
	return b.Validate == nil || *b.Validate
}

// SigningConfig holds the debug signing identity.
type SigningConfig struct {
	Keystore  string `yaml:"keystore,omitempty"` // defaults to <path>/debug.keystore
	Alias     string `yaml:"alias,omitempty"`
	StorePass string `yaml:"store_pass,omitempty"`
	KeyPass   string `yaml:"key_pass,omitempty"`
	KeyAlg    string `yaml:"key_alg,omitempty"`
	Validity  int    `yaml:"validity,omitempty"` // days
	DName     string `yaml:"dname,omitempty"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce,omitempty"`
}
