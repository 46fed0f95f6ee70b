package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/apkbuilder/internal/build"
	"git.home.luguber.info/inful/apkbuilder/internal/config"
	apkerrors "git.home.luguber.info/inful/apkbuilder/internal/errors"
	"git.home.luguber.info/inful/apkbuilder/internal/sdk"
)

// DefaultConfigPath is used when --config is not given. It may be absent.
const DefaultConfigPath = "apkbuilder.yaml"

// Global state shared by every command.
type Global struct {
	Context context.Context
	Out     io.Writer
	// Service overrides the build service (for testing).
	Service build.Service
}

func (g *Global) ctx() context.Context {
	if g.Context == nil {
		return context.Background()
	}
	return g.Context
}

func (g *Global) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Global) service() build.Service {
	if g.Service == nil {
		return build.NewService()
	}
	return g.Service
}

// CLI definition & global flags.
type CLI struct {
	Config    string `short:"c" help:"Configuration file path" default:"apkbuilder.yaml" env:"APKBUILDER_CONFIG"`
	Verbose   bool   `short:"v" help:"Enable verbose logging"`
	LogFormat string `name:"log-format" help:"Log format (text|json)"`

	Build   BuildCmd   `cmd:"" default:"withargs" help:"Package lib<name>.so into a signed APK and deploy it"`
	Check   CheckCmd   `cmd:"" help:"Resolve the Android SDK and print the tools that would be used"`
	Inspect InspectCmd `cmd:"" help:"Print package contents, manifest identity and signature"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild whenever the native library changes"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	Version VersionCmd `cmd:"" help:"Show version and exit"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	format, err := config.ParseLogFormat(c.LogFormat)
	if err != nil {
		return apkerrors.ValidationFailed("log-format", err.Error())
	}
	level := config.LogLevelInfo
	if c.Verbose {
		level = config.LogLevelDebug
	}
	slog.SetDefault(NewLogger(os.Stderr, level, format))
	return nil
}

// NewLogger builds the process logger.
func NewLogger(w io.Writer, level config.LogLevel, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slogLevel(level)}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func slogLevel(l config.LogLevel) slog.Level {
	switch l {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadConfig reads the configuration file. The default path may be absent.
// Logging settings from the file apply unless flags already chose them.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOptional(c.Config, c.Config != DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	if !c.Verbose && (cfg.Logging.Level != "" || cfg.Logging.Format != "") {
		format := cfg.Logging.Format
		if c.LogFormat != "" {
			format = config.LogFormat(c.LogFormat)
		}
		slog.SetDefault(NewLogger(os.Stderr, cfg.Logging.Level, format))
	}
	return cfg, nil
}

// SDKFlags select the Android SDK installation.
type SDKFlags struct {
	SDK        string `name:"sdk" help:"Android SDK root (env APKBUILDER_SDK, ANDROID_HOME)" type:"path"`
	BuildTools string `name:"build-tools" help:"Build-tools version directory (default 35.0.0)"`
}

func (f SDKFlags) apply(cfg *config.Config) {
	cfg.SDK.Root = sdk.SelectRoot(f.SDK, cfg.SDK.Root)
	if f.BuildTools != "" {
		cfg.SDK.BuildTools = f.BuildTools
	}
}

// ProjectFlags describe one target. Unset flags keep the configured value.
type ProjectFlags struct {
	SDKFlags `embed:""`

	Path        string `help:"Build output root holding lib<name>.so; receives the package" type:"path"`
	Deploy      string `help:"Destination directory for the finished package" type:"path"`
	Name        string `help:"Target name"`
	ABI         string `name:"abi" help:"ABI tag (default armeabi-v7a)"`
	Version     int    `help:"Target platform API version (default 28)"`
	Package     string `help:"Application package id, e.g. org.example.game"`
	Mode        string `help:"Execution mode (strict|permissive)"`
	Label       string `help:"Display name (default: the target name title-cased, game becomes Game; pass --label=game to keep it as is)"`
	Icon        string `help:"Launcher icon PNG" type:"existingfile"`
	ResTemplate string `name:"res-template" help:"Resource template directory" type:"existingdir"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus textfile metrics here" type:"path"`
	Report      string `help:"Write the build report as YAML here" type:"path"`
	NoValidate  bool   `name:"no-validate" help:"Skip package validation after deploy"`
}

// apply overlays the flags on cfg and validates the result.
func (f ProjectFlags) apply(cfg *config.Config) error {
	f.SDKFlags.apply(cfg)

	p := &cfg.Project
	setString(&p.Path, f.Path)
	setString(&p.Deploy, f.Deploy)
	setString(&p.Name, f.Name)
	setString(&p.ABI, f.ABI)
	setString(&p.Package, f.Package)
	setString(&p.Label, f.Label)
	setString(&p.Icon, f.Icon)
	setString(&p.ResTemplate, f.ResTemplate)
	if f.Version != 0 {
		p.Version = f.Version
	}

	if f.Mode != "" {
		mode, err := config.ParseExecMode(f.Mode)
		if err != nil {
			return apkerrors.ValidationFailed("mode", err.Error())
		}
		cfg.Build.Mode = mode
	}
	setString(&cfg.Build.MetricsFile, f.MetricsFile)
	setString(&cfg.Build.ReportFile, f.Report)
	if f.NoValidate {
		validate := false
		cfg.Build.Validate = &validate
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}
	return config.ValidateProject(cfg.Project)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// ExitCode reports err and returns the process exit code.
func ExitCode(err error, verbose bool) int {
	return apkerrors.NewCLIErrorAdapter(verbose, slog.Default()).Report(err)
}
