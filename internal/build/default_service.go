package build

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/apkbuilder/internal/config"
	apkerrors "git.home.luguber.info/inful/apkbuilder/internal/errors"
	"git.home.luguber.info/inful/apkbuilder/internal/filelock"
	"git.home.luguber.info/inful/apkbuilder/internal/logfields"
	"git.home.luguber.info/inful/apkbuilder/internal/manifest"
	"git.home.luguber.info/inful/apkbuilder/internal/metrics"
	"git.home.luguber.info/inful/apkbuilder/internal/observability"
	"git.home.luguber.info/inful/apkbuilder/internal/pipeline"
	"git.home.luguber.info/inful/apkbuilder/internal/project"
	"git.home.luguber.info/inful/apkbuilder/internal/sdk"
	"git.home.luguber.info/inful/apkbuilder/internal/shell"
	"git.home.luguber.info/inful/apkbuilder/internal/signing"
)

// DefaultService is the standard implementation of Service.
type DefaultService struct {
	runner    shell.Runner
	recorder  metrics.Recorder
	inspector pipeline.Inspector
	observer  pipeline.BuildObserver
}

// NewService creates a DefaultService that runs the real SDK tools.
func NewService() *DefaultService {
	return &DefaultService{}
}

// WithRunner replaces the process runner (for testing).
func (s *DefaultService) WithRunner(r shell.Runner) *DefaultService {
	s.runner = r
	return s
}

// WithRecorder sets the metrics recorder shared by every run.
func (s *DefaultService) WithRecorder(r metrics.Recorder) *DefaultService {
	s.recorder = r
	return s
}

// WithInspector replaces the package inspector of the validate stage.
func (s *DefaultService) WithInspector(i pipeline.Inspector) *DefaultService {
	s.inspector = i
	return s
}

// WithObserver adds an observer notified alongside the metrics recorder.
func (s *DefaultService) WithObserver(o pipeline.BuildObserver) *DefaultService {
	s.observer = o
	return s
}

// Run executes one complete build.
func (s *DefaultService) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	buildID := uuid.NewString()
	result := &Result{Status: StatusFailed, BuildID: buildID, StartTime: start}
	done := func(err error) (*Result, error) {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(start)
		return result, err
	}

	cfg := req.Config
	if cfg == nil {
		return done(apkerrors.InternalError("build request without configuration", nil))
	}
	if err := config.ValidateProject(cfg.Project); err != nil {
		return done(err)
	}
	cfg, err := config.AbsPaths(cfg)
	if err != nil {
		return done(apkerrors.FileSystemError("resolve paths", err))
	}
	p := cfg.Project

	ctx = observability.WithBuildID(ctx, buildID)
	ctx = observability.WithTarget(ctx, p.Name)

	// Pre-flight: nothing is written before the SDK resolves.
	tools, err := sdk.Resolve(sdk.Options{Root: cfg.SDK.Root, BuildTools: cfg.SDK.BuildTools, Platform: p.Version})
	if err != nil {
		return done(err)
	}
	result.Toolchain = tools
	observability.DebugContext(ctx, "SDK resolved", slog.String("root", tools.Root), slog.String("build_tools", tools.BuildToolsDir))

	l := project.NewLayout(p.Path, p.Name, p.Package, p.ABI)
	if cfg.Signing.Keystore != "" {
		l.Keystore = cfg.Signing.Keystore
	}

	lock, err := filelock.Acquire(ctx, l.Lock)
	if err != nil {
		if ctx.Err() != nil {
			result.Status = StatusCanceled
			return done(apkerrors.Canceled(ctx.Err()))
		}
		return done(apkerrors.FileSystemError("lock project", err).WithContext("path", l.Lock))
	}
	defer func() {
		if rerr := lock.Release(); rerr != nil {
			observability.WarnContext(ctx, "Failed to release project lock", logfields.Path(l.Lock), logfields.Error(rerr))
		}
	}()

	observability.InfoContext(ctx, "Building package",
		logfields.Package(l.PackageID),
		logfields.ABI(l.ABI),
		logfields.Mode(string(cfg.Build.Mode)),
		logfields.Dir(l.ProjectDir))

	scaffolder := project.NewScaffolder(project.Options{ResTemplate: p.ResTemplate, Icon: p.Icon})
	sres, err := scaffolder.Scaffold(ctx, l)
	if err != nil {
		return done(err)
	}
	observability.DebugContext(ctx, "Project scaffolded",
		slog.Bool("resources_copied", sres.ResourcesCopied),
		slog.Int64("library_bytes", sres.LibraryBytes))

	if err := manifest.WriteFile(l.Manifest, manifestData(cfg, l, scaffolder.HasIcon())); err != nil {
		return done(apkerrors.FileSystemError("write manifest", err).WithContext("path", l.Manifest))
	}

	bs := s.buildState(cfg, l, tools, buildID)
	perr := pipeline.Execute(ctx, bs)

	result.Report = bs.Report
	result.Status = statusFromOutcome(bs.Report.Outcome)
	result.Artifact = l.Aligned
	result.Deployed = bs.Deployed
	result.KeystoreCreated = bs.KeystoreCreated

	s.writeOutputs(ctx, cfg, bs)

	observability.InfoContext(ctx, "Build complete",
		slog.String("outcome", string(bs.Report.Outcome)),
		logfields.Duration(time.Since(start)),
		logfields.Path(bs.Deployed))
	return done(classify(perr))
}

func (s *DefaultService) buildState(cfg *config.Config, l project.Layout, tools *sdk.Toolchain, buildID string) *pipeline.BuildState {
	runner := s.runner
	if runner == nil {
		runner = shell.NewLocalRunner(cfg.Build.ToolTimeout)
	}
	recorder := s.recorder
	if recorder == nil {
		if cfg.Build.MetricsFile != "" {
			recorder = metrics.NewPrometheusRecorder(nil)
		} else {
			recorder = metrics.NoopRecorder{}
		}
	}

	bs := pipeline.NewBuildState(l, tools, runner, cfg.Build.Mode)
	bs.MinSDK = cfg.Manifest.MinSDK
	bs.JavaRelease = cfg.Build.JavaRelease
	bs.Signer.Identity = signing.IdentityFromConfig(cfg.Signing)
	bs.DeployDir = cfg.Project.Deploy
	bs.Validate = cfg.Build.ValidateEnabled()
	if s.inspector != nil {
		bs.Inspector = s.inspector
	}
	bs.Recorder = recorder
	observers := pipeline.MultiObserver{pipeline.RecorderObserver{Recorder: recorder}}
	if s.observer != nil {
		observers = append(observers, s.observer)
	}
	bs.Observer = observers
	bs.Report.BuildID = buildID
	return bs
}

// writeOutputs persists the metrics textfile and the report. Failures are
// logged and never change the build result.
func (s *DefaultService) writeOutputs(ctx context.Context, cfg *config.Config, bs *pipeline.BuildState) {
	if path := cfg.Build.MetricsFile; path != "" {
		if prom, ok := bs.Recorder.(*metrics.PrometheusRecorder); ok {
			if err := metrics.WriteTextfile(path, prom.Registry()); err != nil {
				observability.WarnContext(ctx, "Failed to write metrics file", logfields.Path(path), logfields.Error(err))
			}
		} else {
			observability.WarnContext(ctx, "Metrics file requested but recorder is not prometheus", logfields.Path(path))
		}
	}
	if path := cfg.Build.ReportFile; path != "" {
		if err := bs.Report.WriteYAML(path); err != nil {
			observability.WarnContext(ctx, "Failed to write build report", logfields.Path(path), logfields.Error(err))
		}
	}
}

func manifestData(cfg *config.Config, l project.Layout, icon bool) manifest.Data {
	d := manifest.Data{
		PackageID:   l.PackageID,
		Label:       cfg.Project.Label,
		LibName:     l.Name,
		MinSDK:      cfg.Manifest.MinSDK,
		TargetSDK:   cfg.Project.Version,
		VersionCode: cfg.Manifest.VersionCode,
		VersionName: cfg.Manifest.VersionName,
		Permissions: cfg.Manifest.Permissions,
		GLESVersion: cfg.Manifest.GLESVersion,
	}
	if icon {
		d.Icon = project.IconResource
	}
	return d
}
