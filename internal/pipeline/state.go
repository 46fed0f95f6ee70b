package pipeline

import (
	"git.home.luguber.info/inful/apkbuilder/internal/apkcheck"
	"git.home.luguber.info/inful/apkbuilder/internal/config"
	"git.home.luguber.info/inful/apkbuilder/internal/metrics"
	"git.home.luguber.info/inful/apkbuilder/internal/project"
	"git.home.luguber.info/inful/apkbuilder/internal/sdk"
	"git.home.luguber.info/inful/apkbuilder/internal/shell"
	"git.home.luguber.info/inful/apkbuilder/internal/signing"
)

// Inspector opens a built package for the validate stage.
type Inspector func(path string) (*apkcheck.Info, error)

// BuildState carries mutable state and configuration across stages.
type BuildState struct {
	Layout project.Layout
	Tools  *sdk.Toolchain
	Runner shell.Runner
	Mode   config.ExecMode

	MinSDK      int
	JavaRelease string
	Signer      signing.Signer
	DeployDir   string

	Validate  bool
	Inspector Inspector

	Report   *Report
	Observer BuildObserver
	Recorder metrics.Recorder

	// Outputs
	KeystoreCreated bool
	Deployed        string
	Info            *apkcheck.Info
}

// NewBuildState builds a state with no-op observer and recorder and the
// apkcheck inspector.
func NewBuildState(l project.Layout, tools *sdk.Toolchain, runner shell.Runner, mode config.ExecMode) *BuildState {
	return &BuildState{
		Layout:      l,
		Tools:       tools,
		Runner:      runner,
		Mode:        mode,
		MinSDK:      config.DefaultMinSDK,
		JavaRelease: config.DefaultJavaRelease,
		Signer: signing.Signer{
			Keytool:   tools.Keytool,
			APKSigner: tools.APKSigner,
			Identity:  signing.DebugIdentity(),
		},
		Validate:  true,
		Inspector: apkcheck.Inspect,
		Report:    NewReport("", l.Name, l.PackageID, l.ABI, mode),
		Observer:  NoopObserver{},
		Recorder:  metrics.NoopRecorder{},
	}
}

func (bs *BuildState) permissive() bool { return bs.Mode == config.ExecModePermissive }
