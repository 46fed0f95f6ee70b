package pipeline

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/apkbuilder/internal/apkcheck"
	"git.home.luguber.info/inful/apkbuilder/internal/config"
	"git.home.luguber.info/inful/apkbuilder/internal/manifest"
	"git.home.luguber.info/inful/apkbuilder/internal/metrics"
	"git.home.luguber.info/inful/apkbuilder/internal/project"
	"git.home.luguber.info/inful/apkbuilder/internal/sdk"
	"git.home.luguber.info/inful/apkbuilder/internal/shell"
	apktesting "git.home.luguber.info/inful/apkbuilder/internal/testing"
)

// newState scaffolds org.example.app/game in a temp dir against a fake SDK.
func newState(t *testing.T, mode config.ExecMode) (*BuildState, *apktesting.FakeTools) {
	t.Helper()
	base := t.TempDir()
	root := apktesting.FakeSDK(t, config.DefaultBuildTools, 28)
	tools, err := sdk.Resolve(sdk.Options{Root: root, BuildTools: config.DefaultBuildTools, Platform: 28})
	require.NoError(t, err)

	apktesting.NativeLibrary(t, base, "game", "payload")
	l := project.NewLayout(base, "game", "org.example.app", "armeabi-v7a")
	_, err = project.NewScaffolder(project.Options{}).Scaffold(context.Background(), l)
	require.NoError(t, err)
	require.NoError(t, manifest.WriteFile(l.Manifest, manifest.Data{
		PackageID:   l.PackageID,
		LibName:     l.Name,
		MinSDK:      21,
		TargetSDK:   28,
		VersionCode: 1,
		VersionName: "1.0",
	}))

	fake := apktesting.NewFakeTools()
	bs := NewBuildState(l, tools, fake, mode)
	bs.DeployDir = filepath.Join(base, "out")
	bs.Validate = false
	return bs, fake
}

type recordingObserver struct {
	started   []StageName
	completed map[StageName]StageResult
	builds    int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{completed: map[StageName]StageResult{}}
}

func (o *recordingObserver) OnStageStart(s StageName) { o.started = append(o.started, s) }
func (o *recordingObserver) OnStageComplete(s StageName, _ time.Duration, r StageResult) {
	o.completed[s] = r
}
func (o *recordingObserver) OnBuildComplete(*Report) { o.builds++ }

type toolRecorder struct {
	metrics.NoopRecorder
	tools map[string]bool
}

func (r *toolRecorder) ObserveToolDuration(tool string, _ time.Duration, ok bool) { r.tools[tool] = ok }

func TestExecute_FullBuild(t *testing.T) {
	bs, fake := newState(t, config.ExecModeStrict)
	obs := newRecordingObserver()
	bs.Observer = obs

	require.NoError(t, Execute(context.Background(), bs))

	assert.Equal(t, []string{
		apktesting.OpResources,
		apktesting.OpJavac,
		apktesting.OpD8,
		apktesting.OpPackage,
		apktesting.OpAdd,
		apktesting.OpZipalign,
		apktesting.OpKeytool,
		apktesting.OpSign,
		apktesting.OpVerify,
	}, fake.Ops())

	base := bs.Layout.Path
	fa := apktesting.NewFileAssertions(t, base)
	fa.AssertFileExists("game-unaligned.apk").
		AssertFileExists("game.apk").
		AssertFileExists("debug.keystore").
		AssertZipContains("out/game.apk", "AndroidManifest.xml", "classes.dex", "lib/armeabi-v7a/libgame.so", apktesting.SignatureEntry)

	assert.Equal(t, filepath.Join(base, "out", "game.apk"), bs.Deployed)
	assert.True(t, bs.KeystoreCreated)
	assert.Equal(t, OutcomeSuccess, bs.Report.Outcome)
	assert.Len(t, bs.Report.Stages, 9)
	assert.Len(t, obs.started, 9)
	assert.Equal(t, 1, obs.builds)
	for _, s := range obs.completed {
		assert.Equal(t, StageResultSuccess, s)
	}
}

func TestExecute_RecordsToolMetrics(t *testing.T) {
	bs, fake := newState(t, config.ExecModePermissive)
	fake.Fail[apktesting.OpVerify] = 1
	rec := &toolRecorder{tools: map[string]bool{}}
	bs.Recorder = rec

	require.NoError(t, Execute(context.Background(), bs))

	assert.True(t, rec.tools["zipalign"])
	assert.True(t, rec.tools["keytool"])
	assert.False(t, rec.tools["apksigner"])
}

func TestExecute_CommandArgs(t *testing.T) {
	bs, fake := newState(t, config.ExecModeStrict)
	require.NoError(t, Execute(context.Background(), bs))

	l := bs.Layout
	jar := bs.Tools.AndroidJar
	want := map[string][]string{
		apktesting.OpResources: {"package", "-v", "-f", "-m", "-S", "res", "-J", "src", "-M", "AndroidManifest.xml", "-I", jar},
		apktesting.OpJavac:     {"-d", "./obj", "-classpath", jar, "-sourcepath", "src", "-source", "17", "-target", "17", "src/org/example/app/R.java"},
		apktesting.OpD8:        {filepath.Join("obj", "org", "example", "app", "R.class"), "--release", "--min-api", "21", "--output", "./bin"},
		apktesting.OpPackage:   {"package", "-v", "-f", "-S", "res", "-M", "AndroidManifest.xml", "-I", jar, "-F", l.Unaligned, "bin"},
		apktesting.OpAdd:       {"add", "-v", l.Unaligned, "lib/armeabi-v7a/libgame.so"},
		apktesting.OpZipalign:  {"-f", "4", l.Unaligned, l.Aligned},
		apktesting.OpKeytool: {"-genkeypair", "-keystore", l.Keystore, "-storepass", "android", "-alias", "androiddebugkey",
			"-keypass", "android", "-keyalg", "RSA", "-validity", "10000", "-dname", "CN=,OU=,O=,L=,S=,C="},
		apktesting.OpSign: {"sign", "-v", "--ks", l.Keystore, "--ks-pass", "pass:android", "--key-pass", "pass:android",
			"--ks-key-alias", "androiddebugkey", l.Aligned},
		apktesting.OpVerify: {"verify", "-v", l.Aligned},
	}

	for _, cmd := range fake.Calls() {
		op := apktesting.Operation(cmd)
		t.Run(op, func(t *testing.T) {
			assert.Equal(t, want[op], cmd.Args)
			assert.Equal(t, l.ProjectDir, cmd.Dir)
		})
	}
}

func TestExecute_StrictHaltsAtFirstFailure(t *testing.T) {
	bs, fake := newState(t, config.ExecModeStrict)
	fake.Fail[apktesting.OpD8] = 3

	err := Execute(context.Background(), bs)
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageErrorFatal, se.Kind)
	assert.Equal(t, StageDex, se.Stage)
	assert.ErrorIs(t, err, ErrToolFailed)

	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "d8", te.Tool)
	assert.Equal(t, 3, te.ExitCode)
	assert.Contains(t, te.Output, "simulated failure")

	assert.Equal(t, []string{apktesting.OpResources, apktesting.OpJavac, apktesting.OpD8}, fake.Ops())
	assert.NoFileExists(t, bs.Layout.Unaligned)
	assert.Nil(t, bs.Report.Stage(StagePackage))
	assert.Equal(t, StageResultFatal, bs.Report.Stage(StageDex).Result)
	assert.Equal(t, OutcomeFailed, bs.Report.Outcome)

	dex := bs.Report.Stage(StageDex)
	require.Len(t, dex.Tools, 1)
	assert.Equal(t, 3, dex.Tools[0].ExitCode)
	assert.Contains(t, dex.Tools[0].Output, "simulated failure")
}

func TestExecute_PermissiveContinues(t *testing.T) {
	bs, fake := newState(t, config.ExecModePermissive)
	fake.Fail[apktesting.OpD8] = 1

	require.NoError(t, Execute(context.Background(), bs))

	assert.Equal(t, 1, fake.Count(apktesting.OpVerify))
	assert.FileExists(t, filepath.Join(bs.DeployDir, "game.apk"))
	assert.Equal(t, StageResultWarning, bs.Report.Stage(StageDex).Result)
	assert.Equal(t, StageResultSuccess, bs.Report.Stage(StageDeploy).Result)
	assert.Equal(t, OutcomeWarning, bs.Report.Outcome)
	require.NotEmpty(t, bs.Report.Warnings)
	assert.Contains(t, bs.Report.Warnings[0], "d8")
	assert.Empty(t, bs.Report.Errors)
}

func TestExecute_PackageFailureStillAddsLibrary(t *testing.T) {
	first, _ := newState(t, config.ExecModeStrict)
	require.NoError(t, Execute(context.Background(), first))
	l := first.Layout
	require.NoError(t, os.WriteFile(l.LibDest, []byte("\x7fELF rebuilt"), 0o600))

	tests := []struct {
		name    string
		mode    config.ExecMode
		wantAdd int
	}{
		{"strict stops before add", config.ExecModeStrict, 0},
		{"permissive adds to the earlier package", config.ExecModePermissive, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := apktesting.NewFakeTools()
			fake.Fail[apktesting.OpPackage] = 1
			bs := NewBuildState(l, first.Tools, fake, tt.mode)
			bs.DeployDir = first.DeployDir
			bs.Validate = false

			err := Execute(context.Background(), bs)

			assert.Equal(t, tt.wantAdd, fake.Count(apktesting.OpAdd))
			if tt.mode == config.ExecModeStrict {
				require.Error(t, err)
				assert.Equal(t, StageResultFatal, bs.Report.Stage(StagePackage).Result)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StageResultWarning, bs.Report.Stage(StagePackage).Result)
			assert.Equal(t, []byte("\x7fELF rebuilt"), zipEntry(t, bs.Deployed, l.LibEntry()))
		})
	}
}

func zipEntry(t *testing.T, path, name string) []byte {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()
	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		return data
	}
	t.Fatalf("%s has no entry %s", path, name)
	return nil
}

func TestExecute_PermissiveMissingInputs(t *testing.T) {
	bs, fake := newState(t, config.ExecModePermissive)
	fake.Fail[apktesting.OpJavac] = 2

	require.NoError(t, Execute(context.Background(), bs))

	// No class files: the dex stage is reported without running d8.
	assert.Zero(t, fake.Count(apktesting.OpD8))
	assert.Equal(t, StageResultWarning, bs.Report.Stage(StageDex).Result)
	assert.GreaterOrEqual(t, len(bs.Report.Stage(StageDex).Issues), 2)
	assert.Equal(t, 1, fake.Count(apktesting.OpPackage))
}

func TestExecute_MissingProducedArtifact(t *testing.T) {
	bs, fake := newState(t, config.ExecModeStrict)
	fake.Silent[apktesting.OpZipalign] = true

	err := Execute(context.Background(), bs)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArtifactMissing)

	var ae *ArtifactError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, StageAlign, ae.Stage)
	assert.Equal(t, RoleProduces, ae.Role)
	assert.Equal(t, bs.Layout.Aligned, ae.Path)
	assert.Zero(t, fake.Count(apktesting.OpSign))
}

func TestExecute_StrictMissingRequiredArtifact(t *testing.T) {
	bs, fake := newState(t, config.ExecModeStrict)
	require.NoError(t, os.Remove(bs.Layout.LibDest))

	err := Execute(context.Background(), bs)
	require.Error(t, err)

	var ae *ArtifactError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, StagePackage, ae.Stage)
	assert.Equal(t, RoleRequires, ae.Role)
	assert.Zero(t, fake.Count(apktesting.OpPackage))
}

func TestExecute_ExistingKeystoreKept(t *testing.T) {
	bs, fake := newState(t, config.ExecModeStrict)
	require.NoError(t, os.WriteFile(bs.Layout.Keystore, []byte("mine"), 0o600))

	require.NoError(t, Execute(context.Background(), bs))

	assert.Zero(t, fake.Count(apktesting.OpKeytool))
	assert.False(t, bs.KeystoreCreated)
	data, err := os.ReadFile(bs.Layout.Keystore)
	require.NoError(t, err)
	assert.Equal(t, "mine", string(data))
}

func TestExecute_Canceled(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		bs, fake := newState(t, config.ExecModePermissive)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := Execute(ctx, bs)
		var se *StageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, StageErrorCanceled, se.Kind)
		assert.Equal(t, StageResources, se.Stage)
		assert.Empty(t, fake.Ops())
		assert.Equal(t, OutcomeCanceled, bs.Report.Outcome)
	})

	t.Run("between stages", func(t *testing.T) {
		bs, fake := newState(t, config.ExecModeStrict)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		bs.Runner = shell.RunnerFunc(func(ctx context.Context, cmd shell.Cmd) (*shell.Result, error) {
			res, err := fake.Run(ctx, cmd)
			if apktesting.Operation(cmd) == apktesting.OpD8 {
				cancel()
			}
			return res, err
		})

		err := Execute(ctx, bs)
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, StageResultSuccess, bs.Report.Stage(StageDex).Result)
		assert.Equal(t, StageResultCanceled, bs.Report.Stage(StagePackage).Result)
		assert.Zero(t, fake.Count(apktesting.OpPackage))
		assert.Equal(t, OutcomeCanceled, bs.Report.Outcome)
	})
}

func TestExecute_ToolDoesNotStart(t *testing.T) {
	notFound := errors.New(`exec: "aapt": executable file not found in $PATH`)
	runner := shell.RunnerFunc(func(context.Context, shell.Cmd) (*shell.Result, error) {
		return &shell.Result{ExitCode: -1}, notFound
	})

	t.Run("strict", func(t *testing.T) {
		bs, _ := newState(t, config.ExecModeStrict)
		bs.Runner = runner

		err := Execute(context.Background(), bs)
		var te *ToolError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, -1, te.ExitCode)
		assert.ErrorIs(t, err, notFound)
		assert.Equal(t, StageResultFatal, bs.Report.Stage(StageResources).Result)
	})

	t.Run("permissive", func(t *testing.T) {
		bs, _ := newState(t, config.ExecModePermissive)
		bs.Runner = runner

		err := Execute(context.Background(), bs)
		// Deploy has nothing to copy, which is a filesystem error in every mode.
		require.Error(t, err)
		var se *StageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, StageDeploy, se.Stage)
		assert.Equal(t, StageResultWarning, bs.Report.Stage(StageResources).Result)
	})
}

func TestExecute_Validate(t *testing.T) {
	good := func(p string) (*apkcheck.Info, error) {
		return &apkcheck.Info{
			Path:       p,
			PackageID:  "org.example.app",
			NativeLibs: map[string][]string{"armeabi-v7a": {"libgame.so"}},
			Signature:  &apkcheck.Signature{Scheme: 2},
		}, nil
	}
	wrongABI := func(p string) (*apkcheck.Info, error) {
		return &apkcheck.Info{
			Path:       p,
			PackageID:  "org.example.app",
			NativeLibs: map[string][]string{"arm64-v8a": {"libgame.so"}},
			Signature:  &apkcheck.Signature{Scheme: 2},
		}, nil
	}

	tests := []struct {
		name    string
		mode    config.ExecMode
		inspect Inspector
		wantErr bool
		result  StageResult
	}{
		{"valid", config.ExecModeStrict, good, false, StageResultSuccess},
		{"strict mismatch", config.ExecModeStrict, wrongABI, true, StageResultFatal},
		{"permissive mismatch", config.ExecModePermissive, wrongABI, false, StageResultWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bs, _ := newState(t, tt.mode)
			bs.Validate = true
			bs.Inspector = tt.inspect

			err := Execute(context.Background(), bs)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidationFailed)
				assert.ErrorIs(t, err, apkcheck.ErrInvalid)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.result, bs.Report.Stage(StageValidate).Result)
		})
	}
}

func TestReport_WriteYAML(t *testing.T) {
	bs, _ := newState(t, config.ExecModeStrict)
	bs.Report.BuildID = "b-1"
	require.NoError(t, Execute(context.Background(), bs))

	path := filepath.Join(t.TempDir(), "reports", "build.yaml")
	require.NoError(t, bs.Report.WriteYAML(path))
	assert.NoFileExists(t, path+".tmp")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got struct {
		BuildID string `yaml:"build_id"`
		Outcome string `yaml:"outcome"`
		Stages  []struct {
			Name   string `yaml:"name"`
			Result string `yaml:"result"`
			Tools  []struct {
				Tool string `yaml:"tool"`
			} `yaml:"tools"`
		} `yaml:"stages"`
	}
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, "b-1", got.BuildID)
	assert.Equal(t, "success", got.Outcome)
	require.Len(t, got.Stages, 9)
	assert.Equal(t, "package", got.Stages[3].Name)
	require.Len(t, got.Stages[3].Tools, 2)
	assert.Equal(t, "aapt", got.Stages[3].Tools[1].Tool)

	assert.Contains(t, bs.Report.Summary(), "outcome=success")
	assert.Contains(t, bs.Report.Table(), "verify")
}
