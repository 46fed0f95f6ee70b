package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/apkbuilder/internal/deploy"
	"git.home.luguber.info/inful/apkbuilder/internal/logfields"
	"git.home.luguber.info/inful/apkbuilder/internal/observability"
)

// DefaultStages returns the package build in execution order.
func DefaultStages(bs *BuildState) []StageDef {
	l := bs.Layout
	manifest := fileArtifact("manifest", l.Manifest)
	unaligned := fileArtifact("unaligned package", l.Unaligned)
	aligned := fileArtifact("aligned package", l.Aligned)
	keystore := fileArtifact("keystore", l.Keystore)
	deployed := fileArtifact("deployed package", deploy.Target(bs.DeployDir, l.Name))

	return NewPipeline().
		Add(StageDef{Name: StageResources, Fn: stageResources,
			Requires: []Artifact{manifest, dirArtifact("resources", l.ResDir)},
			Produces: []Artifact{fileArtifact("R.java", l.RJava())}}).
		Add(StageDef{Name: StageCompile, Fn: stageCompile,
			Requires: []Artifact{fileArtifact("R.java", l.RJava())},
			Produces: []Artifact{treeArtifact("class files", l.ObjDir, ".class")}}).
		Add(StageDef{Name: StageDex, Fn: stageDex,
			Requires: []Artifact{treeArtifact("class files", l.ObjDir, ".class")},
			Produces: []Artifact{fileArtifact("classes.dex", filepath.Join(l.BinDir, "classes.dex"))}}).
		Add(StageDef{Name: StagePackage, Fn: stagePackage,
			Requires: []Artifact{manifest, fileArtifact("native library", l.LibDest)},
			Produces: []Artifact{unaligned}}).
		Add(StageDef{Name: StageAlign, Fn: stageAlign,
			Requires: []Artifact{unaligned},
			Produces: []Artifact{aligned}}).
		Add(StageDef{Name: StageKeystore, Fn: stageKeystore,
			Produces: []Artifact{keystore}}).
		Add(StageDef{Name: StageSign, Fn: stageSign,
			Requires: []Artifact{aligned, keystore}}).
		Add(StageDef{Name: StageVerify, Fn: stageVerify,
			Requires: []Artifact{aligned}}).
		Add(StageDef{Name: StageDeploy, Fn: stageDeploy,
			Requires: []Artifact{aligned},
			Produces: []Artifact{deployed}}).
		AddIf(bs.Validate, StageDef{Name: StageValidate, Fn: stageValidate,
			Requires: []Artifact{deployed}}).
		Build()
}

// Execute runs DefaultStages.
func Execute(ctx context.Context, bs *BuildState) error {
	return RunStages(ctx, bs, DefaultStages(bs))
}

// RunStages executes stages in order, checking each stage's artifacts and
// stopping at the first outcome that aborts. The report is finished and the
// observer notified whatever the result.
func RunStages(ctx context.Context, bs *BuildState, stages []StageDef) error {
	defer func() {
		bs.Report.Finish()
		bs.Report.DeriveOutcome()
		bs.Observer.OnBuildComplete(bs.Report)
	}()

	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			out := ClassifyStageResult(st.Name, NewCanceledStageError(st.Name, err), bs.Mode)
			bs.complete(ctx, out, 0)
			return out.Error
		}

		sctx := observability.WithStage(ctx, string(st.Name))
		bs.Observer.OnStageStart(st.Name)
		t0 := time.Now()

		// Missing inputs abort in strict mode. Permissive mode records them
		// and still runs the stage.
		var degraded bool
		if missing := checkArtifacts(st.Name, RoleRequires, st.Requires); len(missing) > 0 {
			out := ClassifyStageResult(st.Name, errors.Join(missing...), bs.Mode)
			if out.Abort {
				bs.complete(sctx, out, time.Since(t0))
				return out.Error
			}
			bs.record(sctx, out)
			degraded = true
		}

		err := st.Fn(sctx, bs)
		if err == nil {
			if missing := checkArtifacts(st.Name, RoleProduces, st.Produces); len(missing) > 0 {
				err = errors.Join(missing...)
			}
		}

		out := ClassifyStageResult(st.Name, err, bs.Mode)
		if out.Error == nil && degraded {
			out.Result = StageResultWarning
		}
		bs.complete(sctx, out, time.Since(t0))

		if out.Abort {
			if out.Error != nil {
				return out.Error
			}
			return fmt.Errorf("stage %s aborted", st.Name)
		}
	}
	return nil
}

// record adds a stage error to the report and logs it.
func (bs *BuildState) record(ctx context.Context, out StageOutcome) {
	if out.Error == nil {
		return
	}
	bs.Report.AddIssue(out.Stage, out.Error.Kind, out.Error)
	if out.Error.Kind == StageErrorWarning {
		observability.WarnContext(ctx, "Stage failed, continuing", logfields.Error(out.Error.Err))
		return
	}
	observability.ErrorContext(ctx, "Stage failed", logfields.Error(out.Error.Err))
}

// complete records the final outcome of a stage.
func (bs *BuildState) complete(ctx context.Context, out StageOutcome, d time.Duration) {
	bs.record(ctx, out)
	bs.Report.RecordStageResult(out.Stage, out.Result, d)
	bs.Observer.OnStageComplete(out.Stage, d, out.Result)
	observability.DebugContext(ctx, "Stage complete",
		slog.String("result", string(out.Result)),
		logfields.Duration(d))
}
