package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/apkbuilder/internal/apkcheck"
	"git.home.luguber.info/inful/apkbuilder/internal/deploy"
	apkerrors "git.home.luguber.info/inful/apkbuilder/internal/errors"
	"git.home.luguber.info/inful/apkbuilder/internal/logfields"
	"git.home.luguber.info/inful/apkbuilder/internal/observability"
)

func stageDeploy(ctx context.Context, bs *BuildState) error {
	l := bs.Layout
	dst, err := deploy.Deploy(l.Aligned, bs.DeployDir, l.Name)
	if err != nil {
		return apkerrors.FileSystemError("deploy", err).WithContext("path", deploy.Target(bs.DeployDir, l.Name))
	}
	bs.Deployed = dst
	bs.Report.Deployed = dst
	observability.InfoContext(ctx, "Package deployed", logfields.Path(dst))
	return nil
}

func stageValidate(ctx context.Context, bs *BuildState) error {
	l := bs.Layout
	target := deploy.Target(bs.DeployDir, l.Name)
	info, err := bs.Inspector(target)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	bs.Info = info
	err = info.Validate(apkcheck.Expectation{
		PackageID:        l.PackageID,
		ABI:              l.ABI,
		LibName:          l.Name,
		RequireSignature: true,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	observability.DebugContext(ctx, "Package validated", logfields.Path(target), slog.Any("abis", info.ABIs()))
	return nil
}
