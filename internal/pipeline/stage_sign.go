package pipeline

import (
	"context"

	"git.home.luguber.info/inful/apkbuilder/internal/signing"
)

func stageKeystore(ctx context.Context, bs *BuildState) error {
	ks := bs.Layout.Keystore
	created, err := signing.EnsureKeystore(ctx, ks, func(ctx context.Context) error {
		return runTool(ctx, bs, StageKeystore, bs.Signer.GenerateCmd(ks))
	})
	if created {
		bs.KeystoreCreated = true
		bs.Report.KeystoreCreated = true
	}
	return err
}

func stageSign(ctx context.Context, bs *BuildState) error {
	l := bs.Layout
	return runTool(ctx, bs, StageSign, bs.Signer.SignCmd(l.Keystore, l.Aligned))
}

func stageVerify(ctx context.Context, bs *BuildState) error {
	return runTool(ctx, bs, StageVerify, bs.Signer.VerifyCmd(bs.Layout.Aligned))
}
