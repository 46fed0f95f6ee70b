package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/apkbuilder/internal/shell"
)

// Paths handed to the tools are relative to the project directory, which is
// the working directory of every tool invocation.
const (
	relManifest = "AndroidManifest.xml"
	relRes      = "res"
	relSrc      = "src"
	relObj      = "./obj"
	relBin      = "./bin"
)

func stageResources(ctx context.Context, bs *BuildState) error {
	cmd := shell.Command(bs.Tools.AAPT,
		"package", "-v", "-f", "-m",
		"-S", relRes,
		"-J", relSrc,
		"-M", relManifest,
		"-I", bs.Tools.AndroidJar,
	)
	return runTool(ctx, bs, StageResources, cmd)
}

func stageCompile(ctx context.Context, bs *BuildState) error {
	rJava, err := bs.Layout.Rel(bs.Layout.RJava())
	if err != nil {
		return err
	}
	cmd := shell.Command(bs.Tools.Javac,
		"-d", relObj,
		"-classpath", bs.Tools.AndroidJar,
		"-sourcepath", relSrc,
		"-source", bs.JavaRelease,
		"-target", bs.JavaRelease,
		rJava,
	)
	return runTool(ctx, bs, StageCompile, cmd)
}

func stageDex(ctx context.Context, bs *BuildState) error {
	classes := findFiles(bs.Layout.ObjDir, ".class")
	if len(classes) == 0 {
		// d8 needs at least one input.
		return &ArtifactError{Artifact: "class files", Path: filepath.Join(bs.Layout.ObjDir, "**", "*.class"), Stage: StageDex, Role: RoleRequires}
	}
	cmd := shell.Command(bs.Tools.D8).
		With(classes...).
		With("--release", "--min-api", fmt.Sprint(bs.MinSDK), "--output", relBin)
	return runTool(ctx, bs, StageDex, cmd)
}

func stagePackage(ctx context.Context, bs *BuildState) error {
	l := bs.Layout
	pkg := shell.Command(bs.Tools.AAPT,
		"package", "-v", "-f",
		"-S", relRes,
		"-M", relManifest,
		"-I", bs.Tools.AndroidJar,
		"-F", l.Unaligned,
		"bin",
	)
	pkgErr := runTool(ctx, bs, StagePackage, pkg)
	if pkgErr != nil && (!bs.permissive() || !downgradable(pkgErr)) {
		return pkgErr
	}
	// Permissive mode still adds the library, possibly to a package left
	// by an earlier run.
	add := shell.Command(bs.Tools.AAPT, "add", "-v", l.Unaligned, l.LibEntry())
	return errors.Join(pkgErr, runTool(ctx, bs, StagePackage, add))
}

func stageAlign(ctx context.Context, bs *BuildState) error {
	l := bs.Layout
	return runTool(ctx, bs, StageAlign, shell.Command(bs.Tools.Zipalign, "-f", "4", l.Unaligned, l.Aligned))
}
