package pipeline

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// ArtifactKind selects how an artifact's presence is checked.
type ArtifactKind int

const (
	// KindFile is a regular file.
	KindFile ArtifactKind = iota
	// KindDir is a directory.
	KindDir
	// KindTree is a directory holding at least one file with the artifact's extension.
	KindTree
)

// Artifact is a named filesystem object exchanged between stages.
type Artifact struct {
	Name string
	Path string
	Kind ArtifactKind
	Ext  string // for KindTree
}

func fileArtifact(name, path string) Artifact { return Artifact{Name: name, Path: path, Kind: KindFile} }
func dirArtifact(name, path string) Artifact  { return Artifact{Name: name, Path: path, Kind: KindDir} }
func treeArtifact(name, path, ext string) Artifact {
	return Artifact{Name: name, Path: path, Kind: KindTree, Ext: ext}
}

// Present reports whether the artifact exists on disk.
func (a Artifact) Present() bool {
	fi, err := os.Stat(a.Path)
	if err != nil {
		return false
	}
	switch a.Kind {
	case KindDir:
		return fi.IsDir()
	case KindTree:
		return fi.IsDir() && len(findFiles(a.Path, a.Ext)) > 0
	default:
		return fi.Mode().IsRegular()
	}
}

// checkArtifacts returns one ArtifactError per missing artifact.
func checkArtifacts(stage StageName, role ArtifactRole, artifacts []Artifact) []error {
	var errs []error
	for _, a := range artifacts {
		if !a.Present() {
			errs = append(errs, &ArtifactError{Artifact: a.Name, Path: a.Path, Stage: stage, Role: role})
		}
	}
	return errs
}

// findFiles lists files below root with extension ext, relative to root's parent
// so they can be passed to a tool running in the project directory.
func findFiles(root, ext string) []string {
	var out []string
	parent := filepath.Dir(root)
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if !d.IsDir() && filepath.Ext(p) == ext {
			if rel, rerr := filepath.Rel(parent, p); rerr == nil {
				out = append(out, rel)
			}
		}
		return nil
	})
	return out
}
