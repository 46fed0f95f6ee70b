package project

import (
	"context"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	apkerrors "git.home.luguber.info/inful/apkbuilder/internal/errors"
	"git.home.luguber.info/inful/apkbuilder/internal/logfields"
)

//go:embed all:template/res
var embeddedTemplate embed.FS

const (
	dirPerm  = 0o750
	filePerm = 0o644
)

// Options tune the scaffolder.
type Options struct {
	// ResTemplate is a directory copied to res/ on first use. Empty selects
	// the embedded template.
	ResTemplate string
	// Icon is a PNG rendered into launcher mipmaps on every run when set.
	Icon string
}

// Result describes what a Scaffold call changed.
type Result struct {
	ResourcesCopied bool
	LibraryBytes    int64
	Icons           []string
}

// Scaffolder creates and refreshes the project directory.
type Scaffolder struct {
	opts Options
}

// NewScaffolder returns a Scaffolder using opts.
func NewScaffolder(opts Options) *Scaffolder {
	return &Scaffolder{opts: opts}
}

// HasIcon reports whether launcher icons are generated.
func (s *Scaffolder) HasIcon() bool {
	return s.opts.Icon != ""
}

// Scaffold creates missing directories, copies the native library over any
// previous copy and seeds res/ from the template if it does not exist yet.
// Libraries of other ABIs are left alone.
func (s *Scaffolder) Scaffold(ctx context.Context, l Layout) (*Result, error) {
	for _, dir := range l.Dirs() {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return nil, apkerrors.FileSystemError("create project directory", err).WithContext("path", dir)
		}
	}

	res := &Result{}
	n, err := copyFile(l.LibSource, l.LibDest)
	if err != nil {
		return nil, apkerrors.FileSystemError("copy native library", err).WithContext("path", l.LibSource)
	}
	res.LibraryBytes = n
	slog.DebugContext(ctx, "Copied native library", logfields.Path(l.LibDest), slog.Int64("bytes", n))

	if _, err := os.Stat(l.ResDir); os.IsNotExist(err) {
		tmpl, err := s.template()
		if err != nil {
			return nil, err
		}
		if err := copyTree(tmpl, l.ResDir); err != nil {
			return nil, apkerrors.FileSystemError("copy resource template", err).WithContext("path", l.ResDir)
		}
		res.ResourcesCopied = true
		slog.DebugContext(ctx, "Copied resource template", logfields.Path(l.ResDir))
	}

	if s.opts.Icon != "" {
		icons, err := RenderIcons(s.opts.Icon, l.ResDir)
		if err != nil {
			return nil, apkerrors.FileSystemError("render launcher icons", err).WithContext("path", s.opts.Icon)
		}
		res.Icons = icons
	}
	return res, nil
}

func (s *Scaffolder) template() (fs.FS, error) {
	if s.opts.ResTemplate == "" {
		sub, err := fs.Sub(embeddedTemplate, "template/res")
		if err != nil {
			return nil, apkerrors.InternalError("embedded resource template", err)
		}
		return sub, nil
	}
	fi, err := os.Stat(s.opts.ResTemplate)
	if err != nil || !fi.IsDir() {
		return nil, apkerrors.ValidationFailed("res-template", fmt.Sprintf("%s is not a directory", s.opts.ResTemplate))
	}
	return os.DirFS(s.opts.ResTemplate), nil
}

func copyTree(src fs.FS, dst string) error {
	return fs.WalkDir(src, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dst, filepath.FromSlash(p))
		if d.IsDir() {
			return os.MkdirAll(target, dirPerm)
		}
		in, err := src.Open(p)
		if err != nil {
			return err
		}
		defer in.Close()
		return writeFrom(in, target)
	})
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()
	if err := writeFrom(in, dst); err != nil {
		return 0, err
	}
	fi, err := os.Stat(dst)
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

func writeFrom(r io.Reader, dst string) (err error) {
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = io.Copy(out, r)
	return err
}
