// Package project lays out the Android project directory next to the
// native build output and keeps it populated between builds.
package project

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/apkbuilder/internal/config"
)

// Layout holds every path a package build reads or writes.
type Layout struct {
	Path      string // build output root
	Name      string // target name
	PackageID string // package id with dashes replaced
	ABI       string

	ProjectDir string // <path>/android/<name>
	LibDir     string // <project>/lib/<abi>
	SrcDir     string // <project>/src/<package as path>
	SrcRoot    string // <project>/src
	ObjDir     string
	BinDir     string
	ResDir     string
	Manifest   string

	LibSource string // <path>/lib<name>.so
	LibDest   string // <project>/lib/<abi>/lib<name>.so

	Unaligned string // <path>/<name>-unaligned.apk
	Aligned   string // <path>/<name>.apk
	Keystore  string // <path>/debug.keystore
	Lock      string // <path>/android/<name>.lock
}

// NewLayout computes the project layout. It touches nothing on disk.
func NewLayout(path, name, packageID, abi string) Layout {
	pkg := config.NormalizePackageID(packageID)
	projectDir := filepath.Join(path, "android", name)
	libFile := "lib" + name + ".so"

	return Layout{
		Path:      path,
		Name:      name,
		PackageID: pkg,
		ABI:       abi,

		ProjectDir: projectDir,
		LibDir:     filepath.Join(projectDir, "lib", abi),
		SrcRoot:    filepath.Join(projectDir, "src"),
		SrcDir:     filepath.Join(projectDir, "src", filepath.FromSlash(strings.ReplaceAll(pkg, ".", "/"))),
		ObjDir:     filepath.Join(projectDir, "obj"),
		BinDir:     filepath.Join(projectDir, "bin"),
		ResDir:     filepath.Join(projectDir, "res"),
		Manifest:   filepath.Join(projectDir, "AndroidManifest.xml"),

		LibSource: filepath.Join(path, libFile),
		LibDest:   filepath.Join(projectDir, "lib", abi, libFile),

		Unaligned: filepath.Join(path, name+"-unaligned.apk"),
		Aligned:   filepath.Join(path, name+".apk"),
		Keystore:  filepath.Join(path, "debug.keystore"),
		Lock:      filepath.Join(path, "android", name+".lock"),
	}
}

// LibEntry is the archive path of the native library, relative to the project dir.
func (l Layout) LibEntry() string {
	return "lib/" + l.ABI + "/lib" + l.Name + ".so"
}

// RJava is the resource class aapt generates.
func (l Layout) RJava() string {
	return filepath.Join(l.SrcDir, "R.java")
}

// Rel returns p relative to the project directory, slash separated.
func (l Layout) Rel(p string) (string, error) {
	rel, err := filepath.Rel(l.ProjectDir, p)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// Dirs lists the directories Scaffold creates, parents first.
func (l Layout) Dirs() []string {
	return []string{l.ProjectDir, l.LibDir, l.SrcDir, l.ObjDir, l.BinDir}
}
