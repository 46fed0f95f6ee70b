// Package apkcheck reads a built package back and checks that it has the
// expected shape: native library, manifest identity and a verifiable signature.
package apkcheck

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/avast/apkverifier"
	"github.com/shogo82148/androidbinary/apk"
)

// Info describes a package on disk.
type Info struct {
	Path   string `yaml:"path"`
	Size   int64  `yaml:"size"`
	SHA256 string `yaml:"sha256"`

	Entries    []string            `yaml:"-"`
	NativeLibs map[string][]string `yaml:"native_libs"` // abi -> library file names
	HasDex     bool                `yaml:"has_dex"`

	PackageID   string `yaml:"package,omitempty"`
	VersionCode int32  `yaml:"version_code,omitempty"`
	VersionName string `yaml:"version_name,omitempty"`
	MinSDK      int32  `yaml:"min_sdk,omitempty"`
	TargetSDK   int32  `yaml:"target_sdk,omitempty"`
	ManifestErr error  `yaml:"-"`

	Signature    *Signature `yaml:"signature,omitempty"`
	SignatureErr error      `yaml:"-"`
}

// Signature is the outcome of signature verification.
type Signature struct {
	Scheme     int    `yaml:"scheme"`
	Subject    string `yaml:"subject"`
	CertSHA256 string `yaml:"cert_sha256"`
}

// Inspect opens the package at p. Only an unreadable file or a broken
// archive is an error; manifest and signature problems are recorded on Info.
func Inspect(p string) (*Info, error) {
	fi, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("stat package: %w", err)
	}
	sum, err := hashFile(p)
	if err != nil {
		return nil, fmt.Errorf("hash package: %w", err)
	}

	info := &Info{Path: p, Size: fi.Size(), SHA256: sum, NativeLibs: map[string][]string{}}
	if err := info.readEntries(); err != nil {
		return nil, err
	}
	info.readManifest()
	info.verifySignature()
	return info, nil
}

func (i *Info) readEntries() error {
	r, err := zip.OpenReader(i.Path)
	if err != nil {
		return fmt.Errorf("open package archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		i.Entries = append(i.Entries, f.Name)
		if f.Name == "classes.dex" {
			i.HasDex = true
		}
		// lib/<abi>/<file>.so
		parts := strings.Split(f.Name, "/")
		if len(parts) == 3 && parts[0] == "lib" && path.Ext(parts[2]) == ".so" {
			i.NativeLibs[parts[1]] = append(i.NativeLibs[parts[1]], parts[2])
		}
	}
	for abi := range i.NativeLibs {
		sort.Strings(i.NativeLibs[abi])
	}
	return nil
}

func (i *Info) readManifest() {
	pkg, err := apk.OpenFile(i.Path)
	if err != nil {
		i.ManifestErr = err
		return
	}
	defer pkg.Close()

	m := pkg.Manifest()
	if i.PackageID, err = m.Package.String(); err != nil {
		i.ManifestErr = fmt.Errorf("package attribute: %w", err)
		return
	}
	i.VersionCode = m.VersionCode.MustInt32()
	i.VersionName = m.VersionName.MustString()
	i.MinSDK = m.SDK.Min.MustInt32()
	i.TargetSDK = m.SDK.Target.MustInt32()
}

func (i *Info) verifySignature() {
	res, err := apkverifier.Verify(i.Path, nil)
	if err != nil {
		i.SignatureErr = err
		return
	}
	_, cert := apkverifier.PickBestApkCert(res.SignerCerts)
	if cert == nil {
		i.SignatureErr = fmt.Errorf("no usable signer certificate")
		return
	}
	fp := sha256.Sum256(cert.Raw)
	i.Signature = &Signature{
		Scheme:     res.SigningSchemeId,
		Subject:    cert.Subject.String(),
		CertSHA256: hex.EncodeToString(fp[:]),
	}
}

// ABIs returns the ABIs that carry native libraries, sorted.
func (i *Info) ABIs() []string {
	abis := make([]string, 0, len(i.NativeLibs))
	for abi := range i.NativeLibs {
		abis = append(abis, abi)
	}
	sort.Strings(abis)
	return abis
}

func hashFile(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
