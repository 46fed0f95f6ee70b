package testing

import (
	"archive/zip"
	"io"
	"strings"

	"git.home.luguber.info/inful/apkbuilder/internal/apkcheck"
)

// InspectFake reads a package produced by FakeTools. The fake manifest is
// plain text and the signature is SignatureEntry, so apkcheck.Inspect
// cannot read either.
func InspectFake(p string) (*apkcheck.Info, error) {
	r, err := zip.OpenReader(p)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	info := &apkcheck.Info{Path: p, NativeLibs: map[string][]string{}}
	for _, f := range r.File {
		info.Entries = append(info.Entries, f.Name)
		parts := strings.Split(f.Name, "/")
		switch {
		case len(parts) == 3 && parts[0] == "lib":
			info.NativeLibs[parts[1]] = append(info.NativeLibs[parts[1]], parts[2])
		case f.Name == "classes.dex":
			info.HasDex = true
		case f.Name == SignatureEntry:
			info.Signature = &apkcheck.Signature{Scheme: 1, Subject: "CN=fake"}
		case f.Name == "AndroidManifest.xml":
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			data, err := io.ReadAll(rc)
			_ = rc.Close()
			if err != nil {
				return nil, err
			}
			if m := manifestPackage.FindSubmatch(data); m != nil {
				info.PackageID = string(m[1])
			}
		}
	}
	return info, nil
}
