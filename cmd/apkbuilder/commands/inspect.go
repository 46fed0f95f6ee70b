package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/apkbuilder/internal/apkcheck"
	apkerrors "git.home.luguber.info/inful/apkbuilder/internal/errors"
)

// InspectCmd implements the 'inspect' command.
type InspectCmd struct {
	APK      string `arg:"" help:"Package to inspect" type:"existingfile"`
	Manifest bool   `help:"Dump the decoded AndroidManifest.xml instead of the summary"`
	Format   string `help:"Summary format (text|yaml)" enum:"text,yaml" default:"text"`

	ExpectPackage string `name:"expect-package" help:"Fail unless the manifest package matches"`
	ExpectABI     string `name:"expect-abi" help:"Fail unless native libraries exist for this ABI"`
	ExpectLib     string `name:"expect-lib" help:"Fail unless lib/<abi>/lib<name>.so exists (needs --expect-abi)"`
	ExpectSigned  bool   `name:"expect-signed" help:"Fail unless the signature verifies"`
}

func (i *InspectCmd) Run(g *Global) error {
	if i.ExpectLib != "" && i.ExpectABI == "" {
		return apkerrors.ValidationFailed("expect-lib", "requires --expect-abi")
	}
	out := g.out()
	if i.Manifest {
		if err := apkcheck.DecodeManifest(i.APK, out); err != nil {
			return apkerrors.Wrap(err, apkerrors.CategoryValidation, apkerrors.SeverityFatal, "cannot decode manifest").
				WithContext("path", i.APK)
		}
		return nil
	}

	info, err := apkcheck.Inspect(i.APK)
	if err != nil {
		return apkerrors.FileSystemError("inspect", err).WithContext("path", i.APK)
	}

	if i.Format == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(info); err != nil {
			return apkerrors.InternalError("encode package info", err)
		}
		if err := enc.Close(); err != nil {
			return apkerrors.InternalError("encode package info", err)
		}
	} else if err := printInfo(out, info); err != nil {
		return err
	}

	want := apkcheck.Expectation{
		PackageID:        i.ExpectPackage,
		ABI:              i.ExpectABI,
		LibName:          i.ExpectLib,
		RequireSignature: i.ExpectSigned,
	}
	if want == (apkcheck.Expectation{}) {
		return nil
	}
	if err := info.Validate(want); err != nil {
		return apkerrors.Wrap(err, apkerrors.CategoryBuild, apkerrors.SeverityFatal, "package does not match expectations").
			WithContext("path", i.APK)
	}
	fmt.Fprintln(out, "expectations met")
	return nil
}

func printInfo(w io.Writer, info *apkcheck.Info) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	row := func(k, format string, args ...any) {
		fmt.Fprintf(tw, "%s\t%s\n", k, fmt.Sprintf(format, args...))
	}

	row("path", "%s", info.Path)
	row("size", "%d bytes", info.Size)
	row("sha256", "%s", info.SHA256)
	if info.ManifestErr != nil {
		row("manifest", "unreadable: %v", info.ManifestErr)
	} else {
		row("package", "%s (versionCode %d, versionName %q)", info.PackageID, info.VersionCode, info.VersionName)
		row("sdk", "min %d, target %d", info.MinSDK, info.TargetSDK)
	}
	for _, abi := range info.ABIs() {
		row("lib/"+abi, "%s", strings.Join(info.NativeLibs[abi], ", "))
	}
	row("classes.dex", "%t", info.HasDex)
	switch {
	case info.Signature != nil:
		row("signature", "v%d %s", info.Signature.Scheme, info.Signature.Subject)
		row("cert sha256", "%s", info.Signature.CertSHA256)
	case info.SignatureErr != nil:
		row("signature", "invalid: %v", info.SignatureErr)
	default:
		row("signature", "none")
	}
	return tw.Flush()
}
