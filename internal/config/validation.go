package config

import (
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	apkerrors "git.home.luguber.info/inful/apkbuilder/internal/errors"
	"git.home.luguber.info/inful/apkbuilder/internal/logfields"
)

var packageSegment = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NormalizePackageID maps a package id onto the form used in the manifest
// and the source tree: dashes become underscores.
func NormalizePackageID(pkg string) string {
	return strings.ReplaceAll(pkg, "-", "_")
}

// ValidatePackageID checks that pkg, after normalization, is a dotted Java
// package name with at least two segments.
func ValidatePackageID(pkg string) error {
	norm := NormalizePackageID(pkg)
	segments := strings.Split(norm, ".")
	if len(segments) < 2 {
		return apkerrors.ValidationFailed("package", fmt.Sprintf("%q needs at least two dot-separated segments", pkg))
	}
	for _, seg := range segments {
		if !packageSegment.MatchString(seg) {
			return apkerrors.ValidationFailed("package", fmt.Sprintf("%q has invalid segment %q", pkg, seg))
		}
	}
	return nil
}

// ValidateABI accepts any instruction-set tag that can name a directory
// under lib/. Tags outside KnownABIs are only warned about.
func ValidateABI(abi string) error {
	if abi == "" {
		return nil
	}
	if strings.TrimSpace(abi) != abi || strings.ContainsAny(abi, `/\ `) || abi == "." || abi == ".." {
		return apkerrors.ValidationFailed("abi", fmt.Sprintf("%q is not a valid directory name under lib/", abi))
	}
	if !slices.Contains(KnownABIs, abi) {
		slog.Warn("ABI tag is not a current Android ABI", logfields.ABI(abi), slog.String("known", strings.Join(KnownABIs, ", ")))
	}
	return nil
}

// Validate checks the fully defaulted configuration. Required project
// fields are checked separately by ValidateProject once CLI overrides are in.
func Validate(cfg *Config) error {
	if _, err := ParseExecMode(string(cfg.Build.Mode)); err != nil {
		return apkerrors.ValidationFailed("build.mode", err.Error())
	}
	if _, err := ParseLogLevel(string(cfg.Logging.Level)); err != nil {
		return apkerrors.ValidationFailed("logging.level", err.Error())
	}
	if _, err := ParseLogFormat(string(cfg.Logging.Format)); err != nil {
		return apkerrors.ValidationFailed("logging.format", err.Error())
	}
	if cfg.Build.ToolTimeout < 0 {
		return apkerrors.ValidationFailed("build.tool_timeout", "must not be negative")
	}
	if cfg.Watch.Debounce < 0 {
		return apkerrors.ValidationFailed("watch.debounce", "must not be negative")
	}
	if cfg.Manifest.MinSDK < 1 {
		return apkerrors.ValidationFailed("manifest.min_sdk", "must be positive")
	}
	if cfg.Manifest.VersionCode < 1 {
		return apkerrors.ValidationFailed("manifest.version_code", "must be positive")
	}
	if cfg.Signing.Validity < 1 {
		return apkerrors.ValidationFailed("signing.validity", "must be positive")
	}
	if err := ValidateABI(cfg.Project.ABI); err != nil {
		return err
	}
	if cfg.Project.Version != 0 && cfg.Project.Version < cfg.Manifest.MinSDK {
		return apkerrors.ValidationFailed("version", fmt.Sprintf("target API %d is below the minimum SDK %d", cfg.Project.Version, cfg.Manifest.MinSDK))
	}
	if cfg.Project.Package != "" {
		if err := ValidatePackageID(cfg.Project.Package); err != nil {
			return err
		}
	}
	return nil
}

// ValidateProject checks the fields a build cannot run without.
func ValidateProject(p ProjectConfig) error {
	required := []struct {
		field string
		value string
	}{
		{"path", p.Path},
		{"deploy", p.Deploy},
		{"name", p.Name},
		{"package", p.Package},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return apkerrors.ValidationFailed(r.field, "must not be empty")
		}
	}
	if strings.ContainsAny(p.Name, `/\`) {
		return apkerrors.ValidationFailed("name", "must not contain path separators")
	}
	return ValidatePackageID(p.Package)
}
