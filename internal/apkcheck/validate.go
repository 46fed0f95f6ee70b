package apkcheck

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalid is matched by every validation failure.
var ErrInvalid = errors.New("package validation failed")

// Expectation lists what a package must contain. Zero fields are not checked.
type Expectation struct {
	PackageID        string
	ABI              string
	LibName          string
	RequireSignature bool
}

// ValidationError carries every mismatch found in one pass.
type ValidationError struct {
	Path     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Validate checks i against want and reports all mismatches together.
func (i *Info) Validate(want Expectation) error {
	var problems []string

	if want.PackageID != "" {
		switch {
		case i.ManifestErr != nil:
			problems = append(problems, fmt.Sprintf("manifest unreadable: %v", i.ManifestErr))
		case i.PackageID != want.PackageID:
			problems = append(problems, fmt.Sprintf("package is %q, want %q", i.PackageID, want.PackageID))
		}
	}

	if want.ABI != "" {
		libs, ok := i.NativeLibs[want.ABI]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("no native libraries for %s (have %v)", want.ABI, i.ABIs()))
		case want.LibName != "" && !slices.Contains(libs, "lib"+want.LibName+".so"):
			problems = append(problems, fmt.Sprintf("lib/%s/lib%s.so missing (have %v)", want.ABI, want.LibName, libs))
		}
	}

	if want.RequireSignature && i.Signature == nil {
		reason := "unsigned"
		if i.SignatureErr != nil {
			reason = i.SignatureErr.Error()
		}
		problems = append(problems, "signature does not verify: "+reason)
	}

	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Path: i.Path, Problems: problems}
}
