package config

import (
	"fmt"
	"path/filepath"
)

// AbsPaths returns a copy of cfg with every filesystem path made absolute
// against the working directory. The SDK tools run inside the project
// directory, so a relative path would resolve against the wrong base.
// Empty paths stay empty.
func AbsPaths(cfg *Config) (*Config, error) {
	out := *cfg
	paths := []struct {
		field string
		value *string
	}{
		{"sdk.root", &out.SDK.Root},
		{"project.path", &out.Project.Path},
		{"project.deploy", &out.Project.Deploy},
		{"project.icon", &out.Project.Icon},
		{"project.res_template", &out.Project.ResTemplate},
		{"build.metrics_file", &out.Build.MetricsFile},
		{"build.report_file", &out.Build.ReportFile},
		{"signing.keystore", &out.Signing.Keystore},
	}
	for _, p := range paths {
		if *p.value == "" || filepath.IsAbs(*p.value) {
			continue
		}
		abs, err := filepath.Abs(*p.value)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p.field, err)
		}
		*p.value = abs
	}
	return &out, nil
}
