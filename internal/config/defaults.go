package config

import "time"

// Defaults used when neither the config file nor the command line set a value.
const (
	DefaultBuildTools  = "35.0.0"
	DefaultABI         = "armeabi-v7a"
	DefaultVersion     = 28
	DefaultMinSDK      = 21
	DefaultVersionCode = 1
	DefaultVersionName = "1.0"
	DefaultGLESVersion = "0x00030000"
	DefaultJavaRelease = "17"
	DefaultDebounce    = 500 * time.Millisecond

	DefaultKeyAlias  = "androiddebugkey"
	DefaultStorePass = "android"
	DefaultKeyPass   = "android"
	DefaultKeyAlg    = "RSA"
	DefaultValidity  = 10000
	DefaultDName     = "CN=,OU=,O=,L=,S=,C="
)

// DefaultPermissions is the permission list of a freshly generated manifest.
var DefaultPermissions = []string{"android.permission.INTERNET"}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every unset field with its default value.
func ApplyDefaults(cfg *Config) {
	if cfg.SDK.BuildTools == "" {
		cfg.SDK.BuildTools = DefaultBuildTools
	}

	if cfg.Project.ABI == "" {
		cfg.Project.ABI = DefaultABI
	}
	if cfg.Project.Version == 0 {
		cfg.Project.Version = DefaultVersion
	}

	m := &cfg.Manifest
	if m.MinSDK == 0 {
		m.MinSDK = DefaultMinSDK
	}
	if m.VersionCode == 0 {
		m.VersionCode = DefaultVersionCode
	}
	if m.VersionName == "" {
		m.VersionName = DefaultVersionName
	}
	if m.Permissions == nil {
		m.Permissions = append([]string(nil), DefaultPermissions...)
	}
	if m.GLESVersion == "" {
		m.GLESVersion = DefaultGLESVersion
	}

	if cfg.Build.Mode == "" {
		cfg.Build.Mode = ExecModeStrict
	}
	if cfg.Build.JavaRelease == "" {
		cfg.Build.JavaRelease = DefaultJavaRelease
	}

	s := &cfg.Signing
	if s.Alias == "" {
		s.Alias = DefaultKeyAlias
	}
	if s.StorePass == "" {
		s.StorePass = DefaultStorePass
	}
	if s.KeyPass == "" {
		s.KeyPass = DefaultKeyPass
	}
	if s.KeyAlg == "" {
		s.KeyAlg = DefaultKeyAlg
	}
	if s.Validity == 0 {
		s.Validity = DefaultValidity
	}
	if s.DName == "" {
		s.DName = DefaultDName
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultDebounce
	}
}
