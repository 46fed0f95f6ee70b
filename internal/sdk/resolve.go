// Package sdk locates the Android SDK and the build tools a package build needs.
package sdk

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
)

// Environment variables consulted for the SDK root, in order.
var rootEnvVars = []string{"APKBUILDER_SDK", "ANDROID_HOME"}

// Options selects the SDK installation to use.
type Options struct {
	// Root is the SDK root. Empty means DefaultRoot().
	Root string
	// BuildTools is the version directory under build-tools/.
	BuildTools string
	// Platform is the target API level whose android.jar is used.
	Platform int
	// GOOS selects executable suffixes; empty means runtime.GOOS.
	GOOS string
}

// Toolchain holds the absolute paths of every tool the pipeline runs.
type Toolchain struct {
	Root          string
	BuildToolsDir string
	AndroidJar    string

	AAPT      string
	D8        string
	Zipalign  string
	APKSigner string

	// Javac and Keytool come from the JDK rather than the SDK. When they
	// cannot be located they hold the bare command name.
	Javac   string
	Keytool string
}

// Tool describes one entry of a resolved toolchain.
type Tool struct {
	Name  string
	Path  string
	Found bool
}

type sdkTool struct {
	name   string
	winExt string
	assign func(*Toolchain, string)
}

var buildTools = []sdkTool{
	{"aapt", ".exe", func(t *Toolchain, p string) { t.AAPT = p }},
	{"d8", ".bat", func(t *Toolchain, p string) { t.D8 = p }},
	{"zipalign", ".exe", func(t *Toolchain, p string) { t.Zipalign = p }},
	{"apksigner", ".bat", func(t *Toolchain, p string) { t.APKSigner = p }},
}

// Resolve checks the SDK root and the build tools and returns their paths.
// It only reads the filesystem. android.jar is not checked here; a missing
// platform surfaces when aapt runs.
func Resolve(opts Options) (*Toolchain, error) {
	root := opts.Root
	if root == "" {
		root = DefaultRoot()
	}
	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		return nil, sdkNotFound(root)
	}

	tc := &Toolchain{
		Root:          root,
		BuildToolsDir: filepath.Join(root, "build-tools", opts.BuildTools),
		AndroidJar:    filepath.Join(root, "platforms", "android-"+strconv.Itoa(opts.Platform), "android.jar"),
	}
	for _, bt := range buildTools {
		name := bt.name
		if goos == "windows" {
			name += bt.winExt
		}
		p := filepath.Join(tc.BuildToolsDir, name)
		if fi, err := os.Stat(p); err != nil || fi.IsDir() {
			return nil, missingTool(bt.name, p)
		}
		bt.assign(tc, p)
	}

	exe := ""
	if goos == "windows" {
		exe = ".exe"
	}
	tc.Javac = findJavaTool("javac", exe, "bin")
	tc.Keytool = findJavaTool("keytool", exe, "bin", filepath.Join("jre", "bin"))
	return tc, nil
}

// RootFromEnv returns the first SDK root set in the environment, or "".
func RootFromEnv() string {
	for _, name := range rootEnvVars {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// SelectRoot applies the root precedence: flag, environment, config file,
// then the default next to the executable.
func SelectRoot(flag, configured string) string {
	switch {
	case flag != "":
		return flag
	case RootFromEnv() != "":
		return RootFromEnv()
	case configured != "":
		return configured
	default:
		return DefaultRoot()
	}
}

// DefaultRoot is fips-sdks/android two directories above the executable.
func DefaultRoot() string {
	exe, err := os.Executable()
	if err != nil {
		return filepath.Join("..", "fips-sdks", "android")
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), "..", "..", "fips-sdks", "android")
}

// findJavaTool looks name up on PATH and then under $JAVA_HOME. It returns
// the bare name when nothing is found so the failure shows up when the
// tool actually runs.
func findJavaTool(name, exe string, homeDirs ...string) string {
	if p, err := exec.LookPath(name); err == nil {
		return p
	}
	if javaHome := os.Getenv("JAVA_HOME"); javaHome != "" {
		for _, dir := range homeDirs {
			p := filepath.Join(javaHome, dir, name+exe)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return name
}

// Tools lists the resolved toolchain for display.
func (t *Toolchain) Tools() []Tool {
	tools := []Tool{
		{Name: "aapt", Path: t.AAPT, Found: true},
		{Name: "d8", Path: t.D8, Found: true},
		{Name: "zipalign", Path: t.Zipalign, Found: true},
		{Name: "apksigner", Path: t.APKSigner, Found: true},
		{Name: "javac", Path: t.Javac, Found: filepath.IsAbs(t.Javac)},
		{Name: "keytool", Path: t.Keytool, Found: filepath.IsAbs(t.Keytool)},
	}
	_, err := os.Stat(t.AndroidJar)
	tools = append(tools, Tool{Name: "android.jar", Path: t.AndroidJar, Found: err == nil})
	return tools
}

func (t *Toolchain) String() string {
	return fmt.Sprintf("sdk %s (build-tools %s)", t.Root, filepath.Base(t.BuildToolsDir))
}
