package testing

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"git.home.luguber.info/inful/apkbuilder/internal/shell"
)

// Operation names understood by FakeTools for failure injection.
const (
	OpResources = "aapt:resources"
	OpPackage   = "aapt:package"
	OpAdd       = "aapt:add"
	OpJavac     = "javac"
	OpD8        = "d8"
	OpZipalign  = "zipalign"
	OpKeytool   = "keytool"
	OpSign      = "apksigner:sign"
	OpVerify    = "apksigner:verify"
)

// SignatureEntry is the archive entry FakeTools adds when signing.
const SignatureEntry = "META-INF/ANDROIDD.RSA"

var manifestPackage = regexp.MustCompile(`package="([^"]+)"`)

// FakeTools is a shell.Runner that simulates the Android SDK tools by
// producing the files each real tool would produce.
type FakeTools struct {
	mu sync.Mutex

	// Fail maps an operation to the exit code it returns instead of running.
	Fail map[string]int
	// Silent lists operations that exit 0 without producing their output.
	Silent map[string]bool

	calls []shell.Cmd
}

// NewFakeTools returns a FakeTools where every operation succeeds.
func NewFakeTools() *FakeTools {
	return &FakeTools{Fail: map[string]int{}, Silent: map[string]bool{}}
}

// Calls returns the commands run so far.
func (f *FakeTools) Calls() []shell.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// Ops returns the operation name of every command run so far.
func (f *FakeTools) Ops() []string {
	calls := f.Calls()
	ops := make([]string, 0, len(calls))
	for _, c := range calls {
		ops = append(ops, Operation(c))
	}
	return ops
}

// Count returns how often op was run.
func (f *FakeTools) Count(op string) int {
	n := 0
	for _, o := range f.Ops() {
		if o == op {
			n++
		}
	}
	return n
}

// Operation classifies a command by tool and sub-command.
func Operation(cmd shell.Cmd) string {
	tool := strings.TrimSuffix(strings.TrimSuffix(filepath.Base(cmd.Name), ".exe"), ".bat")
	switch tool {
	case "aapt":
		if len(cmd.Args) > 0 && cmd.Args[0] == "add" {
			return OpAdd
		}
		if slices.Contains(cmd.Args, "-J") {
			return OpResources
		}
		return OpPackage
	case "apksigner":
		if len(cmd.Args) > 0 && cmd.Args[0] == "verify" {
			return OpVerify
		}
		return OpSign
	}
	return tool
}

func (f *FakeTools) Run(ctx context.Context, cmd shell.Cmd) (*shell.Result, error) {
	if err := ctx.Err(); err != nil {
		return &shell.Result{ExitCode: -1}, err
	}

	op := Operation(cmd)
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	code, fail := f.Fail[op]
	silent := f.Silent[op]
	f.mu.Unlock()

	if fail {
		return &shell.Result{ExitCode: code, Stderr: []byte(op + ": simulated failure\n")}, nil
	}
	if silent {
		return &shell.Result{Stdout: []byte(op + ": nothing to do\n")}, nil
	}

	if err := f.simulate(op, cmd); err != nil {
		return &shell.Result{ExitCode: 1, Stderr: []byte(err.Error() + "\n")}, nil
	}
	return &shell.Result{Stdout: []byte(op + ": ok\n")}, nil
}

func (f *FakeTools) simulate(op string, cmd shell.Cmd) error {
	abs := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(cmd.Dir, p)
	}
	args := cmd.Args

	switch op {
	case OpResources:
		manifest, err := os.ReadFile(abs(flagValue(args, "-M")))
		if err != nil {
			return err
		}
		m := manifestPackage.FindSubmatch(manifest)
		if m == nil {
			return fmt.Errorf("manifest has no package attribute")
		}
		dir := filepath.Join(abs(flagValue(args, "-J")), filepath.FromSlash(strings.ReplaceAll(string(m[1]), ".", "/")))
		if err := os.MkdirAll(dir, testDirPermissions); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dir, "R.java"), []byte("package "+string(m[1])+";\npublic final class R {}\n"), testFilePermissions)

	case OpJavac:
		src := abs(args[len(args)-1])
		srcRoot := abs(flagValue(args, "-sourcepath"))
		rel, err := filepath.Rel(srcRoot, src)
		if err != nil {
			return err
		}
		out := filepath.Join(abs(flagValue(args, "-d")), strings.TrimSuffix(rel, ".java")+".class")
		if err := os.MkdirAll(filepath.Dir(out), testDirPermissions); err != nil {
			return err
		}
		return os.WriteFile(out, []byte("\xca\xfe\xba\xbe"), testFilePermissions)

	case OpD8:
		out := abs(flagValue(args, "--output"))
		if err := os.MkdirAll(out, testDirPermissions); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(out, "classes.dex"), []byte("dex\n035\x00"), testFilePermissions)

	case OpPackage:
		manifest, err := os.ReadFile(abs(flagValue(args, "-M")))
		if err != nil {
			return err
		}
		entries := map[string][]byte{"AndroidManifest.xml": manifest, "resources.arsc": []byte("arsc")}
		binDir := abs(args[len(args)-1])
		if dex, err := os.ReadFile(filepath.Join(binDir, "classes.dex")); err == nil {
			entries["classes.dex"] = dex
		}
		return writeZip(abs(flagValue(args, "-F")), entries)

	case OpAdd:
		apk := abs(args[2])
		entries := map[string][]byte{}
		for _, name := range args[3:] {
			data, err := os.ReadFile(abs(name))
			if err != nil {
				return err
			}
			entries[filepath.ToSlash(name)] = data
		}
		return appendZip(apk, entries)

	case OpZipalign:
		data, err := os.ReadFile(abs(args[len(args)-2]))
		if err != nil {
			return err
		}
		return os.WriteFile(abs(args[len(args)-1]), data, testFilePermissions)

	case OpKeytool:
		return os.WriteFile(abs(flagValue(args, "-keystore")), []byte("fake keystore "+flagValue(args, "-alias")), testFilePermissions)

	case OpSign:
		if _, err := os.Stat(abs(flagValue(args, "--ks"))); err != nil {
			return fmt.Errorf("keystore: %w", err)
		}
		return appendZip(abs(args[len(args)-1]), map[string][]byte{SignatureEntry: []byte("sig")})

	case OpVerify:
		names, err := zipNames(abs(args[len(args)-1]))
		if err != nil {
			return err
		}
		if !slices.Contains(names, SignatureEntry) {
			return fmt.Errorf("DOES NOT VERIFY: no signature")
		}
		return nil
	}
	return fmt.Errorf("unknown tool %s", cmd.Name)
}

func flagValue(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func zipNames(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names, nil
}

// appendZip rewrites path with extra entries added after the existing ones.
func appendZip(path string, entries map[string][]byte) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	data, err := buildZip(r.File, entries)
	_ = r.Close()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, testFilePermissions)
}

func writeZip(path string, entries map[string][]byte) error {
	data, err := buildZip(nil, entries)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, testFilePermissions)
}

func buildZip(existing []*zip.File, entries map[string][]byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, f := range existing {
		if _, replaced := entries[f.Name]; replaced {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		fw, err := w.Create(f.Name)
		if err == nil {
			_, err = io.Copy(fw, rc)
		}
		_ = rc.Close()
		if err != nil {
			return nil, err
		}
	}
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fw, err := w.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(entries[name]); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
