package apkcheck

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArchive(t *testing.T, entries ...string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "game.apk")
	f, err := os.Create(p)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for _, name := range entries {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("data:" + name))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return p
}

func TestInspect_Entries(t *testing.T) {
	p := writeArchive(t,
		"AndroidManifest.xml",
		"classes.dex",
		"lib/armeabi-v7a/libgame.so",
		"lib/arm64-v8a/libgame.so",
		"lib/arm64-v8a/libc++_shared.so",
		"res/values/strings.xml",
	)

	info, err := Inspect(p)
	require.NoError(t, err)

	assert.True(t, info.HasDex)
	assert.Len(t, info.Entries, 6)
	assert.Equal(t, []string{"arm64-v8a", "armeabi-v7a"}, info.ABIs())
	assert.Equal(t, []string{"libc++_shared.so", "libgame.so"}, info.NativeLibs["arm64-v8a"])
	assert.Len(t, info.SHA256, 64)
	assert.Positive(t, info.Size)

	// A plain-text manifest and a missing signature are recorded, not returned.
	assert.Error(t, info.ManifestErr)
	assert.Nil(t, info.Signature)
	assert.Error(t, info.SignatureErr)
}

func TestInspect_NotAnArchive(t *testing.T) {
	p := filepath.Join(t.TempDir(), "game.apk")
	require.NoError(t, os.WriteFile(p, []byte("not a zip"), 0o600))

	_, err := Inspect(p)
	require.Error(t, err)

	_, err = Inspect(filepath.Join(t.TempDir(), "missing.apk"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	p := writeArchive(t, "AndroidManifest.xml", "lib/armeabi-v7a/libgame.so")
	info, err := Inspect(p)
	require.NoError(t, err)

	t.Run("library present", func(t *testing.T) {
		assert.NoError(t, info.Validate(Expectation{ABI: "armeabi-v7a", LibName: "game"}))
	})

	t.Run("wrong abi", func(t *testing.T) {
		err := info.Validate(Expectation{ABI: "x86_64", LibName: "game"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalid))
		assert.Contains(t, err.Error(), "x86_64")
	})

	t.Run("all problems reported", func(t *testing.T) {
		err := info.Validate(Expectation{
			PackageID:        "org.example.app",
			ABI:              "armeabi-v7a",
			LibName:          "other",
			RequireSignature: true,
		})
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Len(t, ve.Problems, 3)
		assert.Contains(t, ve.Problems[0], "manifest unreadable")
		assert.Contains(t, ve.Problems[1], "libother.so")
		assert.Contains(t, ve.Problems[2], "signature")
	})

	t.Run("identity match", func(t *testing.T) {
		ok := &Info{
			Path:       "x.apk",
			PackageID:  "org.example.app",
			NativeLibs: map[string][]string{"armeabi-v7a": {"libgame.so"}},
			Signature:  &Signature{Scheme: 2},
		}
		assert.NoError(t, ok.Validate(Expectation{PackageID: "org.example.app", ABI: "armeabi-v7a", LibName: "game", RequireSignature: true}))
	})
}

func TestDecodeManifest_RejectsTextManifest(t *testing.T) {
	p := writeArchive(t, "AndroidManifest.xml")
	var buf bytes.Buffer
	require.Error(t, DecodeManifest(p, &buf))
}
