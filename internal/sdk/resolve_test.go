package sdk

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apkerrors "git.home.luguber.info/inful/apkbuilder/internal/errors"
	apktesting "git.home.luguber.info/inful/apkbuilder/internal/testing"
)

func TestResolve_FullSDK(t *testing.T) {
	root := apktesting.FakeSDK(t, "35.0.0", 28)

	tc, err := Resolve(Options{Root: root, BuildTools: "35.0.0", Platform: 28, GOOS: "linux"})
	require.NoError(t, err)

	bt := filepath.Join(root, "build-tools", "35.0.0")
	assert.Equal(t, filepath.Join(bt, "aapt"), tc.AAPT)
	assert.Equal(t, filepath.Join(bt, "d8"), tc.D8)
	assert.Equal(t, filepath.Join(bt, "zipalign"), tc.Zipalign)
	assert.Equal(t, filepath.Join(bt, "apksigner"), tc.APKSigner)
	assert.Equal(t, filepath.Join(root, "platforms", "android-28", "android.jar"), tc.AndroidJar)
	assert.NotEmpty(t, tc.Javac)
	assert.NotEmpty(t, tc.Keytool)
}

func TestResolve_WindowsSuffixes(t *testing.T) {
	root := t.TempDir()
	bt := filepath.Join(root, "build-tools", "35.0.0")
	require.NoError(t, os.MkdirAll(bt, 0o750))
	for _, name := range []string{"aapt.exe", "d8.bat", "zipalign.exe", "apksigner.bat"} {
		require.NoError(t, os.WriteFile(filepath.Join(bt, name), nil, 0o600))
	}

	tc, err := Resolve(Options{Root: root, BuildTools: "35.0.0", Platform: 28, GOOS: "windows"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(bt, "d8.bat"), tc.D8)
	assert.Equal(t, filepath.Join(bt, "zipalign.exe"), tc.Zipalign)
}

func TestResolve_MissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "no-sdk")

	_, err := Resolve(Options{Root: root, BuildTools: "35.0.0", Platform: 28})
	require.Error(t, err)

	var notFound *SDKNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, root, notFound.Root)
	assert.Equal(t, apkerrors.ExitEnvironment, apkerrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))

	_, statErr := os.Stat(root)
	assert.True(t, os.IsNotExist(statErr), "resolution must not create the root")
}

func TestResolve_MissingToolNamesIt(t *testing.T) {
	for _, tool := range []string{"aapt", "d8", "zipalign", "apksigner"} {
		t.Run(tool, func(t *testing.T) {
			root := apktesting.FakeSDK(t, "35.0.0", 28)
			missing := filepath.Join(root, "build-tools", "35.0.0", tool)
			require.NoError(t, os.Remove(missing))

			_, err := Resolve(Options{Root: root, BuildTools: "35.0.0", Platform: 28, GOOS: "linux"})
			require.Error(t, err)

			var mt *MissingToolError
			require.True(t, errors.As(err, &mt))
			assert.Equal(t, tool, mt.Tool)
			assert.Equal(t, missing, mt.Path)
			assert.Equal(t, apkerrors.ExitEnvironment, apkerrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
			assert.Contains(t, apkerrors.NewCLIErrorAdapter(false, nil).FormatError(err), missing)
		})
	}
}

func TestResolve_WrongBuildToolsVersion(t *testing.T) {
	root := apktesting.FakeSDK(t, "35.0.0", 28)
	_, err := Resolve(Options{Root: root, BuildTools: "34.0.0", Platform: 28, GOOS: "linux"})

	var mt *MissingToolError
	require.True(t, errors.As(err, &mt))
	assert.Equal(t, "aapt", mt.Tool)
}

func TestSelectRoot_Precedence(t *testing.T) {
	t.Setenv("APKBUILDER_SDK", "")
	t.Setenv("ANDROID_HOME", "")

	assert.Equal(t, "/flag", SelectRoot("/flag", "/config"))
	assert.Equal(t, "/config", SelectRoot("", "/config"))
	assert.Equal(t, DefaultRoot(), SelectRoot("", ""))

	t.Setenv("ANDROID_HOME", "/android-home")
	assert.Equal(t, "/android-home", SelectRoot("", "/config"))
	assert.Equal(t, "/flag", SelectRoot("/flag", "/config"))

	t.Setenv("APKBUILDER_SDK", "/apkbuilder-sdk")
	assert.Equal(t, "/apkbuilder-sdk", SelectRoot("", "/config"))
}

func TestDefaultRoot_RelativeToExecutable(t *testing.T) {
	root := DefaultRoot()
	assert.Equal(t, "android", filepath.Base(root))
	assert.Equal(t, "fips-sdks", filepath.Base(filepath.Dir(root)))
}

func TestFindJavaTool_FallsBackToJavaHome(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, "jre", "bin"), 0o750))
	tool := filepath.Join(home, "jre", "bin", "apkbuilder-test-keytool")
	require.NoError(t, os.WriteFile(tool, nil, 0o600))
	t.Setenv("JAVA_HOME", home)

	assert.Equal(t, tool, findJavaTool("apkbuilder-test-keytool", "", "bin", filepath.Join("jre", "bin")))
	assert.Equal(t, "apkbuilder-test-absent", findJavaTool("apkbuilder-test-absent", "", "bin"))
}

func TestToolchain_Tools(t *testing.T) {
	root := apktesting.FakeSDK(t, "35.0.0", 28)
	tc, err := Resolve(Options{Root: root, BuildTools: "35.0.0", Platform: 28, GOOS: "linux"})
	require.NoError(t, err)

	tools := tc.Tools()
	require.Len(t, tools, 7)
	last := tools[len(tools)-1]
	assert.Equal(t, "android.jar", last.Name)
	assert.True(t, last.Found)
	assert.Contains(t, tc.String(), "35.0.0")
}
