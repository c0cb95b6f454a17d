package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	angrnative "github.com/angr/angr-native-go"
	"github.com/angr/angr-native-go/internal/exitcode"
)

const helperEnv = "GO_WANT_HELPER_PROCESS"

// TestHelperProcess stands in for both the build tool and the packaging
// frontend. Steps: "write <file>" creates a file in the working directory,
// "record <file> args..." appends args to <file>, "exit <code>" sets the
// exit status.
func TestHelperProcess(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}

	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}

	code := 0
	for len(args) > 1 {
		switch args[0] {
		case "write":
			if err := os.WriteFile(args[1], []byte("native library"), 0o644); err != nil {
				os.Exit(97)
			}
			args = args[2:]
		case "record":
			f, err := os.OpenFile(args[1], os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				os.Exit(98)
			}
			fmt.Fprintln(f, strings.Join(args[2:], " "))
			f.Close()
			args = nil
		case "exit":
			fmt.Sscanf(args[1], "%d", &code)
			args = args[2:]
		default:
			args = args[1:]
		}
	}
	os.Exit(code)
}

// resetFlags restores the global flag values between executions.
func resetFlags(t *testing.T) {
	t.Helper()
	reset := func() {
		configFile = ""
		projectDir = ""
		verbosity = 0
		quiet = false
		logFormat = "text"
		cfg = nil
		logger = nil
		injectedTag = ""
		configFormat = "yaml"
	}
	reset()
	t.Cleanup(reset)
}

func helperArgv(t *testing.T, steps ...string) []string {
	t.Helper()
	exe, err := os.Executable()
	require.NoError(t, err)
	return append([]string{exe, "-test.run=TestHelperProcess", "--"}, steps...)
}

type project struct {
	root   string
	site   string
	record string
}

// newProject writes a project tree and an angr-setup.yaml that uses the test
// binary as build tool and frontend. Only the listed packages are installed.
func newProject(t *testing.T, packages ...string) project {
	t.Helper()
	p := project{root: t.TempDir(), site: t.TempDir()}
	p.record = filepath.Join(p.root, "frontend.log")

	require.NoError(t, os.MkdirAll(filepath.Join(p.root, "native"), 0o755))
	for _, pkg := range packages {
		for _, sub := range []string{"include", "lib"} {
			require.NoError(t, os.MkdirAll(filepath.Join(p.site, pkg, sub), 0o755))
		}
	}

	conf := map[string]any{
		"python":         filepath.Join(p.root, "no-such-python"),
		"site_dirs":      []string{p.site},
		"build_commands": [][]string{helperArgv(t, "write", "angr_native.so")},
		"frontend":       helperArgv(t, "record", p.record),
		"host": map[string]string{
			"platform": "linux",
			"machine":  "x86_64",
			"name":     "linux-x86_64",
		},
	}
	data, err := yaml.Marshal(conf)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(p.root, "angr-setup.yaml"), data, 0o600))

	t.Setenv(helperEnv, "1")
	return p
}

func run(t *testing.T, argv ...string) (int, string, string) {
	t.Helper()
	resetFlags(t)
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), argv, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestBuildCompilesNativeFirst(t *testing.T) {
	p := newProject(t, "unicorn", "pyvex")

	code, _, stderr := run(t, "-C", p.root, "build", "--force")
	require.Equal(t, exitcode.Success, code, stderr)

	assert.FileExists(t, filepath.Join(p.root, "angr", "lib", "angr_native.so"))

	content, err := os.ReadFile(p.record)
	require.NoError(t, err)
	assert.Equal(t, "build --force\n", string(content))
}

func TestDevelopWithoutCapabilityIsNotHooked(t *testing.T) {
	p := newProject(t, "unicorn", "pyvex")

	// The configured interpreter does not exist, so the develop import check fails
	// and develop is an unknown command.
	code, _, stderr := run(t, "-C", p.root, "develop")
	assert.Equal(t, exitcode.User, code)
	assert.Contains(t, stderr, "unknown command")
	assert.NoFileExists(t, filepath.Join(p.root, "angr", "lib", "angr_native.so"))
}

func TestBuildMissingPrerequisite(t *testing.T) {
	p := newProject(t, "pyvex")

	code, _, stderr := run(t, "-C", p.root, "build")
	assert.Equal(t, exitcode.User, code)
	assert.Contains(t, stderr, "Error: you must install unicorn before building angr_native")
	assert.Contains(t, stderr, "Hint: pip install unicorn")

	assert.NoFileExists(t, p.record, "frontend must not run")
	assert.NoDirExists(t, filepath.Join(p.root, "angr", "lib"))
}

func TestUnhookedCommandSkipsNativeBuild(t *testing.T) {
	p := newProject(t, "unicorn", "pyvex")

	code, _, stderr := run(t, "-C", p.root, "sdist", "--formats=gztar")
	require.Equal(t, exitcode.Success, code, stderr)

	content, err := os.ReadFile(p.record)
	require.NoError(t, err)
	assert.Equal(t, "sdist --formats=gztar\n", string(content))
	assert.NoDirExists(t, filepath.Join(p.root, "angr", "lib"))
}

func TestBdistWheelGetsPlatformTag(t *testing.T) {
	p := newProject(t, "unicorn", "pyvex")
	t.Setenv("ANGR_SETUP_HOST_NAME", "linux-x86_64")
	t.Setenv("ANGR_SETUP_HOST_MACHINE", "x86_64")

	code, _, stderr := run(t, "-C", p.root, "bdist_wheel")
	require.Equal(t, exitcode.Success, code, stderr)

	content, err := os.ReadFile(p.record)
	require.NoError(t, err)
	assert.Equal(t, "bdist_wheel --plat-name manylinux1_x86_64\n", string(content))
	assert.FileExists(t, filepath.Join(p.root, "angr", "lib", "angr_native.so"), "the wheel must ship the native library")
}

func TestInstallBuildsNativeFirst(t *testing.T) {
	p := newProject(t, "unicorn", "pyvex")

	code, _, stderr := run(t, "-C", p.root, "install", "--user")
	require.Equal(t, exitcode.Success, code, stderr)

	assert.FileExists(t, filepath.Join(p.root, "angr", "lib", "angr_native.so"))
	content, err := os.ReadFile(p.record)
	require.NoError(t, err)
	assert.Equal(t, "install --user\n", string(content))
}

func TestBdistWheelMissingPrerequisiteRunsNothing(t *testing.T) {
	p := newProject(t, "unicorn")

	code, _, stderr := run(t, "-C", p.root, "bdist_wheel")
	assert.Equal(t, exitcode.User, code)
	assert.Contains(t, stderr, "Hint: pip install pyvex")
	assert.NoFileExists(t, p.record, "frontend must not run")
}

func TestNativeCommand(t *testing.T) {
	p := newProject(t, "unicorn", "pyvex")

	code, stdout, stderr := run(t, "-C", p.root, "native")
	require.Equal(t, exitcode.Success, code, stderr)
	assert.Equal(t, filepath.Join(p.root, "angr", "lib", "angr_native.so")+"\n", stdout)
}

func TestTagCommand(t *testing.T) {
	t.Setenv("ANGR_SETUP_HOST_NAME", "macosx-11.0-arm64")

	code, stdout, stderr := run(t, "-C", t.TempDir(), "tag")
	require.Equal(t, exitcode.Success, code, stderr)
	assert.Equal(t, "macosx_11_0_arm64\n", stdout)
}

func TestConfigCommand(t *testing.T) {
	p := newProject(t, "unicorn")

	code, stdout, stderr := run(t, "-C", p.root, "config")
	require.Equal(t, exitcode.Success, code, stderr)

	var out map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, p.root, out["project_dir"])
	assert.Equal(t, "native", out["native_dir"])
	assert.Equal(t, []any{p.site}, out["site_dirs"])
}

func TestConfigCommandTOML(t *testing.T) {
	p := newProject(t, "unicorn")

	code, stdout, stderr := run(t, "-C", p.root, "config", "--format", "toml")
	require.Equal(t, exitcode.Success, code, stderr)

	var out map[string]any
	require.NoError(t, toml.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, p.root, out["project_dir"])
	assert.Equal(t, "angr/lib", out["lib_dir"])
}

func TestConfigCommandUnknownFormat(t *testing.T) {
	code, _, stderr := run(t, "-C", t.TempDir(), "config", "--format", "ini")
	assert.Equal(t, exitcode.User, code)
	assert.Contains(t, stderr, `unknown config format "ini"`)
}

func TestQuietAndVerboseConflict(t *testing.T) {
	code, _, stderr := run(t, "-q", "-v", "-C", t.TempDir(), "tag")
	assert.Equal(t, exitcode.User, code)
	assert.Contains(t, stderr, "--quiet and --verbose")
}

func TestUnknownFlag(t *testing.T) {
	code, _, _ := run(t, "--no-such-flag", "build")
	assert.Equal(t, exitcode.User, code)
}

func TestWriteToolReportMarksSelected(t *testing.T) {
	nmake := angrnative.Candidate{"nmake", "/f", "Makefile-win"}
	gmake := angrnative.Candidate{"gmake"}
	gnuMake := angrnative.Candidate{"make", "-j2"}
	statuses := []angrnative.ToolStatus{
		{Candidate: nmake, Err: errors.New("not found")},
		{Candidate: gmake, Path: "/usr/bin/gmake"},
		{Candidate: gnuMake, Path: "/usr/bin/make"},
	}

	var out bytes.Buffer
	writeToolReport(&out, statuses, gmake)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "nmake /f Makefile-win (not found)")
	assert.True(t, strings.HasSuffix(lines[1], "gmake -> /usr/bin/gmake [selected]"), lines[1])
	assert.NotContains(t, lines[2], "[selected]")

	out.Reset()
	writeToolReport(&out, statuses[:1], nil)
	assert.Contains(t, out.String(), "no build tool available")
}
