package angrnative

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/magefile/mage/sh"
)

// GOOS values with platform specific behavior.
const (
	platformWindows = "windows"
	platformDarwin  = "darwin"
	platformLinux   = "linux"
)

// Artifact file names, one per host platform family.
const (
	artifactDylib = "angr_native.dylib"
	artifactDLL   = "angr_native.dll"
	artifactSO    = "angr_native.so"
)

// ArtifactName returns the shared library file name produced for a host
// platform given in sys.platform form ("darwin", "win32", "cygwin", "linux", ...).
func ArtifactName(platform string) string {
	switch platform {
	case platformDarwin:
		return artifactDylib
	case "win32", "cygwin":
		return artifactDLL
	default:
		return artifactSO
	}
}

// InstallArtifact wipes libDir, recreates it and copies the artifact built in
// nativeDir into it. It returns the installed path.
//
// The directory is removed before the copy starts, so a failed copy leaves
// libDir empty.
func InstallArtifact(nativeDir, libDir, artifact string) (string, error) {
	src := filepath.Join(nativeDir, artifact)
	dest := filepath.Join(libDir, artifact)

	if err := sh.Rm(libDir); err != nil {
		return "", errors.Wrapf(err, "removing %s", libDir)
	}
	if err := os.MkdirAll(libDir, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating %s", libDir)
	}
	if err := sh.Copy(dest, src); err != nil {
		return "", errors.Wrapf(err, "installing %s", artifact)
	}

	return dest, nil
}

// installArtifact is the install step of the native build.
func installArtifact(config *BuildConfig) (string, error) {
	artifact := ArtifactName(config.Host.Platform)
	config.Logger.Debug("installing artifact", "artifact", artifact, "dest", config.LibDir)
	return InstallArtifact(config.NativeDir, config.LibDir, artifact)
}
