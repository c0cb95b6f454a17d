package angrnative

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Host describes the build machine in packaging terms.
//
// Platform follows Python's sys.platform ("linux", "darwin", "win32", ...),
// Machine follows platform.machine() ("x86_64", "arm64", "AMD64", ...) and
// Name follows distutils' get_platform() ("linux-x86_64", "macosx-14.0-arm64",
// "win-amd64", ...).
type Host struct {
	Platform string
	Machine  string
	Name     string
}

// DetectHost describes the running host.
func DetectHost() Host {
	info := unameInfo()
	if info.machine == "" {
		info.machine = machineFromArch(runtime.GOOS, runtime.GOARCH)
	}
	return hostFor(runtime.GOOS, runtime.GOARCH, info.machine, info.release)
}

// hostFor assembles a Host from Go's os/arch names and uname data.
func hostFor(goos, goarch, machine, release string) Host {
	h := Host{Machine: machine}

	switch goos {
	case platformWindows:
		h.Platform = "win32"
		switch goarch {
		case "386":
			h.Name = "win32"
		case "arm64":
			h.Name = "win-arm64"
		default:
			h.Name = "win-amd64"
		}
	case platformDarwin:
		h.Platform = platformDarwin
		h.Name = fmt.Sprintf("macosx-%s-%s", macOSVersion(release), machine)
	case platformLinux:
		h.Platform = platformLinux
		h.Name = "linux-" + machine
	default:
		h.Platform = goos
		if major, _, ok := strings.Cut(release, "."); ok && goos == "freebsd" {
			h.Platform = goos + major
		}
		if release != "" {
			h.Name = fmt.Sprintf("%s-%s-%s", goos, release, machine)
		} else {
			h.Name = goos + "-" + machine
		}
	}

	return h
}

// macOSVersion returns the deployment target used in macOS platform names.
func macOSVersion(kernelRelease string) string {
	if target := os.Getenv("MACOSX_DEPLOYMENT_TARGET"); target != "" {
		return target
	}

	majorStr, _, _ := strings.Cut(kernelRelease, ".")
	major, err := strconv.Atoi(majorStr)
	if err != nil {
		return "10.9"
	}

	// Darwin 20 is macOS 11; earlier kernels map onto 10.x.
	if major >= 20 {
		return fmt.Sprintf("%d.0", major-9)
	}
	if major >= 5 {
		return fmt.Sprintf("10.%d", major-4)
	}
	return "10.9"
}

// machineFromArch maps GOARCH onto platform.machine() for hosts without uname.
func machineFromArch(goos, goarch string) string {
	if goos == platformWindows {
		switch goarch {
		case "amd64":
			return "AMD64"
		case "arm64":
			return "ARM64"
		case "386":
			return "x86"
		}
		return strings.ToUpper(goarch)
	}

	switch goarch {
	case "amd64":
		return "x86_64"
	case "386":
		return "i686"
	case "arm64":
		if goos == platformDarwin {
			return "arm64"
		}
		return "aarch64"
	case "arm":
		return "armv7l"
	case "ppc64le":
		return "ppc64le"
	case "s390x":
		return "s390x"
	}
	return goarch
}

type uname struct {
	machine string
	release string
}
