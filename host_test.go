package angrnative

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHostFor(t *testing.T) {
	t.Setenv("MACOSX_DEPLOYMENT_TARGET", "")

	tests := []struct {
		name    string
		goos    string
		goarch  string
		machine string
		release string
		want    Host
	}{
		{
			name: "linux", goos: "linux", goarch: "amd64", machine: "x86_64", release: "6.8.0",
			want: Host{Platform: "linux", Machine: "x86_64", Name: "linux-x86_64"},
		},
		{
			name: "linux arm", goos: "linux", goarch: "arm64", machine: "aarch64", release: "6.1.0",
			want: Host{Platform: "linux", Machine: "aarch64", Name: "linux-aarch64"},
		},
		{
			name: "macOS 14", goos: "darwin", goarch: "arm64", machine: "arm64", release: "23.4.0",
			want: Host{Platform: "darwin", Machine: "arm64", Name: "macosx-14.0-arm64"},
		},
		{
			name: "macOS 10.15", goos: "darwin", goarch: "amd64", machine: "x86_64", release: "19.6.0",
			want: Host{Platform: "darwin", Machine: "x86_64", Name: "macosx-10.15-x86_64"},
		},
		{
			name: "windows 64-bit", goos: "windows", goarch: "amd64", machine: "AMD64",
			want: Host{Platform: "win32", Machine: "AMD64", Name: "win-amd64"},
		},
		{
			name: "windows 32-bit", goos: "windows", goarch: "386", machine: "x86",
			want: Host{Platform: "win32", Machine: "x86", Name: "win32"},
		},
		{
			name: "freebsd", goos: "freebsd", goarch: "amd64", machine: "amd64", release: "14.0-RELEASE",
			want: Host{Platform: "freebsd14", Machine: "amd64", Name: "freebsd-14.0-RELEASE-amd64"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hostFor(tt.goos, tt.goarch, tt.machine, tt.release))
		})
	}
}

func TestMacOSVersionDeploymentTarget(t *testing.T) {
	t.Setenv("MACOSX_DEPLOYMENT_TARGET", "11.0")
	assert.Equal(t, "11.0", macOSVersion("23.4.0"))
}

func TestMacOSVersionUnknownRelease(t *testing.T) {
	t.Setenv("MACOSX_DEPLOYMENT_TARGET", "")
	assert.Equal(t, "10.9", macOSVersion(""))
}

func TestMachineFromArch(t *testing.T) {
	assert.Equal(t, "x86_64", machineFromArch("linux", "amd64"))
	assert.Equal(t, "aarch64", machineFromArch("linux", "arm64"))
	assert.Equal(t, "arm64", machineFromArch("darwin", "arm64"))
	assert.Equal(t, "AMD64", machineFromArch("windows", "amd64"))
	assert.Equal(t, "riscv64", machineFromArch("linux", "riscv64"))
}

func TestDetectHostIsComplete(t *testing.T) {
	h := DetectHost()
	assert.NotEmpty(t, h.Platform)
	assert.NotEmpty(t, h.Machine)
	assert.NotEmpty(t, h.Name)
}
