package angrnative

import "strings"

// Wheel command line tokens.
const (
	BdistWheelCommand = "bdist_wheel"
	PlatNameOption    = "--plat-name"

	manylinuxPrefix = "manylinux1_"
)

var platformTagReplacer = strings.NewReplacer(".", "_", "-", "_")

// PlatformTag returns the wheel platform tag for a host.
//
// Self-built linux_* tags are rejected by package indexes, so Linux hosts get
// the portable manylinux1 tag for their architecture. Other hosts use their
// platform name with "." and "-" replaced by "_".
func PlatformTag(h Host) string {
	if strings.Contains(h.Name, "linux") {
		return manylinuxPrefix + h.Machine
	}
	return platformTagReplacer.Replace(h.Name)
}

// ApplyPlatformTag adds "--plat-name <tag>" to argv when a wheel build is
// requested without an explicit platform name. The option is placed right
// after the bdist_wheel token so it stays with that command. It returns the
// resulting argument list and the injected tag, or argv unchanged and "".
//
// argv is not modified. It must run before the arguments are parsed.
func ApplyPlatformTag(argv []string, h Host) ([]string, string) {
	idx := wheelIndex(argv)
	if idx < 0 || hasPlatName(argv) {
		return argv, ""
	}

	tag := PlatformTag(h)
	out := make([]string, 0, len(argv)+2)
	out = append(out, argv[:idx+1]...)
	out = append(out, PlatNameOption, tag)
	out = append(out, argv[idx+1:]...)
	return out, tag
}

func wheelIndex(argv []string) int {
	for i, arg := range argv {
		if arg == BdistWheelCommand {
			return i
		}
	}
	return -1
}

func hasPlatName(argv []string) bool {
	for _, arg := range argv {
		if arg == PlatNameOption || strings.HasPrefix(arg, PlatNameOption+"=") {
			return true
		}
	}
	return false
}
