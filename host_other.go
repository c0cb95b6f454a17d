//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package angrnative

func unameInfo() uname {
	return uname{}
}
