//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package angrnative

import "golang.org/x/sys/unix"

func unameInfo() uname {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return uname{}
	}
	return uname{
		machine: unix.ByteSliceToString(u.Machine[:]),
		release: unix.ByteSliceToString(u.Release[:]),
	}
}
