//go:build unix

package audacity

import "golang.org/x/sys/unix"

func currentUID() int {
	return unix.Getuid()
}
