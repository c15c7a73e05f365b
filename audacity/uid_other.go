//go:build !unix

package audacity

import "os"

func currentUID() int {
	return os.Getuid()
}
