package audacity

import (
	"runtime"
	"strconv"
)

// Terminators appended to every command.
const (
	WindowsTerminator = "\r\n\x00"
	PosixTerminator   = "\n"
)

// Platform describes where mod-script-pipe listens and how commands are
// terminated.
type Platform struct {
	Name       string
	ToPipe     string
	FromPipe   string
	Terminator string
}

// Windows returns named pipes used by Audacity on Windows.
func Windows() Platform {
	return Platform{
		Name:       "windows",
		ToPipe:     `\\.\pipe\ToSrvPipe`,
		FromPipe:   `\\.\pipe\FromSrvPipe`,
		Terminator: WindowsTerminator,
	}
}

// Posix returns fifos used by Audacity on Linux and macOS for user uid.
func Posix(uid int) Platform {
	return Platform{
		Name:       "posix",
		ToPipe:     "/tmp/audacity_script_pipe.to." + strconv.Itoa(uid),
		FromPipe:   "/tmp/audacity_script_pipe.from." + strconv.Itoa(uid),
		Terminator: PosixTerminator,
	}
}

// DefaultPlatform returns platform of the host for the current user.
func DefaultPlatform() Platform {
	if runtime.GOOS == "windows" {
		return Windows()
	}
	return Posix(currentUID())
}

// PlatformByName returns platform for "windows" or "posix". Empty name
// returns DefaultPlatform.
func PlatformByName(name string) (Platform, bool) {
	switch name {
	case "":
		return DefaultPlatform(), true
	case "windows":
		return Windows(), true
	case "posix", "linux", "darwin":
		return Posix(currentUID()), true
	}
	return Platform{}, false
}
