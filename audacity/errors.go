package audacity

import (
	"errors"
	"fmt"
)

var (
	// ErrPeerNotReady matches any PeerNotReadyError.
	ErrPeerNotReady = errors.New("audacity is not ready")
	// ErrClosed is returned by calls on closed client.
	ErrClosed = errors.New("client is closed")
)

// PeerNotReadyError is returned when a script pipe doesn't exist. It
// means Audacity is not running or mod-script-pipe is disabled. Callers
// decide whether to wait, retry or give up.
type PeerNotReadyError struct {
	Pipe string
	Err  error
}

func (e *PeerNotReadyError) Error() string {
	return fmt.Sprintf("%s does not exist, ensure Audacity is running with mod-script-pipe: %v", e.Pipe, e.Err)
}

// Unwrap returns the underlying stat error.
func (e *PeerNotReadyError) Unwrap() error {
	return e.Err
}

// Is reports ErrPeerNotReady as a match.
func (e *PeerNotReadyError) Is(err error) bool {
	return err == ErrPeerNotReady
}
