//go:build linux || darwin

package audacity_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/Ocrabit/sao-guidance/audacity"
	"github.com/Ocrabit/sao-guidance/log"
	"github.com/Ocrabit/sao-guidance/mock"
)

func TestOpenFifo(t *testing.T) {
	dir := t.TempDir()
	to := filepath.Join(dir, "audacity_script_pipe.to")
	from := filepath.Join(dir, "audacity_script_pipe.from")
	require.Nil(t, unix.Mkfifo(to, 0600))
	require.Nil(t, unix.Mkfifo(from, 0600))

	peer := &mock.Peer{}
	done := make(chan error, 1)
	go func() {
		// same order as the client, otherwise both sides block in open.
		cmd, err := os.Open(to)
		if err != nil {
			done <- err
			return
		}
		defer cmd.Close()
		resp, err := os.OpenFile(from, os.O_WRONLY, 0)
		if err != nil {
			done <- err
			return
		}
		defer resp.Close()
		peer.Serve(cmd, resp)
		done <- nil
	}()

	c, err := audacity.Open(
		audacity.WithPipes(to, from),
		audacity.WithLogger(log.Silent()),
	)
	require.Nil(t, err)
	resp, err := c.Do("GetInfo: Type=Commands")
	assert.Nil(t, err)
	assert.Equal(t, mock.OK+"\n", resp)

	require.Nil(t, c.Close())
	assert.Nil(t, <-done)
	assert.Equal(t, []string{audacity.CmdNew, "GetInfo: Type=Commands"}, peer.Commands())
}
