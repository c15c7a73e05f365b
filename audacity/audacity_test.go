package audacity_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Ocrabit/sao-guidance/audacity"
	"github.com/Ocrabit/sao-guidance/log"
	"github.com/Ocrabit/sao-guidance/metric"
	"github.com/Ocrabit/sao-guidance/mock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newClient(t *testing.T, peer *mock.Peer, options ...audacity.Option) *audacity.Client {
	t.Helper()
	w, r := peer.Start()
	options = append([]audacity.Option{
		audacity.WithPlatform(audacity.Posix(1000)),
		audacity.WithLogger(log.Silent()),
	}, options...)
	c, err := audacity.New(w, r, options...)
	require.Nil(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNewCreatesProject(t *testing.T) {
	peer := &mock.Peer{}
	newClient(t, peer)
	assert.Equal(t, []string{audacity.CmdNew}, peer.Commands())
}

func TestDoEmptyResponse(t *testing.T) {
	peer := &mock.Peer{
		Respond: func(string) []string { return nil },
	}
	c := newClient(t, peer)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	resp, err := c.DoContext(ctx, "Help:")
	assert.Nil(t, err)
	assert.Equal(t, "", resp)
}

func TestResponseLines(t *testing.T) {
	lines := []string{"first", "second", mock.OK}
	peer := &mock.Peer{
		Respond: func(string) []string { return lines },
	}
	c := newClient(t, peer)

	resp, err := c.Do("GetInfo: Type=Tracks")
	assert.Nil(t, err)
	assert.Equal(t, "first\nsecond\n"+mock.OK+"\n", resp)

	// send and receive separately.
	require.Nil(t, c.Send("GetInfo: Type=Clips"))
	resp, err = c.Response()
	assert.Nil(t, err)
	assert.Equal(t, strings.Join(lines, "\n")+"\n", resp)
}

func TestTerminator(t *testing.T) {
	tests := []struct {
		platform audacity.Platform
		expected string
	}{
		{platform: audacity.Posix(1000), expected: "\n"},
		{platform: audacity.Windows(), expected: "\r\n\x00"},
	}
	for _, test := range tests {
		var out bytes.Buffer
		// two blank responses: one for New and one for Select.
		in := strings.NewReader("\n\n")
		c, err := audacity.New(&out, in,
			audacity.WithPlatform(test.platform),
			audacity.WithLogger(log.Silent()),
		)
		require.Nil(t, err)
		_, err = c.Do("Select: Track=0")
		require.Nil(t, err)
		assert.Equal(t, "New:"+test.expected+"Select: Track=0"+test.expected, out.String())
	}
}

func TestWindowsPeer(t *testing.T) {
	peer := &mock.Peer{Terminator: audacity.WindowsTerminator}
	c := newClient(t, peer, audacity.WithPlatform(audacity.Windows()))
	resp, err := c.Do("Help:")
	assert.Nil(t, err)
	assert.Equal(t, mock.OK+"\n", resp)
	assert.Equal(t, []string{audacity.CmdNew, "Help:"}, peer.Commands())
}

func TestSequentialCommands(t *testing.T) {
	peer := &mock.Peer{
		LineDelay: 2 * time.Millisecond,
		Respond: func(command string) []string {
			return []string{"echo " + command, "second line", mock.OK}
		},
	}
	c := newClient(t, peer)

	var wg sync.WaitGroup
	responses := make([]string, 8)
	for i := range responses {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := c.Do(fmt.Sprintf("Message: Text=%d", i))
			assert.Nil(t, err)
			responses[i] = resp
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, peer.Interleaved())
	assert.Equal(t, 1+len(responses), len(peer.Commands()))
	for i, resp := range responses {
		assert.True(t, strings.HasPrefix(resp, fmt.Sprintf("echo Message: Text=%d\n", i)), resp)
	}
	assert.NotEmpty(t, metric.Get(c)[metric.CallCounter])
}

func TestImportWave(t *testing.T) {
	peer := &mock.Peer{}
	c := newClient(t, peer)

	require.Nil(t, c.ImportWave("/data/take.wav", true))
	require.Nil(t, c.ImportWave("/data/take2.wav", false))
	assert.Equal(t, []string{
		audacity.CmdNew,
		"SelectAllTracks:",
		"RemoveTracks:",
		"Select: Track=0",
		`Import2: Filename="/data/take.wav"`,
		"Select: Track=0",
		`Import2: Filename="/data/take2.wav"`,
	}, peer.Commands())
}

// Quotes in paths are passed through untouched and end the filename early.
func TestImportWaveQuoteIsNotEscaped(t *testing.T) {
	peer := &mock.Peer{}
	c := newClient(t, peer)

	require.Nil(t, c.ImportWave(`/data/a" Extra="x.wav`, false))
	commands := peer.Commands()
	assert.Equal(t, `Import2: Filename="/data/a" Extra="x.wav"`, commands[len(commands)-1])
}

func TestExportWave(t *testing.T) {
	peer := &mock.Peer{
		Respond: func(string) []string { return []string{"Export failed", "BatchCommand finished: Failed!"} },
	}
	c := newClient(t, peer)

	// error payload is not detected.
	assert.Nil(t, c.ExportWave("/data/out.wav"))
	commands := peer.Commands()
	assert.Equal(t, `Export2: Filename="/data/out.wav"`, commands[len(commands)-1])
}

func TestCleanAudio(t *testing.T) {
	peer := &mock.Peer{}
	c := newClient(t, peer)
	dir := t.TempDir()
	in := filepath.Join(dir, "take.wav")

	out, ok := c.CleanAudio(context.Background(), in)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "cleaned", "take.wav"), out)
	info, err := os.Stat(filepath.Join(dir, "cleaned"))
	require.Nil(t, err)
	assert.True(t, info.IsDir())

	assert.Equal(t, []string{
		audacity.CmdNew,
		"SelectAllTracks:",
		"RemoveTracks:",
		"Select: Track=0",
		fmt.Sprintf(`Import2: Filename="%s"`, in),
		fmt.Sprintf(`Export2: Filename="%s"`, out),
	}, peer.Commands())
}

func TestCleanAudioTimeout(t *testing.T) {
	timeout := 100 * time.Millisecond
	peer := &mock.Peer{
		Hang: func(command string) bool { return command != audacity.CmdNew },
	}
	c := newClient(t, peer, audacity.WithTimeout(timeout))

	start := time.Now()
	out, ok := c.CleanAudio(context.Background(), filepath.Join(t.TempDir(), "take.wav"))
	elapsed := time.Since(start)
	assert.False(t, ok)
	assert.Equal(t, "", out)
	assert.True(t, elapsed >= timeout, "returned after %v", elapsed)
	assert.True(t, elapsed < timeout+time.Second, "returned after %v", elapsed)

	// abandoned client is closed.
	_, err := c.Do("Help:")
	assert.Equal(t, audacity.ErrClosed, err)
}

func TestCleanAudioFailure(t *testing.T) {
	w, r := (&mock.Peer{}).Start()
	c, err := audacity.New(w, r, audacity.WithLogger(log.Silent()))
	require.Nil(t, err)
	require.Nil(t, c.Close())

	out, ok := c.CleanAudio(context.Background(), filepath.Join(t.TempDir(), "take.wav"))
	assert.False(t, ok)
	assert.Equal(t, "", out)
}

func TestDoContextCanceled(t *testing.T) {
	peer := &mock.Peer{}
	c := newClient(t, peer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.DoContext(ctx, "Help:")
	assert.Equal(t, context.Canceled, err)
}

func TestPeerGone(t *testing.T) {
	// peer answers New and closes the stream.
	_, err := audacity.New(&bytes.Buffer{}, strings.NewReader(""), audacity.WithLogger(log.Silent()))
	assert.NotNil(t, err)

	c, err := audacity.New(&bytes.Buffer{}, strings.NewReader("\n"), audacity.WithLogger(log.Silent()))
	require.Nil(t, err)
	_, err = c.Do("Help:")
	assert.NotNil(t, err)
	assert.False(t, errors.Is(err, audacity.ErrClosed))
}

func TestOpenPeerNotReady(t *testing.T) {
	dir := t.TempDir()
	to := filepath.Join(dir, "to")
	from := filepath.Join(dir, "from")

	_, err := audacity.Open(audacity.WithPipes(to, from), audacity.WithLogger(log.Silent()))
	require.True(t, errors.Is(err, audacity.ErrPeerNotReady))
	var notReady *audacity.PeerNotReadyError
	require.True(t, errors.As(err, &notReady))
	assert.Equal(t, to, notReady.Pipe)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	require.Nil(t, os.WriteFile(to, nil, 0644))
	_, err = audacity.Open(audacity.WithPipes(to, from), audacity.WithLogger(log.Silent()))
	require.True(t, errors.As(err, &notReady))
	assert.Equal(t, from, notReady.Pipe)
}

func TestPlatform(t *testing.T) {
	w := audacity.Windows()
	assert.Equal(t, `\\.\pipe\ToSrvPipe`, w.ToPipe)
	assert.Equal(t, `\\.\pipe\FromSrvPipe`, w.FromPipe)
	assert.Equal(t, "\r\n\x00", w.Terminator)

	p := audacity.Posix(501)
	assert.Equal(t, "/tmp/audacity_script_pipe.to.501", p.ToPipe)
	assert.Equal(t, "/tmp/audacity_script_pipe.from.501", p.FromPipe)
	assert.Equal(t, "\n", p.Terminator)

	byName, ok := audacity.PlatformByName("windows")
	assert.True(t, ok)
	assert.Equal(t, w, byName)
	_, ok = audacity.PlatformByName("amiga")
	assert.False(t, ok)

	assert.Equal(t, filepath.Join("/a", "cleaned", "b.wav"), audacity.CleanedPath(filepath.Join("/a", "b.wav")))
}
