/*
Package audacity scripts a running Audacity through mod-script-pipe.

Concept

Audacity listens on two pipes: commands are written to one, responses are
read from the other. The protocol is half-duplex: a command is a single
line, a response is a number of lines terminated by a blank line. There
are no correlation ids, so only one command can be in flight and the
Client serializes all calls.

	c, err := audacity.Open()
	if errors.Is(err, audacity.ErrPeerNotReady) {
		// Audacity is not running.
	}
	defer c.Close()
	resp, err := c.Do("GetInfo: Type=Tracks")

Timeouts

Low-level calls block until the peer responds. DoContext and CleanAudio
bound the wait with a context. When the context is done before the peer
responds, the client is closed: the stream position is unknown after an
abandoned command and any further call returns ErrClosed.
*/
package audacity

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Ocrabit/sao-guidance/log"
	"github.com/Ocrabit/sao-guidance/metric"
)

// DefaultTimeout bounds CleanAudio.
const DefaultTimeout = 10 * time.Second

// Commands issued by the client.
const (
	CmdNew             = "New:"
	CmdSelectAllTracks = "SelectAllTracks:"
	CmdRemoveTracks    = "RemoveTracks:"
	CmdSelectFirst     = "Select: Track=0"
	CmdImport          = `Import2: Filename="%s"`
	CmdExport          = `Export2: Filename="%s"`
)

// Client is a connection to mod-script-pipe.
type Client struct {
	platform Platform
	timeout  time.Duration
	log      log.Logger
	meter    metric.StartFunc

	to      *bufio.Writer
	from    *bufio.Reader
	closers []io.Closer

	mu        sync.Mutex // one command in flight
	closed    int32
	closeOnce sync.Once
	closeErr  error
}

// Option provides a way to set functional parameters to client.
type Option func(c *Client)

// WithPlatform sets pipe paths and command terminator.
func WithPlatform(p Platform) Option {
	return func(c *Client) {
		c.platform = p
	}
}

// WithPipes overrides pipe paths of the platform.
func WithPipes(to, from string) Option {
	return func(c *Client) {
		if to != "" {
			c.platform.ToPipe = to
		}
		if from != "" {
			c.platform.FromPipe = from
		}
	}
}

// WithTimeout sets the bound of CleanAudio.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets logger to client.
func WithLogger(logger log.Logger) Option {
	return func(c *Client) {
		c.log = logger
	}
}

func newClient(options []Option) *Client {
	c := &Client{
		platform: DefaultPlatform(),
		timeout:  DefaultTimeout,
		log:      log.GetLogger(),
	}
	for _, option := range options {
		option(c)
	}
	c.meter = metric.Meter(c)
	return c
}

// Open connects to the pipes of running Audacity. Both pipes must exist,
// otherwise PeerNotReadyError is returned. Command pipe is opened first,
// then response pipe. A new project is created before Open returns.
func Open(options ...Option) (*Client, error) {
	c := newClient(options)
	p := c.platform

	c.log.Debugf("write to %q", p.ToPipe)
	if _, err := os.Stat(p.ToPipe); err != nil {
		return nil, &PeerNotReadyError{Pipe: p.ToPipe, Err: err}
	}
	c.log.Debugf("read from %q", p.FromPipe)
	if _, err := os.Stat(p.FromPipe); err != nil {
		return nil, &PeerNotReadyError{Pipe: p.FromPipe, Err: err}
	}

	to, err := os.OpenFile(p.ToPipe, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p.ToPipe, err)
	}
	from, err := os.OpenFile(p.FromPipe, os.O_RDONLY, 0)
	if err != nil {
		to.Close()
		return nil, fmt.Errorf("open %s: %w", p.FromPipe, err)
	}
	c.log.Debugf("both pipes are open")
	return c.start(to, from)
}

// New creates a client over provided streams. Streams which implement
// io.Closer are closed by Close. A new project is created before New
// returns.
func New(to io.Writer, from io.Reader, options ...Option) (*Client, error) {
	return newClient(options).start(to, from)
}

func (c *Client) start(to io.Writer, from io.Reader) (*Client, error) {
	c.to = bufio.NewWriter(to)
	c.from = bufio.NewReader(from)
	for _, s := range []interface{}{to, from} {
		if closer, ok := s.(io.Closer); ok {
			c.closers = append(c.closers, closer)
		}
	}
	if _, err := c.Do(CmdNew); err != nil {
		c.Close()
		return nil, fmt.Errorf("create project: %w", err)
	}
	return c, nil
}

// Platform returns platform the client was created with.
func (c *Client) Platform() Platform {
	return c.platform
}

// Send writes a single command. It doesn't wait for the response, so the
// caller must read it with Response before sending anything else.
func (c *Client) Send(command string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.send(command)
}

// Response reads a response of previously sent command.
func (c *Client) Response() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.response()
}

// Do sends a command and returns its response. Concurrent calls are
// executed one after another.
func (c *Client) Do(command string) (string, error) {
	if c.isClosed() {
		return "", ErrClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	measure := c.meter()
	c.log.Debugf("-> %s", command)
	if err := c.send(command); err != nil {
		measure(0, err)
		return "", err
	}
	resp, err := c.response()
	measure(int64(len(resp)), err)
	if err != nil {
		return "", err
	}
	c.log.Debugf("<- %s", strings.TrimSpace(resp))
	return resp, nil
}

// DoContext is Do bounded by ctx. If ctx is done first, the client is
// closed and ctx error is returned.
func (c *Client) DoContext(ctx context.Context, command string) (string, error) {
	var resp string
	err := c.bounded(ctx, func() error {
		var err error
		resp, err = c.Do(command)
		return err
	})
	if err != nil {
		return "", err
	}
	return resp, nil
}

// Close closes both pipes. Blocked calls are released with ErrClosed.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		atomic.StoreInt32(&c.closed, 1)
		for _, closer := range c.closers {
			if err := closer.Close(); err != nil && c.closeErr == nil {
				c.closeErr = err
			}
		}
	})
	return c.closeErr
}

func (c *Client) isClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

func (c *Client) send(command string) error {
	if c.isClosed() {
		return ErrClosed
	}
	if _, err := c.to.WriteString(command + c.platform.Terminator); err != nil {
		return c.streamErr("send", err)
	}
	if err := c.to.Flush(); err != nil {
		return c.streamErr("send", err)
	}
	return nil
}

// response reads lines until the first blank one. Content lines are
// returned as is, including their line breaks.
func (c *Client) response() (string, error) {
	var b strings.Builder
	for {
		line, err := c.from.ReadString('\n')
		if err != nil {
			return "", c.streamErr("read response", err)
		}
		if strings.TrimRight(line, "\r\n") == "" {
			return b.String(), nil
		}
		b.WriteString(line)
	}
}

func (c *Client) streamErr(op string, err error) error {
	if c.isClosed() {
		return ErrClosed
	}
	return fmt.Errorf("%s: %w", op, err)
}

// bounded runs fn until it returns or ctx is done. In the latter case the
// client is closed to release fn.
func (c *Client) bounded(ctx context.Context, fn func() error) error {
	if ctx.Done() == nil {
		return fn()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	errc := make(chan error, 1)
	go func() {
		errc <- fn()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		c.log.Warnf("abandon pending command: %v", ctx.Err())
		c.Close()
		return ctx.Err()
	}
}
