// Package mock provides a scripted fake of Audacity's mod-script-pipe.
package mock

import (
	"io"
	"strings"
	"sync"
	"time"
)

// OK is the response Audacity sends for successful commands.
const OK = "BatchCommand finished: OK"

// Peer reads commands from one stream and answers on another. Zero value
// answers every command with OK.
type Peer struct {
	// Terminator splits incoming commands, "\n" when empty.
	Terminator string
	// Respond returns response lines for the command.
	Respond func(command string) []string
	// Hang returns true for commands which are never answered.
	Hang func(command string) bool
	// LineDelay is a pause before every response line.
	LineDelay time.Duration

	mu          sync.Mutex
	commands    []string
	responding  bool
	interleaved int
}

// Start serves the peer over in-memory pipes. The client writes commands
// into returned writer and reads responses from returned reader. The peer
// stops when the writer is closed.
func (p *Peer) Start() (io.WriteCloser, io.ReadCloser) {
	cmdR, cmdW := io.Pipe()
	respR, respW := io.Pipe()
	go func() {
		p.Serve(cmdR, respW)
		respW.Close()
		cmdR.Close()
	}()
	return cmdW, respR
}

// Serve reads commands from cmd until it's exhausted and writes responses
// into resp.
func (p *Peer) Serve(cmd io.Reader, resp io.Writer) {
	term := p.Terminator
	if term == "" {
		term = "\n"
	}
	commands := make(chan string, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.respond(commands, resp)
	}()

	var pending strings.Builder
	buf := make([]byte, 512)
	for {
		n, err := cmd.Read(buf)
		for _, b := range buf[:n] {
			p.mu.Lock()
			if p.responding {
				p.interleaved++
			}
			pending.WriteByte(b)
			var command string
			complete := strings.HasSuffix(pending.String(), term)
			if complete {
				command = strings.TrimSuffix(pending.String(), term)
				pending.Reset()
				p.commands = append(p.commands, command)
				p.responding = true
			}
			p.mu.Unlock()
			if complete {
				commands <- command
			}
		}
		if err != nil {
			break
		}
	}
	close(commands)
	<-done
}

func (p *Peer) respond(commands <-chan string, resp io.Writer) {
	var failed bool
	for command := range commands {
		if failed || (p.Hang != nil && p.Hang(command)) {
			continue
		}
		lines := []string{OK}
		if p.Respond != nil {
			lines = p.Respond(command)
		}
		for _, line := range lines {
			time.Sleep(p.LineDelay)
			if _, err := io.WriteString(resp, line+"\n"); err != nil {
				failed = true
				break
			}
		}
		if failed {
			continue
		}
		time.Sleep(p.LineDelay)
		// client may send next command as soon as the blank line is read.
		p.mu.Lock()
		p.responding = false
		p.mu.Unlock()
		if _, err := io.WriteString(resp, "\n"); err != nil {
			failed = true
		}
	}
}

// Commands returns all received commands.
func (p *Peer) Commands() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.commands...)
}

// Interleaved returns number of bytes received while a response was
// still being written.
func (p *Peer) Interleaved() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interleaved
}
