// Package midi reads standard midi files into a flat list of notes with
// absolute timing.
package midi

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"gitlab.com/gomidi/midi/v2/smf"
)

// Note is a single sounding note.
type Note struct {
	Track    int
	Channel  uint8
	Key      uint8
	Velocity uint8
	Start    time.Duration
	End      time.Duration
}

// Duration returns how long the note sounds.
func (n Note) Duration() time.Duration {
	return n.End - n.Start
}

// Frequency returns pitch of the note in Hz.
func (n Note) Frequency() float64 {
	return Frequency(n.Key)
}

// Sequence is a set of notes sorted by start time.
type Sequence struct {
	Notes []Note
	// Duration is the time of the latest event in the file.
	Duration time.Duration
}

// Frequency converts midi key number to Hz in equal temperament, A4 = 440.
func Frequency(key uint8) float64 {
	return 440 * math.Pow(2, (float64(key)-69)/12)
}

// Key converts frequency to the nearest midi key number. Frequencies out
// of midi range are clamped.
func Key(freq float64) uint8 {
	if freq <= 0 {
		return 0
	}
	k := math.Round(69 + 12*math.Log2(freq/440))
	switch {
	case k < 0:
		return 0
	case k > 127:
		return 127
	}
	return uint8(k)
}

type voice struct {
	track   int
	channel uint8
	key     uint8
}

// Read parses a standard midi file. Tempo changes are honoured. Notes
// which are never released are closed at the last event of the file.
func Read(r io.Reader) (*Sequence, error) {
	var (
		seq    Sequence
		active = make(map[voice][]int)
	)
	release := func(v voice, at time.Duration) {
		started := active[v]
		if len(started) == 0 {
			return
		}
		// first in, first out for overlapping notes on the same key.
		seq.Notes[started[0]].End = at
		active[v] = started[1:]
	}

	rd := smf.ReadTracksFrom(r).Do(func(ev smf.TrackEvent) {
		at := time.Duration(ev.AbsMicroSeconds) * time.Microsecond
		if at > seq.Duration {
			seq.Duration = at
		}
		var channel, key, velocity uint8
		switch {
		case ev.Message.GetNoteStart(&channel, &key, &velocity):
			v := voice{track: ev.TrackNo, channel: channel, key: key}
			active[v] = append(active[v], len(seq.Notes))
			seq.Notes = append(seq.Notes, Note{
				Track:    ev.TrackNo,
				Channel:  channel,
				Key:      key,
				Velocity: velocity,
				Start:    at,
				End:      -1,
			})
		case ev.Message.GetNoteEnd(&channel, &key):
			release(voice{track: ev.TrackNo, channel: channel, key: key}, at)
		}
	})
	if err := rd.Error(); err != nil {
		return nil, fmt.Errorf("read smf: %w", err)
	}

	for i := range seq.Notes {
		if seq.Notes[i].End < 0 {
			seq.Notes[i].End = seq.Duration
		}
	}
	sort.SliceStable(seq.Notes, func(i, j int) bool {
		return seq.Notes[i].Start < seq.Notes[j].Start
	})
	return &seq, nil
}

// ReadFile opens the file at path and parses it.
func ReadFile(path string) (*Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// At returns notes sounding at time t. A note sounds in [Start, End).
func (s *Sequence) At(t time.Duration) []Note {
	var result []Note
	for _, n := range s.Notes {
		if n.Start > t {
			break
		}
		if t < n.End {
			result = append(result, n)
		}
	}
	return result
}
