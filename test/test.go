// Package test contains helper functions usefull for testing sao packages.
package test

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/Ocrabit/sao-guidance/signal"
	"github.com/Ocrabit/sao-guidance/wav"
)

// Fixture attributes shared by all test packages.
const (
	SampleRate = 16000
	// TicksPerQuarter is the resolution of generated midi files. At the
	// default tempo of 120 bpm a quarter note is 500ms long.
	TicksPerQuarter = 960
)

// Sine returns a mono sine signal.
func Sine(freq float64, sampleRate int, d time.Duration, amp float64) signal.Float64 {
	n := signal.SamplesIn(sampleRate, d)
	s := signal.Empty(1, n)
	for i := range s[0] {
		s[0][i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return s
}

// WriteSine writes a 16 bit sine wav into dir and returns its path.
func WriteSine(t testing.TB, dir, name string, freq float64, d time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := wav.EncodeFile(path, Sine(freq, SampleRate, d, 0.5), SampleRate, signal.BitDepth16); err != nil {
		t.Fatalf("write sine: %v", err)
	}
	return path
}

// Note is a note of generated melody, durations are in quarters.
type Note struct {
	Key      uint8
	Rest     uint32
	Quarters uint32
}

// Melody returns a single-track standard midi file with notes played one
// after another on channel 0.
func Melody(t testing.TB, notes ...Note) []byte {
	t.Helper()
	var tr smf.Track
	for _, n := range notes {
		tr.Add(n.Rest*TicksPerQuarter, midi.NoteOn(0, n.Key, 100))
		tr.Add(n.Quarters*TicksPerQuarter, midi.NoteOff(0, n.Key))
	}
	tr.Close(0)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)
	if err := s.Add(tr); err != nil {
		t.Fatalf("add track: %v", err)
	}
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatalf("write smf: %v", err)
	}
	return buf.Bytes()
}
