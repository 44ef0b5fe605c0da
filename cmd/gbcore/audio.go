package main

import (
	"encoding/binary"

	"github.com/pixelclock/gbcore/internal/machine"
)

// machineAudioStream implements io.Reader by pulling interleaved stereo
// float32 samples from the emulator and converting them to the 16-bit
// little-endian PCM ebiten/v2's audio package expects.
type machineAudioStream struct {
	m *machine.Machine
}

func (s *machineAudioStream) Read(p []byte) (int, error) {
	if len(p) < 4 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	want := len(p) / 4
	if buffered := s.m.BufferedAudioFrames(); buffered < want {
		want = buffered
	}
	samples := s.m.DrainAudio(want)
	if len(samples) == 0 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	i := 0
	for j := 0; j+1 < len(samples) && i+3 < len(p); j += 2 {
		l := int16(samples[j] * 32767)
		r := int16(samples[j+1] * 32767)
		binary.LittleEndian.PutUint16(p[i:], uint16(l))
		binary.LittleEndian.PutUint16(p[i+2:], uint16(r))
		i += 4
	}
	for ; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}
