// Package audio decodes uploaded WAV recordings and detects their
// non-silent ranges. Detection is a pure function over decoded samples so
// it can run without touching disk or network.
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Clip is a decoded mono PCM signal.
type Clip struct {
	Samples    []int
	SampleRate int
	BitDepth   int
}

// DurationMs returns the clip length in whole milliseconds.
func (c *Clip) DurationMs() int {
	if c.SampleRate == 0 {
		return 0
	}
	return len(c.Samples) * 1000 / c.SampleRate
}

// fullScale returns the absolute value of the largest representable sample.
func (c *Clip) fullScale() float64 {
	return float64(int64(1) << (c.BitDepth - 1))
}

// DecodeWAV decodes a WAV stream into a mono clip. Stereo input is downmixed
// by averaging channel pairs. Returns a validation-style error for anything
// that is not a decodable 16/24/32-bit, mono or stereo WAV file.
func DecodeWAV(rs io.ReadSeeker) (*Clip, error) {
	decoder := wav.NewDecoder(rs)
	decoder.ReadInfo()

	if !decoder.IsValidFile() {
		return nil, errors.New("input is not a valid WAV audio file")
	}
	if decoder.BitDepth != 16 && decoder.BitDepth != 24 && decoder.BitDepth != 32 {
		return nil, fmt.Errorf("unsupported bit depth: %d", decoder.BitDepth)
	}
	if decoder.NumChans != 1 && decoder.NumChans != 2 {
		return nil, fmt.Errorf("unsupported number of channels: %d", decoder.NumChans)
	}

	channels := int(decoder.NumChans)
	buf := &gaudio.IntBuffer{
		Data: make([]int, 32*1024),
		Format: &gaudio.Format{
			SampleRate:  int(decoder.SampleRate),
			NumChannels: channels,
		},
	}

	var samples []int
	for {
		n, err := decoder.PCMBuffer(buf)
		if err != nil {
			return nil, fmt.Errorf("read PCM data: %w", err)
		}
		if n == 0 {
			break
		}

		frame := buf.Data[:n]
		if channels == 2 {
			for i := 0; i+1 < len(frame); i += 2 {
				samples = append(samples, (frame[i]+frame[i+1])/2)
			}
		} else {
			samples = append(samples, frame...)
		}
	}

	return &Clip{
		Samples:    samples,
		SampleRate: int(decoder.SampleRate),
		BitDepth:   int(decoder.BitDepth),
	}, nil
}

// Slice returns the sub-clip covering [iv.StartMs, iv.EndMs), sharing the
// underlying sample slice.
func (c *Clip) Slice(iv Interval) *Clip {
	start := iv.StartMs * c.SampleRate / 1000
	end := iv.EndMs * c.SampleRate / 1000
	if start < 0 {
		start = 0
	}
	if end > len(c.Samples) {
		end = len(c.Samples)
	}
	if start > end {
		start = end
	}
	return &Clip{Samples: c.Samples[start:end], SampleRate: c.SampleRate, BitDepth: c.BitDepth}
}

// WriteWAV encodes the clip as a standalone mono WAV file at path.
func WriteWAV(path string, c *Clip) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(f, c.SampleRate, c.BitDepth, 1, 1)
	buf := &gaudio.IntBuffer{
		Data:           c.Samples,
		Format:         &gaudio.Format{SampleRate: c.SampleRate, NumChannels: 1},
		SourceBitDepth: c.BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("encode WAV: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalize WAV: %w", err)
	}
	return f.Close()
}
