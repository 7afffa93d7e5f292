package audio

import "math"

// SegmentConfig tunes silence detection.
type SegmentConfig struct {
	// MinSilenceLenMs is the minimum run of quiet audio treated as a
	// silence boundary between segments.
	MinSilenceLenMs int

	// SilenceThreshDB is the loudness in dBFS below which a millisecond of
	// audio counts as silent.
	SilenceThreshDB float64

	// PaddingMs is added on both sides of every detected range, clipped to
	// the clip bounds.
	PaddingMs int
}

// DefaultSegmentConfig returns the detection parameters used for uploads
// unless the deployment overrides them.
func DefaultSegmentConfig() SegmentConfig {
	return SegmentConfig{
		MinSilenceLenMs: 300,
		SilenceThreshDB: -40,
		PaddingMs:       200,
	}
}

// Interval is one non-silent range of a clip, in milliseconds from the
// start of the recording.
type Interval struct {
	StartMs int
	EndMs   int
}

func (i Interval) DurationMs() int {
	return i.EndMs - i.StartMs
}

// DetectNonSilent returns the chronological non-silent ranges of the clip.
// A wholly silent clip yields nil; callers treat that as a validation
// failure, not as a zero-segment success.
//
// Ranges whose padded boundaries touch or overlap are merged into one
// interval, so the result never contains duplicated audio.
func DetectNonSilent(c *Clip, cfg SegmentConfig) []Interval {
	totalMs := c.DurationMs()
	if totalMs == 0 {
		return nil
	}

	silent := silenceMap(c, totalMs, cfg.SilenceThreshDB)
	silentRuns := runsAtLeast(silent, cfg.MinSilenceLenMs)
	ranges := complement(silentRuns, totalMs)
	return padAndMerge(ranges, cfg.PaddingMs, totalMs)
}

// silenceMap classifies each millisecond of the clip by RMS loudness.
// Window bounds are computed in samples so rates below 1 kHz, where a
// millisecond covers less than one sample, stay within the slice.
func silenceMap(c *Clip, totalMs int, threshDB float64) []bool {
	full := c.fullScale()

	silent := make([]bool, totalMs)
	for ms := range silent {
		start := ms * c.SampleRate / 1000
		end := (ms + 1) * c.SampleRate / 1000
		if end == start {
			end = start + 1
		}
		if end > len(c.Samples) {
			end = len(c.Samples)
		}
		if start >= end {
			silent[ms] = true
			continue
		}

		var sum float64
		for _, s := range c.Samples[start:end] {
			sum += float64(s) * float64(s)
		}
		rms := math.Sqrt(sum / float64(end-start))
		if rms == 0 {
			silent[ms] = true
			continue
		}
		silent[ms] = 20*math.Log10(rms/full) < threshDB
	}
	return silent
}

// runsAtLeast finds maximal true-runs of at least minLen entries.
func runsAtLeast(silent []bool, minLen int) []Interval {
	var runs []Interval
	start := -1
	for i, s := range silent {
		if s && start < 0 {
			start = i
		}
		if !s && start >= 0 {
			if i-start >= minLen {
				runs = append(runs, Interval{StartMs: start, EndMs: i})
			}
			start = -1
		}
	}
	if start >= 0 && len(silent)-start >= minLen {
		runs = append(runs, Interval{StartMs: start, EndMs: len(silent)})
	}
	return runs
}

// complement returns the ranges of [0, totalMs) not covered by the given
// chronological runs.
func complement(runs []Interval, totalMs int) []Interval {
	var out []Interval
	cursor := 0
	for _, r := range runs {
		if r.StartMs > cursor {
			out = append(out, Interval{StartMs: cursor, EndMs: r.StartMs})
		}
		cursor = r.EndMs
	}
	if cursor < totalMs {
		out = append(out, Interval{StartMs: cursor, EndMs: totalMs})
	}
	return out
}

func padAndMerge(ranges []Interval, paddingMs, totalMs int) []Interval {
	var out []Interval
	for _, r := range ranges {
		start := r.StartMs - paddingMs
		if start < 0 {
			start = 0
		}
		end := r.EndMs + paddingMs
		if end > totalMs {
			end = totalMs
		}

		if n := len(out); n > 0 && start <= out[n-1].EndMs {
			out[n-1].EndMs = end
			continue
		}
		out = append(out, Interval{StartMs: start, EndMs: end})
	}
	return out
}
