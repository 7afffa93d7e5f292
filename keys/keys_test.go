package keys

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatBaseKey(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	key := FormatBaseKey("Bark", 42, 7, ts)
	assert.Equal(t, "bark_42_7_2025-03-14-09-30.wav", key)
}

func TestSegmentKeyRoundTrip(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	base := BaseNoExt(FormatBaseKey("growl", 3, 11, ts))

	for n := 1; n <= 12; n++ {
		seg := SegmentKey(base, n)
		gotBase, gotN, ok := ParseSegmentIndex(seg)
		require.True(t, ok, "key %q should parse", seg)
		assert.Equal(t, base, gotBase)
		assert.Equal(t, n, gotN)
	}
}

func TestParseSegmentIndexLabelWithUnderscoresAndDigits(t *testing.T) {
	// Labels may themselves contain digits, hyphens and underscores; the
	// parse must anchor on the last segment marker.
	base := "cry_type_2_15_8_2025-01-02-10-00"
	seg := SegmentKey(base, 4)

	gotBase, n, ok := ParseSegmentIndex(seg)
	require.True(t, ok)
	assert.Equal(t, base, gotBase)
	assert.Equal(t, 4, n)
}

func TestParseSegmentIndexRejectsNonSegmentKeys(t *testing.T) {
	cases := []string{
		"bark_42_7_2025-03-14-09-30.wav",
		"bark_42_7_segment_.wav",
		"bark_42_7_segment_zero.wav",
		"bark_42_7_segment_0.wav",
		"",
	}
	for _, key := range cases {
		_, _, ok := ParseSegmentIndex(key)
		assert.False(t, ok, "key %q should not parse as segment", key)
	}
}

func TestSegmentPrefix(t *testing.T) {
	assert.Equal(t, "bark_42_7_2025-03-14-09-30_segment_",
		SegmentPrefix("bark_42_7_2025-03-14-09-30.wav"))
}

func TestRebasedSegmentKey(t *testing.T) {
	oldBase := "bark_42_7_2025-03-14-09-30"
	newBase := "growl_42_7_2025-03-14-09-30"

	for n := 1; n <= 3; n++ {
		rebased, ok := RebasedSegmentKey(SegmentKey(oldBase, n), newBase)
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("%s_segment_%d.wav", newBase, n), rebased)
	}

	_, ok := RebasedSegmentKey("not-a-segment.wav", newBase)
	assert.False(t, ok)
}
