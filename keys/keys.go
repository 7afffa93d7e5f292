// Package keys implements the object key naming scheme that ties a
// recording's blob objects together. The base key embeds label, recording
// id, participant id and a creation timestamp; every segment object shares
// the base key as prefix followed by "_segment_<n>". Keys are generated
// once and treated as opaque identifiers afterwards: label and timestamp
// live in their own relational columns and are never recovered by parsing
// a key.
package keys

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// Ext is the extension every stored object carries. Uploads are
	// normalized to WAV before they reach the store.
	Ext = ".wav"

	// TimestampLayout matches the minute-resolution layout embedded in
	// base keys, e.g. 2025-03-14-09-30.
	TimestampLayout = "2006-01-02-15-04"

	segmentMarker = "_segment_"
)

// FormatBaseKey builds the canonical object key for a recording. It is only
// well-defined once the relational store has assigned the recording id.
func FormatBaseKey(label string, recordingID, participantID uint, ts time.Time) string {
	return fmt.Sprintf("%s_%d_%d_%s%s",
		strings.ToLower(label), recordingID, participantID, ts.Format(TimestampLayout), Ext)
}

// SegmentKey derives the key of the n-th segment (1-based) from the
// parent's base key without extension.
func SegmentKey(baseNoExt string, n int) string {
	return fmt.Sprintf("%s%s%d%s", baseNoExt, segmentMarker, n, Ext)
}

// BaseNoExt strips the file extension from an object key.
func BaseNoExt(key string) string {
	return strings.TrimSuffix(key, Ext)
}

// SegmentPrefix returns the listing prefix shared by every segment of the
// given parent key. Used for discovery when no authoritative segment list
// was recorded.
func SegmentPrefix(parentKey string) string {
	return BaseNoExt(parentKey) + segmentMarker
}

// ParseSegmentIndex splits a segment key into the parent base (without
// extension) and the 1-based segment index. It reports false for keys that
// do not follow the segment naming scheme. The label itself may contain
// digits or underscores, so the split anchors on the last segment marker
// rather than on field positions.
func ParseSegmentIndex(segmentKey string) (baseNoExt string, index int, ok bool) {
	trimmed := strings.TrimSuffix(segmentKey, Ext)
	i := strings.LastIndex(trimmed, segmentMarker)
	if i < 0 {
		return "", 0, false
	}

	n, err := strconv.Atoi(trimmed[i+len(segmentMarker):])
	if err != nil || n < 1 {
		return "", 0, false
	}

	return trimmed[:i], n, true
}

// RebasedSegmentKey substitutes the old base prefix of a segment key with a
// new one, preserving the numeric suffix. Used by the rename cascade.
func RebasedSegmentKey(segmentKey, newBaseNoExt string) (string, bool) {
	_, n, ok := ParseSegmentIndex(segmentKey)
	if !ok {
		return "", false
	}
	return SegmentKey(newBaseNoExt, n), true
}
