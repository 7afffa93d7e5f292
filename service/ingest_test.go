package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audio-archive/apperr"
	"audio-archive/audio"
	"audio-archive/keys"
)

func TestUploadTwoBursts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	upload := wavUpload(t, 10_000,
		audio.Interval{StartMs: 1000, EndMs: 2000},
		audio.Interval{StartMs: 5000, EndMs: 6500},
	)

	rec, err := f.svc.Upload(ctx, f.caller(), f.vocalization.ID, upload)
	require.NoError(t, err)

	expectedKey := keys.FormatBaseKey("bark", rec.ID, f.participant.ID, rec.KeyTimestamp)
	assert.Equal(t, expectedKey, rec.ObjectKey)
	require.Len(t, rec.SegmentKeys, 2)

	base := keys.BaseNoExt(rec.ObjectKey)
	assert.Equal(t, keys.SegmentKey(base, 1), rec.SegmentKeys[0])
	assert.Equal(t, keys.SegmentKey(base, 2), rec.SegmentKeys[1])

	// Upload of N detected intervals yields exactly 1+N retrievable
	// objects, each non-empty.
	stored := f.store.Keys()
	require.Len(t, stored, 3)
	for _, key := range stored {
		assert.Greater(t, f.store.ObjectSize(key), 0, "object %s should be non-empty", key)
	}

	persisted, err := f.repo.FindRecordingByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ObjectKey, persisted.ObjectKey)
	assert.Equal(t, rec.SegmentKeys, persisted.SegmentKeys)
}

func TestUploadWhollySilentIsValidationError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Upload(ctx, f.caller(), f.vocalization.ID, wavUpload(t, 10_000))
	require.ErrorIs(t, err, apperr.ErrValidation)

	// No row and no object may survive a rejected upload.
	recs, listErr := f.repo.ListRecordings(ctx)
	require.NoError(t, listErr)
	assert.Empty(t, recs)
	assert.Empty(t, f.store.Keys())
}

func TestUploadNonAudioContent(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Upload(context.Background(), f.caller(), f.vocalization.ID,
		bytes.NewReader([]byte("definitely not a wav file")))
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUploadUnknownVocalization(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Upload(context.Background(), f.caller(), 404,
		wavUpload(t, 2000, audio.Interval{StartMs: 500, EndMs: 1500}))
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUploadCallerWithoutParticipant(t *testing.T) {
	f := newFixture(t)
	orphanCaller := admin()

	_, err := f.svc.Upload(context.Background(), orphanCaller, f.vocalization.ID,
		wavUpload(t, 2000, audio.Interval{StartMs: 500, EndMs: 1500}))
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUploadSegmentFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.FailPutContains = "_segment_2"

	_, err := f.svc.Upload(ctx, f.caller(), f.vocalization.ID,
		wavUpload(t, 10_000,
			audio.Interval{StartMs: 1000, EndMs: 2000},
			audio.Interval{StartMs: 5000, EndMs: 6500},
		))
	require.ErrorIs(t, err, apperr.ErrIngestion)

	// Rollback removed the placeholder row, the parent object and the
	// first segment.
	recs, listErr := f.repo.ListRecordings(ctx)
	require.NoError(t, listErr)
	assert.Empty(t, recs)
	assert.Empty(t, f.store.Keys())
}

func TestUploadParentFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.FailPutContains = "bark_"

	_, err := f.svc.Upload(ctx, f.caller(), f.vocalization.ID,
		wavUpload(t, 2000, audio.Interval{StartMs: 500, EndMs: 1500}))
	require.ErrorIs(t, err, apperr.ErrIngestion)

	recs, listErr := f.repo.ListRecordings(ctx)
	require.NoError(t, listErr)
	assert.Empty(t, recs)
	assert.Empty(t, f.store.Keys())
}
