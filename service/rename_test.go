package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audio-archive/apperr"
	"audio-archive/audio"
	"audio-archive/entities"
	"audio-archive/keys"
)

func uploadTwoSegments(t *testing.T, f *fixture) *entities.Recording {
	t.Helper()
	rec, err := f.svc.Upload(context.Background(), f.caller(), f.vocalization.ID,
		wavUpload(t, 10_000,
			audio.Interval{StartMs: 1000, EndMs: 2000},
			audio.Interval{StartMs: 5000, EndMs: 6500},
		))
	require.NoError(t, err)
	return rec
}

func TestRelabelRewritesParentAndSegments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := uploadTwoSegments(t, f)
	oldKey := rec.ObjectKey
	growl := f.repo.AddVocalization(&entities.Vocalization{Name: "growl", UserID: f.user.ID})

	updated, err := f.svc.Relabel(ctx, rec.ID, growl.ID)
	require.NoError(t, err)

	expected := keys.FormatBaseKey("growl", rec.ID, rec.ParticipantID, rec.KeyTimestamp)
	assert.Equal(t, expected, updated.ObjectKey)
	require.Len(t, updated.SegmentKeys, 2)

	// Numeric suffixes and order are preserved, only the prefix moved.
	newBase := keys.BaseNoExt(expected)
	for i, segment := range updated.SegmentKeys {
		gotBase, n, ok := keys.ParseSegmentIndex(segment)
		require.True(t, ok)
		assert.Equal(t, newBase, gotBase)
		assert.Equal(t, i+1, n)
	}

	// Old keys are gone from the store, new ones exist.
	for _, key := range f.store.Keys() {
		assert.True(t, strings.HasPrefix(key, "growl_"), "unexpected key %s", key)
	}
	exists, err := f.store.Exists(ctx, oldKey)
	require.NoError(t, err)
	assert.False(t, exists)

	persisted, err := f.repo.FindRecordingByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, growl.ID, persisted.VocalizationID)
	assert.Equal(t, expected, persisted.ObjectKey)
}

func TestRelabelUnknownVocalization(t *testing.T) {
	f := newFixture(t)
	rec := uploadTwoSegments(t, f)

	_, err := f.svc.Relabel(context.Background(), rec.ID, 404)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	// Row and store untouched.
	persisted, findErr := f.repo.FindRecordingByID(context.Background(), rec.ID)
	require.NoError(t, findErr)
	assert.Equal(t, rec.ObjectKey, persisted.ObjectKey)
}

func TestRelabelParentCopyFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := uploadTwoSegments(t, f)
	growl := f.repo.AddVocalization(&entities.Vocalization{Name: "growl", UserID: f.user.ID})

	f.store.FailCopyContains = "bark_"
	_, err := f.svc.Relabel(ctx, rec.ID, growl.ID)
	require.ErrorIs(t, err, apperr.ErrStorage)

	// Nothing moved: row and every object still carry the old prefix.
	persisted, findErr := f.repo.FindRecordingByID(ctx, rec.ID)
	require.NoError(t, findErr)
	assert.Equal(t, rec.ObjectKey, persisted.ObjectKey)
	for _, key := range f.store.Keys() {
		assert.True(t, strings.HasPrefix(key, "bark_"))
	}
}

func TestRelabelMissingSegmentDegradesToConsistencyError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := uploadTwoSegments(t, f)
	growl := f.repo.AddVocalization(&entities.Vocalization{Name: "growl", UserID: f.user.ID})

	// Simulate an earlier partial failure: the second segment object is
	// gone from the store but still listed on the row.
	require.NoError(t, f.store.Delete(ctx, rec.SegmentKeys[1]))

	_, err := f.svc.Relabel(ctx, rec.ID, growl.ID)
	require.ErrorIs(t, err, apperr.ErrConsistency)

	var cerr *apperr.ConsistencyError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, []string{rec.SegmentKeys[1]}, cerr.StaleKeys)

	// The row carries the new label and only the segment that made it.
	persisted, findErr := f.repo.FindRecordingByID(ctx, rec.ID)
	require.NoError(t, findErr)
	assert.Equal(t, growl.ID, persisted.VocalizationID)
	require.Len(t, persisted.SegmentKeys, 1)
	_, n, ok := keys.ParseSegmentIndex(persisted.SegmentKeys[0])
	require.True(t, ok)
	assert.Equal(t, 1, n)
}

func TestRelabelSegmentListingFailureDegradesToConsistencyError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := uploadTwoSegments(t, f)
	oldKey := rec.ObjectKey
	oldSegments := rec.SegmentKeys
	growl := f.repo.AddVocalization(&entities.Vocalization{Name: "growl", UserID: f.user.ID})

	// Legacy row forces the prefix scan, which fails after the parent has
	// already moved. The old segment prefix must come back as stale rather
	// than the segments silently dropping off the row.
	require.NoError(t, f.repo.UpdateRecordingKeys(ctx, rec.ID, oldKey, entities.SegmentKeyList{}))

	f.store.FailListContains = "bark_"
	_, err := f.svc.Relabel(ctx, rec.ID, growl.ID)
	require.ErrorIs(t, err, apperr.ErrConsistency)

	var cerr *apperr.ConsistencyError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, []string{keys.SegmentPrefix(oldKey)}, cerr.StaleKeys)

	// The row follows the parent object; the old-prefix segments survive in
	// the store for reconciliation.
	persisted, findErr := f.repo.FindRecordingByID(ctx, rec.ID)
	require.NoError(t, findErr)
	expected := keys.FormatBaseKey("growl", rec.ID, rec.ParticipantID, rec.KeyTimestamp)
	assert.Equal(t, expected, persisted.ObjectKey)
	assert.Empty(t, persisted.SegmentKeys)
	for _, segment := range oldSegments {
		exists, err := f.store.Exists(ctx, segment)
		require.NoError(t, err)
		assert.True(t, exists, "segment %s", segment)
	}
}

func TestRelabelRetryAfterInterruptedParentRename(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := uploadTwoSegments(t, f)
	growl := f.repo.AddVocalization(&entities.Vocalization{Name: "growl", UserID: f.user.ID})

	// A previous attempt renamed the parent object but was interrupted
	// before touching segments or the row: destination exists, source is
	// gone.
	newKey := keys.FormatBaseKey("growl", rec.ID, rec.ParticipantID, rec.KeyTimestamp)
	require.NoError(t, f.store.Copy(ctx, rec.ObjectKey, newKey))
	require.NoError(t, f.store.Delete(ctx, rec.ObjectKey))

	updated, err := f.svc.Relabel(ctx, rec.ID, growl.ID)
	require.NoError(t, err)
	assert.Equal(t, newKey, updated.ObjectKey)
	require.Len(t, updated.SegmentKeys, 2)
}

func TestRenameVocalizationCascadesToAllRecordings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := uploadTwoSegments(t, f)
	second := uploadTwoSegments(t, f)

	require.NoError(t, f.svc.RenameVocalization(ctx, f.vocalization.ID, "Growl"))

	voc, err := f.repo.FindVocalization(ctx, f.vocalization.ID)
	require.NoError(t, err)
	assert.Equal(t, "Growl", voc.Name)

	for _, id := range []uint{first.ID, second.ID} {
		persisted, err := f.repo.FindRecordingByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(persisted.ObjectKey, "growl_"), "key %s", persisted.ObjectKey)
	}
	for _, key := range f.store.Keys() {
		assert.True(t, strings.HasPrefix(key, "growl_"), "key %s", key)
	}
}
