package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileCleanState(t *testing.T) {
	f := newFixture(t)
	uploadTwoSegments(t, f)

	report, err := f.svc.Reconcile(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, report.Orphans)
	assert.Empty(t, report.Missing)
	assert.Zero(t, report.Repaired)
}

func TestReconcileReportsOrphan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uploadTwoSegments(t, f)

	orphan := "bark_777_1_2020-01-01-00-00.wav"
	require.NoError(t, f.store.Put(ctx, orphan, bytes.NewReader([]byte("x")), -1, "audio/wav"))

	report, err := f.svc.Reconcile(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{orphan}, report.Orphans)

	// Dry run leaves the store untouched.
	exists, err := f.store.Exists(ctx, orphan)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestReconcileRepairDeletesOrphan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uploadTwoSegments(t, f)

	orphan := "bark_777_1_2020-01-01-00-00.wav"
	require.NoError(t, f.store.Put(ctx, orphan, bytes.NewReader([]byte("x")), -1, "audio/wav"))

	report, err := f.svc.Reconcile(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Repaired)

	exists, err := f.store.Exists(ctx, orphan)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestReconcileRepairTrimsMissingSegments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := uploadTwoSegments(t, f)

	// One listed segment object vanished from the store.
	require.NoError(t, f.store.Delete(ctx, rec.SegmentKeys[1]))

	report, err := f.svc.Reconcile(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{rec.SegmentKeys[1]}, report.Missing)
	assert.Equal(t, 1, report.Repaired)

	persisted, err := f.repo.FindRecordingByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{rec.SegmentKeys[0]}, []string(persisted.SegmentKeys))
}
