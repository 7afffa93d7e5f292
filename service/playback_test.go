package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audio-archive/apperr"
	"audio-archive/constant"
	"audio-archive/dto"
)

func TestPlaybackURLOwner(t *testing.T) {
	f := newFixture(t)
	rec := uploadTwoSegments(t, f)

	url, err := f.svc.PlaybackURL(context.Background(), f.caller(), rec.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, url)
}

func TestPlaybackURLAdmin(t *testing.T) {
	f := newFixture(t)
	rec := uploadTwoSegments(t, f)

	url, err := f.svc.PlaybackURL(context.Background(), admin(), rec.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, url)
}

func TestPlaybackURLForeignUserDenied(t *testing.T) {
	f := newFixture(t)
	rec := uploadTwoSegments(t, f)
	stranger := dto.Caller{UserID: f.user.ID + 100, Role: constant.RoleUser}

	_, err := f.svc.PlaybackURL(context.Background(), stranger, rec.ID)
	require.ErrorIs(t, err, apperr.ErrPermission)
}

func TestPlaybackURLUnknownRecording(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PlaybackURL(context.Background(), admin(), 404)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListByUserPermissions(t *testing.T) {
	f := newFixture(t)
	uploadTwoSegments(t, f)

	recs, err := f.svc.ListByUser(context.Background(), f.caller(), f.user.ID)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	stranger := dto.Caller{UserID: f.user.ID + 100, Role: constant.RoleUser}
	_, err = f.svc.ListByUser(context.Background(), stranger, f.user.ID)
	require.ErrorIs(t, err, apperr.ErrPermission)

	recs, err = f.svc.ListByUser(context.Background(), admin(), f.user.ID)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}
