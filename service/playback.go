package service

import (
	"context"
	"fmt"

	"audio-archive/apperr"
	"audio-archive/dto"
	"audio-archive/entities"
)

// Get returns one recording, admin or owner only.
func (s *service) Get(ctx context.Context, caller dto.Caller, id uint) (*entities.Recording, error) {
	rec, err := s.repo.FindRecordingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && caller.UserID != rec.UserID {
		return nil, fmt.Errorf("%w: recording %d", apperr.ErrPermission, id)
	}
	return rec, nil
}

func (s *service) List(ctx context.Context) ([]*entities.Recording, error) {
	return s.repo.ListRecordings(ctx)
}

func (s *service) ListByUser(ctx context.Context, caller dto.Caller, userID uint) ([]*entities.Recording, error) {
	if !caller.IsAdmin() && caller.UserID != userID {
		return nil, fmt.Errorf("%w: recordings of user %d", apperr.ErrPermission, userID)
	}
	if _, err := s.repo.FindUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.ListRecordingsByUser(ctx, userID)
}

// PlaybackURL returns a presigned, time-limited read URL for the parent
// object. Keys are never handed to callers directly.
func (s *service) PlaybackURL(ctx context.Context, caller dto.Caller, id uint) (string, error) {
	rec, err := s.Get(ctx, caller, id)
	if err != nil {
		return "", err
	}
	return s.store.PresignedGet(ctx, rec.ObjectKey, s.cfg.PresignTTL)
}
