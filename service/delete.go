package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"audio-archive/apperr"
	"audio-archive/entities"
)

// DeleteRecording removes one recording: parent object, every segment
// object, then the relational row. Deleting an already-deleted recording is
// a no-op success.
func (s *service) DeleteRecording(ctx context.Context, id uint) error {
	unlock := s.locks.lock(id)
	defer unlock()

	rec, err := s.repo.FindRecordingByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.deleteCascade(ctx, rec)
}

// DeleteRecordingsByUser removes every recording owned by the user, leaving
// the user row in place. Backs the admin bulk-delete endpoint.
func (s *service) DeleteRecordingsByUser(ctx context.Context, userID uint) error {
	if _, err := s.repo.FindUser(ctx, userID); err != nil {
		return err
	}
	recordings, err := s.repo.ListRecordingsByUser(ctx, userID)
	if err != nil {
		return err
	}
	return s.cascadeAll(ctx, recordings)
}

// DeleteUserCascade handles the upstream deletion of a user: every owned
// recording goes through the per-recording cascade, then the user row is
// removed.
func (s *service) DeleteUserCascade(ctx context.Context, userID uint) error {
	recordings, err := s.repo.ListRecordingsByUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.cascadeAll(ctx, recordings); err != nil {
		return err
	}
	return s.repo.DeleteUser(ctx, userID)
}

func (s *service) DeleteParticipantCascade(ctx context.Context, participantID uint) error {
	recordings, err := s.repo.ListRecordingsByParticipant(ctx, participantID)
	if err != nil {
		return err
	}
	if err := s.cascadeAll(ctx, recordings); err != nil {
		return err
	}
	return s.repo.DeleteParticipant(ctx, participantID)
}

func (s *service) DeleteVocalizationCascade(ctx context.Context, vocalizationID uint) error {
	recordings, err := s.repo.ListRecordingsByVocalization(ctx, vocalizationID)
	if err != nil {
		return err
	}
	if err := s.cascadeAll(ctx, recordings); err != nil {
		return err
	}
	return s.repo.DeleteVocalization(ctx, vocalizationID)
}

func (s *service) cascadeAll(ctx context.Context, recordings []*entities.Recording) error {
	var errs []error
	for _, rec := range recordings {
		unlock := s.locks.lock(rec.ID)
		err := s.deleteCascade(ctx, rec)
		unlock()
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).
				Uint("recording_id", rec.ID).
				Msg("delete cascade incomplete for recording")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// deleteCascade deletes one recording's objects then its row. A parent
// delete failure aborts; segment deletes are best-effort, reported as a
// degraded success when any are left behind. Caller holds the recording
// lock.
func (s *service) deleteCascade(ctx context.Context, rec *entities.Recording) error {
	// Nothing has been mutated yet, so an enumeration failure aborts the
	// whole cascade and a retry starts clean.
	segments, err := s.segmentKeysFor(ctx, rec)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Uint("recording_id", rec.ID).
			Msg("failed to enumerate segments for delete")
		return err
	}

	if rec.ObjectKey != placeholderKey {
		if err := s.store.Delete(ctx, rec.ObjectKey); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).
				Uint("recording_id", rec.ID).
				Str("object_key", rec.ObjectKey).
				Msg("failed to delete parent object")
			return err
		}
	}

	var stale []string
	for _, segment := range segments {
		if err := s.store.Delete(ctx, segment); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).
				Str("segment_key", segment).
				Msg("failed to delete segment object, continuing cascade")
			stale = append(stale, segment)
		}
	}

	if err := s.repo.DeleteRecording(ctx, rec.ID); err != nil {
		return err
	}

	zerolog.Ctx(ctx).Info().
		Uint("recording_id", rec.ID).
		Str("object_key", rec.ObjectKey).
		Int("segment_count", len(segments)).
		Int("stale_count", len(stale)).
		Msg("delete cascade applied")

	if len(stale) > 0 {
		return &apperr.ConsistencyError{Op: "delete", RecordingID: rec.ID, StaleKeys: stale}
	}
	return nil
}
