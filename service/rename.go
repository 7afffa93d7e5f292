package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"audio-archive/apperr"
	"audio-archive/entities"
	"audio-archive/keys"
)

// Relabel files a recording under a different vocalization and rewrites the
// parent object key and every segment key so the embedded label text stays
// consistent. A parent rename failure aborts the cascade; segment rename
// failures are skipped and reported as a degraded success.
func (s *service) Relabel(ctx context.Context, id, newVocalizationID uint) (*entities.Recording, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	rec, err := s.repo.FindRecordingByID(ctx, id)
	if err != nil {
		return nil, err
	}

	vocalization, err := s.repo.FindVocalization(ctx, newVocalizationID)
	if err != nil {
		return nil, err
	}

	if err := s.renameCascade(ctx, rec, vocalization.ID, vocalization.Name); err != nil {
		var cerr *apperr.ConsistencyError
		if errors.As(err, &cerr) {
			return rec, err
		}
		return nil, err
	}
	return rec, nil
}

// RenameVocalization is invoked after a label's display name changed; every
// recording filed under it gets the full rename cascade. One recording's
// parent failure does not stop the others.
func (s *service) RenameVocalization(ctx context.Context, vocalizationID uint, newName string) error {
	if _, err := s.repo.FindVocalization(ctx, vocalizationID); err != nil {
		return err
	}
	if err := s.repo.UpdateVocalizationName(ctx, vocalizationID, newName); err != nil {
		return err
	}

	recordings, err := s.repo.ListRecordingsByVocalization(ctx, vocalizationID)
	if err != nil {
		return err
	}

	var errs []error
	for _, rec := range recordings {
		unlock := s.locks.lock(rec.ID)
		err := s.renameCascade(ctx, rec, vocalizationID, newName)
		unlock()
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).
				Uint("recording_id", rec.ID).
				Str("new_name", newName).
				Msg("rename cascade incomplete for recording")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// renameCascade applies the strictly ordered rename steps to one recording:
// compute the new base key, rename the parent, rename each segment in
// ascending index order, then persist the new keys. The relational row is
// only updated after the corresponding store renames succeeded. Caller
// holds the recording lock.
func (s *service) renameCascade(ctx context.Context, rec *entities.Recording, vocalizationID uint, label string) error {
	newBase := keys.FormatBaseKey(label, rec.ID, rec.ParticipantID, rec.KeyTimestamp)
	if newBase == rec.ObjectKey && vocalizationID == rec.VocalizationID {
		return nil
	}

	if err := s.renameObject(ctx, rec.ObjectKey, newBase); err != nil {
		// Parent failure is fatal: segments still carry the old prefix and
		// the row still points at the old key, so nothing is lost yet.
		zerolog.Ctx(ctx).Error().Err(err).
			Uint("recording_id", rec.ID).
			Str("old_key", rec.ObjectKey).
			Str("new_key", newBase).
			Msg("failed to rename parent object")
		return err
	}

	segments, err := s.segmentKeysFor(ctx, rec)
	if err != nil {
		// The parent already moved, so rolling back would lose more than
		// going forward: persist the new base key and report the old
		// segment prefix as stale so the leftovers stay discoverable.
		zerolog.Ctx(ctx).Error().Err(err).
			Uint("recording_id", rec.ID).
			Msg("failed to enumerate segments for rename")
		oldPrefix := keys.SegmentPrefix(rec.ObjectKey)
		if uerr := s.repo.UpdateRecordingVocalization(ctx, rec.ID, vocalizationID, newBase, entities.SegmentKeyList{}); uerr != nil {
			return uerr
		}
		rec.VocalizationID = vocalizationID
		rec.ObjectKey = newBase
		rec.SegmentKeys = entities.SegmentKeyList{}
		return &apperr.ConsistencyError{Op: "rename", RecordingID: rec.ID, StaleKeys: []string{oldPrefix}}
	}

	newBaseNoExt := keys.BaseNoExt(newBase)
	newSegments := make(entities.SegmentKeyList, 0, len(segments))
	var stale []string
	for _, segment := range segments {
		renamed, ok := keys.RebasedSegmentKey(segment, newBaseNoExt)
		if !ok {
			zerolog.Ctx(ctx).Warn().
				Str("segment_key", segment).
				Msg("object does not follow the segment naming scheme, skipping")
			continue
		}
		if err := s.renameObject(ctx, segment, renamed); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).
				Str("segment_key", segment).
				Str("renamed_key", renamed).
				Msg("failed to rename segment object, continuing cascade")
			stale = append(stale, segment)
			continue
		}
		newSegments = append(newSegments, renamed)
	}

	if err := s.repo.UpdateRecordingVocalization(ctx, rec.ID, vocalizationID, newBase, newSegments); err != nil {
		return err
	}
	rec.VocalizationID = vocalizationID
	rec.ObjectKey = newBase
	rec.SegmentKeys = newSegments

	zerolog.Ctx(ctx).Info().
		Uint("recording_id", rec.ID).
		Str("object_key", newBase).
		Int("segment_count", len(newSegments)).
		Int("stale_count", len(stale)).
		Msg("rename cascade applied")

	if len(stale) > 0 {
		return &apperr.ConsistencyError{Op: "rename", RecordingID: rec.ID, StaleKeys: stale}
	}
	return nil
}
