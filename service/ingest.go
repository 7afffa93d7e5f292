package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"audio-archive/apperr"
	"audio-archive/audio"
	"audio-archive/constant"
	"audio-archive/dto"
	"audio-archive/entities"
	"audio-archive/keys"
)

// placeholderKey fills the object key column between row creation and
// finalization. The real key embeds the row id, which does not exist yet
// when the row is inserted.
const placeholderKey = "pending"

type ingestState string

const (
	stateCreated   ingestState = "created"
	stateSegmented ingestState = "segmented"
	stateUploading ingestState = "uploading"
	stateFinalized ingestState = "finalized"
	stateFailed    ingestState = "failed"
)

// Upload ingests one recording: decode, segment, two-phase row creation,
// object uploads, finalize. On any failure after the row exists it rolls
// back best-effort and reports an ingestion error; no partially visible
// recording survives a failed upload.
func (s *service) Upload(ctx context.Context, caller dto.Caller, vocalizationID uint, file io.ReadSeeker) (*entities.Recording, error) {
	participant, err := s.repo.FindParticipantByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}

	vocalization, err := s.repo.FindVocalization(ctx, vocalizationID)
	if err != nil {
		return nil, err
	}

	clip, err := audio.DecodeWAV(file)
	if err != nil {
		return nil, apperr.Validation("decode upload: %v", err)
	}

	intervals := audio.DetectNonSilent(clip, s.segmentConfig())
	if len(intervals) == 0 {
		return nil, apperr.Validation("recording contains no non-silent audio")
	}

	zerolog.Ctx(ctx).Info().
		Uint("user_id", caller.UserID).
		Uint("vocalization_id", vocalization.ID).
		Int("duration_ms", clip.DurationMs()).
		Int("segment_count", len(intervals)).
		Str("state", string(stateSegmented)).
		Msg("upload segmented")

	now := time.Now()
	rec := &entities.Recording{
		UserID:         caller.UserID,
		ParticipantID:  participant.ID,
		VocalizationID: vocalization.ID,
		ObjectKey:      placeholderKey,
		SegmentKeys:    entities.SegmentKeyList{},
		KeyTimestamp:   now,
	}
	if err := s.repo.CreateRecording(ctx, rec); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to create placeholder recording row")
		return nil, errors.Join(apperr.ErrIngestion, err)
	}

	unlock := s.locks.lock(rec.ID)
	defer unlock()

	zerolog.Ctx(ctx).Info().
		Uint("recording_id", rec.ID).
		Str("state", string(stateCreated)).
		Msg("recording id minted")

	var uploaded []string
	fail := func(cause error) error {
		zerolog.Ctx(ctx).Error().Err(cause).
			Uint("recording_id", rec.ID).
			Str("state", string(stateFailed)).
			Msg("ingestion failed, rolling back")
		s.rollback(ctx, rec.ID, uploaded)
		return errors.Join(apperr.ErrIngestion, cause)
	}

	baseKey := keys.FormatBaseKey(vocalization.Name, rec.ID, participant.ID, now)

	size, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fail(err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fail(err)
	}

	zerolog.Ctx(ctx).Info().
		Uint("recording_id", rec.ID).
		Str("object_key", baseKey).
		Str("state", string(stateUploading)).
		Msg("uploading parent object")

	if err := s.store.Put(ctx, baseKey, file, size, constant.ContentTypeWAV); err != nil {
		return nil, fail(err)
	}
	uploaded = append(uploaded, baseKey)

	tempDir := filepath.Join(s.cfg.TempDir, uuid.NewString())
	defer os.RemoveAll(tempDir)
	if err := os.MkdirAll(tempDir, os.ModePerm); err != nil {
		return nil, fail(err)
	}

	segmentKeys := make(entities.SegmentKeyList, 0, len(intervals))
	baseNoExt := keys.BaseNoExt(baseKey)
	for i, interval := range intervals {
		segmentKey := keys.SegmentKey(baseNoExt, i+1)
		localPath := filepath.Join(tempDir, fmt.Sprintf("segment_%d.wav", i+1))

		if err := audio.WriteWAV(localPath, clip.Slice(interval)); err != nil {
			return nil, fail(err)
		}
		if err := s.store.PutFile(ctx, segmentKey, localPath, constant.ContentTypeWAV); err != nil {
			return nil, fail(err)
		}

		uploaded = append(uploaded, segmentKey)
		segmentKeys = append(segmentKeys, segmentKey)

		zerolog.Ctx(ctx).Debug().
			Uint("recording_id", rec.ID).
			Str("segment_key", segmentKey).
			Int("start_ms", interval.StartMs).
			Int("end_ms", interval.EndMs).
			Msg("segment uploaded")
	}

	if err := s.repo.UpdateRecordingKeys(ctx, rec.ID, baseKey, segmentKeys); err != nil {
		return nil, fail(err)
	}
	rec.ObjectKey = baseKey
	rec.SegmentKeys = segmentKeys

	zerolog.Ctx(ctx).Info().
		Uint("recording_id", rec.ID).
		Str("object_key", baseKey).
		Int("segment_count", len(segmentKeys)).
		Str("state", string(stateFinalized)).
		Msg("ingestion finalized")

	return rec, nil
}

// rollback undoes a failed ingestion attempt: every object written so far
// and the placeholder row. Failures here are logged, never returned; a bad
// rollback must not mask the original failure.
func (s *service) rollback(ctx context.Context, recordingID uint, uploadedKeys []string) {
	for _, key := range uploadedKeys {
		if err := s.store.Delete(ctx, key); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).
				Uint("recording_id", recordingID).
				Str("object_key", key).
				Msg("rollback could not delete object")
		}
	}
	if err := s.repo.DeleteRecording(ctx, recordingID); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Uint("recording_id", recordingID).
			Msg("rollback could not delete recording row")
	}
}
