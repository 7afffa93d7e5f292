package service

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"audio-archive/apperr"
	"audio-archive/audio"
	"audio-archive/config"
	"audio-archive/dto"
	"audio-archive/entities"
	"audio-archive/keys"
	"audio-archive/pkg/objectstore"
	"audio-archive/repository"
)

// Service drives the recording lifecycle: ingestion, playback, the rename
// and deletion cascades, and reconciliation between the relational rows and
// the blob store.
type Service interface {
	Upload(ctx context.Context, caller dto.Caller, vocalizationID uint, file io.ReadSeeker) (*entities.Recording, error)
	Get(ctx context.Context, caller dto.Caller, id uint) (*entities.Recording, error)
	List(ctx context.Context) ([]*entities.Recording, error)
	ListByUser(ctx context.Context, caller dto.Caller, userID uint) ([]*entities.Recording, error)
	PlaybackURL(ctx context.Context, caller dto.Caller, id uint) (string, error)

	Relabel(ctx context.Context, id, newVocalizationID uint) (*entities.Recording, error)
	RenameVocalization(ctx context.Context, vocalizationID uint, newName string) error

	DeleteRecording(ctx context.Context, id uint) error
	DeleteRecordingsByUser(ctx context.Context, userID uint) error
	DeleteUserCascade(ctx context.Context, userID uint) error
	DeleteParticipantCascade(ctx context.Context, participantID uint) error
	DeleteVocalizationCascade(ctx context.Context, vocalizationID uint) error

	Reconcile(ctx context.Context, repair bool) (*ReconcileReport, error)
}

type service struct {
	repo  repository.Repository
	store objectstore.Store
	cfg   *config.Config

	// locks serializes cascade-triggering mutations per recording id; the
	// two stores have no shared transaction to do it for us.
	locks recordingLocks
}

func New(repo repository.Repository, store objectstore.Store, cfg *config.Config) Service {
	return &service{
		repo:  repo,
		store: store,
		cfg:   cfg,
	}
}

func (s *service) segmentConfig() audio.SegmentConfig {
	cfg := s.cfg.Segmenter
	if cfg.MinSilenceLenMs <= 0 {
		cfg = audio.DefaultSegmentConfig()
	}
	return cfg
}

// segmentKeysFor resolves the segment object keys of a recording: the
// authoritative list when one was recorded, otherwise a prefix scan over
// the store.
func (s *service) segmentKeysFor(ctx context.Context, rec *entities.Recording) ([]string, error) {
	if len(rec.SegmentKeys) > 0 {
		return rec.SegmentKeys, nil
	}

	listed, err := s.store.ListPrefix(ctx, keys.SegmentPrefix(rec.ObjectKey))
	if err != nil {
		return nil, err
	}
	if len(listed) > 0 {
		zerolog.Ctx(ctx).Debug().
			Uint("recording_id", rec.ID).
			Int("segment_count", len(listed)).
			Msg("segment keys discovered by prefix scan")
	}
	return listed, nil
}

// renameObject moves an object from src to dst as copy-then-delete. It is
// retry-safe: when dst already exists and src is gone, a previous attempt
// finished the job and the call is a no-op.
func (s *service) renameObject(ctx context.Context, src, dst string) error {
	if src == dst {
		return nil
	}

	srcExists, err := s.store.Exists(ctx, src)
	if err != nil {
		return err
	}
	if !srcExists {
		dstExists, err := s.store.Exists(ctx, dst)
		if err != nil {
			return err
		}
		if dstExists {
			return nil
		}
		return apperr.NotFound("object " + src)
	}

	if err := s.store.Copy(ctx, src, dst); err != nil {
		return err
	}
	return s.store.Delete(ctx, src)
}
