package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"audio-archive/entities"
	"audio-archive/keys"
)

// ReconcileReport is the outcome of comparing the relational rows against
// the blob store.
type ReconcileReport struct {
	// Orphans are objects no row references: leftovers of interrupted
	// cascades or failed rollbacks.
	Orphans []string `json:"orphans"`

	// Missing are keys some row references that no longer exist in the
	// store.
	Missing []string `json:"missing"`

	// Repaired counts objects deleted and rows rewritten in repair mode.
	Repaired int `json:"repaired"`
}

// Reconcile detects orphaned and missing objects left behind by partial
// cascade failures. With repair set it deletes orphans and trims segment
// lists down to the objects that actually exist; otherwise it only reports.
func (s *service) Reconcile(ctx context.Context, repair bool) (*ReconcileReport, error) {
	recordings, err := s.repo.ListRecordings(ctx)
	if err != nil {
		return nil, err
	}

	// Everything a row claims, and every prefix a row's segments may hide
	// under when no authoritative list exists.
	referenced := make(map[string]bool)
	prefixes := make([]string, 0, len(recordings))
	for _, rec := range recordings {
		if rec.ObjectKey == placeholderKey {
			continue
		}
		referenced[rec.ObjectKey] = true
		for _, segment := range rec.SegmentKeys {
			referenced[segment] = true
		}
		if len(rec.SegmentKeys) == 0 {
			prefixes = append(prefixes, keys.SegmentPrefix(rec.ObjectKey))
		}
	}

	stored, err := s.store.ListPrefix(ctx, "")
	if err != nil {
		return nil, err
	}
	inStore := make(map[string]bool, len(stored))
	for _, key := range stored {
		inStore[key] = true
	}

	report := &ReconcileReport{}

	for _, key := range stored {
		if referenced[key] || coveredByPrefix(key, prefixes) {
			continue
		}
		report.Orphans = append(report.Orphans, key)
	}

	for _, rec := range recordings {
		if rec.ObjectKey == placeholderKey {
			continue
		}
		if !inStore[rec.ObjectKey] {
			report.Missing = append(report.Missing, rec.ObjectKey)
		}

		var present entities.SegmentKeyList
		var absent []string
		for _, segment := range rec.SegmentKeys {
			if inStore[segment] {
				present = append(present, segment)
			} else {
				absent = append(absent, segment)
			}
		}
		report.Missing = append(report.Missing, absent...)

		if repair && len(absent) > 0 {
			if err := s.repo.UpdateRecordingKeys(ctx, rec.ID, rec.ObjectKey, present); err != nil {
				zerolog.Ctx(ctx).Error().Err(err).
					Uint("recording_id", rec.ID).
					Msg("failed to trim segment list")
				continue
			}
			report.Repaired++
		}
	}

	if repair {
		for _, key := range report.Orphans {
			if err := s.store.Delete(ctx, key); err != nil {
				zerolog.Ctx(ctx).Error().Err(err).
					Str("object_key", key).
					Msg("failed to delete orphaned object")
				continue
			}
			report.Repaired++
		}
	}

	zerolog.Ctx(ctx).Info().
		Int("orphans", len(report.Orphans)).
		Int("missing", len(report.Missing)).
		Int("repaired", report.Repaired).
		Bool("repair", repair).
		Msg("reconciliation finished")

	return report, nil
}

func coveredByPrefix(key string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(key, prefix) && len(key) > len(prefix) {
			return true
		}
	}
	return false
}
