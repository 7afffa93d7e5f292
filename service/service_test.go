package service

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"audio-archive/audio"
	"audio-archive/config"
	"audio-archive/constant"
	"audio-archive/dto"
	"audio-archive/entities"
	"audio-archive/pkg/objectstore"
	"audio-archive/repository"
)

type fixture struct {
	repo         *repository.MemoryRepo
	store        *objectstore.MemoryStore
	svc          Service
	user         *entities.User
	participant  *entities.Participant
	vocalization *entities.Vocalization
}

func (f *fixture) caller() dto.Caller {
	return dto.Caller{UserID: f.user.ID, Role: constant.RoleUser}
}

func admin() dto.Caller {
	return dto.Caller{UserID: 999, Role: constant.RoleAdmin}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := repository.NewMemoryRepo()
	store := objectstore.NewMemoryStore()
	cfg := &config.Config{
		Segmenter:  audio.DefaultSegmentConfig(),
		PresignTTL: time.Hour,
		TempDir:    t.TempDir(),
	}

	f := &fixture{
		repo:  repo,
		store: store,
		svc:   New(repo, store, cfg),
	}
	f.user = repo.AddUser(&entities.User{Name: "ana", Email: "ana@example.com", Role: constant.RoleUser})
	f.participant = repo.AddParticipant(&entities.Participant{UserID: f.user.ID, Gender: "f", Age: 7})
	f.vocalization = repo.AddVocalization(&entities.Vocalization{Name: "bark", UserID: f.user.ID})
	return f
}

// wavUpload synthesizes a WAV upload: a silent clip of totalMs with loud
// bursts over the given ranges.
func wavUpload(t *testing.T, totalMs int, bursts ...audio.Interval) *bytes.Reader {
	t.Helper()

	const sampleRate = 8000
	clip := &audio.Clip{
		Samples:    make([]int, totalMs*sampleRate/1000),
		SampleRate: sampleRate,
		BitDepth:   16,
	}
	for _, b := range bursts {
		for i := b.StartMs * sampleRate / 1000; i < b.EndMs*sampleRate/1000; i++ {
			clip.Samples[i] = 10000
		}
	}

	path := filepath.Join(t.TempDir(), "upload.wav")
	require.NoError(t, audio.WriteWAV(path, clip))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return bytes.NewReader(data)
}
