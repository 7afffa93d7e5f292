package repository

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"audio-archive/apperr"
	"audio-archive/entities"
)

// MemoryRepo is an in-memory Repository for tests. It hands out ids the
// same way the relational store does: only on insert.
type MemoryRepo struct {
	mu            sync.Mutex
	nextID        uint
	recordings    map[uint]*entities.Recording
	users         map[uint]*entities.User
	participants  map[uint]*entities.Participant
	vocalizations map[uint]*entities.Vocalization

	// FailCreateRecording makes the next insert fail, for rollback tests.
	FailCreateRecording bool
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		nextID:        1,
		recordings:    make(map[uint]*entities.Recording),
		users:         make(map[uint]*entities.User),
		participants:  make(map[uint]*entities.Participant),
		vocalizations: make(map[uint]*entities.Vocalization),
	}
}

func (m *MemoryRepo) GetDB() *gorm.DB {
	return nil
}

func (m *MemoryRepo) mint() uint {
	id := m.nextID
	m.nextID++
	return id
}

// Seed helpers used by tests.

func (m *MemoryRepo) AddUser(u *entities.User) *entities.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.mint()
	m.users[u.ID] = u
	return u
}

func (m *MemoryRepo) AddParticipant(p *entities.Participant) *entities.Participant {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.mint()
	m.participants[p.ID] = p
	return p
}

func (m *MemoryRepo) AddVocalization(v *entities.Vocalization) *entities.Vocalization {
	m.mu.Lock()
	defer m.mu.Unlock()
	v.ID = m.mint()
	m.vocalizations[v.ID] = v
	return v
}

func (m *MemoryRepo) CreateRecording(ctx context.Context, rec *entities.Recording) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreateRecording {
		m.FailCreateRecording = false
		return apperr.Storage("insert recording", context.DeadlineExceeded)
	}
	rec.ID = m.mint()
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	cloned := *rec
	m.recordings[rec.ID] = &cloned
	return nil
}

func (m *MemoryRepo) FindRecordingByID(ctx context.Context, id uint) (*entities.Recording, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recordings[id]
	if !ok {
		return nil, apperr.NotFound("recording")
	}
	cloned := *rec
	return &cloned, nil
}

func (m *MemoryRepo) UpdateRecordingKeys(ctx context.Context, id uint, objectKey string, segmentKeys entities.SegmentKeyList) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recordings[id]
	if !ok {
		return apperr.NotFound("recording")
	}
	rec.ObjectKey = objectKey
	rec.SegmentKeys = append(entities.SegmentKeyList{}, segmentKeys...)
	rec.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryRepo) UpdateRecordingVocalization(ctx context.Context, id, vocalizationID uint, objectKey string, segmentKeys entities.SegmentKeyList) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recordings[id]
	if !ok {
		return apperr.NotFound("recording")
	}
	rec.VocalizationID = vocalizationID
	rec.ObjectKey = objectKey
	rec.SegmentKeys = append(entities.SegmentKeyList{}, segmentKeys...)
	rec.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryRepo) DeleteRecording(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recordings, id)
	return nil
}

func (m *MemoryRepo) ListRecordings(ctx context.Context) ([]*entities.Recording, error) {
	return m.listWhere(func(*entities.Recording) bool { return true }), nil
}

func (m *MemoryRepo) ListRecordingsByUser(ctx context.Context, userID uint) ([]*entities.Recording, error) {
	return m.listWhere(func(r *entities.Recording) bool { return r.UserID == userID }), nil
}

func (m *MemoryRepo) ListRecordingsByParticipant(ctx context.Context, participantID uint) ([]*entities.Recording, error) {
	return m.listWhere(func(r *entities.Recording) bool { return r.ParticipantID == participantID }), nil
}

func (m *MemoryRepo) ListRecordingsByVocalization(ctx context.Context, vocalizationID uint) ([]*entities.Recording, error) {
	return m.listWhere(func(r *entities.Recording) bool { return r.VocalizationID == vocalizationID }), nil
}

func (m *MemoryRepo) listWhere(match func(*entities.Recording) bool) []*entities.Recording {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entities.Recording
	for id := uint(1); id < m.nextID; id++ {
		rec, ok := m.recordings[id]
		if ok && match(rec) {
			cloned := *rec
			out = append(out, &cloned)
		}
	}
	return out
}

func (m *MemoryRepo) FindUser(ctx context.Context, id uint) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	return u, nil
}

func (m *MemoryRepo) FindParticipant(ctx context.Context, id uint) (*entities.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[id]
	if !ok {
		return nil, apperr.NotFound("participant")
	}
	return p, nil
}

func (m *MemoryRepo) FindParticipantByUserID(ctx context.Context, userID uint) (*entities.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.participants {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, apperr.NotFound("participant")
}

func (m *MemoryRepo) FindVocalization(ctx context.Context, id uint) (*entities.Vocalization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vocalizations[id]
	if !ok {
		return nil, apperr.NotFound("vocalization")
	}
	return v, nil
}

func (m *MemoryRepo) UpdateVocalizationName(ctx context.Context, id uint, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vocalizations[id]
	if !ok {
		return apperr.NotFound("vocalization")
	}
	v.Name = name
	return nil
}

func (m *MemoryRepo) DeleteUser(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *MemoryRepo) DeleteParticipant(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.participants, id)
	return nil
}

func (m *MemoryRepo) DeleteVocalization(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vocalizations, id)
	return nil
}
