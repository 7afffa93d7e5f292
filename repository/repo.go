package repository

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"audio-archive/apperr"
	"audio-archive/entities"
)

type Repository interface {
	GetDB() *gorm.DB

	CreateRecording(ctx context.Context, rec *entities.Recording) error
	FindRecordingByID(ctx context.Context, id uint) (*entities.Recording, error)
	UpdateRecordingKeys(ctx context.Context, id uint, objectKey string, segmentKeys entities.SegmentKeyList) error
	UpdateRecordingVocalization(ctx context.Context, id, vocalizationID uint, objectKey string, segmentKeys entities.SegmentKeyList) error
	DeleteRecording(ctx context.Context, id uint) error
	ListRecordings(ctx context.Context) ([]*entities.Recording, error)
	ListRecordingsByUser(ctx context.Context, userID uint) ([]*entities.Recording, error)
	ListRecordingsByParticipant(ctx context.Context, participantID uint) ([]*entities.Recording, error)
	ListRecordingsByVocalization(ctx context.Context, vocalizationID uint) ([]*entities.Recording, error)

	FindUser(ctx context.Context, id uint) (*entities.User, error)
	FindParticipant(ctx context.Context, id uint) (*entities.Participant, error)
	FindParticipantByUserID(ctx context.Context, userID uint) (*entities.Participant, error)
	FindVocalization(ctx context.Context, id uint) (*entities.Vocalization, error)
	UpdateVocalizationName(ctx context.Context, id uint, name string) error

	DeleteUser(ctx context.Context, id uint) error
	DeleteParticipant(ctx context.Context, id uint) error
	DeleteVocalization(ctx context.Context, id uint) error
}

type repo struct {
	db *gorm.DB
}

func NewRepo(db *sql.DB) Repository {
	gormDB, _ := gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		},
	)
	return &repo{
		db: gormDB,
	}
}

func (r *repo) GetDB() *gorm.DB {
	return r.db
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(what)
	}
	return err
}

func (r *repo) CreateRecording(ctx context.Context, rec *entities.Recording) error {
	return r.GetDB().WithContext(ctx).Create(rec).Error
}

func (r *repo) FindRecordingByID(ctx context.Context, id uint) (*entities.Recording, error) {
	rec := &entities.Recording{}
	err := r.GetDB().WithContext(ctx).First(rec, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "recording")
	}
	return rec, nil
}

func (r *repo) UpdateRecordingKeys(ctx context.Context, id uint, objectKey string, segmentKeys entities.SegmentKeyList) error {
	if segmentKeys == nil {
		segmentKeys = entities.SegmentKeyList{}
	}
	updates := map[string]interface{}{
		"object_key":   objectKey,
		"segment_keys": segmentKeys,
	}
	return r.GetDB().WithContext(ctx).Model(&entities.Recording{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repo) UpdateRecordingVocalization(ctx context.Context, id, vocalizationID uint, objectKey string, segmentKeys entities.SegmentKeyList) error {
	if segmentKeys == nil {
		segmentKeys = entities.SegmentKeyList{}
	}
	updates := map[string]interface{}{
		"vocalization_id": vocalizationID,
		"object_key":      objectKey,
		"segment_keys":    segmentKeys,
	}
	return r.GetDB().WithContext(ctx).Model(&entities.Recording{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repo) DeleteRecording(ctx context.Context, id uint) error {
	return r.GetDB().WithContext(ctx).Delete(&entities.Recording{}, "id = ?", id).Error
}

func (r *repo) ListRecordings(ctx context.Context) ([]*entities.Recording, error) {
	var recs []*entities.Recording
	err := r.GetDB().WithContext(ctx).Order("id ASC").Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *repo) ListRecordingsByUser(ctx context.Context, userID uint) ([]*entities.Recording, error) {
	var recs []*entities.Recording
	err := r.GetDB().WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *repo) ListRecordingsByParticipant(ctx context.Context, participantID uint) ([]*entities.Recording, error) {
	var recs []*entities.Recording
	err := r.GetDB().WithContext(ctx).Where("participant_id = ?", participantID).Order("id ASC").Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *repo) ListRecordingsByVocalization(ctx context.Context, vocalizationID uint) ([]*entities.Recording, error) {
	var recs []*entities.Recording
	err := r.GetDB().WithContext(ctx).Where("vocalization_id = ?", vocalizationID).Order("id ASC").Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *repo) FindUser(ctx context.Context, id uint) (*entities.User, error) {
	user := &entities.User{}
	err := r.GetDB().WithContext(ctx).First(user, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

func (r *repo) FindParticipant(ctx context.Context, id uint) (*entities.Participant, error) {
	participant := &entities.Participant{}
	err := r.GetDB().WithContext(ctx).First(participant, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "participant")
	}
	return participant, nil
}

func (r *repo) FindParticipantByUserID(ctx context.Context, userID uint) (*entities.Participant, error) {
	participant := &entities.Participant{}
	err := r.GetDB().WithContext(ctx).First(participant, "user_id = ?", userID).Error
	if err != nil {
		return nil, notFound(err, "participant")
	}
	return participant, nil
}

func (r *repo) FindVocalization(ctx context.Context, id uint) (*entities.Vocalization, error) {
	vocalization := &entities.Vocalization{}
	err := r.GetDB().WithContext(ctx).First(vocalization, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "vocalization")
	}
	return vocalization, nil
}

func (r *repo) UpdateVocalizationName(ctx context.Context, id uint, name string) error {
	return r.GetDB().WithContext(ctx).Model(&entities.Vocalization{}).Where("id = ?", id).Update("name", name).Error
}

func (r *repo) DeleteUser(ctx context.Context, id uint) error {
	return r.GetDB().WithContext(ctx).Delete(&entities.User{}, "id = ?", id).Error
}

func (r *repo) DeleteParticipant(ctx context.Context, id uint) error {
	return r.GetDB().WithContext(ctx).Delete(&entities.Participant{}, "id = ?", id).Error
}

func (r *repo) DeleteVocalization(ctx context.Context, id uint) error {
	return r.GetDB().WithContext(ctx).Delete(&entities.Vocalization{}, "id = ?", id).Error
}
