package entities

import (
	"time"
)

// Recording is the single persisted row per uploaded audio asset. Segment
// objects are not rows of their own: they exist only in the blob store and
// are tied to the parent through the ObjectKey naming scheme.
type Recording struct {
	ID             uint `json:"id" gorm:"primaryKey"`
	UserID         uint `json:"user_id" gorm:"not null;index:idx_recordings_user_id"`
	ParticipantID  uint `json:"participant_id" gorm:"not null;index:idx_recordings_participant_id"`
	VocalizationID uint `json:"vocalization_id" gorm:"not null;index:idx_recordings_vocalization_id"`
	ObjectKey      string `json:"object_key" gorm:"type:varchar(500);not null"`
	// SegmentKeys is the authoritative ordered list of segment objects.
	// Always present; empty means discovery falls back to a prefix scan.
	SegmentKeys SegmentKeyList `json:"segment_keys" gorm:"type:text;serializer:json;not null"`
	// KeyTimestamp is the creation timestamp embedded in ObjectKey, kept as
	// its own column so the key never has to be parsed to recover it.
	KeyTimestamp time.Time `json:"key_timestamp" gorm:"type:timestamptz;not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

// SegmentKeyList is the JSON-serialized segment key column.
type SegmentKeyList []string

func (Recording) TableName() string {
	return "recordings"
}
