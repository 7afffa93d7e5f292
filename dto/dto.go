package dto

import (
	"audio-archive/constant"
)

// Caller is the verified identity the upstream auth layer attaches to each
// request.
type Caller struct {
	UserID uint          `json:"user_id"`
	Role   constant.Role `json:"role"`
}

func (c Caller) IsAdmin() bool {
	return c.Role == constant.RoleAdmin
}

// RelabelRequest changes which vocalization a recording is filed under.
type RelabelRequest struct {
	VocalizationID uint `json:"vocalization_id" binding:"required"`
}

// PlaybackResponse carries the presigned read URL for one object.
type PlaybackResponse struct {
	URL string `json:"url"`
}

// CascadeResponse reports a rename or delete cascade, including the keys
// it could not bring along when the outcome is a degraded success.
type CascadeResponse struct {
	Message   string   `json:"message"`
	StaleKeys []string `json:"stale_keys,omitempty"`
}

// EntityDeletedMessage is published upstream when a user, participant or
// vocalization row is removed; this service reacts by deleting every
// recording the entity owned.
type EntityDeletedMessage struct {
	EntityType constant.EntityType `json:"entityType"`
	EntityID   uint                `json:"entityId"`
}

// VocalizationRenamedMessage is published upstream after a label's display
// name changes; the embedded text in every owned object key must follow.
type VocalizationRenamedMessage struct {
	VocalizationID uint   `json:"vocalizationId"`
	NewName        string `json:"newName"`
}
