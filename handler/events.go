package handler

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"audio-archive/constant"
	"audio-archive/dto"
	"audio-archive/service"
)

type ServiceDependencies struct {
	Archive service.Service
}

// EntityDeletedHandler reacts to upstream entity deletions by running the
// transitive delete cascade over every recording the entity owned.
func EntityDeletedHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var event dto.EntityDeletedMessage
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal entity deleted message")
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("entity_type", string(event.EntityType)).
		Uint("entity_id", event.EntityID).
		Msg("received entity deleted event")

	switch event.EntityType {
	case constant.EntityUser:
		return deps.Archive.DeleteUserCascade(ctx, event.EntityID)
	case constant.EntityParticipant:
		return deps.Archive.DeleteParticipantCascade(ctx, event.EntityID)
	case constant.EntityVocalization:
		return deps.Archive.DeleteVocalizationCascade(ctx, event.EntityID)
	default:
		return fmt.Errorf("unknown entity type: %s", event.EntityType)
	}
}

// VocalizationRenamedHandler reacts to a label name change by rewriting the
// object keys of every recording filed under it.
func VocalizationRenamedHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var event dto.VocalizationRenamedMessage
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal vocalization renamed message")
		return err
	}

	zerolog.Ctx(ctx).Info().
		Uint("vocalization_id", event.VocalizationID).
		Str("new_name", event.NewName).
		Msg("received vocalization renamed event")

	return deps.Archive.RenameVocalization(ctx, event.VocalizationID, event.NewName)
}
