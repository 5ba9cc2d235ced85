package services

import (
	"context"
	"errors"

	"pem-system/internal/entities"
	apperrors "pem-system/pkg/errors"
	"pem-system/pkg/utils"
)

// orNotFound заменяет голый ErrNotFound сообщением для пользователя.
func orNotFound(err error, message string) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NewNotFoundError("%s", message)
	}
	return err
}

// actorID - автор изменения, nil для системных операций.
func actorID(ctx context.Context) *uint64 {
	if userID, err := utils.GetUserIDFromCtx(ctx); err == nil {
		return &userID
	}
	return nil
}

// actorName - ответственный в записях истории.
func actorName(ctx context.Context) string {
	if identity, err := utils.GetIdentityFromCtx(ctx); err == nil && identity.Username != "" {
		return identity.Username
	}
	return entities.ResponsibleSystem
}
