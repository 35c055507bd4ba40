// Package userinfo stores each user's public key and encrypted identity.
package userinfo

import (
	"context"

	"github.com/dmitrijs2005/taskjournal/internal/server/models"
)

type Repository interface {
	Upsert(ctx context.Context, info models.UserInfo) error
	// GetByUsername returns common.ErrorNotFound when the user is unknown or
	// has not published a key yet.
	GetByUsername(ctx context.Context, username string) (*models.UserInfo, error)
}
