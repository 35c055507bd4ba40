// Package users declares and implements storage of user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/taskjournal/internal/server/models"
)

type Repository interface {
	// Create inserts the user and fills in its ID. A taken username yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}
