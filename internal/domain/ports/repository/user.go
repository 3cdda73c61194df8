package repository

import (
	"context"

	"captive-wifi-billing/internal/domain/model"
)

// UserRepository looks up portal clients. Registration and authentication
// live in a separate subsystem; this side only reads.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}
