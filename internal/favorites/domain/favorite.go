package domain

import (
	"context"
	"time"
)

// Favorite represents a saved prompt entry (domain model)
type Favorite struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"userId"`
	Prompt     string    `json:"prompt"`
	Categories []string  `json:"categories"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FavoriteRepository defines the contract for favorite data access
type FavoriteRepository interface {
	Create(ctx context.Context, favorite *Favorite) error
	FindByUser(ctx context.Context, userID string) ([]Favorite, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int64, error)
}
