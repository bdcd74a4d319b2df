package command

import (
	"context"
	"fmt"
	"time"

	"github.com/tair/prompt-favorites/internal/favorites/domain"
)

// CreateFavoriteCommand represents the command to save a favorite prompt
type CreateFavoriteCommand struct {
	UserID     string
	Prompt     string
	Categories []string
}

// CreateFavoriteHandler handles favorite creation command
type CreateFavoriteHandler struct {
	repo domain.FavoriteRepository
}

// NewCreateFavoriteHandler creates a new create favorite handler
func NewCreateFavoriteHandler(repo domain.FavoriteRepository) *CreateFavoriteHandler {
	return &CreateFavoriteHandler{repo: repo}
}

// Handle executes the create favorite command
func (h *CreateFavoriteHandler) Handle(ctx context.Context, cmd CreateFavoriteCommand) (*domain.Favorite, error) {
	// Validation
	if cmd.UserID == "" {
		return nil, domain.ValidationError("userId is required")
	}
	if cmd.Prompt == "" {
		return nil, domain.ValidationError("prompt is required")
	}

	// Omitted categories become an empty array, never null.
	categories := cmd.Categories
	if categories == nil {
		categories = []string{}
	}

	favorite := &domain.Favorite{
		UserID:     cmd.UserID,
		Prompt:     cmd.Prompt,
		Categories: categories,
		CreatedAt:  time.Now().UTC(),
	}

	if err := h.repo.Create(ctx, favorite); err != nil {
		return nil, fmt.Errorf("failed to create favorite: %w", err)
	}

	return favorite, nil
}
