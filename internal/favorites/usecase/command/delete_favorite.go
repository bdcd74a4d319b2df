package command

import (
	"context"
	"fmt"

	"github.com/tair/prompt-favorites/internal/favorites/domain"
)

// DeleteFavoriteCommand represents the command to delete a favorite
type DeleteFavoriteCommand struct {
	ID int64
}

// DeleteFavoriteHandler handles favorite deletion command
type DeleteFavoriteHandler struct {
	repo domain.FavoriteRepository
}

// NewDeleteFavoriteHandler creates a new delete favorite handler
func NewDeleteFavoriteHandler(repo domain.FavoriteRepository) *DeleteFavoriteHandler {
	return &DeleteFavoriteHandler{repo: repo}
}

// Handle executes the delete favorite command. Deleting an id that no
// longer exists returns false without an error; callers treat delete as
// idempotent.
func (h *DeleteFavoriteHandler) Handle(ctx context.Context, cmd DeleteFavoriteCommand) (bool, error) {
	// Validation
	if cmd.ID <= 0 {
		return false, domain.ValidationError("invalid favorite id")
	}

	deleted, err := h.repo.Delete(ctx, cmd.ID)
	if err != nil {
		return false, fmt.Errorf("failed to delete favorite: %w", err)
	}

	return deleted, nil
}
