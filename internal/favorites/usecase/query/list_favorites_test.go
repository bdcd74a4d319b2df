package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tair/prompt-favorites/internal/favorites/domain"
)

type stubRepo struct {
	favorites []domain.Favorite
	err       error
}

func (s *stubRepo) Create(ctx context.Context, favorite *domain.Favorite) error { return s.err }

func (s *stubRepo) FindByUser(ctx context.Context, userID string) ([]domain.Favorite, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := []domain.Favorite{}
	for _, f := range s.favorites {
		if f.UserID == userID {
			result = append(result, f)
		}
	}
	return result, nil
}

func (s *stubRepo) Delete(ctx context.Context, id int64) (bool, error) { return false, s.err }

func (s *stubRepo) Count(ctx context.Context) (int64, error) { return int64(len(s.favorites)), s.err }

func TestListFavoritesRequiresUserID(t *testing.T) {
	handler := NewListFavoritesHandler(&stubRepo{})

	_, err := handler.Handle(context.Background(), ListFavoritesQuery{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Handle error = %v, want ErrValidation", err)
	}
}

func TestListFavoritesScopedToUser(t *testing.T) {
	now := time.Now().UTC()
	repo := &stubRepo{favorites: []domain.Favorite{
		{ID: 1, UserID: "u1", Prompt: "mine", Categories: []string{}, CreatedAt: now},
		{ID: 2, UserID: "u2", Prompt: "theirs", Categories: []string{}, CreatedAt: now},
	}}
	handler := NewListFavoritesHandler(repo)

	favorites, err := handler.Handle(context.Background(), ListFavoritesQuery{UserID: "u1"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(favorites) != 1 {
		t.Fatalf("len = %d, want 1", len(favorites))
	}
	if favorites[0].UserID != "u1" {
		t.Errorf("UserID = %q, want u1", favorites[0].UserID)
	}
}

func TestListFavoritesEmptyIsNotAnError(t *testing.T) {
	handler := NewListFavoritesHandler(&stubRepo{})

	favorites, err := handler.Handle(context.Background(), ListFavoritesQuery{UserID: "nobody"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if favorites == nil || len(favorites) != 0 {
		t.Errorf("favorites = %v, want empty slice", favorites)
	}
}

func TestListFavoritesPropagatesStoreError(t *testing.T) {
	handler := NewListFavoritesHandler(&stubRepo{err: domain.StoreUnavailableError("timeout")})

	_, err := handler.Handle(context.Background(), ListFavoritesQuery{UserID: "u1"})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("Handle error = %v, want ErrStoreUnavailable", err)
	}
}
