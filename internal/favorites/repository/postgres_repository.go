package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/tair/prompt-favorites/internal/favorites/domain"
)

// PostgresFavoriteRepository implements FavoriteRepository interface
type PostgresFavoriteRepository struct {
	db *sql.DB
}

// NewPostgresFavoriteRepository creates a new PostgreSQL favorite repository
func NewPostgresFavoriteRepository(db *sql.DB) *PostgresFavoriteRepository {
	return &PostgresFavoriteRepository{db: db}
}

// Create inserts a new favorite into the database
func (r *PostgresFavoriteRepository) Create(ctx context.Context, favorite *domain.Favorite) error {
	categories, err := marshalCategories(favorite.Categories)
	if err != nil {
		return domain.ValidationError("invalid categories: %v", err)
	}

	query := `
		INSERT INTO favorites (user_id, prompt, categories, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err = r.db.QueryRowContext(
		ctx,
		query,
		favorite.UserID,
		favorite.Prompt,
		categories,
		favorite.CreatedAt,
	).Scan(&favorite.ID)

	if err != nil {
		return fmt.Errorf("%w: failed to create favorite: %v", domain.ErrStoreUnavailable, err)
	}

	return nil
}

// FindByUser retrieves all favorites for a user, newest first
func (r *PostgresFavoriteRepository) FindByUser(ctx context.Context, userID string) ([]domain.Favorite, error) {
	query := `
		SELECT id, user_id, prompt, categories, created_at
		FROM favorites
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to find favorites: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	favorites := []domain.Favorite{}
	for rows.Next() {
		favorite := domain.Favorite{}
		var raw []byte
		err := rows.Scan(
			&favorite.ID,
			&favorite.UserID,
			&favorite.Prompt,
			&raw,
			&favorite.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan favorite: %v", domain.ErrStoreUnavailable, err)
		}
		favorite.Categories = unmarshalCategories(raw)
		favorites = append(favorites, favorite)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate favorites: %v", domain.ErrStoreUnavailable, err)
	}

	return favorites, nil
}

// Delete removes a favorite from the database. A missing row is not an
// error; the bool reports whether a row was actually removed.
func (r *PostgresFavoriteRepository) Delete(ctx context.Context, id int64) (bool, error) {
	query := `DELETE FROM favorites WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("%w: failed to delete favorite: %v", domain.ErrStoreUnavailable, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: failed to get rows affected: %v", domain.ErrStoreUnavailable, err)
	}

	return rows > 0, nil
}

// Count returns the total number of stored favorites
func (r *PostgresFavoriteRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM favorites`

	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count favorites: %v", domain.ErrStoreUnavailable, err)
	}

	return count, nil
}

// marshalCategories encodes tags as a JSON array, treating nil as empty
func marshalCategories(categories []string) ([]byte, error) {
	if categories == nil {
		categories = []string{}
	}
	return json.Marshal(categories)
}

// unmarshalCategories decodes a stored categories value. Rows written
// before reconciliation may hold NULL or a bare scalar; both are coerced
// here so readers always see an array.
func unmarshalCategories(raw []byte) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return []string{}
	}

	var categories []string
	if err := json.Unmarshal(raw, &categories); err == nil {
		if categories == nil {
			return []string{}
		}
		return categories
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}
	}

	// Legacy plain-text column value.
	return []string{string(raw)}
}
