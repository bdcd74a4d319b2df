package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/tair/prompt-favorites/internal/favorites/domain"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

var favoriteColumns = []string{"id", "user_id", "prompt", "categories", "created_at"}

func TestCreateAssignsID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresFavoriteRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(`INSERT INTO favorites \(user_id, prompt, categories, created_at\)`).
		WithArgs("u1", "p1", []byte(`["a","b"]`), now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	favorite := &domain.Favorite{
		UserID:     "u1",
		Prompt:     "p1",
		Categories: []string{"a", "b"},
		CreatedAt:  now,
	}
	if err := repo.Create(context.Background(), favorite); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if favorite.ID != 7 {
		t.Errorf("ID = %d, want 7", favorite.ID)
	}
}

func TestCreateNilCategoriesStoredAsEmptyArray(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresFavoriteRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(`INSERT INTO favorites`).
		WithArgs("u1", "p1", []byte(`[]`), now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	favorite := &domain.Favorite{UserID: "u1", Prompt: "p1", CreatedAt: now}
	if err := repo.Create(context.Background(), favorite); err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestCreateStoreFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresFavoriteRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(`INSERT INTO favorites`).
		WithArgs("u1", "p1", []byte(`[]`), now).
		WillReturnError(errors.New("connection refused"))

	favorite := &domain.Favorite{UserID: "u1", Prompt: "p1", Categories: []string{}, CreatedAt: now}
	err := repo.Create(context.Background(), favorite)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("Create error = %v, want ErrStoreUnavailable", err)
	}
}

func TestFindByUserCoercesLegacyCategories(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresFavoriteRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows(favoriteColumns).
		AddRow(int64(3), "u1", "newest", []byte(`["a","b"]`), now).
		AddRow(int64(2), "u1", "legacy scalar", []byte(`"solo"`), now.Add(-time.Hour)).
		AddRow(int64(1), "u1", "legacy null", nil, now.Add(-2*time.Hour))

	mock.ExpectQuery(`SELECT id, user_id, prompt, categories, created_at\s+FROM favorites\s+WHERE user_id = \$1`).
		WithArgs("u1").
		WillReturnRows(rows)

	favorites, err := repo.FindByUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("FindByUser: %v", err)
	}
	if len(favorites) != 3 {
		t.Fatalf("len = %d, want 3", len(favorites))
	}

	if got := favorites[0].Categories; len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("array categories = %v", got)
	}
	if got := favorites[1].Categories; len(got) != 1 || got[0] != "solo" {
		t.Errorf("scalar categories = %v, want [solo]", got)
	}
	if got := favorites[2].Categories; got == nil || len(got) != 0 {
		t.Errorf("null categories = %v, want []", got)
	}
}

func TestFindByUserEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresFavoriteRepository(db)

	mock.ExpectQuery(`SELECT id, user_id, prompt, categories, created_at`).
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows(favoriteColumns))

	favorites, err := repo.FindByUser(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("FindByUser: %v", err)
	}
	if favorites == nil {
		t.Fatal("FindByUser returned nil, want empty slice")
	}
	if len(favorites) != 0 {
		t.Errorf("len = %d, want 0", len(favorites))
	}
}

func TestFindByUserConnectionFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresFavoriteRepository(db)

	mock.ExpectQuery(`SELECT id, user_id, prompt, categories, created_at`).
		WithArgs("u1").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.FindByUser(context.Background(), "u1")
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("FindByUser error = %v, want ErrStoreUnavailable", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresFavoriteRepository(db)

	mock.ExpectExec(`DELETE FROM favorites WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM favorites WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), 5)
	if err != nil || !deleted {
		t.Errorf("first Delete = (%v, %v), want (true, nil)", deleted, err)
	}

	deleted, err = repo.Delete(context.Background(), 5)
	if err != nil {
		t.Errorf("second Delete errored: %v", err)
	}
	if deleted {
		t.Error("second Delete = true, want false")
	}
}

func TestCount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresFavoriteRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM favorites`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))

	count, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 42 {
		t.Errorf("Count = %d, want 42", count)
	}
}

func TestUnmarshalCategories(t *testing.T) {
	for _, tc := range []struct {
		name string
		raw  []byte
		want []string
	}{
		{"array", []byte(`["a","b"]`), []string{"a", "b"}},
		{"empty array", []byte(`[]`), []string{}},
		{"json null", []byte(`null`), []string{}},
		{"sql null", nil, []string{}},
		{"scalar string", []byte(`"tag"`), []string{"tag"}},
		{"plain text", []byte(`not json`), []string{"not json"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := unmarshalCategories(tc.raw)
			if got == nil {
				t.Fatal("got nil, want array")
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("got %v, want %v", got, tc.want)
				}
			}
		})
	}
}
