//go:build wireinject
// +build wireinject

package favorites

import (
	"database/sql"

	"github.com/google/wire"

	httpDelivery "github.com/tair/prompt-favorites/internal/favorites/delivery/http"
	"github.com/tair/prompt-favorites/internal/favorites/domain"
	"github.com/tair/prompt-favorites/internal/favorites/repository"
	"github.com/tair/prompt-favorites/internal/favorites/usecase/command"
	"github.com/tair/prompt-favorites/internal/favorites/usecase/query"
)

// ProvideFavoriteRepository provides the favorite repository
func ProvideFavoriteRepository(db *sql.DB) domain.FavoriteRepository {
	return repository.NewPostgresFavoriteRepository(db)
}

// Command Handlers Providers
func ProvideCreateFavoriteHandler(repo domain.FavoriteRepository) *command.CreateFavoriteHandler {
	return command.NewCreateFavoriteHandler(repo)
}

func ProvideDeleteFavoriteHandler(repo domain.FavoriteRepository) *command.DeleteFavoriteHandler {
	return command.NewDeleteFavoriteHandler(repo)
}

// Query Handlers Providers
func ProvideListFavoritesHandler(repo domain.FavoriteRepository) *query.ListFavoritesHandler {
	return query.NewListFavoritesHandler(repo)
}

// Wire sets
var RepositorySet = wire.NewSet(
	ProvideFavoriteRepository,
)

var HandlerSet = wire.NewSet(
	ProvideCreateFavoriteHandler,
	ProvideDeleteFavoriteHandler,
	ProvideListFavoritesHandler,
)

// InitializeHTTPHandler initializes HTTP handler with all dependencies
func InitializeHTTPHandler(db *sql.DB) (*httpDelivery.FavoriteHandler, error) {
	wire.Build(
		RepositorySet,
		httpDelivery.NewFavoriteHandler,
	)
	return nil, nil
}
