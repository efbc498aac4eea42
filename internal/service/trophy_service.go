package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/mohd-saif-1850/trophy-store-api/internal/cache"
	"github.com/mohd-saif-1850/trophy-store-api/internal/models"
	apperrors "github.com/mohd-saif-1850/trophy-store-api/pkg/errors"
	"github.com/mohd-saif-1850/trophy-store-api/pkg/logger"
)

const catalogCacheTTL = 5 * time.Minute

// TrophyStore is the persistence surface the catalog service needs
type TrophyStore interface {
	Create(ctx context.Context, trophy *models.Trophy) error
	GetByID(ctx context.Context, id string) (*models.Trophy, error)
	GetAll(ctx context.Context) ([]*models.Trophy, error)
	Search(ctx context.Context, query string, limit int) ([]*models.Trophy, error)
	Update(ctx context.Context, trophy *models.Trophy) error
	Delete(ctx context.Context, id string) error
}

// TrophyService owns the catalog. Reads go through a best-effort cache;
// cache errors are logged and the database answers.
type TrophyService struct {
	store  TrophyStore
	cache  cache.Cache
	logger logger.Logger
}

// NewTrophyService creates a catalog service
func NewTrophyService(store TrophyStore, cache cache.Cache, logger logger.Logger) *TrophyService {
	return &TrophyService{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// TrophyInput carries the writable catalog fields
type TrophyInput struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Priority    int     `json:"priority"`
}

// CreateTrophy adds a catalog entry
func (s *TrophyService) CreateTrophy(ctx context.Context, input TrophyInput) (*models.Trophy, error) {
	if err := validateTrophyInput(input); err != nil {
		return nil, err
	}

	trophy := models.NewTrophy(input.Name, input.Price, input.Category, input.Image, input.Description, input.Priority)

	if err := s.store.Create(ctx, trophy); err != nil {
		return nil, mapRepositoryError(err, "trophy")
	}

	s.invalidateCatalog(ctx, trophy.ID)

	s.logger.Info("Trophy created", "trophyID", trophy.ID, "name", trophy.Name)

	return trophy, nil
}

// GetTrophy fetches one catalog entry, cache first
func (s *TrophyService) GetTrophy(ctx context.Context, id string) (*models.Trophy, error) {
	key := s.cache.GenerateKey("trophy", id)

	if cached, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("Cache read failed", "error", err, "key", key)
	} else if cached != "" {
		var trophy models.Trophy
		if err := json.Unmarshal([]byte(cached), &trophy); err == nil {
			return &trophy, nil
		}
	}

	trophy, err := s.store.GetByID(ctx, id)

	if err != nil {
		return nil, mapRepositoryError(err, "trophy")
	}

	s.cacheSet(ctx, key, trophy)

	return trophy, nil
}

// GetAllTrophies lists the catalog ordered by priority, cache first
func (s *TrophyService) GetAllTrophies(ctx context.Context) ([]*models.Trophy, error) {
	key := s.cache.GenerateKey("trophies", "all")

	if cached, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("Cache read failed", "error", err, "key", key)
	} else if cached != "" {
		var trophies []*models.Trophy
		if err := json.Unmarshal([]byte(cached), &trophies); err == nil {
			return trophies, nil
		}
	}

	trophies, err := s.store.GetAll(ctx)

	if err != nil {
		return nil, mapRepositoryError(err, "trophy")
	}

	s.cacheSet(ctx, key, trophies)

	return trophies, nil
}

// SearchTrophies matches the query against names, uncached
func (s *TrophyService) SearchTrophies(ctx context.Context, query string, limit int) ([]*models.Trophy, error) {
	query = strings.TrimSpace(query)

	if query == "" {
		return nil, apperrors.NewInvalidInputError("Search query is required")
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	trophies, err := s.store.Search(ctx, query, limit)

	if err != nil {
		return nil, mapRepositoryError(err, "trophy")
	}

	return trophies, nil
}

// UpdateTrophy replaces the writable fields of a catalog entry
func (s *TrophyService) UpdateTrophy(ctx context.Context, id string, input TrophyInput) (*models.Trophy, error) {
	if err := validateTrophyInput(input); err != nil {
		return nil, err
	}

	trophy, err := s.store.GetByID(ctx, id)

	if err != nil {
		return nil, mapRepositoryError(err, "trophy")
	}

	trophy.Name = input.Name
	trophy.Price = input.Price
	trophy.Description = input.Description
	trophy.Priority = input.Priority
	if input.Image != "" {
		trophy.Image = input.Image
	}
	if input.Category != "" {
		trophy.Category = input.Category
	}

	if err := s.store.Update(ctx, trophy); err != nil {
		return nil, mapRepositoryError(err, "trophy")
	}

	s.invalidateCatalog(ctx, trophy.ID)

	return trophy, nil
}

// DeleteTrophy removes a catalog entry
func (s *TrophyService) DeleteTrophy(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return mapRepositoryError(err, "trophy")
	}

	s.invalidateCatalog(ctx, id)

	s.logger.Info("Trophy deleted", "trophyID", id)

	return nil
}

func (s *TrophyService) cacheSet(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)

	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, data, catalogCacheTTL); err != nil {
		s.logger.Warn("Cache write failed", "error", err, "key", key)
	}
}

func (s *TrophyService) invalidateCatalog(ctx context.Context, id string) {
	keys := []string{
		s.cache.GenerateKey("trophy", id),
		s.cache.GenerateKey("trophies", "all"),
	}

	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("Cache invalidation failed", "error", err, "trophyID", id)
	}
}

func validateTrophyInput(input TrophyInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return apperrors.NewInvalidInputError("Trophy name is required")
	}

	if input.Price < 0 {
		return apperrors.NewInvalidInputError("Trophy price cannot be negative")
	}

	return nil
}
