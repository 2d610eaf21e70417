package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/domain/repository"
	"github.com/route-planner/internal/pkg/errors"
)

const (
	// MinQueryLength - более короткие запросы не отправляются в геокодер
	MinQueryLength    = 2
	defaultPlaceLimit = 5
	maxPlaceLimit     = 10
)

// PlaceUseCase - поиск мест через геокодер с кешированием
type PlaceUseCase struct {
	geocoding repository.GeocodingRepository
	cacheRepo repository.CacheRepository
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewPlaceUseCase - создание нового PlaceUseCase; cacheRepo может быть nil
func NewPlaceUseCase(
	geocoding repository.GeocodingRepository,
	cacheRepo repository.CacheRepository,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *PlaceUseCase {
	return &PlaceUseCase{
		geocoding: geocoding,
		cacheRepo: cacheRepo,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Search ищет места по свободному тексту. Запрос короче двух символов даёт пустой список.
func (uc *PlaceUseCase) Search(ctx context.Context, query string, limit int) ([]domain.Place, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		return []domain.Place{}, nil
	}
	if limit <= 0 {
		limit = defaultPlaceLimit
	}
	if limit > maxPlaceLimit {
		limit = maxPlaceLimit
	}

	key := fmt.Sprintf("places:%s:%d", strings.ToLower(query), limit)
	if places, ok := uc.fromCache(ctx, key); ok {
		return places, nil
	}

	places, err := uc.geocoding.SearchPlaces(ctx, query, limit)
	if err != nil {
		uc.logger.Warn("Place search failed", zap.String("query", query), zap.Error(err))
		return nil, errors.ErrDirectionsUnavailable.WithMessage("Geocoding service unavailable")
	}
	if places == nil {
		places = []domain.Place{}
	}

	uc.toCache(ctx, key, places)
	return places, nil
}

func (uc *PlaceUseCase) fromCache(ctx context.Context, key string) ([]domain.Place, bool) {
	if uc.cacheRepo == nil {
		return nil, false
	}
	data, err := uc.cacheRepo.Get(ctx, key)
	if err != nil {
		uc.logger.Debug("Places cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	var places []domain.Place
	if err := json.Unmarshal(data, &places); err != nil {
		uc.logger.Debug("Places cache entry is broken", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return places, true
}

func (uc *PlaceUseCase) toCache(ctx context.Context, key string, places []domain.Place) {
	if uc.cacheRepo == nil {
		return
	}
	data, err := json.Marshal(places)
	if err != nil {
		return
	}
	if err := uc.cacheRepo.Set(ctx, key, data, uc.cacheTTL); err != nil {
		uc.logger.Debug("Places cache write failed", zap.String("key", key), zap.Error(err))
	}
}
