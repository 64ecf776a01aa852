// Package service implements the application operations on top of a
// store.Store: meal logging and the daily nutrition ledger, goals, the food
// catalog, user profiles and AI suggestions.
package service

import (
	"context"
	"time"

	"nutrilog/internal/metrics"
	"nutrilog/internal/models"
	"nutrilog/internal/store"
	"nutrilog/pkg/logger"
)

const (
	defaultPageSize = 12
	topFoodsLimit   = 4
)

// Coach produces a short coaching text for a day's intake. goal may be nil.
type Coach interface {
	Suggest(ctx context.Context, log *models.NutritionLog, goal *models.Goal) (string, error)
}

// Caller identifies the authenticated user making a request.
type Caller struct {
	UserID int64
	Admin  bool
}

type Service struct {
	store    store.Store
	coach    Coach
	metrics  *metrics.Metrics
	log      *logger.Logger
	pageSize int
	now      func() time.Time
}

func New(st store.Store, l *logger.Logger) *Service {
	return &Service{
		store:    st,
		log:      l,
		pageSize: defaultPageSize,
		now:      time.Now,
	}
}

func (s *Service) WithCoach(c Coach) *Service {
	s.coach = c
	return s
}

func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

func (s *Service) WithPageSize(n int) *Service {
	if n > 0 {
		s.pageSize = n
	}
	return s
}
