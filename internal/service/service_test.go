package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"nutrilog/internal/db/memdb"
	"nutrilog/internal/metrics"
	"nutrilog/internal/models"
	"nutrilog/internal/nutrition"
	"nutrilog/pkg/logger"
)

func newTestService(t *testing.T) (*Service, *memdb.Store) {
	t.Helper()
	st := memdb.New()
	svc := New(st, logger.Nop()).WithMetrics(metrics.New(prometheus.NewPedanticRegistry()))
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc, st
}

func addFood(t *testing.T, svc *Service, desc string, macros *nutrition.MacroProfile) int64 {
	t.Helper()
	f, err := svc.CreateFood(context.Background(), FoodInput{Description: desc, Macros: macros})
	if err != nil {
		t.Fatalf("CreateFood(%s): %v", desc, err)
	}
	return f.ID
}

func day(s string) time.Time {
	d, err := nutrition.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func assertTotals(t *testing.T, got *models.NutritionLog, want nutrition.Totals) {
	t.Helper()
	g := got.Totals()
	if !approx(g.Calories, want.Calories) || !approx(g.Protein, want.Protein) ||
		!approx(g.Carbohydrates, want.Carbohydrates) || !approx(g.Fat, want.Fat) {
		t.Errorf("ledger totals = %+v, want %+v", g, want)
	}
}
