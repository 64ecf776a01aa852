// Package memdb is an in-memory store.Store. It serialises every call on one
// mutex and rolls a failed transaction back by restoring a snapshot.
package memdb

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"nutrilog/internal/models"
	"nutrilog/internal/nutrition"
	"nutrilog/internal/store"
)

type ledgerKey struct {
	userID int64
	day    string
}

type state struct {
	seq     int64
	users   map[int64]models.User
	foods   map[int64]models.FoodItem
	reviews map[int64]models.Review
	goals   map[int64]models.Goal
	meals   map[int64]models.Meal
	logs    map[int64]models.NutritionLog
	byDay   map[ledgerKey]int64
}

func newState() *state {
	return &state{
		users:   make(map[int64]models.User),
		foods:   make(map[int64]models.FoodItem),
		reviews: make(map[int64]models.Review),
		goals:   make(map[int64]models.Goal),
		meals:   make(map[int64]models.Meal),
		logs:    make(map[int64]models.NutritionLog),
		byDay:   make(map[ledgerKey]int64),
	}
}

func (s *state) clone() *state {
	c := newState()
	c.seq = s.seq
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.foods {
		c.foods[k] = copyFood(v)
	}
	for k, v := range s.reviews {
		c.reviews[k] = v
	}
	for k, v := range s.goals {
		c.goals[k] = v
	}
	for k, v := range s.meals {
		c.meals[k] = copyMeal(v)
	}
	for k, v := range s.logs {
		c.logs[k] = v
	}
	for k, v := range s.byDay {
		c.byDay[k] = v
	}
	return c
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

// Store implements store.Store.
type Store struct {
	repo
}

// repo carries the query methods. Outside a transaction it takes the lock
// per call; inside InTx the lock is already held.
type repo struct {
	mu      *sync.Mutex
	st      **state
	locking bool
	now     func() time.Time
}

func New() *Store {
	st := newState()
	return &Store{repo{mu: &sync.Mutex{}, st: &st, locking: true, now: time.Now}}
}

func (r *repo) acquire() func() {
	if !r.locking {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

func (r *repo) s() *state {
	return *r.st
}

func (s *Store) InTx(ctx context.Context, fn func(tx store.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := (*s.st).clone()
	if err := fn(&repo{mu: s.mu, st: s.st, locking: false, now: s.now}); err != nil {
		*s.st = snapshot
		return err
	}
	return nil
}

func copyFood(f models.FoodItem) models.FoodItem {
	if f.Macros != nil {
		m := *f.Macros
		f.Macros = &m
	}
	return f
}

func copyMeal(m models.Meal) models.Meal {
	m.Foods = append([]nutrition.LineItem(nil), m.Foods...)
	return m
}

func keyFor(userID int64, day time.Time) ledgerKey {
	return ledgerKey{userID: userID, day: nutrition.NormalizeDate(day).Format(nutrition.DateLayout)}
}

// Foods

func (r *repo) ResolveFoodsByIDs(ctx context.Context, ids []int64) (map[int64]*models.FoodItem, error) {
	defer r.acquire()()
	out := make(map[int64]*models.FoodItem, len(ids))
	for _, id := range ids {
		if f, ok := r.s().foods[id]; ok {
			c := copyFood(f)
			out[id] = &c
		}
	}
	return out, nil
}

func (r *repo) GetFood(ctx context.Context, id int64) (*models.FoodItem, error) {
	defer r.acquire()()
	f, ok := r.s().foods[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := copyFood(f)
	return &c, nil
}

func (r *repo) sortedFoods(keep func(models.FoodItem) bool) []models.FoodItem {
	foods := make([]models.FoodItem, 0, len(r.s().foods))
	for _, f := range r.s().foods {
		if keep(f) {
			foods = append(foods, copyFood(f))
		}
	}
	sort.Slice(foods, func(i, j int) bool { return foods[i].ID < foods[j].ID })
	return foods
}

func (r *repo) SearchFoods(ctx context.Context, q store.FoodQuery) ([]models.FoodItem, int, error) {
	defer r.acquire()()
	kw := strings.ToLower(q.Keyword)
	foods := r.sortedFoods(func(f models.FoodItem) bool {
		return kw == "" ||
			strings.Contains(strings.ToLower(f.Description), kw) ||
			strings.Contains(strings.ToLower(f.Category), kw)
	})
	total := len(foods)
	if q.Offset >= total {
		return []models.FoodItem{}, total, nil
	}
	end := total
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	return foods[q.Offset:end], total, nil
}

func (r *repo) TopFoods(ctx context.Context, limit int) ([]models.FoodItem, error) {
	defer r.acquire()()
	foods := r.sortedFoods(func(models.FoodItem) bool { return true })
	sort.SliceStable(foods, func(i, j int) bool { return foods[i].Rating > foods[j].Rating })
	if limit < len(foods) {
		foods = foods[:limit]
	}
	return foods, nil
}

// fdcTaken reports whether a food other than self already uses fdcID.
func (s *state) fdcTaken(fdcID *int64, self int64) bool {
	if fdcID == nil {
		return false
	}
	for id, other := range s.foods {
		if id != self && other.FdcID != nil && *other.FdcID == *fdcID {
			return true
		}
	}
	return false
}

func (r *repo) CreateFood(ctx context.Context, f *models.FoodItem) error {
	defer r.acquire()()
	s := r.s()
	if s.fdcTaken(f.FdcID, 0) {
		return store.ErrConflict
	}
	f.ID = s.nextID()
	if f.Macros != nil {
		f.Macros.ID = s.nextID()
	}
	f.CreatedAt = r.now()
	f.UpdatedAt = f.CreatedAt
	s.foods[f.ID] = copyFood(*f)
	return nil
}

func (r *repo) UpdateFood(ctx context.Context, f *models.FoodItem) error {
	defer r.acquire()()
	s := r.s()
	cur, ok := s.foods[f.ID]
	if !ok {
		return store.ErrNotFound
	}
	if s.fdcTaken(f.FdcID, f.ID) {
		return store.ErrConflict
	}
	if f.Macros == nil {
		f.Macros = cur.Macros
	} else if cur.Macros != nil {
		f.Macros.ID = cur.Macros.ID
	} else {
		f.Macros.ID = s.nextID()
	}
	f.Rating, f.ReviewCount, f.CreatedAt = cur.Rating, cur.ReviewCount, cur.CreatedAt
	f.UpdatedAt = r.now()
	s.foods[f.ID] = copyFood(*f)
	return nil
}

func (r *repo) DeleteFood(ctx context.Context, id int64) error {
	defer r.acquire()()
	s := r.s()
	if _, ok := s.foods[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.foods, id)
	for rid, rv := range s.reviews {
		if rv.FoodID == id {
			delete(s.reviews, rid)
		}
	}
	return nil
}

func (r *repo) AddReview(ctx context.Context, rv *models.Review) error {
	defer r.acquire()()
	s := r.s()
	f, ok := s.foods[rv.FoodID]
	if !ok {
		return store.ErrNotFound
	}
	var sum float64
	count := 0
	for _, other := range s.reviews {
		if other.FoodID != rv.FoodID {
			continue
		}
		if other.UserID == rv.UserID {
			return store.ErrConflict
		}
		sum += other.Rating
		count++
	}
	rv.ID = s.nextID()
	rv.CreatedAt = r.now()
	s.reviews[rv.ID] = *rv

	f.ReviewCount = count + 1
	f.Rating = (sum + rv.Rating) / float64(f.ReviewCount)
	f.UpdatedAt = rv.CreatedAt
	s.foods[f.ID] = f
	return nil
}

// Goals

func (r *repo) GetGoalForUser(ctx context.Context, userID int64) (*models.Goal, error) {
	defer r.acquire()()
	for _, g := range r.s().goals {
		if g.UserID == userID {
			c := g
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *repo) GetGoal(ctx context.Context, id int64) (*models.Goal, error) {
	defer r.acquire()()
	g, ok := r.s().goals[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &g, nil
}

func (r *repo) ListGoals(ctx context.Context) ([]models.Goal, error) {
	defer r.acquire()()
	goals := make([]models.Goal, 0, len(r.s().goals))
	for _, g := range r.s().goals {
		goals = append(goals, g)
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].ID < goals[j].ID })
	return goals, nil
}

func (r *repo) UpsertGoal(ctx context.Context, g *models.Goal) error {
	defer r.acquire()()
	s := r.s()
	g.MacroID = s.nextID()
	for id, existing := range s.goals {
		if existing.UserID == g.UserID {
			g.ID = id
			s.goals[id] = *g
			return nil
		}
	}
	g.ID = s.nextID()
	s.goals[g.ID] = *g
	return nil
}

func (r *repo) UpdateGoal(ctx context.Context, g *models.Goal) error {
	defer r.acquire()()
	s := r.s()
	cur, ok := s.goals[g.ID]
	if !ok {
		return store.ErrNotFound
	}
	g.UserID, g.MacroID = cur.UserID, cur.MacroID
	s.goals[g.ID] = *g
	return nil
}

func (r *repo) DeleteGoal(ctx context.Context, id int64) error {
	defer r.acquire()()
	if _, ok := r.s().goals[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.s().goals, id)
	return nil
}

// Meals

func (r *repo) CreateMeal(ctx context.Context, m *models.Meal) error {
	defer r.acquire()()
	s := r.s()
	m.ID = s.nextID()
	m.CreatedAt = r.now()
	m.UpdatedAt = m.CreatedAt
	s.meals[m.ID] = copyMeal(*m)
	return nil
}

func (r *repo) GetMeal(ctx context.Context, userID, id int64) (*models.Meal, error) {
	defer r.acquire()()
	m, ok := r.s().meals[id]
	if !ok || m.UserID != userID {
		return nil, store.ErrNotFound
	}
	c := copyMeal(m)
	return &c, nil
}

// GetMealForUpdate is GetMeal: a transaction already holds the store lock.
func (r *repo) GetMealForUpdate(ctx context.Context, userID, id int64) (*models.Meal, error) {
	return r.GetMeal(ctx, userID, id)
}

func (r *repo) UpdateMeal(ctx context.Context, m *models.Meal) error {
	defer r.acquire()()
	s := r.s()
	cur, ok := s.meals[m.ID]
	if !ok || cur.UserID != m.UserID {
		return store.ErrNotFound
	}
	m.CreatedAt = cur.CreatedAt
	m.UpdatedAt = r.now()
	s.meals[m.ID] = copyMeal(*m)
	return nil
}

func (r *repo) ListMeals(ctx context.Context, userID int64) ([]models.Meal, error) {
	defer r.acquire()()
	meals := make([]models.Meal, 0)
	for _, m := range r.s().meals {
		if m.UserID == userID {
			meals = append(meals, copyMeal(m))
		}
	}
	sort.Slice(meals, func(i, j int) bool {
		if !meals[i].Date.Equal(meals[j].Date) {
			return meals[i].Date.After(meals[j].Date)
		}
		return meals[i].ID > meals[j].ID
	})
	return meals, nil
}

// Ledger

func (r *repo) IncrementLedger(ctx context.Context, userID int64, day time.Time, delta nutrition.Totals) (*models.NutritionLog, error) {
	defer r.acquire()()
	s := r.s()
	key := keyFor(userID, day)
	id, ok := s.byDay[key]
	if !ok {
		id = s.nextID()
		s.byDay[key] = id
		s.logs[id] = models.NutritionLog{ID: id, UserID: userID, Date: nutrition.NormalizeDate(day)}
	}
	l := s.logs[id]
	l.SetTotals(l.Totals().Add(delta))
	l.UpdatedAt = r.now()
	s.logs[id] = l
	return &l, nil
}

func (r *repo) ApplyLedgerDelta(ctx context.Context, userID int64, day time.Time, delta nutrition.Totals) (*models.NutritionLog, error) {
	defer r.acquire()()
	s := r.s()
	id, ok := s.byDay[keyFor(userID, day)]
	if !ok {
		return nil, store.ErrNotFound
	}
	l := s.logs[id]
	l.SetTotals(l.Totals().Add(delta))
	l.UpdatedAt = r.now()
	s.logs[id] = l
	return &l, nil
}

func (r *repo) SetLedgerProgress(ctx context.Context, logID int64, p nutrition.Progress) error {
	defer r.acquire()()
	s := r.s()
	l, ok := s.logs[logID]
	if !ok {
		return store.ErrNotFound
	}
	l.ProgressTowardsGoal = p
	s.logs[logID] = l
	return nil
}

func (r *repo) GetNutritionLog(ctx context.Context, userID int64, day time.Time) (*models.NutritionLog, error) {
	defer r.acquire()()
	id, ok := r.s().byDay[keyFor(userID, day)]
	if !ok {
		return nil, store.ErrNotFound
	}
	l := r.s().logs[id]
	return &l, nil
}

func (r *repo) userLogs(userID int64) []models.NutritionLog {
	logs := make([]models.NutritionLog, 0)
	for _, l := range r.s().logs {
		if l.UserID == userID {
			logs = append(logs, l)
		}
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].Date.After(logs[j].Date) })
	return logs
}

func (r *repo) ListNutritionLogs(ctx context.Context, userID int64) ([]models.NutritionLog, error) {
	defer r.acquire()()
	return r.userLogs(userID), nil
}

func (r *repo) LatestNutritionLog(ctx context.Context, userID int64) (*models.NutritionLog, error) {
	defer r.acquire()()
	logs := r.userLogs(userID)
	if len(logs) == 0 {
		return nil, store.ErrNotFound
	}
	return &logs[0], nil
}

// Users

func (r *repo) CreateUser(ctx context.Context, u *models.User) error {
	defer r.acquire()()
	s := r.s()
	if _, ok := s.users[u.ID]; ok {
		return store.ErrConflict
	}
	for _, other := range s.users {
		if strings.EqualFold(other.Email, u.Email) {
			return store.ErrConflict
		}
	}
	if u.Picture == "" {
		u.Picture = "/images/user_images/default.jpg"
	}
	u.CreatedAt = r.now()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = *u
	return nil
}

func (r *repo) GetUser(ctx context.Context, id int64) (*models.User, error) {
	defer r.acquire()()
	u, ok := r.s().users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (r *repo) UpdateUser(ctx context.Context, u *models.User) error {
	defer r.acquire()()
	s := r.s()
	cur, ok := s.users[u.ID]
	if !ok {
		return store.ErrNotFound
	}
	for id, other := range s.users {
		if id != u.ID && strings.EqualFold(other.Email, u.Email) {
			return store.ErrConflict
		}
	}
	u.CreatedAt = cur.CreatedAt
	u.UpdatedAt = r.now()
	s.users[u.ID] = *u
	return nil
}

func (r *repo) ListUsers(ctx context.Context) ([]models.User, error) {
	defer r.acquire()()
	users := make([]models.User, 0, len(r.s().users))
	for _, u := range r.s().users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *repo) DeleteUser(ctx context.Context, id int64) error {
	defer r.acquire()()
	if _, ok := r.s().users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.s().users, id)
	return nil
}

var _ store.Store = (*Store)(nil)
