// Package testutil provides in-memory stand-ins for the Postgres, Supabase
// and MongoDB repositories.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/gatherly/internal/helpers"
	"github.com/joshua-takyi/gatherly/internal/models"
	"github.com/supabase-community/gotrue-go/types"
)

type partKey struct {
	eventID int64
	userID  int64
}

// Store implements the relational repositories in memory. WithEventLock
// holds a per-event mutex for the whole callback and buffers writes until
// the callback returns nil, mirroring the row lock and transaction of the
// Postgres implementation.
type Store struct {
	mu     sync.Mutex
	nextID int64
	clock  time.Time

	profiles   map[int64]*models.Profile
	categories map[int64]*models.Category
	events     map[int64]*models.Event
	parts      map[partKey]*models.EventParticipation
	eventLocks map[int64]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		clock:      time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		profiles:   make(map[int64]*models.Profile),
		categories: make(map[int64]*models.Category),
		events:     make(map[int64]*models.Event),
		parts:      make(map[partKey]*models.EventParticipation),
		eventLocks: make(map[int64]*sync.Mutex),
	}
}

// id and tick must be called with s.mu held. tick hands out strictly
// increasing timestamps so created_at ordering is deterministic.
func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *Store) eventLock(eventID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.eventLocks[eventID]
	if !ok {
		l = &sync.Mutex{}
		s.eventLocks[eventID] = l
	}
	return l
}

// hydrate fills the joined columns and returns a copy.
func (s *Store) hydrate(e *models.Event) *models.Event {
	out := *e
	if p, ok := s.profiles[e.HostID]; ok {
		out.HostName = p.Username
	}
	out.CategoryName = nil
	if e.CategoryID != nil {
		if c, ok := s.categories[*e.CategoryID]; ok {
			name := c.Name
			out.CategoryName = &name
		}
	}
	return &out
}

// SeedProfile inserts a profile with a fresh auth id.
func (s *Store) SeedProfile(username string) *models.Profile {
	p, err := s.CreateProfile(context.Background(), &models.Profile{
		AuthID:   uuid.New(),
		Username: username,
		Email:    username + "@example.com",
	})
	if err != nil {
		panic(err)
	}
	return p
}

// SeedEvent inserts a public event at (0, 0) with capacity 50, after
// applying mutate.
func (s *Store) SeedEvent(hostID int64, mutate func(e *models.Event)) *models.Event {
	start := time.Date(2030, 6, 1, 18, 0, 0, 0, time.UTC)
	e := &models.Event{
		HostID:       hostID,
		Title:        "Meetup",
		StartTime:    start,
		EndTime:      start.Add(2 * time.Hour),
		LocationName: "Hall",
		Address:      "1 Main St",
		Capacity:     models.DefaultEventCapacity,
		IsPublic:     true,
	}
	if mutate != nil {
		mutate(e)
	}
	created, err := s.CreateEvent(context.Background(), e)
	if err != nil {
		panic(err)
	}
	return created
}

// Participation returns the stored row for (event, user), if any.
func (s *Store) Participation(eventID, userID int64) (*models.EventParticipation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parts[partKey{eventID, userID}]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

// ProfilesRepo

func (s *Store) CreateProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.Username == profile.Username || p.AuthID == profile.AuthID {
			return nil, fmt.Errorf("failed to create profile: %w", models.ErrConflict)
		}
	}
	p := *profile
	p.ID = s.id()
	p.CreatedAt = s.tick()
	s.profiles[p.ID] = &p
	out := p
	return &out, nil
}

func (s *Store) GetProfileByID(ctx context.Context, id int64) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("failed to get profile %d: %w", id, models.ErrNotFound)
	}
	out := *p
	return &out, nil
}

func (s *Store) GetProfileByAuthID(ctx context.Context, authID uuid.UUID) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.AuthID == authID {
			out := *p
			return &out, nil
		}
	}
	return nil, fmt.Errorf("failed to get profile for %s: %w", authID, models.ErrNotFound)
}

// CategoriesRepo

func (s *Store) ListCategories(ctx context.Context) ([]*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, fmt.Errorf("failed to get category %d: %w", id, models.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (s *Store) EnsureCategory(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Name == name {
			return false, nil
		}
	}
	id := s.id()
	s.categories[id] = &models.Category{ID: id, Name: name}
	return true, nil
}

// EventsRepo

func (s *Store) CreateEvent(ctx context.Context, event *models.Event) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[event.HostID]; !ok {
		return nil, fmt.Errorf("failed to create event: %w", models.ErrInvalidInput)
	}
	if event.CategoryID != nil {
		if _, ok := s.categories[*event.CategoryID]; !ok {
			return nil, fmt.Errorf("failed to create event: %w", models.ErrInvalidInput)
		}
	}
	e := *event
	e.ID = s.id()
	e.CreatedAt = s.tick()
	s.events[e.ID] = &e
	return s.hydrate(&e), nil
}

func (s *Store) GetEventByID(ctx context.Context, id int64) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, fmt.Errorf("failed to get event %d: %w", id, models.ErrNotFound)
	}
	return s.hydrate(e), nil
}

func (s *Store) ListEvents(ctx context.Context, filter models.EventFilter) ([]*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Event{}
	for _, e := range s.events {
		if !e.VisibleTo(filter.ViewerID) {
			continue
		}
		if filter.Box != nil && !filter.Box.Contains(e.Location()) {
			continue
		}
		out = append(out, s.hydrate(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateEvent(ctx context.Context, event *models.Event) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.events[event.ID]
	if !ok {
		return nil, fmt.Errorf("failed to update event %d: %w", event.ID, models.ErrNotFound)
	}
	if event.CategoryID != nil {
		if _, ok := s.categories[*event.CategoryID]; !ok {
			return nil, fmt.Errorf("failed to update event %d: %w", event.ID, models.ErrInvalidInput)
		}
	}
	e := *event
	e.HostID = existing.HostID
	e.CreatedAt = existing.CreatedAt
	s.events[e.ID] = &e
	return s.hydrate(&e), nil
}

func (s *Store) DeleteEvent(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return fmt.Errorf("failed to delete event %d: %w", id, models.ErrNotFound)
	}
	delete(s.events, id)
	for k := range s.parts {
		if k.eventID == id {
			delete(s.parts, k)
		}
	}
	return nil
}

func (s *Store) CountActiveParticipations(ctx context.Context, eventIDs []int64) (map[int64]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[int64]bool, len(eventIDs))
	for _, id := range eventIDs {
		wanted[id] = true
	}
	counts := make(map[int64]int)
	for k, p := range s.parts {
		if wanted[k.eventID] && p.Status.IsActive() {
			counts[k.eventID]++
		}
	}
	return counts, nil
}

func (s *Store) ListAttendees(ctx context.Context, eventID int64) ([]*models.Attendee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := []*models.EventParticipation{}
	for k, p := range s.parts {
		if k.eventID == eventID && p.Status.IsActive() {
			active = append(active, p)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })

	out := make([]*models.Attendee, 0, len(active))
	for _, p := range active {
		a := &models.Attendee{ID: p.UserID}
		if prof, ok := s.profiles[p.UserID]; ok {
			a.Username = prof.Username
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) GetParticipation(ctx context.Context, eventID, userID int64) (*models.EventParticipation, error) {
	p, ok := s.Participation(eventID, userID)
	if !ok {
		return nil, fmt.Errorf("failed to get participation: %w", models.ErrNotFound)
	}
	return p, nil
}

// ParticipationRepo

func (s *Store) WithEventLock(ctx context.Context, eventID int64, fn func(ctx context.Context, tx models.ParticipationTx, event *models.Event) error) error {
	l := s.eventLock(eventID)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	e, ok := s.events[eventID]
	var event *models.Event
	if ok {
		event = s.hydrate(e)
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("failed to lock event %d: %w", eventID, models.ErrNotFound)
	}

	tx := &memTx{s: s, pending: make(map[partKey]*models.EventParticipation)}
	if err := fn(ctx, tx, event); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, p := range tx.pending {
		s.parts[k] = p
	}
	return nil
}

// memTx reads committed rows overlaid with its own uncommitted writes.
type memTx struct {
	s       *Store
	pending map[partKey]*models.EventParticipation
}

func (t *memTx) lookup(k partKey) (*models.EventParticipation, bool) {
	if p, ok := t.pending[k]; ok {
		return p, true
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	p, ok := t.s.parts[k]
	return p, ok
}

func (t *memTx) CountActiveParticipations(ctx context.Context, eventID int64) (int, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	n := 0
	for k, p := range t.s.parts {
		if k.eventID != eventID {
			continue
		}
		if pending, ok := t.pending[k]; ok {
			p = pending
		}
		if p.Status.IsActive() {
			n++
		}
	}
	for k, p := range t.pending {
		if _, committed := t.s.parts[k]; !committed && k.eventID == eventID && p.Status.IsActive() {
			n++
		}
	}
	return n, nil
}

func (t *memTx) GetOrCreateParticipation(ctx context.Context, eventID, userID int64) (*models.EventParticipation, bool, error) {
	k := partKey{eventID, userID}
	if p, ok := t.lookup(k); ok {
		cp := *p
		return &cp, false, nil
	}

	t.s.mu.Lock()
	p := &models.EventParticipation{
		ID:        t.s.id(),
		EventID:   eventID,
		UserID:    userID,
		Status:    models.StatusJoined,
		CreatedAt: t.s.tick(),
	}
	t.s.mu.Unlock()

	t.pending[k] = p
	cp := *p
	return &cp, true, nil
}

func (t *memTx) GetParticipation(ctx context.Context, eventID, userID int64) (*models.EventParticipation, error) {
	p, ok := t.lookup(partKey{eventID, userID})
	if !ok {
		return nil, fmt.Errorf("failed to get participation: %w", models.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (t *memTx) SetParticipationStatus(ctx context.Context, id int64, status models.ParticipationStatus) (*models.EventParticipation, error) {
	var (
		key   partKey
		found *models.EventParticipation
	)
	for k, p := range t.pending {
		if p.ID == id {
			key, found = k, p
		}
	}
	if found == nil {
		t.s.mu.Lock()
		for k, p := range t.s.parts {
			if p.ID == id {
				key, found = k, p
			}
		}
		t.s.mu.Unlock()
	}
	if found == nil {
		return nil, fmt.Errorf("failed to update participation %d: %w", id, models.ErrNotFound)
	}

	updated := *found
	updated.Status = status
	t.pending[key] = &updated
	cp := updated
	return &cp, nil
}

// FakeAuth is an in-memory identity provider. Passwords are stored as given.
type FakeAuth struct {
	mu    sync.Mutex
	users map[string]fakeUser
	// SignupErr, when set, is returned by every Signup call.
	SignupErr error
}

type fakeUser struct {
	id       uuid.UUID
	password string
}

func NewFakeAuth() *FakeAuth {
	return &FakeAuth{users: make(map[string]fakeUser)}
}

func (f *FakeAuth) Signup(ctx context.Context, email, password string, metadata map[string]interface{}) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SignupErr != nil {
		return uuid.Nil, f.SignupErr
	}
	if _, exists := f.users[email]; exists {
		return uuid.Nil, fmt.Errorf("failed to sign up: user already registered")
	}
	id := uuid.New()
	f.users[email] = fakeUser{id: id, password: password}
	return id, nil
}

func (f *FakeAuth) AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok || u.password != password {
		return nil, fmt.Errorf("failed to authenticate user: invalid login credentials")
	}
	res := &types.TokenResponse{}
	res.AccessToken = "access-" + u.id.String()
	res.RefreshToken = "refresh-" + u.id.String()
	res.ExpiresIn = 3600
	res.User.ID = u.id
	res.User.Email = email
	return res, nil
}

func (f *FakeAuth) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for email, u := range f.users {
		if refreshToken == "refresh-"+u.id.String() {
			res := &types.TokenResponse{}
			res.AccessToken = "access-" + u.id.String()
			res.RefreshToken = refreshToken
			res.ExpiresIn = 3600
			res.User.ID = u.id
			res.User.Email = email
			return res, nil
		}
	}
	return nil, fmt.Errorf("failed to refresh token: invalid refresh token")
}

// ViewStore records event views in memory with the same per-hour session
// buckets as the MongoDB repository.
type ViewStore struct {
	mu    sync.Mutex
	Views []*models.EventView
	Now   func() time.Time
}

func NewViewStore() *ViewStore {
	return &ViewStore{Now: time.Now}
}

func (v *ViewStore) EnsureIndexes(ctx context.Context) error { return nil }

func (v *ViewStore) TrackEventView(ctx context.Context, view *models.EventView) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	viewedAt := view.ViewedAt
	if viewedAt.IsZero() {
		viewedAt = v.Now()
	}
	bucket := viewedAt.UTC().Truncate(time.Hour)
	for _, existing := range v.Views {
		if existing.EventID == view.EventID && existing.SessionID == view.SessionID &&
			existing.Bucket.Equal(bucket) {
			return nil
		}
	}
	cp := *view
	cp.ViewedAt = viewedAt.UTC()
	cp.Bucket = bucket
	cp.ExpiresAt = cp.ViewedAt.Add(30 * 24 * time.Hour)
	v.Views = append(v.Views, &cp)
	return nil
}

func (v *ViewStore) GetEventViewStats(ctx context.Context, eventID int64, now time.Time) (*models.EventViewStats, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	stats := &models.EventViewStats{EventID: eventID}
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfWeek := startOfDay.AddDate(0, 0, -int(now.Weekday()))
	sessions := map[string]bool{}
	for _, view := range v.Views {
		if view.EventID != eventID {
			continue
		}
		stats.TotalViews++
		sessions[view.SessionID] = true
		if !view.ViewedAt.Before(startOfDay) {
			stats.ViewsToday++
		}
		if !view.ViewedAt.Before(startOfWeek) {
			stats.ViewsThisWeek++
		}
	}
	stats.UniqueViews = int64(len(sessions))
	return stats, nil
}

// Count returns the number of recorded views.
func (v *ViewStore) Count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.Views)
}

// FakeTokens accepts the access tokens FakeAuth issues ("access-<uuid>").
type FakeTokens struct{}

func (FakeTokens) ValidateToken(token string) (*helpers.CustomClaims, error) {
	raw, ok := strings.CutPrefix(token, "access-")
	if !ok {
		return nil, helpers.ErrInvalidToken
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, helpers.ErrInvalidToken
	}
	claims := &helpers.CustomClaims{Role: "authenticated"}
	claims.Subject = id.String()
	return claims, nil
}

// AccessToken returns a token FakeTokens accepts for profile.
func AccessToken(profile *models.Profile) string {
	return "access-" + profile.AuthID.String()
}
