package app_test

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/neomorfeo/lifegarden/internal/domain"
)

// --- Mocks ---

type mockStore struct {
	mu      sync.Mutex
	plants  map[int64]domain.Plant
	areals  map[string]domain.Areal
	events  []domain.WateringEvent
	decays  map[string]map[int64]bool
	limit   int
	nextID  int64
	saveErr map[int64]error
	saves   int
}

func newMockStore() *mockStore {
	return &mockStore{
		plants:  make(map[int64]domain.Plant),
		areals:  make(map[string]domain.Areal),
		decays:  make(map[string]map[int64]bool),
		limit:   domain.DefaultDailyLimit,
		saveErr: make(map[int64]error),
	}
}

// addPlant stores p under the next ID and returns it.
func (m *mockStore) addPlant(p domain.Plant) domain.Plant {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	if p.GrowthStage == 0 {
		p.GrowthStage = domain.MinGrowthStage
	}
	m.plants[p.ID] = p
	return p
}

func (m *mockStore) plant(id int64) domain.Plant {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plants[id]
}

func (m *mockStore) CreatePlant(_ context.Context, p domain.Plant) (domain.Plant, error) {
	m.mu.Lock()
	for _, existing := range m.plants {
		if existing.Name == p.Name {
			m.mu.Unlock()
			return domain.Plant{}, &domain.PlantNameConflictError{Name: p.Name}
		}
	}
	m.mu.Unlock()
	return m.addPlant(p), nil
}

func (m *mockStore) GetPlant(_ context.Context, id int64) (domain.Plant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plants[id]
	if !ok {
		return domain.Plant{}, domain.ErrPlantNotFound
	}
	return p, nil
}

func (m *mockStore) GetPlantByName(_ context.Context, name string) (domain.Plant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.plants {
		if p.Name == name {
			return p, nil
		}
	}
	return domain.Plant{}, domain.ErrPlantNotFound
}

func (m *mockStore) ListPlants(_ context.Context, filter domain.PlantFilter) ([]domain.Plant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Plant
	for _, id := range m.sortedIDs() {
		p := m.plants[id]
		if filter.ArealID != "" && p.ArealID != filter.ArealID {
			continue
		}
		if filter.Health != nil && p.Health != *filter.Health {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *mockStore) SavePlant(_ context.Context, p domain.Plant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.saveErr[p.ID]; err != nil {
		return err
	}
	if _, ok := m.plants[p.ID]; !ok {
		return domain.ErrPlantNotFound
	}
	m.plants[p.ID] = p
	m.saves++
	return nil
}

func (m *mockStore) DeletePlant(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plants[id]; !ok {
		return domain.ErrPlantNotFound
	}
	delete(m.plants, id)
	return nil
}

func (m *mockStore) ListPlantsWithoutEventOn(_ context.Context, date domain.Date) ([]domain.Plant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Plant
	for _, id := range m.sortedIDs() {
		if m.wateredOn(id, date) || m.decays[date.String()][id] {
			continue
		}
		out = append(out, m.plants[id])
	}
	return out, nil
}

func (m *mockStore) SaveAreal(_ context.Context, a domain.Areal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.areals[a.ID] = a
	return nil
}

func (m *mockStore) GetAreal(_ context.Context, id string) (domain.Areal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.areals[id]
	if !ok {
		return domain.Areal{}, domain.ErrArealNotFound
	}
	return a, nil
}

func (m *mockStore) ListAreals(_ context.Context) ([]domain.Areal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Areal, 0, len(m.areals))
	for _, a := range m.areals {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b domain.Areal) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out, nil
}

func (m *mockStore) DeleteAreal(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.areals[id]; !ok {
		return domain.ErrArealNotFound
	}
	delete(m.areals, id)
	for pid, p := range m.plants {
		if p.ArealID == id {
			delete(m.plants, pid)
		}
	}
	return nil
}

func (m *mockStore) SeedLayout(_ context.Context, layout []domain.ArealLayout) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.areals) > 0 {
		return false, nil
	}

	seen := make(map[string]bool)
	for _, entry := range layout {
		for _, p := range entry.Plants {
			if seen[p.Name] {
				return false, &domain.PlantNameConflictError{Name: p.Name}
			}
			seen[p.Name] = true
		}
	}

	for _, entry := range layout {
		m.areals[entry.Areal.ID] = entry.Areal
		for _, p := range entry.Plants {
			m.nextID++
			p.ID = m.nextID
			p.ArealID = entry.Areal.ID
			m.plants[p.ID] = p
		}
	}
	return true, nil
}

// RecordWatering fails on saveErr before writing anything, like a rolled
// back transaction.
func (m *mockStore) RecordWatering(_ context.Context, p domain.Plant, date domain.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plants[p.ID]; !ok {
		return domain.ErrPlantNotFound
	}
	if m.wateredOn(p.ID, date) {
		return domain.ErrAlreadyWatered
	}
	if err := m.saveErr[p.ID]; err != nil {
		return err
	}
	m.events = append(m.events, domain.WateringEvent{PlantID: p.ID, PlantName: p.Name, Date: date})
	m.plants[p.ID] = p
	m.saves++
	return nil
}

func (m *mockStore) CountEventsOn(_ context.Context, date domain.Date) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.Date == date {
			n++
		}
	}
	return n, nil
}

func (m *mockStore) ListWateringEvents(_ context.Context, filter domain.EventFilter) ([]domain.WateringEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.WateringEvent
	for _, e := range m.events {
		if filter.Date != nil && e.Date != *filter.Date {
			continue
		}
		if filter.PlantID != nil && e.PlantID != *filter.PlantID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *mockStore) RecordDecay(_ context.Context, p domain.Plant, date domain.Date) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := date.String()
	if m.decays[key][p.ID] {
		return false, nil
	}
	if err := m.saveErr[p.ID]; err != nil {
		return false, err
	}
	if m.decays[key] == nil {
		m.decays[key] = make(map[int64]bool)
	}
	m.decays[key][p.ID] = true
	m.plants[p.ID] = p
	m.saves++
	return true, nil
}

func (m *mockStore) GetDailyLimit(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.limit, nil
}

func (m *mockStore) SetDailyLimit(_ context.Context, limit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limit = limit
	return nil
}

// wateredOn must be called with m.mu held.
func (m *mockStore) wateredOn(id int64, date domain.Date) bool {
	for _, e := range m.events {
		if e.PlantID == id && e.Date == date {
			return true
		}
	}
	return false
}

// sortedIDs must be called with m.mu held.
func (m *mockStore) sortedIDs() []int64 {
	ids := make([]int64, 0, len(m.plants))
	for id := range m.plants {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

type mockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

type publishedEvent struct {
	event domain.Event
	plant domain.Plant
}

func (m *mockPublisher) Publish(_ context.Context, e domain.Event, p domain.Plant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, publishedEvent{event: e, plant: p})
	return m.err
}

func (m *mockPublisher) kinds() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Event, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.event)
	}
	return out
}

// mockValidator applies domain.Transitions directly.
type mockValidator struct{}

func (mockValidator) Apply(_ context.Context, current domain.Health, event domain.Event) (domain.Health, error) {
	for _, t := range domain.Transitions {
		if t.Event == event && t.Src == current {
			return t.Dst, nil
		}
	}
	return "", &domain.TransitionError{Event: event, Current: current}
}

type fixedClock struct {
	today domain.Date
}

func (c fixedClock) Today() domain.Date { return c.today }

type mockReader struct {
	items []domain.ChecklistItem
	err   error
}

func (m *mockReader) ReadChecklist(_ context.Context, _ []byte, _ string) ([]domain.ChecklistItem, error) {
	return m.items, m.err
}

var errDiskFull = errors.New("disk full")
