package database

import (
	"context"
	"slices"
	"sync"

	"github.com/mgmu/planttracker/internal/plants"
)

// MemoryDatabase keeps plants in process memory, in insertion order. Its
// content is lost when the process exits.
type MemoryDatabase struct {
	mu     sync.RWMutex
	plants []plants.Plant
	nextID int64
}

// NewMemoryDatabase returns an empty in-memory database.
func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{nextID: 1}
}

// Connect is a no-op.
func (db *MemoryDatabase) Connect(context.Context) error { return nil }

// Close is a no-op.
func (db *MemoryDatabase) Close() error { return nil }

// Ping always succeeds.
func (db *MemoryDatabase) Ping(context.Context) error { return nil }

func (db *MemoryDatabase) ListPlants(context.Context) ([]plants.Plant, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return slices.Clone(db.plants), nil
}

func (db *MemoryDatabase) AddPlant(_ context.Context, d plants.Draft) (plants.Plant, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.indexByName(d.Name, 0) >= 0 {
		return plants.Plant{}, ErrDuplicateName
	}
	p := plants.Plant{
		ID:               db.nextID,
		Name:             d.Name,
		Description:      d.Description,
		WateringSchedule: d.WateringSchedule,
	}
	db.nextID++
	db.plants = append(db.plants, p)
	return p, nil
}

func (db *MemoryDatabase) UpdatePlantByID(_ context.Context, id int64, d plants.Draft) (plants.Plant, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.update(db.indexByID(id), d)
}

func (db *MemoryDatabase) UpdatePlantByName(_ context.Context, name string, d plants.Draft) (plants.Plant, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.update(db.indexByName(name, 0), d)
}

// update expects db.mu to be held.
func (db *MemoryDatabase) update(i int, d plants.Draft) (plants.Plant, error) {
	if i < 0 {
		return plants.Plant{}, ErrPlantNotFound
	}
	if db.indexByName(d.Name, db.plants[i].ID) >= 0 {
		return plants.Plant{}, ErrDuplicateName
	}
	p := &db.plants[i]
	p.Name = d.Name
	p.Description = d.Description
	p.WateringSchedule = d.WateringSchedule
	return *p, nil
}

func (db *MemoryDatabase) DeletePlantByID(_ context.Context, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.delete(db.indexByID(id))
}

func (db *MemoryDatabase) DeletePlantByName(_ context.Context, name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.delete(db.indexByName(name, 0))
}

func (db *MemoryDatabase) delete(i int) error {
	if i < 0 {
		return ErrPlantNotFound
	}
	db.plants = slices.Delete(db.plants, i, i+1)
	return nil
}

func (db *MemoryDatabase) indexByID(id int64) int {
	return slices.IndexFunc(db.plants, func(p plants.Plant) bool { return p.ID == id })
}

// indexByName finds the plant whose name matches name, ignoring the plant
// with identifier except.
func (db *MemoryDatabase) indexByName(name string, except int64) int {
	key := NameKey(name)
	return slices.IndexFunc(db.plants, func(p plants.Plant) bool {
		return p.ID != except && NameKey(p.Name) == key
	})
}
