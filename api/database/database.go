// Package database stores the plants served by the plant store API.
package database

import (
	"context"
	"errors"
	"strings"

	"github.com/mgmu/planttracker/internal/plants"
)

var (
	// ErrPlantNotFound is returned when no plant matches the given address.
	ErrPlantNotFound = errors.New("database: plant not found")
	// ErrDuplicateName is returned when another plant already uses the name.
	ErrDuplicateName = errors.New("database: plant with this name already exists")
)

// Database defines the API to store and retrieve plants. Names are unique
// regardless of case and surrounding whitespace.
type Database interface {
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error
	ListPlants(ctx context.Context) ([]plants.Plant, error)
	AddPlant(ctx context.Context, d plants.Draft) (plants.Plant, error)
	UpdatePlantByID(ctx context.Context, id int64, d plants.Draft) (plants.Plant, error)
	UpdatePlantByName(ctx context.Context, name string, d plants.Draft) (plants.Plant, error)
	DeletePlantByID(ctx context.Context, id int64) error
	DeletePlantByName(ctx context.Context, name string) error
}

// NameKey returns the form of name used for uniqueness checks and lookups by
// name.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
