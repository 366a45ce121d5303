package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mgmu/planttracker/internal/plants"
)

var (
	rose   = plants.Draft{Name: "Rose", Description: "Red flower", WateringSchedule: "Weekly"}
	tomato = plants.Draft{Name: "Tomato", Description: "Vine", WateringSchedule: "Daily"}
)

func TestMemoryDatabase(t *testing.T) {
	testDatabase(t, NewMemoryDatabase())
}

func TestSQLiteDatabase(t *testing.T) {
	db := NewSQLiteDatabase(filepath.Join(t.TempDir(), "hortus.db"))
	if err := db.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	testDatabase(t, db)
}

// TestPostgresDatabase needs a disposable server; the plants table is
// emptied first.
func TestPostgresDatabase(t *testing.T) {
	url := os.Getenv("HORTUS_TEST_DB_URL")
	if url == "" {
		t.Skip("HORTUS_TEST_DB_URL not set")
	}
	ctx := context.Background()
	db := NewPostgresDatabase(url)
	if err := db.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.pool.Exec(ctx, "TRUNCATE plants RESTART IDENTITY;"); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	testDatabase(t, db)
}

func TestPostgresRequiresURL(t *testing.T) {
	if err := NewPostgresDatabase("").Connect(context.Background()); err == nil {
		t.Error("Expected an error without a database url")
	}
}

// testDatabase runs the behaviour every backend must share against an empty
// database.
func testDatabase(t *testing.T, db Database) {
	ctx := context.Background()

	if err := db.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	list, err := db.ListPlants(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("Expected an empty list, got %v, %v", list, err)
	}

	r, err := db.AddPlant(ctx, rose)
	if err != nil {
		t.Fatalf("AddPlant: %v", err)
	}
	if r.ID <= 0 || r.Draft() != rose {
		t.Errorf("unexpected plant %+v", r)
	}
	tm, err := db.AddPlant(ctx, tomato)
	if err != nil {
		t.Fatalf("AddPlant: %v", err)
	}
	if tm.ID == r.ID {
		t.Errorf("Expected distinct identifiers, got %d twice", r.ID)
	}

	t.Run("duplicate names", func(t *testing.T) {
		for _, name := range []string{"Rose", "rose", "  ROSE "} {
			d := rose
			d.Name = name
			if _, err := db.AddPlant(ctx, d); !errors.Is(err, ErrDuplicateName) {
				t.Errorf("AddPlant(%q): expected ErrDuplicateName, got %v", name, err)
			}
		}
		d := tomato
		d.Name = "rose"
		if _, err := db.UpdatePlantByID(ctx, tm.ID, d); !errors.Is(err, ErrDuplicateName) {
			t.Errorf("renaming onto another plant: expected ErrDuplicateName, got %v", err)
		}
	})

	t.Run("update by id", func(t *testing.T) {
		d := rose
		d.Name = "Updated Rose"
		p, err := db.UpdatePlantByID(ctx, r.ID, d)
		if err != nil {
			t.Fatalf("UpdatePlantByID: %v", err)
		}
		if p.ID != r.ID || p.Name != "Updated Rose" {
			t.Errorf("unexpected plant %+v", p)
		}
		// Keeping the same name is not a collision with itself.
		if _, err := db.UpdatePlantByID(ctx, r.ID, d); err != nil {
			t.Errorf("UpdatePlantByID with unchanged name: %v", err)
		}
	})

	t.Run("update by name", func(t *testing.T) {
		d := tomato
		d.Description = "Cherry"
		p, err := db.UpdatePlantByName(ctx, "tomato", d)
		if err != nil {
			t.Fatalf("UpdatePlantByName: %v", err)
		}
		if p.ID != tm.ID || p.Description != "Cherry" {
			t.Errorf("unexpected plant %+v", p)
		}
	})

	t.Run("not found", func(t *testing.T) {
		if _, err := db.UpdatePlantByID(ctx, 9999, rose); !errors.Is(err, ErrPlantNotFound) {
			t.Errorf("UpdatePlantByID: expected ErrPlantNotFound, got %v", err)
		}
		if _, err := db.UpdatePlantByName(ctx, "Ghost", rose); !errors.Is(err, ErrPlantNotFound) {
			t.Errorf("UpdatePlantByName: expected ErrPlantNotFound, got %v", err)
		}
		if err := db.DeletePlantByID(ctx, 9999); !errors.Is(err, ErrPlantNotFound) {
			t.Errorf("DeletePlantByID: expected ErrPlantNotFound, got %v", err)
		}
		if err := db.DeletePlantByName(ctx, "Ghost"); !errors.Is(err, ErrPlantNotFound) {
			t.Errorf("DeletePlantByName: expected ErrPlantNotFound, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := db.DeletePlantByID(ctx, r.ID); err != nil {
			t.Fatalf("DeletePlantByID: %v", err)
		}
		if err := db.DeletePlantByName(ctx, "TOMATO"); err != nil {
			t.Fatalf("DeletePlantByName: %v", err)
		}
		list, err := db.ListPlants(ctx)
		if err != nil || len(list) != 0 {
			t.Errorf("Expected an empty list, got %v, %v", list, err)
		}
	})
}

func TestListPlantsOrder(t *testing.T) {
	db := NewMemoryDatabase()
	ctx := context.Background()
	for _, d := range []plants.Draft{tomato, rose} {
		if _, err := db.AddPlant(ctx, d); err != nil {
			t.Fatalf("AddPlant: %v", err)
		}
	}
	list, _ := db.ListPlants(ctx)
	if len(list) != 2 || list[0].Name != "Tomato" || list[1].Name != "Rose" {
		t.Errorf("Expected insertion order, got %+v", list)
	}

	// The returned slice is a copy.
	list[0].Name = "Changed"
	again, _ := db.ListPlants(ctx)
	if again[0].Name != "Tomato" {
		t.Error("Expected ListPlants to return a copy")
	}
}

func TestNameKey(t *testing.T) {
	tests := map[string]string{
		"Rose":        "rose",
		"  Rose  ":    "rose",
		"Sweet Pea\t": "sweet pea",
	}
	for in, want := range tests {
		if got := NameKey(in); got != want {
			t.Errorf("NameKey(%q) = %q, want %q", in, got, want)
		}
	}
}
