package database

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mgmu/planttracker/internal/plants"
)

//go:embed migrations/*.sql
var migrations embed.FS

const uniqueViolation = "23505"

const plantColumns = "id, name, description, watering_schedule"

type PostgresDatabase struct {
	url  string
	pool *pgxpool.Pool
}

// NewPostgresDatabase returns a database for the Postgres server at url.
// Connect must be called before use.
func NewPostgresDatabase(url string) *PostgresDatabase {
	return &PostgresDatabase{url: url}
}

// Connect opens the connection pool and brings the schema up to date.
func (db *PostgresDatabase) Connect(ctx context.Context) error {
	if db.url == "" {
		return errors.New("database: Database URL not set")
	}
	pool, err := pgxpool.New(ctx, db.url)
	if err != nil {
		return err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("database: ping postgres: %w", err)
	}
	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return err
	}
	db.pool = pool
	return nil
}

// migrate runs the embedded goose migrations over a database/sql handle
// sharing the pool.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	conn := stdlib.OpenDBFromPool(pool)
	defer conn.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("database: set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, conn, "migrations"); err != nil {
		return fmt.Errorf("database: run migrations: %w", err)
	}
	return nil
}

// Close closes all connections of the pool. Always returns a nil error.
func (db *PostgresDatabase) Close() error {
	if db.pool != nil {
		db.pool.Close()
	}
	return nil
}

func (db *PostgresDatabase) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// ListPlants returns every plant ordered by identifier.
func (db *PostgresDatabase) ListPlants(ctx context.Context) ([]plants.Plant, error) {
	rows, _ := db.pool.Query(ctx, "SELECT "+plantColumns+" FROM plants ORDER BY id;")
	return pgx.CollectRows(rows, pgx.RowToStructByPos[plants.Plant])
}

// AddPlant inserts a plant and returns it with its new identifier.
func (db *PostgresDatabase) AddPlant(ctx context.Context, d plants.Draft) (plants.Plant, error) {
	rows, _ := db.pool.Query(
		ctx,
		`
INSERT INTO plants (name, description, watering_schedule)
VALUES ($1, $2, $3)
RETURNING `+plantColumns+`;`,
		d.Name,
		d.Description,
		d.WateringSchedule,
	)
	return collectOne(rows)
}

func (db *PostgresDatabase) UpdatePlantByID(ctx context.Context, id int64, d plants.Draft) (plants.Plant, error) {
	return db.update(ctx, "id = $4", id, d)
}

func (db *PostgresDatabase) UpdatePlantByName(ctx context.Context, name string, d plants.Draft) (plants.Plant, error) {
	return db.update(ctx, "lower(btrim(name)) = $4", NameKey(name), d)
}

func (db *PostgresDatabase) update(ctx context.Context, where string, arg any, d plants.Draft) (plants.Plant, error) {
	rows, _ := db.pool.Query(
		ctx,
		`
UPDATE plants SET name = $1, description = $2, watering_schedule = $3
WHERE `+where+`
RETURNING `+plantColumns+`;`,
		d.Name,
		d.Description,
		d.WateringSchedule,
		arg,
	)
	return collectOne(rows)
}

func (db *PostgresDatabase) DeletePlantByID(ctx context.Context, id int64) error {
	return db.delete(ctx, "id = $1", id)
}

func (db *PostgresDatabase) DeletePlantByName(ctx context.Context, name string) error {
	return db.delete(ctx, "lower(btrim(name)) = $1", NameKey(name))
}

func (db *PostgresDatabase) delete(ctx context.Context, where string, arg any) error {
	tag, err := db.pool.Exec(ctx, "DELETE FROM plants WHERE "+where+";", arg)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlantNotFound
	}
	return nil
}

func collectOne(rows pgx.Rows) (plants.Plant, error) {
	p, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[plants.Plant])
	if err == nil {
		return p, nil
	}
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return plants.Plant{}, ErrPlantNotFound
	case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
		return plants.Plant{}, ErrDuplicateName
	}
	return plants.Plant{}, err
}
