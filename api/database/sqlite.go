package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mgmu/planttracker/internal/plants"
)

// plantRecord is the gorm model of the plants table. NameKey holds the
// normalized name and carries the uniqueness constraint.
type plantRecord struct {
	ID               int64  `gorm:"primaryKey;autoIncrement"`
	Name             string `gorm:"not null"`
	NameKey          string `gorm:"uniqueIndex;not null"`
	Description      string `gorm:"not null"`
	WateringSchedule string `gorm:"not null"`
}

func (plantRecord) TableName() string { return "plants" }

func (r plantRecord) plant() plants.Plant {
	return plants.Plant{
		ID:               r.ID,
		Name:             r.Name,
		Description:      r.Description,
		WateringSchedule: r.WateringSchedule,
	}
}

func (r *plantRecord) apply(d plants.Draft) {
	r.Name = d.Name
	r.NameKey = NameKey(d.Name)
	r.Description = d.Description
	r.WateringSchedule = d.WateringSchedule
}

// SQLiteDatabase stores plants in a SQLite file through gorm.
type SQLiteDatabase struct {
	path string
	db   *gorm.DB
}

// NewSQLiteDatabase returns a database backed by the SQLite file at path.
// Connect must be called before use.
func NewSQLiteDatabase(path string) *SQLiteDatabase {
	return &SQLiteDatabase{path: path}
}

// Connect opens the file, creating it if needed, and migrates the schema.
func (s *SQLiteDatabase) Connect(ctx context.Context) error {
	db, err := gorm.Open(sqlite.Open(s.path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("database: open sqlite %s: %w", s.path, err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&plantRecord{}); err != nil {
		return fmt.Errorf("database: migrate sqlite: %w", err)
	}
	s.db = db
	return nil
}

func (s *SQLiteDatabase) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLiteDatabase) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLiteDatabase) ListPlants(ctx context.Context) ([]plants.Plant, error) {
	var rows []plantRecord
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]plants.Plant, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.plant())
	}
	return out, nil
}

func (s *SQLiteDatabase) AddPlant(ctx context.Context, d plants.Draft) (plants.Plant, error) {
	var rec plantRecord
	rec.apply(d)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureNameFree(tx, rec.NameKey, 0); err != nil {
			return err
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		return plants.Plant{}, translate(err)
	}
	return rec.plant(), nil
}

func (s *SQLiteDatabase) UpdatePlantByID(ctx context.Context, id int64, d plants.Draft) (plants.Plant, error) {
	return s.update(ctx, "id = ?", id, d)
}

func (s *SQLiteDatabase) UpdatePlantByName(ctx context.Context, name string, d plants.Draft) (plants.Plant, error) {
	return s.update(ctx, "name_key = ?", NameKey(name), d)
}

func (s *SQLiteDatabase) update(ctx context.Context, where string, arg any, d plants.Draft) (plants.Plant, error) {
	var rec plantRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(where, arg).First(&rec).Error; err != nil {
			return err
		}
		rec.apply(d)
		if err := ensureNameFree(tx, rec.NameKey, rec.ID); err != nil {
			return err
		}
		return tx.Save(&rec).Error
	})
	if err != nil {
		return plants.Plant{}, translate(err)
	}
	return rec.plant(), nil
}

func (s *SQLiteDatabase) DeletePlantByID(ctx context.Context, id int64) error {
	return s.delete(ctx, "id = ?", id)
}

func (s *SQLiteDatabase) DeletePlantByName(ctx context.Context, name string) error {
	return s.delete(ctx, "name_key = ?", NameKey(name))
}

func (s *SQLiteDatabase) delete(ctx context.Context, where string, arg any) error {
	res := s.db.WithContext(ctx).Where(where, arg).Delete(&plantRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPlantNotFound
	}
	return nil
}

// ensureNameFree fails with ErrDuplicateName if a plant other than except
// already uses key.
func ensureNameFree(tx *gorm.DB, key string, except int64) error {
	var n int64
	err := tx.Model(&plantRecord{}).Where("name_key = ? AND id <> ?", key, except).Count(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrDuplicateName
	}
	return nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrPlantNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateName
	}
	return err
}
