package store

import (
	"Recall_1.0/backend/go/internal/models"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps relationships in a gorm-managed database (MySQL in production).
type GormStore struct {
	DB *gorm.DB
}

// NewGormStore migrates the relationships table and returns the store.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&models.Relationship{}); err != nil {
		return nil, fmt.Errorf("failed to migrate relationships: %w", err)
	}
	return &GormStore{DB: db}, nil
}

func (s *GormStore) All(ctx context.Context) ([]models.Relationship, error) {
	var out []models.Relationship
	if err := s.DB.WithContext(ctx).Order("relationship").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) Add(ctx context.Context, relationship, category string) error {
	r := &models.Relationship{Relationship: relationship, Category: category}
	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(r)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuplicate
	}
	return nil
}

// Update looks the row up first, since MySQL reports zero affected rows when
// the category is unchanged.
func (s *GormStore) Update(ctx context.Context, relationship, category string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r models.Relationship
		if err := tx.Where("relationship = ?", relationship).First(&r).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		return tx.Model(&r).Update("category", category).Error
	})
}

func (s *GormStore) Delete(ctx context.Context, relationship string) error {
	res := s.DB.WithContext(ctx).Where("relationship = ?", relationship).Delete(&models.Relationship{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
