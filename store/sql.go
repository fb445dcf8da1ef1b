package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BaSui01/promptflow/internal/database"
)

// ArtifactRecord is the table row backing SQLStore.
type ArtifactRecord struct {
	Key       string `gorm:"column:artifact_key;primaryKey;size:200"`
	Data      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName implements gorm's Tabler.
func (ArtifactRecord) TableName() string { return "promptflow_artifacts" }

// SQLStore stores blobs in a single table through gorm.
type SQLStore struct {
	pool *database.PoolManager
}

// NewSQLStore migrates the artifact table on the given pool.
func NewSQLStore(pool *database.PoolManager) (*SQLStore, error) {
	if err := pool.DB().AutoMigrate(&ArtifactRecord{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &SQLStore{pool: pool}, nil
}

// Put implements Store as an upsert.
func (s *SQLStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	rec := ArtifactRecord{Key: key, Data: data}
	err := s.pool.WithTransactionRetry(ctx, 3, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "artifact_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).Create(&rec).Error
	})
	if err != nil {
		return fmt.Errorf("store: sql put %s: %w", key, err)
	}
	return nil
}

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	var rec ArtifactRecord
	err := s.pool.DB().WithContext(ctx).Where("artifact_key = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: sql get %s: %w", key, err)
	}
	return rec.Data, nil
}

// Delete implements Store.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	res := s.pool.DB().WithContext(ctx).Where("artifact_key = ?", key).Delete(&ArtifactRecord{})
	if res.Error != nil {
		return fmt.Errorf("store: sql delete %s: %w", key, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List implements Store. Prefix filtering happens in Go.
func (s *SQLStore) List(ctx context.Context, prefix string) ([]string, error) {
	var all []string
	err := s.pool.DB().WithContext(ctx).
		Model(&ArtifactRecord{}).
		Order("artifact_key").
		Pluck("artifact_key", &all).Error
	if err != nil {
		return nil, fmt.Errorf("store: sql list: %w", err)
	}
	keys := make([]string, 0, len(all))
	for _, k := range all {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Close implements Store.
func (s *SQLStore) Close() error { return s.pool.Close() }
