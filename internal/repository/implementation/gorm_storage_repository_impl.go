package implementation

import (
	"context"
	"errors"
	"time"

	"second-brain-client/internal/model"
	"second-brain-client/internal/repository/contract"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStorageRepository struct {
	db *gorm.DB
}

func NewGormStorageRepository(db *gorm.DB) (contract.StorageRepository, error) {
	if err := db.AutoMigrate(&model.ClientState{}); err != nil {
		return nil, err
	}
	return &GormStorageRepository{db: db}, nil
}

func (r *GormStorageRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var m model.ClientState
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return []byte(m.Value), nil
}

func (r *GormStorageRepository) Save(ctx context.Context, key string, value []byte) error {
	m := model.ClientState{
		Key:       key,
		Value:     datatypes.JSON(value),
		UpdatedAt: time.Now(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&m).Error
}

func (r *GormStorageRepository) Remove(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("key = ?", key).Delete(&model.ClientState{}).Error
}

func (r *GormStorageRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
