package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Kot-Pawel/squashLeague/internal/model"
	pkgerrors "github.com/Kot-Pawel/squashLeague/pkg/errors"
)

// AvailabilityRepository 可约时间数据访问接口
type AvailabilityRepository interface {
	GetByOwner(ctx context.Context, ownerID string) (*model.AvailabilityRecord, error)
	// LockByOwner 在事务内以 SELECT ... FOR UPDATE 读取
	LockByOwner(ctx context.Context, ownerID string) (*model.AvailabilityRecord, error)
	// ListAll 全表快照。匹配按日期扫描全部记录，没有分页与日期索引。
	ListAll(ctx context.Context) ([]model.AvailabilityRecord, error)
	Create(ctx context.Context, record *model.AvailabilityRecord) error
	// Update 以 version 做乐观锁，冲突时返回 pkgerrors.ErrOptimisticLock
	Update(ctx context.Context, record *model.AvailabilityRecord) error
}

type availabilityRepo struct {
	db *gorm.DB
}

// NewAvailabilityRepo 创建 AvailabilityRepository 实例
func NewAvailabilityRepo(db *gorm.DB) AvailabilityRepository {
	return &availabilityRepo{db: db}
}

func (r *availabilityRepo) GetByOwner(ctx context.Context, ownerID string) (*model.AvailabilityRecord, error) {
	var rec model.AvailabilityRecord
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *availabilityRepo) LockByOwner(ctx context.Context, ownerID string) (*model.AvailabilityRecord, error) {
	var rec model.AvailabilityRecord
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("owner_id = ?", ownerID).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *availabilityRepo) ListAll(ctx context.Context) ([]model.AvailabilityRecord, error) {
	var records []model.AvailabilityRecord
	err := r.db.WithContext(ctx).
		Order("created_at ASC, owner_id ASC").
		Find(&records).Error
	return records, err
}

func (r *availabilityRepo) Create(ctx context.Context, record *model.AvailabilityRecord) error {
	if record.Version == 0 {
		record.Version = 1
	}
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *availabilityRepo) Update(ctx context.Context, record *model.AvailabilityRecord) error {
	oldVersion := record.Version

	result := r.db.WithContext(ctx).
		Model(&model.AvailabilityRecord{}).
		Where("owner_id = ? AND version = ?", record.OwnerID, oldVersion).
		Updates(map[string]interface{}{
			"owner_email":   record.OwnerEmail,
			"entries":       record.Entries,
			"last_modified": record.LastModified,
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	record.Version = oldVersion + 1
	return nil
}
