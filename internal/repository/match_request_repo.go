package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Kot-Pawel/squashLeague/internal/model"
)

// PlayerGames 用户参与的已接受约球数
type PlayerGames struct {
	UserID string
	Games  int64
}

// MatchRequestRepository 约球申请数据访问接口
type MatchRequestRepository interface {
	GetByID(ctx context.Context, id string) (*model.MatchRequest, error)
	FindByTuple(ctx context.Context, fromID, toID, date, timeSlot string) (*model.MatchRequest, error)
	// CreateIfAbsent 依赖 (from, to, date, time_slot) 唯一索引，已存在时返回 false
	CreateIfAbsent(ctx context.Context, req *model.MatchRequest) (bool, error)
	// UpdateStatusIfPending 仅当当前状态为 pending 时更新，返回是否更新成功
	UpdateStatusIfPending(ctx context.Context, id, status string, respondedAt time.Time) (bool, error)
	// ListForUserSince 用户作为任一方、日期不早于 sinceDate 的申请（按日期升序）
	ListForUserSince(ctx context.Context, userID, sinceDate string) ([]model.MatchRequest, error)
	// DeleteForUserDate 删除用户作为任一方在 date 当天的申请，返回被删除的记录
	DeleteForUserDate(ctx context.Context, userID, date string) ([]model.MatchRequest, error)
	CountAcceptedByUser(ctx context.Context) ([]PlayerGames, error)
}

type matchRequestRepo struct {
	db *gorm.DB
}

// NewMatchRequestRepo 创建 MatchRequestRepository 实例
func NewMatchRequestRepo(db *gorm.DB) MatchRequestRepository {
	return &matchRequestRepo{db: db}
}

func (r *matchRequestRepo) GetByID(ctx context.Context, id string) (*model.MatchRequest, error) {
	var req model.MatchRequest
	err := r.db.WithContext(ctx).
		Where("match_request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *matchRequestRepo) FindByTuple(ctx context.Context, fromID, toID, date, timeSlot string) (*model.MatchRequest, error) {
	var req model.MatchRequest
	err := r.db.WithContext(ctx).
		Where("from_user_id = ? AND to_user_id = ? AND date = ? AND time_slot = ?", fromID, toID, date, timeSlot).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *matchRequestRepo) CreateIfAbsent(ctx context.Context, req *model.MatchRequest) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(req)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *matchRequestRepo) UpdateStatusIfPending(ctx context.Context, id, status string, respondedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.MatchRequest{}).
		Where("match_request_id = ? AND status = ?", id, model.MatchStatusPending).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": respondedAt,
			"updated_at":   respondedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *matchRequestRepo) ListForUserSince(ctx context.Context, userID, sinceDate string) ([]model.MatchRequest, error) {
	var reqs []model.MatchRequest
	err := r.db.WithContext(ctx).
		Preload("FromUser").
		Preload("ToUser").
		Where("(from_user_id = ? OR to_user_id = ?) AND date >= ?", userID, userID, sinceDate).
		Order("date ASC, created_at ASC").
		Find(&reqs).Error
	return reqs, err
}

func (r *matchRequestRepo) DeleteForUserDate(ctx context.Context, userID, date string) ([]model.MatchRequest, error) {
	var deleted []model.MatchRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("(from_user_id = ? OR to_user_id = ?) AND date = ?", userID, userID, date).
		Delete(&deleted).Error
	return deleted, err
}

func (r *matchRequestRepo) CountAcceptedByUser(ctx context.Context) ([]PlayerGames, error) {
	var rows []PlayerGames
	err := r.db.WithContext(ctx).Raw(`
		SELECT user_id, COUNT(*) AS games FROM (
			SELECT from_user_id AS user_id FROM match_requests WHERE status = ?
			UNION ALL
			SELECT to_user_id AS user_id FROM match_requests WHERE status = ?
		) AS participants
		GROUP BY user_id`,
		model.MatchStatusAccepted, model.MatchStatusAccepted,
	).Scan(&rows).Error
	return rows, err
}
