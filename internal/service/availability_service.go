package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Kot-Pawel/squashLeague/internal/availability"
	"github.com/Kot-Pawel/squashLeague/internal/dto"
	"github.com/Kot-Pawel/squashLeague/internal/model"
	"github.com/Kot-Pawel/squashLeague/internal/repository"
	"github.com/Kot-Pawel/squashLeague/internal/timeslot"
	pkgerrors "github.com/Kot-Pawel/squashLeague/pkg/errors"
)

// ErrAvailabilityInvalid 可约时间提交无效
var ErrAvailabilityInvalid = availability.ErrInvalidSubmission

// AvailabilityService 可约时间业务接口
type AvailabilityService interface {
	// Submit 校验后与已有记录按日期合并
	Submit(ctx context.Context, ownerID, ownerEmail string, req *dto.SubmitAvailabilityRequest) (*dto.AvailabilityResponse, error)
	// GetMine 今天之后的日期，按日期升序
	GetMine(ctx context.Context, ownerID string) (*dto.AvailabilityResponse, error)
	// DeleteDate 删除某天可约时间并级联删除当天的约球申请
	DeleteDate(ctx context.Context, ownerID, date string) (*dto.DeleteAvailabilityResponse, error)
}

type availabilityService struct {
	Deps
	matches MatchRequestService
}

// NewAvailabilityService 创建 AvailabilityService 实例
func NewAvailabilityService(deps Deps, matches MatchRequestService) AvailabilityService {
	return &availabilityService{Deps: deps, matches: matches}
}

// ────────────────────── Submit ──────────────────────

func (s *availabilityService) Submit(ctx context.Context, ownerID, ownerEmail string, req *dto.SubmitAvailabilityRequest) (*dto.AvailabilityResponse, error) {
	inputs := make([]availability.Input, 0, len(req.Entries))
	for _, e := range req.Entries {
		inputs = append(inputs, availability.Input{Date: e.Date, Times: e.Times})
	}
	incoming, err := availability.Normalize(inputs)
	if err != nil {
		return nil, err
	}
	if err := availability.CheckWindow(incoming, s.today(), s.Config.Availability.MaxDaysAhead); err != nil {
		return nil, err
	}

	attempts := s.Config.Availability.MergeRetries
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		record, err := s.mergeOnce(ctx, ownerID, ownerEmail, incoming)
		if err == nil {
			s.Logger.Info("可约时间已保存",
				zap.String("owner_id", ownerID),
				zap.Int("dates", len(incoming)),
				zap.Int("attempt", attempt),
			)
			return toAvailabilityResponse(record, ""), nil
		}
		if !isWriteConflict(err) {
			s.Logger.Error("保存可约时间失败", zap.String("owner_id", ownerID), zap.Error(err))
			return nil, pkgerrors.NewStoreError("availability.submit", err)
		}
		s.Metrics.MergeConflict()
		s.Logger.Warn("可约时间写入冲突，重新合并",
			zap.String("owner_id", ownerID),
			zap.Int("attempt", attempt),
		)
	}

	s.Logger.Error("可约时间合并重试次数耗尽", zap.String("owner_id", ownerID), zap.Int("attempts", attempts))
	return nil, pkgerrors.NewStoreError("availability.submit", pkgerrors.ErrOptimisticLock)
}

// mergeOnce 读取最新记录、合并并按版本写回
func (s *availabilityService) mergeOnce(ctx context.Context, ownerID, ownerEmail string, incoming model.AvailabilityEntries) (*model.AvailabilityRecord, error) {
	record, err := s.Repo.Availability.GetByOwner(ctx, ownerID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		record = &model.AvailabilityRecord{OwnerID: ownerID}
		availability.Merge(record, incoming, ownerEmail, s.Now())
		if err := s.Repo.Availability.Create(ctx, record); err != nil {
			return nil, err
		}
		return record, nil
	case err != nil:
		return nil, err
	}

	availability.Merge(record, incoming, ownerEmail, s.Now())
	if err := s.Repo.Availability.Update(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func isWriteConflict(err error) bool {
	return errors.Is(err, pkgerrors.ErrOptimisticLock) || errors.Is(err, gorm.ErrDuplicatedKey)
}

// ────────────────────── GetMine ──────────────────────

func (s *availabilityService) GetMine(ctx context.Context, ownerID string) (*dto.AvailabilityResponse, error) {
	record, err := s.Repo.Availability.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.AvailabilityResponse{Entries: []dto.AvailabilityDayResponse{}}, nil
		}
		s.Logger.Error("查询可约时间失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, pkgerrors.NewStoreError("availability.get", err)
	}
	return toAvailabilityResponse(record, s.today()), nil
}

// ────────────────────── DeleteDate ──────────────────────

func (s *availabilityService) DeleteDate(ctx context.Context, ownerID, date string) (*dto.DeleteAvailabilityResponse, error) {
	if !timeslot.ValidDate(date) {
		return nil, fmt.Errorf("%w: 日期 %q 格式错误", ErrAvailabilityInvalid, date)
	}

	var (
		removed   bool
		cancelled []model.MatchRequest
	)
	err := s.Repo.Transaction(ctx, func(tx *repository.Repository) error {
		record, err := tx.Availability.LockByOwner(ctx, ownerID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// 没有记录也照常清理当天的约球申请
		case err != nil:
			return err
		default:
			if availability.DeleteDate(record, date) {
				removed = true
				record.LastModified = s.Now()
				if err := tx.Availability.Update(ctx, record); err != nil {
					return err
				}
			}
		}

		cancelled, err = s.matches.CascadeDeleteForDate(ctx, tx, ownerID, date)
		return err
	})
	if err != nil {
		s.Logger.Error("删除可约时间失败",
			zap.String("owner_id", ownerID),
			zap.String("date", date),
			zap.Error(err),
		)
		return nil, pkgerrors.NewStoreError("availability.delete_date", err)
	}

	s.matches.NotifyCancelled(ctx, cancelled)
	s.Logger.Info("可约时间已删除",
		zap.String("owner_id", ownerID),
		zap.String("date", date),
		zap.Bool("removed", removed),
		zap.Int("cancelled_requests", len(cancelled)),
	)
	return &dto.DeleteAvailabilityResponse{
		Date:              date,
		Removed:           removed,
		CancelledRequests: len(cancelled),
	}, nil
}

// toAvailabilityResponse after 非空时只保留晚于 after 的日期
func toAvailabilityResponse(record *model.AvailabilityRecord, after string) *dto.AvailabilityResponse {
	entries := make([]dto.AvailabilityDayResponse, 0, len(record.Entries))
	for _, e := range record.Entries {
		if after != "" && e.Date <= after {
			continue
		}
		entries = append(entries, dto.AvailabilityDayResponse{Date: e.Date, Times: e.Times.Strings()})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })

	resp := &dto.AvailabilityResponse{Entries: entries}
	if !record.LastModified.IsZero() {
		resp.LastModified = record.LastModified.Format(time.RFC3339)
	}
	return resp
}
