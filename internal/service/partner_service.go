package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Kot-Pawel/squashLeague/internal/dto"
	"github.com/Kot-Pawel/squashLeague/internal/matching"
	"github.com/Kot-Pawel/squashLeague/internal/timeslot"
	pkgerrors "github.com/Kot-Pawel/squashLeague/pkg/errors"
)

// ErrInvalidQuery 查询参数无效
var ErrInvalidQuery = errors.New("查询参数无效")

// PartnerService 对手匹配业务接口
type PartnerService interface {
	FindPartners(ctx context.Context, selfID, date string) (*dto.PartnersResponse, error)
	// GetUpcomingSummary windowDays 为 0 时使用配置的默认窗口
	GetUpcomingSummary(ctx context.Context, selfID string, windowDays int) (*dto.UpcomingSummaryResponse, error)
}

type partnerService struct {
	Deps
	matcher *matching.Matcher
}

// NewPartnerService 创建 PartnerService 实例
func NewPartnerService(deps Deps, profiles matching.ProfileLookup) PartnerService {
	return &partnerService{
		Deps:    deps,
		matcher: matching.NewMatcher(profiles, deps.Logger),
	}
}

func (s *partnerService) FindPartners(ctx context.Context, selfID, date string) (*dto.PartnersResponse, error) {
	if !timeslot.ValidDate(date) {
		return nil, fmt.Errorf("%w: 日期 %q 格式错误", ErrInvalidQuery, date)
	}

	records, err := s.Repo.Availability.ListAll(ctx)
	if err != nil {
		s.Logger.Error("读取可约时间快照失败", zap.Error(err))
		return nil, pkgerrors.NewStoreError("partners.find", err)
	}

	partners := s.matcher.PartnersForDate(ctx, records, selfID, date)
	s.Metrics.PartnersFound(len(partners))
	return &dto.PartnersResponse{Date: date, Partners: toPartnerResponses(partners)}, nil
}

func (s *partnerService) GetUpcomingSummary(ctx context.Context, selfID string, windowDays int) (*dto.UpcomingSummaryResponse, error) {
	if windowDays == 0 {
		windowDays = s.Config.Match.WindowDays
	}
	if windowDays < 0 || windowDays > s.Config.Match.MaxWindowDays {
		return nil, fmt.Errorf("%w: window_days 须在 1 到 %d 之间", ErrInvalidQuery, s.Config.Match.MaxWindowDays)
	}

	records, err := s.Repo.Availability.ListAll(ctx)
	if err != nil {
		s.Logger.Error("读取可约时间快照失败", zap.Error(err))
		return nil, pkgerrors.NewStoreError("partners.upcoming", err)
	}

	summary := s.matcher.UpcomingSummary(ctx, records, selfID, s.today(), windowDays)
	resp := &dto.UpcomingSummaryResponse{
		WindowDays:      windowDays,
		NoDatesInWindow: summary.NoDatesInWindow,
		Days:            make([]dto.UpcomingDayResponse, 0, len(summary.Days)),
	}
	for _, day := range summary.Days {
		slots := make([]string, 0, len(day.MySlots))
		for _, r := range day.MySlots {
			slots = append(slots, r.String())
		}
		s.Metrics.PartnersFound(len(day.Partners))
		resp.Days = append(resp.Days, dto.UpcomingDayResponse{
			Date:     day.Date,
			MySlots:  slots,
			Partners: toPartnerResponses(day.Partners),
		})
	}
	return resp, nil
}

func toPartnerResponses(partners []matching.Partner) []dto.PartnerResponse {
	out := make([]dto.PartnerResponse, 0, len(partners))
	for _, p := range partners {
		out = append(out, dto.PartnerResponse{
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			Overlap:     p.Overlap.String(),
		})
	}
	return out
}
