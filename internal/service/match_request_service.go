package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Kot-Pawel/squashLeague/internal/dto"
	"github.com/Kot-Pawel/squashLeague/internal/matching"
	"github.com/Kot-Pawel/squashLeague/internal/model"
	"github.com/Kot-Pawel/squashLeague/internal/repository"
	"github.com/Kot-Pawel/squashLeague/internal/timeslot"
	pkgerrors "github.com/Kot-Pawel/squashLeague/pkg/errors"
	"github.com/Kot-Pawel/squashLeague/pkg/kafka"
)

// ── 约球申请业务错误 ──

var (
	ErrMatchRequestSelf              = errors.New("不能向自己发起约球申请")
	ErrMatchRequestInvalid           = errors.New("约球日期或时间段无效")
	ErrMatchRequestNotFound          = errors.New("约球申请不存在")
	ErrMatchRequestDuplicate         = errors.New("相同的约球申请已存在")
	ErrMatchRequestForbidden         = errors.New("只有被邀请方可以响应约球申请")
	ErrMatchRequestInvalidTransition = errors.New("约球申请已处理，无法再次响应")
)

// 申请方向（从当前用户视角）
const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

// MatchRequestService 约球申请业务接口
type MatchRequestService interface {
	// Create 发起申请。相同 (from, to, date, slot) 已存在时返回已有申请与 ErrMatchRequestDuplicate。
	Create(ctx context.Context, fromID string, req *dto.CreateMatchRequestRequest) (*dto.MatchRequestResponse, error)
	Respond(ctx context.Context, requestID, callerID string, accept bool) (*dto.MatchRequestResponse, error)
	ListActive(ctx context.Context, userID string) (*dto.MatchRequestListResponse, error)
	// CascadeDeleteForDate 在 repo 所属事务内删除用户作为任一方在 date 当天的申请
	CascadeDeleteForDate(ctx context.Context, repo *repository.Repository, userID, date string) ([]model.MatchRequest, error)
	// NotifyCancelled 事务提交后为被删除的申请发布取消事件
	NotifyCancelled(ctx context.Context, deleted []model.MatchRequest)
}

type matchRequestService struct {
	Deps
	profiles matching.ProfileLookup
}

// NewMatchRequestService 创建 MatchRequestService 实例
func NewMatchRequestService(deps Deps, profiles matching.ProfileLookup) MatchRequestService {
	return &matchRequestService{Deps: deps, profiles: profiles}
}

// matchEvent Kafka 事件负载
type matchEvent struct {
	MatchRequestID string `json:"match_request_id"`
	FromUserID     string `json:"from_user_id"`
	ToUserID       string `json:"to_user_id"`
	Date           string `json:"date"`
	TimeSlot       string `json:"time_slot"`
	Status         string `json:"status"`
}

func newMatchEvent(req *model.MatchRequest) matchEvent {
	return matchEvent{
		MatchRequestID: req.MatchRequestID,
		FromUserID:     req.FromUserID,
		ToUserID:       req.ToUserID,
		Date:           req.Date,
		TimeSlot:       req.TimeSlot,
		Status:         req.Status,
	}
}

// ────────────────────── Create ──────────────────────

func (s *matchRequestService) Create(ctx context.Context, fromID string, req *dto.CreateMatchRequestRequest) (*dto.MatchRequestResponse, error) {
	if req.ToUserID == fromID {
		return nil, ErrMatchRequestSelf
	}
	if !timeslot.ValidDate(req.Date) {
		return nil, fmt.Errorf("%w: 日期 %q 格式错误", ErrMatchRequestInvalid, req.Date)
	}
	if req.Date < s.today() {
		return nil, fmt.Errorf("%w: 日期 %s 已过去", ErrMatchRequestInvalid, req.Date)
	}
	slot, err := timeslot.Parse(req.TimeSlot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMatchRequestInvalid, err)
	}

	target, err := s.Repo.User.GetByID(ctx, req.ToUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.Logger.Error("查询被邀请用户失败", zap.Error(err))
		return nil, pkgerrors.NewStoreError("match_request.create", err)
	}

	existing, err := s.Repo.MatchRequest.FindByTuple(ctx, fromID, req.ToUserID, req.Date, slot.String())
	if err == nil {
		s.Metrics.MatchRequest("duplicate")
		resp := toMatchRequestResponse(existing, fromID, target.DisplayName())
		return &resp, ErrMatchRequestDuplicate
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.Logger.Error("查询约球申请失败", zap.Error(err))
		return nil, pkgerrors.NewStoreError("match_request.create", err)
	}

	mr := &model.MatchRequest{
		FromUserID: fromID,
		ToUserID:   req.ToUserID,
		Date:       req.Date,
		TimeSlot:   slot.String(),
		Status:     model.MatchStatusPending,
	}
	created, err := s.Repo.MatchRequest.CreateIfAbsent(ctx, mr)
	if err != nil {
		s.Logger.Error("创建约球申请失败", zap.Error(err))
		return nil, pkgerrors.NewStoreError("match_request.create", err)
	}
	if !created {
		// 并发请求抢先写入，返回已存在的那一条
		existing, err := s.Repo.MatchRequest.FindByTuple(ctx, fromID, req.ToUserID, req.Date, slot.String())
		if err != nil {
			s.Logger.Error("回读约球申请失败", zap.Error(err))
			return nil, pkgerrors.NewStoreError("match_request.create", err)
		}
		s.Metrics.MatchRequest("duplicate")
		resp := toMatchRequestResponse(existing, fromID, target.DisplayName())
		return &resp, ErrMatchRequestDuplicate
	}

	s.Logger.Info("约球申请已创建",
		zap.String("match_request_id", mr.MatchRequestID),
		zap.String("from", fromID),
		zap.String("to", req.ToUserID),
		zap.String("date", mr.Date),
	)
	s.Metrics.MatchRequest("requested")
	s.publish(ctx, kafka.EventMatchRequested, mr.MatchRequestID, newMatchEvent(mr))

	resp := toMatchRequestResponse(mr, fromID, target.DisplayName())
	return &resp, nil
}

// ────────────────────── Respond ──────────────────────

func (s *matchRequestService) Respond(ctx context.Context, requestID, callerID string, accept bool) (*dto.MatchRequestResponse, error) {
	// 主键为 UUID 列，非法 id 不可能存在
	if _, err := uuid.Parse(requestID); err != nil {
		return nil, ErrMatchRequestNotFound
	}
	mr, err := s.Repo.MatchRequest.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatchRequestNotFound
		}
		s.Logger.Error("查询约球申请失败", zap.Error(err))
		return nil, pkgerrors.NewStoreError("match_request.respond", err)
	}
	if mr.ToUserID != callerID {
		return nil, ErrMatchRequestForbidden
	}

	status := model.MatchStatusRejected
	if accept {
		status = model.MatchStatusAccepted
	}
	if !model.CanTransition(mr.Status, status) {
		return nil, ErrMatchRequestInvalidTransition
	}

	now := s.Now()
	updated, err := s.Repo.MatchRequest.UpdateStatusIfPending(ctx, requestID, status, now)
	if err != nil {
		s.Logger.Error("更新约球申请状态失败", zap.Error(err))
		return nil, pkgerrors.NewStoreError("match_request.respond", err)
	}
	if !updated {
		return nil, ErrMatchRequestInvalidTransition
	}
	mr.Status = status
	mr.RespondedAt = &now

	s.Logger.Info("约球申请已响应",
		zap.String("match_request_id", requestID),
		zap.String("status", status),
	)
	s.Metrics.MatchRequest(status)
	eventType := kafka.EventMatchRejected
	if accept {
		eventType = kafka.EventMatchAccepted
	}
	s.publish(ctx, eventType, mr.MatchRequestID, newMatchEvent(mr))

	names := matching.NewNameResolver(s.profiles, s.Logger)
	resp := toMatchRequestResponse(mr, callerID, names.Resolve(ctx, mr.FromUserID, ""))
	return &resp, nil
}

// ────────────────────── ListActive ──────────────────────

// ListActive 返回当天及以后的申请，按状态分组，组内按日期升序
func (s *matchRequestService) ListActive(ctx context.Context, userID string) (*dto.MatchRequestListResponse, error) {
	reqs, err := s.Repo.MatchRequest.ListForUserSince(ctx, userID, s.today())
	if err != nil {
		s.Logger.Error("查询约球申请列表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, pkgerrors.NewStoreError("match_request.list", err)
	}

	names := matching.NewNameResolver(s.profiles, s.Logger)
	seen := make(map[string]struct{}, len(reqs))
	result := &dto.MatchRequestListResponse{
		Pending:  []dto.MatchRequestResponse{},
		Accepted: []dto.MatchRequestResponse{},
		Rejected: []dto.MatchRequestResponse{},
	}

	for i := range reqs {
		mr := &reqs[i]
		if _, dup := seen[mr.MatchRequestID]; dup {
			continue
		}
		seen[mr.MatchRequestID] = struct{}{}

		item := toMatchRequestResponse(mr, userID, counterpartName(ctx, mr, userID, names))
		switch mr.Status {
		case model.MatchStatusPending:
			result.Pending = append(result.Pending, item)
		case model.MatchStatusAccepted:
			result.Accepted = append(result.Accepted, item)
		case model.MatchStatusRejected:
			result.Rejected = append(result.Rejected, item)
		default:
			s.Logger.Warn("未知的约球申请状态", zap.String("match_request_id", mr.MatchRequestID), zap.String("status", mr.Status))
		}
	}

	for _, bucket := range [][]dto.MatchRequestResponse{result.Pending, result.Accepted, result.Rejected} {
		sort.SliceStable(bucket, func(i, j int) bool { return bucket[i].Date < bucket[j].Date })
	}
	return result, nil
}

// ────────────────────── Cascade ──────────────────────

func (s *matchRequestService) CascadeDeleteForDate(ctx context.Context, repo *repository.Repository, userID, date string) ([]model.MatchRequest, error) {
	deleted, err := repo.MatchRequest.DeleteForUserDate(ctx, userID, date)
	if err != nil {
		s.Logger.Error("级联删除约球申请失败",
			zap.String("user_id", userID),
			zap.String("date", date),
			zap.Error(err),
		)
		return nil, err
	}
	return deleted, nil
}

func (s *matchRequestService) NotifyCancelled(ctx context.Context, deleted []model.MatchRequest) {
	for i := range deleted {
		s.Metrics.MatchRequest("cancelled")
		s.publish(ctx, kafka.EventMatchCancelled, deleted[i].MatchRequestID, newMatchEvent(&deleted[i]))
	}
}

// ── 辅助函数 ──

// counterpartName 优先使用预加载的用户，否则经解析器查询，最终回退到用户 ID
func counterpartName(ctx context.Context, mr *model.MatchRequest, viewerID string, names *matching.NameResolver) string {
	other := mr.FromUser
	if mr.FromUserID == viewerID {
		other = mr.ToUser
	}
	if other != nil {
		return other.DisplayName()
	}
	return names.Resolve(ctx, mr.Counterpart(viewerID), "")
}

func toMatchRequestResponse(mr *model.MatchRequest, viewerID, counterpart string) dto.MatchRequestResponse {
	direction := DirectionOutgoing
	if mr.ToUserID == viewerID {
		direction = DirectionIncoming
	}
	resp := dto.MatchRequestResponse{
		ID:              mr.MatchRequestID,
		FromUserID:      mr.FromUserID,
		ToUserID:        mr.ToUserID,
		Direction:       direction,
		CounterpartID:   mr.Counterpart(viewerID),
		CounterpartName: counterpart,
		Date:            mr.Date,
		TimeSlot:        mr.TimeSlot,
		Status:          mr.Status,
		CanRespond:      direction == DirectionIncoming && mr.Status == model.MatchStatusPending,
	}
	if !mr.CreatedAt.IsZero() {
		resp.CreatedAt = mr.CreatedAt.Format(time.RFC3339)
	}
	if mr.RespondedAt != nil {
		at := mr.RespondedAt.Format(time.RFC3339)
		resp.RespondedAt = &at
	}
	return resp
}
