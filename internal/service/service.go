package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Kot-Pawel/squashLeague/config"
	"github.com/Kot-Pawel/squashLeague/internal/repository"
	"github.com/Kot-Pawel/squashLeague/internal/timeslot"
	"github.com/Kot-Pawel/squashLeague/pkg/jwt"
	"github.com/Kot-Pawel/squashLeague/pkg/kafka"
	"github.com/Kot-Pawel/squashLeague/pkg/metrics"
	"github.com/Kot-Pawel/squashLeague/pkg/redis"
)

// TokenBlacklist Token 黑名单（Redis 实现）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// NameCache 展示名缓存（Redis 实现）
type NameCache interface {
	GetDisplayName(ctx context.Context, userID string) (string, error)
	SetDisplayName(ctx context.Context, userID, name string, ttl time.Duration) error
	InvalidateDisplayName(ctx context.Context, userID string) error
}

// EventPublisher 领域事件发布（Kafka 实现，nil 安全）
type EventPublisher interface {
	Publish(ctx context.Context, eventType, aggregateID string, payload interface{})
}

// Deps 业务层外部依赖；Redis、Kafka、Metrics 均可为空
type Deps struct {
	Config    *config.Config
	Repo      *repository.Repository
	JWT       *jwt.Manager
	Blacklist TokenBlacklist
	Names     NameCache
	Events    EventPublisher
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Now       func() time.Time
}

// NewDeps 组装依赖；rdb / publisher 为 nil 时对应能力降级
func NewDeps(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	publisher *kafka.Publisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) Deps {
	d := Deps{
		Config:  cfg,
		Repo:    repo,
		JWT:     jwtMgr,
		Metrics: m,
		Logger:  logger,
		Now:     time.Now,
	}
	// 避免 nil 指针被装入非 nil 接口
	if rdb != nil {
		d.Blacklist = rdb
		d.Names = rdb
	}
	if publisher != nil {
		d.Events = publisher
	}
	return d
}

// today 以匹配时区计算当天日期
func (d Deps) today() string {
	return timeslot.Today(d.Now(), d.Config.Match.Location())
}

func (d Deps) publish(ctx context.Context, eventType, aggregateID string, payload interface{}) {
	if d.Events == nil {
		return
	}
	d.Events.Publish(ctx, eventType, aggregateID, payload)
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	User         UserService
	Availability AvailabilityService
	Partner      PartnerService
	MatchRequest MatchRequestService
	Stats        StatsService
	Export       ExportService
}

// NewService 创建 Service 聚合
func NewService(deps Deps) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	user := NewUserService(deps)
	matches := NewMatchRequestService(deps, user)
	return &Service{
		Auth:         NewAuthService(deps),
		User:         user,
		Availability: NewAvailabilityService(deps, matches),
		Partner:      NewPartnerService(deps, user),
		MatchRequest: matches,
		Stats:        NewStatsService(deps),
		Export:       NewExportService(deps, user),
	}
}
