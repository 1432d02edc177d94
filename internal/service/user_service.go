package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Kot-Pawel/squashLeague/internal/dto"
	"github.com/Kot-Pawel/squashLeague/internal/matching"
	pkgerrors "github.com/Kot-Pawel/squashLeague/pkg/errors"
	"github.com/Kot-Pawel/squashLeague/pkg/redis"
)

// ── 用户模块业务错误 ──

var ErrScreenNameInvalid = errors.New("昵称不能为空且不超过 50 个字符")

// UserService 用户业务接口。
// 同时作为匹配模块的展示名来源（matching.ProfileLookup）。
type UserService interface {
	matching.ProfileLookup
	UpdateScreenName(ctx context.Context, userID, screenName string) (*dto.UserResponse, error)
}

type userService struct {
	Deps
}

// NewUserService 创建 UserService 实例
func NewUserService(deps Deps) UserService {
	return &userService{Deps: deps}
}

// ────────────────────── UpdateScreenName ──────────────────────

func (s *userService) UpdateScreenName(ctx context.Context, userID, screenName string) (*dto.UserResponse, error) {
	name := strings.TrimSpace(screenName)
	if name == "" || utf8.RuneCountInString(name) > 50 {
		return nil, ErrScreenNameInvalid
	}

	if err := s.Repo.User.UpdateScreenName(ctx, userID, name); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.Logger.Error("更新昵称失败", zap.String("user_id", userID), zap.Error(err))
		return nil, pkgerrors.NewStoreError("user.update_screen_name", err)
	}

	if s.Names != nil {
		if err := s.Names.InvalidateDisplayName(ctx, userID); err != nil {
			s.Logger.Warn("清除展示名缓存失败", zap.String("user_id", userID), zap.Error(err))
		}
	}

	user, err := s.Repo.User.GetByID(ctx, userID)
	if err != nil {
		s.Logger.Error("查询用户失败", zap.Error(err))
		return nil, pkgerrors.NewStoreError("user.update_screen_name", err)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── DisplayName ──────────────────────

// DisplayName 返回用户昵称（未设置时为空字符串）。
// 先读 Redis 缓存，未命中或缓存出错时回源数据库并回填。
func (s *userService) DisplayName(ctx context.Context, userID string) (string, error) {
	if s.Names != nil {
		name, err := s.Names.GetDisplayName(ctx, userID)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.Logger.Warn("读取展示名缓存失败，回源数据库", zap.String("user_id", userID), zap.Error(err))
		}
	}

	user, err := s.Repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		s.Metrics.NameLookupFailed()
		return "", err
	}

	if s.Names != nil {
		if err := s.Names.SetDisplayName(ctx, userID, user.ScreenName, s.Config.Redis.NameCacheTTL); err != nil {
			s.Logger.Warn("写入展示名缓存失败", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return user.ScreenName, nil
}
