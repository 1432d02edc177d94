package matching

import (
	"context"

	"go.uber.org/zap"
)

// ProfileLookup 查询用户展示名（昵称）。未设置昵称时返回空字符串与 nil。
type ProfileLookup interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

// NameResolver 在一次调用内解析并缓存展示名。
// 查询失败只记录日志并回退，不会中断整个查询。
type NameResolver struct {
	lookup ProfileLookup
	logger *zap.Logger
	memo   map[string]string
}

// NewNameResolver 创建单次调用使用的解析器；lookup 可为 nil
func NewNameResolver(lookup ProfileLookup, logger *zap.Logger) *NameResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NameResolver{lookup: lookup, logger: logger, memo: make(map[string]string)}
}

// Resolve 返回 userID 的展示名：昵称 → fallback → userID
func (r *NameResolver) Resolve(ctx context.Context, userID, fallback string) string {
	name, ok := r.memo[userID]
	if !ok {
		name = r.lookupName(ctx, userID)
		r.memo[userID] = name
	}
	if name != "" {
		return name
	}
	if fallback != "" {
		return fallback
	}
	return userID
}

func (r *NameResolver) lookupName(ctx context.Context, userID string) string {
	if r.lookup == nil {
		return ""
	}
	name, err := r.lookup.DisplayName(ctx, userID)
	if err != nil {
		r.logger.Warn("查询展示名失败，使用回退值", zap.String("user_id", userID), zap.Error(err))
		return ""
	}
	return name
}
