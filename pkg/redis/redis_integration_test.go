//go:build integration

package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6380"
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr, DB: 15})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis 不可用，跳过: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })
	return NewFromClient(rdb, zap.NewNop())
}

func TestBlacklist(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	jti := fmt.Sprintf("jti-%d", time.Now().UnixNano())

	if ok, err := c.IsBlacklisted(ctx, jti); err != nil || ok {
		t.Fatalf("新 jti 不应在黑名单中: ok=%v err=%v", ok, err)
	}
	if err := c.BlacklistToken(ctx, jti, time.Minute); err != nil {
		t.Fatalf("BlacklistToken 失败: %v", err)
	}
	if ok, _ := c.IsBlacklisted(ctx, jti); !ok {
		t.Error("加入黑名单后应返回 true")
	}
}

func TestCheckRateLimit(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	key := fmt.Sprintf("rate_limit:test:%d", time.Now().UnixNano())

	for i := 1; i <= 3; i++ {
		ok, err := c.CheckRateLimit(ctx, key, 2, time.Minute)
		if err != nil {
			t.Fatalf("CheckRateLimit 失败: %v", err)
		}
		if want := i <= 2; ok != want {
			t.Errorf("第 %d 次期望 %v，实际 %v", i, want, ok)
		}
	}
}

func TestDisplayNameCache(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	uid := fmt.Sprintf("user-%d", time.Now().UnixNano())

	if _, err := c.GetDisplayName(ctx, uid); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("期望 ErrCacheMiss，实际 %v", err)
	}
	if err := c.SetDisplayName(ctx, uid, "Alice", time.Minute); err != nil {
		t.Fatalf("SetDisplayName 失败: %v", err)
	}
	if name, _ := c.GetDisplayName(ctx, uid); name != "Alice" {
		t.Errorf("期望 Alice，实际 %q", name)
	}
	if err := c.InvalidateDisplayName(ctx, uid); err != nil {
		t.Fatalf("InvalidateDisplayName 失败: %v", err)
	}
	if _, err := c.GetDisplayName(ctx, uid); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("失效后期望 ErrCacheMiss，实际 %v", err)
	}
}
