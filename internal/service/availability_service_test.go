package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/Kot-Pawel/squashLeague/internal/dto"
	"github.com/Kot-Pawel/squashLeague/internal/model"
	pkgerrors "github.com/Kot-Pawel/squashLeague/pkg/errors"
	"github.com/Kot-Pawel/squashLeague/pkg/kafka"
)

func submitReq(entries ...dto.AvailabilityDayRequest) *dto.SubmitAvailabilityRequest {
	return &dto.SubmitAvailabilityRequest{Entries: entries}
}

func day(date string, times ...string) dto.AvailabilityDayRequest {
	return dto.AvailabilityDayRequest{Date: date, Times: times}
}

func storedTimes(t *testing.T, env *testEnv, ownerID, date string) []string {
	t.Helper()
	rec, err := env.avail.GetByOwner(context.Background(), ownerID)
	if err != nil {
		t.Fatalf("读取记录失败: %v", err)
	}
	i := rec.Entries.Index(date)
	if i < 0 {
		return nil
	}
	return rec.Entries[i].Times.Strings()
}

// ── Submit ──

func TestSubmit_CreatesRecord(t *testing.T) {
	env := newTestEnv()

	resp, err := env.svc.Availability.Submit(context.Background(), "u1", "u1@example.com",
		submitReq(day("2026-03-12", "18:00-19:00")))
	if err != nil {
		t.Fatalf("Submit 应成功: %v", err)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].Date != "2026-03-12" {
		t.Errorf("期望一条 2026-03-12 的记录，实际=%+v", resp.Entries)
	}
	rec, _ := env.avail.GetByOwner(context.Background(), "u1")
	if rec.OwnerEmail != "u1@example.com" {
		t.Errorf("期望保存邮箱，实际=%s", rec.OwnerEmail)
	}
}

func TestSubmit_MergesAsUnion(t *testing.T) {
	env := newTestEnv()
	env.addAvailability("u1", "old@example.com", map[string][]string{
		"2026-03-12": {"10:00-11:00"},
	}, "2026-03-12")

	_, err := env.svc.Availability.Submit(context.Background(), "u1", "new@example.com", submitReq(
		day("2026-03-12", "11:00-12:00", "10:00-11:00"),
		day("2026-03-13", "09:00-10:00"),
	))
	if err != nil {
		t.Fatalf("Submit 应成功: %v", err)
	}

	want := []string{"10:00-11:00", "11:00-12:00"}
	if got := storedTimes(t, env, "u1", "2026-03-12"); !reflect.DeepEqual(got, want) {
		t.Errorf("期望并集 %v，实际 %v", want, got)
	}
	if got := storedTimes(t, env, "u1", "2026-03-13"); len(got) != 1 {
		t.Errorf("新日期应被追加，实际 %v", got)
	}
	rec, _ := env.avail.GetByOwner(context.Background(), "u1")
	if rec.OwnerEmail != "new@example.com" {
		t.Errorf("合并后应刷新邮箱，实际=%s", rec.OwnerEmail)
	}
}

func TestSubmit_Idempotent(t *testing.T) {
	env := newTestEnv()
	req := submitReq(day("2026-03-12", "18:00-19:00", "20:00-21:00"))

	for i := 0; i < 2; i++ {
		if _, err := env.svc.Availability.Submit(context.Background(), "u1", "u1@example.com", req); err != nil {
			t.Fatalf("第 %d 次 Submit 应成功: %v", i+1, err)
		}
	}

	rec, _ := env.avail.GetByOwner(context.Background(), "u1")
	if len(rec.Entries) != 1 {
		t.Fatalf("重复提交不应产生重复日期，实际 %d 条", len(rec.Entries))
	}
	if got := rec.Entries[0].Times.Len(); got != 2 {
		t.Errorf("重复提交不应产生重复时间段，实际 %d 个", got)
	}
}

func TestSubmit_Validation(t *testing.T) {
	cases := []struct {
		name string
		req  *dto.SubmitAvailabilityRequest
	}{
		{"空提交", submitReq()},
		{"无时间段", submitReq(day("2026-03-12"))},
		{"日期格式错误", submitReq(day("2026-3-12", "10:00-11:00"))},
		{"时间段非法", submitReq(day("2026-03-12", "11:00-10:00"))},
		{"过去的日期", submitReq(day("2026-03-09", "10:00-11:00"))},
		{"超出可选范围", submitReq(day("2026-04-30", "10:00-11:00"))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv()
			_, err := env.svc.Availability.Submit(context.Background(), "u1", "u1@example.com", tc.req)
			if !errors.Is(err, ErrAvailabilityInvalid) {
				t.Errorf("期望 ErrAvailabilityInvalid，实际: %v", err)
			}
			if len(env.avail.records) != 0 {
				t.Error("校验失败不应写入存储")
			}
		})
	}
}

func TestSubmit_RetriesOnConflict(t *testing.T) {
	env := newTestEnv()
	env.addAvailability("u1", "u1@example.com", map[string][]string{
		"2026-03-12": {"10:00-11:00"},
	}, "2026-03-12")
	env.avail.conflicts = 2

	_, err := env.svc.Availability.Submit(context.Background(), "u1", "u1@example.com",
		submitReq(day("2026-03-12", "12:00-13:00")))
	if err != nil {
		t.Fatalf("冲突后重试应成功: %v", err)
	}
	if env.avail.updates != 3 {
		t.Errorf("期望 Update 调用 3 次，实际 %d", env.avail.updates)
	}
	if got := storedTimes(t, env, "u1", "2026-03-12"); len(got) != 2 {
		t.Errorf("重试后应保留两个时间段，实际 %v", got)
	}
}

func TestSubmit_RetriesExhausted(t *testing.T) {
	env := newTestEnv()
	env.addAvailability("u1", "u1@example.com", map[string][]string{
		"2026-03-12": {"10:00-11:00"},
	}, "2026-03-12")
	env.avail.conflicts = 10

	_, err := env.svc.Availability.Submit(context.Background(), "u1", "u1@example.com",
		submitReq(day("2026-03-12", "12:00-13:00")))

	var se *pkgerrors.StoreError
	if !errors.As(err, &se) {
		t.Fatalf("期望 StoreError，实际: %v", err)
	}
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望错误链包含 ErrOptimisticLock，实际: %v", err)
	}
	if env.avail.updates != 3 {
		t.Errorf("期望重试 3 次，实际 %d", env.avail.updates)
	}
}

func TestSubmit_StoreError(t *testing.T) {
	env := newTestEnv()
	env.addAvailability("u1", "u1@example.com", map[string][]string{
		"2026-03-12": {"10:00-11:00"},
	}, "2026-03-12")
	env.avail.updateErr = errStoreDown

	_, err := env.svc.Availability.Submit(context.Background(), "u1", "u1@example.com",
		submitReq(day("2026-03-12", "12:00-13:00")))
	if !pkgerrors.IsStoreError(err) || !errors.Is(err, errStoreDown) {
		t.Errorf("期望包装后的 StoreError，实际: %v", err)
	}
	if env.avail.updates != 1 {
		t.Errorf("非冲突错误不应重试，实际调用 %d 次", env.avail.updates)
	}
}

// ── GetMine ──

func TestGetMine_FutureDatesSorted(t *testing.T) {
	env := newTestEnv()
	env.addAvailability("u1", "u1@example.com", map[string][]string{
		"2026-03-20": {"10:00-11:00"},
		"2026-03-09": {"10:00-11:00"},
		"2026-03-10": {"10:00-11:00"},
		"2026-03-11": {"09:00-10:00"},
	}, "2026-03-20", "2026-03-09", "2026-03-10", "2026-03-11")

	resp, err := env.svc.Availability.GetMine(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetMine 应成功: %v", err)
	}
	var dates []string
	for _, e := range resp.Entries {
		dates = append(dates, e.Date)
	}
	want := []string{"2026-03-11", "2026-03-20"}
	if !reflect.DeepEqual(dates, want) {
		t.Errorf("期望 %v，实际 %v", want, dates)
	}
}

func TestGetMine_NoRecord(t *testing.T) {
	env := newTestEnv()
	resp, err := env.svc.Availability.GetMine(context.Background(), "u1")
	if err != nil {
		t.Fatalf("无记录时不应报错: %v", err)
	}
	if resp.Entries == nil || len(resp.Entries) != 0 {
		t.Errorf("期望空列表，实际 %+v", resp.Entries)
	}
}

// ── DeleteDate ──

func TestDeleteDate_CascadesMatchRequests(t *testing.T) {
	env := newTestEnv()
	env.addAvailability("u1", "u1@example.com", map[string][]string{
		"2026-03-12": {"10:00-11:00"},
		"2026-03-13": {"10:00-11:00"},
	}, "2026-03-12", "2026-03-13")
	env.matches.add(&model.MatchRequest{FromUserID: "u1", ToUserID: "u2", Date: "2026-03-12", TimeSlot: "10:00-11:00"})
	env.matches.add(&model.MatchRequest{FromUserID: "u3", ToUserID: "u1", Date: "2026-03-12", TimeSlot: "10:00-11:00"})
	env.matches.add(&model.MatchRequest{FromUserID: "u1", ToUserID: "u2", Date: "2026-03-13", TimeSlot: "10:00-11:00"})
	env.matches.add(&model.MatchRequest{FromUserID: "u2", ToUserID: "u3", Date: "2026-03-12", TimeSlot: "10:00-11:00"})

	resp, err := env.svc.Availability.DeleteDate(context.Background(), "u1", "2026-03-12")
	if err != nil {
		t.Fatalf("DeleteDate 应成功: %v", err)
	}
	if !resp.Removed || resp.CancelledRequests != 2 {
		t.Errorf("期望 removed=true cancelled=2，实际 %+v", resp)
	}
	if !env.avail.lockCalled {
		t.Error("删除应在事务内加锁读取")
	}
	if got := storedTimes(t, env, "u1", "2026-03-12"); got != nil {
		t.Errorf("2026-03-12 应被删除，实际 %v", got)
	}
	if len(env.matches.requests) != 2 {
		t.Errorf("其他日期与无关用户的申请应保留，剩余 %d 条", len(env.matches.requests))
	}

	cancelled := 0
	for _, typ := range env.publisher.types() {
		if typ == kafka.EventMatchCancelled {
			cancelled++
		}
	}
	if cancelled != 2 {
		t.Errorf("期望发布 2 个取消事件，实际 %d", cancelled)
	}
}

func TestDeleteDate_AbsentDateStillCascades(t *testing.T) {
	env := newTestEnv()
	env.matches.add(&model.MatchRequest{FromUserID: "u1", ToUserID: "u2", Date: "2026-03-12", TimeSlot: "10:00-11:00"})

	resp, err := env.svc.Availability.DeleteDate(context.Background(), "u1", "2026-03-12")
	if err != nil {
		t.Fatalf("删除不存在的日期不应报错: %v", err)
	}
	if resp.Removed {
		t.Error("没有记录时 removed 应为 false")
	}
	if resp.CancelledRequests != 1 {
		t.Errorf("期望级联删除 1 条申请，实际 %d", resp.CancelledRequests)
	}
}

func TestDeleteDate_Errors(t *testing.T) {
	env := newTestEnv()
	if _, err := env.svc.Availability.DeleteDate(context.Background(), "u1", "12/03/2026"); !errors.Is(err, ErrAvailabilityInvalid) {
		t.Errorf("期望 ErrAvailabilityInvalid，实际: %v", err)
	}

	env.matches.deleteErr = errStoreDown
	_, err := env.svc.Availability.DeleteDate(context.Background(), "u1", "2026-03-12")
	if !pkgerrors.IsStoreError(err) {
		t.Errorf("级联删除失败期望 StoreError，实际: %v", err)
	}
	if len(env.publisher.events) != 0 {
		t.Error("事务失败不应发布事件")
	}
}
