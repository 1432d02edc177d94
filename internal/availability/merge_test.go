package availability

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/Kot-Pawel/squashLeague/internal/model"
	"github.com/Kot-Pawel/squashLeague/internal/timeslot"
)

var testNow = time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)

func mustNormalize(t *testing.T, inputs ...Input) model.AvailabilityEntries {
	t.Helper()
	entries, err := Normalize(inputs)
	if err != nil {
		t.Fatalf("Normalize 应成功: %v", err)
	}
	return entries
}

func snapshot(r *model.AvailabilityRecord) map[string][]string {
	out := make(map[string][]string, len(r.Entries))
	for _, e := range r.Entries {
		out[e.Date] = e.Times.Strings()
	}
	return out
}

// ── Normalize ──

func TestNormalize_Empty(t *testing.T) {
	if _, err := Normalize(nil); !errors.Is(err, ErrInvalidSubmission) {
		t.Errorf("期望 ErrInvalidSubmission，实际: %v", err)
	}
}

func TestNormalize_DateWithoutTimes(t *testing.T) {
	_, err := Normalize([]Input{{Date: "2025-08-25", Times: nil}})
	if !errors.Is(err, ErrInvalidSubmission) {
		t.Errorf("期望 ErrInvalidSubmission，实际: %v", err)
	}
}

func TestNormalize_BadRangeKeepsParseCause(t *testing.T) {
	_, err := Normalize([]Input{{Date: "2025-08-25", Times: []string{"19:00-18:00"}}})
	if !errors.Is(err, ErrInvalidSubmission) {
		t.Errorf("期望 ErrInvalidSubmission，实际: %v", err)
	}
	if !errors.Is(err, timeslot.ErrInvalidRange) {
		t.Errorf("应保留 ErrInvalidRange 原因，实际: %v", err)
	}
}

func TestNormalize_FoldsRepeatedDates(t *testing.T) {
	entries := mustNormalize(t,
		Input{Date: "2025-08-25", Times: []string{"18:00-19:00"}},
		Input{Date: "2025-08-25", Times: []string{"18:00-19:00", "20:00-21:00"}},
	)
	if len(entries) != 1 {
		t.Fatalf("期望合并为 1 个日期，实际 %d", len(entries))
	}
	if entries[0].Times.Len() != 2 {
		t.Errorf("期望 2 个时间段，实际 %d", entries[0].Times.Len())
	}
}

// ── CheckWindow ──

func TestCheckWindow(t *testing.T) {
	today := "2025-08-20"
	past := mustNormalize(t, Input{Date: "2025-08-19", Times: []string{"10:00-11:00"}})
	if err := CheckWindow(past, today, 30); !errors.Is(err, ErrInvalidSubmission) {
		t.Errorf("过去日期应被拒绝，实际: %v", err)
	}

	far := mustNormalize(t, Input{Date: "2025-09-20", Times: []string{"10:00-11:00"}})
	if err := CheckWindow(far, today, 30); !errors.Is(err, ErrInvalidSubmission) {
		t.Errorf("超出 30 天应被拒绝，实际: %v", err)
	}
	if err := CheckWindow(far, today, 0); err != nil {
		t.Errorf("maxDaysAhead=0 时不限上界，实际: %v", err)
	}

	ok := mustNormalize(t, Input{Date: "2025-09-19", Times: []string{"10:00-11:00"}})
	if err := CheckWindow(ok, today, 30); err != nil {
		t.Errorf("第 30 天应允许，实际: %v", err)
	}
}

// ── Merge ──

func TestMerge_NewRecord(t *testing.T) {
	rec := &model.AvailabilityRecord{OwnerID: "u1"}
	in := mustNormalize(t, Input{Date: "2025-08-25", Times: []string{"18:00-19:00"}})

	got := Merge(rec, in, "a@example.com", testNow)
	if got != rec {
		t.Error("Merge 应原地修改并返回同一记录")
	}
	if rec.OwnerEmail != "a@example.com" || !rec.LastModified.Equal(testNow) {
		t.Errorf("邮箱或修改时间未刷新: %+v", rec)
	}
	if !reflect.DeepEqual(snapshot(rec), map[string][]string{"2025-08-25": {"18:00-19:00"}}) {
		t.Errorf("合并结果不符: %v", snapshot(rec))
	}
}

func TestMerge_UnionsExistingDate(t *testing.T) {
	rec := &model.AvailabilityRecord{OwnerID: "u1"}
	Merge(rec, mustNormalize(t,
		Input{Date: "2025-08-25", Times: []string{"18:00-19:00"}},
	), "a@example.com", testNow)

	Merge(rec, mustNormalize(t,
		Input{Date: "2025-08-25", Times: []string{"18:00-19:00", "07:00-08:00"}},
		Input{Date: "2025-08-26", Times: []string{"09:00-10:00"}},
	), "new@example.com", testNow.Add(time.Hour))

	want := map[string][]string{
		"2025-08-25": {"18:00-19:00", "07:00-08:00"},
		"2025-08-26": {"09:00-10:00"},
	}
	if !reflect.DeepEqual(snapshot(rec), want) {
		t.Errorf("期望 %v，实际 %v", want, snapshot(rec))
	}
	if rec.OwnerEmail != "new@example.com" {
		t.Errorf("邮箱应刷新为最新值，实际 %s", rec.OwnerEmail)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	in := mustNormalize(t,
		Input{Date: "2025-08-25", Times: []string{"18:00-19:00", "20:00-21:00"}},
		Input{Date: "2025-08-27", Times: []string{"10:00-11:00"}},
	)

	once := Merge(&model.AvailabilityRecord{OwnerID: "u1"}, in, "a@example.com", testNow)
	first := snapshot(once)
	Merge(once, in, "a@example.com", testNow)

	if !reflect.DeepEqual(first, snapshot(once)) {
		t.Errorf("重复合并应幂等: %v vs %v", first, snapshot(once))
	}
	if len(once.Entries) != 2 {
		t.Errorf("每个日期至多一个条目，实际 %d", len(once.Entries))
	}
}

func TestMerge_DoesNotAliasIncoming(t *testing.T) {
	in := mustNormalize(t, Input{Date: "2025-08-25", Times: []string{"18:00-19:00"}})
	rec := Merge(&model.AvailabilityRecord{}, in, "a@example.com", testNow)

	rec.Entries[0].Times.Add(timeslot.MustParse("20:00-21:00"))
	if in[0].Times.Len() != 1 {
		t.Error("修改记录不应影响入参")
	}
}

// ── DeleteDate ──

func TestDeleteDate(t *testing.T) {
	rec := Merge(&model.AvailabilityRecord{}, mustNormalize(t,
		Input{Date: "2025-08-25", Times: []string{"18:00-19:00"}},
		Input{Date: "2025-08-26", Times: []string{"18:00-19:00"}},
	), "a@example.com", testNow)

	if !DeleteDate(rec, "2025-08-25") {
		t.Error("存在的日期应被删除")
	}
	if rec.Entries.Index("2025-08-25") >= 0 {
		t.Error("日期仍然存在")
	}
	if DeleteDate(rec, "2025-08-25") {
		t.Error("重复删除应返回 false")
	}
	if len(rec.Entries) != 1 {
		t.Errorf("期望剩余 1 个日期，实际 %d", len(rec.Entries))
	}
}
