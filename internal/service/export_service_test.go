package service

import (
	"context"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"

	"github.com/Kot-Pawel/squashLeague/internal/model"
)

func seedExportMatches(env *testEnv) {
	env.matches.add(&model.MatchRequest{FromUserID: "alice", ToUserID: "bob", Date: "2026-03-12", TimeSlot: "18:30-19:30", Status: model.MatchStatusAccepted})
	env.matches.add(&model.MatchRequest{FromUserID: "carol", ToUserID: "alice", Date: "2026-03-14", TimeSlot: "09:00-10:00", Status: model.MatchStatusPending})
	env.matches.add(&model.MatchRequest{FromUserID: "bob", ToUserID: "carol", Date: "2026-03-12", TimeSlot: "18:30-19:30", Status: model.MatchStatusAccepted})
}

func TestExportMatchRequests(t *testing.T) {
	env := setupMatchEnv()
	seedExportMatches(env)

	buf, filename, err := env.svc.Export.ExportMatchRequests(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ExportMatchRequests 应成功: %v", err)
	}
	if !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("文件名应以 .xlsx 结尾，实际=%s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("生成的文件应可被 excelize 读取: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("约球申请")
	if err != nil {
		t.Fatalf("读取 Sheet 失败: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("期望表头 + 2 行数据，实际 %d 行", len(rows))
	}
	if rows[0][0] != "日期" {
		t.Errorf("表头不符: %v", rows[0])
	}
	if rows[1][0] != "2026-03-12" || rows[1][2] != "发出" || rows[1][3] != "Bob" || rows[1][4] != "已接受" {
		t.Errorf("第一行数据不符: %v", rows[1])
	}
	if rows[2][2] != "收到" || rows[2][4] != "待处理" || rows[2][6] != "-" {
		t.Errorf("第二行数据不符: %v", rows[2])
	}
}

func TestExportMatchesICS(t *testing.T) {
	env := setupMatchEnv()
	env.deps.Config.Match.Timezone = "Europe/Warsaw"
	env.svc = NewService(env.deps)
	seedExportMatches(env)

	buf, filename, err := env.svc.Export.ExportMatchesICS(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ExportMatchesICS 应成功: %v", err)
	}
	if !strings.HasSuffix(filename, ".ics") {
		t.Errorf("文件名应以 .ics 结尾，实际=%s", filename)
	}

	cal, err := ics.ParseCalendar(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("生成的日历应可解析: %v", err)
	}
	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("只应导出当前用户已接受的约球，期望 1 个事件，实际 %d", len(events))
	}

	evt := events[0]
	if summary := evt.GetProperty(ics.ComponentPropertySummary); summary == nil || !strings.Contains(summary.Value, "Bob") {
		t.Errorf("SUMMARY 应包含对手名称，实际 %+v", summary)
	}
	start, err := evt.GetStartAt()
	if err != nil {
		t.Fatalf("读取 DTSTART 失败: %v", err)
	}
	warsaw, _ := time.LoadLocation("Europe/Warsaw")
	want := time.Date(2026, 3, 12, 18, 30, 0, 0, warsaw)
	if !start.Equal(want) {
		t.Errorf("期望开始时间 %v，实际 %v", want, start)
	}
}

func TestMatchTimes_InvalidSlot(t *testing.T) {
	if _, _, err := matchTimes("2026-03-12", "bad", time.UTC); err == nil {
		t.Error("非法时间段应返回错误")
	}
}
