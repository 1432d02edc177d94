package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Kot-Pawel/squashLeague/internal/matching"
	"github.com/Kot-Pawel/squashLeague/internal/model"
	"github.com/Kot-Pawel/squashLeague/internal/timeslot"
	pkgerrors "github.com/Kot-Pawel/squashLeague/pkg/errors"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成导出文件失败")

const icsProductID = "-//squash-league//matches//ZH"

// ExportService 导出业务接口
//
// 导出内容以 bytes.Buffer 返回，由 Handler 层设置响应头后写入 Response。
type ExportService interface {
	// ExportMatchRequests 当前用户的全部约球申请（Excel）
	ExportMatchRequests(ctx context.Context, userID string) (*bytes.Buffer, string, error)
	// ExportMatchesICS 当前用户已接受的约球（iCalendar）
	ExportMatchesICS(ctx context.Context, userID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	Deps
	profiles matching.ProfileLookup
}

// NewExportService 创建 ExportService 实例
func NewExportService(deps Deps, profiles matching.ProfileLookup) ExportService {
	return &exportService{Deps: deps, profiles: profiles}
}

func (s *exportService) listAll(ctx context.Context, userID string) ([]model.MatchRequest, error) {
	reqs, err := s.Repo.MatchRequest.ListForUserSince(ctx, userID, "")
	if err != nil {
		s.Logger.Error("查询约球申请失败", zap.String("user_id", userID), zap.Error(err))
		return nil, pkgerrors.NewStoreError("export.list", err)
	}
	return reqs, nil
}

// ═══════════════════════════════════════════════════════════
// ExportMatchRequests 导出约球申请为 Excel
// ═══════════════════════════════════════════════════════════
//
// 单个 Sheet，表头：日期 | 时间段 | 方向 | 对手 | 状态 | 发起时间 | 响应时间

func (s *exportService) ExportMatchRequests(ctx context.Context, userID string) (*bytes.Buffer, string, error) {
	reqs, err := s.listAll(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "约球申请"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "B", 14)
	f.SetColWidth(sheetName, "C", "C", 8)
	f.SetColWidth(sheetName, "D", "D", 24)
	f.SetColWidth(sheetName, "E", "E", 10)
	f.SetColWidth(sheetName, "F", "G", 22)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	headers := []string{"日期", "时间段", "方向", "对手", "状态", "发起时间", "响应时间"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(headers)-1), 1), headerStyle)

	directionNames := map[string]string{DirectionIncoming: "收到", DirectionOutgoing: "发出"}
	statusNames := map[string]string{
		model.MatchStatusPending:  "待处理",
		model.MatchStatusAccepted: "已接受",
		model.MatchStatusRejected: "已拒绝",
	}

	names := matching.NewNameResolver(s.profiles, s.Logger)
	for i := range reqs {
		item := toMatchRequestResponse(&reqs[i], userID, counterpartName(ctx, &reqs[i], userID, names))
		row := i + 2
		f.SetCellValue(sheetName, cell("A", row), item.Date)
		f.SetCellValue(sheetName, cell("B", row), item.TimeSlot)
		f.SetCellValue(sheetName, cell("C", row), directionNames[item.Direction])
		f.SetCellValue(sheetName, cell("D", row), item.CounterpartName)
		f.SetCellValue(sheetName, cell("E", row), statusNames[item.Status])
		f.SetCellValue(sheetName, cell("F", row), item.CreatedAt)
		if item.RespondedAt != nil {
			f.SetCellValue(sheetName, cell("G", row), *item.RespondedAt)
		} else {
			f.SetCellValue(sheetName, cell("G", row), "-")
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.Logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("约球申请_%s.xlsx", s.today())
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportMatchesICS 导出已接受的约球为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 每场约球一个 VEVENT，UID 为申请 ID，起止时间按匹配时区换算。

func (s *exportService) ExportMatchesICS(ctx context.Context, userID string) (*bytes.Buffer, string, error) {
	reqs, err := s.listAll(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	loc := s.Config.Match.Location()
	stamp := s.Now().UTC()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName("壁球约球")

	names := matching.NewNameResolver(s.profiles, s.Logger)
	for i := range reqs {
		mr := &reqs[i]
		if mr.Status != model.MatchStatusAccepted {
			continue
		}
		start, end, err := matchTimes(mr.Date, mr.TimeSlot, loc)
		if err != nil {
			s.Logger.Warn("跳过无法解析时间的约球", zap.String("match_request_id", mr.MatchRequestID), zap.Error(err))
			continue
		}

		event := cal.AddEvent(mr.MatchRequestID + "@squash-league")
		event.SetDtStampTime(stamp)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(fmt.Sprintf("壁球：%s", counterpartName(ctx, mr, userID, names)))
		event.SetStatus(ics.ObjectStatusConfirmed)
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("matches_%s.ics", s.today())
	return buf, filename, nil
}

// matchTimes 将日期与 "HH:mm-HH:mm" 换算为 loc 时区下的起止时间
func matchTimes(date, slot string, loc *time.Location) (time.Time, time.Time, error) {
	r, err := timeslot.Parse(slot)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, err := time.ParseInLocation(timeslot.DateLayout+" 15:04", date+" "+r.Start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.ParseInLocation(timeslot.DateLayout+" 15:04", date+" "+r.End, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
