// Package matching 计算用户之间的可约时间重叠。
//
// 输入是某一时刻全部可约记录的只读快照，输出顺序与快照的遍历顺序一致，
// 不做额外排序；每个对手只取按插入顺序找到的第一个重叠时间段。
package matching

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/Kot-Pawel/squashLeague/internal/model"
	"github.com/Kot-Pawel/squashLeague/internal/timeslot"
)

// Partner 某日期上与当前用户时间重叠的对手
type Partner struct {
	UserID      string
	DisplayName string
	Overlap     timeslot.Range
}

// Day 近期窗口内某一天的汇总
type Day struct {
	Date     string
	MySlots  []timeslot.Range
	Partners []Partner
}

// Summary 近期窗口汇总。
// NoDatesInWindow 为 true 表示窗口内当前用户没有任何日期，与"有日期但无对手"区分。
type Summary struct {
	NoDatesInWindow bool
	Days            []Day
}

// Matcher 对手匹配器
type Matcher struct {
	profiles ProfileLookup
	logger   *zap.Logger
}

// NewMatcher 创建匹配器；profiles 为 nil 时展示名直接回退到邮箱
func NewMatcher(profiles ProfileLookup, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{profiles: profiles, logger: logger}
}

// PartnersForDate 返回 date 当天与 selfID 存在时间重叠的其他用户。
// selfID 当天没有可约时间时返回空列表（不是错误）。
func (m *Matcher) PartnersForDate(ctx context.Context, records []model.AvailabilityRecord, selfID, date string) []Partner {
	mine := selfTimes(records, selfID, date)
	names := NewNameResolver(m.profiles, m.logger)
	return m.partners(ctx, records, selfID, date, mine, names)
}

// UpcomingSummary 汇总 selfID 在 [today, today+windowDays] 内的日期（按日期升序）及各日期的对手
func (m *Matcher) UpcomingSummary(ctx context.Context, records []model.AvailabilityRecord, selfID, today string, windowDays int) Summary {
	var own model.AvailabilityEntries
	for i := range records {
		if records[i].OwnerID == selfID {
			own = records[i].Entries
			break
		}
	}

	var upcoming []model.AvailabilityEntry
	for _, e := range own {
		if timeslot.InWindow(e.Date, today, windowDays) {
			upcoming = append(upcoming, e)
		}
	}
	if len(upcoming) == 0 {
		return Summary{NoDatesInWindow: true, Days: []Day{}}
	}
	sort.SliceStable(upcoming, func(i, j int) bool { return upcoming[i].Date < upcoming[j].Date })

	names := NewNameResolver(m.profiles, m.logger)
	days := make([]Day, 0, len(upcoming))
	for _, e := range upcoming {
		mine := e.Times.Ranges()
		days = append(days, Day{
			Date:     e.Date,
			MySlots:  mine,
			Partners: m.partners(ctx, records, selfID, e.Date, mine, names),
		})
	}
	return Summary{Days: days}
}

func (m *Matcher) partners(ctx context.Context, records []model.AvailabilityRecord, selfID, date string, mine []timeslot.Range, names *NameResolver) []Partner {
	result := []Partner{}
	if len(mine) == 0 {
		return result
	}
	for i := range records {
		rec := &records[i]
		if rec.OwnerID == selfID {
			continue
		}
		theirs := rec.Entries.TimesOn(date)
		if len(theirs) == 0 {
			continue
		}
		overlap, ok := timeslot.FirstOverlap(mine, theirs)
		if !ok {
			continue
		}
		result = append(result, Partner{
			UserID:      rec.OwnerID,
			DisplayName: names.Resolve(ctx, rec.OwnerID, rec.OwnerEmail),
			Overlap:     overlap,
		})
	}
	return result
}

func selfTimes(records []model.AvailabilityRecord, selfID, date string) []timeslot.Range {
	for i := range records {
		if records[i].OwnerID == selfID {
			return records[i].Entries.TimesOn(date)
		}
	}
	return nil
}
