// Package availability 维护用户可约时间记录：提交校验、按日期合并、按日期删除。
//
// 本包只做纯内存计算，不访问存储；读-改-写与并发控制由 service 层负责。
package availability

import (
	"errors"
	"fmt"
	"time"

	"github.com/Kot-Pawel/squashLeague/internal/model"
	"github.com/Kot-Pawel/squashLeague/internal/timeslot"
)

// ErrInvalidSubmission 提交内容不合法（无日期、某日期无时间段、格式错误、超出可选范围）
var ErrInvalidSubmission = errors.New("提交的可约时间无效")

// Input 一次提交中某个日期及其时间段（原始字符串）
type Input struct {
	Date  string
	Times []string
}

// Normalize 校验并规范化一次提交。
// 同一提交内重复出现的日期会被合并，重复的时间段被去重。
func Normalize(inputs []Input) (model.AvailabilityEntries, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: 至少选择一个日期和时间段", ErrInvalidSubmission)
	}

	entries := make(model.AvailabilityEntries, 0, len(inputs))
	for _, in := range inputs {
		if !timeslot.ValidDate(in.Date) {
			return nil, fmt.Errorf("%w: 日期 %q 格式错误", ErrInvalidSubmission, in.Date)
		}
		if len(in.Times) == 0 {
			return nil, fmt.Errorf("%w: 日期 %s 至少需要一个时间段", ErrInvalidSubmission, in.Date)
		}
		times, err := timeslot.ParseSet(in.Times)
		if err != nil {
			return nil, fmt.Errorf("%w: 日期 %s: %w", ErrInvalidSubmission, in.Date, err)
		}

		if i := entries.Index(in.Date); i >= 0 {
			entries[i].Times.Union(times)
			continue
		}
		entries = append(entries, model.AvailabilityEntry{Date: in.Date, Times: times})
	}
	return entries, nil
}

// CheckWindow 拒绝早于 today 或晚于 today+maxDaysAhead 的日期；maxDaysAhead<=0 时不限制上界
func CheckWindow(entries model.AvailabilityEntries, today string, maxDaysAhead int) error {
	last := ""
	if maxDaysAhead > 0 {
		var err error
		if last, err = timeslot.AddDays(today, maxDaysAhead); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if e.Date < today {
			return fmt.Errorf("%w: 日期 %s 已过去", ErrInvalidSubmission, e.Date)
		}
		if last != "" && e.Date > last {
			return fmt.Errorf("%w: 日期 %s 超出可选范围（最多 %d 天后）", ErrInvalidSubmission, e.Date, maxDaysAhead)
		}
	}
	return nil
}

// Merge 将 incoming 合并进 record（原地修改并返回同一记录）：
// 已有日期做时间段集合并，新日期追加在末尾；始终刷新邮箱与最后修改时间。
func Merge(record *model.AvailabilityRecord, incoming model.AvailabilityEntries, ownerEmail string, now time.Time) *model.AvailabilityRecord {
	for _, in := range incoming {
		if i := record.Entries.Index(in.Date); i >= 0 {
			record.Entries[i].Times.Union(in.Times)
			continue
		}
		record.Entries = append(record.Entries, model.AvailabilityEntry{
			Date:  in.Date,
			Times: in.Times.Clone(),
		})
	}
	record.OwnerEmail = ownerEmail
	record.LastModified = now
	return record
}

// DeleteDate 删除某天的条目；日期不存在时不报错，返回是否实际删除
func DeleteDate(record *model.AvailabilityRecord, date string) bool {
	i := record.Entries.Index(date)
	if i < 0 {
		return false
	}
	record.Entries = append(record.Entries[:i], record.Entries[i+1:]...)
	return true
}
