package timeslot

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout 日期的规范格式
const DateLayout = "2006-01-02"

// ErrInvalidDate 日期格式非法
var ErrInvalidDate = errors.New("日期格式无效")

// ParseDate 严格解析 "YYYY-MM-DD"，拒绝非补零写法
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil || t.Format(DateLayout) != s {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// ValidDate 判断是否为规范日期字符串
func ValidDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// Today 返回 now 在 loc 时区下的日历日期；loc 为 nil 时使用 now 自带时区
func Today(now time.Time, loc *time.Location) string {
	if loc != nil {
		now = now.In(loc)
	}
	return now.Format(DateLayout)
}

// AddDays 日期加减天数
func AddDays(date string, days int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, days).Format(DateLayout), nil
}

// InWindow 判断 today <= date <= today+days（闭区间）。
// 规范日期字符串的字典序即时间先后。
func InWindow(date, today string, days int) bool {
	end, err := AddDays(today, days)
	if err != nil {
		return false
	}
	return date >= today && date <= end
}
