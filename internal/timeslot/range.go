package timeslot

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRange 时间段格式非法（非 "HH:mm-HH:mm" 或开始时间不早于结束时间）
var ErrInvalidRange = errors.New("时间段格式无效")

// Range 单日内的一个连续时间段，Start/End 为补零的 "HH:mm" 墙钟时间。
// 补零后的字符串按字典序比较即等价于 24 小时制时间先后。
type Range struct {
	Start string
	End   string
}

// New 根据起止时间创建 Range，要求 start < end
func New(start, end string) (Range, error) {
	if !validClock(start) || !validClock(end) {
		return Range{}, fmt.Errorf("%w: %q-%q", ErrInvalidRange, start, end)
	}
	if start >= end {
		return Range{}, fmt.Errorf("%w: 开始时间 %s 不早于结束时间 %s", ErrInvalidRange, start, end)
	}
	return Range{Start: start, End: end}, nil
}

// Parse 解析 "HH:mm-HH:mm"
func Parse(s string) (Range, error) {
	if strings.Count(s, "-") != 1 {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	start, end, _ := strings.Cut(s, "-")
	return New(start, end)
}

// MustParse 用于常量与测试，解析失败时 panic
func MustParse(s string) Range {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

// String 返回规范化的 "HH:mm-HH:mm"
func (r Range) String() string {
	return r.Start + "-" + r.End
}

// Overlap 计算两个时间段的交集。
// 首尾相接（如 10:00 结束与 10:00 开始）不算重叠。
func (r Range) Overlap(other Range) (Range, bool) {
	start := max(r.Start, other.Start)
	end := min(r.End, other.End)
	if start < end {
		return Range{Start: start, End: end}, true
	}
	return Range{}, false
}

// FirstOverlap 按插入顺序遍历 a×b，返回找到的第一个交集（不是最大的交集）
func FirstOverlap(a, b []Range) (Range, bool) {
	for _, x := range a {
		for _, y := range b {
			if o, ok := x.Overlap(y); ok {
				return o, true
			}
		}
	}
	return Range{}, false
}

func validClock(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	hour := int(s[0]-'0')*10 + int(s[1]-'0')
	minute := int(s[3]-'0')*10 + int(s[4]-'0')
	return hour <= 23 && minute <= 59
}
