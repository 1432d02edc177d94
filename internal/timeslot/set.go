package timeslot

import "encoding/json"

// Set 按插入顺序保存、以规范字符串去重的时间段集合。
// HH:mm 格式有界，文本去重不存在碰撞问题。
type Set struct {
	items []Range
	seen  map[string]struct{}
}

// NewSet 由若干时间段构建集合，重复项被忽略
func NewSet(ranges ...Range) Set {
	var s Set
	for _, r := range ranges {
		s.Add(r)
	}
	return s
}

// ParseSet 解析一组 "HH:mm-HH:mm" 字符串
func ParseSet(values []string) (Set, error) {
	var s Set
	for _, v := range values {
		r, err := Parse(v)
		if err != nil {
			return Set{}, err
		}
		s.Add(r)
	}
	return s, nil
}

// Add 加入时间段，已存在时返回 false
func (s *Set) Add(r Range) bool {
	key := r.String()
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	s.items = append(s.items, r)
	return true
}

// Union 将 other 中的时间段并入 s（集合并，不是列表拼接）
func (s *Set) Union(other Set) {
	for _, r := range other.items {
		s.Add(r)
	}
}

// Contains 判断集合中是否已有该时间段
func (s Set) Contains(r Range) bool {
	_, ok := s.seen[r.String()]
	return ok
}

// Len 集合大小
func (s Set) Len() int { return len(s.items) }

// Ranges 返回按插入顺序排列的副本
func (s Set) Ranges() []Range {
	out := make([]Range, len(s.items))
	copy(out, s.items)
	return out
}

// Strings 返回规范字符串形式
func (s Set) Strings() []string {
	out := make([]string, len(s.items))
	for i, r := range s.items {
		out[i] = r.String()
	}
	return out
}

// Clone 深拷贝
func (s Set) Clone() Set {
	return NewSet(s.items...)
}

// MarshalJSON 序列化为字符串数组
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

// UnmarshalJSON 从字符串数组反序列化；非法时间段返回错误
func (s *Set) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	parsed, err := ParseSet(values)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
