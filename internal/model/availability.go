package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/Kot-Pawel/squashLeague/internal/timeslot"
)

// AvailabilityEntry 某一天的可约时间段
type AvailabilityEntry struct {
	Date  string       `json:"date"`
	Times timeslot.Set `json:"times"`
}

// UnmarshalJSON 兼容旧格式：早期文档只保存日期字符串，没有时间段
func (e *AvailabilityEntry) UnmarshalJSON(data []byte) error {
	var legacyDate string
	if err := json.Unmarshal(data, &legacyDate); err == nil {
		*e = AvailabilityEntry{Date: legacyDate}
		return nil
	}
	type plain AvailabilityEntry
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = AvailabilityEntry(p)
	return nil
}

// AvailabilityEntries 按插入顺序保存的日期条目，对应 JSONB 列
type AvailabilityEntries []AvailabilityEntry

// Scan 实现 sql.Scanner
func (e *AvailabilityEntries) Scan(src interface{}) error {
	var out AvailabilityEntries
	if err := scanJSON(src, &out); err != nil {
		return err
	}
	*e = out
	return nil
}

// Value 实现 driver.Valuer，nil 序列化为 []
func (e AvailabilityEntries) Value() (driver.Value, error) {
	if e == nil {
		return "[]", nil
	}
	return valueJSON([]AvailabilityEntry(e))
}

// Index 返回 date 对应条目的下标
func (e AvailabilityEntries) Index(date string) int {
	for i := range e {
		if e[i].Date == date {
			return i
		}
	}
	return -1
}

// TimesOn 返回某天的时间段；无条目时返回 nil
func (e AvailabilityEntries) TimesOn(date string) []timeslot.Range {
	if i := e.Index(date); i >= 0 {
		return e[i].Times.Ranges()
	}
	return nil
}

// AvailabilityRecord 用户可约时间记录，对应 availability_records，每个用户一行
type AvailabilityRecord struct {
	OwnerID      string              `gorm:"type:uuid;primaryKey"              json:"owner_id"`
	OwnerEmail   string              `gorm:"type:varchar(255);not null"        json:"owner_email"`
	Entries      AvailabilityEntries `gorm:"type:jsonb;not null;default:'[]'"  json:"entries"`
	LastModified time.Time           `gorm:"not null"                          json:"last_modified"`
	Version      int                 `gorm:"not null;default:1"                json:"version"`
	CreatedAt    time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (AvailabilityRecord) TableName() string { return "availability_records" }
