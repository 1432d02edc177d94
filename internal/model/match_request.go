package model

import "time"

// 约球申请状态
const (
	MatchStatusPending  = "pending"
	MatchStatusAccepted = "accepted"
	MatchStatusRejected = "rejected"
)

// MatchRequest 约球申请表，对应 match_requests
type MatchRequest struct {
	MatchRequestID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"match_request_id"`
	FromUserID     string     `gorm:"type:uuid;not null"                             json:"from_user_id"`
	ToUserID       string     `gorm:"type:uuid;not null"                             json:"to_user_id"`
	Date           string     `gorm:"type:varchar(10);not null"                      json:"date"`      // YYYY-MM-DD
	TimeSlot       string     `gorm:"type:varchar(11);not null"                      json:"time_slot"` // HH:mm-HH:mm
	Status         string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`    // pending | accepted | rejected
	RespondedAt    *time.Time `json:"responded_at,omitempty"`
	BaseModel

	// 关联
	FromUser *User `gorm:"foreignKey:FromUserID;references:UserID" json:"from_user,omitempty"`
	ToUser   *User `gorm:"foreignKey:ToUserID;references:UserID"   json:"to_user,omitempty"`
}

// TableName 指定表名
func (MatchRequest) TableName() string { return "match_requests" }

// CanTransition 仅允许 pending → accepted / rejected，终态不可回退
func CanTransition(from, to string) bool {
	if from != MatchStatusPending {
		return false
	}
	return to == MatchStatusAccepted || to == MatchStatusRejected
}

// Counterpart 返回申请中除 userID 以外的另一方
func (m *MatchRequest) Counterpart(userID string) string {
	if m.FromUserID == userID {
		return m.ToUserID
	}
	return m.FromUserID
}
