package dto

// ── 约球申请 DTO ──

// CreateMatchRequestRequest 发起约球申请
type CreateMatchRequestRequest struct {
	ToUserID string `json:"to_user_id" binding:"required,uuid"`
	Date     string `json:"date"       binding:"required,yyyymmdd"`
	TimeSlot string `json:"time_slot"  binding:"required,timerange"`
}

// RespondMatchRequestRequest 响应约球申请
type RespondMatchRequestRequest struct {
	Action string `json:"action" binding:"required,oneof=accept reject"`
}

// Accept 是否为接受
func (r *RespondMatchRequestRequest) Accept() bool { return r.Action == "accept" }

// MatchRequestResponse 约球申请（从当前用户视角）
type MatchRequestResponse struct {
	ID              string  `json:"id"`
	FromUserID      string  `json:"from_user_id"`
	ToUserID        string  `json:"to_user_id"`
	Direction       string  `json:"direction"` // incoming | outgoing
	CounterpartID   string  `json:"counterpart_id"`
	CounterpartName string  `json:"counterpart_name"`
	Date            string  `json:"date"`
	TimeSlot        string  `json:"time_slot"`
	Status          string  `json:"status"`
	CanRespond      bool    `json:"can_respond"`
	CreatedAt       string  `json:"created_at"`
	RespondedAt     *string `json:"responded_at,omitempty"`
}

// MatchRequestListResponse 按状态分组的约球申请
type MatchRequestListResponse struct {
	Pending  []MatchRequestResponse `json:"pending"`
	Accepted []MatchRequestResponse `json:"accepted"`
	Rejected []MatchRequestResponse `json:"rejected"`
}
