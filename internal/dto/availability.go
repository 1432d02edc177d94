package dto

// ── 可约时间 DTO ──

// AvailabilityDayRequest 某天的可约时间段
type AvailabilityDayRequest struct {
	Date  string   `json:"date"  binding:"required,yyyymmdd"`
	Times []string `json:"times" binding:"required,min=1,dive,timerange"`
}

// SubmitAvailabilityRequest 提交可约时间（与已有记录按日期合并）
type SubmitAvailabilityRequest struct {
	Entries []AvailabilityDayRequest `json:"entries" binding:"required,min=1,dive"`
}

// AvailabilityDayResponse 某天的可约时间段
type AvailabilityDayResponse struct {
	Date  string   `json:"date"`
	Times []string `json:"times"`
}

// AvailabilityResponse 当前用户的可约时间
type AvailabilityResponse struct {
	Entries      []AvailabilityDayResponse `json:"entries"`
	LastModified string                    `json:"last_modified,omitempty"`
}

// DeleteAvailabilityResponse 删除某天可约时间的结果
type DeleteAvailabilityResponse struct {
	Date              string `json:"date"`
	Removed           bool   `json:"removed"`
	CancelledRequests int    `json:"cancelled_requests"`
}
