package dto

// ── 对手匹配 DTO ──

// PartnersQuery 按日期查找对手
type PartnersQuery struct {
	Date string `form:"date" binding:"required,yyyymmdd"`
}

// UpcomingQuery 近期汇总查询参数，window_days 缺省时使用配置值
type UpcomingQuery struct {
	WindowDays int `form:"window_days" binding:"omitempty,min=1"`
}

// PartnerResponse 某天时间重叠的对手
type PartnerResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Overlap     string `json:"overlap"`
}

// PartnersResponse 某天的对手列表
type PartnersResponse struct {
	Date     string            `json:"date"`
	Partners []PartnerResponse `json:"partners"`
}

// UpcomingDayResponse 近期窗口内某一天
type UpcomingDayResponse struct {
	Date     string            `json:"date"`
	MySlots  []string          `json:"my_slots"`
	Partners []PartnerResponse `json:"partners"`
}

// UpcomingSummaryResponse 近期汇总；no_dates_in_window 表示窗口内没有任何日期
type UpcomingSummaryResponse struct {
	WindowDays      int                   `json:"window_days"`
	NoDatesInWindow bool                  `json:"no_dates_in_window"`
	Days            []UpcomingDayResponse `json:"days"`
}
