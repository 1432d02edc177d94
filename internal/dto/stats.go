package dto

// PlayerStatsResponse 球员统计
type PlayerStatsResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	GamesPlayed int64  `json:"games_played"`
}
