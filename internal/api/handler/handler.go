package handler

import "github.com/Kot-Pawel/squashLeague/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Availability *AvailabilityHandler
	Partner      *PartnerHandler
	MatchRequest *MatchRequestHandler
	Stats        *StatsHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		User:         NewUserHandler(svc.User),
		Availability: NewAvailabilityHandler(svc.Availability),
		Partner:      NewPartnerHandler(svc.Partner),
		MatchRequest: NewMatchRequestHandler(svc.MatchRequest),
		Stats:        NewStatsHandler(svc.Stats),
		Export:       NewExportHandler(svc.Export),
	}
}
