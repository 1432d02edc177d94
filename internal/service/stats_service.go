package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/Kot-Pawel/squashLeague/internal/dto"
	pkgerrors "github.com/Kot-Pawel/squashLeague/pkg/errors"
)

// StatsService 球员统计业务接口
type StatsService interface {
	// PlayerStats 全部用户及其参与的已接受约球数，按场次降序
	PlayerStats(ctx context.Context) ([]dto.PlayerStatsResponse, error)
}

type statsService struct {
	Deps
}

// NewStatsService 创建 StatsService 实例
func NewStatsService(deps Deps) StatsService {
	return &statsService{Deps: deps}
}

func (s *statsService) PlayerStats(ctx context.Context) ([]dto.PlayerStatsResponse, error) {
	users, err := s.Repo.User.List(ctx)
	if err != nil {
		s.Logger.Error("查询用户列表失败", zap.Error(err))
		return nil, pkgerrors.NewStoreError("stats.players", err)
	}
	counts, err := s.Repo.MatchRequest.CountAcceptedByUser(ctx)
	if err != nil {
		s.Logger.Error("统计约球场次失败", zap.Error(err))
		return nil, pkgerrors.NewStoreError("stats.players", err)
	}

	games := make(map[string]int64, len(counts))
	for _, c := range counts {
		games[c.UserID] = c.Games
	}

	result := make([]dto.PlayerStatsResponse, 0, len(users))
	for i := range users {
		result = append(result, dto.PlayerStatsResponse{
			UserID:      users[i].UserID,
			DisplayName: users[i].DisplayName(),
			GamesPlayed: games[users[i].UserID],
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].GamesPlayed != result[j].GamesPlayed {
			return result[i].GamesPlayed > result[j].GamesPlayed
		}
		return result[i].DisplayName < result[j].DisplayName
	})
	return result, nil
}
