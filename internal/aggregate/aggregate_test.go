package aggregate

import (
	"testing"
	"wz-analyzer/internal/domain"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func desc(name string, platform domain.Platform, team string, game *domain.GameStatistics) domain.PlayerDescriptor {
	return domain.PlayerDescriptor{InGameName: name, Username: name, Platform: platform, Team: team, GameStatistics: game}
}

func foundOn(d domain.PlayerDescriptor, platform domain.Platform, lifetime domain.LifetimeStatistics) domain.Found {
	return domain.NewFound(d, domain.Candidate{Username: d.Username, Platform: platform}, lifetime)
}

var info = &domain.MatchInfo{
	ID:              "m1",
	Mode:            "br_brquads",
	TotalPlayers:    150,
	UTCStartSeconds: 10,
	UTCEndSeconds:   20,
	Duration:        10000,
	FollowedTeam:    "team_1",
}

func TestAggregateTotalsAndPlatforms(t *testing.T) {
	followed := []domain.ResolvedPlayer{
		foundOn(desc("a", domain.PlatformBattle, "team_1", nil), domain.PlatformBattle, domain.LifetimeStatistics{}),
		foundOn(desc("b", domain.PlatformBattle, "team_1", nil), domain.PlatformUno, domain.LifetimeStatistics{}),
		domain.NewNotFound(desc("c", domain.PlatformPSN, "team_1", nil)),
	}
	others := []domain.ResolvedPlayer{
		foundOn(desc("d", domain.PlatformPSN, "team_2", nil), domain.PlatformPSN, domain.LifetimeStatistics{}),
		foundOn(desc("e", domain.PlatformXBL, "team_3", nil), domain.PlatformXBL, domain.LifetimeStatistics{}),
		foundOn(desc("f", domain.PlatformXBL, "team_3", nil), domain.PlatformUno, domain.LifetimeStatistics{}),
		domain.NewNotFound(desc("g", domain.PlatformUnknown, "team_4", nil)),
	}

	m := New(zerolog.Nop()).Aggregate(info, followed, others)

	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, "br_brquads", m.Info.Mode)
	assert.Equal(t, int64(10000), m.Info.Duration)
	assert.Equal(t, 150, m.Statistics.TotalPlayers)
	assert.Equal(t, 5, m.Statistics.TotalPlayersFound)
	assert.Equal(t, 2, m.Statistics.FollowedTeam.PlayersFound)
	assert.Equal(t, 3, m.Statistics.OtherPlayers.PlayersFound)
	assert.Equal(t, domain.PlatformCounts{Battle: 3, PSN: 1, XBL: 1}, m.Statistics.CountPerPlatform)

	c := m.Statistics.CountPerPlatform
	assert.Equal(t, m.Statistics.TotalPlayersFound, c.Battle+c.PSN+c.XBL)
	assert.Len(t, m.Players.FollowedTeam, 3)
	assert.Len(t, m.Players.OtherPlayers, 4)
}

func TestAggregateMeans(t *testing.T) {
	followed := []domain.ResolvedPlayer{
		foundOn(
			desc("a", domain.PlatformBattle, "team_1", &domain.GameStatistics{Kills: 2, DamageDone: 1000, ScorePerMinute: 100}),
			domain.PlatformBattle,
			domain.LifetimeStatistics{Wins: 10, KdRatio: 1.0, GamesPlayed: 100},
		),
		foundOn(
			desc("b", domain.PlatformPSN, "team_1", &domain.GameStatistics{Kills: 6, DamageDone: 3000, ScorePerMinute: 300}),
			domain.PlatformPSN,
			domain.LifetimeStatistics{Wins: 30, KdRatio: 2.0, GamesPlayed: 300},
		),
		foundOn(
			desc("c", domain.PlatformXBL, "team_1", nil),
			domain.PlatformXBL,
			domain.LifetimeStatistics{Wins: 20, KdRatio: 3.0, GamesPlayed: 200},
		),
		domain.NewNotFound(desc("d", domain.PlatformPSN, "team_1", &domain.GameStatistics{Kills: 100})),
	}

	group := New(zerolog.Nop()).Aggregate(info, followed, nil).Statistics.FollowedTeam

	assert.Equal(t, 3, group.PlayersFound)
	assert.InDelta(t, 4.0, group.AverageGameStatistics.Kills, 1e-9)
	assert.InDelta(t, 2000.0, group.AverageGameStatistics.DamageDone, 1e-9)
	assert.InDelta(t, 200.0, group.AverageGameStatistics.ScorePerMinute, 1e-9)
	assert.InDelta(t, 20.0, group.AverageLifetimeStatistics.Wins, 1e-9)
	assert.InDelta(t, 2.0, group.AverageLifetimeStatistics.KdRatio, 1e-9)
	assert.InDelta(t, 200.0, group.AverageLifetimeStatistics.GamesPlayed, 1e-9)
}

func TestAggregateEmptyGroupIsZero(t *testing.T) {
	followed := []domain.ResolvedPlayer{domain.NewNotFound(desc("a", domain.PlatformBattle, "team_1", nil))}

	m := New(zerolog.Nop()).Aggregate(info, followed, nil)

	assert.Equal(t, 0, m.Statistics.TotalPlayersFound)
	assert.Equal(t, domain.GroupStatistics{}, m.Statistics.FollowedTeam)
	assert.Equal(t, domain.GroupStatistics{}, m.Statistics.OtherPlayers)
	assert.NotNil(t, m.Players.OtherPlayers)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"otherPlayers":[]`)
}

func TestMeanBy(t *testing.T) {
	assert.Equal(t, 0.0, meanBy([]int{}, func(i int) float64 { return float64(i) }))
	assert.Equal(t, 2.5, meanBy([]int{1, 2, 3, 4}, func(i int) float64 { return float64(i) }))
}
