package aggregate

import (
	"wz-analyzer/internal/domain"

	"github.com/rs/zerolog"
)

type Aggregator struct {
	logger zerolog.Logger
}

func New(logger zerolog.Logger) *Aggregator {
	return &Aggregator{logger: logger.With().Str("component", "aggregator").Logger()}
}

// Aggregate summarizes a fully resolved roster. Averages only cover Found
// players of the group; a group without any has all averages at zero.
func (a *Aggregator) Aggregate(info *domain.MatchInfo, followed, others []domain.ResolvedPlayer) domain.Match {
	followedFound := domain.FoundOnly(followed)
	otherFound := domain.FoundOnly(others)

	match := domain.Match{
		ID: info.ID,
		Info: domain.MatchSummaryInfo{
			Mode:            info.Mode,
			UTCStartSeconds: info.UTCStartSeconds,
			UTCEndSeconds:   info.UTCEndSeconds,
			Duration:        info.Duration,
		},
		Statistics: domain.MatchStatistics{
			TotalPlayers:      info.TotalPlayers,
			TotalPlayersFound: len(followedFound) + len(otherFound),
			CountPerPlatform:  countPerPlatform(followedFound, otherFound),
			FollowedTeam:      groupStatistics(followedFound),
			OtherPlayers:      groupStatistics(otherFound),
		},
		Players: domain.MatchPlayers{
			FollowedTeam: nonNil(followed),
			OtherPlayers: nonNil(others),
		},
	}

	a.logger.Debug().
		Str("match_id", info.ID).
		Int("followed", len(followed)).
		Int("others", len(others)).
		Int("found", match.Statistics.TotalPlayersFound).
		Msg("match aggregated")

	return match
}

// uno accounts are counted with battle, the directory's PC grouping.
func countPerPlatform(groups ...[]domain.Found) domain.PlatformCounts {
	var counts domain.PlatformCounts
	for _, group := range groups {
		for _, f := range group {
			switch f.PlatformFound {
			case domain.PlatformBattle, domain.PlatformUno:
				counts.Battle++
			case domain.PlatformPSN:
				counts.PSN++
			case domain.PlatformXBL:
				counts.XBL++
			}
		}
	}
	return counts
}

func groupStatistics(found []domain.Found) domain.GroupStatistics {
	var withGame []domain.GameStatistics
	for _, f := range found {
		if g := f.GameStatistics(); g != nil {
			withGame = append(withGame, *g)
		}
	}

	lifetime := make([]domain.LifetimeStatistics, len(found))
	for i, f := range found {
		lifetime[i] = f.LifetimeStatistics
	}

	return domain.GroupStatistics{
		PlayersFound:              len(found),
		AverageGameStatistics:     averageGame(withGame),
		AverageLifetimeStatistics: averageLifetime(lifetime),
	}
}

func averageGame(s []domain.GameStatistics) domain.GameStatistics {
	return domain.GameStatistics{
		Kills:             meanBy(s, func(g domain.GameStatistics) float64 { return g.Kills }),
		KdRatio:           meanBy(s, func(g domain.GameStatistics) float64 { return g.KdRatio }),
		Score:             meanBy(s, func(g domain.GameStatistics) float64 { return g.Score }),
		TimePlayed:        meanBy(s, func(g domain.GameStatistics) float64 { return g.TimePlayed }),
		PercentTimeMoving: meanBy(s, func(g domain.GameStatistics) float64 { return g.PercentTimeMoving }),
		LongestStreak:     meanBy(s, func(g domain.GameStatistics) float64 { return g.LongestStreak }),
		ScorePerMinute:    meanBy(s, func(g domain.GameStatistics) float64 { return g.ScorePerMinute }),
		DamageDone:        meanBy(s, func(g domain.GameStatistics) float64 { return g.DamageDone }),
		DistanceTraveled:  meanBy(s, func(g domain.GameStatistics) float64 { return g.DistanceTraveled }),
		Deaths:            meanBy(s, func(g domain.GameStatistics) float64 { return g.Deaths }),
		DamageTaken:       meanBy(s, func(g domain.GameStatistics) float64 { return g.DamageTaken }),
	}
}

func averageLifetime(s []domain.LifetimeStatistics) domain.LifetimeStatistics {
	return domain.LifetimeStatistics{
		Wins:           meanBy(s, func(l domain.LifetimeStatistics) float64 { return l.Wins }),
		Kills:          meanBy(s, func(l domain.LifetimeStatistics) float64 { return l.Kills }),
		KdRatio:        meanBy(s, func(l domain.LifetimeStatistics) float64 { return l.KdRatio }),
		TimePlayed:     meanBy(s, func(l domain.LifetimeStatistics) float64 { return l.TimePlayed }),
		GamesPlayed:    meanBy(s, func(l domain.LifetimeStatistics) float64 { return l.GamesPlayed }),
		ScorePerMinute: meanBy(s, func(l domain.LifetimeStatistics) float64 { return l.ScorePerMinute }),
		Deaths:         meanBy(s, func(l domain.LifetimeStatistics) float64 { return l.Deaths }),
	}
}

// meanBy averages field over items. An empty slice averages to zero.
func meanBy[T any](items []T, field func(T) float64) float64 {
	if len(items) == 0 {
		return 0
	}
	var sum float64
	for _, it := range items {
		sum += field(it)
	}
	return sum / float64(len(items))
}

func nonNil(players []domain.ResolvedPlayer) []domain.ResolvedPlayer {
	if players == nil {
		return []domain.ResolvedPlayer{}
	}
	return players
}
