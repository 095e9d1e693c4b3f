package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
	"wz-analyzer/internal/aggregate"
	"wz-analyzer/internal/api"
	"wz-analyzer/internal/cache"
	"wz-analyzer/internal/config"
	"wz-analyzer/internal/domain"
	"wz-analyzer/internal/report"
	"wz-analyzer/internal/resolver"
	"wz-analyzer/internal/scheduler"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// directory serves both the followed player's history and the lookups made
// while resolving.
type directory struct {
	mu         sync.Mutex
	search     map[string][]domain.Candidate
	stats      map[domain.Candidate]*domain.LifetimeStatistics
	history    map[domain.Candidate][]api.RawMatch
	historyErr error
	searches   int
}

func (d *directory) FuzzySearch(ctx context.Context, username string) ([]domain.Candidate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.searches++
	return d.search[username], nil
}

func (d *directory) FetchPlayerStats(ctx context.Context, c domain.Candidate) (*domain.LifetimeStatistics, error) {
	return d.stats[c], nil
}

func (d *directory) FetchMatchHistory(ctx context.Context, c domain.Candidate) ([]api.RawMatch, error) {
	if d.historyErr != nil {
		return nil, d.historyErr
	}
	return d.history[c], nil
}

var (
	followed      = domain.Candidate{Username: "Alice", Platform: domain.PlatformBattle}
	aliceResolved = domain.Candidate{Username: "Alice#1234", Platform: domain.PlatformBattle}
	aliceStats    = domain.LifetimeStatistics{Wins: 12, Kills: 340, KdRatio: 1.1, GamesPlayed: 200, ScorePerMinute: 210, TimePlayed: 90000, Deaths: 309}
)

func rawMatch(id string) api.RawMatch {
	return api.RawMatch{
		MatchID:     id,
		Mode:        "br_brquads",
		PlayerCount: 2,
		Player:      &api.RawMatchPlayer{Team: "team_1", Username: "Alice"},
		RankedTeams: []api.RawRankedTeam{
			{Name: "team_1", Players: []api.RawTeamPlayer{
				{Username: "[WZ]Alice", Platform: "battlenet", Team: "team_1", PlayerStats: &api.RawPlayerStats{Kills: 4, DamageDone: 1500}},
			}},
			{Name: "team_2", Players: []api.RawTeamPlayer{
				{Username: "Bob", Platform: "ps4", Team: "team_2"},
			}},
		},
	}
}

type fixture struct {
	cfg      *config.Config
	dir      *directory
	cache    *cache.Cache
	out      bytes.Buffer
	pipeline *Pipeline
}

func newFixture(t *testing.T, matches ...api.RawMatch) *fixture {
	t.Helper()
	tmp := t.TempDir()

	f := &fixture{
		cfg: &config.Config{
			CachePath:   filepath.Join(tmp, "playerCache.json"),
			OutputDir:   filepath.Join(tmp, "out"),
			Concurrency: 2,
			TaskTimeout: time.Minute,
			MatchLimit:  5,
			Strict:      true,
			Username:    followed.Username,
			Platform:    followed.Platform,
		},
		dir: &directory{
			search: map[string][]domain.Candidate{"Alice": {aliceResolved}},
			stats:  map[domain.Candidate]*domain.LifetimeStatistics{aliceResolved: &aliceStats},
			history: map[domain.Candidate][]api.RawMatch{
				followed:      matches,
				aliceResolved: matches,
			},
		},
	}

	logger := zerolog.Nop()
	f.cache = cache.New(f.cfg, logger)
	f.pipeline = New(
		f.cfg,
		f.dir,
		resolver.New(f.dir, f.cache, logger),
		f.cache,
		scheduler.New(f.cfg, logger),
		aggregate.New(logger),
		report.New(f.cfg, logger),
		&f.out,
		logger,
	)
	return f
}

func TestRunEndToEnd(t *testing.T) {
	f := newFixture(t, rawMatch("m1"))

	matches, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, 2, m.Statistics.TotalPlayers)
	assert.Equal(t, 1, m.Statistics.TotalPlayersFound)
	assert.Equal(t, domain.PlatformCounts{Battle: 1}, m.Statistics.CountPerPlatform)
	assert.Equal(t, 1, m.Statistics.FollowedTeam.PlayersFound)
	assert.Equal(t, aliceStats, m.Statistics.FollowedTeam.AverageLifetimeStatistics)
	assert.Equal(t, 4.0, m.Statistics.FollowedTeam.AverageGameStatistics.Kills)
	assert.Equal(t, domain.GroupStatistics{}, m.Statistics.OtherPlayers)

	require.Len(t, m.Players.FollowedTeam, 1)
	alice, ok := m.Players.FollowedTeam[0].(domain.Found)
	require.True(t, ok)
	assert.Equal(t, "Alice#1234", alice.Username)
	assert.Equal(t, "[WZ]Alice", alice.Info.InGameName)

	require.Len(t, m.Players.OtherPlayers, 1)
	bob, ok := m.Players.OtherPlayers[0].(domain.NotFound)
	require.True(t, ok)
	assert.Equal(t, "Bob", bob.Info.Username)
	assert.Equal(t, domain.PlatformPSN, bob.Info.Platform)
	assert.Equal(t, "team_2", bob.Info.Team)

	data, err := os.ReadFile(filepath.Join(f.cfg.OutputDir, report.FileName("m1", "Alice", domain.PlatformBattle)))
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "m1", decoded["id"])

	reloaded := cache.New(f.cfg, zerolog.Nop())
	require.NoError(t, reloaded.Load())
	assert.Equal(t, 1, reloaded.Len())
	_, ok = reloaded.Get("Alice", domain.PlatformBattle)
	assert.True(t, ok)

	assert.Contains(t, f.out.String(), "followed team")
}

func TestRunReusesCacheAcrossMatches(t *testing.T) {
	f := newFixture(t, rawMatch("m1"), rawMatch("m2"))

	matches, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// Alice is searched once, Bob once per match.
	assert.Equal(t, 3, f.dir.searches)
	for _, m := range matches {
		assert.Equal(t, 1, m.Statistics.TotalPlayersFound)
	}
}

func TestRunSkipsMalformedMatches(t *testing.T) {
	bad := rawMatch("m0")
	bad.RankedTeams = nil

	f := newFixture(t, bad, rawMatch("m1"))

	matches, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "m1", matches[0].ID)
}

func TestRunFailsWhenHistoryUnavailable(t *testing.T) {
	f := newFixture(t)
	f.dir.historyErr = api.ErrAuthFailure

	matches, err := f.pipeline.Run(context.Background())
	assert.Nil(t, matches)
	assert.True(t, errors.Is(err, api.ErrAuthFailure))
}

func TestRunSelectsRequestedMatch(t *testing.T) {
	f := newFixture(t, rawMatch("m1"), rawMatch("m2"), rawMatch("m3"))
	f.cfg.MatchID = "m2"

	matches, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "m2", matches[0].ID)
}

func TestSelectMatches(t *testing.T) {
	infos := []*domain.MatchInfo{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	assert.Len(t, SelectMatches(infos, "", 2), 2)
	assert.Len(t, SelectMatches(infos, "", 10), 3)
	assert.Len(t, SelectMatches(infos, "", 0), 3)
	assert.Equal(t, []*domain.MatchInfo{infos[1]}, SelectMatches(infos, "b", 1))
	assert.Empty(t, SelectMatches(infos, "zzz", 5))
}

func TestPartition(t *testing.T) {
	info := &domain.MatchInfo{FollowedTeam: "team_1"}
	resolved := []domain.ResolvedPlayer{
		domain.NewNotFound(domain.PlayerDescriptor{Username: "a", Team: "team_2"}),
		domain.NewNotFound(domain.PlayerDescriptor{Username: "b", Team: "team_1"}),
		domain.NewNotFound(domain.PlayerDescriptor{Username: "c", Team: "team_3"}),
	}

	followedTeam, others := Partition(info, resolved)
	require.Len(t, followedTeam, 1)
	assert.Equal(t, "b", followedTeam[0].Identity().Username)
	assert.Len(t, others, 2)
}
