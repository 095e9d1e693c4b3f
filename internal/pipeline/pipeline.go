package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"wz-analyzer/internal/aggregate"
	"wz-analyzer/internal/api"
	"wz-analyzer/internal/config"
	"wz-analyzer/internal/constants"
	"wz-analyzer/internal/domain"
	"wz-analyzer/internal/normalizer"
	"wz-analyzer/internal/report"
	"wz-analyzer/internal/scheduler"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type MatchSource interface {
	FetchMatchHistory(ctx context.Context, candidate domain.Candidate) ([]api.RawMatch, error)
}

type PlayerResolver interface {
	Resolve(ctx context.Context, desc domain.PlayerDescriptor, match *domain.MatchInfo, strict bool) domain.ResolvedPlayer
}

type PlayerCache interface {
	PutAll(players []domain.Found)
	Flush() error
}

type ReportWriter interface {
	WriteMatch(match domain.Match, username string, platform domain.Platform) (string, error)
}

// Pipeline analyzes the recent matches of one followed player. Matches are
// handled one after another; the players of a match are resolved
// concurrently through the scheduler.
type Pipeline struct {
	cfg        *config.Config
	source     MatchSource
	resolver   PlayerResolver
	cache      PlayerCache
	scheduler  *scheduler.Scheduler
	aggregator *aggregate.Aggregator
	reports    ReportWriter
	out        io.Writer
	logger     zerolog.Logger
}

func New(
	cfg *config.Config,
	source MatchSource,
	resolver PlayerResolver,
	cache PlayerCache,
	sched *scheduler.Scheduler,
	aggregator *aggregate.Aggregator,
	reports ReportWriter,
	out io.Writer,
	logger zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		source:     source,
		resolver:   resolver,
		cache:      cache,
		scheduler:  sched,
		aggregator: aggregator,
		reports:    reports,
		out:        out,
		logger:     logger.With().Str("component", "pipeline").Logger(),
	}
}

// Run fetches the followed player's matches and analyzes the selected ones,
// writing one report per match. It returns the matches it analyzed. An error
// is only returned when the followed player's matches cannot be fetched.
func (p *Pipeline) Run(ctx context.Context) ([]domain.Match, error) {
	runID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run id: %w", err)
	}
	log := p.logger.With().
		Str("run_id", runID).
		Str("username", p.cfg.Username).
		Str("platform", string(p.cfg.Platform)).
		Logger()
	ctx = log.WithContext(ctx)

	fetchCtx, cancel := context.WithTimeout(ctx, constants.MatchFetchTimeout)
	raws, err := p.source.FetchMatchHistory(fetchCtx, domain.Candidate{Username: p.cfg.Username, Platform: p.cfg.Platform})
	cancel()
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch matches for followed player")
		return nil, fmt.Errorf("failed to fetch matches for %s on %s: %w", p.cfg.Username, p.cfg.Platform, err)
	}
	log.Info().Int("match_count", len(raws)).Msg("fetched matches for followed player")

	infos, errs := normalizer.NormalizeAll(raws)
	for _, err := range errs {
		var malformed *normalizer.MalformedRecordError
		if errors.As(err, &malformed) {
			log.Warn().Err(err).Str("match_id", malformed.MatchID).Msg("skipping malformed match")
			continue
		}
		log.Warn().Err(err).Msg("skipping match")
	}

	selected := SelectMatches(infos, p.cfg.MatchID, p.cfg.MatchLimit)
	if len(selected) == 0 {
		log.Warn().Str("match_id", p.cfg.MatchID).Msg("no matches to analyze")
		return nil, nil
	}

	matches := make([]domain.Match, 0, len(selected))
	for _, info := range selected {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Msg("run interrupted")
			break
		}

		match := p.AnalyzeMatch(ctx, info)
		matches = append(matches, match)

		if _, err := p.reports.WriteMatch(match, p.cfg.Username, p.cfg.Platform); err != nil {
			log.Error().Err(err).Str("match_id", match.ID).Msg("failed to write match report")
		}
		if p.out != nil {
			report.PrintSummary(p.out, match)
		}
	}

	log.Info().Int("analyzed", len(matches)).Msg("run completed")
	return matches, nil
}

// AnalyzeMatch resolves every player of info and aggregates the result.
func (p *Pipeline) AnalyzeMatch(ctx context.Context, info *domain.MatchInfo) domain.Match {
	base := p.logger
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		base = *l
	}
	log := base.With().Str("match_id", info.ID).Logger()

	descs := info.Descriptors()
	log.Info().
		Int("followed", len(info.FollowedTeamDescriptors)).
		Int("others", len(info.OtherPlayerDescriptors)).
		Int("concurrency", p.scheduler.Limit()).
		Bool("strict", p.cfg.Strict).
		Msg("resolving players")

	resolved := scheduler.Run(ctx, p.scheduler, descs,
		func(ctx context.Context, d domain.PlayerDescriptor) domain.ResolvedPlayer {
			return p.resolver.Resolve(ctx, d, info, p.cfg.Strict)
		},
		func(d domain.PlayerDescriptor, err error) domain.ResolvedPlayer {
			log.Warn().Err(err).Str("username", d.Username).Msg("resolution did not finish, marking not found")
			return domain.NewNotFound(d)
		},
	)

	followed, others := Partition(info, resolved)

	found := domain.FoundOnly(resolved)
	p.cache.PutAll(found)
	if err := p.cache.Flush(); err != nil {
		log.Warn().Err(err).Msg("failed to flush player cache")
	}

	log.Info().Int("found", len(found)).Int("total", len(resolved)).Msg("players resolved")
	return p.aggregator.Aggregate(info, followed, others)
}

// SelectMatches picks the match with id matchID, or the first limit matches
// when matchID is empty.
func SelectMatches(infos []*domain.MatchInfo, matchID string, limit int) []*domain.MatchInfo {
	if matchID != "" {
		for _, info := range infos {
			if info.ID == matchID {
				return []*domain.MatchInfo{info}
			}
		}
		return nil
	}
	if limit > 0 && len(infos) > limit {
		return infos[:limit]
	}
	return infos
}

// Partition splits resolved players back into the followed team and the
// other players using the team carried by each player's identity.
func Partition(info *domain.MatchInfo, resolved []domain.ResolvedPlayer) (followed, others []domain.ResolvedPlayer) {
	for _, r := range resolved {
		if r.Identity().Team == info.FollowedTeam {
			followed = append(followed, r)
		} else {
			others = append(others, r)
		}
	}
	return followed, others
}
