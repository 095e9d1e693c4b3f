// Package resolver matches roster entries from a match to identities on the
// player directory.
//
// A roster name is fuzzy searched, the hits are narrowed to platforms the
// player could be registered under, and the first hit whose statistics can be
// fetched is accepted. In strict mode a hit is only accepted when its own
// match history contains the match being analyzed. Every directory failure
// degrades to NotFound for that candidate; nothing is returned as an error.
package resolver

import (
	"context"
	"wz-analyzer/internal/api"
	"wz-analyzer/internal/constants"
	"wz-analyzer/internal/domain"

	"github.com/rs/zerolog"
)

// Directory is the part of the player directory the resolver needs.
type Directory interface {
	FuzzySearch(ctx context.Context, username string) ([]domain.Candidate, error)
	FetchPlayerStats(ctx context.Context, candidate domain.Candidate) (*domain.LifetimeStatistics, error)
	FetchMatchHistory(ctx context.Context, candidate domain.Candidate) ([]api.RawMatch, error)
}

// Cache is consulted before any directory call.
type Cache interface {
	Get(username string, platform domain.Platform) (domain.Found, bool)
}

type Resolver struct {
	dir    Directory
	cache  Cache
	logger zerolog.Logger
}

func New(dir Directory, cache Cache, logger zerolog.Logger) *Resolver {
	return &Resolver{
		dir:    dir,
		cache:  cache,
		logger: logger.With().Str("component", "resolver").Logger(),
	}
}

// Resolve produces exactly one Found or NotFound for desc. match is the match
// being analyzed and is only consulted when strict is set.
func (r *Resolver) Resolve(ctx context.Context, desc domain.PlayerDescriptor, match *domain.MatchInfo, strict bool) domain.ResolvedPlayer {
	log := r.logger.With().
		Str("username", desc.Username).
		Str("platform", string(desc.Platform)).
		Logger()
	if match != nil {
		log = log.With().Str("match_id", match.ID).Logger()
	}

	if r.cache != nil {
		if hit, ok := r.cache.Get(desc.Username, desc.Platform); ok {
			log.Debug().Str("found_as", hit.Username).Msg("player found in cache")
			return hit.WithIdentity(desc)
		}
	}

	allowed := desc.Platform.Compatible()
	if len(allowed) == 0 {
		log.Warn().Msg("unknown platform, skipping lookup")
		return domain.NewNotFound(desc)
	}

	searchCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	candidates, err := r.dir.FuzzySearch(searchCtx, desc.Username)
	cancel()
	if err != nil {
		log.Warn().Err(err).Msg("fuzzy search failed")
		return domain.NewNotFound(desc)
	}
	if len(candidates) == 0 {
		log.Info().Msg("fuzzy search returned no candidates")
		return domain.NewNotFound(desc)
	}

	filtered := FilterCompatible(candidates, allowed)
	log.Debug().Int("hits", len(candidates)).Int("compatible", len(filtered)).Msg("fuzzy search completed")

	for _, candidate := range filtered {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Msg("resolution abandoned")
			break
		}

		stats, ok := r.accept(ctx, log, candidate, match, strict)
		if !ok {
			continue
		}

		log.Info().
			Str("candidate", candidate.Username).
			Str("platform_found", string(candidate.Platform)).
			Bool("strict", strict).
			Msg("player resolved")
		return domain.NewFound(desc, candidate, *stats)
	}

	log.Info().Bool("strict", strict).Msg("no candidate accepted")
	return domain.NewNotFound(desc)
}

func (r *Resolver) accept(ctx context.Context, log zerolog.Logger, candidate domain.Candidate, match *domain.MatchInfo, strict bool) (*domain.LifetimeStatistics, bool) {
	log = log.With().Str("candidate", candidate.Username).Str("candidate_platform", string(candidate.Platform)).Logger()

	statsCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	stats, err := r.dir.FetchPlayerStats(statsCtx, candidate)
	cancel()
	if err != nil {
		log.Debug().Err(err).Msg("failed to fetch candidate stats")
		return nil, false
	}
	if stats == nil {
		log.Debug().Msg("candidate has no statistics")
		return nil, false
	}
	if !strict {
		return stats, true
	}

	if match == nil {
		log.Debug().Msg("no match to verify against")
		return nil, false
	}

	historyCtx, cancel := context.WithTimeout(ctx, constants.MatchFetchTimeout)
	history, err := r.dir.FetchMatchHistory(historyCtx, candidate)
	cancel()
	if err != nil {
		log.Debug().Err(err).Msg("failed to fetch candidate match history")
		return nil, false
	}
	if len(history) == 0 || !api.ContainsMatch(history, match.ID) {
		log.Debug().Int("history", len(history)).Msg("candidate was not in match")
		return nil, false
	}
	return stats, true
}

// FilterCompatible keeps candidates on an allowed platform, in search order.
func FilterCompatible(candidates []domain.Candidate, allowed []domain.Platform) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		for _, p := range allowed {
			if c.Platform == p {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
