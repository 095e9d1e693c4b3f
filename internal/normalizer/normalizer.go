// Package normalizer turns raw directory match records into MatchInfo values
// with the roster split into the followed team and everyone else.
package normalizer

import (
	"fmt"
	"strings"
	"wz-analyzer/internal/api"
	"wz-analyzer/internal/domain"
)

// MalformedRecordError reports a raw match that lacks the structure needed
// to build its roster. It only affects the one match.
type MalformedRecordError struct {
	MatchID string
	Reason  string
}

func (e *MalformedRecordError) Error() string {
	if e.MatchID == "" {
		return fmt.Sprintf("malformed match record: %s", e.Reason)
	}
	return fmt.Sprintf("malformed match record %s: %s", e.MatchID, e.Reason)
}

var platforms = map[string]domain.Platform{
	"battlenet": domain.PlatformBattle,
	"battle":    domain.PlatformBattle,
	"ps4":       domain.PlatformPSN,
	"psn":       domain.PlatformPSN,
	"xb3":       domain.PlatformXBL,
	"xbl":       domain.PlatformXBL,
	"uno":       domain.PlatformUno,
}

// NormalizePlatform maps a raw platform code to its canonical platform.
// Unrecognized codes map to PlatformUnknown.
func NormalizePlatform(raw string) domain.Platform {
	if p, ok := platforms[strings.ToLower(raw)]; ok {
		return p
	}
	return domain.PlatformUnknown
}

// StripClanTag drops everything up to and including the last ']'. A name
// that would become empty is returned unchanged.
func StripClanTag(name string) string {
	i := strings.LastIndex(name, "]")
	if i < 0 {
		return name
	}
	if stripped := name[i+1:]; stripped != "" {
		return stripped
	}
	return name
}

func Normalize(raw api.RawMatch) (*domain.MatchInfo, error) {
	if raw.MatchID == "" {
		return nil, &MalformedRecordError{Reason: "missing match id"}
	}
	if raw.Player == nil || raw.Player.Team == "" {
		return nil, &MalformedRecordError{MatchID: raw.MatchID, Reason: "missing followed player team"}
	}
	if len(raw.RankedTeams) == 0 {
		return nil, &MalformedRecordError{MatchID: raw.MatchID, Reason: "missing ranked teams"}
	}

	info := &domain.MatchInfo{
		ID:              raw.MatchID,
		Mode:            raw.Mode,
		TotalPlayers:    raw.PlayerCount,
		UTCStartSeconds: raw.UTCStartSeconds,
		UTCEndSeconds:   raw.UTCEndSeconds,
		Duration:        raw.Duration,
		FollowedTeam:    raw.Player.Team,
	}

	for ti, team := range raw.RankedTeams {
		if team.Players == nil {
			return nil, &MalformedRecordError{MatchID: raw.MatchID, Reason: fmt.Sprintf("ranked team %d has no players", ti)}
		}
		for pi, p := range team.Players {
			if p.Username == "" {
				return nil, &MalformedRecordError{MatchID: raw.MatchID, Reason: fmt.Sprintf("ranked team %d player %d has no username", ti, pi)}
			}
			desc := describe(p)
			if p.Team == info.FollowedTeam {
				info.FollowedTeamDescriptors = append(info.FollowedTeamDescriptors, desc)
			} else {
				info.OtherPlayerDescriptors = append(info.OtherPlayerDescriptors, desc)
			}
		}
	}

	return info, nil
}

// NormalizeAll normalizes every record it can. Malformed records are
// returned as errors alongside the matches that parsed.
func NormalizeAll(raws []api.RawMatch) ([]*domain.MatchInfo, []error) {
	var (
		infos []*domain.MatchInfo
		errs  []error
	)
	for _, raw := range raws {
		info, err := Normalize(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		infos = append(infos, info)
	}
	return infos, errs
}

func describe(p api.RawTeamPlayer) domain.PlayerDescriptor {
	desc := domain.PlayerDescriptor{
		InGameName: p.Username,
		Username:   StripClanTag(p.Username),
		Platform:   NormalizePlatform(p.Platform),
		Team:       p.Team,
	}
	if s := p.PlayerStats; s != nil {
		desc.GameStatistics = &domain.GameStatistics{
			Kills:             s.Kills,
			KdRatio:           s.KdRatio,
			Score:             s.Score,
			TimePlayed:        s.TimePlayed,
			PercentTimeMoving: s.PercentTimeMoving,
			LongestStreak:     s.LongestStreak,
			ScorePerMinute:    s.ScorePerMinute,
			DamageDone:        s.DamageDone,
			DistanceTraveled:  s.DistanceTraveled,
			Deaths:            s.Deaths,
			DamageTaken:       s.DamageTaken,
		}
	}
	return desc
}
