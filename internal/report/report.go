// Package report writes match analyses to disk and prints them as tables.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"wz-analyzer/internal/config"
	"wz-analyzer/internal/domain"

	json "github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/rs/zerolog"
)

type Writer struct {
	dir    string
	logger zerolog.Logger
}

func New(cfg *config.Config, logger zerolog.Logger) *Writer {
	return &Writer{
		dir:    cfg.OutputDir,
		logger: logger.With().Str("component", "report").Logger(),
	}
}

// FileName is the report file name for a match analyzed while following
// username on platform. Path separators in the inputs are replaced.
func FileName(matchID, username string, platform domain.Platform) string {
	name := fmt.Sprintf("Analysis of match with id %s following %s on %s.json", matchID, username, platform)
	return strings.NewReplacer("/", "_", "\\", "_").Replace(name)
}

// WriteMatch writes match as indented JSON and returns the file path.
func (w *Writer) WriteMatch(match domain.Match, username string, platform domain.Platform) (string, error) {
	data, err := json.MarshalIndent(match, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode match %s: %w", match.ID, err)
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(w.dir, FileName(match.ID, username, platform))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write match %s: %w", match.ID, err)
	}

	w.logger.Info().Str("match_id", match.ID).Str("path", path).Msg("match report written")
	return path, nil
}

// PrintSummary prints the per-group averages and platform counts of match.
func PrintSummary(out io.Writer, match domain.Match) {
	s := match.Statistics
	fmt.Fprintf(out, "\n=== Match %s (%s) ===\n\n", match.ID, match.Info.Mode)
	fmt.Fprintf(out, "  Players found : %d / %d\n", s.TotalPlayersFound, s.TotalPlayers)
	fmt.Fprintf(out, "  Platforms     : battle %d, psn %d, xbl %d\n\n", s.CountPerPlatform.Battle, s.CountPerPlatform.PSN, s.CountPerPlatform.XBL)

	table := tablewriter.NewTable(out, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))

	table.Header("GROUP", "FOUND", "K/D", "SPM", "WINS", "GAMES", "MATCH_K", "MATCH_DMG", "MATCH_SPM")
	for _, g := range []struct {
		name  string
		stats domain.GroupStatistics
	}{
		{"followed team", s.FollowedTeam},
		{"other players", s.OtherPlayers},
	} {
		if g.stats.PlayersFound == 0 {
			table.Append(g.name, "0", "-", "-", "-", "-", "-", "-", "-")
			continue
		}
		lt, gm := g.stats.AverageLifetimeStatistics, g.stats.AverageGameStatistics
		table.Append(
			g.name,
			strconv.Itoa(g.stats.PlayersFound),
			fmt.Sprintf("%.2f", lt.KdRatio),
			fmt.Sprintf("%.1f", lt.ScorePerMinute),
			fmt.Sprintf("%.0f", lt.Wins),
			fmt.Sprintf("%.0f", lt.GamesPlayed),
			fmt.Sprintf("%.1f", gm.Kills),
			fmt.Sprintf("%.0f", gm.DamageDone),
			fmt.Sprintf("%.1f", gm.ScorePerMinute),
		)
	}
	table.Render()
}
