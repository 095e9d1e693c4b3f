package main

import (
	"context"
	"fmt"
	"os"
	"wz-analyzer/internal/api"
	"wz-analyzer/internal/cache"
	"wz-analyzer/internal/config"
	"wz-analyzer/internal/constants"
	fxmodules "wz-analyzer/internal/fx"
	"wz-analyzer/internal/pipeline"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		overrides config.Overrides
		strict    bool
	)

	cmd := &cobra.Command{
		Use:   "wz-analyzer",
		Short: "Resolve and summarize the lobbies of a player's Warzone matches",
		Long: `Fetch the recent Warzone matches of a player, look up every player of each
match on the Call of Duty stats directory and write one JSON analysis per match.

Values not given as flags are read from the environment or a .env file.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("strict") {
				overrides.Strict = &strict
			}
			return runApp(overrides)
		},
	}

	cmd.Flags().StringVarP(&overrides.Username, "username", "u", "", "username of the player to follow (FOLLOW_USERNAME)")
	cmd.Flags().StringVarP(&overrides.Platform, "platform", "p", "", "platform of the player to follow: battle, psn, xbl or uno (FOLLOW_PLATFORM)")
	cmd.Flags().StringVar(&overrides.MatchID, "match-id", "", "analyze only this match (MATCH_ID)")
	cmd.Flags().BoolVar(&strict, "strict", true, "only accept players whose match history contains the match (STRICT)")
	cmd.Flags().IntVar(&overrides.MatchLimit, "limit", 0, "number of recent matches to analyze when no match id is given (MATCH_LIMIT)")
	cmd.Flags().IntVar(&overrides.Concurrency, "concurrency", 0, "players resolved at the same time (CONCURRENCY)")

	return cmd
}

func runApp(overrides config.Overrides) error {
	app := fx.New(
		fx.NopLogger,
		fx.Supply(overrides),
		fxmodules.Module,
		fx.Invoke(runPipeline),
	)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(context.Background(), app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	sig := <-app.Wait()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		return err
	}

	if sig.ExitCode != 0 {
		return fmt.Errorf("analysis failed, see log for details")
	}
	return nil
}

func runPipeline(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	p *pipeline.Pipeline,
	playerCache *cache.Cache,
	client *api.CODClient,
	logger zerolog.Logger,
) {
	runCtx, cancelRun := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := playerCache.Load(); err != nil {
				logger.Warn().Err(err).Msg("starting with an empty player cache")
			}

			go func() {
				defer close(done)
				exitCode := 0
				if _, err := p.Run(runCtx); err != nil {
					logger.Error().Err(err).Msg("analysis run failed")
					exitCode = 1
				}
				if err := shutdowner.Shutdown(fx.ExitCode(exitCode)); err != nil {
					logger.Error().Err(err).Msg("failed to request shutdown")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancelRun()
			select {
			case <-done:
			case <-ctx.Done():
				logger.Warn().Msg("analysis run did not stop in time")
			}

			rl := client.GetRateLimitInfo()
			logger.Debug().
				Int("limit", rl.Limit).
				Int("remaining", rl.Remaining).
				Int("reset", rl.Reset).
				Msg("directory rate limit at shutdown")

			if err := playerCache.Flush(); err != nil {
				logger.Error().Err(err).Msg("failed to flush player cache on shutdown")
				return err
			}
			logger.Info().Int("size", playerCache.Len()).Msg("analyzer stopped")
			return nil
		},
	})
}
