package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/clever-picks/internal/datasource"
	"github.com/yourusername/clever-picks/internal/engine"
	"github.com/yourusername/clever-picks/internal/health"
	"github.com/yourusername/clever-picks/internal/models"
	"github.com/yourusername/clever-picks/internal/parlay"
	"github.com/yourusername/clever-picks/internal/scheduler"
)

func newScoreCmd() *cobra.Command {
	var (
		input    string
		asOf     string
		bankroll float64
		record   bool
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score every configured market for the games in an input file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			now, err := parseAsOf(asOf)
			if err != nil {
				return err
			}
			inputs, err := readGameInputs(input)
			if err != nil {
				return err
			}

			e, closeFn, err := newEngine(ctx, record)
			if err != nil {
				return err
			}
			defer closeFn()

			scores, err := e.ScoreAll(ctx, inputs, now)
			if err != nil {
				return fmt.Errorf("scoring failed: %w", err)
			}

			picks := engine.Picks(scores)
			stakes := make([]models.StakeRecommendation, len(picks))
			for i := range picks {
				stakes[i], err = e.SizeStake(&picks[i], picks[i].Price, bankroll)
				if err != nil {
					return fmt.Errorf("failed to size %s %s: %w", picks[i].GameID, picks[i].Market, err)
				}
			}

			out := cmd.OutOrStdout()
			renderSkipped(out, scores)
			renderPicks(out, picks, stakes)

			if !record {
				return nil
			}
			recorded := 0
			for i := range picks {
				if !stakes[i].IsBet() {
					continue
				}
				if _, err := e.RecordPick(ctx, &picks[i], stakes[i]); err != nil {
					return err
				}
				recorded++
			}
			fmt.Fprintf(out, "\nRecorded %d pick(s) to the %s ledger\n", recorded, cfg.Ledger.Store)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "JSON file of game inputs, - for stdin")
	cmd.Flags().StringVar(&asOf, "as-of", "", "Scoring time (RFC3339), defaults to now")
	cmd.Flags().Float64Var(&bankroll, "bankroll", 1000, "Bankroll used for stake amounts")
	cmd.Flags().BoolVar(&record, "record", false, "Record picks with a positive stake in the ledger")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newParlaysCmd() *cobra.Command {
	var (
		input   string
		asOf    string
		from    string
		to      string
		maxLegs int
	)

	cmd := &cobra.Command{
		Use:   "parlays",
		Short: "Rank parlay candidates built from the scored picks of an input file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			now, err := parseAsOf(asOf)
			if err != nil {
				return err
			}
			inputs, err := readGameInputs(input)
			if err != nil {
				return err
			}
			constraints := parlay.Constraints{MaxLegs: maxLegs}
			if constraints.From, err = parseBound(from); err != nil {
				return err
			}
			if constraints.To, err = parseBound(to); err != nil {
				return err
			}

			e, closeFn, err := newEngine(ctx, false)
			if err != nil {
				return err
			}
			defer closeFn()

			scores, err := e.ScoreAll(ctx, inputs, now)
			if err != nil {
				return fmt.Errorf("scoring failed: %w", err)
			}

			renderParlays(cmd.OutOrStdout(), e.BuildParlays(engine.Picks(scores), constraints))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "JSON file of game inputs, - for stdin")
	cmd.Flags().StringVar(&asOf, "as-of", "", "Scoring time (RFC3339), defaults to now")
	cmd.Flags().StringVar(&from, "from", "", "Earliest leg start time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Latest leg start time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().IntVar(&maxLegs, "max-legs", 0, "Maximum legs per parlay, 0 uses the configured value")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newGradeCmd() *cobra.Command {
	var (
		betID      string
		settlement string
	)

	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade one tracked bet against a settlement file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := uuid.Parse(betID)
			if err != nil {
				return fmt.Errorf("%w: %v", models.ErrInvalidID, err)
			}

			var s models.Settlement
			if err := readJSON(settlement, &s); err != nil {
				return err
			}

			e, closeFn, err := newEngine(ctx, true)
			if err != nil {
				return err
			}
			defer closeFn()

			bet, outcome, err := e.Grade(ctx, id, s)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if outcome == models.OutcomeGradingAmbiguous {
				fmt.Fprintf(out, "Bet %s left pending: game %s is %s\n", id, s.Game.ID, s.Game.Status)
				return nil
			}
			renderBets(out, []*models.TrackedBet{bet})
			return nil
		},
	}

	cmd.Flags().StringVar(&betID, "bet", "", "Tracked bet ID")
	cmd.Flags().StringVar(&settlement, "settlement", "", "JSON settlement file, - for stdin")
	_ = cmd.MarkFlagRequired("bet")
	_ = cmd.MarkFlagRequired("settlement")
	return cmd
}

func newSweepCmd() *cobra.Command {
	var daemon bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Grade pending bets against the score feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			e, closeFn, err := newEngine(ctx, true)
			if err != nil {
				return err
			}
			defer closeFn()

			feed, err := datasource.NewHTTPScoreFeed(cfg.ScoreFeed, appLog)
			if err != nil {
				return err
			}
			defer feed.Close()

			sweeper := scheduler.SweepFunc(e.Sweep(feed))
			if !daemon {
				summary, err := sweeper.Sweep(ctx)
				if err != nil {
					return err
				}
				renderSweep(cmd.OutOrStdout(), summary)
				return nil
			}
			return runDaemon(ctx, e, sweeper)
		},
	}

	cmd.Flags().BoolVar(&daemon, "daemon", false, "Keep running and sweep on the configured cron schedule")
	return cmd
}

// runDaemon schedules the grading sweep and serves health and metrics until
// interrupted.
func runDaemon(ctx context.Context, e *engine.Engine, sweeper scheduler.Sweeper) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(appLog)
	if _, err := sched.ScheduleGradingSweep(cfg.Scheduler.GradingSweep, sweeper); err != nil {
		return err
	}

	var server *health.Server
	if cfg.Metrics.Enabled {
		server = health.NewServer(health.Config{
			ServiceName: cfg.App.Name,
			Version:     Version,
			Port:        cfg.Metrics.Port,
			MetricsPath: cfg.Metrics.Path,
			Logger:      appLog,
			Ledger:      e.Ledger(),
			Jobs:        sched,
		})
		if err := server.Start(ctx); err != nil {
			return err
		}
	}

	if err := sched.Start(); err != nil {
		return err
	}
	if server != nil {
		server.SetReady(true)
	}

	appLog.WithFields(logrus.Fields{
		"schedule": cfg.Scheduler.GradingSweep,
		"next_run": sched.GetNextRun(),
	}).Info("Grading sweep daemon running")

	<-ctx.Done()

	appLog.Info("Shutting down grading sweep daemon")
	if server != nil {
		server.SetReady(false)
	}
	sched.Stop()

	if snap, err := e.Snapshot(context.Background(), time.Now().UTC()); err == nil {
		appLog.WithFields(logrus.Fields{
			"pending": snap.Pending,
			"record":  snap.Record.String(),
		}).Info("Ledger state at shutdown")
	}
	return nil
}

func newPerformanceCmd() *cobra.Command {
	var (
		since         string
		until         string
		market        string
		league        string
		minConfidence float64
	)

	cmd := &cobra.Command{
		Use:   "performance",
		Short: "Report record, units, ROI and CLV over graded bets",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				window models.TimeWindow
				err    error
			)
			if window.Start, err = parseBound(since); err != nil {
				return err
			}
			if window.End, err = parseBound(until); err != nil {
				return err
			}
			filters := models.PerformanceFilters{
				Market:        models.MarketType(strings.ToLower(market)),
				League:        league,
				MinConfidence: minConfidence,
			}
			if filters.Market != "" && !filters.Market.Valid() {
				return fmt.Errorf("unknown market %q", market)
			}

			e, closeFn, err := newEngine(ctx, true)
			if err != nil {
				return err
			}
			defer closeFn()

			stats, err := e.Performance(ctx, window, filters)
			if err != nil {
				return err
			}
			snap, err := e.Snapshot(ctx, time.Now().UTC())
			if err != nil {
				return err
			}

			renderPerformance(cmd.OutOrStdout(), stats, snap)
			return nil
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "Window start on placement time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&until, "until", "", "Window end on placement time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&market, "market", "", "Only bets on this market")
	cmd.Flags().StringVar(&league, "league", "", "Only bets in this league")
	cmd.Flags().Float64Var(&minConfidence, "min-confidence", 0, "Only bets at or above this confidence")
	return cmd
}

func readGameInputs(path string) ([]models.GameInput, error) {
	var inputs []models.GameInput
	if err := readJSON(path, &inputs); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no games in %s", path)
	}
	return inputs, nil
}

func readJSON(path string, v interface{}) error {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func parseAsOf(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q: %w", s, err)
	}
	return t.UTC(), nil
}

// parseBound accepts RFC3339 or a bare date; empty means unbounded
func parseBound(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: want RFC3339 or YYYY-MM-DD", s)
	}
	return t, nil
}
