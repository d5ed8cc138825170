package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"healthbot/internal/app"
	"healthbot/internal/config"
	"healthbot/internal/logger"

	"github.com/spf13/cobra"
)

// demoQuestions exercise a vaccine lookup, a symptom lookup and an outbreak
// refresh in that order.
var demoQuestions = []string{
	"When should my child get the polio vaccine?",
	"What are the symptoms of cholera and how can I prevent it?",
	"Are there any new disease outbreaks reported by the WHO?",
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, false, func(ctx context.Context, a *app.App) error {
			answer, err := a.Agent.Handle(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		})
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch the latest WHO outbreak news into the store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
			res, err := a.Syncer.Sync(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message())
			if res.Err != nil {
				return res.Err
			}
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the schema and load the reference collections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
			res, err := a.Repo.Seed(ctx)
			if err != nil {
				return err
			}
			counts, err := a.Repo.Counts(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d vaccination schedule(s), %d symptom guide(s)\n",
				res.VaccinationSchedules, res.SymptomGuides)
			fmt.Fprintf(cmd.OutOrStdout(), "store holds %d vaccination schedule(s), %d symptom guide(s), %d outbreak report(s)\n",
				counts.VaccinationSchedules, counts.SymptomGuides, counts.DiseaseOutbreaks)
			return nil
		})
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run three sample exchanges",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, false, func(ctx context.Context, a *app.App) error {
			out := cmd.OutOrStdout()
			for i, q := range demoQuestions {
				fmt.Fprintf(out, "[%d] > %s\n", i+1, q)
				answer, err := a.Agent.Handle(ctx, q)
				if err != nil {
					return fmt.Errorf("exchange %d: %w", i+1, err)
				}
				fmt.Fprintf(out, "%s\n\n", answer)
			}
			return nil
		})
	},
}

// withApp loads configuration, builds the runtime and runs fn.  skipSeed is
// set by commands that manage seeding themselves or never read seed data.
func withApp(cmd *cobra.Command, skipSeed bool, fn func(context.Context, *app.App) error) error {
	cfg, err := config.LoadCommon()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cmd.ErrOrStderr())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, cfg, log, app.Options{SkipSeed: skipSeed})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("close app", slog.Any("err", err))
		}
	}()
	return fn(ctx, a)
}

func newLogger(w io.Writer) *slog.Logger {
	level := os.Getenv("LOG_LEVEL")
	if verbose {
		level = "debug"
	} else if level == "" {
		level = "warn"
	}
	return logger.NewWithWriter(w, "assistant", level)
}
