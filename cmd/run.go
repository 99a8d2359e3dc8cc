package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hr-selection/internal/board"
	"github.com/spigell/hr-selection/internal/pipeline"
	"github.com/spigell/hr-selection/internal/recruit"
	"github.com/spigell/hr-selection/internal/refresh"
	"github.com/spigell/hr-selection/internal/scoring"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the AI selection pipeline on the recruitment service",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before starting the pipeline")
	runCmd.Flags().Int("progress-every", 5, "print the running timer every N seconds")
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup()

	logger.Info("starting the hr-selection", zap.String("version", version))

	client, err := newRecruitClient(config, logger)
	if err != nil {
		logger.Fatal(
			"loading recruitment api token",
			zap.Error(err),
			zap.String("hint", "set HR_API_TOKEN_FILE environment variable or the 'api.token-file' key in the configuration file"),
		)
	}

	views := board.New(client, logger)
	if err := views.Load(ctx); err != nil {
		logger.Warn("loading current views", zap.Error(err))
	}

	selected, invited := views.Counters()
	logger.Info("current state",
		zap.Int("postings", len(views.Postings())),
		zap.Int("applications", len(views.Applications())),
		zap.Int("pending_extraction", len(recruit.PendingExtraction(views.Applications()))),
		zap.Int("selected", selected),
		zap.Int("invited", invited),
	)

	if cmd.Flag("auto-approve").Value.String() == "false" {
		confirm := promptui.Prompt{
			Label:     "Start AI selection",
			IsConfirm: true,
		}
		if _, err := confirm.Run(); err != nil {
			if errors.Is(err, promptui.ErrAbort) {
				logger.Info("exiting", zap.String("reason", "got no from prompt"))
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}

	every, _ := cmd.Flags().GetInt("progress-every")

	orchestrator, err := pipeline.New(
		&pipeline.Config{
			StagePause:     config.Pipeline.StagePause,
			RefreshTimeout: config.Pipeline.RefreshTimeout,
		},
		&pipeline.Deps{
			Stages:    pipeline.DefaultStages(client),
			Refresher: views,
			Logger:    logger,
			Hooks:     newProgress(os.Stdout, every).hooks(),
		},
	)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	selectedRefresh := backgroundRefresh(ctx, views, config.Refresh.Interval, nil, logger)

	err = orchestrator.Run(ctx)
	selectedRefresh.Stop()

	if err != nil {
		var stageErr *pipeline.StageFailedError
		if errors.As(err, &stageErr) {
			logger.Fatal("AI selection failed",
				zap.Int("stage_index", stageErr.Index+1),
				zap.String("stage", stageErr.Title),
				zap.Error(stageErr.Err),
			)
		}
		logger.Fatal("AI selection failed", zap.Error(err))
	}

	printSelected(os.Stdout, orchestrator.Snapshot(), views.Selected())
}

// backgroundRefresh keeps the selected candidates view fresh while a run is in progress.
func backgroundRefresh(ctx context.Context, views *board.Board, interval time.Duration, clk clock.Clock, logger *zap.Logger) *refresh.Coordinator {
	c := refresh.New("selected_candidates", views.RefreshSelected, interval, clk, logger)
	c.Start(ctx)
	return c
}

func printSelected(w io.Writer, snap pipeline.Snapshot, candidates []*recruit.SelectedCandidate) {
	fmt.Fprintf(w, "\nselected candidates: %d, invitations sent: %d\n", snap.SelectedCount, snap.InvitationsSent)

	if len(candidates) == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tPOSTING\tSCORE\tINVITED")
	for _, c := range candidates {
		invited := "no"
		if c.InvitationSent {
			invited = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Username, c.PostingTitle, scoring.RecordLabel(c.MatchScore), invited)
	}
	tw.Flush()
}
