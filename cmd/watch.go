package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hr-selection/internal/board"
	"github.com/spigell/hr-selection/internal/refresh"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll selected candidates and applications until interrupted",
	Run: func(_ *cobra.Command, _ []string) {
		watch()
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func watch() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup()

	client, err := newRecruitClient(config, logger)
	if err != nil {
		logger.Fatal("loading recruitment api token", zap.Error(err))
	}

	views := board.New(client, logger)

	coordinators := []*refresh.Coordinator{
		refresh.New("selected_candidates", selectedFetch(views, logger), config.Refresh.Interval, nil, logger),
		refresh.New("applications", applicationsFetch(views, logger), config.Refresh.Interval, nil, logger),
	}

	for _, c := range coordinators {
		c.Start(ctx)
	}

	<-ctx.Done()
	logger.Info("exiting", zap.String("reason", "interrupted"))

	for _, c := range coordinators {
		c.Stop()
	}
}

func selectedFetch(views *board.Board, logger *zap.Logger) refresh.Fetch {
	return func(ctx context.Context) error {
		if err := views.RefreshSelected(ctx); err != nil {
			return err
		}

		candidates := views.Selected()
		usernames := make([]string, 0, len(candidates))
		for _, c := range candidates {
			usernames = append(usernames, c.Username)
		}

		logger.Info("selected candidates", zap.Int("count", len(candidates)), zap.Strings("usernames", usernames))
		return nil
	}
}

func applicationsFetch(views *board.Board, logger *zap.Logger) refresh.Fetch {
	return func(ctx context.Context) error {
		if err := views.RefreshApplications(ctx); err != nil {
			return err
		}

		selected, invited := views.Counters()
		logger.Info("applications",
			zap.Int("count", len(views.Applications())),
			zap.Int("selected", selected),
			zap.Int("invited", invited),
		)
		return nil
	}
}
