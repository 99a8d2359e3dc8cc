package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hr-selection/internal/ai"
	"github.com/spigell/hr-selection/internal/board"
	"github.com/spigell/hr-selection/internal/filtering"
	"github.com/spigell/hr-selection/internal/ranking"
)

const PromptAllPostings = "All postings"

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Show candidates of a posting ranked by match score",
	Run: func(cmd *cobra.Command, _ []string) {
		rank(cmd)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().IntP("posting", "p", 0, "id of the posting to rank (prompted when unset)")
	rankCmd.Flags().BoolP("all", "a", false, "rank every posting")
	rankCmd.Flags().Bool("dump", false, "dump the ranking report to a temporary json file")
	rankCmd.Flags().Bool("brief", false, "ask the AI provider for a brief of the top candidates")
	rankCmd.Flags().Bool("hide-invited", false, "hide candidates that already got an invitation")
	rankCmd.Flags().String("min-classification", "", "hide candidates below this class (strong, good, fair, weak)")
	rankCmd.Flags().StringSlice("exclude-applicant", nil, "hide candidates with this applicant name (repeatable)")

	viper.BindPFlag("rank.hide-invited", rankCmd.Flags().Lookup("hide-invited"))
	viper.BindPFlag("rank.min-classification", rankCmd.Flags().Lookup("min-classification"))
	viper.BindPFlag("rank.exclude-applicants", rankCmd.Flags().Lookup("exclude-applicant"))
}

func rank(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config := setup()

	client, err := newRecruitClient(config, logger)
	if err != nil {
		logger.Fatal("loading recruitment api token", zap.Error(err))
	}

	views := board.New(client, logger)
	if err := views.Load(ctx); err != nil {
		logger.Fatal("loading views", zap.Error(err))
	}

	rankings := ranking.RankAll(views.Postings(), views.Applications())
	if len(rankings) == 0 {
		logger.Info("exiting", zap.String("reason", "no postings found"))
		return
	}

	all, _ := cmd.Flags().GetBool("all")
	postingID, _ := cmd.Flags().GetInt("posting")

	chosen, err := choosePostings(rankings, postingID, all)
	if err != nil {
		logger.Fatal("choosing a posting", zap.Error(err))
	}

	steps, err := rankFilters(config.Rank)
	if err != nil {
		logger.Fatal("preparing filters", zap.Error(err))
	}
	chosen = filtering.RunAll(chosen, steps, logger)

	for _, pr := range chosen {
		ranking.Print(os.Stdout, pr)
	}

	if dump, _ := cmd.Flags().GetBool("dump"); dump {
		filename, err := ranking.BuildReport(chosen).DumpToTmpFile()
		if err != nil {
			logger.Fatal("dump ranking to file", zap.Error(err))
		}
		logger.Info("dumping ranking to file", zap.String("filename", filename))
	}

	if brief, _ := cmd.Flags().GetBool("brief"); brief {
		briefer, err := newBriefer(ctx, config.AI, logger)
		if err != nil {
			logger.Fatal("building ai briefer", zap.Error(err))
		}
		briefPostings(ctx, os.Stdout, briefer, chosen, config.AI.TopCandidates, logger)
	}
}

func rankFilters(cfg *RankConfig) ([]filtering.Filter, error) {
	if cfg == nil {
		return nil, nil
	}

	minClass, err := filtering.ParseClassification(cfg.MinClassification)
	if err != nil {
		return nil, err
	}

	return []filtering.Filter{
		filtering.NewHideInvited(cfg.HideInvited),
		filtering.NewMinClassification(minClass),
		filtering.NewExcludedApplicants(cfg.ExcludeApplicants),
	}, nil
}

func choosePostings(rankings []ranking.PostingRanking, postingID int, all bool) ([]ranking.PostingRanking, error) {
	if all {
		return rankings, nil
	}

	if postingID > 0 {
		for _, pr := range rankings {
			if pr.Posting.ID == postingID {
				return []ranking.PostingRanking{pr}, nil
			}
		}
		return nil, fmt.Errorf("there is no such posting id %d", postingID)
	}

	items := make([]string, 0, len(rankings)+1)
	for _, pr := range rankings {
		items = append(items, fmt.Sprintf("%d %s (%d applications)", pr.Posting.ID, pr.Posting.Title, len(pr.Ranked)))
	}

	postingPrompt := promptui.Select{
		Label: "Choose a posting and press ENTER",
		Items: append(items, PromptAllPostings),
	}

	idx, _, err := postingPrompt.Run()
	if err != nil {
		return nil, err
	}

	if idx == len(rankings) {
		return rankings, nil
	}

	return []ranking.PostingRanking{rankings[idx]}, nil
}

func briefPostings(ctx context.Context, w io.Writer, briefer ai.Briefer, rankings []ranking.PostingRanking, top int, logger *zap.Logger) {
	bold := color.New(color.Bold)

	for _, pr := range rankings {
		shortlist := ai.NewShortlist(pr, top)
		if len(shortlist.Candidates) == 0 {
			logger.Info("skipping brief", zap.String("posting", shortlist.PostingTitle), zap.String("reason", "no scored candidates"))
			continue
		}

		brief, err := briefer.Brief(ctx, shortlist)
		if err != nil {
			logger.Warn("brief failed", zap.String("posting", shortlist.PostingTitle), zap.Error(err))
			continue
		}

		bold.Fprintf(w, "\nBrief: %s\n", shortlist.PostingTitle)
		fmt.Fprintln(w, brief.Summary)
		if brief.TopPick != "" {
			fmt.Fprintf(w, "Top pick: %s\n", brief.TopPick)
		}
		for _, concern := range brief.Concerns {
			fmt.Fprintf(w, "  - %s\n", concern)
		}
	}
}
