// jmactl is the operator tool for the send scheduler: inspect the
// day's pending jobs, cancel a campaign (or everything), and validate
// the campaign configuration before the morning run.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kayvonkhosrowpour/jma-send/internal/config"
	"github.com/kayvonkhosrowpour/jma-send/internal/jobstore"
	"github.com/kayvonkhosrowpour/jma-send/internal/models"
	"github.com/kayvonkhosrowpour/jma-send/internal/roster"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	root := &cobra.Command{
		Use:           "jmactl",
		Short:         "Operator tool for the JMA email send scheduler",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(jobsCommand(cfg, logger))
	root.AddCommand(validateCommand(cfg))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

func openStore(cfg *config.Config, logger *zap.Logger) (jobstore.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return jobstore.Open(ctx, cfg.StoreDriver, cfg.DatabaseURL, logger)
}

func jobsCommand(cfg *config.Config, logger *zap.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and cancel scheduled send jobs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List pending jobs grouped by campaign",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			jobs, err := store.ListPending(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("TOTAL # OF SCHEDULED JOBS: %d\n", len(jobs))
			for _, line := range groupLines(jobs) {
				fmt.Println(line)
			}
			return nil
		},
	})

	var cancelAll bool
	cancel := &cobra.Command{
		Use:   "cancel [campaign]",
		Short: "Cancel all pending jobs for a campaign, or every campaign with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cancelAll && len(args) != 1 {
				return fmt.Errorf("pass a campaign name or --all")
			}

			store, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			target := "*"
			if !cancelAll {
				target = args[0]
			}
			if !confirm(fmt.Sprintf("Cancel all pending jobs for %q?", target)) {
				fmt.Println("Cancellation aborted")
				return nil
			}

			var n int64
			if cancelAll {
				n, err = store.CancelAll(cmd.Context(), time.Now())
			} else {
				n, err = store.CancelByCampaign(cmd.Context(), args[0], time.Now())
			}
			if err != nil {
				return err
			}

			fmt.Printf("Cancelled %d jobs\n", n)
			return nil
		},
	}
	cancel.Flags().BoolVar(&cancelAll, "all", false, "cancel every campaign's pending jobs")
	cmd.AddCommand(cancel)

	return cmd
}

func validateCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the campaign configuration against the roster and timetable",
		RunE: func(cmd *cobra.Command, args []string) error {
			campaignCfg, err := config.LoadCampaigns(cfg.CampaignFile)
			if err != nil {
				return err
			}

			recipients, err := (&roster.CSVRecipientSource{Path: cfg.CustomersPath}).AllRecipients()
			if err != nil {
				return err
			}
			classNames, err := (&roster.CSVTimetableSource{Path: cfg.TimetablePath}).ClassNames()
			if err != nil {
				return err
			}

			ok, errs := config.Validate(campaignCfg, classNames, recipients)
			if !ok {
				for _, e := range errs {
					fmt.Println("ERROR:", e)
				}
				return fmt.Errorf("configuration has %d problems", len(errs))
			}

			fmt.Println("Configuration OK:", len(campaignCfg.Campaigns), "campaigns")
			return nil
		},
	}
}

// groupLines renders "> campaign : count" lines in campaign order.
func groupLines(jobs []*models.Job) []string {
	counts := map[string]int{}
	for _, j := range jobs {
		counts[j.CampaignName]++
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("> %s : %d", name, counts[name]))
	}
	return lines
}

func confirm(prompt string) bool {
	fmt.Printf("%s CONFIRM (Y/N): ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(line) == "Y"
}
