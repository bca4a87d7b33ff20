// Command macroagent runs the macro-economic news briefing agent.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"MacroAgent/internal/app"
	"MacroAgent/internal/config"
	"MacroAgent/internal/domain"
	"MacroAgent/internal/logging"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "macroagent",
		Short:         "Macro-economic news sentiment briefing agent",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.AddCommand(runCommand())
	root.AddCommand(briefingCommand())
	root.AddCommand(scheduleCommand())
	root.AddCommand(historyCommand())

	return root
}

func newApplication() (*app.Application, error) {
	cfg := config.Load()
	return app.New(cfg, logging.New(cfg.Logging.Level))
}

func runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the scheduled daily briefing and high-impact release cycles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := newApplication()
			if err != nil {
				return err
			}
			defer application.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return application.Run(ctx)
		},
	}
}

func briefingCommand() *cobra.Command {
	var (
		briefingType string
		send         bool
	)

	cmd := &cobra.Command{
		Use:   "briefing",
		Short: "Generate a briefing on demand",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var bt domain.BriefingType
			switch briefingType {
			case "daily":
				bt = domain.BriefingDaily
			case "high_impact":
				bt = domain.BriefingHighImpact
			default:
				return fmt.Errorf("unknown briefing type %q, want daily or high_impact", briefingType)
			}

			application, err := newApplication()
			if err != nil {
				return err
			}
			defer application.Close()

			briefing, sent, err := application.GenerateBriefing(cmd.Context(), bt, send)
			if err != nil {
				return err
			}

			printBriefing(cmd, briefing)
			if send {
				if sent {
					cmd.Println("\nDispatched to configured channels.")
				} else {
					cmd.Println("\nSuppressed by the notification gate.")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&briefingType, "type", "daily", "briefing type (daily or high_impact)")
	cmd.Flags().BoolVar(&send, "send", false, "dispatch the briefing to configured channels")

	return cmd
}

func scheduleCommand() *cobra.Command {
	var (
		hours          int
		highImpactOnly bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "List upcoming economic releases",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := newApplication()
			if err != nil {
				return err
			}
			defer application.Close()

			releases, err := application.UpcomingReleases(cmd.Context(),
				time.Duration(hours)*time.Hour, highImpactOnly)
			if err != nil {
				return err
			}

			if len(releases) == 0 {
				cmd.Println("No upcoming releases tracked.")
				return nil
			}

			for _, release := range releases {
				indicator := release.Indicator
				line := fmt.Sprintf("%s  [%s]  %s %s",
					indicator.ReleaseTime.UTC().Format("2006-01-02 15:04 UTC"),
					indicator.ImpactLevel,
					indicator.Country, indicator.Name)
				if indicator.ForecastValue != "" {
					line += "  forecast=" + indicator.ForecastValue
				}
				if release.Notified {
					line += "  (alerted)"
				}
				cmd.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 168, "lookahead window in hours")
	cmd.Flags().BoolVar(&highImpactOnly, "high-impact-only", false, "only list high-impact releases")

	return cmd
}

func historyCommand() *cobra.Command {
	var (
		limit        int
		briefingType string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently generated briefings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var bt domain.BriefingType
			switch briefingType {
			case "":
			case "daily":
				bt = domain.BriefingDaily
			case "high_impact":
				bt = domain.BriefingHighImpact
			default:
				return fmt.Errorf("unknown briefing type %q", briefingType)
			}

			application, err := newApplication()
			if err != nil {
				return err
			}
			defer application.Close()

			briefings, err := application.RecentBriefings(cmd.Context(), limit, bt)
			if err != nil {
				return err
			}

			if len(briefings) == 0 {
				cmd.Println("No briefings stored yet.")
				return nil
			}

			for _, briefing := range briefings {
				status := "draft"
				if briefing.Sent {
					status = "sent"
				}
				cmd.Printf("%s  %-11s  %-5s  %s\n",
					briefing.CreatedAt.UTC().Format("2006-01-02 15:04"),
					briefing.Type, status, briefing.Title)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum briefings to list")
	cmd.Flags().StringVar(&briefingType, "type", "", "filter by type (daily or high_impact)")

	return cmd
}

func printBriefing(cmd *cobra.Command, briefing domain.Briefing) {
	cmd.Println(briefing.Title)
	cmd.Println(strings.Repeat("=", len(briefing.Title)))
	cmd.Printf("Sentiment: %s\n\n", strings.ToUpper(string(briefing.OverallSentiment)))
	cmd.Println(briefing.Summary)

	if len(briefing.KeyPoints) > 0 {
		cmd.Println("\nKey points:")
		for _, point := range briefing.KeyPoints {
			cmd.Println("  - " + point)
		}
	}

	if len(briefing.Indicators) > 0 {
		cmd.Println("\nUpcoming high-impact releases:")
		for _, indicator := range briefing.Indicators {
			cmd.Printf("  - %s %s at %s\n", indicator.Country, indicator.Name,
				indicator.ReleaseTime.UTC().Format("2006-01-02 15:04 UTC"))
		}
	}
}
