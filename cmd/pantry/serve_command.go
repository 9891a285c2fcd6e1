package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pantrypal/internal/daemonrun"
	"pantrypal/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var development bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server and hydration dispatcher in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    logLevel,
				Development: development,
			})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level")
	cmd.Flags().BoolVar(&development, "dev", false, "Include source locations in log output")
	return cmd
}

func newDrainCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "drain",
		Short: "Process queued hydration jobs until the queue is empty, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			rt, err := daemonrun.Build(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			report, err := rt.Dispatcher.DrainOnce(cmd.Context())
			if err != nil {
				return fmt.Errorf("drain queue: %w", err)
			}
			if asJSON {
				return writeJSON(cmd, report)
			}
			out := cmd.OutOrStdout()
			if report.Total() == 0 {
				fmt.Fprintln(out, "Queue is empty")
				return nil
			}
			rows := [][]string{
				{"Completed", fmt.Sprint(report.Completed)},
				{"Failed", fmt.Sprint(report.Failed)},
				{"Interrupted", fmt.Sprint(report.Interrupted)},
				{"Batches", fmt.Sprint(report.Batches)},
			}
			fmt.Fprint(out, renderTable(out, []string{"Outcome", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			if report.Failed > 0 {
				fmt.Fprintln(out, "Inspect failures with `pantry queue list --status failed`")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and dispatcher status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := fetchDaemonStatus(cmd, ctx)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Daemon not reachable at %s\n", ctx.apiBaseURL())
				return err
			}
			if asJSON {
				return writeJSON(cmd, status)
			}
			out := cmd.OutOrStdout()
			rows := [][]string{
				{"Running", yesNo(status.Running)},
				{"PID", fmt.Sprint(status.PID)},
				{"Queue backend", status.QueueBackend},
				{"Queue", status.Workflow.Queue},
				{"Dispatcher", yesNo(status.Workflow.Running)},
				{"Images", yesNo(status.ImagesEnabled)},
				{"Documents", status.DocumentDBPath},
			}
			if status.Workflow.LastError != "" {
				rows = append(rows, []string{"Last error", status.Workflow.LastError})
			}
			fmt.Fprint(out, renderTable(out, []string{"Field", "Value"}, rows, nil))

			handlers := make([][]string, 0, len(status.Workflow.HandlerHealth))
			for _, h := range status.Workflow.HandlerHealth {
				handlers = append(handlers, []string{h.JobType, h.Name, yesNo(h.Ready), strings.TrimSpace(h.Detail)})
			}
			if len(handlers) > 0 {
				fmt.Fprint(out, renderTable(out, []string{"Job type", "Handler", "Ready", "Detail"}, handlers, nil))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
