package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xavierca1/dental-funnel/internal/config"
	"github.com/xavierca1/dental-funnel/internal/entity"
	"github.com/xavierca1/dental-funnel/internal/infra/worker"
	"github.com/xavierca1/dental-funnel/internal/usecase"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Schema and legacy data migrations",
	}

	// migrate schema
	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Create the status-change and report tables and patient indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(cmd.Context(), func(ctx context.Context, cfg *config.Config, st *stores) error {
				if err := st.prepare(ctx); err != nil {
					return err
				}
				fmt.Println("Schema is up to date.")
				return nil
			})
		},
	})

	// migrate legacy
	legacyCmd := &cobra.Command{
		Use:   "legacy",
		Short: "Copy legacy single-status patients into the current collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			return withStores(cmd.Context(), func(ctx context.Context, cfg *config.Config, st *stores) error {
				if !dryRun {
					if err := st.prepare(ctx); err != nil {
						return err
					}
				}
				uc := usecase.NewMigrateLegacyUseCase(st.legacy, st.patients, cfg.Location(), newLogger(cfg))
				result, err := uc.Execute(ctx, dryRun)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				return printJSON(result)
			})
		},
	}
	legacyCmd.Flags().Bool("dry-run", false, "Report what would be migrated without writing")
	cmd.AddCommand(legacyCmd)

	return cmd
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate report snapshots",
	}

	for _, kind := range []entity.PeriodKind{entity.PeriodDaily, entity.PeriodMonthly} {
		sub := &cobra.Command{
			Use:   string(kind) + " [period]",
			Short: fmt.Sprintf("Snapshot a %s rollup (defaults to the last complete period)", kind),
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				sendMail, _ := cmd.Flags().GetBool("mail")

				return withStores(cmd.Context(), func(ctx context.Context, cfg *config.Config, st *stores) error {
					if err := st.prepare(ctx); err != nil {
						return err
					}
					logger := newLogger(cfg)
					rollups := usecase.NewRollupUseCase(st.patients, cfg.Location())
					reports := usecase.NewReportUseCase(st.reports, rollups, nil, logger)

					if len(args) == 1 {
						report, created, err := reports.Generate(ctx, usecase.GenerateReportInput{Kind: string(kind), Period: args[0]})
						if err != nil {
							return err
						}
						if !created {
							fmt.Fprintln(os.Stderr, "A snapshot already existed for this period.")
						}
						return printJSON(report)
					}

					var mailer usecase.ReportMailer
					if sendMail {
						mailer = newMailer(cfg)
					}
					scheduler := worker.NewReportScheduler(reports, mailer, cfg.ReportRecipients, cfg.DailyReportAt, cfg.Location(), logger)

					run := scheduler.RunDaily
					if kind == entity.PeriodMonthly {
						run = scheduler.RunMonthly
					}
					report, err := run(ctx)
					if err != nil {
						return err
					}
					return printJSON(report)
				})
			},
		}
		sub.Flags().Bool("mail", false, "Mail the digest to REPORT_RECIPIENTS when the snapshot is new")
		cmd.AddCommand(sub)
	}

	return cmd
}

func statusMapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status-map <status>",
		Short: "Show the canonical stage for a legacy status combination",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			visitConfirmed, _ := cmd.Flags().GetBool("visit-confirmed")
			postVisit, _ := cmd.Flags().GetString("post-visit")
			completed, _ := cmd.Flags().GetBool("completed")

			stage, known := entity.MapLegacyStatus(args[0], visitConfirmed, postVisit, completed)
			return printJSON(map[string]interface{}{"stage": stage, "known": known})
		},
	}
	cmd.Flags().Bool("visit-confirmed", false, "The patient's visit was confirmed")
	cmd.Flags().String("post-visit", "", "Post-visit status label")
	cmd.Flags().Bool("completed", false, "The record is marked completed")
	return cmd
}

func withStores(ctx context.Context, fn func(ctx context.Context, cfg *config.Config, st *stores) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	st, err := openStores(ctx, cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(ctx, cfg, st)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
