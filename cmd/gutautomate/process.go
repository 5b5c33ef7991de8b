package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gutworks/gutautomate/internal/clickup"
	"github.com/gutworks/gutautomate/internal/config"
	"github.com/gutworks/gutautomate/internal/dedup"
	"github.com/gutworks/gutautomate/internal/extract"
	"github.com/gutworks/gutautomate/internal/ledger"
	"github.com/gutworks/gutautomate/internal/pipeline"
	"github.com/gutworks/gutautomate/internal/prompt"
	"github.com/gutworks/gutautomate/internal/route"
	"github.com/gutworks/gutautomate/internal/source"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process new meeting-notes emails into ClickUp tasks",
	Long: `Fetch unread meeting-notes emails, extract action items, and create
ClickUp tasks for them. Candidates that closely match an existing task
trigger an interactive skip/update/create prompt.

With --batch no prompt is shown and duplicates are always skipped.
With --dry-run nothing is written: no tasks, no comments, no ledger
entries, and emails stay unread.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		batch, _ := cmd.Flags().GetBool("batch")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		all, _ := cmd.Flags().GetBool("all")

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		// Engine tuning: config file, then GUT_DEDUP_* env, then flags.
		engine := dedup.DefaultConfig()
		engine.Threshold = cfg.Threshold
		engine.BatchMode = cfg.BatchMode
		engine, err = engine.WithEnvOverrides()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("threshold") {
			engine.Threshold, _ = cmd.Flags().GetFloat64("threshold")
		}
		if batch {
			engine.BatchMode = true
		}
		if err := engine.Validate(); err != nil {
			return err
		}

		ctx := cmd.Context()

		mail, err := source.NewMail(ctx)
		if err != nil {
			return err
		}
		docs, err := source.NewDocs(ctx)
		if err != nil {
			return err
		}
		dest, err := clickup.NewClient(clickup.Config{Token: cfg.ClickUpToken})
		if err != nil {
			return err
		}
		extractor, err := extract.New(extract.Config{
			APIKey: cfg.AnthropicAPIKey,
			Model:  cfg.AnthropicModel,
		})
		if err != nil {
			return err
		}
		rules, err := route.LoadRules(cfg.RulesPath)
		if err != nil {
			return err
		}
		router, err := route.NewRouter(rules, cfg.DefaultListID)
		if err != nil {
			return err
		}
		prompter, err := prompt.New(engine.BatchMode)
		if err != nil {
			return err
		}
		defer prompter.Close()

		p := &pipeline.Pipeline{
			Mail:      mail,
			Docs:      docs,
			Extractor: extractor,
			Dest:      dest,
			Policy:    prompter,
			Router:    router,
			Store:     ledger.NewStore(cfg.LedgerPath),
			Opts: pipeline.Options{
				Engine:     engine,
				DryRun:     dryRun,
				UnreadOnly: !all,
			},
		}

		report, err := p.Run(ctx)
		if report != nil {
			printReport(report)
		}
		return err
	},
}

func printReport(r *pipeline.Report) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Printf("\n%s\n", bold("Run "+r.RunID))
	fmt.Printf("  Emails:  %d seen, %d processed, %d failed\n", r.EmailsSeen, r.EmailsProcessed, r.EmailsFailed)
	fmt.Printf("  Tasks:   %d created, %d updated, %d skipped\n", r.TasksCreated, r.TasksUpdated, r.TasksSkipped)
}

func init() {
	processCmd.Flags().Bool("batch", false, "skip duplicates automatically instead of prompting")
	processCmd.Flags().Bool("dry-run", false, "show what would happen without writing anything")
	processCmd.Flags().Bool("all", false, "consider all notes emails from the last 30 days, not just unread")
	processCmd.Flags().Float64("threshold", 0.85, "similarity threshold for duplicate detection (0.80-0.95 useful)")
	rootCmd.AddCommand(processCmd)
}
