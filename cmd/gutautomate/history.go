package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gutworks/gutautomate/internal/config"
	"github.com/gutworks/gutautomate/internal/ledger"
	"github.com/gutworks/gutautomate/internal/prompt"
	"github.com/gutworks/gutautomate/internal/source"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show processed meetings and the tasks they produced",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		led, err := ledger.NewStore(cfg.LedgerPath).Load()
		if err != nil {
			return err
		}
		if len(led.Meetings) == 0 {
			fmt.Println("No processed meetings yet")
			return nil
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		fmt.Printf("%d processed meeting(s), last updated %s\n\n", len(led.Meetings), led.LastUpdated)
		for _, m := range led.Meetings {
			fmt.Printf("%s %s\n", cyan(m.ProcessedDate), m.MeetingTitle)
			fmt.Printf("  %s\n", gray("doc "+m.DocID))
			for _, t := range m.TasksCreated {
				fmt.Printf("  • %s (%s, list %s)\n", t.TaskName, t.TaskID, t.ListID)
			}
		}
		return nil
	},
}

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Mark recent notes emails as processed without creating tasks",
	Long: `Sweep the last 30 days of meeting-notes emails and record each one in
the ledger with no tasks. Use this once when adopting gutautomate on a
mailbox with history, so old meetings are not re-filed as new tasks.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		mail, err := source.NewMail(ctx)
		if err != nil {
			return err
		}

		store := ledger.NewStore(cfg.LedgerPath)
		led, err := store.Load()
		if err != nil {
			return err
		}

		emails, err := mail.ListNotesEmails(ctx, false)
		if err != nil {
			return err
		}

		var pending []source.NotesEmail
		for _, e := range emails {
			if led.IsProcessed(e.DocID) || led.IsProcessedEmail(e.ID) {
				continue
			}
			pending = append(pending, e)
		}
		if len(pending) == 0 {
			fmt.Println("Ledger already covers all recent meetings")
			return nil
		}

		for _, e := range pending {
			fmt.Printf("  • %s\n", e.MeetingTitle)
		}

		prompter, err := prompt.New(yes)
		if err != nil {
			return err
		}
		defer prompter.Close()
		ok, err := prompter.Confirm(fmt.Sprintf("Mark these %d meeting(s) as processed?", len(pending)), true)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Aborted")
			return nil
		}

		for _, e := range pending {
			led.Record(ledger.Meeting{
				DocID:         e.DocID,
				MeetingTitle:  e.MeetingTitle,
				EmailID:       e.ID,
				ProcessedDate: ledger.Now(),
			})
		}
		if err := store.Save(led); err != nil {
			return err
		}
		color.Green("✓ Backfilled %d meeting(s) into %s", len(pending), store.Path())
		return nil
	},
}

func init() {
	backfillCmd.Flags().Bool("yes", false, "record without asking for confirmation")
	historyCmd.AddCommand(backfillCmd)
	rootCmd.AddCommand(historyCmd)
}
