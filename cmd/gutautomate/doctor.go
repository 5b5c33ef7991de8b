package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gutworks/gutautomate/internal/config"
	"github.com/gutworks/gutautomate/internal/ledger"
	"github.com/gutworks/gutautomate/internal/route"
	"github.com/gutworks/gutautomate/internal/source"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and credentials",
	Long: `Run health checks to diagnose common configuration issues.

This command checks for:
- Config file and required fields
- ClickUp API token
- Anthropic API key
- Google OAuth credentials and cached token
- Ledger file readability
- Routing rules file

Exit codes:
  0 - All checks passed
  1 - One or more checks failed`,
	Run: func(cmd *cobra.Command, args []string) {
		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		fmt.Printf("Running gutautomate health checks...\n\n")
		failed := false

		fmt.Printf("%s Configuration\n", cyan("→"))
		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Printf("  %s Cannot load config: %v\n", red("✗"), err)
			os.Exit(1)
		}
		fmt.Printf("  %s Config loaded\n", green("✓"))

		if cfg.ClickUpToken == "" {
			fmt.Printf("  %s clickup_token is not set (config or GUT_CLICKUP_TOKEN)\n", red("✗"))
			failed = true
		} else {
			fmt.Printf("  %s ClickUp token present\n", green("✓"))
		}
		if cfg.DefaultListID == "" {
			fmt.Printf("  %s default_list_id is not set\n", red("✗"))
			failed = true
		} else {
			fmt.Printf("  %s Default list: %s\n", green("✓"), cfg.DefaultListID)
		}
		if cfg.AnthropicAPIKey == "" && os.Getenv("ANTHROPIC_API_KEY") == "" {
			fmt.Printf("  %s ANTHROPIC_API_KEY is not set\n", red("✗"))
			failed = true
		} else {
			fmt.Printf("  %s Anthropic API key present\n", green("✓"))
		}

		fmt.Printf("%s Google OAuth\n", cyan("→"))
		configDir, err := source.ConfigDir()
		if err != nil {
			fmt.Printf("  %s Cannot resolve config directory: %v\n", red("✗"), err)
			failed = true
		} else {
			credPath := filepath.Join(configDir, "credentials.json")
			if _, err := os.Stat(credPath); err != nil {
				fmt.Printf("  %s Missing %s (download OAuth client credentials from Google Cloud)\n", red("✗"), credPath)
				failed = true
			} else {
				fmt.Printf("  %s Credentials file present\n", green("✓"))
			}
			tokenPath := filepath.Join(configDir, "token.json")
			if _, err := os.Stat(tokenPath); err != nil {
				fmt.Printf("  %s No cached token; first run will open a browser to authorize\n", yellow("⚠"))
			} else {
				fmt.Printf("  %s Cached OAuth token present\n", green("✓"))
			}
		}

		fmt.Printf("%s Ledger\n", cyan("→"))
		led, err := ledger.NewStore(cfg.LedgerPath).Load()
		if err != nil {
			fmt.Printf("  %s Cannot read ledger %s: %v\n", red("✗"), cfg.LedgerPath, err)
			failed = true
		} else {
			fmt.Printf("  %s %d processed meeting(s) in %s\n", green("✓"), len(led.Meetings), cfg.LedgerPath)
		}

		fmt.Printf("%s Routing rules\n", cyan("→"))
		rules, err := route.LoadRules(cfg.RulesPath)
		if err != nil {
			fmt.Printf("  %s Cannot parse %s: %v\n", red("✗"), cfg.RulesPath, err)
			failed = true
		} else if rules == nil {
			fmt.Printf("  %s No rules file; everything routes to the default list\n", yellow("⚠"))
		} else {
			fmt.Printf("  %s %d routing rule(s)\n", green("✓"), len(rules))
		}

		if failed {
			fmt.Printf("\n%s Some checks failed\n", red("✗"))
			os.Exit(1)
		}
		fmt.Printf("\n%s All checks passed\n", green("✓"))
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
