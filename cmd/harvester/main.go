package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/ospreysec/iocharvest/internal/adapter/exporter"
	"github.com/ospreysec/iocharvest/internal/adapter/mailbox"
	"github.com/ospreysec/iocharvest/internal/adapter/notifier"
	"github.com/ospreysec/iocharvest/internal/adapter/repository"
	"github.com/ospreysec/iocharvest/internal/adapter/spreadsheet"
	"github.com/ospreysec/iocharvest/internal/adapter/staging"
	"github.com/ospreysec/iocharvest/internal/config"
	"github.com/ospreysec/iocharvest/internal/core/domain"
	"github.com/ospreysec/iocharvest/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the config file")
	flag.Parse()

	// Load .env if present (IMAP credentials, optional DB/Slack secrets)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found (fine if the environment is already set)")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	stdin := bufio.NewReader(os.Stdin)
	fmt.Println("--- Mailbox IOC Harvester ---")

	window, err := promptWindow(stdin)
	if err != nil {
		fmt.Printf("❌ Error: %v\n", err)
		waitForEnter(stdin)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	stager, err := staging.NewStager(cfg.Staging.RetryAttempts, cfg.RetryInterval())
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer stager.Close()

	p := &pipeline.Pipeline{
		Source:    mailbox.NewIMAPSource(cfg.Mailbox.Server, cfg.Mailbox.Username, cfg.Mailbox.Password),
		Stager:    stager,
		Decoder:   spreadsheet.NewExcelDecoder(),
		Store:     exporter.NewMasterSheetStore(cfg.Master.Path, cfg.Master.RenderMode == config.RenderFormatted),
		Catalog:   cfg.BuildCatalog(),
		Folder:    cfg.Mailbox.Folder,
		Separator: cfg.Separator(),
	}

	if cfg.Archive.DatabaseURL != "" {
		log.Println("🔌 Database connection...")
		dbPool, err := pgxpool.New(ctx, cfg.Archive.DatabaseURL)
		if err != nil {
			log.Fatalf("❌ Error connecting to database: %v", err)
		}
		defer dbPool.Close()
		p.Archive = repository.NewPostgresArchive(dbPool)
	}

	if cfg.Slack.BotToken != "" && cfg.Slack.Channel != "" {
		p.Notify = notifier.NewSlackNotifier(cfg.Slack.BotToken, cfg.Slack.Channel)
	}

	summary, err := p.Run(ctx, window)
	if err != nil {
		fmt.Printf("❌ Run failed: %v\n", err)
		waitForEnter(stdin)
		os.Exit(1)
	}

	if summary.RowsAppended > 0 {
		fmt.Printf("\nSuccess! %d messages processed, %d rows appended to %s.\n",
			summary.MessagesWithData, summary.RowsAppended, cfg.Master.Path)
	} else {
		fmt.Println("\nNo messages with spreadsheet IOC data in that date range.")
	}
	waitForEnter(stdin)
}

// promptWindow asks for both bounds, re-prompting on malformed input. A
// start after the end is a hard error, not a re-prompt.
func promptWindow(stdin *bufio.Reader) (domain.Window, error) {
	start := promptDate(stdin, "Enter Start Date (YYYY-MM-DD): ")
	end := promptDate(stdin, "Enter End Date   (YYYY-MM-DD): ")
	return domain.NewWindow(start, end)
}

func promptDate(stdin *bufio.Reader, prompt string) string {
	for {
		fmt.Print(prompt)
		line, err := stdin.ReadString('\n')
		if err != nil {
			fmt.Println()
			os.Exit(1)
		}
		line = strings.TrimSpace(line)
		if err := config.ValidateDate(line); err != nil {
			fmt.Println("❌ Invalid format. Please use YYYY-MM-DD (e.g., 2026-01-31).")
			continue
		}
		return line
	}
}

// waitForEnter keeps the window open when the binary was double-clicked.
func waitForEnter(stdin *bufio.Reader) {
	fmt.Print("\nPress Enter to exit...")
	stdin.ReadString('\n')
}
