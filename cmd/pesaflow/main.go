package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"math"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wachira/pesaflow/internal/blobstore"
	"github.com/wachira/pesaflow/internal/budget"
	"github.com/wachira/pesaflow/internal/config"
	"github.com/wachira/pesaflow/internal/database"
	"github.com/wachira/pesaflow/internal/database/repository"
	"github.com/wachira/pesaflow/internal/enrichcache"
	"github.com/wachira/pesaflow/internal/llm"
	"github.com/wachira/pesaflow/internal/logger"
	"github.com/wachira/pesaflow/internal/rules"
	"github.com/wachira/pesaflow/internal/secrets"
	"github.com/wachira/pesaflow/internal/service"
)

const usage = `pesaflow <command> [flags]

Commands:
  import     import a CSV of (date, amount, description) rows
  parse      parse a PDF or image statement through the remote model
  enrich     resolve merchant and category for uncategorized transactions
  transfers  detect and mark transfers between own accounts
  plan       propose budget limits from spending history (-accept to save)
  edit       change a transaction's category or merchant, or delete it
  key        store or delete a provider API key
  reset      wipe all stored data
`

func main() {
	log := logger.New()
	ctx := logger.WithContext(context.Background(), log)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	var runErr error
	switch os.Args[1] {
	case "import":
		runErr = cmdImport(ctx, cfg, os.Args[2:])
	case "parse":
		runErr = cmdParse(ctx, cfg, os.Args[2:])
	case "enrich":
		runErr = cmdEnrich(ctx, cfg)
	case "transfers":
		runErr = cmdTransfers(ctx, cfg)
	case "plan":
		runErr = cmdPlan(ctx, cfg, os.Args[2:])
	case "edit":
		runErr = cmdEdit(ctx, cfg, os.Args[2:])
	case "key":
		runErr = cmdKey(os.Args[2:])
	case "reset":
		runErr = cmdReset(ctx, cfg)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if runErr != nil {
		log.Fatal().Err(runErr).Str("command", os.Args[1]).Msg("command failed")
	}
}

// openDB migrates and opens the configured database.
func openDB(cfg config.Config) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	if err := database.RunMigrations(cfg.Database.Path); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return database.Open(cfg.Database.Path)
}

// provider builds the configured enrichment provider. The key is looked up
// in config first, then the secrets store, then the named env var.
func provider(cfg config.Config) (llm.Enricher, error) {
	key := cfg.LLM.APIKey
	if key == "" {
		if k, err := secrets.FetchProviderKey(cfg.LLM.Provider); err == nil {
			key = k
		}
	}
	if key == "" {
		key = os.Getenv(cfg.LLM.APIKeyEnv)
	}
	switch strings.ToLower(cfg.LLM.Provider) {
	case "gemini":
		return llm.NewGeminiEnricher(key, cfg.LLM.Model), nil
	case "openai":
		return llm.NewOpenAIEnricher(key, cfg.LLM.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

func openCache(cfg config.Config) (*enrichcache.Cache, error) {
	if err := os.MkdirAll(cfg.Cache.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir cache dir: %w", err)
	}
	c := enrichcache.New(blobstore.New(cfg.Cache.Dir))
	if err := c.Load(); err != nil {
		return nil, fmt.Errorf("load cache: %w", err)
	}
	return c, nil
}

func cmdImport(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "CSV file to import")
	account := fs.String("account", "Main", "account name")
	fs.Parse(args)
	if *file == "" {
		return fmt.Errorf("-file is required")
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	svc := &service.IngestService{
		Transactions: repository.NewTransactionRepo(db),
		Accounts:     repository.NewAccountRepo(db),
		Loyalty:      repository.NewLoyaltyRepo(db),
	}
	res, err := svc.ImportCSV(ctx, f, *account, time.Local)
	if err != nil {
		return err
	}
	reportIngest(ctx, res)
	return nil
}

func cmdParse(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	file := fs.String("file", "", "statement file (PDF or image)")
	account := fs.String("account", "Main", "account name")
	fs.Parse(args)
	if *file == "" {
		return fmt.Errorf("-file is required")
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	p, err := provider(cfg)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(*file)
	if err != nil {
		return err
	}
	mimeType := mime.TypeByExtension(filepath.Ext(*file))
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	svc := &service.IngestService{
		Transactions: repository.NewTransactionRepo(db),
		Accounts:     repository.NewAccountRepo(db),
		Loyalty:      repository.NewLoyaltyRepo(db),
		Provider:     p,
	}
	res, err := svc.ImportStatement(ctx, data, mimeType, *account, time.Local)
	if err != nil {
		return err
	}
	reportIngest(ctx, res)
	return nil
}

func cmdEnrich(ctx context.Context, cfg config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	p, err := provider(cfg)
	if err != nil {
		return err
	}
	cache, err := openCache(cfg)
	if err != nil {
		return err
	}

	txRepo := repository.NewTransactionRepo(db)
	updates := &service.MerchantUpdates{}
	svc := &service.EnrichmentService{
		Transactions: txRepo,
		Cache:        cache,
		Provider:     p,
		Updates:      updates,
		Categories:   rules.Categories(),
	}
	// Successful remote lookups fan out to stored transactions that share
	// the same cache key but were imported before the lookup happened.
	updates.Subscribe(func(u service.MerchantUpdate) {
		n, err := svc.BackfillMerchant(ctx, u)
		if err != nil {
			log := logger.FromContext(ctx)
			log.Warn().Err(err).Str("merchant", u.Merchant).Msg("merchant backfill failed")
			return
		}
		if n > 0 {
			log := logger.FromContext(ctx)
			log.Debug().Int64("rows", n).Str("merchant", u.Merchant).Msg("merchant backfilled")
		}
	})
	n, err := svc.EnrichUncategorized(ctx)
	if err != nil {
		return err
	}
	log := logger.FromContext(ctx)
	log.Info().Int("enriched", n).Msg("enrichment complete")
	return nil
}

func cmdTransfers(ctx context.Context, cfg config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	d := &service.TransferDetector{Transactions: repository.NewTransactionRepo(db)}
	n, err := d.DetectAndMark(ctx)
	if err != nil {
		return err
	}
	log := logger.FromContext(ctx)
	log.Info().Int("marked", n).Msg("transfer detection complete")
	return nil
}

func cmdPlan(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	goal := fs.String("goal", "", "primary goal: save, invest, travel, asset, debt, control")
	target := fs.Float64("target", 0, "savings target in shillings")
	group := fs.Float64("group", 0, "group categories below this share of spend, e.g. 0.02")
	accept := fs.Bool("accept", false, "persist the proposed limits as budgets")
	fs.Parse(args)

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	txs, err := repository.NewTransactionRepo(db).List(ctx, repository.TransactionFilters{})
	if err != nil {
		return err
	}
	budgetRepo := repository.NewBudgetRepo(db)
	budgets, err := budgetRepo.List(ctx)
	if err != nil {
		return err
	}

	pol := budget.DefaultPolicy
	if cfg.Planner.WindowMonths > 0 {
		pol.WindowMonths = cfg.Planner.WindowMonths
	}
	if cfg.Planner.LowVolatility > 0 {
		pol.LowVolatility = cfg.Planner.LowVolatility
	}
	if cfg.Planner.MonthlyCutRatio > 0 {
		pol.MonthlyCutRatio = cfg.Planner.MonthlyCutRatio
	}

	profile := budget.Profile{PrimaryGoal: budget.Goal(*goal), TargetCents: int64(*target * 100)}
	drafts := budget.ComputeDrafts(txs, budgets, profile, pol)
	if *group > 0 {
		drafts = budget.GroupMinor(drafts, *group)
	}
	income := budget.AvgMonthlyIncome(txs)
	impact := budget.ImpactAnalysis(drafts, income, pol)

	fmt.Printf("%-28s %10s %10s %6s  %-10s %-10s\n", "CATEGORY", "AVG/MO", "LIMIT", "VOL", "FREQ", "STRATEGY")
	for _, d := range drafts {
		marker := ""
		if d.FromBudget {
			marker = " *"
		}
		fmt.Printf("%-28s %10.2f %10.2f %6.2f  %-10s %-10s%s\n",
			d.Category, d.Average/100, d.Limit/100, d.Volatility, d.Frequency, d.Strategy, marker)
	}
	fmt.Printf("\nNew total budget:    %s %.2f\n", cfg.Currency, impact.NewTotalBudget/100)
	fmt.Printf("Planned net savings: %s %.2f\n", cfg.Currency, impact.PlannedNetSavings/100)
	if impact.FreedUpCash > 0 {
		fmt.Printf("Freed-up cash:       %s %.2f\n", cfg.Currency, impact.FreedUpCash/100)
	}
	for _, r := range impact.RiskyCuts {
		fmt.Printf("RISKY: %s limited to %s %.2f, %s\n", r.Category, cfg.Currency, r.Limit/100, r.Reason)
	}
	if n, ok := budget.MonthsToTarget(float64(profile.TargetCents), impact.PlannedNetSavings); ok {
		fmt.Printf("Months to target:    %d\n", n)
	}

	if *accept {
		for _, d := range drafts {
			b := repository.Budget{
				ID:         uuid.NewString(),
				Category:   d.Category,
				LimitCents: int64(math.Round(d.Limit)),
				Period:     "monthly",
				Strategy:   d.Strategy,
			}
			if err := budgetRepo.Upsert(ctx, b); err != nil {
				return fmt.Errorf("save budget %s: %w", d.Category, err)
			}
		}
		log := logger.FromContext(ctx)
		log.Info().Int("budgets", len(drafts)).Msg("proposals accepted")
	}
	return nil
}

func cmdEdit(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	id := fs.String("id", "", "transaction id")
	category := fs.String("category", "", "new category")
	merchant := fs.String("merchant", "", "new merchant name")
	del := fs.Bool("delete", false, "delete the transaction")
	fs.Parse(args)
	if *id == "" {
		return fmt.Errorf("-id is required")
	}
	if !*del && *category == "" && *merchant == "" {
		return fmt.Errorf("nothing to do: pass -category, -merchant, or -delete")
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repository.NewTransactionRepo(db)
	if *del {
		return repo.Delete(ctx, *id)
	}
	if *category != "" {
		if err := repo.UpdateCategory(ctx, *id, category); err != nil {
			return err
		}
	}
	if *merchant != "" {
		if err := repo.UpdateMerchant(ctx, *id, merchant); err != nil {
			return err
		}
	}
	return nil
}

func cmdKey(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: pesaflow key set <provider> | pesaflow key delete <provider>")
	}
	switch args[0] {
	case "set":
		fmt.Fprintf(os.Stderr, "API key for %s: ", args[1])
		var key string
		if _, err := fmt.Scanln(&key); err != nil {
			return err
		}
		return secrets.StoreProviderKey(args[1], key)
	case "delete":
		return secrets.DeleteProviderKey(args[1])
	default:
		return fmt.Errorf("unknown key action %q", args[0])
	}
}

func cmdReset(ctx context.Context, cfg config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := &service.MaintenanceService{DB: db}
	if err := svc.Reset(ctx); err != nil {
		return err
	}
	log := logger.FromContext(ctx)
	log.Info().Msg("all data wiped")
	return nil
}

func reportIngest(ctx context.Context, res service.IngestResult) {
	log := logger.FromContext(ctx)
	for _, e := range res.Errors {
		log.Warn().Err(e).Msg("row skipped")
	}
	log.Info().Int("imported", res.Imported).Int("skipped", res.Skipped).Int("errors", len(res.Errors)).Msg("import complete")
}
