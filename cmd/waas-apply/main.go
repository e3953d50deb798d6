package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"waas-apply/internal/browser"
	"waas-apply/internal/config"
	"waas-apply/internal/domain"
	"waas-apply/internal/generate"
	"waas-apply/internal/ledger"
	"waas-apply/internal/orchestrator"
	"waas-apply/internal/review"
	"waas-apply/internal/scan"
	"waas-apply/internal/secrets"
	"waas-apply/internal/selectors"
	"waas-apply/internal/submit"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
)

func main() {
	var (
		configPath     = flag.String("config", "", "path to config.yml (default: <data-dir>/config.yml, bootstrapped from config/config.example.yml)")
		capFlag        = flag.Int("cap", 0, "max applications to send this run (default from config)")
		modeFlag       = flag.String("mode", "dry-run", "dry-run or live")
		verbose        = flag.Bool("v", false, "verbose logging")
		loginOnly      = flag.Bool("login", false, "establish the browser session and exit")
		checkSelectors = flag.Bool("check-selectors", false, "verify configured locators against the live site, no side effects")
		exportPath     = flag.String("export", "", "export the application ledger to a CSV file and exit")
		showSummary    = flag.Bool("summary", false, "print ledger counts by status and exit")
		setKey         = flag.Bool("set-key", false, "store the generation API key in the OS keychain and exit")
	)
	flag.Parse()

	log.SetFlags(log.Ltime)
	if *verbose {
		log.SetFlags(log.Ltime | log.Lshortfile)
	}

	if err := run(*configPath, *capFlag, *modeFlag, *loginOnly, *checkSelectors, *exportPath, *showSummary, *setKey); err != nil {
		log.Fatalf("[setup] %v", err)
	}
}

func run(configPath string, capFlag int, modeFlag string,
	loginOnly, checkSelectors bool, exportPath string, showSummary, setKey bool) error {

	// .env is optional; real credentials prefer the keychain anyway.
	_ = godotenv.Load()

	if setKey {
		return storeAPIKey()
	}

	dataDir := os.Getenv("WAAS_APPLY_DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	if configPath == "" {
		var err error
		configPath, err = config.EnsureUserConfig(dataDir, filepath.Join("config", "config.example.yml"))
		if err != nil {
			return fmt.Errorf("config bootstrap failed: %w", err)
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", configPath, err)
	}
	cfg, validation := config.NormalizeAndValidate(cfg)
	for _, w := range validation.Warnings {
		log.Printf("[config] warning: %s", w)
	}
	if !validation.OK() {
		for _, e := range validation.Errors {
			log.Printf("[config] error: %s", e)
		}
		return fmt.Errorf("config has %d error(s): %s", len(validation.Errors), configPath)
	}

	// Ledger-only modes need no lock, no browser, no credential.
	if exportPath != "" || showSummary {
		return ledgerReport(cfg, dataDir, exportPath, showSummary)
	}

	// One process at a time: the ledger's dedup guarantee assumes a single
	// writer, so a second concurrent run is refused outright.
	lock := flock.New(filepath.Join(dataDir, "waas-apply.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return errors.New("another waas-apply run holds the lock; concurrent runs are not supported")
	}
	defer lock.Unlock()

	sel, err := selectors.FromConfig(cfg.Selectors)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	chrome, err := browser.Launch(ctx, browser.Options{
		UserDataDir: cfg.Settings.Browser.UserDataDir,
		Headless:    cfg.Settings.Browser.Headless,
	})
	if err != nil {
		return fmt.Errorf("browser session: %w", err)
	}
	defer chrome.Close()

	sess := browser.NewPaced(chrome, cfg.Settings.Nav.RequestsPerSec, cfg.Settings.Nav.Burst)

	if loginOnly {
		ok, err := browser.WaitForManualLogin(ctx, sess, sel, 5*time.Minute)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("login was not completed")
		}
		log.Printf("[login] session established; cookies persisted in %s", cfg.Settings.Browser.UserDataDir)
		return nil
	}

	if err := ensureLoggedIn(ctx, sess, sel); err != nil {
		return err
	}

	if checkSelectors {
		return reportSelectors(ctx, sess, sel, cfg)
	}

	return runApplications(ctx, cfg, dataDir, sess, sel, capFlag, modeFlag)
}

func runApplications(ctx context.Context, cfg config.Config, dataDir string,
	sess browser.Session, sel selectors.Table, capFlag int, modeFlag string) error {

	var mode orchestrator.Mode
	switch modeFlag {
	case "live":
		mode = orchestrator.ModeLive
	case "dry-run", "dry_run":
		mode = orchestrator.ModeDryRun
	default:
		return fmt.Errorf("unknown mode %q (want dry-run or live)", modeFlag)
	}

	cap := capFlag
	if cap == 0 {
		cap = cfg.Settings.MaxApplications
	}

	apiKey, err := secrets.GetAPIKey()
	if err != nil {
		return err
	}
	client, err := generate.NewClient(apiKey, cfg.Message.Model, cfg.Message.MaxTokens)
	if err != nil {
		return err
	}

	led, err := ledger.Open(filepath.Join(dataDir, "applications.db"))
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer led.Close()

	if browser.CaptchaPresent(ctx, sess, sel) {
		browser.PauseForCaptcha()
	}

	orch := orchestrator.New(orchestrator.Deps{
		Session:   sess,
		Scanner:   scan.NewScanner(sess, sel, cfg.Settings.MaxListingJobs),
		Extractor: scan.NewExtractor(sess),
		Generator: generate.NewGenerator(client, cfg.Message),
		Gate:      review.NewGate(os.Stdin, os.Stdout, nil),
		Submitter: submit.New(sess, sel),
		Ledger:    led,
		Profile:   cfg.Profile,
		Message:   cfg.Message,
		Retry: orchestrator.NewRetryPolicy(cfg.Settings.Retry.MaxAttempts,
			time.Duration(cfg.Settings.Retry.BaseDelaySeconds*float64(time.Second))),
		Pacer: orchestrator.NewPacer(
			time.Duration(cfg.Settings.DelayMinSeconds*float64(time.Second)),
			time.Duration(cfg.Settings.DelayMaxSeconds*float64(time.Second))),
	})

	summary, err := orch.Run(ctx, cfg.Filters, cap, mode)
	if err != nil {
		return err
	}

	fmt.Printf("\nRun %s finished.\n", summary.RunID)
	fmt.Printf("  scanned: %d  sent: %d  skipped: %d  failed: %d  dry-run: %d  already-sent: %d\n",
		summary.Scanned, summary.Sent, summary.Skipped, summary.Failed, summary.DryRun, summary.Deduped)
	if summary.Truncated {
		fmt.Println("  (session ended early by the operator)")
	}
	if summary.CapReached {
		fmt.Println("  (application cap reached)")
	}
	return nil
}

func ensureLoggedIn(ctx context.Context, sess browser.Session, sel selectors.Table) error {
	ok, err := browser.LoggedIn(ctx, sess, sel)
	if err != nil {
		return fmt.Errorf("login check: %w", err)
	}
	if ok {
		return nil
	}
	ok, err = browser.WaitForManualLogin(ctx, sess, sel, 5*time.Minute)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("no authenticated session; run with -login first")
	}
	return nil
}

func reportSelectors(ctx context.Context, sess browser.Session, sel selectors.Table, cfg config.Config) error {
	results, err := scan.CheckSelectors(ctx, sess, sel, scan.BuildJobsURL(cfg.Filters))
	if err != nil {
		return err
	}
	fmt.Printf("%-18s %-8s %-8s %s\n", "ROLE", "LISTING", "DETAIL", "LOCATOR")
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("%-18s %-8s %-8s %s  (%v)\n", r.Role, "-", "-", r.Locator, r.Err)
			continue
		}
		fmt.Printf("%-18s %-8s %-8s %s\n", r.Role, yesNo(r.OnListing), yesNo(r.OnDetail), r.Locator)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func ledgerReport(cfg config.Config, dataDir, exportPath string, showSummary bool) error {
	led, err := ledger.Open(filepath.Join(dataDir, "applications.db"))
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer led.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if exportPath != "" {
		f, err := os.Create(exportPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := led.ExportCSV(ctx, f); err != nil {
			return err
		}
		log.Printf("[ledger] exported to %s", exportPath)
	}

	if showSummary {
		counts, err := led.Summary(ctx)
		if err != nil {
			return err
		}
		fmt.Println("Applications by status:")
		for _, status := range []domain.Status{domain.StatusSent, domain.StatusSkipped,
			domain.StatusFailed, domain.StatusDryRun, domain.StatusPending} {
			fmt.Printf("  %-8s %d\n", status, counts[status])
		}
	}
	return nil
}

func storeAPIKey() error {
	fmt.Print("Paste the Anthropic API key (input is echoed): ")
	r := bufio.NewReader(os.Stdin)
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return err
	}
	if err := secrets.SetAPIKey(strings.TrimSpace(line)); err != nil {
		return err
	}
	log.Printf("[secrets] key stored in the OS keychain")
	return nil
}
