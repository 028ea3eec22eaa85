// Command xmarks captures X.com bookmarks, reconstructs threads and
// articles, and syncs the collection to a backend.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chromedp/chromedp"
	"github.com/pkg/browser"

	"xmarks/internal/app"
	browseropts "xmarks/internal/browser"
	"xmarks/internal/config"
	"xmarks/internal/scheduler"
	"xmarks/internal/store"
	"xmarks/internal/types"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	cfg, err := config.LoadOrDefault()
	if err != nil {
		fatal(log, "failed to load config", err)
	}

	dbPath, err := config.DBPath()
	if err != nil {
		fatal(log, "failed to resolve database path", err)
	}
	st, err := store.New(dbPath)
	if err != nil {
		fatal(log, "failed to open database", err)
	}
	defer st.Close()

	a, err := app.New(cfg, st, log)
	if err != nil {
		fatal(log, "failed to assemble app", err)
	}

	switch os.Args[1] {
	case "login":
		runLogin(a, log)
	case "logout":
		runLogout(a, log)
	case "sync":
		runSync(a, log)
	case "watch":
		runWatch(a, log)
	case "serve":
		runServe(a, cfg, log)
	case "stats":
		runStats(st)
	case "bot-test":
		runBotTest(log)
	case "open":
		if len(os.Args) < 3 {
			fmt.Println("Usage: xmarks open <config|db>")
			os.Exit(1)
		}
		runOpen(os.Args[2], log)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: xmarks <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  login        Open a browser window to log in to X")
	fmt.Println("  logout       Clear stored credentials")
	fmt.Println("  sync         Run one full capture-and-sync pass")
	fmt.Println("  watch        Keep a live session open and capture on changes")
	fmt.Println("  serve        Run capture-and-sync on a schedule")
	fmt.Println("  stats        Show local collection statistics")
	fmt.Println("  bot-test     Open bot.sannysoft.com to audit browser fingerprint")
	fmt.Println("  open config  Open the config file in the default editor")
	fmt.Println("  open db      Open the data directory in the file explorer")
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}

func runLogin(a *app.App, log *slog.Logger) {
	log.Info("opening browser for X login")
	if err := a.Auth().Login(context.Background()); err != nil {
		fatal(log, "login failed", err)
	}
	log.Info("login successful, session saved")
}

func runLogout(a *app.App, log *slog.Logger) {
	if err := a.Auth().Logout(); err != nil {
		fatal(log, "logout failed", err)
	}
	log.Info("session cleared")
}

func runSync(a *app.App, log *slog.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.RunPipeline(ctx); err != nil {
		fatal(log, "capture failed", err)
	}
}

func runWatch(a *app.App, log *slog.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("watching bookmarks timeline, ctrl-c to stop")
	if err := a.Watch(ctx); err != nil && ctx.Err() == nil {
		fatal(log, "watch failed", err)
	}
}

func runServe(a *app.App, cfg *config.Config, log *slog.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(log)
	if err := sched.AddSyncJob(cfg.Sync.IntervalHours, a.RunPipeline); err != nil {
		fatal(log, "failed to schedule sync job", err)
	}
	sched.Start()
	log.Info("scheduler running", "interval_hours", cfg.Sync.IntervalHours)

	<-ctx.Done()
	<-sched.Stop().Done()
	log.Info("stopped")
}

func runStats(st *store.Store) {
	stats, err := st.GetStats()
	if err != nil {
		slog.Error("failed to read stats", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Bookmarks: %d\n", stats.Total)
	for _, cat := range []types.Category{
		types.CategoryQuickTake, types.CategoryThread, types.CategoryArticle, types.CategoryMedia,
	} {
		fmt.Printf("  %-11s %d\n", string(cat)+":", stats.ByCategory[cat])
	}
	fmt.Printf("Pending sync: %d\n", stats.Pending)
	fmt.Printf("Sync errors:  %d\n", stats.Errors)
}

// runBotTest opens a fingerprint-audit page with the same stealth options
// the scraper uses, so detection regressions are easy to eyeball.
func runBotTest(log *slog.Logger) {
	log.Info("opening bot.sannysoft.com with stealth browser options")

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), browseropts.Options(false)...)
	defer allocCancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	go func() {
		if err := chromedp.Run(ctx, chromedp.Navigate("https://bot.sannysoft.com")); err != nil {
			log.Error("failed to navigate", "error", err)
		}
	}()

	fmt.Println("Press Enter to end program...")
	fmt.Scanln()
}

func runOpen(target string, log *slog.Logger) {
	var path string
	var err error

	switch target {
	case "config":
		path, err = config.ConfigPath()
	case "db":
		path, err = config.ConfigDir()
	default:
		fmt.Printf("Unknown target: %s\n", target)
		os.Exit(1)
	}
	if err != nil {
		fatal(log, "failed to resolve path", err)
	}

	if err := browser.OpenFile(path); err != nil {
		fatal(log, "failed to open", err)
	}
}
