// Magnet Finder searches public torrent index mirrors and turns the chosen
// result into a magnet link. It runs as a terminal UI, a one-shot search
// command, or a small HTTP API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/litescript/magnet-finder/internal/config"
	"github.com/litescript/magnet-finder/internal/logging"
	"github.com/litescript/magnet-finder/internal/magnet"
	"github.com/litescript/magnet-finder/internal/metrics"
	"github.com/litescript/magnet-finder/internal/scraper"
	"github.com/litescript/magnet-finder/internal/server"
	"github.com/litescript/magnet-finder/internal/theme"
	"github.com/litescript/magnet-finder/internal/tui"
	"github.com/litescript/magnet-finder/internal/version"
)

func main() {
	// LOG_LEVEL, MAGNET_FINDER_CONFIG and the theme overrides may live in .env
	_ = godotenv.Load(".env")

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v":
			fmt.Println(version.String())
			return
		case "search":
			os.Exit(runSearch(os.Args[2:], os.Stdout))
		case "serve":
			os.Exit(runServe(os.Args[2:]))
		}
	}
	os.Exit(runTUI())
}

func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
	}
	return cfg
}

func stderrLogging(cfg config.Config) {
	if _, err := logging.Init(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Out: os.Stderr}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

func newPipeline(cfg config.Config, m *metrics.Metrics) (*scraper.Pipeline, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	timeouts, err := cfg.Timeouts()
	if err != nil {
		return nil, err
	}
	p := scraper.NewPipeline(reg, timeouts, m)
	if cfg.Search.MaxResults > 0 {
		p.MaxResults = cfg.Search.MaxResults
	}
	return p, nil
}

func runSearch(args []string, stdout io.Writer) int {
	cfg := loadConfig()
	def := cfg.DefaultQuery()

	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	category := fs.String("category", def.Category.String(), "movies_hd, shows_hd or all_video")
	res := fs.String("res", def.Resolution.String(), "any, 1080 or 4k")
	asJSON := fs.Bool("json", false, "print one JSON object per result")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: magnet-finder search [-category c] [-res r] [-json] <query...>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	q := scraper.Query{Text: strings.Join(fs.Args(), " ")}
	if strings.TrimSpace(q.Text) == "" {
		fs.Usage()
		return 2
	}
	var err error
	if q.Category, err = scraper.ParseCategory(*category); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	if q.Resolution, err = scraper.ParseResolution(*res); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	stderrLogging(cfg)
	p, err := newPipeline(cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := p.Trace(ctx, q)
	trackers := cfg.Trackers()

	if *asJSON {
		enc := json.NewEncoder(stdout)
		for _, r := range out.Results {
			_ = enc.Encode(map[string]any{
				"title":     r.Title,
				"info_hash": r.InfoHash,
				"seeders":   r.Seeders,
				"leechers":  r.Leechers,
				"size":      r.Size,
				"tag":       r.Tag.String(),
				"relevance": r.Relevance,
				"magnet":    magnet.Build(r.InfoHash, r.Title, trackers),
			})
		}
	} else {
		printTable(stdout, out.Results)
	}

	switch out.Status {
	case scraper.StatusUnreachable:
		fmt.Fprintln(os.Stderr, "All mirrors unreachable.")
		return 1
	case scraper.StatusNoResults:
		fmt.Fprintf(os.Stderr, "No %s results.\n", q.Resolution.Label())
	}
	return 0
}

func printTable(w io.Writer, results []scraper.Result) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEED\tLEECH\tSIZE\tTAG\tHASH\tNAME")
	for _, r := range results {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n",
			r.Seeders, r.Leechers, scraper.HumanSize(r.Size), r.Tag, r.InfoHash, r.Title)
	}
	tw.Flush()
}

func runServe(args []string) int {
	cfg := loadConfig()

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", cfg.Server.Addr, "listen address")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	stderrLogging(cfg)

	m := metrics.NewMetrics()
	p, err := newPipeline(cfg, m)
	if err != nil {
		logging.Error().Err(err).Msg("invalid search config")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := server.NewHandler(p, cfg.Trackers(), m.Register())
	if err := server.Serve(ctx, *addr, h); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Error().Err(err).Msg("http api stopped")
		return 1
	}
	return 0
}

func runTUI() int {
	cfg := loadConfig()

	closer, err := logging.Init(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		// never write logs over the alt screen
		logging.Disable()
	} else {
		defer closer.Close()
	}

	theme.Refresh()

	// nothing serves /metrics in TUI mode
	model := tui.NewModel(cfg, nil)
	p := tea.NewProgram(model, tea.WithAltScreen())

	// Reload config and terminal theme while running
	watcher, err := config.NewWatcher(config.ConfigPath(), theme.WatchPaths(), func(c config.Config, err error) {
		p.Send(tui.ConfigReloadedMsg{Config: c, Err: err})
	})
	if err != nil {
		logging.Warn().Err(err).Msg("config watcher disabled")
	} else {
		defer watcher.Stop()
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
