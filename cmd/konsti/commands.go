package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/konsti/internal/cache"
	"github.com/hyperjump/konsti/internal/cli"
	"github.com/hyperjump/konsti/internal/models"
	"github.com/hyperjump/konsti/internal/server"
	"github.com/hyperjump/konsti/internal/storage"
	"github.com/hyperjump/konsti/internal/watcher"
)

const apiTimeout = 60 * time.Second

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	components.ensureIndexed(ctx, logger)

	svc := server.Services{
		Assistant: components.Assistant,
		Importer:  components.Importer,
		Storage:   components.Storage,
		Index:     components.Index,
		Responses: components.Responses,
		Sessions:  components.Sessions,
	}
	if len(cfg.Watch.Directories) > 0 {
		w := watcher.New(cfg.Watch.Directories, cfg.Watch.Extensions, cfg.Watch.RecursiveOrDefault(),
			components.Importer, watcher.WithLogger(logger))
		if err := w.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer w.Stop()
		go func() {
			n := w.SyncExistingFiles()
			logger.Info("drop directories synced", zap.Int("files", n))
		}()
		svc.Watch = w
	}

	srv := server.NewServer(svc, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (local mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = answer from local storage)")
	sessionID := fs.String("session", "", "guest session id")
	userID := fs.String("user", "", "authenticated user id")
	formatFlag := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	req := models.ChatRequest{Question: buildQuestion(fs.Args()), UserID: *userID, SessionID: *sessionID}
	if req.Question == "" {
		fmt.Println("Usage: konsti ask [flags] <question>")
		os.Exit(1)
	}
	if err := req.Validate(); err != nil {
		exitf("Invalid question: %v\n", err)
	}
	format := mustFormat(*formatFlag)

	var answer *models.Answer
	if *serverURL != "" {
		answer = &models.Answer{}
		if err := callAPI(http.MethodPost, *serverURL+"/api/v1/chat", req, answer); err != nil {
			exitf("Ask failed: %v\n", err)
		}
	} else {
		_, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		answer = components.Assistant.Ask(context.Background(), req)
	}
	if err := cli.WriteAnswer(os.Stdout, answer, format); err != nil {
		exitf("Output failed: %v\n", err)
	}
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	title := fs.String("title", "", "constitution title (single file)")
	year := fs.Int("year", 0, "adoption year (single file)")
	country := fs.String("country", "", "country (single file)")
	_ = fs.Parse(argsReorder(os.Args[2:]))
	if fs.NArg() < 1 {
		fmt.Println("Usage: konsti import [flags] <file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()
	ctx := context.Background()

	info, err := os.Stat(path)
	if err != nil {
		exitf("Failed to stat path: %v\n", err)
	}
	if info.IsDir() {
		n, err := components.Importer.ImportDirectory(ctx, path, cfg.Watch.Extensions)
		fmt.Printf("Imported %d file(s) from %s\n", n, path)
		if err != nil {
			exitf("Some files failed:\n%v\n", err)
		}
		return
	}

	res, err := components.Importer.ImportFile(ctx, path, nil)
	if err != nil {
		exitf("Import failed: %v\n", err)
	}
	if *title != "" || *year != 0 || *country != "" {
		c, err := components.Storage.GetConstitution(ctx, res.ConstitutionID)
		if err != nil {
			exitf("Failed to load imported constitution: %v\n", err)
		}
		if *title != "" {
			c.Title = *title
		}
		if *year != 0 {
			c.Year = *year
		}
		if *country != "" {
			c.Country = *country
		}
		if err := components.Storage.UpdateConstitution(ctx, c); err != nil {
			exitf("Failed to update constitution: %v\n", err)
		}
	}
	if res.Skipped {
		fmt.Printf("Unchanged: %s (%d articles)\n", res.ConstitutionID, res.Articles)
		return
	}
	fmt.Printf("Imported %s: %d articles, %d headings\n", res.ConstitutionID, res.Articles, res.Structure)
}

func runDeactivate(activate bool) {
	name := "deactivate"
	if activate {
		name = "activate"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(argsReorder(os.Args[2:]))
	if fs.NArg() < 1 {
		fmt.Printf("Usage: konsti %s [flags] <constitution-id>\n", name)
		os.Exit(1)
	}
	id := fs.Arg(0)

	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	var err error
	if activate {
		err = components.Importer.Activate(context.Background(), id)
	} else {
		err = components.Importer.Deactivate(context.Background(), id)
	}
	if errors.Is(err, storage.ErrNotFound) {
		exitf("Constitution not found: %s\n", id)
	}
	if err != nil {
		exitf("%s failed: %v\n", name, err)
	}
	fmt.Printf("Constitution %s: %sd\n", id, name)
}

func runArticles() {
	fs := flag.NewFlagSet("articles", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	constitutionID := fs.String("constitution", "", "constitution id")
	formatFlag := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))
	format := mustFormat(*formatFlag)

	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()
	ctx := context.Background()

	var err error
	switch {
	case fs.NArg() > 0:
		var a *models.Article
		a, err = components.Storage.GetArticleByNumber(ctx, *constitutionID, fs.Arg(0))
		if err == nil {
			err = cli.WriteArticles(os.Stdout, []models.Article{*a}, format)
		}
	case *constitutionID != "":
		var articles []models.Article
		articles, err = components.Storage.ListArticles(ctx, *constitutionID)
		if err == nil {
			err = cli.WriteArticles(os.Stdout, articles, format)
		}
	default:
		var list []*models.Constitution
		list, err = components.Storage.ListConstitutions(ctx, 0, 100)
		if err == nil {
			err = cli.WriteConstitutions(os.Stdout, list, format)
		}
	}
	if errors.Is(err, storage.ErrNotFound) {
		exitf("Not found: %v\n", err)
	}
	if err != nil {
		exitf("articles failed: %v\n", err)
	}
}

func runCache() {
	if len(os.Args) < 3 || (os.Args[2] != "stats" && os.Args[2] != "clear") {
		fmt.Println("Usage: konsti cache <stats|clear> [flags]")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("cache", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (local mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = local storage)")
	formatFlag := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(os.Args[3:])
	format := mustFormat(*formatFlag)

	var (
		stats cache.Stats
		err   error
	)
	if *serverURL != "" {
		if sub == "clear" {
			err = callAPI(http.MethodDelete, *serverURL+"/api/v1/cache", nil, nil)
		} else {
			err = callAPI(http.MethodGet, *serverURL+"/api/v1/cache/stats", nil, &stats)
		}
	} else {
		_, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		if sub == "clear" {
			err = components.Responses.Clear(context.Background())
		} else {
			stats, err = components.Responses.Stats(context.Background())
		}
	}
	if err != nil {
		exitf("cache %s failed: %v\n", sub, err)
	}
	if sub == "clear" {
		fmt.Println("Response cache cleared")
		return
	}
	if format == cli.OutputJSON {
		writeJSON(stats)
		return
	}
	fmt.Printf("entries:       %d\n", stats.Entries)
	fmt.Printf("hits:          %d\n", stats.Hits)
	fmt.Printf("misses:        %d\n", stats.Misses)
	fmt.Printf("hit_rate:      %.2f\n", stats.HitRate)
	fmt.Printf("writes:        %d\n", stats.Writes)
	fmt.Printf("write_errors:  %d\n", stats.WriteErrors)
	fmt.Printf("ttl_seconds:   %.0f\n", stats.TTLSeconds)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (local mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = local storage)")
	formatFlag := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := mustFormat(*formatFlag)

	status := map[string]interface{}{}
	if *serverURL != "" {
		if err := callAPI(http.MethodGet, *serverURL+"/api/v1/status", nil, &status); err != nil {
			exitf("Status failed: %v\n", err)
		}
	} else {
		cfg, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		var err error
		status, err = localStatus(context.Background(), cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath, cfg.Storage.UploadDir, components)
		if err != nil {
			exitf("Status failed: %v\n", err)
		}
	}
	if format == cli.OutputJSON {
		writeJSON(status)
		return
	}
	writeStatusText(os.Stdout, status, "")
}

func localStatus(ctx context.Context, dbPath, indexPath, uploadDir string, c *Components) (map[string]interface{}, error) {
	constitutions, err := c.Storage.CountConstitutions(ctx)
	if err != nil {
		return nil, fmt.Errorf("count constitutions: %w", err)
	}
	articles, err := c.Storage.CountActiveArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("count articles: %w", err)
	}
	status := map[string]interface{}{
		"constitutions":   constitutions,
		"active_articles": articles,
	}
	if n, err := c.Index.DocCount(); err == nil {
		status["indexed_articles"] = n
	}
	if entries, err := c.Responses.Stats(ctx); err == nil {
		status["cached_answers"] = entries.Entries
	}
	if diskBytes, err := storage.DiskUsageBytes(dbPath, indexPath, uploadDir); err == nil {
		status["disk_usage_bytes"] = diskBytes
	}
	return status, nil
}

// writeStatusText prints one "key: value" line per entry, sorted, with nested
// objects as indented sections.
func writeStatusText(w io.Writer, status map[string]interface{}, indent string) {
	keys := make([]string, 0, len(status))
	for k := range status {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if nested, ok := status[k].(map[string]interface{}); ok {
			fmt.Fprintf(w, "%s# %s\n", indent, k)
			writeStatusText(w, nested, indent+"  ")
			continue
		}
		fmt.Fprintf(w, "%s%-20s %v\n", indent, k+":", status[k])
	}
}

func callAPI(method, url string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	client := &http.Client{Timeout: apiTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func mustFormat(s string) cli.OutputFormat {
	format, err := cli.ParseFormat(s)
	if err != nil {
		exitf("%v\n", err)
	}
	return format
}

func writeJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		exitf("Output failed: %v\n", err)
	}
}

func exitf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
