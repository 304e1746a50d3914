// Package main is the konsti CLI entry point.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/konsti/internal/config"
	"github.com/hyperjump/konsti/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/konsti/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if it exists, so commands run from a project directory use
// the project's config. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// API keys may live in a .env file next to the binary's working directory.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "import":
		runImport()
	case "deactivate":
		runDeactivate(false)
	case "activate":
		runDeactivate(true)
	case "articles":
		runArticles()
	case "cache":
		runCache()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("konsti version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads the config, creates the logger and initializes the components.
// It exits the process on failure.
func setup(configPath string, debug bool) (*config.Config, *zap.Logger, *Components) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return cfg, logger, components
}

// buildQuestion joins all positional args with spaces so questions work the same
// with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves flags that appear after the positional arguments to the front,
// since the flag package stops at the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func printUsage() {
	fmt.Println(`konsti - Constitution question answering service

Usage:
  konsti server [flags]                 Start the HTTP server and the drop directory watcher
  konsti ask [flags] <question>         Ask a question about the constitution
  konsti import [flags] <file-or-dir>   Import constitution files (PDF, DOCX, TXT, MD)
  konsti deactivate [flags] <id>        Hide a constitution from answers
  konsti activate [flags] <id>          Make a deactivated constitution answerable again
  konsti articles [flags] [number]      List constitutions, or the articles of one
  konsti cache <stats|clear> [flags]    Show or clear the response cache
  konsti status [flags]                 Show storage, index and cache status
  konsti version                        Show version
  konsti help                           Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/konsti/config.yaml, or ./config.yaml)
  --server string    Server URL for ask, cache and status (default: http://localhost:8080).
                     Use --server "" to work on local storage when the server is not running.
  --format string    Output format: text or json (default: text)

Server Flags:
  --debug            Enable debug logging

Ask Flags:
  --session string   Guest session id, keeps conversation history between questions
  --user string      Authenticated user id

Import Flags:
  --title string     Constitution title (single file)
  --year int         Adoption year (single file)
  --country string   Country (single file)

Articles Flags:
  --constitution string   Constitution id; without it every active constitution is used

Examples:
  konsti server
  konsti import ./constitutions/guinee-2020.pdf --year 2020
  konsti ask "Quelle est la durée du mandat présidentiel ?"
  konsti ask --session abc "Et l'article 45 ?"
  konsti articles --constitution file-1a2b3c4d5e6f7a8b 44
  konsti cache stats --format json`)
}
