// Package main is the Karte CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/karte/internal/config"
	"github.com/hyperjump/karte/internal/index"
	"github.com/hyperjump/karte/internal/join"
	"github.com/hyperjump/karte/internal/jql"
	"github.com/hyperjump/karte/internal/models"
	"github.com/hyperjump/karte/internal/search"
	"github.com/hyperjump/karte/internal/server"
	"github.com/hyperjump/karte/internal/storage"
	"github.com/hyperjump/karte/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/karte/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
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
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "translate":
		runTranslate()
	case "validate":
		runValidate()
	case "version", "--version", "-v":
		fmt.Printf("karte version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (query translation, join execution, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer store.Close()

	client, err := search.NewElastic(
		cfg.Elasticsearch.Addresses,
		cfg.Elasticsearch.Username,
		cfg.Elasticsearch.Password,
		logger,
	)
	if err != nil {
		logger.Fatal("Failed to create search client", zap.Error(err))
	}

	resolver := index.NewResolver(cfg.Indices.Projects, cfg.Indices.Allowed)
	joins := join.NewEngine(client, resolver, logger)

	srv := server.NewServer(client, joins, resolver, store, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// runTranslate compiles a JQL string locally and prints the query DSL
// document, resolved indexes and sort clause as JSON.
func runTranslate() {
	fs := flag.NewFlagSet("translate", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	input := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if input == "" {
		fmt.Println("Usage: karte translate [flags] <jql>")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	resolver := index.NewResolver(cfg.Indices.Projects, cfg.Indices.Allowed)

	parsed := jql.Parse(input)
	out := models.CompiledQuery{
		Document: jql.Compile(parsed),
		Indexes:  resolver.Resolve(parsed.Projects),
		Sort:     jql.CompileSort(parsed),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

// runValidate checks a JQL string against the configured allow-list and
// prints errors and warnings.
func runValidate() {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	input := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if input == "" {
		fmt.Println("Usage: karte validate [flags] <jql>")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	resolver := index.NewResolver(cfg.Indices.Projects, cfg.Indices.Allowed)

	res := jql.Validate(input, resolver)
	if res.IsValid {
		fmt.Println("valid")
	} else {
		fmt.Println("invalid")
	}
	for _, e := range res.Errors {
		fmt.Printf("  error: %s\n", e)
	}
	for _, warning := range res.Warnings {
		fmt.Printf("  warning: %s\n", warning)
	}
	if !res.IsValid {
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`karte - Reporting and cross-index joins over Elasticsearch health-data indices

Usage:
  karte server [flags]             Start the HTTP server
  karte translate [flags] <jql>    Compile a JQL query and print the query DSL
  karte validate [flags] <jql>     Validate a JQL query without executing it
  karte version                    Show version
  karte help                       Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/karte/config.yaml)
  --debug            Enable debug logging (query translation, join execution, etc.)

Translate/Validate Flags:
  --config string    Config file path (for the index allow-list and project mapping)

Examples:
  karte server
  karte translate 'project = metrics and status = active order by date desc limit 100'
  karte validate 'patient_id in (a1, b2, c3)'`)
}
