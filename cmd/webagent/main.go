// Package main runs the browser automation server on stdin and stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/entrhq/webagent/pkg/browser"
	"github.com/entrhq/webagent/pkg/config"
	"github.com/entrhq/webagent/pkg/logging"
	"github.com/entrhq/webagent/pkg/ocr"
	"github.com/entrhq/webagent/pkg/retention"
	"github.com/entrhq/webagent/pkg/security/workspace"
	"github.com/entrhq/webagent/pkg/server"
	"github.com/entrhq/webagent/pkg/tokenizer"
	browsertools "github.com/entrhq/webagent/pkg/tools/browser"
)

const (
	version         = "0.1.0"
	shutdownTimeout = 10 * time.Second
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile  string
	Screenshots string
	Headed      bool
	ShowVersion bool
}

func main() {
	cli := parseFlags()

	if cli.ShowVersion {
		// Stdout belongs to the protocol only while serving.
		fmt.Printf("webagent v%s\n", version)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cli); err != nil {
		fmt.Fprintf(os.Stderr, "webagent: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

// parseFlags parses command line flags
func parseFlags() *CLIConfig {
	cli := &CLIConfig{}

	flag.StringVar(&cli.ConfigFile, "config", "", "Path to configuration file (YAML)")
	flag.StringVar(&cli.Screenshots, "screenshots", "", "Screenshot directory (overrides the configuration file)")
	flag.BoolVar(&cli.Headed, "headed", false, "Show the browser window")
	flag.BoolVar(&cli.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "webagent - browser automation over the Model Context Protocol\n\n")
		fmt.Fprintf(os.Stderr, "Usage: webagent [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nThe server speaks MCP on stdin and stdout; logs go to ~/.webagent/logs.\n")
	}

	flag.Parse()
	return cli
}

func loadConfig(cli *CLIConfig) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if cli.ConfigFile != "" {
		loaded, err := config.Load(cli.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cli.Screenshots != "" {
		cfg.Screenshots.Directory = cli.Screenshots
	}
	if cli.Headed {
		cfg.Browser.Headless = false
	}
	return cfg, cfg.Validate()
}

// run wires the components together and serves until ctx is done.
func run(ctx context.Context, cli *CLIConfig) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger("webagent")
	if err != nil {
		logger.Warnf("logging to stderr: %v", err)
	}
	defer logger.Close()
	logger.Infof("webagent v%s starting (log %s)", version, logger.LogPath())

	cleaner, err := retention.NewCleaner(cfg.Retention)
	if err != nil {
		return err
	}
	sweeper := retention.NewSweeper(cleaner, logger.Named("retention"))
	defer sweeper.Close()

	worker := ocr.NewWorker(func() (ocr.Recognizer, error) {
		return ocr.NewVisionRecognizer(os.Getenv(cfg.OCR.APIKeyEnv),
			ocr.WithModel(cfg.OCR.Model),
			ocr.WithBaseURL(cfg.OCR.BaseURL),
			ocr.WithMaxTokens(cfg.OCR.MaxTokens),
		)
	})
	defer func() {
		if err := worker.Release(); err != nil {
			logger.Warnf("releasing text recognition: %v", err)
		}
	}()

	tok, err := tokenizer.New()
	if err != nil {
		logger.Warnf("token counts will be estimated: %v", err)
	}

	manager := browser.NewManager(cfg, logger.Named("browser"))
	defer func() {
		// ctx is already cancelled here; give the browser its own deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := manager.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("browser shutdown: %v", err)
		}
	}()

	guard, err := newGuard(cfg)
	if err != nil {
		return err
	}
	logger.Debugf("screenshots may be saved under %s and %v", guard.WorkspaceDir(), guard.GetWhitelist())

	shots := browser.NewScreenshotter(cfg.Screenshots, worker, sweeper, logger.Named("screenshots"))
	toolset := browsertools.NewTools(browsertools.Deps{
		Manager:          manager,
		Screenshots:      shots,
		Tokenizer:        tok,
		MaxContentTokens: cfg.Content.MaxTokens,
		Guard:            guard,
	})

	srv := server.New("webagent", version, toolset, shots, logger.Named("server"))
	logger.Infof("serving %d tools on stdio", len(toolset))
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	logger.Infof("shutting down")
	return nil
}

// newGuard confines caller-chosen screenshot directories to the working
// directory, the screenshot directory and the configured extra directories.
func newGuard(cfg *config.Config) (*workspace.Guard, error) {
	guard, err := workspace.NewGuard(".")
	if err != nil {
		return nil, err
	}
	for _, dir := range append([]string{cfg.Screenshots.Directory}, cfg.Screenshots.AllowedDirs...) {
		if err := guard.AddWhitelist(dir); err != nil {
			return nil, err
		}
	}
	return guard, nil
}
