package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	internalcli "github.com/adyen/booksearch/internal/cli"
	"github.com/adyen/booksearch/internal/config"
	"github.com/adyen/booksearch/internal/driver"
	"github.com/adyen/booksearch/internal/pages"
	"github.com/adyen/booksearch/internal/storefront"
)

var version = "0.1.0"

// Exit codes of the check command
const (
	exitBookNotFound = 1
	exitError        = 2
)

// newLogger returns a console logger at debug level when verbose, a
// production JSON logger otherwise
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// buildServerDependencies creates all dependencies needed for the storefront
func buildServerDependencies(logger *zap.Logger) (internalcli.ServerDependencies, error) {
	var deps internalcli.ServerDependencies

	deps.ServerConfig = config.LoadServerConfig(os.Getenv)
	deps.Logger = logger

	home, err := storefront.NewHomeHandler()
	if err != nil {
		return deps, fmt.Errorf("failed to create home handler: %w", err)
	}
	deps.HomeHandler = storefront.LogRequests(logger, home)

	search, err := storefront.NewSearchHandler(storefront.DefaultCatalog())
	if err != nil {
		return deps, fmt.Errorf("failed to create search handler: %w", err)
	}
	deps.SearchHandler = storefront.LogRequests(logger, search)

	return deps, nil
}

// ServeCommand returns the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the fixture storefront",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log every request"},
		},
		Action: func(c *cli.Context) error {
			logger, err := newLogger(c.Bool("verbose"))
			if err != nil {
				return err
			}
			defer logger.Sync()

			deps, err := buildServerDependencies(logger)
			if err != nil {
				return err
			}
			return internalcli.RunServe(deps)
		},
	}
}

// buildCheckDependencies loads configuration from the environment and lets
// command line flags override it
func buildCheckDependencies(c *cli.Context, logger *zap.Logger) (internalcli.CheckDependencies, error) {
	var deps internalcli.CheckDependencies

	browserConfig, err := config.LoadBrowserConfig(os.Getenv)
	if err != nil {
		return deps, fmt.Errorf("invalid browser configuration: %w", err)
	}
	if c.IsSet("browser") {
		browserConfig.Name = c.String("browser")
	}
	if c.IsSet("remote-url") {
		browserConfig.RemoteURL = c.String("remote-url")
	}
	if c.IsSet("headless") {
		browserConfig.Headless = c.Bool("headless")
	}
	if c.IsSet("base-url") {
		browserConfig.BaseURL = c.String("base-url")
	}
	if c.IsSet("cache-size") {
		browserConfig.CacheSize = c.Int("cache-size")
	}
	if err := browserConfig.Validate(); err != nil {
		return deps, err
	}

	scenarioConfig := config.LoadScenarioConfig(os.Getenv)
	if c.IsSet("query") {
		scenarioConfig.Query = c.String("query")
	}
	if c.IsSet("metrics-file") {
		scenarioConfig.MetricsFile = c.String("metrics-file")
	}

	deps.BrowserConfig = browserConfig
	deps.ScenarioConfig = scenarioConfig
	deps.Logger = logger
	deps.OpenSession = driver.New
	return deps, nil
}

// CheckCommand returns the check command
func CheckCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Filter the storefront to books, search and verify the expected book is listed",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "browser", Aliases: []string{"b"}, Usage: "chrome, firefox, edge, safari, cdp or static"},
			&cli.StringFlag{Name: "remote-url", Usage: "WebDriver endpoint; runs the browser remotely"},
			&cli.BoolFlag{Name: "headless", Usage: "run without a visible window"},
			&cli.StringFlag{Name: "base-url", Usage: "storefront home page"},
			&cli.IntFlag{Name: "cache-size", Usage: "pages kept by the static browser"},
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "search keywords"},
			&cli.StringFlag{Name: "metrics-file", Usage: "write run metrics to this file in Prometheus text format"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "debug logging"},
		},
		Action: func(c *cli.Context) error {
			logger, err := newLogger(c.Bool("verbose"))
			if err != nil {
				return err
			}
			defer logger.Sync()

			deps, err := buildCheckDependencies(c, logger)
			if err != nil {
				return cli.Exit(err, exitError)
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := internalcli.RunCheck(ctx, deps)
			switch {
			case errors.Is(err, pages.ErrBookNotFound):
				return cli.Exit(err, exitBookNotFound)
			case err != nil:
				return cli.Exit(err, exitError)
			}

			fmt.Fprintf(c.App.Writer, "found %s among %d results (run %s)\n",
				result.Records[result.Match], len(result.Records), result.RunID)
			return nil
		},
	}
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: could not read .env: %v\n", err)
	}

	app := &cli.App{
		Name:    "booksearch",
		Usage:   "Check that a book search on the storefront lists the expected book",
		Version: version,
		Commands: []*cli.Command{
			CheckCommand(),
			ServeCommand(),
		},
	}

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}
}
