package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arc-exchange/config"
	"arc-exchange/internal/adapter/storage/postgres"
	"arc-exchange/internal/app"
	"arc-exchange/internal/core/domain"
	"arc-exchange/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/urfave/cli"
)

var Version = "dev"

func main() {
	cliApp := cli.NewApp()
	cliApp.Name = "arcctl"
	cliApp.Usage = "Arc Exchange administration"
	cliApp.Version = Version
	cliApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "path to a config file",
			EnvVar: "ARC_CONFIG",
		},
	}

	cliApp.Commands = []cli.Command{
		migrateCMD,
		initCMD,
		simulateCMD,
		pruneAuditCMD,
		schemaCMD,
	}

	if err := cliApp.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	migrateCMD = cli.Command{
		Name:        "migrate",
		Usage:       "apply the database schema",
		Action:      withApp(migrateAction),
		Description: `Create every table and index. Safe to run repeatedly.`,
	}
	initCMD = cli.Command{
		Name:        "init",
		Usage:       "seed trading pairs and provision merchant wallets",
		Action:      withApp(initAction),
		Description: `Run the same initialization as POST /api/v1/system/initialize.`,
	}
	simulateCMD = cli.Command{
		Name:   "simulate",
		Usage:  "advance simulated prices",
		Action: withApp(simulateAction),
		Flags: []cli.Flag{
			cli.IntFlag{Name: "steps, n", Value: 1, Usage: "number of simulation steps"},
			cli.StringFlag{Name: "pair", Usage: "simulate a single pair, e.g. BTCUSDT"},
		},
		Description: `Advance prices, match resting limit orders and print the resulting quotes.`,
	}
	pruneAuditCMD = cli.Command{
		Name:   "prune-audit",
		Usage:  "delete old audit log entries",
		Action: withApp(pruneAuditAction),
		Flags: []cli.Flag{
			cli.DurationFlag{Name: "older-than", Value: 90 * 24 * time.Hour, Usage: "retention window"},
		},
	}
	schemaCMD = cli.Command{
		Name:   "schema",
		Usage:  "print the database schema",
		Action: schemaAction,
	}
)

type appAction func(ctx context.Context, c *cli.Context, a *app.App, log zerolog.Logger) error

func withApp(fn appAction) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.Load(c.GlobalString("config"))
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		log := logger.New(logger.Options{
			Level:  cfg.Log.Level,
			Pretty: cfg.Log.Pretty,
			Fields: map[string]string{"service": "arcctl", "cmd": c.Command.Name},
		})

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		return fn(ctx, c, a, log)
	}
}

func migrateAction(ctx context.Context, _ *cli.Context, a *app.App, log zerolog.Logger) error {
	if err := a.Migrate(ctx); err != nil {
		return err
	}
	log.Info().Msg("schema applied")
	return nil
}

func initAction(ctx context.Context, _ *cli.Context, a *app.App, log zerolog.Logger) error {
	if err := a.Migrate(ctx); err != nil {
		return err
	}
	res, err := a.System.Initialize(ctx)
	if err != nil {
		return err
	}
	log.Info().
		Int("pairs_created", res.PairsCreated).
		Int("pairs_simulated", res.PairsSimulated).
		Int("merchants_provisioned", res.MerchantsProvisioned).
		Msg("system initialized")
	return nil
}

func simulateAction(ctx context.Context, c *cli.Context, a *app.App, log zerolog.Logger) error {
	steps := c.Int("steps")
	if steps < 1 {
		return fmt.Errorf("steps must be positive")
	}

	if pair := c.String("pair"); pair != "" {
		for i := 0; i < steps; i++ {
			p, err := a.Market.SimulatePair(ctx, pair)
			if err != nil {
				return err
			}
			if _, err := a.Trading.MatchLimitOrders(ctx, p.Pair); err != nil {
				return err
			}
			fmt.Printf("%s\t%s\t%s%%\n", p.Pair, p.CurrentPrice.String(), p.PriceChange24h.StringFixed(2))
		}
		return nil
	}

	var pairs []domain.TradingPair
	for i := 0; i < steps; i++ {
		var err error
		if pairs, err = a.Market.SimulateAllPrices(ctx); err != nil {
			return err
		}
		for _, p := range pairs {
			if _, err := a.Trading.MatchLimitOrders(ctx, p.Pair); err != nil {
				log.Warn().Err(err).Str("pair", p.Pair).Msg("limit matching failed")
			}
		}
	}
	for _, p := range pairs {
		fmt.Printf("%s\t%s\t%s%%\n", p.Pair, p.CurrentPrice.String(), p.PriceChange24h.StringFixed(2))
	}
	log.Info().Int("steps", steps).Int("pairs", len(pairs)).Msg("simulation complete")
	return nil
}

func pruneAuditAction(ctx context.Context, c *cli.Context, a *app.App, _ zerolog.Logger) error {
	n, err := a.Audit.Prune(ctx, c.Duration("older-than"))
	if err != nil {
		return err
	}
	fmt.Printf("deleted %d audit entries\n", n)
	return nil
}

func schemaAction(_ *cli.Context) error {
	fmt.Println(postgres.Schema())
	return nil
}
