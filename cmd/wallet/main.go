// Package main is a one-shot wallet CLI.
//
// Usage:
//
//	wallet [-config wallet.yaml] status
//	wallet connect
//	wallet disconnect
//	wallet refresh
//	wallet send -to <address> -amount <amount>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"solana-wallet-lab/internal/app"
	"solana-wallet-lab/internal/config"
	"solana-wallet-lab/internal/logging"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	configPath := flag.String("config", os.Getenv("WALLET_CONFIG"), "Path to YAML config file")
	logLevel := flag.String("log-level", "warn", "Log level")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	cfg.Logging.Level = *logLevel
	// a one-shot CLI needs persistence to see a previous connect
	if cfg.Storage.Backend == config.StorageMemory {
		cfg.Storage.Backend = config.StorageBadger
		if cfg.Storage.BadgerDir == "" {
			cfg.Storage.BadgerDir = ".wallet"
		}
	}

	logger, err := logging.New(cfg.Logging.Level, logging.FormatDevelopment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: wallet [flags] status|connect|disconnect|refresh|send -to ADDR -amount N\n")
	flag.PrintDefaults()
}

func run(cfg *config.Config, logger *zap.Logger, cmd string, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer session.Close()

	if _, err := session.Wallet.Restore(ctx); err != nil {
		return err
	}

	switch cmd {
	case "status":
	case "connect":
		if _, err := session.Wallet.Connect(ctx); err != nil {
			return err
		}
		if err := session.Refresh(ctx); err != nil {
			logger.Warn("refresh incomplete", zap.Error(err))
		}
	case "disconnect":
		if err := session.Disconnect(ctx); err != nil {
			return err
		}
	case "refresh":
		if err := session.Refresh(ctx); err != nil {
			logger.Warn("refresh incomplete", zap.Error(err))
		}
	case "send":
		fs := flag.NewFlagSet("send", flag.ExitOnError)
		to := fs.String("to", "", "Recipient address")
		amount := fs.String("amount", "", "Amount in native units, e.g. 0.1")
		if err := fs.Parse(args); err != nil {
			return err
		}
		// the balance check needs a loaded balance
		if err := session.Refresh(ctx); err != nil {
			logger.Warn("refresh incomplete", zap.Error(err))
		}
		res, err := session.Send(ctx, *to, *amount)
		if err != nil {
			return err
		}
		return printJSON(res)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}

	return printJSON(struct {
		Wallet        interface{} `json:"wallet"`
		Notifications interface{} `json:"notifications,omitempty"`
	}{session.Snapshot(), session.Notifier.List()})
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
