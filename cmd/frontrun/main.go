// Command frontrun runs the generalized frontrunning engine: it tails a
// node's pending-transaction feed, simulates each candidate
// through an isolated trace_call, and submits profitable replays either
// as a relay bundle or as plain mempool transactions.
package main

import (
	"fmt"
	"math/big"
	"net/http"
	"os"

	"github.com/coilmev/frontrun/contracts/arbitrage"
	"github.com/coilmev/frontrun/internal/config"
	"github.com/coilmev/frontrun/internal/engine"
	"github.com/coilmev/frontrun/internal/gateway"
	"github.com/coilmev/frontrun/internal/logging"
	"github.com/coilmev/frontrun/internal/profit"
	"github.com/coilmev/frontrun/internal/submit"
	"github.com/coilmev/frontrun/relay"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:   "frontrun",
		Usage:  "generalized frontrunning engine",
		Flags:  config.Flags,
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if err := logging.Init(log.LvlInfo, ""); err != nil {
		return err
	}

	cfg, err := config.FromContext(c)
	if err != nil {
		return err
	}

	ctx := c.Context

	httpGateway, err := gateway.Dial(ctx, cfg.HTTPRPCURL)
	if err != nil {
		return fmt.Errorf("dial %s: %w", cfg.HTTPRPCURL, err)
	}
	defer httpGateway.Close()

	useRelay := submit.SupportsRelay(cfg.ChainID)
	var relayClient *relay.Client
	if useRelay {
		relaySigningKey, err := crypto.GenerateKey()
		if err != nil {
			return fmt.Errorf("generate relay signing key: %w", err)
		}
		relayClient, err = relay.New(cfg.ChainID, relaySigningKey, &http.Client{})
		if err != nil {
			log.Warn("frontrun: relay unavailable, falling back to mempool mode", "err", err)
			useRelay = false
		} else if cfg.RelayURL != "" {
			relayClient.Endpoint = cfg.RelayURL
		}
	}

	actor := crypto.PubkeyToAddress(cfg.ActorKey.PublicKey)
	var batchContract *common.Address
	if cfg.Contract != nil {
		if _, err := arbitrage.NewArbitrage(*cfg.Contract, httpGateway.Backend()); err == nil {
			log.Info("frontrun: batch-executor contract bound", "address", cfg.Contract.Hex())
			batchContract = cfg.Contract
		} else {
			log.Warn("frontrun: batch-executor binding failed, submitting calls directly", "err", err)
		}
	}

	planner := &submit.Planner{ChainID: cfg.ChainID}
	if cfg.Priority != nil {
		planner.BidPercentage = cfg.Priority
	}

	strategy := &engine.FrontrunStrategy{
		Gateway:    httpGateway,
		Oracle:     profit.New(),
		Planner:    planner,
		Signer:     actor,
		Substitute: cfg.Substitute(),
		UseRelay:   useRelay,
	}

	e := engine.New(strategy)

	watcher := gateway.NewPendingTxWatcher(cfg.WSSRPCURL)
	e.AddCollector(engine.NewMempoolCollector(watcher, httpGateway))

	chainID := new(big.Int).SetUint64(cfg.ChainID)
	if useRelay {
		e.AddExecutor(&engine.RelayExecutor{
			Relay:    relayClient,
			Gateway:  httpGateway,
			Signer:   cfg.ActorKey,
			ChainID:  chainID,
			Contract: batchContract,
		})
	}
	e.AddExecutor(&engine.MempoolExecutor{
		Gateway: httpGateway,
		Signer:  cfg.ActorKey,
		ChainID: chainID,
	})

	log.Info("frontrun: starting", "chainId", cfg.ChainID, "relayMode", useRelay, "actor", actor.Hex())
	return e.Run(ctx)
}
