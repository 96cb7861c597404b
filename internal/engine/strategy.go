package engine

import (
	"context"
	"fmt"

	"github.com/coilmev/frontrun/internal/evmtypes"
	"github.com/coilmev/frontrun/internal/gateway"
	"github.com/coilmev/frontrun/internal/profit"
	"github.com/coilmev/frontrun/internal/submit"
	"github.com/coilmev/frontrun/internal/tracequeue"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

// FrontrunStrategy simulates each observed transaction, evaluates
// profitability, decomposes a profitable
// trace into a CallQueue, and hands the queue to the submission planner
// to build an action. blockNumber is the only mutable per-tx state and is
// touched only from the engine's single serialized strategy goroutine, so
// it needs no lock.
type FrontrunStrategy struct {
	Gateway    *gateway.Gateway
	Oracle     *profit.Oracle
	Planner    *submit.Planner
	Signer     common.Address // the observed transaction's expected sender role is derived per-tx; this is the controlled actor
	Substitute common.Address // the batch-executor contract, or the actor's own EOA if none is deployed
	UseRelay   bool

	blockNumber *uint64
}

func (s *FrontrunStrategy) Process(ctx context.Context, tx evmtypes.Transaction) (any, error) {
	s.blockNumber = nil
	if tx.BlockNumber != nil && *tx.BlockNumber > 0 {
		parent := *tx.BlockNumber - 1
		s.blockNumber = &parent
	}

	if !s.Oracle.Accept(tx) {
		return nil, nil
	}

	blockTag := "latest"
	if s.blockNumber != nil {
		blockTag = fmt.Sprintf("0x%x", *s.blockNumber)
	}

	msg := ethereum.CallMsg{From: tx.From, To: tx.To, Data: tx.Input}
	if tx.Value != nil {
		msg.Value = tx.Value.ToBig()
	}

	log.Info("Simulate", "tx", tx.Hash, "block", blockTag)
	trace, err := s.Gateway.TraceCall(ctx, msg, blockTag)
	if err != nil {
		log.Warn("engine: trace_call failed", "tx", tx.Hash, "err", err)
		return nil, nil
	}

	profitAmt := s.Oracle.Evaluate(ctx, tx, *trace)
	if !profit.Valuable(profitAmt) {
		return nil, nil
	}

	if trace.StateDiff != nil {
		if acc, ok := (*trace.StateDiff)[tx.From]; ok && acc.Balance.IsChanged {
			log.Info("engine: sender balance diff", "tx", tx.Hash,
				"before", acc.Balance.From, "after", acc.Balance.To)
		}
	}
	if balance, err := s.Gateway.BalanceAt(ctx, s.Signer, nil); err == nil {
		log.Info("engine: opportunity", "tx", tx.Hash, "profit", profitAmt, "actorBalance", balance)
	} else {
		log.Info("engine: opportunity", "tx", tx.Hash, "profit", profitAmt)
	}

	queue := tracequeue.Decompose(*trace, s.Signer, s.Substitute)
	if len(queue) == 0 {
		return nil, nil
	}

	if s.UseRelay {
		header, err := s.Gateway.HeaderByNumber(ctx, nil)
		if err != nil {
			log.Warn("engine: header lookup failed", "tx", tx.Hash, "err", err)
			return nil, nil
		}
		bundles, err := s.Planner.PlanRelay(queue, header.Hash(), profitAmt)
		if err != nil {
			log.Warn("engine: relay plan unavailable, falling back is not configured", "tx", tx.Hash, "err", err)
			return nil, nil
		}
		return BundleAction(bundles), nil
	}

	return MempoolAction(s.Planner.PlanMempool(queue, profitAmt)), nil
}
