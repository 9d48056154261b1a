package indexer

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// LogSource is the slice of the chain client the scanner needs.
type LogSource interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// Query selects the logs to scan for.
type Query struct {
	Addresses []common.Address
	Topic0    []common.Hash
	FromBlock uint64
}

// Scanner walks [FromBlock, latest] in bounded windows.
type Scanner struct {
	source LogSource
	span   uint64
	logger *zap.Logger
}

// NewScanner builds a Scanner. A zero span falls back to MaxBlockRange.
func NewScanner(source LogSource, span uint64, logger *zap.Logger) *Scanner {
	if span == 0 {
		span = MaxBlockRange
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{source: source, span: span, logger: logger}
}

// Scan returns every matching log up to the latest block observed at call time.
// Any window failure fails the whole scan.
func (s *Scanner) Scan(ctx context.Context, q Query) ([]types.Log, error) {
	var out []types.Log
	err := s.ScanEach(ctx, q, func(logs []types.Log) (bool, error) {
		out = append(out, logs...)
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ScanEach hands each window's logs to fn in block order. fn may stop the walk early.
func (s *Scanner) ScanEach(ctx context.Context, q Query, fn func([]types.Log) (bool, error)) error {
	if s.source == nil {
		return fmt.Errorf("log source is nil")
	}

	latest, err := s.source.LatestBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("get latest block: %w", err)
	}

	windows := Windows(q.FromBlock, latest, s.span)
	for {
		blockRange, ok := windows.Next()
		if !ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		logs, err := s.source.FilterLogs(ctx, blockRange.From, blockRange.To, q.Addresses, q.Topic0)
		if err != nil {
			return fmt.Errorf("filter logs [%d,%d]: %w", blockRange.From, blockRange.To, err)
		}

		s.logger.Debug("window scanned",
			zap.Uint64("from", blockRange.From),
			zap.Uint64("to", blockRange.To),
			zap.Int("logs", len(logs)),
		)

		stop, err := fn(logs)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}
