package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	latest    uint64
	latestErr error
	logs      []types.Log
	failAt    uint64
	failErr   error
	calls     []BlockRange
}

func (f *fakeSource) LatestBlockNumber(context.Context) (uint64, error) {
	return f.latest, f.latestErr
}

func (f *fakeSource) FilterLogs(_ context.Context, from, to uint64, _ []common.Address, _ []common.Hash) ([]types.Log, error) {
	f.calls = append(f.calls, BlockRange{From: from, To: to})
	if f.failErr != nil && from <= f.failAt && f.failAt <= to {
		return nil, f.failErr
	}
	var out []types.Log
	for _, l := range f.logs {
		if l.BlockNumber >= from && l.BlockNumber <= to {
			out = append(out, l)
		}
	}
	return out, nil
}

func logAt(block uint64, index uint) types.Log {
	return types.Log{BlockNumber: block, Index: index}
}

func TestScanWindowsAndOrder(t *testing.T) {
	src := &fakeSource{
		latest: 120000,
		logs: []types.Log{
			logAt(0, 0), logAt(50000, 0), logAt(50000, 1), logAt(50001, 0), logAt(100000, 3), logAt(100001, 0), logAt(120000, 0),
		},
	}

	logs, err := NewScanner(src, 50000, nil).Scan(context.Background(), Query{})
	require.NoError(t, err)

	assert.Equal(t, []BlockRange{{0, 50000}, {50001, 100000}, {100001, 120000}}, src.calls)
	assert.Equal(t, src.logs, logs, "every log exactly once, in block order")
}

func TestScanStartAfterLatest(t *testing.T) {
	src := &fakeSource{latest: 5}

	logs, err := NewScanner(src, 10, nil).Scan(context.Background(), Query{FromBlock: 9159573})
	require.NoError(t, err)
	assert.Empty(t, logs)
	assert.Empty(t, src.calls)
}

func TestScanFailsWholeScan(t *testing.T) {
	boom := errors.New("query returned more than 10000 results")
	src := &fakeSource{
		latest:  30,
		logs:    []types.Log{logAt(1, 0), logAt(25, 0)},
		failAt:  22,
		failErr: boom,
	}

	logs, err := NewScanner(src, 10, nil).Scan(context.Background(), Query{})
	require.ErrorIs(t, err, boom)
	assert.Nil(t, logs)
	assert.Equal(t, []BlockRange{{0, 10}, {11, 20}, {21, 30}}, src.calls, "no retry and no split of the failing window")
}

func TestScanLatestError(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")
	src := &fakeSource{latestErr: boom}

	_, err := NewScanner(src, 0, nil).Scan(context.Background(), Query{})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, src.calls)
}

func TestScanEachStopsEarly(t *testing.T) {
	src := &fakeSource{latest: 100, logs: []types.Log{logAt(15, 0), logAt(75, 0)}}

	var seen int
	err := NewScanner(src, 10, nil).ScanEach(context.Background(), Query{}, func(logs []types.Log) (bool, error) {
		seen += len(logs)
		return seen > 0, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, seen)
	assert.Equal(t, []BlockRange{{0, 10}, {11, 20}}, src.calls)
}

func TestScanHonoursCancellation(t *testing.T) {
	src := &fakeSource{latest: 100}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScanner(src, 9, nil).Scan(ctx, Query{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, src.calls)
}

func TestScanDefaultSpan(t *testing.T) {
	src := &fakeSource{latest: MaxBlockRange * 2}

	_, err := NewScanner(src, 0, nil).Scan(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, []BlockRange{{0, MaxBlockRange}, {MaxBlockRange + 1, MaxBlockRange * 2}}, src.calls)
}
