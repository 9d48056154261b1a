package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ovmscope/internal/model"
	"ovmscope/internal/roles"
)

func readLines(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []map[string]interface{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.jsonl")
	s := NewJsonlStorage(path)
	ctx := context.Background()

	require.NoError(t, s.PutDeployments(ctx, "hoodi", []model.Deployment{
		{Address: "0xA", Owner: "0xB", BlockNumber: 10},
	}))
	require.NoError(t, s.PutRoleRecords(ctx, "hoodi", "0xA", []model.RoleRecord{
		{Address: "0xC", Roles: roles.DecodeUint64(3), RolesValue: big.NewInt(3)},
	}))

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.Equal(t, "deployment", lines[0]["kind"])
	assert.Equal(t, "0xA", lines[0]["address"])
	assert.Equal(t, float64(10), lines[0]["blockNumber"])

	assert.Equal(t, "role", lines[1]["kind"])
	assert.Equal(t, "0xA", lines[1]["ovm"])
	record := lines[1]["record"].(map[string]interface{})
	assert.Equal(t, []interface{}{"WITHDRAWAL_ROLE", "CONSOLIDATION_ROLE"}, record["roles"])
}

func TestJsonlStorageEmptyBatchCreatesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	require.NoError(t, NewJsonlStorage(path).PutDeployments(context.Background(), "mainnet", nil))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

type failingSink struct{ calls int }

func (f *failingSink) PutDeployments(context.Context, string, []model.Deployment) error {
	f.calls++
	return errors.New("down")
}

func (f *failingSink) PutRoleRecords(context.Context, string, string, []model.RoleRecord) error {
	f.calls++
	return errors.New("down")
}

func TestMultiStopsAtFirstFailure(t *testing.T) {
	first := &failingSink{}
	second := &failingSink{}
	err := Multi{first, second}.PutDeployments(context.Background(), "mainnet", []model.Deployment{{Address: "0xA"}})
	require.Error(t, err)
	assert.Equal(t, 1, first.calls)
	assert.Zero(t, second.calls)
}
