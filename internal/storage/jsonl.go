package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ovmscope/internal/model"
)

// JsonlStorage appends exported records to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

type deploymentLine struct {
	Kind    string `json:"kind"`
	Network string `json:"network"`
	model.Deployment
}

type roleLine struct {
	Kind    string           `json:"kind"`
	Network string           `json:"network"`
	OVM     string           `json:"ovm"`
	Record  model.RoleRecord `json:"record"`
}

// PutDeployments writes one line per deployment.
func (s *JsonlStorage) PutDeployments(_ context.Context, network string, deployments []model.Deployment) error {
	lines := make([]interface{}, 0, len(deployments))
	for _, d := range deployments {
		lines = append(lines, deploymentLine{Kind: "deployment", Network: network, Deployment: d})
	}
	return s.appendLines(lines)
}

// PutRoleRecords writes one line per role holder.
func (s *JsonlStorage) PutRoleRecords(_ context.Context, network, ovm string, records []model.RoleRecord) error {
	lines := make([]interface{}, 0, len(records))
	for _, r := range records {
		lines = append(lines, roleLine{Kind: "role", Network: network, OVM: ovm, Record: r})
	}
	return s.appendLines(lines)
}

func (s *JsonlStorage) appendLines(lines []interface{}) error {
	if len(lines) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range lines {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
