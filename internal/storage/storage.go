package storage

import (
	"context"

	"ovmscope/internal/model"
)

// Sink receives query results for export. Queries never read back from a sink.
type Sink interface {
	PutDeployments(ctx context.Context, network string, deployments []model.Deployment) error
	PutRoleRecords(ctx context.Context, network, ovm string, records []model.RoleRecord) error
}

// Multi writes to every sink in order and stops at the first failure.
type Multi []Sink

func (m Multi) PutDeployments(ctx context.Context, network string, deployments []model.Deployment) error {
	for _, s := range m {
		if err := s.PutDeployments(ctx, network, deployments); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) PutRoleRecords(ctx context.Context, network, ovm string, records []model.RoleRecord) error {
	for _, s := range m {
		if err := s.PutRoleRecords(ctx, network, ovm, records); err != nil {
			return err
		}
	}
	return nil
}
