package links

import (
	"context"
	"sync"

	"github.com/onosproject/onos-lib-go/pkg/errors"
)

// MockedRedisStore is an in-memory Store
type MockedRedisStore struct {
	mu       sync.Mutex
	matrices map[string]LinkMatrix
}

func (s *MockedRedisStore) AddLinkMatrix(ctx context.Context, snapshotId string, matrix LinkMatrix) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.matrices == nil {
		s.matrices = make(map[string]LinkMatrix)
	}
	matrix.Links = append([]LinkRecord(nil), matrix.Links...)
	s.matrices[snapshotId] = matrix
	return nil
}

func (s *MockedRedisStore) GetLinkMatrix(ctx context.Context, snapshotId string) (LinkMatrix, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matrix, ok := s.matrices[snapshotId]
	if !ok {
		return LinkMatrix{}, errors.NewNotFound("link matrix for snapshot id %s does not exist", snapshotId)
	}
	return matrix, nil
}

func (s *MockedRedisStore) DeleteLinkMatrix(ctx context.Context, snapshotId string) (LinkMatrix, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matrix, ok := s.matrices[snapshotId]
	if !ok {
		return LinkMatrix{}, errors.NewNotFound("link matrix for snapshot id %s does not exist", snapshotId)
	}
	delete(s.matrices, snapshotId)
	return matrix, nil
}
