package mocks

import (
	"context"

	"jobdash/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, drug string, limit int) ([]model.AdverseEvent, error) {
	args := m.Called(ctx, drug, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AdverseEvent), args.Error(1)
}
