package mocks

import (
	"context"

	"jobdash/internal/ner"
	"github.com/stretchr/testify/mock"
)

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, text string) ([]ner.Entity, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ner.Entity), args.Error(1)
}

func (m *MockExtractor) Name() string {
	return "mock"
}
