package mocks

import (
	"context"

	"jobdash/internal/export"
	"jobdash/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockAdverseEventService struct {
	mock.Mock
}

func (m *MockAdverseEventService) Drugs() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockAdverseEventService) Dashboard(ctx context.Context, drug string, limit int) (*service.AdverseEventDashboard, error) {
	args := m.Called(ctx, drug, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AdverseEventDashboard), args.Error(1)
}

func (m *MockAdverseEventService) Export(ctx context.Context, drug string, limit int, format export.Format, archive bool) (*service.ExportResult, error) {
	args := m.Called(ctx, drug, limit, format, archive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExportResult), args.Error(1)
}
