package mocks

import (
	"context"

	"jobdash/internal/export"
	"jobdash/internal/model"
	"jobdash/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockApplicationService struct {
	mock.Mock
}

func (m *MockApplicationService) dashboard(args mock.Arguments) (*service.ApplicationDashboard, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ApplicationDashboard), args.Error(1)
}

func (m *MockApplicationService) Dashboard(ctx context.Context) (*service.ApplicationDashboard, error) {
	return m.dashboard(m.Called(ctx))
}

func (m *MockApplicationService) ExtractAndSave(ctx context.Context, form service.ExtractForm) (*service.ApplicationDashboard, error) {
	return m.dashboard(m.Called(ctx, form))
}

func (m *MockApplicationService) SaveEdits(ctx context.Context, edits []model.JobApplication) (*service.ApplicationDashboard, error) {
	return m.dashboard(m.Called(ctx, edits))
}

func (m *MockApplicationService) Delete(ctx context.Context, id int64) (*service.ApplicationDashboard, error) {
	return m.dashboard(m.Called(ctx, id))
}

func (m *MockApplicationService) Resume(ctx context.Context, id int64) (*service.ResumeFile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ResumeFile), args.Error(1)
}

func (m *MockApplicationService) Export(ctx context.Context, format export.Format, archive bool) (*service.ExportResult, error) {
	args := m.Called(ctx, format, archive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExportResult), args.Error(1)
}
