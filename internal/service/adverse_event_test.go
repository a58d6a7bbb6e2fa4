package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"jobdash/internal/cache"
	"jobdash/internal/export"
	"jobdash/internal/model"
	"jobdash/internal/openfda"
	fdaMocks "jobdash/internal/openfda/mocks"
	"jobdash/internal/storage"
	storeMocks "jobdash/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleEvents() []model.AdverseEvent {
	return []model.AdverseEvent{
		{
			"receivedate":        "20240115",
			"serious":            "1",
			"patient.patientsex": "2",
			"patient.reaction":   []any{map[string]any{"reactionmeddrapt": "NAUSEA"}},
		},
	}
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("redis down")
}

func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("redis down")
}

func TestAdverseEventService_Drugs(t *testing.T) {
	svc := NewAdverseEventService(new(fdaMocks.MockFetcher), nil, time.Hour, nil, time.UTC)
	assert.Equal(t, openfda.Drugs(), svc.Drugs())
}

func TestAdverseEventService_Dashboard(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		drug         string
		limit        int
		setupMocks   func(m *fdaMocks.MockFetcher)
		wantErr      error
		wantWarnings []string
		wantSummary  bool
		wantEvents   int
	}{
		{
			name:  "happy path with default limit",
			drug:  " aspirin ",
			limit: 0,
			setupMocks: func(m *fdaMocks.MockFetcher) {
				m.On("Fetch", ctx, "aspirin", 100).Return(sampleEvents(), nil).Once()
			},
			wantSummary: true,
			wantEvents:  1,
		},
		{
			name:  "network failure becomes warning",
			drug:  "aspirin",
			limit: 10,
			setupMocks: func(m *fdaMocks.MockFetcher) {
				m.On("Fetch", ctx, "aspirin", 10).Return(nil, openfda.ErrNetwork).Once()
			},
			wantWarnings: []string{WarnNetwork},
		},
		{
			name:  "format failure becomes warning",
			drug:  "aspirin",
			limit: 10,
			setupMocks: func(m *fdaMocks.MockFetcher) {
				m.On("Fetch", ctx, "aspirin", 10).Return(nil, openfda.ErrFormat).Once()
			},
			wantWarnings: []string{WarnFormat},
		},
		{
			name:  "no data",
			drug:  "unobtainium",
			limit: 5,
			setupMocks: func(m *fdaMocks.MockFetcher) {
				m.On("Fetch", ctx, "unobtainium", 5).Return([]model.AdverseEvent{}, nil).Once()
			},
			wantWarnings: []string{WarnNoData},
		},
		{
			name:  "missing reactions skips summary",
			drug:  "aspirin",
			limit: 5,
			setupMocks: func(m *fdaMocks.MockFetcher) {
				m.On("Fetch", ctx, "aspirin", 5).Return([]model.AdverseEvent{{"receivedate": "20240101"}}, nil).Once()
			},
			wantWarnings: []string{WarnFields},
			wantEvents:   1,
		},
		{
			name:       "missing drug",
			drug:       "",
			setupMocks: func(m *fdaMocks.MockFetcher) {},
			wantErr:    ErrDrugRequired,
		},
		{
			name:       "limit too large",
			drug:       "aspirin",
			limit:      5000,
			setupMocks: func(m *fdaMocks.MockFetcher) {},
			wantErr:    openfda.ErrInvalidLimit,
		},
		{
			name:  "unexpected error",
			drug:  "aspirin",
			limit: 5,
			setupMocks: func(m *fdaMocks.MockFetcher) {
				m.On("Fetch", ctx, "aspirin", 5).Return(nil, context.Canceled).Once()
			},
			wantErr: context.Canceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(fdaMocks.MockFetcher)
			tt.setupMocks(m)
			svc := NewAdverseEventService(m, nil, time.Hour, nil, time.UTC)

			d, err := svc.Dashboard(ctx, tt.drug, tt.limit)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, d)
				m.AssertExpectations(t)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantWarnings, d.Warnings)
			assert.Equal(t, tt.wantSummary, d.Summary != nil)
			assert.Len(t, d.Events, tt.wantEvents)
			assert.NotNil(t, d.Columns)
			m.AssertExpectations(t)
		})
	}
}

func TestAdverseEventService_DashboardColumns(t *testing.T) {
	ctx := context.Background()
	m := new(fdaMocks.MockFetcher)
	m.On("Fetch", ctx, "aspirin", 100).Return(sampleEvents(), nil).Once()
	svc := NewAdverseEventService(m, nil, time.Hour, nil, time.UTC)

	d, err := svc.Dashboard(ctx, "aspirin", 0)

	require.NoError(t, err)
	assert.Equal(t, []string{"patient.patientsex", "patient.reaction", "receivedate", "serious"}, d.Columns)
	assert.Equal(t, []model.CountEntry{{Label: "NAUSEA", Count: 1}}, d.Summary.TopReactions)
}

func TestAdverseEventService_CachesSuccessfulFetches(t *testing.T) {
	ctx := context.Background()
	m := new(fdaMocks.MockFetcher)
	m.On("Fetch", ctx, "aspirin", 100).Return(sampleEvents(), nil).Once()
	m.On("Fetch", ctx, "ibuprofen", 100).Return(nil, openfda.ErrNetwork).Once()
	m.On("Fetch", ctx, "ibuprofen", 100).Return([]model.AdverseEvent{}, nil).Once()

	svc := NewAdverseEventService(m, cache.NewMemory(), time.Hour, nil, time.UTC)

	first, err := svc.Dashboard(ctx, "aspirin", 100)
	require.NoError(t, err)
	second, err := svc.Dashboard(ctx, "ASPIRIN", 0)
	require.NoError(t, err)
	assert.Equal(t, first.Summary, second.Summary)

	// failures are not memoized; empty successes are
	d, err := svc.Dashboard(ctx, "ibuprofen", 100)
	require.NoError(t, err)
	assert.Equal(t, []string{WarnNetwork}, d.Warnings)
	for i := 0; i < 2; i++ {
		d, err = svc.Dashboard(ctx, "ibuprofen", 100)
		require.NoError(t, err)
		assert.Equal(t, []string{WarnNoData}, d.Warnings)
	}

	m.AssertExpectations(t)
	m.AssertNumberOfCalls(t, "Fetch", 3)
}

func TestAdverseEventService_CacheFailureIsBypassed(t *testing.T) {
	ctx := context.Background()
	m := new(fdaMocks.MockFetcher)
	m.On("Fetch", ctx, "aspirin", 100).Return(sampleEvents(), nil).Twice()

	svc := NewAdverseEventService(m, failingCache{}, time.Hour, nil, time.UTC)

	for i := 0; i < 2; i++ {
		d, err := svc.Dashboard(ctx, "aspirin", 100)
		require.NoError(t, err)
		assert.NotNil(t, d.Summary)
	}
	m.AssertExpectations(t)
}

func TestAdverseEventService_Export(t *testing.T) {
	ctx := context.Background()

	t.Run("inline csv", func(t *testing.T) {
		m := new(fdaMocks.MockFetcher)
		m.On("Fetch", ctx, "aspirin", 100).Return([]model.AdverseEvent{{"receivedate": "20240115", "serious": "1"}}, nil).Once()
		svc := NewAdverseEventService(m, nil, time.Hour, nil, time.UTC)

		res, err := svc.Export(ctx, "aspirin", 0, export.CSV, false)

		require.NoError(t, err)
		assert.Equal(t, "adverse_event_data.csv", res.FileName)
		assert.Equal(t, "receivedate,serious\n20240115,1\n", string(res.Data))
	})

	t.Run("network error is returned", func(t *testing.T) {
		m := new(fdaMocks.MockFetcher)
		m.On("Fetch", ctx, "aspirin", 100).Return(nil, openfda.ErrNetwork).Once()
		svc := NewAdverseEventService(m, nil, time.Hour, nil, time.UTC)

		_, err := svc.Export(ctx, "aspirin", 0, export.JSON, false)
		assert.ErrorIs(t, err, openfda.ErrNetwork)
	})

	t.Run("archived xlsx", func(t *testing.T) {
		m := new(fdaMocks.MockFetcher)
		m.On("Fetch", ctx, "aspirin", 100).Return(sampleEvents(), nil).Once()
		mStore := new(storeMocks.MockStorage)
		var uploaded []byte
		mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "exports/") && strings.HasSuffix(key, "-adverse_event_data.xlsx")
		}), mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
			return opt.ContentType == export.XLSX.ContentType() && opt.Size > 0 && opt.FileName == "adverse_event_data.xlsx"
		})).Return(func(_ context.Context, key string, r io.Reader, _ storage.PutObjectOptions) storage.ObjectInfo {
			uploaded, _ = io.ReadAll(r)
			return storage.ObjectInfo{Key: key}
		}, nil).Once()
		mStore.On("PresignGet", ctx, mock.Anything, "adverse_event_data.xlsx", ArchiveLinkExpiry).Return("https://minio/exports/x", nil).Once()

		svc := NewAdverseEventService(m, nil, time.Hour, mStore, time.UTC)
		res, err := svc.Export(ctx, "aspirin", 0, export.XLSX, true)

		require.NoError(t, err)
		assert.True(t, res.Archived())
		assert.Equal(t, "https://minio/exports/x", res.URL)
		assert.Nil(t, res.Data)
		assert.True(t, bytes.HasPrefix(uploaded, []byte("PK")), "xlsx is a zip archive")
		mStore.AssertExpectations(t)
	})

	t.Run("presign failure rolls back upload", func(t *testing.T) {
		m := new(fdaMocks.MockFetcher)
		m.On("Fetch", ctx, "aspirin", 100).Return(sampleEvents(), nil).Once()
		mStore := new(storeMocks.MockStorage)
		var key string
		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { key = args.String(1) }).
			Return(storage.ObjectInfo{}, nil).Once()
		mStore.On("PresignGet", ctx, mock.Anything, mock.Anything, ArchiveLinkExpiry).Return("", errors.New("sign error")).Once()
		mStore.On("Delete", ctx, mock.MatchedBy(func(k string) bool { return k == key })).Return(nil).Once()

		svc := NewAdverseEventService(m, nil, time.Hour, mStore, time.UTC)
		_, err := svc.Export(ctx, "aspirin", 0, export.JSON, true)

		assert.EqualError(t, err, "presign failed: sign error")
		mStore.AssertExpectations(t)
	})
}
