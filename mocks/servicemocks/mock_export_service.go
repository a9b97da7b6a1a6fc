package servicemocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"flatfeed/internal/aggregate"
	"flatfeed/internal/domain"
	"flatfeed/internal/port"
	"flatfeed/internal/schema"
	"flatfeed/internal/service"
)

// MockExportService is a mock implementation of service.ExportService.
type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) ExportDelimited(ctx context.Context, w io.Writer, s *schema.Schema, opts service.ExportOptions) (*domain.RunSummary, error) {
	args := m.Called(ctx, w, s, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunSummary), args.Error(1)
}

func (m *MockExportService) ExportXLSX(ctx context.Context, w io.Writer, s *schema.Schema, opts service.ExportOptions) (*domain.RunSummary, error) {
	args := m.Called(ctx, w, s, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunSummary), args.Error(1)
}

func (m *MockExportService) Summarize(ctx context.Context, s *schema.Schema, opts service.ExportOptions) (*domain.RunSummary, map[string]aggregate.GroupStats, error) {
	args := m.Called(ctx, s, opts)
	var sum *domain.RunSummary
	if args.Get(0) != nil {
		sum = args.Get(0).(*domain.RunSummary)
	}
	var groups map[string]aggregate.GroupStats
	if args.Get(1) != nil {
		groups = args.Get(1).(map[string]aggregate.GroupStats)
	}
	return sum, groups, args.Error(2)
}

func (m *MockExportService) Upload(ctx context.Context, key string, body io.Reader, contentType string) (*port.UploadOutput, error) {
	args := m.Called(ctx, key, body, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.UploadOutput), args.Error(1)
}

func (m *MockExportService) PresignedURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}
