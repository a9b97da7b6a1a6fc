package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"flatfeed/internal/domain"
	"flatfeed/internal/port"
)

// MockRecordStore is a mock implementation of port.RecordStore.
type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) Stream(ctx context.Context, source string) (port.RecordProvider, error) {
	args := m.Called(ctx, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(port.RecordProvider), args.Error(1)
}

// MockRecordProvider is a mock implementation of port.RecordProvider.
type MockRecordProvider struct {
	mock.Mock
}

func (m *MockRecordProvider) Next(ctx context.Context) (*domain.SourceRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SourceRecord), args.Error(1)
}

func (m *MockRecordProvider) Close() error {
	args := m.Called()
	return args.Error(0)
}
