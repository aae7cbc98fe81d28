package alert

import (
	"context"

	"github.com/huangsam/firewatch/internal/contract"
	"github.com/huangsam/firewatch/schema"
	"github.com/stretchr/testify/mock"
)

// MockAlertSink is a mock implementation of AlertSink for testing.
type MockAlertSink struct {
	mock.Mock
}

var _ contract.AlertSink = &MockAlertSink{} // Compile-time check

// Name implements the AlertSink interface.
func (m *MockAlertSink) Name() string {
	args := m.Called()
	return args.String(0)
}

// Send implements the AlertSink interface.
func (m *MockAlertSink) Send(ctx context.Context, deviceID string, verdict schema.RiskVerdict, message string) error {
	args := m.Called(ctx, deviceID, verdict, message)
	return args.Error(0)
}
