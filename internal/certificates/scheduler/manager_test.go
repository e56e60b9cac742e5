package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"event-system/feedback-portal/feedback-portal-backend/internal/certificates"
)

type MockSweepService struct {
	mock.Mock
}

func (m *MockSweepService) ListAutoSendTemplates(ctx context.Context) ([]certificates.CertificateTemplate, error) {
	args := m.Called(ctx)
	return args.Get(0).([]certificates.CertificateTemplate), args.Error(1)
}

func (m *MockSweepService) ProcessAutoSend(ctx context.Context, templateID string) (*certificates.SweepResult, error) {
	args := m.Called(ctx, templateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certificates.SweepResult), args.Error(1)
}

func TestSweepAllProcessesEveryTemplate(t *testing.T) {
	svc := new(MockSweepService)
	m := NewManager(svc, zap.NewNop(), "@every 1m", time.Minute)

	svc.On("ListAutoSendTemplates", mock.Anything).Return([]certificates.CertificateTemplate{
		{ID: "cert-1"},
		{ID: "cert-2"},
	}, nil)
	svc.On("ProcessAutoSend", mock.Anything, "cert-1").Return(&certificates.SweepResult{Processed: 2, Sent: 1}, nil)
	svc.On("ProcessAutoSend", mock.Anything, "cert-2").Return(&certificates.SweepResult{}, nil)

	m.sweepAll()
	svc.AssertExpectations(t)
}

func TestSweepAllContinuesPastFailures(t *testing.T) {
	svc := new(MockSweepService)
	m := NewManager(svc, zap.NewNop(), "", 0)

	svc.On("ListAutoSendTemplates", mock.Anything).Return([]certificates.CertificateTemplate{
		{ID: "cert-bad"},
		{ID: "cert-good"},
	}, nil)
	svc.On("ProcessAutoSend", mock.Anything, "cert-bad").Return(nil, errors.New("boom"))
	svc.On("ProcessAutoSend", mock.Anything, "cert-good").Return(&certificates.SweepResult{Processed: 1, Sent: 1}, nil)

	m.sweepAll()
	svc.AssertCalled(t, "ProcessAutoSend", mock.Anything, "cert-good")
}

func TestStartRejectsDoubleStart(t *testing.T) {
	svc := new(MockSweepService)
	m := NewManager(svc, zap.NewNop(), "@every 1h", time.Minute)

	assert.NoError(t, m.Start())
	assert.Error(t, m.Start())
	m.Stop()

	// Stop on a stopped manager is a no-op.
	m.Stop()
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	m := NewManager(new(MockSweepService), zap.NewNop(), "not a schedule", time.Minute)
	assert.Error(t, m.Start())
}
