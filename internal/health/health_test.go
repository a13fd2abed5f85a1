package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipflow/gateway/pkg/shipmodel"
)

type fakeRegistry struct {
	result map[shipmodel.Provider]bool
}

func (f *fakeRegistry) HealthCheckAll(ctx context.Context, correlationID string) map[shipmodel.Provider]bool {
	return f.result
}

func TestAggregate_AllHealthy(t *testing.T) {
	report := Aggregate(map[shipmodel.Provider]bool{shipmodel.ProviderA: true, shipmodel.ProviderB: true})
	assert.Equal(t, shipmodel.HealthHealthy, report.Status)
}

func TestAggregate_AllUnhealthy(t *testing.T) {
	report := Aggregate(map[shipmodel.Provider]bool{shipmodel.ProviderA: false, shipmodel.ProviderB: false})
	assert.Equal(t, shipmodel.HealthUnhealthy, report.Status)
}

func TestAggregate_Mixed(t *testing.T) {
	report := Aggregate(map[shipmodel.Provider]bool{shipmodel.ProviderA: true, shipmodel.ProviderB: false})
	assert.Equal(t, shipmodel.HealthDegraded, report.Status)
}

func TestAggregate_Empty(t *testing.T) {
	report := Aggregate(map[shipmodel.Provider]bool{})
	assert.Equal(t, shipmodel.HealthUnhealthy, report.Status)
}

func TestChecker_Check_NeverErrors(t *testing.T) {
	checker := NewChecker(&fakeRegistry{result: map[shipmodel.Provider]bool{shipmodel.ProviderA: true}})
	report := checker.Check(context.Background(), "corr-1")
	assert.Equal(t, shipmodel.HealthHealthy, report.Status)
}

func TestPoller_StartPopulatesLast(t *testing.T) {
	checker := NewChecker(&fakeRegistry{result: map[shipmodel.Provider]bool{shipmodel.ProviderA: true}})
	poller := NewPoller(checker, 10*time.Millisecond, nil)

	poller.Start(context.Background())
	defer poller.Stop()

	require.Eventually(t, func() bool {
		return poller.Last().Status == shipmodel.HealthHealthy
	}, time.Second, time.Millisecond)
}

func TestPoller_StartTwicePanics(t *testing.T) {
	checker := NewChecker(&fakeRegistry{result: map[shipmodel.Provider]bool{}})
	poller := NewPoller(checker, time.Hour, nil)
	poller.Start(context.Background())
	defer poller.Stop()

	assert.Panics(t, func() { poller.Start(context.Background()) })
}
