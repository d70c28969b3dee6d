package session

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipflow/sei/internal/failure"
)

func TestCircuitBreakerOpensAtThreshold(t *testing.T) {
	b := NewCircuitBreaker(3)

	require.NoError(t, b.Allow())
	assert.False(t, b.RecordFailure())
	assert.False(t, b.RecordFailure())
	require.NoError(t, b.Allow())
	assert.True(t, b.RecordFailure(), "third failure should open the breaker")

	err := b.Allow()
	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrCircuitOpen)
	assert.True(t, b.Open())

	b.RecordSuccess()
	assert.True(t, b.Open(), "success while open does not close the breaker")

	b.Reset()
	assert.NoError(t, b.Allow())
	assert.Equal(t, 0, b.Failures())
}

func TestCircuitBreakerSuccessResetsCount(t *testing.T) {
	b := NewCircuitBreaker(3)
	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	assert.Equal(t, 0, b.Failures())

	b.RecordFailure()
	b.RecordFailure()
	assert.NoError(t, b.Allow(), "two failures after a success should not trip")
}

func TestNewCircuitBreakerClampsThreshold(t *testing.T) {
	b := NewCircuitBreaker(0)
	assert.True(t, b.RecordFailure())
}

func TestBudgetCheck(t *testing.T) {
	b := NewBudget(map[string]int{ServiceDalle: 2})

	require.NoError(t, b.Check(ServiceDalle, 1))
	b.Add(ServiceDalle, 1)
	require.NoError(t, b.Check(ServiceDalle, 1))
	b.Add(ServiceDalle, 1)

	err := b.Check(ServiceDalle, 1)
	assert.ErrorIs(t, err, failure.ErrBudgetExceeded)

	assert.NoError(t, b.Check(ServiceClaude, 1_000_000), "no limit means unlimited")
}

func TestBudgetReport(t *testing.T) {
	b := NewBudget(nil)
	b.Add(ServiceClaude, 4000)
	b.Add(ServiceFirecrawl, 4)
	b.Add(ServiceDalle, 1)
	b.Add("mystery", 2)
	b.Add(ServiceClaude, 0)

	r := b.Report()
	require.Len(t, r.Services, 4)
	assert.Equal(t, ServiceClaude, r.Services[0].Service)

	want := map[string]string{
		ServiceClaude:    "0.016",
		ServiceDalle:     "0.08",
		ServiceFirecrawl: "0.04",
		"mystery":        "0.02",
	}
	for _, s := range r.Services {
		assert.True(t, s.CostUSD.Equal(decimal.RequireFromString(want[s.Service])), "%s cost %s", s.Service, s.CostUSD)
	}
	assert.True(t, r.TotalUSD.Equal(decimal.RequireFromString("0.156")), "total %s", r.TotalUSD)
}

func TestBudgetReportPrefersReportedSpend(t *testing.T) {
	b := NewBudget(nil)
	b.Add(ServiceClaude, 4000)
	b.AddSpend(ServiceClaude, 0.25)

	r := b.Report()
	require.Len(t, r.Services, 1)
	assert.True(t, r.Services[0].CostUSD.Equal(decimal.RequireFromString("0.25")))
	assert.Equal(t, 4000, r.Services[0].Units)
}

type fakeSwitch struct {
	enabled bool
	err     error
}

func (f fakeSwitch) PublishingEnabled() (bool, error) { return f.enabled, f.err }

func TestSessionKillSwitch(t *testing.T) {
	s := New(3, nil, fakeSwitch{enabled: true})
	assert.NoError(t, s.CheckPublish())

	s = New(3, nil, fakeSwitch{enabled: false})
	assert.ErrorIs(t, s.CheckPublish(), failure.ErrKillSwitch)

	s = New(3, nil, fakeSwitch{err: errors.New("db locked")})
	assert.ErrorIs(t, s.CheckKillSwitch(), failure.ErrKillSwitch)

	s = New(1, nil, nil)
	assert.NoError(t, s.CheckKillSwitch())
	s.Breaker.RecordFailure()
	assert.ErrorIs(t, s.CheckPublish(), failure.ErrCircuitOpen)
}
