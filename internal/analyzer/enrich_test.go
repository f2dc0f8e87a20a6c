package analyzer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"nexlyon/server/internal/models"
)

type MockNarrator struct {
	mock.Mock
}

func (m *MockNarrator) Insight(ctx context.Context, p models.Property, metrics models.Metrics) (string, error) {
	args := m.Called(p.ID)
	return args.String(0), args.Error(1)
}

func TestEnricher_CallsInScoreOrder(t *testing.T) {
	narrator := &MockNarrator{}
	var calls []int64
	record := func(args mock.Arguments) { calls = append(calls, args.Get(0).(int64)) }
	narrator.On("Insight", int64(2)).Return("BUY: strong discount", nil).Run(record).Once()
	narrator.On("Insight", int64(3)).Return("HOLD\nwatch the roof", nil).Run(record).Once()

	analyses := []models.PropertyAnalysis{
		analysis(1, 9.0, false),
		analysis(2, 6.0, true),
		analysis(3, 8.0, true),
	}

	e := NewEnricher(narrator, 0, MaxCandidates, logrus.New())
	n := e.Enrich(context.Background(), analyses)

	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{3, 2}, calls)
	assert.Empty(t, analyses[0].Metrics.AIInsight)
	assert.Equal(t, "BUY: strong discount", analyses[1].Metrics.AIInsight)
	assert.Equal(t, "HOLD\nwatch the roof", analyses[2].Metrics.AIInsight)
	narrator.AssertExpectations(t)
}

func TestEnricher_DelaySpacesCalls(t *testing.T) {
	narrator := &MockNarrator{}
	var mu sync.Mutex
	var stamps []time.Time
	narrator.On("Insight", mock.Anything).Return("ok", nil).Run(func(mock.Arguments) {
		mu.Lock()
		stamps = append(stamps, time.Now())
		mu.Unlock()
	})

	analyses := []models.PropertyAnalysis{
		analysis(1, 9.0, true),
		analysis(2, 8.0, true),
		analysis(3, 7.0, true),
	}

	delay := 20 * time.Millisecond
	e := NewEnricher(narrator, delay, MaxCandidates, logrus.New())
	start := time.Now()
	n := e.Enrich(context.Background(), analyses)
	elapsed := time.Since(start)

	assert.Equal(t, 3, n)
	// the first call goes out immediately, each later one waits a full delay
	assert.GreaterOrEqual(t, elapsed, 2*delay-2*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(stamps); i++ {
		assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), delay-time.Millisecond)
	}
}

func TestEnricher_AtMostFiveCalls(t *testing.T) {
	narrator := &MockNarrator{}
	narrator.On("Insight", mock.Anything).Return("ok", nil)

	var analyses []models.PropertyAnalysis
	for i := 0; i < 8; i++ {
		analyses = append(analyses, analysis(int64(i+1), float64(i+1), true))
	}

	e := NewEnricher(narrator, 0, 9, logrus.New())
	n := e.Enrich(context.Background(), analyses)

	assert.Equal(t, 5, n)
	narrator.AssertNumberOfCalls(t, "Insight", 5)
	assert.Empty(t, analyses[0].Metrics.AIInsight)
	assert.Equal(t, "ok", analyses[7].Metrics.AIInsight)
}

func TestEnricher_FailuresBecomePlaceholders(t *testing.T) {
	narrator := &MockNarrator{}
	narrator.On("Insight", int64(1)).Return("", errors.New("googleapi: Error 429: RESOURCE_EXHAUSTED"))
	narrator.On("Insight", int64(2)).Return("", errors.New("context deadline exceeded"))
	narrator.On("Insight", int64(3)).Return("   ", nil)

	analyses := []models.PropertyAnalysis{
		analysis(1, 9.0, true),
		analysis(2, 8.0, true),
		analysis(3, 7.0, true),
	}

	e := NewEnricher(narrator, 0, 5, logrus.New())
	n := e.Enrich(context.Background(), analyses)

	assert.Equal(t, 2, n)
	assert.Equal(t, quotaPlaceholder, analyses[0].Metrics.AIInsight)
	assert.Equal(t, "(AI unavailable: context deadline exceeded)", analyses[1].Metrics.AIInsight)
	assert.Empty(t, analyses[2].Metrics.AIInsight)
}

func TestEnricher_DisabledWithoutNarrator(t *testing.T) {
	analyses := []models.PropertyAnalysis{analysis(1, 9.0, true)}

	e := NewEnricher(nil, 0, 5, nil)

	assert.False(t, e.Enabled())
	assert.Equal(t, 0, e.Enrich(context.Background(), analyses))
	assert.Empty(t, analyses[0].Metrics.AIInsight)
}

func TestEnricher_StopsOnCancelledContext(t *testing.T) {
	narrator := &MockNarrator{}
	narrator.On("Insight", mock.Anything).Return("ok", nil)

	analyses := []models.PropertyAnalysis{
		analysis(1, 9.0, true),
		analysis(2, 8.0, true),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewEnricher(narrator, 0, 5, logrus.New())

	assert.Equal(t, 0, e.Enrich(ctx, analyses))
	narrator.AssertNotCalled(t, "Insight", mock.Anything)
}

func TestPlaceholder(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"status code", errors.New("Error 429: Too Many Requests"), quotaPlaceholder},
		{"quota word", errors.New("Quota exceeded for model"), quotaPlaceholder},
		{"grpc status", errors.New("RESOURCE_EXHAUSTED"), quotaPlaceholder},
		{"other", errors.New("connection refused"), "(AI unavailable: connection refused)"},
		{"truncated", errors.New(strings.Repeat("x", 200)), "(AI unavailable: " + strings.Repeat("x", 120) + ")"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Placeholder(tt.err))
		})
	}
}
