package humanize

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/flyff-runtime/botcore/internal/geometry"
)

func newHumanizerForTest() *Humanizer {
	cfg := Config{
		IdleBreakFreqMin: time.Minute, IdleBreakFreqMax: 2 * time.Minute,
		IdleBreakDurMin: time.Second, IdleBreakDurMax: 2 * time.Second,
		LogoutBreakFreqMin: time.Minute, LogoutBreakFreqMax: 2 * time.Minute,
		LogoutBreakDurMin: time.Second, LogoutBreakDurMax: 2 * time.Second,
		IdleMicroFreqMin: time.Second, IdleMicroFreqMax: 2 * time.Second,
	}
	return New(cfg, nil, geometry.NewBounds(0, 0, 800, 600))
}

func TestRecordActionIncrementsAndClampsFatigue(t *testing.T) {
	h := newHumanizerForTest()
	for i := 0; i < 2000; i++ {
		h.RecordAction()
	}
	assert.LessOrEqual(t, h.Fatigue(), 1.0)
	assert.Equal(t, 1.0, h.Fatigue())
}

func TestResetFatigueZeroes(t *testing.T) {
	h := newHumanizerForTest()
	h.RecordAction()
	h.RecordAction()
	assert.Greater(t, h.Fatigue(), 0.0)
	h.ResetFatigue()
	assert.Equal(t, 0.0, h.Fatigue())
}

func TestPostActionDelayScalesWithFatigue(t *testing.T) {
	h := newHumanizerForTest()
	for i := 0; i < 1000; i++ {
		h.RecordAction()
	}
	base := 1 * time.Millisecond
	delay := h.PostActionDelay(base)
	assert.Greater(t, delay, base) // 1+0.5*fatigue > 1 whenever fatigue > 0
}

func TestSchedulePendingLogoutPreemptsIdle(t *testing.T) {
	h := newHumanizerForTest()
	h.schedulePending(IdleBreak, time.Second)
	h.schedulePending(LogoutBreak, 2*time.Second)

	pb, ok := h.PollPendingBreak()
	assert.True(t, ok)
	assert.Equal(t, LogoutBreak, pb.Kind)
}

func TestPollPendingBreakEmptyWhenNoneScheduled(t *testing.T) {
	h := newHumanizerForTest()
	_, ok := h.PollPendingBreak()
	assert.False(t, ok)
}

func TestRandomIntervalScheduleStaysWithinBounds(t *testing.T) {
	s := randomIntervalSchedule{min: time.Minute, max: 3 * time.Minute, rng: rand.New(rand.NewSource(1))}
	now := time.Unix(0, 0)
	for i := 0; i < 50; i++ {
		next := s.Next(now)
		delta := next.Sub(now)
		assert.GreaterOrEqual(t, delta, time.Minute)
		assert.LessOrEqual(t, delta, 3*time.Minute)
	}
}

func TestIdleMicroActionDueRedrawsThreshold(t *testing.T) {
	h := newHumanizerForTest()
	h.mu.Lock()
	h.lastActionAt = time.Now().Add(-10 * time.Second)
	h.idleMicroThreshold = time.Second
	h.mu.Unlock()

	assert.True(t, h.IdleMicroActionDue())
	// Immediately after firing, the threshold was redrawn and the clock
	// reset, so it should not be due again right away.
	assert.False(t, h.IdleMicroActionDue())
}
