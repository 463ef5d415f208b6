package runtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/flyff-runtime/botcore/internal/botcore"
	"github.com/flyff-runtime/botcore/internal/config"
	"github.com/flyff-runtime/botcore/internal/fsm"
	"github.com/flyff-runtime/botcore/internal/pathfind"
)

func TestVarianceFromProfile(t *testing.T) {
	assert.Equal(t, pathfind.Conservative, varianceFromProfile(config.VarianceConservative))
	assert.Equal(t, pathfind.Aggressive, varianceFromProfile(config.VarianceAggressive))
	assert.Equal(t, pathfind.Moderate, varianceFromProfile(config.VarianceModerate))
	assert.Equal(t, pathfind.Moderate, varianceFromProfile(config.VarianceLevel("unknown")))
}

func TestHumanizeConfigConvertsMinutesAndSeconds(t *testing.T) {
	h := config.Humanization{
		IdleBreakFreqMinMinutes:   5,
		IdleBreakFreqMaxMinutes:   10,
		IdleBreakDurMinMinutes:    1,
		IdleBreakDurMaxMinutes:    3,
		LogoutBreakFreqMinMinutes: 60,
		LogoutBreakFreqMaxMinutes: 120,
		LogoutBreakDurMinMinutes:  5,
		LogoutBreakDurMaxMinutes:  15,
		IdleMicroFreqMinSeconds:   30,
		IdleMicroFreqMaxSeconds:   90,
	}
	cfg := humanizeConfig(h)
	assert.Equal(t, 5*time.Minute, cfg.IdleBreakFreqMin)
	assert.Equal(t, 10*time.Minute, cfg.IdleBreakFreqMax)
	assert.Equal(t, 60*time.Minute, cfg.LogoutBreakFreqMin)
	assert.Equal(t, 30*time.Second, cfg.IdleMicroFreqMin)
	assert.Equal(t, 90*time.Second, cfg.IdleMicroFreqMax)
}

func TestStartingStateByMode(t *testing.T) {
	assert.Equal(t, fsm.Combat, startingState(botcore.ModeCombat))
	assert.Equal(t, fsm.Gathering, startingState(botcore.ModeGathering))
}

func TestLoggedInRequiresTrueFlag(t *testing.T) {
	assert.True(t, loggedIn(map[string]interface{}{"loggedIn": true}))
	assert.False(t, loggedIn(map[string]interface{}{"loggedIn": false}))
	assert.False(t, loggedIn(map[string]interface{}{}))
	assert.False(t, loggedIn(nil))
}

func TestLoggedOutDefaultsTrueWhenFlagMissing(t *testing.T) {
	assert.True(t, loggedOut(map[string]interface{}{}))
	assert.True(t, loggedOut(nil))
	assert.False(t, loggedOut(map[string]interface{}{"loggedIn": true}))
	assert.True(t, loggedOut(map[string]interface{}{"loggedIn": false}))
}
