package runtime

import (
	"context"
	"time"

	"github.com/flyff-runtime/botcore/internal/logging"
)

const (
	logoutPanelWait = 3 * time.Second
	loginPollWait   = 15 * time.Second
	sessionPoll     = 300 * time.Millisecond
)

// Logout runs the logout break's OS-input macro (spec.md §9 Open Question,
// decided in DESIGN.md: "a single OS-input macro"): open the logout panel
// with the same escape-then-confirm dialog pattern movement.go used
// elsewhere, then wait for the telemetry-observable state change.
func (rt *Runtime) Logout(ctx context.Context) bool {
	widgets, ok := rt.Bot.Telemetry.Widgets(ctx)
	if ok && widgets.IsLogoutPanelOpen {
		rt.Bot.Input.Tap("enter", 80*time.Millisecond)
	} else {
		rt.Bot.Input.Tap("escape", 80*time.Millisecond)
		time.Sleep(200 * time.Millisecond)
		rt.Bot.Input.Tap("enter", 80*time.Millisecond)
	}

	deadline := time.Now().Add(logoutPanelWait)
	for time.Now().Before(deadline) {
		state, ok := rt.Bot.Telemetry.GameState(ctx)
		if ok && loggedOut(state) {
			logging.Info("runtime: logout confirmed")
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(sessionPoll):
		}
	}
	logging.Warn("runtime: logout not confirmed within timeout")
	return false
}

// Login runs the login break's OS-input macro: retrieve the vaulted
// credential and type it into the login form, then wait for the
// telemetry-observable logged-in state.
func (rt *Runtime) Login(ctx context.Context) bool {
	password, found, err := rt.Vault.Retrieve(rt.Profile.CredentialKey)
	if err != nil || !found {
		logging.Error("runtime: no vaulted credential for login", "credentialKey", rt.Profile.CredentialKey, "error", err)
		return false
	}

	rt.Bot.Input.TypeText(password, 40*time.Millisecond, 90*time.Millisecond)
	rt.Bot.Input.Tap("enter", 80*time.Millisecond)

	deadline := time.Now().Add(loginPollWait)
	for time.Now().Before(deadline) {
		state, ok := rt.Bot.Telemetry.GameState(ctx)
		if ok && loggedIn(state) {
			logging.Info("runtime: login confirmed")
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(sessionPoll):
		}
	}
	logging.Warn("runtime: login not confirmed within timeout")
	return false
}

// loggedIn/loggedOut read the loosely-typed /game_state map (spec.md §9:
// "no stronger contract is implied since the source does not implement
// consumers"), defaulting to false/true respectively if the key is absent.
func loggedIn(state map[string]interface{}) bool {
	v, ok := state["loggedIn"].(bool)
	return ok && v
}

func loggedOut(state map[string]interface{}) bool {
	v, ok := state["loggedIn"].(bool)
	return !ok || !v
}
