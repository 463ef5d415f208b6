package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zalando/go-keyring"
)

// MockInit swaps go-keyring's OS-backed provider for an in-memory one, so
// these tests exercise Vault's error wrapping and not-found handling
// without touching a real credential store.
func TestMain(m *testing.M) {
	keyring.MockInit()
	m.Run()
}

func TestStoreAndRetrieveRoundTrip(t *testing.T) {
	v := New()
	assert.NoError(t, v.Store("profile-a", "hunter2"))

	got, found, err := v.Retrieve("profile-a")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "hunter2", got)
}

func TestRetrieveMissingKeyReturnsNotFound(t *testing.T) {
	v := New()
	_, found, err := v.Retrieve("nonexistent-profile")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteRemovesSecret(t *testing.T) {
	v := New()
	assert.NoError(t, v.Store("profile-b", "secret"))
	assert.NoError(t, v.Delete("profile-b"))

	_, found, err := v.Retrieve("profile-b")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteMissingKeyIsNotAnError(t *testing.T) {
	v := New()
	assert.NoError(t, v.Delete("never-stored"))
}

func TestStoreOverwritesExistingSecret(t *testing.T) {
	v := New()
	assert.NoError(t, v.Store("profile-c", "first"))
	assert.NoError(t, v.Store("profile-c", "second"))

	got, found, err := v.Retrieve("profile-c")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "second", got)
}
