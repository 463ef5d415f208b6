// Package vault implements the Credential Vault (SPEC_FULL.md §2 ADDED):
// stores the login break's account secret in the OS credential store
// instead of the JSON profile, keyed by profile name. Grounded on the
// goclaw repo's go-keyring usage pattern from the retrieval pack; nothing
// elsewhere in this tree's history automates login, so there is no
// existing secret handling to crib from.
package vault

import (
	"fmt"

	"github.com/zalando/go-keyring"
)

const serviceName = "botcore"

// Vault stores and retrieves the login secret for a named profile.
type Vault struct{}

// New builds a Vault. It holds no state; go-keyring talks to the OS
// credential store directly.
func New() *Vault {
	return &Vault{}
}

// Store saves password under the given credential key (Profile.CredentialKey).
func (v *Vault) Store(credentialKey, password string) error {
	if err := keyring.Set(serviceName, credentialKey, password); err != nil {
		return fmt.Errorf("vault: store %s: %w", credentialKey, err)
	}
	return nil
}

// Retrieve returns the password for credentialKey, or (false) if no secret
// is stored under that key.
func (v *Vault) Retrieve(credentialKey string) (string, bool, error) {
	password, err := keyring.Get(serviceName, credentialKey)
	if err == keyring.ErrNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("vault: retrieve %s: %w", credentialKey, err)
	}
	return password, true, nil
}

// Delete removes the stored secret for credentialKey, if any.
func (v *Vault) Delete(credentialKey string) error {
	err := keyring.Delete(serviceName, credentialKey)
	if err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("vault: delete %s: %w", credentialKey, err)
	}
	return nil
}
