package source

import (
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// Service name for the OS credential store
	credentialService = "mdserve"
	// Key for the remote-origin bearer token
	httpTokenKey = "http_bearer_token"
	// Environment override for headless environments without a keyring
	tokenEnvVar = "MDSERVE_HTTP_TOKEN"
)

// CredentialManager handles storage and retrieval of the bearer token used
// to authenticate against remote document origins. Tokens live in the OS
// credential store; the MDSERVE_HTTP_TOKEN environment variable overrides
// the store for CI and container deployments.
type CredentialManager struct {
	service string
}

// NewCredentialManager creates a credential manager instance.
func NewCredentialManager() *CredentialManager {
	return &CredentialManager{service: credentialService}
}

// StoreHTTPToken stores a bearer token in the OS credential store.
func (cm *CredentialManager) StoreHTTPToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("token cannot be empty")
	}
	if err := keyring.Set(cm.service, httpTokenKey, token); err != nil {
		return fmt.Errorf("failed to store token in credential store: %w", err)
	}
	return nil
}

// HTTPToken retrieves the stored bearer token. The environment override wins
// over the credential store when both are set.
func (cm *CredentialManager) HTTPToken() (string, error) {
	if token := strings.TrimSpace(os.Getenv(tokenEnvVar)); token != "" {
		return token, nil
	}

	token, err := keyring.Get(cm.service, httpTokenKey)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", fmt.Errorf("no HTTP token configured")
		}
		return "", fmt.Errorf("failed to retrieve token from credential store: %w", err)
	}
	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("stored token is empty")
	}
	return token, nil
}

// HasHTTPToken checks whether a token is available without returning it.
func (cm *CredentialManager) HasHTTPToken() bool {
	_, err := cm.HTTPToken()
	return err == nil
}

// DeleteHTTPToken removes the stored token. Deleting a missing token is not
// an error.
func (cm *CredentialManager) DeleteHTTPToken() error {
	err := keyring.Delete(cm.service, httpTokenKey)
	if err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("failed to delete token from credential store: %w", err)
	}
	return nil
}

// AuthHeaders builds the auth header map for a FileSource, or nil when no
// token is configured.
func (cm *CredentialManager) AuthHeaders() map[string]string {
	token, err := cm.HTTPToken()
	if err != nil {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + token}
}
