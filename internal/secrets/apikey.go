package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// "Service" groups the app's secrets in the OS keychain.
	KeyringService = "waas-apply"
	apiKeyAccount  = "anthropic-api-key"
	apiKeyEnv      = "ANTHROPIC_API_KEY"
)

// GetAPIKey resolves the generation-service credential: keychain first, env
// fallback. The key is never written into persisted configuration.
func GetAPIKey() (string, error) {
	if pw, err := keyring.Get(KeyringService, apiKeyAccount); err == nil && strings.TrimSpace(pw) != "" {
		return strings.TrimSpace(pw), nil
	}

	if v := strings.TrimSpace(os.Getenv(apiKeyEnv)); v != "" {
		return v, nil
	}

	return "", errors.New("anthropic API key not found (store it with -set-key or export " + apiKeyEnv + ")")
}

func SetAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("api key is empty")
	}
	return keyring.Set(KeyringService, apiKeyAccount, strings.TrimSpace(key))
}

func DeleteAPIKey() error {
	return keyring.Delete(KeyringService, apiKeyAccount)
}
