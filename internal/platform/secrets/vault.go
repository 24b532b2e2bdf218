// Package secrets wraps Vault KV2 secret loading, adapted from
// packages/go-core/config's SecretManager.
package secrets

import (
	"fmt"

	"github.com/hashicorp/vault/api"
)

type Manager struct {
	client *api.Client
}

func NewManager(address, token string) (*Manager, error) {
	cfg := api.DefaultConfig()
	cfg.Address = address

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault client initialization failed: %w", err)
	}
	client.SetToken(token)

	return &Manager{client: client}, nil
}

func (m *Manager) GetSecret(path string) (map[string]interface{}, error) {
	secret, err := m.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret at %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("no data found at %s", path)
	}
	return secret.Data, nil
}

// GetKV2 reads from a KV v2 backend and unwraps the inner "data" envelope.
func (m *Manager) GetKV2(path string) (map[string]interface{}, error) {
	raw, err := m.GetSecret(path)
	if err != nil {
		return nil, err
	}
	data, ok := raw["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected data format at %s", path)
	}
	return data, nil
}

// String reads a key from a KV2 map, returning "" when absent or not a
// string, so callers can fall back to defaults/env vars uniformly.
func String(data map[string]interface{}, key string) string {
	v, ok := data[key].(string)
	if !ok {
		return ""
	}
	return v
}
