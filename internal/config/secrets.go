package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

func secretsFilePath() string {
	dir := xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "secrets.json")
}

// fileSecrets keeps secrets in a 0600 JSON file shaped
// {"service": {"account": "value"}}.
type fileSecrets struct {
	path string
}

func (f fileSecrets) read() (map[string]map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}
	var secrets map[string]map[string]string
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("parsing secrets file: %w", err)
	}
	return secrets, nil
}

func (f fileSecrets) Get(service, account string) (string, error) {
	secrets, err := f.read()
	if err != nil {
		return "", fmt.Errorf("secrets not available: %w", err)
	}
	val, ok := secrets[service][account]
	if !ok {
		return "", fmt.Errorf("account %q not found in service %q", account, service)
	}
	return val, nil
}

func (f fileSecrets) Set(service, account, value string) error {
	secrets, _ := f.read()
	if secrets == nil {
		secrets = make(map[string]map[string]string)
	}
	if secrets[service] == nil {
		secrets[service] = make(map[string]string)
	}
	secrets[service][account] = value
	return f.write(secrets)
}

func (f fileSecrets) Delete(service, account string) error {
	secrets, err := f.read()
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	delete(secrets[service], account)
	return f.write(secrets)
}

func (f fileSecrets) write(secrets map[string]map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating secrets dir: %w", err)
	}
	out, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, out, 0o600)
}

// CLIToken returns the bearer token saved by `synk login`, or "" if none.
func CLIToken() string {
	tok, err := fileSecrets{path: secretsFilePath()}.Get(secretService, accountCLIToken)
	if err != nil {
		return ""
	}
	return tok
}

// SaveCLIToken stores the bearer token used by CLI commands.
func SaveCLIToken(token string) error {
	return fileSecrets{path: secretsFilePath()}.Set(secretService, accountCLIToken, token)
}

// ClearCLIToken removes the stored CLI token.
func ClearCLIToken() error {
	return fileSecrets{path: secretsFilePath()}.Delete(secretService, accountCLIToken)
}

// SetAPIKey stores the genai API key in the secrets file.
func SetAPIKey(key string) error {
	return fileSecrets{path: secretsFilePath()}.Set(secretService, accountAPIKey, key)
}
