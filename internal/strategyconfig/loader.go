package strategyconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML rules file and returns the parsed config together
// with the raw bytes for audit storage.
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드는 즉시 에러

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, data, fmt.Errorf("rules file %s: %w", path, err)
	}

	return &cfg, data, nil
}

// Hash fingerprints the parsed config for decision audit rows.
// 주의: map 대신 struct 직렬화라 키 순서가 결정적이다
func Hash(cfg *Config) (string, error) {
	canonical, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize rules: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
