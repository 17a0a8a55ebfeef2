// internal/config/json.go
package config

import (
	"encoding/json"
	"os"
	"time"
)

type clientJSON struct {
	Address  *string `json:"address"`
	Username *string `json:"username"`
	Password *string `json:"password"`
	Timeout  *string `json:"timeout"` // "10s"
}

func loadClientJSON(path string) (*clientJSON, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c clientJSON
	return &c, json.Unmarshal(b, &c)
}

func parseDurationSeconds(s string) (int, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return int(d / time.Second), nil
}
