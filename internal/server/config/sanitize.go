// Package config defines the server configuration structure.
package config

import "strings"

// Sanitize returns a copy of the config with credential material masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	if len(cfg.Auth.Users) > 0 {
		users := make(map[string]string, len(cfg.Auth.Users))
		for name, password := range cfg.Auth.Users {
			users[name] = maskSecret(password)
		}
		sanitized.Auth.Users = users
	}

	if len(cfg.Auth.PrehashedUsers) > 0 {
		users := make(map[string]string, len(cfg.Auth.PrehashedUsers))
		for name, record := range cfg.Auth.PrehashedUsers {
			users[name] = maskSecret(record)
		}
		sanitized.Auth.PrehashedUsers = users
	}

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
