// Package config defines the server configuration structure.
//
// Configuration is an immutable settings object supplied at construction:
// it is loaded once at startup (file + environment over defaults, see
// internal/infra/confloader), verified, and then only read. The single
// exception is the log level, which may be adjusted at runtime through
// the config watcher.
package config
