// Package confloader provides the configuration loading mechanism.
//
// It uses Koanf for flexible configuration loading from multiple sources
// with priority: Env > File > Default. A fsnotify-based watcher reports
// config file changes so the embedder can apply runtime-adjustable
// settings (log level) without a restart.
package confloader
