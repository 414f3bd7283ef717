// Package config defines the server configuration structure.
package config

import "time"

// Default configuration values.
const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 8080

	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second

	DefaultWorkerThreads            = 4
	DefaultMaxConcurrentConnections = 100

	DefaultMaxIdleConnections = 20
	DefaultIdleTimeout        = 30 * time.Second
	DefaultKeepAliveTimeout   = 60 * time.Second
	DefaultBufferSize         = 8192

	DefaultStaticDirectory = "static"
	DefaultIndexFile       = "index.html"

	DefaultThrottleRPS   = 5.0
	DefaultThrottleBurst = 10
	DefaultSweepInterval = 5 * time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Host:         DefaultHost,
			Port:         DefaultPort,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
		},
		Pool: PoolSection{
			WorkerThreads:            DefaultWorkerThreads,
			MaxConcurrentConnections: DefaultMaxConcurrentConnections,
		},
		Connection: ConnectionSection{
			MaxIdleConnections: DefaultMaxIdleConnections,
			IdleTimeout:        DefaultIdleTimeout,
			KeepAliveTimeout:   DefaultKeepAliveTimeout,
			BufferSize:         DefaultBufferSize,
		},
		Static: StaticSection{
			Enabled:          true,
			Directory:        DefaultStaticDirectory,
			IndexFile:        DefaultIndexFile,
			DirectoryListing: true,
		},
		Auth: AuthSection{
			Enabled:        false,
			ProtectedPaths: []string{"/admin"},
			ThrottleRPS:    DefaultThrottleRPS,
			ThrottleBurst:  DefaultThrottleBurst,
			SweepInterval:  DefaultSweepInterval,
		},
		Log: LogSection{
			Level:       DefaultLogLevel,
			Format:      DefaultLogFormat,
			LogRequests: true,
		},
	}
}
