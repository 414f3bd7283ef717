// Package shutdown provides graceful shutdown for GateServe.
//
// This package handles process termination signals:
//
//   - Signal handling (SIGINT, SIGTERM)
//   - Timeout-based forced shutdown
//   - Cleanup callback registration
//   - Programmatic shutdown triggering
package shutdown
