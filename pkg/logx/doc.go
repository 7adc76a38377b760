// Package logx configures coopsched's structured logging.
//
// It is a small wrapper (logx.Logger) on top of zerolog that keeps:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - A zero-value Logger that is a safe no-op, so library packages can log
//     without forcing a logger on their callers
package logx
