package providers

import "github.com/shipflow/gateway/internal/obslog"

// nopLogger returns a logger that discards everything, shared by this
// package's test files so each one doesn't need its own throwaway helper.
func nopLogger() *obslog.Logger {
	return obslog.Nop()
}
