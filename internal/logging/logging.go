// Package logging configures the logr.Logger used across capacity-probe.
//
// All components log through logr (usually obtained with ctrl.LoggerFrom(ctx)),
// backed by zap. Log lines always go to stderr so that stdout only carries the
// probe result.
package logging

import (
	"io"
	"os"

	"github.com/go-logr/logr"
	"go.uber.org/zap/zapcore"
	ctrl "sigs.k8s.io/controller-runtime"
	crzap "sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// Verbosity levels passed to logger.V().
const (
	INFO  = 0
	DEBUG = 1
	TRACE = 2
)

// Options controls logger construction.
type Options struct {
	// Verbosity enables V(n) logs for every n <= Verbosity.
	Verbosity int
	// Development switches to the human-friendly console encoder.
	Development bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

// NewLogger builds a zap-backed logr.Logger.
func NewLogger(opts Options) logr.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	verbosity := opts.Verbosity
	if verbosity < 0 {
		verbosity = 0
	}

	zapOpts := crzap.Options{
		Development: opts.Development,
		DestWriter:  out,
		// zap levels are inverted relative to logr verbosity
		Level:       zapcore.Level(-verbosity),
		TimeEncoder: zapcore.ISO8601TimeEncoder,
	}
	return crzap.New(crzap.UseFlagOptions(&zapOpts))
}

// Setup builds a logger and installs it as the controller-runtime global logger.
func Setup(opts Options) logr.Logger {
	logger := NewLogger(opts)
	ctrl.SetLogger(logger)
	return logger
}
