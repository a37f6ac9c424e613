package xform

import "github.com/h2oxi/pipecut/ir"

// Config carries pass-wide knobs, trimmed from refactoring.Config down to
// what this domain actually needs: there is no source text, file system,
// or selection here, only a verbosity switch and the type-inference
// fallback described in SPEC_FULL.md §10.2.
type Config struct {
	// Verbose, when true, also logs every clone/erase/port decision at
	// Info severity; errors, warnings and type-fallback notes are logged
	// either way.
	Verbose bool

	// FallbackType is used for a new stage port when the crossing
	// value's real type cannot be recovered locally (SPEC_FULL.md §11).
	FallbackType ir.DataType
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() *Config {
	return &Config{Verbose: false, FallbackType: ir.Signed32}
}

// Result is returned by Run for a single module, mirroring
// refactoring.Result's Log field.
type Result struct {
	// Log holds every diagnostic produced while transforming Module.
	Log *Log

	// Module is the original module key that was examined (and, on
	// success, split).
	Module ir.Key

	// NewModules holds the stage module keys created, in pipeline order,
	// starting with the original module (now acting as stage 0).
	NewModules []ir.Key
}
