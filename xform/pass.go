package xform

import "github.com/h2oxi/pipecut/ir"

// Run is the pass entrypoint, grounded on refactoring.refactoringBase.Run:
// it discovers every barrier-containing module and rewrites each one in
// turn, returning one Result per module in discovery order. A module
// whose rewrite logs an Error leaves the system unmodified for that
// module; later modules are still attempted.
func Run(sys *ir.System, cfg *Config) []*Result {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	var results []*Result
	for _, mk := range Discover(sys) {
		results = append(results, Rewrite(sys, cfg, mk))
	}
	return results
}
