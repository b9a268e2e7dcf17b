package core

// DebugMode is the default for hook order validation on new roots.
// WithHookChecks overrides it per root.
var DebugMode = true

// SetDebugMode changes the default for roots created afterwards.
func SetDebugMode(debug bool) {
	DebugMode = debug
}
