// Package registry provides the central "glue" for the action system.
//
// The Registry maps action type names (e.g. "checkout") to their typed
// input definitions and to the compiled Go handlers that implement them.
// During application startup the registry is populated by the built-in
// action modules and then validated, so that a mismatch between an action's
// declared inputs and its Go input struct is a startup error rather than a
// mid-run surprise.
package registry
