//go:build !systray

package tray

// New returns a tray that only waits for cancellation; build with -tags
// systray for a real status icon.
func New(Options) App { return NewNoop() }
