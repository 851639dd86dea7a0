package tray

import "context"

const defaultTitle = "Scheduler"

type App interface {
	Run(ctx context.Context) error
}

type Options struct {
	Title string
	// Address is shown as a disabled status line.
	Address string
	Quit    func()
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = defaultTitle
	}
	return o
}

// statusLine is empty when there is no address to show.
func (o Options) statusLine() string {
	if o.Address == "" {
		return ""
	}
	return "Listening on " + o.Address
}

func (o Options) quit() {
	if o.Quit != nil {
		o.Quit()
	}
}

type Noop struct{}

func NewNoop() App { return Noop{} }

func (Noop) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}
