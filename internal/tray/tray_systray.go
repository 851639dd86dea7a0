//go:build systray

package tray

import (
	"context"

	"github.com/getlantern/systray"
)

type Systray struct {
	opts Options
}

func New(opts Options) App {
	return &Systray{opts: opts.withDefaults()}
}

func (s *Systray) Run(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		systray.Quit()
	}()
	systray.Run(func() {
		systray.SetTitle(s.opts.Title)
		systray.SetTooltip(s.opts.Title)
		if line := s.opts.statusLine(); line != "" {
			status := systray.AddMenuItem(line, "")
			status.Disable()
			systray.AddSeparator()
		}
		mQuit := systray.AddMenuItem("Quit", "Quit "+s.opts.Title)
		go func() {
			<-mQuit.ClickedCh
			s.opts.quit()
			systray.Quit()
		}()
	}, func() {
		close(done)
	})
	<-done
	return nil
}
