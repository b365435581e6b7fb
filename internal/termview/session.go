package termview

import (
	"context"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/ivlev/pixology/internal/editor"
	"github.com/ivlev/pixology/internal/logger"
	"github.com/ivlev/pixology/internal/renderer"
	"github.com/ivlev/pixology/internal/sequencer"
)

type reloadEvent struct{}

// Session runs interactive playback of a workspace in a View. The
// workspace must have been created with the view's Draw as its draw
// handler.
type Session struct {
	view      *View
	ws        *editor.Workspace
	animation string
	path      string
	log       *zap.Logger

	stopPlayer context.CancelFunc
	wg         sync.WaitGroup
}

type SessionOption func(*Session)

// WithAnimation picks the animation to play by name. The first one is
// used when empty or unknown.
func WithAnimation(name string) SessionOption {
	return func(s *Session) { s.animation = name }
}

// WithWatch reloads the project at path whenever the file changes.
func WithWatch(path string) SessionOption {
	return func(s *Session) { s.path = path }
}

func NewSession(view *View, ws *editor.Workspace, opts ...SessionOption) *Session {
	s := &Session{view: view, ws: ws}
	for _, opt := range opts {
		opt(s)
	}
	s.log = view.log
	return s
}

// Run blocks until the user quits or ctx is done.
func (s *Session) Run(ctx context.Context) error {
	if err := s.view.Init(); err != nil {
		return err
	}
	defer s.view.Close()
	ctx = logger.NewContext(ctx, s.log)

	go func() {
		<-ctx.Done()
		_ = s.view.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()
	if s.path != "" {
		go func() {
			err := Watch(ctx, s.path, DefaultDebounce, func() {
				_ = s.view.screen.PostEvent(tcell.NewEventInterrupt(reloadEvent{}))
			})
			if err != nil && ctx.Err() == nil {
				s.log.Warn("watch stopped", zap.Error(err))
			}
		}()
	}

	s.start(ctx)
	defer s.stop()

	for {
		switch ev := s.view.screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			s.view.screen.Sync()
			s.redraw()
		case *tcell.EventKey:
			if s.handleKey(ev) {
				return nil
			}
		case *tcell.EventInterrupt:
			if ctx.Err() != nil {
				return nil
			}
			if _, ok := ev.Data().(reloadEvent); ok {
				s.reload(ctx)
			}
		}
	}
}

func (s *Session) player() *sequencer.Player {
	return s.ws.Timeline().Player()
}

// start selects the animation and drives its player from a goroutine.
func (s *Session) start(ctx context.Context) {
	if s.ws.Mode() != editor.Animations {
		s.updateInfo()
		s.redraw()
		return
	}

	tl := s.ws.Timeline()
	if a := tl.FindByName(s.animation); a != nil {
		tl.Select(a.ID)
	} else {
		tl.First()
	}
	if err := tl.Play(); err != nil {
		s.view.SetMessage(err.Error())
	}
	s.updateInfo()
	s.redraw()

	pctx, cancel := context.WithCancel(ctx)
	s.stopPlayer = cancel
	p := s.player()
	interval := sequencer.FrameDuration(p.FPS()) / 2
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = p.Run(pctx, interval)
	}()
}

func (s *Session) stop() {
	if s.stopPlayer != nil {
		s.stopPlayer()
		s.stopPlayer = nil
	}
	s.wg.Wait()
}

func (s *Session) reload(ctx context.Context) {
	s.stop()
	if err := s.ws.OpenFile(s.path); err != nil {
		s.log.Warn("reload failed", zap.String("path", s.path), zap.Error(err))
		s.view.SetMessage(fmt.Sprintf("[!] не удалось перечитать: %v", err))
	} else {
		s.view.SetMessage("[*] проект обновлён")
	}
	s.start(ctx)
}

func (s *Session) updateInfo() {
	if s.ws.Mode() != editor.Animations {
		s.view.SetInfo(s.ws.Name(), 1, 0, false)
		return
	}
	p := s.player()
	s.view.SetInfo(s.ws.Name(), s.ws.Preview().Count(), p.FPS(), p.Playing())
}

func (s *Session) redraw() {
	if s.ws.Mode() != editor.Animations {
		s.view.Draw(renderer.RenderFrame(s.ws.Engine().Stack(), 1, false), 0)
		return
	}
	pv := s.ws.Preview()
	s.view.Draw(pv.Image(), pv.Index())
}

// handleKey reports whether the session should end.
func (s *Session) handleKey(ev *tcell.EventKey) bool {
	p := s.player()
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyLeft:
		p.Stop()
		p.Step(-1)
	case tcell.KeyRight:
		p.Stop()
		p.Step(1)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case ' ':
			if err := p.Toggle(); err != nil {
				s.view.SetMessage(err.Error())
			}
		case '+', '=':
			p.SetFPS(p.FPS() + 1)
		case '-':
			p.SetFPS(p.FPS() - 1)
		case 'o':
			skin := s.ws.Preview().OnionSkin()
			skin.Enabled = !skin.Enabled
			if skin.Prev == 0 && skin.Next == 0 {
				skin.Prev = 1
			}
			s.ws.SetOnionSkin(skin)
			if skin.Enabled {
				s.view.SetMessage("[*] луковая шелуха включена")
			} else {
				s.view.SetMessage("[*] луковая шелуха выключена")
			}
		}
	}
	s.updateInfo()
	s.redraw()
	return false
}
