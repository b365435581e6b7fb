// Package script runs Lua drawing scripts against an editor workspace.
//
// Scripts see a global table "px". Cell coordinates are 0-based (row, col)
// like the editor grid; frame numbers are 1-based like animation frame
// references. Colours are "#rrggbb" strings, "" meaning absent.
package script

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/ivlev/pixology/internal/editor"
	"github.com/ivlev/pixology/internal/logger"
)

const DefaultTimeout = 30 * time.Second

var (
	ErrStateClosed = errors.New("lua state is closed")
	ErrTimeout     = errors.New("lua script timed out")
)

// State is one sandboxed Lua interpreter bound to a workspace.
// gopher-lua states are single threaded; the mutex serialises callers.
type State struct {
	L  *lua.LState
	ws *editor.Workspace

	mu      sync.Mutex
	ctx     context.Context
	timeout time.Duration
	exports string
	log     *zap.Logger
	closed  bool
}

type Option func(*State)

// WithTimeout bounds one Run call. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(s *State) { s.timeout = d }
}

// WithExportDir is the directory px.export writes to when the script
// passes none.
func WithExportDir(dir string) Option {
	return func(s *State) { s.exports = dir }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *State) { s.log = l }
}

// New creates a state with only the safe standard libraries open and the
// px module installed.
func New(ws *editor.Workspace, opts ...Option) *State {
	s := &State{
		ws:      ws,
		ctx:     context.Background(),
		timeout: DefaultTimeout,
		exports: ".",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.OrNop(s.log).Named("script")

	s.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(s.L)
	sandbox(s.L)
	s.install()
	return s
}

func openSafeLibraries(L *lua.LState) {
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
}

// sandbox drops the base functions that reach the file system.
func sandbox(L *lua.LState) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// Run executes code. A script error carries the Lua position.
func (s *State) Run(ctx context.Context, name, code string) error {
	return s.exec(ctx, func() error {
		fn, err := s.L.Load(strings.NewReader(code), name)
		if err != nil {
			return err
		}
		s.L.Push(fn)
		return s.L.PCall(0, lua.MultRet, nil)
	})
}

// RunFile executes the script at path.
func (s *State) RunFile(ctx context.Context, path string) error {
	return s.exec(ctx, func() error { return s.L.DoFile(path) })
}

func (s *State) exec(ctx context.Context, fn func() error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStateClosed
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	s.ctx = ctx
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	start := time.Now()
	err = fn()
	s.L.SetTop(0)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	s.log.Debug("script finished", zap.Duration("took", time.Since(start)), zap.Error(err))
	return err
}

// Global exposes a global for tests and the CLI.
func (s *State) Global(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.L.Close()
		s.closed = true
	}
}
