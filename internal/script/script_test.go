package script

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/ivlev/pixology/internal/config"
	"github.com/ivlev/pixology/internal/editor"
	"github.com/ivlev/pixology/internal/pixel"
)

func newWorkspace(mode editor.Mode) *editor.Workspace {
	cfg := config.Default()
	cfg.Width, cfg.Height = 8, 8
	cfg.Scale = 1
	return editor.New(cfg, mode, editor.WithName("script test"))
}

func TestDrawing(t *testing.T) {
	ws := newWorkspace(editor.Static)
	s := New(ws)
	defer s.Close()

	code := `
ok = px.line(0, 0, 0, 7, "#ff0000")
px.paint(7, 7, "#00f")
filled = px.fill(4, 4, "#00ff00")
top_left = px.pick(0, 0)
empty = px.pick(3, 3)
`
	if err := s.Run(context.Background(), "draw", code); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if s.Global("ok") != lua.LTrue {
		t.Error("line should report success")
	}
	if got := s.Global("top_left").String(); got != "#ff0000" {
		t.Errorf("pick(0,0) = %s", got)
	}
	if got, _ := ws.PickColor(7, 7); got != pixel.MustHex("#0000ff") {
		t.Errorf("paint(7,7) = %v", got)
	}
	if got, _ := ws.PickColor(3, 3); got != pixel.MustHex("#00ff00") {
		t.Errorf("fill should cover the empty region, got %v", got)
	}
	t.Logf("empty cell after fill: %s", s.Global("empty"))
}

func TestGuardReasonReturned(t *testing.T) {
	ws := newWorkspace(editor.Static)
	s := New(ws)
	defer s.Close()

	code := `
local id = px.layers()[1].id
px.toggle_locked(id)
ok, reason = px.paint(1, 1, "#ffffff")
`
	if err := s.Run(context.Background(), "guard", code); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.Global("ok") != lua.LFalse {
		t.Error("paint on a locked layer must fail")
	}
	if got := s.Global("reason").String(); got != "layer locked" {
		t.Errorf("reason = %q", got)
	}
	if !ws.IsEmpty() {
		t.Error("canvas changed despite the lock")
	}
}

func TestUndoRedo(t *testing.T) {
	ws := newWorkspace(editor.Static)
	s := New(ws)
	defer s.Close()

	code := `
px.stroke("#123456", {{0, 0}, {2, 2}, {2, 5}})
undone = px.undo()
`
	if err := s.Run(context.Background(), "undo", code); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !ws.IsEmpty() {
		t.Error("one undo should remove the whole stroke")
	}
	if err := s.Run(context.Background(), "redo", `px.redo()`); err != nil {
		t.Fatal(err)
	}
	if c, _ := ws.PickColor(2, 4); c != pixel.MustHex("#123456") {
		t.Errorf("redo lost the stroke, got %v", c)
	}
}

func TestLayers(t *testing.T) {
	ws := newWorkspace(editor.Static)
	s := New(ws)
	defer s.Close()

	code := `
new_id = px.add_layer()
px.rename_layer(new_id, "ink")
list = px.layers()
count = #list
top = list[1].name
active = list[1].active
`
	if err := s.Run(context.Background(), "layers", code); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n := s.Global("count"); n != lua.LNumber(2) {
		t.Errorf("count = %v", n)
	}
	if top := s.Global("top").String(); top != "ink" {
		t.Errorf("new layer should be on top and renamed, got %q", top)
	}
	if s.Global("active") != lua.LTrue {
		t.Error("new layer should be active")
	}
}

func TestAnimation(t *testing.T) {
	dir := t.TempDir()
	ws := newWorkspace(editor.Animations)
	s := New(ws, WithExportDir(dir))
	defer s.Close()

	code := `
px.paint(0, 0, "#ff0000")
px.add_frame()
px.paint(1, 1, "#00ff00")
third = px.add_frame()
px.paint(2, 2, "#0000ff")
walk = px.add_animation("walk", {1, 2, 3}, "pingpong")
sheet, err = px.export()
gif = px.gif("walk")
`
	if err := s.Run(context.Background(), "anim", code); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if n := s.Global("third"); n != lua.LNumber(3) {
		t.Errorf("third frame number = %v", n)
	}
	if ws.Rail().Len() != 3 {
		t.Errorf("frames = %d", ws.Rail().Len())
	}
	a := ws.Timeline().FindByName("walk")
	if a == nil {
		t.Fatal("animation walk not created")
	}
	if string(a.LoopMode) != "pingpong" || len(a.FrameRefs) != 3 {
		t.Errorf("animation = %+v", a)
	}

	sheet := s.Global("sheet").String()
	if !strings.Contains(sheet, "_spritesheet_3x1") {
		t.Errorf("sheet path = %q (err %s)", sheet, s.Global("err"))
	}
	for _, p := range []string{sheet, s.Global("gif").String()} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing export %s: %v", p, err)
		}
	}
}

func TestAnimationRefOutOfRange(t *testing.T) {
	ws := newWorkspace(editor.Animations)
	s := New(ws)
	defer s.Close()

	err := s.Run(context.Background(), "bad", `px.add_animation("run", {1, 5})`)
	if err == nil {
		t.Fatal("expected an error for frame 5 of 1")
	}
	t.Logf("error: %v", err)
	if ws.Timeline().FindByName("run") != nil {
		t.Error("failed animation should be removed")
	}
}

func TestSandbox(t *testing.T) {
	s := New(newWorkspace(editor.Static))
	defer s.Close()

	tests := []struct {
		name string
		code string
	}{
		{"io", `io.open("/etc/passwd")`},
		{"os", `os.execute("true")`},
		{"dofile", `dofile("x.lua")`},
		{"require", `require("os")`},
		{"bad color", `px.paint(0, 0, "#zzzzzz")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Run(context.Background(), tt.name, tt.code); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestTimeout(t *testing.T) {
	s := New(newWorkspace(editor.Static), WithTimeout(50*time.Millisecond))
	defer s.Close()

	err := s.Run(context.Background(), "loop", `while true do end`)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestRunFileAndSave(t *testing.T) {
	dir := t.TempDir()
	ws := newWorkspace(editor.Static)
	s := New(ws)
	defer s.Close()

	out := filepath.Join(dir, "art.yaml")
	script := filepath.Join(dir, "draw.lua")
	code := "px.paint(0, 0, '#abcdef')\nsaved, why = px.save('" + filepath.ToSlash(out) + "')\n"
	if err := os.WriteFile(script, []byte(code), 0644); err != nil {
		t.Fatal(err)
	}
	if err := s.RunFile(context.Background(), script); err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	if s.Global("saved") != lua.LTrue {
		t.Fatalf("save failed: %s", s.Global("why"))
	}
	if _, err := os.Stat(out); err != nil {
		t.Error(err)
	}
}

func TestClosed(t *testing.T) {
	s := New(newWorkspace(editor.Static))
	s.Close()
	if err := s.Run(context.Background(), "x", `x = 1`); !errors.Is(err, ErrStateClosed) {
		t.Errorf("expected ErrStateClosed, got %v", err)
	}
}
