package script

import (
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/ivlev/pixology/internal/editor"
	"github.com/ivlev/pixology/internal/pixel"
	"github.com/ivlev/pixology/internal/raster"
	"github.com/ivlev/pixology/internal/sequencer"
	"github.com/ivlev/pixology/internal/video"
)

const moduleName = "px"

func (s *State) install() {
	mod := s.L.SetFuncs(s.L.NewTable(), map[string]lua.LGFunction{
		"width":    s.width,
		"height":   s.height,
		"mode":     s.mode,
		"set_mode": s.setMode,
		"name":     s.name,
		"set_name": s.setName,
		"log":      s.logMsg,

		"paint":  s.paint,
		"erase":  s.erase,
		"line":   s.line,
		"stroke": s.stroke,
		"fill":   s.fill,
		"pick":   s.pick,
		"undo":   s.undo,
		"redo":   s.redo,

		"layers":         s.layers,
		"add_layer":      s.addLayer,
		"select_layer":   s.selectLayer,
		"toggle_visible": s.layerOp(s.ws.ToggleVisible),
		"toggle_locked":  s.layerOp(s.ws.ToggleLocked),
		"delete_layer":   s.layerOp(s.ws.DeleteLayer),
		"rename_layer":   s.renameLayer,
		"move_layer":     s.moveLayer,

		"frames":       s.frames,
		"add_frame":    s.addFrame,
		"select_frame": s.selectFrame,
		"remove_frame": s.removeFrame,

		"add_animation": s.addAnimation,
		"animations":    s.animations,

		"export": s.export,
		"gif":    s.gif,
		"save":   s.save,
	})
	s.L.SetGlobal(moduleName, mod)
}

// checkColor reads a colour argument. Absent means erase.
func checkColor(L *lua.LState, n int) pixel.Color {
	c, err := pixel.ParseHex(L.OptString(n, ""))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return c
}

func checkCell(L *lua.LState, n int) [2]int {
	return [2]int{L.CheckInt(n), L.CheckInt(n + 1)}
}

// pushResult returns (ok) or (false, reason) to the script.
func pushResult(L *lua.LState, ok bool, err error) int {
	L.Push(lua.LBool(ok && err == nil))
	if err != nil {
		L.Push(lua.LString(err.Error()))
		return 2
	}
	return 1
}

func (s *State) width(L *lua.LState) int {
	L.Push(lua.LNumber(s.ws.Width()))
	return 1
}

func (s *State) height(L *lua.LState) int {
	L.Push(lua.LNumber(s.ws.Height()))
	return 1
}

func (s *State) mode(L *lua.LState) int {
	L.Push(lua.LString(s.ws.Mode()))
	return 1
}

func (s *State) setMode(L *lua.LState) int {
	m, err := editor.ParseMode(L.CheckString(1))
	if err != nil {
		L.ArgError(1, err.Error())
	}
	s.ws.SetMode(m)
	return 0
}

func (s *State) name(L *lua.LState) int {
	L.Push(lua.LString(s.ws.Name()))
	return 1
}

func (s *State) setName(L *lua.LState) int {
	s.ws.SetName(L.CheckString(1))
	return 0
}

func (s *State) logMsg(L *lua.LState) int {
	s.log.Info(L.CheckString(1), zap.String("workspace", s.ws.Name()))
	return 0
}

func (s *State) paint(L *lua.LState) int {
	cell := checkCell(L, 1)
	ok, err := s.ws.Paint(cell[0], cell[1], checkColor(L, 3))
	return pushResult(L, ok, err)
}

func (s *State) erase(L *lua.LState) int {
	cell := checkCell(L, 1)
	ok, err := s.ws.Erase(cell[0], cell[1])
	return pushResult(L, ok, err)
}

// line(r0, c0, r1, c1, color)
func (s *State) line(L *lua.LState) int {
	from, to := checkCell(L, 1), checkCell(L, 3)
	ok, err := s.ws.Stroke(checkColor(L, 5), from, to)
	return pushResult(L, ok, err)
}

// stroke(color, {{r, c}, {r, c}, ...}) draws one polyline as a single undo step.
func (s *State) stroke(L *lua.LState) int {
	c := checkColor(L, 1)
	tbl := L.CheckTable(2)
	points := make([][2]int, 0, tbl.Len())
	for i := 1; i <= tbl.Len(); i++ {
		pt, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok {
			L.ArgError(2, "points must be {row, col} pairs")
		}
		r, rok := pt.RawGetInt(1).(lua.LNumber)
		col, cok := pt.RawGetInt(2).(lua.LNumber)
		if !rok || !cok {
			L.ArgError(2, "points must be {row, col} pairs")
		}
		points = append(points, [2]int{int(r), int(col)})
	}
	ok, err := s.ws.Stroke(c, points...)
	return pushResult(L, ok, err)
}

// fill(row, col, color [, {tolerance=, contiguous=, all_layers=}])
func (s *State) fill(L *lua.LState) int {
	cell := checkCell(L, 1)
	c := checkColor(L, 3)
	opts := raster.DefaultFill
	if t := L.OptTable(4, nil); t != nil {
		if v, ok := t.RawGetString("tolerance").(lua.LNumber); ok {
			opts.Tolerance = float64(v)
		}
		if v, ok := t.RawGetString("contiguous").(lua.LBool); ok {
			opts.Contiguous = bool(v)
		}
		if v, ok := t.RawGetString("all_layers").(lua.LBool); ok {
			opts.SampleAllLayers = bool(v)
		}
	}
	ok, err := s.ws.Fill(cell[0], cell[1], c, opts)
	return pushResult(L, ok, err)
}

func (s *State) pick(L *lua.LState) int {
	cell := checkCell(L, 1)
	c, ok := s.ws.PickColor(cell[0], cell[1])
	if !ok || !c.Set {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(c.Hex()))
	return 1
}

func (s *State) undo(L *lua.LState) int {
	L.Push(lua.LBool(s.ws.Undo()))
	return 1
}

func (s *State) redo(L *lua.LState) int {
	L.Push(lua.LBool(s.ws.Redo()))
	return 1
}

// layers returns the active frame's layers top to bottom.
func (s *State) layers(L *lua.LState) int {
	active := s.ws.ActiveLayerID()
	out := L.NewTable()
	for _, m := range s.ws.Engine().Stack().Metas() {
		t := L.NewTable()
		t.RawSetString("id", lua.LString(m.ID))
		t.RawSetString("name", lua.LString(m.Name))
		t.RawSetString("visible", lua.LBool(m.Visible))
		t.RawSetString("locked", lua.LBool(m.Locked))
		t.RawSetString("active", lua.LBool(m.ID == active))
		out.Append(t)
	}
	L.Push(out)
	return 1
}

func (s *State) addLayer(L *lua.LState) int {
	if !s.ws.AddLayer() {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(s.ws.ActiveLayerID()))
	return 1
}

func (s *State) selectLayer(L *lua.LState) int {
	L.Push(lua.LBool(s.ws.SelectLayer(L.CheckString(1))))
	return 1
}

func (s *State) layerOp(fn func(id string) bool) lua.LGFunction {
	return func(L *lua.LState) int {
		L.Push(lua.LBool(fn(L.CheckString(1))))
		return 1
	}
}

func (s *State) renameLayer(L *lua.LState) int {
	L.Push(lua.LBool(s.ws.RenameLayer(L.CheckString(1), L.CheckString(2))))
	return 1
}

// move_layer(id, index) with a 1-based stack index.
func (s *State) moveLayer(L *lua.LState) int {
	L.Push(lua.LBool(s.ws.MoveLayer(L.CheckString(1), L.CheckInt(2)-1)))
	return 1
}

func (s *State) frames(L *lua.LState) int {
	L.Push(lua.LNumber(s.ws.Rail().Len()))
	return 1
}

// add_frame returns the new frame number.
func (s *State) addFrame(L *lua.LState) int {
	s.ws.AddFrame()
	L.Push(lua.LNumber(s.ws.Rail().ActiveIndex() + 1))
	return 1
}

func (s *State) selectFrame(L *lua.LState) int {
	L.Push(lua.LBool(s.ws.SelectFrame(L.CheckInt(1) - 1)))
	return 1
}

func (s *State) removeFrame(L *lua.LState) int {
	f := s.ws.Rail().Frame(L.CheckInt(1) - 1)
	if f == nil {
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LBool(s.ws.RemoveFrame(f.ID)))
	return 1
}

// add_animation(name, {refs...} [, loop]) returns the animation id.
// References beyond the current frame count are rejected.
func (s *State) addAnimation(L *lua.LState) int {
	name := L.CheckString(1)
	refs := L.OptTable(2, L.NewTable())
	loop, err := sequencer.ParseLoopMode(L.OptString(3, ""))
	if err != nil {
		L.ArgError(3, err.Error())
	}

	tl := s.ws.Timeline()
	a := tl.AddAnimation()
	tl.RenameAnimation(a.ID, name)
	tl.SetLoopMode(a.ID, loop)
	for i := 1; i <= refs.Len(); i++ {
		n, ok := refs.RawGetInt(i).(lua.LNumber)
		if !ok {
			L.ArgError(2, "frame references must be numbers")
		}
		if err := tl.AddFrameRef(a.ID, int(n)); err != nil {
			tl.RemoveAnimation(a.ID)
			L.RaiseError("animation %q: %v", name, err)
		}
	}
	L.Push(lua.LString(a.ID))
	return 1
}

func (s *State) animations(L *lua.LState) int {
	out := L.NewTable()
	for _, a := range s.ws.Timeline().Animations() {
		t := L.NewTable()
		t.RawSetString("id", lua.LString(a.ID))
		t.RawSetString("name", lua.LString(a.Name))
		t.RawSetString("loop", lua.LString(a.LoopMode))
		refs := L.NewTable()
		for _, r := range a.FrameRefs {
			refs.Append(lua.LNumber(r))
		}
		t.RawSetString("frames", refs)
		out.Append(t)
	}
	L.Push(out)
	return 1
}

func exportOptions(L *lua.LState, n int) editor.ExportOptions {
	var o editor.ExportOptions
	t := L.OptTable(n, nil)
	if t == nil {
		return o
	}
	if v, ok := t.RawGetString("format").(lua.LString); ok {
		f, err := video.ParseFormat(string(v))
		if err != nil {
			L.ArgError(n, err.Error())
		}
		o.Format = f
	}
	if v, ok := t.RawGetString("scale").(lua.LNumber); ok {
		o.Scale = int(v)
	}
	if v, ok := t.RawGetString("max_per_row").(lua.LNumber); ok {
		o.MaxPerRow = int(v)
	}
	return o
}

// export([dir [, opts]]) writes the image or sheet and returns its path,
// or nil and the reason.
func (s *State) export(L *lua.LState) int {
	dir := L.OptString(1, s.exports)
	path, err := s.ws.Export(dir, exportOptions(L, 2))
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LString(path))
	return 1
}

// gif(animation [, path [, opts]])
func (s *State) gif(L *lua.LState) int {
	anim := L.CheckString(1)
	path := L.OptString(2, filepath.Join(s.exports, video.FileName(s.ws.Name(), s.ws.Width(), s.ws.Height(), "", video.GIF)))
	if err := s.ws.ExportGIF(s.ctx, path, anim, exportOptions(L, 3)); err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LString(path))
	return 1
}

func (s *State) save(L *lua.LState) int {
	return pushResult(L, true, s.ws.Save(L.CheckString(1)))
}
