package editor

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"testing"
	"time"

	"github.com/ivlev/pixology/internal/config"
	"github.com/ivlev/pixology/internal/pixel"
	"github.com/ivlev/pixology/internal/raster"
	"github.com/ivlev/pixology/internal/sequencer"
	"github.com/ivlev/pixology/internal/video"
)

var (
	red  = pixel.MustHex("#ff0000")
	blue = pixel.MustHex("#0000ff")
)

func testConfig(w, h int) config.Config {
	cfg := config.Default()
	cfg.Width, cfg.Height = w, h
	cfg.Scale = 1
	cfg.Workers = 2
	return cfg
}

func TestStaticUndoToEmpty(t *testing.T) {
	ws := New(testConfig(4, 4), Static)
	if !ws.IsEmpty() {
		t.Fatal("new workspace should be empty")
	}

	ok, err := ws.Stroke(red, [2]int{0, 0}, [2]int{0, 3})
	if err != nil || !ok {
		t.Fatalf("stroke: %v %v", ok, err)
	}
	if ws.IsEmpty() || !ws.CanUndo() {
		t.Fatal("stroke should be drawn and undoable")
	}

	ws.Undo()
	if !ws.IsEmpty() {
		t.Error("undo should restore the empty canvas")
	}
	ws.Redo()
	if c, _ := ws.PickColor(0, 2); c != red {
		t.Errorf("redo lost the line, got %v", c)
	}
}

func TestStaticGuards(t *testing.T) {
	ws := New(testConfig(4, 4), Static)
	id := ws.ActiveLayerID()
	ws.ToggleLocked(id)

	if _, err := ws.Paint(0, 0, red); !errors.Is(err, raster.ErrLayerLocked) {
		t.Errorf("expected ErrLayerLocked, got %v", err)
	}
	if _, err := ws.Fill(0, 0, red, raster.DefaultFill); !errors.Is(err, raster.ErrLayerLocked) {
		t.Errorf("fill on locked layer: %v", err)
	}
	if !ws.IsEmpty() {
		t.Error("guard rejections must not change pixels")
	}
	ws.ToggleLocked(id)
	ws.ToggleVisible(id)
	if _, err := ws.Paint(0, 0, red); !errors.Is(err, raster.ErrLayerHidden) {
		t.Errorf("expected ErrLayerHidden, got %v", err)
	}
}

func TestExportPreconditions(t *testing.T) {
	dir := t.TempDir()
	ws := New(testConfig(4, 4), Static)
	if _, err := ws.Export(dir, ExportOptions{}); !errors.Is(err, video.ErrNothingInCanvas) {
		t.Errorf("static empty export: %v", err)
	}

	ws.SetMode(Animations)
	ws.AddFrame()
	if _, err := ws.Export(dir, ExportOptions{}); !errors.Is(err, video.ErrNothingDrawn) {
		t.Errorf("animation empty export: %v", err)
	}

	ws.Paint(1, 1, blue)
	path, err := ws.Export(dir, ExportOptions{Format: video.JPEG, Scale: 2})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "Untitled_4x4_spritesheet_2x1.jpg" {
		t.Errorf("sheet path = %s", path)
	}
}

func TestAnimationFramesOrder(t *testing.T) {
	ws := New(testConfig(2, 2), Animations)
	ws.Paint(0, 0, red)
	ws.AddFrame()
	ws.Paint(0, 0, blue)
	ws.AddFrame()
	ws.Erase(0, 0)

	tl := ws.Timeline()
	a := tl.AddAnimation()
	tl.Select(a.ID)
	for _, n := range []int{1, 2, 3} {
		if err := tl.AddFrameRef(a.ID, n); err != nil {
			t.Fatal(err)
		}
	}
	tl.ToggleLoopMode(a.ID)
	tl.ToggleLoopMode(a.ID)

	frames, err := ws.AnimationFrames("")
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, f := range frames {
		c := f.Composite(0, 0)
		got = append(got, c.String())
	}
	t.Logf("pingpong colours: %v", got)
	if len(frames) != 4 {
		t.Fatalf("pingpong over 3 refs should give 4 steps, got %d", len(frames))
	}
	if frames[1].Composite(0, 0) != blue || frames[3].Composite(0, 0) != blue {
		t.Error("steps 1 and 3 should show frame 2")
	}

	// removing a frame leaves a stale ref that is skipped, not deleted
	ws.RemoveFrame(ws.Rail().Frame(2).ID)
	frames, err = ws.AnimationFrames(a.Name)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 2 {
		t.Errorf("expected 2 steps after removal, got %d", len(frames))
	}
	if refs := tl.Get(a.ID).FrameRefs; len(refs) != 3 {
		t.Errorf("refs must be kept, got %v", refs)
	}

	if _, err := ws.AnimationFrames("missing"); !errors.Is(err, sequencer.ErrUnknownAnimation) {
		t.Errorf("unknown animation: %v", err)
	}
}

func TestPlaybackDrivesPreview(t *testing.T) {
	var drawn []int
	ws := New(testConfig(2, 2), Animations, WithDrawHandler(func(_ *image.RGBA, idx int) {
		drawn = append(drawn, idx)
	}))
	ws.Paint(0, 0, red)
	ws.AddFrame()
	ws.Paint(1, 1, blue)

	tl := ws.Timeline()
	a := tl.AddAnimation()
	tl.Select(a.ID)
	tl.AddFrameRef(a.ID, 2)
	tl.AddFrameRef(a.ID, 1)

	if err := tl.Play(); err != nil {
		t.Fatal(err)
	}
	drawn = nil
	steps := tl.Player().Tick(sequencer.FrameDuration(ws.Config().FPS) + time.Millisecond)
	if steps != 1 {
		t.Fatalf("steps = %d", steps)
	}
	if len(drawn) == 0 || drawn[len(drawn)-1] != 0 {
		t.Errorf("preview should show frame index 0 after one step, got %v", drawn)
	}
	if ws.Preview().Index() != 0 {
		t.Errorf("preview index = %d", ws.Preview().Index())
	}
}

func TestPreviewClampedAfterFrameRemoval(t *testing.T) {
	ws := New(testConfig(2, 2), Animations)
	ws.Paint(0, 0, red)
	ws.AddFrame()
	ws.AddFrame()
	ws.Preview().Seek(2)

	ws.RemoveFrame(ws.Rail().Frame(2).ID)
	if got := ws.Preview().Index(); got != 1 {
		t.Errorf("preview index = %d, want last frame 1", got)
	}
	ws.RemoveFrame(ws.Rail().Frame(1).ID)
	if got := ws.Preview().Index(); got != 0 {
		t.Errorf("preview index = %d, want 0", got)
	}
}

func TestSaveAndOpen(t *testing.T) {
	dir := t.TempDir()
	ws := New(testConfig(3, 3), Animations, WithName("Walk Cycle"))
	if err := ws.Save(filepath.Join(dir, "empty.json")); !errors.Is(err, ErrNothingToSave) {
		t.Errorf("empty save: %v", err)
	}

	ws.Paint(2, 2, red)
	ws.AddFrame()
	tl := ws.Timeline()
	a := tl.AddAnimation()
	tl.AddFrameRef(a.ID, 2)
	tl.AddFrameRef(a.ID, 1)
	tl.Player().SetFPS(15)

	path := filepath.Join(dir, "walk.yaml")
	if err := ws.Save(path); err != nil {
		t.Fatal(err)
	}

	other := New(testConfig(8, 8), Static)
	if err := other.OpenFile(path); err != nil {
		t.Fatal(err)
	}
	if other.Mode() != Animations || other.Width() != 3 || other.Name() != "Walk Cycle" {
		t.Fatalf("opened = %s", other)
	}
	if other.Rail().Len() != 2 {
		t.Errorf("frames = %d", other.Rail().Len())
	}
	anims := other.CollectTimelineSnapshot()
	if len(anims) != 1 || len(anims[0].FrameRefs) != 2 {
		t.Errorf("animations = %+v", anims)
	}
	if other.Timeline().Player().FPS() != 15 {
		t.Errorf("fps = %d", other.Timeline().Player().FPS())
	}
	if other.CanUndo() {
		t.Error("history should be cleared on load")
	}
}

func TestStaticSnapshotRoundTrip(t *testing.T) {
	ws := New(testConfig(4, 4), Static)
	ws.Paint(1, 2, red)
	ws.AddLayer()
	ws.Paint(1, 2, blue)
	snap := ws.MakeSnapshot()

	other := New(testConfig(4, 4), Static)
	other.LoadFromSnapshot(snap)
	if !other.MakeSnapshot().Layers.Equal(snap.Layers) {
		t.Error("snapshot round trip changed the layers")
	}
	if c, _ := other.PickColor(1, 2); c != blue {
		t.Errorf("top layer should win, got %v", c)
	}
}

func TestImportFramesAndQR(t *testing.T) {
	ws := New(testConfig(24, 24), Static)
	a := pixel.NewBuffer(24, 24)
	a.Set(0, 0, red)
	b := pixel.NewBuffer(30, 30)
	b.Set(23, 23, blue)
	ws.ImportFrames([]*pixel.Buffer{a, b})

	if ws.Mode() != Animations || ws.Rail().Len() != 2 {
		t.Fatalf("import: mode=%s frames=%d", ws.Mode(), ws.Rail().Len())
	}
	if c := ws.Rail().Engine(ws.Rail().Frame(1).ID).Composite(23, 23); c != blue {
		t.Errorf("second frame pixel = %v", c)
	}

	grid := make([][]bool, 21)
	for i := range grid {
		grid[i] = make([]bool, 21)
		grid[i][i] = true
	}
	layers := ws.Engine().Stack().Len()
	if err := ws.StampQR(grid, pixel.MustHex("#000")); err != nil {
		t.Fatal(err)
	}
	if ws.Engine().Stack().Len() != layers+1 {
		t.Error("qr should land on a new layer")
	}
	if c, _ := ws.PickColor(3, 3); !c.Set {
		t.Error("diagonal module missing")
	}
	ws.Undo()
	if c, _ := ws.PickColor(3, 3); c.Set {
		t.Error("undo should remove the qr pixels")
	}
}

func TestExportGIFAndFrames(t *testing.T) {
	dir := t.TempDir()
	ws := New(testConfig(2, 2), Animations, WithName("blink"))
	ws.Paint(0, 0, red)
	ws.AddFrame()
	ws.Erase(0, 0)

	tl := ws.Timeline()
	a := tl.AddAnimation()
	tl.Select(a.ID)
	tl.AddFrameRef(a.ID, 1)
	tl.AddFrameRef(a.ID, 2)

	if err := ws.ExportGIF(context.Background(), filepath.Join(dir, "blink.gif"), "", ExportOptions{Scale: 4}); err != nil {
		t.Fatalf("gif: %v", err)
	}
	paths, err := ws.ExportFrames(context.Background(), dir, ExportOptions{Format: video.PNG})
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 {
		t.Errorf("paths = %v", paths)
	}
}
