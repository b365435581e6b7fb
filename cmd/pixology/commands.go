package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/ivlev/pixology/internal/analyzer"
	"github.com/ivlev/pixology/internal/config"
	"github.com/ivlev/pixology/internal/editor"
	"github.com/ivlev/pixology/internal/pixel"
	"github.com/ivlev/pixology/internal/project"
	"github.com/ivlev/pixology/internal/renderer"
	"github.com/ivlev/pixology/internal/script"
	"github.com/ivlev/pixology/internal/sequencer"
	"github.com/ivlev/pixology/internal/source"
	"github.com/ivlev/pixology/internal/system"
	"github.com/ivlev/pixology/internal/termview"
	"github.com/ivlev/pixology/internal/video"
)

// resolveInput returns cfg.InputPath or the newest project on disk.
func resolveInput(cfg config.Config) (string, error) {
	if cfg.InputPath != "" {
		return cfg.InputPath, nil
	}
	latest, err := project.FindLatest(cfg.ProjectDir)
	if err != nil {
		return "", fmt.Errorf("%v. Сохраните проект в %s/ или укажите -input", err, cfg.ProjectDir)
	}
	fmt.Printf("[*] Выбран проект: %s\n", latest)
	return latest, nil
}

// openWorkspace loads the input project into a workspace of its size and kind.
func openWorkspace(cfg config.Config, l *zap.Logger, opts ...editor.Option) (*editor.Workspace, string, error) {
	path, err := resolveInput(cfg)
	if err != nil {
		return nil, "", err
	}
	p, err := project.Read(path)
	if err != nil {
		return nil, "", fmt.Errorf("чтение проекта %s: %w", path, err)
	}
	mode := editor.Static
	if p.IsAnimated() {
		mode = editor.Animations
	}
	if p.Width > 0 && p.Height > 0 {
		cfg.Width, cfg.Height = p.Width, p.Height
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	ws := editor.New(cfg, mode, append([]editor.Option{editor.WithLogger(l)}, opts...)...)
	ws.Open(p)
	fmt.Printf("[*] Проект «%s»: %dx%d, режим %s\n", ws.Name(), ws.Width(), ws.Height(), ws.Mode())
	return ws, path, nil
}

// saveTarget is -output, or the input file when editing in place.
func saveTarget(cfg config.Config, input, name string) string {
	if cfg.OutputPath != "" {
		return cfg.OutputPath
	}
	if input != "" {
		return input
	}
	return project.GeneratePath(cfg.ProjectDir, name, ".json")
}

func exportOptions(cfg config.Config) editor.ExportOptions {
	f, _ := video.ParseFormat(cfg.Format)
	return editor.ExportOptions{Format: f, Scale: cfg.Scale, MaxPerRow: cfg.MaxPerRow}
}

func runNew(ctx context.Context, args []string) error {
	s := newSettings("new")
	s.canvasFlags()
	s.animationFlags()
	modeFlag := s.fs.String("mode", "static", "Режим: static или animations")
	framesFlag := s.fs.Int("frames", 1, "Число кадров (для animations)")
	cfg, err := s.parse(args)
	if err != nil {
		return err
	}
	_, l := setup(ctx, cfg)
	defer l.Sync()

	mode, err := editor.ParseMode(*modeFlag)
	if err != nil {
		return err
	}
	name := cfg.Name
	if name == "" {
		name = "Untitled"
	}
	ws := editor.New(cfg, mode, editor.WithLogger(l), editor.WithName(name))
	if mode == editor.Animations {
		for i := 1; i < *framesFlag; i++ {
			ws.AddFrame()
		}
	}

	path := saveTarget(cfg, "", name)
	if cfg.OutputPath == "" {
		path = uniquePath(path)
	}
	p, err := ws.Project()
	if err != nil {
		return err
	}
	if err := project.Write(p, path); err != nil {
		return err
	}
	fmt.Printf("[+++] Создан проект %dx%d (%s): %s\n", ws.Width(), ws.Height(), mode, path)
	return nil
}

// uniquePath appends " (n)" to the file stem while the path is taken.
func uniquePath(path string) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	name := project.UniqueName(stem, func(candidate string) bool {
		_, err := os.Stat(candidate + ext)
		return err == nil
	})
	return name + ext
}

func runExport(ctx context.Context, args []string) error {
	s := newSettings("export")
	s.maxPerRowFlag()
	cfg, err := s.parse(args)
	if err != nil {
		return err
	}
	_, l := setup(ctx, cfg)
	defer l.Sync()

	ws, _, err := openWorkspace(cfg, l)
	if err != nil {
		return err
	}
	start := time.Now()
	path, err := ws.Export(cfg.ExportDir, exportOptions(cfg))
	if err != nil {
		return err
	}
	fmt.Printf("[+++] Экспорт готов за %v: %s\n", time.Since(start).Round(time.Millisecond), path)
	printStats(cfg)
	return nil
}

// runPreview rewrites the preview stored in a project file and can dump it
// as a PNG thumbnail.
func runPreview(ctx context.Context, args []string) error {
	s := newSettings("preview")
	pngFlag := s.fs.String("png", "", "сохранить превью в PNG")
	sizeFlag := s.fs.Int("size", renderer.PreviewSize, "сторона PNG-превью")
	storedFlag := s.fs.Bool("stored", false, "взять превью из файла, не перерисовывая")
	cfg, err := s.parse(args)
	if err != nil {
		return err
	}
	_, l := setup(ctx, cfg)
	defer l.Sync()

	if *storedFlag {
		path, err := resolveInput(cfg)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		url, err := project.StoredPreview(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if url == "" {
			return fmt.Errorf("в %s нет сохранённого превью", path)
		}
		img, err := project.DecodePreview(url)
		if err != nil {
			return err
		}
		return writePreviewPNG(*pngFlag, img)
	}

	ws, path, err := openWorkspace(cfg, l)
	if err != nil {
		return err
	}
	p, err := ws.Project()
	if err != nil {
		return err
	}
	if err := project.UpdatePreview(path, p.PreviewImage); err != nil {
		return err
	}
	fmt.Printf("[+++] Превью обновлено: %s\n", path)
	return writePreviewPNG(*pngFlag, ws.Thumbnail(*sizeFlag))
}

func writePreviewPNG(path string, img image.Image) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := video.Encode(f, img, video.PNG, 0); err != nil {
		return err
	}
	fmt.Printf("[+++] PNG: %s (%dx%d)\n", path, img.Bounds().Dx(), img.Bounds().Dy())
	return nil
}

func runSheet(ctx context.Context, args []string) error {
	s := newSettings("sheet")
	s.maxPerRowFlag()
	cfg, err := s.parse(args)
	if err != nil {
		return err
	}
	_, l := setup(ctx, cfg)
	defer l.Sync()

	ws, _, err := openWorkspace(cfg, l)
	if err != nil {
		return err
	}
	path, err := ws.ExportSpriteSheet(cfg.ExportDir, exportOptions(cfg))
	if err != nil {
		return err
	}
	fmt.Printf("[*] Атлас: %s\n", video.AtlasPath(path))
	fmt.Printf("[+++] Спрайт-лист: %s\n", path)
	printStats(cfg)
	return nil
}

func runFrames(ctx context.Context, args []string) error {
	s := newSettings("frames")
	cfg, err := s.parse(args)
	if err != nil {
		return err
	}
	ctx, l := setup(ctx, cfg)
	defer l.Sync()

	ws, _, err := openWorkspace(cfg, l)
	if err != nil {
		return err
	}
	dir := cfg.OutputPath
	if dir == "" {
		dir = filepath.Join(cfg.ExportDir, video.SafeName(ws.Name())+"_frames")
	}
	fmt.Printf("[*] Экспорт %d кадров в %d потоков...\n", ws.Rail().Len(), cfg.Workers)
	paths, err := ws.ExportFrames(ctx, dir, exportOptions(cfg))
	if err != nil {
		return err
	}
	fmt.Printf("[+++] Записано файлов: %d в %s\n", len(paths), dir)
	printStats(cfg)
	return nil
}

var clipExtensions = []string{".mp4", ".webm", ".mov", ".mkv"}

func runGIF(ctx context.Context, args []string) error {
	s := newSettings("gif")
	s.animationFlags()
	qualityFlag := s.fs.Int("quality", 0, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	cfg, err := s.parse(args)
	if err != nil {
		return err
	}
	ctx, l := setup(ctx, cfg)
	defer l.Sync()

	ws, _, err := openWorkspace(cfg, l)
	if err != nil {
		return err
	}
	if s.set["fps"] {
		ws.Timeline().Player().SetFPS(cfg.FPS)
	}
	anim := cfg.Animation
	if anim == "" {
		anims := ws.Timeline().Animations()
		if len(anims) == 0 {
			return sequencer.ErrNoFrames
		}
		anim = anims[0].Name
	}

	out := cfg.OutputPath
	if out == "" {
		out = filepath.Join(cfg.ExportDir, video.FileName(ws.Name()+"_"+anim, ws.Width(), ws.Height(), "", video.GIF))
	}

	if !system.HasExtension(out, clipExtensions...) {
		if err := ws.ExportGIF(ctx, out, anim, exportOptions(cfg)); err != nil {
			return err
		}
		fmt.Printf("[+++] GIF «%s»: %s\n", anim, out)
		printStats(cfg)
		return nil
	}

	if !system.FFmpegAvailable() {
		return errors.New("ffmpeg не найден в PATH")
	}
	encoderName := cfg.VideoEncoder
	if encoderName == "" {
		encoderName = system.GetBestH264Encoder()
	}
	if encoderName != "libx264" {
		fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoderName)
	}
	quality := *qualityFlag
	if quality == 0 {
		switch encoderName {
		case "h264_videotoolbox":
			quality = 75
		case "h264_nvenc":
			quality = 28
		default:
			quality = cfg.VideoQuality
		}
	}
	enc := &video.FFmpegEncoder{Encoder: encoderName, Quality: quality}
	if err := ws.ExportClip(ctx, enc, out, anim, exportOptions(cfg)); err != nil {
		return err
	}
	fmt.Printf("[+++] Видео «%s»: %s\n", anim, out)
	printStats(cfg)
	return nil
}

func runPlay(ctx context.Context, args []string) error {
	s := newSettings("play")
	s.animationFlags()
	s.boolVar("watch", false, "Перечитывать проект при изменении файла", func(c *config.Config) *bool { return &c.Watch })
	s.boolVar("onion", false, "Луковая шелуха (соседние кадры)", func(c *config.Config) *bool { return &c.Onion.Enabled })
	s.intVar("onion-prev", 1, "Призраков до текущего кадра", func(c *config.Config) *int { return &c.Onion.Prev })
	s.intVar("onion-next", 0, "Призраков после текущего кадра", func(c *config.Config) *int { return &c.Onion.Next })
	s.stringVar("onion-mode", "alpha", "Вид призраков: alpha или tint", func(c *config.Config) *string { return &c.Onion.Mode })
	cfg, err := s.parse(args)
	if err != nil {
		return err
	}
	ctx, l := setup(ctx, cfg)
	defer l.Sync()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("терминал недоступен: %w", err)
	}
	view := termview.New(screen, termview.WithLogger(l))
	ws, path, err := openWorkspace(cfg, l, editor.WithDrawHandler(view.Draw))
	if err != nil {
		return err
	}
	if s.set["fps"] {
		ws.Timeline().Player().SetFPS(cfg.FPS)
	}

	opts := []termview.SessionOption{termview.WithAnimation(cfg.Animation)}
	if cfg.Watch {
		opts = append(opts, termview.WithWatch(path))
		fmt.Printf("[*] Слежу за изменениями: %s\n", path)
	}
	return termview.NewSession(view, ws, opts...).Run(ctx)
}

func runImport(ctx context.Context, args []string) error {
	s := newSettings("import")
	s.canvasFlags()
	s.animationFlags()
	dpiFlag := s.fs.Int("dpi", source.DefaultDPI, "DPI для страниц PDF")
	latestFlag := s.fs.Bool("latest", false, "взять только самое свежее изображение из папки")
	cfg, err := s.parse(args)
	if err != nil {
		return err
	}
	ctx, l := setup(ctx, cfg)
	defer l.Sync()

	if cfg.InputPath == "" {
		return errors.New("укажите -input: PDF или папку с изображениями")
	}
	if *latestFlag {
		latest, err := system.FindLatestImage(cfg.InputPath)
		if err != nil {
			return err
		}
		cfg.InputPath = latest
	}
	src, err := source.Open(cfg.InputPath)
	if err != nil {
		return fmt.Errorf("ошибка инициализации источника: %w", err)
	}
	defer src.Close()
	fmt.Printf("[*] Источник: %s, страниц: %d\n", cfg.InputPath, src.PageCount())

	bufs, err := source.Import(ctx, src, cfg.Width, cfg.Height, *dpiFlag)
	if err != nil {
		return err
	}

	name := cfg.Name
	if name == "" {
		base := filepath.Base(cfg.InputPath)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	ws := editor.New(cfg, editor.Animations, editor.WithLogger(l), editor.WithName(name))
	ws.ImportFrames(bufs)

	tl := ws.Timeline()
	a := tl.AddAnimation()
	if cfg.Animation != "" {
		tl.RenameAnimation(a.ID, cfg.Animation)
	}
	for i := 1; i <= ws.Rail().Len(); i++ {
		if err := tl.AddFrameRef(a.ID, i); err != nil {
			return err
		}
	}

	out := cfg.OutputPath
	if out == "" {
		out = project.GeneratePath(cfg.ProjectDir, name, ".json")
	}
	if err := ws.Save(out); err != nil {
		return err
	}
	fmt.Printf("[+++] Импортировано кадров: %d. Проект: %s\n", len(bufs), out)
	printStats(cfg)
	return nil
}

var qrLevels = map[string]qrcode.RecoveryLevel{
	"L": qrcode.Low,
	"M": qrcode.Medium,
	"Q": qrcode.High,
	"H": qrcode.Highest,
}

func runQR(ctx context.Context, args []string) error {
	s := newSettings("qr")
	textFlag := s.fs.String("text", "", "Содержимое QR-кода")
	colorFlag := s.fs.String("color", "#000000", "Цвет модулей")
	levelFlag := s.fs.String("level", "L", "Коррекция ошибок: L, M, Q, H")
	cfg, err := s.parse(args)
	if err != nil {
		return err
	}
	_, l := setup(ctx, cfg)
	defer l.Sync()

	if *textFlag == "" {
		return errors.New("укажите -text")
	}
	level, ok := qrLevels[strings.ToUpper(*levelFlag)]
	if !ok {
		return fmt.Errorf("неизвестный уровень коррекции %q", *levelFlag)
	}
	c, err := pixel.ParseHex(*colorFlag)
	if err != nil {
		return err
	}

	ws, path, err := openWorkspace(cfg, l)
	if err != nil {
		return err
	}
	grid, err := source.QR(*textFlag, level)
	if err != nil {
		return err
	}
	fmt.Printf("[*] QR-код %dx%d модулей\n", len(grid), len(grid))
	if err := ws.StampQR(grid, c); err != nil {
		return err
	}
	out := saveTarget(cfg, path, ws.Name())
	if err := ws.Save(out); err != nil {
		return err
	}
	fmt.Printf("[+++] QR-код добавлен: %s\n", out)
	return nil
}

func runScript(ctx context.Context, args []string) error {
	s := newSettings("script")
	s.canvasFlags()
	scriptFlag := s.fs.String("script", "", "Lua-скрипт")
	modeFlag := s.fs.String("mode", "static", "Режим нового проекта, если -input не задан и проектов нет")
	timeoutFlag := s.fs.Duration("timeout", script.DefaultTimeout, "Ограничение времени выполнения")
	cfg, err := s.parse(args)
	if err != nil {
		return err
	}
	ctx, l := setup(ctx, cfg)
	defer l.Sync()

	if *scriptFlag == "" {
		return errors.New("укажите -script")
	}

	ws, path, err := openWorkspace(cfg, l)
	if err != nil {
		if cfg.InputPath != "" {
			return err
		}
		mode, merr := editor.ParseMode(*modeFlag)
		if merr != nil {
			return merr
		}
		name := cfg.Name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(*scriptFlag), filepath.Ext(*scriptFlag))
		}
		ws = editor.New(cfg, mode, editor.WithLogger(l), editor.WithName(name))
		fmt.Printf("[*] Новый проект %dx%d (%s)\n", ws.Width(), ws.Height(), mode)
	}

	st := script.New(ws,
		script.WithTimeout(*timeoutFlag),
		script.WithExportDir(cfg.ExportDir),
		script.WithLogger(l))
	defer st.Close()

	start := time.Now()
	if err := st.RunFile(ctx, *scriptFlag); err != nil {
		return fmt.Errorf("скрипт %s: %w", *scriptFlag, err)
	}
	fmt.Printf("[*] Скрипт выполнен за %v\n", time.Since(start).Round(time.Millisecond))

	if ws.IsEmpty() {
		fmt.Println("[!] Холст пуст, проект не сохранён")
		return nil
	}
	out := saveTarget(cfg, path, ws.Name())
	if err := ws.Save(out); err != nil {
		return err
	}
	fmt.Printf("[+++] Проект сохранён: %s\n", out)
	printStats(cfg)
	return nil
}

func runInfo(ctx context.Context, args []string) error {
	s := newSettings("info")
	detectorFlag := s.fs.String("detector", "regions", "Анализ содержимого: regions или bounds")
	cfg, err := s.parse(args)
	if err != nil {
		return err
	}
	_, l := setup(ctx, cfg)
	defer l.Sync()

	path, err := resolveInput(cfg)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	sum, err := project.Sniff(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Printf("Проект:    %s\n", sum.Name)
	fmt.Printf("Файл:      %s (%d КБ)\n", path, len(data)>>10)
	fmt.Printf("Тип:       %s\n", sum.Kind)
	fmt.Printf("Размер:    %dx%d\n", sum.Width, sum.Height)
	if sum.Kind == project.Animated {
		fmt.Printf("Кадров:    %d\n", sum.Frames)
		fmt.Printf("Анимаций:  %d\n", sum.Animations)
	} else {
		fmt.Printf("Слоёв:     %d\n", sum.Layers)
	}
	fmt.Printf("Превью:    %v\n", sum.HasPreview)

	detector, err := analyzer.NewDetector(*detectorFlag)
	if err != nil {
		return err
	}
	cfg.InputPath = path
	ws, _, err := openWorkspace(cfg, l)
	if err != nil {
		return err
	}
	if err := describeContent(ws, detector); err != nil {
		return err
	}

	cfg.ShowStats = true
	printStats(cfg)
	return nil
}

// describeContent prints the drawn regions of every frame and the palette.
func describeContent(ws *editor.Workspace, detector analyzer.Detector) error {
	var srcs []renderer.Source
	if ws.Mode() == editor.Animations {
		for _, f := range ws.Rail().Frames() {
			srcs = append(srcs, ws.Rail().Engine(f.ID).Stack())
		}
	} else {
		srcs = append(srcs, ws.Canvas().Engine().Stack())
	}

	palettes := make([][]analyzer.Swatch, 0, len(srcs))
	for i, src := range srcs {
		blocks, err := detector.Detect(src)
		if err != nil {
			return err
		}
		palettes = append(palettes, analyzer.Palette(src))
		if len(blocks) == 0 {
			fmt.Printf("  кадр %d: пусто\n", i+1)
			continue
		}
		fmt.Printf("  кадр %d: областей %d, крупнейшая %v (%d клеток, %s)\n",
			i+1, len(blocks), blocks[0].Rect, blocks[0].Cells, blocks[0].Dominant)
	}

	palette := analyzer.MergePalettes(palettes...)
	fmt.Printf("Палитра:   %d цветов\n", len(palette))
	for i, sw := range palette {
		if i == 8 {
			fmt.Printf("  ... и ещё %d\n", len(palette)-i)
			break
		}
		fmt.Printf("  %s  %d\n", sw.Color.Hex(), sw.Count)
	}
	return nil
}
