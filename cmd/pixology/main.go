package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"syscall"

	"go.uber.org/zap"

	"github.com/ivlev/pixology/internal/config"
	"github.com/ivlev/pixology/internal/logger"
	"github.com/ivlev/pixology/internal/system"
)

var version = "dev"

type command struct {
	usage string
	run   func(ctx context.Context, args []string) error
}

var commands = map[string]command{
	"new":     {"создать пустой проект", runNew},
	"export":  {"экспорт: изображение (статика) или спрайт-лист (анимация)", runExport},
	"sheet":   {"спрайт-лист всех кадров и атлас JSON", runSheet},
	"preview": {"перерисовать превью в файле проекта", runPreview},
	"frames":  {"каждый кадр отдельным файлом", runFrames},
	"gif":     {"анимация в GIF (или mp4/webm через ffmpeg)", runGIF},
	"play":    {"воспроизведение анимации в терминале", runPlay},
	"import":  {"кадры из PDF или папки с изображениями", runImport},
	"qr":      {"QR-код на новом слое", runQR},
	"script":  {"выполнить Lua-скрипт над проектом", runScript},
	"info":    {"сведения о проекте и системе", runInfo},
}

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	name := os.Args[1]
	if name == "-h" || name == "-help" || name == "help" {
		usage()
		return
	}
	if name == "version" || name == "-version" {
		fmt.Printf("pixology %s (%s/%s)\n", version, runtime.GOOS, runtime.GOARCH)
		return
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "[-] Неизвестная команда: %s\n\n", name)
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.run(ctx, os.Args[2:]); err != nil {
		stop()
		log.Fatalf("[-] Ошибка: %v", err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "pixology %s: редактор пиксельной графики и анимации\n\n", version)
	fmt.Fprintln(os.Stderr, "Использование: pixology <команда> [флаги]")
	fmt.Fprintln(os.Stderr, "\nКоманды:")
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", n, commands[n].usage)
	}
	fmt.Fprintln(os.Stderr, "\nФлаги команды: pixology <команда> -h")
}

// settings binds the shared flags. A flag given on the command line wins
// over the TOML file, which wins over the defaults.
type settings struct {
	fs     *flag.FlagSet
	config string
	set    map[string]bool
	apply  []func(*config.Config)
}

func newSettings(name string) *settings {
	s := &settings{fs: flag.NewFlagSet(name, flag.ExitOnError)}
	d := config.Default()

	s.fs.StringVar(&s.config, "config", "pixology.toml", "TOML-файл настроек")
	s.stringVar("input", "", "Проект (по умолчанию: самый свежий файл в projects/)", func(c *config.Config) *string { return &c.InputPath })
	s.stringVar("output", "", "Путь результата (если пусто, генерируется автоматически)", func(c *config.Config) *string { return &c.OutputPath })
	s.stringVar("projects", d.ProjectDir, "Папка проектов", func(c *config.Config) *string { return &c.ProjectDir })
	s.stringVar("exports", d.ExportDir, "Папка экспорта", func(c *config.Config) *string { return &c.ExportDir })
	s.intVar("scale", d.Scale, "Масштаб экспорта (пикселей на клетку)", func(c *config.Config) *int { return &c.Scale })
	s.stringVar("format", d.Format, "Формат: png, jpeg, bmp, tiff, gif", func(c *config.Config) *string { return &c.Format })
	s.intVar("workers", runtime.NumCPU(), "Потоки", func(c *config.Config) *int { return &c.Workers })
	s.boolVar("stats", false, "Показать загрузку CPU и памяти в конце", func(c *config.Config) *bool { return &c.ShowStats })
	s.boolVar("v", false, "Подробный лог", func(c *config.Config) *bool { return &c.Verbose })
	return s
}

func (s *settings) stringVar(name, def, usage string, field func(*config.Config) *string) {
	v := s.fs.String(name, def, usage)
	s.apply = append(s.apply, func(c *config.Config) {
		if s.set[name] {
			*field(c) = *v
		}
	})
}

func (s *settings) intVar(name string, def int, usage string, field func(*config.Config) *int) {
	v := s.fs.Int(name, def, usage)
	s.apply = append(s.apply, func(c *config.Config) {
		if s.set[name] {
			*field(c) = *v
		}
	})
}

func (s *settings) boolVar(name string, def bool, usage string, field func(*config.Config) *bool) {
	v := s.fs.Bool(name, def, usage)
	s.apply = append(s.apply, func(c *config.Config) {
		if s.set[name] {
			*field(c) = *v
		}
	})
}

// canvasFlags adds the flags of commands that create a canvas.
func (s *settings) canvasFlags() {
	d := config.Default()
	s.intVar("width", d.Width, "Ширина холста в клетках (1..256)", func(c *config.Config) *int { return &c.Width })
	s.intVar("height", d.Height, "Высота холста в клетках (1..256)", func(c *config.Config) *int { return &c.Height })
	s.stringVar("name", "", "Имя проекта", func(c *config.Config) *string { return &c.Name })
}

// animationFlags adds the playback flags.
func (s *settings) animationFlags() {
	d := config.Default()
	s.intVar("fps", d.FPS, "Кадров в секунду (1..120)", func(c *config.Config) *int { return &c.FPS })
	s.stringVar("animation", "", "Имя анимации (по умолчанию: первая)", func(c *config.Config) *string { return &c.Animation })
}

func (s *settings) maxPerRowFlag() {
	s.intVar("max-per-row", config.DefaultMaxPerRow, "Кадров в строке спрайт-листа", func(c *config.Config) *int { return &c.MaxPerRow })
}

// parse reads args, then the config file, then applies explicit flags.
func (s *settings) parse(args []string) (config.Config, error) {
	if err := s.fs.Parse(args); err != nil {
		return config.Config{}, err
	}
	s.set = make(map[string]bool)
	s.fs.Visit(func(f *flag.Flag) { s.set[f.Name] = true })

	path := s.config
	if !s.set["config"] {
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	for _, fn := range s.apply {
		fn(&cfg)
	}
	cfg.BuildVersion = version
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if path != "" {
		fmt.Printf("[*] Настройки: %s\n", path)
	}
	return cfg, nil
}

// setup builds the process logger and puts it into ctx.
func setup(ctx context.Context, cfg config.Config) (context.Context, *zap.Logger) {
	l, err := logger.New(cfg.Verbose)
	if err != nil {
		log.Printf("[!] Не удалось создать логгер: %v", err)
		l = zap.NewNop()
	}
	zap.ReplaceGlobals(l)
	return logger.NewContext(ctx, l), l
}

func printStats(cfg config.Config) {
	if !cfg.ShowStats {
		return
	}
	st, err := system.CollectStats()
	if err != nil {
		log.Printf("[!] Статистика недоступна: %v", err)
		return
	}
	fmt.Printf("[*] %s\n", st)
}
