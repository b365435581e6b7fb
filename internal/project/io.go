package project

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/pixology/internal/config"
	"github.com/ivlev/pixology/internal/system"
)

var ErrNotProject = errors.New("not a pixology project")

const pngDataPrefix = "data:image/png;base64,"

func isYAML(path string) bool {
	return system.HasExtension(path, ".yaml", ".yml")
}

// Marshal encodes p as YAML or indented JSON.
func Marshal(p *Project, asYAML bool) ([]byte, error) {
	if asYAML {
		return yaml.Marshal(p)
	}
	return json.MarshalIndent(p, "", "  ")
}

// Unmarshal decodes JSON or YAML. Older payloads are upgraded: a
// "previewPng" key becomes the preview and animation "frames" lists become
// frame references.
func Unmarshal(data []byte) (*Project, error) {
	var p Project
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if !gjson.ValidBytes(trimmed) {
			return nil, fmt.Errorf("%w: invalid JSON", ErrNotProject)
		}
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotProject, err)
		}
		upgradeJSON(trimmed, &p)
	} else if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotProject, err)
	}
	if p.Width <= 0 || p.Height <= 0 {
		return nil, fmt.Errorf("%w: missing canvas size", ErrNotProject)
	}
	if p.Width > config.MaxCanvasSize || p.Height > config.MaxCanvasSize {
		return nil, fmt.Errorf("%w: canvas %dx%d exceeds %d", ErrNotProject, p.Width, p.Height, config.MaxCanvasSize)
	}
	p.fillDefaults()
	return &p, nil
}

func upgradeJSON(data []byte, p *Project) {
	if p.PreviewImage == "" {
		p.PreviewImage = gjson.GetBytes(data, "previewPng").String()
	}
	gjson.GetBytes(data, "animations").ForEach(func(key, value gjson.Result) bool {
		i := int(key.Int())
		if i >= len(p.Animations) || p.Animations[i].FrameRefs != nil {
			return true
		}
		for _, ref := range value.Get("frames").Array() {
			p.Animations[i].FrameRefs = append(p.Animations[i].FrameRefs, int(ref.Int()))
		}
		return true
	})
}

func (p *Project) fillDefaults() {
	if p.Name == "" {
		p.Name = "Untitled"
	}
	if p.Kind == "" {
		p.Kind = Static
		if p.IsAnimated() {
			p.Kind = Animated
		}
	}
}

// Read loads a project file of either format.
func Read(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Write saves p, picking the format from the extension.
func Write(p *Project, path string) error {
	data, err := Marshal(p, isYAML(path))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Summary is what Sniff can tell without decoding pixels.
type Summary struct {
	Name       string
	Kind       Kind
	Width      int
	Height     int
	Layers     int
	Frames     int
	Animations int
	HasPreview bool
}

// Sniff inspects a JSON project with gjson. YAML files are decoded fully.
func Sniff(data []byte) (Summary, error) {
	if !gjson.ValidBytes(data) {
		p, err := Unmarshal(data)
		if err != nil {
			return Summary{}, err
		}
		return p.Summary(), nil
	}
	r := gjson.ParseBytes(data)
	if !r.IsObject() || !r.Get("width").Exists() {
		return Summary{}, ErrNotProject
	}
	s := Summary{
		Name:       r.Get("name").String(),
		Kind:       Kind(r.Get("kind").String()),
		Width:      int(r.Get("width").Int()),
		Height:     int(r.Get("height").Int()),
		Layers:     int(r.Get("layers.#").Int()),
		Frames:     int(r.Get("frames.#").Int()),
		Animations: int(r.Get("animations.#").Int()),
		HasPreview: r.Get("previewImage").String() != "" || r.Get("previewPng").String() != "",
	}
	if s.Kind == "" {
		s.Kind = Static
		if s.Frames > 0 || s.Animations > 0 {
			s.Kind = Animated
		}
	}
	return s, nil
}

func (p *Project) Summary() Summary {
	return Summary{
		Name:       p.Name,
		Kind:       p.Kind,
		Width:      p.Width,
		Height:     p.Height,
		Layers:     len(p.Layers),
		Frames:     len(p.Frames),
		Animations: len(p.Animations),
		HasPreview: p.PreviewImage != "",
	}
}

// SetPreview replaces the preview of an encoded JSON project in place,
// leaving the rest of the document untouched.
func SetPreview(data []byte, dataURL string) ([]byte, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrNotProject)
	}
	out, err := sjson.SetBytes(data, "previewImage", dataURL)
	if err != nil {
		return nil, err
	}
	if gjson.GetBytes(out, "previewPng").Exists() {
		return sjson.DeleteBytes(out, "previewPng")
	}
	return out, nil
}

// StoredPreview returns the preview data URL of an encoded project, or ""
// when it has none. Legacy "previewPng" keys are honoured.
func StoredPreview(data []byte) (string, error) {
	if !gjson.ValidBytes(data) {
		p, err := Unmarshal(data)
		if err != nil {
			return "", err
		}
		return p.PreviewImage, nil
	}
	r := gjson.ParseBytes(data)
	if url := r.Get("previewImage").String(); url != "" {
		return url, nil
	}
	return r.Get("previewPng").String(), nil
}

// UpdatePreview replaces the preview stored in a project file. JSON files
// are patched in place so pixels and unknown keys survive byte for byte;
// YAML files are decoded and rewritten.
func UpdatePreview(path, dataURL string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if isYAML(path) {
		p, err := Unmarshal(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		p.PreviewImage = dataURL
		return Write(p, path)
	}
	out, err := SetPreview(data, dataURL)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return os.WriteFile(path, out, 0644)
}

// EncodePreview renders img as a PNG data URL.
func EncodePreview(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return pngDataPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodePreview parses a PNG data URL.
func DecodePreview(dataURL string) (image.Image, error) {
	if !strings.HasPrefix(dataURL, pngDataPrefix) {
		return nil, fmt.Errorf("preview is not a PNG data URL")
	}
	raw, err := base64.StdEncoding.DecodeString(dataURL[len(pngDataPrefix):])
	if err != nil {
		return nil, err
	}
	return png.Decode(bytes.NewReader(raw))
}

// GeneratePath creates a timestamped project file name in dir.
func GeneratePath(dir, name, ext string) string {
	if ext == "" {
		ext = ".json"
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	safe := strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "_")
	if safe == "" {
		safe = "project"
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", safe, timestamp, ext))
}

// FindLatest returns the most recently modified project in dir.
func FindLatest(dir string) (string, error) {
	return system.FindLatestProject(dir)
}

var (
	numbered    = regexp.MustCompile(`^(.*?)(?:\s\((\d+)\))?$`)
	unsafeChars = regexp.MustCompile(`[^\w.-]+`)
)

// SuggestNextName proposes a fresh name after a conflict:
// "Name" becomes "Name (1)" and "Name (n)" becomes "Name (n+1)".
func SuggestNextName(base string) string {
	if base == "" {
		base = "Untitled"
	}
	m := numbered.FindStringSubmatch(base)
	stem, n := base, 1
	if m != nil && m[1] != "" {
		stem = m[1]
	}
	if m != nil && m[2] != "" {
		v, _ := strconv.Atoi(m[2])
		n = v + 1
	}
	return fmt.Sprintf("%s (%d)", stem, n)
}

// UniqueName keeps suggesting names until taken reports false.
func UniqueName(base string, taken func(string) bool) string {
	name := base
	for taken(name) {
		name = SuggestNextName(name)
	}
	return name
}
