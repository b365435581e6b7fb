package video

import (
	"fmt"
	"regexp"
)

const (
	fallbackName = "pixology"
	maxNameLen   = 60
)

var unsafeChars = regexp.MustCompile(`[^\w.-]+`)

// SafeName makes a project name usable as a file name.
func SafeName(name string) string {
	safe := unsafeChars.ReplaceAllString(name, "_")
	if len(safe) > maxNameLen {
		safe = safe[:maxNameLen]
	}
	if safe == "" {
		return fallbackName
	}
	return safe
}

// FileName builds "<safe>_<w>x<h><suffix>.<ext>".
func FileName(name string, width, height int, suffix string, f Format) string {
	return fmt.Sprintf("%s_%dx%d%s.%s", SafeName(name), width, height, suffix, f.Ext())
}

// SheetSuffix is the file name suffix of a cols×rows sprite sheet.
func SheetSuffix(cols, rows int) string {
	return fmt.Sprintf("_spritesheet_%dx%d", cols, rows)
}
