package tui

import (
	"os"
	"strings"
	"sync"
)

// Unicode or ASCII glyphs for bullets and chrome, for fonts that render some
// symbols poorly.

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

// applyGlyphPreference picks the glyph set: BULLET_TUI_GLYPHS wins over the config value.
func applyGlyphPreference(configured string) {
	v := strings.TrimSpace(os.Getenv("BULLET_TUI_GLYPHS"))
	if v == "" {
		v = configured
	}
	if gs, ok := parseGlyphSet(v); ok {
		setGlyphs(gs)
	}
}

func parseGlyphSet(v string) (glyphSet, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "unicode", "utf8":
		return glyphSetUnicode, true
	case "ascii":
		return glyphSetASCII, true
	default:
		return glyphSetUnicode, false
	}
}

func setGlyphs(gs glyphSet) {
	glyphsMu.Lock()
	currentGlyphs = gs
	glyphsMu.Unlock()
}

func glyphs() glyphSet {
	glyphsMu.RLock()
	gs := currentGlyphs
	glyphsMu.RUnlock()
	return gs
}

// glyphBullet marks a leaf bullet.
func glyphBullet() string {
	if glyphs() == glyphSetASCII {
		return "*"
	}
	return "•"
}

// glyphBulletParent marks a bullet with children (drill-down target).
func glyphBulletParent() string {
	if glyphs() == glyphSetASCII {
		return "+"
	}
	return "◉"
}

func glyphGuide() string {
	if glyphs() == glyphSetASCII {
		return "|"
	}
	return "│"
}

func glyphBreadcrumbSep() string {
	if glyphs() == glyphSetASCII {
		return " > "
	}
	return " › "
}

func glyphHRule() string {
	if glyphs() == glyphSetASCII {
		return "-"
	}
	return "─"
}
