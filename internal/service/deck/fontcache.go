package deck

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

type faceKey struct {
	size float64
	bold bool
}

// FontCache discovers TrueType/OpenType fonts on the host and caches parsed
// faces per size. When no usable font file is found everything falls back to
// basicfont, which keeps rendering functional (if ugly) on bare containers.
type FontCache struct {
	mu      sync.Mutex
	dirs    []string
	regular *opentype.Font
	bold    *opentype.Font
	faces   map[faceKey]font.Face
	scanned bool
}

// preferredFamilies is checked in order against discovered file names.
var preferredFamilies = []string{
	"notosanscjk", "notosans", "dejavusans", "liberationsans", "arial", "helvetica", "roboto",
}

func NewFontCache(extraDirs ...string) *FontCache {
	return &FontCache{
		dirs:  append(systemFontDirs(), extraDirs...),
		faces: make(map[faceKey]font.Face),
	}
}

func systemFontDirs() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"/System/Library/Fonts", "/Library/Fonts"}
	case "windows":
		return []string{`C:\Windows\Fonts`}
	default:
		home, _ := os.UserHomeDir()
		return []string{
			"/usr/share/fonts",
			"/usr/local/share/fonts",
			filepath.Join(home, ".fonts"),
		}
	}
}

// Face returns a cached face at the given size. Never returns nil.
func (fc *FontCache) Face(size float64, bold bool) font.Face {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	fc.scanLocked()

	key := faceKey{size: size, bold: bold}
	if f, ok := fc.faces[key]; ok {
		return f
	}

	src := fc.regular
	if bold && fc.bold != nil {
		src = fc.bold
	}
	if src == nil {
		fc.faces[key] = basicfont.Face7x13
		return basicfont.Face7x13
	}

	face, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		face = basicfont.Face7x13
	}
	fc.faces[key] = face
	return face
}

func (fc *FontCache) scanLocked() {
	if fc.scanned {
		return
	}
	fc.scanned = true

	type found struct {
		rank int
		path string
	}
	var bestRegular, bestBold *found

	for _, dir := range fc.dirs {
		filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(path))
			if ext != ".ttf" && ext != ".otf" {
				return nil
			}

			name := strings.ToLower(strings.TrimSuffix(filepath.Base(path), ext))
			name = strings.NewReplacer("-", "", "_", "", " ", "").Replace(name)

			for rank, fam := range preferredFamilies {
				if !strings.HasPrefix(name, fam) {
					continue
				}
				isBold := strings.Contains(name, "bold")
				isItalic := strings.Contains(name, "italic") || strings.Contains(name, "oblique")
				if isItalic {
					continue
				}
				f := &found{rank: rank, path: path}
				if isBold {
					if bestBold == nil || rank < bestBold.rank {
						bestBold = f
					}
				} else {
					if bestRegular == nil || rank < bestRegular.rank {
						bestRegular = f
					}
				}
			}
			return nil
		})
	}

	if bestRegular != nil {
		fc.regular = parseFontFile(bestRegular.path)
	}
	if bestBold != nil {
		fc.bold = parseFontFile(bestBold.path)
	}
}

func parseFontFile(path string) *opentype.Font {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil
	}
	return f
}
