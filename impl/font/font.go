package font

import (
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Source reported when no candidate file could be used.
const BuiltinSource = "builtin:goregular"

// Candidate font files per platform, best first. CJK capable faces come first because
// translated text is often Chinese, Japanese or Korean.
// Note: TrueType collections (.ttc) are not supported by the parser and are not listed.
var platformCandidates = map[string][]string{
	"windows": {
		`C:\Windows\Fonts\simhei.ttf`,
		`C:\Windows\Fonts\simkai.ttf`,
		`C:\Windows\Fonts\malgun.ttf`,
		`C:\Windows\Fonts\arial.ttf`,
	},
	"darwin": {
		"/Library/Fonts/Arial Unicode.ttf",
		"/System/Library/Fonts/Supplemental/Arial Unicode.ttf",
		"/System/Library/Fonts/Supplemental/Arial.ttf",
	},
	"linux": {
		"/usr/share/fonts/truetype/droid/DroidSansFallbackFull.ttf",
		"/usr/share/fonts/truetype/arphic/uming.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	},
}

// PlatformCandidates returns the built-in ranked font paths for the running OS.
func PlatformCandidates() []string {
	return append([]string{}, platformCandidates[runtime.GOOS]...)
}

// Provider hands out faces of a single font family resolved once at startup.
type Provider struct {
	font   *truetype.Font
	source string
}

// New resolves the first usable font among candidates, in order. Missing or unparsable
// files are skipped. When none can be used the built-in Go Regular face is used, so New
// never fails.
func New(candidates []string) *Provider {
	for _, path := range candidates {
		f, err := parseFontFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				log.Printf("Skipping font %s: %v", path, err)
			}
			continue
		}
		log.Printf("Using font %s", path)
		return &Provider{font: f, source: path}
	}

	log.Printf("No usable font among %d candidates, using %s", len(candidates), BuiltinSource)
	return Builtin()
}

// Builtin returns a provider backed by the embedded Go Regular face.
func Builtin() *Provider {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		// The embedded font is a compile-time asset.
		panic(fmt.Sprintf("failed to parse built-in font: %v", err))
	}
	return &Provider{font: f, source: BuiltinSource}
}

// Face returns the resolved family at size pixels.
func (p *Provider) Face(size float64) font.Face {
	return truetype.NewFace(p.font, &truetype.Options{
		Size: size,
		// 72 DPI makes one point one pixel.
		DPI: 72,
	})
}

// Source is the path of the resolved font file, or BuiltinSource.
func (p *Provider) Source() string {
	return p.source
}

func (p *Provider) IsBuiltin() bool {
	return p.source == BuiltinSource
}

func parseFontFile(path string) (*truetype.Font, error) {
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return truetype.Parse(fontBytes)
}
