package compose

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/visionex-project/imagetranslator/impl/font"
	"github.com/visionex-project/imagetranslator/impl/layout"
	"github.com/visionex-project/imagetranslator/pkg/utils"
)

// Where the translated block is anchored inside the erased box.
type Placement string

const (
	PlaceTopLeft  Placement = "top-left"
	PlaceCentered Placement = "center"
)

const (
	// Ratio between the detected line height and the font size of the translation.
	DefaultFontScale = 0.8
	// Translations are never drawn smaller than this, in pixels.
	DefaultMinFontSize = 10
)

var ErrLengthMismatch = errors.New("number of units and translations differ")

type Options struct {
	Background color.Color
	Foreground color.Color
	FontScale  float64
	// Floor of the computed font size.
	MinFontSize float64
	// Distance between baselines, in multiples of the face height.
	LineSpacing float64
	Placement   Placement
	// Break lines at rune boundaries so they fit the box width.
	Wrap bool
	// Reject mismatched units and translations instead of processing the shorter of the two.
	StrictLengths bool
	Eraser        Eraser
}

func DefaultOptions() Options {
	return Options{
		Background:  color.White,
		Foreground:  color.Black,
		FontScale:   DefaultFontScale,
		MinFontSize: DefaultMinFontSize,
		LineSpacing: 1,
		Placement:   PlaceTopLeft,
	}
}

// ParseColor reads a hex color such as "#ffffff".
func ParseColor(hex string) (color.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return c, nil
}

// Compositor erases recognized units from an image and draws their translations in place.
type Compositor struct {
	fonts *font.Provider
	opts  Options
}

// New returns a compositor drawing with faces from fonts. Zero fields of opts take their default.
func New(fonts *font.Provider, opts Options) *Compositor {
	defaults := DefaultOptions()
	if opts.Background == nil {
		opts.Background = defaults.Background
	}
	if opts.Foreground == nil {
		opts.Foreground = defaults.Foreground
	}
	if opts.FontScale <= 0 {
		opts.FontScale = defaults.FontScale
	}
	if opts.MinFontSize <= 0 {
		opts.MinFontSize = defaults.MinFontSize
	}
	if opts.LineSpacing <= 0 {
		opts.LineSpacing = defaults.LineSpacing
	}
	if opts.Placement == "" {
		opts.Placement = defaults.Placement
	}
	if opts.Eraser == nil {
		opts.Eraser = SolidEraser{Color: opts.Background}
	}
	return &Compositor{fonts: fonts, opts: opts}
}

// Render returns a copy of src where every unit box is erased and its translation drawn.
// Unit i is paired with translations[i]. src is not modified.
func (c *Compositor) Render(src image.Image, units []layout.Unit, translations []string) (image.Image, error) {
	count := min(len(units), len(translations))
	if len(units) != len(translations) {
		if c.opts.StrictLengths {
			return nil, fmt.Errorf("%w: %d units, %d translations", ErrLengthMismatch, len(units), len(translations))
		}
		log.Printf("Received %d units and %d translations, composing the first %d", len(units), len(translations), count)
	}

	// The drawing context works in zero-based coordinates, which is what recognizers report.
	if src.Bounds().Min != (image.Point{}) {
		src = imaging.Clone(src)
	}
	dc := gg.NewContextForImage(src)
	for i := 0; i < count; i++ {
		dc = c.opts.Eraser.Erase(dc, units[i].Bounds().Rect())
		dc = c.drawTranslation(dc, units[i], translations[i])
	}
	return dc.Image(), nil
}

func (c *Compositor) drawTranslation(dc *gg.Context, unit layout.Unit, text string) *gg.Context {
	text = strings.TrimRight(text, "\n")
	if strings.TrimSpace(text) == "" {
		return dc
	}

	box := unit.Bounds()
	size := FontSize(unit, c.opts.FontScale, c.opts.MinFontSize)
	face := c.fonts.Face(size)
	dc.SetFontFace(face)
	dc.SetColor(c.opts.Foreground)

	measure := func(s string) float64 {
		width, _ := dc.MeasureString(s)
		if width <= 0 {
			return EstimateTextWidth(s, size)
		}
		return width
	}

	lines := strings.Split(text, "\n")
	if c.opts.Wrap {
		lines = utils.FlatMap(lines, func(line string) []string {
			return wrapLine(line, float64(box.Width), measure)
		})
	}

	blockWidth := utils.Reduce(lines, func(widest float64, line string) float64 {
		return math.Max(widest, measure(line))
	}, 0)
	lineHeight := dc.FontHeight() * c.opts.LineSpacing
	blockHeight := lineHeight * float64(len(lines))
	x, y := Origin(box, blockWidth, blockHeight, c.opts.Placement)

	// Text never leaves the erased box, even when it is wider or taller than the box.
	dc.DrawRectangle(float64(box.Left), float64(box.Top), float64(box.Width), float64(box.Height))
	dc.Clip()
	defer dc.ResetClip()

	// DrawString takes the baseline; the first line's ascent sits at the origin.
	ascent := float64(face.Metrics().Ascent.Ceil())
	for i, line := range lines {
		dc.DrawString(line, x, y+ascent+float64(i)*lineHeight)
	}
	return dc
}

// FontSize derives the translation size from the height of the unit's first recognized line.
func FontSize(unit layout.Unit, scale float64, minSize float64) float64 {
	height := unit.Bounds().Height
	if members := unit.Members(); len(members) > 0 {
		height = members[0].Box.Height
	}
	return math.Max(minSize, math.Round(float64(height)*scale))
}

// EstimateTextWidth approximates the rendered width when the face cannot measure text.
func EstimateTextWidth(text string, size float64) float64 {
	return float64(utf8.RuneCountInString(text)) * size / 2
}

// Origin returns the top-left corner of a text block of the given size placed inside box.
func Origin(box layout.BoundingBox, blockWidth float64, blockHeight float64, placement Placement) (float64, float64) {
	x, y := float64(box.Left), float64(box.Top)
	if placement == PlaceCentered {
		x += (float64(box.Width) - blockWidth) / 2
		y += (float64(box.Height) - blockHeight) / 2
	}
	return x, y
}

// Greedily breaks line at rune boundaries. Every returned line holds at least one rune.
func wrapLine(line string, maxWidth float64, measure func(string) float64) []string {
	if maxWidth <= 0 || measure(line) <= maxWidth {
		return []string{line}
	}

	wrapped := []string{}
	current := []rune{}
	for _, r := range line {
		candidate := append(current, r)
		if len(current) > 0 && measure(string(candidate)) > maxWidth {
			wrapped = append(wrapped, string(current))
			current = []rune{r}
			continue
		}
		current = candidate
	}
	if len(current) > 0 {
		wrapped = append(wrapped, string(current))
	}
	return wrapped
}

// ComposeFile renders the translations onto the image at sourcePath and writes the result to outputPath.
// The output format follows the extension of outputPath. The output is written to a temporary file next to
// the destination and renamed into place, so a failed run leaves no partial file behind.
func (c *Compositor) ComposeFile(sourcePath string, outputPath string, units []layout.Unit, translations []string) error {
	if _, err := imaging.FormatFromFilename(outputPath); err != nil {
		return fmt.Errorf("unsupported output format %s: %w", outputPath, err)
	}
	src, err := imaging.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", sourcePath, err)
	}
	rendered, err := c.Render(src, units, translations)
	if err != nil {
		return err
	}
	return writeAtomically(outputPath, func(w io.Writer) error {
		return Encode(w, rendered, outputPath)
	})
}

// Compose is ComposeFile reporting only success. The failure is logged.
func (c *Compositor) Compose(sourcePath string, outputPath string, units []layout.Unit, translations []string) bool {
	if err := c.ComposeFile(sourcePath, outputPath, units, translations); err != nil {
		log.Printf("Failed to compose %s: %v", sourcePath, err)
		return false
	}
	return true
}

// Encode writes img in the format named by the extension of path.
func Encode(w io.Writer, img image.Image, path string) error {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return err
	}
	return imaging.Encode(w, img, format)
}

func writeAtomically(path string, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := write(tmp); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	// Temporary files are owner-only. A replaced file keeps its mode.
	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		return fmt.Errorf("failed to set mode of %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into %s: %w", path, err)
	}
	return nil
}
