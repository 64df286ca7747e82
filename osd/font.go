package osd

import "fmt"

const maxFontPages = 4

// Font is one page of equally-sized RGBA glyphs (§4.4 "Font pages").
// Specific bitmap assets are an external collaborator §1 leaves out of
// scope; Font just needs glyph width/height and an indexable pixel
// source to rasterize from.
type Font struct {
	GlyphW, GlyphH int
	// Pixels holds glyphCount*GlyphW*GlyphH RGBA pixels, glyphs laid out
	// consecutively.
	Pixels     []byte
	GlyphCount int
}

// glyphOffset returns the byte offset into Pixels of code's top-left RGBA
// pixel and whether code is within range.
func (f *Font) glyphOffset(code uint8) (int, bool) {
	if f == nil || int(code) >= f.GlyphCount {
		return 0, false
	}
	return int(code) * f.GlyphW * f.GlyphH * 4, true
}

// Pixel returns the RGBA pixel at (px, py) within glyph code.
func (f *Font) Pixel(code uint8, px, py int) (r, g, b, a byte, ok bool) {
	off, ok := f.glyphOffset(code)
	if !ok || px < 0 || px >= f.GlyphW || py < 0 || py >= f.GlyphH {
		return 0, 0, 0, 0, false
	}
	i := off + (py*f.GlyphW+px)*4
	if i+3 >= len(f.Pixels) {
		return 0, 0, 0, 0, false
	}
	return f.Pixels[i], f.Pixels[i+1], f.Pixels[i+2], f.Pixels[i+3], true
}

// FontSet holds up to 4 font pages; raster falls back to page 0 when the
// requested page is absent (§4.4).
type FontSet struct {
	pages [maxFontPages]*Font
}

func NewFontSet() *FontSet {
	return &FontSet{}
}

func (fs *FontSet) SetPage(page uint8, f *Font) error {
	if int(page) >= maxFontPages {
		return fmt.Errorf("osd: font page %d >= %d", page, maxFontPages)
	}
	fs.pages[page] = f
	return nil
}

func (fs *FontSet) Page(page uint8) *Font {
	if int(page) >= maxFontPages || fs.pages[page] == nil {
		return fs.pages[0]
	}
	return fs.pages[page]
}
