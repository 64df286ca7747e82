package osd

import "sync"

// Rotation mirrors video.Rotation; kept distinct here so osd has no
// dependency on the video package (§4.4 rasterization applies its own
// rotation to destination pixels, independent of the video plane).
type Rotation int

const (
	Rotate0 Rotation = iota
	Rotate90
	Rotate180
	Rotate270
)

// Framebuffer is a BGRA pixel buffer the composer writes into.
type Framebuffer struct {
	W, H int
	Pix  []byte // len == W*H*4, BGRA order
}

func NewFramebuffer(w, h int) *Framebuffer {
	return &Framebuffer{W: w, H: h, Pix: make([]byte, w*h*4)}
}

func (fb *Framebuffer) set(x, y int, b, g, r, a byte) {
	if x < 0 || x >= fb.W || y < 0 || y >= fb.H {
		return
	}
	i := (y*fb.W + x) * 4
	fb.Pix[i], fb.Pix[i+1], fb.Pix[i+2], fb.Pix[i+3] = b, g, r, a
}

func (fb *Framebuffer) clear() {
	for i := range fb.Pix {
		fb.Pix[i] = 0
	}
}

// rotateDest remaps a destination pixel (px, py) computed against an
// unrotated framebuffer into (rx, ry) in the actual (possibly
// dimension-swapped) framebuffer, per §4.4 step 3.
func rotateDest(px, py, fbW, fbH int, rot Rotation) (rx, ry int) {
	switch rot {
	case Rotate90:
		return fbW - 1 - py, px
	case Rotate180:
		return fbW - 1 - px, fbH - 1 - py
	case Rotate270:
		return py, fbH - 1 - px
	default:
		return px, py
	}
}

// outputDims swaps width/height for 90/270 rotation, the orientation the
// caller must allocate the Framebuffer with before rasterizing into it.
func outputDims(logicalW, logicalH int, rot Rotation) (w, h int) {
	if rot == Rotate90 || rot == Rotate270 {
		return logicalH, logicalW
	}
	return logicalW, logicalH
}

// Composer owns the three grids and renders them, plus a widget overlay
// buffer, into one final ARGB/BGRA framebuffer. Grid writers (MSP parser,
// fake-HD remapper, overlay writer) serialize on each Grid's own mutex;
// mu guards the widget buffer and serializes Compose passes.
type Composer struct {
	mu sync.Mutex

	MSP     *Grid
	Render  *Grid // fake-HD remap target
	Overlay *Grid

	Fonts    *FontSet
	GlyphW   int
	GlyphH   int
	Rotation Rotation

	widget *Framebuffer // external widget toolkit's dirty buffer, may be nil
}

func NewComposer(mspW, mspH, glyphW, glyphH int, fonts *FontSet, rot Rotation) *Composer {
	return &Composer{
		MSP:      NewGrid(mspW, mspH),
		Render:   NewGrid(mspW, mspH),
		Overlay:  NewGrid(mspW, mspH),
		Fonts:    fonts,
		GlyphW:   glyphW,
		GlyphH:   glyphH,
		Rotation: rot,
	}
}

// SetWidgetBuffer installs the UI widget thread's latest dirty ARGB
// buffer (§4.4: "The OSD ARGB buffer and any UI widget buffer are blended
// ... source-over").
func (c *Composer) SetWidgetBuffer(fb *Framebuffer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.widget = fb
}

// Compose rasterizes Render ∪ Overlay (overlay on top, glyph 0 skipped) and
// source-over blends the widget buffer, returning a fresh framebuffer
// sized for the active rotation.
func (c *Composer) Compose() *Framebuffer {
	c.mu.Lock()
	defer c.mu.Unlock()

	logicalW := c.MSP.Width * c.GlyphW
	logicalH := c.MSP.Height * c.GlyphH
	outW, outH := outputDims(logicalW, logicalH, c.Rotation)
	fb := NewFramebuffer(outW, outH)

	// Render is the fake-HD-remapped view of MSP (see fakehd.go); the final
	// plane is built from it, not the raw MSP grid, with Overlay on top
	// (§4.4 "the union: overlay on top of MSP").
	c.rasterGrid(fb, c.Render, logicalW, logicalH)
	c.rasterGrid(fb, c.Overlay, logicalW, logicalH)

	if c.widget != nil {
		blendSourceOver(fb, c.widget)
	}
	return fb
}

func (c *Composer) rasterGrid(fb *Framebuffer, g *Grid, logicalW, logicalH int) {
	for _, ca := range g.Snapshot() {
		page := ca.Cell.Page()
		code := ca.Cell.Code()
		font := c.Fonts.Page(page)
		if font == nil {
			continue
		}
		xOff := ca.X * c.GlyphW
		yOff := ca.Y * c.GlyphH
		for py := 0; py < font.GlyphH; py++ {
			for px := 0; px < font.GlyphW; px++ {
				r, g8, b, a, ok := font.Pixel(code, px, py)
				if !ok || a == 0 {
					continue
				}
				destX := xOff + px
				destY := yOff + py
				rx, ry := rotateDest(destX, destY, fb.W, fb.H, c.Rotation)
				fb.set(rx, ry, b, g8, r, a)
			}
		}
	}
}

// blendSourceOver composites src over dst in place using standard alpha
// compositing; mismatched dimensions are clipped to the smaller extent.
func blendSourceOver(dst, src *Framebuffer) {
	w := min(dst.W, src.W)
	h := min(dst.H, src.H)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			si := (y*src.W + x) * 4
			sb, sg, sr, sa := src.Pix[si], src.Pix[si+1], src.Pix[si+2], src.Pix[si+3]
			if sa == 0 {
				continue
			}
			if sa == 255 {
				dst.set(x, y, sb, sg, sr, sa)
				continue
			}
			di := (y*dst.W + x) * 4
			db, dg, dr, da := dst.Pix[di], dst.Pix[di+1], dst.Pix[di+2], dst.Pix[di+3]
			out := func(s, d byte) byte {
				return byte((int(s)*int(sa) + int(d)*(255-int(sa))) / 255)
			}
			dst.set(x, y, out(sb, db), out(sg, dg), out(sr, dr), byte(max(int(sa), int(da))))
		}
	}
}
