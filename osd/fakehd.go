package osd

// RemapFakeHD spreads a standard-definition character grid into an HD
// grid's coordinate space (§4.4 "the render grid ... written by the
// 'fake-HD' remapper that spreads a SD grid into HD positions"). It's a
// pure function of (sd, hdW, hdH): no hidden state, so callers can invoke
// it on every MSP draw-complete without extra synchronization beyond the
// per-grid locks that Set, Clear and Snapshot already take.
func RemapFakeHD(sd *Grid, hd *Grid) {
	if sd.Width == hd.Width && sd.Height == hd.Height {
		copyGrid(sd, hd)
		return
	}

	hd.Clear()
	scaleX := float64(hd.Width) / float64(sd.Width)
	scaleY := float64(hd.Height) / float64(sd.Height)

	for _, ca := range sd.Snapshot() {
		hx := int(float64(ca.X) * scaleX)
		hy := int(float64(ca.Y) * scaleY)
		hd.Set(hx, hy, ca.Cell.Glyph16)
	}
}

func copyGrid(src, dst *Grid) {
	dst.Clear()
	for _, ca := range src.Snapshot() {
		dst.Set(ca.X, ca.Y, ca.Cell.Glyph16)
	}
}
