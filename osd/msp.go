package osd

import (
	"encoding/binary"
	"fmt"
)

// MSP DisplayPort sub-message tags within the opaque Displayport packet
// body (§3 "DisplayPort protocol sub-type" — payload format is left to
// the implementation since §1 places specific OSD protocol framing out of
// scope beyond "{x, y, glyph16} writes, clears the screen, and emits
// 'draw complete'").
const (
	mspWriteCell    = 0x01
	mspClearScreen  = 0x02
	mspDrawComplete = 0x03
)

const mspWriteCellSize = 1 + 1 + 1 + 2 // tag, x, y, glyph16

// Parser decodes a stream of MSP DisplayPort sub-messages into Grid
// writes, invoking onDrawComplete whenever a draw-complete message is
// seen (§4.4: "'draw complete' ... triggers a render").
type Parser struct {
	grid           *Grid
	onDrawComplete func()
}

func NewParser(grid *Grid, onDrawComplete func()) *Parser {
	return &Parser{grid: grid, onDrawComplete: onDrawComplete}
}

// Feed processes one Displayport packet body, which may contain several
// concatenated sub-messages.
func (p *Parser) Feed(body []byte) error {
	for len(body) > 0 {
		tag := body[0]
		switch tag {
		case mspWriteCell:
			if len(body) < mspWriteCellSize {
				return fmt.Errorf("osd: truncated write-cell message")
			}
			x := int(body[1])
			y := int(body[2])
			glyph16 := binary.LittleEndian.Uint16(body[3:5])
			p.grid.Set(x, y, glyph16)
			body = body[mspWriteCellSize:]
		case mspClearScreen:
			p.grid.Clear()
			body = body[1:]
		case mspDrawComplete:
			body = body[1:]
			if p.onDrawComplete != nil {
				p.onDrawComplete()
			}
		default:
			return fmt.Errorf("osd: unknown msp displayport tag %#x", tag)
		}
	}
	return nil
}
