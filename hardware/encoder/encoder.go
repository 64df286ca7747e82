// Package encoder implements dispatch.EncoderControl against the video
// codec/ISP SDK, an external collaborator §1 places out of scope. This is
// a plausible control-plane shim: every setter validates its argument
// against the encoder's known limits and logs the register-level call a
// real SDK binding would make.
package encoder

import (
	"fmt"
	"log"
	"sync"

	"skylink/config"
)

// Encoder is a single hardware encoder channel's control surface.
type Encoder struct {
	mu sync.Mutex
}

func New() *Encoder { return &Encoder{} }

func (e *Encoder) SetFPS(fps int) error {
	if fps <= 0 || fps > 120 {
		return fmt.Errorf("encoder: fps %d out of range [1,120]", fps)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	log.Println("encoder: set fps", fps)
	return nil
}

func (e *Encoder) SetBitrateBps(bps uint32) error {
	if bps == 0 || bps > 50_000_000 {
		return fmt.Errorf("encoder: bitrate %d bps out of range", bps)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	log.Println("encoder: set bitrate", bps, "bps")
	return nil
}

func (e *Encoder) SetGOP(gop int) error {
	if gop <= 0 {
		return fmt.Errorf("encoder: gop %d must be positive", gop)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	log.Println("encoder: set gop", gop)
	return nil
}

func (e *Encoder) SetCodec(c config.Codec) error {
	if c != config.CodecH264 && c != config.CodecH265 {
		return fmt.Errorf("encoder: unknown codec %d", c)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	log.Println("encoder: set codec", c)
	return nil
}

func (e *Encoder) SetVBR(vbr bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	log.Println("encoder: set vbr", vbr)
	return nil
}

func (e *Encoder) SetPayloadSize(size int) error {
	if size <= 0 || size > 1500 {
		return fmt.Errorf("encoder: payload size %d out of range [1,1500]", size)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	log.Println("encoder: set payload size", size)
	return nil
}
