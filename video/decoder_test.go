package video

import (
	"errors"
	"testing"
)

type fakeHWDecoder struct {
	fed            [][]byte
	events         []Event
	attachErr      error
	ackErr         error
	attachedFds    []int
	ackInfoChanged int
}

func (h *fakeHWDecoder) Feed(nal []byte) error {
	h.fed = append(h.fed, nal)
	return nil
}

func (h *fakeHWDecoder) PollEvent() (Event, bool) {
	if len(h.events) == 0 {
		return Event{}, false
	}
	ev := h.events[0]
	h.events = h.events[1:]
	return ev, true
}

func (h *fakeHWDecoder) AttachBuffers(fds []int) error {
	h.attachedFds = fds
	return h.attachErr
}

func (h *fakeHWDecoder) AckInfoChange() error {
	h.ackInfoChanged++
	return h.ackErr
}

type fakeDMAAllocator struct {
	allocFds    []int
	allocErr    error
	released    [][]int
	releaseErr  error
}

func (a *fakeDMAAllocator) Alloc(size, count int) ([]int, error) {
	if a.allocErr != nil {
		return nil, a.allocErr
	}
	fds := make([]int, count)
	for i := range fds {
		fds[i] = 100 + i
	}
	a.allocFds = fds
	return fds, nil
}

func (a *fakeDMAAllocator) Release(fds []int) error {
	a.released = append(a.released, fds)
	return a.releaseErr
}

func newTestDecoder(hw *fakeHWDecoder, dma *fakeDMAAllocator) (*Decoder, *fakeDisplay) {
	disp := &fakeDisplay{planeW: 1920, planeH: 1080}
	pres := NewPresenter(disp, &fakeRotator{}, Rotate0)
	return NewDecoder(hw, dma, pres), disp
}

func TestHandleInfoChangeAllocatesAndAttachesBuffers(t *testing.T) {
	hw := &fakeHWDecoder{}
	dma := &fakeDMAAllocator{}
	d, _ := newTestDecoder(hw, dma)

	d.handleInfoChange(Event{Kind: EventInfoChange, Width: 1920, Height: 1080, Format: FormatNV12})

	if len(d.currentFds) != 8 {
		t.Fatalf("currentFds = %v, want 8 buffers", d.currentFds)
	}
	if hw.ackInfoChanged != 1 {
		t.Fatalf("AckInfoChange calls = %d, want 1", hw.ackInfoChanged)
	}
	if d.pres.srcW != 1920 || d.pres.srcH != 1080 {
		t.Fatalf("presenter dims = %dx%d, want 1920x1080", d.pres.srcW, d.pres.srcH)
	}
}

func TestHandleInfoChangeReleasesPreviousBufferGroup(t *testing.T) {
	hw := &fakeHWDecoder{}
	dma := &fakeDMAAllocator{}
	d, _ := newTestDecoder(hw, dma)

	d.handleInfoChange(Event{Width: 1280, Height: 720})
	d.handleInfoChange(Event{Width: 1920, Height: 1080})

	if len(dma.released) != 1 {
		t.Fatalf("release calls = %d, want 1 (the first buffer group)", len(dma.released))
	}
}

func TestHandleFrameDropsFirstSixFrames(t *testing.T) {
	hw := &fakeHWDecoder{}
	dma := &fakeDMAAllocator{}
	d, disp := newTestDecoder(hw, dma)
	d.pres.SetSourceDimensions(1920, 1080, 1920, 1080)

	for i := 0; i < dropFrames; i++ {
		d.handleFrame(Event{Kind: EventFrame, DMAFd: i})
	}
	if len(disp.commits) != 0 {
		t.Fatalf("commits during drop window = %d, want 0", len(disp.commits))
	}

	d.handleFrame(Event{Kind: EventFrame, DMAFd: 99})
	if len(disp.commits) != 1 {
		t.Fatalf("commits after drop window = %d, want 1", len(disp.commits))
	}
}

func TestFeedNALDropsAndCountsStallWhenQueueFull(t *testing.T) {
	hw := &fakeHWDecoder{}
	dma := &fakeDMAAllocator{}
	d, _ := newTestDecoder(hw, dma)

	for i := 0; i < cap(d.nalIn); i++ {
		d.FeedNAL([]byte{byte(i)})
	}
	if d.stallCount != 0 {
		t.Fatalf("stallCount = %d before queue is full, want 0", d.stallCount)
	}

	d.FeedNAL([]byte{0xff})
	if d.stallCount != 1 {
		t.Fatalf("stallCount = %d after queue overflow, want 1", d.stallCount)
	}
}

func TestTeardownReleasesCurrentBuffers(t *testing.T) {
	hw := &fakeHWDecoder{}
	dma := &fakeDMAAllocator{}
	d, _ := newTestDecoder(hw, dma)

	d.handleInfoChange(Event{Width: 1920, Height: 1080})
	d.teardown()

	if d.currentFds != nil {
		t.Fatalf("currentFds = %v after teardown, want nil", d.currentFds)
	}
	if len(dma.released) != 1 {
		t.Fatalf("release calls = %d, want 1", len(dma.released))
	}
}

func TestHandleInfoChangeAttachFailureReleasesFreshAlloc(t *testing.T) {
	hw := &fakeHWDecoder{attachErr: errors.New("fake: attach failed")}
	dma := &fakeDMAAllocator{}
	d, _ := newTestDecoder(hw, dma)

	d.handleInfoChange(Event{Width: 1920, Height: 1080})

	if d.currentFds != nil {
		t.Fatalf("currentFds = %v, want nil after attach failure", d.currentFds)
	}
	if len(dma.released) != 1 {
		t.Fatalf("release calls = %d, want 1 (the failed alloc rolled back)", len(dma.released))
	}
}
