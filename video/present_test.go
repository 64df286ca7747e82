package video

import (
	"errors"
	"testing"
)

type fakeDisplay struct {
	planeW, planeH int

	commits      []Rect
	nextFBID     int
	released     []int
	commitErr    error
	releaseErr   error
	failReleaseN int // 1-based Release call index to fail, 0 = never
}

func (d *fakeDisplay) Commit(fd int, rect Rect) (int, error) {
	if d.commitErr != nil {
		return 0, d.commitErr
	}
	d.commits = append(d.commits, rect)
	d.nextFBID++
	return d.nextFBID, nil
}

func (d *fakeDisplay) Release(fbID int) error {
	d.released = append(d.released, fbID)
	if d.failReleaseN != 0 && len(d.released) == d.failReleaseN {
		return d.releaseErr
	}
	return nil
}

func (d *fakeDisplay) PlaneSize() (int, int) { return d.planeW, d.planeH }

type fakeRotator struct {
	calls  int
	nextFd int
}

func (r *fakeRotator) Rotate(srcFd, srcW, srcH, dstW, dstH int, rot Rotation) (int, error) {
	r.calls++
	r.nextFd++
	return 1000 + r.nextFd, nil
}

func TestFitRectLetterboxesWiderSource(t *testing.T) {
	// 16:9 source into a 4:3 plane: fit width, letterbox top/bottom.
	rect := fitRect(1920, 1080, 800, 600)
	if rect.W != 800 {
		t.Fatalf("W = %d, want 800", rect.W)
	}
	if rect.H >= 600 {
		t.Fatalf("H = %d, want < 600 (letterboxed)", rect.H)
	}
	if rect.Y <= 0 {
		t.Fatalf("Y = %d, want > 0 (centered)", rect.Y)
	}
}

func TestFitRectPillarboxesTallerSource(t *testing.T) {
	// 3:4 source into a 16:9 plane: fit height, pillarbox left/right.
	rect := fitRect(480, 640, 1920, 1080)
	if rect.H != 1080 {
		t.Fatalf("H = %d, want 1080", rect.H)
	}
	if rect.W >= 1920 {
		t.Fatalf("W = %d, want < 1920 (pillarboxed)", rect.W)
	}
	if rect.X <= 0 {
		t.Fatalf("X = %d, want > 0 (centered)", rect.X)
	}
}

func TestFitRectZeroDimensionsReturnsZeroRect(t *testing.T) {
	if got := fitRect(0, 1080, 800, 600); got != (Rect{}) {
		t.Fatalf("fitRect with zero srcW = %+v, want zero Rect", got)
	}
}

func TestPresentWithoutRotationCommitsDirectly(t *testing.T) {
	disp := &fakeDisplay{planeW: 1920, planeH: 1080}
	rot := &fakeRotator{}
	p := NewPresenter(disp, rot, Rotate0)
	p.SetSourceDimensions(1920, 1080, 1920, 1080)

	if err := p.Present(42); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if rot.calls != 0 {
		t.Fatalf("rotator should not be invoked at Rotate0, calls = %d", rot.calls)
	}
	if len(disp.commits) != 1 {
		t.Fatalf("commits = %d, want 1", len(disp.commits))
	}
	if len(disp.released) != 0 {
		t.Fatalf("first Present should not release anything, released = %v", disp.released)
	}
}

func TestPresentAt90RoutesThroughRotatorAndSwapsDimensions(t *testing.T) {
	disp := &fakeDisplay{planeW: 1080, planeH: 1920}
	rot := &fakeRotator{}
	p := NewPresenter(disp, rot, Rotate90)
	p.SetSourceDimensions(1920, 1080, 1920, 1080)

	if err := p.Present(1); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if rot.calls != 1 {
		t.Fatalf("rotator calls = %d, want 1", rot.calls)
	}
	// Post-rotation layout is srcH x srcW (1080x1920), matching the portrait
	// plane exactly, so the fit rect should cover it fully.
	got := disp.commits[0]
	if got.W != 1080 || got.H != 1920 {
		t.Fatalf("commit rect = %+v, want full 1080x1920", got)
	}
}

func TestPresentNeverReleasesBeforeNewCommitSucceeds(t *testing.T) {
	disp := &fakeDisplay{planeW: 1920, planeH: 1080}
	p := NewPresenter(disp, &fakeRotator{}, Rotate0)
	p.SetSourceDimensions(1920, 1080, 1920, 1080)

	if err := p.Present(1); err != nil {
		t.Fatalf("first Present: %v", err)
	}
	firstFB := disp.nextFBID

	if err := p.Present(2); err != nil {
		t.Fatalf("second Present: %v", err)
	}
	if len(disp.released) != 1 || disp.released[0] != firstFB {
		t.Fatalf("released = %v, want [%d]", disp.released, firstFB)
	}
}

func TestPresentCommitFailureLeavesPreviousFramebufferIntact(t *testing.T) {
	disp := &fakeDisplay{planeW: 1920, planeH: 1080}
	p := NewPresenter(disp, &fakeRotator{}, Rotate0)
	p.SetSourceDimensions(1920, 1080, 1920, 1080)

	if err := p.Present(1); err != nil {
		t.Fatalf("first Present: %v", err)
	}

	disp.commitErr = errors.New("fake: commit failed")
	if err := p.Present(2); err == nil {
		t.Fatal("expected Present to propagate the commit error")
	}
	if len(disp.released) != 0 {
		t.Fatalf("a failed commit must not release the previous framebuffer, released = %v", disp.released)
	}
}
