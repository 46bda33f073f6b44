package capture

import (
	"testing"
	"time"

	"voicecore/internal/config"
	"voicecore/internal/frontend"
	"voicecore/internal/pipeline"
)

func TestInterleaveCorrectness(t *testing.T) {
	mic := []int16{1, 2, 3}
	ref := []int16{10, 20, 30}
	got := Interleave(mic, ref)
	want := []int16{1, 10, 2, 20, 3, 30}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Interleave = %v, want %v", got, want)
		}
	}
}

func TestDeinterleaveIsInverse(t *testing.T) {
	mic := []int16{1, 2, 3, 4}
	ref := []int16{9, 8, 7, 6}
	stereo := Interleave(mic, ref)
	gotMic, gotRef := Deinterleave(stereo)
	for i := range mic {
		if gotMic[i] != mic[i] || gotRef[i] != ref[i] {
			t.Fatalf("Deinterleave mismatch at %d: mic=%v ref=%v", i, gotMic, gotRef)
		}
	}
}

// fakeCapture is a minimal CaptureChannel that yields a fixed frame and
// counts calls, for loop-behavior tests.
type fakeCapture struct {
	frame   []int16
	reads   int
	failN   int // number of initial reads that return an error
}

func (f *fakeCapture) Read(buf []int16) error {
	f.reads++
	if f.reads <= f.failN {
		return errReadFailed
	}
	copy(buf, f.frame)
	return nil
}
func (f *fakeCapture) Stop() error  { return nil }
func (f *fakeCapture) Close() error { return nil }

type errBoom struct{ s string }

func (e *errBoom) Error() string { return e.s }

var errReadFailed = &errBoom{"read failed"}

func newTestContext(t *testing.T, frame []int16) (*pipeline.Context, *fakeCapture) {
	t.Helper()
	cfg := config.Default()
	cfg.FeedChunkize = len(frame)
	ctx := pipeline.New(cfg)
	fc := &fakeCapture{frame: frame}
	ctx.Capture = fc
	ctx.Frontend = frontend.New()
	ctx.StopCapture = make(chan struct{})
	return ctx, fc
}

func TestRunProducesFrontendFrames(t *testing.T) {
	ctx, _ := newTestContext(t, make([]int16, 16))
	ctx.WG.Add(1)
	go Run(ctx)

	select {
	case frame := <-ctx.FrontendOut:
		if len(frame.Clean) != 16 {
			t.Fatalf("clean frame length = %d, want 16", len(frame.Clean))
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a frontend frame")
	}

	close(ctx.StopCapture)
	ctx.WG.Wait()
}

func TestRunRetriesOnReadError(t *testing.T) {
	frame := make([]int16, 8)
	ctx, fc := newTestContext(t, frame)
	fc.failN = 2
	ctx.WG.Add(1)
	go Run(ctx)

	select {
	case <-ctx.FrontendOut:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a frontend frame after retry")
	}
	if fc.reads < 3 {
		t.Fatalf("reads = %d, want at least 3 (2 failures + 1 success)", fc.reads)
	}

	close(ctx.StopCapture)
	ctx.WG.Wait()
}

func TestRunSideWritesToRecordingRing(t *testing.T) {
	frame := []int16{100, 200, 300, 400}
	ctx, _ := newTestContext(t, frame)
	ctx.RecordingEnabled.Store(true)
	ctx.WG.Add(1)
	go Run(ctx)

	select {
	case <-ctx.FrontendOut:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a frontend frame")
	}

	close(ctx.StopCapture)
	ctx.WG.Wait()

	ctx.RecordMu.Lock()
	occ := ctx.Record.Occupancy()
	ctx.RecordMu.Unlock()
	if occ != len(frame) {
		t.Fatalf("recording ring occupancy = %d, want %d", occ, len(frame))
	}
}

func TestRunUpdatesFeedStats(t *testing.T) {
	frame := make([]int16, 4)
	ctx, _ := newTestContext(t, frame)
	ctx.WG.Add(1)
	go Run(ctx)

	for i := 0; i < 3; i++ {
		<-ctx.FrontendOut
	}

	close(ctx.StopCapture)
	ctx.WG.Wait()

	stats := GetStats(ctx)
	if stats.FeedCount < 3 {
		t.Fatalf("FeedCount = %d, want at least 3", stats.FeedCount)
	}
	// The reference manager is never written to in this test, so every fed
	// frame sees an inactive reference.
	if stats.RefActiveFeeds != 0 {
		t.Fatalf("RefActiveFeeds = %d, want 0", stats.RefActiveFeeds)
	}
}
