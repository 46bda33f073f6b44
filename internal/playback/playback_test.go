package playback

import (
	"encoding/binary"
	"testing"
	"time"

	"voicecore/internal/config"
	"voicecore/internal/pipeline"
)

func TestWidenShiftsLeftBy16(t *testing.T) {
	in := []int16{1, -1, 32767, -32768}
	out := widen(in)
	want := []int32{1 << 16, -1 << 16, 32767 << 16, -32768 << 16}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("widen[%d] = %d, want %d", i, out[i], want[i])
		}
	}
}

func TestBytesToSamplesLittleEndian(t *testing.T) {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:], uint16(int16(1000)))
	binary.LittleEndian.PutUint16(buf[2:], uint16(int16(-1000)))
	got := bytesToSamples(buf)
	if got[0] != 1000 || got[1] != -1000 {
		t.Fatalf("bytesToSamples = %v, want [1000 -1000]", got)
	}
}

type fakePlayback struct {
	writes  [][]int32
	failAll bool
}

func (f *fakePlayback) Write(buf []int32) error {
	if f.failAll {
		return errWriteFailed
	}
	cp := append([]int32(nil), buf...)
	f.writes = append(f.writes, cp)
	return nil
}
func (f *fakePlayback) Stop() error  { return nil }
func (f *fakePlayback) Close() error { return nil }

type errBoom struct{ s string }

func (e *errBoom) Error() string { return e.s }

var errWriteFailed = &errBoom{"write failed"}

func newTestContext(t *testing.T) (*pipeline.Context, *fakePlayback) {
	t.Helper()
	cfg := config.Default()
	cfg.PlaybackChunkSamples = 4
	cfg.IdleTimeout = 20 * time.Millisecond
	ctx := pipeline.New(cfg)
	fp := &fakePlayback{}
	ctx.Playback = fp
	ctx.StopPlayback = make(chan struct{})
	ctx.PlaybackDone = make(chan struct{})
	return ctx, fp
}

func TestRunDrainsChunkAndMirrorsReference(t *testing.T) {
	ctx, fp := newTestContext(t)
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint16(buf[0:], uint16(int16(100)))
	binary.LittleEndian.PutUint16(buf[2:], uint16(int16(200)))
	binary.LittleEndian.PutUint16(buf[4:], uint16(int16(300)))
	binary.LittleEndian.PutUint16(buf[6:], uint16(int16(400)))
	ctx.PlaybackBuf.Write(buf)

	ctx.WG.Add(1)
	ctx.PlaybackRunning.Store(true)
	go Run(ctx)

	deadline := time.Now().Add(time.Second)
	for len(fp.writes) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if len(fp.writes) == 0 {
		t.Fatal("expected at least one Write call")
	}
	if fp.writes[0][0] != 100<<16 {
		t.Fatalf("first written sample = %d, want %d", fp.writes[0][0], 100<<16)
	}

	if !ctx.Ref.PhaseInitialized() {
		t.Fatal("expected reference manager phase-initialized after playback mirror")
	}

	close(ctx.StopPlayback)
	ctx.WG.Wait()
}

func TestRunSelfStopsAfterIdleTimeout(t *testing.T) {
	ctx, _ := newTestContext(t)
	ctx.WG.Add(1)
	ctx.PlaybackRunning.Store(true)
	go Run(ctx)

	select {
	case <-ctx.PlaybackDone:
	case <-time.After(2 * time.Second):
		t.Fatal("expected loop to self-stop after idle timeout")
	}
	ctx.WG.Wait()
	if ctx.PlaybackRunning.Load() {
		t.Fatal("expected PlaybackRunning cleared after idle self-stop")
	}
}

func TestRunExitsOnWriteError(t *testing.T) {
	ctx, fp := newTestContext(t)
	fp.failAll = true
	buf := make([]byte, 8)
	ctx.PlaybackBuf.Write(buf)

	ctx.WG.Add(1)
	ctx.PlaybackRunning.Store(true)
	go Run(ctx)

	select {
	case <-ctx.PlaybackDone:
	case <-time.After(time.Second):
		t.Fatal("expected loop to exit after write error")
	}
	ctx.WG.Wait()
}
