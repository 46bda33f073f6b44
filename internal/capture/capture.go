// Package capture implements the capture loop (spec.md §4.C): it reads mic
// frames, pairs them with delay-aligned reference samples, forwards the
// pair to the front-end, and side-writes the raw mic samples into the
// recording ring when recording is enabled.
package capture

import (
	"log"
	"time"

	"voicecore/internal/pipeline"
)

// retryDelay is the short sleep after a failed mic read, before retrying
// without producing a frame. CaptureChannel.Read reports failure only as an
// error; it has no short-count result for the loop to check.
const retryDelay = 2 * time.Millisecond

// diagnosticLogInterval is how many fed frames elapse between diagnostic
// log lines, grounded on modespsr.c's feed_Task diagnostic block
// (`g_feed_count % 100 == 0`, roughly every 3 seconds at 16 kHz/480
// samples per frame).
const diagnosticLogInterval = 100

// Stats is a snapshot of the capture loop's own diagnostic counters,
// grounded on modespsr.c's g_feed_count/g_ref_active_feeds/dropped-frame
// tracking.
type Stats struct {
	FeedCount       uint64
	RefActiveFeeds  uint64
	DroppedFrontend uint64
}

// GetStats returns a snapshot of ctx's capture-loop counters.
func GetStats(ctx *pipeline.Context) Stats {
	return Stats{
		FeedCount:       ctx.FeedCount.Load(),
		RefActiveFeeds:  ctx.RefActiveFeeds.Load(),
		DroppedFrontend: ctx.DroppedFrontend.Load(),
	}
}

// Interleave builds a 2K-sample stereo frame from a mic/reference pair:
// channel 0 is the mic sample, channel 1 is the aligned reference sample,
// for each of the K input samples. It is the wire format spec.md §8
// describes for a combined mic+reference stream; the capture loop itself
// hands the front-end the split mic/ref slices directly and has no need to
// pack and immediately unpack them.
func Interleave(mic, ref []int16) []int16 {
	out := make([]int16, 2*len(mic))
	for i := range mic {
		out[2*i] = mic[i]
		out[2*i+1] = ref[i]
	}
	return out
}

// Deinterleave is Interleave's inverse, splitting a 2K-sample stereo frame
// back into its mic and reference channels.
func Deinterleave(frame []int16) (mic, ref []int16) {
	n := len(frame) / 2
	mic = make([]int16, n)
	ref = make([]int16, n)
	for i := 0; i < n; i++ {
		mic[i] = frame[2*i]
		ref[i] = frame[2*i+1]
	}
	return mic, ref
}

func sumAbs(samples []int16) int64 {
	var sum int64
	for _, s := range samples {
		if s < 0 {
			sum -= int64(s)
		} else {
			sum += int64(s)
		}
	}
	return sum
}

// Run is the capture loop body. It runs until ctx.StopCapture is closed and
// reports completion via ctx.WG (the caller must have called ctx.WG.Add(1)
// before starting this as a goroutine).
func Run(ctx *pipeline.Context) {
	defer ctx.WG.Done()
	defer ctx.CaptureRunning.Store(false)

	chunk := ctx.Cfg.FeedChunkize
	mic := make([]int16, chunk)
	ref := make([]int16, chunk)

	for {
		select {
		case <-ctx.StopCapture:
			return
		default:
		}

		if err := ctx.Capture.Read(mic); err != nil {
			log.Printf("capture: mic read: %v", err)
			time.Sleep(retryDelay)
			continue
		}

		ctx.RefMu.Lock()
		for i := range ref {
			ref[i] = ctx.Ref.ReadOne()
		}
		refActive := ctx.Ref.RecentlyActive()
		ctx.RefMu.Unlock()

		micEnergy := sumAbs(mic)
		refEnergy := sumAbs(ref)
		ctx.MicEnergy.Store(micEnergy)
		ctx.RefEnergy.Store(refEnergy)
		ctx.RefActive.Store(refActive)

		if ctx.RecordingEnabled.Load() {
			ctx.RecordMu.Lock()
			ctx.Record.Write(mic)
			ctx.RecordMu.Unlock()
		}

		result := ctx.Frontend.Process(mic, ref)

		frame := pipeline.FrontendFrame{
			Clean:     result.Clean,
			VAD:       result.VAD,
			MicEnergy: micEnergy,
			RefEnergy: refEnergy,
			RefActive: refActive,
		}
		select {
		case ctx.FrontendOut <- frame:
		default:
			ctx.DroppedFrontend.Add(1)
		}

		feedCount := ctx.FeedCount.Add(1)
		if refActive {
			ctx.RefActiveFeeds.Add(1)
		}
		if feedCount%diagnosticLogInterval == 0 {
			stats := GetStats(ctx)
			ctx.RefMu.Lock()
			refStats := ctx.Ref.Stats()
			ctx.RefMu.Unlock()
			log.Printf("capture: feed#%d ref_active=%v activity=%.1f%% active_feeds=%d/%d dropped=%d",
				feedCount, refActive, refStats.ActivityPercent(), stats.RefActiveFeeds, stats.FeedCount, stats.DroppedFrontend)
		}
	}
}
