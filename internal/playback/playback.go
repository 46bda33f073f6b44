// Package playback implements the playback loop (spec.md §4.E): it drains
// the playback ring at sample-rate pace, writes converted samples to the
// output channel, and mirrors each chunk into the Reference Manager so the
// capture loop can read a delay-aligned echo estimate.
package playback

import (
	"encoding/binary"
	"log"
	"time"

	"voicecore/internal/pipeline"
)

// idlePollInterval is how long the loop sleeps between occupancy checks
// when the ring has less than one chunk available.
const idlePollInterval = 5 * time.Millisecond

// bytesToSamples decodes a little-endian int16 PCM byte slice.
func bytesToSamples(buf []byte) []int16 {
	out := make([]int16, len(buf)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(buf[2*i:]))
	}
	return out
}

// widen converts 16-bit samples to 32-bit MSB-aligned slots for the output
// channel (left-shift by 16), matching the hardware's serial-audio TX
// format.
func widen(samples []int16) []int32 {
	out := make([]int32, len(samples))
	for i, s := range samples {
		out[i] = int32(s) << 16
	}
	return out
}

// Run is the playback loop body: stopped → running → (stop_requested OR
// idle-timeout) → stopped. It reports completion via ctx.WG and closes
// ctx.PlaybackDone on exit.
func Run(ctx *pipeline.Context) {
	defer ctx.WG.Done()
	defer close(ctx.PlaybackDone)
	defer ctx.PlaybackRunning.Store(false)

	chunkBytes := ctx.Cfg.PlaybackChunkSamples * 2
	chunk := make([]byte, chunkBytes)
	var idle time.Duration

	for {
		select {
		case <-ctx.StopPlayback:
			return
		default:
		}

		ctx.PlaybackMu.Lock()
		occupancy := ctx.PlaybackBuf.Occupancy()
		ctx.PlaybackMu.Unlock()

		if occupancy < chunkBytes {
			time.Sleep(idlePollInterval)
			idle += idlePollInterval
			if idle > ctx.Cfg.IdleTimeout {
				return
			}
			continue
		}
		idle = 0

		ctx.PlaybackMu.Lock()
		ctx.PlaybackBuf.Read(chunk)
		ctx.PlaybackMu.Unlock()

		samples := bytesToSamples(chunk)

		ctx.RefMu.Lock()
		ctx.Ref.Write(samples)
		ctx.RefMu.Unlock()

		if err := ctx.Playback.Write(widen(samples)); err != nil {
			log.Printf("playback: write: %v", err)
			return
		}
	}
}
