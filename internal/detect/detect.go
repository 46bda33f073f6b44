// Package detect implements the detect loop (spec.md §4.D): it pulls
// processed frames from the front-end, updates the debounced VAD-speaking
// flag with playback-energy suppression, drives the command model, and
// publishes recognition results.
package detect

import (
	"log"

	"voicecore/internal/command"
	"voicecore/internal/pipeline"
)

// Qualifies reports whether a frontend frame counts toward the debounce
// streak: the front-end must report speech, and the reference must not be
// both recently active and loud relative to the mic (self-echo rejection).
func Qualifies(frame pipeline.FrontendFrame, energyRatio int64) bool {
	if !frame.VAD {
		return false
	}
	suppressed := frame.RefActive && frame.RefEnergy > energyRatio*frame.MicEnergy
	return !suppressed
}

// Run is the detect loop body. It runs until ctx.StopDetect is closed or
// ctx.FrontendOut is closed, and reports completion via ctx.WG.
func Run(ctx *pipeline.Context) {
	defer ctx.WG.Done()
	defer ctx.DetectRunning.Store(false)

	streak := 0
	debounceNeeded := ctx.Cfg.VADDebounceNeeded

	for {
		select {
		case <-ctx.StopDetect:
			return
		case frame, ok := <-ctx.FrontendOut:
			if !ok {
				return
			}

			if Qualifies(frame, ctx.EnergyRatio.Load()) {
				streak++
			} else {
				streak = 0
			}
			ctx.VAD.Set(streak >= debounceNeeded)

			state, id, _ := ctx.Model.Feed(frame.Clean)
			switch state {
			case command.Detecting:
				// Keep listening; nothing to emit yet.
			case command.Timeout:
				ctx.Model.Reset()
			case command.Detected:
				publish(ctx, id)
				ctx.Model.Reset()
			}
		}
	}
}

func publish(ctx *pipeline.Context, id int) {
	res := command.Result{CommandID: id}
	if id == 0 {
		res.Kind = command.ResultWake
	} else {
		res.Kind = command.ResultCommand
	}
	if phrase, ok := ctx.Vocab.Phrase(id); ok {
		res.Phrase = phrase
	}

	select {
	case ctx.Results <- res:
	default:
		ctx.DroppedResults.Add(1)
	}

	if ctx.Pulser != nil {
		if err := ctx.Pulser.Fire(); err != nil {
			log.Printf("detect: pulse fire: %v", err)
		}
	}
}
