package aec

import "testing"

func TestDisabledPassesThrough(t *testing.T) {
	a := New()
	a.SetEnabled(false)
	mic := []int16{100, -200, 300}
	ref := []int16{10, 20, 30}
	out := a.Process(mic, ref)
	for i := range mic {
		if out[i] != mic[i] {
			t.Fatalf("disabled Process[%d] = %d, want %d", i, out[i], mic[i])
		}
	}
}

func TestConvergesOnPureEcho(t *testing.T) {
	a := New()
	ref := make([]int16, 256)
	for i := range ref {
		ref[i] = int16(1000 * sign(i))
	}
	mic := make([]int16, len(ref))
	copy(mic, ref) // mic is pure, perfectly-aligned echo of ref

	var lastAbsSum int64
	for pass := 0; pass < 20; pass++ {
		out := a.Process(mic, ref)
		var absSum int64
		for _, s := range out {
			if s < 0 {
				absSum -= int64(s)
			} else {
				absSum += int64(s)
			}
		}
		lastAbsSum = absSum
	}
	if lastAbsSum > int64(len(ref))*200 {
		t.Fatalf("residual echo energy too high after convergence: %d", lastAbsSum)
	}
}

func sign(i int) int {
	if i%2 == 0 {
		return 1
	}
	return -1
}

func TestOutputNeverOverflowsInt16(t *testing.T) {
	a := New()
	mic := []int16{32767, -32768, 32767, -32768}
	ref := []int16{-32768, 32767, -32768, 32767}
	out := a.Process(mic, ref)
	for _, s := range out {
		if s > 32767 || s < -32768 {
			t.Fatalf("output out of int16 range: %d", s)
		}
	}
}
