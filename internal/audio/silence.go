package audio

import "math"

// Span is a [StartMs, EndMs) range of a waveform in milliseconds.
type Span struct {
	StartMs int
	EndMs   int
}

// DurationMs returns the length of the span.
func (s Span) DurationMs() int {
	return s.EndMs - s.StartMs
}

// DBToRatio converts a dBFS value to an amplitude ratio of full scale.
func DBToRatio(db float64) float64 {
	return math.Pow(10, db/20)
}

// energy holds per-millisecond prefix sums of squared samples, so the RMS of
// any millisecond-aligned window is computed in constant time.
type energy struct {
	sumSq  []float64 // sumSq[i] = sum of squares of all samples before ms i
	frames []int     // frames[i] = first frame of ms i
	ch     int
}

func newEnergy(w *Waveform, lenMs int) *energy {
	e := &energy{
		sumSq:  make([]float64, lenMs+1),
		frames: make([]int, lenMs+1),
		ch:     w.Channels,
	}
	for ms := 0; ms <= lenMs; ms++ {
		e.frames[ms] = w.frameAt(ms)
	}
	for ms := 0; ms < lenMs; ms++ {
		acc := 0.0
		for _, s := range w.Samples[e.frames[ms]*w.Channels : e.frames[ms+1]*w.Channels] {
			v := float64(s)
			acc += v * v
		}
		e.sumSq[ms+1] = e.sumSq[ms] + acc
	}
	return e
}

// rms returns the root mean square of all samples in [startMs, endMs).
func (e *energy) rms(startMs, endMs int) float64 {
	n := (e.frames[endMs] - e.frames[startMs]) * e.ch
	if n <= 0 {
		return 0
	}
	return math.Sqrt((e.sumSq[endMs] - e.sumSq[startMs]) / float64(n))
}

// DetectSilence returns the silent ranges of w. A range is silent when every
// minSilenceMs window inside it has an RMS level at or below threshDB.
// Windows are tested every seekStepMs, and the window ending exactly at the
// end of the waveform is always tested.
func DetectSilence(w *Waveform, minSilenceMs int, threshDB float64, seekStepMs int) []Span {
	lenMs := w.DurationMs()
	if minSilenceMs <= 0 || lenMs < minSilenceMs {
		return nil
	}
	if seekStepMs <= 0 {
		seekStepMs = 1
	}

	limit := DBToRatio(threshDB) * w.MaxAmplitude()
	e := newEnergy(w, lenMs)

	lastStart := lenMs - minSilenceMs
	var starts []int
	for i := 0; i <= lastStart; i += seekStepMs {
		if e.rms(i, i+minSilenceMs) <= limit {
			starts = append(starts, i)
		}
	}
	if lastStart%seekStepMs != 0 && e.rms(lastStart, lenMs) <= limit {
		starts = append(starts, lastStart)
	}
	if len(starts) == 0 {
		return nil
	}

	var ranges []Span
	prev := starts[0]
	rangeStart := prev
	for _, s := range starts[1:] {
		continuous := s == prev+seekStepMs
		hasGap := s > prev+minSilenceMs
		if !continuous && hasGap {
			ranges = append(ranges, Span{StartMs: rangeStart, EndMs: prev + minSilenceMs})
			rangeStart = s
		}
		prev = s
	}
	ranges = append(ranges, Span{StartMs: rangeStart, EndMs: prev + minSilenceMs})

	return ranges
}

// DetectNonsilent returns the complement of DetectSilence over w.
// A waveform with no silence yields a single span covering all of it; a
// waveform that is silent end to end yields no spans.
func DetectNonsilent(w *Waveform, minSilenceMs int, threshDB float64, seekStepMs int) []Span {
	lenMs := w.DurationMs()
	silent := DetectSilence(w, minSilenceMs, threshDB, seekStepMs)
	if len(silent) == 0 {
		return []Span{{StartMs: 0, EndMs: lenMs}}
	}
	if silent[0].StartMs == 0 && silent[0].EndMs == lenMs {
		return nil
	}

	var out []Span
	prevEnd := 0
	for _, s := range silent {
		if s.StartMs > prevEnd {
			out = append(out, Span{StartMs: prevEnd, EndMs: s.StartMs})
		}
		prevEnd = s.EndMs
	}
	if prevEnd < lenMs {
		out = append(out, Span{StartMs: prevEnd, EndMs: lenMs})
	}
	return out
}

// SplitOnSilence returns the segments of w bounded by silence.
// Each non-silent span is widened by keepSilenceMs on both sides; where two
// widened spans would overlap they meet at the midpoint of the overlap.
// Spans are clamped to the waveform and ordered by start offset.
func SplitOnSilence(w *Waveform, minSilenceMs int, threshDB float64, keepSilenceMs, seekStepMs int) []Span {
	lenMs := w.DurationMs()
	spans := DetectNonsilent(w, minSilenceMs, threshDB, seekStepMs)
	for i := range spans {
		spans[i].StartMs -= keepSilenceMs
		spans[i].EndMs += keepSilenceMs
	}
	for i := 0; i+1 < len(spans); i++ {
		if next := spans[i+1].StartMs; next < spans[i].EndMs {
			mid := (spans[i].EndMs + next) / 2
			spans[i].EndMs = mid
			spans[i+1].StartMs = mid
		}
	}
	for i := range spans {
		spans[i].StartMs = max(spans[i].StartMs, 0)
		spans[i].EndMs = min(spans[i].EndMs, lenMs)
	}
	return spans
}
