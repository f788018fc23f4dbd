package segment

// ClipToWindow filters segments down to those overlapping the
// [startSec, endSec) window, truncates partial overlaps to the window
// edges, and rebases timestamps so the window start becomes zero.
// Positions are renumbered from zero. Render payloads are window-relative,
// so this runs whenever the cut window is (re)derived.
func ClipToWindow(segments []Segment, startSec, endSec float64) []Segment {
	clipped := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		if seg.EndSec <= startSec || seg.StartSec >= endSec {
			continue
		}
		out := seg
		out.StartSec = max(seg.StartSec, startSec) - startSec
		out.EndSec = min(seg.EndSec, endSec) - startSec
		out.Position = len(clipped)
		clipped = append(clipped, out)
	}
	return clipped
}

// Rebase shifts every timestamp by -offsetSec, clamping at zero.
func Rebase(segments []Segment, offsetSec float64) []Segment {
	out := Clone(segments)
	for i := range out {
		out[i].StartSec = max(0, out[i].StartSec-offsetSec)
		out[i].EndSec = max(0, out[i].EndSec-offsetSec)
	}
	return out
}
