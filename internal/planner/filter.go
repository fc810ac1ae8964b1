package planner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/backmassage/streamline/internal/probe"
	"github.com/backmassage/streamline/internal/profile"
)

// filterChain builds the single -vf value: built-in filters, then the pad
// for oversized sources, then the free-form video and audio filters.
func filterChain(v *probe.Stream, prof *profile.Profile) string {
	var filters []string

	if prof.Filters.Deinterlace {
		filters = append(filters, "yadif")
	}
	if prof.Filters.Deblock > 0 {
		filters = append(filters, "deblock="+strconv.Itoa(prof.Filters.Deblock))
	}
	if prof.Filters.Denoise > 0 {
		filters = append(filters, "hqdn3d="+strconv.Itoa(prof.Filters.Denoise))
	}
	if pad := padFilter(v, &prof.Video); pad != "" {
		filters = append(filters, pad)
	}
	if prof.Video.Filters != "" {
		filters = append(filters, prof.Video.Filters)
	}
	if prof.Audio.Filters != "" {
		filters = append(filters, prof.Audio.Filters)
	}
	return strings.Join(filters, ",")
}

// padFilter letterboxes or pillarboxes an oversized source to the target
// frame. An unbounded axis counts as 0. No scale step precedes the pad, so
// ffmpeg rejects a source larger than the pad area on that axis.
func padFilter(v *probe.Stream, t *profile.Video) string {
	if v.Size == nil || (!t.MaxWidth.IsBounded() && !t.MaxHeight.IsBounded()) {
		return ""
	}
	w, h := v.Size.Width, v.Size.Height
	if !t.MaxWidth.Exceeded(w) && !t.MaxHeight.Exceeded(h) {
		return ""
	}

	maxW, maxH := t.MaxWidth.Or(0), t.MaxHeight.Or(0)
	var padW, padH int
	if float64(w)/float64(h) > float64(maxW)/float64(maxH) {
		padH = maxH - h
	} else {
		padW = maxW - w
	}
	return fmt.Sprintf("pad=%d:%d:%d:%d", maxW, maxH, padW/2, padH/2)
}
