package planner

import (
	"errors"
	"strconv"

	"github.com/backmassage/streamline/internal/naming"
	"github.com/backmassage/streamline/internal/probe"
	"github.com/backmassage/streamline/internal/profile"
)

// ErrNoVideoStream is returned for files without a (non cover-art) video
// stream. Such files are a per-file precondition error, not a decision.
var ErrNoVideoStream = errors.New("no video stream")

// BuildPlan synthesizes the ffmpeg invocation that brings f into line with
// prof. It is total over every file with a video stream.
//
// Argument order:
//  1. -xerror, -v, -f, -threads, -map 0
//  2. video overrides for the primary stream
//  3. per-audio exclusions and overrides, then dispositions
//  4. per-subtitle exclusions and overrides, then dispositions
//  5. -vf (from FilterChain) and the temporary output path
func BuildPlan(f *probe.MediaFile, prof *profile.Profile) (*Plan, error) {
	v := f.PrimaryVideo()
	if v == nil {
		return nil, ErrNoVideoStream
	}

	args := []string{"-xerror"}
	if prof.LogLevel != "" {
		args = append(args, "-v", prof.LogLevel)
	}
	if prof.Output.Format != "" {
		args = append(args, "-f", prof.Output.Format)
	}
	args = append(args,
		"-threads", strconv.Itoa(prof.Threads),
		"-map", "0",
	)

	args = append(args, videoArgs(v, &prof.Video)...)
	args = append(args, audioArgs(f.AudioStreams(), &prof.Audio)...)
	args = append(args, subtitleArgs(f.SubtitleStreams(), &prof.Subtitles)...)

	return &Plan{
		Input:       f.Path,
		Args:        args,
		FilterChain: filterChain(v, prof),
		Output:      naming.TempOutputPath(f.Path, prof.Output),
	}, nil
}
