package probe

import "strconv"

// Kind is a stream's media type.
type Kind int

const (
	KindOther Kind = iota
	KindVideo
	KindAudio
	KindSubtitle
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindSubtitle:
		return "subtitle"
	default:
		return "other"
	}
}

// FrameSize is a picture size. Width and height are reported together or not
// at all, so a stream carries a *FrameSize rather than two optional ints.
type FrameSize struct {
	Width  int
	Height int
}

func (s FrameSize) String() string {
	return strconv.Itoa(s.Width) + "x" + strconv.Itoa(s.Height)
}

// Disposition holds the stream flags streamline cares about.
type Disposition struct {
	Default     bool
	Forced      bool
	AttachedPic bool // Cover art; never treated as real video.
}

// Stream is one elementary stream of a container, in source index order.
// Zero numeric values mean "not reported".
type Stream struct {
	Index      int
	Kind       Kind
	Codec      string
	Profile    string
	PixFmt     string
	Size       *FrameSize
	SampleRate int
	Channels   int
	FrameRate  float64
	BitRate    int64
	Language   string
	Disposition

	FieldOrder     string
	ColorTransfer  string
	ColorPrimaries string
}

// Container holds format-level metadata.
type Container struct {
	FormatName string
	Duration   float64 // Seconds.
	Size       int64   // Bytes.
	BitRate    int64
}

// MediaFile is the parsed result of one ffprobe call. It is read-only once
// the probe pool hands it out.
type MediaFile struct {
	Path      string
	Streams   []Stream
	Container Container
}

// VideoStreams returns video streams, skipping attached pictures.
func (f *MediaFile) VideoStreams() []*Stream {
	var out []*Stream
	for i := range f.Streams {
		s := &f.Streams[i]
		if s.Kind == KindVideo && !s.AttachedPic {
			out = append(out, s)
		}
	}
	return out
}

// AudioStreams returns audio streams in source order.
func (f *MediaFile) AudioStreams() []*Stream { return f.ofKind(KindAudio) }

// SubtitleStreams returns subtitle streams in source order.
func (f *MediaFile) SubtitleStreams() []*Stream { return f.ofKind(KindSubtitle) }

func (f *MediaFile) ofKind(k Kind) []*Stream {
	var out []*Stream
	for i := range f.Streams {
		if f.Streams[i].Kind == k {
			out = append(out, &f.Streams[i])
		}
	}
	return out
}

// PrimaryVideo is the first non-attached-pic video stream, or nil.
func (f *MediaFile) PrimaryVideo() *Stream {
	for i := range f.Streams {
		s := &f.Streams[i]
		if s.Kind == KindVideo && !s.AttachedPic {
			return s
		}
	}
	return nil
}

// VideoBitRate returns s's bit rate, falling back to the container bit rate
// when the stream does not report one.
func (f *MediaFile) VideoBitRate(s *Stream) int64 {
	if s != nil && s.BitRate > 0 {
		return s.BitRate
	}
	return f.Container.BitRate
}

// Resolution returns "WxH" for the primary video stream, or "unknown".
func (f *MediaFile) Resolution() string {
	v := f.PrimaryVideo()
	if v == nil || v.Size == nil {
		return "unknown"
	}
	return v.Size.String()
}
