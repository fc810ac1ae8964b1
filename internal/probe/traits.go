package probe

import "strings"

// HDRType returns "hdr10" if the primary video stream carries PQ/HLG
// transfer or bt2020 primaries, otherwise "sdr". Used for log annotation
// only; it does not influence classification.
func (f *MediaFile) HDRType() string {
	v := f.PrimaryVideo()
	if v == nil {
		return "sdr"
	}

	switch v.ColorTransfer {
	case "smpte2084", "arib-std-b67":
		return "hdr10"
	}
	if v.ColorPrimaries == "bt2020" {
		return "hdr10"
	}
	return "sdr"
}

// IsInterlaced reports whether the primary video stream's field_order is
// one of tt, bb, tb, bt.
func (f *MediaFile) IsInterlaced() bool {
	v := f.PrimaryVideo()
	if v == nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(v.FieldOrder)) {
	case "tt", "bb", "tb", "bt":
		return true
	}
	return false
}
