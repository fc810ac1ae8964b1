// Package probe provides ffprobe-based media inspection and the typed
// metadata model the rest of streamline reads.
//
// A single JSON call per file (-show_format -show_streams) yields a
// MediaFile. InspectAll fans a list of paths out over a bounded worker pool
// and joins before returning, so classification always sees a complete set.
//
// Files:
//   - types.go: MediaFile, Stream, Container and accessors.
//   - prober.go: Prober (ffprobe + optional cache) and ParseJSON.
//   - traits.go: HDR and interlace annotations for logs.
//   - pool.go: InspectAll worker pool.
package probe
