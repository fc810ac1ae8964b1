// Package pipeline orchestrates a batch: discovery, parallel probing,
// classification, sequential transcoding, reconciliation, and the summary.
//
// Files:
//   - runner.go: Run, the per-file loop and logging helpers.
//   - analyze.go: Analyze, the read-only classification report.
//   - discover.go: Discover and its options.
//   - lock.go: the per-source run lock.
//   - stats.go: RunStats.
package pipeline
