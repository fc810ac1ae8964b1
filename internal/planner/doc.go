// Package planner decides whether a probed file already meets the target
// profile (Classify) and, when it does not, synthesizes the ffmpeg
// invocation that fixes it (BuildPlan).
//
// Files:
//   - types.go: Plan, Decision
//   - decision.go: Classify
//   - planner.go: BuildPlan and top-level argument order
//   - video.go, audio.go, subtitle.go: per-stream overrides and exclusions
//   - disposition.go: one default stream per group
//   - filter.go: the -vf chain, including aspect padding
package planner
