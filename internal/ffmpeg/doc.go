// Package ffmpeg runs synthesized ffmpeg invocations and interprets their
// failures.
//
//   - executor.go: Run, ExecResult, ExecError (exit code + stderr tail)
//   - errors.go: Hint, stderr classification for log messages
//   - command.go: FormatCommand for dry-run output
package ffmpeg
