// Command streamline brings a directory tree of media files into line with a
// target profile by transcoding the files that do not already comply.
//
// Commands:
//   - run [source]: discover, probe, classify and transcode.
//   - analyze [source]: the same without transcoding; prints a table.
//   - check: tool versions, directory access and free space.
//   - config init|validate|show: manage the TOML configuration.
//   - version: print the build version.
//
// The exit code is 1 when any file failed or a precondition was not met.
package main
