package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backmassage/streamline/internal/check"
	"github.com/backmassage/streamline/internal/config"
	"github.com/backmassage/streamline/internal/display"
	"github.com/backmassage/streamline/internal/logging"
	"github.com/backmassage/streamline/internal/pipeline"
	"github.com/backmassage/streamline/internal/profile"
)

// runFlags are the per-invocation overrides shared by run and analyze. A
// flag only overrides the config when it was set on the command line.
type runFlags struct {
	dryRun  bool
	debug   bool
	noColor bool
	workers int
}

func (f *runFlags) register(cmd *cobra.Command, withDryRun bool) {
	if withDryRun {
		cmd.Flags().BoolVarP(&f.dryRun, "dry-run", "n", false, "Print ffmpeg commands without running them")
	}
	cmd.Flags().BoolVarP(&f.debug, "debug", "d", false, "Verbose logging and live ffmpeg stderr")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "Number of parallel ffprobe workers")
}

func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config, args []string) error {
	if len(args) > 0 {
		src, err := config.ExpandPath(args[0])
		if err != nil {
			return fmt.Errorf("resolve source path: %w", err)
		}
		cfg.Streamline.SourceDirectory = config.NormalizeDirArg(src)
	}
	flags := cmd.Flags()
	if flags.Changed("dry-run") {
		cfg.Streamline.DryRun = f.dryRun
	}
	if flags.Changed("debug") {
		cfg.Streamline.Debug = f.debug
	}
	if flags.Changed("workers") {
		cfg.FFmpeg.FFprobeWorkers = f.workers
	}
	if f.noColor {
		cfg.Logging.Color = config.ColorNever
	}
	return nil
}

// prepare loads the config, applies flags, validates it, opens the logger
// and checks the external tools. Errors after the logger exists are logged
// and returned as errReported.
func (f *runFlags) prepare(ctx *commandContext, cmd *cobra.Command, args []string) (*config.Config, *logging.Logger, error) {
	cfg, err := ctx.configCopy()
	if err != nil {
		return nil, nil, err
	}
	if err := f.apply(cmd, cfg, args); err != nil {
		return nil, nil, err
	}
	if err := cfg.ValidateRun(); err != nil {
		return nil, nil, err
	}

	log, err := logging.NewLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	display.PrintBanner(cmd.OutOrStdout())

	// Fail fast if ffmpeg/ffprobe are unavailable or the source is unreadable.
	if err := check.CheckDeps(cfg); err != nil {
		log.Error("%v", err)
		log.Close()
		return nil, nil, errReported
	}
	return cfg, log, nil
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run [source]",
		Short: "Transcode every non-compliant file under the source directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := flags.prepare(ctx, cmd, args)
			if err != nil {
				return err
			}
			defer log.Close()

			log.Info("=== Streamline v%s (%s) ===", version, commit)
			log.Info("Source: %s", cfg.Streamline.SourceDirectory)
			if cfg.Streamline.DryRun {
				log.Warn("DRY RUN: no files will be written")
			}

			runCtx, stop := signalContext(cmd.Context(), log)
			defer stop()

			stats, err := pipeline.Run(runCtx, cfg, profile.FromConfig(cfg), log)
			if err != nil {
				log.Error("%v", err)
				return errReported
			}
			if stats.Failed > 0 {
				return errReported
			}
			return nil
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "analyze [source]",
		Short: "Probe and classify files without transcoding",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := flags.prepare(ctx, cmd, args)
			if err != nil {
				return err
			}
			defer log.Close()

			runCtx, stop := signalContext(cmd.Context(), log)
			defer stop()

			if err := pipeline.Analyze(runCtx, cfg, profile.FromConfig(cfg), log); err != nil {
				log.Error("%v", err)
				return errReported
			}
			return nil
		},
	}
	flags.register(cmd, false)
	return cmd
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report ffmpeg/ffprobe versions, directory access and free space",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.configCopy()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			log, err := logging.NewLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Close()

			display.PrintBanner(cmd.OutOrStdout())
			if !check.RunCheck(cmd.Context(), cfg, log) {
				return errReported
			}
			return nil
		},
	}
}
