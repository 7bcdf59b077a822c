package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kikiluvv/slopreel/internal/config"
	"github.com/kikiluvv/slopreel/internal/highlights"
	"github.com/kikiluvv/slopreel/internal/keyframes"
	"github.com/kikiluvv/slopreel/internal/logging"
	"github.com/kikiluvv/slopreel/internal/metrics"
	"github.com/kikiluvv/slopreel/internal/pipeline"
	"github.com/kikiluvv/slopreel/pkg/util"
)

var (
	cfgFile     string
	verbose     bool
	logJSON     bool
	metricsFile string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)

	if metricsFile != "" {
		if werr := metrics.WriteTextfile(metricsFile); werr != nil {
			log.Error().Err(werr).Str("path", metricsFile).Msg("failed to write metrics")
		}
	}

	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "slopreel",
	Short: "slopreel - frame-scored highlight reels",
	Long:  "Samples a video, rates every sampled frame, and cuts the best moments into a highlight edit.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logging
		logging.Init(verbose, logJSON)

		// Load config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		if !cmd.Flags().Changed("metrics-file") {
			metricsFile = cfg.Metrics.Textfile
		}

		// Store config in context
		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./slopreel.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log JSON lines instead of console output")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")

	addAnalysisFlags(analyzeCmd)
	analyzeCmd.Flags().StringP("out", "o", "", "write the result JSON here instead of stdout")

	addAnalysisFlags(renderCmd)
	renderCmd.Flags().StringP("output", "o", "", "rendered highlight reel (required)")
	renderCmd.Flags().String("from", "", "render the actions of a saved analysis result instead of analysing again")
	renderCmd.Flags().Float64("fade", 0, "fade duration in seconds at each clip edge (default from config)")
	renderCmd.Flags().Int("crf", 0, "x264 CRF (default from config)")
	renderCmd.Flags().String("preset", "", "x264 preset (default from config)")
	_ = renderCmd.MarkFlagRequired("output")

	keyframesCmd.Flags().Float64("interval", 0, "seconds between keyframes (default from config)")
	keyframesCmd.Flags().Int("quality", 0, "JPEG quality 1-100 (default from config)")
	keyframesCmd.Flags().Int("min-distance", 0, "drop keyframes within this many pHash bits of the previous one")
	keyframesCmd.Flags().StringP("out", "o", "", "write the keyframe JSON here instead of stdout")

	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(keyframesCmd)
	rootCmd.AddCommand(configCmd)
}

func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("target", 0, "target highlight length in seconds")
	cmd.Flags().Float64("interval", 0, "sampling interval in seconds")
	cmd.Flags().Float64("min-clip", 0, "shortest clip in seconds")
	cmd.Flags().Float64("max-clip", 0, "longest clip in seconds")
}

// analysisConfig applies the analysis flags the user set on top of cfg
func analysisConfig(cmd *cobra.Command, cfg *config.Config) highlights.Config {
	out := cfg.Analysis
	flags := cmd.Flags()
	if flags.Changed("target") {
		out.TargetDuration, _ = flags.GetFloat64("target")
	}
	if flags.Changed("interval") {
		out.SamplingInterval, _ = flags.GetFloat64("interval")
	}
	if flags.Changed("min-clip") {
		out.MinClipLength, _ = flags.GetFloat64("min-clip")
	}
	if flags.Changed("max-clip") {
		out.MaxClipLength, _ = flags.GetFloat64("max-clip")
	}
	return out
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [input video]",
	Short: "Score a video and select its highlights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		logger := logging.WithComponent("cli")

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		result, err := pipe.Analyze(cmd.Context(), args[0], analysisConfig(cmd, cfg))
		if err != nil && result == nil {
			return err
		}

		out, _ := cmd.Flags().GetString("out")
		if werr := writeJSON(cmd.OutOrStdout(), out, result); werr != nil {
			return werr
		}
		if err != nil {
			// partial result already written
			return err
		}

		logger.Info().
			Str("id", result.ID).
			Int("moments", len(result.Moments)).
			Str("summary", result.Summary).
			Msg("analysis complete")

		return nil
	},
}

var renderCmd = &cobra.Command{
	Use:   "render [input video]",
	Short: "Render the highlight reel of a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		logger := logging.WithComponent("cli")
		input := args[0]

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		var result *pipeline.Result
		if from, _ := cmd.Flags().GetString("from"); from != "" {
			result, err = readResult(from)
		} else {
			result, err = pipe.Analyze(cmd.Context(), input, analysisConfig(cmd, cfg))
		}
		if err != nil {
			return err
		}

		opts := pipeline.RenderOptions{
			TempDir:      cfg.TempDir,
			Quality:      cfg.Render.CRF,
			Preset:       cfg.Render.Preset,
			Width:        cfg.Render.Width,
			Height:       cfg.Render.Height,
			FadeDuration: cfg.Render.FadeDuration,
		}
		opts.OutputPath, _ = cmd.Flags().GetString("output")
		if cmd.Flags().Changed("fade") {
			opts.FadeDuration, _ = cmd.Flags().GetFloat64("fade")
		}
		if cmd.Flags().Changed("crf") {
			opts.Quality, _ = cmd.Flags().GetInt("crf")
		}
		if cmd.Flags().Changed("preset") {
			opts.Preset, _ = cmd.Flags().GetString("preset")
		}

		logger.Info().Str("summary", result.Summary).Msg("analysis ready")

		for _, action := range result.Actions {
			if action.Action != highlights.ActionKeepOnlyHighlights {
				continue
			}
			if len(action.Parameters.Ranges) == 0 {
				return fmt.Errorf("no highlights to render: %s", result.Summary)
			}

			output, err := pipe.Render(cmd.Context(), input, action, opts)
			if err != nil {
				return err
			}
			logger.Info().Str("output", output).Msg("highlight reel rendered")
			return nil
		}

		return fmt.Errorf("analysis has no %s action", highlights.ActionKeepOnlyHighlights)
	},
}

var keyframesCmd = &cobra.Command{
	Use:   "keyframes [input video]",
	Short: "Extract JPEG keyframes as base64 JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		opts := keyframes.Options{
			Interval:    cfg.Keyframes.Interval,
			Quality:     cfg.Keyframes.Quality,
			MinDistance: cfg.Keyframes.MinDistance,
		}
		if cmd.Flags().Changed("interval") {
			opts.Interval, _ = cmd.Flags().GetFloat64("interval")
		}
		if cmd.Flags().Changed("quality") {
			opts.Quality, _ = cmd.Flags().GetInt("quality")
		}
		if cmd.Flags().Changed("min-distance") {
			opts.MinDistance, _ = cmd.Flags().GetInt("min-distance")
		}

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		frames, err := pipe.Keyframes(cmd.Context(), args[0], opts)
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("out")
		return writeJSON(cmd.OutOrStdout(), out, frames)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		if err := cfg.Validate(); err != nil {
			logger := logging.WithComponent("cli")
			logger.Warn().Err(err).Msg("configuration is invalid")
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "slopreel.yaml"
		if len(args) == 1 {
			path = args[0]
		}

		force, _ := cmd.Flags().GetBool("force")
		if util.FileExists(path) && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		if err := config.Default().Save(path); err != nil {
			return err
		}

		logger := logging.WithComponent("cli")
		logger.Info().Str("path", path).Msg("config written")
		return nil
	},
}

// writeJSON writes v as indented JSON to path, or to w when path is empty
func writeJSON(w io.Writer, path string, v any) error {
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readResult(path string) (*pipeline.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var result pipeline.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &result, nil
}
