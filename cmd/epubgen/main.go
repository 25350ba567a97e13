package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/klauspost/compress/flate"
	"github.com/spf13/cobra"

	"github.com/yuanying/epubgen/internal/bookspec"
	"github.com/yuanying/epubgen/internal/packager"
)

const lockRetryDelay = 100 * time.Millisecond

type buildOptions struct {
	InputPath     string
	OutputPath    string
	Strict        bool
	CoverMaxWidth int
	TextLevel     int
	BinaryLevel   int
	Logger        *slog.Logger
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "epubgen",
		Short: "Assemble EPUB 3 publications",
		Long: `epubgen builds EPUB 3 archives from a TOML or YAML book description,
generating the package document, the navigation document and the media
overlays, and inspects existing archives.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	root.PersistentFlags().String("log-format", "text", "Log format: text, json")
	root.PersistentFlags().BoolP("verbose", "v", false, "Shorthand for --log-level debug")

	root.AddCommand(newBuildCmd(), newInspectCmd())
	return root
}

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <book.toml|book.yaml>",
		Short: "Build an EPUB from a book description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readBuildOptions(cmd, args)
			if err != nil {
				return err
			}
			return runBuild(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output file path (default: description path with .epub extension)")
	cmd.Flags().Bool("strict", false, "Reject books with dangling references or invalid clock values")
	cmd.Flags().Int("cover-max-width", 0, "Downscale JPEG/PNG covers wider than this (0 disables)")
	cmd.Flags().Int("text-level", flate.DefaultCompression, "Deflate level for XML, XHTML and CSS entries (-2..9, not 0)")
	cmd.Flags().Int("binary-level", flate.BestSpeed, "Deflate level for compressed binary entries (-2..9, not 0)")
	return cmd
}

func readBuildOptions(cmd *cobra.Command, args []string) (buildOptions, error) {
	logger, err := readLogger(cmd)
	if err != nil {
		return buildOptions{}, err
	}

	opts := buildOptions{InputPath: args[0], Logger: logger}
	opts.OutputPath, _ = cmd.Flags().GetString("output")
	opts.Strict, _ = cmd.Flags().GetBool("strict")
	opts.CoverMaxWidth, _ = cmd.Flags().GetInt("cover-max-width")
	opts.TextLevel, _ = cmd.Flags().GetInt("text-level")
	opts.BinaryLevel, _ = cmd.Flags().GetInt("binary-level")

	if opts.OutputPath == "" {
		opts.OutputPath = defaultOutputPath(opts.InputPath)
	}
	if opts.CoverMaxWidth < 0 {
		return buildOptions{}, fmt.Errorf("--cover-max-width must be >= 0, got %d", opts.CoverMaxWidth)
	}
	if err := checkLevel("--text-level", opts.TextLevel); err != nil {
		return buildOptions{}, err
	}
	if err := checkLevel("--binary-level", opts.BinaryLevel); err != nil {
		return buildOptions{}, err
	}
	return opts, nil
}

// checkLevel accepts deflate levels except 0, which the packager reads as
// "use the default" rather than as no compression.
func checkLevel(flag string, level int) error {
	if level < flate.HuffmanOnly || level > flate.BestCompression {
		return fmt.Errorf("%s must be between %d and %d, got %d", flag, flate.HuffmanOnly, flate.BestCompression, level)
	}
	if level == flate.NoCompression {
		return fmt.Errorf("%s 0 is not supported; entries that should not be compressed are stored via the book description", flag)
	}
	return nil
}

func readLogger(cmd *cobra.Command) (*slog.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	verbose, _ := cmd.Flags().GetBool("verbose")

	level = strings.ToLower(level)
	if _, ok := logLevels[level]; !ok {
		return nil, fmt.Errorf("--log-level must be one of debug, info, warn, error, got %q", level)
	}
	switch strings.ToLower(format) {
	case "text", "json":
	default:
		return nil, fmt.Errorf("--log-format must be text or json, got %q", format)
	}
	if verbose {
		level = "debug"
	}
	return buildLogger(cmd.ErrOrStderr(), level, format), nil
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func buildLogger(w io.Writer, level, format string) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: logLevels[strings.ToLower(level)]}
	if strings.ToLower(format) == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func defaultOutputPath(inputPath string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".epub"
}

// runBuild writes the archive to a temporary file next to the output and
// renames it into place, holding a lock on <output>.lock meanwhile.
func runBuild(ctx context.Context, opts buildOptions) error {
	spec, err := bookspec.Load(opts.InputPath)
	if err != nil {
		return err
	}
	md, m, err := spec.Book()
	if err != nil {
		return err
	}

	lock := flock.New(opts.OutputPath + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire output lock: %w", err)
	}
	if !locked {
		return errors.New("acquire output lock: not acquired")
	}
	defer lock.Unlock()

	opts.Logger.Info("building", "input", opts.InputPath, "output", opts.OutputPath)

	tmp, err := os.CreateTemp(filepath.Dir(opts.OutputPath), "."+filepath.Base(opts.OutputPath)+".*")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer os.Remove(tmp.Name())

	p := packager.New(packager.Options{
		TextLevel:     opts.TextLevel,
		BinaryLevel:   opts.BinaryLevel,
		MaxCoverWidth: opts.CoverMaxWidth,
		Strict:        opts.Strict,
		Logger:        opts.Logger,
	})
	if err := p.Write(ctx, tmp, md, m); err != nil {
		tmp.Close()
		return fmt.Errorf("build failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod output: %w", err)
	}
	if err := os.Rename(tmp.Name(), opts.OutputPath); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}

	opts.Logger.Info("done", "output", opts.OutputPath)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
