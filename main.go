package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"gopkg.microglot.org/atf.go/internal/compiler"
	"gopkg.microglot.org/atf.go/internal/config"
	"gopkg.microglot.org/atf.go/internal/export"
	"gopkg.microglot.org/atf.go/internal/fs"
	"gopkg.microglot.org/atf.go/internal/idl"
)

type opts struct {
	Config         string
	Roots          []string
	Output         string
	Format         string
	DumpTokens     bool
	DumpTree       bool
	MaxConcurrency int
	Verbose        bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	op := &opts{}
	flags := pflag.NewFlagSet("atfc", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&op.Config, "config", "", "Path to a TOML configuration file.")
	flags.StringSliceVar(&op.Roots, "root", []string{"."}, "Root search paths for targets.")
	flags.StringVar(&op.Output, "output", "-", "Output directory or - for STDOUT.")
	flags.StringVar(&op.Format, "format", "text", "Export format: text, json, yaml, or proto.")
	flags.BoolVar(&op.DumpTokens, "dump-tokens", false, "Log the token stream as it is processed")
	flags.BoolVar(&op.DumpTree, "dump-tree", false, "Log the parse tree after parsing")
	flags.IntVar(&op.MaxConcurrency, "max-concurrency", 0, "Number of files parsed at once. Zero selects the CPU count.")
	flags.BoolVarP(&op.Verbose, "verbose", "v", false, "Enable debug logging.")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	targets := flags.Args()

	cfg, err := loadConfig(op, flags)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 2
	}
	format, err := export.ParseFormat(cfg.Format)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 2
	}

	logger := newLogger(cfg, stderr)
	defer func() { _ = logger.Sync() }()

	df, err := compiler.NewDefaultFS(os.LookupEnv)
	if err != nil {
		logger.Error("failed to set up default roots", zap.Error(err))
		return 1
	}
	rf, err := compiler.NewRootsFS(cfg.Roots)
	if err != nil {
		logger.Error("failed to set up roots", zap.Strings("roots", cfg.Roots), zap.Error(err))
		return 1
	}
	mf := fs.FileSystemMulti{rf, df}

	c, err := compiler.New(
		compiler.OptionWithLookupEnv(os.LookupEnv),
		compiler.OptionWithFS(mf),
		compiler.OptionWithLogger(logger),
		compiler.OptionWithMaxConcurrency(cfg.MaxConcurrency),
	)
	if err != nil {
		logger.Error("failed to create compiler", zap.Error(err))
		return 1
	}

	out, err := c.Compile(ctx, &idl.CompileRequest{
		Files:      targets,
		DumpTokens: cfg.DumpTokens,
		DumpTree:   cfg.DumpTree,
	})
	code := 0
	if err != nil {
		var me compiler.MultiException
		if !errors.As(err, &me) {
			logger.Error("compile failed", zap.Error(err))
			return 1
		}
		for _, e := range me {
			fmt.Fprintln(stderr, e.Error())
		}
		code = 1
	}

	if err := write(ctx, out.Modules, format, cfg.Output, stdout); err != nil {
		logger.Error("failed to write output", zap.String("output", cfg.Output), zap.Error(err))
		return 1
	}
	logger.Debug("done", zap.Int("modules", len(out.Modules)), zap.Int("exit", code))
	return code
}

// loadConfig layers explicitly set flags over the configuration file, which
// in turn is layered over the defaults.
func loadConfig(op *opts, flags *pflag.FlagSet) (*config.Config, error) {
	cfg := config.Default()
	if op.Config != "" {
		loaded, err := config.Load(op.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if flags.Changed("root") {
		cfg.Roots = op.Roots
	}
	if flags.Changed("output") {
		cfg.Output = op.Output
	}
	if flags.Changed("format") {
		cfg.Format = op.Format
	}
	if flags.Changed("dump-tokens") {
		cfg.DumpTokens = op.DumpTokens
	}
	if flags.Changed("dump-tree") {
		cfg.DumpTree = op.DumpTree
	}
	if flags.Changed("max-concurrency") {
		cfg.MaxConcurrency = op.MaxConcurrency
	}
	if op.Verbose {
		cfg.LogLevel = zapcore.DebugLevel.String()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, stderr io.Writer) *zap.Logger {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(cfg.Level())
	zc.Sampling = nil
	enc := zapcore.NewJSONEncoder(zc.EncoderConfig)
	core := zapcore.NewCore(enc, zapcore.AddSync(stderr), zc.Level)
	return zap.New(core, zap.ErrorOutput(zapcore.AddSync(stderr)))
}

func write(ctx context.Context, modules []*idl.Module, format export.Format, output string, stdout io.Writer) error {
	if output == "-" {
		for _, mod := range modules {
			if err := export.Encode(stdout, format, mod.Result); err != nil {
				return err
			}
		}
		return nil
	}
	absOutput, err := filepath.Abs(output)
	if err != nil {
		return err
	}
	ofs, err := fs.NewFileSystemLocal(absOutput)
	if err != nil {
		return err
	}
	for _, mod := range modules {
		var b bytes.Buffer
		if err := export.Encode(&b, format, mod.Result); err != nil {
			return err
		}
		if err := ofs.Write(ctx, mod.URI+format.Extension(), b.String()); err != nil {
			return err
		}
	}
	return nil
}
