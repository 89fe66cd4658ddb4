// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gopkg.microglot.org/atf.go/internal/exc"
	"gopkg.microglot.org/atf.go/internal/idl"
)

type Option func(c *compiler) error

func OptionWithFS(fs idl.FileSystem) Option {
	return func(c *compiler) error {
		c.FS = fs
		return nil
	}
}

func OptionWithLookupEnv(lookupEnv func(string) (string, bool)) Option {
	return func(c *compiler) error {
		c.LookupENV = lookupEnv
		return nil
	}
}

func OptionWithExcReporter(reporter exc.Reporter) Option {
	return func(c *compiler) error {
		c.Reporter = reporter
		return nil
	}
}

// OptionWithLogger installs the logger used for progress messages and for
// token and tree dumps. The default discards everything.
func OptionWithLogger(logger *zap.Logger) Option {
	return func(c *compiler) error {
		c.Logger = logger
		return nil
	}
}

// OptionWithMaxConcurrency bounds the number of files parsed at the same
// time. Values below one select the number of usable CPUs.
func OptionWithMaxConcurrency(n int) Option {
	return func(c *compiler) error {
		c.MaxConcurrency = n
		return nil
	}
}

func New(opts ...Option) (idl.Compiler, error) {
	c := &compiler{}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.LookupENV == nil {
		c.LookupENV = os.LookupEnv
	}
	if c.FS == nil {
		dfs, err := NewDefaultFS(c.LookupENV)
		if err != nil {
			return nil, err
		}
		c.FS = dfs
	}
	if c.MaxConcurrency < 1 {
		procs := runtime.GOMAXPROCS(-1)
		if cpus := runtime.NumCPU(); procs > cpus {
			procs = cpus
		}
		c.MaxConcurrency = procs
	}
	if c.Reporter == nil {
		c.Reporter = exc.NewReporter(nil)
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.SubCompilers == nil {
		c.SubCompilers = DefaultSubCompilers(c.Logger)
	}
	return c, nil
}

type compiler struct {
	LookupENV      func(string) (string, bool)
	FS             idl.FileSystem
	MaxConcurrency int
	Reporter       exc.Reporter
	Logger         *zap.Logger
	SubCompilers   map[idl.FileKind]SubCompiler
}

// Compile parses every requested file. Directory targets expand to the ATF
// files they contain. Files are parsed concurrently and each file is parsed
// at most once. Exceptions raised by individual files do not stop the other
// files; they are returned together as a MultiException alongside the modules
// that did parse.
func (self *compiler) Compile(ctx context.Context, req *idl.CompileRequest) (*idl.CompileResponse, error) {
	targets := make([]string, 0, len(req.Files))
	for _, f := range req.Files {
		targets = append(targets, self.targetURI(ctx, f))
	}
	files := make([]idl.File, 0, len(targets))
	for _, target := range targets {
		in, err := self.FS.Open(ctx, target)
		if err != nil {
			var e exc.Exception
			if !errors.As(err, &e) {
				e = exc.WrapUnknown(exc.Location{URI: target}, err)
			}
			_ = self.Reporter.Report(e)
			continue
		}
		files = append(files, in...)
	}
	self.Logger.Debug("compiling", zap.Int("targets", len(targets)), zap.Int("files", len(files)), zap.Int("concurrency", self.MaxConcurrency))

	loaded := &sync.Map{}
	results := make([]*idl.Module, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(self.MaxConcurrency)
	for x, file := range files {
		x, file := x, file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			mod, err := self.compileFile(gctx, file, loaded, req.DumpTokens, req.DumpTree)
			var e exc.Exception
			if err != nil && !errors.As(err, &e) {
				return err
			}
			results[x] = mod
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	modules := make([]*idl.Module, 0, len(results))
	for _, mod := range results {
		if mod != nil {
			modules = append(modules, mod)
		}
	}
	caught := self.Reporter.Reported()
	if len(caught) > 0 {
		return &idl.CompileResponse{
			Modules: modules,
		}, MultiException(caught)
	}
	return &idl.CompileResponse{
		Modules: modules,
	}, nil
}

func (self *compiler) compileFile(ctx context.Context, file idl.File, loaded *sync.Map, dumpTokens bool, dumpTree bool) (*idl.Module, error) {
	if _, ok := loaded.LoadOrStore(file.Path(ctx), true); ok {
		self.Logger.Debug("skipping duplicate", zap.String("uri", file.Path(ctx)))
		return nil, nil
	}
	sc := self.SubCompilers[file.Kind(ctx)]
	if sc == nil {
		e := exc.New(exc.Location{URI: file.Path(ctx)}, exc.CodeUnsupportedFileFormat, "Unsupported file format")
		return nil, self.Reporter.Report(e)
	}
	mod, err := sc.CompileFile(ctx, self.Reporter, file, dumpTokens, dumpTree)
	if err != nil {
		self.Logger.Debug("failed", zap.String("uri", file.Path(ctx)), zap.Error(err))
		return nil, err
	}
	self.Logger.Debug("parsed", zap.String("uri", mod.URI), zap.Int("statements", mod.Result.Document.Len()))
	return mod, nil
}

func (self *compiler) targetURI(ctx context.Context, target string) string {
	// The compiler allows targets to be any valid URI or file path. When
	// the target is a file path or a file URI then we convert the paths to
	// an absolute form in order to work with the local implementation of
	// the FileSystem interface. All non-file URIs are left as-is with the
	// expectation that they will be handled by some other implementation.
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "" && u.Scheme != "file") {
		return target
	}
	if u.Scheme == "file" {
		target = u.Path
	}
	if !filepath.IsAbs(target) {
		return filepath.Join("/", target)
	}
	return target
}

type MultiException []exc.Exception

func (self MultiException) Error() string {
	var b strings.Builder
	for _, err := range self[:len(self)-1] {
		b.WriteString(err.Error())
		b.WriteString("; ")
	}
	b.WriteString(self[len(self)-1].Error())
	return b.String()
}

func (self MultiException) Unwrap() []error {
	out := make([]error, 0, len(self))
	for _, e := range self {
		out = append(out, e)
	}
	return out
}
