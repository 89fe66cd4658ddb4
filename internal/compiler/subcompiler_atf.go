// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"context"

	"go.uber.org/zap"

	"gopkg.microglot.org/atf.go/internal/compiler/atf"
	"gopkg.microglot.org/atf.go/internal/exc"
	"gopkg.microglot.org/atf.go/internal/idl"
	"gopkg.microglot.org/atf.go/internal/optional"
	"gopkg.microglot.org/atf.go/tree"
)

type SubCompilerATF struct {
	Logger *zap.Logger
}

func (self *SubCompilerATF) CompileFile(ctx context.Context, r exc.Reporter, file idl.File, dumpTokens bool, dumpTree bool) (*idl.Module, error) {
	logger := self.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("uri", file.Path(ctx)))
	lexer := atf.NewLexerATF(r)
	parser := atf.NewParserATF(r)
	lf, err := lexer.Lex(ctx, file)
	if err != nil {
		return nil, err
	}
	if dumpTokens {
		lf = &lexerFileDump{LexerFile: lf, logger: logger}
	}
	mod, err := parser.Parse(ctx, lf)
	if err != nil {
		return nil, err
	}
	if dumpTree {
		logTree(logger, mod.Result)
	}
	return mod, nil
}

// lexerFileDump logs every token, including newlines and comments, as the
// parser consumes the stream.
type lexerFileDump struct {
	idl.LexerFile
	logger *zap.Logger
}

func (self *lexerFileDump) Tokens(ctx context.Context) (idl.Iterator[*idl.Token], error) {
	tokens, err := self.LexerFile.Tokens(ctx)
	if err != nil {
		return nil, err
	}
	return &tokensDump{Iterator: tokens, logger: self.logger}, nil
}

type tokensDump struct {
	idl.Iterator[*idl.Token]
	logger *zap.Logger
}

func (self *tokensDump) Next(ctx context.Context) optional.Optional[*idl.Token] {
	tok := self.Iterator.Next(ctx)
	if tok.IsPresent() {
		t := tok.Value()
		self.logger.Info("token",
			zap.Stringer("type", t.Type),
			zap.String("value", t.Value),
			zap.Int32("line", t.Span.Start.Line),
			zap.Int32("column", t.Span.Start.Column),
		)
	}
	return tok
}

func logTree(logger *zap.Logger, result *tree.Result) {
	nodes := 0
	depth := 0
	tree.Walk(result.Document, func(path []string, n tree.Node) bool {
		nodes = nodes + 1
		if len(path) > depth {
			depth = len(path)
		}
		return true
	})
	logger.Info("tree",
		zap.String("keyword", result.Header.Keyword),
		zap.String("label", result.Header.Label),
		zap.String("version", result.Header.Version),
		zap.Strings("sections", tree.SortedKeys(result.Document)),
		zap.Int("nodes", nodes),
		zap.Int("depth", depth),
		zap.String("document", tree.Format(result.Document)),
	)
}
