// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"context"
	"errors"

	"gopkg.microglot.org/atf.go/internal/compiler/atf"
	"gopkg.microglot.org/atf.go/internal/exc"
	"gopkg.microglot.org/atf.go/internal/idl"
	"gopkg.microglot.org/atf.go/internal/iter"
)

// SubCompilerDetect is an adaptive sub-compiler that checks for the ATF_FILE
// header before handing the file to the ATF sub-compiler. Files named with
// a foreign extension are accepted when their content carries the header.
type SubCompilerDetect struct {
	ATF SubCompiler
}

func (self *SubCompilerDetect) CompileFile(ctx context.Context, r exc.Reporter, file idl.File, dumpTokens bool, dumpTree bool) (*idl.Module, error) {
	// Lexical problems found while sniffing are reported by the full parse,
	// so the probe gets its own reporter.
	lex := atf.NewLexerATF(exc.NewReporter(nil))
	lexf, err := lex.Lex(ctx, file)
	if err != nil {
		return nil, err
	}
	tokens, err := lexf.Tokens(ctx)
	if err != nil {
		var e exc.Exception
		if !errors.As(err, &e) {
			e = exc.WrapUnknown(exc.Location{URI: file.Path(ctx)}, err)
		}
		return nil, r.Report(e)
	}
	significant := iter.NewIteratorFilter(tokens, idl.Filter[*idl.Token](iter.FilterFunc[*idl.Token](atf.Significant)))
	first := significant.Next(ctx)
	lexErr := significant.Close(ctx)

	if first.IsPresent() && first.Value().Type != idl.TokenTypeKeywordATFFile {
		t := first.Value()
		return nil, r.Report(exc.New(exc.Location{URI: file.Path(ctx), Location: *t.Span.Start}, exc.CodeUnsupportedFileFormat, "missing ATF_FILE header"))
	}
	if !first.IsPresent() && lexErr == nil && file.Kind(ctx) != idl.FileKindATF {
		return nil, r.Report(exc.New(exc.Location{URI: file.Path(ctx)}, exc.CodeUnsupportedFileFormat, "missing ATF_FILE header"))
	}
	return self.ATF.CompileFile(ctx, r, file, dumpTokens, dumpTree)
}
