// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package atf parses ASAM transport format (ATF) text into a nested mapping
// tree.
//
// The result of a parse is a tree.Result. Its Document maps each statement
// kind ("files", "include", "applelem", "instelem") to the values declared by
// the statements of that kind. Statements are combined with tree.Merge so
// repeated leaves keep their first value.
package atf

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"

	parser "gopkg.microglot.org/atf.go/internal/compiler/atf"
	"gopkg.microglot.org/atf.go/internal/exc"
	"gopkg.microglot.org/atf.go/internal/fs"
	"gopkg.microglot.org/atf.go/internal/idl"
	"gopkg.microglot.org/atf.go/tree"
)

// Exception is the error type returned for every lexical, syntax, and
// semantic failure.
type Exception = exc.Exception

const (
	CodeSyntaxError        = exc.CodeSyntaxError
	CodeMissingRequiredKey = exc.CodeMissingRequiredKey
	CodeInvalidKey         = exc.CodeInvalidKey
	CodeInvalidNumber      = exc.CodeInvalidNumber
	CodeInvalidCharacter   = exc.CodeInvalidCharacter
	CodeUnexpectedEOF      = exc.CodeUnexpectedEOF
)

const stringURI = "<string>"

// ParseFile reads the file at path and parses its content. Errors opening or
// reading the file are returned as they are so errors.Is works with the io/fs
// sentinel errors.
func ParseFile(ctx context.Context, path string) (*tree.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return ParseReader(ctx, path, bytes.NewReader(data))
}

// ParseString parses ATF text held in memory.
func ParseString(ctx context.Context, text string) (*tree.Result, error) {
	return ParseReader(ctx, stringURI, strings.NewReader(text))
}

// ParseReader parses ATF text read from r. The uri is only used to locate
// exceptions.
func ParseReader(ctx context.Context, uri string, r io.Reader) (*tree.Result, error) {
	rep := exc.NewReporter(nil)
	lexerFile, err := parser.NewLexerATF(rep).Lex(ctx, fs.NewFileReader(uri, r, idl.FileKindATF))
	if err != nil {
		return nil, err
	}
	mod, err := parser.NewParserATF(rep).Parse(ctx, lexerFile)
	if err != nil {
		return nil, err
	}
	return mod.Result, nil
}
