// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package atf

import (
	"context"
	"strings"
	"unicode"

	"gopkg.microglot.org/atf.go/internal/exc"
	"gopkg.microglot.org/atf.go/internal/idl"
	"gopkg.microglot.org/atf.go/internal/iter"
	"gopkg.microglot.org/atf.go/internal/optional"
)

const (
	// Exponents need three code points of lookahead: e, sign, digit.
	lexerATFLookahead = 3
)

// LexerATF implements a tokenizer for the ASAM transport format text syntax.
type LexerATF struct {
	reporter exc.Reporter
}

func NewLexerATF(reporter exc.Reporter) *LexerATF {
	return &LexerATF{reporter: reporter}
}

func (self *LexerATF) Lex(ctx context.Context, f idl.File) (idl.LexerFile, error) {
	return &lexerFileATF{
		File:     f,
		reporter: self.reporter,
	}, nil
}

type lexerFileATF struct {
	idl.File
	reporter exc.Reporter
}

// Tokens returns the raw token stream, including newline and comment tokens.
// The first fatal lexical exception is returned by the Close method of the
// stream.
func (self *lexerFileATF) Tokens(ctx context.Context) (idl.Iterator[*idl.Token], error) {
	b, err := self.File.Body(ctx)
	if err != nil {
		return nil, err
	}
	points := iter.NewLookahead(iter.NewUnicodeFileBody(ctx, b), lexerATFLookahead)
	return &lexerFileATFTokens{
		uri:      self.File.Path(ctx),
		body:     points,
		reporter: self.reporter,
		line:     1,
		col:      0,
		offset:   -1,
	}, nil
}

type lexerFileATFTokens struct {
	uri      string
	body     idl.Lookahead[idl.CodePoint]
	reporter exc.Reporter
	line     int32
	col      int32
	offset   int64
	done     bool
	err      exc.Exception
}

func (self *lexerFileATFTokens) Next(ctx context.Context) optional.Optional[*idl.Token] {
	if self.done {
		return optional.None[*idl.Token]()
	}
	for point := self.next(ctx); point.IsPresent(); point = self.next(ctx) {
		r := rune(point.Value())
		switch r {
		case 0xFEFF:
			if self.line != 1 || self.col != 1 {
				self.fail(self.exc(exc.CodeUnsupportedFileFormat, "invalid UTF-8 BOM location"))
				return optional.None[*idl.Token]()
			}
			self.col = 0
			continue
		case 0x00:
			self.fail(self.exc(exc.CodeInvalidCharacter, "file contains NUL, likely broken"))
			return optional.None[*idl.Token]()
		case ' ', '\t', '\f', '\v':
			continue
		case '\n':
			return self.newLineToken("\n", 1)
		case '\r':
			if n := self.body.Lookahead(ctx, 1); n.IsPresent() && n.Value() == '\n' {
				_ = self.next(ctx)
				return self.newLineToken("\r\n", 2)
			}
			return self.newLineToken("\r", 1)
		case ',':
			return self.single(idl.TokenTypeComma, r)
		case ';':
			return self.single(idl.TokenTypeSemicolon, r)
		case '=':
			return self.single(idl.TokenTypeEqual, r)
		case '"':
			return self.readString(ctx)
		case '/':
			n := self.body.Lookahead(ctx, 1)
			if n.IsPresent() && n.Value() == '/' {
				_ = self.next(ctx)
				return self.readCommentLine(ctx)
			}
			if n.IsPresent() && n.Value() == '*' {
				_ = self.next(ctx)
				return self.readCommentBlock(ctx)
			}
			return self.single(idl.TokenTypeUnknown, r)
		case '+', '-':
			if self.digitAt(ctx, 1) || (self.isAt(ctx, 1, '.') && self.digitAt(ctx, 2)) {
				return self.readNumber(ctx, string(r))
			}
			return self.single(idl.TokenTypeUnknown, r)
		case '.':
			if self.digitAt(ctx, 1) {
				return self.readNumber(ctx, string(r))
			}
			return self.single(idl.TokenTypeUnknown, r)
		case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			return self.readNumber(ctx, string(r))
		default:
			if r == '_' || unicode.IsLetter(r) {
				return self.readWord(ctx, string(r))
			}
			return self.single(idl.TokenTypeUnknown, r)
		}
	}
	return optional.None[*idl.Token]()
}

func (self *lexerFileATFTokens) single(kind idl.TokenType, r rune) optional.Optional[*idl.Token] {
	size := int64(len(string(r)))
	t := newToken(self.line, self.col, self.offset-size+1, self.line, self.col+1, self.offset+1, kind, string(r))
	return optional.Some(t)
}

// readWord reads identifiers and keywords. A word of the form V<digits>
// followed by dotted digits is a version literal such as V1.41.
func (self *lexerFileATFTokens) readWord(ctx context.Context, prefix string) optional.Optional[*idl.Token] {
	startCol, startOffset := self.start(prefix)
	var builder strings.Builder
	_, _ = builder.WriteString(prefix)
	for {
		n := self.body.Lookahead(ctx, 1)
		if !n.IsPresent() {
			break
		}
		r := rune(n.Value())
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			break
		}
		_ = self.next(ctx)
		_, _ = builder.WriteRune(r)
	}
	word := builder.String()
	kind := idl.TokenTypeIdentifier
	if isVersionWord(word) && self.isAt(ctx, 1, '.') && self.digitAt(ctx, 2) {
		for self.isAt(ctx, 1, '.') && self.digitAt(ctx, 2) {
			_ = self.next(ctx)
			_, _ = builder.WriteRune('.')
			self.readDigits(ctx, &builder)
		}
		word = builder.String()
		kind = idl.TokenTypeVersion
	} else if word == "TRUE" || word == "FALSE" {
		kind = idl.TokenTypeBool
	} else if k, ok := idl.Keywords[word]; ok {
		kind = k
	}
	t := newToken(self.line, startCol, startOffset, self.line, self.col+1, self.offset+1, kind, word)
	return optional.Some(t)
}

func isVersionWord(word string) bool {
	if len(word) < 2 || word[0] != 'V' {
		return false
	}
	for _, r := range word[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// readNumber reads an optionally signed decimal integer or float. The prefix
// is the already consumed sign, digit, or leading dot.
func (self *lexerFileATFTokens) readNumber(ctx context.Context, prefix string) optional.Optional[*idl.Token] {
	startCol, startOffset := self.start(prefix)
	var builder strings.Builder
	_, _ = builder.WriteString(prefix)
	kind := idl.TokenTypeInteger
	if strings.HasSuffix(prefix, ".") {
		kind = idl.TokenTypeFloat
	}
	if prefix == "+" || prefix == "-" {
		if self.isAt(ctx, 1, '.') {
			_ = self.next(ctx)
			_, _ = builder.WriteRune('.')
			kind = idl.TokenTypeFloat
		}
	}
	self.readDigits(ctx, &builder)
	if kind == idl.TokenTypeInteger && self.isAt(ctx, 1, '.') && self.digitAt(ctx, 2) {
		_ = self.next(ctx)
		_, _ = builder.WriteRune('.')
		self.readDigits(ctx, &builder)
		kind = idl.TokenTypeFloat
	}
	if self.isAt(ctx, 1, 'e') || self.isAt(ctx, 1, 'E') {
		signed := self.isAt(ctx, 2, '+') || self.isAt(ctx, 2, '-')
		switch {
		case self.digitAt(ctx, 2):
			e := self.next(ctx)
			_, _ = builder.WriteRune(rune(e.Value()))
			self.readDigits(ctx, &builder)
			kind = idl.TokenTypeFloat
		case signed && self.digitAt(ctx, 3):
			e := self.next(ctx)
			s := self.next(ctx)
			_, _ = builder.WriteRune(rune(e.Value()))
			_, _ = builder.WriteRune(rune(s.Value()))
			self.readDigits(ctx, &builder)
			kind = idl.TokenTypeFloat
		}
	}
	t := newToken(self.line, startCol, startOffset, self.line, self.col+1, self.offset+1, kind, builder.String())
	return optional.Some(t)
}

func (self *lexerFileATFTokens) readDigits(ctx context.Context, builder *strings.Builder) {
	for self.digitAt(ctx, 1) {
		n := self.next(ctx)
		_, _ = builder.WriteRune(rune(n.Value()))
	}
}

// readString reads a double quoted string. A backslash escapes a quote or
// another backslash and is kept verbatim before any other character.
func (self *lexerFileATFTokens) readString(ctx context.Context) optional.Optional[*idl.Token] {
	var builder strings.Builder
	startLine := self.line
	startCol, startOffset := self.start(`"`)
	for {
		n := self.body.Lookahead(ctx, 1)
		if !n.IsPresent() {
			self.fail(self.exc(exc.CodeUnexpectedEOF, "EOF while reading string literal"))
			return optional.None[*idl.Token]()
		}
		switch n.Value() {
		case '\n':
			_ = self.next(ctx)
			_, _ = builder.WriteRune('\n')
			self.newLine()
		case '"':
			_ = self.next(ctx)
			t := newToken(startLine, startCol, startOffset, self.line, self.col+1, self.offset+1, idl.TokenTypeString, builder.String())
			return optional.Some(t)
		case '\\':
			_ = self.next(ctx)
			if self.isAt(ctx, 1, '"') || self.isAt(ctx, 1, '\\') {
				nn := self.next(ctx)
				_, _ = builder.WriteRune(rune(nn.Value()))
				continue
			}
			_, _ = builder.WriteRune('\\')
		case 0x00:
			_ = self.next(ctx)
			self.fail(self.exc(exc.CodeInvalidCharacter, "file contains NUL, likely broken"))
			return optional.None[*idl.Token]()
		default:
			_ = self.next(ctx)
			_, _ = builder.WriteRune(rune(n.Value()))
		}
	}
}

func (self *lexerFileATFTokens) readCommentLine(ctx context.Context) optional.Optional[*idl.Token] {
	var builder strings.Builder
	startCol, startOffset := self.start("//")
	for {
		n := self.body.Lookahead(ctx, 1)
		if !n.IsPresent() || n.Value() == '\n' || n.Value() == '\r' {
			t := newToken(self.line, startCol, startOffset, self.line, self.col+1, self.offset+1, idl.TokenTypeComment, builder.String())
			return optional.Some(t)
		}
		_ = self.next(ctx)
		_, _ = builder.WriteRune(rune(n.Value()))
	}
}

func (self *lexerFileATFTokens) readCommentBlock(ctx context.Context) optional.Optional[*idl.Token] {
	var builder strings.Builder
	startLine := self.line
	startCol, startOffset := self.start("/*")
	for {
		n := self.body.Lookahead(ctx, 1)
		if !n.IsPresent() {
			self.fail(self.exc(exc.CodeUnexpectedEOF, "EOF while reading comment block"))
			return optional.None[*idl.Token]()
		}
		switch n.Value() {
		case '\n':
			_ = self.next(ctx)
			_, _ = builder.WriteRune('\n')
			self.newLine()
		case '*':
			_ = self.next(ctx)
			if self.isAt(ctx, 1, '/') {
				_ = self.next(ctx)
				t := newToken(startLine, startCol, startOffset, self.line, self.col+1, self.offset+1, idl.TokenTypeComment, builder.String())
				return optional.Some(t)
			}
			_, _ = builder.WriteRune('*')
		default:
			_ = self.next(ctx)
			_, _ = builder.WriteRune(rune(n.Value()))
		}
	}
}

// start returns the column and byte offset of the first code point of an
// already consumed prefix on the current line.
func (self *lexerFileATFTokens) start(prefix string) (int32, int64) {
	return self.col - int32(len([]rune(prefix))) + 1, self.offset - int64(len(prefix)) + 1
}

func (self *lexerFileATFTokens) isAt(ctx context.Context, n uint8, r rune) bool {
	v := self.body.Lookahead(ctx, n)
	return v.IsPresent() && rune(v.Value()) == r
}

func (self *lexerFileATFTokens) digitAt(ctx context.Context, n uint8) bool {
	v := self.body.Lookahead(ctx, n)
	return v.IsPresent() && v.Value() >= '0' && v.Value() <= '9'
}

func (self *lexerFileATFTokens) next(ctx context.Context) optional.Optional[idl.CodePoint] {
	n := self.body.Next(ctx)
	if n.IsPresent() {
		self.addCol(rune(n.Value()))
	}
	return n
}

// fail records a lexical exception and ends the token stream.
func (self *lexerFileATFTokens) fail(e exc.Exception) {
	self.done = true
	if err := self.reporter.Report(e); err != nil && self.err == nil {
		self.err = err
	}
}

func (self *lexerFileATFTokens) exc(code string, message string) exc.Exception {
	return exc.New(exc.Location{URI: self.uri, Location: idl.Location{Line: self.line, Column: self.col, Offset: self.offset}}, code, message)
}

func (self *lexerFileATFTokens) newLine() {
	self.line = self.line + 1
	self.col = 0
}

func (self *lexerFileATFTokens) newLineToken(v string, size int) optional.Optional[*idl.Token] {
	t := newToken(self.line, self.col-int32(size-1), self.offset-int64(size-1), self.line+1, 1, self.offset+1, idl.TokenTypeNewline, v)
	self.newLine()
	return optional.Some(t)
}

func (self *lexerFileATFTokens) addCol(r rune) {
	self.col = self.col + 1
	self.offset = self.offset + int64(len(string(r)))
}

func (self *lexerFileATFTokens) Close(ctx context.Context) error {
	err := self.body.Close(ctx)
	if self.err != nil {
		return self.err
	}
	return err
}

func newToken(startLine int32, startCol int32, startOffset int64, endLine int32, endCol int32, endOffset int64, kind idl.TokenType, value string) *idl.Token {
	return &idl.Token{
		Span: &idl.Span{
			Start: &idl.Location{
				Line:   startLine,
				Column: startCol,
				Offset: startOffset,
			},
			End: &idl.Location{
				Line:   endLine,
				Column: endCol,
				Offset: endOffset,
			},
		},
		Type:  kind,
		Value: value,
	}
}
