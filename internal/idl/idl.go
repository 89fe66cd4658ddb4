package idl

import (
	"context"
	"fmt"

	"gopkg.microglot.org/atf.go/internal/optional"
	"gopkg.microglot.org/atf.go/tree"
)

type Closer interface {
	Close(ctx context.Context) error
}

type CodePoint uint32

type Iterator[T any] interface {
	Next(ctx context.Context) optional.Optional[T]
	Closer
}

type Lookahead[T any] interface {
	Iterator[T]
	Lookahead(ctx context.Context, n uint8) optional.Optional[T]
}

type Filter[T any] interface {
	Keep(ctx context.Context, v T) bool
}

type Reader interface {
	Read(ctx context.Context, size int32) ([]byte, error)
}

type FileBody interface {
	Reader
	Closer
}

type FileKind uint32

const (
	FileKindNone FileKind = iota
	FileKindATF
)

func (k FileKind) String() string {
	switch k {
	case FileKindNone:
		return "none"
	case FileKindATF:
		return "atf"
	default:
		return fmt.Sprintf("unkown-%d", k)
	}
}

type File interface {
	Path(ctx context.Context) string
	Kind(ctx context.Context) FileKind
	Body(ctx context.Context) (FileBody, error)
}

type FileSystem interface {
	Open(ctx context.Context, uri string) ([]File, error)
	Write(ctx context.Context, uri string, content string) error
}

type Compiler interface {
	Compile(ctx context.Context, req *CompileRequest) (*CompileResponse, error)
}

type CompileRequest struct {
	Files      []string
	DumpTokens bool
	DumpTree   bool
}

type CompileResponse struct {
	Modules []*Module
}

// Module is one parsed ATF file.
type Module struct {
	URI    string
	Result *tree.Result
}

type LexerFile interface {
	File
	Tokens(ctx context.Context) (Iterator[*Token], error)
}

type Lexer interface {
	Lex(ctx context.Context, f File) (LexerFile, error)
}

type Parser interface {
	Parse(ctx context.Context, f LexerFile) (*Module, error)
}

type Location struct {
	Line   int32
	Column int32
	Offset int64
}

type Span struct {
	Start *Location
	End   *Location
}

type Token struct {
	Span  *Span
	Type  TokenType
	Value string
}
