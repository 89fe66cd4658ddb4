// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package iter

import (
	"bufio"
	"context"
	"errors"
	"io"
	"unicode/utf8"

	"gopkg.microglot.org/atf.go/internal/idl"
	"gopkg.microglot.org/atf.go/internal/optional"
)

// NewUnicodeFileBody converts a FileBody into an iterator of code points using
// the given context for all read operations. Invalid UTF-8 sequences are
// returned as utf8.RuneError, one per undecodable byte.
func NewUnicodeFileBody(ctx context.Context, b idl.FileBody) idl.Iterator[idl.CodePoint] {
	rc := &fileBodyIO{
		ctx:  ctx,
		body: b,
	}
	scanner := bufio.NewScanner(rc)
	scanner.Split(bufio.ScanRunes)
	return &codePoints{
		closer:  rc,
		scanner: scanner,
	}
}

type codePoints struct {
	closer  io.Closer
	scanner *bufio.Scanner
}

func (self *codePoints) Next(ctx context.Context) optional.Optional[idl.CodePoint] {
	if !self.scanner.Scan() {
		return optional.None[idl.CodePoint]()
	}
	r, _ := utf8.DecodeRune(self.scanner.Bytes())
	return optional.Some(idl.CodePoint(r))
}

func (self *codePoints) Close(context.Context) error {
	_ = self.closer.Close()
	return self.scanner.Err()
}

// fileBodyIO adapts the context aware idl.FileBody to io.ReadCloser.
type fileBodyIO struct {
	ctx  context.Context
	body idl.FileBody
}

func (self *fileBodyIO) Read(p []byte) (int, error) {
	if err := self.ctx.Err(); err != nil {
		return 0, err
	}
	b, err := self.body.Read(self.ctx, int32(len(p)))
	n := copy(p, b)
	if errors.Is(err, io.EOF) {
		return n, io.EOF
	}
	return n, err
}

func (self *fileBodyIO) Close() error {
	return self.body.Close(self.ctx)
}
