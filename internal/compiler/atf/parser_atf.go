// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package atf

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.microglot.org/atf.go/internal/exc"
	"gopkg.microglot.org/atf.go/internal/idl"
	"gopkg.microglot.org/atf.go/internal/iter"
	"gopkg.microglot.org/atf.go/tree"
)

// ParserATF is a table driven shift-reduce parser for ATF token streams. The
// parse table is shared by all parsers and never modified after it is built
// so a ParserATF may be used from multiple goroutines.
type ParserATF struct {
	reporter exc.Reporter
	table    *table
}

func NewParserATF(reporter exc.Reporter) *ParserATF {
	return &ParserATF{reporter: reporter, table: defaultTable()}
}

// Significant reports whether a token is seen by the parser. Newlines and
// comments are dropped before parsing.
func Significant(ctx context.Context, t *idl.Token) bool {
	switch t.Type {
	case idl.TokenTypeNewline, idl.TokenTypeComment:
		return false
	default:
		return true
	}
}

func (self *ParserATF) Parse(ctx context.Context, f idl.LexerFile) (*idl.Module, error) {
	ft, err := f.Tokens(ctx)
	if err != nil {
		return nil, err
	}
	tokens := iter.NewIteratorFilter(ft, idl.Filter[*idl.Token](iter.FilterFunc[*idl.Token](Significant)))
	p := &parserATFTokens{
		table:  self.table,
		uri:    f.Path(ctx),
		tokens: tokens,
		end:    idl.Location{Line: 1, Column: 1},
	}
	result, err := p.parse(ctx)
	// A lexical failure ends the token stream early so it takes precedence
	// over whatever the parser made of the truncated input.
	if closeErr := tokens.Close(ctx); closeErr != nil {
		var e exc.Exception
		if !errors.As(closeErr, &e) {
			e = exc.WrapUnknown(exc.Location{URI: p.uri}, closeErr)
			_ = self.reporter.Report(e)
		}
		return nil, e
	}
	if err != nil {
		var e exc.Exception
		if errors.As(err, &e) {
			_ = self.reporter.Report(e)
		}
		return nil, err
	}
	return &idl.Module{URI: p.uri, Result: result}, nil
}

// parserATFTokens holds the state of one parse. Exceptions it raises are not
// reported until the token stream has been closed.
type parserATFTokens struct {
	table  *table
	uri    string
	tokens idl.Iterator[*idl.Token]
	// end of the last token read, used to place the synthetic EOF token
	end idl.Location
}

func (p *parserATFTokens) advance(ctx context.Context) *idl.Token {
	start, end := p.end, p.end
	eof := &idl.Token{
		Type: idl.TokenTypeEOF,
		Span: &idl.Span{Start: &start, End: &end},
	}
	t := p.tokens.Next(ctx).ValueOr(eof)
	if t.Type != idl.TokenTypeEOF {
		p.end = *t.Span.End
	}
	return t
}

func (p *parserATFTokens) fail(code string, loc idl.Location, message string) exc.Exception {
	return exc.New(exc.Location{URI: p.uri, Location: loc}, code, message)
}

func (p *parserATFTokens) parse(ctx context.Context) (*tree.Result, error) {
	states := []int{0}
	values := []value{{}}
	tok := p.advance(ctx)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		state := states[len(states)-1]
		act, ok := p.table.actions[state][symbol(tok.Type)]
		if !ok {
			return nil, p.syntaxError(state, tok)
		}
		switch act.kind {
		case actionShift:
			states = append(states, act.target)
			values = append(values, value{token: tok})
			tok = p.advance(ctx)
		case actionReduce:
			prod := p.table.productions[act.target]
			n := len(prod.rhs)
			v, err := prod.action(values[len(values)-n:])
			if err != nil {
				return nil, p.actionFailed(err, tok)
			}
			states = states[:len(states)-n]
			values = values[:len(values)-n]
			target, ok := p.table.gotos[states[len(states)-1]][prod.lhs]
			if !ok {
				return nil, p.fail(exc.CodeUnknownFatal, *tok.Span.Start, fmt.Sprintf("no goto for %s in state %d", prod.lhs, states[len(states)-1]))
			}
			states = append(states, target)
			values = append(values, v)
		case actionAccept:
			return values[len(values)-1].result, nil
		}
	}
}

func (p *parserATFTokens) syntaxError(state int, tok *idl.Token) exc.Exception {
	expected := p.table.expected(state)
	names := make([]string, 0, len(expected))
	for _, s := range expected {
		names = append(names, s.String())
	}
	found := "end of file"
	if tok.Type != idl.TokenTypeEOF {
		found = fmt.Sprintf("%s %q", tok.Type, tok.Value)
	}
	return p.fail(exc.CodeSyntaxError, *tok.Span.Start, fmt.Sprintf("unexpected %s (expecting %s)", found, strings.Join(names, ", ")))
}

func (p *parserATFTokens) actionFailed(err error, lookahead *idl.Token) exc.Exception {
	var ae *actionError
	if errors.As(err, &ae) {
		at := lookahead
		if ae.at != nil {
			at = ae.at
		}
		return p.fail(ae.code, *at.Span.Start, ae.message)
	}
	return p.fail(exc.CodeUnknownFatal, *lookahead.Span.Start, err.Error())
}
