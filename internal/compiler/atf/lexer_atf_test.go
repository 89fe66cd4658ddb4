// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package atf

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"gopkg.microglot.org/atf.go/internal/exc"
	"gopkg.microglot.org/atf.go/internal/fs"
	"gopkg.microglot.org/atf.go/internal/idl"
	"gopkg.microglot.org/atf.go/internal/iter"
)

func tok(kind idl.TokenType, value string) *idl.Token {
	return &idl.Token{Type: kind, Value: value}
}

func lexAll(t *testing.T, input string) ([]*idl.Token, error) {
	t.Helper()

	ctx := context.Background()
	rep := exc.NewReporter(nil)
	lexer := NewLexerATF(rep)
	f := fs.NewFileString("/test.atf", input, idl.FileKindATF)
	lexerFile, err := lexer.Lex(ctx, f)
	require.Nil(t, err)
	stream, err := lexerFile.Tokens(ctx)
	require.Nil(t, err)
	return iter.Drain(ctx, stream)
}

func TestLexer(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected []*idl.Token
		errCode  string
	}{
		{
			name:     "empty file",
			input:    "",
			expected: nil,
		},
		{
			name:  "header",
			input: "ATF_FILE V1.41;",
			expected: []*idl.Token{
				tok(idl.TokenTypeKeywordATFFile, "ATF_FILE"),
				tok(idl.TokenTypeVersion, "V1.41"),
				tok(idl.TokenTypeSemicolon, ";"),
			},
		},
		{
			name:  "version word without fraction is an identifier",
			input: "V2 V2.",
			expected: []*idl.Token{
				tok(idl.TokenTypeIdentifier, "V2"),
				tok(idl.TokenTypeIdentifier, "V2"),
				tok(idl.TokenTypeUnknown, "."),
			},
		},
		{
			name:  "numbers",
			input: "1 -2 +3.5 .5 1e3 2.5E-2 -.25 007",
			expected: []*idl.Token{
				tok(idl.TokenTypeInteger, "1"),
				tok(idl.TokenTypeInteger, "-2"),
				tok(idl.TokenTypeFloat, "+3.5"),
				tok(idl.TokenTypeFloat, ".5"),
				tok(idl.TokenTypeFloat, "1e3"),
				tok(idl.TokenTypeFloat, "2.5E-2"),
				tok(idl.TokenTypeFloat, "-.25"),
				tok(idl.TokenTypeInteger, "007"),
			},
		},
		{
			name:  "number followed by dot and word",
			input: "1.x 3e",
			expected: []*idl.Token{
				tok(idl.TokenTypeInteger, "1"),
				tok(idl.TokenTypeUnknown, "."),
				tok(idl.TokenTypeIdentifier, "x"),
				tok(idl.TokenTypeInteger, "3"),
				tok(idl.TokenTypeIdentifier, "e"),
			},
		},
		{
			name:  "strings",
			input: `"a \"b\" c" "x\\y" "p\q" "multi` + "\n" + `line"`,
			expected: []*idl.Token{
				tok(idl.TokenTypeString, `a "b" c`),
				tok(idl.TokenTypeString, `x\y`),
				tok(idl.TokenTypeString, `p\q`),
				tok(idl.TokenTypeString, "multi\nline"),
			},
		},
		{
			name:  "keywords and bools",
			input: "APPLELEM AoTest, BASETYPE AoTest TRUE FALSE DT_LONG DS_STRING true",
			expected: []*idl.Token{
				tok(idl.TokenTypeKeywordApplElem, "APPLELEM"),
				tok(idl.TokenTypeIdentifier, "AoTest"),
				tok(idl.TokenTypeComma, ","),
				tok(idl.TokenTypeKeywordBaseType, "BASETYPE"),
				tok(idl.TokenTypeIdentifier, "AoTest"),
				tok(idl.TokenTypeBool, "TRUE"),
				tok(idl.TokenTypeBool, "FALSE"),
				tok(idl.TokenTypeDTLong, "DT_LONG"),
				tok(idl.TokenTypeDSString, "DS_STRING"),
				tok(idl.TokenTypeIdentifier, "true"),
			},
		},
		{
			name:  "punctuation and comments",
			input: "a = b; // tail\n/* block\n */c,",
			expected: []*idl.Token{
				tok(idl.TokenTypeIdentifier, "a"),
				tok(idl.TokenTypeEqual, "="),
				tok(idl.TokenTypeIdentifier, "b"),
				tok(idl.TokenTypeSemicolon, ";"),
				tok(idl.TokenTypeComment, " tail"),
				tok(idl.TokenTypeNewline, "\n"),
				tok(idl.TokenTypeComment, " block\n "),
				tok(idl.TokenTypeIdentifier, "c"),
				tok(idl.TokenTypeComma, ","),
			},
		},
		{
			name:  "unknown runes",
			input: "# / *",
			expected: []*idl.Token{
				tok(idl.TokenTypeUnknown, "#"),
				tok(idl.TokenTypeUnknown, "/"),
				tok(idl.TokenTypeUnknown, "*"),
			},
		},
		{
			name:  "byte order mark",
			input: "\ufeffATF_END",
			expected: []*idl.Token{
				tok(idl.TokenTypeKeywordATFEnd, "ATF_END"),
			},
		},
		{
			name:  "nul ends the stream",
			input: "a\x00b",
			expected: []*idl.Token{
				tok(idl.TokenTypeIdentifier, "a"),
			},
			errCode: exc.CodeInvalidCharacter,
		},
		{
			name:     "unterminated string",
			input:    `FILES "abc`,
			expected: []*idl.Token{tok(idl.TokenTypeKeywordFiles, "FILES")},
			errCode:  exc.CodeUnexpectedEOF,
		},
		{
			name:     "unterminated comment",
			input:    "/* abc",
			expected: nil,
			errCode:  exc.CodeUnexpectedEOF,
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			tokens, err := lexAll(t, testCase.input)
			if testCase.errCode == "" {
				require.Nil(t, err)
			} else {
				require.NotNil(t, err)
				require.True(t, exc.HasCode(err, testCase.errCode), err.Error())
			}
			require.Len(t, tokens, len(testCase.expected))
			for x, expectation := range testCase.expected {
				require.Equal(t, expectation.Type, tokens[x].Type, "token %d", x)
				require.Equal(t, expectation.Value, tokens[x].Value, "token %d", x)
			}
		})
	}
}

func TestLexerKeywords(t *testing.T) {
	t.Parallel()

	words := make([]string, 0, len(idl.Keywords))
	for word := range idl.Keywords {
		words = append(words, word)
	}
	tokens, err := lexAll(t, strings.Join(words, " "))
	require.Nil(t, err)
	require.Len(t, tokens, len(words))
	for x, word := range words {
		require.Equal(t, idl.Keywords[word], tokens[x].Type, word)
	}
}

func TestLexerSpans(t *testing.T) {
	t.Parallel()

	tokens, err := lexAll(t, "ATF_FILE V1.41;\r\n  FILES")
	require.Nil(t, err)
	expected := []struct {
		kind      idl.TokenType
		start     idl.Location
		end       idl.Location
	}{
		{kind: idl.TokenTypeKeywordATFFile, start: idl.Location{Line: 1, Column: 1, Offset: 0}, end: idl.Location{Line: 1, Column: 9, Offset: 8}},
		{kind: idl.TokenTypeVersion, start: idl.Location{Line: 1, Column: 10, Offset: 9}, end: idl.Location{Line: 1, Column: 15, Offset: 14}},
		{kind: idl.TokenTypeSemicolon, start: idl.Location{Line: 1, Column: 15, Offset: 14}, end: idl.Location{Line: 1, Column: 16, Offset: 15}},
		{kind: idl.TokenTypeNewline, start: idl.Location{Line: 1, Column: 16, Offset: 15}, end: idl.Location{Line: 2, Column: 1, Offset: 17}},
		{kind: idl.TokenTypeKeywordFiles, start: idl.Location{Line: 2, Column: 3, Offset: 19}, end: idl.Location{Line: 2, Column: 8, Offset: 24}},
	}
	require.Len(t, tokens, len(expected))
	for x, expectation := range expected {
		require.Equal(t, expectation.kind, tokens[x].Type)
		require.Equal(t, expectation.start, *tokens[x].Span.Start, "start of %s", tokens[x].Type)
		require.Equal(t, expectation.end, *tokens[x].Span.End, "end of %s", tokens[x].Type)
	}
}
