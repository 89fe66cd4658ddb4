// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package atf

import (
	"context"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"gopkg.microglot.org/atf.go/tree"
)

const sample = `ATF_FILE V1.41;
FILES
  COMPONENT main = "model.atfx";
ENDFILES;
INSTELEM AoTest
  Id = 7;
  Name = "first";
ENDINSTELEM;
ATF_END;
`

func TestParseString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		input  string
		header tree.Header
	}{
		{
			name:   "labelled header with spaced terminators",
			input:  "ATF_FILE \"ATFX\" 1.0 ;\nFILES\nCOMPONENT main = \"model.atfx\" ;\nENDFILES ;\nATF_END ;\n",
			header: tree.Header{Keyword: "ATF_FILE", Label: "ATFX", Version: "1.0"},
		},
		{
			name:   "bare header",
			input:  "ATF_FILE 1.0;\nFILES\n COMPONENT main = \"model.atfx\";\nENDFILES;\nATF_END;",
			header: tree.Header{Keyword: "ATF_FILE", Version: "1.0"},
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			result, err := ParseString(context.Background(), testCase.input)
			require.Nil(t, err)
			require.Equal(t, testCase.header, result.Header)
			expected := map[string]any{"files": map[string]any{"main": "model.atfx"}}
			require.Empty(t, cmp.Diff(expected, tree.Native(result.Document)))
		})
	}
}

func TestParseFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "model.atf")
	require.Nil(t, os.WriteFile(path, []byte(sample), 0o644))

	fromFile, err := ParseFile(context.Background(), path)
	require.Nil(t, err)
	fromString, err := ParseString(context.Background(), sample)
	require.Nil(t, err)
	require.Equal(t, fromString.Header, fromFile.Header)
	require.True(t, tree.Equal(fromString.Document, fromFile.Document))

	expected := map[string]any{
		"files":    map[string]any{"main": "model.atfx"},
		"instelem": map[string]any{"AoTest": map[string]any{"7": map[string]any{"Id": int64(7), "Name": "first"}}},
	}
	require.Empty(t, cmp.Diff(expected, tree.Native(fromFile.Document)))
}

func TestParseFileErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := ParseFile(context.Background(), filepath.Join(dir, "missing.atf"))
	require.NotNil(t, err)
	require.True(t, errors.Is(err, iofs.ErrNotExist), err.Error())

	broken := filepath.Join(dir, "broken.atf")
	require.Nil(t, os.WriteFile(broken, []byte("ATF_FILE V1.41;\nFILES\nATF_END;\n"), 0o644))
	result, err := ParseFile(context.Background(), broken)
	require.Nil(t, result)
	var e Exception
	require.True(t, errors.As(err, &e))
	require.Equal(t, CodeSyntaxError, e.Code())
	require.Equal(t, broken, e.Location().URI)
	require.Equal(t, int32(3), e.Location().Line)
}

func TestParseStringErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		input string
		code  string
	}{
		{name: "syntax", input: "ATF_FILE V1.41; FILES ATF_END;", code: CodeSyntaxError},
		{name: "missing id", input: "ATF_FILE V1.41; INSTELEM A x = 1; ENDINSTELEM; ATF_END;", code: CodeMissingRequiredKey},
		{name: "invalid id", input: "ATF_FILE V1.41; INSTELEM A Id = 1, 2; ENDINSTELEM; ATF_END;", code: CodeInvalidKey},
		{name: "nul", input: "ATF_FILE V1.41;\x00", code: CodeInvalidCharacter},
		{name: "unterminated", input: `ATF_FILE "V1.41;`, code: CodeUnexpectedEOF},
		{name: "number", input: "ATF_FILE V1.41; APPLELEM A, BASETYPE B APPLATTR a, LENGTH 99999999999999999999; ENDAPPLELEM; ATF_END;", code: CodeInvalidNumber},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			result, err := ParseString(context.Background(), testCase.input)
			require.Nil(t, result)
			var e Exception
			require.True(t, errors.As(err, &e), "%v", err)
			require.Equal(t, testCase.code, e.Code(), e.Error())
			require.True(t, strings.HasPrefix(e.Error(), "<string>:"), e.Error())
		})
	}
}
