// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"context"
	"errors"
	iofs "io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"gopkg.microglot.org/atf.go/internal/exc"
	"gopkg.microglot.org/atf.go/internal/fs"
	"gopkg.microglot.org/atf.go/internal/idl"
	"gopkg.microglot.org/atf.go/tree"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	validFiles = `ATF_FILE V1.41;
FILES
  COMPONENT main = "model.atfx";
ENDFILES;
ATF_END;`
	validInstance = `ATF_FILE V1.41;
INSTELEM AoTest Id = 7; Name = "t"; ENDINSTELEM;
ATF_END;`
	brokenTrailer = `ATF_FILE V1.41;
FILES
  COMPONENT main = "model.atfx";
ATF_END;`
	unterminatedString = `ATF_FILE V1.41;
FILES
  COMPONENT main = "model.atfx;
ENDFILES;
ATF_END;`
)

func testCompiler(t *testing.T, mfs fstest.MapFS, opts ...Option) idl.Compiler {
	t.Helper()

	f, err := NewRootsFS([]string{"/"}, fs.WithOptionFSFactory(func(string) iofs.FS { return mfs }))
	require.NoError(t, err)
	opts = append([]Option{
		OptionWithFS(f),
		OptionWithLookupEnv(func(string) (string, bool) { return "", false }),
	}, opts...)
	c, err := New(opts...)
	require.NoError(t, err)
	return c
}

func moduleURIs(resp *idl.CompileResponse) []string {
	out := make([]string, 0, len(resp.Modules))
	for _, mod := range resp.Modules {
		out = append(out, mod.URI)
	}
	return out
}

func TestCompile(t *testing.T) {
	t.Parallel()

	mfs := fstest.MapFS{
		"models/a.atf":     {Data: []byte(validFiles)},
		"models/b.atf":     {Data: []byte(validInstance)},
		"models/notes.txt": {Data: []byte("not atf")},
		"export/model.txt": {Data: []byte(validInstance)},
		"export/plain.txt": {Data: []byte("hello world")},
		"export/empty.txt": {Data: []byte("")},
		"broken/bad.atf":   {Data: []byte(brokenTrailer)},
		"broken/good.atf":  {Data: []byte(validFiles)},
		"lexical/open.atf": {Data: []byte(unterminatedString)},
	}
	testCases := []struct {
		name     string
		files    []string
		expected []string
		codes    []string
	}{
		{
			name:     "single file",
			files:    []string{"models/a.atf"},
			expected: []string{"/models/a.atf"},
		},
		{
			name:     "directory expands to atf files",
			files:    []string{"models"},
			expected: []string{"/models/a.atf", "/models/b.atf"},
		},
		{
			name:     "file uri",
			files:    []string{"file:///models/b.atf"},
			expected: []string{"/models/b.atf"},
		},
		{
			name:     "each file parsed once",
			files:    []string{"models/a.atf", "/models/a.atf", "models"},
			expected: []string{"/models/a.atf", "/models/b.atf"},
		},
		{
			name:     "foreign extension with header",
			files:    []string{"export/model.txt"},
			expected: []string{"/export/model.txt"},
		},
		{
			name:     "foreign extension without header",
			files:    []string{"export/plain.txt"},
			expected: []string{},
			codes:    []string{exc.CodeUnsupportedFileFormat},
		},
		{
			name:     "foreign extension without content",
			files:    []string{"export/empty.txt"},
			expected: []string{},
			codes:    []string{exc.CodeUnsupportedFileFormat},
		},
		{
			name:     "syntax error does not stop other files",
			files:    []string{"broken"},
			expected: []string{"/broken/good.atf"},
			codes:    []string{exc.CodeSyntaxError},
		},
		{
			name:     "lexical error reported once",
			files:    []string{"lexical/open.atf"},
			expected: []string{},
			codes:    []string{exc.CodeUnexpectedEOF},
		},
		{
			name:     "missing file",
			files:    []string{"models/missing.atf", "models/a.atf"},
			expected: []string{"/models/a.atf"},
			codes:    []string{exc.CodeFileNotFound},
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			c := testCompiler(t, mfs, OptionWithMaxConcurrency(2))
			resp, err := c.Compile(context.Background(), &idl.CompileRequest{Files: testCase.files})
			require.NotNil(t, resp)
			require.Equal(t, testCase.expected, moduleURIs(resp))
			if len(testCase.codes) < 1 {
				require.NoError(t, err)
				return
			}
			var me MultiException
			require.ErrorAs(t, err, &me)
			require.Len(t, me, len(testCase.codes))
			for x, code := range testCase.codes {
				require.Equal(t, code, me[x].Code(), me[x].Error())
				require.True(t, exc.HasCode(err, code))
			}
		})
	}
}

func TestCompileResult(t *testing.T) {
	t.Parallel()

	c := testCompiler(t, fstest.MapFS{"b.atf": {Data: []byte(validInstance)}})
	resp, err := c.Compile(context.Background(), &idl.CompileRequest{Files: []string{"b.atf"}})
	require.NoError(t, err)
	require.Len(t, resp.Modules, 1)
	result := resp.Modules[0].Result
	require.Equal(t, tree.Header{Keyword: "ATF_FILE", Version: "V1.41"}, result.Header)
	expected := tree.MapOf("instelem", tree.MapOf("AoTest", tree.MapOf("7", tree.MapOf(
		"Id", tree.Integer(7),
		"Name", tree.String("t"),
	))))
	require.True(t, tree.Equal(expected, result.Document), tree.Format(result.Document))
}

func TestCompileDumps(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	c := testCompiler(t, fstest.MapFS{"a.atf": {Data: []byte(validFiles)}}, OptionWithLogger(zap.New(core)))
	_, err := c.Compile(context.Background(), &idl.CompileRequest{
		Files:      []string{"a.atf"},
		DumpTokens: true,
		DumpTree:   true,
	})
	require.NoError(t, err)

	tokens := logs.FilterMessage("token").All()
	// Newline tokens are dumped along with the significant ones.
	require.Len(t, tokens, 17)
	first := tokens[0].ContextMap()
	require.Equal(t, "ATF_FILE", first["type"])
	require.Equal(t, "/a.atf", first["uri"])
	require.Equal(t, int32(1), first["line"])

	trees := logs.FilterMessage("tree").All()
	require.Len(t, trees, 1)
	fields := trees[0].ContextMap()
	require.Equal(t, "V1.41", fields["version"])
	require.Equal(t, int64(3), fields["nodes"])
	require.Equal(t, int64(2), fields["depth"])
	require.Equal(t, []interface{}{"files"}, fields["sections"])
	require.Equal(t, `{"files": {"main": "model.atfx"}}`, fields["document"])
}

func TestCompileCancelled(t *testing.T) {
	t.Parallel()

	c := testCompiler(t, fstest.MapFS{"a.atf": {Data: []byte(validFiles)}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Compile(ctx, &idl.CompileRequest{Files: []string{"a.atf"}})
	require.True(t, errors.Is(err, context.Canceled))
}

func TestMultiException(t *testing.T) {
	t.Parallel()

	a := exc.New(exc.Location{URI: "/a.atf"}, exc.CodeSyntaxError, "first")
	b := exc.New(exc.Location{URI: "/b.atf"}, exc.CodeFileNotFound, "second")
	me := MultiException{a, b}
	require.Equal(t, a.Error()+"; "+b.Error(), me.Error())
	require.ErrorIs(t, me, b)
	require.True(t, exc.HasCode(me, exc.CodeFileNotFound))
}
