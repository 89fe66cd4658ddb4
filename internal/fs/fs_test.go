// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package fs

import (
	"context"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"gopkg.microglot.org/atf.go/internal/exc"
	"gopkg.microglot.org/atf.go/internal/idl"
)

func testFS() FileSystemLocalOption {
	mfs := fstest.MapFS{
		"models/a.atf":        {Data: []byte("ATF_FILE V1.41; ATF_END;")},
		"models/B.ATF":        {Data: []byte("ATF_FILE V1.41; ATF_END;")},
		"models/notes.txt":    {Data: []byte("not atf")},
		"models/nested/c.atf": {Data: []byte("ATF_FILE V1.41; ATF_END;")},
		"empty/readme.md":     {Data: []byte("nothing")},
	}
	return WithOptionFSFactory(func(string) iofs.FS { return mfs })
}

func readAll(t *testing.T, f idl.File) string {
	t.Helper()

	ctx := context.Background()
	body, err := f.Body(ctx)
	require.Nil(t, err)
	defer body.Close(ctx)
	var out []byte
	for {
		b, err := body.Read(ctx, 4)
		out = append(out, b...)
		if err != nil {
			require.ErrorIs(t, err, io.EOF)
			require.True(t, exc.HasCode(err, exc.CodeEOF))
			return string(out)
		}
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	require.Equal(t, idl.FileKindATF, KindOf("/x/model.atf"))
	require.Equal(t, idl.FileKindATF, KindOf("MODEL.ATF"))
	require.Equal(t, idl.FileKindNone, KindOf("model.atfx"))
	require.Equal(t, idl.FileKindNone, KindOf("model"))
}

func TestFileSystemLocalOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	lfs, err := NewFileSystemLocal("/", testFS())
	require.Nil(t, err)

	files, err := lfs.Open(ctx, "/models/a.atf")
	require.Nil(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "/models/a.atf", files[0].Path(ctx))
	require.Equal(t, idl.FileKindATF, files[0].Kind(ctx))
	require.Equal(t, "ATF_FILE V1.41; ATF_END;", readAll(t, files[0]))

	files, err = lfs.Open(ctx, "file:///models")
	require.Nil(t, err)
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path(ctx))
	}
	sort.Strings(paths)
	require.Equal(t, []string{"/models/B.ATF", "/models/a.atf"}, paths)

	files, err = lfs.Open(ctx, "/models/notes.txt")
	require.Nil(t, err)
	require.Equal(t, idl.FileKindNone, files[0].Kind(ctx))
}

func TestFileSystemLocalErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	lfs, err := NewFileSystemLocal("/", testFS())
	require.Nil(t, err)

	_, err = lfs.Open(ctx, "/missing.atf")
	require.True(t, exc.HasCode(err, exc.CodeFileNotFound), err.Error())
	require.ErrorIs(t, err, iofs.ErrNotExist)

	_, err = lfs.Open(ctx, "/empty")
	require.True(t, exc.HasCode(err, exc.CodeFileNotFound), err.Error())
}

func TestFileSystemLocalFilter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	lfs, err := NewFileSystemLocal("/", testFS(), WithOptionFileFilter(func(ctx context.Context, fname string) bool {
		return filepath.Ext(fname) == ".txt"
	}))
	require.Nil(t, err)
	files, err := lfs.Open(ctx, "/models")
	require.Nil(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "/models/notes.txt", files[0].Path(ctx))
}

func TestFileSystemMulti(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	empty, err := NewFileSystemLocal("/", WithOptionFSFactory(func(string) iofs.FS { return fstest.MapFS{} }))
	require.Nil(t, err)
	full, err := NewFileSystemLocal("/", testFS())
	require.Nil(t, err)
	multi := FileSystemMulti{empty, full}

	files, err := multi.Open(ctx, "/models/nested/c.atf")
	require.Nil(t, err)
	require.Len(t, files, 1)

	_, err = multi.Open(ctx, "/nowhere.atf")
	require.True(t, exc.HasCode(err, exc.CodeFileNotFound))
	require.True(t, exc.HasCode(multi.Write(ctx, "/x.atf", ""), exc.CodeUnsuportedFileSystemOperation))
}

func TestFileSystemLocalWrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := t.TempDir()
	lfs, err := NewFileSystemLocal(root)
	require.Nil(t, err)
	require.Nil(t, lfs.Write(ctx, "/out/model.json", "{}"))
	b, err := os.ReadFile(filepath.Join(root, "out", "model.json"))
	require.Nil(t, err)
	require.Equal(t, "{}", string(b))

	files, err := lfs.Open(ctx, "/out/model.json")
	require.Nil(t, err)
	require.Equal(t, "{}", readAll(t, files[0]))
}

func TestFileReader(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := NewFileReader("<string>", strings.NewReader("ATF_END"), idl.FileKindATF)
	require.Equal(t, "ATF_END", readAll(t, f))
	_, err := f.Body(ctx)
	require.ErrorIs(t, err, io.ErrClosedPipe)
}
