// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"gopkg.microglot.org/atf.go/internal/exc"
)

func TestNewDefaultFS(t *testing.T) {
	t.Parallel()

	first := t.TempDir()
	second := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(first, "a.atf"), []byte(validFiles), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(second, "a.atf"), []byte(validInstance), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(second, "b.atf"), []byte(validInstance), 0o644))

	env := map[string]string{
		"ATF_PATH":      first + string(os.PathListSeparator) + second,
		"XDG_DATA_DIRS": t.TempDir(),
	}
	dfs, err := NewDefaultFS(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	require.NoError(t, err)

	ctx := context.Background()
	files, err := dfs.Open(ctx, "/a.atf")
	require.NoError(t, err)
	require.Len(t, files, 1)
	body, err := files[0].Body(ctx)
	require.NoError(t, err)
	b, err := body.Read(ctx, int32(len(validFiles)+1))
	require.NoError(t, err)
	require.Equal(t, validFiles, string(b))
	require.NoError(t, body.Close(ctx))

	files, err = dfs.Open(ctx, "/b.atf")
	require.NoError(t, err)
	require.Len(t, files, 1)

	_, err = dfs.Open(ctx, "/c.atf")
	require.True(t, exc.HasCode(err, exc.CodeFileNotFound))
}
