package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	validFiles = `ATF_FILE V1.41;
FILES
  COMPONENT main = "model.atfx";
ENDFILES;
ATF_END;`
	brokenTrailer = `ATF_FILE V1.41;
FILES
  COMPONENT main = "model.atfx";
ATF_END;`
)

func testRoot(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.atf"), []byte(validFiles), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "bad.atf"), []byte(brokenTrailer), 0o644))
	return root
}

func TestRun(t *testing.T) {
	t.Parallel()

	root := testRoot(t)
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--root", root, "a.atf"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	require.Equal(t, "ATF_FILE V1.41\n{\"files\": {\"main\": \"model.atfx\"}}\n", stdout.String())
}

func TestRunJSON(t *testing.T) {
	t.Parallel()

	root := testRoot(t)
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--root", root, "--format", "json", "a.atf"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	v := &structpb.Value{}
	require.NoError(t, protojson.Unmarshal(stdout.Bytes(), v))
	doc := v.GetStructValue().GetFields()["document"].GetStructValue()
	require.Equal(t, "model.atfx", doc.GetFields()["files"].GetStructValue().GetFields()["main"].GetStringValue())
}

func TestRunOutputDirectory(t *testing.T) {
	t.Parallel()

	root := testRoot(t)
	out := t.TempDir()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--root", root, "--output", out, "--format", "yaml", "a.atf"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	require.Zero(t, stdout.Len())
	b, err := os.ReadFile(filepath.Join(out, "a.atf.yaml"))
	require.NoError(t, err)
	require.Contains(t, string(b), "main: model.atfx")
}

func TestRunConfigFile(t *testing.T) {
	t.Parallel()

	root := testRoot(t)
	cfgPath := filepath.Join(t.TempDir(), "atfc.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("format = \"json\"\nroots = [\""+filepath.ToSlash(root)+"\"]\n"), 0o644))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--config", cfgPath, "--format", "text", "a.atf"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	require.Equal(t, "ATF_FILE V1.41\n{\"files\": {\"main\": \"model.atfx\"}}\n", stdout.String())
}

func TestRunErrors(t *testing.T) {
	t.Parallel()

	root := testRoot(t)
	testCases := []struct {
		name   string
		args   []string
		code   int
		stderr string
	}{
		{
			name:   "syntax error",
			args:   []string{"--root", root, "bad.atf", "a.atf"},
			code:   1,
			stderr: "M0010",
		},
		{
			name:   "unknown format",
			args:   []string{"--root", root, "--format", "xml", "a.atf"},
			code:   2,
			stderr: `unknown export format "xml"`,
		},
		{
			name:   "unknown flag",
			args:   []string{"--colour"},
			code:   2,
			stderr: "unknown flag",
		},
		{
			name:   "missing config",
			args:   []string{"--config", filepath.Join(root, "missing.toml")},
			code:   2,
			stderr: "failed to parse config",
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			var stdout, stderr bytes.Buffer
			code := run(context.Background(), testCase.args, &stdout, &stderr)
			require.Equal(t, testCase.code, code)
			require.Contains(t, stderr.String(), testCase.stderr)
		})
	}
}
