package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const treeYAML = `type: div
props: {id: A1}
children:
  - type: div
    props: {id: B1}
    children:
      - {type: div, props: {id: C1}}
      - {type: div, props: {id: C2}}
  - {type: div, props: {id: B2}}
`

const framesYAML = `frames:
  - {type: div, props: {id: A1}, children: [hello]}
  - {type: div, props: {id: A1}, children: [world, {type: span, props: {id: X}}]}
`

// writeFile writes content to name inside a fresh temp directory.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
