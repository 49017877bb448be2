package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// testEnv isolates config and data under temp dirs and returns the --dir value.
func testEnv(t *testing.T) string {
	t.Helper()
	t.Setenv("BULLET_CONFIG_DIR", t.TempDir())
	t.Setenv("BULLET_DIR", "")
	t.Setenv("BULLET_FORMAT", "")
	t.Setenv("BULLET_LOG_LEVEL", "")
	return t.TempDir()
}

type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta map[string]any  `json:"meta"`
}

func mustRun(t *testing.T, args ...string) envelope {
	t.Helper()
	out, errOut, err := runCLI(t, args)
	require.NoError(t, err, "args=%v stderr=%s", args, errOut)
	var env envelope
	require.NoError(t, json.Unmarshal(out, &env), "stdout=%s", out)
	return env
}

type stateView struct {
	Nodes map[string]struct {
		ParentID string   `json:"parentId"`
		Text     string   `json:"text"`
		Children []string `json:"children"`
	} `json:"nodes"`
	RootOrder   []string `json:"rootOrder"`
	FocusedID   string   `json:"focusedId"`
	Caret       int      `json:"caret"`
	ScopeRootID *string  `json:"scopeRootId"`
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), "raw=%s", raw)
	return v
}

func newDoc(t *testing.T, dir, title string) string {
	t.Helper()
	env := mustRun(t, "--dir", dir, "new", title)
	doc := decode[struct {
		ID    string    `json:"id"`
		Title string    `json:"title"`
		State stateView `json:"state"`
	}](t, env.Data)
	require.True(t, strings.HasPrefix(doc.ID, "doc-"))
	require.Equal(t, title, doc.Title)
	require.Equal(t, []string{"n1"}, doc.State.RootOrder)
	return doc.ID
}

func TestCLI_EditFlow(t *testing.T) {
	dir := testEnv(t)
	id := newDoc(t, dir, "Weekend")

	env := mustRun(t, "--dir", dir, "apply", id, "set-text", "--text", "Groceries")
	require.Equal(t, true, env.Meta["changed"])
	require.Equal(t, "set-text", env.Meta["kind"])
	st := decode[stateView](t, env.Data)
	require.Equal(t, "Groceries", st.Nodes["n1"].Text)

	env = mustRun(t, "--dir", dir, "apply", id, "split", "--caret", "4")
	st = decode[stateView](t, env.Data)
	require.Equal(t, "Groc", st.Nodes["n1"].Text)
	require.Equal(t, "eries", st.Nodes["n2"].Text)
	require.Equal(t, "n2", st.FocusedID)
	require.Equal(t, 0, st.Caret)

	env = mustRun(t, "--dir", dir, "apply", id, "indent")
	st = decode[stateView](t, env.Data)
	require.Equal(t, "n1", st.Nodes["n2"].ParentID)
	require.Equal(t, []string{"n2"}, st.Nodes["n1"].Children)

	// n2 is now a first child: indenting again changes nothing.
	env = mustRun(t, "--dir", dir, "apply", id, "indent")
	require.Equal(t, false, env.Meta["changed"])

	env = mustRun(t, "--dir", dir, "visible", id)
	rows := decode[[]visibleRow](t, env.Data)
	require.Equal(t, []visibleRow{
		{ID: "n1", Depth: 0, Text: "Groc"},
		{ID: "n2", Depth: 1, Text: "eries", Focused: true},
	}, rows)
	require.Equal(t, "n2", env.Meta["focusedId"])

	env = mustRun(t, "--dir", dir, "ancestors", id, "n2")
	require.Equal(t, []string{"n1", "n2"}, decode[[]string](t, env.Data))

	_, _, err := runCLI(t, []string{"--dir", dir, "ancestors", id, "n99"})
	require.Error(t, err)

	out, errOut, err := runCLI(t, []string{"--dir", dir, "export", id})
	require.NoError(t, err, "stderr=%s", errOut)
	require.Equal(t, "# Weekend\n\n- Groc\n  - eries\n", string(out))

	// Prefix lookup and the persisted state.
	env = mustRun(t, "--dir", dir, "show", strings.TrimPrefix(id, "doc-")[:6])
	shown := decode[struct {
		ID    string    `json:"id"`
		State stateView `json:"state"`
	}](t, env.Data)
	require.Equal(t, id, shown.ID)
	require.Equal(t, "n2", shown.State.FocusedID)
}

func TestCLI_ApplyJSONAndScope(t *testing.T) {
	dir := testEnv(t)
	id := newDoc(t, dir, "Notes")

	mustRun(t, "--dir", dir, "apply", id, "--json", `{"kind":"set-text","text":"Parent"}`)
	mustRun(t, "--dir", dir, "apply", id, "append-child", "--id", "n1")

	cmd := NewRootCmd()
	var outBuf, errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetIn(strings.NewReader("kind: set-scope\nscopeRootId: n1\n"))
	cmd.SetArgs([]string{"--dir", dir, "apply", id, "--json", "-"})
	require.NoError(t, cmd.Execute(), "stderr=%s", errBuf.String())

	env := mustRun(t, "--dir", dir, "visible", id)
	require.Equal(t, "n1", env.Meta["scopeRootId"])
	rows := decode[[]visibleRow](t, env.Data)
	require.Len(t, rows, 2)
	require.Equal(t, "n1", rows[0].ID)
	require.Equal(t, "n2", rows[1].ID)
	require.Equal(t, 1, rows[1].Depth)

	mustRun(t, "--dir", dir, "apply", id, "insert-sibling", "--id", "n1")
	out, _, err := runCLI(t, []string{"--dir", dir, "export", id, "--scoped"})
	require.NoError(t, err)
	require.Equal(t, "# Notes\n\n- Parent\n  -\n", string(out))
	out, _, err = runCLI(t, []string{"--dir", dir, "export", id})
	require.NoError(t, err)
	require.Equal(t, "# Notes\n\n- Parent\n  -\n-\n", string(out))

	// Clearing the scope.
	mustRun(t, "--dir", dir, "apply", id, "set-scope")
	env = mustRun(t, "--dir", dir, "visible", id)
	require.NotContains(t, env.Meta, "scopeRootId")
}

func TestCLI_ApplyErrors(t *testing.T) {
	dir := testEnv(t)
	id := newDoc(t, dir, "Errs")

	cases := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing kind", args: []string{"apply", id}, want: "missing command kind"},
		{name: "unknown kind", args: []string{"apply", id, "explode"}, want: "kind must be one of"},
		{name: "set-text without text", args: []string{"apply", id, "set-text"}, want: "set-text requires text"},
		{name: "kind twice", args: []string{"apply", id, "split", "--json", `{"kind":"split"}`}, want: "not both"},
		{name: "unknown document", args: []string{"apply", "doc-nope", "split"}, want: "not found"},
		{name: "unknown scope root", args: []string{"apply", id, "set-scope", "--scope", "nope"}, want: "scope root nope does not exist"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, errOut, err := runCLI(t, append([]string{"--dir", dir}, tc.args...))
			require.Error(t, err)
			require.Empty(t, out)
			require.Contains(t, string(errOut), tc.want)
		})
	}

	// Nothing was saved by the failed commands.
	env := mustRun(t, "--dir", dir, "visible", id)
	require.NotContains(t, env.Meta, "scopeRootId")
}

func TestCLI_DocumentLifecycle(t *testing.T) {
	dir := testEnv(t)
	first := newDoc(t, dir, "First")
	second := newDoc(t, dir, "Second")

	env := mustRun(t, "--dir", dir, "list")
	docs := decode[[]docSummary](t, env.Data)
	require.Len(t, docs, 2)
	current := map[string]bool{}
	for _, d := range docs {
		current[d.ID] = d.Current
	}
	require.False(t, current[first])
	require.True(t, current[second])

	env = mustRun(t, "--dir", dir, "rename", first, "  Renamed  ")
	require.Equal(t, "Renamed", decode[map[string]any](t, env.Data)["title"])

	mustRun(t, "--dir", dir, "rm", second)
	env = mustRun(t, "--dir", dir, "list")
	docs = decode[[]docSummary](t, env.Data)
	require.Len(t, docs, 1)
	require.Equal(t, first, docs[0].ID)
	require.Equal(t, "Renamed", docs[0].Title)
	require.False(t, docs[0].Current)

	_, errOut, err := runCLI(t, []string{"--dir", dir, "show", second})
	require.Error(t, err)
	require.Contains(t, string(errOut), "not found")
}

func TestCLI_ExportToDir(t *testing.T) {
	dir := testEnv(t)
	id := newDoc(t, dir, "Export")
	mustRun(t, "--dir", dir, "apply", id, "set-text", "--text", "only")

	to := filepath.Join(t.TempDir(), "out")
	env := mustRun(t, "--dir", dir, "export", id, "--to", to)
	res := decode[struct {
		Written []string `json:"written"`
	}](t, env.Data)
	want := filepath.Join(to, id+".md")
	require.Equal(t, []string{want}, res.Written)

	b, err := os.ReadFile(want)
	require.NoError(t, err)
	require.Equal(t, "# Export\n\n- only\n", string(b))

	_, errOut, err := runCLI(t, []string{"--dir", dir, "export", id, "--to", to})
	require.Error(t, err)
	require.Contains(t, string(errOut), "--overwrite")

	mustRun(t, "--dir", dir, "export", id, "--to", to, "--overwrite")
}

func TestCLI_Config(t *testing.T) {
	dir := testEnv(t)

	env := mustRun(t, "--dir", dir, "config", "set", "tui.autosaveSeconds", "15")
	cfg := decode[map[string]any](t, env.Data)
	require.Equal(t, float64(15), cfg["tui"].(map[string]any)["autosaveSeconds"])

	mustRun(t, "--dir", dir, "config", "set", "tui.glyphs", "ascii")

	env = mustRun(t, "--dir", dir, "config", "show")
	require.Equal(t, dir, env.Meta["dataDir"])
	require.True(t, strings.HasSuffix(env.Meta["path"].(string), "config.yaml"))
	cfg = decode[map[string]any](t, env.Data)
	tui := cfg["tui"].(map[string]any)
	require.Equal(t, "ascii", tui["glyphs"])
	require.Equal(t, float64(15), tui["autosaveSeconds"])

	for _, bad := range [][]string{
		{"config", "set", "nope", "x"},
		{"config", "set", "tui.autosaveSeconds", "-3"},
		{"config", "set", "log.mode", "verbose"},
	} {
		_, _, err := runCLI(t, append([]string{"--dir", dir}, bad...))
		require.Error(t, err, "args=%v", bad)
	}
}

func TestCLI_YAMLOutput(t *testing.T) {
	dir := testEnv(t)
	id := newDoc(t, dir, "Yaml")

	out, errOut, err := runCLI(t, []string{"--dir", dir, "--format", "yaml", "visible", id})
	require.NoError(t, err, "stderr=%s", errOut)

	var env struct {
		Data []visibleRow  `yaml:"data"`
		Meta map[string]any `yaml:"meta"`
	}
	require.NoError(t, yaml.Unmarshal(out, &env))
	require.Equal(t, []visibleRow{{ID: "n1", Depth: 0, Text: "", Focused: true}}, env.Data)
	require.Equal(t, "n1", env.Meta["focusedId"])
}

func TestCLI_DoctorAndBackup(t *testing.T) {
	dir := testEnv(t)
	id := newDoc(t, dir, "Keep")
	mustRun(t, "--dir", dir, "apply", id, "set-text", "--text", "kept")

	env := mustRun(t, "--dir", dir, "doctor", "--fail")
	require.Equal(t, false, env.Meta["hasErrors"])
	require.Equal(t, float64(0), env.Meta["issues"])

	file := filepath.Join(t.TempDir(), "all.jsonl")
	env = mustRun(t, "--dir", dir, "backup", "export", "--to", file)
	require.Equal(t, float64(1), decode[map[string]any](t, env.Data)["documents"])

	restored := t.TempDir()
	mustRun(t, "--dir", restored, "backup", "import", "--from", file)
	out, errOut, err := runCLI(t, []string{"--dir", restored, "export", id})
	require.NoError(t, err, "stderr=%s", errOut)
	require.Equal(t, "# Keep\n\n- kept\n", string(out))

	_, errOut, err = runCLI(t, []string{"--dir", dir, "backup", "export"})
	require.Error(t, err)
	require.Contains(t, string(errOut), "missing --to")
}
