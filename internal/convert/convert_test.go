// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/datasheet-export/pkg/types"
)

// writeSource creates a source file with the given content in a temp dir
// and returns its path along with the directory.
func writeSource(t *testing.T, name, content string) (path, dir string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path, dir
}

// decode reads a converted file back as a list of generic objects.
func decode(t *testing.T, path string) []map[string]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out []map[string]string
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestConvert_ScenarioA(t *testing.T) {
	src, dir := writeSource(t, "Factions.csv", "Name|Power\nAbaddon|9\nTyranid Prime|7\n")
	dst := filepath.Join(dir, "Factions.json")

	rows, err := Convert(src, dst)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	want := `[
    {
        "Name": "Abaddon",
        "Power": "9"
    },
    {
        "Name": "Tyranid Prime",
        "Power": "7"
    }
]`
	assert.Equal(t, want, string(data))
}

func TestConvert_ScenarioB(t *testing.T) {
	src, dir := writeSource(t, "Factions.csv", "Name|Power\nAbaddon| \n")
	dst := filepath.Join(dir, "Factions.json")

	_, err := Convert(src, dst)
	require.NoError(t, err)

	assert.Equal(t, []map[string]string{{"Name": "Abaddon", "Power": ""}}, decode(t, dst))
}

func TestConvert_ScenarioC(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Missing.csv")
	dst := filepath.Join(dir, "Missing.json")

	_, err := Convert(src, dst)
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Contains(t, err.Error(), src)

	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr), "destination should not be created")
}

func TestConvert_Cleaning(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []map[string]string
	}{
		{
			name:  "trims keys and values",
			input: " Name |Power\n  foo  |\t3 \n",
			want:  []map[string]string{{"Name": "foo", "Power": "3"}},
		},
		{
			name:  "strips byte-order mark from first header",
			input: "\ufeffid|name\n1|Space Marines\n",
			want:  []map[string]string{{"id": "1", "name": "Space Marines"}},
		},
		{
			name:  "short rows are padded with empty values",
			input: "a|b|c\n1\n1|2\n",
			want: []map[string]string{
				{"a": "1", "b": "", "c": ""},
				{"a": "1", "b": "2", "c": ""},
			},
		},
		{
			name:  "trailing delimiter yields an empty-named column",
			input: "id|name|\n000000001|Adeptus Custodes|\n",
			want:  []map[string]string{{"id": "000000001", "name": "Adeptus Custodes", "": ""}},
		},
		{
			name:  "blank lines are skipped",
			input: "a|b\n\n1|2\n\n",
			want:  []map[string]string{{"a": "1", "b": "2"}},
		},
		{
			name:  "quoted field may contain the delimiter",
			input: "a|b\n\"x|y\"|2\n",
			want:  []map[string]string{{"a": "x|y", "b": "2"}},
		},
		{
			name:  "stray quote in unquoted field is literal",
			input: "a|b\n5\" blade|2\n",
			want:  []map[string]string{{"a": "5\" blade", "b": "2"}},
		},
		{
			name:  "text after a closing quote joins the field",
			input: "a|b\n\"abc\"def|2\n",
			want:  []map[string]string{{"a": "abcdef", "b": "2"}},
		},
		{
			name: "quoted prefix keeps later rows intact",
			input: "id|name|description\n" +
				"1|Warlord|\"Warlord\" trait: +1 attack\n" +
				"2|Deep Strike|Arrives from reserve\n" +
				"3|Scouts|Moves before battle\n",
			want: []map[string]string{
				{"id": "1", "name": "Warlord", "description": "Warlord trait: +1 attack"},
				{"id": "2", "name": "Deep Strike", "description": "Arrives from reserve"},
				{"id": "3", "name": "Scouts", "description": "Moves before battle"},
			},
		},
		{
			name:  "repeated header name keeps the last value",
			input: "a|b|a\n1|2|3\n",
			want:  []map[string]string{{"a": "3", "b": "2"}},
		},
		{
			name:  "names that clean to the same key collapse",
			input: " a |b|a\t\n1|2|3\n",
			want:  []map[string]string{{"a": "3", "b": "2"}},
		},
		{
			name:  "CRLF line endings",
			input: "a|b\r\n1|2\r\n",
			want:  []map[string]string{{"a": "1", "b": "2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, dir := writeSource(t, "in.csv", tt.input)
			dst := filepath.Join(dir, "out.json")

			_, err := Convert(src, dst)
			require.NoError(t, err)
			assert.Equal(t, tt.want, decode(t, dst))
		})
	}
}

func TestConvert_RowCountAndKeys(t *testing.T) {
	var b strings.Builder
	b.WriteString("id|name|faction_id\n")
	const n = 50
	for i := 0; i < n; i++ {
		b.WriteString("1|Intercessor Squad|SM\n")
	}
	src, dir := writeSource(t, "Datasheets.csv", b.String())
	dst := filepath.Join(dir, "Datasheets.json")

	rows, err := Convert(src, dst)
	require.NoError(t, err)
	assert.Equal(t, n, rows)

	got := decode(t, dst)
	require.Len(t, got, n)
	for _, obj := range got {
		assert.Len(t, obj, 3)
		assert.Contains(t, obj, "id")
		assert.Contains(t, obj, "name")
		assert.Contains(t, obj, "faction_id")
	}
}

func TestConvert_PreservesColumnOrder(t *testing.T) {
	src, dir := writeSource(t, "in.csv", "zeta|alpha|mid\n1|2|3\n")
	dst := filepath.Join(dir, "out.json")

	_, err := Convert(src, dst)
	require.NoError(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	z := bytes.Index(data, []byte(`"zeta"`))
	a := bytes.Index(data, []byte(`"alpha"`))
	m := bytes.Index(data, []byte(`"mid"`))
	assert.True(t, z < a && a < m, "keys out of header order: %s", data)
}

func TestConvert_DuplicateKeysKeepFirstPosition(t *testing.T) {
	src, dir := writeSource(t, "in.csv", "a|b|a\n1|2|3\n")
	dst := filepath.Join(dir, "out.json")

	_, err := Convert(src, dst)
	require.NoError(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "[\n    {\n        \"a\": \"3\",\n        \"b\": \"2\"\n    }\n]", string(data))
}

func TestConvert_LiteralText(t *testing.T) {
	src, dir := writeSource(t, "in.csv", "name|text\nÆldari|<b>Fate & Fortune</b> – “Craftworld”\n")
	dst := filepath.Join(dir, "out.json")

	_, err := Convert(src, dst)
	require.NoError(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Ældari"`)
	assert.Contains(t, string(data), `"<b>Fate & Fortune</b> – “Craftworld”"`)
	assert.NotContains(t, string(data), `\u`)
}

func TestConvert_EmptyInputs(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty file", input: ""},
		{name: "header only", input: "id|name\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, dir := writeSource(t, "in.csv", tt.input)
			dst := filepath.Join(dir, "out.json")

			rows, err := Convert(src, dst)
			require.NoError(t, err)
			assert.Zero(t, rows)

			data, err := os.ReadFile(dst)
			require.NoError(t, err)
			assert.Equal(t, "[]", string(data))
		})
	}
}

func TestConvert_GenericFailures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) (src, dst string)
		wantMsg string
	}{
		{
			name: "invalid UTF-8",
			setup: func(t *testing.T) (string, string) {
				src, dir := writeSource(t, "in.csv", "a|b\n\xff\xfe|2\n")
				return src, filepath.Join(dir, "out.json")
			},
			wantMsg: "UTF-8",
		},
		{
			name: "unclosed quote",
			setup: func(t *testing.T) (string, string) {
				src, dir := writeSource(t, "in.csv", "a|b\n1|\"open\n2|3\n")
				return src, filepath.Join(dir, "out.json")
			},
			wantMsg: "quoted field is not closed",
		},
		{
			name: "record longer than header",
			setup: func(t *testing.T) (string, string) {
				src, dir := writeSource(t, "in.csv", "a|b\n1|2|3\n")
				return src, filepath.Join(dir, "out.json")
			},
			wantMsg: "3 fields, header has 2",
		},
		{
			name: "source is a directory",
			setup: func(t *testing.T) (string, string) {
				dir := t.TempDir()
				src := filepath.Join(dir, "in.csv")
				require.NoError(t, os.Mkdir(src, 0o755))
				return src, filepath.Join(dir, "out.json")
			},
		},
		{
			name: "destination directory missing",
			setup: func(t *testing.T) (string, string) {
				src, dir := writeSource(t, "in.csv", "a|b\n1|2\n")
				return src, filepath.Join(dir, "missing", "out.json")
			},
			wantMsg: "temporary file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, dst := tt.setup(t)

			_, err := Convert(src, dst)
			require.Error(t, err)
			assert.Equal(t, KindGeneric, KindOf(err))
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}

			_, statErr := os.Stat(dst)
			assert.True(t, os.IsNotExist(statErr), "destination should not be created")
		})
	}
}

func TestConvert_Idempotent(t *testing.T) {
	src, dir := writeSource(t, "in.csv", "\ufeff Name |Power\nAbaddon| 9 \nAngron|\n")
	dst := filepath.Join(dir, "out.json")

	_, err := Convert(src, dst)
	require.NoError(t, err)
	first, err := os.ReadFile(dst)
	require.NoError(t, err)

	_, err = Convert(src, dst)
	require.NoError(t, err)
	second, err := os.ReadFile(dst)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestConvert_OverwritesWithoutLeftovers(t *testing.T) {
	src, dir := writeSource(t, "in.csv", "a\n1\n")
	dst := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(dst, []byte("stale content that is longer than the new document"), 0o644))

	_, err := Convert(src, dst)
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{{"a": "1"}}, decode(t, dst))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"in.csv", "out.json"}, names)
}

func TestConvert_KeepsExistingFileMode(t *testing.T) {
	src, dir := writeSource(t, "in.csv", "a\n1\n")

	existing := filepath.Join(dir, "existing.json")
	require.NoError(t, os.WriteFile(existing, []byte("[]"), 0o600))
	require.NoError(t, os.Chmod(existing, 0o600))
	fresh := filepath.Join(dir, "fresh.json")

	_, err := Convert(src, existing)
	require.NoError(t, err)
	_, err = Convert(src, fresh)
	require.NoError(t, err)

	info, err := os.Stat(existing)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	info, err = os.Stat(fresh)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestConvert_FailedConversionKeepsPreviousOutput(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.csv")
	bad := filepath.Join(dir, "bad.csv")
	dst := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(good, []byte("a\n1\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("a\n1|2\n"), 0o644))

	_, err := Convert(good, dst)
	require.NoError(t, err)
	before, err := os.ReadFile(dst)
	require.NoError(t, err)

	_, err = Convert(bad, dst)
	require.Error(t, err)

	after, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestConvertFile(t *testing.T) {
	tests := []struct {
		name       string
		content    *string
		wantStatus types.ConversionStatus
		wantLog    string
	}{
		{
			name:       "successful conversion",
			content:    ptr("a|b\n1|2\n"),
			wantStatus: types.ConversionDone,
			wantLog:    "converted:",
		},
		{
			name:       "missing source",
			wantStatus: types.ConversionNotFound,
			wantLog:    "not found:",
		},
		{
			name:       "malformed source",
			content:    ptr("a\n1|2\n"),
			wantStatus: types.ConversionFailed,
			wantLog:    "failed:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			job := types.Job{
				Name:        "Abilities",
				Source:      filepath.Join(dir, "Abilities.csv"),
				Destination: filepath.Join(dir, "Abilities.json"),
			}
			if tt.content != nil {
				require.NoError(t, os.WriteFile(job.Source, []byte(*tt.content), 0o644))
			}

			var log bytes.Buffer
			out := ConvertFile(job, &log)

			assert.Equal(t, tt.wantStatus, out.Status)
			assert.Equal(t, job, out.Job)
			assert.True(t, strings.HasPrefix(log.String(), tt.wantLog), "log %q", log.String())
			assert.Contains(t, log.String(), job.Source)
			assert.Equal(t, 1, strings.Count(log.String(), "\n"))
			if tt.wantStatus == types.ConversionDone {
				assert.NoError(t, out.Err)
				assert.Equal(t, 1, out.Rows)
				assert.Contains(t, log.String(), job.Destination)
			} else {
				assert.Error(t, out.Err)
			}
		})
	}
}

func TestConvertBatch(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(outDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Factions.csv"), []byte("id|name\nAC|Adeptus Custodes\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Source.csv"), []byte("id\n1|2\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Stratagems.csv"), []byte("id|cp\n1|1\n2|2\n"), 0o644))

	var jobs []types.Job
	for _, name := range []string{"Factions", "Datasheets", "Source", "Stratagems"} {
		jobs = append(jobs, types.Job{
			Name:        name,
			Source:      filepath.Join(dir, name+".csv"),
			Destination: filepath.Join(outDir, name+".json"),
		})
	}

	var log bytes.Buffer
	result := ConvertBatch(jobs, &log)

	assert.Equal(t, 2, result.Converted)
	assert.Equal(t, 1, result.NotFound)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 4, result.Total())
	assert.True(t, result.HasFailures())
	require.Len(t, result.Outcomes, 4)

	wantStatus := []types.ConversionStatus{
		types.ConversionDone, types.ConversionNotFound, types.ConversionFailed, types.ConversionDone,
	}
	for i, out := range result.Outcomes {
		assert.Equal(t, jobs[i].Name, out.Job.Name)
		assert.Equal(t, wantStatus[i], out.Status, out.Job.Name)
	}
	assert.Equal(t, 2, result.Outcomes[3].Rows)

	lines := strings.Split(strings.TrimSpace(log.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.True(t, strings.HasPrefix(lines[0], "converted:"))
	assert.True(t, strings.HasPrefix(lines[1], "not found:"))
	assert.True(t, strings.HasPrefix(lines[2], "failed:"))
	assert.True(t, strings.HasPrefix(lines[3], "converted:"))
	assert.Contains(t, log.String(), "Batch summary: 2 converted, 1 not found, 1 failed (total: 4)")

	_, err := os.Stat(filepath.Join(outDir, "Datasheets.json"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(outDir, "Source.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestConvertBatch_Empty(t *testing.T) {
	var log bytes.Buffer
	result := ConvertBatch(nil, &log)
	assert.Zero(t, result.Total())
	assert.False(t, result.HasFailures())
	assert.Contains(t, log.String(), "total: 0")
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(0), KindOf(nil))
	assert.Equal(t, KindGeneric, KindOf(os.ErrPermission))
	assert.Equal(t, KindNotFound, KindOf(&Error{Kind: KindNotFound, Path: "x"}))
	assert.Equal(t, "not found", KindNotFound.String())
	assert.Equal(t, "generic", KindGeneric.String())
}

func TestCleanKey(t *testing.T) {
	assert.Equal(t, "Name", CleanKey(" Name "))
	assert.Equal(t, "id", CleanKey("\ufeffid"))
	assert.Equal(t, "id", CleanKey("\ufeff id\t"))
	assert.Equal(t, "", CleanKey("   "))
}

func ptr(s string) *string { return &s }
