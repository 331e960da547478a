package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tlu-hub/tlu-group-hub/internal/infrastructure/persistence/csvstore"
	"github.com/tlu-hub/tlu-group-hub/internal/infrastructure/persistence/postgres"
)

func writeRoster(t *testing.T, dir, name, session string, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString(strings.Join(csvstore.Header, ",") + "\n")
	goals := []string{"Điểm cao", "Qua môn", "Học hỏi", "Làm sản phẩm"}
	for i := 0; i < n; i++ {
		role := "Thành viên"
		if i == 0 {
			role = "Nhóm trưởng"
		}
		fmt.Fprintf(&b, "%s%02d,SV %d,64HTTT1,%.1f,%d,%s,%s,Lập trình,%s\n",
			name, i, i, 2.0+float64(i%4)*0.5, 5+i%5, session, goals[i%len(goals)], role)
	}
	path := filepath.Join(dir, name+".csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORAGE_DIR", t.TempDir())
	root := newRootCommand(viper.New())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestForm_FromInputFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeRoster(t, dir, "A", "Ca 1", 6)
	b := writeRoster(t, dir, "B", "Ca 2", 4)
	outPath := filepath.Join(dir, "groups.csv")
	htmlPath := filepath.Join(dir, "groups.html")

	stdout, err := execute(t, "", "form", "--input", a, "--input", b,
		"--size", "2", "--seed", "7", "-o", outPath, "--html", htmlPath, "--members")
	require.NoError(t, err)

	assert.Contains(t, stdout, "CA: Ca 1 | Số nhóm = 3")
	assert.Contains(t, stdout, "CA: Ca 2 | Số nhóm = 2")
	assert.Contains(t, stdout, "seed 7")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\uFEFF")))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 11, "header plus every student")
	assert.Equal(t, csvstore.ExportHeader, records[0])

	html, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "===== CA: Ca 1 | Số nhóm = 3 =====")
}

func TestForm_StdoutExport(t *testing.T) {
	dir := t.TempDir()
	a := writeRoster(t, dir, "A", "Ca 1", 4)

	stdout, err := execute(t, "", "form", "--input", a, "--out", "-")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stdout, "\uFEFFSTT,"))
	assert.NotContains(t, stdout, "Số nhóm", "no terminal summary mixed into the export")
}

func TestForm_RejectsStoreFlagsWithInput(t *testing.T) {
	dir := t.TempDir()
	a := writeRoster(t, dir, "A", "Ca 1", 2)

	_, err := execute(t, "", "form", "--input", a, "--class", "64HTTT1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--class")
}

func TestForm_FromCSVStore(t *testing.T) {
	storeDir := t.TempDir()
	src := writeRoster(t, t.TempDir(), "64HTTT2", "Ca 3", 5)
	require.NoError(t, os.Rename(src, filepath.Join(storeDir, "64HTTT2.csv")))

	root := newRootCommand(viper.New())
	t.Setenv("STORAGE_DIR", storeDir)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"form", "--class", "64HTTT2", "--out", filepath.Join(t.TempDir(), "g.csv")})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "Kết quả chia nhóm lớp 64HTTT2")
	assert.Contains(t, out.String(), "5 sinh viên")
}

func TestForm_RecordNeedsPostgres(t *testing.T) {
	_, err := execute(t, "", "form", "--record", "--out", filepath.Join(t.TempDir(), "g.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_BACKEND=postgres")
}

func TestHashPassword_ArgAndStdin(t *testing.T) {
	out, err := execute(t, "", "hash-password", "s3cret")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("s3cret")))

	out, err = execute(t, "from-stdin\n", "hash-password")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("from-stdin")))

	_, err = execute(t, "\n", "hash-password")
	assert.Error(t, err)
}

func TestPrintRuns(t *testing.T) {
	var buf bytes.Buffer
	err := printRuns(&buf, []postgres.GroupRun{{
		ID:           uuid.MustParse("7f0c8d3e-1111-4222-8333-944455556666"),
		GroupSize:    5,
		Seed:         42,
		StudentCount: 23,
		GroupCount:   5,
		MaxGap:       0.125,
		CreatedAt:    time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "MAX GAP")
	assert.Contains(t, lines[1], "7f0c8d3e-1111-4222-8333-944455556666")
	assert.Contains(t, lines[1], "all")
	assert.Contains(t, lines[1], "0.12")
}

func TestRuns_RejectsBadLimit(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:1/none")
	_, err := execute(t, "", "runs", "--limit", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--limit")
}
