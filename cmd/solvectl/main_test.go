package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/solvernet/internal/solver"
)

func TestRandomMatrix(t *testing.T) {
	m := randomMatrix(4, rand.New(rand.NewPCG(1, 2)))
	require.Len(t, m, 4)
	for _, row := range m {
		require.Len(t, row, 5)
		for _, v := range row {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 10.0)
			assert.InDelta(t, v, float64(int(v*1000+0.5))/1000, 1e-9, "three decimals")
		}
	}
	assert.NoError(t, solver.Validate(m))
}

func TestFormatRow(t *testing.T) {
	assert.Equal(t, "2.000 | -1.000 | 0.333", formatRow([]float64{2, -1, 1.0 / 3}))
	assert.Equal(t, "", formatRow(nil))
}

func TestReadMatrixFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"matrix":[[2,1,5],[1,-1,1]]}`), 0o600))
	m, err := readMatrixFile(good)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2, 1, 5}, {1, -1, 1}}, m)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{}`), 0o600))
	_, err = readMatrixFile(empty)
	assert.ErrorContains(t, err, "no matrix")

	_, err = readMatrixFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func fakeBalancer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/solve", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func runSolve(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"solve"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSolveCommand(t *testing.T) {
	srv := fakeBalancer(t, http.StatusOK, `{"solution":[2,1]}`)
	path := filepath.Join(t.TempDir(), "sys.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"matrix":[[2,1,5],[1,-1,1]]}`), 0o600))

	out, err := runSolve(t, "-b", srv.URL, "-f", path)
	require.NoError(t, err)
	assert.Equal(t, "Matrix:\n2.000 | 1.000 | 5.000\n1.000 | -1.000 | 1.000\nSolution:\n2.000 | 1.000\n", out)
}

func TestSolveCommandGenerated(t *testing.T) {
	srv := fakeBalancer(t, http.StatusOK, `{"solution":[0,0,0]}`)

	out, err := runSolve(t, "-b", srv.URL, "-n", "3", "--seed", "7")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, 3, strings.Count(lines[1], "|"), "n+1 columns")

	_, err = runSolve(t, "-b", srv.URL, "-n", "0")
	assert.ErrorContains(t, err, "size must be at least 1")
}

func TestSolveCommandBalancerError(t *testing.T) {
	srv := fakeBalancer(t, http.StatusServiceUnavailable, `{"error":"no healthy workers (0 of 3 workers answered)"}`)

	_, err := runSolve(t, "-b", srv.URL, "-n", "2")
	assert.EqualError(t, err, "balancer answered 503: no healthy workers (0 of 3 workers answered)")
}

func TestWatch(t *testing.T) {
	stream := strings.Join([]string{
		`[{"id":"w3","memoryAvailableMB":800,"cpuLoad":0.1},{"id":"w1","memoryAvailableMB":500,"cpuLoad":0.2}]`,
		`[]`,
	}, "\n") + "\n"

	var out bytes.Buffer
	err := watch(strings.NewReader(stream), &out, false)
	assert.ErrorIs(t, err, io.EOF)

	got := out.String()
	assert.Contains(t, got, "800.000")
	assert.Contains(t, got, "next request goes to w3")
	assert.Contains(t, got, "no healthy workers")
	assert.NotContains(t, got, clearScreen)
}

func TestWatchClearsAndRejectsGarbage(t *testing.T) {
	var out bytes.Buffer
	err := watch(strings.NewReader("[]\nnot json\n"), &out, true)
	require.Error(t, err)
	assert.False(t, errors.Is(err, io.EOF))
	assert.ErrorContains(t, err, "decode roster")
	assert.True(t, strings.HasPrefix(out.String(), clearScreen))
}

func TestWatchFormatsThreeDecimals(t *testing.T) {
	var out bytes.Buffer
	_ = watch(strings.NewReader(`[{"id":"a","memoryAvailableMB":1.5,"cpuLoad":2}]`+"\n"), &out, false)
	assert.Contains(t, out.String(), "1.500")
	assert.Contains(t, out.String(), "2.000")
}
