package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fakeLoadAvg = "0.42 0.30 0.25 1/234 5678\n"
	fakeMemInfo = `MemTotal:       16384000 kB
MemFree:         1024000 kB
MemAvailable:    2048000 kB
Buffers:          100000 kB
`
	fakeMemInfoOld = `MemTotal:       16384000 kB
MemFree:         1024000 kB
`
)

// writeProc writes fake procfs files and returns a sampler reading them.
func writeProc(t *testing.T, loadavg, meminfo string) *ProcSampler {
	t.Helper()
	dir := t.TempDir()
	s := &ProcSampler{
		LoadAvgPath: filepath.Join(dir, "loadavg"),
		MemInfoPath: filepath.Join(dir, "meminfo"),
	}
	if loadavg != "" {
		require.NoError(t, os.WriteFile(s.LoadAvgPath, []byte(loadavg), 0o644))
	}
	if meminfo != "" {
		require.NoError(t, os.WriteFile(s.MemInfoPath, []byte(meminfo), 0o644))
	}
	return s
}

func TestProcSampler(t *testing.T) {
	s := writeProc(t, fakeLoadAvg, fakeMemInfo)

	got, err := s.Sample(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.42, got.CPULoad, 1e-9)
	assert.InDelta(t, 2000.0, got.MemoryAvailableMB, 1e-9)
}

func TestProcSamplerFallsBackToMemFree(t *testing.T) {
	s := writeProc(t, fakeLoadAvg, fakeMemInfoOld)

	got, err := s.Sample(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, got.MemoryAvailableMB, 1e-9)
}

func TestProcSamplerUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		loadavg string
		meminfo string
	}{
		{name: "missing loadavg", meminfo: fakeMemInfo},
		{name: "missing meminfo", loadavg: fakeLoadAvg},
		{name: "garbled loadavg", loadavg: "nonsense", meminfo: fakeMemInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := writeProc(t, tt.loadavg, tt.meminfo)
			_, err := s.Sample(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrObservability)

			var oerr *ObservabilityError
			require.True(t, errors.As(err, &oerr))
			assert.NotEmpty(t, oerr.Source)
		})
	}
}

func TestProcSamplerCanceledContext(t *testing.T) {
	s := writeProc(t, fakeLoadAvg, fakeMemInfo)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Sample(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewProcSamplerDefaults(t *testing.T) {
	s := NewProcSampler()
	assert.Equal(t, "/proc/loadavg", s.LoadAvgPath)
	assert.Equal(t, "/proc/meminfo", s.MemInfoPath)
}
