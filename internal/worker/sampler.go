package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/c9s/goprocinfo/linux"
)

// ErrObservability matches every ObservabilityError.
var ErrObservability = errors.New("host metrics unavailable")

// ObservabilityError reports that the host's load or memory could not be
// read. The worker then omits its snapshot, and the balancer treats it as
// unreachable.
type ObservabilityError struct {
	Source string
	Err    error
}

func (e *ObservabilityError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrObservability, e.Source, e.Err)
}

// Is lets errors.Is(err, ErrObservability) succeed.
func (e *ObservabilityError) Is(target error) bool { return target == ErrObservability }

func (e *ObservabilityError) Unwrap() error { return e.Err }

// HostSample is one reading of host resources.
type HostSample struct {
	CPULoad           float64 // 1-minute load average
	MemoryAvailableMB float64 // memory available for new work, in MiB
}

// Sampler reads the host's current resources.
type Sampler interface {
	Sample(ctx context.Context) (HostSample, error)
}

// SamplerFunc adapts a function to the Sampler interface.
type SamplerFunc func(ctx context.Context) (HostSample, error)

// Sample implements Sampler.
func (f SamplerFunc) Sample(ctx context.Context) (HostSample, error) { return f(ctx) }

// ProcSampler reads /proc/loadavg and /proc/meminfo.
type ProcSampler struct {
	LoadAvgPath string
	MemInfoPath string
}

// NewProcSampler returns a sampler reading the standard procfs locations.
func NewProcSampler() *ProcSampler {
	return &ProcSampler{
		LoadAvgPath: "/proc/loadavg",
		MemInfoPath: "/proc/meminfo",
	}
}

// Sample implements Sampler. Memory prefers MemAvailable and falls back to
// MemFree on kernels that do not report it.
func (p *ProcSampler) Sample(ctx context.Context) (HostSample, error) {
	if err := ctx.Err(); err != nil {
		return HostSample{}, err
	}

	load, err := linux.ReadLoadAvg(p.LoadAvgPath)
	if err != nil {
		return HostSample{}, &ObservabilityError{Source: p.LoadAvgPath, Err: err}
	}
	mem, err := linux.ReadMemInfo(p.MemInfoPath)
	if err != nil {
		return HostSample{}, &ObservabilityError{Source: p.MemInfoPath, Err: err}
	}

	availableKB := mem.MemAvailable
	if availableKB == 0 {
		availableKB = mem.MemFree
	}

	return HostSample{
		CPULoad:           load.Last1Min,
		MemoryAvailableMB: float64(availableKB) / 1024,
	}, nil
}
