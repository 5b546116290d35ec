// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stats

import (
	"runtime"
	"time"

	"github.com/prometheus/procfs"
	"k8s.io/utils/clock"
)

// ResourceSample is one reading of process resource usage.
type ResourceSample struct {
	MemoryMB   float64
	CPUPercent float64
	At         time.Time
}

// Sampler reads the process's resource usage.
type Sampler interface {
	Sample() (ResourceSample, error)
}

// ProcSampler reads resident memory and CPU time from /proc/self. CPU usage
// is the CPU time consumed since the previous sample divided by the wall
// time between them, so the first sample reports 0.
type ProcSampler struct {
	clock   clock.PassiveClock
	proc    *procfs.Proc
	lastCPU float64
	lastAt  time.Time
}

// NewProcSampler opens /proc/self. Where procfs is unavailable the sampler
// falls back to Go runtime memory statistics and reports no CPU usage.
func NewProcSampler(clk clock.PassiveClock) *ProcSampler {
	s := &ProcSampler{clock: clk}
	if p, err := procfs.Self(); err == nil {
		s.proc = &p
	}
	return s
}

// Sample implements Sampler.
func (s *ProcSampler) Sample() (ResourceSample, error) {
	now := s.clock.Now()
	if s.proc == nil {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		return ResourceSample{MemoryMB: bytesToMB(ms.Sys), At: now}, nil
	}

	stat, err := s.proc.Stat()
	if err != nil {
		return ResourceSample{At: now}, err
	}

	sample := ResourceSample{MemoryMB: bytesToMB(uint64(stat.ResidentMemory())), At: now}
	cpu := stat.CPUTime()
	if !s.lastAt.IsZero() {
		if wall := now.Sub(s.lastAt).Seconds(); wall > 0 {
			sample.CPUPercent = (cpu - s.lastCPU) / wall * 100
		}
	}
	s.lastCPU, s.lastAt = cpu, now
	return sample, nil
}

func bytesToMB(b uint64) float64 {
	return float64(b) / (1024 * 1024)
}
