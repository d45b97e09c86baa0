// Package probe inspects the host once per process and reports which compute
// backend a generation run should target and how much memory it can count on.
package probe

import (
	"context"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
)

// Backend identifies the compute substrate selected for the generative call.
type Backend string

const (
	BackendGPU     Backend = "gpu"
	BackendUnified Backend = "unified"
	BackendCPU     Backend = "cpu"
)

// Precision is the numeric precision the generator should run at.
type Precision string

const (
	PrecisionHalf Precision = "half"
	PrecisionFull Precision = "full"
)

// Profile is a snapshot of host compute and memory capacity. It is derived
// once per run and immutable afterward. AvailableMemoryBytes of zero means the
// probe could not determine a figure; callers must treat that as low memory.
type Profile struct {
	Backend              Backend
	AvailableMemoryBytes uint64
	Precision            Precision
}

// LowMemory reports whether the profile should be treated as memory
// constrained relative to the given requirement. An unknown byte count is
// conservatively low.
func (p Profile) LowMemory(requiredBytes uint64) bool {
	return p.AvailableMemoryBytes == 0 || p.AvailableMemoryBytes < requiredBytes
}

// Prober detects host capability. The detector funcs exist so tests can
// simulate hosts this machine is not.
type Prober struct {
	GPUMemory     func() (uint64, bool)
	UnifiedMemory func() (uint64, bool)
	SystemMemory  func() uint64
}

// New returns a Prober wired to the real host detectors.
func New() *Prober {
	return &Prober{
		GPUMemory:     nvidiaMemory,
		UnifiedMemory: appleUnifiedMemory,
		SystemMemory:  systemMemory,
	}
}

// Probe inspects the host and returns its capability profile. Absence of any
// accelerator is a normal state, not an error: the profile falls back to the
// CPU backend. Preference order is discrete GPU, then unified-memory
// accelerator, then CPU.
func (p *Prober) Probe() Profile {
	if memBytes, ok := p.GPUMemory(); ok {
		return Profile{Backend: BackendGPU, AvailableMemoryBytes: memBytes, Precision: PrecisionHalf}
	}
	if memBytes, ok := p.UnifiedMemory(); ok {
		return Profile{Backend: BackendUnified, AvailableMemoryBytes: memBytes, Precision: PrecisionHalf}
	}
	// Half precision on CPU is not numerically stable across hosts, so CPU
	// runs stay at full precision.
	return Profile{Backend: BackendCPU, AvailableMemoryBytes: p.SystemMemory(), Precision: PrecisionFull}
}

var (
	detectOnce sync.Once
	detected   Profile
)

// Detect probes the host once per process and caches the result. Hardware
// capability does not change mid-run, so repeated callers share the snapshot.
func Detect() Profile {
	detectOnce.Do(func() {
		detected = New().Probe()
	})
	return detected
}

// nvidiaMemory asks nvidia-smi for the total memory of the first device.
// A missing binary or any exec failure simply means no discrete GPU.
func nvidiaMemory() (uint64, bool) {
	path, err := exec.LookPath("nvidia-smi")
	if err != nil {
		return 0, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, path,
		"--query-gpu=memory.total", "--format=csv,noheader,nounits").Output()
	if err != nil {
		return 0, false
	}

	line := strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0])
	mib, err := strconv.ParseUint(line, 10, 64)
	if err != nil {
		// GPU present but memory unknown; report it as such.
		return 0, true
	}
	return mib * 1024 * 1024, true
}

// appleUnifiedMemory reports capacity on Apple silicon, where the accelerator
// shares system RAM. Roughly half of RAM is safely addressable by the
// accelerator before the OS starts paging, so that is what gets reported.
func appleUnifiedMemory() (uint64, bool) {
	if runtime.GOOS != "darwin" || runtime.GOARCH != "arm64" {
		return 0, false
	}
	return systemMemory() / 2, true
}

func systemMemory() uint64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0
	}
	return vm.Total
}
