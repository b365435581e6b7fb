package system

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Stats снимок загрузки системы и текущего процесса.
type Stats struct {
	CPUPercent    float64
	MemUsedPct    float64
	MemTotal      uint64
	ProcessRSS    uint64
	Goroutines    int
	NumCPU        int
	CollectedTime time.Time
}

// CollectStats собирает статистику через gopsutil. Ошибки отдельных
// источников не фатальны: соответствующие поля остаются нулевыми.
func CollectStats() (Stats, error) {
	s := Stats{
		Goroutines:    runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		CollectedTime: time.Now(),
	}

	var firstErr error
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		s.CPUPercent = pct[0]
	} else if err != nil {
		firstErr = err
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		s.MemUsedPct = vm.UsedPercent
		s.MemTotal = vm.Total
	} else if firstErr == nil {
		firstErr = err
	}

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfo(); err == nil {
			s.ProcessRSS = mi.RSS
		}
	}

	return s, firstErr
}

func (s Stats) String() string {
	return fmt.Sprintf("CPU %.1f%% (%d ядер) | RAM %.1f%% из %d МБ | процесс %d МБ | горутин %d",
		s.CPUPercent, s.NumCPU, s.MemUsedPct, s.MemTotal>>20, s.ProcessRSS>>20, s.Goroutines)
}
