package procscan

import (
	"sort"
	"strings"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// Proc is one live process as seen in a snapshot.
type Proc struct {
	PID        int32
	Cmdline    string
	CPUPercent float64
	MemoryMB   uint64
}

// Snapshot is a point-in-time view of the OS process table. Command lines
// are captured at snapshot time; CPU and memory are fetched lazily for the
// processes a caller actually resolves.
type Snapshot struct {
	procs   []Proc
	handles map[int32]*gopsproc.Process
}

// Take snapshots the process table. Processes whose command line cannot be
// read (kernel threads, permission) are skipped.
func Take() (*Snapshot, error) {
	procs, err := gopsproc.Processes()
	if err != nil {
		return nil, err
	}
	s := &Snapshot{handles: make(map[int32]*gopsproc.Process, len(procs))}
	for _, p := range procs {
		cmdline, err := p.Cmdline()
		if err != nil || cmdline == "" {
			continue
		}
		s.procs = append(s.procs, Proc{PID: p.Pid, Cmdline: cmdline})
		s.handles[p.Pid] = p
	}
	sort.Slice(s.procs, func(i, j int) bool { return s.procs[i].PID < s.procs[j].PID })
	return s, nil
}

// NewStatic builds a snapshot from fixed entries. Used by callers that need
// a deterministic process table.
func NewStatic(procs ...Proc) *Snapshot {
	s := &Snapshot{procs: append([]Proc(nil), procs...)}
	sort.Slice(s.procs, func(i, j int) bool { return s.procs[i].PID < s.procs[j].PID })
	return s
}

// Lookup reports whether pid was present in the snapshot and returns it with
// live CPU/memory usage when available.
func (s *Snapshot) Lookup(pid int) (Proc, bool) {
	for _, p := range s.procs {
		if int(p.PID) == pid {
			return s.enrich(p), true
		}
	}
	return Proc{}, false
}

// FindByHints returns the first process (ascending pid) whose command line
// contains any of the non-empty hints. This is a best-effort heuristic: it
// can misattribute when names or port numbers collide across services.
func (s *Snapshot) FindByHints(hints ...string) (Proc, bool) {
	for _, p := range s.procs {
		for _, h := range hints {
			if h == "" {
				continue
			}
			if strings.Contains(p.Cmdline, h) {
				return s.enrich(p), true
			}
		}
	}
	return Proc{}, false
}

func (s *Snapshot) enrich(p Proc) Proc {
	h, ok := s.handles[p.PID]
	if !ok {
		return p
	}
	if cpu, err := h.CPUPercent(); err == nil {
		p.CPUPercent = cpu
	}
	if mem, err := h.MemoryInfo(); err == nil && mem != nil {
		p.MemoryMB = mem.RSS / 1024 / 1024
	}
	return p
}
