// Package infra implements infrastructure concerns (process, filesystem, storage).
package infra

import (
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/eliteGoblin/wsreset/internal/domain"
)

const (
	// DefaultTerminateTimeout is how long a process gets to exit after SIGTERM.
	DefaultTerminateTimeout = 5 * time.Second

	terminatePollInterval = 100 * time.Millisecond
)

// processHandle is the subset of *process.Process the guard needs.
type processHandle interface {
	Terminate() error
	Kill() error
	IsRunning() (bool, error)
}

// ProcessGuardImpl implements domain.ProcessGuard using gopsutil.
type ProcessGuardImpl struct {
	names   map[string]struct{}
	timeout time.Duration
	logger  *zap.Logger

	// Overridable for tests.
	list func() ([]*process.Process, error)
	open func(pid int) (processHandle, error)
}

// NewProcessGuard creates a guard matching the given executable names exactly.
func NewProcessGuard(names []string, timeout time.Duration, logger *zap.Logger) *ProcessGuardImpl {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	if timeout <= 0 {
		timeout = DefaultTerminateTimeout
	}
	return &ProcessGuardImpl{
		names:   set,
		timeout: timeout,
		logger:  logger,
		list:    process.Processes,
		open: func(pid int) (processHandle, error) {
			return process.NewProcess(int32(pid))
		},
	}
}

// Available reports whether process enumeration works on this host.
// The composition layer calls it once and passes a nil guard when it fails.
func (g *ProcessGuardImpl) Available() bool {
	_, err := g.list()
	if err != nil {
		g.logger.Warn("process enumeration unavailable", zap.Error(err))
		return false
	}
	return true
}

// ListRunningInstances returns processes whose name matches exactly (case-sensitive).
func (g *ProcessGuardImpl) ListRunningInstances() []domain.ProcessInstance {
	procs, err := g.list()
	if err != nil {
		g.logger.Warn("failed to list processes", zap.Error(err))
		return nil
	}

	var found []domain.ProcessInstance
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue // Process may have exited
		}
		if _, ok := g.names[name]; ok {
			found = append(found, domain.ProcessInstance{PID: int(p.Pid), Name: name})
		}
	}
	return found
}

// Terminate sends a graceful termination request, waits up to the timeout,
// then kills the process.
func (g *ProcessGuardImpl) Terminate(inst domain.ProcessInstance) bool {
	p, err := g.open(inst.PID)
	if err != nil {
		// Already gone.
		g.logger.Debug("process not found", zap.Int("pid", inst.PID), zap.Error(err))
		return true
	}

	if err := p.Terminate(); err != nil {
		g.logger.Warn("terminate request failed",
			zap.Int("pid", inst.PID),
			zap.String("name", inst.Name),
			zap.Error(err))
	} else if g.waitExit(p) {
		g.logger.Info("process exited", zap.Int("pid", inst.PID), zap.String("name", inst.Name))
		return true
	}

	g.logger.Warn("forcing process to close", zap.Int("pid", inst.PID), zap.String("name", inst.Name))
	if err := p.Kill(); err != nil {
		if running, _ := p.IsRunning(); !running {
			return true
		}
		g.logger.Warn("failed to kill process", zap.Int("pid", inst.PID), zap.Error(err))
		return false
	}
	return true
}

func (g *ProcessGuardImpl) waitExit(p processHandle) bool {
	deadline := time.Now().Add(g.timeout)
	for {
		running, err := p.IsRunning()
		if err != nil || !running {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(terminatePollInterval)
	}
}

// Ensure ProcessGuardImpl implements domain.ProcessGuard.
var _ domain.ProcessGuard = (*ProcessGuardImpl)(nil)
