package bench

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
)

// profiler writes the profiles named in a [Config] around a run.
type profiler struct {
	cpuFile *os.File
	cfg     *Config
}

func (c *Config) newProfiler() *profiler {
	return &profiler{cfg: c}
}

func (p *profiler) start() error {
	if p.cfg.MutexProfile != "" {
		runtime.SetMutexProfileFraction(1)
	}

	if p.cfg.CPUProfile == "" {
		return nil
	}

	f, err := os.Create(p.cfg.CPUProfile) //nolint:gosec // Profile path from CLI flag is expected.
	if err != nil {
		return fmt.Errorf("creating CPU profile: %w", err)
	}

	err = pprof.StartCPUProfile(f)
	if err != nil {
		_ = f.Close()

		return fmt.Errorf("starting CPU profile: %w", err)
	}

	p.cpuFile = f

	return nil
}

func (p *profiler) stop() error {
	if p.cpuFile != nil {
		pprof.StopCPUProfile()

		err := p.cpuFile.Close()
		if err != nil {
			return fmt.Errorf("closing CPU profile: %w", err)
		}

		p.cpuFile = nil
	}

	if p.cfg.MutexProfile != "" {
		defer runtime.SetMutexProfileFraction(0)
	}

	for _, snap := range []struct{ name, path string }{
		{"heap", p.cfg.HeapProfile},
		{"mutex", p.cfg.MutexProfile},
	} {
		if snap.path == "" {
			continue
		}

		err := writeProfile(snap.name, snap.path)
		if err != nil {
			return err
		}
	}

	return nil
}

func writeProfile(name, path string) error {
	f, err := os.Create(path) //nolint:gosec // Profile path from CLI flag is expected.
	if err != nil {
		return fmt.Errorf("create %s profile: %w", name, err)
	}

	err = pprof.Lookup(name).WriteTo(f, 0)
	if err != nil {
		_ = f.Close()

		return fmt.Errorf("write %s profile: %w", name, err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("write %s profile: %w", name, err)
	}

	return nil
}
