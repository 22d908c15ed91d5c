// Package healthcheck verifies that a configuration can run a conversion:
// every syntax backend loads and renames a probe snippet correctly, and the
// output directories are writable.
package healthcheck

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/l3aro/java-dataset-converter/internal/config"
	"github.com/l3aro/java-dataset-converter/pkg/obfuscator"
	"github.com/l3aro/java-dataset-converter/pkg/syntax"
)

// Status values.
const (
	StatusReady = "ready"
	StatusError = "error"
)

const probeSource = "public class Test { public void myFunction(int param1) { int x = 0; x = x + param1; } }"

// ComponentStatus is the health of one backend or directory.
type ComponentStatus struct {
	Name   string
	Detail string
	Status string
	Error  string
}

// HealthCheckResult contains the full health check output for display.
type HealthCheckResult struct {
	EffectivePath  string
	EffectiveScope string // "global", "project" or "" for defaults
	Backend        string // backend selected by the config
	Backends       []ComponentStatus
	Dirs           []ComponentStatus
}

// Healthy reports whether the selected backend and every directory are ready.
func (r *HealthCheckResult) Healthy() bool {
	for _, b := range r.Backends {
		if b.Name == r.Backend && b.Status != StatusReady {
			return false
		}
	}
	for _, d := range r.Dirs {
		if d.Status != StatusReady {
			return false
		}
	}
	return true
}

// Check probes every registered backend with cfg's naming options and
// checks that dirs can be written. effectivePath is the config file in use.
func Check(ctx context.Context, cfg *config.Config, effectivePath string, dirs ...string) (*HealthCheckResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	result := &HealthCheckResult{
		EffectivePath:  effectivePath,
		EffectiveScope: scopeFromPath(effectivePath),
		Backend:        strings.ToLower(strings.TrimSpace(cfg.Backend)),
	}

	for _, name := range syntax.BackendNames() {
		result.Backends = append(result.Backends, checkBackend(ctx, name, cfg.ObfuscatorOptions()))
	}
	for _, dir := range dirs {
		if dir != "" {
			result.Dirs = append(result.Dirs, checkDir(dir))
		}
	}
	return result, nil
}

// scopeFromPath determines "global" or "project" scope from a config file path.
// Returns empty string if path is empty.
func scopeFromPath(path string) string {
	if path == "" {
		return ""
	}

	home, err := os.UserHomeDir()
	if err == nil {
		globalDir := filepath.Join(home, config.Dir)
		if strings.HasPrefix(path, globalDir+string(filepath.Separator)) {
			return "global"
		}
	}

	return "project"
}

// probeExpected is the probe snippet after both passes with opts' prefixes.
func probeExpected(opts obfuscator.Options) string {
	f, v := opts.FuncPrefix, opts.VarPrefix
	return fmt.Sprintf("public class Test { public void %s1(int %s1) { int %s2 = 0; %s2 = %s2 + %s1; } }", f, v, v, v, v, v)
}

// checkBackend renames the probe snippet and compares the result.
func checkBackend(ctx context.Context, name string, opts obfuscator.Options) ComponentStatus {
	status := ComponentStatus{Name: name, Detail: "probe snippet"}

	backend, err := syntax.NewBackend(name)
	if err != nil {
		status.Status = StatusError
		status.Error = err.Error()
		return status
	}

	result := obfuscator.New(backend, opts).Obfuscate(ctx, []byte(probeSource))
	if result.Status != obfuscator.Renamed {
		status.Status = StatusError
		status.Error = fmt.Sprintf("probe left unchanged: %v", result.Reason)
		return status
	}
	if got, want := string(result.Source), probeExpected(opts); got != want {
		status.Status = StatusError
		status.Error = fmt.Sprintf("probe produced %q, want %q", got, want)
		return status
	}

	status.Status = StatusReady
	status.Detail = fmt.Sprintf("%d method, %d locals renamed", result.Methods, result.Locals)
	return status
}

// checkDir verifies that dir, or the nearest existing parent it would be
// created under, accepts new files.
func checkDir(dir string) ComponentStatus {
	status := ComponentStatus{Name: dir}

	target := dir
	for {
		info, err := os.Stat(target)
		if err == nil {
			if !info.IsDir() {
				status.Status = StatusError
				status.Error = fmt.Sprintf("%s is not a directory", target)
				return status
			}
			break
		}
		if !os.IsNotExist(err) {
			status.Status = StatusError
			status.Error = err.Error()
			return status
		}
		parent := filepath.Dir(target)
		if parent == target {
			status.Status = StatusError
			status.Error = "no existing parent directory"
			return status
		}
		target = parent
	}

	f, err := os.CreateTemp(target, ".jdc-doctor-*")
	if err != nil {
		status.Status = StatusError
		status.Error = fmt.Sprintf("not writable: %v", err)
		return status
	}
	f.Close()
	os.Remove(f.Name())

	status.Status = StatusReady
	status.Detail = "writable"
	if target != dir {
		status.Detail = "will be created"
	}
	return status
}
