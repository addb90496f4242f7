// Package scanner runs the external audit tools (Google Lighthouse and
// Mozilla Observatory) and turns their output into structured results.
package scanner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Executor runs an external command and returns its combined output.
type Executor interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ShellExecutor runs tools installed with npm. Tools are looked up on PATH,
// then in nvm's node versions, and finally run through npx.
type ShellExecutor struct {
	// Dir is the working directory of the command; empty means the current one.
	Dir string
}

// Run implements Executor.
func (e ShellExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	bin, args, err := resolveTool(name, args)
	if err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = e.Dir
	cmd.Env = os.Environ()

	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s failed: %w", name, err)
	}
	return out, nil
}

// resolveTool finds name, falling back to "npx --yes name args...".
func resolveTool(name string, args []string) (string, []string, error) {
	if p, err := exec.LookPath(name); err == nil {
		return p, args, nil
	}
	if p := nvmBinary(name); p != "" {
		return p, args, nil
	}

	npx, err := exec.LookPath("npx")
	if err != nil {
		npx = nvmBinary("npx")
	}
	if npx == "" {
		return "", nil, fmt.Errorf("%s not found in PATH and npx not found in PATH or nvm. Make sure Node.js is installed and run `npm install -g %s`", name, name)
	}
	return npx, append([]string{"--yes", name}, args...), nil
}

// nvmBinary looks for bin under ~/.nvm, newest node version first.
func nvmBinary(bin string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	candidates, _ := filepath.Glob(filepath.Join(homeDir, ".nvm/versions/node/*/bin", bin))
	candidates = append(candidates,
		filepath.Join(homeDir, ".nvm/versions/node/current/bin", bin),
		filepath.Join(homeDir, ".nvm/current/bin", bin),
	)
	sort.Sort(sort.Reverse(sort.StringSlice(candidates[:len(candidates)-2])))

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// trimToolNoise drops log lines a tool prints around its payload, e.g.
// "observatory [WARN] ...".
func trimToolNoise(out []byte, prefix string) string {
	lines := strings.Split(string(out), "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), prefix) {
			continue
		}
		kept = append(kept, l)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
