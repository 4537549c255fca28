package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Requirement names an external program an action launches.
type Requirement struct {
	Name    string
	Command string
}

// Status reports whether a requirement can be executed.
type Status struct {
	Name      string
	Command   string
	Available bool
	Detail    string
}

// CheckBinaries resolves each requirement. Commands may be bare names looked up
// on PATH or absolute paths.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		status := Status{Name: req.Name, Command: strings.TrimSpace(req.Command)}
		switch resolved, err := exec.LookPath(status.Command); {
		case status.Command == "":
			status.Detail = "command not configured"
		case err != nil:
			status.Detail = describeLookupError(status.Command, err)
		default:
			status.Command = resolved
			status.Available = true
		}
		results = append(results, status)
	}
	return results
}

// Available returns the statuses that resolved.
func Available(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if s.Available {
			out = append(out, s)
		}
	}
	return out
}

func describeLookupError(command string, err error) string {
	if info, statErr := os.Stat(command); statErr == nil {
		if info.IsDir() {
			return fmt.Sprintf("%q is a directory", command)
		}
		if info.Mode()&0o111 == 0 {
			return fmt.Sprintf("%q is not executable", command)
		}
	}
	return fmt.Sprintf("binary %q not found: %v", command, err)
}
