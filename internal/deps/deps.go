// Package deps reports availability of the external binaries document
// extraction shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names an external binary and the source formats that need it.
type Requirement struct {
	Name     string
	Command  string
	Formats  []string
	Optional bool
}

// Status reports whether a requirement resolves on PATH.
type Status struct {
	Name      string
	Command   string
	Formats   []string
	Optional  bool
	Available bool
	Detail    string
}

// Default lists the binaries the extraction registry can shell out to.
// Everything here is optional: a missing binary only disables the formats
// that need it.
func Default() []Requirement {
	return []Requirement{
		{
			Name:     "pdftotext",
			Command:  "pdftotext",
			Formats:  []string{".pdf"},
			Optional: true,
		},
	}
}

// Check resolves each requirement and reports which formats stay usable.
func Check(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:     req.Name,
			Command:  cmd,
			Formats:  append([]string(nil), req.Formats...),
			Optional: req.Optional,
		}
		switch {
		case cmd == "":
			status.Detail = "command not configured"
		default:
			if _, err := exec.LookPath(cmd); err != nil {
				status.Detail = fmt.Sprintf("binary %q not found", cmd)
				if len(status.Formats) > 0 {
					status.Detail += fmt.Sprintf("; %s extraction disabled", strings.Join(status.Formats, ", "))
				}
			} else {
				status.Available = true
			}
		}
		results = append(results, status)
	}
	return results
}
