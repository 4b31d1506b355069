package console

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/eliteGoblin/wsreset/internal/domain"
	"github.com/eliteGoblin/wsreset/internal/usecase"
)

// WritePlan prints a simulated reset.
func WritePlan(w io.Writer, plan *usecase.Plan) {
	fmt.Fprintf(w, "Configuration root: %s\n\n", plan.Root)

	present := plan.PresentTargets()
	fmt.Fprintf(w, "Targets to delete (%d of %d):\n", len(present), len(plan.Targets))
	for _, t := range present {
		kind := "file"
		if t.IsDir {
			kind = "dir"
		}
		fmt.Fprintf(w, "  %-4s %10s  %s\n", kind, HumanSize(t.Size), relTo(plan.Root, t.Path))
	}
	fmt.Fprintf(w, "Total size: %s\n\n", HumanSize(plan.TotalSize()))

	switch {
	case !plan.StorageExists:
		fmt.Fprintln(w, "storage.json: not found, a new one will be created")
	case !plan.StorageValid:
		fmt.Fprintln(w, "storage.json: invalid JSON, it will be replaced")
	default:
		fmt.Fprintf(w, "storage.json: %d key(s) removed, %d kept\n", len(plan.RemovedKeys), len(plan.KeptKeys))
		for _, k := range plan.RemovedKeys {
			fmt.Fprintf(w, "  - %s\n", k)
		}
	}
	if plan.BackupName != "" {
		fmt.Fprintf(w, "Backup would be written to %s\n", plan.BackupName)
	}

	fmt.Fprintln(w)
	switch {
	case plan.GuardMissing:
		fmt.Fprintln(w, "Processes: cannot check")
	case len(plan.Running) == 0:
		fmt.Fprintln(w, "Processes: none running")
	default:
		WriteProcesses(w, plan.Running)
	}
}

// WriteProcesses lists running instances.
func WriteProcesses(w io.Writer, procs []domain.ProcessInstance) {
	fmt.Fprintf(w, "Processes: %d running\n", len(procs))
	for _, p := range procs {
		fmt.Fprintf(w, "  %-8d %s\n", p.PID, p.Name)
	}
}

// WriteVerifyReport prints a post-reset verification.
func WriteVerifyReport(w io.Writer, r *usecase.VerifyReport) {
	fmt.Fprintln(w, "Identifiers:")
	for _, c := range r.Identifiers {
		status := "ok"
		if !c.Valid {
			status = "INVALID: " + c.Reason
		}
		fmt.Fprintf(w, "  %-24s %s\n", c.Key, status)
	}

	if r.Comparison != nil {
		fmt.Fprintf(w, "\nCompared with snapshot taken %s:\n", r.Before.TakenAt.Local().Format("2006-01-02 15:04:05"))
		for _, k := range r.Comparison.Keys {
			status := "changed"
			if !k.Changed {
				status = "UNCHANGED"
			}
			fmt.Fprintf(w, "  %-24s %s\n", k.Key, status)
		}
		for _, t := range r.Comparison.Targets {
			switch {
			case t.WasRemoved:
				fmt.Fprintf(w, "  removed        %s\n", t.Path)
			case t.StillPresent:
				fmt.Fprintf(w, "  STILL PRESENT  %s\n", t.Path)
			}
		}
	} else {
		fmt.Fprintln(w, "\nNo \"before\" snapshot stored; run 'wsreset snapshot' before a reset to compare.")
		var remaining []string
		for t, present := range r.After.TargetsPresent {
			if present {
				remaining = append(remaining, t)
			}
		}
		sort.Strings(remaining)
		for _, t := range remaining {
			fmt.Fprintf(w, "  STILL PRESENT  %s\n", t)
		}
	}

	fmt.Fprintf(w, "\nBackups (%d):\n", len(r.Backups))
	for _, b := range r.Backups {
		fmt.Fprintf(w, "  %s\n", b)
	}
}

// WriteFindings prints masked credential findings.
func WriteFindings(w io.Writer, findings []domain.Finding) {
	if len(findings) == 0 {
		fmt.Fprintln(w, "No credential-like entries found.")
		return
	}
	for _, f := range findings {
		fmt.Fprintf(w, "%s\n  value:  %s (%d chars)\n  reason: %s\n", f.Key, f.Masked, f.Length, f.Reason)
	}
}

// HumanSize formats a byte count with binary units.
func HumanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
