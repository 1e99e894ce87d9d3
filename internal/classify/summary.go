package classify

// Summary collects per-file reports and reduces them to an overall gate
// outcome. The reduction is independent of the order files were processed.
type Summary struct {
	Reports []FileReport
}

// Add appends a file report to the summary.
func (s *Summary) Add(r FileReport) {
	s.Reports = append(s.Reports, r)
}

// Failed reports whether any file blocks the gate.
func (s Summary) Failed() bool {
	for _, r := range s.Reports {
		if r.Blocking() {
			return true
		}
	}
	return false
}

// Count returns the number of files with the given classification.
func (s Summary) Count(c Classification) int {
	n := 0
	for _, r := range s.Reports {
		if r.Class == c {
			n++
		}
	}
	return n
}

// ByClass returns the reports with the given classification, in input order.
func (s Summary) ByClass(c Classification) []FileReport {
	var out []FileReport
	for _, r := range s.Reports {
		if r.Class == c {
			out = append(out, r)
		}
	}
	return out
}
