package graph

import "fmt"

// IntegrityError reports a graph state a pass cannot interpret. It aborts
// the scan.
type IntegrityError struct {
	Pass        string
	Declaration DeclID
	Reason      string
}

func (e *IntegrityError) Error() string {
	switch {
	case e.Pass != "" && e.Declaration != NoDecl:
		return fmt.Sprintf("graph integrity: %s: declaration %d: %s", e.Pass, e.Declaration, e.Reason)
	case e.Pass != "":
		return fmt.Sprintf("graph integrity: %s: %s", e.Pass, e.Reason)
	case e.Declaration != NoDecl:
		return fmt.Sprintf("graph integrity: declaration %d: %s", e.Declaration, e.Reason)
	}
	return "graph integrity: " + e.Reason
}
