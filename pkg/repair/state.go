package repair

import (
	"encoding/json"
	"path/filepath"
)

// State is the repair lifecycle position of one file.
//
//	UNSCANNED -> SCANNED -> NO_VIOLATIONS
//	                     -> REWRITING -> WRITTEN
//	                                  -> FAILED
type State int

// Repair states.
const (
	Unscanned State = iota
	Scanned
	NoViolations
	Rewriting
	Written
	Failed
)

func (s State) String() string {
	switch s {
	case Unscanned:
		return "UNSCANNED"
	case Scanned:
		return "SCANNED"
	case NoViolations:
		return "NO_VIOLATIONS"
	case Rewriting:
		return "REWRITING"
	case Written:
		return "WRITTEN"
	case Failed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON renders the state by name.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == NoViolations || s == Written || s == Failed
}

// Change describes what one strategy did to a file.
type Change struct {
	Strategy string   `json:"strategy"`
	Details  []string `json:"details"`
}

// Outcome is the result of repairing one file.
type Outcome struct {
	File    string   `json:"file"`
	State   State    `json:"state"`
	Changes []Change `json:"changes,omitempty"`
	Notes   []string `json:"notes,omitempty"`
	DryRun  bool     `json:"dry_run,omitempty"`
	Backup  string   `json:"backup,omitempty"`
	Error   string   `json:"error,omitempty"`

	Content []byte `json:"-"` // rewritten bytes; nil when nothing changed
}

// Changed reports whether any strategy produced a change.
func (o *Outcome) Changed() bool { return len(o.Changes) > 0 }

func (o *Outcome) fail(err error) (Outcome, error) {
	o.State = Failed
	o.Error = err.Error()
	return *o, err
}

func backupPath(runDir, rel string) string {
	return filepath.Join(runDir, filepath.FromSlash(rel))
}
