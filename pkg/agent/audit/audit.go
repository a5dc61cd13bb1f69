// Package audit accumulates an ordered log of every vault operation an agent
// run attempted, for presentation to the caller after the run completes.
package audit

import "fmt"

// Kind identifies one of the recorded primitive operations. Listing, search
// and metadata lookups are read-only exploration and are not recorded.
type Kind string

const (
	KindRead   Kind = "read"
	KindWrite  Kind = "write"
	KindCreate Kind = "create"
	KindRename Kind = "rename"
	KindDelete Kind = "delete"
)

// Record is one attempted operation. A record reflects "this operation was
// attempted", not "this operation succeeded": failed attempts appear in the
// log too, since the model may have reported them as changes.
type Record struct {
	Kind     Kind
	Path     string
	DestPath string // rename only
}

func (r Record) String() string {
	if r.DestPath != "" {
		return fmt.Sprintf("%s %s -> %s", r.Kind, r.Path, r.DestPath)
	}
	return fmt.Sprintf("%s %s", r.Kind, r.Path)
}

// Recorder collects Records in dispatch order. It is scoped to a single agent
// run and not safe for concurrent use; the loop appends records sequentially
// before dispatching the round's invocations.
type Recorder struct {
	records []Record
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Append adds one record to the log.
func (r *Recorder) Append(rec Record) {
	r.records = append(r.records, rec)
}

// Records returns the accumulated log in order.
func (r *Recorder) Records() []Record {
	return r.records
}

func (r *Recorder) Len() int {
	return len(r.records)
}
