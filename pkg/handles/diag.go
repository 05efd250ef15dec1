package handles

import (
	"sync"

	"github.com/meshql/mongodbc/pkg/errors"
)

// DiagRecord is one entry of a handle's diagnostics ledger.
type DiagRecord struct {
	State       errors.SQLState
	Message     string
	NativeError int32
}

// Diagnostics is the per-handle status ledger. Every boundary entry point
// clears the owning handle's ledger before doing work, then appends one
// record per error or warning raised; applications read records back
// 1-based.
type Diagnostics struct {
	mu      sync.Mutex
	records []DiagRecord
}

// Clear drops all records.
func (d *Diagnostics) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = d.records[:0]
}

// Add appends a record derived from a driver error.
func (d *Diagnostics) Add(err *errors.Error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = append(d.records, DiagRecord{
		State:       err.State,
		Message:     err.DiagMessage(),
		NativeError: err.Native,
	})
}

// AddAll appends one record per error.
func (d *Diagnostics) AddAll(errs []*errors.Error) {
	for _, e := range errs {
		d.Add(e)
	}
}

// Record returns the 1-based record, or false when recNumber is out of
// range.
func (d *Diagnostics) Record(recNumber int16) (DiagRecord, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if recNumber < 1 || int(recNumber) > len(d.records) {
		return DiagRecord{}, false
	}
	return d.records[recNumber-1], true
}

// Count reports the number of records.
func (d *Diagnostics) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.records)
}
