package oracle

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/crytic/hydrafuzz/contracts"
	"github.com/crytic/hydrafuzz/evmtypes"
)

// BugReport is one confirmed finding: a human-readable name and message, the globally unique bug
// index that identifies it, the contract address it was attributed to (if any), and the resolved
// source location when available. Grounded on ityfuzz's EVMBugResult.
type BugReport struct {
	// ReportID uniquely identifies this report instance, distinct from BugIdx: two reports of the
	// same underlying bug (same BugIdx, pushed on separate runs/inputs) get different ReportIDs.
	ReportID    uuid.UUID
	Name        string
	Message     string
	BugIdx      uint64
	Address     evmtypes.Address
	AddressName string
	SourceLoc   *contracts.SourceMapLocation
}

func (r BugReport) String() string {
	if r.SourceLoc != nil {
		return fmt.Sprintf("[%s] %s at %s (%s:%d)", r.Name, r.Message, r.AddressName, r.SourceLoc.File, r.SourceLoc.Line)
	}
	return fmt.Sprintf("[%s] %s at %s", r.Name, r.Message, r.AddressName)
}

// sink is the process-wide append-only bug output, mirroring ityfuzz's EVMBugResult::push_to_output
// global sink. A mutex guards concurrent pushes from parallel fuzzing workers.
var sink = struct {
	mu      sync.Mutex
	reports []BugReport
}{}

// PushBugReport appends a confirmed finding to the global sink, assigning it a fresh ReportID, and
// notifies any subscribers of Events.BugDetected.
func PushBugReport(r BugReport) {
	r.ReportID = uuid.New()

	sink.mu.Lock()
	sink.reports = append(sink.reports, r)
	sink.mu.Unlock()

	_ = Events.BugDetected.Publish(BugDetectedEvent{Report: r})
}

// Reports returns a snapshot copy of every bug report pushed so far.
func Reports() []BugReport {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	out := make([]BugReport, len(sink.reports))
	copy(out, sink.reports)
	return out
}

// ResetReports clears the sink; used between independent fuzzing runs in tests.
func ResetReports() {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.reports = nil
}
