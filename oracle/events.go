package oracle

import "github.com/crytic/hydrafuzz/events"

// OracleEvents defines the event emitters published by this package. Grounded on medusa's
// FuzzerWorkerEvents: one named EventEmitter field per event type, subscribed to by the driver
// loop (e.g. to print or persist a finding as soon as it is confirmed).
type OracleEvents struct {
	// BugDetected emits an event every time PushBugReport records a new confirmed finding.
	BugDetected events.EventEmitter[BugDetectedEvent]
}

// Events is the package-wide emitter set, mirroring the package-wide sink PushBugReport writes to.
var Events OracleEvents

// BugDetectedEvent describes a newly confirmed bug report being pushed to the sink.
type BugDetectedEvent struct {
	Report BugReport
}
