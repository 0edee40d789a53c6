package core

import (
	"time"

	"github.com/gpauusa/sms17-project/model"
)

// NodeInventory is the read-only view of a node's files handed to a
// dissemination protocol. *model.Node satisfies it.
type NodeInventory interface {
	NodeID() int
	OwnedFiles() []model.File
	HasFile(id int) bool
	FileCount() int
}

// ProtocolEnv is everything a dissemination protocol may consume from the
// simulation core. *SimulationEngine implements it.
type ProtocolEnv interface {
	Now() time.Duration
	Catalog() []model.File
	NodeCount() int
	Node(id int) (NodeInventory, error)
	NodePosition(id int) (model.Vec2, error)
	CurrentContacts() []model.Contact

	// Schedule runs fn at simulation time at; times in the past run at Now.
	Schedule(at time.Duration, fn func()) string
	ScheduleAfter(d time.Duration, fn func()) string
	Cancel(id string)
}

// Protocol is a pluggable dissemination layer driven by the engine.
type Protocol interface {
	// Start is called once when the run begins, after the first tick has
	// been queued. The protocol may schedule its own events through env.
	Start(env ProtocolEnv)
	// OnContacts is called after every tick with the pairs in contact.
	OnContacts(now time.Duration, contacts []model.Contact)
}

// SchedulerMetrics receives event scheduler activity.
type SchedulerMetrics interface {
	ObserveScheduled()
	ObserveCancelled()
	ObserveDispatch(ran, pending int, elapsed time.Duration)
}

// MetricsRecorder receives setup and per-tick measurements.
type MetricsRecorder interface {
	SetCatalog(files int, bytes int64)
	SetNodes(n int)
	ObserveNodeFiles(count int)
	ObserveTick(simTime, elapsed time.Duration, up, outOfRange, faded int)
}

type noopMetrics struct{}

func (noopMetrics) SetCatalog(int, int64)                                   {}
func (noopMetrics) SetNodes(int)                                            {}
func (noopMetrics) ObserveNodeFiles(int)                                    {}
func (noopMetrics) ObserveTick(time.Duration, time.Duration, int, int, int) {}

type noopSchedulerMetrics struct{}

func (noopSchedulerMetrics) ObserveScheduled()                       {}
func (noopSchedulerMetrics) ObserveCancelled()                       {}
func (noopSchedulerMetrics) ObserveDispatch(int, int, time.Duration) {}
