package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gpauusa/sms17-project/internal/logging"
	"github.com/gpauusa/sms17-project/kb"
	"github.com/gpauusa/sms17-project/model"
	"github.com/gpauusa/sms17-project/randvar"
	"github.com/gpauusa/sms17-project/timectrl"
)

const tracerName = "github.com/gpauusa/sms17-project/core"

// EngineState is the lifecycle stage of a SimulationEngine.
type EngineState int

const (
	StateConfigured EngineState = iota
	StateRunning
	StateStopped
)

func (s EngineState) String() string {
	switch s {
	case StateConfigured:
		return "configured"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// TickListener is called after every tick with the contacts it produced.
type TickListener func(now time.Duration, contacts []model.Contact)

// EngineOption customises a SimulationEngine.
type EngineOption func(*SimulationEngine)

// WithLogger sets the engine logger. Without it the engine uses the logger
// stored on the setup context, if any.
func WithLogger(l logging.Logger) EngineOption {
	return func(se *SimulationEngine) {
		if l != nil {
			se.log = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m MetricsRecorder) EngineOption {
	return func(se *SimulationEngine) {
		if m != nil {
			se.metrics = m
		}
	}
}

// WithSchedulerMetrics sets the sink for event scheduler activity.
func WithSchedulerMetrics(m SchedulerMetrics) EngineOption {
	return func(se *SimulationEngine) {
		if m != nil {
			se.sched = m
		}
	}
}

// WithProtocol plugs a dissemination protocol into the run.
func WithProtocol(p Protocol) EngineOption {
	return func(se *SimulationEngine) { se.protocol = p }
}

// WithKnowledgeBase makes the engine register its nodes in store instead of
// a private knowledge base.
func WithKnowledgeBase(store *kb.KnowledgeBase) EngineOption {
	return func(se *SimulationEngine) {
		if store != nil {
			se.KB = store
		}
	}
}

// SimulationEngine owns one run: it builds the catalog and nodes when
// configured, then drives mobility and contact evaluation tick by tick on a
// single goroutine until the configured duration.
type SimulationEngine struct {
	Scenario            *Scenario
	KB                  *kb.KnowledgeBase
	Clock               *timectrl.TimeController
	Scheduler           timectrl.EventScheduler
	ConnectivityService *ConnectivityService
	Motion              MotionModel

	rng      *randvar.Service
	catalog  *Catalog
	assigner *Assigner
	nodes    []*model.Node

	log      logging.Logger
	metrics  MetricsRecorder
	sched    SchedulerMetrics
	protocol Protocol
	tracer   trace.Tracer
	runCtx   context.Context

	mu            sync.Mutex
	state         EngineState
	contacts      []model.Contact
	lastStep      time.Duration
	ticks         int
	tickListeners []TickListener
}

// NewSimulationEngine validates sc and performs the whole setup phase:
// catalog, nodes, initial files, grid placement and motion state. Any
// configuration error is returned here, before a single step runs.
func NewSimulationEngine(ctx context.Context, sc *Scenario, opts ...EngineOption) (*SimulationEngine, error) {
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("configure simulation: %w", err)
	}

	se := &SimulationEngine{
		Scenario: sc,
		KB:       kb.NewKnowledgeBase(),
		rng:      randvar.New(sc.Seed),
		log:      logging.Noop(),
		metrics:  noopMetrics{},
		sched:    noopSchedulerMetrics{},
		tracer:   otel.Tracer(tracerName),
	}
	if l := logging.LoggerFromContext(ctx); l != nil {
		se.log = l
	}
	for _, opt := range opts {
		opt(se)
	}

	ctx, span := se.tracer.Start(ctx, "simulation.setup", trace.WithAttributes(
		attribute.Int64("sim.seed", int64(sc.Seed)),
		attribute.Int("sim.node_count", sc.NodeCount),
		attribute.Int("sim.catalog_size", sc.Catalog.TotalFileCount),
	))
	defer span.End()

	if err := se.setup(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return se, nil
}

func (se *SimulationEngine) setup(ctx context.Context) error {
	sc := se.Scenario

	se.catalog = NewCatalog(sc.Catalog, se.rng.Stream("catalog.size"))
	files := se.catalog.Build()
	se.metrics.SetCatalog(len(files), se.catalog.TotalBytes())
	se.log.Info(ctx, "catalog built",
		logging.Int("files", len(files)),
		logging.Int64("bytes", se.catalog.TotalBytes()),
	)

	se.assigner = NewAssigner(sc.Catalog, se.rng)
	se.nodes = make([]*model.Node, 0, sc.NodeCount)
	for i := 0; i < sc.NodeCount; i++ {
		n := model.NewNode(i)
		inv, err := se.assigner.Assign(files)
		if err != nil {
			return fmt.Errorf("assign files to node %d: %w", i, err)
		}
		n.Files = inv
		se.nodes = append(se.nodes, n)
		se.metrics.ObserveNodeFiles(len(inv))

		se.log.Debug(ctx, "node initial files", logging.Int("node_id", i), logging.Int("files", len(inv)))
		for _, f := range n.OwnedFiles() {
			se.log.Debug(ctx, "node file",
				logging.Int("node_id", i),
				logging.Int("file_id", f.ID),
				logging.Int64("size", f.Size),
			)
		}
	}

	sc.Layout.Place(se.nodes)
	se.Motion = NewMotionModel(sc.Mobility, se.rng.Stream("mobility"))
	for _, n := range se.nodes {
		se.Motion.Init(n)
		if err := se.KB.AddNode(n); err != nil {
			return fmt.Errorf("register node %d: %w", n.ID, err)
		}
	}
	se.metrics.SetNodes(len(se.nodes))

	se.ConnectivityService = NewConnectivityService(sc.Radio, se.rng.Stream("fading"))
	se.Clock = timectrl.NewTimeController(sc.Tick)
	se.Scheduler = timectrl.NewEventScheduler(se.Clock)
	se.state = StateConfigured

	se.log.Info(ctx, "simulation configured",
		logging.Int("nodes", len(se.nodes)),
		logging.Duration("duration", sc.Duration),
		logging.Duration("tick", sc.Tick),
		logging.Uint64("seed", sc.Seed),
	)
	return nil
}

// RegisterTickListener adds fn to the callbacks run after every tick.
func (se *SimulationEngine) RegisterTickListener(fn TickListener) {
	se.mu.Lock()
	defer se.mu.Unlock()
	se.tickListeners = append(se.tickListeners, fn)
}

// State returns the current lifecycle stage.
func (se *SimulationEngine) State() EngineState {
	se.mu.Lock()
	defer se.mu.Unlock()
	return se.state
}

// Ticks returns how many ticks have been evaluated so far.
func (se *SimulationEngine) Ticks() int {
	se.mu.Lock()
	defer se.mu.Unlock()
	return se.ticks
}

// Run executes the simulation to completion. Events are dispatched in
// non-decreasing time order, FIFO among equal times; nothing scheduled at
// or after the configured duration runs. A cancelled ctx stops the run
// early and its error is returned. Run may be called only once.
func (se *SimulationEngine) Run(ctx context.Context) error {
	se.mu.Lock()
	if se.state != StateConfigured {
		state := se.state
		se.mu.Unlock()
		return fmt.Errorf("%w: run requested while %s", ErrInvalidState, state)
	}
	se.state = StateRunning
	se.mu.Unlock()

	duration := se.Scenario.Duration
	ctx, span := se.tracer.Start(ctx, "simulation.run", trace.WithAttributes(
		attribute.String("sim.run_id", logging.RunIDFromContext(ctx)),
		attribute.Int64("sim.duration_ms", duration.Milliseconds()),
	))
	defer span.End()
	se.runCtx = ctx

	se.log.Info(ctx, "simulation running", logging.Duration("duration", duration))

	se.schedule(0, se.tick)
	if se.protocol != nil {
		se.protocol.Start(se)
	}

	var runErr error
	for {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		at, ok := se.Scheduler.NextTime()
		if !ok || at >= duration {
			break
		}
		se.Clock.SetTime(at)
		started := time.Now()
		ran := se.Scheduler.RunDue()
		se.sched.ObserveDispatch(ran, se.Scheduler.Pending(), time.Since(started))
	}

	if runErr == nil {
		se.Clock.SetTime(duration)
	} else {
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
	}

	se.mu.Lock()
	se.state = StateStopped
	ticks := se.ticks
	se.mu.Unlock()

	span.SetAttributes(attribute.Int("sim.ticks", ticks))
	se.log.Info(ctx, "simulation stopped",
		logging.Duration("sim_time", se.Clock.Now()),
		logging.Int("ticks", ticks),
		logging.Int("pending_events", se.Scheduler.Pending()),
	)
	return runErr
}

// tick moves every node by the time elapsed since the previous tick, then
// evaluates contacts and hands them to the kb, the protocol and listeners.
func (se *SimulationEngine) tick() {
	now := se.Clock.Now()
	started := time.Now()

	if dt := now - se.lastStep; dt > 0 {
		for _, n := range se.nodes {
			se.Motion.Step(n, dt)
		}
	}
	se.lastStep = now
	for _, n := range se.nodes {
		if err := se.KB.UpdateNodePosition(now, n.ID, n.Position); err != nil {
			se.log.Warn(se.runCtx, "kb position update failed",
				logging.Int("node_id", n.ID),
				logging.Duration("sim_time", now),
				logging.Err(err),
			)
		}
	}

	contacts, stats := se.ConnectivityService.UpdateContacts(se.nodes)
	se.KB.SetContacts(now, contacts)

	se.mu.Lock()
	se.contacts = contacts
	se.ticks++
	listeners := append([]TickListener{}, se.tickListeners...)
	se.mu.Unlock()

	se.metrics.ObserveTick(now, time.Since(started), stats.Up, stats.OutOfRange, stats.Faded)

	if se.protocol != nil {
		se.protocol.OnContacts(now, copyContacts(contacts))
	}
	for _, fn := range listeners {
		fn(now, copyContacts(contacts))
	}

	if next := now + se.Scenario.Tick; next < se.Scenario.Duration {
		se.schedule(next, se.tick)
	}
}

// Now returns the current simulation time.
func (se *SimulationEngine) Now() time.Duration { return se.Clock.Now() }

// Catalog returns the simulation-wide file catalog.
func (se *SimulationEngine) Catalog() []model.File {
	files, _ := se.catalog.Get()
	return files
}

// NodeCount returns the number of simulated nodes.
func (se *SimulationEngine) NodeCount() int { return len(se.nodes) }

// Node returns the inventory view of node id.
func (se *SimulationEngine) Node(id int) (NodeInventory, error) {
	if id < 0 || id >= len(se.nodes) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	return se.nodes[id], nil
}

// NodePosition returns where node id is at the current simulation time.
func (se *SimulationEngine) NodePosition(id int) (model.Vec2, error) {
	pos, err := se.KB.NodePosition(id)
	if err != nil {
		return model.Vec2{}, fmt.Errorf("%w: %v", ErrUnknownNode, err)
	}
	return pos, nil
}

// Positions returns every node's current position, indexed by node id.
func (se *SimulationEngine) Positions() []model.Vec2 {
	out := make([]model.Vec2, len(se.nodes))
	for i, n := range se.nodes {
		out[i] = n.Position
	}
	return out
}

// CurrentContacts returns the pairs in contact at the latest tick.
func (se *SimulationEngine) CurrentContacts() []model.Contact {
	se.mu.Lock()
	defer se.mu.Unlock()
	return copyContacts(se.contacts)
}

// Schedule runs fn at simulation time at. Times in the past are moved to
// the current instant so dispatch order never goes backwards.
func (se *SimulationEngine) Schedule(at time.Duration, fn func()) string {
	if now := se.Clock.Now(); at < now {
		at = now
	}
	return se.schedule(at, fn)
}

func (se *SimulationEngine) schedule(at time.Duration, fn func()) string {
	se.sched.ObserveScheduled()
	return se.Scheduler.Schedule(at, fn)
}

// ScheduleAfter runs fn d after the current simulation time.
func (se *SimulationEngine) ScheduleAfter(d time.Duration, fn func()) string {
	return se.Schedule(se.Clock.Now()+d, fn)
}

// Cancel drops a pending event.
func (se *SimulationEngine) Cancel(id string) {
	if se.Scheduler.Cancel(id) {
		se.sched.ObserveCancelled()
	}
}

func copyContacts(cs []model.Contact) []model.Contact {
	if cs == nil {
		return nil
	}
	out := make([]model.Contact, len(cs))
	copy(out, cs)
	return out
}

var (
	_ ProtocolEnv   = (*SimulationEngine)(nil)
	_ NodeInventory = (*model.Node)(nil)
)
