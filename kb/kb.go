package kb

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gpauusa/sms17-project/model"
)

// EventType indicates what kind of change happened in the KB.
type EventType int

const (
	// EventNodeMoved follows every position update.
	EventNodeMoved EventType = iota
	// EventContactUp is emitted when a pair enters contact.
	EventContactUp
	// EventContactDown is emitted when a pair leaves contact.
	EventContactDown
)

func (t EventType) String() string {
	switch t {
	case EventNodeMoved:
		return "node_moved"
	case EventContactUp:
		return "contact_up"
	case EventContactDown:
		return "contact_down"
	default:
		return fmt.Sprintf("event(%d)", int(t))
	}
}

// Event is emitted to subscribers when something interesting happens.
type Event struct {
	Type     EventType
	Time     time.Duration
	NodeID   int
	Position model.Vec2
	Contact  model.Contact
}

// KnowledgeBase is an in-memory, thread-safe store for the simulated nodes,
// their positions and the current contact set.
type KnowledgeBase struct {
	mu sync.RWMutex

	nodes    map[int]*model.Node
	contacts map[[2]int]model.Contact

	subs   map[int]func(Event)
	nextID int
}

// NewKnowledgeBase constructs an empty KB.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		nodes:    make(map[int]*model.Node),
		contacts: make(map[[2]int]model.Contact),
		subs:     make(map[int]func(Event)),
	}
}

// AddNode adds a new node. It returns an error if the ID already exists.
func (kb *KnowledgeBase) AddNode(n *model.Node) error {
	if n == nil {
		return fmt.Errorf("node is nil")
	}
	kb.mu.Lock()
	defer kb.mu.Unlock()

	if _, exists := kb.nodes[n.ID]; exists {
		return fmt.Errorf("node with ID %d already exists", n.ID)
	}
	// store pointer so that motion models can update in-place
	kb.nodes[n.ID] = n
	return nil
}

// GetNode returns the node with the given ID, or nil if not found.
func (kb *KnowledgeBase) GetNode(id int) *model.Node {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.nodes[id]
}

// ListNodes returns all nodes ordered by id.
func (kb *KnowledgeBase) ListNodes() []*model.Node {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	res := make([]*model.Node, 0, len(kb.nodes))
	for _, n := range kb.nodes {
		res = append(res, n)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// NodeCount returns the number of registered nodes.
func (kb *KnowledgeBase) NodeCount() int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.nodes)
}

// NodePosition returns the current position of node id.
func (kb *KnowledgeBase) NodePosition(id int) (model.Vec2, error) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	n, ok := kb.nodes[id]
	if !ok {
		return model.Vec2{}, fmt.Errorf("node with ID %d not found", id)
	}
	return n.Position, nil
}

// UpdateNodePosition stores a node's position and notifies subscribers.
func (kb *KnowledgeBase) UpdateNodePosition(now time.Duration, id int, pos model.Vec2) error {
	kb.mu.Lock()
	n, ok := kb.nodes[id]
	if !ok {
		kb.mu.Unlock()
		return fmt.Errorf("node with ID %d not found", id)
	}
	n.Position = pos
	subs := kb.subscribersLocked()
	kb.mu.Unlock()

	notify(subs, Event{Type: EventNodeMoved, Time: now, NodeID: id, Position: pos})
	return nil
}

// SetContacts replaces the current contact set and emits one
// EventContactDown per pair that left contact, then one EventContactUp per
// pair that entered it, each group ordered by pair.
func (kb *KnowledgeBase) SetContacts(now time.Duration, contacts []model.Contact) {
	next := make(map[[2]int]model.Contact, len(contacts))
	for _, c := range contacts {
		next[c.Key()] = c
	}

	kb.mu.Lock()
	var down, up []model.Contact
	for key, c := range kb.contacts {
		if _, still := next[key]; !still {
			down = append(down, c)
		}
	}
	for key, c := range next {
		if _, was := kb.contacts[key]; !was {
			up = append(up, c)
		}
	}
	kb.contacts = next
	subs := kb.subscribersLocked()
	kb.mu.Unlock()

	sortContacts(down)
	sortContacts(up)
	for _, c := range down {
		notify(subs, Event{Type: EventContactDown, Time: now, Contact: c})
	}
	for _, c := range up {
		notify(subs, Event{Type: EventContactUp, Time: now, Contact: c})
	}
}

// Contacts returns the current contact set ordered by pair.
func (kb *KnowledgeBase) Contacts() []model.Contact {
	kb.mu.RLock()
	res := make([]model.Contact, 0, len(kb.contacts))
	for _, c := range kb.contacts {
		res = append(res, c)
	}
	kb.mu.RUnlock()

	sortContacts(res)
	return res
}

// InContact reports whether nodes a and b are currently in contact.
func (kb *KnowledgeBase) InContact(a, b int) bool {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	_, ok := kb.contacts[model.NewContact(a, b).Key()]
	return ok
}

// Subscribe registers a callback for KB events. It returns an unsubscribe function.
func (kb *KnowledgeBase) Subscribe(fn func(Event)) (unsubscribe func()) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	id := kb.nextID
	kb.nextID++
	kb.subs[id] = fn

	return func() {
		kb.mu.Lock()
		defer kb.mu.Unlock()
		delete(kb.subs, id)
	}
}

// subscribersLocked returns subscribers in registration order.
// Caller must hold kb.mu.
func (kb *KnowledgeBase) subscribersLocked() []func(Event) {
	ids := make([]int, 0, len(kb.subs))
	for id := range kb.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		out = append(out, kb.subs[id])
	}
	return out
}

// notify runs subscribers outside the lock to avoid deadlocks.
func notify(subs []func(Event), e Event) {
	for _, sub := range subs {
		sub(e)
	}
}

func sortContacts(cs []model.Contact) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].A != cs[j].A {
			return cs[i].A < cs[j].A
		}
		return cs[i].B < cs[j].B
	})
}
