package core

import (
	"github.com/gpauusa/sms17-project/model"
	"github.com/gpauusa/sms17-project/randvar"
)

// LinkResult is the outcome of evaluating one node pair at one tick.
type LinkResult string

const (
	LinkUp         LinkResult = "up"
	LinkOutOfRange LinkResult = "out_of_range"
	LinkFaded      LinkResult = "faded"
)

// ContactStats counts pair evaluations for a single tick.
type ContactStats struct {
	Pairs      int
	Up         int
	OutOfRange int
	Faded      int
}

func (s *ContactStats) add(r LinkResult) {
	s.Pairs++
	switch r {
	case LinkUp:
		s.Up++
	case LinkOutOfRange:
		s.OutOfRange++
	case LinkFaded:
		s.Faded++
	}
}

// ConnectivityService decides which node pairs are in contact at a given
// instant. A pair is up when it is within MaxRange and its faded received
// power clears the receiver sensitivity. Every tick is evaluated from
// scratch: no link state carries over.
type ConnectivityService struct {
	Config PropagationConfig
	rng    *randvar.Stream
}

// NewConnectivityService builds the contact model drawing fading from rng.
func NewConnectivityService(cfg PropagationConfig, rng *randvar.Stream) *ConnectivityService {
	return &ConnectivityService{Config: cfg, rng: rng}
}

// EvaluatePair checks one unordered pair. The check is symmetric: a single
// fading draw decides the link for both directions.
func (cs *ConnectivityService) EvaluatePair(a, b *model.Node) (model.Contact, LinkResult) {
	c := model.NewContact(a.ID, b.ID)
	d := a.Position.DistanceTo(b.Position)
	c.Distance = d

	if d > cs.Config.MaxRange {
		return c, LinkOutOfRange
	}

	mean := cs.Config.MeanRxPowerDBm(d)
	c.RxPowerDBm = cs.Config.Fading.Fade(mean, d, cs.rng)
	if c.RxPowerDBm < cs.Config.RxSensitivityDBm {
		return c, LinkFaded
	}
	return c, LinkUp
}

// UpdateContacts evaluates every unordered pair of nodes and returns the
// pairs in contact, ordered by (A, B). nodes must be ordered by id so that
// fading draws happen in a reproducible order.
func (cs *ConnectivityService) UpdateContacts(nodes []*model.Node) ([]model.Contact, ContactStats) {
	var (
		contacts []model.Contact
		stats    ContactStats
	)
	n := len(nodes)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			c, res := cs.EvaluatePair(nodes[i], nodes[j])
			stats.add(res)
			if res == LinkUp {
				contacts = append(contacts, c)
			}
		}
	}
	return contacts, stats
}
