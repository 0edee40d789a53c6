package model

// Contact is an unordered pair of nodes that can hear each other at a given
// tick. A is always the smaller node id.
type Contact struct {
	A int
	B int

	Distance   float64 // metres
	RxPowerDBm float64 // received power after fading
}

// NewContact builds a contact with its endpoints in canonical order.
func NewContact(a, b int) Contact {
	if a > b {
		a, b = b, a
	}
	return Contact{A: a, B: b}
}

// Key returns the canonical pair identity of the contact.
func (c Contact) Key() [2]int {
	return [2]int{c.A, c.B}
}

// Involves reports whether node id is one of the contact's endpoints.
func (c Contact) Involves(id int) bool {
	return c.A == id || c.B == id
}

// Peer returns the other endpoint of the contact as seen from id.
func (c Contact) Peer(id int) (int, bool) {
	switch id {
	case c.A:
		return c.B, true
	case c.B:
		return c.A, true
	}
	return 0, false
}
