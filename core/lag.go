package core

import "fmt"

// LAGGroup is a logical bundling of physical interfaces presented as
// one aggregated link. Groups are created from configuration before any
// member interface registers and are immutable afterwards apart from
// member registration itself.
type LAGGroup struct {
	ID string

	members []string // ordered member interface names
}

// Members returns the member interface names in registration order.
func (g *LAGGroup) Members() []string {
	out := make([]string, len(g.members))
	copy(out, g.members)
	return out
}

func (g *LAGGroup) addMember(name string) {
	g.members = append(g.members, name)
}

// LAGTable holds all configured link-aggregation groups. It must be
// populated before interface registration so links can reference their
// group; a registration naming a missing group fails with
// ErrUnknownLAGGroup.
type LAGTable struct {
	groups map[string]*LAGGroup
	order  []string
}

// NewLAGTable creates an empty table.
func NewLAGTable() *LAGTable {
	return &LAGTable{groups: make(map[string]*LAGGroup)}
}

// Add creates a group with the given identity.
func (t *LAGTable) Add(id string) (*LAGGroup, error) {
	if id == "" {
		return nil, fmt.Errorf("empty LAG group id")
	}
	if _, exists := t.groups[id]; exists {
		return nil, fmt.Errorf("LAG group %q already exists", id)
	}
	g := &LAGGroup{ID: id}
	t.groups[id] = g
	t.order = append(t.order, id)
	return g, nil
}

// Get returns a group by identity, or nil.
func (t *LAGTable) Get(id string) *LAGGroup {
	return t.groups[id]
}

// All returns the groups in creation order.
func (t *LAGTable) All() []*LAGGroup {
	out := make([]*LAGGroup, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.groups[id])
	}
	return out
}
