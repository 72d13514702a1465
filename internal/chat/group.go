package chat

import (
	"strconv"
	"sync"
)

// Group is a dynamically assembled set of connections holding a private
// conversation. Members keep insertion order.
type Group struct {
	id   int
	name string

	mu      sync.RWMutex
	members []*Connection
}

// ID returns the group id.
func (g *Group) ID() int {
	return g.id
}

// Name returns the default label. It shares the user<id> shape with
// connection names.
func (g *Group) Name() string {
	return g.name
}

// Tag is the short form shown on group messages, g<id>.
func (g *Group) Tag() string {
	return "g" + strconv.Itoa(g.id)
}

// Add appends c unless it is already a member.
func (g *Group) Add(c *Connection) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.indexOf(c) >= 0 {
		return false
	}
	g.members = append(g.members, c)
	return true
}

// Remove drops c from the member set.
func (g *Group) Remove(c *Connection) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.indexOf(c)
	if i < 0 {
		return false
	}
	g.members = append(g.members[:i:i], g.members[i+1:]...)
	return true
}

// Has reports whether c is a member.
func (g *Group) Has(c *Connection) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.indexOf(c) >= 0
}

// Members returns a copy of the member list.
func (g *Group) Members() []*Connection {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]*Connection(nil), g.members...)
}

// Len returns the member count.
func (g *Group) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.members)
}

func (g *Group) indexOf(c *Connection) int {
	for i, m := range g.members {
		if m == c {
			return i
		}
	}
	return -1
}

// GroupRegistry holds every live group. Groups are never disposed.
type GroupRegistry struct {
	mu     sync.RWMutex
	nextID int
	order  []*Group
	byID   map[int]*Group
}

// NewGroupRegistry returns an empty registry whose first id is 0.
func NewGroupRegistry() *GroupRegistry {
	return &GroupRegistry{
		byID: make(map[int]*Group),
	}
}

// NewGroup allocates the next id and freezes members into a new group. The
// group is not registered yet.
func (r *GroupRegistry) NewGroup(members []*Connection) *Group {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.mu.Unlock()

	g := &Group{id: id, name: "user" + strconv.Itoa(id)}
	for _, m := range members {
		g.Add(m)
	}
	return g
}

// Register adds g. It returns false when a group with the same id exists.
func (r *GroupRegistry) Register(g *Group) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[g.id]; ok {
		return false
	}
	r.byID[g.id] = g
	r.order = append(r.order, g)
	return true
}

// FindByID returns the group with the exact id, or nil.
func (r *GroupRegistry) FindByID(id int) *Group {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// Count returns the number of registered groups.
func (r *GroupRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Forget removes c from every group it belongs to.
func (r *GroupRegistry) Forget(c *Connection) int {
	r.mu.RLock()
	groups := append([]*Group(nil), r.order...)
	r.mu.RUnlock()

	removed := 0
	for _, g := range groups {
		if g.Remove(c) {
			removed++
		}
	}
	return removed
}
