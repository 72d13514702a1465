package chat

import (
	"errors"
	"strconv"
	"strings"
	"sync"
)

var (
	// ErrNickTaken means another live connection already holds the nickname.
	ErrNickTaken = errors.New("chat: nickname already taken")
	// ErrNickEmpty means the candidate nickname is blank.
	ErrNickEmpty = errors.New("chat: nickname is empty")
	// ErrNickAlreadySet means the connection already chose a nickname.
	ErrNickAlreadySet = errors.New("chat: nickname already set")
)

// ConnectionRegistry is the process-wide set of live connections. It keeps
// insertion order so that fragment lookups and fan-out are deterministic.
// Ids are allocated here and never reused.
type ConnectionRegistry struct {
	mu     sync.RWMutex
	nextID int
	order  []*Connection
	byID   map[int]*Connection
}

// NewConnectionRegistry returns an empty registry whose first id is 0.
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		byID: make(map[int]*Connection),
	}
}

// NewConnection allocates the next id and wraps sink. The connection is not
// registered yet.
func (r *ConnectionRegistry) NewConnection(sink Sink) *Connection {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.mu.Unlock()
	return newConnection(id, sink)
}

// Register adds c to the live set. It returns false when c is already live.
func (r *ConnectionRegistry) Register(c *Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[c.id]; ok {
		return false
	}
	r.byID[c.id] = c
	r.order = append(r.order, c)
	return true
}

// Unregister removes c from the live set. Removing an absent connection is a
// no-op that returns false.
func (r *ConnectionRegistry) Unregister(c *Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.byID[c.id]; !ok || cur != c {
		return false
	}
	delete(r.byID, c.id)
	for i, other := range r.order {
		if other == c {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports whether c is live.
func (r *ConnectionRegistry) Contains(c *Connection) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cur, ok := r.byID[c.id]
	return ok && cur == c
}

// FindByID returns the live connection with the exact id, or nil.
func (r *ConnectionRegistry) FindByID(id int) *Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// FindByIDOrNickFragment returns the first live connection, in registration
// order, whose id equals text parsed as an integer or whose nickname contains
// text. It returns nil when nothing matches.
func (r *ConnectionRegistry) FindByIDOrNickFragment(text string) *Connection {
	return findByIDOrNickFragment(r.Snapshot(), text)
}

// Count returns the number of live connections.
func (r *ConnectionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Snapshot returns the live connections in registration order. The slice is
// owned by the caller.
func (r *ConnectionRegistry) Snapshot() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Connection(nil), r.order...)
}

// Members implements Scope.
func (r *ConnectionRegistry) Members() []*Connection {
	return r.Snapshot()
}

// ClaimNick sets c's nickname if no live connection holds it. The check and
// the assignment happen under the registry lock, so two connections racing for
// the same nickname cannot both win. Nicknames are not reserved after their
// holder disconnects.
func (r *ConnectionRegistry) ClaimNick(c *Connection, nick string) error {
	if strings.TrimSpace(nick) == "" {
		return ErrNickEmpty
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := c.Nick(); ok {
		return ErrNickAlreadySet
	}
	for _, other := range r.order {
		if held, ok := other.Nick(); ok && held == nick {
			return ErrNickTaken
		}
	}

	c.mu.Lock()
	c.nick = nick
	c.mu.Unlock()
	return nil
}

func findByIDOrNickFragment(conns []*Connection, text string) *Connection {
	if text == "" {
		return nil
	}
	id, err := strconv.Atoi(text)
	numeric := err == nil
	for _, c := range conns {
		if c.matches(text, id, numeric) {
			return c
		}
	}
	return nil
}
