package chat

import (
	"strconv"
	"strings"
	"sync"
)

// Connection is one client's identity and outbound message sink.
type Connection struct {
	id   int
	name string
	sink Sink

	mu   sync.RWMutex
	nick string
}

func newConnection(id int, sink Sink) *Connection {
	return &Connection{
		id:   id,
		name: "user" + strconv.Itoa(id),
		sink: sink,
	}
}

// ID returns the connection id.
func (c *Connection) ID() int {
	return c.id
}

// Name returns the default label, user<id>.
func (c *Connection) Name() string {
	return c.name
}

// Nick returns the chosen nickname, if any.
func (c *Connection) Nick() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nick, c.nick != ""
}

// DisplayName is the nickname when set, else the default name. Every
// delivered message is prefixed with it.
func (c *Connection) DisplayName() string {
	if nick, ok := c.Nick(); ok {
		return nick
	}
	return c.name
}

// label is used in join and departure notices: the nickname, else the bare id.
func (c *Connection) label() string {
	if nick, ok := c.Nick(); ok {
		return nick
	}
	return strconv.Itoa(c.id)
}

// matches reports whether spec names this connection by exact id or by a
// fragment of its nickname.
func (c *Connection) matches(spec string, id int, numeric bool) bool {
	if numeric && c.id == id {
		return true
	}
	nick, ok := c.Nick()
	return ok && strings.Contains(nick, spec)
}

func (c *Connection) send(text string) bool {
	if c.sink == nil {
		return false
	}
	return c.sink.Send(text)
}

func (c *Connection) close() {
	if c.sink != nil {
		c.sink.Close()
	}
}
