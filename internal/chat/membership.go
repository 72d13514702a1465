package chat

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type assemblyKind int

const (
	assemblyRejectFrame assemblyKind = iota
	assemblyComplete
	assemblyJoin
	assemblyAddTarget
)

type assemblyStep struct {
	kind assemblyKind
	arg  string
}

// classifyAssembly maps one frame to an assembly action, checking .complete,
// then .id<N>, then falling back to a target specifier.
func classifyAssembly(f Frame) assemblyStep {
	fr, ok := f.(TextFrame)
	if !ok {
		return assemblyStep{kind: assemblyRejectFrame}
	}
	text := string(fr)
	switch {
	case text == ".complete":
		return assemblyStep{kind: assemblyComplete}
	case strings.HasPrefix(text, ".id"):
		return assemblyStep{kind: assemblyJoin, arg: strings.TrimSpace(strings.TrimPrefix(text, ".id"))}
	default:
		return assemblyStep{kind: assemblyAddTarget, arg: text}
	}
}

// assemble lets the connection pick whisper targets or join an existing group.
// It returns the group the router should be scoped to.
func (s *session) assemble(ctx context.Context) (*Group, error) {
	pending := []*Connection{s.conn}
	s.conn.send(msgAssemblyHelp)

	for {
		f, err := s.stream.Next(ctx)
		if err != nil {
			return nil, err
		}

		step := classifyAssembly(f)
		switch step.kind {
		case assemblyRejectFrame:
			s.conn.send(msgTextOnly)

		case assemblyComplete:
			g := s.svc.groups.NewGroup(pending)
			s.svc.groups.Register(g)
			s.dropDeparted(g)
			s.svc.groupCreated(g)
			s.log.Info("Group created", zap.Int("group_id", g.ID()), zap.Int("members", g.Len()))
			s.conn.send(msgGroupReady(g))
			return g, nil

		case assemblyJoin:
			g := s.findGroup(step.arg)
			if g == nil {
				s.conn.send(msgGroupNotFound(step.arg))
				continue
			}
			g.Add(s.conn)
			s.svc.groupJoined(g)
			s.log.Info("Joined group", zap.Int("group_id", g.ID()), zap.Int("members", g.Len()))
			s.conn.send(msgGroupJoined(g))
			return g, nil

		case assemblyAddTarget:
			target := s.svc.conns.FindByIDOrNickFragment(step.arg)
			switch {
			case target == nil:
				s.conn.send(msgUserNotFound)
			case contains(pending, target):
				s.conn.send(msgAlreadyInGroup)
			default:
				pending = append(pending, target)
				s.conn.send(msgUserAdded(target.DisplayName()))
			}
		}
	}
}

// dropDeparted removes members whose connection has already been
// unregistered. Their teardown ran Forget before g was registered.
func (s *session) dropDeparted(g *Group) {
	for _, m := range g.Members() {
		if !s.svc.conns.Contains(m) {
			g.Remove(m)
			s.log.Debug("Dropped departed member", zap.Int("conn_id", m.ID()))
		}
	}
}

func (s *session) findGroup(arg string) *Group {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return nil
	}
	return s.svc.groups.FindByID(id)
}

func contains(conns []*Connection, c *Connection) bool {
	for _, other := range conns {
		if other == c {
			return true
		}
	}
	return false
}
