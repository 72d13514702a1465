package chat

import (
	"context"
	"errors"
	"io"

	"github.com/hashicorp/go-metrics"
	"go.uber.org/zap"
)

// Mode selects the path a new connection takes after nick negotiation.
type Mode int

const (
	// ModeChat enters the broadcast router directly.
	ModeChat Mode = iota
	// ModeWhisper assembles a group first and scopes the router to it.
	ModeWhisper
)

func (m Mode) String() string {
	if m == ModeWhisper {
		return "whisper"
	}
	return "chat"
}

// Service owns the connection and group registries and runs every
// connection's lifecycle against them. It is safe for concurrent use.
type Service struct {
	conns  *ConnectionRegistry
	groups *GroupRegistry
	logger *zap.Logger
	msink  metrics.MetricSink
	labels []metrics.Label
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricSink sets where telemetry goes. The default is metrics.Default().
func WithMetricSink(sink metrics.MetricSink) Option {
	return func(s *Service) {
		if sink != nil {
			s.msink = sink
		}
	}
}

// WithMetricLabels adds static labels to every metric emitted by the Service.
func WithMetricLabels(labels []metrics.Label) Option {
	return func(s *Service) {
		s.labels = append([]metrics.Label(nil), labels...)
	}
}

// NewService returns a Service with empty registries.
func NewService(opts ...Option) *Service {
	s := &Service{
		conns:  NewConnectionRegistry(),
		groups: NewGroupRegistry(),
		logger: zap.NewNop(),
		msink:  metrics.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connections returns the live connection registry.
func (s *Service) Connections() *ConnectionRegistry {
	return s.conns
}

// Groups returns the group registry.
func (s *Service) Groups() *GroupRegistry {
	return s.groups
}

// Serve runs one connection from stream open to teardown. It blocks until the
// stream ends or ctx is cancelled. A normal close returns nil. Whatever happens,
// the connection is removed from every registry and group before Serve
// returns, and its sink is closed.
func (s *Service) Serve(ctx context.Context, stream Stream, sink Sink, mode Mode, fields ...zap.Field) error {
	conn := s.conns.NewConnection(sink)
	s.conns.Register(conn)

	sess := &session{
		svc:    s,
		conn:   conn,
		stream: stream,
		log:    s.logger.With(append(fields, zap.Int("conn_id", conn.ID()), zap.Stringer("mode", mode))...),
	}
	sess.log.Info("Connection opened", zap.Int("live", s.conns.Count()))
	s.connectionOpened(mode)

	err := sess.run(ctx, mode)
	sess.teardown()
	s.connectionClosed(mode)

	if isClosed(err) {
		sess.log.Info("Connection closed", zap.Int("live", s.conns.Count()))
		return nil
	}
	sess.log.Warn("Connection terminated", zap.Error(err), zap.Int("live", s.conns.Count()))
	return err
}

// deliver hands text to every target that is still live. A refused hand-off
// is counted and skipped; it never stops delivery to the rest.
func (s *Service) deliver(targets []*Connection, text string) int {
	delivered := 0
	for _, c := range targets {
		if !s.conns.Contains(c) {
			continue
		}
		if !c.send(text) {
			s.msink.IncrCounterWithLabels(MetricDeliveryDropped, 1, s.labels)
			s.logger.Debug("Delivery dropped", zap.Int("conn_id", c.ID()))
			continue
		}
		delivered++
	}
	return delivered
}

type session struct {
	svc    *Service
	conn   *Connection
	stream Stream
	log    *zap.Logger

	announced bool
	group     *Group
}

func (s *session) run(ctx context.Context, mode Mode) error {
	s.conn.send(msgBanner(s.svc.conns.Count(), s.conn.ID()))

	if err := s.negotiateNick(ctx); err != nil {
		return err
	}

	var scope Scope = s.svc.conns
	if mode == ModeWhisper {
		g, err := s.assemble(ctx)
		if err != nil {
			return err
		}
		s.group = g
		scope = g
	}

	rt := &router{
		svc:   s.svc,
		self:  s.conn,
		scope: scope,
		group: s.group,
		log:   s.log,
	}
	return rt.run(ctx, s.stream)
}

// teardown removes the connection everywhere, then tells the scope it was
// talking to that it left. Nothing is announced for a connection that never
// finished nick negotiation.
func (s *session) teardown() {
	s.svc.conns.Unregister(s.conn)
	s.svc.groups.Forget(s.conn)

	if s.announced {
		var audience []*Connection
		if s.group != nil {
			audience = s.group.Members()
		} else {
			audience = s.svc.conns.Snapshot()
		}
		s.svc.deliver(audience, msgLeft(s.conn.label()))
	}

	s.conn.close()
}

func isClosed(err error) bool {
	return err == nil ||
		errors.Is(err, ErrStreamClosed) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, context.Canceled)
}
