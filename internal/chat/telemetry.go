package chat

import "github.com/hashicorp/go-metrics"

// Metric keys emitted to the configured MetricSink.
var (
	MetricConnectionOpened = []string{"whisperchat", "connection", "opened"}
	MetricConnectionClosed = []string{"whisperchat", "connection", "closed"}
	MetricConnectionLive   = []string{"whisperchat", "connection", "live"}
	MetricGroupCreated     = []string{"whisperchat", "group", "created"}
	MetricGroupJoined      = []string{"whisperchat", "group", "joined"}
	MetricGroupSize        = []string{"whisperchat", "group", "size"}
	MetricMessageRouted    = []string{"whisperchat", "message", "routed"}
	MetricDeliveryDropped  = []string{"whisperchat", "delivery", "dropped"}
)

// Label names attached to metrics. Route values are unexported.
const (
	LabelRoute = "route"
	LabelMode  = "mode"

	routeLabelBroadcast = "broadcast"
	routeLabelGroup     = "group"
	routeLabelReply     = "reply"
	routeLabelDirect    = "direct"
)

func (s *Service) label(name, value string) []metrics.Label {
	return append(append([]metrics.Label(nil), s.labels...), metrics.Label{Name: name, Value: value})
}

func (s *Service) connectionOpened(mode Mode) {
	s.msink.IncrCounterWithLabels(MetricConnectionOpened, 1, s.label(LabelMode, mode.String()))
	s.msink.SetGaugeWithLabels(MetricConnectionLive, float32(s.conns.Count()), s.labels)
}

func (s *Service) connectionClosed(mode Mode) {
	s.msink.IncrCounterWithLabels(MetricConnectionClosed, 1, s.label(LabelMode, mode.String()))
	s.msink.SetGaugeWithLabels(MetricConnectionLive, float32(s.conns.Count()), s.labels)
}

func (s *Service) groupCreated(g *Group) {
	s.msink.IncrCounterWithLabels(MetricGroupCreated, 1, s.labels)
	s.msink.AddSampleWithLabels(MetricGroupSize, float32(g.Len()), s.labels)
}

func (s *Service) groupJoined(g *Group) {
	s.msink.IncrCounterWithLabels(MetricGroupJoined, 1, s.labels)
	s.msink.AddSampleWithLabels(MetricGroupSize, float32(g.Len()), s.labels)
}

func (s *Service) messageRouted(route string) {
	s.msink.IncrCounterWithLabels(MetricMessageRouted, 1, s.label(LabelRoute, route))
}
