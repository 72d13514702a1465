package chat

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Scope is the set of connections a router broadcasts to.
type Scope interface {
	Members() []*Connection
}

type routeKind int

const (
	routeBroadcast routeKind = iota
	routeReplyMode
	routeReplyOver
	routeDirect
)

func (k routeKind) String() string {
	switch k {
	case routeReplyMode:
		return "reply_mode"
	case routeReplyOver:
		return "reply_over"
	case routeDirect:
		return "direct"
	default:
		return "broadcast"
	}
}

type route struct {
	kind    routeKind
	targets []string
	target  string
	text    string
}

var (
	replyModePattern = regexp.MustCompile(`^\.re.+$`)
	directPattern    = regexp.MustCompile(`^r.+:`)
)

// classifyRoute checks, in order: .re targets, .over, r<target>:<message>,
// and otherwise a plain message.
func classifyRoute(text string) route {
	if replyModePattern.MatchString(text) {
		return route{kind: routeReplyMode, targets: strings.Fields(strings.TrimPrefix(text, ".re"))}
	}
	if text == ".over" {
		return route{kind: routeReplyOver}
	}
	if directPattern.MatchString(text) {
		target, body, _ := strings.Cut(text[1:], ":")
		return route{kind: routeDirect, target: target, text: body}
	}
	return route{kind: routeBroadcast, text: text}
}

// router delivers one connection's messages for the rest of its lifetime.
// Target resolution always goes through the full connection registry, while
// plain messages go to scope members that are still live.
type router struct {
	svc   *Service
	self  *Connection
	scope Scope
	group *Group
	log   *zap.Logger

	replyMode    bool
	replyTargets []*Connection
}

func (rt *router) run(ctx context.Context, stream Stream) error {
	for {
		f, err := stream.Next(ctx)
		if err != nil {
			return err
		}
		switch fr := f.(type) {
		case TextFrame:
			rt.handle(string(fr))
		case OtherFrame:
		}
	}
}

func (rt *router) handle(text string) {
	r := classifyRoute(text)
	rt.log.Debug("Routing message", zap.Stringer("route", r.kind), zap.Bool("reply_mode", rt.replyMode))
	switch r.kind {
	case routeReplyMode:
		rt.enterReplyMode(r.targets)
	case routeReplyOver:
		rt.replyMode = false
		rt.replyTargets = nil
		rt.self.send(msgReplyOver)
	case routeDirect:
		rt.direct(r.target, r.text)
	default:
		if rt.replyMode {
			rt.reply(r.text)
		} else {
			rt.broadcast(r.text)
		}
	}
}

// enterReplyMode resolves every specifier or none. A failed command leaves the
// current reply state untouched.
func (rt *router) enterReplyMode(specs []string) {
	if len(specs) == 0 {
		rt.self.send(msgReplyNoTarget)
		return
	}

	resolved := make([]*Connection, 0, len(specs))
	for _, spec := range specs {
		c := rt.svc.conns.FindByIDOrNickFragment(spec)
		if c == nil {
			rt.self.send(msgTargetNotFound(spec))
			return
		}
		resolved = append(resolved, c)
	}

	targets := rt.replyTargets
	if !rt.replyMode {
		targets = nil
	}
	targets = appendUnique(targets, rt.self)
	for _, c := range resolved {
		targets = appendUnique(targets, c)
	}

	rt.replyMode = true
	rt.replyTargets = targets
	rt.log.Debug("Reply mode entered", zap.Int("targets", len(targets)-1))
	rt.self.send(msgReplyMode(others(targets, rt.self)))
}

func (rt *router) reply(text string) {
	live := rt.replyTargets[:0]
	for _, c := range rt.replyTargets {
		if rt.svc.conns.Contains(c) {
			live = append(live, c)
		}
	}
	rt.replyTargets = live

	rt.svc.messageRouted(routeLabelReply)
	rt.svc.deliver(live, formatReply(rt.self, strings.TrimSpace(text)))
}

func (rt *router) direct(spec, body string) {
	target := rt.svc.conns.FindByIDOrNickFragment(spec)
	if target == nil {
		rt.self.send(msgUserNotFound)
		return
	}

	rt.svc.messageRouted(routeLabelDirect)
	rt.svc.deliver(appendUnique([]*Connection{target}, rt.self), formatWhisper(rt.self, strings.TrimSpace(body)))
}

func (rt *router) broadcast(text string) {
	text = strings.TrimSpace(text)
	if rt.group != nil {
		rt.svc.messageRouted(routeLabelGroup)
		rt.svc.deliver(rt.scope.Members(), formatGroup(rt.group, rt.self, text))
		return
	}
	rt.svc.messageRouted(routeLabelBroadcast)
	rt.svc.deliver(rt.scope.Members(), formatBroadcast(rt.self, text))
}

func appendUnique(conns []*Connection, c *Connection) []*Connection {
	if contains(conns, c) {
		return conns
	}
	return append(conns, c)
}
