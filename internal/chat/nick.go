package chat

import (
	"context"
	"errors"
)

type nickState int

const (
	nickAskConfirm nickState = iota
	nickAskNick
	nickDone
)

// nickStep is the outcome of feeding one frame to the negotiation. When claim
// is set the driver must try to assign candidate; on failure it stays in
// nickAskNick.
type nickStep struct {
	next      nickState
	reply     string
	claim     bool
	candidate string
	declined  bool
}

var confirmWords = map[string]struct{}{
	"y": {}, "Y": {}, "yes": {}, "Yes": {}, "YES": {},
}

func nickTransition(state nickState, f Frame) nickStep {
	switch fr := f.(type) {
	case TextFrame:
		switch state {
		case nickAskConfirm:
			if _, ok := confirmWords[string(fr)]; ok {
				return nickStep{next: nickAskNick, reply: msgAskNick}
			}
			return nickStep{next: nickDone, declined: true}
		case nickAskNick:
			return nickStep{next: nickDone, claim: true, candidate: string(fr)}
		}
	case OtherFrame:
		if state == nickAskNick {
			return nickStep{next: state, reply: msgTextOnlyAskNick}
		}
		return nickStep{next: state, reply: msgTextOnly}
	}
	return nickStep{next: state}
}

// negotiateNick runs the nick exchange and then announces the connection to
// everyone else.
func (s *session) negotiateNick(ctx context.Context) error {
	s.conn.send(msgAskConfirm)

	state := nickAskConfirm
	for state != nickDone {
		f, err := s.stream.Next(ctx)
		if err != nil {
			return err
		}

		step := nickTransition(state, f)
		if step.reply != "" {
			s.conn.send(step.reply)
		}
		if step.claim {
			step.next = s.claimNick(step.candidate)
		}
		if step.declined {
			s.conn.send(msgWelcomeDeclined(s.conn.label()))
		}
		state = step.next
	}

	s.announced = true
	s.svc.deliver(others(s.svc.conns.Snapshot(), s.conn), msgJoined(s.conn.label()))
	return nil
}

func (s *session) claimNick(nick string) nickState {
	err := s.svc.conns.ClaimNick(s.conn, nick)
	switch {
	case err == nil:
		s.log.Info("Nickname set")
		s.conn.send(msgWelcomeNick(nick))
		return nickDone
	case errors.Is(err, ErrNickEmpty):
		s.conn.send(msgNickEmpty)
	default:
		s.log.Debug("Nickname rejected")
		s.conn.send(msgNickTaken)
	}
	return nickAskNick
}

func others(conns []*Connection, self *Connection) []*Connection {
	out := make([]*Connection, 0, len(conns))
	for _, c := range conns {
		if c != self {
			out = append(out, c)
		}
	}
	return out
}
