package session

import "github.com/oldnordic/odincode/internal/router"

// Session tracks plans and the one currently awaiting authorization
// within a single UI conversation. No background processing, no
// autonomous actions — every state transition here is a direct
// response to a UI call.
type Session struct {
	context              Context
	plans                []router.Plan
	currentAuthorization *router.PlanAuthorization
}

// New starts a session from its context with no plans yet proposed.
func New(context Context) *Session {
	return &Session{context: context}
}

// Context returns the session's originating context.
func (s *Session) Context() Context { return s.context }

// Plans returns every plan proposed so far in this session, oldest first.
func (s *Session) Plans() []router.Plan { return s.plans }

// SetPlanForAuthorization records plan as the one awaiting the user's
// approve/reject decision and appends it to the session's plan history.
func (s *Session) SetPlanForAuthorization(plan router.Plan) {
	s.currentAuthorization = router.NewPlanAuthorization(plan.PlanID)
	s.plans = append(s.plans, plan)
}

// Authorization returns the in-flight plan's authorization state, if any.
func (s *Session) Authorization() *router.PlanAuthorization { return s.currentAuthorization }

// Approve grants the current plan's authorization.
func (s *Session) Approve() {
	if s.currentAuthorization != nil {
		s.currentAuthorization.Approve()
	}
}

// Reject denies the current plan's authorization.
func (s *Session) Reject() {
	if s.currentAuthorization != nil {
		s.currentAuthorization.Reject()
	}
}

// CompactSession is an explicit stub: session-level summarization
// semantics are out of scope for this system (see ErrNotImplemented).
func (s *Session) CompactSession() error {
	return ErrNotImplemented
}
