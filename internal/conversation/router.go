package conversation

import (
	"context"

	"github.com/tiendalink/wabot-server-go/internal/model"
)

// Ctx carries one inbound message through the router.
type Ctx struct {
	Session *Session
	Tenant  *model.Tenant
	Msg     model.InboundMessage
	// Norm is the normalized text (lowercased, diacritics and symbols
	// stripped). Flow handlers that need the raw input read Msg.Text.
	Norm string
}

// Route pairs a predicate with a handler. Routes are evaluated strictly in
// slice order and the first match consumes the message: context-bound flow
// routes come before context-free commands, which is what makes tokens like
// "1" unambiguous and what keeps an active flow locked in until it is
// resolved or cancelled.
type Route struct {
	Name   string
	Match  func(*Ctx) bool
	Handle func(context.Context, *Ctx) error
}

type Router struct {
	routes []Route
}

func NewRouter(routes []Route) *Router {
	return &Router{routes: routes}
}

// Dispatch runs the first matching route and returns its name. The route
// list always ends in a catch-all, so every message matches something.
func (r *Router) Dispatch(ctx context.Context, c *Ctx) (string, error) {
	c.Norm = Normalize(c.Msg.Text)

	for _, route := range r.routes {
		if route.Match(c) {
			return route.Name, route.Handle(ctx, c)
		}
	}
	return "", nil
}
