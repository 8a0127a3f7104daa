package assistant

import (
	"context"

	"github.com/ann82/dv-assistant-sub003/internal/model/conversation"
	"github.com/ann82/dv-assistant-sub003/internal/service/followup"
	"github.com/ann82/dv-assistant-sub003/internal/service/intent"
	"github.com/ann82/dv-assistant-sub003/internal/service/response"
	"github.com/ann82/dv-assistant-sub003/internal/service/session"
)

// The methods below expose each component on its own, for transports and
// tools that drive a single step.

func (e *Engine) ClassifyIntent(ctx context.Context, utterance string) intent.Result {
	return e.intents.Classify(ctx, utterance)
}

func (e *Engine) RewriteQuery(ctx context.Context, utterance string, i conversation.Intent, sessionKey string) string {
	return e.rewriter.Rewrite(ctx, utterance, i, sessionKey)
}

func (e *Engine) UpdateContext(ctx context.Context, sessionKey string, in session.UpdateInput) error {
	return e.sessions.Update(ctx, sessionKey, in)
}

func (e *Engine) GetContext(ctx context.Context, sessionKey string) (*conversation.Session, bool) {
	return e.sessions.Get(ctx, sessionKey)
}

func (e *Engine) ClearContext(ctx context.Context, sessionKey string) {
	e.sessions.Clear(ctx, sessionKey)
}

// ResolveFollowUp checks utterance against the session's live focus context.
func (e *Engine) ResolveFollowUp(ctx context.Context, sessionKey, utterance string) (*followup.Response, bool) {
	sess, ok := e.sessions.Get(ctx, sessionKey)
	if !ok || sess.LastQueryContext == nil {
		return nil, false
	}
	return e.followups.Resolve(ctx, utterance, sess.LastQueryContext)
}

func (e *Engine) GetResponse(ctx context.Context, utterance string, rc response.RouteContext, channel conversation.Channel, opts response.Options) *response.FormattedResponse {
	return e.router.GetResponse(ctx, utterance, rc, channel, opts)
}
