package dialogue

import "context"

type ctxKey struct{}

// WithConversation attach c to ctx so tools invoked during the turn can reach it.
func WithConversation(ctx context.Context, c *Conversation) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func FromContext(ctx context.Context) (*Conversation, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Conversation)
	return c, ok && c != nil
}
