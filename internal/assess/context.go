package assess

import (
	"context"
	"regexp"

	"github.com/google/uuid"
)

type requestIDKey struct{}

var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// WithRequestID attaches a request id to ctx. An empty id, or one that is
// too long or carries characters outside [A-Za-z0-9._-], is replaced by a
// generated one.
func WithRequestID(ctx context.Context, id string) context.Context {
	if !validRequestID.MatchString(id) {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id attached by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
