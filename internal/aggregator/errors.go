package aggregator

import (
	"errors"

	"github.com/ryanrflores/MCP-latest-subscribed-youtube-videos/internal/youtube"
	"github.com/ryanrflores/MCP-latest-subscribed-youtube-videos/pkg/oauth"
)

// Kind classifies a failure so callers can branch without string matching.
type Kind string

const (
	KindAuthentication  Kind = "authentication"
	KindTransport       Kind = "transport"
	KindNotFound        Kind = "not_found"
	KindInvalidArgument Kind = "invalid_argument"
)

// ErrChannelIDRequired is returned for an empty channel id.
var ErrChannelIDRequired = errors.New("channel_id is required")

// Error is a failed aggregation step.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of err. Errors that carry no kind are treated as
// transport failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var aggErr *Error
	if errors.As(err, &aggErr) {
		return aggErr.Kind
	}
	return classify(err)
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, youtube.ErrAuthentication), errors.Is(err, oauth.ErrAuthentication):
		return KindAuthentication
	case errors.Is(err, youtube.ErrChannelNotFound), errors.Is(err, youtube.ErrPlaylistNotFound):
		return KindNotFound
	case errors.Is(err, ErrChannelIDRequired):
		return KindInvalidArgument
	default:
		return KindTransport
	}
}

func wrap(op string, err error) *Error {
	return &Error{Kind: KindOf(err), Op: op, Err: err}
}
