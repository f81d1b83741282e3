package humastar

import (
	"fmt"

	"github.com/danielgtaylor/huma/v2"
)

// Action is a state-dependent hypermedia action link, emitted as an RFC 8288
// Link header with method, title and schema extension parameters:
//
//	</api/v1/sessions/abc/restore>; rel="restore"; method="POST"; title="Restore a removed layer"
type Action struct {
	Rel    string // IANA rel or custom (e.g., "reorder", "restore")
	Href   string // target URL
	Method string // HTTP method: POST, PUT, DELETE, etc.
	Title  string // optional human-readable label
	Schema string // optional JSON Schema URL for the request body
}

// Actor is implemented by response bodies that offer state-dependent actions.
type Actor interface {
	Actions() []Action
}

// LinkHeader formats the action as an RFC 8288 Link header value.
func (a Action) LinkHeader() string {
	h := fmt.Sprintf(`<%s>; rel="%s"`, a.Href, a.Rel)
	if a.Method != "" {
		h += fmt.Sprintf(`; method="%s"`, a.Method)
	}
	if a.Title != "" {
		h += fmt.Sprintf(`; title="%s"`, a.Title)
	}
	if a.Schema != "" {
		h += fmt.Sprintf(`; schema="%s"`, a.Schema)
	}
	return h
}

// ActionTransformer returns a Huma Transformer that adds a Link header for
// every action of an Actor response body.
func ActionTransformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		if actor, ok := v.(Actor); ok {
			for _, a := range actor.Actions() {
				ctx.AppendHeader("Link", a.LinkHeader())
			}
		}
		return v, nil
	}
}
