package humastar

import "fmt"

// ActionDef is a reusable action template. Pattern holds a single %s verb
// for the resource ID.
type ActionDef struct {
	Rel     string
	Pattern string
	Method  string
	Title   string
	Schema  string
}

// ActionsFor expands defs for one resource ID. A def whose Rel is listed in
// skip is left out.
func ActionsFor(id string, defs []ActionDef, skip ...string) []Action {
	actions := make([]Action, 0, len(defs))
outer:
	for _, d := range defs {
		for _, rel := range skip {
			if d.Rel == rel {
				continue outer
			}
		}
		actions = append(actions, Action{
			Rel:    d.Rel,
			Href:   fmt.Sprintf(d.Pattern, id),
			Method: d.Method,
			Title:  d.Title,
			Schema: d.Schema,
		})
	}
	return actions
}
