package service

// Named is implemented by anything the layer editor can list.
type Named interface {
	DisplayName() string
}

// Section identifies one of the two lists shown by a LayerEditor.
type Section int

const (
	// SectionOperational holds attached layers, presented topmost-first.
	SectionOperational Section = iota
	// SectionRemoved holds detached layers in the order they were removed.
	SectionRemoved
)

func (s Section) String() string {
	switch s {
	case SectionOperational:
		return "operational"
	case SectionRemoved:
		return "removed"
	}
	return "unknown"
}

// Position addresses a row within a section.
type Position struct {
	Section Section `json:"section" enum:"0,1" doc:"0 = operational, 1 = removed"`
	Row     int     `json:"row" minimum:"0" doc:"Row index within the section"`
}

// Row is one rendered line of a section.
type Row struct {
	Index int    `json:"index" doc:"Row index within the section"`
	Name  string `json:"name" doc:"Layer display name"`
}

// ChangeFunc receives the operational layers in draw order (index 0 drawn
// first) after every change to their order or membership.
type ChangeFunc[L Named] func(drawOrder []L)

// LayerEditor holds the operational and removed layer lists for one editing
// surface. The operational list is stored in draw order but every row index
// taken or returned by the editor refers to the presented, topmost-first
// order.
//
// A LayerEditor is not safe for concurrent use.
type LayerEditor[L Named] struct {
	operational []L
	removed     []L
	onChange    ChangeFunc[L]
}

// NewLayerEditor seeds an editor from the map's draw order. The removed list
// starts empty. onChange may be nil.
func NewLayerEditor[L Named](drawOrder []L, onChange ChangeFunc[L]) *LayerEditor[L] {
	return &LayerEditor[L]{
		operational: append([]L(nil), drawOrder...),
		onChange:    onChange,
	}
}

// Count returns the number of rows in a section.
func (e *LayerEditor[L]) Count(section Section) int {
	switch section {
	case SectionOperational:
		return len(e.operational)
	case SectionRemoved:
		return len(e.removed)
	}
	return 0
}

// List returns the rows of a section as presented to the user.
func (e *LayerEditor[L]) List(section Section) []Row {
	rows := make([]Row, 0, e.Count(section))
	for i := 0; i < e.Count(section); i++ {
		rows = append(rows, Row{Index: i, Name: e.At(Position{Section: section, Row: i}).DisplayName()})
	}
	return rows
}

// At returns the layer shown at pos.
func (e *LayerEditor[L]) At(pos Position) L {
	if pos.Section == SectionRemoved {
		return e.removed[pos.Row]
	}
	return e.operational[e.drawIndex(pos.Row)]
}

// Operational returns a copy of the operational layers in draw order.
func (e *LayerEditor[L]) Operational() []L {
	return append([]L(nil), e.operational...)
}

// Removed returns a copy of the removed layers.
func (e *LayerEditor[L]) Removed() []L {
	return append([]L(nil), e.removed...)
}

// TargetFor returns where a drag from `from` towards `proposed` lands.
// Only operational rows move, and only within their section; any other
// proposal collapses back onto the source row.
func (e *LayerEditor[L]) TargetFor(from, proposed Position) Position {
	if from.Section != SectionOperational || proposed.Section != from.Section {
		return from
	}
	return proposed
}

// Reorder swaps two presented operational rows. It reports whether anything
// changed; a move clamped back onto its source is a no-op and does not
// notify.
func (e *LayerEditor[L]) Reorder(from, to Position) bool {
	to = e.TargetFor(from, to)
	if to == from {
		return false
	}
	i, j := e.drawIndex(from.Row), e.drawIndex(to.Row)
	e.operational[i], e.operational[j] = e.operational[j], e.operational[i]
	e.notify()
	return true
}

// Remove detaches the presented operational row and appends it to the
// removed list. row must be within [0, Count(SectionOperational)).
func (e *LayerEditor[L]) Remove(row int) {
	i := e.drawIndex(row)
	layer := e.operational[i]
	e.operational = append(e.operational[:i], e.operational[i+1:]...)
	e.removed = append(e.removed, layer)
	e.notify()
}

// Restore moves a removed row back onto the map as the topmost layer.
// row must be within [0, Count(SectionRemoved)).
func (e *LayerEditor[L]) Restore(row int) {
	layer := e.removed[row]
	e.removed = append(e.removed[:row], e.removed[row+1:]...)
	e.operational = append(e.operational, layer)
	e.notify()
}

// reset replaces both lists without notifying. It is for changes that
// happened outside the editor, such as layers deleted from the store.
func (e *LayerEditor[L]) reset(drawOrder, removed []L) {
	e.operational = append([]L(nil), drawOrder...)
	e.removed = append([]L(nil), removed...)
}

// drawIndex maps a presented row to its index in draw order.
func (e *LayerEditor[L]) drawIndex(row int) int {
	if row < 0 || row >= len(e.operational) {
		panic("service: operational row out of range")
	}
	return len(e.operational) - 1 - row
}

func (e *LayerEditor[L]) notify() {
	if e.onChange != nil {
		e.onChange(e.Operational())
	}
}
