package matcher

// RosterSource is one named list of normalized reference names, e.g. the
// companies listed on a single exchange.
type RosterSource struct {
	Name  string
	Names []string
}

// Roster is a read-only collection of reference names grouped by source.
type Roster struct {
	sources []RosterSource
	names   []string
}

// NewRoster builds a roster keeping the order of sources and of names within them.
func NewRoster(sources ...RosterSource) *Roster {
	roster := &Roster{sources: make([]RosterSource, 0, len(sources))}
	for _, src := range sources {
		names := append([]string(nil), src.Names...)
		roster.sources = append(roster.sources, RosterSource{Name: src.Name, Names: names})
		roster.names = append(roster.names, names...)
	}

	return roster
}

// Names returns every reference name, sources concatenated in order.
func (r *Roster) Names() []string {
	return r.names
}

// Source returns the names loaded from one source.
func (r *Roster) Source(name string) ([]string, bool) {
	for _, src := range r.sources {
		if src.Name == name {
			return src.Names, true
		}
	}
	return nil, false
}

// Len returns the total number of reference names.
func (r *Roster) Len() int {
	return len(r.names)
}
