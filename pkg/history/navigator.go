package history

// Navigator steps through a snapshot of queries the way a shell recalls
// previous commands. Position -1 is the line being edited.
type Navigator struct {
	queries []string
	pos     int
	draft   string
}

// NewNavigator starts before the most recent query
func NewNavigator(queries []string) *Navigator {
	return &Navigator{queries: queries, pos: -1}
}

// Older moves one query back and returns it. current is remembered as the
// draft when leaving the edit line.
func (n *Navigator) Older(current string) (string, bool) {
	if n.pos+1 >= len(n.queries) {
		return "", false
	}
	if n.pos == -1 {
		n.draft = current
	}
	n.pos++
	return n.queries[n.pos], true
}

// Newer moves one query forward, returning the draft past the newest
func (n *Navigator) Newer() (string, bool) {
	if n.pos < 0 {
		return "", false
	}
	n.pos--
	if n.pos == -1 {
		return n.draft, true
	}
	return n.queries[n.pos], true
}

// Reset returns to the edit line
func (n *Navigator) Reset() {
	n.pos = -1
	n.draft = ""
}

// Push records query as the newest entry and resets the position
func (n *Navigator) Push(query string) {
	if query == "" {
		return
	}
	out := []string{query}
	for _, q := range n.queries {
		if q != query {
			out = append(out, q)
		}
	}
	n.queries = out
	n.Reset()
}
