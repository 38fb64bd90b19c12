// Package diagram builds the org-chart graph from recall roster rows: one
// node per person, one edge from each supervisor to their subordinate.
package diagram

import (
	"strconv"
	"strings"

	appLog "rostercal/internal/log"
	"rostercal/internal/mapping"
	"rostercal/internal/model"
)

// Entry is one roster line.
type Entry struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Supervisor string `json:"supervisor"`
}

type Node struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is what the renderer consumes. Nodes are in first-appearance order.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

var (
	SupervisorTokens = []string{"supervisor", "reportsto", "manager", "boss", "rater"}
	PhoneTokens      = []string{"phone", "cell", "mobile", "tel", "contact", "dsn"}
)

// Columns is the detected roster layout. An empty field means not found.
type Columns struct {
	Name       string
	Phone      string
	Supervisor string
}

// DetectColumns finds the roster columns. Headers that are exactly
// "supervisor", "phone" or "name" win outright. Otherwise supervisor is
// matched first since its header often contains "name" too, skipping
// "Supervisor Phone" style headers; Name falls back to the first remaining
// column.
func DetectColumns(cols []string) Columns {
	var c Columns
	taken := make(map[string]bool)
	exact := func(token string) string {
		for _, col := range cols {
			if !taken[col] && mapping.NormalizeHeader(col) == token {
				taken[col] = true
				return col
			}
		}
		return ""
	}
	pick := func(tokens, avoid []string) string {
		for _, col := range cols {
			n := mapping.NormalizeHeader(col)
			if taken[col] || containsAny(n, avoid) {
				continue
			}
			if containsAny(n, tokens) {
				taken[col] = true
				return col
			}
		}
		return ""
	}

	c.Supervisor = exact("supervisor")
	c.Phone = exact("phone")
	c.Name = exact("name")
	if c.Supervisor == "" {
		c.Supervisor = pick(SupervisorTokens, PhoneTokens)
	}
	if c.Phone == "" {
		if c.Phone = pick(PhoneTokens, SupervisorTokens); c.Phone == "" {
			c.Phone = pick(PhoneTokens, nil)
		}
	}
	if c.Name == "" {
		c.Name = pick(mapping.NameTokens, nil)
	}
	if c.Name == "" {
		for _, col := range cols {
			if !taken[col] {
				c.Name = col
				break
			}
		}
	}
	return c
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// FromRows reads entries from raw roster rows.
func FromRows(rows []model.RawRow) []Entry {
	if len(rows) == 0 {
		return nil
	}
	c := DetectColumns(rows[0].Columns())
	appLog.Debug("diagram columns detected", "name", c.Name, "phone", c.Phone, "supervisor", c.Supervisor)

	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, Entry{
			Name:       cell(r, c.Name),
			Phone:      cell(r, c.Phone),
			Supervisor: cell(r, c.Supervisor),
		})
	}
	return out
}

// Build creates one node per distinct nonblank name and one edge per entry
// whose supervisor resolves to a node. Unresolvable supervisors are dropped.
//
// Names that sanitize to the same id get "_2", "_3", ... in order of first
// appearance. A supervisor is resolved by display name first and by
// sanitized id only when that id belongs to a single person.
func Build(entries []Entry) Graph {
	g := Graph{Nodes: []Node{}, Edges: []Edge{}}

	byName := make(map[string]int)    // display name -> node index
	byBase := make(map[string][]int)  // unsuffixed id -> node indexes
	used := make(map[string]bool)

	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		if i, ok := byName[name]; ok {
			if g.Nodes[i].Phone == "" {
				g.Nodes[i].Phone = strings.TrimSpace(e.Phone)
			}
			continue
		}

		base := Sanitize(name)
		id := base
		for n := 2; used[id]; n++ {
			id = base + "_" + strconv.Itoa(n)
		}
		used[id] = true

		byName[name] = len(g.Nodes)
		byBase[base] = append(byBase[base], len(g.Nodes))
		g.Nodes = append(g.Nodes, Node{ID: id, Name: name, Phone: strings.TrimSpace(e.Phone)})
	}

	resolve := func(s string) (string, bool) {
		if i, ok := byName[s]; ok {
			return g.Nodes[i].ID, true
		}
		if idx := byBase[Sanitize(s)]; len(idx) == 1 {
			return g.Nodes[idx[0]].ID, true
		}
		return "", false
	}

	seen := make(map[Edge]bool)
	dropped := 0
	for _, e := range entries {
		name, sup := strings.TrimSpace(e.Name), strings.TrimSpace(e.Supervisor)
		if name == "" || sup == "" {
			continue
		}
		from, ok := resolve(sup)
		if !ok {
			dropped++
			continue
		}
		edge := Edge{From: from, To: g.Nodes[byName[name]].ID}
		if seen[edge] {
			continue
		}
		seen[edge] = true
		g.Edges = append(g.Edges, edge)
	}

	appLog.Debug("diagram built", "nodes", len(g.Nodes), "edges", len(g.Edges), "dropped", dropped)
	return g
}

// Sanitize reduces s to [A-Za-z0-9_], collapsing runs of underscores and
// trimming them from both ends. An empty result becomes "node".
func Sanitize(s string) string {
	var b strings.Builder
	under := false
	for _, r := range s {
		ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			r = '_'
		}
		if r == '_' {
			if under {
				continue
			}
			under = true
		} else {
			under = false
		}
		b.WriteRune(r)
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "node"
	}
	return out
}

// Mermaid renders the graph as a top-down flowchart.
func (g Graph) Mermaid() string {
	var b strings.Builder
	b.WriteString("graph TD\n")
	for _, n := range g.Nodes {
		label := escapeLabel(n.Name)
		if n.Phone != "" {
			label += "<br/>" + escapeLabel(n.Phone)
		}
		b.WriteString("    " + n.ID + "[\"" + label + "\"]\n")
	}
	for _, e := range g.Edges {
		b.WriteString("    " + e.From + " --> " + e.To + "\n")
	}
	return b.String()
}

func escapeLabel(s string) string {
	return strings.NewReplacer(`"`, "#quot;", "<", "#lt;", ">", "#gt;").Replace(s)
}

func cell(r model.RawRow, col string) string {
	if col == "" {
		return ""
	}
	return strings.TrimSpace(r.Get(col))
}
