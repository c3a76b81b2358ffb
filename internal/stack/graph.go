package stack

import (
	"io"
	"strings"

	"github.com/emicklei/dot"
)

type GraphFormat string

const (
	GraphDOT     GraphFormat = "dot"
	GraphMermaid GraphFormat = "mermaid"
)

// GraphOptions controls dependency graph output.
type GraphOptions struct {
	Format GraphFormat

	// IncludeParameters adds parameter nodes and the edges from resources
	// that reference them.
	IncludeParameters bool
}

// WriteGraph draws resources as boxes with an edge from each resource to
// what it depends on. Edges implied by Fn::GetAtt are blue.
func (s *Stack) WriteGraph(w io.Writer, opts GraphOptions) error {
	g, err := s.buildGraph(opts)
	if err != nil {
		return err
	}

	var out string
	if opts.Format == GraphMermaid {
		out = dot.MermaidGraph(g, dot.MermaidTopToBottom)
	} else {
		out = g.String()
	}
	_, err = io.WriteString(w, out)
	return err
}

func (s *Stack) GraphString(opts GraphOptions) (string, error) {
	var sb strings.Builder
	if err := s.WriteGraph(&sb, opts); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (s *Stack) buildGraph(opts GraphOptions) (*dot.Graph, error) {
	ordered, err := s.Order()
	if err != nil {
		return nil, err
	}

	g := dot.NewGraph(dot.Directed)
	g.Attr("rankdir", "TB")
	g.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})
	g.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	params := map[string]bool{}
	for _, p := range s.paramNames {
		params[p] = true
	}
	if opts.IncludeParameters {
		for _, p := range s.paramNames {
			n := g.Node(p)
			n.Attr("shape", "ellipse")
			n.Attr("style", "dashed")
			n.Label(p)
		}
	}

	for _, d := range ordered {
		g.Node(d.LogicalID).Label(d.LogicalID).Attr("tooltip", d.Type)
	}

	for _, d := range ordered {
		refs, getAtts, err := References(d)
		if err != nil {
			return nil, err
		}
		from := g.Node(d.LogicalID)

		drawn := map[string]bool{}
		for _, target := range getAtts {
			if _, ok := s.Declaration(target); !ok {
				continue
			}
			g.Edge(from, g.Node(target)).Attr("color", "blue")
			drawn[target] = true
		}
		for _, dep := range d.DependsOn {
			if drawn[dep] {
				continue
			}
			g.Edge(from, g.Node(dep))
			drawn[dep] = true
		}
		if !opts.IncludeParameters {
			continue
		}
		for _, target := range refs {
			if !params[target] || drawn[target] {
				continue
			}
			g.Edge(from, g.Node(target)).Attr("style", "dashed")
			drawn[target] = true
		}
	}
	return g, nil
}
