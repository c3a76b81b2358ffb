// Package stack declares CloudFormation templates as an explicit resource DAG
// and renders, graphs and lints them.
package stack

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

const formatVersion = "2010-09-09"

var (
	ErrUnknownDependency = errors.New("unknown dependency")
	ErrDuplicateID       = errors.New("duplicate logical id")
	ErrCycle             = errors.New("circular dependency detected")
)

type Parameter struct {
	Type        string `json:"Type"`
	Description string `json:"Description,omitempty"`
	Default     string `json:"Default,omitempty"`
}

type Output struct {
	Description string `json:"Description,omitempty"`
	Value       any    `json:"Value"`
}

// Declaration is one resource of the stack. DependsOn lists logical ids that
// must be created first.
type Declaration struct {
	LogicalID  string
	Type       string
	Properties any
	DependsOn  []string
}

// Resource is the serialized form of a Declaration.
type Resource struct {
	Type       string   `json:"Type"`
	DependsOn  []string `json:"DependsOn,omitempty"`
	Properties any      `json:"Properties,omitempty"`
}

type Template struct {
	AWSTemplateFormatVersion string               `json:"AWSTemplateFormatVersion"`
	Description              string               `json:"Description,omitempty"`
	Parameters               map[string]Parameter `json:"Parameters,omitempty"`
	Resources                map[string]Resource  `json:"Resources"`
	Outputs                  map[string]Output    `json:"Outputs,omitempty"`
}

// Stack collects parameters, declarations and outputs in the order they were added.
type Stack struct {
	Name        string
	Description string

	paramNames []string
	params     map[string]Parameter
	decls      []Declaration
	outputs    map[string]Output
}

func New(name, description string) *Stack {
	return &Stack{
		Name:        name,
		Description: description,
		params:      map[string]Parameter{},
		outputs:     map[string]Output{},
	}
}

// AddParameter declares a String parameter and returns its name.
func (s *Stack) AddParameter(name, description string) string {
	if _, ok := s.params[name]; !ok {
		s.paramNames = append(s.paramNames, name)
	}
	s.params[name] = Parameter{Type: "String", Description: description}
	return name
}

func (s *Stack) Parameters() []string {
	return append([]string(nil), s.paramNames...)
}

// Add stores a copy of d. Later changes to d do not reach the stack.
func (s *Stack) Add(d Declaration) {
	s.decls = append(s.decls, d)
}

func (s *Stack) AddOutput(name, description string, value any) {
	s.outputs[name] = Output{Description: description, Value: value}
}

func (s *Stack) Declarations() []Declaration {
	return append([]Declaration(nil), s.decls...)
}

// Declaration looks up a resource by logical id.
func (s *Stack) Declaration(id string) (Declaration, bool) {
	for _, d := range s.decls {
		if d.LogicalID == id {
			return d, true
		}
	}
	return Declaration{}, false
}

// Order returns the declarations sorted so every resource follows the
// resources it depends on. Ties are broken by logical id.
func (s *Stack) Order() ([]Declaration, error) {
	byID := make(map[string]Declaration, len(s.decls))
	for _, d := range s.decls {
		if _, dup := byID[d.LogicalID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, d.LogicalID)
		}
		byID[d.LogicalID] = d
	}

	dependents := make(map[string][]string, len(byID))
	inDegree := make(map[string]int, len(byID))
	for id := range byID {
		inDegree[id] = 0
	}
	for id, d := range byID {
		for _, dep := range d.DependsOn {
			if _, ok := byID[dep]; !ok {
				return nil, fmt.Errorf("%w: %s depends on %s", ErrUnknownDependency, id, dep)
			}
			dependents[dep] = append(dependents[dep], id)
			inDegree[id]++
		}
	}

	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	out := make([]Declaration, 0, len(byID))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		out = append(out, byID[id])

		for _, next := range dependents[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
				sort.Strings(queue)
			}
		}
	}

	if len(out) != len(byID) {
		return nil, findCycle(byID)
	}
	return out, nil
}

func findCycle(byID map[string]Declaration) error {
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	visited := map[string]bool{}
	onPath := map[string]bool{}
	var path, cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		visited[id] = true
		onPath[id] = true
		path = append(path, id)
		for _, dep := range byID[id].DependsOn {
			if onPath[dep] {
				for i, p := range path {
					if p == dep {
						cycle = append(append([]string(nil), path[i:]...), dep)
						break
					}
				}
				return true
			}
			if !visited[dep] && visit(dep) {
				return true
			}
		}
		path = path[:len(path)-1]
		onPath[id] = false
		return false
	}

	for _, id := range ids {
		if !visited[id] && visit(id) {
			return fmt.Errorf("%w: %s", ErrCycle, strings.Join(cycle, " -> "))
		}
	}
	return ErrCycle
}

// Template assembles the CloudFormation document. It fails when the
// declarations do not form a DAG.
func (s *Stack) Template() (*Template, error) {
	if _, err := s.Order(); err != nil {
		return nil, err
	}

	t := &Template{
		AWSTemplateFormatVersion: formatVersion,
		Description:              s.Description,
		Resources:                make(map[string]Resource, len(s.decls)),
	}
	if len(s.params) > 0 {
		t.Parameters = make(map[string]Parameter, len(s.params))
		for k, v := range s.params {
			t.Parameters[k] = v
		}
	}
	if len(s.outputs) > 0 {
		t.Outputs = make(map[string]Output, len(s.outputs))
		for k, v := range s.outputs {
			t.Outputs[k] = v
		}
	}
	for _, d := range s.decls {
		t.Resources[d.LogicalID] = Resource{
			Type:       d.Type,
			DependsOn:  d.DependsOn,
			Properties: d.Properties,
		}
	}
	return t, nil
}

// References reports the logical ids a declaration's properties point at,
// split into Ref and Fn::GetAtt targets.
func References(d Declaration) (refs, getAtts []string, err error) {
	raw, err := json.Marshal(d.Properties)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal %s properties: %w", d.LogicalID, err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, nil, err
	}

	seenRef := map[string]bool{}
	seenAtt := map[string]bool{}
	var walk func(any)
	walk = func(v any) {
		switch x := v.(type) {
		case map[string]any:
			if name, ok := x["Ref"].(string); ok && len(x) == 1 {
				if !seenRef[name] {
					seenRef[name] = true
					refs = append(refs, name)
				}
				return
			}
			if args, ok := x["Fn::GetAtt"].([]any); ok && len(x) == 1 && len(args) > 0 {
				if name, ok := args[0].(string); ok && !seenAtt[name] {
					seenAtt[name] = true
					getAtts = append(getAtts, name)
				}
				return
			}
			if tmpl, ok := x["Fn::Sub"].(string); ok && len(x) == 1 {
				for _, name := range subVariables(tmpl) {
					if !seenRef[name] {
						seenRef[name] = true
						refs = append(refs, name)
					}
				}
				return
			}
			keys := make([]string, 0, len(x))
			for k := range x {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walk(x[k])
			}
		case []any:
			for _, e := range x {
				walk(e)
			}
		}
	}
	walk(v)
	return refs, getAtts, nil
}

// subVariables extracts ${Name} placeholders from a Fn::Sub string, skipping
// pseudo parameters (AWS::Region) and attribute forms (Res.Attr).
func subVariables(s string) []string {
	var names []string
	for {
		start := strings.Index(s, "${")
		if start < 0 {
			return names
		}
		s = s[start+2:]
		end := strings.IndexByte(s, '}')
		if end < 0 {
			return names
		}
		name := s[:end]
		s = s[end+1:]
		if name == "" || strings.HasPrefix(name, "!") || strings.Contains(name, "::") || strings.Contains(name, ".") {
			continue
		}
		names = append(names, name)
	}
}
