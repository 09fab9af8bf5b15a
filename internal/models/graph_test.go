package models

import (
	"encoding/json"
	"testing"
)

func testGraph() Graph {
	return Graph{
		Nodes: []Node{
			{ID: "start", Kind: NodeStart},
			{ID: "A", Kind: NodeApproval, Label: "Manager review", Approval: &ApprovalConfig{Approver: "Alice"}},
			{ID: "end", Kind: NodeEnd},
		},
		Edges: []Edge{
			{ID: "e1", Source: "start", Target: "A"},
			{ID: "e2", Source: "A", Target: "end"},
		},
	}
}

func TestGraph_NodeByID(t *testing.T) {
	g := testGraph()

	if n := g.NodeByID("A"); n == nil || n.Kind != NodeApproval {
		t.Errorf("NodeByID(A) = %v, want approval node", n)
	}
	if n := g.NodeByID("missing"); n != nil {
		t.Errorf("NodeByID(missing) = %v, want nil", n)
	}
}

func TestGraph_StartNode(t *testing.T) {
	g := testGraph()
	if n := g.StartNode(); n == nil || n.ID != "start" {
		t.Errorf("StartNode() = %v, want start", n)
	}

	empty := Graph{}
	if n := empty.StartNode(); n != nil {
		t.Errorf("StartNode() on empty graph = %v, want nil", n)
	}
}

func TestGraph_FirstEdgeFrom(t *testing.T) {
	tests := []struct {
		name   string
		edges  []Edge
		nodeID string
		want   string // edge id, "" for nil
	}{
		{
			name:   "single outgoing edge",
			edges:  []Edge{{ID: "e1", Source: "A", Target: "B"}},
			nodeID: "A",
			want:   "e1",
		},
		{
			name:   "no outgoing edge",
			edges:  []Edge{{ID: "e1", Source: "A", Target: "B"}},
			nodeID: "B",
			want:   "",
		},
		{
			name: "lowest priority wins",
			edges: []Edge{
				{ID: "e1", Source: "A", Target: "B", Priority: 2},
				{ID: "e2", Source: "A", Target: "C", Priority: 1},
			},
			nodeID: "A",
			want:   "e2",
		},
		{
			name: "ties broken by insertion order",
			edges: []Edge{
				{ID: "e1", Source: "A", Target: "B", Priority: 1},
				{ID: "e2", Source: "A", Target: "C", Priority: 1},
			},
			nodeID: "A",
			want:   "e1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Graph{Edges: tt.edges}
			e := g.FirstEdgeFrom(tt.nodeID)
			got := ""
			if e != nil {
				got = e.ID
			}
			if got != tt.want {
				t.Errorf("FirstEdgeFrom(%s) = %q, want %q", tt.nodeID, got, tt.want)
			}
		})
	}
}

func TestNode_JSONRoundTrip(t *testing.T) {
	wire := `{"id":"A","type":"approval","data":{"label":"Manager review","approver":"Alice"}}`

	var n Node
	if err := json.Unmarshal([]byte(wire), &n); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if n.Kind != NodeApproval {
		t.Errorf("Kind = %s, want approval", n.Kind)
	}
	if n.Label != "Manager review" {
		t.Errorf("Label = %q, want Manager review", n.Label)
	}
	if n.Approval == nil || n.Approval.Approver != "Alice" {
		t.Errorf("Approval = %v, want approver Alice", n.Approval)
	}
	if n.Notification != nil || n.Form != nil {
		t.Error("config union should only populate the approval branch")
	}

	out, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var back Node
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal(round trip) error = %v", err)
	}
	if back.Approval == nil || back.Approval.Approver != "Alice" {
		t.Errorf("round trip lost approver: %v", back.Approval)
	}
}

func TestNode_UnmarshalIgnoresForeignConfig(t *testing.T) {
	// An end node with designer leftovers in data must not grow a config.
	wire := `{"id":"end","type":"end","data":{"label":"Done","approver":"Alice"}}`

	var n Node
	if err := json.Unmarshal([]byte(wire), &n); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if n.Approval != nil {
		t.Errorf("end node should carry no approval config, got %v", n.Approval)
	}
	if n.ConfiguredApprover() != "" {
		t.Errorf("ConfiguredApprover() = %q, want empty", n.ConfiguredApprover())
	}
}

func TestEdge_ConditionRoundTrip(t *testing.T) {
	wire := `{"id":"e1","source":"A","target":"B","condition":"days > 3","priority":2}`

	var e Edge
	if err := json.Unmarshal([]byte(wire), &e); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if e.Condition != "days > 3" {
		t.Errorf("Condition = %q, want preserved", e.Condition)
	}

	out, _ := json.Marshal(e)
	var back Edge
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal(round trip) error = %v", err)
	}
	if back.Condition != e.Condition || back.Priority != e.Priority {
		t.Error("condition/priority lost in round trip")
	}
}

func TestGraph_Clone(t *testing.T) {
	g := testGraph()
	c := g.Clone()

	c.Nodes[1].Approval.Approver = "Mallory"
	c.Edges[0].Target = "elsewhere"

	if g.Nodes[1].Approval.Approver != "Alice" {
		t.Error("Clone() shares approval config with the source")
	}
	if g.Edges[0].Target != "A" {
		t.Error("Clone() shares edges with the source")
	}
}
