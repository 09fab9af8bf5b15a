package models

import "encoding/json"

// NodeKind identifies the type of a workflow node. Only approval nodes
// affect routing; the remaining kinds are carried through for the designer.
type NodeKind string

const (
	NodeStart        NodeKind = "start"
	NodeEnd          NodeKind = "end"
	NodeApproval     NodeKind = "approval"
	NodeDecision     NodeKind = "decision"
	NodeNotification NodeKind = "notification"
	NodeForm         NodeKind = "form"
)

var validNodeKinds = map[NodeKind]bool{
	NodeStart:        true,
	NodeEnd:          true,
	NodeApproval:     true,
	NodeDecision:     true,
	NodeNotification: true,
	NodeForm:         true,
}

// IsValid returns true if the kind is a known node kind
func (k NodeKind) IsValid() bool {
	return validNodeKinds[k]
}

// String returns the string representation of the kind
func (k NodeKind) String() string {
	return string(k)
}

// ApprovalConfig holds configuration for approval nodes. Approver is
// optional at storage time; a missing approver triggers the applicant
// fallback at routing time.
type ApprovalConfig struct {
	Approver string `json:"approver,omitempty"`
}

// NotificationConfig holds configuration for notification nodes
type NotificationConfig struct {
	Recipients []string `json:"recipients,omitempty"`
}

// FormConfig holds configuration for form nodes
type FormConfig struct {
	FormKey string `json:"formKey,omitempty"`
}

// Node is a single node in a workflow graph. The kind-specific config is
// kept as a tagged union: exactly the pointer matching Kind is populated.
type Node struct {
	ID    string
	Kind  NodeKind
	Label string

	Approval     *ApprovalConfig
	Notification *NotificationConfig
	Form         *FormConfig
}

// nodeJSON is the wire shape produced by the graphical designer: the
// kind-specific fields live in a flat "data" object.
type nodeJSON struct {
	ID   string    `json:"id"`
	Kind NodeKind  `json:"type"`
	Data *nodeData `json:"data,omitempty"`
}

type nodeData struct {
	Label      string   `json:"label,omitempty"`
	Approver   string   `json:"approver,omitempty"`
	Recipients []string `json:"recipients,omitempty"`
	FormKey    string   `json:"formKey,omitempty"`
}

// UnmarshalJSON decodes the designer wire format, routing data fields into
// the config struct matching the node kind.
func (n *Node) UnmarshalJSON(b []byte) error {
	var raw nodeJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	n.ID = raw.ID
	n.Kind = raw.Kind
	n.Approval = nil
	n.Notification = nil
	n.Form = nil

	if raw.Data == nil {
		return nil
	}

	n.Label = raw.Data.Label
	switch raw.Kind {
	case NodeApproval:
		n.Approval = &ApprovalConfig{Approver: raw.Data.Approver}
	case NodeNotification:
		n.Notification = &NotificationConfig{Recipients: raw.Data.Recipients}
	case NodeForm:
		n.Form = &FormConfig{FormKey: raw.Data.FormKey}
	}

	return nil
}

// MarshalJSON encodes back to the designer wire format
func (n Node) MarshalJSON() ([]byte, error) {
	raw := nodeJSON{
		ID:   n.ID,
		Kind: n.Kind,
	}

	data := nodeData{Label: n.Label}
	hasData := n.Label != ""

	switch {
	case n.Approval != nil:
		data.Approver = n.Approval.Approver
		hasData = true
	case n.Notification != nil:
		data.Recipients = n.Notification.Recipients
		hasData = true
	case n.Form != nil:
		data.FormKey = n.Form.FormKey
		hasData = true
	}

	if hasData {
		raw.Data = &data
	}

	return json.Marshal(raw)
}

// ConfiguredApprover returns the approver configured on an approval node,
// or "" when the node is not an approval node or has no approver set.
func (n *Node) ConfiguredApprover() string {
	if n.Kind != NodeApproval || n.Approval == nil {
		return ""
	}
	return n.Approval.Approver
}

// Edge connects two nodes. Condition is persisted for forward compatibility
// with decision nodes but is never evaluated by the engine: routing always
// takes the lowest-priority outgoing edge.
type Edge struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Target    string `json:"target"`
	Condition string `json:"condition,omitempty"`
	Priority  int    `json:"priority,omitempty"`
}

// Graph is a workflow definition graph as authored by the designer
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NodeByID returns the node with the given id, or nil
func (g *Graph) NodeByID(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// StartNode returns the graph's start node, or nil
func (g *Graph) StartNode() *Node {
	for i := range g.Nodes {
		if g.Nodes[i].Kind == NodeStart {
			return &g.Nodes[i]
		}
	}
	return nil
}

// FirstEdgeFrom returns the outgoing edge of nodeID with the lowest
// priority, ties broken by insertion order. Returns nil if the node has no
// outgoing edges.
func (g *Graph) FirstEdgeFrom(nodeID string) *Edge {
	var best *Edge
	for i := range g.Edges {
		e := &g.Edges[i]
		if e.Source != nodeID {
			continue
		}
		if best == nil || e.Priority < best.Priority {
			best = e
		}
	}
	return best
}

// Clone returns a deep copy of the graph
func (g *Graph) Clone() Graph {
	out := Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	copy(out.Edges, g.Edges)
	for i, n := range g.Nodes {
		cn := n
		if n.Approval != nil {
			ac := *n.Approval
			cn.Approval = &ac
		}
		if n.Notification != nil {
			nc := *n.Notification
			nc.Recipients = append([]string(nil), n.Notification.Recipients...)
			cn.Notification = &nc
		}
		if n.Form != nil {
			fc := *n.Form
			cn.Form = &fc
		}
		out.Nodes[i] = cn
	}
	return out
}
