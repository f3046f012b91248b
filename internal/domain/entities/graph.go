package entities

// NodeKind is the category of a graph node.
type NodeKind string

const (
	NodeUnion   NodeKind = "union"
	NodePartner NodeKind = "partner"
	NodeMember  NodeKind = "member"
	NodeWallet  NodeKind = "wallet"
	NodeAsset   NodeKind = "asset"
)

// EdgeKind is the category of a graph edge.
type EdgeKind string

const (
	EdgeHasPartner   EdgeKind = "has_partner"
	EdgeHasMember    EdgeKind = "has_member"
	EdgeHasWallet    EdgeKind = "has_wallet"
	EdgeOwnsAsset    EdgeKind = "owns_asset"
	EdgeEarmarkedFor EdgeKind = "earmarked_for"
)

// IntentKind tags an action the UI may trigger from a node.
type IntentKind string

const (
	IntentOpenAcquisition IntentKind = "open_acquisition"
	IntentOpenMemberAdd   IntentKind = "open_member_add"
	IntentOpenSettings    IntentKind = "open_settings"
)

// Intent is a UI action carried by a node. The consumer dispatches on Kind;
// TargetID scopes the action (a union or member ID).
type Intent struct {
	Kind     IntentKind `json:"kind"`
	TargetID string     `json:"target_id"`
}

// Node is one vertex of the derived union graph.
type Node struct {
	ID       string            `json:"id"`
	Kind     NodeKind          `json:"kind"`
	Label    string            `json:"label"`
	EntityID string            `json:"entity_id,omitempty"`
	Details  map[string]string `json:"details,omitempty"`
	Intents  []Intent          `json:"intents,omitempty"`
}

// Edge connects two nodes by node ID.
type Edge struct {
	ID     string   `json:"id"`
	Kind   EdgeKind `json:"kind"`
	Source string   `json:"source"`
	Target string   `json:"target"`
}

// Graph is the node/edge projection of a union. It owns no state beyond
// identifiers mirroring entity identifiers.
type Graph struct {
	UnionID string `json:"union_id"`
	Nodes   []Node `json:"nodes"`
	Edges   []Edge `json:"edges"`
}

// Node returns the node with the given ID, or nil.
func (g *Graph) Node(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// NodesOfKind returns the nodes of one kind, in graph order.
func (g *Graph) NodesOfKind(kind NodeKind) []Node {
	var out []Node
	for i := range g.Nodes {
		if g.Nodes[i].Kind == kind {
			out = append(out, g.Nodes[i])
		}
	}
	return out
}
