package diagram

// --- Enums ---

// Direction is the primary layout axis of a flowchart.
type Direction string

const (
	DirTopDown   Direction = "TD"
	DirTopBottom Direction = "TB" // alias of TD
	DirLeftRight Direction = "LR"
	DirRightLeft Direction = "RL"
	DirBottomTop Direction = "BT"
)

// Shape classifies the outline drawn around a node label.
type Shape string

const (
	ShapeBox     Shape = "box"     // id[Label]
	ShapeRound   Shape = "round"   // id(Label)
	ShapeDiamond Shape = "diamond" // id{Label}
	ShapeCircle  Shape = "circle"  // id((Label))
)

// EdgeStyle distinguishes arrowed from plain connections.
type EdgeStyle string

const (
	EdgeArrow EdgeStyle = "arrow" // -->
	EdgeOpen  EdgeStyle = "open"  // ---
)

// --- Models ---

// Node is a single vertex of a parsed flowchart.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Shape Shape  `json:"shape"`
}

// Edge connects two nodes, optionally labeled.
type Edge struct {
	From  string    `json:"from"`
	To    string    `json:"to"`
	Label string    `json:"label,omitempty"`
	Style EdgeStyle `json:"style"`
}

// Graph is the parsed form of a flowchart description.
type Graph struct {
	Direction Direction `json:"direction"`
	Nodes     []*Node   `json:"nodes"`
	Edges     []*Edge   `json:"edges"`

	byID map[string]*Node
}

// NewGraph returns an empty graph with the given direction.
func NewGraph(dir Direction) *Graph {
	return &Graph{
		Direction: dir,
		byID:      make(map[string]*Node),
	}
}

// Node returns the node with the given ID, or nil.
func (g *Graph) Node(id string) *Node {
	return g.byID[id]
}

// declare adds a node if unknown, or upgrades an existing one when the
// reference carries an explicit shape block. Bare references never
// overwrite an earlier explicit declaration.
func (g *Graph) declare(id, label string, shape Shape, explicit bool) *Node {
	if n, ok := g.byID[id]; ok {
		if explicit {
			n.Label = label
			n.Shape = shape
		}
		return n
	}
	n := &Node{ID: id, Label: label, Shape: shape}
	g.byID[id] = n
	g.Nodes = append(g.Nodes, n)
	return n
}

// connect appends an edge, declaring endpoints as bare boxes if needed.
func (g *Graph) connect(from, to, label string, style EdgeStyle) {
	g.declare(from, from, ShapeBox, false)
	g.declare(to, to, ShapeBox, false)
	g.Edges = append(g.Edges, &Edge{From: from, To: to, Label: label, Style: style})
}
