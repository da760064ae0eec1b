package diagram

import "math"

// Geometry constants for the layered layout, in SVG user units.
const (
	nodePadX     = 14.0
	minNodeWidth = 54.0
	nodeHeight   = 36.0
	diamondPad   = 26.0
	rankGap      = 58.0
	nodeGap      = 44.0
	svgMargin    = 16.0
	selfLoopSpan = 36.0
)

// placedNode is a node with its computed bounding box (top-left anchored).
type placedNode struct {
	*Node
	X, Y, W, H float64
}

func (p placedNode) cx() float64 { return p.X + p.W/2 }
func (p placedNode) cy() float64 { return p.Y + p.H/2 }

// placedEdge is an edge routed between two placed nodes. Self edges are
// drawn as a small polyline loop instead of a segment.
type placedEdge struct {
	*Edge
	X1, Y1, X2, Y2 float64
	LabelX, LabelY float64
	Self           bool
	Loop           [][2]float64
}

// layoutResult is the scene geometry handed to the SVG emitter.
type layoutResult struct {
	Nodes  []placedNode
	Edges  []placedEdge
	Width  float64
	Height float64
}

// layout sizes every node from its label, assigns BFS ranks, stacks the
// ranks along the direction axis, and routes edges between box borders.
func layout(g *Graph) (*layoutResult, error) {
	sizes := make(map[string]placedNode, len(g.Nodes))
	for _, n := range g.Nodes {
		w, h, err := nodeSize(n)
		if err != nil {
			return nil, err
		}
		sizes[n.ID] = placedNode{Node: n, W: w, H: h}
	}

	rows := rankRows(g)

	horizontal := g.Direction == DirLeftRight || g.Direction == DirRightLeft
	lr := placeRows(rows, sizes, horizontal)

	switch g.Direction {
	case DirBottomTop:
		for i := range lr.Nodes {
			lr.Nodes[i].Y = lr.Height - lr.Nodes[i].Y - lr.Nodes[i].H
		}
	case DirRightLeft:
		for i := range lr.Nodes {
			lr.Nodes[i].X = lr.Width - lr.Nodes[i].X - lr.Nodes[i].W
		}
	}

	placed := make(map[string]placedNode, len(lr.Nodes))
	for _, pn := range lr.Nodes {
		placed[pn.ID] = pn
	}
	for _, e := range g.Edges {
		pe := routeEdge(e, placed[e.From], placed[e.To])
		if pe.Self {
			// loops extend past the node's right border
			for _, pt := range pe.Loop {
				lr.Width = math.Max(lr.Width, pt[0]+svgMargin)
			}
		}
		lr.Edges = append(lr.Edges, pe)
	}
	return lr, nil
}

// nodeSize derives a node's box from its label measure and shape.
func nodeSize(n *Node) (w, h float64, err error) {
	textW, err := measure(n.Label)
	if err != nil {
		return 0, 0, err
	}
	w = math.Max(minNodeWidth, textW+2*nodePadX)
	h = nodeHeight
	switch n.Shape {
	case ShapeDiamond:
		w += diamondPad
		h += 10
	case ShapeCircle:
		d := math.Max(nodeHeight+8, w)
		w, h = d, d
	}
	return w, h, nil
}

// rankRows groups nodes into BFS ranks. Roots are nodes without inbound
// edges, visited in declaration order; nodes reachable only through
// cycles start fresh rows of their own.
func rankRows(g *Graph) [][]*Node {
	indeg := make(map[string]int, len(g.Nodes))
	adj := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		if e.From == e.To {
			continue
		}
		adj[e.From] = append(adj[e.From], e.To)
		indeg[e.To]++
	}

	rank := make(map[string]int, len(g.Nodes))
	visited := make(map[string]bool, len(g.Nodes))
	bfs := func(start string) {
		queue := []string{start}
		visited[start] = true
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			for _, next := range adj[id] {
				if visited[next] {
					continue
				}
				visited[next] = true
				rank[next] = rank[id] + 1
				queue = append(queue, next)
			}
		}
	}
	for _, n := range g.Nodes {
		if indeg[n.ID] == 0 && !visited[n.ID] {
			rank[n.ID] = 0
			bfs(n.ID)
		}
	}
	for _, n := range g.Nodes {
		if !visited[n.ID] {
			rank[n.ID] = 0
			bfs(n.ID)
		}
	}

	maxRank := 0
	for _, r := range rank {
		maxRank = max(maxRank, r)
	}
	rows := make([][]*Node, maxRank+1)
	for _, n := range g.Nodes {
		r := rank[n.ID]
		rows[r] = append(rows[r], n)
	}
	return rows
}

// placeRows stacks ranks along the primary axis and centers each rank
// on the cross axis.
func placeRows(rows [][]*Node, sizes map[string]placedNode, horizontal bool) *layoutResult {
	lr := &layoutResult{}

	primary := make([]float64, len(rows)) // extent along the rank axis
	cross := make([]float64, len(rows))   // extent across it
	for r, row := range rows {
		for i, n := range row {
			sz := sizes[n.ID]
			if horizontal {
				primary[r] = math.Max(primary[r], sz.W)
				cross[r] += sz.H
			} else {
				primary[r] = math.Max(primary[r], sz.H)
				cross[r] += sz.W
			}
			if i > 0 {
				cross[r] += nodeGap
			}
		}
	}

	var totalPrimary, totalCross float64
	for r := range rows {
		totalPrimary += primary[r]
		if r > 0 {
			totalPrimary += rankGap
		}
		totalCross = math.Max(totalCross, cross[r])
	}

	p := svgMargin
	for r, row := range rows {
		c := svgMargin + (totalCross-cross[r])/2
		for _, n := range row {
			sz := sizes[n.ID]
			if horizontal {
				sz.X = p + (primary[r]-sz.W)/2
				sz.Y = c
				c += sz.H + nodeGap
			} else {
				sz.X = c
				sz.Y = p + (primary[r]-sz.H)/2
				c += sz.W + nodeGap
			}
			lr.Nodes = append(lr.Nodes, sz)
		}
		p += primary[r] + rankGap
	}

	if horizontal {
		lr.Width = totalPrimary + 2*svgMargin
		lr.Height = totalCross + 2*svgMargin
	} else {
		lr.Width = totalCross + 2*svgMargin
		lr.Height = totalPrimary + 2*svgMargin
	}
	return lr
}

// routeEdge clips the center-to-center segment at each node's border,
// or builds a right-hand loop for self edges.
func routeEdge(e *Edge, from, to placedNode) placedEdge {
	pe := placedEdge{Edge: e}
	if e.From == e.To {
		pe.Self = true
		right := from.X + from.W
		cy := from.cy()
		pe.Loop = [][2]float64{
			{right, cy - 8},
			{right + selfLoopSpan, cy - 8},
			{right + selfLoopSpan, cy + 8},
			{right, cy + 8},
		}
		pe.LabelX = right + selfLoopSpan + 6
		pe.LabelY = cy
		return pe
	}

	pe.X1, pe.Y1 = clipToBorder(from, to.cx(), to.cy())
	pe.X2, pe.Y2 = clipToBorder(to, from.cx(), from.cy())
	pe.LabelX = (pe.X1 + pe.X2) / 2
	pe.LabelY = (pe.Y1+pe.Y2)/2 - 6
	return pe
}

// clipToBorder returns the point where the ray from n's center toward
// (tx, ty) crosses n's outline. Circles clip at their radius; other
// shapes clip at the bounding box.
func clipToBorder(n placedNode, tx, ty float64) (float64, float64) {
	cx, cy := n.cx(), n.cy()
	dx, dy := tx-cx, ty-cy
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return cx, cy
	}
	if n.Shape == ShapeCircle {
		r := n.W / 2
		return cx + dx/dist*r, cy + dy/dist*r
	}
	t := math.Inf(1)
	if dx != 0 {
		t = math.Min(t, (n.W/2)/math.Abs(dx))
	}
	if dy != 0 {
		t = math.Min(t, (n.H/2)/math.Abs(dy))
	}
	return cx + dx*t, cy + dy*t
}
