package diagram

import (
	"fmt"
	"strings"
)

// maxInput bounds accepted description size.
const maxInput = 256 << 10

// ParseError reports a rejected flowchart description. The message format
// ("Parse error at line N: detail") is stable; consumers show it verbatim.
type ParseError struct {
	Line   int
	Detail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Parse error at line %d: %s", e.Line, e.Detail)
}

func parseErrorf(line int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Detail: fmt.Sprintf(format, args...)}
}

// keywords of the full flowchart language that this subset rejects.
var reservedWords = map[string]bool{
	"subgraph":  true,
	"end":       true,
	"direction": true,
	"style":     true,
	"linkStyle": true,
	"classDef":  true,
	"class":     true,
	"click":     true,
}

// Parse turns a flowchart description into a Graph. The first
// non-blank, non-comment line must be a "graph" or "flowchart" header;
// every later line holds one or more node/edge statements separated by
// semicolons. Line numbers in errors are 1-based.
func Parse(text string) (*Graph, error) {
	if len(text) > maxInput {
		return nil, parseErrorf(1, "input exceeds %d bytes", maxInput)
	}

	var g *Graph
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "%%") {
			continue
		}
		if g == nil {
			dir, err := parseHeader(line, lineNo)
			if err != nil {
				return nil, err
			}
			g = NewGraph(dir)
			continue
		}
		for _, stmt := range splitStatements(line) {
			if err := parseStatement(g, stmt, lineNo); err != nil {
				return nil, err
			}
		}
	}
	if g == nil {
		return nil, parseErrorf(1, "missing graph header")
	}
	return g, nil
}

func parseHeader(line string, lineNo int) (Direction, error) {
	fields := strings.Fields(line)
	if fields[0] != "graph" && fields[0] != "flowchart" {
		return "", parseErrorf(lineNo, "expected 'graph' or 'flowchart' header, got %q", fields[0])
	}
	if len(fields) == 1 {
		return DirTopDown, nil
	}
	if len(fields) > 2 {
		return "", parseErrorf(lineNo, "trailing tokens after direction %q", fields[1])
	}
	switch d := Direction(fields[1]); d {
	case DirTopDown, DirTopBottom, DirLeftRight, DirRightLeft, DirBottomTop:
		return d, nil
	}
	return "", parseErrorf(lineNo, "unknown direction %q", fields[1])
}

// splitStatements breaks "A-->B; B-->C;" into its semicolon-separated parts.
func splitStatements(line string) []string {
	var out []string
	for _, part := range strings.Split(line, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseStatement consumes one statement: a node reference, optionally
// followed by any number of edge-op/node-reference pairs (chains).
func parseStatement(g *Graph, stmt string, lineNo int) error {
	s := &stmtScanner{src: stmt, line: lineNo}
	if w := s.peekWord(); reservedWords[w] {
		return parseErrorf(lineNo, "unsupported keyword %q", w)
	}

	from, err := s.node(g)
	if err != nil {
		return err
	}
	for {
		s.skipSpace()
		if s.eof() {
			return nil
		}
		style, label, err := s.edgeOp()
		if err != nil {
			return err
		}
		s.skipSpace()
		to, err := s.node(g)
		if err != nil {
			return err
		}
		g.connect(from, to, label, style)
		from = to
	}
}

// --- Statement scanner ---

type stmtScanner struct {
	src  string
	pos  int
	line int
}

func (s *stmtScanner) rest() string { return s.src[s.pos:] }
func (s *stmtScanner) eof() bool    { return s.pos >= len(s.src) }

func (s *stmtScanner) skipSpace() {
	for !s.eof() && (s.src[s.pos] == ' ' || s.src[s.pos] == '\t') {
		s.pos++
	}
}

func (s *stmtScanner) consume(tok string) bool {
	if strings.HasPrefix(s.rest(), tok) {
		s.pos += len(tok)
		return true
	}
	return false
}

func isIdentChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

func (s *stmtScanner) ident() string {
	start := s.pos
	for !s.eof() && isIdentChar(s.src[s.pos]) {
		s.pos++
	}
	return s.src[start:s.pos]
}

// peekWord returns the identifier at the cursor without consuming it.
func (s *stmtScanner) peekWord() string {
	save := s.pos
	w := s.ident()
	s.pos = save
	return w
}

// node parses an identifier plus optional shape block and records it.
// Returns the node ID.
func (s *stmtScanner) node(g *Graph) (string, error) {
	id := s.ident()
	if id == "" {
		return "", parseErrorf(s.line, "expected node identifier before %q", s.rest())
	}

	var (
		shape    Shape
		closeTok string
	)
	switch {
	case s.consume("(("):
		shape, closeTok = ShapeCircle, "))"
	case s.consume("("):
		shape, closeTok = ShapeRound, ")"
	case s.consume("["):
		shape, closeTok = ShapeBox, "]"
	case s.consume("{"):
		shape, closeTok = ShapeDiamond, "}"
	default:
		g.declare(id, id, ShapeBox, false)
		return id, nil
	}

	label, ok := s.until(closeTok)
	if !ok {
		return "", parseErrorf(s.line, "unterminated label for %q, expected %q", id, closeTok)
	}
	if label = strings.TrimSpace(label); label == "" {
		return "", parseErrorf(s.line, "empty label for %q", id)
	}
	g.declare(id, label, shape, true)
	return id, nil
}

// edgeOp parses "-->" or "---" plus an optional "|label|" segment.
func (s *stmtScanner) edgeOp() (EdgeStyle, string, error) {
	var style EdgeStyle
	switch {
	case s.consume("-->"):
		style = EdgeArrow
	case s.consume("---"):
		style = EdgeOpen
	default:
		return "", "", parseErrorf(s.line, "incomplete edge %q", s.rest())
	}
	if !s.consume("|") {
		return style, "", nil
	}
	label, ok := s.until("|")
	if !ok {
		return "", "", parseErrorf(s.line, "unterminated edge label")
	}
	if label = strings.TrimSpace(label); label == "" {
		return "", "", parseErrorf(s.line, "empty edge label")
	}
	return style, label, nil
}

// until consumes up to and including the closing token, returning the
// text before it.
func (s *stmtScanner) until(close string) (string, bool) {
	i := strings.Index(s.rest(), close)
	if i < 0 {
		return "", false
	}
	out := s.rest()[:i]
	s.pos += i + len(close)
	return out, true
}
