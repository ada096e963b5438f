package adl

import "fmt"

// Parse parses ADL source into top-level Nodes (§6's grammar): a
// sequence of `name { ... }` blocks, each containing attr=value pairs
// and/or nested blocks.
func Parse(src string) ([]*Node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	var nodes []*Node
	for p.peek().kind != tokEOF {
		n, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(k tokenKind, what string) (token, error) {
	t := p.next()
	if t.kind != k {
		return t, fmt.Errorf("adl: expected %s at line %d, got %q", what, t.line, t.text)
	}
	return t, nil
}

// parseBlock parses `name { body }` where name is an identifier (or a
// quoted string, for the two-word "basic attribute"/"dynamic attribute"
// keywords which ADL spells as a quoted phrase).
func (p *parser) parseBlock() (*Node, error) {
	nameTok := p.next()
	if nameTok.kind != tokIdent && nameTok.kind != tokString {
		return nil, fmt.Errorf("adl: expected block name at line %d, got %q", nameTok.line, nameTok.text)
	}
	n := &Node{Name: nameTok.text}
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind == tokRBrace {
			p.next()
			return n, nil
		}
		if t.kind == tokEOF {
			return nil, fmt.Errorf("adl: unexpected EOF inside block %q", n.Name)
		}
		// Lookahead: ident/string followed by '=' is an attribute;
		// followed by '{' is a nested block.
		save := p.pos
		key := p.next()
		if key.kind != tokIdent && key.kind != tokString {
			return nil, fmt.Errorf("adl: unexpected token %q at line %d", key.text, key.line)
		}
		switch p.peek().kind {
		case tokEquals:
			p.next()
			val := p.next()
			if val.kind != tokIdent && val.kind != tokString && val.kind != tokNumber {
				return nil, fmt.Errorf("adl: expected value at line %d, got %q", val.line, val.text)
			}
			n.Attrs = append(n.Attrs, Attr{Key: key.text, Value: val.text, Quoted: val.kind == tokString})
		case tokLBrace:
			p.pos = save
			child, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		default:
			return nil, fmt.Errorf("adl: expected '=' or '{' after %q at line %d", key.text, key.line)
		}
	}
}
