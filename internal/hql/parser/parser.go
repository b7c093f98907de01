package parser

import "fmt"

// Parser is a hand-written recursive-descent parser over a Lexer's token
// stream: single current token plus one-token lookahead, no separate
// AST-builder pass -- parsing and AST construction happen together.
type Parser struct {
	toks []Token
	pos  int
}

func NewParser(toks []Token) *Parser { return &Parser{toks: toks} }

// Parse lexes and parses src in one call.
func Parse(src string) (*Source, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	return NewParser(toks).ParseSource()
}

func (p *Parser) cur() Token  { return p.toks[p.pos] }
func (p *Parser) peekNext() Token {
	if p.pos+1 < len(p.toks) {
		return p.toks[p.pos+1]
	}
	return p.toks[len(p.toks)-1]
}

func (p *Parser) advance() Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k Kind, what string) (Token, error) {
	if p.cur().Kind != k {
		return Token{}, fmt.Errorf("%s: expected %s, got %q", p.cur().Span, what, p.cur().Text)
	}
	return p.advance(), nil
}

// ParseSource parses a full schema+query file.
func (p *Parser) ParseSource() (*Source, error) {
	src := &Source{}
	for p.cur().Kind != EOF {
		t := p.cur()
		switch {
		case t.Kind == Ident && t.Text == "N" && p.peekNext().Kind == DoubleColon:
			n, err := p.parseNodeDef()
			if err != nil {
				return nil, err
			}
			src.Nodes = append(src.Nodes, n)
		case t.Kind == Ident && t.Text == "E" && p.peekNext().Kind == DoubleColon:
			e, err := p.parseEdgeDef()
			if err != nil {
				return nil, err
			}
			src.Edges = append(src.Edges, e)
		case t.Kind == Ident && t.Text == "V" && p.peekNext().Kind == DoubleColon:
			v, err := p.parseVectorDef()
			if err != nil {
				return nil, err
			}
			src.Vectors = append(src.Vectors, v)
		case t.Kind == KwQuery:
			q, err := p.parseQueryDef()
			if err != nil {
				return nil, err
			}
			src.Queries = append(src.Queries, q)
		default:
			return nil, fmt.Errorf("%s: expected N::, E::, V::, or QUERY, got %q", t.Span, t.Text)
		}
	}
	return src, nil
}

func (p *Parser) parseFieldDefs() ([]FieldDef, error) {
	var fields []FieldDef
	for p.cur().Kind != RBrace {
		indexed := false
		if p.cur().Kind == KwIndex {
			indexed = true
			p.advance()
		}
		nameTok, err := p.expect(Ident, "field name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(Colon, "':'"); err != nil {
			return nil, err
		}
		typeTok, err := p.expect(Ident, "field type")
		if err != nil {
			return nil, err
		}
		fields = append(fields, FieldDef{Name: nameTok.Text, Type: typeTok.Text, Indexed: indexed, Span: nameTok.Span})
		if p.cur().Kind == Comma {
			p.advance()
		}
	}
	return fields, nil
}

func (p *Parser) parseNodeDef() (*NodeDef, error) {
	start := p.cur().Span
	p.advance() // "N"
	p.advance() // "::"
	label, err := p.expect(Ident, "node label")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LBrace, "'{'"); err != nil {
		return nil, err
	}
	fields, err := p.parseFieldDefs()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RBrace, "'}'"); err != nil {
		return nil, err
	}
	return &NodeDef{Label: label.Text, Fields: fields, Span: start}, nil
}

func (p *Parser) parseEdgeDef() (*EdgeDef, error) {
	start := p.cur().Span
	p.advance() // "E"
	p.advance() // "::"
	label, err := p.expect(Ident, "edge label")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LBrace, "'{'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(KwFrom, "'From'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(Colon, "':'"); err != nil {
		return nil, err
	}
	fromLabel, err := p.expect(Ident, "From label")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(Comma, "','"); err != nil {
		return nil, err
	}
	if _, err := p.expect(KwTo, "'To'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(Colon, "':'"); err != nil {
		return nil, err
	}
	toLabel, err := p.expect(Ident, "To label")
	if err != nil {
		return nil, err
	}
	if p.cur().Kind == Comma {
		p.advance()
	}
	if _, err := p.expect(KwProps, "'Properties'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(LBrace, "'{'"); err != nil {
		return nil, err
	}
	props, err := p.parseFieldDefs()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RBrace, "'}'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(RBrace, "'}'"); err != nil {
		return nil, err
	}
	return &EdgeDef{Label: label.Text, From: fromLabel.Text, To: toLabel.Text, Properties: props, Span: start}, nil
}

func (p *Parser) parseVectorDef() (*VectorDef, error) {
	start := p.cur().Span
	p.advance() // "V"
	p.advance() // "::"
	label, err := p.expect(Ident, "vector label")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LBrace, "'{'"); err != nil {
		return nil, err
	}
	fields, err := p.parseFieldDefs()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RBrace, "'}'"); err != nil {
		return nil, err
	}
	return &VectorDef{Label: label.Text, Fields: fields, Span: start}, nil
}

func (p *Parser) parseQueryDef() (*QueryDef, error) {
	start := p.cur().Span
	p.advance() // QUERY
	name, err := p.expect(Ident, "query name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LParen, "'('"); err != nil {
		return nil, err
	}
	var params []Param
	for p.cur().Kind != RParen {
		pn, err := p.expect(Ident, "parameter name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(Colon, "':'"); err != nil {
			return nil, err
		}
		pt, err := p.expect(Ident, "parameter type")
		if err != nil {
			return nil, err
		}
		params = append(params, Param{Name: pn.Text, Type: pt.Text, Span: pn.Span})
		if p.cur().Kind == Comma {
			p.advance()
		}
	}
	p.advance() // ')'
	if _, err := p.expect(FatArrow, "'=>'"); err != nil {
		return nil, err
	}

	var stmts []Statement
	for p.cur().Kind != KwReturn {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	p.advance() // RETURN

	var returns []*Traversal
	for {
		expr, err := p.parseTraversal()
		if err != nil {
			return nil, err
		}
		returns = append(returns, expr)
		if p.cur().Kind == Comma {
			p.advance()
			continue
		}
		break
	}

	return &QueryDef{Name: name.Text, Params: params, Statements: stmts, Returns: returns, Span: start}, nil
}

func (p *Parser) parseStatement() (Statement, error) {
	t := p.cur()
	switch {
	case t.Kind == Ident && p.peekNext().Kind == Arrow:
		name := p.advance()
		p.advance() // '<-'
		expr, err := p.parseTraversal()
		if err != nil {
			return nil, err
		}
		return Assign{Name: name.Text, Expr: expr, Span: name.Span}, nil
	case t.Kind == KwFor:
		start := t.Span
		p.advance()
		varName, err := p.expect(Ident, "loop variable")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(KwIn, "'IN'"); err != nil {
			return nil, err
		}
		iter, err := p.parseTraversal()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(LBrace, "'{'"); err != nil {
			return nil, err
		}
		var body []Statement
		for p.cur().Kind != RBrace {
			s, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			body = append(body, s)
		}
		p.advance() // '}'
		return ForLoop{Var: varName.Text, Iter: iter, Body: body, Span: start}, nil
	case t.Kind == KwDrop:
		p.advance()
		expr, err := p.parseTraversal()
		if err != nil {
			return nil, err
		}
		return DropStmt{Expr: expr, Span: t.Span}, nil
	default:
		expr, err := p.parseTraversal()
		if err != nil {
			return nil, err
		}
		return ExprStmt{Expr: expr, Span: t.Span}, nil
	}
}

// parseTraversal parses a `segment ("::" segment)*` chain.
func (p *Parser) parseTraversal() (*Traversal, error) {
	start := p.cur().Span
	seg, err := p.parseSegment()
	if err != nil {
		return nil, err
	}
	segs := []Segment{seg}
	for p.cur().Kind == DoubleColon {
		p.advance()
		next, err := p.parseSegment()
		if err != nil {
			return nil, err
		}
		segs = append(segs, next)
	}
	return &Traversal{Segments: segs, Span: start}, nil
}

func (p *Parser) parseSegment() (Segment, error) {
	t := p.cur()
	switch t.Kind {
	case Number:
		p.advance()
		return Segment{Literal: &Literal{Kind: LitNumber, Text: t.Text}, Span: t.Span}, nil
	case String:
		p.advance()
		return Segment{Literal: &Literal{Kind: LitString, Text: t.Text}, Span: t.Span}, nil
	case LBrace:
		// a bare object literal, e.g. the props argument of `AddV<User>({...})`.
		obj, err := p.parseObjectLit()
		if err != nil {
			return Segment{}, err
		}
		return Segment{Object: obj, Span: t.Span}, nil
	}

	name := p.advance()
	seg := Segment{Name: name.Text, Span: name.Span}
	if name.Kind == Ident && (name.Text == "true" || name.Text == "false") {
		seg.Literal = &Literal{Kind: LitBool, Text: name.Text}
	}

	if p.cur().Kind == Lt {
		p.advance()
		for p.cur().Kind != Gt {
			arg, err := p.expect(Ident, "type argument")
			if err != nil {
				return Segment{}, err
			}
			seg.TypeArgs = append(seg.TypeArgs, arg.Text)
			seg.TypeArgSpans = append(seg.TypeArgSpans, arg.Span)
			if p.cur().Kind == Comma {
				p.advance()
			}
		}
		p.advance() // '>'
	}

	if p.cur().Kind == LParen {
		p.advance()
		for p.cur().Kind != RParen {
			arg, err := p.parseTraversal()
			if err != nil {
				return Segment{}, err
			}
			seg.Args = append(seg.Args, arg)
			if p.cur().Kind == Comma {
				p.advance()
			}
		}
		p.advance() // ')'
	}

	if p.cur().Kind == LBrace {
		obj, err := p.parseObjectLit()
		if err != nil {
			return Segment{}, err
		}
		seg.Object = obj
	}

	return seg, nil
}

// parseObjectLit parses `{ field: expr, ..., spread: bool, exclude: [id,...] }`.
// "spread" and "exclude" are recognized by name; every other key becomes a
// named remap field mapped to a nested traversal expression.
func (p *Parser) parseObjectLit() (*ObjectLit, error) {
	start := p.cur().Span
	p.advance() // '{'
	obj := &ObjectLit{Fields: map[string]*Traversal{}, Span: start}
	for p.cur().Kind != RBrace {
		key, err := p.expect(Ident, "object field name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(Colon, "':'"); err != nil {
			return nil, err
		}
		switch key.Text {
		case "spread":
			v, err := p.expect(Ident, "true or false")
			if err != nil {
				return nil, err
			}
			obj.Spread = v.Text == "true"
		case "exclude":
			if _, err := p.expect(LBracket, "'['"); err != nil {
				return nil, err
			}
			for p.cur().Kind != RBracket {
				f, err := p.expect(Ident, "excluded field name")
				if err != nil {
					return nil, err
				}
				obj.Exclude = append(obj.Exclude, f.Text)
				if p.cur().Kind == Comma {
					p.advance()
				}
			}
			p.advance() // ']'
		default:
			v, err := p.parseTraversal()
			if err != nil {
				return nil, err
			}
			obj.Fields[key.Text] = v
		}
		if p.cur().Kind == Comma {
			p.advance()
		}
	}
	p.advance() // '}'
	return obj, nil
}
