package jql

import (
	"strconv"
	"strings"
)

// Parse parses a JQL string into a ParsedQuery.
//
// Parse never fails. The input is lexed in a single pass into an unambiguous
// token stream, then consumed clause by clause; a token sequence that does
// not start a recognized clause is dropped one token at a time. Operator
// tokens are disjoint by construction (the lexer emits != as one token, so it
// can never also feed the = rule).
//
// Grammar (clauses in any order, separated by whitespace or "and"):
//
//	clause   = project | cond | in_cond | order_by | limit
//	project  = "project" "=" WORD            (case-insensitive key)
//	cond     = WORD ( "=" | "!=" | "~" ) WORD
//	in_cond  = WORD "in" "(" WORD ( "," WORD )* ")"
//	order_by = "order" "by" WORD [ "asc" | "desc" ] ( "," WORD [ "asc" | "desc" ] )*
//	limit    = "limit" INTEGER
func Parse(input string) *ParsedQuery {
	p := &parser{toks: NewLexer(input).Tokenize()}
	return p.run()
}

type parser struct {
	toks []Token
	pos  int
	out  ParsedQuery
}

func (p *parser) run() *ParsedQuery {
	for p.pos < len(p.toks) {
		if p.parseClause() {
			continue
		}
		// Unrecognized fragment: drop a single token and resync.
		p.pos++
	}
	return &p.out
}

// parseClause attempts to consume one clause at the current position. It
// returns false without advancing when no clause starts here.
func (p *parser) parseClause() bool {
	tok := p.toks[p.pos]
	if tok.Kind != TokWord {
		return false
	}

	// Keywords only apply to unquoted words; a quoted "limit" is a field name.
	if !tok.Quoted {
		switch {
		case strings.EqualFold(tok.Lit, "and"):
			p.pos++
			return true
		case strings.EqualFold(tok.Lit, "order") && p.keywordAt(p.pos+1, "by"):
			return p.parseOrderBy()
		case strings.EqualFold(tok.Lit, "limit"):
			return p.parseLimit()
		}
	}

	return p.parseCondition()
}

// parseCondition consumes "field op value" or "field in (...)".
func (p *parser) parseCondition() bool {
	field := p.toks[p.pos]

	if p.keywordAt(p.pos+1, "in") && p.kindAt(p.pos+2, TokLParen) {
		return p.parseInCondition(field)
	}

	if p.pos+2 >= len(p.toks) {
		return false
	}
	op := p.toks[p.pos+1]
	value := p.toks[p.pos+2]
	if value.Kind != TokWord {
		return false
	}

	switch op.Kind {
	case TokEq:
		p.pos += 3
		// A project key in an equals condition selects the target project
		// and is excluded from the general conditions list.
		if !field.Quoted && strings.EqualFold(field.Lit, "project") {
			p.out.Projects = []string{value.Lit}
			return true
		}
		p.addCondition(field.Lit, OpEquals, value.Lit)
		return true
	case TokNeq:
		p.pos += 3
		p.addCondition(field.Lit, OpNotEquals, value.Lit)
		return true
	case TokTilde:
		p.pos += 3
		p.addCondition(field.Lit, OpContains, value.Lit)
		return true
	}
	return false
}

// parseInCondition consumes "field in ( v1, v2, ... )". A missing closing
// paren consumes to end of input; the collected values still form the
// condition.
func (p *parser) parseInCondition(field Token) bool {
	p.pos += 3 // field, "in", "("

	var values []string
	for p.pos < len(p.toks) {
		tok := p.toks[p.pos]
		if tok.Kind == TokRParen {
			p.pos++
			break
		}
		if tok.Kind == TokWord {
			if v := strings.TrimSpace(tok.Lit); v != "" || tok.Quoted {
				values = append(values, v)
			}
		}
		p.pos++
	}

	p.out.Conditions = append(p.out.Conditions, FilterCondition{
		Field:    field.Lit,
		Operator: OpIn,
		Values:   values,
	})
	return true
}

// parseOrderBy consumes "order by field [asc|desc] (, field [asc|desc])*".
func (p *parser) parseOrderBy() bool {
	p.pos += 2 // "order", "by"

	for {
		if !p.kindAt(p.pos, TokWord) {
			return true
		}
		entry := OrderBy{Field: p.toks[p.pos].Lit, Direction: "asc"}
		p.pos++

		if p.keywordAt(p.pos, "asc") {
			p.pos++
		} else if p.keywordAt(p.pos, "desc") {
			entry.Direction = "desc"
			p.pos++
		}
		p.out.OrderBy = append(p.out.OrderBy, entry)

		if !p.kindAt(p.pos, TokComma) {
			return true
		}
		p.pos++
	}
}

// parseLimit consumes "limit N". A non-integer operand leaves the clause
// unrecognized so the caller drops the keyword token alone.
func (p *parser) parseLimit() bool {
	if !p.kindAt(p.pos+1, TokWord) {
		return false
	}
	n, err := strconv.Atoi(p.toks[p.pos+1].Lit)
	if err != nil || n <= 0 {
		return false
	}
	p.out.Limit = n
	p.pos += 2
	return true
}

func (p *parser) addCondition(field string, op Operator, value string) {
	p.out.Conditions = append(p.out.Conditions, FilterCondition{
		Field:    field,
		Operator: op,
		Value:    value,
	})
}

// keywordAt reports whether the token at i is the given unquoted keyword.
func (p *parser) keywordAt(i int, word string) bool {
	return i < len(p.toks) && p.toks[i].Kind == TokWord && !p.toks[i].Quoted &&
		strings.EqualFold(p.toks[i].Lit, word)
}

func (p *parser) kindAt(i int, kind TokenKind) bool {
	return i < len(p.toks) && p.toks[i].Kind == kind
}
