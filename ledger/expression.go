package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// EvaluateAmount parses an amount text whose quantity may be a parenthesized
// arithmetic expression, such as "(1200 / 12) CAD". The result is rounded
// half up to the commodity's decimals, like conversions. Plain amount texts
// are parsed with ParseAmount.
func (cs *Commodities) EvaluateAmount(text string) (Amount, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "(") {
		return cs.ParseAmount(text)
	}
	end := strings.LastIndex(text, ")")
	if end < 0 {
		return Amount{}, &ParseError{Text: text, Reason: "unbalanced parentheses"}
	}
	c, err := cs.Find(strings.TrimSpace(text[end+1:]))
	if err != nil {
		return Amount{}, err
	}
	quantity, err := EvaluateExpression(text[:end+1])
	if err != nil {
		return Amount{}, &ParseError{Text: text, Reason: err.Error()}
	}
	scaled := roundHalfUp(quantity.Shift(int32(c.Decimals)))
	if !scaled.IsInteger() || scaled.Abs().GreaterThan(decimal.NewFromInt(1<<62)) {
		return Amount{}, &ParseError{Text: text, Reason: "quantity out of range"}
	}
	return NewAmount(scaled.IntPart(), c), nil
}

// EvaluateExpression evaluates an arithmetic expression like "(5 + 3)" or
// "((40 / 3) + 5)". * and / bind tighter than + and -.
func EvaluateExpression(expr string) (decimal.Decimal, error) {
	if !strings.HasPrefix(expr, "(") || !strings.HasSuffix(expr, ")") {
		return decimal.Zero, fmt.Errorf("expression must be wrapped in parentheses: %q", expr)
	}

	lex := &exprLexer{input: expr[1 : len(expr)-1]}
	result, err := lex.parseExpr(0)
	if err != nil {
		return decimal.Zero, err
	}
	if !lex.isAtEnd() {
		return decimal.Zero, fmt.Errorf("unexpected token at position %d: %q", lex.pos, lex.peek())
	}
	return result, nil
}

type exprLexer struct {
	input string
	pos   int
}

func (l *exprLexer) skipWhitespace() {
	for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t') {
		l.pos++
	}
}

func (l *exprLexer) isAtEnd() bool {
	l.skipWhitespace()
	return l.pos >= len(l.input)
}

func (l *exprLexer) peek() byte {
	l.skipWhitespace()
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *exprLexer) advance() byte {
	ch := l.peek()
	if ch != 0 {
		l.pos++
	}
	return ch
}

// parseNumber reads an unsigned numeral; grouping commas are allowed as in
// amount texts.
func (l *exprLexer) parseNumber() (decimal.Decimal, error) {
	l.skipWhitespace()
	start := l.pos
	foundDigit, foundDot := false, false
scan:
	for ; l.pos < len(l.input); l.pos++ {
		ch := l.input[l.pos]
		switch {
		case ch >= '0' && ch <= '9':
			foundDigit = true
		case ch == '.' && !foundDot:
			foundDot = true
		case ch == ',' && !foundDot && foundDigit:
		default:
			break scan
		}
	}
	if !foundDigit {
		return decimal.Zero, fmt.Errorf("expected number at position %d", start)
	}
	numeral := strings.ReplaceAll(l.input[start:l.pos], ",", "")
	num, err := decimal.NewFromString(numeral)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q: %w", numeral, err)
	}
	return num, nil
}

func (l *exprLexer) parsePrimary() (decimal.Decimal, error) {
	switch l.peek() {
	case '(':
		l.advance()
		result, err := l.parseExpr(0)
		if err != nil {
			return decimal.Zero, err
		}
		if l.advance() != ')' {
			return decimal.Zero, fmt.Errorf("expected ')' at position %d", l.pos)
		}
		return result, nil
	case '-':
		l.advance()
		operand, err := l.parsePrimary()
		if err != nil {
			return decimal.Zero, err
		}
		return operand.Neg(), nil
	}
	return l.parseNumber()
}

// parseExpr is a Pratt parser over the binary operators.
func (l *exprLexer) parseExpr(minPrec int) (decimal.Decimal, error) {
	left, err := l.parsePrimary()
	if err != nil {
		return decimal.Zero, err
	}
	for {
		op := l.peek()
		prec := precedence(op)
		if prec == 0 || prec < minPrec {
			return left, nil
		}
		l.advance()

		right, err := l.parseExpr(prec + 1)
		if err != nil {
			return decimal.Zero, err
		}
		if left, err = applyOp(left, op, right); err != nil {
			return decimal.Zero, err
		}
	}
}

func precedence(op byte) int {
	switch op {
	case '+', '-':
		return 1
	case '*', '/':
		return 2
	}
	return 0
}

func applyOp(left decimal.Decimal, op byte, right decimal.Decimal) (decimal.Decimal, error) {
	switch op {
	case '+':
		return left.Add(right), nil
	case '-':
		return left.Sub(right), nil
	case '*':
		return left.Mul(right), nil
	case '/':
		if right.IsZero() {
			return decimal.Zero, fmt.Errorf("division by zero")
		}
		return left.Div(right), nil
	}
	return decimal.Zero, fmt.Errorf("unknown operator: %c", op)
}
