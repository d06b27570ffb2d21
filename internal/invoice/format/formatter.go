// Package format renders invoice numbers from a counter value.
package format

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultInvoiceNumberTemplate renders INV-000001, INV-000002, ...
const DefaultInvoiceNumberTemplate = "INV-{SEQ6}"

var (
	ErrEmptyTemplate   = errors.New("invoice number template is empty")
	ErrMissingSequence = errors.New("invoice number template has no {SEQ} token")
)

type tokenKind int

const (
	literal tokenKind = iota
	year4
	year2
	month
	day
	sequence
)

type token struct {
	kind  tokenKind
	text  string
	width int
}

// Pattern is a parsed invoice number template. Supported tokens are {YYYY},
// {YY}, {MM}, {DD} taken from the invoice date, and {SEQ} or {SEQn} for the
// counter zero padded to n digits. Wider counters are never truncated.
type Pattern struct {
	tokens []token
}

func Compile(template string) (Pattern, error) {
	if strings.TrimSpace(template) == "" {
		return Pattern{}, ErrEmptyTemplate
	}

	var (
		p      Pattern
		hasSeq bool
		rest   = template
	)
	for rest != "" {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			p.tokens = append(p.tokens, token{kind: literal, text: rest})
			break
		}
		if open > 0 {
			p.tokens = append(p.tokens, token{kind: literal, text: rest[:open]})
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return Pattern{}, fmt.Errorf("unterminated token in %q", template)
		}
		name := rest[open+1 : open+end]
		tok, err := parseToken(name)
		if err != nil {
			return Pattern{}, fmt.Errorf("%w in %q", err, template)
		}
		hasSeq = hasSeq || tok.kind == sequence
		p.tokens = append(p.tokens, tok)
		rest = rest[open+end+1:]
	}
	if !hasSeq {
		return Pattern{}, ErrMissingSequence
	}
	return p, nil
}

func parseToken(name string) (token, error) {
	switch name {
	case "YYYY":
		return token{kind: year4}, nil
	case "YY":
		return token{kind: year2}, nil
	case "MM":
		return token{kind: month}, nil
	case "DD":
		return token{kind: day}, nil
	case "SEQ":
		return token{kind: sequence}, nil
	}
	if width, ok := strings.CutPrefix(name, "SEQ"); ok {
		n, err := strconv.Atoi(width)
		if err == nil && n > 0 && n <= 18 {
			return token{kind: sequence, width: n}, nil
		}
	}
	return token{}, fmt.Errorf("unknown token {%s}", name)
}

// Format renders the number for counter value seq.
func (p Pattern) Format(invoiceDate time.Time, seq int64) (string, error) {
	if seq <= 0 {
		return "", fmt.Errorf("invalid invoice sequence: %d", seq)
	}

	var b strings.Builder
	for _, tok := range p.tokens {
		switch tok.kind {
		case literal:
			b.WriteString(tok.text)
		case year4:
			b.WriteString(invoiceDate.Format("2006"))
		case year2:
			b.WriteString(invoiceDate.Format("06"))
		case month:
			b.WriteString(invoiceDate.Format("01"))
		case day:
			b.WriteString(invoiceDate.Format("02"))
		case sequence:
			fmt.Fprintf(&b, "%0*d", tok.width, seq)
		}
	}
	return b.String(), nil
}

// FormatInvoiceNumber compiles template and renders seq with it.
func FormatInvoiceNumber(template string, invoiceDate time.Time, seq int64) (string, error) {
	p, err := Compile(template)
	if err != nil {
		return "", err
	}
	return p.Format(invoiceDate, seq)
}
