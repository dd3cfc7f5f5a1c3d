package wiggle

import (
	"fmt"
	"strconv"
	"strings"
)

// LineType classifies a parsed line.
type LineType int

const (
	// LineNone is a comment, blank, browser or track line.
	LineNone LineType = iota
	// LineRegion is a variableStep or fixedStep declaration.
	LineRegion
	// LineData is a value record.
	LineData
)

// Mode is the step encoding of the data lines following a declaration.
type Mode int

const (
	// Variable data lines carry "<position> <value>".
	Variable Mode = iota
	// Fixed data lines carry "<value>"; positions are implied by start and
	// step of the declaration.
	Fixed
)

// ParseError is returned when a line of a wiggle track can not be parsed.
type ParseError struct {
	// Line is the offending line, without its line terminator.
	Line string
	// Err is the underlying decoding error, if any.
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not parse line: %q: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("could not parse line: %q", e.Line)
}

// Data is a value record. The value applies to Span consecutive positions
// starting at Pos.
type Data struct {
	Pos   int
	Span  int
	Value Value
}

// Line is the result of parsing one line.
type Line struct {
	Type LineType
	// Region is set for LineRegion.
	Region string
	// Data is set for LineData.
	Data Data
}

// State is the parse state carried from one line to the next.
type State struct {
	Mode Mode
	Span int
	// Start is the position of the next fixedStep value; Step is the
	// distance between fixedStep values.
	Start, Step int
}

// Parser turns lines of a wiggle track into classified records. A Parser
// belongs to a single traversal of a track.
type Parser struct {
	State State
}

// NewParser returns a parser in the initial variableStep state.
func NewParser() *Parser {
	return &Parser{State: State{Mode: Variable, Span: 1}}
}

// Parse classifies line, updating the parser state. The line terminator,
// if any, is ignored.
func (p *Parser) Parse(line string) (Line, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return Line{Type: LineNone}, nil
	}
	// Data lines are by far the most common, check them first.
	if c := line[0]; (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+' {
		return p.parseData(line)
	}
	switch {
	case strings.HasPrefix(line, "browser"),
		strings.HasPrefix(line, "track"),
		line[0] == '#',
		strings.TrimSpace(line) == "":
		// Comments and blank lines are not allowed by the format, but they
		// are common in the wild.
		return Line{Type: LineNone}, nil
	case strings.HasPrefix(line, "variableStep"):
		return p.parseVariableStep(line)
	case strings.HasPrefix(line, "fixedStep"):
		return p.parseFixedStep(line)
	}
	return Line{}, &ParseError{Line: line}
}

func (p *Parser) parseData(line string) (Line, error) {
	var (
		pos   int
		token string
	)
	switch p.State.Mode {
	case Variable:
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return Line{}, &ParseError{Line: line, Err: fmt.Errorf("expected 2 fields, found %d", len(fields))}
		}
		var err error
		if pos, err = strconv.Atoi(fields[0]); err != nil {
			return Line{}, &ParseError{Line: line, Err: err}
		}
		token = fields[1]
	case Fixed:
		fields := strings.Fields(line)
		if len(fields) != 1 {
			return Line{}, &ParseError{Line: line, Err: fmt.Errorf("expected 1 field, found %d", len(fields))}
		}
		pos = p.State.Start
		token = fields[0]
	}
	v, err := ParseValue(token)
	if err != nil {
		return Line{}, &ParseError{Line: line, Err: err}
	}
	if p.State.Mode == Fixed {
		p.State.Start += p.State.Step
	}
	return Line{Type: LineData, Data: Data{Pos: pos, Span: p.State.Span, Value: v}}, nil
}

// declaration splits the key=value attributes of a declaration line.
func declaration(line, keyword string) (map[string]string, error) {
	attrs := map[string]string{}
	for _, field := range strings.Fields(line[len(keyword):]) {
		kv := strings.Split(field, "=")
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid attribute %q", field)
		}
		attrs[kv[0]] = kv[1]
	}
	if attrs["chrom"] == "" {
		return nil, fmt.Errorf("missing chrom attribute")
	}
	return attrs, nil
}

// intAttr returns the integer attribute key, or def if it is absent.
func intAttr(attrs map[string]string, key string, def int) (int, error) {
	s, ok := attrs[key]
	if !ok {
		return def, nil
	}
	return strconv.Atoi(s)
}

func (p *Parser) parseVariableStep(line string) (Line, error) {
	attrs, err := declaration(line, "variableStep")
	if err != nil {
		return Line{}, &ParseError{Line: line, Err: err}
	}
	span, err := intAttr(attrs, "span", 1)
	if err != nil {
		return Line{}, &ParseError{Line: line, Err: err}
	}
	p.State.Mode = Variable
	p.State.Span = span
	return Line{Type: LineRegion, Region: attrs["chrom"]}, nil
}

func (p *Parser) parseFixedStep(line string) (Line, error) {
	attrs, err := declaration(line, "fixedStep")
	if err != nil {
		return Line{}, &ParseError{Line: line, Err: err}
	}
	if _, ok := attrs["start"]; !ok {
		return Line{}, &ParseError{Line: line, Err: fmt.Errorf("missing start attribute")}
	}
	start, err := intAttr(attrs, "start", 0)
	if err != nil {
		return Line{}, &ParseError{Line: line, Err: err}
	}
	span, err := intAttr(attrs, "span", 1)
	if err != nil {
		return Line{}, &ParseError{Line: line, Err: err}
	}
	// The format requires step, but the UCSC browser accepts fixedStep
	// declarations without it and such files exist.
	defStep := span
	if defStep > 1 {
		defStep = 1
	}
	step, err := intAttr(attrs, "step", defStep)
	if err != nil {
		return Line{}, &ParseError{Line: line, Err: err}
	}
	p.State = State{Mode: Fixed, Span: span, Start: start, Step: step}
	return Line{Type: LineRegion, Region: attrs["chrom"]}, nil
}
