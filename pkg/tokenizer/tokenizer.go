// Package tokenizer turns a raw LI-COR log stream into section-tagged raw
// records. It runs a small state machine over lines (Header → Remarks →
// DataBlock*) and merges physical lines that share an observation index
// into a single record, so a gas-exchange line and a fluorescence line for
// the same observation come out as one RawRecord.
//
// The tokenizer knows nothing about device schemas: column order comes from
// the in-file layout lines, which may be redeclared mid-file after a remark
// or mode change.
package tokenizer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/licorflow/licorflow/internal/pool"
	"github.com/licorflow/licorflow/pkg/errors"
	"github.com/licorflow/licorflow/pkg/registry"
)

// ctxCheckInterval is how many lines pass between context checks.
const ctxCheckInterval = 1024

// Tokenizer converts a byte stream into a Document. Safe for concurrent
// use; each Tokenize call is independent.
type Tokenizer struct {
	buffers *pool.BufferPool
}

// New creates a Tokenizer.
func New() *Tokenizer {
	return &Tokenizer{
		buffers: pool.NewBufferPool(pool.DefaultBufferSize),
	}
}

// Tokenize consumes r to EOF and returns the tokenized document.
// Structural errors (unclassifiable line, truncated layout, missing
// sections) abort with a ParseError carrying the line number; short data
// lines and non-monotonic observation indexes are recorded on the Document
// instead.
func (t *Tokenizer) Tokenize(ctx context.Context, r io.Reader) (*Document, error) {
	buf := t.buffers.Get()
	defer t.buffers.Put(buf)

	if _, err := io.Copy(buf, r); err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "reading log stream")
	}

	run := &tokenizeRun{
		doc: &Document{
			Header: make(map[string]string),
		},
		records: make(map[int64]*RawRecord),
		state:   StateStart,
	}

	lines := pool.NewLineBuffer(buf.Bytes())
	lineNum := 0
	for {
		raw, ok := lines.NextLine()
		if !ok {
			break
		}
		lineNum++

		if lineNum%ctxCheckInterval == 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), errors.CodeIO, "tokenize canceled")
			default:
			}
		}

		if err := run.consume(lineNum, strings.TrimRight(pool.BytesToString(raw), " \t")); err != nil {
			return nil, err
		}
	}

	return run.finish(lineNum)
}

// tokenizeRun is the per-call state machine.
type tokenizeRun struct {
	doc     *Document
	records map[int64]*RawRecord
	state   State

	layout  *Layout // active data block layout
	lastObs int64   // last obs seen in the active block
	sawObs  bool    // whether the active block has emitted a row yet
}

func (r *tokenizeRun) consume(lineNum int, line string) error {
	if strings.TrimSpace(line) == "" {
		// A fully blank line still counts as the units line of a layout:
		// unitless blocks log it as bare tabs.
		if r.state == StateLayoutUnits {
			r.layout.Units = nil
			r.finalizeLayout()
			r.state = StateRows
		}
		return nil
	}

	if tag, ok := marker(line); ok {
		return r.transition(lineNum, tag)
	}

	switch r.state {
	case StateStart:
		return errors.Parse(lineNum, "log must begin with [Header]")

	case StateHeader:
		if key, value, ok := splitHeaderLine(line); ok {
			r.doc.Header[key] = value
		}
		// Header lines without a tab separator carry no key-value pair;
		// the console writes a few of these and they are ignored.
		return nil

	case StateRemarks:
		r.doc.Remarks = append(r.doc.Remarks, Remark{Line: lineNum, Text: line})
		return nil

	case StateLayoutCategories:
		r.layout = &Layout{
			Line:       lineNum,
			Categories: splitFields(line),
		}
		r.state = StateLayoutNames
		return nil

	case StateLayoutNames:
		return r.consumeNames(lineNum, line)

	case StateLayoutUnits:
		r.layout.Units = splitFields(line)
		r.finalizeLayout()
		r.state = StateRows
		return nil

	case StateRows:
		return r.consumeRow(lineNum, line)
	}

	return errors.Parse(lineNum, fmt.Sprintf("unclassifiable line in state %s", r.state))
}

// transition handles a section marker in any state.
func (r *tokenizeRun) transition(lineNum int, tag string) error {
	if r.state == StateLayoutNames || r.state == StateLayoutUnits {
		return errors.Parse(lineNum, "truncated data block layout")
	}

	switch tag {
	case markerHeader:
		if r.state != StateStart {
			return errors.Parse(lineNum, "duplicate [Header] section")
		}
		r.state = StateHeader
	case markerRemarks:
		r.state = StateRemarks
	case markerData:
		if r.state == StateStart {
			return errors.Parse(lineNum, "[Data] before [Header]")
		}
		r.state = StateLayoutCategories
	}
	return nil
}

func (r *tokenizeRun) consumeNames(lineNum int, line string) error {
	names := splitFields(line)
	obsIdx := -1
	for i, n := range names {
		if n == "obs" {
			obsIdx = i
			break
		}
	}
	if obsIdx < 0 {
		return errors.Parse(lineNum, "data block layout has no obs column")
	}

	r.layout.Names = uniquifyNames(names)
	r.layout.ObsIndex = obsIdx
	r.state = StateLayoutUnits
	return nil
}

// finalizeLayout pads categories and units to the name count and derives
// per-column sections, then resets block-local obs tracking.
func (r *tokenizeRun) finalizeLayout() {
	l := r.layout
	n := len(l.Names)
	for len(l.Categories) < n {
		l.Categories = append(l.Categories, "")
	}
	l.Categories = l.Categories[:n]
	for len(l.Units) < n {
		l.Units = append(l.Units, "")
	}
	l.Units = l.Units[:n]

	l.Sections = make([]registry.Section, n)
	for i, cat := range l.Categories {
		l.Sections[i] = sectionForCategory(cat)
	}

	r.doc.Layouts = append(r.doc.Layouts, *l)
	r.lastObs = 0
	r.sawObs = false
}

func (r *tokenizeRun) consumeRow(lineNum int, line string) error {
	fields := splitFields(line)
	l := r.layout

	obsToken := ""
	if l.ObsIndex < len(fields) {
		obsToken = strings.TrimSpace(fields[l.ObsIndex])
	}
	obs, err := pool.ParseInt64([]byte(obsToken))
	if err != nil {
		// A data line whose obs field is not an integer cannot be placed in
		// any section; subsequent block boundaries are untrustworthy.
		return errors.Parse(lineNum, fmt.Sprintf("unclassifiable data line: obs field %q is not an integer", obsToken))
	}

	if r.sawObs && obs < r.lastObs {
		r.doc.ObsOrderBreaks = append(r.doc.ObsOrderBreaks, Anomaly{
			Line:    lineNum,
			Obs:     obs,
			Message: fmt.Sprintf("observation index %d after %d", obs, r.lastObs),
		})
	}
	r.lastObs = obs
	r.sawObs = true

	if len(fields) < len(l.Names) {
		r.doc.ShortLines = append(r.doc.ShortLines, Anomaly{
			Line:    lineNum,
			Obs:     obs,
			Message: fmt.Sprintf("%d fields, layout declares %d; trailing fields treated as absent", len(fields), len(l.Names)),
		})
	}

	rec, ok := r.records[obs]
	if !ok {
		rec = &RawRecord{
			Obs:    obs,
			Line:   lineNum,
			Fields: make(map[string]Field, len(l.Names)),
		}
		r.records[obs] = rec
		r.doc.Records = append(r.doc.Records, rec)
	}

	for i, name := range l.Names {
		if i >= len(fields) {
			break
		}
		value := strings.TrimSpace(fields[i])
		if value == "" {
			continue
		}
		rec.Fields[name] = Field{Value: value, Section: l.Sections[i]}
	}

	return nil
}

func (r *tokenizeRun) finish(lastLine int) (*Document, error) {
	switch r.state {
	case StateStart:
		return nil, errors.Parse(lastLine, "empty log: no [Header] section")
	case StateLayoutCategories, StateLayoutNames, StateLayoutUnits:
		return nil, errors.Parse(lastLine, "log ends inside a data block layout")
	}
	if len(r.doc.Records) == 0 {
		return nil, errors.New(errors.CodeEmptyData, "log contains no data rows").
			WithContext("line", lastLine)
	}
	return r.doc, nil
}

// splitFields splits a tab-separated line and drops trailing empty fields
// left by trailing tabs.
func splitFields(line string) []string {
	fields := strings.Split(line, "\t")
	for len(fields) > 0 && strings.TrimSpace(fields[len(fields)-1]) == "" {
		fields = fields[:len(fields)-1]
	}
	return fields
}

// splitHeaderLine splits a header line at its first tab.
func splitHeaderLine(line string) (key, value string, ok bool) {
	i := strings.IndexByte(line, '\t')
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
}

// uniquifyNames appends _1, _2, … to repeated column names so every layout
// column can be addressed unambiguously.
func uniquifyNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, len(names))
	for i, name := range names {
		candidate := name
		for n := 1; seen[candidate]; n++ {
			candidate = fmt.Sprintf("%s_%d", name, n)
		}
		seen[candidate] = true
		out[i] = candidate
	}
	return out
}
