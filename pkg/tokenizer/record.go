package tokenizer

import (
	"fmt"
	"strings"

	"github.com/licorflow/licorflow/pkg/registry"
)

// Field is one raw token tagged with the section its column belongs to.
type Field struct {
	Value   string
	Section registry.Section
}

// RawRecord is one observation's worth of raw tokens, merged across all
// physical lines that share its observation index. Fields absent from every
// contributing line are simply missing from the map and become null
// downstream.
type RawRecord struct {
	// Obs is the observation index, the join key across data blocks.
	Obs int64
	// Line is the line number of the first physical line for this record.
	Line int
	// Fields maps column name to raw token.
	Fields map[string]Field
}

// Layout is a data block's physical column order as declared in the file by
// the category / name / units line triple. The tokenizer trusts the file for
// field order and only the schema registry for final typing.
type Layout struct {
	// Line is where the category line appeared.
	Line int
	// Names are the column names in physical order, disambiguated when the
	// instrument logs the same name twice.
	Names []string
	// Categories are the raw category tags, padded to len(Names).
	Categories []string
	// Units are the raw unit strings, padded to len(Names).
	Units []string
	// Sections are derived from Categories.
	Sections []registry.Section
	// ObsIndex is the position of the obs column within Names.
	ObsIndex int
}

// sectionForCategory maps a layout category tag to a source section.
// Fluorometer blocks are tagged FLR / FlrLS / FlrStats by the instrument;
// everything else in a data block reads as gas exchange (including the
// system columns).
func sectionForCategory(category string) registry.Section {
	if strings.Contains(strings.ToLower(category), "flr") {
		return registry.SectionFlr
	}
	return registry.SectionGasEx
}

// Remark is one free-text remark line.
type Remark struct {
	Line int
	Text string
}

// Document is the tokenized form of one log file: header pairs, remarks,
// and raw records in first-seen observation order.
type Document struct {
	Header  map[string]string
	Remarks []Remark
	Layouts []Layout
	Records []*RawRecord

	// ObsOrderBreaks and ShortLines are structural anomalies that do not
	// abort tokenizing; the orchestrator surfaces them as table warnings.
	ObsOrderBreaks []Anomaly
	ShortLines     []Anomaly
}

// Anomaly locates a non-fatal structural issue.
type Anomaly struct {
	Line    int
	Obs     int64
	Message string
}

func (a Anomaly) String() string {
	return fmt.Sprintf("line %d (obs %d): %s", a.Line, a.Obs, a.Message)
}
