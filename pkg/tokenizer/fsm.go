package tokenizer

// State is the tokenizer's position in the log's section structure.
// The progression is Start → Header → Remarks? → (Layout → Rows)*, with
// remark sections allowed between data blocks.
type State uint8

const (
	// StateStart is before the first section marker.
	StateStart State = iota
	// StateHeader is inside the [Header] key-value section.
	StateHeader
	// StateRemarks is inside a [Remarks] free-text section.
	StateRemarks
	// StateLayoutCategories expects the category line of a data block layout.
	StateLayoutCategories
	// StateLayoutNames expects the column-name line of a data block layout.
	StateLayoutNames
	// StateLayoutUnits expects the units line of a data block layout.
	StateLayoutUnits
	// StateRows is inside a data block, consuming measurement lines.
	StateRows
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateHeader:
		return "header"
	case StateRemarks:
		return "remarks"
	case StateLayoutCategories:
		return "layout_categories"
	case StateLayoutNames:
		return "layout_names"
	case StateLayoutUnits:
		return "layout_units"
	case StateRows:
		return "rows"
	default:
		return "unknown"
	}
}

// Section markers. A marker line consists of exactly the bracketed tag.
const (
	markerHeader  = "[Header]"
	markerRemarks = "[Remarks]"
	markerData    = "[Data]"
)

// marker classifies a line as a section marker, if it is one.
func marker(line string) (string, bool) {
	switch line {
	case markerHeader, markerRemarks, markerData:
		return line, true
	}
	return "", false
}
