package tickets

import (
	"strings"
	"time"
)

// Field identifies one column of the ticket spreadsheet.
type Field int

// Known ticket fields. The order mirrors the source sheet.
const (
	FieldDate Field = iota
	FieldZone
	FieldBranch
	FieldCategory
	FieldSubCategory
	FieldPriority
	FieldEngineerStatus
	FieldEngineerDaysRange
	FieldCICFlag
	FieldServiceRequestNo
	FieldStatus
	FieldOpsStatus
	FieldOpsDaysRange
)

var fieldColumns = [...]string{
	FieldDate:              "Date",
	FieldZone:              "Zoho.Zone",
	FieldBranch:            "Location",
	FieldCategory:          "Categories",
	FieldSubCategory:       "Sub-Category",
	FieldPriority:          "Priority",
	FieldEngineerStatus:    "Eng. Status",
	FieldEngineerDaysRange: "Eng. Days Range",
	FieldCICFlag:           "CIC/NON-CIC",
	FieldServiceRequestNo:  "ServiceRequestNo",
	FieldStatus:            "Status",
	FieldOpsStatus:         "Ops.Status",
	FieldOpsDaysRange:      "OpsDays Range",
}

// Column returns the spreadsheet header literal for the field.
func (f Field) Column() string {
	if f < 0 || int(f) >= len(fieldColumns) {
		return ""
	}
	return fieldColumns[f]
}

func (f Field) String() string { return f.Column() }

// ParseField resolves a header literal to its Field.
func ParseField(column string) (Field, bool) {
	column = strings.TrimSpace(column)
	for i, name := range fieldColumns {
		if name == column {
			return Field(i), true
		}
	}
	return 0, false
}

// RequiredFields lists every column the loader insists on.
var RequiredFields = []Field{
	FieldDate,
	FieldZone,
	FieldBranch,
	FieldCategory,
	FieldSubCategory,
	FieldPriority,
	FieldEngineerStatus,
	FieldEngineerDaysRange,
	FieldCICFlag,
	FieldServiceRequestNo,
	FieldStatus,
	FieldOpsStatus,
	FieldOpsDaysRange,
}

// Engineer status and origin values. Matching is case-sensitive.
const (
	StatusClosed = "Closed"
	StatusOpen   = "open"
	CICFlag      = "CIC"
)

// ZoneOrder is the canonical display order for zones.
var ZoneOrder = []string{
	"Zone 1A", "Zone 1B", "Zone 2", "Zone 3", "Zone 4", "Zone 5",
	"Zone 6", "Zone 7", "Zone 8", "Zone 9", "Zone 10",
}

// EngineerStatusOrder is the series order used by status charts.
var EngineerStatusOrder = []string{StatusClosed, StatusOpen}

// DefaultRawColumns are preselected in the raw data view.
var DefaultRawColumns = []string{
	"Date", "Zoho.Zone", "Location", "ServiceRequestNo", "Categories", "Sub-Category",
	"Priority", "Status", "Eng. Status", "Eng. Days Range", "Ops.Status", "OpsDays Range",
}

// Ticket is one row of the ticketing dataset.
type Ticket struct {
	Date              time.Time
	Zone              string
	Branch            string
	Category          string
	SubCategory       string
	Priority          string
	EngineerStatus    string
	EngineerDaysRange string
	CICFlag           string
	ServiceRequestNo  string
	Status            string
	OpsStatus         string
	OpsDaysRange      string

	cells []string
}

// Value returns the textual value of a field. Dates use ISO layout.
func (t Ticket) Value(f Field) string {
	switch f {
	case FieldDate:
		if t.Date.IsZero() {
			return ""
		}
		return t.Date.Format(DateLayout)
	case FieldZone:
		return t.Zone
	case FieldBranch:
		return t.Branch
	case FieldCategory:
		return t.Category
	case FieldSubCategory:
		return t.SubCategory
	case FieldPriority:
		return t.Priority
	case FieldEngineerStatus:
		return t.EngineerStatus
	case FieldEngineerDaysRange:
		return t.EngineerDaysRange
	case FieldCICFlag:
		return t.CICFlag
	case FieldServiceRequestNo:
		return t.ServiceRequestNo
	case FieldStatus:
		return t.Status
	case FieldOpsStatus:
		return t.OpsStatus
	case FieldOpsDaysRange:
		return t.OpsDaysRange
	default:
		return ""
	}
}

func (t *Ticket) set(f Field, value string) {
	switch f {
	case FieldZone:
		t.Zone = value
	case FieldBranch:
		t.Branch = value
	case FieldCategory:
		t.Category = value
	case FieldSubCategory:
		t.SubCategory = value
	case FieldPriority:
		t.Priority = value
	case FieldEngineerStatus:
		t.EngineerStatus = value
	case FieldEngineerDaysRange:
		t.EngineerDaysRange = value
	case FieldCICFlag:
		t.CICFlag = value
	case FieldServiceRequestNo:
		t.ServiceRequestNo = value
	case FieldStatus:
		t.Status = value
	case FieldOpsStatus:
		t.OpsStatus = value
	case FieldOpsDaysRange:
		t.OpsDaysRange = value
	}
}
