package acroform

import "fmt"

// FieldType is the classification of an AcroForm field's /FT entry.
type FieldType string

const (
	FieldTypeText      FieldType = "Text"
	FieldTypeButton    FieldType = "Button/Checkbox"
	FieldTypeChoice    FieldType = "Choice"
	FieldTypeSignature FieldType = "Signature"
	FieldTypeUnknown   FieldType = "Unknown"
)

// UnknownName is reported for fields without a usable title.
const UnknownName = "Unknown"

// Field is a top-level interactive form field as seen at read time.
type Field struct {
	Name         string    `json:"name"`
	Type         FieldType `json:"type"`
	OriginalName string    `json:"original_name"`
}

// ParseFieldType maps a field type name (with or without the leading
// slash) to its classification. Matching is exact.
func ParseFieldType(ft string) FieldType {
	if len(ft) > 0 && ft[0] == '/' {
		ft = ft[1:]
	}

	switch ft {
	case "Tx":
		return FieldTypeText
	case "Btn":
		return FieldTypeButton
	case "Ch":
		return FieldTypeChoice
	case "Sig":
		return FieldTypeSignature
	default:
		return FieldTypeUnknown
	}
}

// Error is returned for any failure to read or write a document.
type Error struct {
	Op  string `json:"operation"`
	Err error  `json:"error"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("acroform %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Operations reported in Error.Op.
const (
	OpRead  = "read"
	OpWrite = "write"
)
