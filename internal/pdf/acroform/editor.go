package acroform

import (
	"bytes"
	"fmt"
	"log"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// pdfcpu must not read or create a configuration directory; every
// setting the editor needs is applied per call.
func init() {
	api.DisableConfigDir()
}

// Editor lists and renames the top-level fields of a document's AcroForm
// using pdfcpu. An Editor holds no document state and is safe for
// concurrent use; every call parses its own context from the input bytes.
type Editor struct {
	debugMode bool
}

// NewEditor creates a new AcroForm editor
func NewEditor(debugMode bool) *Editor {
	return &Editor{
		debugMode: debugMode,
	}
}

// form is the AcroForm of a freshly parsed document.
type form struct {
	ctx    *model.Context
	dict   types.Dict  // nil when the catalog has no AcroForm
	fields types.Array // nil when the AcroForm has no Fields
}

// ListFields returns the top-level fields of the document's AcroForm in
// array order. A document without an AcroForm yields an empty list.
func (e *Editor) ListFields(data []byte) (fields []Field, err error) {
	defer func() {
		if r := recover(); r != nil {
			fields, err = nil, panicError(OpRead, r)
		}
	}()

	f, err := e.open(data)
	if err != nil {
		return nil, err
	}

	list := make([]Field, 0, len(f.fields))
	for i, obj := range f.fields {
		fieldDict, err := f.ctx.DereferenceDict(obj)
		if err != nil || fieldDict == nil {
			e.debugf("skipping field %d: not a dictionary (%v)", i, err)
			continue
		}

		name := e.fieldName(f.ctx, fieldDict)
		list = append(list, Field{
			Name:         name,
			Type:         e.fieldType(f.ctx, fieldDict),
			OriginalName: name,
		})
	}

	e.debugf("listed %d field(s)", len(list))
	return list, nil
}

// RenameFields rewrites the title of every top-level field whose logical
// name is a key of mappings, flags the form for appearance regeneration
// and serializes the document. It returns the new document and the number
// of fields renamed. When the document has no fields the input is returned
// unchanged.
func (e *Editor) RenameFields(data []byte, mappings map[string]string) (out []byte, count int, err error) {
	op := OpRead
	defer func() {
		if r := recover(); r != nil {
			out, count, err = nil, 0, panicError(op, r)
		}
	}()

	f, err := e.open(data)
	if err != nil {
		return nil, 0, err
	}

	if f.dict == nil || len(f.fields) == 0 {
		e.debugf("no form fields, leaving document unchanged")
		return data, 0, nil
	}

	renamed := 0
	for i, obj := range f.fields {
		fieldDict, err := f.ctx.DereferenceDict(obj)
		if err != nil || fieldDict == nil {
			continue
		}

		current, ok := e.title(f.ctx, fieldDict)
		if !ok {
			continue
		}

		newName, found := mappings[current]
		if !found {
			continue
		}

		title, err := EncodeTitle(newName)
		if err != nil {
			return nil, 0, &Error{Op: OpWrite, Err: fmt.Errorf("failed to encode title for field %d: %w", i, err)}
		}
		fieldDict["T"] = title
		renamed++

		e.debugf("renamed field %d: %q -> %q", i, current, newName)
	}

	f.dict["NeedAppearances"] = types.Boolean(true)

	op = OpWrite
	var buf bytes.Buffer
	if err := api.WriteContext(f.ctx, &buf); err != nil {
		return nil, 0, &Error{Op: OpWrite, Err: fmt.Errorf("failed to write PDF context: %w", err)}
	}

	return buf.Bytes(), renamed, nil
}

// open parses data and locates the AcroForm and its Fields array.
func (e *Editor) open(data []byte) (*form, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, &Error{Op: OpRead, Err: fmt.Errorf("failed to read PDF context: %w", err)}
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, &Error{Op: OpRead, Err: fmt.Errorf("failed to ensure page count: %w", err)}
	}

	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, &Error{Op: OpRead, Err: fmt.Errorf("failed to get catalog: %w", err)}
	}

	f := &form{ctx: ctx}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		e.debugf("no AcroForm dictionary found in document")
		return f, nil
	}

	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, &Error{Op: OpRead, Err: fmt.Errorf("failed to dereference AcroForm: %w", err)}
	}
	if acroFormDict == nil {
		return f, nil
	}
	f.dict = acroFormDict

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		e.debugf("no Fields array found in AcroForm")
		return f, nil
	}

	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, &Error{Op: OpRead, Err: fmt.Errorf("failed to dereference Fields array: %w", err)}
	}
	f.fields = fieldsArray

	return f, nil
}

// title returns the logical name carried by the field's /T entry.
func (e *Editor) title(ctx *model.Context, fieldDict types.Dict) (string, bool) {
	nameObj, found := fieldDict.Find("T")
	if !found {
		return "", false
	}

	// pdfcpu strips the string delimiters and resolves escapes, hex
	// encoding and UTF-16, so the decoded value is the logical name.
	name, err := ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil)
	if err != nil {
		return "", false
	}

	return name, name != ""
}

func (e *Editor) fieldName(ctx *model.Context, fieldDict types.Dict) string {
	if name, ok := e.title(ctx, fieldDict); ok {
		return name
	}
	return UnknownName
}

func (e *Editor) fieldType(ctx *model.Context, fieldDict types.Dict) FieldType {
	ftObj, found := fieldDict.Find("FT")
	if !found {
		return FieldTypeUnknown
	}

	ftName, err := ctx.DereferenceName(ftObj, model.V10, nil)
	if err != nil {
		return FieldTypeUnknown
	}

	return ParseFieldType(string(ftName))
}

// panicError turns a panic raised inside pdfcpu into an *Error for op.
// pdfcpu panics on some truncated or corrupted input instead of failing.
func panicError(op string, r interface{}) *Error {
	return &Error{Op: op, Err: fmt.Errorf("invalid PDF: %v", r)}
}

func (e *Editor) debugf(format string, args ...interface{}) {
	if e.debugMode {
		log.Printf("acroform: "+format, args...)
	}
}
