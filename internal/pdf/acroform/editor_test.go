package acroform

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-form-editor/internal/pdf/pdftest"
)

func TestEditor_ListFields(t *testing.T) {
	tests := []struct {
		name   string
		opts   pdftest.Options
		fields []pdftest.Field
		want   []Field
	}{
		{
			name:   "single text field",
			fields: []pdftest.Field{pdftest.Text("FullName")},
			want: []Field{
				{Name: "FullName", Type: FieldTypeText, OriginalName: "FullName"},
			},
		},
		{
			name: "all recognized types in order",
			fields: []pdftest.Field{
				{Title: "(a)", Type: "/Tx"},
				{Title: "(b)", Type: "/Btn"},
				{Title: "(c)", Type: "/Ch"},
				{Title: "(d)", Type: "/Sig"},
				{Title: "(e)", Type: "/Foo"},
			},
			want: []Field{
				{Name: "a", Type: FieldTypeText, OriginalName: "a"},
				{Name: "b", Type: FieldTypeButton, OriginalName: "b"},
				{Name: "c", Type: FieldTypeChoice, OriginalName: "c"},
				{Name: "d", Type: FieldTypeSignature, OriginalName: "d"},
				{Name: "e", Type: FieldTypeUnknown, OriginalName: "e"},
			},
		},
		{
			name: "missing title and type",
			fields: []pdftest.Field{
				{},
				{Title: "()", Type: "/Tx"},
			},
			want: []Field{
				{Name: UnknownName, Type: FieldTypeUnknown, OriginalName: UnknownName},
				{Name: UnknownName, Type: FieldTypeText, OriginalName: UnknownName},
			},
		},
		{
			name: "duplicate names are kept",
			fields: []pdftest.Field{
				pdftest.Text("Same"),
				pdftest.Text("Same"),
			},
			want: []Field{
				{Name: "Same", Type: FieldTypeText, OriginalName: "Same"},
				{Name: "Same", Type: FieldTypeText, OriginalName: "Same"},
			},
		},
		{
			name: "escaped and hex titles",
			fields: []pdftest.Field{
				{Title: `(Total \(USD\))`, Type: "/Tx"},
				{Title: "<FEFF00C9006C00E800760065>", Type: "/Tx"},
			},
			want: []Field{
				{Name: "Total (USD)", Type: FieldTypeText, OriginalName: "Total (USD)"},
				{Name: "Élève", Type: FieldTypeText, OriginalName: "Élève"},
			},
		},
		{
			name:   "no acroform",
			opts:   pdftest.Options{NoAcroForm: true},
			fields: []pdftest.Field{pdftest.Text("Ignored")},
			want:   []Field{},
		},
		{
			name: "acroform without fields",
			opts: pdftest.Options{NoFields: true},
			want: []Field{},
		},
		{
			name: "null fields",
			opts: pdftest.Options{NullFields: true},
			want: []Field{},
		},
	}

	editor := NewEditor(false)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := editor.ListFields(pdftest.Build(tt.opts, tt.fields...))
			require.NoError(t, err)
			require.NotNil(t, got)

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ListFields() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEditor_ListFieldsInvalidDocument(t *testing.T) {
	editor := NewEditor(false)

	inputs := map[string][]byte{
		"empty":     {},
		"not a pdf": []byte("hello, world"),
		"truncated": pdftest.Build(pdftest.Options{}, pdftest.Text("A"))[:20],
	}

	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			fields, err := editor.ListFields(data)
			require.Error(t, err)
			assert.Nil(t, fields)

			var formErr *Error
			require.True(t, errors.As(err, &formErr))
			assert.Equal(t, OpRead, formErr.Op)
		})
	}
}

func TestEditor_TruncatedDocuments(t *testing.T) {
	editor := NewEditor(false)

	data := pdftest.Build(pdftest.Options{},
		pdftest.Text("FullName"),
		pdftest.Field{Title: "(Agree)", Type: "/Btn"},
	)

	for n := 0; n < len(data); n++ {
		cut := data[:n]

		var (
			fields []Field
			err    error
		)
		require.NotPanics(t, func() {
			fields, err = editor.ListFields(cut)
		}, "ListFields on %d of %d bytes", n, len(data))
		if err != nil {
			assert.Nil(t, fields)
			var formErr *Error
			require.True(t, errors.As(err, &formErr), "ListFields on %d bytes: %v", n, err)
			assert.Equal(t, OpRead, formErr.Op)
		}

		require.NotPanics(t, func() {
			_, _, err = editor.RenameFields(cut, map[string]string{"FullName": "Name"})
		}, "RenameFields on %d of %d bytes", n, len(data))
		if err != nil {
			var formErr *Error
			require.True(t, errors.As(err, &formErr), "RenameFields on %d bytes: %v", n, err)
		}
	}

	// A cut inside the catalog object cannot be read at all.
	_, err := editor.ListFields(data[:80])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acroform read")
}

func TestEditor_CorruptedDocuments(t *testing.T) {
	editor := NewEditor(false)

	data := pdftest.Build(pdftest.Options{}, pdftest.Text("A"), pdftest.Text("B"))

	for i := 0; i < len(data); i += 7 {
		corrupted := append([]byte(nil), data...)
		for j := i; j < i+3 && j < len(corrupted); j++ {
			corrupted[j] ^= 0xFF
		}

		require.NotPanics(t, func() {
			_, err := editor.ListFields(corrupted)
			if err != nil {
				var formErr *Error
				assert.True(t, errors.As(err, &formErr))
			}
		}, "ListFields with bytes %d..%d flipped", i, i+2)
	}
}

func TestPanicError(t *testing.T) {
	err := panicError(OpWrite, "slice bounds out of range")

	assert.Equal(t, OpWrite, err.Op)
	assert.Equal(t, "acroform write: invalid PDF: slice bounds out of range", err.Error())
}

func TestEditor_RenameFields(t *testing.T) {
	editor := NewEditor(false)

	data := pdftest.Build(pdftest.Options{},
		pdftest.Text("FullName"),
		pdftest.Field{Title: "(Signature1)", Type: "/Sig"},
	)

	out, count, err := editor.RenameFields(data, map[string]string{"FullName": "Applicant_Name"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	fields, err := editor.ListFields(out)
	require.NoError(t, err)

	want := []Field{
		{Name: "Applicant_Name", Type: FieldTypeText, OriginalName: "Applicant_Name"},
		{Name: "Signature1", Type: FieldTypeSignature, OriginalName: "Signature1"},
	}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Errorf("fields after rename mismatch (-want +got):\n%s", diff)
	}

	assert.True(t, needAppearances(t, out), "NeedAppearances should be set")
}

func TestEditor_RenameFieldsCount(t *testing.T) {
	editor := NewEditor(false)

	data := pdftest.Build(pdftest.Options{},
		pdftest.Text("A"),
		pdftest.Text("B"),
		pdftest.Text("A"),
		pdftest.Field{Type: "/Tx"},
	)

	tests := []struct {
		name      string
		mappings  map[string]string
		wantCount int
		wantNames []string
	}{
		{
			name:      "empty mapping",
			mappings:  map[string]string{},
			wantCount: 0,
			wantNames: []string{"A", "B", "A", UnknownName},
		},
		{
			name:      "duplicates each count",
			mappings:  map[string]string{"A": "X"},
			wantCount: 2,
			wantNames: []string{"X", "B", "X", UnknownName},
		},
		{
			name:      "keys without a field are ignored",
			mappings:  map[string]string{"B": "Y", "Missing": "Z"},
			wantCount: 1,
			wantNames: []string{"A", "Y", "A", UnknownName},
		},
		{
			name:      "untitled fields never match Unknown",
			mappings:  map[string]string{UnknownName: "Named"},
			wantCount: 0,
			wantNames: []string{"A", "B", "A", UnknownName},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, count, err := editor.RenameFields(data, tt.mappings)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, count)

			fields, err := editor.ListFields(out)
			require.NoError(t, err)
			assert.Equal(t, tt.wantNames, names(fields))
		})
	}
}

func TestEditor_RenameFieldsSpecialNames(t *testing.T) {
	editor := NewEditor(false)

	data := pdftest.Build(pdftest.Options{}, pdftest.Text("One"), pdftest.Text("Two"))

	mappings := map[string]string{
		"One": `Total (USD) \ net`,
		"Two": "Prénom 名前",
	}

	out, count, err := editor.RenameFields(data, mappings)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	fields, err := editor.ListFields(out)
	require.NoError(t, err)
	assert.Equal(t, []string{`Total (USD) \ net`, "Prénom 名前"}, names(fields))

	// A second pass matches on the new logical names.
	out, count, err = editor.RenameFields(out, map[string]string{"Prénom 名前": "FirstName"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	fields, err = editor.ListFields(out)
	require.NoError(t, err)
	assert.Equal(t, []string{`Total (USD) \ net`, "FirstName"}, names(fields))
}

func TestEditor_RenameFieldsNoForm(t *testing.T) {
	editor := NewEditor(false)

	for name, opts := range map[string]pdftest.Options{
		"no acroform": {NoAcroForm: true},
		"no fields":   {NoFields: true},
		"null fields": {NullFields: true},
	} {
		t.Run(name, func(t *testing.T) {
			data := pdftest.Build(opts)

			out, count, err := editor.RenameFields(data, map[string]string{"A": "B"})
			require.NoError(t, err)
			assert.Equal(t, 0, count)
			assert.True(t, bytes.Equal(data, out), "document should be returned unchanged")
		})
	}
}

func TestEditor_RenameFieldsInvalidDocument(t *testing.T) {
	editor := NewEditor(false)

	out, count, err := editor.RenameFields([]byte("%PDF-1.7\ngarbage"), map[string]string{"A": "B"})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Zero(t, count)

	var formErr *Error
	require.True(t, errors.As(err, &formErr))
	assert.Equal(t, OpRead, formErr.Op)
}

func TestEditor_Concurrent(t *testing.T) {
	editor := NewEditor(false)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			name := string(rune('A' + i))
			data := pdftest.Build(pdftest.Options{}, pdftest.Text(name))

			out, count, err := editor.RenameFields(data, map[string]string{name: name + "_renamed"})
			assert.NoError(t, err)
			assert.Equal(t, 1, count)

			fields, err := editor.ListFields(out)
			if assert.NoError(t, err) && assert.Len(t, fields, 1) {
				assert.Equal(t, name+"_renamed", fields[0].Name)
			}
		}(i)
	}
	wg.Wait()
}

func TestParseFieldType(t *testing.T) {
	tests := map[string]FieldType{
		"/Tx":  FieldTypeText,
		"Tx":   FieldTypeText,
		"/Btn": FieldTypeButton,
		"/Ch":  FieldTypeChoice,
		"/Sig": FieldTypeSignature,
		"/tx":  FieldTypeUnknown,
		"/Txt": FieldTypeUnknown,
		"":     FieldTypeUnknown,
		"/":    FieldTypeUnknown,
	}

	for in, want := range tests {
		assert.Equal(t, want, ParseFieldType(in), "ParseFieldType(%q)", in)
	}
}

func TestEncodeTitle(t *testing.T) {
	obj, err := EncodeTitle("Plain Name")
	require.NoError(t, err)
	assert.Equal(t, types.StringLiteral("Plain Name"), obj)

	obj, err = EncodeTitle(`a(b)\c`)
	require.NoError(t, err)
	assert.Equal(t, types.StringLiteral(`a\(b\)\\c`), obj)

	obj, err = EncodeTitle("É")
	require.NoError(t, err)
	assert.Equal(t, types.HexLiteral("FEFF00C9"), obj)
}

func TestError(t *testing.T) {
	inner := errors.New("boom")
	err := &Error{Op: OpWrite, Err: inner}

	assert.Equal(t, "acroform write: boom", err.Error())
	assert.ErrorIs(t, err, inner)
}

func names(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

func needAppearances(t *testing.T, data []byte) bool {
	t.Helper()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	require.NoError(t, err)

	rootDict, err := ctx.Catalog()
	require.NoError(t, err)

	obj, found := rootDict.Find("AcroForm")
	require.True(t, found)

	acroFormDict, err := ctx.DereferenceDict(obj)
	require.NoError(t, err)

	v := acroFormDict.BooleanEntry("NeedAppearances")
	return v != nil && *v
}
