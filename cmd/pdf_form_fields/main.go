package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/a3tai/pdf-form-editor/internal/pdf/acroform"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// options are the parsed command line arguments
type options struct {
	format  string
	renames []string
	out     string
	verbose bool
	input   string
}

// ListResult is the JSON output of a field listing
type ListResult struct {
	FilePath   string           `json:"file_path"`
	FieldCount int              `json:"field_count"`
	Fields     []acroform.Field `json:"fields"`
}

// RenameResult is the JSON output of a rename
type RenameResult struct {
	FilePath     string `json:"file_path"`
	OutputPath   string `json:"output_path"`
	RenamedCount int    `json:"renamed_count"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	data, err := os.ReadFile(opts.input)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	editor := acroform.NewEditor(opts.verbose)

	if len(opts.renames) > 0 {
		err = renameFields(editor, data, opts, stdout)
	} else {
		err = listFields(editor, data, opts, stdout)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := pflag.NewFlagSet("pdf_form_fields", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.format, "format", formatText, "Output format: text, json")
	fs.StringArrayVar(&opts.renames, "rename", nil, "Rename a field, as old=new (repeatable)")
	fs.StringVar(&opts.out, "out", "", "Output file for the renamed document")
	fs.BoolVar(&opts.verbose, "verbose", false, "Log each field as it is read")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "PDF Form Fields - list or rename the AcroForm fields of a PDF\n\n")
		fmt.Fprintf(stderr, "USAGE:\n")
		fmt.Fprintf(stderr, "  pdf_form_fields [OPTIONS] <pdf_file>\n\n")
		fmt.Fprintf(stderr, "OPTIONS:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nEXAMPLES:\n")
		fmt.Fprintf(stderr, "  pdf_form_fields form.pdf\n")
		fmt.Fprintf(stderr, "  pdf_form_fields --format json form.pdf\n")
		fmt.Fprintf(stderr, "  pdf_form_fields --rename FullName=Applicant_Name --out renamed.pdf form.pdf\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return nil, fmt.Errorf("exactly one PDF file path required")
	}
	opts.input = fs.Arg(0)

	if opts.format != formatText && opts.format != formatJSON {
		return nil, fmt.Errorf("invalid format %q (must be %s or %s)", opts.format, formatText, formatJSON)
	}

	if len(opts.renames) > 0 && opts.out == "" {
		return nil, fmt.Errorf("--out is required with --rename")
	}

	return opts, nil
}

// parseMappings turns old=new pairs into a rename mapping. The first '='
// separates the names, so new names may contain '='.
func parseMappings(pairs []string) (map[string]string, error) {
	mappings := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		oldName, newName, ok := strings.Cut(pair, "=")
		if !ok || oldName == "" || newName == "" {
			return nil, fmt.Errorf("invalid rename %q (expected old=new)", pair)
		}
		mappings[oldName] = newName
	}
	return mappings, nil
}

func listFields(editor *acroform.Editor, data []byte, opts *options, stdout io.Writer) error {
	fields, err := editor.ListFields(data)
	if err != nil {
		return fmt.Errorf("failed to read form fields: %w", err)
	}

	if opts.format == formatJSON {
		return writeJSON(stdout, ListResult{
			FilePath:   opts.input,
			FieldCount: len(fields),
			Fields:     fields,
		})
	}

	if len(fields) == 0 {
		fmt.Fprintf(stdout, "No form fields found in %s\n", opts.input)
		return nil
	}

	fmt.Fprintf(stdout, "%d form field(s) in %s\n\n", len(fields), opts.input)
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tTYPE")
	for i, f := range fields {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, f.Name, f.Type)
	}
	return tw.Flush()
}

func renameFields(editor *acroform.Editor, data []byte, opts *options, stdout io.Writer) error {
	mappings, err := parseMappings(opts.renames)
	if err != nil {
		return err
	}

	out, count, err := editor.RenameFields(data, mappings)
	if err != nil {
		return fmt.Errorf("failed to rename form fields: %w", err)
	}

	if err := os.WriteFile(opts.out, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.out, err)
	}

	if opts.format == formatJSON {
		return writeJSON(stdout, RenameResult{
			FilePath:     opts.input,
			OutputPath:   opts.out,
			RenamedCount: count,
		})
	}

	fmt.Fprintf(stdout, "Renamed %d field(s), wrote %s\n", count, opts.out)
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
