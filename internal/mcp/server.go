package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/pdf-form-editor/internal/config"
	"github.com/a3tai/pdf-form-editor/internal/pdf"
)

// Tool names
const (
	ToolAnalyze  = "pdf_form_analyze"
	ToolRename   = "pdf_form_rename"
	ToolValidate = "pdf_form_validate"
)

// Server exposes the form service as MCP tools
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
	tools      []string
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	analyzeTool := mcp.NewTool(
		ToolAnalyze,
		mcp.WithDescription("List the interactive form fields of a PDF with their names and types"),
		mcp.WithString("pdf",
			mcp.Required(),
			mcp.Description("Base64 encoded PDF document"),
		),
	)
	s.addTool(analyzeTool, s.handleAnalyze)

	renameTool := mcp.NewTool(
		ToolRename,
		mcp.WithDescription("Rename form fields of a PDF and return the updated document as base64"),
		mcp.WithString("pdf",
			mcp.Required(),
			mcp.Description("Base64 encoded PDF document"),
		),
		mcp.WithObject("mappings",
			mcp.Required(),
			mcp.Description("Map of current field name to new field name"),
		),
	)
	s.addTool(renameTool, s.handleRename)

	validateTool := mcp.NewTool(
		ToolValidate,
		mcp.WithDescription("Check that a base64 encoded document opens as a PDF"),
		mcp.WithString("pdf",
			mcp.Required(),
			mcp.Description("Base64 encoded PDF document"),
		),
	)
	s.addTool(validateTool, s.handleValidate)
}

func (s *Server) addTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.mcpServer.AddTool(tool, handler)
	s.tools = append(s.tools, tool.Name)
}

func (s *Server) handleAnalyze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := request.RequireString("pdf")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.Analyze(pdf.AnalyzeRequest{PDF: doc})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatAnalyzeResult(result)), nil
}

func (s *Server) handleRename(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := request.RequireString("pdf")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	mappings, err := mappingsArgument(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.Rename(pdf.RenameRequest{PDF: doc, Mappings: mappings})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Renamed %d field(s)\n\n", result.RenamedCount)
	text += result.PDF

	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := request.RequireString("pdf")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.Validate(pdf.ValidateRequest{PDF: doc})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatValidateResult(result)), nil
}

// mappingsArgument reads the rename mappings, given either as an object or
// as a JSON encoded string
func mappingsArgument(args map[string]interface{}) (map[string]string, error) {
	raw, ok := args["mappings"]
	if !ok || raw == nil {
		return nil, errors.New(pdf.MsgMissingMappings)
	}

	switch v := raw.(type) {
	case map[string]interface{}:
		mappings := make(map[string]string, len(v))
		for oldName, newName := range v {
			str, ok := newName.(string)
			if !ok {
				return nil, fmt.Errorf("mapping for %q must be a string, got %T", oldName, newName)
			}
			mappings[oldName] = str
		}
		return mappings, nil

	case string:
		var mappings map[string]string
		if err := json.Unmarshal([]byte(v), &mappings); err != nil {
			return nil, fmt.Errorf("invalid mappings: %w", err)
		}
		if mappings == nil {
			return nil, errors.New(pdf.MsgMissingMappings)
		}
		return mappings, nil

	default:
		return nil, fmt.Errorf("mappings must be an object, got %T", raw)
	}
}

func (s *Server) formatAnalyzeResult(result *pdf.AnalyzeResult) string {
	if len(result.Fields) == 0 {
		return "No form fields found"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d form field(s):\n", len(result.Fields))
	for i, f := range result.Fields {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, f.Name, f.Type)
	}
	return b.String()
}

func (s *Server) formatValidateResult(result *pdf.ValidateResult) string {
	if !result.Valid {
		return fmt.Sprintf("PDF validation failed: %s", result.Message)
	}

	text := fmt.Sprintf("PDF is valid (version %s, %d page(s), %d bytes)\n", result.Version, result.Pages, result.Size)
	if result.HasForm {
		text += fmt.Sprintf("Form fields: %d\n", result.FieldCount)
	} else {
		text += "No form fields\n"
	}
	return text
}

// ToolNames returns the names of the registered tools, sorted
func (s *Server) ToolNames() []string {
	names := append([]string(nil), s.tools...)
	sort.Strings(names)
	return names
}

// Run serves MCP over the process's standard input and output until ctx is
// cancelled or stdin is closed
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve serves MCP over the given streams
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	if s.config.IsDebug() {
		log.Printf("Starting PDF form MCP server over stdio")
	}

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.New(os.Stderr, "mcp: ", log.LstdFlags))

	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
