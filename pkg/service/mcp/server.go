// Package mcp exposes the corpus, its summary and grounded answers as MCP
// tools so external readers such as an operator console can use them.
package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/Vamsi1807/AI-Call-Center/pkg/model"
	"github.com/Vamsi1807/AI-Call-Center/pkg/usecase/call"
	"github.com/Vamsi1807/AI-Call-Center/pkg/utils/logging"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	notGenerated = "not generated yet"
)

// CorpusReader reads the current corpus and summary
type CorpusReader interface {
	Corpus() *model.Corpus
	Summary() *model.Summary
}

// Server serves corpus tools over MCP
type Server struct {
	reader  CorpusReader
	manager *call.Manager
	version string
}

// Option is a functional option for Server
type Option func(*Server)

// WithVersion sets the implementation version reported to clients
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// New creates a Server. manager answers questions of the ask tool.
func New(reader CorpusReader, manager *call.Manager, opts ...Option) *Server {
	s := &Server{
		reader:  reader,
		manager: manager,
		version: "0.1.0",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type getSummaryParams struct{}

type getContextParams struct {
	Offset int `json:"offset,omitempty" jsonschema:"First corpus line to return, starting at 0"`
	Limit  int `json:"limit,omitempty" jsonschema:"Maximum number of lines to return. 0 returns all lines"`
}

type askParams struct {
	Question string `json:"question" jsonschema:"Question to answer from the knowledge corpus"`
	Caller   string `json:"caller,omitempty" jsonschema:"Caller identifier. Questions from the same caller are answered one at a time"`
}

// MCPServer builds the MCP server with all tools registered
func (s *Server) MCPServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "ai-call-center",
		Version: s.version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_summary",
		Description: "Return the generated summary of the knowledge corpus",
	}, s.getSummary)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_context",
		Description: "Return lines of the flattened knowledge corpus built from the uploaded files",
	}, s.getContext)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question as the call center assistant, grounded on the knowledge corpus",
	}, s.ask)

	return server
}

// Serve runs the MCP server on stdio until ctx is done or the client disconnects
func (s *Server) Serve(ctx context.Context) error {
	logging.From(ctx).Info("serving MCP tools on stdio")
	if err := s.MCPServer().Run(ctx, &mcp.StdioTransport{}); err != nil {
		return goerr.Wrap(err, "MCP server stopped")
	}
	return nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func (s *Server) getSummary(ctx context.Context, req *mcp.CallToolRequest, params *getSummaryParams) (*mcp.CallToolResult, any, error) {
	summary := s.reader.Summary()
	if summary == nil {
		return textResult("Summary " + notGenerated), nil, nil
	}
	return textResult(summary.Text), nil, nil
}

func (s *Server) getContext(ctx context.Context, req *mcp.CallToolRequest, params *getContextParams) (*mcp.CallToolResult, any, error) {
	corpus := s.reader.Corpus()
	if corpus == nil {
		return textResult("Corpus " + notGenerated), nil, nil
	}
	if params.Offset < 0 || params.Limit < 0 {
		return nil, nil, goerr.New("offset and limit must not be negative",
			goerr.V("offset", params.Offset),
			goerr.V("limit", params.Limit))
	}

	lines := corpus.Lines
	start := min(params.Offset, len(lines))
	end := len(lines)
	if params.Limit > 0 {
		end = min(start+params.Limit, len(lines))
	}

	header := fmt.Sprintf("# corpus version %d, lines %d-%d of %d\n", corpus.Version, start, end, len(lines))
	return textResult(header + strings.Join(lines[start:end], "\n")), nil, nil
}

func (s *Server) ask(ctx context.Context, req *mcp.CallToolRequest, params *askParams) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(params.Question) == "" {
		return nil, nil, goerr.Wrap(model.ErrEmptyUtterance, "question is required")
	}

	key := params.Caller
	if key == "" {
		key = "mcp-" + uuid.NewString()
	}
	key = "mcp:" + key

	session := s.manager.Session(key)
	if err := session.StartCall(ctx); err != nil {
		return nil, nil, err
	}
	defer s.manager.Remove(ctx, key)

	if err := session.SubmitUtterance(params.Question); err != nil {
		return nil, nil, err
	}

	reply, err := session.RequestResponse(ctx)
	if err != nil {
		return nil, nil, err
	}
	return textResult(reply), nil, nil
}
