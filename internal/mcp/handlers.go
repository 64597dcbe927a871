package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/jot/internal/capture"
	"github.com/hpungsan/jot/internal/config"
	"github.com/hpungsan/jot/internal/errors"
	"github.com/hpungsan/jot/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg}
}

// Request types for each tool

// ParseRequest represents the arguments for capture_parse.
type ParseRequest struct {
	Text string `json:"text"`
}

// AddRequest represents the arguments for capture_add.
type AddRequest struct {
	Text        string  `json:"text"`
	Description *string `json:"description,omitempty"`
}

// FetchRequest represents the arguments for capture_fetch.
type FetchRequest struct {
	ID             string `json:"id"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// ListRequest represents the arguments for capture_list.
type ListRequest struct {
	Type           *string `json:"type,omitempty"`
	Status         *string `json:"status,omitempty"`
	Project        *string `json:"project,omitempty"`
	Hashtag        *string `json:"hashtag,omitempty"`
	Query          *string `json:"query,omitempty"`
	DueBefore      *string `json:"due_before,omitempty"`
	Limit          int     `json:"limit,omitempty"`
	Offset         int     `json:"offset,omitempty"`
	IncludeDeleted bool    `json:"include_deleted,omitempty"`
}

// UpdateRequest represents the arguments for capture_update.
type UpdateRequest struct {
	ID          string    `json:"id"`
	Title       *string   `json:"title,omitempty"`
	Status      *string   `json:"status,omitempty"`
	Priority    *string   `json:"priority,omitempty"`
	DueDate     *string   `json:"due_date,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Description *string   `json:"description,omitempty"`
	Project     *string   `json:"project,omitempty"`
	Hashtags    *[]string `json:"hashtags,omitempty"`
}

// DeleteRequest represents the arguments for capture_delete.
type DeleteRequest struct {
	ID string `json:"id"`
}

// PurgeRequest represents the arguments for capture_purge.
type PurgeRequest struct {
	Type          *string `json:"type,omitempty"`
	OlderThanDays *int    `json:"older_than_days,omitempty"`
}

// ExportRequest represents the arguments for capture_export.
type ExportRequest struct {
	Path           string  `json:"path,omitempty"`
	Type           *string `json:"type,omitempty"`
	IncludeDeleted bool    `json:"include_deleted,omitempty"`
}

// ImportRequest represents the arguments for capture_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// ProjectListRequest represents the arguments for project_list.
type ProjectListRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// Handler implementations

// HandleParse handles the capture_parse tool call.
func (h *Handlers) HandleParse(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input ParseRequest
	if err := bindArgs(req, &input); err != nil {
		return errorResult(err), nil
	}
	return successResult(ops.Parse(ops.ParseInput{Text: input.Text}))
}

// HandleAdd handles the capture_add tool call.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input AddRequest
	if err := bindArgs(req, &input); err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Capture(ctx, h.db, h.cfg, ops.CaptureInput{
		Text:        input.Text,
		Description: input.Description,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleFetch handles the capture_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input FetchRequest
	if err := bindArgs(req, &input); err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Fetch(ctx, h.db, ops.FetchInput{
		ID:             input.ID,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleList handles the capture_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input ListRequest
	if err := bindArgs(req, &input); err != nil {
		return errorResult(err), nil
	}

	limit := input.Limit
	if limit <= 0 && h.cfg != nil {
		limit = h.cfg.DefaultListLimit
	}

	result, err := ops.List(ctx, h.db, ops.ListInput{
		Type:           asType(input.Type),
		Status:         asStatus(input.Status),
		Project:        input.Project,
		Hashtag:        input.Hashtag,
		Query:          input.Query,
		DueBefore:      input.DueBefore,
		Limit:          limit,
		Offset:         input.Offset,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleUpdate handles the capture_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input UpdateRequest
	if err := bindArgs(req, &input); err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Update(ctx, h.db, h.cfg, ops.UpdateInput{
		ID:          input.ID,
		Title:       input.Title,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		Category:    input.Category,
		Description: input.Description,
		Project:     input.Project,
		Hashtags:    input.Hashtags,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDelete handles the capture_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input DeleteRequest
	if err := bindArgs(req, &input); err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Delete(ctx, h.db, ops.DeleteInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePurge handles the capture_purge tool call.
func (h *Handlers) HandlePurge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input PurgeRequest
	if err := bindArgs(req, &input); err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Purge(ctx, h.db, ops.PurgeInput{
		Type:          asType(input.Type),
		OlderThanDays: input.OlderThanDays,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleExport handles the capture_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input ExportRequest
	if err := bindArgs(req, &input); err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Export(ctx, h.db, h.cfg, ops.ExportInput{
		Path:           input.Path,
		Type:           asType(input.Type),
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleImport handles the capture_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input ImportRequest
	if err := bindArgs(req, &input); err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Import(ctx, h.db, h.cfg, ops.ImportInput{
		Path: input.Path,
		Mode: ops.ImportMode(input.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleProjectList handles the project_list tool call.
func (h *Handlers) HandleProjectList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input ProjectListRequest
	if err := bindArgs(req, &input); err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Projects(ctx, h.db, ops.ProjectsInput{
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

func asType(s *string) *capture.Type {
	if s == nil || *s == "" {
		return nil
	}
	t := capture.Type(*s)
	return &t
}

func asStatus(s *string) *capture.Status {
	if s == nil || *s == "" {
		return nil
	}
	st := capture.Status(*s)
	return &st
}

// Result helpers

// errorResult creates an MCP error result from any error.
// INTERNAL errors are logged and replaced by a generic message so SQL text and
// file paths never reach the client.
func errorResult(err error) *mcp.CallToolResult {
	jErr := errors.As(err)

	errorObj := map[string]any{
		"code":    jErr.Code,
		"message": jErr.Message,
		"status":  jErr.Status,
	}
	if jErr.Code == errors.ErrInternal {
		log.Printf("jot: internal error: %v", err)
		errorObj["message"] = "an internal error occurred"
	} else if jErr.Details != nil {
		errorObj["details"] = jErr.Details
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}

// bindArgs fills one of the *Request structs above from the tool arguments.
// Keys the caller left out stay nil, so UpdateRequest only touches what was sent.
func bindArgs(req mcp.CallToolRequest, dst any) error {
	raw, err := json.Marshal(req.GetArguments())
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid arguments for %s: %v", req.Params.Name, err))
	}
	return nil
}
