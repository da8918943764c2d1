package mcp

import (
	"context"
	"fmt"
	"strings"

	"mdserve/internal/config"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerTools wires every tool onto the MCP server.
func (s *Server) registerTools() {
	s.registerGetContent()
	s.registerReadDocument()
	s.registerListDocuments()
	s.registerListCategories()
	s.registerFetchDocument()
	s.registerAddCategory()
	s.registerUpdateCategory()
	s.registerRemoveCategory()
	s.registerClearCaches()
}

func (s *Server) registerGetContent() {
	tool := mcp.NewTool("get_content",
		mcp.WithDescription("Get the combined content of all documents in a category"),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("Category name"),
		),
	)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("category")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result, err := s.service.GetContent(ctx, name)
		if err != nil {
			s.logger.Warn("get_content failed", "category", name, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(result.MatchedFiles) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No files found matching patterns in category %q", name)), nil
		}
		return mcp.NewToolResultText(result.Content), nil
	})
}

func (s *Server) registerReadDocument() {
	tool := mcp.NewTool("read_document",
		mcp.WithDescription("Read a single named document from a category"),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("Category name"),
		),
		mcp.WithString("document",
			mcp.Required(),
			mcp.Description("Document name; the .md extension may be omitted"),
		),
	)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("category")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		document, err := request.RequireString("document")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		content, err := s.service.ReadDocument(ctx, name, document)
		if err != nil {
			s.logger.Warn("read_document failed", "category", name, "document", document, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(content), nil
	})
}

func (s *Server) registerListDocuments() {
	tool := mcp.NewTool("list_documents",
		mcp.WithDescription("List the documents of a category with their frontmatter metadata"),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("Category name"),
		),
	)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("category")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		docs, err := s.service.ListDocuments(name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var b strings.Builder
		for _, doc := range docs {
			fmt.Fprintf(&b, "- %s", doc.Name)
			if doc.Title != "" {
				fmt.Fprintf(&b, " (%s)", doc.Title)
			}
			if doc.Description != "" {
				fmt.Fprintf(&b, ": %s", doc.Description)
			}
			b.WriteString("\n")
		}
		if b.Len() == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No documents in category %q", name)), nil
		}
		return mcp.NewToolResultText(b.String()), nil
	})
}

func (s *Server) registerListCategories() {
	tool := mcp.NewTool("list_categories",
		mcp.WithDescription("List the configured category names"),
	)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		names := s.service.Categories()
		if len(names) == 0 {
			return mcp.NewToolResultText("No categories configured"), nil
		}
		return mcp.NewToolResultText(strings.Join(names, "\n")), nil
	})
}

func (s *Server) registerFetchDocument() {
	tool := mcp.NewTool("fetch_document",
		mcp.WithDescription("Fetch a document at an explicit URI (file://, http://, https:// or a docroot-relative path)"),
		mcp.WithString("uri",
			mcp.Required(),
			mcp.Description("Document URI"),
		),
	)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		uri, err := request.RequireString("uri")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		content, err := s.service.FetchDocument(ctx, uri)
		if err != nil {
			s.logger.Warn("fetch_document failed", "uri", uri, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(content), nil
	})
}

func (s *Server) registerAddCategory() {
	tool := mcp.NewTool("add_category",
		mcp.WithDescription("Add a new document category"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Category name, matching [A-Za-z0-9_-]+"),
		),
		mcp.WithString("dir",
			mcp.Required(),
			mcp.Description("Directory relative to the docroot"),
		),
		mcp.WithArray("patterns",
			mcp.Required(),
			mcp.Description("Glob patterns for the category's documents"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("description",
			mcp.Description("Human-readable category description"),
		),
	)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dir, err := request.RequireString("dir")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		cat := config.Category{
			Dir:         dir,
			Patterns:    request.GetStringSlice("patterns", nil),
			Description: request.GetString("description", ""),
		}
		if err := s.service.AddCategory(name, cat); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		s.logger.Info("Category added", "name", name, "dir", dir)
		return mcp.NewToolResultText(fmt.Sprintf("Category %q added", name)), nil
	})
}

func (s *Server) registerUpdateCategory() {
	tool := mcp.NewTool("update_category",
		mcp.WithDescription("Update an existing category's directory or patterns"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Category name"),
		),
		mcp.WithString("dir",
			mcp.Required(),
			mcp.Description("Directory relative to the docroot"),
		),
		mcp.WithArray("patterns",
			mcp.Required(),
			mcp.Description("Glob patterns for the category's documents"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("description",
			mcp.Description("Human-readable category description"),
		),
	)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dir, err := request.RequireString("dir")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		cat := config.Category{
			Dir:         dir,
			Patterns:    request.GetStringSlice("patterns", nil),
			Description: request.GetString("description", ""),
		}
		if err := s.service.UpdateCategory(name, cat); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		s.logger.Info("Category updated", "name", name, "dir", dir)
		return mcp.NewToolResultText(fmt.Sprintf("Category %q updated", name)), nil
	})
}

func (s *Server) registerRemoveCategory() {
	tool := mcp.NewTool("remove_category",
		mcp.WithDescription("Remove a category (built-in categories cannot be removed)"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Category name"),
		),
	)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		if err := s.service.RemoveCategory(name); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		s.logger.Info("Category removed", "name", name)
		return mcp.NewToolResultText(fmt.Sprintf("Category %q removed", name)), nil
	})
}

func (s *Server) registerClearCaches() {
	tool := mcp.NewTool("clear_caches",
		mcp.WithDescription("Clear the document existence cache and the remote content cache"),
	)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.service.ClearCaches()
		s.logger.Info("Caches cleared")
		return mcp.NewToolResultText("Caches cleared"), nil
	})
}
