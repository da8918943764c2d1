// Package mcp implements the Model Context Protocol (MCP) server surface of
// mdserve using the mcp-go library.
//
// The server exposes the category document operations as tools over the
// stdio transport (JSON-RPC 2.0). The protocol layer stays deliberately
// thin: argument parsing and result shaping happen here, while all content
// resolution, boundary validation and caching live in the category service
// and its collaborators.
//
// # Tools
//
//   - get_content: combined content of every document in a category
//   - read_document: one named document from a category
//   - list_documents: documents of a category with frontmatter metadata
//   - list_categories: configured category names
//   - fetch_document: a document at an explicit file:// or http(s):// URI
//   - add_category / update_category / remove_category: category mutation,
//     each invalidating the existence cache synchronously
//   - clear_caches: administrative reset of both caches
//
// # Security
//
// Every local read performed on behalf of a tool call is bounded by the
// configured allowed roots; a boundary violation is reported to the caller
// as a tool error and never silently widened.
package mcp
