package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/melkeydev/value-finder/finder"
)

// FindHandler creates a handler for the find_value tool
func FindHandler(f *finder.Finder) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := request.RequireString("value")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Missing value parameter: %v", err)), nil
		}

		args, _ := request.Params.Arguments.(map[string]any)
		req := finder.Request{
			Value:      finder.ParseValue(raw, boolArg(args, "as_text")),
			Databases:  stringsArg(args, "databases"),
			Tables:     stringsArg(args, "tables"),
			ExactMatch: boolArg(args, "exact_match"),
		}

		report, err := f.Find(ctx, req)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Find failed: %v", err)), nil
		}

		return jsonResult(report)
	}
}

// ListDatabasesHandler creates a handler for the list_databases tool
func ListDatabasesHandler(f *finder.Finder) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		names, err := f.ListDatabases(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("List databases failed: %v", err)), nil
		}

		return jsonResult(names)
	}
}

// ListTablesHandler creates a handler for the list_tables tool
func ListTablesHandler(f *finder.Finder) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		database, err := request.RequireString("database")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Missing database parameter: %v", err)), nil
		}

		names, err := f.ListTables(ctx, database)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("List tables failed: %v", err)), nil
		}

		return jsonResult(names)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal results: %v", err)), nil
	}

	return mcp.NewToolResultText(string(jsonData)), nil
}

func stringsArg(args map[string]any, name string) []string {
	var list []string
	if param, exists := args[name]; exists {
		if array, ok := param.([]interface{}); ok {
			for _, item := range array {
				if s, ok := item.(string); ok && s != "" {
					list = append(list, s)
				}
			}
		}
	}
	return list
}

func boolArg(args map[string]any, name string) bool {
	b, _ := args[name].(bool)
	return b
}
