package mcp

import (
	goMCP "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/melkeydev/value-finder/finder"
	"github.com/melkeydev/value-finder/handlers"
)

func RegisterTools(s *server.MCPServer, f *finder.Finder) {
	stringItems := goMCP.Items(map[string]any{"type": "string"})

	// Find tool
	findTool := goMCP.NewTool("find_value",
		goMCP.WithDescription("Search databases for tables and columns containing a value"),
		goMCP.WithString("value",
			goMCP.Required(),
			goMCP.Description("Value to search for. Integers and decimals are searched as numbers unless as_text is set"),
		),
		goMCP.WithArray("databases",
			goMCP.Description("Databases to scan. If empty, scans all non-system databases"),
			stringItems,
		),
		goMCP.WithArray("tables",
			goMCP.Description("Tables to scan in every database. If empty, scans all user tables"),
			stringItems,
		),
		goMCP.WithBoolean("exact_match",
			goMCP.Description("Require text columns to equal the value instead of containing it"),
		),
		goMCP.WithBoolean("as_text",
			goMCP.Description("Search numeric looking values as text"),
		),
	)

	// List databases tool
	listDatabasesTool := goMCP.NewTool("list_databases",
		goMCP.WithDescription("List the databases a search without a filter would scan"),
	)

	// List tables tool
	listTablesTool := goMCP.NewTool("list_tables",
		goMCP.WithDescription("List the user tables of a database"),
		goMCP.WithString("database",
			goMCP.Required(),
			goMCP.Description("Name of the database"),
		),
	)

	s.AddTool(findTool, handlers.FindHandler(f))
	s.AddTool(listDatabasesTool, handlers.ListDatabasesHandler(f))
	s.AddTool(listTablesTool, handlers.ListTablesHandler(f))
}
