package mcp

import "github.com/mark3labs/mcp-go/mcp"

const captureSyntax = `Quick-capture syntax: "- " task (default), "-- " habit, ": " note. ` +
	`Tasks also read a trailing /1-/3 priority (low..high), a trailing /R /Y /P /G category ` +
	`and the first D/M/YY or D/M/YYYY date. Every type reads @project (last one wins) and #hashtags.`

var parseToolDef = mcp.NewTool("capture_parse",
	mcp.WithDescription("Preview how a quick-capture line is parsed without storing it. "+captureSyntax),
	mcp.WithString("text", mcp.Required(), mcp.Description("One quick-capture line")),
)

var addToolDef = mcp.NewTool("capture_add",
	mcp.WithDescription("Parse a quick-capture line and store it as a task, habit or note. "+
		"Unknown projects are created unless disabled in config. "+captureSyntax),
	mcp.WithString("text", mcp.Required(), mcp.Description("One quick-capture line")),
	mcp.WithString("description", mcp.Description("Optional free-form body (markdown)")),
)

var fetchToolDef = mcp.NewTool("capture_fetch",
	mcp.WithDescription("Fetch one stored item by id."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Item ULID")),
	mcp.WithBoolean("include_deleted", mcp.Description("Also return a soft-deleted item")),
)

var listToolDef = mcp.NewTool("capture_list",
	mcp.WithDescription("List stored items, most recently updated first. All filters are optional and combine with AND."),
	mcp.WithString("type", mcp.Description("Item type"), mcp.Enum("task", "habit", "note")),
	mcp.WithString("status", mcp.Description("Item status"),
		mcp.Enum("todo", "done_today", "review", "cancelled", "completed", "project")),
	mcp.WithString("project", mcp.Description("Project name (case-insensitive)")),
	mcp.WithString("hashtag", mcp.Description("Hashtag, with or without the leading #")),
	mcp.WithString("query", mcp.Description("Substring of the title")),
	mcp.WithString("due_before", mcp.Description("Only items due on or before this YYYY-MM-DD date")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted items")),
)

var updateToolDef = mcp.NewTool("capture_update",
	mcp.WithDescription("Edit a stored item. Omitted fields are unchanged; an empty string clears an optional field. "+
		"Notes carry no status; only tasks carry priority, due_date and category."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Item ULID")),
	mcp.WithString("title", mcp.Description("New title")),
	mcp.WithString("status", mcp.Description("New status"),
		mcp.Enum("todo", "done_today", "review", "cancelled", "completed", "project")),
	mcp.WithString("priority", mcp.Description("low, medium, high, or empty to clear")),
	mcp.WithString("due_date", mcp.Description("YYYY-MM-DD, or empty to clear")),
	mcp.WithString("category", mcp.Description("red, yellow, purple, green, or empty to clear")),
	mcp.WithString("description", mcp.Description("Free-form body, or empty to clear")),
	mcp.WithString("project", mcp.Description("Project name, or empty to detach")),
	mcp.WithArray("hashtags", mcp.Description("Replaces all hashtags"), mcp.Items(map[string]any{"type": "string"})),
)

var deleteToolDef = mcp.NewTool("capture_delete",
	mcp.WithDescription("Soft-delete an item. It can still be fetched with include_deleted until purged."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Item ULID")),
)

var purgeToolDef = mcp.NewTool("capture_purge",
	mcp.WithDescription("Permanently remove soft-deleted items."),
	mcp.WithString("type", mcp.Description("Only purge this type"), mcp.Enum("task", "habit", "note")),
	mcp.WithNumber("older_than_days", mcp.Description("Only purge items deleted more than N days ago")),
)

var exportToolDef = mcp.NewTool("capture_export",
	mcp.WithDescription("Write items to a JSONL backup. Paths must end in .jsonl and sit directly in ~/.jot/exports "+
		"or a configured allowed path."),
	mcp.WithString("path", mcp.Description("Destination file (default: ~/.jot/exports/<type|all>-<timestamp>.jsonl)")),
	mcp.WithString("type", mcp.Description("Only export this type"), mcp.Enum("task", "habit", "note")),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted items")),
)

var importToolDef = mcp.NewTool("capture_import",
	mcp.WithDescription("Restore items from a JSONL backup. Mode error aborts on any collision or bad line, "+
		"replace overwrites items with the same id, skip keeps them."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Backup file")),
	mcp.WithString("mode", mcp.Description("Collision handling (default error)"), mcp.Enum("error", "replace", "skip")),
)

var projectListToolDef = mcp.NewTool("project_list",
	mcp.WithDescription("List projects alphabetically with their live item counts."),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Projects to skip")),
)
