package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/hpungsan/jot/internal/capture"
	"github.com/hpungsan/jot/internal/config"
	"github.com/hpungsan/jot/internal/errors"
	"github.com/hpungsan/jot/internal/ops"
	"github.com/hpungsan/jot/internal/web"
)

// stdinSlack lets piped input exceed the capture limit slightly so trailing
// whitespace is trimmed before the real length check runs.
const stdinSlack = 1024

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "jot",
		Usage:   "Quick capture for tasks, habits and notes",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "Output format: json|yaml"},
		},
		Before: func(c *cli.Context) error {
			switch c.String("format") {
			case "json", "yaml":
				return nil
			default:
				return outputError(errors.NewInvalidRequest("format must be json or yaml"))
			}
		},
		Commands: []*cli.Command{
			addCmd(db, cfg),
			parseCmd(),
			fetchCmd(db),
			listCmd(db, cfg),
			updateCmd(db, cfg),
			deleteCmd(db),
			purgeCmd(db),
			projectsCmd(db),
			exportCmd(db, cfg),
			importCmd(db, cfg),
			serveCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// addCmd creates the add command.
func addCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Capture one line (from arguments, or stdin when none are given)",
		ArgsUsage: "<text...>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Markdown description"},
		},
		Action: func(c *cli.Context) error {
			text, err := captureText(c, cfg)
			if err != nil {
				return outputError(err)
			}

			input := ops.CaptureInput{Text: text}
			if c.IsSet("description") {
				d := c.String("description")
				input.Description = &d
			}

			result, err := ops.Capture(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return output(c, result)
		},
	}
}

// parseCmd creates the parse command. It never touches the database.
func parseCmd() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "Show how a line would be parsed without storing it",
		ArgsUsage: "<text...>",
		Action: func(c *cli.Context) error {
			text, err := captureText(c, nil)
			if err != nil {
				return outputError(err)
			}
			return output(c, ops.Parse(ops.ParseInput{Text: text}))
		},
	}
}

// fetchCmd creates the fetch command.
func fetchCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch an item by ID",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted items"},
		},
		Action: func(c *cli.Context) error {
			item, err := ops.Fetch(c.Context, db, ops.FetchInput{
				ID:             c.Args().First(),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}
			return output(c, item)
		},
	}
}

// listCmd creates the list command.
func listCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List items, most recently updated first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Filter by type: task|habit|note"},
			&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Usage: "Filter by status"},
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Filter by project name"},
			&cli.StringFlag{Name: "hashtag", Usage: "Filter by hashtag"},
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Filter by title substring"},
			&cli.StringFlag{Name: "due-before", Usage: "Only tasks due on or before YYYY-MM-DD"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted items"},
		},
		Action: func(c *cli.Context) error {
			limit := c.Int("limit")
			if limit <= 0 && cfg != nil {
				limit = cfg.DefaultListLimit
			}

			input := ops.ListInput{
				Type:           typeFlag(c, "type"),
				Project:        stringFlag(c, "project"),
				Hashtag:        stringFlag(c, "hashtag"),
				Query:          stringFlag(c, "query"),
				DueBefore:      stringFlag(c, "due-before"),
				Limit:          limit,
				Offset:         c.Int("offset"),
				IncludeDeleted: c.Bool("include-deleted"),
			}
			if s := c.String("status"); s != "" {
				status := capture.Status(s)
				input.Status = &status
			}

			result, err := ops.List(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}
			return output(c, result)
		},
	}
}

// updateCmd creates the update command. Only flags that are set are changed;
// an empty value clears the field.
func updateCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Update fields of an existing item",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Usage: "New title"},
			&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Usage: "New status"},
			&cli.StringFlag{Name: "priority", Usage: "low|medium|high (tasks only)"},
			&cli.StringFlag{Name: "due", Usage: "Due date YYYY-MM-DD (tasks only)"},
			&cli.StringFlag{Name: "category", Usage: "red|yellow|purple|green (tasks only)"},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Markdown description"},
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Project name"},
			&cli.StringFlag{Name: "hashtags", Usage: "Comma-separated hashtags (replaces the list)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.UpdateInput{
				ID:          c.Args().First(),
				Title:       setFlag(c, "title"),
				Status:      setFlag(c, "status"),
				Priority:    setFlag(c, "priority"),
				DueDate:     setFlag(c, "due"),
				Category:    setFlag(c, "category"),
				Description: setFlag(c, "description"),
				Project:     setFlag(c, "project"),
			}
			if c.IsSet("hashtags") {
				tags := parseTags(c.String("hashtags"))
				input.Hashtags = &tags
			}

			result, err := ops.Update(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return output(c, result)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Soft-delete an item",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			result, err := ops.Delete(c.Context, db, ops.DeleteInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return output(c, result)
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Permanently delete soft-deleted items",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Filter by type"},
			&cli.StringFlag{Name: "older-than", Usage: "Only purge if deleted more than N days ago (e.g., 7d)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.PurgeInput{Type: typeFlag(c, "type")}

			if olderThan := c.String("older-than"); olderThan != "" {
				days, err := parseDuration(olderThan)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				input.OlderThanDays = &days
			}

			result, err := ops.Purge(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}
			return output(c, result)
		},
	}
}

// projectsCmd creates the projects command.
func projectsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "projects",
		Usage: "List projects with their item counts",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 100, Usage: "Maximum projects to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Projects to skip"},
		},
		Action: func(c *cli.Context) error {
			result, err := ops.Projects(c.Context, db, ops.ProjectsInput{
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return output(c, result)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export items to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "Export file path (default: ~/.jot/exports/<type|all>-<timestamp>.jsonl)"},
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Filter by type"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted items"},
		},
		Action: func(c *cli.Context) error {
			result, err := ops.Export(c.Context, db, cfg, ops.ExportInput{
				Path:           c.String("path"),
				Type:           typeFlag(c, "type"),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}
			return output(c, result)
		},
	}
}

// importCmd creates the import command.
func importCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import items from a JSONL export",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace|skip"},
		},
		Action: func(c *cli.Context) error {
			result, err := ops.Import(c.Context, db, cfg, ops.ImportInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return output(c, result)
		},
	}
}

// serveCmd creates the serve command for the web UI.
func serveCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the local web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Address to bind (default from config: 127.0.0.1)"},
			&cli.IntFlag{Name: "port", Usage: "Port to listen on (default from config: 7373)"},
		},
		Action: func(c *cli.Context) error {
			bind, port := cfg.WebBind, cfg.WebPort
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			if c.IsSet("port") {
				port = c.Int("port")
			}
			if port < 1 || port > 65535 {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid port: %d", port)))
			}
			return web.Run(web.NewServer(db, cfg, Version, bind, port))
		},
	}
}

// Helper functions

// output writes v to stdout in the format chosen by the global --format flag.
func output(c *cli.Context, v any) error {
	if c.String("format") == "yaml" {
		return outputYAML(v)
	}
	return outputJSON(v)
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputYAML writes v as YAML using the same field names as the JSON output.
func outputYAML(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

// outputError formats error for CLI.
func outputError(err error) error {
	jErr := errors.As(err)
	return cli.Exit(fmt.Sprintf("[%s] %s", jErr.Code, jErr.Message), 1)
}

// captureText joins positional args, falling back to piped stdin.
func captureText(c *cli.Context, cfg *config.Config) (string, error) {
	if c.NArg() > 0 {
		return strings.Join(c.Args().Slice(), " "), nil
	}
	if !stdinHasData() {
		return "", errors.NewInvalidRequest("text is required (pass it as arguments or pipe it via stdin)")
	}

	limit := config.DefaultConfig().MaxInputChars
	if cfg != nil && cfg.MaxInputChars > 0 {
		limit = cfg.MaxInputChars
	}
	text, err := readStdin(limit*4 + stdinSlack)
	if err != nil {
		return "", errors.NewInvalidRequest(err.Error())
	}
	return text, nil
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads at most limit bytes from stdin.
func readStdin(limit int) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, int64(limit)+1))
	if err != nil {
		return "", err
	}
	if len(data) > limit {
		return "", fmt.Errorf("stdin exceeds %d bytes", limit)
	}
	return strings.TrimSpace(string(data)), nil
}

// setFlag returns a pointer to the flag value if the flag was given, even when empty.
func setFlag(c *cli.Context, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	v := c.String(name)
	return &v
}

// stringFlag returns a pointer to a non-empty flag value.
func stringFlag(c *cli.Context, name string) *string {
	if v := c.String(name); v != "" {
		return &v
	}
	return nil
}

func typeFlag(c *cli.Context, name string) *capture.Type {
	if v := c.String(name); v != "" {
		t := capture.Type(v)
		return &t
	}
	return nil
}

// parseTags splits a comma-separated string into a slice of tags.
func parseTags(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// parseDuration parses "7d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("duration must be non-negative")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 7d")
}
