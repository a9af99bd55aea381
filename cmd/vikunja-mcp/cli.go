package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/jmhooper/vikunja-mcp/internal/errors"
	"github.com/jmhooper/vikunja-mcp/internal/filter"
	"github.com/jmhooper/vikunja-mcp/internal/ops"
)

// cliSession is the session identity CLI invocations operate under. The
// CLI is a single local user, so all invocations share one session.
const cliSession = "cli"

// newCLIApp creates the CLI application with all commands.
func newCLIApp(deps *ops.Deps) *cli.App {
	app := &cli.App{
		Name:    "vikunja-mcp",
		Usage:   "Filtered task queries over MCP",
		Version: Version,
		Commands: []*cli.Command{
			validateCmd(deps),
			queryCmd(deps),
			filtersCmd(deps),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// validateCmd creates the validate command.
func validateCmd(deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Parse and validate a filter expression without running it",
		ArgsUsage: "<expression>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("expression argument is required"))
			}
			raw := c.Args().First()

			expr, err := filter.Parse(raw, deps.Schema, deps.Limits())
			if err != nil {
				return outputError(err)
			}

			remoteFilter, serverOK := filter.Translate(expr, deps.Schema)
			out := map[string]any{
				"valid":             true,
				"conditions":        expr.ConditionCount(),
				"server_compatible": serverOK,
			}
			if serverOK {
				out["remote_filter"] = remoteFilter
			}
			return outputJSON(out)
		},
	}
}

// queryCmd creates the query command.
func queryCmd(deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Run a filter expression against the remote API",
		ArgsUsage: "<expression>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "saved", Aliases: []string{"s"}, Usage: "Treat the argument as a saved filter id or name"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("expression argument is required"))
			}

			input := ops.FilterTasksInput{SessionID: cliSession}
			if c.Bool("saved") {
				input.SavedFilter = c.Args().First()
			} else {
				input.Filter = c.Args().First()
			}

			output, err := ops.FilterTasks(context.Background(), deps, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// filtersCmd creates the filters command group.
func filtersCmd(deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "filters",
		Usage: "Manage saved filters",
		Subcommands: []*cli.Command{
			{
				Name:      "save",
				Usage:     "Save a named filter expression",
				ArgsUsage: "<name> <expression>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "What the filter is for"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() < 2 {
						return outputError(errors.NewInvalidRequest("name and expression arguments are required"))
					}
					output, err := ops.SaveFilter(deps, ops.SaveFilterInput{
						SessionID:   cliSession,
						Name:        c.Args().Get(0),
						Expression:  c.Args().Get(1),
						Description: c.String("description"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "list",
				Usage: "List saved filters",
				Action: func(c *cli.Context) error {
					output, err := ops.ListFilters(deps, cliSession)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a saved filter by id or name",
				ArgsUsage: "<ref>",
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return outputError(errors.NewInvalidRequest("ref argument is required"))
					}
					ref := c.Args().First()
					if err := ops.DeleteFilter(deps, cliSession, ref); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"deleted": true, "ref": ref})
				},
			},
		},
	}
}

// outputJSON writes indented JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if mErr, ok := err.(*errors.MCPError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", mErr.Code, mErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
