package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/appointworks/appoint/internal/config"
	"github.com/appointworks/appoint/internal/errors"
	"github.com/appointworks/appoint/internal/history"
	"github.com/appointworks/appoint/internal/ops"
	"github.com/appointworks/appoint/internal/record"
	"github.com/appointworks/appoint/internal/session"
	"github.com/appointworks/appoint/internal/timer"
	"github.com/appointworks/appoint/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(svc *ops.Service, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "appoint",
		Usage:   "Commit-then-execute session timer",
		Version: Version,
		Commands: []*cli.Command{
			templateCmd(svc),
			typeCmd(svc),
			settingsCmd(svc),
			historyCmd(svc),
			exportCmd(svc),
			importCmd(svc),
			runCmd(svc),
			uiCmd(svc, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// templateCmd creates the template command group.
func templateCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:  "template",
		Usage: "Manage task templates",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a new template",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true, Usage: "Template name"},
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Markdown description"},
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Required: true, Usage: "Task type name"},
					&cli.StringFlag{Name: "timer", Value: "countdown", Usage: "Timer kind: countdown|countup"},
					&cli.StringFlag{Name: "countdown", Usage: "Countdown duration (seconds, MM:SS, or HH:MM:SS)"},
					&cli.StringFlag{Name: "countup-min", Usage: "Count-up minimum duration"},
					&cli.StringFlag{Name: "countup-max", Usage: "Count-up maximum duration"},
					&cli.StringFlag{Name: "forbid", Usage: "Comma-separated forbidden actions"},
				},
				Action: func(c *cli.Context) error {
					input := ops.TemplateCreateInput{
						Name:        c.String("name"),
						Description: c.String("description"),
						Type:        c.String("type"),
						TimerKind:   record.TimerKind(c.String("timer")),
					}

					var err error
					if input.CountdownSeconds, err = clockFlag(c, "countdown"); err != nil {
						return outputError(err)
					}
					if input.CountupMinSeconds, err = clockFlag(c, "countup-min"); err != nil {
						return outputError(err)
					}
					if input.CountupMaxSeconds, err = clockFlag(c, "countup-max"); err != nil {
						return outputError(err)
					}
					if forbid := c.String("forbid"); forbid != "" {
						input.ForbiddenActions = parseList(forbid)
					}

					output, err := svc.CreateTemplate(input)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:      "get",
				Usage:     "Fetch a template by ID",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return outputError(errors.NewInvalidRequest("template id is required"))
					}
					output, err := svc.GetTemplate(c.Args().First())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "list",
				Usage: "List all templates",
				Action: func(c *cli.Context) error {
					output, err := svc.ListTemplates()
					if err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"templates": output, "count": len(output)})
				},
			},
			{
				Name:      "update",
				Usage:     "Update an existing template",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "New name"},
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "New description"},
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "New task type"},
					&cli.StringFlag{Name: "timer", Usage: "New timer kind: countdown|countup"},
					&cli.StringFlag{Name: "countdown", Usage: "New countdown duration"},
					&cli.StringFlag{Name: "countup-min", Usage: "New count-up minimum"},
					&cli.StringFlag{Name: "countup-max", Usage: "New count-up maximum"},
					&cli.StringFlag{Name: "forbid", Usage: "New comma-separated forbidden actions (empty clears)"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return outputError(errors.NewInvalidRequest("template id is required"))
					}
					input := ops.TemplateUpdateInput{ID: c.Args().First()}

					if c.IsSet("name") {
						name := c.String("name")
						input.Name = &name
					}
					if c.IsSet("description") {
						desc := c.String("description")
						input.Description = &desc
					}
					if c.IsSet("type") {
						tt := c.String("type")
						input.Type = &tt
					}
					if c.IsSet("timer") {
						kind := record.TimerKind(c.String("timer"))
						input.TimerKind = &kind
					}
					if c.IsSet("countdown") {
						secs, err := clockFlag(c, "countdown")
						if err != nil {
							return outputError(err)
						}
						input.CountdownSeconds = &secs
					}
					if c.IsSet("countup-min") {
						secs, err := clockFlag(c, "countup-min")
						if err != nil {
							return outputError(err)
						}
						input.CountupMinSeconds = &secs
					}
					if c.IsSet("countup-max") {
						secs, err := clockFlag(c, "countup-max")
						if err != nil {
							return outputError(err)
						}
						input.CountupMaxSeconds = &secs
					}
					if c.IsSet("forbid") {
						input.ForbiddenActions = parseList(c.String("forbid"))
						if input.ForbiddenActions == nil {
							input.ForbiddenActions = []string{}
						}
					}

					output, err := svc.UpdateTemplate(input)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a template",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return outputError(errors.NewInvalidRequest("template id is required"))
					}
					id := c.Args().First()
					if err := svc.DeleteTemplate(id); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"deleted": id})
				},
			},
		},
	}
}

// typeCmd creates the task type command group.
func typeCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:  "type",
		Usage: "Manage task types",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a new task type",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "color", Usage: "Badge color (#rrggbb)"},
					&cli.StringFlag{Name: "text-color", Usage: "Badge text color (#rrggbb)"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return outputError(errors.NewInvalidRequest("type name is required"))
					}
					output, err := svc.AddTaskType(ops.TaskTypeInput{
						Name:      c.Args().First(),
						Color:     c.String("color"),
						TextColor: c.String("text-color"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "list",
				Usage: "List task types",
				Action: func(c *cli.Context) error {
					output, err := svc.ListTaskTypes()
					if err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"taskTypes": output, "count": len(output)})
				},
			},
			{
				Name:      "update",
				Usage:     "Update a task type's colors",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "color", Usage: "New badge color (#rrggbb)"},
					&cli.StringFlag{Name: "text-color", Usage: "New badge text color (#rrggbb)"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return outputError(errors.NewInvalidRequest("type name is required"))
					}
					output, err := svc.UpdateTaskType(ops.TaskTypeInput{
						Name:      c.Args().First(),
						Color:     c.String("color"),
						TextColor: c.String("text-color"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete an unused task type",
				ArgsUsage: "<name>",
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return outputError(errors.NewInvalidRequest("type name is required"))
					}
					name := c.Args().First()
					if err := svc.DeleteTaskType(name); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"deleted": name})
				},
			},
		},
	}
}

// settingsCmd creates the settings command group.
func settingsCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Inspect and change settings",
		Subcommands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Show current settings",
				Action: func(c *cli.Context) error {
					output, err := svc.GetSettings()
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "set",
				Usage: "Update settings",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "appointment-time", Usage: "Default appointment duration (seconds, MM:SS, or HH:MM:SS)"},
					&cli.StringFlag{Name: "theme", Usage: "UI theme: light|dark"},
					&cli.BoolFlag{Name: "notifications", Usage: "Enable notifications"},
					&cli.BoolFlag{Name: "auto-save", Usage: "Enable auto-save"},
				},
				Action: func(c *cli.Context) error {
					var input ops.SettingsUpdateInput

					if c.IsSet("appointment-time") {
						secs, err := timer.ParseClock(c.String("appointment-time"))
						if err != nil {
							return outputError(errors.NewInvalidRequest(err.Error()))
						}
						input.DefaultAppointmentSeconds = &secs
					}
					if c.IsSet("theme") {
						theme := c.String("theme")
						input.Theme = &theme
					}
					if c.IsSet("notifications") {
						v := c.Bool("notifications")
						input.Notifications = &v
					}
					if c.IsSet("auto-save") {
						v := c.Bool("auto-save")
						input.AutoSave = &v
					}

					output, err := svc.UpdateSettings(input)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
		},
	}
}

// historyCmd creates the history command group.
func historyCmd(svc *ops.Service) *cli.Command {
	filterFlags := []cli.Flag{
		&cli.StringFlag{Name: "kind", Usage: "Filter by record kind: appointment|task"},
		&cli.StringFlag{Name: "outcome", Usage: "Filter by outcome: success|failed"},
		&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Filter by task type"},
		&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Search template names and notes"},
		&cli.StringFlag{Name: "from", Usage: "Start date (YYYY-MM-DD)"},
		&cli.StringFlag{Name: "to", Usage: "End date, inclusive (YYYY-MM-DD)"},
	}

	return &cli.Command{
		Name:  "history",
		Usage: "Query and prune the session history",
		Subcommands: []*cli.Command{
			{
				Name:  "sessions",
				Usage: "List sessions, newest first",
				Flags: filterFlags,
				Action: func(c *cli.Context) error {
					f, err := filterFromFlags(c)
					if err != nil {
						return outputError(err)
					}
					output, err := svc.ListSessions(f)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"sessions": output, "count": len(output)})
				},
			},
			{
				Name:  "records",
				Usage: "List raw records, newest first",
				Flags: filterFlags,
				Action: func(c *cli.Context) error {
					f, err := filterFromFlags(c)
					if err != nil {
						return outputError(err)
					}
					output, err := svc.ListRecords(f)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"records": output, "count": len(output)})
				},
			},
			{
				Name:  "stats",
				Usage: "Show aggregate statistics",
				Flags: filterFlags,
				Action: func(c *cli.Context) error {
					f, err := filterFromFlags(c)
					if err != nil {
						return outputError(err)
					}
					output, err := svc.ComputeStats(f)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:      "delete-record",
				Usage:     "Delete a single record",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return outputError(errors.NewInvalidRequest("record id is required"))
					}
					id := c.Args().First()
					if err := svc.DeleteRecord(id); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"deleted": id})
				},
			},
			{
				Name:      "delete-session",
				Usage:     "Delete all records of a session",
				ArgsUsage: "<session-id>",
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return outputError(errors.NewInvalidRequest("session id is required"))
					}
					id := c.Args().First()
					removed, err := svc.DeleteSession(id)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"deleted": id, "recordsRemoved": removed})
				},
			},
			{
				Name:  "clear",
				Usage: "Delete the entire record log (templates and settings survive)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip confirmation"},
				},
				Action: func(c *cli.Context) error {
					if !c.Bool("yes") {
						return outputError(errors.NewInvalidRequest("pass --yes to confirm clearing all history"))
					}
					removed, err := svc.ClearHistory()
					if err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"recordsRemoved": removed})
				},
			},
		},
	}
}

// exportCmd creates the export command.
func exportCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export all data to a JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.appoint/exports/appoint-<timestamp>.json)"},
		},
		Action: func(c *cli.Context) error {
			output, err := svc.Export(ops.ExportInput{Path: c.String("path")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Replace all data from an export file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
		},
		Action: func(c *cli.Context) error {
			output, err := svc.Import(ops.ImportInput{Path: c.String("path")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// runCmd creates the interactive session command.
func runCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run a session interactively in the terminal",
		ArgsUsage: "<template-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewNoTemplateSelected())
			}

			machine := session.New(svc, svc)
			ended := make(chan record.Record, 1)
			machine.SetCallbacks(session.Callbacks{
				OnTick: func(display string, _ int) {
					fmt.Printf("\r  %s   ", display)
				},
				OnAppointmentElapsed: func() {
					fmt.Println("\nAppointment time reached. Type \"start\" to begin, or \"abandon\".")
				},
				OnSessionEnded: func(rec record.Record) {
					ended <- rec
				},
				OnError: func(err error) {
					fmt.Fprintf(os.Stderr, "\nerror: %v\n", err)
				},
			})

			if err := machine.StartAppointment(c.Args().First()); err != nil {
				return outputError(err)
			}

			snap := machine.Status()
			fmt.Printf("Appointment for %q committed.\n", snap.TemplateName)
			fmt.Println(`Commands: start | abandon | status`)

			lines := make(chan string)
			go func() {
				sc := bufio.NewScanner(os.Stdin)
				for sc.Scan() {
					lines <- strings.TrimSpace(sc.Text())
				}
				close(lines)
			}()

			for {
				select {
				case rec := <-ended:
					fmt.Println("\nTask completed.")
					return outputJSON(rec)
				case line, ok := <-lines:
					if !ok {
						// stdin closed: abandon whatever is live
						if err := machine.Abandon(); err != nil {
							return outputError(err)
						}
						fmt.Println("Session abandoned.")
						return nil
					}
					switch line {
					case "start":
						if err := machine.StartTask(); err != nil {
							fmt.Fprintf(os.Stderr, "error: %v\n", err)
							continue
						}
						fmt.Println("Task started.")
					case "abandon":
						if err := machine.Abandon(); err != nil {
							return outputError(err)
						}
						fmt.Println("Session abandoned.")
						return nil
					case "status":
						if err := outputJSON(machine.Status()); err != nil {
							return err
						}
					case "":
					default:
						fmt.Println(`Commands: start | abandon | status`)
					}
				}
			}
		},
	}
}

// uiCmd creates the web dashboard command.
func uiCmd(svc *ops.Service, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "ui",
		Usage: "Serve the history dashboard over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Value: 7317, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(svc, cfg, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if aErr, ok := err.(*errors.AppointError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", aErr.Code, aErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// clockFlag parses an optional duration flag into seconds.
func clockFlag(c *cli.Context, name string) (int, error) {
	s := c.String(name)
	if s == "" {
		return 0, nil
	}
	secs, err := timer.ParseClock(s)
	if err != nil {
		return 0, errors.NewInvalidRequest(fmt.Sprintf("--%s: %v", name, err))
	}
	return secs, nil
}

// parseList splits a comma-separated string into trimmed items.
func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		item := strings.TrimSpace(p)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// filterFromFlags builds a history filter from command-line flags.
func filterFromFlags(c *cli.Context) (history.Filter, error) {
	var f history.Filter

	switch kind := c.String("kind"); kind {
	case "":
	case string(record.KindAppointment), string(record.KindTask):
		k := record.Kind(kind)
		f.Kind = &k
	default:
		return f, errors.NewInvalidRequest("kind must be one of: appointment, task")
	}

	switch outcome := c.String("outcome"); outcome {
	case "":
	case string(record.OutcomeSuccess), string(record.OutcomeFailed):
		o := record.Outcome(outcome)
		f.Outcome = &o
	default:
		return f, errors.NewInvalidRequest("outcome must be one of: success, failed")
	}

	if tt := c.String("type"); tt != "" {
		f.TemplateType = &tt
	}
	f.Search = c.String("search")

	if from := c.String("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return f, errors.NewInvalidRequest("from must be YYYY-MM-DD")
		}
		f.From = &t
	}
	if to := c.String("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return f, errors.NewInvalidRequest("to must be YYYY-MM-DD")
		}
		t = t.Add(24*time.Hour - time.Second)
		f.To = &t
	}

	return f, nil
}
