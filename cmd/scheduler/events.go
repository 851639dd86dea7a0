package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/sevenofnine/scheduler/internal/client"
)

// eventFlags are shared by create and update. Dates are local time.
func eventFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Usage: "event title"},
		&cli.StringFlag{Name: "description", Usage: "event description"},
		&cli.StringFlag{Name: "start", Usage: "local start, e.g. 2024-01-01T09:00"},
		&cli.StringFlag{Name: "end", Usage: "local end, e.g. 2024-01-01T09:30"},
		&cli.StringFlag{Name: "location", Usage: "event location"},
		&cli.StringFlag{Name: "attendees", Usage: "comma separated attendees"},
		&cli.BoolFlag{Name: "all-day", Usage: "mark as an all-day event"},
	}
}

func eventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "List and edit events on a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   client.DefaultBaseURL,
				Usage:   "base URL of the scheduler server",
				EnvVars: []string{"SCHEDULER_SERVER"},
			},
			&cli.BoolFlag{Name: "utc", Usage: "read and print times in UTC instead of local time"},
		},
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Print all events",
				Action: func(c *cli.Context) error {
					cl, err := newClient(c)
					if err != nil {
						return err
					}
					items, err := cl.Load(c.Context)
					if err != nil {
						return err
					}
					return printJSON(c, items)
				},
			},
			{
				Name:  "create",
				Usage: "Create an event",
				Flags: eventFlags(),
				Action: func(c *cli.Context) error {
					if c.String("title") == "" || c.String("start") == "" || c.String("end") == "" {
						return errors.New("--title, --start and --end are required")
					}
					cl, err := newClient(c)
					if err != nil {
						return err
					}
					created, err := cl.Create(c.Context, client.Draft{
						Title:       c.String("title"),
						Description: c.String("description"),
						Start:       c.String("start"),
						End:         c.String("end"),
						Location:    c.String("location"),
						Attendees:   c.String("attendees"),
						IsAllDay:    c.Bool("all-day"),
					})
					if err != nil {
						return err
					}
					return printJSON(c, created)
				},
			},
			{
				Name:      "update",
				Usage:     "Change only the given fields of an event",
				ArgsUsage: "ID",
				Flags:     eventFlags(),
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					if id == "" {
						return errors.New("event id is required")
					}
					patch := patchFromFlags(c)
					if len(patch) == 0 {
						return errors.New("nothing to update")
					}
					cl, err := newClient(c)
					if err != nil {
						return err
					}
					updated, err := cl.Patch(c.Context, id, patch)
					if err != nil {
						return err
					}
					return printJSON(c, updated)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete an event",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					if id == "" {
						return errors.New("event id is required")
					}
					cl, err := newClient(c)
					if err != nil {
						return err
					}
					if err := cl.Delete(c.Context, id); err != nil {
						return err
					}
					_, err = fmt.Fprintf(c.App.Writer, "deleted %s\n", id)
					return err
				},
			},
		},
	}
}

// patchFromFlags maps the flags the user actually set to patch keys.
func patchFromFlags(c *cli.Context) map[string]any {
	keys := map[string]string{
		"title":       "title",
		"description": "description",
		"start":       "startDate",
		"end":         "endDate",
		"location":    "location",
		"attendees":   "attendees",
	}
	patch := map[string]any{}
	for flag, key := range keys {
		if c.IsSet(flag) {
			patch[key] = c.String(flag)
		}
	}
	if c.IsSet("all-day") {
		patch["isAllDay"] = c.Bool("all-day")
	}
	return patch
}

func newClient(c *cli.Context) (*client.Client, error) {
	opts := client.Options{
		BaseURL: c.String("server"),
		Logger:  slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: slog.LevelWarn})),
	}
	if c.Bool("utc") {
		opts.Converter = client.FixedOffset(0)
	}
	return client.New(opts)
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
