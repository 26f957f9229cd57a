package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/masar/masar/internal/app"
	"github.com/masar/masar/internal/codec"
	"github.com/masar/masar/internal/nt"
	"github.com/masar/masar/internal/store"
)

func subcommand(args []string, group string) (string, []string, error) {
	if len(args) == 0 {
		return "", nil, fmt.Errorf("missing %s subcommand", group)
	}
	return args[0], args[1:], nil
}

func runService(ctx context.Context, a *app.App, args []string) error {
	sub, rest, err := subcommand(args, "service")
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("service "+sub, flag.ExitOnError)
	name := fs.String("name", "", "Service name (a LIKE pattern for list)")
	desc := fs.String("desc", "", "Service description")
	fs.Parse(rest)

	switch sub {
	case "add":
		id, err := a.Store().SaveService(ctx, *name, *desc)
		if err != nil {
			return err
		}
		return printJSON(map[string]int64{"service_id": id})
	case "list":
		services, err := a.Store().RetrieveServices(ctx, *name)
		if err != nil {
			return err
		}
		return printJSON(services)
	default:
		return fmt.Errorf("unknown service subcommand: %s", sub)
	}
}

func runConfig(ctx context.Context, a *app.App, args []string) error {
	sub, rest, err := subcommand(args, "config")
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("config "+sub, flag.ExitOnError)
	service := fs.String("service", "", "Service name")
	name := fs.String("name", "", "Config name")
	desc := fs.String("desc", "", "Config description")
	version := fs.Int64("version", 1, "Config version")
	fs.Parse(rest)

	switch sub {
	case "add":
		id, err := a.Store().SaveServiceConfig(ctx, *service, *name, *desc, *version)
		if err != nil {
			return err
		}
		return printJSON(map[string]int64{"service_config_id": id})
	case "list":
		configs, err := a.Store().RetrieveServiceConfigs(ctx, store.ConfigQuery{
			ServiceName: *service,
			ConfigName:  *name,
		})
		if err != nil {
			return err
		}
		return printJSON(configs)
	default:
		return fmt.Errorf("unknown config subcommand: %s", sub)
	}
}

func runEvent(ctx context.Context, a *app.App, args []string) error {
	sub, rest, err := subcommand(args, "event")
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("event "+sub, flag.ExitOnError)
	service := fs.String("service", "", "Service name")
	configName := fs.String("config", "", "Config name")
	comment := fs.String("comment", "", "User tag (a LIKE pattern for list and table)")
	start := fs.String("start", "", "Window start, RFC 3339 (default: end minus the default window)")
	end := fs.String("end", "", "Window end, RFC 3339 (default: now)")
	encode := fs.String("encode", "", "Write the table as an encoded frame to this file instead of printing JSON")
	fs.Parse(rest)

	if sub == "save" {
		id, err := a.Store().SaveEvent(ctx, *service, *configName, *comment)
		if err != nil {
			return err
		}
		return printJSON(map[string]int64{"service_event_id": id})
	}

	q := store.EventQuery{Comment: *comment}
	if q.Start, err = parseTimeFlag("start", *start); err != nil {
		return err
	}
	if q.End, err = parseTimeFlag("end", *end); err != nil {
		return err
	}

	switch sub {
	case "list":
		events, err := a.Store().RetrieveEvents(ctx, q)
		if err != nil {
			return err
		}
		return printJSON(events)
	case "table":
		v, err := a.EventsTable(ctx, q)
		if err != nil {
			return err
		}
		if *encode == "" {
			return printJSON(v)
		}
		data, err := a.EncodeValue(v, "")
		if err != nil {
			return err
		}
		return os.WriteFile(*encode, data, 0644)
	default:
		return fmt.Errorf("unknown event subcommand: %s", sub)
	}
}

func parseTimeFlag(name, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -%s: %w", name, err)
	}
	return t, nil
}

// runNT wraps rows read from a JSON file. It needs no database.
func runNT(args []string) error {
	sub, rest, err := subcommand(args, "nt")
	if err != nil {
		return err
	}
	if sub != "table" {
		return fmt.Errorf("unknown nt subcommand: %s", sub)
	}

	fs := flag.NewFlagSet("nt table", flag.ExitOnError)
	columns := fs.String("columns", "", "Column layout, e.g. x:d,name:s")
	rowsFile := fs.String("rows", "", "JSON file holding an array of row objects")
	strict := fs.Bool("strict", false, "Reject ragged rows")
	compress := fs.Bool("compress", false, "Snappy-compress the frame written by -encode")
	encode := fs.String("encode", "", "Write an encoded frame to this file instead of printing JSON")
	fs.Parse(rest)

	cols, err := nt.ParseColumns(*columns)
	if err != nil {
		return err
	}
	var opts []nt.Option
	if *strict {
		opts = append(opts, nt.WithStrictRows())
	}
	tbl, err := nt.NewTable(cols, opts...)
	if err != nil {
		return err
	}

	rows, err := readRows(*rowsFile)
	if err != nil {
		return err
	}
	v, err := tbl.Wrap(rows)
	if err != nil {
		return err
	}

	if *encode == "" {
		return printJSON(v)
	}
	data, err := codec.Encode(v, codec.Options{Compress: *compress})
	if err != nil {
		return err
	}
	return os.WriteFile(*encode, data, 0644)
}

func readRows(path string) ([]map[string]any, error) {
	if path == "" {
		return nil, fmt.Errorf("-rows is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	var rows []map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to parse rows: %w", err)
	}
	return rows, nil
}
