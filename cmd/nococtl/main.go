package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sgoldberg/nocogo/config"
	"github.com/sgoldberg/nocogo/export"
	"github.com/sgoldberg/nocogo/nocodb"
	"github.com/sgoldberg/nocogo/where"
	"github.com/sgoldberg/nocogo/where/parser"
)

const usage = `usage: nococtl <command> [flags]

commands:
  bases     list bases (optionally within a workspace)
  tables    list tables of a base
  records   list | get | create | update | delete | count records
  export    stream records of a table into a sink
  filter    check a where-filter string
  auth      login | logout (store or forget the API token in the OS keyring)

Every command accepts -config (default config.yaml) and -token.`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())

	// Setup signal handling to catch Ctrl+C (SIGINT) or Terminate (SIGTERM)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	var err error
	switch os.Args[1] {
	case "bases":
		err = runBases(ctx, os.Args[2:])
	case "tables":
		err = runTables(ctx, os.Args[2:])
	case "records":
		err = runRecords(ctx, os.Args[2:])
	case "export":
		err = runExport(ctx, os.Args[2:])
	case "filter":
		err = runFilter(os.Args[2:])
	case "auth":
		err = runAuth(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Println(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s\n", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		cancel()
		os.Exit(1)
	}

	cancel()
}

// commonFlags registers the flags every command shares and returns
// pointers that are valid after fs.Parse.
func commonFlags(fs *flag.FlagSet) (configPath, token *string) {
	configPath = fs.String("config", "config.yaml", "path to the config file")
	token = fs.String("token", "", "API token, overrides every configured credential")
	return configPath, token
}

// loadApp loads the config and builds the logger and client. A missing
// config file is tolerated: credentials can come entirely from flags,
// the environment, or the keyring.
func loadApp(configPath, token string) (config.Config, *slog.Logger, *nocodb.Client, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return config.Config{}, nil, nil, err
		}
		cfg = config.Config{}
	}

	logger, err := cfg.BuildLogger()
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	client, err := cfg.BuildClient(logger, token)
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	return cfg, logger, client, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runBases(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bases", flag.ExitOnError)
	configPath, token := commonFlags(fs)
	workspace := fs.String("workspace", "", "workspace id (cloud deployments)")
	fs.Parse(args) //nolint:errcheck

	_, _, client, err := loadApp(*configPath, *token)
	if err != nil {
		return err
	}

	bases, err := client.ListBases(ctx, *workspace)
	if err != nil {
		return err
	}
	return printJSON(bases)
}

func runTables(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tables", flag.ExitOnError)
	configPath, token := commonFlags(fs)
	baseID := fs.String("base", "", "base id (required)")
	fs.Parse(args) //nolint:errcheck

	if *baseID == "" {
		return fmt.Errorf("-base is required")
	}

	_, _, client, err := loadApp(*configPath, *token)
	if err != nil {
		return err
	}

	tables, err := client.ListTables(ctx, *baseID)
	if err != nil {
		return err
	}
	return printJSON(tables)
}

func runRecords(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: nococtl records <list|get|create|update|delete|count> [flags]")
	}
	action, args := args[0], args[1:]

	fs := flag.NewFlagSet("records "+action, flag.ExitOnError)
	configPath, token := commonFlags(fs)
	baseID := fs.String("base", "", "base id (required)")
	tableID := fs.String("table", "", "table id (required)")
	whereStr := fs.String("where", "", "filter string, e.g. (Age,gte,18)~and(Status,eq,open)")
	fields := fs.String("fields", "", "comma-separated field names to fetch")
	sort := fs.String("sort", "", "comma-separated sort fields, prefix with - for descending")
	pageSize := fs.Int("page-size", 0, "records per page (server default when 0)")
	all := fs.Bool("all", false, "follow pagination cursors and fetch every page")
	recordID := fs.String("id", "", "record id (get)")
	ids := fs.String("ids", "", "comma-separated record ids (delete)")
	data := fs.String("data", "", "JSON records to send, or @- to read from stdin (create, update)")
	fs.Parse(args) //nolint:errcheck

	if *baseID == "" || *tableID == "" {
		return fmt.Errorf("-base and -table are required")
	}

	_, _, client, err := loadApp(*configPath, *token)
	if err != nil {
		return err
	}

	filter, err := parseWhereFlag(*whereStr)
	if err != nil {
		return err
	}

	opts := nocodb.ListOptions{
		Filter:   filter,
		PageSize: *pageSize,
	}
	if *fields != "" {
		opts.Fields = strings.Split(*fields, ",")
	}
	if *sort != "" {
		opts.Sort = strings.Split(*sort, ",")
	}

	switch action {
	case "list":
		if *all {
			records, err := client.ListAllRecords(ctx, *baseID, *tableID, opts)
			if err != nil {
				return err
			}
			return printJSON(records)
		}
		page, err := client.ListRecords(ctx, *baseID, *tableID, opts)
		if err != nil {
			return err
		}
		return printJSON(page)

	case "get":
		if *recordID == "" {
			return fmt.Errorf("-id is required")
		}
		record, err := client.GetRecord(ctx, *baseID, *tableID, *recordID)
		if err != nil {
			return err
		}
		return printJSON(record)

	case "create", "update":
		records, err := readRecordsFlag(*data)
		if err != nil {
			return err
		}

		var out []nocodb.Record
		if action == "create" {
			out, err = client.CreateRecords(ctx, *baseID, *tableID, records...)
		} else {
			out, err = client.UpdateRecords(ctx, *baseID, *tableID, records...)
		}
		if err != nil {
			return err
		}
		return printJSON(out)

	case "delete":
		if *ids == "" {
			return fmt.Errorf("-ids is required")
		}
		out, err := client.DeleteRecords(ctx, *baseID, *tableID, strings.Split(*ids, ",")...)
		if err != nil {
			return err
		}
		return printJSON(out)

	case "count":
		count, err := client.CountRecords(ctx, *baseID, *tableID, filter)
		if err != nil {
			return err
		}
		fmt.Println(count)
		return nil

	default:
		return fmt.Errorf("unknown records action: %s", action)
	}
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath, token := commonFlags(fs)
	baseID := fs.String("base", "", "base id (required)")
	tableID := fs.String("table", "", "table id (required)")
	whereStr := fs.String("where", "", "filter string narrowing the export")
	fields := fs.String("fields", "", "comma-separated field names to export")
	pageSize := fs.Int("page-size", 200, "records fetched per page")
	fs.Parse(args) //nolint:errcheck

	if *baseID == "" || *tableID == "" {
		return fmt.Errorf("-base and -table are required")
	}

	cfg, logger, client, err := loadApp(*configPath, *token)
	if err != nil {
		return err
	}

	filter, err := parseWhereFlag(*whereStr)
	if err != nil {
		return err
	}

	sink, err := cfg.Export.Sink.BuildSink(ctx)
	if err != nil {
		return err
	}
	defer sink.Close()

	var transform *export.Transform
	if cfg.Export.Transform != "" {
		transform, err = export.NewTransform(cfg.Export.Transform)
		if err != nil {
			return err
		}
	}

	exporter := export.New(client, sink, transform, logger)

	opts := export.Options{
		BaseID:   *baseID,
		TableID:  *tableID,
		Filter:   filter,
		PageSize: *pageSize,
	}
	if *fields != "" {
		opts.Fields = strings.Split(*fields, ",")
	}

	stats, err := exporter.Run(ctx, opts)
	if err != nil {
		return err
	}

	fmt.Printf("exported %d records (%d dropped), batch %s\n", stats.Exported, stats.Dropped, stats.BatchID)
	return nil
}

// runFilter parses a where string and prints its canonical rendering, so
// filters can be checked before they are handed to a server.
func runFilter(args []string) error {
	if len(args) < 1 || args[0] != "check" {
		return fmt.Errorf("usage: nococtl filter check <where-string>")
	}

	fs := flag.NewFlagSet("filter check", flag.ExitOnError)
	strict := fs.Bool("strict", false, "also reject field names and values containing wire delimiters")
	fs.Parse(args[1:]) //nolint:errcheck

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: nococtl filter check <where-string>")
	}

	filter, err := parser.Parse(fs.Arg(0))
	if err != nil {
		return err
	}

	if *strict {
		if err := where.CheckWireSafe(filter); err != nil {
			return err
		}
	}

	fmt.Println(filter.Where())
	return nil
}

func runAuth(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: nococtl auth <login|logout> [flags]")
	}
	action, args := args[0], args[1:]

	fs := flag.NewFlagSet("auth "+action, flag.ExitOnError)
	configPath, token := commonFlags(fs)
	serverURL := fs.String("server", "", "server URL (defaults to server.url from the config)")
	fs.Parse(args) //nolint:errcheck

	url := *serverURL
	if url == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return fmt.Errorf("no -server given and config not readable: %w", err)
		}
		url = cfg.Server.URL
	}
	if url == "" {
		return fmt.Errorf("no server URL: pass -server or set server.url in the config")
	}

	switch action {
	case "login":
		value := *token
		if value == "" {
			fmt.Fprint(os.Stderr, "API token: ")
			line, err := io.ReadAll(io.LimitReader(os.Stdin, 4096))
			if err != nil {
				return err
			}
			value = strings.TrimSpace(string(line))
		}
		if value == "" {
			return fmt.Errorf("empty token")
		}

		if err := config.StoreToken(url, value); err != nil {
			return err
		}
		fmt.Println("token stored for", url)
		return nil

	case "logout":
		if err := config.ForgetToken(url); err != nil {
			return err
		}
		fmt.Println("token removed for", url)
		return nil

	default:
		return fmt.Errorf("unknown auth action: %s", action)
	}
}

func parseWhereFlag(raw string) (where.Filter, error) {
	if raw == "" {
		return nil, nil
	}

	filter, err := parser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid -where filter: %w", err)
	}
	return filter, nil
}

func readRecordsFlag(data string) ([]nocodb.Record, error) {
	if data == "" {
		return nil, fmt.Errorf("-data is required")
	}

	raw := []byte(data)
	if data == "@-" {
		var err error
		raw, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, err
		}
	}

	// Accept either a single record object or an array of them.
	var records []nocodb.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		var single nocodb.Record
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, fmt.Errorf("-data must be a JSON record or array of records: %w", err)
		}
		records = []nocodb.Record{single}
	}

	return records, nil
}
