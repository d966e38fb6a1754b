package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/landing/backend/internal/model"
	"github.com/landing/backend/internal/repository"
	"github.com/landing/backend/internal/service"
)

var errUsage = errors.New("invalid usage")

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: admin <resource> <action> [flags] [arg]

Resources and actions:
  subscribers list   [-limit N] [-offset N] [-json]
  subscribers count
  subscribers find   <email>
  subscribers delete <email>
  messages    list   [-limit N] [-offset N] [-json]
  messages    count
  messages    find   <id>
  messages    delete <id>

Environment:
  DATABASE_URL, or NEON_API_KEY and NEON_PROJECT_ID
`)
}

type app struct {
	waitlist service.WaitlistService
	contact  service.ContactService
	out      io.Writer
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	resource, action, rest := args[0], args[1], args[2:]

	switch resource {
	case "subscribers", "subscriber":
		return a.subscribers(ctx, action, rest)
	case "messages", "message", "contact":
		return a.messages(ctx, action, rest)
	default:
		return fmt.Errorf("%w: unknown resource %q", errUsage, resource)
	}
}

type listFlags struct {
	opts    model.ListOptions
	asJSON  bool
	flagSet *flag.FlagSet
}

func parseListFlags(name string, args []string) (*listFlags, error) {
	lf := &listFlags{flagSet: flag.NewFlagSet(name, flag.ContinueOnError)}
	lf.flagSet.SetOutput(io.Discard)
	lf.flagSet.IntVar(&lf.opts.Limit, "limit", 0, "maximum rows to return (0 for the default)")
	lf.flagSet.IntVar(&lf.opts.Offset, "offset", 0, "rows to skip")
	lf.flagSet.BoolVar(&lf.asJSON, "json", false, "print JSON instead of a table")
	if err := lf.flagSet.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if lf.opts.Limit < 0 || lf.opts.Offset < 0 {
		return nil, fmt.Errorf("%w: -limit and -offset must not be negative", errUsage)
	}
	return lf, nil
}

func singleArg(args []string, what string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", fmt.Errorf("%w: expected exactly one %s", errUsage, what)
	}
	return args[0], nil
}

func (a *app) subscribers(ctx context.Context, action string, args []string) error {
	switch action {
	case "list":
		lf, err := parseListFlags("subscribers list", args)
		if err != nil {
			return err
		}
		subs, err := a.waitlist.List(ctx, lf.opts)
		if err != nil {
			return fmt.Errorf("list subscribers: %w", err)
		}
		if lf.asJSON {
			return a.printJSON(subs)
		}
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tEMAIL\tCREATED AT")
		for _, s := range subs {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", s.ID, s.Email, s.CreatedAt.UTC().Format(time.RFC3339))
		}
		return tw.Flush()

	case "count":
		n, err := a.waitlist.Count(ctx)
		if err != nil {
			return fmt.Errorf("count subscribers: %w", err)
		}
		fmt.Fprintln(a.out, n)
		return nil

	case "find":
		email, err := singleArg(args, "email")
		if err != nil {
			return err
		}
		s, err := a.waitlist.Find(ctx, email)
		if err != nil {
			return notFound(err, "subscriber %s", email)
		}
		return a.printJSON(s)

	case "delete":
		email, err := singleArg(args, "email")
		if err != nil {
			return err
		}
		if err := a.waitlist.Remove(ctx, email); err != nil {
			return notFound(err, "subscriber %s", email)
		}
		fmt.Fprintf(a.out, "deleted subscriber %s\n", email)
		return nil

	default:
		return fmt.Errorf("%w: unknown subscribers action %q", errUsage, action)
	}
}

func (a *app) messages(ctx context.Context, action string, args []string) error {
	switch action {
	case "list":
		lf, err := parseListFlags("messages list", args)
		if err != nil {
			return err
		}
		msgs, err := a.contact.List(ctx, lf.opts)
		if err != nil {
			return fmt.Errorf("list messages: %w", err)
		}
		if lf.asJSON {
			return a.printJSON(msgs)
		}
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tCREATED AT\tMESSAGE")
		for _, m := range msgs {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
				m.ID, m.Name, m.Email, m.CreatedAt.UTC().Format(time.RFC3339), preview(m.Message, 60))
		}
		return tw.Flush()

	case "count":
		n, err := a.contact.Count(ctx)
		if err != nil {
			return fmt.Errorf("count messages: %w", err)
		}
		fmt.Fprintln(a.out, n)
		return nil

	case "find", "delete":
		raw, err := singleArg(args, "message id")
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("%w: invalid message id %q", errUsage, raw)
		}
		if action == "find" {
			m, err := a.contact.Get(ctx, id)
			if err != nil {
				return notFound(err, "message %d", id)
			}
			return a.printJSON(m)
		}
		if err := a.contact.Delete(ctx, id); err != nil {
			return notFound(err, "message %d", id)
		}
		fmt.Fprintf(a.out, "deleted message %d\n", id)
		return nil

	default:
		return fmt.Errorf("%w: unknown messages action %q", errUsage, action)
	}
}

func notFound(err error, format string, args ...any) error {
	what := fmt.Sprintf(format, args...)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s not found", what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// preview shortens s to at most n runes on a single line.
func preview(s string, n int) string {
	runes := []rune(s)
	for i, r := range runes {
		if r == '\n' || r == '\r' || r == '\t' {
			runes[i] = ' '
		}
	}
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n-1]) + "…"
}
