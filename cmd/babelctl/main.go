package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/jawher/mow.cli"
	"github.com/samvad-hq/babel-client/internal/logger"
	"github.com/samvad-hq/babel-client/internal/relay"
	"github.com/samvad-hq/babel-client/pkg/babel"
	"github.com/samvad-hq/babel-client/pkg/targets"
)

const appDescription = "Command line client for the Babel annotation service"

type globals struct {
	host        *string
	port        *string
	baseURL     *string
	token       *string
	logLevel    *string
	targetsFile *string
}

func main() {
	app := cli.App("babelctl", appDescription)

	g := globals{
		host: app.String(cli.StringOpt{
			Name:   "host",
			Desc:   "Babel host",
			EnvVar: "BABEL_HOST",
		}),
		port: app.String(cli.StringOpt{
			Name:   "port",
			Desc:   "Babel port",
			EnvVar: "BABEL_PORT",
		}),
		baseURL: app.String(cli.StringOpt{
			Name:   "base-url",
			Desc:   "Full Babel base URL, overrides --host and --port",
			EnvVar: "BABEL_BASE_URL",
		}),
		token: app.String(cli.StringOpt{
			Name:      "token",
			Desc:      "Persona bearer token",
			EnvVar:    "PERSONA_TOKEN",
			HideValue: true,
		}),
		logLevel: app.String(cli.StringOpt{
			Name:   "log-level",
			Value:  "error",
			Desc:   "Log level for diagnostics written to stderr",
			EnvVar: "LOG_LEVEL",
		}),
		targetsFile: app.String(cli.StringOpt{
			Name:   "targets-file",
			Desc:   "Targets file; lets TARGET be a registered target id",
			EnvVar: "TARGETS_FILE",
		}),
	}

	app.Command("feed", "Read the activity feed of a target", feedCmd(&g))
	app.Command("count", "Count new items in the activity feed of a target", countCmd(&g))
	app.Command("feeds", "Read several feeds, hydrated", feedsCmd(&g))
	app.Command("annotations", "Search annotations", annotationsCmd(&g))
	app.Command("create", "Create an annotation", createCmd(&g))
	app.Command("targets", "List the targets of the targets file with their feed ids", targetsCmd(&g))

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "babelctl: %v\n", err)
		cli.Exit(1)
	}
}

func feedCmd(g *globals) cli.CmdInitializer {
	return func(cmd *cli.Cmd) {
		cmd.Spec = "[--hydrate] [--wait] TARGET"
		hydrate := cmd.Bool(cli.BoolOpt{Name: "hydrate", Desc: "Return full annotations instead of ids"})
		wait := cmd.Bool(cli.BoolOpt{Name: "wait", Desc: "Keep polling while the feed does not exist yet"})
		target := cmd.String(cli.StringArg{Name: "TARGET", Desc: "Target URI or registered target id"})

		cmd.Action = g.action(func(ctx context.Context, c *babel.Client) (any, error) {
			t, err := g.resolve(*target)
			if err != nil {
				return nil, err
			}
			hydrated := *hydrate || t.Hydrate
			if *wait {
				return relay.AwaitFeed(ctx, c, t.URI, *g.token, hydrated, relay.DefaultAwaitPolicy())
			}
			return c.GetTargetFeed(ctx, t.URI, *g.token, hydrated)
		})
	}
}

func countCmd(g *globals) cli.CmdInitializer {
	return func(cmd *cli.Cmd) {
		cmd.Spec = "[--delta-token] TARGET"
		delta := cmd.Int(cli.IntOpt{Name: "delta-token", Desc: "Only count items newer than this token"})
		target := cmd.String(cli.StringArg{Name: "TARGET", Desc: "Target URI or registered target id"})

		cmd.Action = g.action(func(ctx context.Context, c *babel.Client) (any, error) {
			t, err := g.resolve(*target)
			if err != nil {
				return nil, err
			}
			return c.GetTargetFeedCount(ctx, t.URI, *g.token, int64(*delta))
		})
	}
}

func feedsCmd(g *globals) cli.CmdInitializer {
	return func(cmd *cli.Cmd) {
		cmd.Spec = "ID..."
		ids := cmd.Strings(cli.StringsArg{Name: "ID", Desc: "Feed ids, e.g. targets:<md5>:activity"})

		cmd.Action = g.action(func(ctx context.Context, c *babel.Client) (any, error) {
			return c.GetFeeds(ctx, *ids, *g.token)
		})
	}
}

func annotationsCmd(g *globals) cli.CmdInitializer {
	return func(cmd *cli.Cmd) {
		target := cmd.String(cli.StringOpt{Name: "target", Desc: "Filter by target URI"})
		annotatedBy := cmd.String(cli.StringOpt{Name: "annotated-by", Desc: "Filter by annotator"})
		bodyURI := cmd.String(cli.StringOpt{Name: "body-uri", Desc: "Filter by body URI"})
		bodyType := cmd.String(cli.StringOpt{Name: "body-type", Desc: "Filter by body type"})
		query := cmd.String(cli.StringOpt{Name: "q", Desc: "Free text query"})
		limit := cmd.Int(cli.IntOpt{Name: "limit", Desc: "Maximum number of results"})
		offset := cmd.Int(cli.IntOpt{Name: "offset", Desc: "Number of results to skip"})

		cmd.Action = g.action(func(ctx context.Context, c *babel.Client) (any, error) {
			return c.GetAnnotations(ctx, *g.token, babel.Filter{
				HasTarget:   *target,
				AnnotatedBy: *annotatedBy,
				HasBodyURI:  *bodyURI,
				HasBodyType: *bodyType,
				Q:           *query,
				Limit:       *limit,
				Offset:      *offset,
			})
		})
	}
}

func createCmd(g *globals) cli.CmdInitializer {
	return func(cmd *cli.Cmd) {
		cmd.Spec = "--target --annotated-by --format --type [--chars] [--sync]"
		target := cmd.String(cli.StringOpt{Name: "target", Desc: "Target URI"})
		annotatedBy := cmd.String(cli.StringOpt{Name: "annotated-by", Desc: "Annotator id"})
		format := cmd.String(cli.StringOpt{Name: "format", Desc: "Body format, e.g. text/plain"})
		bodyType := cmd.String(cli.StringOpt{Name: "type", Desc: "Body type, e.g. Text"})
		chars := cmd.String(cli.StringOpt{Name: "chars", Desc: "Body text"})
		sync := cmd.Bool(cli.BoolOpt{Name: "sync", Desc: "Wait for feeds to include the annotation"})

		cmd.Action = g.action(func(ctx context.Context, c *babel.Client) (any, error) {
			var opts []babel.CreateOption
			if *sync {
				opts = append(opts, babel.Synchronously())
			}
			return c.CreateAnnotation(ctx, *g.token, babel.Annotation{
				AnnotatedBy: *annotatedBy,
				HasTarget:   &babel.Target{URI: *target},
				HasBody:     &babel.Body{Format: *format, Type: *bodyType, Chars: *chars},
			}, opts...)
		})
	}
}

func targetsCmd(g *globals) cli.CmdInitializer {
	return func(cmd *cli.Cmd) {
		cmd.Action = func() {
			reg, err := g.registry()
			if err == nil && reg == nil {
				err = fmt.Errorf("--targets-file is required")
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				cli.Exit(1)
			}

			type listed struct {
				targets.Target
				FeedID string `json:"feed_id"`
			}
			all := reg.All()
			out := make([]listed, 0, len(all))
			for _, t := range all {
				out = append(out, listed{Target: t, FeedID: t.FeedID()})
			}
			if err := printJSON(out); err != nil {
				fmt.Fprintln(os.Stderr, err)
				cli.Exit(1)
			}
		}
	}
}

// registry loads the targets file, or returns nil when none is configured.
func (g *globals) registry() (*targets.Registry, error) {
	if *g.targetsFile == "" {
		return nil, nil
	}
	return targets.LoadRegistry(*g.targetsFile)
}

// resolve maps a target id from the targets file to its target; other values are used as URIs.
func (g *globals) resolve(ref string) (targets.Target, error) {
	reg, err := g.registry()
	if err != nil {
		return targets.Target{}, err
	}
	return reg.Resolve(ref), nil
}

// action builds the client from the global options, runs fn and prints its result as JSON.
func (g *globals) action(fn func(context.Context, *babel.Client) (any, error)) func() {
	return func() {
		if err := g.run(fn); err != nil {
			fmt.Fprintln(os.Stderr, err)
			cli.Exit(1)
		}
	}
}

func (g *globals) run(fn func(context.Context, *babel.Client) (any, error)) error {
	log, err := logger.InitTo(*g.logLevel, os.Stderr)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Close()

	client, err := g.client(log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := fn(ctx, client)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (g *globals) client(log logger.Logger) (*babel.Client, error) {
	opts := []babel.Option{babel.WithLogger(log), babel.WithUserAgent("babelctl")}
	if *g.baseURL != "" {
		return babel.NewWithBaseURL(*g.baseURL, opts...)
	}
	return babel.New(*g.host, *g.port, opts...)
}
