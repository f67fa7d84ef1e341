package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/category"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/errors"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/manifest"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/ops"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/provider"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/scenario"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *ops.Env, gatherer prometheus.Gatherer) *cli.App {
	app := &cli.App{
		Name:    "phosra",
		Usage:   "Parental-control enforcement sandbox for streaming providers",
		Version: Version,
		Commands: []*cli.Command{
			categoriesCmd(),
			capabilitiesCmd(env),
			rulesCmd(env),
			simulateCmd(env),
			scoreCmd(env),
			manifestsCmd(env),
			serveCmd(env, gatherer),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// categoriesCmd creates the categories command.
func categoriesCmd() *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List the parental-control category catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "domain", Aliases: []string{"d"}, Usage: "Only categories of this domain"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Categories(ops.CategoriesInput{Domain: c.String("domain")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// capabilitiesCmd creates the capabilities command.
func capabilitiesCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "capabilities",
		Usage: "Show what a provider enforces natively and what it leaves platform-managed",
		Flags: []cli.Flag{providerFlag()},
		Action: func(c *cli.Context) error {
			output, err := ops.Capabilities(env, ops.CapabilitiesInput{Provider: c.String("provider")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// rulesCmd creates the rules command.
func rulesCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "rules",
		Usage: "Print the default rule set of a provider",
		Flags: []cli.Flag{providerFlag()},
		Action: func(c *cli.Context) error {
			output, err := ops.DefaultRules(env, ops.DefaultRulesInput{Provider: c.String("provider")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// simulateCmd creates the simulate command.
func simulateCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "Enable rules on a fresh session, preview the result and optionally commit it",
		Flags: append(planFlags(),
			&cli.BoolFlag{Name: "commit", Usage: "Commit the preview"},
			&cli.BoolFlag{Name: "export", Usage: "Write the manifest file (implies --commit)"},
			&cli.StringFlag{Name: "export-path", Aliases: []string{"o"}, Usage: "Manifest file path (default: ~/.phosra/exports/<provider>-<snapshot>.json)"},
			&cli.BoolFlag{Name: "interactive", Aliases: []string{"i"}, Usage: "Pick provider and rules in a form"},
		),
		Action: func(c *cli.Context) error {
			plan, err := buildPlan(c, env)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Simulate(c.Context, env, ops.SimulateInput{
				Plan:       plan,
				Commit:     c.Bool("commit"),
				Export:     c.Bool("export") || c.IsSet("export-path"),
				ExportPath: c.String("export-path"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// scoreCmd creates the score command.
func scoreCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "score",
		Usage: "Protection score of each non-adult profile under the given rules",
		Flags: planFlags(),
		Action: func(c *cli.Context) error {
			plan, err := buildPlan(c, env)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.Simulate(c.Context, env, ops.SimulateInput{Plan: plan})
			if err != nil {
				return outputError(err)
			}
			env.Sessions.Close(output.SessionID)
			return outputJSON(c.App.Writer, map[string]any{
				"provider": string(plan.Provider.ID()),
				"scores":   output.Scores,
			})
		},
	}
}

// manifestsCmd creates the manifests command group.
func manifestsCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "manifests",
		Usage: "Inspect archived change manifests",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List archived manifests, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "provider", Aliases: []string{"p"}, Usage: "Filter by provider"},
					&cli.StringFlag{Name: "session", Usage: "Filter by session id"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
					&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
				},
				Action: func(c *cli.Context) error {
					output, err := ops.ListManifests(env, ops.ListManifestsInput{
						Provider:  c.String("provider"),
						SessionID: c.String("session"),
						Limit:     c.Int("limit"),
						Offset:    c.Int("offset"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c.App.Writer, output)
				},
			},
			{
				Name:      "show",
				Usage:     "Print one archived manifest",
				ArgsUsage: "<snapshot-id>",
				Action: func(c *cli.Context) error {
					output, err := ops.FetchManifest(env, ops.FetchManifestInput{SnapshotID: c.Args().First()})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c.App.Writer, output.Manifest)
				},
			},
			{
				Name:      "validate",
				Usage:     "Check a manifest file against the schema",
				ArgsUsage: "<path>",
				Action: func(c *cli.Context) error {
					output, err := ops.ValidateManifestFile(env, ops.ValidateManifestFileInput{Path: c.Args().First()})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c.App.Writer, map[string]any{
						"valid":          true,
						"snapshot_id":    output.Manifest.SnapshotID,
						"schema_version": output.Manifest.SchemaVersion,
					})
				},
			},
			{
				Name:  "purge",
				Usage: "Delete archived manifests older than a number of days",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "older-than", Required: true, Usage: "Age threshold (e.g., 30d)"},
				},
				Action: func(c *cli.Context) error {
					days, err := parseDuration(c.String("older-than"))
					if err != nil {
						return outputError(errors.NewInvalidRequest(err.Error()))
					}
					output, err := ops.PurgeManifests(env, ops.PurgeManifestsInput{OlderThanDays: days}, time.Now().Unix())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c.App.Writer, output)
				},
			},
			{
				Name:  "schema",
				Usage: "Print the manifest JSON Schema",
				Action: func(c *cli.Context) error {
					schema, err := manifest.Schema()
					if err != nil {
						return outputError(err)
					}
					_, err = fmt.Fprintln(c.App.Writer, string(schema))
					return err
				},
			},
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(env *ops.Env, gatherer prometheus.Gatherer) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the sandbox web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8484, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			port := c.Int("port")
			if port < 1 || port > 65535 {
				return outputError(errors.NewInvalidRequest("port must be between 1 and 65535"))
			}
			srv, err := web.NewServer(env, gatherer, Version, c.String("bind"), port)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(srv)
		},
	}
}

// Helper functions

func providerFlag() cli.Flag {
	return &cli.StringFlag{Name: "provider", Aliases: []string{"p"}, Usage: "Provider id (netflix, disneyplus)"}
}

// planFlags are the flags that describe a simulation.
func planFlags() []cli.Flag {
	return []cli.Flag{
		providerFlag(),
		&cli.StringFlag{Name: "scenario", Aliases: []string{"s"}, Usage: "YAML scenario file"},
		&cli.StringSliceFlag{Name: "enable", Aliases: []string{"e"}, Usage: "Category to enable (repeatable, comma-separated)"},
		&cli.StringSliceFlag{Name: "set", Usage: "Rule config as category.key=value (repeatable); enables the rule"},
	}
}

// buildPlan merges the scenario file, --enable, --set and the interactive
// picker into one resolved plan.
func buildPlan(c *cli.Context, env *ops.Env) (*scenario.Plan, error) {
	sc := &scenario.Scenario{}
	if path := c.String("scenario"); path != "" {
		loaded, err := scenario.Load(path)
		if err != nil {
			return nil, err
		}
		sc = loaded
	}
	if p := c.String("provider"); p != "" {
		sc.Provider = p
	}

	for _, cat := range splitList(c.StringSlice("enable")) {
		enableRule(sc, cat)
	}
	for _, assignment := range c.StringSlice("set") {
		cat, key, value, err := parseAssignment(assignment)
		if err != nil {
			return nil, err
		}
		spec := enableRule(sc, cat)
		if spec.Config == nil {
			spec.Config = map[string]any{}
		}
		spec.Config[key] = value
	}

	if c.Bool("interactive") {
		if !isTerminal() {
			return nil, errors.NewInvalidRequest("--interactive needs a terminal")
		}
		if err := pickRules(sc, env.Config.DefaultProvider); err != nil {
			return nil, err
		}
	}

	return sc.Resolve(env.Config.DefaultProvider)
}

// enableRule returns the scenario's spec for cat, adding one if needed.
func enableRule(sc *scenario.Scenario, cat string) *scenario.RuleSpec {
	cat = strings.ToLower(strings.TrimSpace(cat))
	for i := range sc.Rules {
		if sc.Rules[i].Category == cat {
			return &sc.Rules[i]
		}
	}
	sc.Rules = append(sc.Rules, scenario.RuleSpec{Category: cat})
	return &sc.Rules[len(sc.Rules)-1]
}

// pickRules asks for the provider and the rules to enable.
func pickRules(sc *scenario.Scenario, defaultProvider string) error {
	id := sc.Provider
	if id == "" {
		id = defaultProvider
	}
	if err := huh.NewSelect[string]().
		Title("Provider").
		Options(huh.NewOptions(provider.IDs()...)...).
		Value(&id).
		Run(); err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("provider selection: %v", err))
	}
	sc.Provider = id

	p, err := provider.Get(id)
	if err != nil {
		return err
	}

	var current []string
	for _, r := range sc.Rules {
		current = append(current, r.Category)
	}

	options := make([]huh.Option[string], 0, len(category.All()))
	for _, c := range category.All() {
		label := category.Label(c)
		if capability, err := p.Capability(c); err == nil {
			switch {
			case capability.Supported:
				label += " [" + capability.SettingName + "]"
			case capability.PlatformManaged:
				label += " [platform managed]"
			}
		}
		options = append(options, huh.NewOption(label, string(c)).Selected(slices.Contains(current, string(c))))
	}

	selected := current
	if err := huh.NewMultiSelect[string]().
		Title("Rules to enable").
		Options(options...).
		Height(15).
		Value(&selected).
		Run(); err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("rule selection: %v", err))
	}

	kept := sc.Rules[:0]
	for _, r := range sc.Rules {
		if slices.Contains(selected, r.Category) {
			kept = append(kept, r)
		}
	}
	sc.Rules = kept
	for _, cat := range selected {
		enableRule(sc, cat)
	}
	return nil
}

// parseAssignment splits "category.key=value". The value is read as YAML,
// so numbers, booleans and [a, b] lists keep their type.
func parseAssignment(s string) (cat, key string, value any, err error) {
	lhs, raw, ok := strings.Cut(s, "=")
	if !ok {
		return "", "", nil, errors.NewInvalidRequest(fmt.Sprintf("--set %q: expected category.key=value", s))
	}
	cat, key, ok = strings.Cut(strings.TrimSpace(lhs), ".")
	if !ok || cat == "" || key == "" {
		return "", "", nil, errors.NewInvalidRequest(fmt.Sprintf("--set %q: expected category.key=value", s))
	}

	raw = strings.TrimSpace(raw)
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		value = raw
	}
	return cat, key, value, nil
}

// splitList flattens comma-separated flag values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// outputJSON marshals result to w as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if sErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", sErr.Code, sErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// parseDuration parses "7d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days <= 0 {
			return 0, fmt.Errorf("duration must be positive")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 30d")
}
