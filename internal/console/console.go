package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/uavconcept/v4lctl/internal/attr"
	"github.com/uavconcept/v4lctl/internal/backend"
	"github.com/uavconcept/v4lctl/internal/logging"
)

// DefaultPrompt is shown before every line
const DefaultPrompt = "v4lctl> "

// DefaultTimeout bounds one command
const DefaultTimeout = 30 * time.Second

// errQuit ends the loop
var errQuit = errors.New("quit")

// Console runs commands against a backend.
type Console struct {
	backend backend.Backend
	timeout time.Duration
}

// New creates a console over b. Call Run to start the interactive loop.
func New(b backend.Backend) *Console {
	return &Console{
		backend: b,
		timeout: DefaultTimeout,
	}
}

// SetTimeout changes the per-command timeout
func (c *Console) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// Run reads lines until quit, EOF or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          DefaultPrompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    c.completer(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	out := rl.Stdout()
	c.printHelp(out)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			_, _ = fmt.Fprintln(out, "Exiting...")
			return nil
		}

		if err := c.Execute(ctx, out, line); err != nil {
			if errors.Is(err, errQuit) {
				_, _ = fmt.Fprintln(out, "Exiting...")
				return nil
			}
			_, _ = fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

// Execute runs one command line and writes its output to w. Blank lines
// are ignored. quit returns a non-nil error that IsQuit recognises.
func (c *Console) Execute(ctx context.Context, w io.Writer, line string) error {
	words, err := shellquote.Split(strings.TrimSpace(line))
	if err != nil {
		return fmt.Errorf("cannot parse line: %w", err)
	}
	if len(words) == 0 {
		return nil
	}

	cmd := strings.ToLower(words[0])
	args := words[1:]

	logging.Debug("console command", zap.String("command", cmd), zap.Int("args", len(args)))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	switch cmd {
	case "help", "?":
		c.printHelp(w)
		return nil
	case "get", "g":
		return c.cmdGet(ctx, w, args)
	case "set", "s":
		return c.cmdSet(ctx, w, args)
	case "apply", "a":
		return c.cmdApply(ctx, w, args)
	case "show", "config":
		return c.cmdShow(ctx, w, args)
	case "defaults":
		return c.cmdDefaults(ctx, w)
	case "schema":
		return c.cmdSchema(ctx, w)
	case "quit", "exit", "q":
		return errQuit
	default:
		return fmt.Errorf("unknown command: %s (type 'help' for commands)", cmd)
	}
}

// IsQuit reports whether err came from a quit command
func IsQuit(err error) bool {
	return errors.Is(err, errQuit)
}

func (c *Console) printHelp(w io.Writer) {
	_, _ = fmt.Fprintln(w, `
v4lctl commands:
  Device:
    get <name>                 - Read an attribute from the card (raw token)
    set <command...> <value>   - Run a raw v4lctl write, e.g. set bright 70%

  Configuration:
    show [detailed|compact|json] - Show the current configuration
    apply <key=value>...       - Stage values and reconcile the changes
    defaults                   - Reconcile every attribute to its default
    schema                     - List attributes, kinds and write commands

  Other:
    help                       - Show this help
    quit                       - Exit

Quote names with spaces: get "UV Ratio"`)
}

func (c *Console) cmdGet(ctx context.Context, w io.Writer, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: get <name>")
	}
	value, err := c.backend.Get(ctx, args[0])
	if err != nil {
		return err
	}
	if value == "" {
		_, _ = fmt.Fprintf(w, "%s: (no value)\n", args[0])
		return nil
	}
	_, _ = fmt.Fprintf(w, "%s: %s\n", args[0], value)
	return nil
}

func (c *Console) cmdSet(ctx context.Context, w io.Writer, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: set <command...> <value>")
	}
	command := QuoteCommand(args[:len(args)-1])
	value := args[len(args)-1]

	ok, err := c.backend.Set(ctx, command, value)
	if err != nil {
		return err
	}
	if !ok {
		_, _ = fmt.Fprintf(w, "✗ %s %s: v4lctl could not be run\n", command, value)
		return nil
	}
	_, _ = fmt.Fprintf(w, "✓ %s %s\n", command, value)
	return nil
}

func (c *Console) cmdApply(ctx context.Context, w io.Writer, args []string) error {
	doc, err := ParseAssignments(args)
	if err != nil {
		return err
	}
	_, changes, err := c.backend.Apply(ctx, doc)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(w, backend.FormatChanges(changes))
	return nil
}

func (c *Console) cmdShow(ctx context.Context, w io.Writer, args []string) error {
	format := backend.FormatNameDetailed
	if len(args) > 0 {
		format = args[0]
	}
	if !backend.ValidFormat(format) {
		return fmt.Errorf("unknown format %q (detailed, compact, json)", format)
	}

	rev, err := c.backend.Current(ctx)
	if err != nil {
		return err
	}

	switch format {
	case backend.FormatNameCompact:
		_, _ = fmt.Fprint(w, backend.FormatCompact(rev))
	case backend.FormatNameJSON:
		data, err := json.MarshalIndent(rev.Document(), "", "  ")
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(w, string(data))
	default:
		_, _ = fmt.Fprint(w, backend.FormatDetailed(rev))
	}
	return nil
}

func (c *Console) cmdDefaults(ctx context.Context, w io.Writer) error {
	_, changes, err := c.backend.Defaults(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(w, backend.FormatChanges(changes))
	return nil
}

func (c *Console) cmdSchema(ctx context.Context, w io.Writer) error {
	schema, err := c.backend.Schema(ctx)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "%s\n", schema.Model())
	for _, a := range schema.Attributes() {
		extra := ""
		switch {
		case len(a.Options) > 0:
			extra = strings.Join(a.Options, " ")
		case a.Kind == attr.KindInt && a.Limit > 0:
			extra = fmt.Sprintf("0-%d", a.Limit)
		}
		_, _ = fmt.Fprintf(w, "  %-18s %-8s %-36s %s\n", a.Key, a.Kind, a.Command, extra)
	}
	return nil
}

// completer offers command names and attribute keys
func (c *Console) completer(ctx context.Context) *readline.PrefixCompleter {
	keys := func(string) []string {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		schema, err := c.backend.Schema(ctx)
		if err != nil {
			return nil
		}
		var out []string
		for _, a := range schema.Attributes() {
			out = append(out, a.Key+"=")
		}
		return out
	}
	names := func(string) []string {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		schema, err := c.backend.Schema(ctx)
		if err != nil {
			return nil
		}
		var out []string
		for _, a := range schema.Attributes() {
			out = append(out, shellquote.Join(a.Name))
		}
		return out
	}

	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("get", readline.PcItemDynamic(names)),
		readline.PcItem("set"),
		readline.PcItem("apply", readline.PcItemDynamic(keys)),
		readline.PcItem("show",
			readline.PcItem(backend.FormatNameDetailed),
			readline.PcItem(backend.FormatNameCompact),
			readline.PcItem(backend.FormatNameJSON),
		),
		readline.PcItem("defaults"),
		readline.PcItem("schema"),
		readline.PcItem("quit"),
	)
}

// QuoteCommand rebuilds a write command from split words, double quoting
// words that contain spaces so the snapshot key matches the schema's
// command (setattr "UV Ratio").
func QuoteCommand(words []string) string {
	quoted := slices.Clone(words)
	for i, w := range quoted {
		if strings.ContainsAny(w, " \t") {
			quoted[i] = `"` + w + `"`
		}
	}
	return strings.Join(quoted, " ")
}

// ParseAssignments turns key=value words into a document.
func ParseAssignments(args []string) (attr.Document, error) {
	if len(args) == 0 {
		return nil, errors.New("usage: apply <key=value>...")
	}
	doc := attr.Document{}
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		doc[k] = v
	}
	return doc, nil
}
