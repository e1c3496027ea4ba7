// Package investigate holds the CLI commands that work on cases.
package investigate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/myrjola/casemate/internal/ai"
	"github.com/myrjola/casemate/internal/config"
	"github.com/myrjola/casemate/internal/errors"
	"github.com/myrjola/casemate/internal/investigation"
	"github.com/myrjola/casemate/internal/sqlite"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{ //nolint:gochecknoglobals // cobra idiom
	ID:    "investigate",
	Title: "Investigation",
}

// env is what a command works with. close releases the database when one was opened.
type env struct {
	aggregator *investigation.Aggregator
	forwarder  *investigation.Forwarder
	assistant  *ai.Client
	close      func() error
}

func open(ctx context.Context, lookupEnv func(string) (string, bool), logger *slog.Logger) (*env, error) {
	cfg, err := config.Load(lookupEnv)
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	var db *sqlite.Database
	closeDB := func() error { return nil }
	if cfg.NeedsDatabase() {
		if db, err = cfg.OpenDatabase(ctx, logger); err != nil {
			return nil, err
		}
		closeDB = db.Close
	}
	store, err := cfg.OpenBackend(db, logger)
	if err != nil {
		return nil, errors.Join(errors.Wrap(err, "open backend"), closeDB())
	}
	return &env{
		aggregator: investigation.NewAggregator(store, logger),
		forwarder:  investigation.NewForwarder(store, logger),
		assistant:  cfg.AIClient(logger),
		close:      closeDB,
	}, nil
}

// Commands builds the investigation commands. lookupEnv has the signature of [os.LookupEnv].
func Commands(lookupEnv func(string) (string, bool), logger *slog.Logger) []*cobra.Command {
	withEnv := func(run func(cmd *cobra.Command, args []string, e *env) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) (err error) {
			e, err := open(cmd.Context(), lookupEnv, logger)
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, e.close())
			}()
			return run(cmd, args, e)
		}
	}

	return []*cobra.Command{
		{
			Use:     "cases",
			GroupID: Group.ID,
			Short:   "List cases",
			Args:    cobra.NoArgs,
			RunE:    withEnv(listCases),
		},
		{
			Use:     "show [case id]",
			GroupID: Group.ID,
			Short:   "Print a case with all its collections as JSON",
			Args:    cobra.ExactArgs(1),
			RunE:    withEnv(showCase),
		},
		{
			Use:     "ask [case id] [question]",
			GroupID: Group.ID,
			Short:   "Ask the detective about a case",
			Long:    `Streams the detective's analysis of the case. Without CASEMATE_AI_API_KEY a canned reply is printed.`,
			Args:    cobra.MinimumNArgs(2), //nolint:mnd // case id and at least one word
			RunE:    withEnv(ask),
		},
		{
			Use:     "accuse [case id]",
			GroupID: Group.ID,
			Short:   "Generate the accusation narrative as JSON",
			Args:    cobra.ExactArgs(1),
			RunE:    withEnv(accuse),
		},
		{
			Use:     "portrait [case id] [party id]",
			GroupID: Group.ID,
			Short:   "Paint a party portrait",
			Long:    `Generates a portrait with DALL-E 3 and stores it as the party's image.`,
			Args:    cobra.ExactArgs(2), //nolint:mnd // case id and party id
			RunE:    withEnv(portrait),
		},
	}
}

func listCases(cmd *cobra.Command, _ []string, e *env) error {
	cases, err := e.aggregator.ListCases(cmd.Context())
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0) //nolint:mnd // column layout
	_, _ = fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tDETECTIVE")
	for _, c := range cases {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Title, c.Status, c.Detective)
	}
	return errors.Wrap(tw.Flush(), "flush table")
}

func showCase(cmd *cobra.Command, args []string, e *env) error {
	c, err := e.aggregator.LoadCase(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), c)
}

func ask(cmd *cobra.Command, args []string, e *env) error {
	ctx := cmd.Context()
	c, err := e.aggregator.LoadCase(ctx, args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	err = e.assistant.StreamAnalysis(ctx, c, strings.Join(args[1:], " "), func(delta string) error {
		_, writeErr := io.WriteString(out, delta)
		return errors.Wrap(writeErr, "write answer")
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out)
	return nil
}

func accuse(cmd *cobra.Command, args []string, e *env) error {
	ctx := cmd.Context()
	c, err := e.aggregator.LoadCase(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), e.assistant.GenerateAccusation(ctx, c))
}

func portrait(cmd *cobra.Command, args []string, e *env) error {
	ctx := cmd.Context()
	c, err := e.aggregator.LoadCase(ctx, args[0])
	if err != nil {
		return err
	}
	party, ok := c.Party(args[1])
	if !ok {
		return errors.New("party not found", slog.String("case_id", c.ID), slog.String("party_id", args[1]))
	}
	data, err := e.assistant.GeneratePortrait(ctx, party)
	if err != nil {
		return err
	}
	imageURL, err := e.forwarder.UploadPartyImage(ctx, c, party.ID, party.ID+".png", ai.PortraitContentType,
		bytes.NewReader(data))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), imageURL)
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "encode json")
}
