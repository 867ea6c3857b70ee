package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/kailas-cloud/iiifsearch/internal/domain/search/request"
)

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Run a search against Solr and print the IIIF response",
		Commands: []*cli.Command{
			{
				Name:      "manifest",
				Usage:     "Search within one manifest (Search API 1)",
				ArgsUsage: "<manifest-id> <query>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, q, err := searchArgs(cmd)
					if err != nil {
						return err
					}
					a, err := newApp(cmd)
					if err != nil {
						return err
					}
					defer func() { _ = a.logger.Sync() }()

					params, err := request.Normalize(map[string][]string{"q": {q}}, []string{"q"})
					if err != nil {
						return err
					}
					req, err := request.NewManifest(id, params)
					if err != nil {
						return err
					}
					resp, err := a.search.Manifest(ctx, &req)
					if err != nil {
						return err
					}
					return printJSON(cmd, resp)
				},
			},
			{
				Name:      "collection",
				Usage:     "Search every manifest under a collection prefix (Search API 2)",
				ArgsUsage: "<collection-prefix> <query>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Usage: "Zero-based page number"},
					&cli.IntFlag{Name: "rows", Usage: "Page size (defaults to solr.max_rows)"},
					&cli.BoolFlag{Name: "raw", Usage: "Print the Solr response unmodified"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, q, err := searchArgs(cmd)
					if err != nil {
						return err
					}
					a, err := newApp(cmd)
					if err != nil {
						return err
					}
					defer func() { _ = a.logger.Sync() }()

					values := map[string][]string{"q": {q}}
					order := []string{"q"}
					if cmd.IsSet("page") {
						values["page"] = []string{strconv.Itoa(cmd.Int("page"))}
						order = append(order, "page")
					}
					if cmd.IsSet("rows") {
						values["rows"] = []string{strconv.Itoa(cmd.Int("rows"))}
						order = append(order, "rows")
					}
					params, err := request.Normalize(values, order)
					if err != nil {
						return err
					}
					req, err := request.NewCollection(id, params, a.cfg.Solr.MaxRows)
					if err != nil {
						return err
					}

					if cmd.Bool("raw") {
						body, err := a.search.CollectionRaw(ctx, &req)
						if err != nil {
							return err
						}
						_, err = fmt.Fprintln(cmd.Root().Writer, string(body))
						return err
					}
					resp, err := a.search.Collection(ctx, &req)
					if err != nil {
						return err
					}
					return printJSON(cmd, resp)
				},
			},
		},
	}
}

func searchArgs(cmd *cli.Command) (string, string, error) {
	if cmd.Args().Len() != 2 {
		return "", "", errors.New("expected exactly two arguments: <id> <query>")
	}
	return cmd.Args().Get(0), cmd.Args().Get(1), nil
}

func printJSON(cmd *cli.Command, v any) error {
	enc := json.NewEncoder(cmd.Root().Writer)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
