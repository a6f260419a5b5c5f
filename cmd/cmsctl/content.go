package main

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/Sternrassler/cms-client/pkg/content"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type listFlags struct {
	page      int
	size      int
	sortBy    string
	direction string
	filters   []string
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.size, "size", 0, "page size (1-1000)")
	cmd.Flags().StringVar(&f.sortBy, "sort-by", "", "sort field (default id)")
	cmd.Flags().StringVar(&f.direction, "direction", "", "sort direction, ASC or DESC (default DESC)")
	cmd.Flags().StringArrayVarP(&f.filters, "filter", "f", nil, "filter as key=value (repeatable)")
}

func (f *listFlags) params(args []string) (content.ListParams, error) {
	params := content.ListParams{
		Page:      f.page,
		PageSize:  f.size,
		SortBy:    f.sortBy,
		Direction: content.Direction(strings.ToUpper(f.direction)),
	}
	if len(args) > 0 {
		params.Type = args[0]
	}

	for _, raw := range f.filters {
		key, value, ok := strings.Cut(raw, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return params, fmt.Errorf("invalid filter %q: want key=value", raw)
		}
		if params.Filters == nil {
			params.Filters = make(map[string]any)
		}
		params.Filters[strings.TrimSpace(key)] = value
	}
	return params, nil
}

func (c *cli) newListCommand() *cobra.Command {
	var (
		flags     listFlags
		normalize bool
	)

	cmd := &cobra.Command{
		Use:   "list [TYPE]",
		Short: "List one page of content",
		Long:  "Fetch a single page of content of the given type (default ALL)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := flags.params(args)
			if err != nil {
				return err
			}

			cms, done, err := c.newClient()
			if err != nil {
				return err
			}
			defer done()

			resp, err := cms.ListContent(cmd.Context(), params)
			if err != nil {
				return fmt.Errorf("failed to list content: %w", err)
			}

			var records []content.Record
			if resp.Data != nil {
				records = resp.Data.Content
			}

			var data any = resp
			if normalize {
				items := make([]content.Normalized, 0, len(records))
				for _, rec := range records {
					items = append(items, cms.Normalize(rec))
				}
				data = items
			}

			out := cmd.OutOrStdout()
			err = printResult(out, c.output(), data, func(table *tablewriter.Table) {
				table.Header("ID", "Type", "Title")
				for _, rec := range records {
					_ = table.Append(id(rec.ID), rec.Type, rec.Title)
				}
			})
			if err != nil {
				return err
			}

			if c.output() == "table" && resp.Data != nil && resp.Data.TotalPages != nil {
				fmt.Fprintf(out, "\nPage %d of %d. Use 'cmsctl all' to fetch every page.\n",
					params.Normalized().Page+1, *resp.Data.TotalPages)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&flags.page, "page", 0, "zero-based page number")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "print normalized records")

	return cmd
}

func (c *cli) newAllCommand() *cobra.Command {
	var (
		flags    listFlags
		maxPages int
		raw      bool
	)

	cmd := &cobra.Command{
		Use:   "all [TYPE]",
		Short: "Aggregate content across pages",
		Long:  "Fetch every page of content of the given type, deduplicated by ID",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := flags.params(args)
			if err != nil {
				return err
			}

			cms, done, err := c.newClient()
			if err != nil {
				return err
			}
			defer done()

			ctx := cmd.Context()
			if raw {
				records, err := cms.ListAllContent(ctx, params, maxPages)
				if err != nil {
					return fmt.Errorf("failed to aggregate content: %w", err)
				}
				return printResult(cmd.OutOrStdout(), c.output(), records, func(table *tablewriter.Table) {
					table.Header("ID", "Type", "Title")
					for _, rec := range records {
						_ = table.Append(id(rec.ID), rec.Type, rec.Title)
					}
				})
			}

			items, err := cms.ListAllNormalized(ctx, params, maxPages)
			if err != nil {
				return fmt.Errorf("failed to aggregate content: %w", err)
			}
			return printResult(cmd.OutOrStdout(), c.output(), items, func(table *tablewriter.Table) {
				table.Header("ID", "Type", "Title", "PDF")
				for _, item := range items {
					_ = table.Append(id(item.ID), item.Type, item.Title, item.PDFPath)
				}
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "maximum pages to fetch (default 20)")
	cmd.Flags().BoolVar(&raw, "raw", false, "print raw records instead of normalized ones")

	return cmd
}

func (c *cli) newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Get a content record",
		Long:  "Fetch a single content record and print its normalized form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contentID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid content ID %q", args[0])
			}

			cms, done, err := c.newClient()
			if err != nil {
				return err
			}
			defer done()

			resp, err := cms.GetContent(cmd.Context(), contentID)
			if err != nil {
				return fmt.Errorf("failed to get content %d: %w", contentID, err)
			}
			if resp.Data == nil {
				return fmt.Errorf("content %d: no data in response", contentID)
			}

			item := cms.Normalize(*resp.Data)
			return printResult(cmd.OutOrStdout(), c.output(), item, func(table *tablewriter.Table) {
				table.Header("Property", "Value")
				_ = table.Append("ID", id(item.ID))
				_ = table.Append("Type", item.Type)
				_ = table.Append("Title", item.Title)
				_ = table.Append("Inside image", item.InsideImage)
				_ = table.Append("Outside image", item.OutsideImage)
				_ = table.Append("PDF", item.PDFPath)
				_ = table.Append("Publication type", deref(item.PublicationType))
				_ = table.Append("Team", deref(item.Team))
			})
		},
	}
}

func (c *cli) newAssetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "asset PATH",
		Short: "Resolve an asset URL",
		Long:  "Print the absolute URL a raw asset path resolves to. No request is made.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cms, done, err := c.newClient()
			if err != nil {
				return err
			}
			defer done()

			fmt.Fprintln(cmd.OutOrStdout(), cms.AssetURL(args[0]))
			return nil
		},
	}
}

func (c *cli) newDownloadCommand() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "download PATH",
		Short: "Download a file",
		Long: `Download a file by path or URL. Files on the CMS hosts are fetched with
credentials; other hosts are fetched anonymously.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cms, done, err := c.newClient()
			if err != nil {
				return err
			}
			defer done()

			data, contentType, err := cms.DownloadFile(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to download %s: %w", args[0], err)
			}

			if outPath == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if outPath == "" {
				outPath = downloadName(args[0])
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Saved %d bytes (%s) to %s\n", len(data), contentType, outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "O", "", "output file, - for stdout (default: name from the path)")

	return cmd
}

// downloadName derives a local file name from a path or URL.
func downloadName(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	name := path.Base(p)
	if name == "." || name == "/" {
		return "download"
	}
	return name
}
