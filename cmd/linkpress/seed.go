package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/eringen/linkpress/blog"
	"github.com/eringen/linkpress/store"
)

// seedFile is the YAML layout read by "linkpress seed".
type seedFile struct {
	Categories []store.Category `yaml:"categories"`
}

func newSeedCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Insert the categories listed in a YAML file.",
		Long:  "Insert the categories listed in a YAML file. Categories whose slug already exists are skipped.",
		Example: `
linkpress seed categories.yaml

# categories.yaml
categories:
  - name: Engineering
    slug: engineering
    description: Building software
  - name: Culture
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			st, err := o.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			added, skipped, err := seedCategories(cmd.Context(), st, f)
			out := cmd.OutOrStdout()
			for _, c := range added {
				fmt.Fprintf(out, "%s %s (%s)\n", color.GreenString("added"), c.Name, c.Slug)
			}
			for _, c := range skipped {
				fmt.Fprintf(out, "%s %s (%s)\n", color.New(color.Faint).Sprint("exists"), c.Name, c.Slug)
			}
			return err
		},
	}
}

// seedCategories inserts every category in r whose slug is not taken. A
// missing slug is derived from the name. Insert failures do not stop the
// rest; they are returned together.
func seedCategories(ctx context.Context, st store.Store, r io.Reader) (added, skipped []store.Category, err error) {
	var file seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("parse seed file: %w", err)
	}

	existing, err := st.SelectCategories(ctx, store.Query{})
	if err != nil {
		return nil, nil, fmt.Errorf("list categories: %w", err)
	}
	taken := make(map[string]bool, len(existing))
	for _, c := range existing {
		taken[c.Slug] = true
	}

	var errs *multierror.Error
	for i, c := range file.Categories {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			errs = multierror.Append(errs, fmt.Errorf("category %d: name is required", i+1))
			continue
		}
		if c.Slug = strings.TrimSpace(c.Slug); c.Slug == "" {
			c.Slug = blog.Slugify(c.Name)
		}
		if taken[c.Slug] {
			skipped = append(skipped, c)
			continue
		}
		created, err := st.InsertCategory(ctx, store.NewCategory{
			Name:        c.Name,
			Slug:        c.Slug,
			Description: strings.TrimSpace(c.Description),
		})
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("category %q: %w", c.Slug, err))
			continue
		}
		taken[c.Slug] = true
		added = append(added, created)
	}
	return added, skipped, errs.ErrorOrNil()
}
