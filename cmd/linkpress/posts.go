package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/eringen/linkpress/blog"
)

type postsOptions struct {
	category string
	tag      string
	search   string
}

func newPostsCommand(o *options) *cobra.Command {
	po := &postsOptions{}
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List posts, newest first.",
		Example: `
linkpress posts
linkpress posts --category engineering --tag go
linkpress posts --search "error handling"
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := o.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			posts, err := listPosts(cmd.Context(), blog.NewService(st, o.logger), po)
			if err != nil {
				return err
			}
			printPosts(cmd.OutOrStdout(), posts)
			return nil
		},
	}
	cmd.Flags().StringVar(&po.category, "category", "", "Only posts in this category slug.")
	cmd.Flags().StringVar(&po.tag, "tag", "", "Only posts with this tag slug.")
	cmd.Flags().StringVarP(&po.search, "search", "s", "", "Only posts whose title or excerpt contains this text.")
	return cmd
}

type postLister interface {
	ListPosts(ctx context.Context, f blog.Filter) ([]blog.Post, error)
	SearchPosts(ctx context.Context, term string) ([]blog.Post, error)
}

// listPosts applies the same precedence as the web page: a search term
// replaces the category and tag filters.
func listPosts(ctx context.Context, l postLister, po *postsOptions) ([]blog.Post, error) {
	if !blog.IsBlank(po.search) {
		if po.category != "" || po.tag != "" {
			return nil, errors.New("--search cannot be combined with --category or --tag")
		}
		return l.SearchPosts(ctx, po.search)
	}
	return l.ListPosts(ctx, blog.Filter{Category: po.category, Tag: po.tag})
}

func printPosts(w io.Writer, posts []blog.Post) {
	if len(posts) == 0 {
		fmt.Fprintln(w, color.New(color.Faint, color.Italic).Sprint("no posts"))
		return
	}
	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 48
	tbl.AddRow(bold.Sprint("PUBLISHED"), bold.Sprint("TITLE"), bold.Sprint("CATEGORY"), bold.Sprint("TAGS"), bold.Sprint("LINK"))
	for _, p := range posts {
		tbl.AddRow(p.PublishedAt.Format("2006-01-02"), p.Title, p.CategoryName(), strings.Join(p.TagNames(), ", "), p.ArticleURL)
	}
	fmt.Fprintln(w, tbl)

	label := "posts"
	if len(posts) == 1 {
		label = "post"
	}
	fmt.Fprintln(w, color.New(color.Faint).Sprintf("%d %s", len(posts), label))
}
