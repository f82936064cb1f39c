package blog

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/linkpress/events"
	"github.com/eringen/linkpress/store"
)

func testLogger() *log.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	return l
}

func openStore(t *testing.T) *store.SQL {
	t.Helper()
	s, err := store.Open(context.Background(), store.Config{DSN: filepath.Join(t.TempDir(), "blog.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.PostCreated
}

func (p *recordingPublisher) PostCreated(_ context.Context, ev events.PostCreated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

// brokenStore fails every read.
type brokenStore struct {
	store.Store
	err error
}

func (b brokenStore) SelectPosts(context.Context, store.Query) ([]store.PostRecord, error) {
	return nil, b.err
}

func (b brokenStore) SelectCategories(context.Context, store.Query) ([]store.Category, error) {
	return nil, b.err
}

func (b brokenStore) SelectTags(context.Context, store.Query) ([]store.Tag, error) {
	return nil, b.err
}

func validInput(title string, tags ...string) PostInput {
	return PostInput{
		Title:      title,
		Excerpt:    "An excerpt about " + title,
		ArticleURL: "https://medium.com/@me/" + Slugify(title),
		ImageURL:   "https://images.example.com/" + Slugify(title) + ".jpg",
		Tags:       tags,
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello, World! 2024", "hello-world-2024"},
		{"  Go  ", "go"},
		{"--Already-Slugged--", "already-slugged"},
		{"C++ & Rust", "c-rust"},
		{"Café au lait", "caf-au-lait"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "Slugify(%q)", tt.in)
	}
}

func TestNormalize(t *testing.T) {
	in := PostInput{
		Title:   "  Hello, World! 2024 ",
		Excerpt: " x ",
		Tags:    []string{"React", "react", " Go, web ,", "", "GO"},
	}
	in.Normalize()

	assert.Equal(t, "Hello, World! 2024", in.Title)
	assert.Equal(t, "hello-world-2024", in.Slug)
	assert.Equal(t, "x", in.Excerpt)
	assert.Equal(t, []string{"React", "Go", "web"}, in.Tags)
}

func TestNormalizeKeepsExplicitSlug(t *testing.T) {
	in := PostInput{Title: "Some Title", Slug: " custom-slug "}
	in.Normalize()
	assert.Equal(t, "custom-slug", in.Slug)
}

func TestValidate(t *testing.T) {
	in := validInput("Valid Post", "go")
	in.Normalize()
	require.NoError(t, in.Validate())

	bad := PostInput{
		Title:      "",
		Slug:       "Not A Slug",
		ArticleURL: "ftp://medium.com/x",
		ImageURL:   "not a url",
		CategoryID: "42",
		Tags:       []string{"ok", "???"},
	}
	err := bad.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Title is required", verr.Fields["title"])
	assert.Contains(t, verr.Fields, "slug")
	assert.Equal(t, "Excerpt is required", verr.Fields["excerpt"])
	assert.Equal(t, "Please enter a valid article URL (http or https)", verr.Fields["article_url"])
	assert.Equal(t, "Please enter a valid image URL (http or https)", verr.Fields["image_url"])
	assert.Contains(t, verr.Fields, "category_id")
	assert.Contains(t, verr.Fields, "tags")
}

func TestPostsQuery(t *testing.T) {
	q := PostsQuery(Filter{})
	assert.Empty(t, q.Where)
	assert.Empty(t, q.AnyOf)
	assert.Equal(t, []store.Order{store.Desc("published_at")}, q.Order)
	assert.True(t, q.Expands(store.ExpandCategory))
	assert.True(t, q.Expands(store.ExpandTags))

	q = PostsQuery(Filter{Category: "engineering", Tag: "go"})
	assert.Equal(t, []store.Predicate{
		store.Eq("category.slug", "engineering"),
		store.Eq("tags.slug", "go"),
	}, q.Where)
}

func TestSearchQuery(t *testing.T) {
	q := SearchQuery("50%_off")
	assert.Equal(t, []store.Predicate{
		store.ILike("title", `%50\%\_off%`),
		store.ILike("excerpt", `%50\%\_off%`),
	}, q.AnyOf)
	assert.Empty(t, q.Where)
	assert.Equal(t, []store.Order{store.Desc("published_at")}, q.Order)
}

func TestFlatten(t *testing.T) {
	cat := &store.Category{ID: "c1", Name: "Engineering", Slug: "engineering"}
	records := []store.PostRecord{
		{ID: "p1", Slug: "one", Category: cat, TagLinks: []store.TagLink{{Tag: &store.Tag{Name: "Go"}}, {Tag: nil}, {Tag: &store.Tag{Name: "Web"}}}},
		{ID: "p2", Slug: "two"},
	}
	posts := Flatten(records)
	require.Len(t, posts, 2)
	assert.Equal(t, "Engineering", posts[0].CategoryName())
	assert.Equal(t, []string{"Go", "Web"}, posts[0].TagNames())
	assert.NotNil(t, posts[1].Tags)
	assert.Empty(t, posts[1].Tags)
	assert.Equal(t, "", posts[1].CategoryName())

	assert.NotNil(t, Flatten(nil))
}

func TestCreatePostReconcilesTagsCaseInsensitively(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	existing, err := st.InsertTag(ctx, store.NewTag{Name: "react", Slug: "react"})
	require.NoError(t, err)

	pub := &recordingPublisher{}
	svc := NewService(st, testLogger(), WithPublisher(pub))

	post, err := svc.CreatePost(ctx, validInput("Hooks in Depth", "React", "react", "TypeScript"))
	require.NoError(t, err)

	assert.Equal(t, "hooks-in-depth", post.Slug)
	require.Len(t, post.Tags, 2)
	assert.Equal(t, existing.ID, post.Tags[0].ID)
	assert.Equal(t, "TypeScript", post.Tags[1].Name)
	assert.Equal(t, "typescript", post.Tags[1].Slug)

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "hooks-in-depth", pub.events[0].Slug)
	assert.Equal(t, []string{"react", "TypeScript"}, pub.events[0].Tags)
}

func TestCreatePostReusesTagsAcrossPosts(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	svc := NewService(st, testLogger())

	first, err := svc.CreatePost(ctx, validInput("First", "Go"))
	require.NoError(t, err)
	second, err := svc.CreatePost(ctx, validInput("Second", "go", "Databases"))
	require.NoError(t, err)

	require.Len(t, first.Tags, 1)
	require.Len(t, second.Tags, 2)
	assert.Equal(t, first.Tags[0].ID, second.Tags[1].ID)

	posts, err := svc.ListPosts(ctx, Filter{Tag: "go"})
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestCreatePostWithCategory(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	cat, err := st.InsertCategory(ctx, store.NewCategory{Name: "Engineering", Slug: "engineering"})
	require.NoError(t, err)
	svc := NewService(st, testLogger())

	in := validInput("Categorized")
	in.CategoryID = cat.ID
	post, err := svc.CreatePost(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, post.Category)
	assert.Equal(t, "engineering", post.Category.Slug)
	assert.NotNil(t, post.Tags)
	assert.Empty(t, post.Tags)
}

func TestCreatePostValidationFailsBeforeStore(t *testing.T) {
	svc := NewService(brokenStore{err: errors.New("must not be called")}, testLogger())

	_, err := svc.CreatePost(context.Background(), PostInput{Title: "No links"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "article_url")
}

func TestCreatePostDuplicateSlugRollsBack(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	svc := NewService(st, testLogger())

	_, err := svc.CreatePost(ctx, validInput("Same Title"))
	require.NoError(t, err)

	_, err = svc.CreatePost(ctx, validInput("Same Title", "Fresh"))
	assert.ErrorIs(t, err, store.ErrConflict)

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestCreatePostTagSlugCollisionGetsSuffix(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	svc := NewService(st, testLogger())

	first, err := svc.CreatePost(ctx, validInput("Systems", "C#"))
	require.NoError(t, err)
	require.Len(t, first.Tags, 1)
	assert.Equal(t, "c", first.Tags[0].Slug)

	// "C++" and "C" are different names that both slugify to "c".
	second, err := svc.CreatePost(ctx, validInput("Pointers", "Go", "C++"))
	require.NoError(t, err)
	require.Len(t, second.Tags, 2)
	assert.Equal(t, "C++", second.Tags[0].Name)
	assert.Equal(t, "c-2", second.Tags[0].Slug)

	third, err := svc.CreatePost(ctx, validInput("Basics", "C", "c#"))
	require.NoError(t, err)
	require.Len(t, third.Tags, 2)
	assert.Equal(t, "C", third.Tags[0].Name)
	assert.Equal(t, "c-3", third.Tags[0].Slug)
	assert.Equal(t, first.Tags[0].ID, third.Tags[1].ID)

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 4)

	posts, err := svc.ListPosts(ctx, Filter{Tag: "c-2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pointers"}, postSlugs(posts))
}

func TestCreatePostFoldsNonASCIITagNames(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	svc := NewService(st, testLogger())

	first, err := svc.CreatePost(ctx, validInput("Über Café Design", "Ölçek"))
	require.NoError(t, err)
	second, err := svc.CreatePost(ctx, validInput("Scaling Out", "ÖLÇEK"))
	require.NoError(t, err)

	require.Len(t, first.Tags, 1)
	require.Len(t, second.Tags, 1)
	assert.Equal(t, first.Tags[0].ID, second.Tags[0].ID)
	assert.Equal(t, "Ölçek", second.Tags[0].Name)

	for _, term := range []string{"über", "ÜBER", "café", "CAFÉ"} {
		found, err := svc.SearchPosts(ctx, term)
		require.NoError(t, err)
		assert.Equal(t, []string{"ber-caf-design"}, postSlugs(found), "search %q", term)
	}
}

func TestListAndSearch(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	eng, err := st.InsertCategory(ctx, store.NewCategory{Name: "Engineering", Slug: "engineering"})
	require.NoError(t, err)

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, p := range []store.NewPost{
		{Title: "Scaling Postgres", Slug: "scaling-postgres", Excerpt: "Indexes and more", CategoryID: eng.ID},
		{Title: "Hiring well", Slug: "hiring-well", Excerpt: "Interviews at SCALE"},
		{Title: "Rust for Gophers", Slug: "rust-for-gophers", Excerpt: "Ownership", CategoryID: eng.ID},
	} {
		p.ArticleURL = "https://medium.com/" + p.Slug
		p.ImageURL = "https://img.example/" + p.Slug + ".jpg"
		p.PublishedAt = base.Add(time.Duration(i) * 24 * time.Hour)
		_, err := st.InsertPost(ctx, p)
		require.NoError(t, err)
	}
	svc := NewService(st, testLogger())

	all, err := svc.ListPosts(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"rust-for-gophers", "hiring-well", "scaling-postgres"}, postSlugs(all))

	byCat, err := svc.ListPosts(ctx, Filter{Category: "engineering"})
	require.NoError(t, err)
	assert.Equal(t, []string{"rust-for-gophers", "scaling-postgres"}, postSlugs(byCat))

	none, err := svc.ListPosts(ctx, Filter{Category: "nonexistent"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	found, err := svc.SearchPosts(ctx, "scal")
	require.NoError(t, err)
	assert.Equal(t, []string{"hiring-well", "scaling-postgres"}, postSlugs(found))

	blank, err := svc.SearchPosts(ctx, "   ")
	require.NoError(t, err)
	assert.Equal(t, postSlugs(all), postSlugs(blank))

	post, err := svc.GetPost(ctx, "hiring-well")
	require.NoError(t, err)
	assert.Equal(t, "Hiring well", post.Title)

	_, err = svc.GetPost(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
}

func TestFailuresReturnEmptyLists(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewService(brokenStore{err: boom}, testLogger())
	ctx := context.Background()

	posts, err := svc.ListPosts(ctx, Filter{Category: "x"})
	assert.ErrorIs(t, err, boom)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)

	posts, err = svc.SearchPosts(ctx, "x")
	assert.ErrorIs(t, err, boom)
	assert.NotNil(t, posts)

	categories, err := svc.ListCategories(ctx)
	assert.ErrorIs(t, err, boom)
	assert.NotNil(t, categories)

	tags, err := svc.ListTags(ctx)
	assert.ErrorIs(t, err, boom)
	assert.NotNil(t, tags)
}

func postSlugs(posts []Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Slug
	}
	return out
}
