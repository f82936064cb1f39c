package viewstate

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/eringen/linkpress/blog"
	"github.com/eringen/linkpress/store"
)

// ErrSuperseded is returned by a transition whose result was discarded
// because a later transition replaced the same part of the state.
var ErrSuperseded = errors.New("viewstate: superseded by a newer request")

// Source is where the controller loads posts and categories from.
type Source interface {
	ListPosts(ctx context.Context, f blog.Filter) ([]blog.Post, error)
	SearchPosts(ctx context.Context, term string) ([]blog.Post, error)
	ListCategories(ctx context.Context) ([]store.Category, error)
}

// task tracks the latest fetch for one slice of the state.
type task struct {
	seq    uint64
	cancel context.CancelFunc
}

// start cancels the previous fetch and returns the sequence number and
// context of the new one. Callers hold the controller lock.
func (t *task) start(parent context.Context) (uint64, context.Context) {
	if t.cancel != nil {
		t.cancel()
	}
	t.seq++
	ctx, cancel := context.WithCancel(parent)
	t.cancel = cancel
	return t.seq, ctx
}

// finish releases the context of fetch seq if it is still the latest.
// Callers hold the controller lock.
func (t *task) finish(seq uint64) bool {
	if seq != t.seq {
		return false
	}
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	return true
}

// Controller holds the page state and runs the transitions that change it.
// Transitions may be called from multiple goroutines. Each one that fetches
// cancels the fetch it replaces, and a response that arrives after a newer
// request for the same slice is dropped, so results apply in request order.
type Controller struct {
	src Source

	mu         sync.Mutex
	state      State
	posts      task
	categories task
}

// New returns a controller with an empty, loaded state.
func New(src Source) *Controller {
	return &Controller{src: src, state: State{Posts: []blog.Post{}, Categories: []store.Category{}}}
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Mount loads the unfiltered post list and the categories in parallel.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	c.state.SelectedCategory = ""
	c.state.SelectedTag = ""
	c.state.SearchTerm = ""
	postSeq, postCtx := c.beginPosts(ctx)
	catSeq, catCtx := c.categories.start(ctx)
	c.mu.Unlock()

	var (
		posts      []blog.Post
		categories []store.Category
	)
	g := new(errgroup.Group)
	g.Go(func() error {
		var err error
		posts, err = c.src.ListPosts(postCtx, blog.Filter{})
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = c.src.ListCategories(catCtx)
		return err
	})
	err := g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	catCurrent := c.categories.finish(catSeq)
	if catCurrent {
		c.state.Categories = nonNilCategories(categories)
	}
	if !c.applyPosts(postSeq, posts, err, MsgLoadFailed) || !catCurrent {
		return ErrSuperseded
	}
	return err
}

// Reload refreshes the post list and categories without any filter, as
// after a post was created.
func (c *Controller) Reload(ctx context.Context) error {
	return c.Mount(ctx)
}

// SelectCategory filters posts by category slug; "" shows all posts. It
// clears the search term and any tag filter.
func (c *Controller) SelectCategory(ctx context.Context, slug string) error {
	c.mu.Lock()
	c.state.SelectedCategory = slug
	c.state.SelectedTag = ""
	c.state.SearchTerm = ""
	seq, fctx := c.beginPosts(ctx)
	c.mu.Unlock()

	posts, err := c.src.ListPosts(fctx, blog.Filter{Category: slug})
	return c.endPosts(seq, posts, err, MsgFilterFailed)
}

// SetCategory records the selected category without loading posts, so a
// following SelectTag narrows within it.
func (c *Controller) SetCategory(slug string) {
	c.mu.Lock()
	c.state.SelectedCategory = slug
	c.mu.Unlock()
}

// SelectTag filters posts by tag slug within the selected category; ""
// removes the tag filter. It clears the search term.
func (c *Controller) SelectTag(ctx context.Context, slug string) error {
	c.mu.Lock()
	c.state.SelectedTag = slug
	c.state.SearchTerm = ""
	category := c.state.SelectedCategory
	seq, fctx := c.beginPosts(ctx)
	c.mu.Unlock()

	posts, err := c.src.ListPosts(fctx, blog.Filter{Category: category, Tag: slug})
	return c.endPosts(seq, posts, err, MsgFilterFailed)
}

// EditSearch records what the user typed without searching. Clearing the
// field reloads the unfiltered list right away.
func (c *Controller) EditSearch(ctx context.Context, value string) error {
	c.mu.Lock()
	c.state.SearchTerm = value
	if value != "" {
		c.mu.Unlock()
		return nil
	}
	c.state.SelectedCategory = ""
	c.state.SelectedTag = ""
	seq, fctx := c.beginPosts(ctx)
	c.mu.Unlock()

	posts, err := c.src.ListPosts(fctx, blog.Filter{})
	return c.endPosts(seq, posts, err, MsgLoadFailed)
}

// SubmitSearch searches for the current term and clears the category and
// tag filters. A blank term shows all posts instead.
func (c *Controller) SubmitSearch(ctx context.Context) error {
	c.mu.Lock()
	term := c.state.SearchTerm
	if blog.IsBlank(term) {
		c.mu.Unlock()
		return c.SelectCategory(ctx, "")
	}
	c.state.SelectedCategory = ""
	c.state.SelectedTag = ""
	seq, fctx := c.beginPosts(ctx)
	c.mu.Unlock()

	posts, err := c.src.SearchPosts(fctx, term)
	return c.endPosts(seq, posts, err, MsgSearchFailed)
}

// Search is EditSearch followed by SubmitSearch.
func (c *Controller) Search(ctx context.Context, term string) error {
	c.mu.Lock()
	c.state.SearchTerm = term
	c.mu.Unlock()
	return c.SubmitSearch(ctx)
}

// LoadCategories refreshes only the category list.
func (c *Controller) LoadCategories(ctx context.Context) error {
	c.mu.Lock()
	seq, fctx := c.categories.start(ctx)
	c.mu.Unlock()

	categories, err := c.src.ListCategories(fctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.categories.finish(seq) {
		return ErrSuperseded
	}
	c.state.Categories = nonNilCategories(categories)
	return err
}

// beginPosts marks the list as loading and starts a posts task. Callers hold
// the lock.
func (c *Controller) beginPosts(ctx context.Context) (uint64, context.Context) {
	c.state.Status = StatusLoading
	c.state.Err = ""
	return c.posts.start(ctx)
}

func (c *Controller) endPosts(seq uint64, posts []blog.Post, err error, msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.applyPosts(seq, posts, err, msg) {
		return ErrSuperseded
	}
	return err
}

// applyPosts stores the result of posts task seq unless a newer task has
// started. Callers hold the lock.
func (c *Controller) applyPosts(seq uint64, posts []blog.Post, err error, msg string) bool {
	if !c.posts.finish(seq) {
		return false
	}
	if err != nil {
		c.state.Posts = []blog.Post{}
		c.state.Status = StatusError
		c.state.Err = msg
		return true
	}
	if posts == nil {
		posts = []blog.Post{}
	}
	c.state.Posts = posts
	c.state.Status = StatusLoaded
	c.state.Err = ""
	return true
}

func nonNilCategories(cs []store.Category) []store.Category {
	if cs == nil {
		return []store.Category{}
	}
	return cs
}
