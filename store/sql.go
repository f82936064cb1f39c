package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// timeLayout is fixed-width so that text order equals time order.
const timeLayout = "2006-01-02T15:04:05.000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("store: parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Config selects and configures the SQL backend.
type Config struct {
	Driver string // "sqlite" (default) or "postgres"
	DSN    string // SQLite file path or PostgreSQL connection string
}

// PostgresDSN builds a lib/pq keyword/value connection string.
func PostgresDSN(host string, port int, user, password, database string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, database)
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQL is a Store over database/sql.
type SQL struct {
	db *sql.DB
	q  querier
	tx *sql.Tx
	d  dialect
}

// Open connects to the configured database, ensures the data directory
// exists for SQLite, and migrates the schema.
func Open(ctx context.Context, cfg Config) (*SQL, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	dsn := cfg.DSN
	if d.name == DriverSQLite {
		if dsn == "" {
			dsn = "data/linkpress.db"
		}
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, err
		}
		dsn = sqliteDSN(dsn)
	}
	if err := migrateUp(d.name, dsn); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	db, err := sql.Open(d.name, dsn)
	if err != nil {
		return nil, err
	}
	if d.name == DriverSQLite {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &SQL{db: db, q: db, d: d}, nil
}

// sqliteDSN appends per-connection pragmas. WAL lets readers proceed while a
// writer commits, busy_timeout makes writers wait instead of failing with
// SQLITE_BUSY, and foreign keys are off by default in SQLite.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)"
}

// Close closes the underlying database. Closing a transactional view is a no-op.
func (s *SQL) Close() error {
	if s.tx != nil {
		return nil
	}
	return s.db.Close()
}

// Atomic implements Store. Nested calls join the enclosing transaction.
func (s *SQL) Atomic(ctx context.Context, fn func(tx Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	if err := fn(&SQL{db: s.db, q: tx, tx: tx, d: s.d}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// collection maps query field names onto SQL for one table.
type collection struct {
	table  string
	fields map[string]string
	// tagExists, when set, lets "tags.<field>" predicates filter through
	// post_tags. The compiled condition is appended before the closing paren.
	tagExists string
}

var tagColumns = map[string]string{
	"id":   "t.id",
	"name": "t.name",
	"slug": "t.slug",
}

var postsCollection = collection{
	table: "posts",
	fields: map[string]string{
		"id":            "p.id",
		"title":         "p.title",
		"slug":          "p.slug",
		"excerpt":       "p.excerpt",
		"article_url":   "p.article_url",
		"image_url":     "p.image_url",
		"category_id":   "p.category_id",
		"published_at":  "p.published_at",
		"created_at":    "p.created_at",
		"updated_at":    "p.updated_at",
		"category.id":   "c.id",
		"category.name": "c.name",
		"category.slug": "c.slug",
	},
	tagExists: "EXISTS (SELECT 1 FROM post_tags pt JOIN tags t ON t.id = pt.tag_id WHERE pt.post_id = p.id AND ",
}

var categoriesCollection = collection{
	table: "categories",
	fields: map[string]string{
		"id":          "id",
		"name":        "name",
		"slug":        "slug",
		"description": "description",
		"created_at":  "created_at",
	},
}

var tagsCollection = collection{
	table: "tags",
	fields: map[string]string{
		"id":         "id",
		"name":       "name",
		"slug":       "slug",
		"created_at": "created_at",
	},
}

func (c collection) predicate(b *builder, p Predicate) (string, error) {
	if col, ok := c.fields[p.Field]; ok {
		return b.condition(col, p)
	}
	if c.tagExists != "" && strings.HasPrefix(p.Field, "tags.") {
		if col, ok := tagColumns[strings.TrimPrefix(p.Field, "tags.")]; ok {
			cond, err := b.condition(col, p)
			if err != nil {
				return "", err
			}
			return c.tagExists + cond + ")", nil
		}
	}
	return "", fmt.Errorf("%w: %s.%s", ErrUnknownField, c.table, p.Field)
}

// clauses renders the WHERE, ORDER BY and LIMIT tail of a select.
func (c collection) clauses(b *builder, q Query) (string, error) {
	var sb strings.Builder
	var conds []string
	for _, p := range q.Where {
		cond, err := c.predicate(b, p)
		if err != nil {
			return "", err
		}
		conds = append(conds, cond)
	}
	if len(q.AnyOf) > 0 {
		alts := make([]string, 0, len(q.AnyOf))
		for _, p := range q.AnyOf {
			cond, err := c.predicate(b, p)
			if err != nil {
				return "", err
			}
			alts = append(alts, cond)
		}
		conds = append(conds, "("+strings.Join(alts, " OR ")+")")
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	if len(q.Order) > 0 {
		parts := make([]string, 0, len(q.Order))
		for _, o := range q.Order {
			col, ok := c.fields[o.Field]
			if !ok {
				return "", fmt.Errorf("%w: order by %s.%s", ErrUnknownField, c.table, o.Field)
			}
			if o.Desc {
				col += " DESC"
			}
			parts = append(parts, col)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}
	if q.Limit > 0 {
		sb.WriteString(" LIMIT " + strconv.Itoa(q.Limit))
	}
	return sb.String(), nil
}

// SelectPosts implements Store.
func (s *SQL) SelectPosts(ctx context.Context, q Query) ([]PostRecord, error) {
	for _, e := range q.Expand {
		if e != ExpandCategory && e != ExpandTags {
			return nil, fmt.Errorf("%w: expand %q", ErrUnknownField, e)
		}
	}
	withCategory := q.Expands(ExpandCategory)
	cols := "p.id, p.title, p.slug, p.excerpt, p.article_url, p.image_url, COALESCE(p.category_id, ''), p.published_at, p.created_at, p.updated_at"
	from := " FROM posts p"
	if withCategory {
		cols += ", c.id, c.name, c.slug, c.description, c.created_at"
	}
	if withCategory || q.references(ExpandCategory) {
		// A predicate on c.* drops rows whose join is NULL, which gives
		// inner-join semantics to category filters.
		from += " LEFT JOIN categories c ON c.id = p.category_id"
	}
	b := &builder{d: s.d}
	tail, err := postsCollection.clauses(b, q)
	if err != nil {
		return nil, err
	}
	rows, err := s.q.QueryContext(ctx, "SELECT "+cols+from+tail, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []PostRecord{}
	for rows.Next() {
		var p PostRecord
		var published, created, updated string
		dest := []any{&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.ArticleURL, &p.ImageURL, &p.CategoryID, &published, &created, &updated}
		var cID, cName, cSlug, cDesc, cCreated sql.NullString
		if withCategory {
			dest = append(dest, &cID, &cName, &cSlug, &cDesc, &cCreated)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if p.PublishedAt, err = parseTime(published); err != nil {
			return nil, err
		}
		if p.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if p.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		if cID.Valid {
			cat := &Category{ID: cID.String, Name: cName.String, Slug: cSlug.String, Description: cDesc.String}
			if cat.CreatedAt, err = parseTime(cCreated.String); err != nil {
				return nil, err
			}
			p.Category = cat
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if q.Expands(ExpandTags) && len(posts) > 0 {
		if err := s.expandTags(ctx, posts); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

// expandTags loads the tag links of posts in one query.
func (s *SQL) expandTags(ctx context.Context, posts []PostRecord) error {
	b := &builder{d: s.d}
	index := make(map[string]int, len(posts))
	phs := make([]string, len(posts))
	for i := range posts {
		posts[i].TagLinks = []TagLink{}
		index[posts[i].ID] = i
		phs[i] = b.arg(posts[i].ID)
	}
	query := "SELECT pt.post_id, t.id, t.name, t.slug, t.created_at FROM post_tags pt JOIN tags t ON t.id = pt.tag_id WHERE pt.post_id IN (" +
		strings.Join(phs, ", ") + ") ORDER BY " + s.d.fold("t.name") + ", t.name"
	rows, err := s.q.QueryContext(ctx, query, b.args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var postID, created string
		t := &Tag{}
		if err := rows.Scan(&postID, &t.ID, &t.Name, &t.Slug, &created); err != nil {
			return err
		}
		if t.CreatedAt, err = parseTime(created); err != nil {
			return err
		}
		i := index[postID]
		posts[i].TagLinks = append(posts[i].TagLinks, TagLink{Tag: t})
	}
	return rows.Err()
}

// SelectCategories implements Store.
func (s *SQL) SelectCategories(ctx context.Context, q Query) ([]Category, error) {
	if len(q.Expand) > 0 {
		return nil, fmt.Errorf("%w: categories have no relations", ErrUnknownField)
	}
	b := &builder{d: s.d}
	tail, err := categoriesCollection.clauses(b, q)
	if err != nil {
		return nil, err
	}
	rows, err := s.q.QueryContext(ctx, "SELECT id, name, slug, description, created_at FROM categories"+tail, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		var c Category
		var created string
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &created); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// SelectTags implements Store.
func (s *SQL) SelectTags(ctx context.Context, q Query) ([]Tag, error) {
	if len(q.Expand) > 0 {
		return nil, fmt.Errorf("%w: tags have no relations", ErrUnknownField)
	}
	b := &builder{d: s.d}
	tail, err := tagsCollection.clauses(b, q)
	if err != nil {
		return nil, err
	}
	rows, err := s.q.QueryContext(ctx, "SELECT id, name, slug, created_at FROM tags"+tail, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []Tag{}
	for rows.Next() {
		var t Tag
		var created string
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &created); err != nil {
			return nil, err
		}
		if t.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// InsertPost implements Store and returns the inserted row without relations.
func (s *SQL) InsertPost(ctx context.Context, np NewPost) (PostRecord, error) {
	ts := now()
	published := np.PublishedAt
	if published.IsZero() {
		published = ts
	}
	p := PostRecord{
		ID:          uuid.NewString(),
		Title:       np.Title,
		Slug:        np.Slug,
		Excerpt:     np.Excerpt,
		ArticleURL:  np.ArticleURL,
		ImageURL:    np.ImageURL,
		CategoryID:  np.CategoryID,
		PublishedAt: published.UTC().Truncate(time.Microsecond),
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	var categoryID any
	if p.CategoryID != "" {
		categoryID = p.CategoryID
	}
	b := &builder{d: s.d}
	query := "INSERT INTO posts (id, title, slug, excerpt, article_url, image_url, category_id, published_at, created_at, updated_at) VALUES (" +
		strings.Join([]string{
			b.arg(p.ID), b.arg(p.Title), b.arg(p.Slug), b.arg(p.Excerpt), b.arg(p.ArticleURL), b.arg(p.ImageURL),
			b.arg(categoryID), b.arg(formatTime(p.PublishedAt)), b.arg(formatTime(p.CreatedAt)), b.arg(formatTime(p.UpdatedAt)),
		}, ", ") + ")"
	if _, err := s.q.ExecContext(ctx, query, b.args...); err != nil {
		if isUniqueViolation(err) {
			return PostRecord{}, fmt.Errorf("%w: post slug %q already exists", ErrConflict, p.Slug)
		}
		return PostRecord{}, err
	}
	return p, nil
}

// InsertTag implements Store.
func (s *SQL) InsertTag(ctx context.Context, nt NewTag) (Tag, error) {
	t := Tag{ID: uuid.NewString(), Name: nt.Name, Slug: nt.Slug, CreatedAt: now()}
	b := &builder{d: s.d}
	query := "INSERT INTO tags (id, name, name_fold, slug, created_at) VALUES (" +
		strings.Join([]string{b.arg(t.ID), b.arg(t.Name), b.arg(Fold(t.Name)), b.arg(t.Slug), b.arg(formatTime(t.CreatedAt))}, ", ") + ")"
	if _, err := s.q.ExecContext(ctx, query, b.args...); err != nil {
		if isUniqueViolation(err) {
			return Tag{}, fmt.Errorf("%w: tag %q (slug %q) already exists", ErrConflict, t.Name, t.Slug)
		}
		return Tag{}, err
	}
	return t, nil
}

// InsertPostTags implements Store with a single multi-row insert.
func (s *SQL) InsertPostTags(ctx context.Context, links []PostTag) error {
	if len(links) == 0 {
		return nil
	}
	b := &builder{d: s.d}
	tuples := make([]string, len(links))
	for i, l := range links {
		tuples[i] = "(" + b.arg(l.PostID) + ", " + b.arg(l.TagID) + ")"
	}
	query := "INSERT INTO post_tags (post_id, tag_id) VALUES " + strings.Join(tuples, ", ")
	if _, err := s.q.ExecContext(ctx, query, b.args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: post tag link already exists", ErrConflict)
		}
		return err
	}
	return nil
}

// InsertCategory implements Store.
func (s *SQL) InsertCategory(ctx context.Context, nc NewCategory) (Category, error) {
	c := Category{ID: uuid.NewString(), Name: nc.Name, Slug: nc.Slug, Description: nc.Description, CreatedAt: now()}
	b := &builder{d: s.d}
	query := "INSERT INTO categories (id, name, slug, description, created_at) VALUES (" +
		strings.Join([]string{b.arg(c.ID), b.arg(c.Name), b.arg(c.Slug), b.arg(c.Description), b.arg(formatTime(c.CreatedAt))}, ", ") + ")"
	if _, err := s.q.ExecContext(ctx, query, b.args...); err != nil {
		if isUniqueViolation(err) {
			return Category{}, fmt.Errorf("%w: category slug %q already exists", ErrConflict, c.Slug)
		}
		return Category{}, err
	}
	return c, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
