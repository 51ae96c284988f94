package blogkit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a requested post does not exist.
	ErrNotFound = errors.New("blogkit: post not found")
	// ErrDuplicateID is returned when creating or renaming onto an existing id.
	ErrDuplicateID = errors.New("blogkit: post id already exists")
	// ErrInvalidPost wraps validation failures at the store boundary.
	ErrInvalidPost = errors.New("blogkit: invalid post")
)

// ContentStore is the data-access interface for posts.
type ContentStore interface {
	ListPosts(ctx context.Context, opts ListOptions) ([]Post, error)
	GetPost(ctx context.Context, id string) (Post, error)
	CreatePost(ctx context.Context, p Post) error
	UpdatePost(ctx context.Context, id string, patch PostPatch) error
	DeletePost(ctx context.Context, id string) error
	DeletePosts(ctx context.Context, ids []string) (int, error)
	DeleteAllPosts(ctx context.Context) (int, error)
	IncrementViewCount(ctx context.Context, id string) (int, error)
	ListCategories(ctx context.Context) ([]string, error)
}

// dateLayout is fixed width so that text ordering in SQLite matches time ordering.
const dateLayout = "2006-01-02T15:04:05.000000Z"

// Store wraps a SQLite database and implements ContentStore.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ ContentStore = (*Store)(nil)

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers proceed while the admin writes; busy_timeout makes
	// writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db, now: time.Now}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    tag TEXT NOT NULL DEFAULT '',
    summary TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL,
    date TEXT NOT NULL
);
`)
	if err != nil {
		return err
	}
	for _, col := range []string{
		`image TEXT NOT NULL DEFAULT ''`,
		`views INTEGER NOT NULL DEFAULT 0`,
		`series TEXT NOT NULL DEFAULT ''`,
	} {
		if err := s.addColumn("posts", col); err != nil {
			return err
		}
	}
	_, err = s.db.Exec(`
CREATE INDEX IF NOT EXISTS posts_date ON posts(date DESC);
CREATE INDEX IF NOT EXISTS posts_tag ON posts(tag COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS posts_series ON posts(series COLLATE NOCASE) WHERE series != '';
CREATE TABLE IF NOT EXISTS subscribers (
    email TEXT PRIMARY KEY COLLATE NOCASE,
    created TEXT NOT NULL
);
`)
	return err
}

func (s *Store) addColumn(table, def string) error {
	if _, err := s.db.Exec(`ALTER TABLE ` + table + ` ADD COLUMN ` + def); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "duplicate column") {
			return nil
		}
		return err
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner, lean bool) (Post, error) {
	var p Post
	var date string
	dest := []any{&p.ID, &p.Title, &p.Tag, &p.Summary, &p.Image, &date, &p.Views, &p.Series}
	if !lean {
		dest = append(dest, &p.Content)
	}
	if err := row.Scan(dest...); err != nil {
		return Post{}, err
	}
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return Post{}, fmt.Errorf("blogkit: post %q has bad date %q: %w", p.ID, date, err)
	}
	p.Date = t
	return p, nil
}

func postColumns(lean bool) string {
	cols := "id, title, tag, summary, image, date, views, series"
	if !lean {
		cols += ", content"
	}
	return cols
}

// ListPosts returns posts ordered by date descending.
func (s *Store) ListPosts(ctx context.Context, opts ListOptions) ([]Post, error) {
	q := `SELECT ` + postColumns(opts.Lean) + ` FROM posts`
	var args []any
	if c := strings.TrimSpace(opts.Category); c != "" {
		q += ` WHERE tag = ? COLLATE NOCASE`
		args = append(args, c)
	}
	q += ` ORDER BY date DESC, id ASC`
	if opts.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, opts.Limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows, opts.Lean)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetPost returns a single post by id.
func (s *Store) GetPost(ctx context.Context, id string) (Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns(false)+` FROM posts WHERE id = ?`, id)
	p, err := scanPost(row, false)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	return p, err
}

// CreatePost inserts p. A zero Date is set to the current time; Views
// always starts at zero.
func (s *Store) CreatePost(ctx context.Context, p Post) error {
	if p.Date.IsZero() {
		p.Date = s.now()
	}
	p.Views = 0
	if err := ValidatePost(p); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (id, title, tag, summary, content, image, series, date, views) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		p.ID, p.Title, strings.TrimSpace(p.Tag), p.Summary, p.Content, p.Image, strings.TrimSpace(p.Series),
		p.Date.UTC().Format(dateLayout))
	return mapWriteErr(err)
}

// UpdatePost applies patch to the post with the given id. A rename is
// applied in the same statement as the other fields, so either every change
// lands under the new id or the post is left as it was.
func (s *Store) UpdatePost(ctx context.Context, id string, patch PostPatch) error {
	if err := ValidatePatch(patch); err != nil {
		return err
	}
	var sets []string
	var args []any
	add := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, *v)
		}
	}
	if patch.ID != nil && *patch.ID != id {
		add("id", patch.ID)
	}
	add("title", patch.Title)
	if patch.Tag != nil {
		tag := strings.TrimSpace(*patch.Tag)
		add("tag", &tag)
	}
	add("summary", patch.Summary)
	add("content", patch.Content)
	add("image", patch.Image)
	if patch.Series != nil {
		series := strings.TrimSpace(*patch.Series)
		add("series", &series)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if len(sets) == 0 {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE id = ?`, id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	args = append(args, id)
	res, err := tx.ExecContext(ctx, `UPDATE posts SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return mapWriteErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// DeletePost removes a post by id.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePosts removes the posts with the given ids in one transaction and
// returns how many existed.
func (s *Store) DeletePosts(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM posts WHERE id = ?`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	total := 0
	for _, id := range ids {
		res, err := stmt.ExecContext(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("blogkit: delete %q: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		total += int(n)
	}
	return total, tx.Commit()
}

// DeleteAllPosts removes every post and returns how many were deleted.
func (s *Store) DeleteAllPosts(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts`)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// IncrementViewCount adds one view and returns the new total.
func (s *Store) IncrementViewCount(ctx context.Context, id string) (int, error) {
	var views int
	err := s.db.QueryRowContext(ctx, `UPDATE posts SET views = views + 1 WHERE id = ? RETURNING views`, id).Scan(&views)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return views, err
}

// ListCategories returns the distinct non-empty tags in use.
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT tag FROM posts WHERE tag != '' ORDER BY tag COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicateID
	}
	return err
}
