package marquee

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// RecordStore is the collection contract the admin workflow and public pages
// consume. The backing service owns every record; the application only holds
// a transient cached view that is invalidated on mutation.
type RecordStore interface {
	ListBlogs(ctx context.Context) ([]BlogPost, error)
	GetBlog(ctx context.Context, id string) (BlogPost, error)
	InsertBlog(ctx context.Context, b BlogPost) (string, error)
	UpdateBlog(ctx context.Context, b BlogPost) error
	DeleteBlog(ctx context.Context, id string) error

	ListLinkPosts(ctx context.Context) ([]LinkPost, error)
	GetLinkPost(ctx context.Context, id string) (LinkPost, error)
	InsertLinkPost(ctx context.Context, p LinkPost) (string, error)
	UpdateLinkPost(ctx context.Context, p LinkPost) error
	DeleteLinkPost(ctx context.Context, id string) error

	ListMetadata(ctx context.Context) ([]MetadataEntry, error)
	GetMetadataByKey(ctx context.Context, key string) (MetadataEntry, error)
	InsertMetadata(ctx context.Context, m MetadataEntry) (string, error)
	UpdateMetadata(ctx context.Context, m MetadataEntry) error
	DeleteMetadata(ctx context.Context, id string) error
}

// AdminStore is the credential contract consumed by the auth layer.
type AdminStore interface {
	GetAdmin(ctx context.Context, email string) (Admin, error)
	UpsertAdmin(ctx context.Context, a Admin) error
	SaveResetToken(ctx context.Context, email, token string, expires time.Time) error
}

// ContentStore is the full remote-content-store surface.
type ContentStore interface {
	RecordStore
	AdminStore

	FindSubscriber(ctx context.Context, email string) (bool, error)
	InsertSubscriber(ctx context.Context, email string) error

	Close() error
}

// Store implements ContentStore on SQLite.
type Store struct {
	db *sql.DB
}

var _ ContentStore = (*Store)(nil)

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL for concurrent read/write, busy timeout so writers wait instead of
	// failing with SQLITE_BUSY, synchronous=NORMAL is safe under WAL.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
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
CREATE TABLE IF NOT EXISTS blogs (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    subtitle TEXT NOT NULL,
    image_url TEXT NOT NULL DEFAULT '',
    author TEXT NOT NULL,
    date TEXT NOT NULL,
    read_time INTEGER NOT NULL DEFAULT 0,
    full_description TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    url TEXT NOT NULL,
    image_url TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS website_metadata (
    id TEXT PRIMARY KEY,
    key TEXT NOT NULL UNIQUE,
    value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS newsletter (
    email TEXT PRIMARY KEY,
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS admins (
    email TEXT PRIMARY KEY,
    password_hash TEXT NOT NULL,
    reset_token TEXT NOT NULL DEFAULT '',
    reset_expires TEXT NOT NULL DEFAULT ''
);
`)
	return err
}

const timeLayout = time.RFC3339Nano

// --- blogs ---

func validateBlog(b BlogPost) error {
	v := ValidationError{}
	if strings.TrimSpace(b.Title) == "" {
		v["title"] = "Title is required"
	}
	if strings.TrimSpace(b.Subtitle) == "" {
		v["subtitle"] = "Subtitle is required"
	}
	if strings.TrimSpace(b.Author) == "" {
		v["author"] = "Author is required"
	}
	if _, err := time.Parse("2006-01-02", b.Date); err != nil {
		v["date"] = "Date must be YYYY-MM-DD"
	}
	if b.ReadTime < 0 {
		v["read_time"] = "Read time must be zero or more"
	}
	if strings.TrimSpace(b.FullDescription) == "" {
		v["full_description"] = "Full Description is required"
	}
	if len(v) > 0 {
		return v
	}
	return nil
}

// ListBlogs returns every blog post ordered by creation time descending.
func (s *Store) ListBlogs(ctx context.Context) ([]BlogPost, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, subtitle, image_url, author, date, read_time, full_description, created_at FROM blogs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blogs []BlogPost
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, b)
	}
	return blogs, rows.Err()
}

func scanBlog(row interface{ Scan(...any) error }) (BlogPost, error) {
	var b BlogPost
	var created string
	if err := row.Scan(&b.ID, &b.Title, &b.Subtitle, &b.ImageURL, &b.Author, &b.Date, &b.ReadTime, &b.FullDescription, &created); err != nil {
		return BlogPost{}, err
	}
	b.CreatedAt, _ = time.Parse(timeLayout, created)
	return b, nil
}

// GetBlog returns a single blog post by id.
func (s *Store) GetBlog(ctx context.Context, id string) (BlogPost, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, title, subtitle, image_url, author, date, read_time, full_description, created_at FROM blogs WHERE id = ?`, id)
	return scanBlog(row)
}

// InsertBlog validates and stores a new blog post, assigning its id.
func (s *Store) InsertBlog(ctx context.Context, b BlogPost) (string, error) {
	if err := validateBlog(b); err != nil {
		return "", err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blogs (id, title, subtitle, image_url, author, date, read_time, full_description, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Title, b.Subtitle, b.ImageURL, b.Author, b.Date, b.ReadTime, b.FullDescription, b.CreatedAt.Format(timeLayout))
	if err != nil {
		return "", err
	}
	return b.ID, nil
}

// UpdateBlog validates and rewrites the row matching b.ID.
func (s *Store) UpdateBlog(ctx context.Context, b BlogPost) error {
	if err := validateBlog(b); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE blogs SET title = ?, subtitle = ?, image_url = ?, author = ?, date = ?, read_time = ?, full_description = ? WHERE id = ?`,
		b.Title, b.Subtitle, b.ImageURL, b.Author, b.Date, b.ReadTime, b.FullDescription, b.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteBlog removes a blog post by id.
func (s *Store) DeleteBlog(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = ?`, id)
	return err
}

// --- link posts ---

func validateLinkPost(p LinkPost) error {
	v := ValidationError{}
	if strings.TrimSpace(p.Title) == "" {
		v["title"] = "Title is required"
	}
	if strings.TrimSpace(p.URL) == "" {
		v["url"] = "URL is required"
	}
	if len(v) > 0 {
		return v
	}
	return nil
}

// ListLinkPosts returns every link post ordered by creation time descending.
func (s *Store) ListLinkPosts(ctx context.Context) ([]LinkPost, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, url, image_url, created_at FROM posts ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []LinkPost
	for rows.Next() {
		var p LinkPost
		var created string
		if err := rows.Scan(&p.ID, &p.Title, &p.URL, &p.ImageURL, &created); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(timeLayout, created)
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetLinkPost returns a single link post by id.
func (s *Store) GetLinkPost(ctx context.Context, id string) (LinkPost, error) {
	var p LinkPost
	var created string
	err := s.db.QueryRowContext(ctx, `SELECT id, title, url, image_url, created_at FROM posts WHERE id = ?`, id).
		Scan(&p.ID, &p.Title, &p.URL, &p.ImageURL, &created)
	if err != nil {
		return LinkPost{}, err
	}
	p.CreatedAt, _ = time.Parse(timeLayout, created)
	return p, nil
}

// InsertLinkPost validates and stores a new link post, assigning its id.
func (s *Store) InsertLinkPost(ctx context.Context, p LinkPost) (string, error) {
	if err := validateLinkPost(p); err != nil {
		return "", err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (id, title, url, image_url, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.URL, p.ImageURL, p.CreatedAt.Format(timeLayout))
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// UpdateLinkPost validates and rewrites the row matching p.ID.
func (s *Store) UpdateLinkPost(ctx context.Context, p LinkPost) error {
	if err := validateLinkPost(p); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE posts SET title = ?, url = ?, image_url = ? WHERE id = ?`,
		p.Title, p.URL, p.ImageURL, p.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteLinkPost removes a link post by id.
func (s *Store) DeleteLinkPost(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	return err
}

// --- metadata ---

func validateMetadata(m MetadataEntry) error {
	v := ValidationError{}
	if strings.TrimSpace(m.Key) == "" {
		v["key"] = "Key is required"
	}
	if !json.Valid(m.Value) {
		v["value"] = "Value must be valid JSON"
	}
	if len(v) > 0 {
		return v
	}
	return nil
}

// ListMetadata returns all metadata entries, unordered.
func (s *Store) ListMetadata(ctx context.Context) ([]MetadataEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, key, value FROM website_metadata`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []MetadataEntry
	for rows.Next() {
		var m MetadataEntry
		var value string
		if err := rows.Scan(&m.ID, &m.Key, &value); err != nil {
			return nil, err
		}
		m.Value = json.RawMessage(value)
		entries = append(entries, m)
	}
	return entries, rows.Err()
}

// GetMetadataByKey resolves a metadata row from its key. Listings only carry
// key and value, so this lookup precedes every update and delete.
func (s *Store) GetMetadataByKey(ctx context.Context, key string) (MetadataEntry, error) {
	var m MetadataEntry
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT id, key, value FROM website_metadata WHERE key = ?`, key).
		Scan(&m.ID, &m.Key, &value)
	if err != nil {
		return MetadataEntry{}, err
	}
	m.Value = json.RawMessage(value)
	return m, nil
}

// InsertMetadata validates and stores a new entry, assigning its id.
func (s *Store) InsertMetadata(ctx context.Context, m MetadataEntry) (string, error) {
	if err := validateMetadata(m); err != nil {
		return "", err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO website_metadata (id, key, value) VALUES (?, ?, ?)`,
		m.ID, m.Key, string(m.Value))
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

// UpdateMetadata rewrites the row matching m.ID. The key itself may change.
func (s *Store) UpdateMetadata(ctx context.Context, m MetadataEntry) error {
	if err := validateMetadata(m); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE website_metadata SET key = ?, value = ? WHERE id = ?`,
		m.Key, string(m.Value), m.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteMetadata removes a metadata entry by row id.
func (s *Store) DeleteMetadata(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM website_metadata WHERE id = ?`, id)
	return err
}

// --- newsletter ---

// FindSubscriber reports whether email already has a subscription row.
func (s *Store) FindSubscriber(ctx context.Context, email string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM newsletter WHERE email = ?`, email).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertSubscriber adds one newsletter row. The primary key enforces the
// one-row-per-email invariant even under concurrent submits.
func (s *Store) InsertSubscriber(ctx context.Context, email string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO newsletter (email, created_at) VALUES (?, ?)`,
		email, time.Now().UTC().Format(timeLayout))
	return err
}

// --- admins ---

// GetAdmin returns the stored credential for email.
func (s *Store) GetAdmin(ctx context.Context, email string) (Admin, error) {
	var a Admin
	var expires string
	err := s.db.QueryRowContext(ctx, `SELECT email, password_hash, reset_token, reset_expires FROM admins WHERE email = ?`, email).
		Scan(&a.Email, &a.PasswordHash, &a.ResetToken, &expires)
	if err != nil {
		return Admin{}, err
	}
	if expires != "" {
		a.ResetExpires, _ = time.Parse(timeLayout, expires)
	}
	return a, nil
}

// UpsertAdmin creates or replaces the credential row for a.Email.
func (s *Store) UpsertAdmin(ctx context.Context, a Admin) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admins (email, password_hash) VALUES (?, ?)
		 ON CONFLICT(email) DO UPDATE SET password_hash = excluded.password_hash`,
		a.Email, a.PasswordHash)
	return err
}

// SaveResetToken stores a password-reset token with its expiry.
func (s *Store) SaveResetToken(ctx context.Context, email, token string, expires time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE admins SET reset_token = ?, reset_expires = ? WHERE email = ?`,
		token, expires.UTC().Format(timeLayout), email)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// MetadataValues reduces entries into the key→value mapping the views use.
func MetadataValues(entries []MetadataEntry) map[string]json.RawMessage {
	values := make(map[string]json.RawMessage, len(entries))
	for _, m := range entries {
		values[m.Key] = m.Value
	}
	return values
}

// StringMetadata unpacks a metadata value that holds a bare JSON string.
func StringMetadata(values map[string]json.RawMessage, key string) string {
	raw, ok := values[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
