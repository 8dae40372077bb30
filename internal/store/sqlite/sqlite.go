package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/campfire-hq/campfire/internal/model"
	"github.com/campfire-hq/campfire/internal/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// migrations is an ordered list of SQL migrations.
// Each migration runs exactly once, tracked by schema_version table.
var migrations = []string{
	// Migration 1: Initial schema
	`
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL,
	email TEXT,
	password_hash TEXT NOT NULL,
	name TEXT,
	surname TEXT,
	birthdate TEXT,
	gender TEXT,
	avatar_url TEXT,
	created_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(username);

CREATE TABLE IF NOT EXISTS posts (
	id TEXT PRIMARY KEY,
	author_id TEXT NOT NULL,
	title TEXT NOT NULL,
	content TEXT,
	created_at INTEGER NOT NULL,
	FOREIGN KEY(author_id) REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_posts_author_id ON posts(author_id);
CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC);

CREATE TABLE IF NOT EXISTS comments (
	id TEXT PRIMARY KEY,
	post_id TEXT NOT NULL,
	author_id TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	FOREIGN KEY(post_id) REFERENCES posts(id) ON DELETE CASCADE,
	FOREIGN KEY(author_id) REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);

CREATE TABLE IF NOT EXISTS votes (
	id TEXT PRIMARY KEY,
	post_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	FOREIGN KEY(post_id) REFERENCES posts(id) ON DELETE CASCADE,
	FOREIGN KEY(user_id) REFERENCES users(id)
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_votes_unique ON votes(post_id, user_id);
`,
	// Future migrations go here:
	// Migration 2: `ALTER TABLE ...`,
}

func applySchema(db *sql.DB) error {
	// Create schema_version table to track migrations
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return err
	}

	// Get current version
	var currentVersion int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`)
	if err := row.Scan(&currentVersion); err != nil {
		return err
	}

	// Apply pending migrations
	for i := currentVersion; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, i+1); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
	}

	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (id, username, email, password_hash, name, surname, birthdate, gender, avatar_url, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, user.ID, user.Username, nullIfEmpty(user.Email), user.PasswordHash, nullIfEmpty(user.Name), nullIfEmpty(user.Surname),
		nullIfEmpty(user.Birthdate), nullIfEmpty(user.Gender), nullIfEmpty(user.AvatarURL), user.CreatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateUsername
		}
		return err
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, username, email, password_hash, name, surname, birthdate, gender, avatar_url, created_at
FROM users
WHERE id = ?
LIMIT 1
`, id)
	return scanUser(row)
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, username, email, password_hash, name, surname, birthdate, gender, avatar_url, created_at
FROM users
WHERE username = ?
LIMIT 1
`, username)
	return scanUser(row)
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, username, email, password_hash, name, surname, birthdate, gender, avatar_url, created_at
FROM users
ORDER BY created_at ASC, rowid ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) CreatePost(ctx context.Context, post *model.Post) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO posts (id, author_id, title, content, created_at)
VALUES (?, ?, ?, ?, ?)
`, post.ID, post.AuthorID, post.Title, nullIfEmpty(post.Content), post.CreatedAt.Unix())
	return err
}

func (s *Store) GetPost(ctx context.Context, id string) (model.Post, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT p.id, p.author_id, u.username, p.title, p.content, p.created_at
FROM posts p
LEFT JOIN users u ON u.id = p.author_id
WHERE p.id = ?
LIMIT 1
`, id)
	return scanPost(row)
}

func (s *Store) ListPosts(ctx context.Context) ([]model.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT p.id, p.author_id, u.username, p.title, p.content, p.created_at
FROM posts p
LEFT JOIN users u ON u.id = p.author_id
ORDER BY p.created_at DESC, p.rowid DESC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosts(rows)
}

func (s *Store) ListPostsByAuthor(ctx context.Context, authorID string) ([]model.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT p.id, p.author_id, u.username, p.title, p.content, p.created_at
FROM posts p
LEFT JOIN users u ON u.id = p.author_id
WHERE p.author_id = ?
ORDER BY p.created_at DESC, p.rowid DESC
`, authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosts(rows)
}

// DeletePostByAuthor carries the ownership check in the WHERE clause so a
// foreign post and a missing post are indistinguishable to the caller.
// Cascading foreign keys remove the post's comments and votes.
func (s *Store) DeletePostByAuthor(ctx context.Context, postID, authorID string) error {
	res, err := s.db.ExecContext(ctx, `
DELETE FROM posts WHERE id = ? AND author_id = ?
`, postID, authorID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateComment(ctx context.Context, comment *model.Comment) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO comments (id, post_id, author_id, content, created_at)
VALUES (?, ?, ?, ?, ?)
`, comment.ID, comment.PostID, comment.AuthorID, comment.Content, comment.CreatedAt.Unix())
	return err
}

func (s *Store) ListCommentsByPost(ctx context.Context, postID string) ([]model.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT c.id, c.post_id, c.author_id, u.username, c.content, c.created_at
FROM comments c
LEFT JOIN users u ON u.id = c.author_id
WHERE c.post_id = ?
ORDER BY c.created_at ASC, c.rowid ASC
`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		var username sql.NullString
		var createdAt int64
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &username, &c.Content, &createdAt); err != nil {
			return nil, err
		}
		c.AuthorUsername = username.String
		c.CreatedAt = time.Unix(createdAt, 0)
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// UpsertVote is a single statement, so two concurrent casts by the same user
// on the same post can never leave two rows behind.
func (s *Store) UpsertVote(ctx context.Context, vote *model.Vote) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO votes (id, post_id, user_id, kind, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(post_id, user_id) DO UPDATE SET kind = excluded.kind
`, vote.ID, vote.PostID, vote.UserID, string(vote.Kind), vote.CreatedAt.Unix())
	return err
}

func (s *Store) GetVote(ctx context.Context, postID, userID string) (model.Vote, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, post_id, user_id, kind, created_at
FROM votes
WHERE post_id = ? AND user_id = ?
LIMIT 1
`, postID, userID)
	return scanVote(row)
}

func (s *Store) ListVotesByPost(ctx context.Context, postID string) ([]model.Vote, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, post_id, user_id, kind, created_at
FROM votes
WHERE post_id = ?
ORDER BY created_at ASC, rowid ASC
`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	votes := []model.Vote{}
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (model.User, error) {
	var u model.User
	var email, name, surname, birthdate, gender, avatarURL sql.NullString
	var createdAt int64
	err := row.Scan(&u.ID, &u.Username, &email, &u.PasswordHash, &name, &surname, &birthdate, &gender, &avatarURL, &createdAt)
	if err == sql.ErrNoRows {
		return model.User{}, store.ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	u.Email = email.String
	u.Name = name.String
	u.Surname = surname.String
	u.Birthdate = birthdate.String
	u.Gender = gender.String
	u.AvatarURL = avatarURL.String
	u.CreatedAt = time.Unix(createdAt, 0)
	return u, nil
}

func scanPost(row scanner) (model.Post, error) {
	var p model.Post
	var username, content sql.NullString
	var createdAt int64
	err := row.Scan(&p.ID, &p.AuthorID, &username, &p.Title, &content, &createdAt)
	if err == sql.ErrNoRows {
		return model.Post{}, store.ErrNotFound
	}
	if err != nil {
		return model.Post{}, err
	}
	p.AuthorUsername = username.String
	p.Content = content.String
	p.CreatedAt = time.Unix(createdAt, 0)
	return p, nil
}

func scanVote(row scanner) (model.Vote, error) {
	var v model.Vote
	var kind string
	var createdAt int64
	err := row.Scan(&v.ID, &v.PostID, &v.UserID, &kind, &createdAt)
	if err == sql.ErrNoRows {
		return model.Vote{}, store.ErrNotFound
	}
	if err != nil {
		return model.Vote{}, err
	}
	v.Kind = model.VoteKind(kind)
	v.CreatedAt = time.Unix(createdAt, 0)
	return v, nil
}

func collectPosts(rows *sql.Rows) ([]model.Post, error) {
	posts := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
