package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lysyi3m/newsdeck/app/feed"
)

const DefaultSQLiteDSN = "file::memory:?_pragma=busy_timeout(5000)"

// publishedAtLayout is fixed width in UTC so text order matches time order.
const publishedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

var _ ArticleStore = (*SQLiteStore)(nil)

// SQLiteStore keeps articles in a SQLite database. With the default in-memory
// DSN the data lives only as long as the process.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the database, limits it to a single connection and applies
// migrations.
func OpenSQLite(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = DefaultSQLiteDSN
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// a single connection keeps an in-memory database alive and serializes writers
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(0)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	version, dirty, err := RunMigrations(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	slog.Debug("Database migrations applied", "version", version, "dirty", dirty)

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const selectArticles = `
	SELECT id, title, summary, category, external_url, image_url, published_at, source
	FROM articles
`

func (s *SQLiteStore) List(ctx context.Context) ([]feed.Article, error) {
	rows, err := s.db.QueryContext(ctx, selectArticles+`ORDER BY published_at DESC, seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	return scanArticles(rows)
}

func (s *SQLiteStore) ListByCategory(ctx context.Context, category feed.Category) ([]feed.Article, error) {
	rows, err := s.db.QueryContext(ctx, selectArticles+`WHERE category = ? ORDER BY published_at DESC, seq ASC`, string(category))
	if err != nil {
		return nil, fmt.Errorf("failed to list articles by category: %w", err)
	}
	return scanArticles(rows)
}

func (s *SQLiteStore) Create(ctx context.Context, articles []feed.NewArticle) ([]feed.Article, error) {
	var created []feed.Article
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		created, err = insertArticles(ctx, tx, articles)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM articles`); err != nil {
		return fmt.Errorf("failed to clear articles: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Replace(ctx context.Context, articles []feed.NewArticle) ([]feed.Article, error) {
	var created []feed.Article
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM articles`); err != nil {
			return fmt.Errorf("failed to clear articles: %w", err)
		}

		var err error
		created, err = insertArticles(ctx, tx, articles)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertArticles(ctx context.Context, tx *sql.Tx, articles []feed.NewArticle) ([]feed.Article, error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO articles (id, title, summary, category, external_url, image_url, published_at, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	created := withIDs(articles)
	for _, a := range created {
		_, err := stmt.ExecContext(ctx,
			a.ID, a.Title, a.Summary, string(a.Category), a.ExternalURL, a.ImageURL,
			a.PublishedAt.UTC().Format(publishedAtLayout), a.Source)
		if err != nil {
			return nil, fmt.Errorf("failed to insert article: %w", err)
		}
	}

	return created, nil
}

func scanArticles(rows *sql.Rows) ([]feed.Article, error) {
	defer rows.Close()

	articles := []feed.Article{}
	for rows.Next() {
		var a feed.Article
		var category string
		var publishedAt string

		err := rows.Scan(&a.ID, &a.Title, &a.Summary, &category, &a.ExternalURL, &a.ImageURL, &publishedAt, &a.Source)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}

		a.Category = feed.Category(category)
		a.PublishedAt, err = time.Parse(publishedAtLayout, publishedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse published_at %q: %w", publishedAt, err)
		}
		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}
