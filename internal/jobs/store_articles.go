package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CreateArticle persists a fetched article. Duplicate content hashes are a
// no-op: the second insert reports created=false and returns the existing
// record instead of bubbling up a constraint violation. The hash is unique
// across all jobs, so the same wire story fetched for two topics is stored
// once.
func (s *Store) CreateArticle(ctx context.Context, article Article) (*Article, bool, error) {
	if strings.TrimSpace(article.JobID) == "" {
		return nil, false, errors.New("article job id is required")
	}
	if strings.TrimSpace(article.ContentHash) == "" {
		return nil, false, errors.New("article content hash is required")
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO articles (
            job_id, title, description, content, url, source_name,
            published_at, content_hash, language, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(content_hash) DO NOTHING`,
		article.JobID,
		article.Title,
		nullableString(article.Description),
		nullableString(article.Content),
		nullableString(article.URL),
		nullableString(article.SourceName),
		nullableTimePtr(article.PublishedAt),
		article.ContentHash,
		nullableString(article.Language),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert article: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}

	existing, err := s.articleByHash(ctx, article.ContentHash)
	if err != nil {
		return nil, false, err
	}
	return existing, affected > 0, nil
}

func (s *Store) articleByHash(ctx context.Context, hash string) (*Article, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+articleColumns+` FROM articles WHERE content_hash = ?`,
		hash,
	)
	article, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("article by hash: %w", err)
	}
	return article, nil
}

// ListArticlesByJob returns a job's articles in insertion order.
func (s *Store) ListArticlesByJob(ctx context.Context, jobID string) ([]Article, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+articleColumns+` FROM articles WHERE job_id = ? ORDER BY id`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var result []Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *article)
	}
	return result, rows.Err()
}

// CountArticlesByJob reports how many articles back a job's summary.
func (s *Store) CountArticlesByJob(ctx context.Context, jobID string) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM articles WHERE job_id = ?`, jobID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return count, nil
}

const articleColumns = "id, job_id, title, description, content, url, source_name, published_at, content_hash, language, created_at"

func scanArticle(scanner interface{ Scan(dest ...any) error }) (*Article, error) {
	var (
		id           int64
		jobID        string
		title        string
		description  sql.NullString
		content      sql.NullString
		url          sql.NullString
		sourceName   sql.NullString
		publishedRaw sql.NullString
		contentHash  string
		language     sql.NullString
		createdRaw   sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&jobID,
		&title,
		&description,
		&content,
		&url,
		&sourceName,
		&publishedRaw,
		&contentHash,
		&language,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	article := &Article{
		ID:          id,
		JobID:       jobID,
		Title:       title,
		Description: description.String,
		Content:     content.String,
		URL:         url.String,
		SourceName:  sourceName.String,
		ContentHash: contentHash,
		Language:    language.String,
	}
	article.PublishedAt = parseNullableTime(publishedRaw)
	if created, err := parseTimeString(createdRaw.String); err == nil {
		article.CreatedAt = created
	}
	return article, nil
}

func nullableTimePtr(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}
