package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"newsforge/internal/config"
)

// Store manages job persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the job database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.DataDir, "jobs.db"))
}

// OpenPath opens the job database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Ping verifies the database connection is usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateJob inserts a new job with its five pending steps in fixed order.
func (s *Store) CreateJob(ctx context.Context, params CreateParams) (*Job, error) {
	if strings.TrimSpace(params.Topic) == "" {
		return nil, errors.New("topic is required")
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO jobs (
            id, topic, language, requested_length_seconds, category, country,
            voice_id, video_theme, publish_requested, status, created_by,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		strings.TrimSpace(params.Topic),
		strings.TrimSpace(params.Language),
		params.RequestedLength,
		nullableString(params.Category),
		nullableString(params.Country),
		nullableString(params.VoiceID),
		nullableString(params.VideoTheme),
		boolToInt(params.PublishRequested),
		StatusQueued,
		nullableString(params.CreatedBy),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	for position, name := range StepOrder {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO job_steps (job_id, position, name, status) VALUES (?, ?, ?, ?)`,
			id, position, name, StepPending,
		); err != nil {
			return nil, fmt.Errorf("insert step %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create: %w", err)
	}

	return s.GetJob(ctx, id)
}

// GetJob fetches a job with its steps. Returns (nil, nil) when the id is absent.
func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if err := s.loadSteps(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *Store) loadSteps(ctx context.Context, job *Job) error {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT name, status, started_at, completed_at, error_message
         FROM job_steps WHERE job_id = ? ORDER BY position`,
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("load steps: %w", err)
	}
	defer rows.Close()

	job.Steps = job.Steps[:0]
	for rows.Next() {
		var (
			name         string
			status       string
			startedRaw   sql.NullString
			completedRaw sql.NullString
			errMsg       sql.NullString
		)
		if err := rows.Scan(&name, &status, &startedRaw, &completedRaw, &errMsg); err != nil {
			return fmt.Errorf("scan step: %w", err)
		}
		step := Step{
			Name:         StepName(name),
			Status:       StepStatus(status),
			ErrorMessage: errMsg.String,
		}
		step.StartedAt = parseNullableTime(startedRaw)
		step.CompletedAt = parseNullableTime(completedRaw)
		job.Steps = append(job.Steps, step)
	}
	return rows.Err()
}

// ListJobs returns jobs matching the filter ordered by creation time
// descending with id as tie-break, plus the total match count for pagination.
func (s *Store) ListJobs(ctx context.Context, filter Filter) ([]*Job, int, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if topic := strings.TrimSpace(filter.Topic); topic != "" {
		conditions = append(conditions, "topic LIKE ?")
		args = append(args, "%"+topic+"%")
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, filter.From.UTC().Format(time.RFC3339Nano))
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, filter.To.UTC().Format(time.RFC3339Nano))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM jobs`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	query := `SELECT ` + jobColumns + ` FROM jobs` + where + ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var result []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for _, job := range result {
		if err := s.loadSteps(ctx, job); err != nil {
			return nil, 0, err
		}
	}
	return result, total, nil
}

// JobsByStatus returns jobs in a given status, oldest first. Used by the
// scheduler to drain the queue in arrival order.
func (s *Store) JobsByStatus(ctx context.Context, status Status, limit int) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = ? ORDER BY created_at, id`
	args := []any{status}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("jobs by status: %w", err)
	}
	defer rows.Close()

	var result []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, job)
	}
	return result, rows.Err()
}

// DeleteJob removes a job and cascades to its articles and steps. The second
// delete of the same id reports false rather than an error.
func (s *Store) DeleteJob(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

const jobColumns = "id, topic, language, requested_length_seconds, category, country, voice_id, video_theme, publish_requested, status, artifact_summary, artifact_audio, artifact_video, artifact_thumbnail, external_url, external_id, error_message, created_by, created_at, updated_at, started_at, completed_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id           string
		topic        string
		language     sql.NullString
		length       int
		category     sql.NullString
		country      sql.NullString
		voiceID      sql.NullString
		videoTheme   sql.NullString
		publishReq   sql.NullInt64
		statusStr    string
		artSummary   sql.NullString
		artAudio     sql.NullString
		artVideo     sql.NullString
		artThumbnail sql.NullString
		externalURL  sql.NullString
		externalID   sql.NullString
		errorMessage sql.NullString
		createdBy    sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
		startedRaw   sql.NullString
		completedRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&topic,
		&language,
		&length,
		&category,
		&country,
		&voiceID,
		&videoTheme,
		&publishReq,
		&statusStr,
		&artSummary,
		&artAudio,
		&artVideo,
		&artThumbnail,
		&externalURL,
		&externalID,
		&errorMessage,
		&createdBy,
		&createdRaw,
		&updatedRaw,
		&startedRaw,
		&completedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:               id,
		Topic:            topic,
		Language:         language.String,
		RequestedLength:  length,
		Category:         category.String,
		Country:          country.String,
		VoiceID:          voiceID.String,
		VideoTheme:       videoTheme.String,
		PublishRequested: publishReq.Valid && publishReq.Int64 != 0,
		Status:           Status(statusStr),
		Artifacts:        make(map[ArtifactKind]string, 4),
		ExternalURL:      externalURL.String,
		ExternalID:       externalID.String,
		ErrorMessage:     errorMessage.String,
		CreatedBy:        createdBy.String,
	}
	if artSummary.String != "" {
		job.Artifacts[ArtifactSummary] = artSummary.String
	}
	if artAudio.String != "" {
		job.Artifacts[ArtifactAudio] = artAudio.String
	}
	if artVideo.String != "" {
		job.Artifacts[ArtifactVideo] = artVideo.String
	}
	if artThumbnail.String != "" {
		job.Artifacts[ArtifactThumbnail] = artThumbnail.String
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	job.StartedAt = parseNullableTime(startedRaw)
	job.CompletedAt = parseNullableTime(completedRaw)
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func parseNullableTime(raw sql.NullString) *time.Time {
	if !raw.Valid {
		return nil
	}
	t, err := parseTimeString(raw.String)
	if err != nil {
		return nil
	}
	return &t
}
