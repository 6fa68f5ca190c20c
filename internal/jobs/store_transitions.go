package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// All mutations in this file are expressed as single targeted UPDATE
// statements guarded by WHERE clauses, so concurrent writers touching
// disjoint fields never clobber each other and backwards transitions are
// rejected at the database rather than in racy read-modify-write code.

// MarkRunning transitions a queued job to running and stamps started_at.
func (s *Store) MarkRunning(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, started_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
		StatusRunning, now, now, id, StatusQueued,
	)
	if err != nil {
		return fmt.Errorf("mark running: %w", err)
	}
	return s.explainNoEffect(ctx, res, id)
}

// MarkCompleted transitions a running job to completed.
func (s *Store) MarkCompleted(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, completed_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
		StatusCompleted, now, now, id, StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return s.explainNoEffect(ctx, res, id)
}

// MarkFailed transitions a non-terminal job to failed with a cause.
func (s *Store) MarkFailed(ctx context.Context, id, cause string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, error_message = ?, completed_at = ?, updated_at = ?
         WHERE id = ? AND status IN (?, ?)`,
		StatusFailed, cause, now, now, id, StatusQueued, StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return s.explainNoEffect(ctx, res, id)
}

// FailIfRunning marks a running job failed. Used by the reconciliation sweep;
// jobs that already reached a terminal state are left untouched and no error
// is reported.
func (s *Store) FailIfRunning(ctx context.Context, id, cause string) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, error_message = ?, completed_at = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusFailed, cause, now, now, id, StatusRunning,
	)
	if err != nil {
		return false, fmt.Errorf("fail running job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

var artifactColumns = map[ArtifactKind]string{
	ArtifactSummary:   "artifact_summary",
	ArtifactAudio:     "artifact_audio",
	ArtifactVideo:     "artifact_video",
	ArtifactThumbnail: "artifact_thumbnail",
}

// SetArtifact stores the reference for one artifact kind.
func (s *Store) SetArtifact(ctx context.Context, id string, kind ArtifactKind, ref string) error {
	column, ok := artifactColumns[kind]
	if !ok {
		return fmt.Errorf("unknown artifact kind %q", kind)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET `+column+` = ?, updated_at = ? WHERE id = ?`,
		nullableString(ref), now, id,
	)
	if err != nil {
		return fmt.Errorf("set artifact %s: %w", kind, err)
	}
	return s.explainNoEffect(ctx, res, id)
}

// SetExternalResult records the publisher's external reference for a job.
func (s *Store) SetExternalResult(ctx context.Context, id, externalURL, externalID string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET external_url = ?, external_id = ?, updated_at = ? WHERE id = ?`,
		nullableString(externalURL), nullableString(externalID), now, id,
	)
	if err != nil {
		return fmt.Errorf("set external result: %w", err)
	}
	return s.explainNoEffect(ctx, res, id)
}

// StartStep transitions a pending step to running. The executor calls steps
// strictly in order, and the pending guard rejects any replay.
func (s *Store) StartStep(ctx context.Context, jobID string, name StepName) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE job_steps SET status = ?, started_at = ?, error_message = NULL
         WHERE job_id = ? AND name = ? AND status = ?`,
		StepRunning, now, jobID, name, StepPending,
	)
	if err != nil {
		return fmt.Errorf("start step %s: %w", name, err)
	}
	if err := s.explainNoEffectStep(ctx, res, jobID); err != nil {
		return err
	}
	return s.touch(ctx, jobID)
}

// CompleteStep transitions a running step to completed.
func (s *Store) CompleteStep(ctx context.Context, jobID string, name StepName) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE job_steps SET status = ?, completed_at = ?
         WHERE job_id = ? AND name = ? AND status IN (?, ?)`,
		StepDone, now, jobID, name, StepRunning, StepPending,
	)
	if err != nil {
		return fmt.Errorf("complete step %s: %w", name, err)
	}
	if err := s.explainNoEffectStep(ctx, res, jobID); err != nil {
		return err
	}
	return s.touch(ctx, jobID)
}

// FailStep transitions a running step to failed with a cause.
func (s *Store) FailStep(ctx context.Context, jobID string, name StepName, cause string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE job_steps SET status = ?, completed_at = ?, error_message = ?
         WHERE job_id = ? AND name = ? AND status = ?`,
		StepFailed, now, cause, jobID, name, StepRunning,
	)
	if err != nil {
		return fmt.Errorf("fail step %s: %w", name, err)
	}
	if err := s.explainNoEffectStep(ctx, res, jobID); err != nil {
		return err
	}
	return s.touch(ctx, jobID)
}

// ResetStep returns a step to pending so it can be re-run (manual publish on
// a completed job).
func (s *Store) ResetStep(ctx context.Context, jobID string, name StepName) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE job_steps SET status = ?, started_at = NULL, completed_at = NULL, error_message = NULL
         WHERE job_id = ? AND name = ?`,
		StepPending, jobID, name,
	)
	if err != nil {
		return fmt.Errorf("reset step %s: %w", name, err)
	}
	if err := s.explainNoEffectStep(ctx, res, jobID); err != nil {
		return err
	}
	return s.touch(ctx, jobID)
}

func (s *Store) touch(ctx context.Context, jobID string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, `UPDATE jobs SET updated_at = ? WHERE id = ?`, now, jobID); err != nil {
		return fmt.Errorf("touch job: %w", err)
	}
	return nil
}

// explainNoEffect distinguishes "job gone" from "guard rejected" after an
// update that affected zero rows.
func (s *Store) explainNoEffect(ctx context.Context, res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	var one int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM jobs WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check job existence: %w", err)
	}
	return ErrInvalidTransition
}

func (s *Store) explainNoEffectStep(ctx context.Context, res sql.Result, jobID string) error {
	return s.explainNoEffect(ctx, res, jobID)
}
