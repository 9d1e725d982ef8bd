package repository

import (
    "database/sql"
)

// JobRepositoryInterface is the durable job-key registry behind the AMQP
// queue: one row per campaign with a pending dispatch job.
type JobRepositoryInterface interface {
    // Claim records a pending job for the campaign. Returns false when a
    // job is already pending (the enqueue merges instead of publishing).
    Claim(campaignID string) (bool, error)

    // Release frees the campaign's slot so a future enqueue can publish
    // again.
    Release(campaignID string) error

    // ListPending returns every claimed campaign id, for startup recovery.
    ListPending() ([]string, error)
}

type JobRepository struct {
    DB *sql.DB
}

func (r *JobRepository) Claim(campaignID string) (bool, error) {
    res, err := r.DB.Exec(
        `INSERT INTO dispatch_jobs (campaign_id) VALUES ($1) ON CONFLICT (campaign_id) DO NOTHING`,
        campaignID)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

func (r *JobRepository) Release(campaignID string) error {
    _, err := r.DB.Exec(`DELETE FROM dispatch_jobs WHERE campaign_id=$1`, campaignID)
    return err
}

func (r *JobRepository) ListPending() ([]string, error) {
    rows, err := r.DB.Query(`SELECT campaign_id FROM dispatch_jobs ORDER BY enqueued_at`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    ids := []string{}
    for rows.Next() {
        var id string
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    return ids, rows.Err()
}

var _ JobRepositoryInterface = (*JobRepository)(nil)
