package repository

import (
    "database/sql"
    "fmt"
    "time"

    "github.com/google/uuid"
    "github.com/lib/pq"

    appErrors "github.com/chillspider/jetx-marketing/internal/errors"
    "github.com/chillspider/jetx-marketing/internal/model"
)

type CampaignRepositoryInterface interface {
    Create(c *model.Campaign) error
    GetByID(id string) (*model.Campaign, error)
    Update(c *model.Campaign) error
    UpdateStatus(id string, status model.CampaignStatus) error

    // FinishFrom atomically transitions a campaign out of `from` into a
    // terminal status, recording reach. Returns false when the row was no
    // longer in `from` (a concurrent writer got there first).
    FinishFrom(id string, from, to model.CampaignStatus, reach int) (bool, error)

    // ListScheduled returns activated campaigns that carry a schedule time,
    // for timer rehydration on startup.
    ListScheduled() ([]*model.Campaign, error)

    List(offset, limit int, channel, status string) ([]*model.Campaign, int, error)
}

type CampaignRepository struct {
    DB *sql.DB
}

const campaignColumns = `id, name, notify_content, email_content, target_users,
    schedule_time, status, channel, reach, deep_link, external_id, created_at, updated_at`

func scanCampaign(row interface{ Scan(...interface{}) error }) (*model.Campaign, error) {
    var c model.Campaign
    err := row.Scan(
        &c.ID, &c.Name, &c.NotifyContent, &c.EmailContent, pq.Array(&c.TargetUsers),
        &c.ScheduleTime, &c.Status, &c.Channel, &c.Reach, &c.DeepLink, &c.ExternalID,
        &c.CreatedAt, &c.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    return &c, nil
}

func (r *CampaignRepository) Create(c *model.Campaign) error {
    if c.ID == "" {
        c.ID = uuid.NewString()
    }
    if c.Status == "" {
        c.Status = model.CampaignActivated
    }
    c.CreatedAt = time.Now().UTC()

    query := `
        INSERT INTO campaigns (id, name, notify_content, email_content, target_users,
            schedule_time, status, channel, deep_link, external_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `
    _, err := r.DB.Exec(query, c.ID, c.Name, c.NotifyContent, c.EmailContent,
        pq.Array(c.TargetUsers), c.ScheduleTime, c.Status, c.Channel,
        c.DeepLink, c.ExternalID, c.CreatedAt)
    return err
}

func (r *CampaignRepository) GetByID(id string) (*model.Campaign, error) {
    query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
    c, err := scanCampaign(r.DB.QueryRow(query, id))
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, appErrors.NewCampaignNotFound(id)
        }
        return nil, err
    }
    return c, nil
}

func (r *CampaignRepository) Update(c *model.Campaign) error {
    query := `
        UPDATE campaigns
        SET name=$1, notify_content=$2, email_content=$3, target_users=$4,
            schedule_time=$5, status=$6, channel=$7, deep_link=$8, updated_at=NOW()
        WHERE id=$9
    `
    _, err := r.DB.Exec(query, c.Name, c.NotifyContent, c.EmailContent,
        pq.Array(c.TargetUsers), c.ScheduleTime, c.Status, c.Channel, c.DeepLink, c.ID)
    return err
}

func (r *CampaignRepository) UpdateStatus(id string, status model.CampaignStatus) error {
    query := `UPDATE campaigns SET status=$1, updated_at=NOW() WHERE id=$2`
    _, err := r.DB.Exec(query, status, id)
    return err
}

func (r *CampaignRepository) FinishFrom(id string, from, to model.CampaignStatus, reach int) (bool, error) {
    query := `UPDATE campaigns SET status=$1, reach=$2, updated_at=NOW() WHERE id=$3 AND status=$4`
    res, err := r.DB.Exec(query, to, reach, id, from)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

func (r *CampaignRepository) ListScheduled() ([]*model.Campaign, error) {
    query := `SELECT ` + campaignColumns + `
        FROM campaigns
        WHERE status=$1 AND schedule_time IS NOT NULL
        ORDER BY schedule_time`
    rows, err := r.DB.Query(query, model.CampaignActivated)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    campaigns := []*model.Campaign{}
    for rows.Next() {
        c, err := scanCampaign(rows)
        if err != nil {
            return nil, err
        }
        campaigns = append(campaigns, c)
    }
    return campaigns, rows.Err()
}

func (r *CampaignRepository) List(offset, limit int, channel, status string) ([]*model.Campaign, int, error) {
    campaigns := []*model.Campaign{}
    query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1`
    args := []interface{}{}
    argPos := 1

    if channel != "" {
        query += fmt.Sprintf(" AND channel=$%d", argPos)
        args = append(args, channel)
        argPos++
    }
    if status != "" {
        query += fmt.Sprintf(" AND status=$%d", argPos)
        args = append(args, status)
        argPos++
    }

    query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
    args = append(args, limit, offset)

    rows, err := r.DB.Query(query, args...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()

    for rows.Next() {
        c, err := scanCampaign(rows)
        if err != nil {
            return nil, 0, err
        }
        campaigns = append(campaigns, c)
    }
    if err := rows.Err(); err != nil {
        return nil, 0, err
    }

    countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
    countArgs := []interface{}{}
    countPos := 1
    if channel != "" {
        countQuery += fmt.Sprintf(" AND channel=$%d", countPos)
        countArgs = append(countArgs, channel)
        countPos++
    }
    if status != "" {
        countQuery += fmt.Sprintf(" AND status=$%d", countPos)
        countArgs = append(countArgs, status)
    }

    var total int
    if err := r.DB.QueryRow(countQuery, countArgs...).Scan(&total); err != nil {
        return nil, 0, err
    }

    return campaigns, total, nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
