package repository

import (
    "database/sql"

    "github.com/lib/pq"

    "github.com/chillspider/jetx-marketing/internal/model"
)

// RecipientRepositoryInterface resolves opaque recipient identifiers into
// records carrying a delivery address and push-token set.
type RecipientRepositoryInterface interface {
    GetByIDs(ids []string) ([]model.Recipient, error)

    // ListPage walks the full recipient population in fixed-size pages,
    // ordered by id so pages are stable across calls.
    ListPage(offset, limit int) ([]model.Recipient, error)

    // RemoveToken drops a dead push token from a recipient's token set.
    RemoveToken(recipientID, token string) error
}

type RecipientRepository struct {
    DB *sql.DB
}

func (r *RecipientRepository) GetByIDs(ids []string) ([]model.Recipient, error) {
    if len(ids) == 0 {
        return []model.Recipient{}, nil
    }
    query := `SELECT id, email, push_tokens FROM recipients WHERE id = ANY($1)`
    rows, err := r.DB.Query(query, pq.Array(ids))
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return scanRecipients(rows)
}

func (r *RecipientRepository) ListPage(offset, limit int) ([]model.Recipient, error) {
    query := `SELECT id, email, push_tokens FROM recipients ORDER BY id LIMIT $1 OFFSET $2`
    rows, err := r.DB.Query(query, limit, offset)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return scanRecipients(rows)
}

func (r *RecipientRepository) RemoveToken(recipientID, token string) error {
    query := `UPDATE recipients SET push_tokens = array_remove(push_tokens, $1) WHERE id=$2`
    _, err := r.DB.Exec(query, token, recipientID)
    return err
}

func scanRecipients(rows *sql.Rows) ([]model.Recipient, error) {
    recipients := []model.Recipient{}
    for rows.Next() {
        var rec model.Recipient
        if err := rows.Scan(&rec.ID, &rec.Email, pq.Array(&rec.PushTokens)); err != nil {
            return nil, err
        }
        recipients = append(recipients, rec)
    }
    return recipients, rows.Err()
}

var _ RecipientRepositoryInterface = (*RecipientRepository)(nil)
