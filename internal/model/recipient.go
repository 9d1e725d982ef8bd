// internal/model/recipient.go
package model

type Recipient struct {
    ID         string   `db:"id" json:"id"`
    Email      string   `db:"email" json:"email"`
    PushTokens []string `db:"push_tokens" json:"push_tokens"`
}
