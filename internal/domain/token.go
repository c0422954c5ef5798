package domain

import "time"

type TokenType string

const TokenTypeBearer TokenType = "BEARER"

// UserToken is one ledger entry for an issued access token. Rows are
// flipped to revoked+expired when superseded, never deleted.
type UserToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Token     string    `gorm:"size:1024;uniqueIndex;not null" json:"-"`
	TokenType TokenType `gorm:"size:16;not null" json:"tokenType"`
	Expired   bool      `gorm:"not null" json:"expired"`
	Revoked   bool      `gorm:"not null" json:"revoked"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
