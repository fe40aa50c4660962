package models

import "time"

// NoInvite is the sentinel stored when a message carried no invite link and
// creating a fresh one failed.
const NoInvite = "No invite"

// Ad represents one tracked advertisement stored in the 'ads' table.
type Ad struct {
	ID         int64     `db:"id" json:"id,omitempty"` // storage-assigned, absent on submission
	ServerName string    `db:"server_name" json:"server_name"`
	Category   string    `db:"category" json:"category"`
	Content    string    `db:"content" json:"content"`
	Invite     string    `db:"invite" json:"invite"` // invite URL or NoInvite
	Timestamp  time.Time `db:"timestamp" json:"timestamp"`
	AuthorID   int64     `db:"author_id" json:"author_id"`
}
