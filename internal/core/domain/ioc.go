package domain

import "time"

type Category string

const (
	MD5       Category = "md5"
	SHA1      Category = "sha1"
	SHA256    Category = "sha256"
	IPAddress Category = "ip"
	Domain    Category = "domain"
)

// ExtractedIOC is one value pulled out of a spreadsheet cell, tagged with
// the message it came from. No shape validation is done on Value: whatever
// sat under a matched column is archived verbatim.
type ExtractedIOC struct {
	Value        string
	Category     Category
	Subject      string // Subject of the originating message
	MessageDate  string // Calendar date of the message (YYYY-MM-DD)
	DateIngested time.Time
}
