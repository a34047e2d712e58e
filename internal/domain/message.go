package domain

import "time"

// ChannelMessage is one entry of a channel's history, reduced to what the
// transcript needs.
type ChannelMessage struct {
	Timestamp         time.Time
	AuthorDisplayName string
	Content           string
}
