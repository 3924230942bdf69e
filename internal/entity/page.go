package entity

import "time"

// Page is the rendered landing page as stored in the cache.
type Page struct {
	Content  string
	Hash     string // ETag
	Sections int
	BuiltAt  time.Time
}

type PageInfo struct {
	Version  string    `json:"version"`
	Hash     string    `json:"hash"`
	Sections int       `json:"sections"`
	BuiltAt  time.Time `json:"built_at"`
}

type Stats struct {
	Views       int64 `json:"views"`
	Subscribers int64 `json:"subscribers"`
}
