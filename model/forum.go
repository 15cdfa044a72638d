package model

import (
	"time"
)

/*

Forum is the cache entry for one tracked forum (a subreddit on the upstream
platform)

Id: primary key, a uuid
CreatedAt: time when entity is created
Name: the forum's upstream name, unique, used as the natural key for upserts
LastUpdated: the last time the forum's top posts were fetched from upstream.
A zero LastUpdated means the forum is tracked but has never been fetched, which
reads as a stale cache entry.
Posts: the cached top posts of this forum, "has-many" relation. The set is
replaced by upsert on every re-fetch.
*/

type Forum struct {
	Id          string    `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"-"`
	Name        string    `gorm:"uniqueIndex" json:"name"`
	LastUpdated time.Time `json:"last_updated"`
	Posts       []*Post   `json:"-"`
}
