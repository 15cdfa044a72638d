package model

import (
	"time"
)

/*

Post is a single user submitted item fetched from a forum

Id: primary key, a uuid generated when the post is first persisted. Posts that
never hit the store (transient fetch results whose cache write failed) may
carry an empty Id, in which case the post cannot be matched against the
classification cache and is re-classified on every request.
CreatedAt: time when entity is created

Title: post's title in plain text
Content: post's self-text body in plain text, may be empty for link posts
Author: upstream author name
Url: canonical url of the post on the upstream platform
Thumbnail: upstream thumbnail reference, opaque to us
PostedAt: upstream creation time of the post. For posts entering the pipeline
fresh from the forum client this falls within the 24h retrieval window; cached
posts keep their original PostedAt regardless of when they are served.
NumComments: comment count at fetch time
Score: signed upstream score at fetch time

ForumID/Forum: owning forum cache entry, "belongs-to" relation

Posts are keyed by forum + url for upsert purposes: re-fetching a forum
re-upserts the same rows instead of duplicating them. Rows are never deleted,
staleness is governed by the forum's LastUpdated timestamp.
*/

type Post struct {
	Id          string    `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"-"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Author      string    `json:"author"`
	Url         string    `gorm:"index:idx_forum_url,unique" json:"url"`
	Thumbnail   string    `json:"thumbnail"`
	PostedAt    time.Time `json:"posted_at"`
	NumComments int       `json:"num_comments"`
	Score       int       `json:"score"`
	ForumID     string    `gorm:"index:idx_forum_url,unique" json:"-"`
	Forum       *Forum    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
