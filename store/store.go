package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jotagep/redditlens/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBStore is the gorm backed store for forum cache entries, posts and
// classifications. All writes are upserts keyed by natural identity, which
// makes concurrent cache refreshes for the same forum idempotent: two racing
// refreshes converge to the same final state, no locking needed.
type DBStore struct {
	db *gorm.DB
}

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

// GetForumByName returns the forum cache entry for name, reporting not-found
// separately from real lookup errors so callers can fail open on the latter.
func (s *DBStore) GetForumByName(ctx context.Context, name string) (*model.Forum, bool, error) {
	forum := model.Forum{}
	res := s.db.WithContext(ctx).Where("name = ?", name).First(&forum)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if res.Error != nil {
		return nil, false, errors.Wrapf(res.Error, "store: get forum %s", name)
	}
	return &forum, true, nil
}

// ListForums returns all tracked forums, oldest tracked first.
func (s *DBStore) ListForums(ctx context.Context) ([]*model.Forum, error) {
	forums := []*model.Forum{}
	if err := s.db.WithContext(ctx).Order("created_at").Find(&forums).Error; err != nil {
		return nil, errors.Wrap(err, "store: list forums")
	}
	return forums, nil
}

// TrackForum registers a forum by name without fetching it. The entry is
// created with a zero LastUpdated so the first post retrieval treats it as a
// stale cache entry and goes upstream. Tracking an already tracked forum is a
// no-op returning the existing entry.
func (s *DBStore) TrackForum(ctx context.Context, name string) (*model.Forum, error) {
	forum := model.Forum{}
	err := s.db.WithContext(ctx).
		Where(model.Forum{Name: name}).
		Attrs(model.Forum{Id: uuid.New().String()}).
		FirstOrCreate(&forum).Error
	if err != nil {
		return nil, errors.Wrapf(err, "store: track forum %s", name)
	}
	return &forum, nil
}

// ListPosts returns the cached posts of a forum, highest score first. Rows
// have no inherent SQL order, so a top-posts listing needs the explicit sort
// to stay deterministic across reads; contents are returned unfiltered.
func (s *DBStore) ListPosts(ctx context.Context, forumID string) ([]*model.Post, error) {
	posts := []*model.Post{}
	if err := s.db.WithContext(ctx).Where("forum_id = ?", forumID).Order("score DESC").Find(&posts).Error; err != nil {
		return nil, errors.Wrapf(err, "store: list posts of forum %s", forumID)
	}
	return posts, nil
}

// SaveFetchedPosts upserts the forum cache entry with fetchedAt as its new
// LastUpdated and upserts every post, keyed by forum + url. Posts that
// already exist keep their Id, new posts get a fresh uuid; either way the Id
// is written back into the passed posts so the caller returns store-shaped
// records and classification cache keys stay stable across requests.
func (s *DBStore) SaveFetchedPosts(ctx context.Context, forumName string, posts []*model.Post, fetchedAt time.Time) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		forum := model.Forum{}
		if err := tx.
			Where(model.Forum{Name: forumName}).
			Attrs(model.Forum{Id: uuid.New().String()}).
			FirstOrCreate(&forum).Error; err != nil {
			return err
		}
		if err := tx.Model(&forum).Update("last_updated", fetchedAt).Error; err != nil {
			return err
		}

		for _, post := range posts {
			post.ForumID = forum.Id
			if post.Id == "" {
				existing := model.Post{}
				res := tx.Select("id").Where("forum_id = ? AND url = ?", forum.Id, post.Url).First(&existing)
				switch {
				case res.Error == nil:
					post.Id = existing.Id
				case errors.Is(res.Error, gorm.ErrRecordNotFound):
					post.Id = uuid.New().String()
				default:
					return res.Error
				}
			}
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(post).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "store: save fetched posts for forum %s", forumName)
	}
	return nil
}

// GetClassification returns the stored classification for a post id.
func (s *DBStore) GetClassification(ctx context.Context, postID string) (model.Classification, bool, error) {
	cls := model.Classification{}
	res := s.db.WithContext(ctx).Where("post_id = ?", postID).First(&cls)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Classification{}, false, nil
	}
	if res.Error != nil {
		return model.Classification{}, false, errors.Wrapf(res.Error, "store: get classification for post %s", postID)
	}
	return cls, true, nil
}

// UpsertClassification writes a classification, replacing any previous row
// for the same post.
func (s *DBStore) UpsertClassification(ctx context.Context, cls *model.Classification) error {
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(cls).Error; err != nil {
		return errors.Wrapf(err, "store: upsert classification for post %s", cls.PostID)
	}
	return nil
}
