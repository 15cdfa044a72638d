package feed

import (
	"context"
	"time"

	"github.com/jinzhu/copier"
	"github.com/jotagep/redditlens/cache"
	"github.com/jotagep/redditlens/classify"
	"github.com/jotagep/redditlens/model"
	"github.com/pkg/errors"
)

// ForumAPI fetches the current top posts of a forum from the upstream
// platform. Implemented by reddit.Client.
type ForumAPI interface {
	FetchTop(ctx context.Context, forumName string, limit int) ([]*model.Post, error)
}

// Classifier classifies one post's title and body into the four category
// flags. Implemented by classify.Client.
type Classifier interface {
	Classify(ctx context.Context, title string, body string) (classify.Categories, error)
}

// Store is the backing store shared by the post cache and the classification
// cache. Implemented by store.DBStore, and by store.FakeStore in tests.
type Store interface {
	GetForumByName(ctx context.Context, name string) (*model.Forum, bool, error)
	ListForums(ctx context.Context) ([]*model.Forum, error)
	TrackForum(ctx context.Context, name string) (*model.Forum, error)
	ListPosts(ctx context.Context, forumID string) ([]*model.Post, error)
	SaveFetchedPosts(ctx context.Context, forumName string, posts []*model.Post, fetchedAt time.Time) error
	GetClassification(ctx context.Context, postID string) (model.Classification, bool, error)
	UpsertClassification(ctx context.Context, cls *model.Classification) error
}

// Config tunes the two cache TTLs, the upstream fetch size and the pacing of
// classification calls.
type Config struct {
	TopPostsLimit     int
	PostCacheTTL      time.Duration
	ClassificationTTL time.Duration
	// ClassifyPause is slept after every classification service call to stay
	// under the upstream rate limit. Cache hits are not paced.
	ClassifyPause time.Duration
}

// Service is the fetch/cache/classify pipeline behind the retrieval endpoint.
// It instantiates the generic read-through cache twice: once over forums
// (value: the forum's top posts, source of truth: the forum api) and once per
// post (value: its classification, source of truth: the language model).
type Service struct {
	store Store

	posts           *cache.ReadThrough[string, []*model.Post]
	classifications *cache.ReadThrough[*model.Post, model.Classification]

	// test seams
	now   func() time.Time
	sleep func(time.Duration)
}

func NewService(store Store, forumAPI ForumAPI, classifier Classifier, cfg Config) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
		sleep: time.Sleep,
	}

	s.posts = &cache.ReadThrough[string, []*model.Post]{
		TTL: cfg.PostCacheTTL,
		Now: func() time.Time { return s.now() },
		Lookup: func(ctx context.Context, forumName string) ([]*model.Post, time.Time, bool, error) {
			forum, found, err := store.GetForumByName(ctx, forumName)
			if err != nil || !found {
				return nil, time.Time{}, false, err
			}
			posts, err := store.ListPosts(ctx, forum.Id)
			if err != nil {
				return nil, time.Time{}, false, err
			}
			// A tracked-but-never-fetched forum has a zero LastUpdated and
			// reads as stale here, forcing the first upstream fetch.
			return posts, forum.LastUpdated, true, nil
		},
		Store: func(ctx context.Context, forumName string, posts []*model.Post, now time.Time) error {
			return store.SaveFetchedPosts(ctx, forumName, posts, now)
		},
		Fetch: func(ctx context.Context, forumName string) ([]*model.Post, error) {
			return forumAPI.FetchTop(ctx, forumName, cfg.TopPostsLimit)
		},
	}

	s.classifications = &cache.ReadThrough[*model.Post, model.Classification]{
		TTL: cfg.ClassificationTTL,
		Now: func() time.Time { return s.now() },
		Lookup: func(ctx context.Context, post *model.Post) (model.Classification, time.Time, bool, error) {
			// A post without an id cannot be cache-matched, it is classified
			// afresh on every request.
			if post.Id == "" {
				return model.Classification{}, time.Time{}, false, nil
			}
			cls, found, err := store.GetClassification(ctx, post.Id)
			return cls, cls.AnalyzedAt, found, err
		},
		Store: func(ctx context.Context, post *model.Post, cls model.Classification, now time.Time) error {
			if post.Id == "" {
				return nil
			}
			return store.UpsertClassification(ctx, &cls)
		},
		Fetch: func(ctx context.Context, post *model.Post) (model.Classification, error) {
			categories, err := classifier.Classify(ctx, post.Title, post.Content)
			if err != nil {
				return model.Classification{}, err
			}
			if cfg.ClassifyPause > 0 {
				s.sleep(cfg.ClassifyPause)
			}
			return model.Classification{
				PostID:           post.Id,
				AnalyzedAt:       s.now(),
				SolutionRequests: categories.SolutionRequests,
				PainAndAnger:     categories.PainAndAnger,
				AdviceRequests:   categories.AdviceRequests,
				MoneyTalk:        categories.MoneyTalk,
			}, nil
		},
	}

	return s
}

// TopPosts returns the forum's cached top posts when the cache entry is
// younger than the post TTL, otherwise fetches from the forum api, persists
// on a best effort basis and returns the fresh posts.
func (s *Service) TopPosts(ctx context.Context, forumName string) ([]*model.Post, error) {
	return s.posts.Get(ctx, forumName)
}

// ClassifyBatch resolves a classification for every post, reusing stored ones
// younger than the classification TTL and calling the classifier for the
// rest, strictly one post at a time. The output preserves the input's order
// and length. A classifier failure on any post fails the whole batch.
func (s *Service) ClassifyBatch(ctx context.Context, posts []*model.Post) ([]*model.AnnotatedPost, error) {
	annotated := make([]*model.AnnotatedPost, 0, len(posts))
	for _, post := range posts {
		cls, err := s.classifications.Get(ctx, post)
		if err != nil {
			return nil, errors.Wrapf(err, "classify post %q", post.Title)
		}
		ap := &model.AnnotatedPost{Category: cls}
		if err := copier.Copy(&ap.Post, post); err != nil {
			return nil, errors.Wrapf(err, "project post %q", post.Title)
		}
		annotated = append(annotated, ap)
	}
	return annotated, nil
}

// TopAnnotatedPosts is the full pipeline behind GET /posts: cached-or-fetched
// top posts, each joined with its cached-or-computed classification.
func (s *Service) TopAnnotatedPosts(ctx context.Context, forumName string) ([]*model.AnnotatedPost, error) {
	posts, err := s.TopPosts(ctx, forumName)
	if err != nil {
		return nil, err
	}
	return s.ClassifyBatch(ctx, posts)
}

// ListForums returns all tracked forums.
func (s *Service) ListForums(ctx context.Context) ([]*model.Forum, error) {
	return s.store.ListForums(ctx)
}

// TrackForum registers a forum for tracking without fetching it.
func (s *Service) TrackForum(ctx context.Context, forumName string) (*model.Forum, error) {
	return s.store.TrackForum(ctx, forumName)
}
