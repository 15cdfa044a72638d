package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jotagep/redditlens/model"
)

// FakeStore is an in-memory stand-in for DBStore used in tests. It counts
// reads and writes and can be primed to fail, so tests can assert fail-open
// and best-effort-write behavior without a database.
type FakeStore struct {
	Forums          map[string]*model.Forum   // keyed by forum name
	Posts           map[string][]*model.Post  // keyed by forum id
	Classifications map[string]model.Classification

	// when set, the corresponding operations fail with this error
	ReadErr  error
	WriteErr error

	ReadCalls  int
	WriteCalls int
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		Forums:          map[string]*model.Forum{},
		Posts:           map[string][]*model.Post{},
		Classifications: map[string]model.Classification{},
	}
}

func (s *FakeStore) GetForumByName(ctx context.Context, name string) (*model.Forum, bool, error) {
	s.ReadCalls++
	if s.ReadErr != nil {
		return nil, false, s.ReadErr
	}
	forum, ok := s.Forums[name]
	return forum, ok, nil
}

func (s *FakeStore) ListForums(ctx context.Context) ([]*model.Forum, error) {
	s.ReadCalls++
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	forums := []*model.Forum{}
	for _, forum := range s.Forums {
		forums = append(forums, forum)
	}
	return forums, nil
}

func (s *FakeStore) TrackForum(ctx context.Context, name string) (*model.Forum, error) {
	s.WriteCalls++
	if s.WriteErr != nil {
		return nil, s.WriteErr
	}
	if forum, ok := s.Forums[name]; ok {
		return forum, nil
	}
	forum := &model.Forum{Id: uuid.New().String(), Name: name}
	s.Forums[name] = forum
	return forum, nil
}

func (s *FakeStore) ListPosts(ctx context.Context, forumID string) ([]*model.Post, error) {
	s.ReadCalls++
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	return s.Posts[forumID], nil
}

func (s *FakeStore) SaveFetchedPosts(ctx context.Context, forumName string, posts []*model.Post, fetchedAt time.Time) error {
	s.WriteCalls++
	if s.WriteErr != nil {
		return s.WriteErr
	}
	forum, ok := s.Forums[forumName]
	if !ok {
		forum = &model.Forum{Id: uuid.New().String(), Name: forumName}
		s.Forums[forumName] = forum
	}
	forum.LastUpdated = fetchedAt

	for _, post := range posts {
		post.ForumID = forum.Id
		if post.Id == "" {
			post.Id = s.existingPostID(forum.Id, post.Url)
		}
		if post.Id == "" {
			post.Id = uuid.New().String()
		}
		s.upsertPost(forum.Id, post)
	}
	return nil
}

func (s *FakeStore) existingPostID(forumID string, url string) string {
	for _, post := range s.Posts[forumID] {
		if post.Url == url {
			return post.Id
		}
	}
	return ""
}

func (s *FakeStore) upsertPost(forumID string, post *model.Post) {
	for i, existing := range s.Posts[forumID] {
		if existing.Id == post.Id {
			s.Posts[forumID][i] = post
			return
		}
	}
	s.Posts[forumID] = append(s.Posts[forumID], post)
}

func (s *FakeStore) GetClassification(ctx context.Context, postID string) (model.Classification, bool, error) {
	s.ReadCalls++
	if s.ReadErr != nil {
		return model.Classification{}, false, s.ReadErr
	}
	cls, ok := s.Classifications[postID]
	return cls, ok, nil
}

func (s *FakeStore) UpsertClassification(ctx context.Context, cls *model.Classification) error {
	s.WriteCalls++
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.Classifications[cls.PostID] = *cls
	return nil
}
