package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jotagep/redditlens/model"
	Logger "github.com/jotagep/redditlens/utils/log"
)

// PostsService is the pipeline behind the http surface. Implemented by
// feed.Service.
type PostsService interface {
	TopAnnotatedPosts(ctx context.Context, forumName string) ([]*model.AnnotatedPost, error)
	ListForums(ctx context.Context) ([]*model.Forum, error)
	TrackForum(ctx context.Context, forumName string) (*model.Forum, error)
}

// GetPosts handles GET /posts?forum=<name>. It validates the forum name
// before touching any collaborator, then runs the fetch/cache/classify
// pipeline. Downstream failures map to 500 with the cause logged for
// operators, never leaked to the client.
func GetPosts(svc PostsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		forumName := strings.TrimSpace(c.Query("forum"))
		if forumName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "forum name is required"})
			return
		}

		posts, err := svc.TopAnnotatedPosts(c.Request.Context(), forumName)
		if err != nil {
			Logger.Log.Errorf("fail to fetch and classify posts for forum %s: %v", forumName, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "error processing forum posts"})
			return
		}
		c.JSON(http.StatusOK, posts)
	}
}

// ListForums handles GET /forums, returning every tracked forum with its
// last-updated timestamp.
func ListForums(svc PostsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		forums, err := svc.ListForums(c.Request.Context())
		if err != nil {
			Logger.Log.Errorf("fail to list forums: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "error listing forums"})
			return
		}
		c.JSON(http.StatusOK, forums)
	}
}

type addForumRequest struct {
	Name string `json:"name"`
}

// AddForum handles POST /forums, registering a forum by name. The forum is
// not fetched here, the first GET /posts for it goes upstream.
func AddForum(svc PostsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := addForumRequest{}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "forum name is required"})
			return
		}

		forum, err := svc.TrackForum(c.Request.Context(), name)
		if err != nil {
			Logger.Log.Errorf("fail to track forum %s: %v", name, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "error tracking forum"})
			return
		}
		c.JSON(http.StatusCreated, forum)
	}
}
