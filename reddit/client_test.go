package reddit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listingJSON(entries ...string) string {
	children := ""
	for i, entry := range entries {
		if i > 0 {
			children += ","
		}
		children += fmt.Sprintf(`{"data": %s}`, entry)
	}
	return fmt.Sprintf(`{"data": {"children": [%s]}}`, children)
}

func TestFetchTop_NormalizesPosts(t *testing.T) {
	recent := time.Now().Add(-2 * time.Hour).Unix()
	var gotPath, gotAgent string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.Header.Get("User-Agent")
		fmt.Fprint(w, listingJSON(fmt.Sprintf(`{
			"title": "my keyboard broke",
			"selftext": "looking for a fix",
			"url": "https://example.com/post",
			"author": "gopher",
			"created_utc": %d,
			"num_comments": 12,
			"score": 345,
			"thumbnail": "https://thumbs.example.com/t.jpg"
		}`, recent)))
	}))
	defer ts.Close()

	client := NewClientWithBaseURL(ts.URL)
	posts, err := client.FetchTop(context.Background(), "mechkeys", 20)

	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "/r/mechkeys/top.json", gotPath)
	assert.NotEmpty(t, gotAgent)
	post := posts[0]
	assert.Empty(t, post.Id)
	assert.Equal(t, "my keyboard broke", post.Title)
	assert.Equal(t, "looking for a fix", post.Content)
	assert.Equal(t, "gopher", post.Author)
	assert.Equal(t, "https://example.com/post", post.Url)
	assert.Equal(t, "https://thumbs.example.com/t.jpg", post.Thumbnail)
	assert.Equal(t, 12, post.NumComments)
	assert.Equal(t, 345, post.Score)
	assert.Equal(t, time.Unix(recent, 0), post.PostedAt)
}

func TestFetchTop_FiltersPostsOlderThanRetrievalWindow(t *testing.T) {
	recent := time.Now().Add(-time.Hour).Unix()
	old := time.Now().Add(-30 * time.Hour).Unix()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingJSON(
			fmt.Sprintf(`{"title": "recent", "url": "https://example.com/a", "created_utc": %d}`, recent),
			fmt.Sprintf(`{"title": "old", "url": "https://example.com/b", "created_utc": %d}`, old),
		))
	}))
	defer ts.Close()

	client := NewClientWithBaseURL(ts.URL)
	posts, err := client.FetchTop(context.Background(), "golang", 20)

	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "recent", posts[0].Title)
}

func TestFetchTop_BlanksPlaceholderThumbnails(t *testing.T) {
	recent := time.Now().Add(-time.Hour).Unix()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingJSON(
			fmt.Sprintf(`{"title": "a", "url": "https://example.com/a", "created_utc": %d, "thumbnail": "self"}`, recent),
		))
	}))
	defer ts.Close()

	client := NewClientWithBaseURL(ts.URL)
	posts, err := client.FetchTop(context.Background(), "golang", 20)

	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Empty(t, posts[0].Thumbnail)
}

func TestFetchTop_FallsBackToPermalink(t *testing.T) {
	recent := time.Now().Add(-time.Hour).Unix()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingJSON(
			fmt.Sprintf(`{"title": "a", "permalink": "/r/golang/comments/abc/a/", "created_utc": %d}`, recent),
		))
	}))
	defer ts.Close()

	client := NewClientWithBaseURL(ts.URL)
	posts, err := client.FetchTop(context.Background(), "golang", 20)

	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "https://www.reddit.com/r/golang/comments/abc/a/", posts[0].Url)
}

func newOAuthTestClient(ts *httptest.Server) *Client {
	client := NewClientWithBaseURL(ts.URL)
	client.creds = credentials{
		clientID:     "app-id",
		clientSecret: "app-secret",
		username:     "lens-bot",
		password:     "hunter2",
	}
	return client
}

func TestFetchTop_ScriptGrantFetchesTokenAndSendsBearer(t *testing.T) {
	recent := time.Now().Add(-time.Hour).Unix()
	tokenCalls := 0
	var gotBasicUser, gotGrantType, gotBearer string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		gotBasicUser, _, _ = r.BasicAuth()
		r.ParseForm()
		gotGrantType = r.PostFormValue("grant_type")
		fmt.Fprint(w, `{"access_token": "tok-1", "expires_in": 3600}`)
	})
	mux.HandleFunc("/r/golang/top.json", func(w http.ResponseWriter, r *http.Request) {
		gotBearer = r.Header.Get("Authorization")
		fmt.Fprint(w, listingJSON(fmt.Sprintf(`{"title": "a", "url": "https://example.com/a", "created_utc": %d}`, recent)))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := newOAuthTestClient(ts)
	posts, err := client.FetchTop(context.Background(), "golang", 20)

	require.NoError(t, err)
	assert.Len(t, posts, 1)
	assert.Equal(t, 1, tokenCalls)
	assert.Equal(t, "app-id", gotBasicUser)
	assert.Equal(t, "password", gotGrantType)
	assert.Equal(t, "Bearer tok-1", gotBearer)
}

func TestFetchTop_ReusesTokenUntilExpiry(t *testing.T) {
	recent := time.Now().Add(-time.Hour).Unix()
	tokenCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		fmt.Fprintf(w, `{"access_token": "tok-%d", "expires_in": 3600}`, tokenCalls)
	})
	mux.HandleFunc("/r/golang/top.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingJSON(fmt.Sprintf(`{"title": "a", "url": "https://example.com/a", "created_utc": %d}`, recent)))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := newOAuthTestClient(ts)

	_, err := client.FetchTop(context.Background(), "golang", 20)
	require.NoError(t, err)
	_, err = client.FetchTop(context.Background(), "golang", 20)
	require.NoError(t, err)
	assert.Equal(t, 1, tokenCalls, "a fresh token must be reused across fetches")

	// Push the token inside the one-minute early-refresh margin, the next
	// fetch must go back to the token endpoint.
	client.tokenExpiry = time.Now().Add(30 * time.Second)
	_, err = client.FetchTop(context.Background(), "golang", 20)
	require.NoError(t, err)
	assert.Equal(t, 2, tokenCalls)
}

func TestFetchTop_EmptyAccessTokenIsAnError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token": "", "expires_in": 3600}`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := newOAuthTestClient(ts)
	_, err := client.FetchTop(context.Background(), "golang", 20)

	require.Error(t, err)
}

func TestFetchTop_TokenEndpointFailureIsAnError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := newOAuthTestClient(ts)
	_, err := client.FetchTop(context.Background(), "golang", 20)

	require.Error(t, err)
}

func TestFetchTop_Non200IsAnError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	client := NewClientWithBaseURL(ts.URL)
	_, err := client.FetchTop(context.Background(), "golang", 20)

	require.Error(t, err)
}

func TestFetchTop_EmptyListingYieldsEmptySlice(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingJSON())
	}))
	defer ts.Close()

	client := NewClientWithBaseURL(ts.URL)
	posts, err := client.FetchTop(context.Background(), "golang", 20)

	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Len(t, posts, 0)
}
