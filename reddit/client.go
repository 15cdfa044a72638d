package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jotagep/redditlens/model"
	"github.com/jotagep/redditlens/utils"
	Logger "github.com/jotagep/redditlens/utils/log"
	"github.com/pkg/errors"
)

const (
	publicBaseURL = "https://www.reddit.com"
	oauthBaseURL  = "https://oauth.reddit.com"
	tokenURL      = "https://www.reddit.com/api/v1/access_token"

	defaultUserAgent = "redditlens/1.0"

	// How far back the retrieval window reaches. Upstream "top of day" can
	// still return slightly older items, we filter those out ourselves.
	retrievalWindow = 24 * time.Hour
)

// placeholder thumbnail markers reddit returns for posts without a real
// thumbnail url
var placeholderThumbnails = []string{"self", "default", "nsfw", "spoiler", "image", ""}

type credentials struct {
	clientID     string
	clientSecret string
	username     string
	password     string
}

func (c credentials) complete() bool {
	return c.clientID != "" && c.clientSecret != "" && c.username != "" && c.password != ""
}

// Client fetches top posts of a subreddit through the reddit json api.
//
// When REDDIT_CLIENT_ID, REDDIT_CLIENT_SECRET, REDDIT_USERNAME and
// REDDIT_PASSWORD are all set the client authenticates with the script-app
// password grant and talks to oauth.reddit.com, otherwise it falls back to the
// anonymous public listing endpoint. Either way every request carries a
// descriptive User-Agent, which reddit requires.
type Client struct {
	baseURL   string
	oauthBase string
	authURL   string
	userAgent string
	creds     credentials
	client    *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient builds a client configured from the environment.
func NewClient() *Client {
	return &Client{
		baseURL:   publicBaseURL,
		oauthBase: oauthBaseURL,
		authURL:   tokenURL,
		userAgent: defaultUserAgent,
		creds: credentials{
			clientID:     os.Getenv("REDDIT_CLIENT_ID"),
			clientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
			username:     os.Getenv("REDDIT_USERNAME"),
			password:     os.Getenv("REDDIT_PASSWORD"),
		},
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// NewClientWithBaseURL builds an anonymous client against a custom endpoint,
// used by tests to point at a local fake.
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL:   baseURL,
		oauthBase: baseURL,
		authURL:   baseURL + "/api/v1/access_token",
		userAgent: defaultUserAgent,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

type listingPost struct {
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Url         string  `json:"url"`
	Author      string  `json:"author"`
	CreatedUtc  float64 `json:"created_utc"`
	NumComments int     `json:"num_comments"`
	Score       int     `json:"score"`
	Thumbnail   string  `json:"thumbnail"`
	Permalink   string  `json:"permalink"`
}

type listingResponse struct {
	Data struct {
		Children []struct {
			Data listingPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// FetchTop returns the top posts of the given forum from the last 24 hours,
// newest window only, at most limit entries. Returned posts are normalized
// but carry no Id yet, ids are assigned when the store persists them.
func (c *Client) FetchTop(ctx context.Context, forumName string, limit int) ([]*model.Post, error) {
	base := c.baseURL
	header := http.Header{}
	header.Set("User-Agent", c.userAgent)

	if c.creds.complete() {
		token, err := c.accessToken(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "reddit: fetch access token")
		}
		base = c.oauthBase
		header.Set("Authorization", "Bearer "+token)
	}

	uri := fmt.Sprintf("%s/r/%s/top.json?t=day&limit=%d&raw_json=1", base, url.PathEscape(forumName), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, errors.Wrap(err, "reddit: build request")
	}
	req.Header = header

	res, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "reddit: get top posts for r/%s", forumName)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		Logger.Log.Errorf("non-200 reddit response %d for r/%s: %s", res.StatusCode, forumName, strings.TrimSpace(string(body)))
		return nil, errors.Errorf("reddit: unexpected status %d for r/%s", res.StatusCode, forumName)
	}

	resp := &listingResponse{}
	if err := json.NewDecoder(res.Body).Decode(resp); err != nil {
		return nil, errors.Wrap(err, "reddit: decode listing")
	}

	oneDayAgo := time.Now().Add(-retrievalWindow)
	posts := []*model.Post{}
	for _, child := range resp.Data.Children {
		post := normalizePost(child.Data)
		if post.PostedAt.Before(oneDayAgo) {
			continue
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func normalizePost(raw listingPost) *model.Post {
	uri := raw.Url
	if uri == "" && raw.Permalink != "" {
		uri = publicBaseURL + raw.Permalink
	}
	thumbnail := raw.Thumbnail
	if utils.ContainsString(placeholderThumbnails, thumbnail) {
		thumbnail = ""
	}
	return &model.Post{
		Title:       raw.Title,
		Content:     raw.Selftext,
		Author:      raw.Author,
		Url:         uri,
		Thumbnail:   thumbnail,
		PostedAt:    time.Unix(int64(raw.CreatedUtc), 0),
		NumComments: raw.NumComments,
		Score:       raw.Score,
	}
}

// accessToken returns a cached oauth token, refreshing it through the
// password grant when missing or about to expire.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", c.creds.username)
	form.Set("password", c.creds.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.creds.clientID, c.creds.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return "", errors.Errorf("token endpoint returned status %d", res.StatusCode)
	}

	token := tokenResponse{}
	if err := json.NewDecoder(res.Body).Decode(&token); err != nil {
		return "", err
	}
	if token.AccessToken == "" {
		return "", errors.New("token endpoint returned an empty access token")
	}

	c.token = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	return c.token, nil
}
