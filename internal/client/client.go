// Package client provides a Go client for the Campfire API.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a Campfire API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      string
}

// New creates a new Campfire client.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Registration holds the fields accepted by the register endpoint.
type Registration struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Surname   string `json:"surname,omitempty"`
	Birthdate string `json:"birthdate,omitempty"`
	Gender    string `json:"gender,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Errors
var (
	ErrUsernameTaken = errors.New("username already exists")
)

// Register creates a new user and stores the returned token on the client.
func (c *Client) Register(reg Registration) error {
	resp, err := c.doRequest(http.MethodPost, "/api/auth/register", reg)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusBadRequest && bytes.Contains(respBody, []byte("username already exists")) {
		return ErrUsernameTaken
	}
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("register failed (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return err
	}
	c.Token = result.AccessToken
	return nil
}

// Login exchanges credentials for a token and stores it on the client.
func (c *Client) Login(username, password string) error {
	resp, err := c.doRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("login failed (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	c.Token = result.AccessToken
	return nil
}

// Logout acknowledges logout with the server and clears the stored token.
func (c *Client) Logout() error {
	resp, err := c.doRequest(http.MethodPost, "/api/auth/logout", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("logout failed (%d): %s", resp.StatusCode, string(respBody))
	}
	c.Token = ""
	return nil
}

// IsAuthenticated returns true if the client holds a token.
func (c *Client) IsAuthenticated() bool {
	return c.Token != ""
}

// doRequest performs an authenticated HTTP request.
func (c *Client) doRequest(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return c.HTTPClient.Do(req)
}

// Post represents a post from the API.
type Post struct {
	ID             string    `json:"id"`
	AuthorID       string    `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Comments       []Comment `json:"comments"`
	Votes          []Vote    `json:"votes"`
}

// Comment represents a comment from the API.
type Comment struct {
	ID             string `json:"id"`
	PostID         string `json:"post_id"`
	AuthorID       string `json:"author_id"`
	AuthorUsername string `json:"author_username"`
	Content        string `json:"content"`
}

// Vote represents a vote from the API.
type Vote struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
	UserID string `json:"user_id"`
	Kind   string `json:"kind"`
}

// Profile is the authenticated user's own profile.
type Profile struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
}

// GetProfile fetches the authenticated user's profile.
func (c *Client) GetProfile() (*Profile, error) {
	resp, err := c.doRequest(http.MethodGet, "/api/users/profile", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get profile failed (%d): %s", resp.StatusCode, string(body))
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// CreatePost creates a new post.
func (c *Client) CreatePost(title, content string) (*Post, error) {
	reqBody := map[string]string{"title": title}
	if content != "" {
		reqBody["content"] = content
	}

	resp, err := c.doRequest(http.MethodPost, "/api/posts", reqBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("create post failed (%d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Post Post `json:"post"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result.Post, nil
}

// GetPosts fetches all posts.
func (c *Client) GetPosts() ([]Post, error) {
	return c.getPosts("/api/posts")
}

// GetMyPosts fetches the authenticated user's posts.
func (c *Client) GetMyPosts() ([]Post, error) {
	return c.getPosts("/api/posts/mine")
}

func (c *Client) getPosts(path string) ([]Post, error) {
	resp, err := c.doRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get posts failed (%d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Posts []Post `json:"posts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return result.Posts, nil
}

// GetPost fetches a single post with its comments and votes.
func (c *Client) GetPost(id string) (*Post, error) {
	resp, err := c.doRequest(http.MethodGet, "/api/posts/"+id, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get post failed (%d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Post Post `json:"post"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result.Post, nil
}

// DeletePost deletes a post you own.
func (c *Client) DeletePost(id string) error {
	resp, err := c.doRequest(http.MethodDelete, "/api/posts/"+id, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete post failed (%d): %s", resp.StatusCode, string(body))
	}
	return nil
}

// AddComment appends a comment to a post and returns the updated post.
func (c *Client) AddComment(postID, content string) (*Post, error) {
	resp, err := c.doRequest(http.MethodPost, "/api/posts/"+postID+"/comments", map[string]string{
		"content": content,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("add comment failed (%d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Post Post `json:"post"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result.Post, nil
}

// Vote casts or changes the user's vote on a post and returns the updated post.
func (c *Client) Vote(postID, kind string) (*Post, error) {
	resp, err := c.doRequest(http.MethodPost, "/api/posts/"+postID+"/votes", map[string]string{
		"kind": kind,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("vote failed (%d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Post Post `json:"post"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result.Post, nil
}

// User is a public user summary from the directory.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Surname   string `json:"surname"`
	AvatarURL string `json:"avatar_url"`
}

// GetUsers fetches the public user directory.
func (c *Client) GetUsers() ([]User, error) {
	resp, err := c.doRequest(http.MethodGet, "/api/users", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get users failed (%d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Users []User `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return result.Users, nil
}

// TestHelper provides utilities for creating authenticated clients in tests.
type TestHelper struct {
	BaseURL string
}

// NewTestHelper creates a new test helper for the given base URL.
func NewTestHelper(baseURL string) *TestHelper {
	return &TestHelper{BaseURL: baseURL}
}

// CreateAuthenticatedClient registers a user with the given username and
// returns an authenticated client. This is a convenience method for tests.
func (h *TestHelper) CreateAuthenticatedClient(username string) (*Client, error) {
	c := New(h.BaseURL)
	err := c.Register(Registration{Username: username, Password: "test-password"})
	if errors.Is(err, ErrUsernameTaken) {
		err = c.Login(username, "test-password")
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetToken registers a user (if needed) and returns an access token.
// This is a convenience method for tests that need just the token string.
func (h *TestHelper) GetToken(username string) (string, error) {
	c, err := h.CreateAuthenticatedClient(username)
	if err != nil {
		return "", err
	}
	return c.Token, nil
}
