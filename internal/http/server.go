package httpapp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/campfire-hq/campfire/internal/auth"
	"github.com/campfire-hq/campfire/internal/config"
	"github.com/campfire-hq/campfire/internal/content"
	"github.com/campfire-hq/campfire/internal/model"
	"github.com/campfire-hq/campfire/internal/store"

	_ "github.com/campfire-hq/campfire/docs" // swagger docs

	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

type Server struct {
	store   store.Store
	auth    *auth.Service
	content *content.Service
	cfg     config.Config
}

func NewServer(store store.Store, authSvc *auth.Service, contentSvc *content.Service, cfg config.Config) *Server {
	return &Server{store: store, auth: authSvc, content: contentSvc, cfg: cfg}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if strings.HasPrefix(path, "/api/") {
		s.handleAPI(w, r)
		return
	}
	if strings.HasPrefix(path, "/swagger/") {
		httpSwagger.WrapHandler.ServeHTTP(w, r)
		return
	}
	if path == "/docs" || path == "/docs/" {
		http.Redirect(w, r, "/swagger/index.html", http.StatusFound)
		return
	}
	notFound(w)
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api")
	segments := splitPath(path)

	switch {
	case len(segments) == 2 && segments[0] == "auth" && segments[1] == "register":
		if r.Method == http.MethodPost {
			s.handleRegister(w, r)
			return
		}
	case len(segments) == 2 && segments[0] == "auth" && segments[1] == "login":
		if r.Method == http.MethodPost {
			s.handleLogin(w, r)
			return
		}
	case len(segments) == 2 && segments[0] == "auth" && segments[1] == "logout":
		if r.Method == http.MethodPost {
			s.handleLogout(w, r)
			return
		}
	case len(segments) == 1 && segments[0] == "users":
		if r.Method == http.MethodGet {
			s.handleListUsers(w, r)
			return
		}
	case len(segments) == 2 && segments[0] == "users" && segments[1] == "profile":
		if r.Method == http.MethodGet {
			s.handleProfile(w, r)
			return
		}
	case len(segments) == 1 && segments[0] == "posts":
		if r.Method == http.MethodPost {
			s.handleCreatePost(w, r)
			return
		}
		if r.Method == http.MethodGet {
			s.handleListPosts(w, r)
			return
		}
	case len(segments) == 2 && segments[0] == "posts" && segments[1] == "mine":
		if r.Method == http.MethodGet {
			s.handleMyPosts(w, r)
			return
		}
	case len(segments) == 2 && segments[0] == "posts":
		if r.Method == http.MethodGet {
			s.handleGetPost(w, r, segments[1])
			return
		}
		if r.Method == http.MethodDelete {
			s.handleDeletePost(w, r, segments[1])
			return
		}
	case len(segments) == 3 && segments[0] == "posts" && segments[2] == "comments":
		if r.Method == http.MethodPost {
			s.handleAddComment(w, r, segments[1])
			return
		}
	case len(segments) == 3 && segments[0] == "posts" && segments[2] == "votes":
		if r.Method == http.MethodPost {
			s.handleCastVote(w, r, segments[1])
			return
		}
	case len(segments) == 1 && segments[0] == "openapi.json":
		if r.Method == http.MethodGet {
			s.serveOpenAPIJSON(w, r)
			return
		}
	}

	notFound(w)
}

// handleRegister godoc
//
//	@Summary		Register a new user
//	@Description	Create a user account and receive a bearer token.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			user	body		object{username=string,password=string,email=string,name=string,surname=string,birthdate=string,gender=string,avatar_url=string}	true	"Registration data"
//	@Success		201		{object}	map[string]interface{}	"Token"
//	@Failure		400		{object}	map[string]string		"Username taken or invalid input"
//	@Router			/api/auth/register [post]
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username  string `json:"username"`
		Password  string `json:"password"`
		Email     string `json:"email"`
		Name      string `json:"name"`
		Surname   string `json:"surname"`
		Birthdate string `json:"birthdate"`
		Gender    string `json:"gender"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	user, token, err := s.auth.Register(r.Context(), auth.Registration{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		Name:      req.Name,
		Surname:   req.Surname,
		Birthdate: req.Birthdate,
		Gender:    req.Gender,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":      "User registered successfully",
		"access_token": token,
		"username":     user.Username,
	})
}

// handleLogin godoc
//
//	@Summary		Log in
//	@Description	Exchange a username/password pair for a bearer token.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			credentials	body		object{username=string,password=string}	true	"Credentials"
//	@Success		200			{object}	map[string]interface{}	"Token"
//	@Failure		401			{object}	map[string]string		"Invalid credentials"
//	@Router			/api/auth/login [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	user, token, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Login successful",
		"access_token": token,
		"username":     user.Username,
	})
}

// handleLogout godoc
//
//	@Summary		Log out
//	@Description	Acknowledge logout. Tokens are stateless; the client discards its copy.
//	@Tags			Auth
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	map[string]string	"Acknowledgement"
//	@Failure		401	{object}	map[string]string	"Authentication required"
//	@Router			/api/auth/logout [post]
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAuth(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Logout successful"})
}

// handleProfile godoc
//
//	@Summary		Get own profile
//	@Tags			Users
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	map[string]string	"Profile"
//	@Failure		401	{object}	map[string]string	"Authentication required"
//	@Router			/api/users/profile [get]
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"username": user.Username,
		"email":    user.Email,
		"name":     user.Name,
		"surname":  user.Surname,
	})
}

// handleListUsers godoc
//
//	@Summary		List users
//	@Tags			Users
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}	"Users list"
//	@Router			/api/users [get]
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	summaries := make([]map[string]any, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, map[string]any{
			"id":         u.ID,
			"username":   u.Username,
			"name":       u.Name,
			"surname":    u.Surname,
			"avatar_url": u.AvatarURL,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": summaries})
}

// handleCreatePost godoc
//
//	@Summary		Create a post
//	@Description	Create a new post authored by the authenticated user.
//	@Tags			Posts
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			post	body		object{title=string,content=string}	true	"Post data"
//	@Success		201		{object}	model.Post
//	@Failure		400		{object}	map[string]string	"Validation error"
//	@Failure		401		{object}	map[string]string	"Authentication required"
//	@Router			/api/posts [post]
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	post, err := s.content.CreatePost(r.Context(), user.ID, req.Title, req.Content)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Post created successfully",
		"post":    post,
	})
}

// handleListPosts godoc
//
//	@Summary		List all posts
//	@Tags			Posts
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}	"Posts list"
//	@Router			/api/posts [get]
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.content.ListAllPosts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

// handleMyPosts godoc
//
//	@Summary		List own posts
//	@Tags			Posts
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	map[string]interface{}	"Posts list"
//	@Failure		401	{object}	map[string]string	"Authentication required"
//	@Router			/api/posts/mine [get]
func (s *Server) handleMyPosts(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	posts, err := s.content.ListPostsByAuthor(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

// handleGetPost godoc
//
//	@Summary		Get a post
//	@Description	Get a post with its comments and votes.
//	@Tags			Posts
//	@Produce		json
//	@Param			id	path		string	true	"Post ID"
//	@Success		200	{object}	model.Post
//	@Failure		404	{object}	map[string]string	"Post not found"
//	@Router			/api/posts/{id} [get]
func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request, id string) {
	post, err := s.content.GetPost(r.Context(), id)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"post": post})
}

// handleDeletePost godoc
//
//	@Summary		Delete a post
//	@Description	Delete one of your own posts. Deleting someone else's post reports not found.
//	@Tags			Posts
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Post ID"
//	@Success		200	{object}	map[string]string	"Acknowledgement"
//	@Failure		401	{object}	map[string]string	"Authentication required"
//	@Failure		404	{object}	map[string]string	"Post not found"
//	@Router			/api/posts/{id} [delete]
func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	if err := s.content.DeletePost(r.Context(), id, user.ID); err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Post deleted successfully"})
}

// handleAddComment godoc
//
//	@Summary		Comment on a post
//	@Description	Append a comment to a post. Requires authentication.
//	@Tags			Comments
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string					true	"Post ID"
//	@Param			comment	body		object{content=string}	true	"Comment data"
//	@Success		201		{object}	model.Post
//	@Failure		400		{object}	map[string]string	"Empty content"
//	@Failure		401		{object}	map[string]string	"Authentication required"
//	@Failure		404		{object}	map[string]string	"Post not found"
//	@Router			/api/posts/{id}/comments [post]
func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request, postID string) {
	user, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	post, err := s.content.AddComment(r.Context(), postID, user.ID, req.Content)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Comment added successfully",
		"post":    post,
	})
}

// handleCastVote godoc
//
//	@Summary		Vote on a post
//	@Description	Cast or change your vote on a post. A second vote replaces the first.
//	@Tags			Votes
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string				true	"Post ID"
//	@Param			vote	body		object{kind=string}	true	"Vote kind (upvote or downvote)"
//	@Success		201		{object}	model.Post
//	@Failure		400		{object}	map[string]string	"Invalid vote kind"
//	@Failure		401		{object}	map[string]string	"Authentication required"
//	@Failure		404		{object}	map[string]string	"Post not found"
//	@Router			/api/posts/{id}/votes [post]
func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request, postID string) {
	user, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	var req struct {
		Kind string `json:"kind"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	post, err := s.content.CastVote(r.Context(), postID, user.ID, model.VoteKind(req.Kind))
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Vote recorded successfully",
		"post":    post,
	})
}

func (s *Server) serveOpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write([]byte(doc))
}

// requireAuth resolves the bearer token to a user. Every failure mode gets
// the same 401 body, so probes cannot tell a missing header from a bad or
// expired token.
func (s *Server) requireAuth(w http.ResponseWriter, r *http.Request) (model.User, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		writeError(w, http.StatusUnauthorized, auth.ErrUnauthorized)
		return model.User{}, false
	}
	bearer := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	user, err := s.auth.Authenticate(r.Context(), bearer)
	if err != nil {
		writeError(w, http.StatusUnauthorized, auth.ErrUnauthorized)
		return model.User{}, false
	}
	return user, true
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrUsernameTaken),
		errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, content.ErrInvalidInput),
		errors.Is(err, content.ErrEmptyContent),
		errors.Is(err, content.ErrInvalidVoteKind):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, content.ErrPostNotFound), errors.Is(err, content.ErrUserNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func readJSON(body io.ReadCloser, dest any) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, errors.New("not found"))
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
