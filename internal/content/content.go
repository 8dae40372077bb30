// Package content implements the identity-bound content graph: posts,
// append-only comments, and single-slot votes. Every mutating operation
// takes the acting user id as an explicit parameter.
package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campfire-hq/campfire/internal/model"
	"github.com/campfire-hq/campfire/internal/store"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound = errors.New("user not found")
	// ErrPostNotFound covers both a missing post and a post the actor may
	// not touch; callers must not be able to tell the two apart.
	ErrPostNotFound    = errors.New("post not found")
	ErrEmptyContent    = errors.New("comment content cannot be empty")
	ErrInvalidVoteKind = errors.New("invalid vote kind")
	ErrInvalidInput    = errors.New("invalid input")
)

type Service struct {
	store store.Store
}

func NewService(store store.Store) *Service {
	return &Service{store: store}
}

func (s *Service) CreatePost(ctx context.Context, authorID, title, body string) (model.Post, error) {
	if strings.TrimSpace(title) == "" {
		return model.Post{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	author, err := s.store.GetUser(ctx, authorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Post{}, ErrUserNotFound
		}
		return model.Post{}, err
	}

	post := model.Post{
		ID:             uuid.NewString(),
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		Title:          title,
		Content:        body,
		CreatedAt:      time.Now(),
		Comments:       []model.Comment{},
		Votes:          []model.Vote{},
	}
	if err := s.store.CreatePost(ctx, &post); err != nil {
		return model.Post{}, err
	}
	return post, nil
}

func (s *Service) GetPost(ctx context.Context, postID string) (model.Post, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Post{}, ErrPostNotFound
		}
		return model.Post{}, err
	}
	return s.hydrate(ctx, post)
}

func (s *Service) ListAllPosts(ctx context.Context) ([]model.Post, error) {
	posts, err := s.store.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	return s.hydrateAll(ctx, posts)
}

func (s *Service) ListPostsByAuthor(ctx context.Context, authorID string) ([]model.Post, error) {
	posts, err := s.store.ListPostsByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	return s.hydrateAll(ctx, posts)
}

// DeletePost removes the post only when actorID is its author. The store
// folds the ownership check into the delete itself, so the same error comes
// back whether the post is missing or owned by someone else.
func (s *Service) DeletePost(ctx context.Context, postID, actorID string) error {
	err := s.store.DeletePostByAuthor(ctx, postID, actorID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrPostNotFound
	}
	return err
}

func (s *Service) AddComment(ctx context.Context, postID, authorID, body string) (model.Post, error) {
	if strings.TrimSpace(body) == "" {
		return model.Post{}, ErrEmptyContent
	}
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Post{}, ErrPostNotFound
		}
		return model.Post{}, err
	}
	author, err := s.store.GetUser(ctx, authorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Post{}, ErrUserNotFound
		}
		return model.Post{}, err
	}

	comment := model.Comment{
		ID:             uuid.NewString(),
		PostID:         post.ID,
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		Content:        body,
		CreatedAt:      time.Now(),
	}
	if err := s.store.CreateComment(ctx, &comment); err != nil {
		return model.Post{}, err
	}
	return s.hydrate(ctx, post)
}

// CastVote records the actor's vote on a post. A repeat cast replaces the
// kind of the existing vote; the (user, post) pair never holds two votes.
func (s *Service) CastVote(ctx context.Context, postID, actorID string, kind model.VoteKind) (model.Post, error) {
	if !kind.Valid() {
		return model.Post{}, ErrInvalidVoteKind
	}
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Post{}, ErrPostNotFound
		}
		return model.Post{}, err
	}

	vote := model.Vote{
		ID:        uuid.NewString(),
		PostID:    post.ID,
		UserID:    actorID,
		Kind:      kind,
		CreatedAt: time.Now(),
	}
	if err := s.store.UpsertVote(ctx, &vote); err != nil {
		return model.Post{}, err
	}
	return s.hydrate(ctx, post)
}

// hydrate attaches the post's comment and vote lists so one read returns
// the full document.
func (s *Service) hydrate(ctx context.Context, post model.Post) (model.Post, error) {
	comments, err := s.store.ListCommentsByPost(ctx, post.ID)
	if err != nil {
		return model.Post{}, err
	}
	votes, err := s.store.ListVotesByPost(ctx, post.ID)
	if err != nil {
		return model.Post{}, err
	}
	post.Comments = comments
	post.Votes = votes
	return post, nil
}

func (s *Service) hydrateAll(ctx context.Context, posts []model.Post) ([]model.Post, error) {
	out := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		hp, err := s.hydrate(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, hp)
	}
	return out, nil
}
