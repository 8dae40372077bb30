package store

import (
	"context"
	"errors"

	"github.com/campfire-hq/campfire/internal/model"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("duplicate username")
)

type Store interface {
	UserStore
	PostStore
	CommentStore
	VoteStore
	Close() error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (model.User, error)
	FindUserByUsername(ctx context.Context, username string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}

type PostStore interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id string) (model.Post, error)
	ListPosts(ctx context.Context) ([]model.Post, error)
	ListPostsByAuthor(ctx context.Context, authorID string) ([]model.Post, error)
	// DeletePostByAuthor deletes the post only when authorID matches; a
	// missing post and a foreign post are both ErrNotFound.
	DeletePostByAuthor(ctx context.Context, postID, authorID string) error
}

type CommentStore interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	ListCommentsByPost(ctx context.Context, postID string) ([]model.Comment, error)
}

type VoteStore interface {
	// UpsertVote inserts the vote or, when the user already voted on the
	// post, overwrites the existing row's kind in the same statement.
	UpsertVote(ctx context.Context, vote *model.Vote) error
	GetVote(ctx context.Context, postID, userID string) (model.Vote, error)
	ListVotesByPost(ctx context.Context, postID string) ([]model.Vote, error)
}
