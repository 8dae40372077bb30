package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/campfire-hq/campfire/internal/model"
	"github.com/campfire-hq/campfire/internal/store"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return st
}

func createTestUser(t *testing.T, st *Store, username string) model.User {
	t.Helper()
	user := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
	}
	if err := st.CreateUser(context.Background(), &user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createTestPost(t *testing.T, st *Store, authorID, title string) model.Post {
	t.Helper()
	post := model.Post{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Title:     title,
		Content:   "body",
		CreatedAt: time.Now(),
	}
	if err := st.CreatePost(context.Background(), &post); err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

func TestPostLifecycle(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	user := createTestUser(t, st, "alice")
	post := createTestPost(t, st, user.ID, "Test Post")

	got, err := st.GetPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if got.Title != post.Title {
		t.Fatalf("unexpected title: %s", got.Title)
	}
	if got.AuthorUsername != "alice" {
		t.Fatalf("expected author username, got %q", got.AuthorUsername)
	}

	for _, text := range []string{"first", "second", "third"} {
		comment := model.Comment{
			ID:        uuid.NewString(),
			PostID:    post.ID,
			AuthorID:  user.ID,
			Content:   text,
			CreatedAt: time.Now(),
		}
		if err := st.CreateComment(context.Background(), &comment); err != nil {
			t.Fatalf("create comment: %v", err)
		}
	}

	comments, err := st.ListCommentsByPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 3 {
		t.Fatalf("expected 3 comments, got %d", len(comments))
	}
	if comments[0].Content != "first" || comments[2].Content != "third" {
		t.Fatalf("comments out of insertion order: %v", comments)
	}
}

func TestDuplicateUsername(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	createTestUser(t, st, "alice")

	dup := model.User{
		ID:           uuid.NewString(),
		Username:     "alice",
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
	}
	err := st.CreateUser(context.Background(), &dup)
	if !errors.Is(err, store.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestVoteUpsert(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	user := createTestUser(t, st, "alice")
	post := createTestPost(t, st, user.ID, "Votable")

	first := model.Vote{
		ID:        uuid.NewString(),
		PostID:    post.ID,
		UserID:    user.ID,
		Kind:      model.VoteUp,
		CreatedAt: time.Now(),
	}
	if err := st.UpsertVote(context.Background(), &first); err != nil {
		t.Fatalf("first vote: %v", err)
	}

	second := model.Vote{
		ID:        uuid.NewString(),
		PostID:    post.ID,
		UserID:    user.ID,
		Kind:      model.VoteDown,
		CreatedAt: time.Now(),
	}
	if err := st.UpsertVote(context.Background(), &second); err != nil {
		t.Fatalf("second vote: %v", err)
	}

	votes, err := st.ListVotesByPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("list votes: %v", err)
	}
	if len(votes) != 1 {
		t.Fatalf("expected 1 vote after re-vote, got %d", len(votes))
	}
	if votes[0].Kind != model.VoteDown {
		t.Fatalf("expected kind downvote, got %s", votes[0].Kind)
	}
	if votes[0].ID != first.ID {
		t.Fatalf("expected original vote row to survive, got %s", votes[0].ID)
	}

	got, err := st.GetVote(context.Background(), post.ID, user.ID)
	if err != nil {
		t.Fatalf("get vote: %v", err)
	}
	if got.Kind != model.VoteDown {
		t.Fatalf("expected downvote, got %s", got.Kind)
	}
}

func TestDeletePostByAuthor(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	alice := createTestUser(t, st, "alice")
	mallory := createTestUser(t, st, "mallory")
	post := createTestPost(t, st, alice.ID, "Mine")

	comment := model.Comment{
		ID:        uuid.NewString(),
		PostID:    post.ID,
		AuthorID:  mallory.ID,
		Content:   "a comment",
		CreatedAt: time.Now(),
	}
	if err := st.CreateComment(context.Background(), &comment); err != nil {
		t.Fatalf("create comment: %v", err)
	}
	vote := model.Vote{
		ID:        uuid.NewString(),
		PostID:    post.ID,
		UserID:    mallory.ID,
		Kind:      model.VoteUp,
		CreatedAt: time.Now(),
	}
	if err := st.UpsertVote(context.Background(), &vote); err != nil {
		t.Fatalf("create vote: %v", err)
	}

	// Someone else cannot delete it
	err := st.DeletePostByAuthor(context.Background(), post.ID, mallory.ID)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
	}

	if err := st.DeletePostByAuthor(context.Background(), post.ID, alice.ID); err != nil {
		t.Fatalf("author delete: %v", err)
	}

	if _, err := st.GetPost(context.Background(), post.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected post gone, got %v", err)
	}
	comments, err := st.ListCommentsByPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 0 {
		t.Fatalf("expected cascade to remove comments, got %d", len(comments))
	}
	votes, err := st.ListVotesByPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("list votes: %v", err)
	}
	if len(votes) != 0 {
		t.Fatalf("expected cascade to remove votes, got %d", len(votes))
	}
}

func TestFindUserByUsername(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	user := createTestUser(t, st, "alice")

	got, err := st.FindUserByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected id %s, got %s", user.ID, got.ID)
	}

	if _, err := st.FindUserByUsername(context.Background(), "nobody"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
