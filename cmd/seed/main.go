package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/campfire-hq/campfire/internal/client"
)

var users = []struct {
	username string
	name     string
	surname  string
}{
	{"alice", "Alice", "Anders"},
	{"bob", "Bob", "Baker"},
	{"carol", "Carol", "Chen"},
	{"dave", "Dave", "Diaz"},
	{"erin", "Erin", "Evans"},
}

var posts = []struct {
	title   string
	content string
}{
	{"Hello Campfire", "First post on the platform. Excited to be here!"},
	{"Morning coffee thoughts", "Is there anything better than the first cup of the day?"},
	{"Weekend hike recap", "12km along the ridge trail. Photos soon."},
	{"Reading recommendations?", "Looking for good non-fiction. What are you all reading?"},
	{"Small wins", "Finally fixed that flaky test that has haunted me for weeks."},
	{"City at night", "The skyline from the east bridge never gets old."},
	{"New recipe attempt", "Tried making ramen from scratch. 7/10, would broth again."},
	{"Thought of the day", "Write the post you would want to read."},
}

var comments = []string{
	"Great post!",
	"Couldn't agree more.",
	"Thanks for sharing this.",
	"This made my day.",
	"Interesting take. Tell us more?",
	"Saving this for later.",
	"Same here!",
	"Well said.",
	"I had the exact opposite experience, funny enough.",
	"More of this, please.",
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Campfire server URL")
	flag.Parse()

	log.Printf("Seeding database at %s...\n", *baseURL)

	// Register all users and keep their clients
	var clients []*client.Client
	for _, u := range users {
		c := client.New(*baseURL)
		err := c.Register(client.Registration{
			Username: u.username,
			Password: "seed-password",
			Email:    u.username + "@example.com",
			Name:     u.name,
			Surname:  u.surname,
		})
		if errors.Is(err, client.ErrUsernameTaken) {
			err = c.Login(u.username, "seed-password")
		}
		if err != nil {
			log.Fatalf("register %s: %v", u.username, err)
		}
		log.Printf("✓ Registered user: %s", u.username)
		clients = append(clients, c)
	}

	// Create posts from random users
	var postIDs []string
	for _, p := range posts {
		userIdx := rand.Intn(len(clients))
		c := clients[userIdx]

		post, err := c.CreatePost(p.title, p.content)
		if err != nil {
			log.Printf("✗ Failed to create post: %v", err)
			continue
		}
		postIDs = append(postIDs, post.ID)
		log.Printf("✓ Created post %s: %s (by %s)", post.ID, p.title, users[userIdx].username)

		// Small delay to spread out created_at times
		time.Sleep(50 * time.Millisecond)
	}

	// Add comments from random users
	for _, postID := range postIDs {
		// 1-4 comments per post
		numComments := rand.Intn(4) + 1
		for i := 0; i < numComments; i++ {
			userIdx := rand.Intn(len(clients))
			c := clients[userIdx]
			text := comments[rand.Intn(len(comments))]

			if _, err := c.AddComment(postID, text); err != nil {
				log.Printf("✗ Failed to comment: %v", err)
				continue
			}
			log.Printf("✓ Comment on post %s (by %s)", postID, users[userIdx].username)
		}
	}

	// Vote on posts; a repeat vote by the same user just changes the kind
	for _, c := range clients {
		numVotes := rand.Intn(len(postIDs)/2) + 1
		for i := 0; i < numVotes; i++ {
			postID := postIDs[rand.Intn(len(postIDs))]

			kind := "upvote"
			if rand.Float32() < 0.2 { // 20% chance of downvote
				kind = "downvote"
			}

			if _, err := c.Vote(postID, kind); err != nil {
				log.Printf("✗ Failed to vote: %v", err)
			}
		}
	}
	log.Printf("✓ Added votes")

	// Print summary
	fmt.Println("\n=== Seed Complete ===")
	fmt.Printf("Users:  %d\n", len(users))
	fmt.Printf("Posts:  %d\n", len(postIDs))
	fmt.Println("\nView at:", *baseURL+"/swagger/index.html")
}
