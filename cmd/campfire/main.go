package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/campfire-hq/campfire/internal/auth"
	"github.com/campfire-hq/campfire/internal/client"
	"github.com/campfire-hq/campfire/internal/config"
	"github.com/campfire-hq/campfire/internal/content"
	httpapp "github.com/campfire-hq/campfire/internal/http"
	"github.com/campfire-hq/campfire/internal/store/sqlite"

	"github.com/joho/godotenv"
)

// CLIConfig holds the CLI client configuration persisted to disk.
type CLIConfig struct {
	BaseURL  string `json:"base_url"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

func main() {
	if len(os.Args) < 2 {
		runServer()
		return
	}

	cmd := os.Args[1]

	// Handle --help and -h before defaulting to server
	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		printUsage()
		return
	}

	if cmd == "-v" || cmd == "--version" || cmd == "version" {
		fmt.Println("campfire v0.1.0")
		return
	}

	if strings.HasPrefix(cmd, "-") {
		runServer()
		return
	}

	args := os.Args[2:]

	switch cmd {
	case "server", "serve":
		runServer()
	case "register":
		cmdRegister(args)
	case "login":
		cmdLogin(args)
	case "logout":
		cmdLogout(args)
	case "post":
		cmdPost(args)
	case "comment":
		cmdComment(args)
	case "vote":
		cmdVote(args)
	case "delete", "rm":
		cmdDelete(args)
	case "read", "list":
		cmdRead(args)
	case "status", "whoami":
		cmdStatus(args)
	case "users":
		cmdUsers(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`campfire - Micro blogging platform

Usage: campfire <command> [options]

Quick Start:
  campfire register --username alice --password secret123
  campfire post --title "Hello" --content "My first post"

Client Commands:
  register            Create an account and log in
  login               Log in with an existing account
  logout              Log out and discard the stored token
  post                Publish a new post
  comment             Comment on a post
  vote                Upvote or downvote a post
  delete              Delete your own post
  read                Read posts
  status              Show current config and token status
  users               List registered users

Server:
  server              Start the Campfire server (default if no command)

Examples:
  campfire register --username alice --password secret123 --name Alice
  campfire post --title "Campfire thoughts" --content "Short and sweet"
  campfire comment --post <id> --content "Great post!"
  campfire vote --post <id> --up
  campfire read --post <id>                         # View post with comments

Environment Variables (server):
  CAMPFIRE_ADDR             Listen address (default: :8080)
  CAMPFIRE_DB               Database path (default: campfire.db)
  CAMPFIRE_JWT_SECRET       Token signing secret
  CAMPFIRE_TOKEN_TTL        Token lifetime (default: 24h)
  CAMPFIRE_BCRYPT_COST      Password hash cost (default: 10)
  CAMPFIRE_MIN_PASSWORD_LEN Minimum password length (default: 6)`)
}

// ============================================================================
// SERVER
// ============================================================================

func runServer() {
	_ = godotenv.Load()
	cfg := config.Load()

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer store.Close()

	authSvc := auth.NewService(store, cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost, cfg.MinPasswordLen)
	contentSvc := content.NewService(store)

	server := httpapp.NewServer(store, authSvc, contentSvc, cfg)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("campfire listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
}

// ============================================================================
// CLIENT COMMANDS
// ============================================================================

func cmdRegister(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("username", "", "Username (required)")
	password := fs.String("password", "", "Password (required)")
	email := fs.String("email", "", "Email address")
	name := fs.String("name", "", "First name")
	surname := fs.String("surname", "", "Surname")
	url := fs.String("url", "http://localhost:8080", "Campfire server URL")
	fs.Parse(args)

	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "Error: --username and --password are required")
		fmt.Fprintln(os.Stderr, "Usage: campfire register --username <name> --password <password>")
		os.Exit(1)
	}

	c := client.New(strings.TrimSuffix(*url, "/"))
	err := c.Register(client.Registration{
		Username: *username,
		Password: *password,
		Email:    *email,
		Name:     *name,
		Surname:  *surname,
	})
	if errors.Is(err, client.ErrUsernameTaken) {
		fmt.Fprintf(os.Stderr, "Error: username '%s' is taken; try 'campfire login'\n", *username)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := CLIConfig{BaseURL: c.BaseURL, Username: *username, Token: c.Token}
	if err := saveCLIConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Registered '%s'\n", *username)
	fmt.Printf("  Config: %s\n", cliConfigPath())
	fmt.Println("\nReady to post! Example:")
	fmt.Println("  campfire post --title \"Hello Campfire\" --content \"My first post\"")
}

func cmdLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("username", "", "Username (required)")
	password := fs.String("password", "", "Password (required)")
	url := fs.String("url", "", "Campfire server URL (defaults to saved config)")
	fs.Parse(args)

	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "Error: --username and --password are required")
		os.Exit(1)
	}

	baseURL := *url
	if baseURL == "" {
		if cfg, err := loadCLIConfig(); err == nil {
			baseURL = cfg.BaseURL
		}
	}
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	c := client.New(strings.TrimSuffix(baseURL, "/"))
	if err := c.Login(*username, *password); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := CLIConfig{BaseURL: c.BaseURL, Username: *username, Token: c.Token}
	if err := saveCLIConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Logged in as '%s'\n", *username)
}

func cmdLogout(args []string) {
	c, cfg, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := c.Logout(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg.Token = ""
	if err := saveCLIConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Logged out '%s'\n", cfg.Username)
}

func cmdPost(args []string) {
	fs := flag.NewFlagSet("post", flag.ExitOnError)
	title := fs.String("title", "", "Post title (required)")
	body := fs.String("content", "", "Post content")
	fs.Parse(args)

	if *title == "" {
		fmt.Fprintln(os.Stderr, "Error: --title is required")
		os.Exit(1)
	}

	c, _, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	post, err := c.CreatePost(*title, *body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Posted: %s\n", *title)
	fmt.Printf("  ID: %s\n", post.ID)
}

func cmdComment(args []string) {
	fs := flag.NewFlagSet("comment", flag.ExitOnError)
	postID := fs.String("post", "", "Post ID (required)")
	body := fs.String("content", "", "Comment text (required)")
	fs.Parse(args)

	if *postID == "" || *body == "" {
		fmt.Fprintln(os.Stderr, "Error: --post and --content are required")
		os.Exit(1)
	}

	c, _, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	post, err := c.AddComment(*postID, *body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Commented on post %s (%d comments)\n", post.ID, len(post.Comments))
}

func cmdVote(args []string) {
	fs := flag.NewFlagSet("vote", flag.ExitOnError)
	postID := fs.String("post", "", "Post ID (required)")
	up := fs.Bool("up", false, "Upvote")
	down := fs.Bool("down", false, "Downvote")
	fs.Parse(args)

	if *postID == "" {
		fmt.Fprintln(os.Stderr, "Error: --post is required")
		os.Exit(1)
	}
	if (*up && *down) || (!*up && !*down) {
		fmt.Fprintln(os.Stderr, "Error: provide exactly one of --up or --down")
		os.Exit(1)
	}

	c, _, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	kind := "upvote"
	if *down {
		kind = "downvote"
	}

	if _, err := c.Vote(*postID, kind); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	action := "Upvoted"
	if *down {
		action = "Downvoted"
	}
	fmt.Printf("✓ %s post %s\n", action, *postID)
}

func cmdDelete(args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	postID := fs.String("post", "", "Post ID to delete")
	fs.Parse(args)

	if *postID == "" {
		fmt.Fprintln(os.Stderr, "Error: --post is required")
		fmt.Fprintln(os.Stderr, "Usage: campfire delete --post <id>")
		os.Exit(1)
	}

	c, _, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := c.DeletePost(*postID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Deleted post %s\n", *postID)
}

func cmdRead(args []string) {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	postID := fs.String("post", "", "Get specific post with comments")
	mine := fs.Bool("mine", false, "Only your own posts")
	fs.Parse(args)

	cfg, _ := loadCLIConfig()
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	c := client.New(baseURL)
	c.Token = cfg.Token

	if *postID != "" {
		post, err := c.GetPost(*postID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		printPost(post)
		return
	}

	var posts []client.Post
	var err error
	if *mine {
		posts, err = c.GetMyPosts()
	} else {
		posts, err = c.GetPosts()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n🔥 Campfire\n\n")
	for i, p := range posts {
		fmt.Printf("%d. %s\n", i+1, p.Title)
		fmt.Printf("   by %s | %d comments | %d votes | %s\n\n",
			p.AuthorUsername, len(p.Comments), len(p.Votes), p.ID)
	}
}

func printPost(post *client.Post) {
	fmt.Printf("\n%s\n", post.Title)
	fmt.Printf("  by %s | %d comments | %d votes\n", post.AuthorUsername, len(post.Comments), len(post.Votes))
	if post.Content != "" {
		fmt.Printf("\n  %s\n", post.Content)
	}
	if len(post.Comments) > 0 {
		fmt.Printf("\n  --- Comments (%d) ---\n", len(post.Comments))
		for _, comment := range post.Comments {
			fmt.Printf("  %s: %s\n", comment.AuthorUsername, comment.Content)
		}
	}
}

func cmdStatus(args []string) {
	cfg, err := loadCLIConfig()
	if err != nil {
		fmt.Println("Status: Not initialized")
		fmt.Println("\nRun: campfire register --username <name> --password <password>")
		return
	}

	fmt.Printf("User:   %s\n", cfg.Username)
	fmt.Printf("Server: %s\n", cfg.BaseURL)

	if cfg.Token == "" {
		fmt.Println("Token:  Not authenticated")
		fmt.Println("\nRun: campfire login")
		return
	}

	c := client.New(cfg.BaseURL)
	c.Token = cfg.Token
	if profile, err := c.GetProfile(); err == nil {
		fmt.Printf("Token:  Valid (profile: %s %s)\n", profile.Name, profile.Surname)
	} else {
		fmt.Println("Token:  Expired or invalid")
		fmt.Println("\nRun: campfire login")
	}
}

func cmdUsers(args []string) {
	cfg, _ := loadCLIConfig()
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	users, err := client.New(baseURL).GetUsers()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(users) == 0 {
		fmt.Println("No users registered")
		return
	}
	fmt.Println("Users:")
	for _, u := range users {
		fmt.Printf("  %s", u.Username)
		if u.Name != "" || u.Surname != "" {
			fmt.Printf(" (%s %s)", u.Name, u.Surname)
		}
		fmt.Println()
	}
}

// ============================================================================
// HELPERS
// ============================================================================

func campfireDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".campfire")
}

func cliConfigPath() string {
	return filepath.Join(campfireDir(), "config.json")
}

func loadCLIConfig() (CLIConfig, error) {
	data, err := os.ReadFile(cliConfigPath())
	if err != nil {
		return CLIConfig{}, errors.New("not initialized - run 'campfire register' or 'campfire login'")
	}
	var cfg CLIConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, err
	}
	return cfg, nil
}

func saveCLIConfig(cfg CLIConfig) error {
	if err := os.MkdirAll(campfireDir(), 0700); err != nil {
		return err
	}
	data, _ := json.MarshalIndent(cfg, "", "  ")
	return os.WriteFile(cliConfigPath(), data, 0600)
}

func loadAuthenticatedClient() (*client.Client, CLIConfig, error) {
	cfg, err := loadCLIConfig()
	if err != nil {
		return nil, CLIConfig{}, err
	}
	if cfg.Token == "" {
		return nil, CLIConfig{}, errors.New("not authenticated - run 'campfire login'")
	}

	c := client.New(cfg.BaseURL)
	c.Token = cfg.Token
	return c, cfg, nil
}
