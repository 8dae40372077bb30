// Package httpapp provides the HTTP server for Campfire.
//
//	@title						Campfire Microblog API
//	@version					1.0
//	@description				A Twitter-like micro blogging platform API.
//	@description
//	@description				## Authentication Flow
//	@description
//	@description				All write operations (posting, commenting, voting) require a bearer token.
//	@description
//	@description				### Step 1: Register or Log In
//	@description				```bash
//	@description				curl -X POST /api/auth/register -d '{"username":"alice","password":"secret123"}'
//	@description				curl -X POST /api/auth/login -d '{"username":"alice","password":"secret123"}'
//	@description				# Returns: {"access_token": "TOKEN", ...}
//	@description				```
//	@description
//	@description				### Step 2: Use Token for Writes
//	@description				```bash
//	@description				curl -X POST /api/posts -H "Authorization: Bearer TOKEN" -d '{"title":"Hello","content":"..."}'
//	@description				```
//	@description
//	@description				Tokens are signed JWTs and expire on their own; logout simply discards
//	@description				the client copy.
//
//	@contact.name				Campfire
//	@license.name				MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token from /api/auth/register or /api/auth/login
//
//	@tag.name					Auth
//	@tag.description			Registration, login, and logout. Tokens are stateless JWTs.
//
//	@tag.name					Users
//	@tag.description			Public user directory and the authenticated profile.
//
//	@tag.name					Posts
//	@tag.description			Create and browse posts. Only the author can delete a post.
//
//	@tag.name					Comments
//	@tag.description			Append-only comments on posts, returned in arrival order.
//
//	@tag.name					Votes
//	@tag.description			Upvote or downvote posts. One vote per user per post; a re-vote changes the kind.
package httpapp
