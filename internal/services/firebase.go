package services

import (
	"context"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// IdentityVerifier is the part of the identity provider the app relies on.
// *auth.Client satisfies it.
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	VerifySessionCookie(ctx context.Context, sessionCookie string) (*auth.Token, error)
	SessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
}

// InitFirebase initializes the Firebase Admin SDK and returns an auth client
func InitFirebase(ctx context.Context, credPath string) (*auth.Client, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credPath))
	if err != nil {
		return nil, err
	}
	return app.Auth(ctx)
}

// Identity is the subset of identity token claims used to provision an account
type Identity struct {
	UID      string
	Email    string
	Name     string
	Picture  string
	Provider string
}

// IdentityFromToken extracts account details from a verified token
func IdentityFromToken(token *auth.Token) Identity {
	id := Identity{UID: token.UID, Provider: token.Firebase.SignInProvider}
	if v, ok := token.Claims["email"].(string); ok {
		id.Email = v
	}
	if v, ok := token.Claims["name"].(string); ok {
		id.Name = v
	}
	if v, ok := token.Claims["picture"].(string); ok {
		id.Picture = v
	}
	return id
}
