package pkg

import "github.com/google/uuid"

// GenerateGameID returns a fresh identifier for a game session.
func GenerateGameID() string {
	return uuid.NewString()
}

// GenerateNewSessionID returns a fresh identifier for a client connection.
func GenerateNewSessionID() string {
	return uuid.NewString()
}
