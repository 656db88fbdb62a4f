package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"github.com/AnshRaj112/orally-backend/internal/models"
)

const (
	// SessionDuration is 7 days
	SessionDuration = 7 * 24 * time.Hour
	// SessionKeyPrefix is the Redis key prefix for sessions
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix is the Redis key prefix for user->session mapping
	UserSessionKeyPrefix = "user_session:"
)

// SessionStore maps bearer tokens to the signed-in identity. Tokens are
// never stored; keys hold their BLAKE2b-256 digest.
type SessionStore struct {
	rdb *redis.Client
}

// NewSessionStore returns a store on rdb.
func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

// CreateSession stores id under a fresh token and returns the token. An
// existing session of the same user is invalidated first, so the 7-day
// timer restarts from this sign-in.
func (s *SessionStore) CreateSession(ctx context.Context, id models.Identity) (string, error) {
	if id.UserID == "" {
		return "", errors.New("session: user id is required")
	}
	if err := s.InvalidateUserSessions(ctx, id.UserID); err != nil {
		return "", err
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)
	digest := tokenDigest(token)

	payload, err := json.Marshal(id)
	if err != nil {
		return "", err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, SessionKeyPrefix+digest, payload, SessionDuration)
	pipe.Set(ctx, UserSessionKeyPrefix+id.UserID, digest, SessionDuration)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("session: store: %w", err)
	}
	return token, nil
}

// ValidateSession resolves a token. An unknown or expired token yields
// ok=false with a nil error.
func (s *SessionStore) ValidateSession(ctx context.Context, token string) (models.Identity, bool, error) {
	if token == "" {
		return models.Identity{}, false, nil
	}
	raw, err := s.rdb.Get(ctx, SessionKeyPrefix+tokenDigest(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Identity{}, false, nil
	}
	if err != nil {
		return models.Identity{}, false, fmt.Errorf("session: lookup: %w", err)
	}
	var id models.Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return models.Identity{}, false, fmt.Errorf("session: decode: %w", err)
	}
	if id.UserID == "" {
		return models.Identity{}, false, nil
	}
	return id, true, nil
}

// RefreshSession extends the session and its user mapping by
// SessionDuration from now.
func (s *SessionStore) RefreshSession(ctx context.Context, token string) error {
	id, ok, err := s.ValidateSession(ctx, token)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("session: not found")
	}
	pipe := s.rdb.TxPipeline()
	pipe.Expire(ctx, SessionKeyPrefix+tokenDigest(token), SessionDuration)
	pipe.Expire(ctx, UserSessionKeyPrefix+id.UserID, SessionDuration)
	_, err = pipe.Exec(ctx)
	return err
}

// InvalidateSession removes a session and its user mapping.
func (s *SessionStore) InvalidateSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	id, ok, err := s.ValidateSession(ctx, token)
	if err != nil {
		return err
	}
	keys := []string{SessionKeyPrefix + tokenDigest(token)}
	if ok {
		keys = append(keys, UserSessionKeyPrefix+id.UserID)
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

// InvalidateUserSessions removes whatever session the user currently holds.
func (s *SessionStore) InvalidateUserSessions(ctx context.Context, userID string) error {
	userKey := UserSessionKeyPrefix + userID
	digest, err := s.rdb.Get(ctx, userKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("session: lookup user: %w", err)
	}
	keys := []string{userKey}
	if digest != "" {
		keys = append(keys, SessionKeyPrefix+digest)
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("session: delete user sessions: %w", err)
	}
	return nil
}

func tokenDigest(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
