package casdoor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/practice-service/internal/config"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
)

var ErrInvalidToken = errors.New("invalid sso token")

type IdentityCasdoor struct {
	client *casdoorsdk.Client
	redis  *redis.Client

	// Cache settings
	cachePrefix string
	cacheTTL    time.Duration
}

func NewIdentityCasdoor(cfg config.CasdoorConfig, redisClient *redis.Client) repositories.IdentityProvider {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)

	return &IdentityCasdoor{
		client:      client,
		redis:       redisClient,
		cachePrefix: "sso:",
		cacheTTL:    5 * time.Minute,
	}
}

// VerifyToken checks the token signature against the Casdoor certificate and maps its claims
func (c *IdentityCasdoor) VerifyToken(ctx context.Context, token string) (*repositories.ExternalIdentity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return nil, ErrInvalidToken
	}

	cacheKey := c.getCacheKey(token)
	if identity := c.getFromCache(ctx, cacheKey); identity != nil {
		return identity, nil
	}

	claims, err := c.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	identity := convertClaims(claims)
	if identity.Subject == "" || identity.Email == "" {
		return nil, fmt.Errorf("%w: token carries no subject or email", ErrInvalidToken)
	}

	c.setCache(ctx, cacheKey, identity, claims)
	return identity, nil
}

// ===== CACHE METHODS =====

// Tokens are hashed so raw bearer tokens never land in redis
func (c *IdentityCasdoor) getCacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return c.cachePrefix + hex.EncodeToString(sum[:])
}

func (c *IdentityCasdoor) getFromCache(ctx context.Context, key string) *repositories.ExternalIdentity {
	if c.redis == nil {
		return nil
	}

	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "Failed to read sso cache", "error", err)
		}
		return nil
	}

	var identity repositories.ExternalIdentity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil
	}
	return &identity
}

func (c *IdentityCasdoor) setCache(ctx context.Context, key string, identity *repositories.ExternalIdentity, claims *casdoorsdk.Claims) {
	if c.redis == nil {
		return
	}

	ttl := c.cacheTTL
	// Never outlive the token itself
	if claims.ExpiresAt != nil {
		if remaining := time.Until(claims.ExpiresAt.Time); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl <= 0 {
		return
	}

	data, err := json.Marshal(identity)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		slog.WarnContext(ctx, "Failed to write sso cache", "error", err)
	}
}

// ===== CONVERSION METHODS =====

func convertClaims(claims *casdoorsdk.Claims) *repositories.ExternalIdentity {
	user := claims.User

	username := user.Name
	if username == "" {
		username, _, _ = strings.Cut(user.Email, "@")
	}

	firstName, lastName := user.FirstName, user.LastName
	if firstName == "" && lastName == "" && user.DisplayName != "" {
		firstName, lastName, _ = strings.Cut(user.DisplayName, " ")
	}

	return &repositories.ExternalIdentity{
		Subject:   user.Id,
		Username:  username,
		Email:     strings.ToLower(user.Email),
		FirstName: firstName,
		LastName:  lastName,
		IsAdmin:   isAdmin(&user),
	}
}

func isAdmin(user *casdoorsdk.User) bool {
	if user.IsAdmin {
		return true
	}
	return slices.ContainsFunc(user.Roles, func(r *casdoorsdk.Role) bool {
		name := strings.ToLower(r.Name)
		return name == "admin" || name == "administrator"
	})
}
