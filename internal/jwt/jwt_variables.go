package jwt

import (
	"sync"
	"time"

	"tourchat-backend/internal/env"

	"github.com/go-redis/redis/v8"
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 24 * 30 * time.Hour
)

var (
	redisOnce   sync.Once
	redisClient *redis.Client
)

// authRedis is created on first use so importing this package does not
// require a running Redis, only issuing refresh tokens does.
func authRedis() *redis.Client {
	redisOnce.Do(func() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     env.GetOrDefault(env.AuthRedisURL, "localhost:6379"),
			Password: env.Get(env.AuthRedisPass),
			DB:       0,
		})
	})
	return redisClient
}

func roleSecret(role Role) (string, bool) {
	switch role {
	case RoleUser:
		return env.GetOrDefault(env.UserSecretKey, "dev-user-secret"), true
	case RoleStaff:
		return env.GetOrDefault(env.StaffSecretKey, "dev-staff-secret"), true
	}
	return "", false
}
