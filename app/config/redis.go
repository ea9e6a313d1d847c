package config

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns a client for redis_addr, or nil when Redis is not
// configured or unreachable. Callers treat nil as "no snapshot cache".
func ConnectRedis(ctx context.Context) *redis.Client {
	addr := Conf.GetString("redis_addr")
	if addr == "" {
		log.Println("REDIS_ADDR is not set, snapshot caching disabled")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Printf("Failed to connect to Redis at %s: %v", addr, err)
		_ = rdb.Close()
		return nil
	}

	log.Printf("Connected to Redis at %s", addr)
	return rdb
}
