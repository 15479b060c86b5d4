// Package redis provides Redis client initialization with connection
// validation and health checking, used by the Redis-backed token store.
//
// Connect validates the URL scheme (redis:// or rediss://), attempts the
// connection with bounded retries, and verifies connectivity with a ping
// before returning the client:
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	store := tokenstore.NewRedis(client)
//
// Healthcheck returns a probe function for readiness endpoints:
//
//	check := redis.Healthcheck(client)
//	if err := check(ctx); err != nil { ... }
package redis
