// Package redis connects to Redis with go-redis and exposes a readiness
// check. The client backs webhook de-duplication in the billing package.
package redis
