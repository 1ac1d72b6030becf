package iocache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

const (
	defaultRedisAddr = "localhost:6379"
	redisKeyPrefix   = "repopulse"
	redisTimeout     = 5 * time.Second
	redisScanCount   = 100
)

// Hash fields of a redis entry.
const (
	fieldValue     = "value"
	fieldVersion   = "version"
	fieldTimestamp = "timestamp"
)

// RedisStoreImpl keeps each entry in a hash under repopulse:<table>:<key>.
type RedisStoreImpl struct {
	client    *redis.Client
	tableName string
}

var _ contract.KVStore = &RedisStoreImpl{} // Compile-time check

// redisOptions accepts host:port or a redis:// URL. Empty means localhost.
func redisOptions(connStr string) (*redis.Options, error) {
	if strings.Contains(connStr, "://") {
		opts, err := redis.ParseURL(connStr)
		if err != nil {
			return nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		return opts, nil
	}
	addr := connStr
	if addr == "" {
		addr = defaultRedisAddr
	}
	return &redis.Options{Addr: addr}, nil
}

// NewRedisStore connects to redis and returns a KVStore scoped to tableName.
func NewRedisStore(tableName, connStr string) (*RedisStoreImpl, error) {
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}
	opts, err := redisOptions(connStr)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s. Check that the server is running: %w", opts.Addr, err)
	}
	return &RedisStoreImpl{client: client, tableName: tableName}, nil
}

func redisPrefix(tableName string) string {
	return redisKeyPrefix + ":" + tableName + ":"
}

func (rs *RedisStoreImpl) key(k string) string {
	return redisPrefix(rs.tableName) + k
}

// Get retrieves a value by key. A missing key yields a nil value.
func (rs *RedisStoreImpl) Get(key string) ([]byte, int, int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	fields, err := rs.client.HGetAll(ctx, rs.key(key)).Result()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read %s entry: %w", rs.tableName, err)
	}
	if len(fields) == 0 {
		return nil, 0, 0, nil
	}
	version, err := strconv.Atoi(fields[fieldVersion])
	if err != nil {
		return nil, 0, 0, fmt.Errorf("corrupt %s entry version: %w", rs.tableName, err)
	}
	ts, err := strconv.ParseInt(fields[fieldTimestamp], 10, 64)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("corrupt %s entry timestamp: %w", rs.tableName, err)
	}
	return []byte(fields[fieldValue]), version, ts, nil
}

// Set inserts or replaces a key/value pair.
func (rs *RedisStoreImpl) Set(key string, value []byte, version int, timestamp int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	err := rs.client.HSet(ctx, rs.key(key),
		fieldValue, value,
		fieldVersion, version,
		fieldTimestamp, timestamp,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to write %s entry: %w", rs.tableName, err)
	}
	return nil
}

// Delete removes a key.
func (rs *RedisStoreImpl) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	if err := rs.client.Del(ctx, rs.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s entry: %w", rs.tableName, err)
	}
	return nil
}

// Close closes the client.
func (rs *RedisStoreImpl) Close() error {
	return rs.client.Close()
}

// GetStatus scans the table's keys for counts, times and memory usage.
func (rs *RedisStoreImpl) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:   string(schema.RedisBackend),
		Table:     rs.tableName,
		Connected: true,
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	var lastTs, oldestTs int64
	iter := rs.client.Scan(ctx, 0, redisPrefix(rs.tableName)+"*", redisScanCount).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		raw, err := rs.client.HGet(ctx, k, fieldTimestamp).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return status, fmt.Errorf("failed to read entry time: %w", err)
		}
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		status.TotalEntries++
		if status.TotalEntries == 1 || ts > lastTs {
			lastTs = ts
		}
		if status.TotalEntries == 1 || ts < oldestTs {
			oldestTs = ts
		}
		if usage, err := rs.client.MemoryUsage(ctx, k).Result(); err == nil {
			status.TableSizeBytes += usage
		}
	}
	if err := iter.Err(); err != nil {
		return status, fmt.Errorf("failed to scan %s entries: %w", rs.tableName, err)
	}
	if status.TotalEntries > 0 {
		status.LastEntryTime = time.Unix(lastTs, 0)
		status.OldestEntryTime = time.Unix(oldestTs, 0)
	}
	return status, nil
}

// clearRedisTables deletes every key of the given tables.
func clearRedisTables(connStr string, tables ...string) error {
	opts, err := redisOptions(connStr)
	if err != nil {
		return err
	}
	client := redis.NewClient(opts)
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	for _, table := range tables {
		iter := client.Scan(ctx, 0, redisPrefix(table)+"*", redisScanCount).Iterator()
		for iter.Next(ctx) {
			if err := client.Del(ctx, iter.Val()).Err(); err != nil {
				return fmt.Errorf("failed to delete %s: %w", iter.Val(), err)
			}
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("failed to scan %s entries: %w", table, err)
		}
	}
	return nil
}
