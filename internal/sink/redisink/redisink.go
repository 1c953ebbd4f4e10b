// Package redisink implements the message sink on Redis: the record document
// under its deterministic key, a time-ordered index, and an inverted keyword
// index for search.
package redisink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/leefowlercu/chatwatcher/internal/sink"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// tokenRe splits text into index tokens. Single-character tokens carry no
// search value and are dropped.
var tokenRe = regexp.MustCompile(`\w{2,}`)

// Config holds connection and namespace settings for the Redis sink.
type Config struct {
	Addr        string
	Username    string
	PasswordEnv string
	DB          int

	// Namespace prefixes every key this sink writes.
	Namespace string
}

// DefaultNamespace is used when no namespace is configured.
const DefaultNamespace = "chatwatcher"

// Sink stores message records in Redis. It is safe for concurrent use.
type Sink struct {
	client    redis.UniversalClient
	namespace string
	logger    *slog.Logger
}

// Option configures the Sink.
type Option func(*Sink)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) {
		s.logger = logger
	}
}

// WithClient overrides the Redis client, primarily for tests.
func WithClient(client redis.UniversalClient) Option {
	return func(s *Sink) {
		s.client = client
	}
}

// New creates a Redis-backed sink and verifies connectivity.
func New(ctx context.Context, cfg Config, opts ...Option) (*Sink, error) {
	ns := cfg.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}

	s := &Sink{
		namespace: ns,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		s.client = redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Username: cfg.Username,
			Password: os.Getenv(cfg.PasswordEnv),
			DB:       cfg.DB,
		})
	}

	if err := s.client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s; %w", cfg.Addr, err)
	}

	s.logger.Info("redis sink initialized", "addr", cfg.Addr, "namespace", ns)
	return s, nil
}

func (s *Sink) docKey(key string) string    { return s.namespace + ":msg:" + key }
func (s *Sink) tokensKey(key string) string { return s.namespace + ":tokens:" + key }
func (s *Sink) kwKey(tok string) string     { return s.namespace + ":kw:" + tok }
func (s *Sink) timeKey() string             { return s.namespace + ":by_time" }

// Index stores the record document, its time-index entry, and its keyword
// postings in one transaction. Re-indexing the same message overwrites the
// document and leaves the indexes unchanged.
func (s *Sink) Index(ctx context.Context, rec *sink.Record) error {
	key := sink.DocKey(rec.ChatID, rec.MessageID)

	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record %s; %w", key, err)
	}

	tokens := tokenize(rec.Text + " " + rec.RawText)

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.docKey(key), doc, 0)
	pipe.ZAdd(ctx, s.timeKey(), redis.Z{
		Score:  float64(rec.Timestamp.UnixMilli()),
		Member: key,
	})
	if len(tokens) > 0 {
		members := make([]any, len(tokens))
		for i, tok := range tokens {
			members[i] = tok
			pipe.SAdd(ctx, s.kwKey(tok), key)
		}
		pipe.SAdd(ctx, s.tokensKey(key), members...)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to index record %s; %w", key, err)
	}
	return nil
}

// Delete removes the document and every index entry referencing it. Absent
// documents delete cleanly.
func (s *Sink) Delete(ctx context.Context, chatID int64, messageID uint64) error {
	key := sink.DocKey(chatID, messageID)

	tokens, err := s.client.SMembers(ctx, s.tokensKey(key)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to read tokens for %s; %w", key, err)
	}

	pipe := s.client.TxPipeline()
	for _, tok := range tokens {
		pipe.SRem(ctx, s.kwKey(tok), key)
	}
	pipe.Del(ctx, s.tokensKey(key), s.docKey(key))
	pipe.ZRem(ctx, s.timeKey(), key)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete record %s; %w", key, err)
	}
	return nil
}

// Search intersects the keyword postings of every query token, applies the
// optional time window, and returns hits newest first.
func (s *Sink) Search(ctx context.Context, q sink.SearchQuery) (*sink.Result, error) {
	tokens := tokenize(q.Keywords)
	if len(tokens) == 0 {
		return &sink.Result{}, nil
	}

	keys := make([]string, len(tokens))
	for i, tok := range tokens {
		keys[i] = s.kwKey(tok)
	}

	members, err := s.client.SInter(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("keyword intersection failed; %w", err)
	}
	if len(members) == 0 {
		return &sink.Result{}, nil
	}

	recs, err := s.fetchDocs(ctx, members)
	if err != nil {
		return nil, err
	}

	filtered := recs[:0]
	for _, rec := range recs {
		if q.Start != nil && rec.Timestamp.Before(*q.Start) {
			continue
		}
		if q.End != nil && rec.Timestamp.After(*q.End) {
			continue
		}
		rec.Score = float64(len(tokens))
		filtered = append(filtered, rec)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.After(filtered[j].Timestamp)
	})

	return paginate(filtered, q.Limit, q.Offset), nil
}

// Latest returns the most recent records from the time index.
func (s *Sink) Latest(ctx context.Context, q sink.LatestQuery) (*sink.Result, error) {
	min := "-inf"
	if q.Begin != nil {
		min = strconv.FormatInt(q.Begin.UnixMilli(), 10)
	}

	total, err := s.client.ZCount(ctx, s.timeKey(), min, "+inf").Result()
	if err != nil {
		return nil, fmt.Errorf("time index count failed; %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	members, err := s.client.ZRevRangeByScore(ctx, s.timeKey(), &redis.ZRangeBy{
		Min:    min,
		Max:    "+inf",
		Offset: int64(q.Offset),
		Count:  int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("time index range failed; %w", err)
	}

	recs, err := s.fetchDocs(ctx, members)
	if err != nil {
		return nil, err
	}

	sort.Slice(recs, func(i, j int) bool {
		return recs[i].Timestamp.After(recs[j].Timestamp)
	})

	return &sink.Result{Total: total, Hits: recs}, nil
}

// Ping verifies connectivity.
func (s *Sink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the Redis client.
func (s *Sink) Close() error {
	return s.client.Close()
}

// fetchDocs loads and decodes documents for the given keys, skipping entries
// that disappeared between index lookup and fetch.
func (s *Sink) fetchDocs(ctx context.Context, keys []string) ([]sink.Record, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.docKey(k)
	}

	vals, err := s.client.MGet(ctx, full...).Result()
	if err != nil {
		return nil, fmt.Errorf("document fetch failed; %w", err)
	}

	recs := make([]sink.Record, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var rec sink.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			s.logger.Warn("skipping undecodable document", "key", keys[i], "error", err)
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func paginate(recs []sink.Record, limit, offset int) *sink.Result {
	res := &sink.Result{Total: int64(len(recs))}

	if offset >= len(recs) {
		return res
	}
	recs = recs[offset:]

	if limit <= 0 {
		limit = 10
	}
	if limit < len(recs) {
		recs = recs[:limit]
	}

	res.Hits = recs
	return res
}

// tokenize lowercases text and splits it into index tokens.
func tokenize(text string) []string {
	raw := tokenRe.FindAllString(strings.ToLower(text), -1)
	if len(raw) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}
