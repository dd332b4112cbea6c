package llm

import (
	"context"
	"crypto/md5"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// CacheTTL is the default lifetime of a cached LLM response.
const CacheTTL = 24 * time.Hour

type cacheEntry struct {
	resp    Message
	expires time.Time
}

// CachingProvider wraps any ToolCallingProvider with an md5-keyed,
// TTL-bounded cache over CallLLMWithTools, guarded by a sync.RWMutex. Only
// successful responses are cached; streaming calls always bypass the cache.
type CachingProvider struct {
	inner ToolCallingProvider
	ttl   time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewCachingProvider wraps inner with the default 24h TTL.
func NewCachingProvider(inner ToolCallingProvider) *CachingProvider {
	return NewCachingProviderWithTTL(inner, CacheTTL)
}

// NewCachingProviderWithTTL wraps inner with an explicit TTL, mainly for tests.
func NewCachingProviderWithTTL(inner ToolCallingProvider, ttl time.Duration) *CachingProvider {
	return &CachingProvider{
		inner: inner,
		ttl:   ttl,
		cache: make(map[string]cacheEntry),
	}
}

// cacheKey hashes prompt, sorted tool names, the last 3 history messages,
// and system prompt into a single cache key. The tool format is not part of
// the key.
func cacheKey(prompt, systemPrompt string, tools []ToolDefinition, history []Message) string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	sort.Strings(names)

	tail := history
	if len(tail) > 3 {
		tail = tail[len(tail)-3:]
	}

	var sb strings.Builder
	sb.WriteString(systemPrompt)
	sb.WriteByte('\x00')
	sb.WriteString(prompt)
	sb.WriteByte('\x00')
	sb.WriteString(strings.Join(names, ","))
	for _, m := range tail {
		sb.WriteByte('\x00')
		sb.WriteString(m.Role)
		sb.WriteByte(':')
		sb.WriteString(m.Content)
	}

	// #nosec G401 -- MD5 used only for cache-key dedup, not security
	h := md5.Sum([]byte(sb.String()))
	return fmt.Sprintf("%x", h)
}

// CallLLMWithTools serves from cache when a live, unexpired entry exists
// for the same (systemPrompt, prompt, tools, trailing history) tuple;
// otherwise delegates to inner and caches a successful response.
func (c *CachingProvider) CallLLMWithTools(ctx context.Context, messages []Message, tools []ToolDefinition) (Message, error) {
	var systemPrompt, prompt string
	for _, m := range messages {
		if m.Role == RoleSystem {
			systemPrompt = m.Content
		}
	}
	prompt = lastUserContent(messages)

	key := cacheKey(prompt, systemPrompt, tools, messages)

	c.mu.RLock()
	entry, ok := c.cache[key]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.expires) {
		return entry.resp, nil
	}

	resp, err := c.inner.CallLLMWithTools(ctx, messages, tools)
	if err != nil {
		return Message{}, err
	}

	c.mu.Lock()
	c.cache[key] = cacheEntry{resp: resp, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	return resp, nil
}

func (c *CachingProvider) CallLLM(ctx context.Context, messages []Message) (Message, error) {
	return c.inner.CallLLM(ctx, messages)
}

// CallLLMStream never caches; streaming responses are always excluded.
func (c *CachingProvider) CallLLMStream(ctx context.Context, messages []Message, onChunk StreamCallback) (Message, error) {
	return c.inner.CallLLMStream(ctx, messages, onChunk)
}

func (c *CachingProvider) IsToolCallingEnabled() bool { return c.inner.IsToolCallingEnabled() }

func (c *CachingProvider) GetName() string { return c.inner.GetName() + " (cached)" }
