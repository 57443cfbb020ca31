package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"snapfeed/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Rule is a named fixed-window request budget.
type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Budgets applied to write endpoints.
var (
	RegisterRule      = Rule{Name: "register", Limit: 3, Window: 10 * time.Minute}
	LoginRule         = Rule{Name: "login", Limit: 10, Window: 5 * time.Minute}
	CreatePostRule    = Rule{Name: "create_post", Limit: 10, Window: 5 * time.Minute}
	CreateCommentRule = Rule{Name: "create_comment", Limit: 30, Window: time.Minute}
	SendMessageRule   = Rule{Name: "send_message", Limit: 30, Window: time.Minute}
)

// FailPolicy decides what happens to a request when redis cannot be reached.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

const rateKeyPrefix = "snapfeed:ratelimit"

var errNoRateStore = errors.New("rate limit store not configured")

// hitScript increments the window counter, starts the window on the first
// hit and returns the count with the milliseconds left in the window.
var hitScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {n, redis.call('PTTL', KEYS[1])}
`)

// Decision is the outcome of counting one request against a rule.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimitEnabled reports whether budgets are enforced for the current
// APP_ENV. Local, test and load-test environments are never throttled.
func RateLimitEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV"))) {
	case "", "development", "test", "stress":
		return false
	default:
		return true
	}
}

func rateKey(rule Rule, identity string) string {
	return fmt.Sprintf("%s:%s:%s", rateKeyPrefix, rule.Name, identity)
}

// Hit counts one request by identity against rule.
func Hit(ctx context.Context, rdb *redis.Client, rule Rule, identity string) (Decision, error) {
	if !RateLimitEnabled() {
		return Decision{Allowed: true, Remaining: rule.Limit}, nil
	}
	if rdb == nil {
		return Decision{}, errNoRateStore
	}

	res, err := hitScript.Run(ctx, rdb, []string{rateKey(rule, identity)}, rule.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("count %s hit: %w", rule.Name, err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("count %s hit: unexpected reply %v", rule.Name, res)
	}

	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
	if ttl < 0 {
		ttl = rule.Window
	}
	if count > rule.Limit {
		return Decision{Allowed: false, RetryAfter: ttl}, nil
	}
	return Decision{Allowed: true, Remaining: rule.Limit - count, RetryAfter: ttl}, nil
}

// requestIdentity buckets signed-in callers by account and everyone else by IP.
func requestIdentity(c *fiber.Ctx) string {
	if uid, ok := c.Locals("userID").(string); ok && uid != "" {
		return "user:" + uid
	}
	return "ip:" + c.IP()
}

// RateLimit enforces rule and lets requests through when redis is down.
func RateLimit(rdb *redis.Client, rule Rule) fiber.Handler {
	return RateLimitWithPolicy(rdb, rule, FailOpen)
}

// RateLimitWithPolicy enforces rule with an explicit redis failure policy.
func RateLimitWithPolicy(rdb *redis.Client, rule Rule, policy FailPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		decision, err := Hit(c.UserContext(), rdb, rule, requestIdentity(c))
		if err != nil {
			Logger.WarnContext(c.UserContext(), "rate limit store unavailable",
				slog.String("rule", rule.Name),
				slog.Bool("fail_closed", policy == FailClosed),
				slog.String("error", err.Error()),
			)
			if policy == FailClosed {
				return models.RespondWithError(c, fiber.StatusServiceUnavailable,
					&models.AppError{Code: models.CodeUnavailable, Message: "Please try again shortly."})
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			seconds := int((decision.RetryAfter + time.Second - 1) / time.Second)
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(seconds))
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				&models.AppError{Code: models.CodeRateLimited, Message: "Too many requests. Slow down a little."})
		}
		return c.Next()
	}
}
