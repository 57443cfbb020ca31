package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// ChatbotFallbackAnswer is returned when an answer cannot be produced.
const ChatbotFallbackAnswer = "uhhh my brain buffer glitched. try again womp womp."

var (
	chatOpeners = []string{"yo", "bro listen", "ngl", "lowkey", "highkey", "bro fr"}
	chatVibes   = []string{"✨", "💅", "🥤", "🔥", "🫶", "🌈", "🤸‍♀️", "💻"}
	chatClosers = []string{
		"that's the move fr.",
		"hope that clears it up bro.",
		"go lock it in.",
		"stay locked and dialed.",
		"alright i'm out.",
	}
)

// Keyword replies are checked in order; the first keyword contained in the prompt wins.
var chatKeywords = []struct {
	keyword string
	reply   string
}{
	{"hello", "yo what's good?"},
	{"hi", "sup bro, what's the angle?"},
	{"hey", "hey bro, what's the play?"},
	{"help", "say less, i'm on it."},
	{"follow", "go hype your crew, that's literally the point."},
	{"message", "slide into the DMs respectfully, bro."},
	{"admin", "admin mode is straight boss energy."},
	{"verified", "verification is instant now bro, you're good."},
	{"bot", "i'm basically your Gen-Z bro AI."},
}

// PostCounter reports how many posts an author has.
type PostCounter interface {
	CountPostsByAuthor(ctx context.Context, authorID string) (int64, error)
}

// Chatbot answers prompts with templated Gen-Z slang.
type Chatbot struct {
	posts PostCounter

	mu  sync.Mutex
	rng *rand.Rand
}

// NewChatbot builds a chatbot. A nil rng is seeded from the clock.
func NewChatbot(posts PostCounter, rng *rand.Rand) *Chatbot {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Chatbot{posts: posts, rng: rng}
}

// Respond answers prompt. viewerID is empty for anonymous callers; signed-in
// users asking about posts get their own post count.
func (b *Chatbot) Respond(ctx context.Context, viewerID, prompt string) (string, error) {
	cleaned := strings.TrimSpace(prompt)
	if cleaned == "" {
		return "say something real, bro 👀", nil
	}
	lower := strings.ToLower(cleaned)

	opener, closer, vibe := b.pick(chatOpeners), b.pick(chatClosers), b.pick(chatVibes)

	if viewerID != "" && b.posts != nil && strings.Contains(lower, "post") {
		n, err := b.posts.CountPostsByAuthor(ctx, viewerID)
		if err != nil {
			return "", fmt.Errorf("count posts: %w", err)
		}
		return fmt.Sprintf("%s you've dropped %d %s so far. %s %s", opener, n, plural(n, "post", "posts"), closer, vibe), nil
	}

	for _, kw := range chatKeywords {
		if strings.Contains(lower, kw.keyword) {
			return fmt.Sprintf("%s %s %s %s", opener, kw.reply, closer, vibe), nil
		}
	}

	if strings.Contains(lower, "?") {
		question := strings.Replace(cleaned, "?", "", 1)
		return fmt.Sprintf("%s solid question, i'd %s? lock it in and keep moving. %s %s", opener, question, closer, vibe), nil
	}

	if utf8.RuneCountInString(lower) < 6 {
		return fmt.Sprintf("%s need more details bro %s", opener, vibe), nil
	}

	return fmt.Sprintf("%s %s is valid. stay focused & keep the drama lowkey. %s %s", opener, cleaned, closer, vibe), nil
}

func (b *Chatbot) pick(items []string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return items[b.rng.Intn(len(items))]
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
