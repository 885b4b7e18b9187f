// Package chatbot produces the Coach Bot's pep talks by pairing a canned
// prefix with a phrase fetched from an external generator.
package chatbot

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/loyeleye/multiplayer-yoruba/internal/game"
)

const DefaultPhraseURL = "https://corporatebs-generator.sameerkumar.website/"

var prefixes = []string{
	"To WIN, you must ",
	"The best players in THIS game ",
	"You aren't the BEST until you ",
	"You have potential. But take it from me - You CAN'T succeed until you ",
	"You AREN'T good until you are a player who can ",
	"My colleague robots and I have reached the PINNACLE of skill. Only with us can you ",
	"Buy my coaching lessons for 10 million Naira and you will learn to COMPLETELY outperform your competition and ",
	"Buy my coaching lessons for 1 million Euros and you will learn to DEMOLISH your competition and ",
	"Buy my coaching lessons for 2 million Dollars and you will learn to CRUSH your competition and ",
	"Skeptical of my coaching program? Read a review from one of my MANY clients as told by myself. I showed her how to ",
	"Skeptical of my coaching program? Read a review from one of my many clients as told by myself. I gave him the KNOWLEDGE to ",
	"You CAN'T lose if you ",
	"With DATA MINING and ARTIFICIAL INTELLIGENCE, you can explode your overall competency and ",
	"Buy my coaching program. I will teach you to simultaneously improve your OVERALL cognitive ability and ",
	"You really AREN'T improving if you don't ",
}

// Bot fetches phrases over HTTP. The zero timeout default keeps a flaky
// upstream from stalling chat handling.
type Bot struct {
	url    string
	client *http.Client
	log    *zap.Logger
}

func New(log *zap.Logger, url string) *Bot {
	if url == "" {
		url = DefaultPhraseURL
	}
	return &Bot{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
		log:    log.Named("chatbot"),
	}
}

// Message returns one fully assembled coaching line. On upstream failure it
// returns a wrapped ErrUpstreamUnavailable; callers degrade by staying
// silent.
func (b *Bot) Message(ctx context.Context) (string, error) {
	phrase, err := b.fetchPhrase(ctx)
	if err != nil {
		b.log.Warn("bot unable to talk", zap.Error(err))
		return "", err
	}
	prefix := prefixes[rand.Intn(len(prefixes))]
	return prefix + strings.ToUpper(phrase) + ".", nil
}

func (b *Bot) fetchPhrase(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.url, nil)
	if err != nil {
		return "", fmt.Errorf("building phrase request: %w", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", game.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", game.ErrUpstreamUnavailable, resp.StatusCode)
	}
	var body struct {
		Phrase string `json:"phrase"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decoding phrase: %v", game.ErrUpstreamUnavailable, err)
	}
	if body.Phrase == "" {
		return "", fmt.Errorf("%w: empty phrase", game.ErrUpstreamUnavailable)
	}
	return body.Phrase, nil
}
