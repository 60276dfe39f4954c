// Package telegram implements the send_telegram_message operation: resolve
// a @username to a chat id from the bot's recent updates, then send it a
// message.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Name is the operation identifier registered in the Operation Registry.
const Name = "send_telegram_message"

// newBotAPI is overridable in tests so Invoke can run without reaching
// Telegram's servers.
var newBotAPI = func(token string) (botAPI, error) {
	return tgbotapi.NewBotAPI(token)
}

// botAPI narrows *tgbotapi.BotAPI down to what this operation calls, so a
// fake can stand in for tests.
type botAPI interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Op implements registry.Operation. cacheDir persists resolved username ->
// chat id mappings across invocations, mirroring the original's
// tg_user_ids.json cache file.
type Op struct {
	mu       sync.Mutex
	cacheDir string
}

// New builds an Op that caches username lookups under cacheDir.
func New(cacheDir string) *Op {
	if cacheDir == "" {
		cacheDir = "./tg_data"
	}
	return &Op{cacheDir: cacheDir}
}

func (o *Op) Name() string { return Name }

func (o *Op) Defaults() map[string]any { return map[string]any{} }

func (o *Op) Invoke(ctx context.Context, params map[string]any) (map[string]any, error) {
	username, _ := params["username"].(string)
	message, _ := params["message"].(string)
	token, _ := params["token"].(string)
	if username == "" || message == "" || token == "" {
		return nil, fmt.Errorf("telegram: username, message, and token are all required")
	}

	bot, err := newBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot client: %w", err)
	}

	chatID, err := o.resolveChatID(bot, username)
	if err != nil {
		return nil, err
	}

	msg := tgbotapi.NewMessage(chatID, message)
	sent, err := bot.Send(msg)
	if err != nil {
		return nil, fmt.Errorf("telegram: send message: %w", err)
	}

	return map[string]any{
		"tg_api_response": map[string]any{
			"message_id": sent.MessageID,
			"chat_id":    chatID,
		},
	}, nil
}

func (o *Op) resolveChatID(bot botAPI, username string) (int64, error) {
	username = strings.TrimPrefix(username, "@")

	o.mu.Lock()
	defer o.mu.Unlock()

	cache, err := o.loadCache()
	if err != nil {
		return 0, fmt.Errorf("telegram: load cache: %w", err)
	}
	if id, ok := cache[username]; ok {
		return id, nil
	}

	updates, err := bot.GetUpdates(tgbotapi.NewUpdate(0))
	if err != nil {
		return 0, fmt.Errorf("telegram: fetch updates: %w", err)
	}

	for _, upd := range updates {
		if upd.Message == nil || upd.Message.From == nil {
			continue
		}
		if upd.Message.From.UserName == username {
			id := upd.Message.From.ID
			cache[username] = id
			if err := o.saveCache(cache); err != nil {
				return 0, fmt.Errorf("telegram: save cache: %w", err)
			}
			return id, nil
		}
	}

	return 0, fmt.Errorf("telegram: user @%s not found in recent updates", username)
}

func (o *Op) cachePath() string {
	return filepath.Join(o.cacheDir, "tg_user_ids.json")
}

func (o *Op) loadCache() (map[string]int64, error) {
	raw, err := os.ReadFile(o.cachePath())
	if os.IsNotExist(err) {
		return map[string]int64{}, nil
	}
	if err != nil {
		return nil, err
	}
	var cache map[string]int64
	if err := json.Unmarshal(raw, &cache); err != nil {
		return nil, err
	}
	return cache, nil
}

func (o *Op) saveCache(cache map[string]int64) error {
	if err := os.MkdirAll(o.cacheDir, 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(cache, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(o.cachePath(), raw, 0o644)
}
