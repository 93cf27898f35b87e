package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ZKyNetOfficial/zkynet-client/logger"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AppServices defines the interface the bot needs to interact with the main app
type AppServices interface {
	ConnectedServer() string
	ServerNames() []string
	GetLogs(limit string, level string) []string
}

var (
	adminIDs   = make(map[int64]bool)
	services   AppServices
	currentBot *bot.Bot
)

// Start initializes and starts the Telegram bot
func Start(ctx context.Context, config *Config, appServices AppServices) {
	if !config.Enabled || config.BotToken == "" {
		log.Println("Telegram bot is disabled or token is not configured.")
		return
	}

	services = appServices

	for _, id := range config.AdminUserIDs {
		adminIDs[id] = true
	}

	opts := []bot.Option{
		bot.WithDefaultHandler(handler),
	}

	b, err := bot.New(config.BotToken, opts...)
	if err != nil {
		log.Printf("Error creating Telegram bot: %v", err)
		return
	}
	currentBot = b

	log.Println("Telegram bot started.")
	b.Start(ctx)
}

func Stop() {
	if currentBot != nil {
		currentBot.Close(context.Background())
		currentBot = nil
	}
}

// Notify pushes a status line to every admin chat. Used as the
// orchestrator's message hook; a nil bot makes it a no-op.
func Notify(msg string) {
	if currentBot == nil {
		return
	}
	for id := range adminIDs {
		_, err := currentBot.SendMessage(context.Background(), &bot.SendMessageParams{
			ChatID: id,
			Text:   msg,
		})
		if err != nil {
			logger.Warning("telegram notify failed:", err)
		}
	}
}

func handler(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	userID := update.Message.From.ID
	if !isAdmin(userID) {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "You are not authorized to use this bot.",
		})
		return
	}

	if strings.HasPrefix(update.Message.Text, "/") {
		handleCommand(ctx, b, update.Message)
	}
}

func isAdmin(userID int64) bool {
	_, ok := adminIDs[userID]
	return ok
}

func handleCommand(ctx context.Context, b *bot.Bot, message *models.Message) {
	command := strings.Fields(message.Text)[0]

	switch command {
	case "/start":
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: message.Chat.ID,
			Text:   "Welcome to ZKyNet Client Bot. Send /help to see available commands.",
		})
	case "/help":
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: message.Chat.ID,
			Text: "Available commands:\n" +
				"/status\n" +
				"/servers\n" +
				"/logs",
		})
	case "/status":
		connected := services.ConnectedServer()
		if connected == "" {
			connected = "not connected"
		}
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: message.Chat.ID,
			Text:   "Status: " + connected,
		})
	case "/servers":
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: message.Chat.ID,
			Text:   "Servers:\n" + strings.Join(services.ServerNames(), "\n"),
		})
	case "/logs":
		logs := services.GetLogs("20", "info")
		text := strings.Join(logs, "\n")
		if text == "" {
			text = "no logs"
		}
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: message.Chat.ID,
			Text:   text,
		})
	default:
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: message.Chat.ID,
			Text:   fmt.Sprintf("Unknown command: %s", command),
		})
	}
}
