package bot

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"codearena/internal/domain"
	"codearena/internal/logger"
	"codearena/internal/match"
	"codearena/internal/ws"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ArenaBot анонсирует результаты матчей в чаты и принимает команды операторов
type ArenaBot struct {
	api      *tgbotapi.BotAPI
	out      sender
	hub      *ws.Hub
	adminIDs []int64
	chatIDs  []int64
	stopCh   chan struct{}
	wg       sync.WaitGroup
	log      *slog.Logger
}

func NewArenaBot(token string, hub *ws.Hub, adminIDs, chatIDs []int64) (*ArenaBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	b := newArenaBot(api, hub, adminIDs, chatIDs)
	b.api = api
	b.log.Info("bot authorized", "username", api.Self.UserName)
	return b, nil
}

func newArenaBot(out sender, hub *ws.Hub, adminIDs, chatIDs []int64) *ArenaBot {
	return &ArenaBot{
		out:      out,
		hub:      hub,
		adminIDs: adminIDs,
		chatIDs:  chatIDs,
		stopCh:   make(chan struct{}),
		log:      logger.With("component", "bot"),
	}
}

// Start запускает цикл обновлений в фоне
func (b *ArenaBot) Start() {
	if b.api == nil {
		return
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.wg.Add(1)
	go b.loop(updates)
}

func (b *ArenaBot) loop(updates tgbotapi.UpdatesChannel) {
	defer b.wg.Done()
	for {
		select {
		case <-b.stopCh:
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			msg := update.Message
			if msg == nil || !msg.IsCommand() || msg.From == nil {
				continue
			}
			reply := b.handleCommand(msg.Command(), msg.CommandArguments(), msg.From.ID)
			if reply == "" {
				continue
			}
			if _, err := b.out.Send(tgbotapi.NewMessage(msg.Chat.ID, reply)); err != nil {
				b.log.Warn("reply failed", "chat_id", msg.Chat.ID, "error", err)
			}
		}
	}
}

func (b *ArenaBot) Stop() {
	close(b.stopCh)
	if b.api != nil {
		b.api.StopReceivingUpdates()
	}
	b.wg.Wait()
}

func (b *ArenaBot) isAdmin(id int64) bool {
	return slices.Contains(b.adminIDs, id)
}

func (b *ArenaBot) handleCommand(cmd, args string, from int64) string {
	if !b.isAdmin(from) {
		return ""
	}
	switch cmd {
	case "start", "help":
		return "Команды:\n/stats - состояние арены\n/match <id> - снимок матча\n/resolve <id> <player_id|none> - завершить матч"
	case "stats":
		return fmt.Sprintf("Соединений: %d\nВ очереди: %d\nЖивых матчей: %d",
			b.hub.Connections(), b.hub.Waiting(), len(b.hub.LiveRooms()))
	case "match":
		return b.handleMatch(strings.TrimSpace(args))
	case "resolve":
		return b.handleResolve(strings.Fields(args))
	default:
		return "Неизвестная команда, /help"
	}
}

func (b *ArenaBot) handleMatch(id string) string {
	if id == "" {
		return "Использование: /match <id>"
	}
	v, ok := b.hub.MatchView(id)
	if !ok {
		return "Матч не найден"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Матч %s\nСостояние: %s\n", v.MatchID, v.State)
	if v.ChallengeID != "" {
		fmt.Fprintf(&sb, "Задача: %s (%s)\n", v.ChallengeID, v.Difficulty)
	}
	for _, p := range v.Participants {
		fmt.Fprintf(&sb, "%s: %d%%\n", displayName(p.Profile, p.PlayerID), p.Progress)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// /resolve <id> <player_id> форфейт в пользу игрока, none - без победителя
func (b *ArenaBot) handleResolve(args []string) string {
	if len(args) != 2 {
		return "Использование: /resolve <id> <player_id|none>"
	}
	winner := args[1]
	if winner == "none" {
		winner = ""
	}
	o, err := b.hub.Resolve(args[0], match.StateForfeited, winner)
	if err != nil {
		return "Ошибка: " + err.Error()
	}
	if o.HasWinner() {
		return fmt.Sprintf("Матч завершён (%s), победитель %s", o.Reason, o.WinnerID)
	}
	return fmt.Sprintf("Матч завершён (%s), без победителя", o.Reason)
}

// SaveMatch анонс результата во все чаты; реализует ws.HistoryStore
func (b *ArenaBot) SaveMatch(ctx context.Context, rec *domain.MatchRecord) error {
	text := FormatResult(rec)
	for _, chatID := range b.chatIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := b.out.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			return fmt.Errorf("announce to %d: %w", chatID, err)
		}
	}
	return nil
}

func FormatResult(rec *domain.MatchRecord) string {
	a := displayName(rec.PlayerA, rec.PlayerAID)
	bName := displayName(rec.PlayerB, rec.PlayerBID)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s vs %s", a, bName)
	if rec.ChallengeID != "" {
		fmt.Fprintf(&sb, " · %s", rec.ChallengeID)
		if rec.Difficulty != "" {
			fmt.Fprintf(&sb, " (%s)", rec.Difficulty)
		}
	}
	sb.WriteString("\n")

	switch {
	case rec.WinnerID == nil && rec.Reason == domain.EndReasonTimeout:
		fmt.Fprintf(&sb, "Время вышло, ничья (%d%% : %d%%)", rec.ProgressA, rec.ProgressB)
	case rec.WinnerID == nil:
		sb.WriteString("Матч прерван, победителя нет")
	default:
		winner := a
		if *rec.WinnerID == rec.PlayerBID {
			winner = bName
		}
		switch rec.Reason {
		case domain.EndReasonSolved:
			fmt.Fprintf(&sb, "Победа: %s, решено за %s", winner, formatMS(rec.CompletionMS))
		default:
			fmt.Fprintf(&sb, "Победа: %s (соперник сдался)", winner)
		}
	}
	return sb.String()
}

func displayName(p domain.Profile, id string) string {
	if p.Name != "" {
		return p.Name
	}
	return id
}

func formatMS(ms int64) string {
	sec := ms / 1000
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}
