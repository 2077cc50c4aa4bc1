package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/expense-ledger-bot/internal/ledger"
	"github.com/sheikh-saqib/expense-ledger-bot/internal/models"
)

const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
	OutcomeUnknown = "unknown"

	defaultTimeout = 10 * time.Second
)

// Service is the ledger surface the handler needs. *ledger.Ledger implements it.
type Service interface {
	AddExpense(ctx context.Context, userID string, amount decimal.Decimal, category string) (decimal.Decimal, models.Expense, error)
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
	RecentExpenses(ctx context.Context, userID string, n int) ([]models.Expense, error)
	SetBalance(ctx context.Context, userID string, amount decimal.Decimal) error
	Reset(ctx context.Context, userID string) error
}

// Responder is the reply surface of *discordgo.Session
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Recorder interface {
	RecordCommand(command, outcome string, duration time.Duration)
}

// Handler turns slash command interactions into ledger operations.
// Every application command interaction gets exactly one reply.
type Handler struct {
	ledger   Service
	recorder Recorder
	logger   *zap.Logger
	timeout  time.Duration
}

func NewHandler(svc Service, recorder Recorder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		ledger:   svc,
		recorder: recorder,
		logger:   logger,
		timeout:  defaultTimeout,
	}
}

// OnInteractionCreate is registered with discordgo.Session.AddHandler
func (h *Handler) OnInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := h.Handle(context.Background(), s, i.Interaction); err != nil {
		h.logger.Error("failed to reply to interaction",
			zap.String("interaction_id", i.ID),
			zap.Error(err),
		)
	}
}

// Handle dispatches one interaction. The returned error is about delivering the reply;
// ledger failures are reported to the user and logged.
func (h *Handler) Handle(ctx context.Context, r Responder, i *discordgo.Interaction) error {
	if i.Type != discordgo.InteractionApplicationCommand {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	data := i.ApplicationCommandData()
	userID := invokingUser(i)
	start := time.Now()

	logger := h.logger.With(
		zap.String("command", data.Name),
		zap.String("user_id", userID),
	)

	var (
		outcome string
		err     error
	)
	switch data.Name {
	case CmdAddExpense:
		outcome, err = h.addExpense(ctx, r, i, userID, data, logger)
	case CmdBalance:
		outcome, err = h.balance(ctx, r, i, userID, logger)
	case CmdStatement:
		outcome, err = h.statement(ctx, r, i, userID, logger)
	case CmdSetBalance:
		outcome, err = h.setBalance(ctx, r, i, userID, data, logger)
	case CmdReset:
		outcome, err = h.reset(ctx, r, i, userID, logger)
	default:
		logger.Warn("unknown command")
		outcome, err = OutcomeUnknown, respond(r, i, msgUnknown, true)
	}

	if h.recorder != nil {
		h.recorder.RecordCommand(data.Name, outcome, time.Since(start))
	}
	return err
}

func (h *Handler) addExpense(ctx context.Context, r Responder, i *discordgo.Interaction, userID string, data discordgo.ApplicationCommandInteractionData, logger *zap.Logger) (string, error) {
	amount, category, err := expenseOptions(data)
	if err == nil {
		err = ledger.ValidateExpense(amount, category)
	}
	if err != nil {
		return h.fail(r, i, err, logger)
	}

	// JSON I/O may outlast the acknowledgement deadline, so acknowledge first
	if err := r.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		return OutcomeError, fmt.Errorf("defer reply: %w", err)
	}

	balance, expense, err := h.ledger.AddExpense(ctx, userID, amount, category)
	if err != nil {
		logger.Error("failed to add expense", zap.Error(err))
		return OutcomeError, edit(r, i, msgFailure)
	}

	logger.Info("expense added",
		zap.String("expense_id", expense.ID),
		zap.String("amount", expense.Amount.String()),
		zap.String("balance", balance.String()),
	)
	return OutcomeOK, edit(r, i, expenseAddedMessage(expense.Amount, expense.Category, balance))
}

func (h *Handler) balance(ctx context.Context, r Responder, i *discordgo.Interaction, userID string, logger *zap.Logger) (string, error) {
	balance, err := h.ledger.Balance(ctx, userID)
	if err != nil {
		return h.fail(r, i, err, logger)
	}
	return OutcomeOK, respond(r, i, balanceMessage(balance), false)
}

func (h *Handler) statement(ctx context.Context, r Responder, i *discordgo.Interaction, userID string, logger *zap.Logger) (string, error) {
	expenses, err := h.ledger.RecentExpenses(ctx, userID, StatementSize)
	if err != nil {
		return h.fail(r, i, err, logger)
	}
	return OutcomeOK, respond(r, i, statementMessage(expenses), false)
}

func (h *Handler) setBalance(ctx context.Context, r Responder, i *discordgo.Interaction, userID string, data discordgo.ApplicationCommandInteractionData, logger *zap.Logger) (string, error) {
	amount, err := amountOption(data)
	if err != nil {
		return h.fail(r, i, err, logger)
	}
	if err := h.ledger.SetBalance(ctx, userID, amount); err != nil {
		return h.fail(r, i, err, logger)
	}

	logger.Info("balance set", zap.String("balance", amount.String()))
	return OutcomeOK, respond(r, i, balanceSetMessage(amount), false)
}

func (h *Handler) reset(ctx context.Context, r Responder, i *discordgo.Interaction, userID string, logger *zap.Logger) (string, error) {
	if err := h.ledger.Reset(ctx, userID); err != nil {
		return h.fail(r, i, err, logger)
	}

	logger.Info("account reset")
	return OutcomeOK, respond(r, i, msgReset, false)
}

// fail replies ephemerally with the message for err
func (h *Handler) fail(r Responder, i *discordgo.Interaction, err error, logger *zap.Logger) (string, error) {
	msg, invalid := userMessage(err)
	if invalid {
		logger.Info("rejected command input", zap.Error(err))
		return OutcomeInvalid, respond(r, i, msg, true)
	}

	logger.Error("command failed", zap.Error(err))
	return OutcomeError, respond(r, i, msg, true)
}

func respond(r Responder, i *discordgo.Interaction, content string, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := r.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		return fmt.Errorf("reply: %w", err)
	}
	return nil
}

func edit(r Responder, i *discordgo.Interaction, content string) error {
	if _, err := r.InteractionResponseEdit(i, &discordgo.WebhookEdit{Content: &content}); err != nil {
		return fmt.Errorf("edit reply: %w", err)
	}
	return nil
}

// invokingUser returns the member's user in guilds and the user in direct messages
func invokingUser(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func options(data discordgo.ApplicationCommandInteractionData) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(data.Options))
	for _, opt := range data.Options {
		opts[opt.Name] = opt
	}
	return opts
}

func amountOption(data discordgo.ApplicationCommandInteractionData) (decimal.Decimal, error) {
	opt, ok := options(data)[optAmount]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionNumber {
		return decimal.Zero, missingOptionError(optAmount)
	}
	return ledger.ParseAmount(opt.FloatValue())
}

func expenseOptions(data discordgo.ApplicationCommandInteractionData) (decimal.Decimal, string, error) {
	amount, err := amountOption(data)
	if err != nil {
		return decimal.Zero, "", err
	}
	opt, ok := options(data)[optCategory]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionString {
		return decimal.Zero, "", missingOptionError(optCategory)
	}
	return amount, opt.StringValue(), nil
}
