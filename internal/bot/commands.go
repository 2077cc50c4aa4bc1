package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	CmdAddExpense = "addgasto"
	CmdBalance    = "saldo"
	CmdStatement  = "extrato"
	CmdSetBalance = "setrenda"
	CmdReset      = "reset"

	optAmount   = "valor"
	optCategory = "categoria"
)

// Commands is the slash command surface published at startup.
var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        CmdAddExpense,
		Description: "Adiciona um gasto",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionNumber,
				Name:        optAmount,
				Description: "Valor do gasto",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        optCategory,
				Description: "Categoria do gasto",
				Required:    true,
			},
		},
	},
	{
		Name:        CmdBalance,
		Description: "Mostra seu saldo",
	},
	{
		Name:        CmdStatement,
		Description: "Mostra seus gastos recentes",
	},
	{
		Name:        CmdSetBalance,
		Description: "Define seu saldo inicial",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionNumber,
				Name:        optAmount,
				Description: "Saldo inicial",
				Required:    true,
			},
		},
	},
	{
		Name:        CmdReset,
		Description: "Zera seu saldo e todos os gastos",
	},
}

// CommandRegistrar is implemented by *discordgo.Session
type CommandRegistrar interface {
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// RegisterCommands replaces the application's commands with Commands.
// An empty guildID registers them globally.
func RegisterCommands(r CommandRegistrar, appID, guildID string) ([]*discordgo.ApplicationCommand, error) {
	created, err := r.ApplicationCommandBulkOverwrite(appID, guildID, Commands)
	if err != nil {
		return nil, fmt.Errorf("register commands: %w", err)
	}
	return created, nil
}

// RegisterCommandsOnce is the startup variant: failures are logged and never fatal.
// It returns the number of commands the platform accepted.
func RegisterCommandsOnce(r CommandRegistrar, appID, guildID string, logger *zap.Logger) int {
	logger.Info("registering commands", zap.Int("count", len(Commands)), zap.String("guild_id", guildID))

	created, err := RegisterCommands(r, appID, guildID)
	if err != nil {
		logger.Error("failed to register commands", zap.Error(err))
		return 0
	}

	logger.Info("commands registered", zap.Int("count", len(created)))
	return len(created)
}
