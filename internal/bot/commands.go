package bot

import "github.com/bwmarrin/discordgo"

const (
	CommandLink      = "link"
	CommandBalance   = "balance"
	CommandPay       = "pay"
	CommandMarket    = "market"
	CommandBuy       = "buy"
	CommandSell      = "sell"
	CommandGiveCoins = "give-coins"
	CommandTakeCoins = "take-coins"
)

// adminPermissions hides the admin commands from members who lack the permission
var adminPermissions int64 = discordgo.PermissionAdministrator

// Commands returns the slash commands the bot registers
func Commands() []*discordgo.ApplicationCommand {
	amountOption := &discordgo.ApplicationCommandOption{
		Name:        "amount",
		Description: "Amount of coins, e.g. 25 or 12.50",
		Type:        discordgo.ApplicationCommandOptionString,
		Required:    true,
	}
	userOption := &discordgo.ApplicationCommandOption{
		Name:        "user",
		Description: "Member to receive the coins",
		Type:        discordgo.ApplicationCommandOptionUser,
		Required:    true,
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        CommandLink,
			Description: "Link your Minecraft account with the code shown in game",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "code",
					Description: "Code from /link in game",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    true,
				},
			},
		},
		{
			Name:        CommandBalance,
			Description: "Show your balance",
		},
		{
			Name:        CommandPay,
			Description: "Send coins to another member",
			Options:     []*discordgo.ApplicationCommandOption{userOption, amountOption},
		},
		{
			Name:        CommandMarket,
			Description: "Browse items for sale",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "page",
					Description: "Page number",
					Type:        discordgo.ApplicationCommandOptionInteger,
					MinValue:    floatPtr(1),
				},
			},
		},
		{
			Name:        CommandBuy,
			Description: "Buy a listing from the market",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "id",
					Description: "Listing ID from /market",
					Type:        discordgo.ApplicationCommandOptionInteger,
					Required:    true,
					MinValue:    floatPtr(1),
				},
			},
		},
		{
			Name:        CommandSell,
			Description: "Put items from your linked Minecraft account up for sale",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "item",
					Description: "Item name, e.g. diamond",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    true,
				},
				{
					Name:        "amount",
					Description: "How many items",
					Type:        discordgo.ApplicationCommandOptionInteger,
					Required:    true,
					MinValue:    floatPtr(1),
				},
				{
					Name:        "price",
					Description: "Price per item",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    true,
				},
			},
		},
		{
			Name:                     CommandGiveCoins,
			Description:              "Add coins to a member's balance (admin)",
			DefaultMemberPermissions: &adminPermissions,
			Options:                  []*discordgo.ApplicationCommandOption{userOption, amountOption},
		},
		{
			Name:                     CommandTakeCoins,
			Description:              "Remove coins from a member's balance (admin)",
			DefaultMemberPermissions: &adminPermissions,
			Options:                  []*discordgo.ApplicationCommandOption{userOption, amountOption},
		},
	}
}

func floatPtr(f float64) *float64 {
	return &f
}
