package arbitrage

import (
	"context"
	"fmt"
	"time"

	"crypto-exchange-arbitrage-monitor/internal/domain"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/webhook"
)

func AlertDiscord(webhookUrl string, opportunity domain.ArbitrageOpportunity) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := webhook.NewWithURL(webhookUrl)
	if err != nil {
		Logger.Error("Failed to create discord session: " + err.Error())
		return
	}
	defer client.Close(ctx)

	_, err = client.CreateEmbeds([]discord.Embed{
		discord.NewEmbedBuilder().
			SetTitle("Arbitrage opportunity found").
			SetColor(0x00ff00).
			AddField("Symbol", opportunity.Symbol, true).
			AddField("Buy On", opportunity.BuyExchange, true).
			AddField("Sell On", opportunity.SellExchange, true).
			AddField("​", "​", false).
			AddField("Buy Price", fmt.Sprintf("%f", opportunity.BuyPrice), true).
			AddField("Sell Price", fmt.Sprintf("%f", opportunity.SellPrice), true).
			AddField("Profit %", fmt.Sprintf("%.4f", opportunity.ProfitPercent), true).
			Build()})
	if err != nil {
		Logger.Error("Failed to send message to discord: " + err.Error())
	}
}
