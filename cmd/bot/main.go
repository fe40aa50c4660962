package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Dev-Aaron27/fireboard/internal/backendclient"
	"github.com/Dev-Aaron27/fireboard/internal/config"
	"github.com/Dev-Aaron27/fireboard/internal/discord"
	"github.com/Dev-Aaron27/fireboard/internal/optout"
)

func main() {
	// Load configuration
	cfgPath := "configs/config.yml"
	if p := os.Getenv("FIREBOARD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Discord.Token == "" {
		logrus.Fatal("Discord token is not set (config or DISCORD_TOKEN)")
	}
	if cfg.Discord.GuildID == "" {
		logrus.Fatal("discord.guild_id is required")
	}
	if len(cfg.Categories) == 0 {
		logrus.Fatal("at least one tracked category is required")
	}

	// Load opt-out list
	optoutStore, err := optout.Load(cfg.OptOut.File)
	if err != nil {
		logrus.Fatalf("Failed to load opt-out list: %v", err)
	}

	backend := backendclient.NewClient(cfg.Backend.URL, cfg.BackendTimeout())

	bot, err := discord.NewBot(cfg, optoutStore, backend)
	if err != nil {
		logrus.Fatalf("Failed to create Discord bot: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Keep-alive web server so the hosting platform sees the bot as healthy.
	go func() {
		router := gin.Default()
		router.GET("/", func(c *gin.Context) {
			c.String(http.StatusOK, "Fire Board bot is running!")
		})
		if err := router.Run(":" + cfg.Discord.KeepAlivePort); err != nil {
			logrus.Fatalf("Keep-alive server failed to start: %v", err)
		}
	}()

	logrus.Info("Starting Discord bot...")
	if err := bot.Start(ctx); err != nil {
		logrus.Fatalf("Discord bot failed: %v", err)
	}
	logrus.Info("Application stopped.")
}
