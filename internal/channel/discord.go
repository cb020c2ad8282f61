// Package channel implements publish.Channel for the supported messaging services.
package channel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Alextopher/cosmosnaps/internal/publish"
)

// DiscordMaxPhotoSize is the attachment limit for bots without boosts (8MB)
const DiscordMaxPhotoSize = 8 * 1024 * 1024

// DefaultTimeout bounds API calls when no timeout is configured.
const DefaultTimeout = 30 * time.Second

func orDefault(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return DefaultTimeout
	}
	return timeout
}

// Discord posts photos as embeds with an attached image
type Discord struct {
	session *discordgo.Session
}

// NewDiscord creates a Discord channel from a bot token. REST calls are
// bounded by timeout.
//
// Only the REST API is used, so the gateway connection is never opened.
func NewDiscord(token string, timeout time.Duration) (*Discord, error) {
	if token == "" {
		return nil, errors.New("discord: empty bot token")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: %w", err)
	}
	session.Client = &http.Client{Timeout: orDefault(timeout)}

	return &Discord{session: session}, nil
}

// SendPhoto sends the photo to channelID with the caption as the embed description
func (d *Discord) SendPhoto(ctx context.Context, channelID string, photo publish.Photo, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	embed := &discordgo.MessageEmbed{
		Description: caption,
		Color:       0x0B3D91,
		Image: &discordgo.MessageEmbedImage{
			URL: "attachment://" + photo.Name,
		},
	}

	_, err := d.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Files: []*discordgo.File{{
			Name:        photo.Name,
			ContentType: http.DetectContentType(photo.Data),
			Reader:      bytes.NewReader(photo.Data),
		}},
	})
	if err != nil {
		return fmt.Errorf("discord: %w", err)
	}
	return nil
}
