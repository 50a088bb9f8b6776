package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/soyeahso/discordbridge/internal/domain"
)

func convertMessage(m *discordgo.Message) (domain.Message, bool) {
	return domain.Message{
		AuthorID:   m.Author.ID,
		AuthorName: m.Author.Username,
		Content:    m.Content,
		ChannelID:  m.ChannelID,
		GuildID:    m.GuildID,
		MessageID:  m.ID,
	}, m.Author.Bot
}

func convertReaction(r *discordgo.MessageReaction) domain.ReactionAdd {
	return domain.ReactionAdd{
		UserID:    r.UserID,
		Emoji:     r.Emoji.Name,
		MessageID: r.MessageID,
		ChannelID: r.ChannelID,
		GuildID:   r.GuildID,
	}
}

func toMessageEmbed(e domain.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	if e.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	if e.ImageURL != "" {
		out.Image = &discordgo.MessageEmbedImage{URL: e.ImageURL}
	}
	return out
}

var statuses = map[domain.PresenceStatus]discordgo.Status{
	domain.StatusOnline:    discordgo.StatusOnline,
	domain.StatusIdle:      discordgo.StatusIdle,
	domain.StatusDND:       discordgo.StatusDoNotDisturb,
	domain.StatusInvisible: discordgo.StatusInvisible,
	domain.StatusOffline:   discordgo.StatusOffline,
}

func toStatusData(p domain.Presence) discordgo.UpdateStatusData {
	status, ok := statuses[p.Status]
	if !ok {
		status = discordgo.StatusOnline
	}
	usd := discordgo.UpdateStatusData{Status: string(status)}
	if p.Activity != "" {
		usd.Activities = []*discordgo.Activity{{Name: p.Activity, Type: discordgo.ActivityTypeGame}}
	}
	return usd
}

func toUserInfo(u *discordgo.User) domain.UserInfo {
	disc := u.Discriminator
	if disc == "" {
		disc = "0"
	}
	return domain.UserInfo{
		ID:            u.ID,
		Username:      u.Username,
		Discriminator: disc,
		Bot:           u.Bot,
	}
}
