package chat

import (
	"fmt"
	"strings"
)

// Protocol text sent to clients.
const (
	msgAskConfirm      = "- Do you need to set your nick? (y/n) -"
	msgAskNick         = "- What is your nick? -"
	msgNickTaken       = "- Nickname already taken! Please try another one. -"
	msgNickEmpty       = "- Nick cannot be empty! Please try another one. -"
	msgTextOnly        = "- Only text frames are accepted! -"
	msgTextOnlyAskNick = "- Only text frames are accepted! What is your nick? -"

	msgAssemblyHelp = "- Now type the ID of the user or a part of his/her nick you want to whisper to. -\n" +
		"- Enter '.complete' to end adding users. -\n" +
		"- Or Enter '.id[Group ID]' to join a group. -"
	msgUserNotFound   = "- User not found. Please try again! -"
	msgAlreadyInGroup = "- This user is already in this conversation! -"

	msgReplyOver     = "- Reply mode is over. -"
	msgReplyNoTarget = "- Tell me who to reply to, e.g. '.re 3 alice'. -"
)

func msgBanner(count, id int) string {
	return fmt.Sprintf("- You are connected! There are %d users here. -\n"+
		"- Please remember your ID is %d, others can use this to find you. -\n"+
		"- Using 'r[User ID or a part of his/her nick]:[message]' to reply a user. -\n"+
		"- Using '.re[User ID or a part of his/her nick] [...]' to open reply mode. -", count, id)
}

func msgWelcomeNick(nick string) string {
	return fmt.Sprintf("- Everything is ready! Welcome, %s! -", nick)
}

func msgWelcomeDeclined(label string) string {
	return fmt.Sprintf("- Ok! Welcome, %s! -", label)
}

func msgJoined(label string) string {
	return fmt.Sprintf("[system]: new user '%s' connected!", label)
}

func msgLeft(label string) string {
	return fmt.Sprintf("[system]: user '%s' disconnected!", label)
}

func msgUserAdded(name string) string {
	return fmt.Sprintf("- User %s added! -", name)
}

func msgGroupNotFound(id string) string {
	return fmt.Sprintf("- Group with ID '%s' does not exist. Please try again! -", id)
}

func msgGroupJoined(g *Group) string {
	return fmt.Sprintf("- You have joined group '%s'! -", g.Tag())
}

func msgGroupReady(g *Group) string {
	return fmt.Sprintf("- Ok, now everything is set up. Your group ID is %d. Type the message you want to send. -", g.ID())
}

func msgTargetNotFound(spec string) string {
	return fmt.Sprintf("- '%s' not found. Please try again! -", spec)
}

func msgReplyMode(targets []*Connection) string {
	names := make([]string, 0, len(targets))
	for _, c := range targets {
		names = append(names, c.DisplayName())
	}
	return fmt.Sprintf("- Now every your message will be sent to %s -\n- Enter '.over' to exit reply mode. -",
		strings.Join(names, ", "))
}

func formatBroadcast(from *Connection, text string) string {
	return fmt.Sprintf("[%s]: %s", from.DisplayName(), text)
}

func formatGroup(g *Group, from *Connection, text string) string {
	return fmt.Sprintf("*%s* [%s]: %s", g.Tag(), from.DisplayName(), text)
}

func formatReply(from *Connection, text string) string {
	return fmt.Sprintf("*Reply* [%s]: %s", from.DisplayName(), text)
}

func formatWhisper(from *Connection, text string) string {
	return fmt.Sprintf("*Whisper* [%s]: %s", from.DisplayName(), text)
}
