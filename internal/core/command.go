package core

import "encoding/json"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandGetMessages pages through a chat's messages.
	CommandGetMessages CommandKind = iota
	// CommandGetProfile returns a profile, the caller's own by default.
	CommandGetProfile
	// CommandSearchByLogin finds identities by login substring.
	CommandSearchByLogin
	// CommandAddContact adds a contact and opens a dialog with it.
	CommandAddContact
	// CommandGetChatList lists the caller's chats.
	CommandGetChatList
	// CommandSendMessage posts a message into a chat.
	CommandSendMessage
)

var commandNames = map[CommandKind]string{
	CommandGetMessages:   "GetMessages",
	CommandGetProfile:    "GetProfile",
	CommandSearchByLogin: "SearchByLogin",
	CommandAddContact:    "AddContact",
	CommandGetChatList:   "GetChatList",
	CommandSendMessage:   "SendMessage",
}

var resultEvents = map[CommandKind]EventName{
	CommandGetMessages:   "GetMessagesResult",
	CommandGetProfile:    "GetProfileResult",
	CommandSearchByLogin: "SearchByLoginResult",
	CommandAddContact:    "AddContactResult",
	CommandGetChatList:   "GetChatListResult",
	CommandSendMessage:   "SendMessageResult",
}

var commandsByName = func() map[string]CommandKind {
	m := make(map[string]CommandKind, len(commandNames))
	for kind, name := range commandNames {
		m[name] = kind
	}
	return m
}()

func (k CommandKind) String() string {
	if name, ok := commandNames[k]; ok {
		return name
	}
	return "Unknown"
}

// ResultEvent is the event name carrying the reply envelope for k.
func (k CommandKind) ResultEvent() EventName {
	if name, ok := resultEvents[k]; ok {
		return name
	}
	return EventName(k.String() + "Result")
}

// ParseCommandKind maps a wire command name to its kind.
func ParseCommandKind(name string) (CommandKind, bool) {
	kind, ok := commandsByName[name]
	return kind, ok
}

// Command represents an action requested over a connection. Payload is the
// raw JSON sent by the client and may be empty.
type Command struct {
	Kind    CommandKind
	Payload json.RawMessage
}
