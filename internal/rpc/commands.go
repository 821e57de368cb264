// Package rpc implements the command router (spec §4.J): it
// deserializes one JSON object per newline tagged by "cmd", dispatches
// to a handler that may call the persistence facade, the identity
// manager, or the outbound sender, and writes back a newline-terminated
// JSON reply. The router is the only component allowed to invoke
// handlers directly; internal/ipc only owns the socket plumbing.
package rpc

// envelope is the generic shape every incoming RPC line has: a tag
// plus whatever fields that command needs, re-decoded per command.
type envelope struct {
	Cmd string `json:"cmd"`
}

// Recognized command tags, enumerated in spec §6.
const (
	CmdLoadContacts         = "LoadContacts"
	CmdLoadChat             = "LoadChat"
	CmdSendMessage          = "SendMessage"
	CmdAddContact           = "AddContact"
	CmdUpdateContact        = "UpdateContact"
	CmdLoadUser             = "LoadUser"
	CmdUpdateUser           = "UpdateUser"
	CmdDeleteContactMessages = "DeleteContactMessages"
	CmdDeleteContact        = "DeleteContact"
	CmdDeleteAllContacts    = "DeleteAllContacts"
	CmdResetTorCircuit      = "ResetTorCircuit"
	CmdSendAppFocusState    = "SendAppFocusState"
	CmdGetConfigValue       = "GetConfigValue"
	CmdSetConfigValue       = "SetConfigValue"
	CmdPingHiddenService    = "PingHiddenService"
	CmdPingDaemon           = "PingDaemon"
)

type loadChatRequest struct {
	OnionID string `json:"onion_id"`
}

type sendMessageRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

type addContactRequest struct {
	Nickname  string `json:"nickname"`
	OnionID   string `json:"onion_id"`
	PublicKey string `json:"public_key"`
}

type updateContactRequest struct {
	OnionID   string  `json:"onion_id"`
	Nickname  *string `json:"nickname"`
	PublicKey *string `json:"public_key"`
}

type updateUserRequest struct {
	PublicKey  *string `json:"public_key"`
	PrivateKey *string `json:"private_key"`
}

type onionIDRequest struct {
	OnionID string `json:"onion_id"`
}

type appFocusRequest struct {
	Focussed bool `json:"focussed"`
}

type configKeyRequest struct {
	Key string `json:"key"`
}

type configSetRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type contactView struct {
	OnionID       string `json:"onion_id"`
	Nickname      string `json:"nickname"`
	PublicKey     string `json:"public_key"`
	LastViewedAt  int64  `json:"last_viewed_at"`
	LastMessageAt *int64 `json:"last_message_at,omitempty"`
	UnreadCount   int64  `json:"unread_count"`
}

type messageView struct {
	ID        int64  `json:"id"`
	ContactID string `json:"contact_id"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"`
	Direction string `json:"direction"`
	Delivered bool   `json:"delivered"`
	Verified  bool   `json:"verified"`
}

type userView struct {
	OnionID   string `json:"onion_id"`
	Nickname  string `json:"nickname"`
	PublicKey string `json:"public_key"`
}

type successReply struct {
	Success bool `json:"success"`
}

type errorReply struct {
	Error string `json:"error"`
}
