package rpc

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/arti-chat/core/internal/coreerr"
	"github.com/arti-chat/core/internal/identity"
	"github.com/arti-chat/core/internal/logger"
	"github.com/arti-chat/core/internal/overlay"
	"github.com/arti-chat/core/internal/ratchet"
	"github.com/arti-chat/core/internal/store"
)

// Sender is the outbound-send dependency the SendMessage handler calls.
type Sender interface {
	Send(ctx context.Context, peerOnionID, text string) error
}

// Broadcaster pushes a reload hint to every connected UI, implemented
// by internal/ipc.Server. Per the REDESIGN FLAG resolved in
// SPEC_FULL.md §5, reload hints always go to every sink, not just the
// most recently opened one.
type Broadcaster interface {
	BroadcastReload(onionID string)
}

// ReachabilityTimeout bounds the PingHiddenService self-test's single
// connect attempt (spec §5, §9: "no retry, acceptable as a health probe").
const ReachabilityTimeout = 45 * time.Second

// Router dispatches one decoded command envelope per call to the
// handler that owns its side effects.
type Router struct {
	store       *store.Store
	self        *identity.Identity
	sender      Sender
	client      overlay.Client
	broadcaster Broadcaster
	ratchetMgr  *ratchet.Manager
	focused     *atomic.Bool
	virtualPort uint16
	log         logger.Logger
}

// New builds a Router. ratchetMgr may be nil if the daemon is not
// running the optional forward-secrecy subsystem. virtualPort is the
// same BEGIN-port the dispatcher and sender use; PingHiddenService
// dials it against our own published address.
func New(db *store.Store, self *identity.Identity, sender Sender, client overlay.Client, broadcaster Broadcaster, ratchetMgr *ratchet.Manager, focused *atomic.Bool, virtualPort uint16, log logger.Logger) *Router {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &Router{
		store:       db,
		self:        self,
		sender:      sender,
		client:      client,
		broadcaster: broadcaster,
		ratchetMgr:  ratchetMgr,
		focused:     focused,
		virtualPort: virtualPort,
		log:         log,
	}
}

// Handle decodes one newline-delimited JSON line and dispatches it.
// The returned bytes already have a trailing newline and should be
// written verbatim to the caller's socket; a nil reply means the
// command is fire-and-forget (SendMessage, SendAppFocusState,
// SetConfigValue) and
// nothing should be written back.
func (r *Router) Handle(ctx context.Context, line []byte) []byte {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return encodeError("malformed request: " + err.Error())
	}

	reply, err := r.dispatch(ctx, env.Cmd, line)
	if err != nil {
		r.log.Warn("rpc command failed", logger.String("cmd", env.Cmd), logger.Error(err))
		return encodeError(err.Error())
	}
	if reply == nil {
		return nil
	}
	return encode(reply)
}

func (r *Router) dispatch(ctx context.Context, cmd string, line []byte) (interface{}, error) {
	switch cmd {
	case CmdLoadContacts:
		return r.loadContacts()
	case CmdLoadChat:
		return r.loadChat(line)
	case CmdSendMessage:
		return nil, r.sendMessage(ctx, line)
	case CmdAddContact:
		return r.addContact(line)
	case CmdUpdateContact:
		return r.updateContact(line)
	case CmdLoadUser:
		return r.loadUser()
	case CmdUpdateUser:
		return r.updateUser(line)
	case CmdDeleteContactMessages:
		return r.deleteContactMessages(line)
	case CmdDeleteContact:
		return r.deleteContact(line)
	case CmdDeleteAllContacts:
		return r.deleteAllContacts()
	case CmdResetTorCircuit:
		return r.resetTorCircuit()
	case CmdSendAppFocusState:
		return nil, r.sendAppFocusState(line)
	case CmdGetConfigValue:
		return r.getConfigValue(line)
	case CmdSetConfigValue:
		return nil, r.setConfigValue(line)
	case CmdPingHiddenService:
		return r.pingHiddenService(ctx)
	case CmdPingDaemon:
		return successReply{Success: true}, nil
	default:
		return nil, coreerr.New(coreerr.CodeConfig, "unrecognized command: "+cmd, nil)
	}
}

func encode(v interface{}) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		return encodeError("failed to encode reply: " + err.Error())
	}
	return append(raw, '\n')
}

func encodeError(msg string) []byte {
	raw, _ := json.Marshal(errorReply{Error: msg})
	return append(raw, '\n')
}
