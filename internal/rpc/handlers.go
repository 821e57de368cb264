package rpc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/arti-chat/core/internal/coreerr"
	"github.com/arti-chat/core/internal/store"
)

func (r *Router) loadContacts() (interface{}, error) {
	contacts, err := r.store.ContactsWithUnread()
	if err != nil {
		return nil, err
	}
	views := make([]contactView, 0, len(contacts))
	for _, c := range contacts {
		v := contactView{
			OnionID:      c.OnionID,
			Nickname:     c.Nickname,
			PublicKey:    c.PublicKey,
			LastViewedAt: c.LastViewedAt,
			UnreadCount:  c.UnreadCount,
		}
		if c.LastMessageAt.Valid {
			v.LastMessageAt = &c.LastMessageAt.Int64
		}
		views = append(views, v)
	}
	return views, nil
}

func (r *Router) loadChat(line []byte) (interface{}, error) {
	var req loadChatRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, coreerr.New(coreerr.CodeEncoding, "malformed LoadChat request", err)
	}

	msgs, err := r.store.MessagesWith(req.OnionID, 0, 100)
	if err != nil {
		return nil, err
	}
	views := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		direction := "inbound"
		if m.Direction == store.Outbound {
			direction = "outbound"
		}
		views = append(views, messageView{
			ID:        m.ID,
			ContactID: m.ContactID,
			Body:      m.Body,
			Timestamp: m.Timestamp,
			Direction: direction,
			Delivered: m.Delivered,
			Verified:  m.Verified,
		})
	}
	return views, nil
}

// sendMessage persists the outbound message before attempting delivery
// (spec §3, §5: persistence-before-side-effect), then sends. A failed
// send leaves the message for the retry loop to pick up; it is not
// reported back to the caller as a command failure, matching spec §6's
// "(none); side-effect broadcast" contract for this command.
func (r *Router) sendMessage(ctx context.Context, line []byte) error {
	var req sendMessageRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return coreerr.New(coreerr.CodeEncoding, "malformed SendMessage request", err)
	}

	id, err := r.store.InsertMessage(store.Message{
		ContactID: req.To,
		Body:      req.Text,
		Timestamp: time.Now().Unix(),
		Direction: store.Outbound,
	})
	if err != nil {
		r.log.Error("failed to persist outbound message")
		return nil
	}

	if err := r.sender.Send(ctx, req.To, req.Text); err != nil {
		return nil
	}

	if err := r.store.MarkDelivered(id); err != nil {
		return nil
	}
	if r.broadcaster != nil {
		r.broadcaster.BroadcastReload(req.To)
	}
	return nil
}

func (r *Router) addContact(line []byte) (interface{}, error) {
	var req addContactRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, coreerr.New(coreerr.CodeEncoding, "malformed AddContact request", err)
	}
	if err := r.store.InsertContact(store.Contact{
		OnionID:   req.OnionID,
		Nickname:  req.Nickname,
		PublicKey: req.PublicKey,
	}); err != nil {
		return nil, err
	}
	return successReply{Success: true}, nil
}

func (r *Router) updateContact(line []byte) (interface{}, error) {
	var req updateContactRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, coreerr.New(coreerr.CodeEncoding, "malformed UpdateContact request", err)
	}
	if err := r.store.UpdateContact(req.OnionID, req.Nickname, req.PublicKey); err != nil {
		return nil, err
	}
	return successReply{Success: true}, nil
}

func (r *Router) loadUser() (interface{}, error) {
	u, err := r.store.GetUser()
	if err != nil {
		return nil, err
	}
	// Deliberately omits private_key: the UI never needs it and there is
	// no reason to put signing key material on the RPC socket.
	return userView{OnionID: u.OnionID, Nickname: u.Nickname, PublicKey: u.PublicKey}, nil
}

func (r *Router) updateUser(line []byte) (interface{}, error) {
	var req updateUserRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, coreerr.New(coreerr.CodeEncoding, "malformed UpdateUser request", err)
	}
	if err := r.store.UpdateUser(req.PublicKey, req.PrivateKey); err != nil {
		return nil, err
	}
	return successReply{Success: true}, nil
}

func (r *Router) deleteContactMessages(line []byte) (interface{}, error) {
	var req onionIDRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, coreerr.New(coreerr.CodeEncoding, "malformed DeleteContactMessages request", err)
	}
	if err := r.store.DeleteContactMessages(req.OnionID); err != nil {
		return nil, err
	}
	return successReply{Success: true}, nil
}

func (r *Router) deleteContact(line []byte) (interface{}, error) {
	var req onionIDRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, coreerr.New(coreerr.CodeEncoding, "malformed DeleteContact request", err)
	}
	if err := r.store.DeleteContact(req.OnionID); err != nil {
		return nil, err
	}
	if r.ratchetMgr != nil {
		r.ratchetMgr.Drop(req.OnionID)
	}
	return successReply{Success: true}, nil
}

func (r *Router) deleteAllContacts() (interface{}, error) {
	if err := r.store.DeleteAllContacts(); err != nil {
		return nil, err
	}
	return successReply{Success: true}, nil
}

func (r *Router) resetTorCircuit() (interface{}, error) {
	if err := r.client.ResetCircuit(); err != nil {
		return nil, coreerr.New(coreerr.CodeTransport, "failed to reset circuit", err)
	}
	return successReply{Success: true}, nil
}

// sendAppFocusState updates the shared focus flag the dispatcher
// consults before firing a desktop notification (spec §4.F step 8). It
// never produces a reply line.
func (r *Router) sendAppFocusState(line []byte) error {
	var req appFocusRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return coreerr.New(coreerr.CodeEncoding, "malformed SendAppFocusState request", err)
	}
	if r.focused != nil {
		r.focused.Store(req.Focussed)
	}
	return nil
}

func (r *Router) getConfigValue(line []byte) (interface{}, error) {
	var req configKeyRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, coreerr.New(coreerr.CodeEncoding, "malformed GetConfigValue request", err)
	}
	value, ok, err := r.store.ConfigGet(req.Key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return struct {
			Value *string `json:"value"`
		}{}, nil
	}
	return struct {
		Value *string `json:"value"`
	}{Value: &value}, nil
}

// setConfigValue produces no reply line, matching spec §6's
// side-effect-only contract for the config setters.
func (r *Router) setConfigValue(line []byte) error {
	var req configSetRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return coreerr.New(coreerr.CodeEncoding, "malformed SetConfigValue request", err)
	}
	return r.store.ConfigSet(req.Key, req.Value)
}

// pingHiddenService is the reachability self-test from spec §9: a
// single connect attempt to our own published address, bounded by
// ReachabilityTimeout, with no retry.
func (r *Router) pingHiddenService(ctx context.Context) (interface{}, error) {
	addr, err := r.client.LocalAddress()
	if err != nil {
		return successReply{Success: false}, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, ReachabilityTimeout)
	defer cancel()

	conn, err := r.client.Connect(pingCtx, addr, r.virtualPort)
	if err != nil {
		return successReply{Success: false}, nil
	}
	conn.Close()
	return successReply{Success: true}, nil
}
