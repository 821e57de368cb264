package store

import (
	"time"

	"github.com/arti-chat/core/internal/coreerr"
)

// Direction distinguishes which side originated a message.
type Direction int

const (
	Inbound Direction = iota
	Outbound
)

// Message is one chat line. Delivered is only meaningful for outbound
// messages; Verified only for inbound ones, per spec §3.
type Message struct {
	ID        int64
	ContactID string
	Body      string
	Timestamp int64
	Direction Direction
	Delivered bool
	Verified  bool
}

// InsertMessage persists a message and returns its auto-assigned id.
// Per the persistence-before-side-effect invariant (spec §3, §5), every
// caller must complete this before any network send or broadcast.
func (s *Store) InsertMessage(m Message) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	isIncoming := 0
	if m.Direction == Inbound {
		isIncoming = 1
	}
	res, err := s.db.Exec(
		`INSERT INTO message (contact_onion_id, body, timestamp, is_incoming, sent_status, verified_status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ContactID, m.Body, m.Timestamp, isIncoming, boolToInt(m.Delivered), boolToInt(m.Verified),
	)
	if err != nil {
		return 0, coreerr.New(coreerr.CodePersistence, "failed to insert message", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, coreerr.New(coreerr.CodePersistence, "failed to read last insert id", err)
	}
	return id, nil
}

// MarkDelivered flips an outbound message's delivered flag, called by
// the retry loop and the send-path handler on success.
func (s *Store) MarkDelivered(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`UPDATE message SET sent_status = 1 WHERE id = ?`, id); err != nil {
		return coreerr.New(coreerr.CodePersistence, "failed to mark message delivered", err)
	}
	return nil
}

// MessagesWith returns messages with the given contact, newest first,
// and as a side effect marks contact.last_viewed_at = now() (spec
// §4.D), which is what drives unread_count back to zero (spec §8
// property 5).
func (s *Store) MessagesWith(contactID string, offset, limit int) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT id, contact_onion_id, body, timestamp, is_incoming, sent_status, verified_status
		 FROM message WHERE contact_onion_id = ? ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?`,
		contactID, limit, offset,
	)
	if err != nil {
		return nil, coreerr.New(coreerr.CodePersistence, "failed to query messages", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, coreerr.New(coreerr.CodePersistence, "failed to iterate messages", err)
	}

	if err := s.touchLastViewedLocked(contactID); err != nil {
		return nil, err
	}
	return out, nil
}

// FailedOutboundMessages returns outbound messages eligible for retry:
// delivered=false, age in [minAge, maxAge] (30s and 300s by default in
// config; spec §4.D, §8 property 4). The
// lower bound avoids racing the initial send attempt; the upper bound
// ages permanently-failing messages out of the retry window silently.
func (s *Store) FailedOutboundMessages(minAge, maxAge time.Duration) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	lowerTimestamp := now - int64(maxAge.Seconds())
	upperTimestamp := now - int64(minAge.Seconds())

	rows, err := s.db.Query(
		`SELECT id, contact_onion_id, body, timestamp, is_incoming, sent_status, verified_status
		 FROM message
		 WHERE is_incoming = 0 AND sent_status = 0 AND timestamp >= ? AND timestamp <= ?
		 ORDER BY timestamp ASC`,
		lowerTimestamp, upperTimestamp,
	)
	if err != nil {
		return nil, coreerr.New(coreerr.CodePersistence, "failed to query failed outbound messages", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, coreerr.New(coreerr.CodePersistence, "failed to iterate failed outbound messages", err)
	}
	return out, nil
}

// DeleteContactMessages removes every message for a contact without
// removing the contact itself, for the DeleteContactMessages RPC.
func (s *Store) DeleteContactMessages(contactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM message WHERE contact_onion_id = ?`, contactID); err != nil {
		return coreerr.New(coreerr.CodePersistence, "failed to delete contact messages", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row scanner) (Message, error) {
	var m Message
	var isIncoming, sentStatus, verifiedStatus int
	if err := row.Scan(&m.ID, &m.ContactID, &m.Body, &m.Timestamp, &isIncoming, &sentStatus, &verifiedStatus); err != nil {
		return Message{}, coreerr.New(coreerr.CodePersistence, "failed to scan message", err)
	}
	if isIncoming == 1 {
		m.Direction = Inbound
	} else {
		m.Direction = Outbound
	}
	m.Delivered = sentStatus == 1
	m.Verified = verifiedStatus == 1
	return m, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
