package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// SessionID identifies one conversation. It is either temporary
// (client-minted, before the server has assigned an id) or confirmed
// (server-issued). The two namespaces never overlap: temporary ids are
// UUID strings, confirmed ids are server integers. The zero value means
// "no session".
type SessionID struct {
	server int64
	local  string
}

func ConfirmedID(id int64) SessionID {
	return SessionID{server: id}
}

// NewTemporaryID mints a fresh client-side id for a session that does
// not exist on the server yet.
func NewTemporaryID() SessionID {
	return SessionID{local: uuid.NewString()}
}

func (id SessionID) IsZero() bool      { return id == SessionID{} }
func (id SessionID) IsTemporary() bool { return id.local != "" }

// Server returns the confirmed server id, or false for temporary or
// zero ids.
func (id SessionID) Server() (int64, bool) {
	if id.server == 0 {
		return 0, false
	}
	return id.server, true
}

func (id SessionID) String() string {
	switch {
	case id.local != "":
		return "tmp:" + id.local
	case id.server != 0:
		return strconv.FormatInt(id.server, 10)
	default:
		return "none"
	}
}

type Session struct {
	ID        SessionID
	Title     string
	CreatedAt time.Time
}
