package domain

import (
	"fmt"

	"github.com/google/uuid"
)

type ownerKind uint8

const (
	ownerNone ownerKind = iota
	ownerSession
	ownerUser
)

// Owner identifies who a cart belongs to: an anonymous session or a user,
// never both. The zero value owns nothing.
type Owner struct {
	kind      ownerKind
	sessionID string
	userID    uuid.UUID
}

// SessionOwner returns the owner for an anonymous cart session.
func SessionOwner(sessionID string) Owner {
	return Owner{kind: ownerSession, sessionID: sessionID}
}

// UserOwner returns the owner for an authenticated user's cart.
func UserOwner(userID uuid.UUID) Owner {
	return Owner{kind: ownerUser, userID: userID}
}

// SessionID returns the session id when the owner is an anonymous session.
func (o Owner) SessionID() (string, bool) {
	return o.sessionID, o.kind == ownerSession
}

// UserID returns the user id when the owner is an authenticated user.
func (o Owner) UserID() (uuid.UUID, bool) {
	return o.userID, o.kind == ownerUser
}

// IsZero reports whether the owner is unset.
func (o Owner) IsZero() bool {
	return o.kind == ownerNone
}

// Columns returns the (session_id, user_id) pair as nullable column values.
func (o Owner) Columns() (sessionID *string, userID *uuid.UUID) {
	switch o.kind {
	case ownerSession:
		s := o.sessionID
		return &s, nil
	case ownerUser:
		u := o.userID
		return nil, &u
	}
	return nil, nil
}

func (o Owner) String() string {
	switch o.kind {
	case ownerSession:
		return "session:" + o.sessionID
	case ownerUser:
		return fmt.Sprintf("user:%s", o.userID)
	}
	return "none"
}

// MaxCartQuantity caps the quantity of a single cart line, including the
// sum reached by repeated adds.
const MaxCartQuantity = 999

// CartItem is one cart row.
type CartItem struct {
	ID        uuid.UUID `json:"id"`
	Owner     Owner     `json:"-"`
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// CartLine is a cart row joined with its product.
type CartLine struct {
	CartItem
	Product Product `json:"product"`
}
