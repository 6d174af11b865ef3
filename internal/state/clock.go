package state

import (
	"github.com/google/uuid"
)

// NewUserID allocates a fresh connection identity.
func NewUserID() UserID {
	return UserID(uuid.NewString())
}

// IdentityFunc hands out the id and color of a newly connected user.
type IdentityFunc func() (UserID, ColorValue)

// RandomIdentity is the default IdentityFunc.
func RandomIdentity() (UserID, ColorValue) {
	return NewUserID(), RandomColor()
}
