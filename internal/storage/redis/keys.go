package redis

import (
	"fmt"

	"github.com/mcoot/savebridge/internal/model"
)

// Key prefix for all save-service data
const keyPrefix = "savebridge"

// accountKey returns the Redis key for an Account
func accountKey(id model.AccountID) string {
	return fmt.Sprintf("%s:account:%s", keyPrefix, id)
}

// usernameIndexKey returns the Redis key for the username -> account_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// slotKey returns the Redis key for a Slot
func slotKey(userID model.AccountID, name string) string {
	return fmt.Sprintf("%s:slot:%s:%s", keyPrefix, userID, name)
}

// slotsForUserIndexKey returns the Redis key for the SET of slot keys owned by a user
func slotsForUserIndexKey(userID model.AccountID) string {
	return fmt.Sprintf("%s:idx:slots_for_user:%s", keyPrefix, userID)
}
