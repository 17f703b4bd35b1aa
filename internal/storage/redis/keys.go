package redis

import "fmt"

// Key prefix for all console data
const keyPrefix = "gamehub"

// sessionKey returns the Redis key for an AuthSession
func sessionKey(id string) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, id)
}

// viewKey returns the Redis key for a module's ViewState
func viewKey(sessionID, module string) string {
	return fmt.Sprintf("%s:view:%s:%s", keyPrefix, sessionID, module)
}

// seqKey returns the Redis key for a module's request token counter
func seqKey(sessionID, module string) string {
	return fmt.Sprintf("%s:seq:%s:%s", keyPrefix, sessionID, module)
}

// bindingKey returns the Redis key for a form's bound nonce
func bindingKey(sessionID, form string) string {
	return fmt.Sprintf("%s:binding:%s:%s", keyPrefix, sessionID, form)
}

// sessionIndexKey returns the Redis key for the SET of keys scoped to a session
func sessionIndexKey(sessionID string) string {
	return fmt.Sprintf("%s:idx:session_keys:%s", keyPrefix, sessionID)
}
