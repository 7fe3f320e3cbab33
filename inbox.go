package natsclient

import (
	"crypto/rand"
)

// InboxPrefix is the subject namespace for reply inboxes.
const InboxPrefix = "_INBOX."

const (
	inboxTokenLen  = 22
	replySuffixLen = 8

	tokenAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// NewInbox returns a unique subject for receiving replies. Uniqueness is
// probabilistic: tokens are random draws from a fixed 62-character
// alphabet, with no broker coordination.
func NewInbox() string {
	return InboxPrefix + randomToken(inboxTokenLen)
}

func randomToken(length int) string {
	buf := make([]byte, length)
	rand.Read(buf) // never fails on supported platforms
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf)
}
