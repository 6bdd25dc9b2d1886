package message

import (
	"os"

	"github.com/google/uuid"
)

// GenerateMessageID returns a new, unique Message-ID for a message sent from
// this host.
func GenerateMessageID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	return "<" + uuid.NewString() + "@" + host + ">"
}
