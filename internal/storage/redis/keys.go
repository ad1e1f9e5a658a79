package redis

import (
	"fmt"

	"github.com/mcoot/tworoomsboom/internal/model"
)

const keyPrefix = "tworooms"

// sessionKey returns the Redis key holding a session document
func sessionKey(pin model.PIN) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, pin)
}

// sessionChannel returns the pub/sub channel committed snapshots are published on
func sessionChannel(pin model.PIN) string {
	return fmt.Sprintf("%s:session:%s:updates", keyPrefix, pin)
}
