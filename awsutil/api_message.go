package awsutil

import (
	"github.com/mongodb/grip/message"
)

// MakeAPILogMessage returns a structured log message for an AWS API call.
// The input is logged as-is, so callers must not pass inputs containing
// decrypted secret material.
func MakeAPILogMessage(op string, in interface{}) message.Fields {
	return message.Fields{
		"message": "AWS API call",
		"op":      op,
		"input":   in,
	}
}
