package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainEvent is the domain prefix for content-addressed event identity.
// The version suffix allows a future algorithm migration.
const DomainEvent = "tapcheck/event/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data). The null separator
// prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EventID computes the content-addressed ID of an event. The emission site is
// excluded: moving a test line must not change what the event was.
func EventID(runID string, seq int64, typ EventType, fields IRObject) (string, error) {
	obj := IRObject{
		"run_id": IRString(runID),
		"seq":    IRInt(seq),
		"type":   IRString(typ),
		"fields": fields,
	}
	if fields == nil {
		obj["fields"] = IRObject{}
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EventID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEvent, canonical), nil
}
