package domain

// ProofPayload carries raw proof-image bytes between transport collaborators.
// The bytes are unexported and the type implements no marshaling, so it can
// never end up in a persisted record or an emitted event: nothing in the
// repository or events layer accepts it, and encoding/json would serialize it
// to an empty object. Redaction before forwarding stays the sender's job;
// this type makes accidental persistence a compile-time impossibility.
type ProofPayload struct {
	bytes []byte
	note  string
}

// NewProofPayload wraps raw proof bytes with an operator-visible note.
func NewProofPayload(b []byte, note string) ProofPayload {
	clone := make([]byte, len(b))
	copy(clone, b)
	return ProofPayload{bytes: clone, note: note}
}

// Bytes hands the raw payload to a forwarding collaborator.
func (p ProofPayload) Bytes() []byte {
	return p.bytes
}

// Redacted is the only representation safe for logs and events.
func (p ProofPayload) Redacted() string {
	if len(p.bytes) == 0 {
		return "proof:<empty>"
	}
	return "proof:<redacted>"
}

// Note returns the free-text annotation attached at intake.
func (p ProofPayload) Note() string {
	return p.note
}
