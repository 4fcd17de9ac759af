package sign

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Fingerprint derives a stable cache key for (uri, payload)
// the payload is round-tripped through generic JSON so map key order
// never affects the hash; two deep-equal payloads always collide
func Fingerprint(uri string, payload any) (string, error) {
	canon := []byte("null")
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return "", err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return "", err
		}
		// encoding/json emits object keys sorted, making this deterministic
		canon, err = json.Marshal(generic)
		if err != nil {
			return "", err
		}
	}
	h := sha256.New()
	h.Write([]byte(uri))
	h.Write([]byte{0})
	h.Write(canon)
	return hex.EncodeToString(h.Sum(nil)), nil
}
