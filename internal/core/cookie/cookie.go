// Package cookie parses and validates the platform session cookie
package cookie

import "strings"

// Cookie field names required by the upstream platform
const (
	FieldA1         = "a1"
	FieldWebSession = "web_session"
	FieldWebID      = "webId"
)

// Policy names the fields a deployment requires in the session cookie
// source deployments disagree on how strict to be, so this is config-driven
type Policy struct {
	Required []string
}

// PolicyAll requires all three platform fields, matching the upstream docs
func PolicyAll() Policy {
	return Policy{Required: []string{FieldA1, FieldWebSession, FieldWebID}}
}

// PolicyA1 requires only the a1 token, for deployments whose signing
// service holds its own session
func PolicyA1() Policy {
	return Policy{Required: []string{FieldA1}}
}

// PolicyFromName maps a config value to a Policy, defaulting to all fields
func PolicyFromName(name string) Policy {
	if strings.EqualFold(strings.TrimSpace(name), "a1") {
		return PolicyA1()
	}
	return PolicyAll()
}

// Credential is the parsed session identity used for signing calls
type Credential struct {
	A1         string
	WebSession string
	WebID      string
}

// Parse splits a raw cookie string into a key value map
// later duplicate keys overwrite earlier ones
func Parse(raw string) map[string]string {
	out := map[string]string{}
	for seg := range strings.SplitSeq(raw, ";") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		k, v, ok := strings.Cut(seg, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}

// Validate parses raw and checks it against the policy
// the returned missing slice names exactly the absent or empty fields,
// in policy order, and is nil when the cookie is valid
func (p Policy) Validate(raw string) (Credential, []string) {
	fields := Parse(raw)
	var missing []string
	for _, name := range p.Required {
		if fields[name] == "" {
			missing = append(missing, name)
		}
	}
	if missing != nil {
		return Credential{}, missing
	}
	return Credential{
		A1:         fields[FieldA1],
		WebSession: fields[FieldWebSession],
		WebID:      fields[FieldWebID],
	}, nil
}

// Mask returns a log-safe preview of a cookie or token value
// first 10 and last 5 characters with the middle elided
func Mask(s string) string {
	if len(s) < 10 {
		return "***"
	}
	return s[:10] + "..." + s[len(s)-5:]
}
