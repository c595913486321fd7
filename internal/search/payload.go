package search

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrForeignOwner marks a payload that decoded fine but belongs to a
// different user, e.g. a forwarded or forged "show more" button.
var ErrForeignOwner = errors.New("payload owner mismatch")

// Payload is the state carried through a "show more" callback button:
// which user may use it, the pagination cursor, and the filter argument.
type Payload struct {
	UserID int64
	MinID  int64  // smallest internal id already shown; 0 means first page
	Extra  string // filter argument (query text, category, year, rating)
}

// Encode packs the payload as "uid|min_id|b64(extra)". The extra segment is
// base64url without padding so the value survives inside callback data.
func Encode(p Payload) string {
	extra := base64.RawURLEncoding.EncodeToString([]byte(p.Extra))
	return fmt.Sprintf("%d|%d|%s", p.UserID, p.MinID, extra)
}

// Decode parses an encoded payload and verifies it belongs to userID.
// A payload with a missing extra segment decodes with an empty Extra;
// anything else malformed, or a foreign uid, is an error.
func Decode(raw string, userID int64) (Payload, error) {
	parts := strings.SplitN(raw, "|", 3)
	if len(parts) < 2 {
		return Payload{}, fmt.Errorf("malformed payload %q", raw)
	}

	uid, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Payload{}, fmt.Errorf("malformed payload uid %q", parts[0])
	}
	if uid != userID {
		return Payload{}, ErrForeignOwner
	}

	minID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Payload{}, fmt.Errorf("malformed payload cursor %q", parts[1])
	}

	var extra string
	if len(parts) == 3 && parts[2] != "" {
		b, err := base64.RawURLEncoding.DecodeString(parts[2])
		if err != nil {
			return Payload{}, fmt.Errorf("malformed payload extra: %w", err)
		}
		extra = string(b)
	}

	return Payload{UserID: uid, MinID: minID, Extra: extra}, nil
}
