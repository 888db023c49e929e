package chat

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Replies for a turn rejected before any side effect.
const (
	ReplyMissingUserID = "Error: Invalid user_id provided."
	ReplyBadUserID     = "Error: user_id must be an integer."
)

// ClientInputError reports a malformed chat request. Reply is the text
// returned to the client.
type ClientInputError struct {
	Reply string
}

func (e *ClientInputError) Error() string {
	return e.Reply
}

// ParseUserID coerces a decoded JSON user id into an integer. Null, zero,
// false, empty strings and empty containers count as missing. Numbers must
// be integral; strings must hold a base-10 integer, surrounding whitespace
// allowed.
func ParseUserID(v any) (int64, error) {
	missing := &ClientInputError{Reply: ReplyMissingUserID}
	invalid := &ClientInputError{Reply: ReplyBadUserID}

	switch x := v.(type) {
	case nil:
		return 0, missing
	case bool:
		if !x {
			return 0, missing
		}
		return 0, invalid
	case string:
		if x == "" {
			return 0, missing
		}
		id, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, invalid
		}
		return id, nil
	case json.Number:
		if id, err := x.Int64(); err == nil {
			if id == 0 {
				return 0, missing
			}
			return id, nil
		}
		f, err := x.Float64()
		if err != nil {
			return 0, invalid
		}
		return fromFloat(f, missing, invalid)
	case float64:
		return fromFloat(x, missing, invalid)
	case int:
		if x == 0 {
			return 0, missing
		}
		return int64(x), nil
	case int64:
		if x == 0 {
			return 0, missing
		}
		return x, nil
	case map[string]any:
		if len(x) == 0 {
			return 0, missing
		}
		return 0, invalid
	case []any:
		if len(x) == 0 {
			return 0, missing
		}
		return 0, invalid
	default:
		return 0, invalid
	}
}

func fromFloat(f float64, missing, invalid error) (int64, error) {
	if f == 0 {
		return 0, missing
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt64 {
		return 0, invalid
	}
	return int64(f), nil
}

// Blank reports whether v counts as an absent user id.
func Blank(v any) bool {
	_, err := ParseUserID(v)
	var cie *ClientInputError
	return errors.As(err, &cie) && cie.Reply == ReplyMissingUserID
}
