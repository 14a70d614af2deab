package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidID is returned for ids that are not positive integers
var ErrInvalidID = errors.New("invalid id")

// ID is a record id read from a path, a flag, or a JSON number or string
type ID uint64

// ParseID reads a positive decimal id
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w %q", ErrInvalidID, s)
	}
	return ID(n), nil
}

// UnmarshalJSON accepts 7 and "7"
func (id *ID) UnmarshalJSON(data []byte) error {
	var n uint64
	if err := json.Unmarshal(data, &n); err == nil {
		if n == 0 {
			return fmt.Errorf("%w %d", ErrInvalidID, n)
		}
		*id = ID(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: expected number or string, got %s", ErrInvalidID, data)
	}
	parsed, err := ParseID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(uint64(id))
}

func (id ID) Uint64() uint64 {
	return uint64(id)
}
