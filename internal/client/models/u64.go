package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// U64 decodes a Move u64, which the node encodes as a decimal string.
// Plain JSON numbers are accepted too.
type U64 uint64

func (u *U64) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*u = 0
		return nil
	}
	if len(s) > 0 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = str
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid u64 %q: %w", s, err)
	}
	*u = U64(v)
	return nil
}

func (u U64) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(u), 10))
}

func (u U64) String() string {
	return strconv.FormatUint(uint64(u), 10)
}
