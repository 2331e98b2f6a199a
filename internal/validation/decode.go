package validation

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dmitrijs2005/lmsauth/internal/common"
)

// Decode reads one JSON document from r into v and validates it.
// Undecodable input wraps common.ErrMalformedInput; invalid fields yield
// *common.ValidationError.
func Decode(r io.Reader, v any) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", common.ErrMalformedInput, err)
	}
	return Struct(v)
}
