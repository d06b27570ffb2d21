package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/ispdesk/pkg/validation"
)

const timeLayout = time.RFC3339

// flexString accepts a JSON string, number or boolean, and plain form values.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*f = ""
		return nil
	case bytes.Equal(trimmed, []byte("true")), bytes.Equal(trimmed, []byte("false")):
		*f = flexString(trimmed)
		return nil
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err != nil {
		return errors.New("expected string, number or boolean")
	}
	*f = flexString(num.String())
	return nil
}

func (f *flexString) UnmarshalParam(param string) error {
	*f = flexString(param)
	return nil
}

func (f flexString) String() string {
	return strings.TrimSpace(string(f))
}

// optional keeps nil (field absent) distinct from an empty value.
func (f *flexString) optional() *string {
	if f == nil {
		return nil
	}
	value := f.String()
	return &value
}

// parseFlexBool reads checkbox style values. A nil input yields nil.
func parseFlexBool(field string, value *flexString) (*bool, error) {
	if value == nil {
		return nil, nil
	}
	var parsed bool
	switch strings.ToLower(value.String()) {
	case "1", "true", "on", "yes":
		parsed = true
	case "0", "false", "off", "no", "":
		parsed = false
	default:
		return nil, validation.New(field, "boolean", "The "+strings.ReplaceAll(field, "_", " ")+" field must be true or false.")
	}
	return &parsed, nil
}

// bindBody decodes JSON or form bodies. An empty body binds to the zero value
// so the service can report every missing field.
func bindBody(c *gin.Context, obj any) error {
	if err := c.ShouldBind(obj); err != nil && !errors.Is(err, io.EOF) {
		return invalidRequestError()
	}
	return nil
}
