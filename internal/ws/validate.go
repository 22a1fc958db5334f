package ws

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var (
	roomCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,32}$`)
	clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)
	uciPattern      = regexp.MustCompile(`^[a-h][1-8][a-h][1-8][qrbn]?$`)
)

const maxNameLength = 40

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterValidations(v); err != nil {
		panic(err)
	}
	return v
}

// RegisterValidations adds the roomcode, clientid, uci and playername tags to
// v. The HTTP layer registers them on gin's binding validator too.
func RegisterValidations(v *validator.Validate) error {
	tags := map[string]validator.Func{
		"roomcode": matches(roomCodePattern),
		"clientid": matches(clientIDPattern),
		"uci":      matches(uciPattern),
		"playername": func(fl validator.FieldLevel) bool {
			n := utf8.RuneCountInString(strings.TrimSpace(fl.Field().String()))
			return n >= 1 && n <= maxNameLength
		},
	}
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

type normalizer interface {
	normalize()
}

// decodePayload unmarshals raw into dst, trims its identifiers and validates
// it. A missing payload is treated as an empty object.
func decodePayload(raw json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return err
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}
	return validate.Struct(dst)
}

func invalidPayload(event string) string {
	return "Invalid " + event + " payload"
}
