package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const maxBodyBytes = 1 << 16

// BindError is a request body that could not be decoded or failed validation
type BindError struct {
	Field string
	Msg   string
}

func (e *BindError) Error() string { return e.Msg }

type validatorSvc struct {
	v     *validator.Validate
	trans ut.Translator
}

var (
	vOnce sync.Once
	vSvc  *validatorSvc
)

func getValidator() *validatorSvc {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		// pakai nama json di pesan error
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)
		_ = v.RegisterTranslation("max", trans,
			func(ut ut.Translator) error {
				return ut.Add("max", "{0} must be at most {1} characters", true)
			},
			func(ut ut.Translator, fe validator.FieldError) string {
				msg, _ := ut.T("max", fe.Field(), fe.Param())
				return msg
			},
		)
		vSvc = &validatorSvc{v: v, trans: trans}
	})
	return vSvc
}

// decodeJSON decodes the request body into T and validates it
func decodeJSON[T any](r *http.Request) (T, error) {
	var dst T
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&dst); err != nil {
		if errors.Is(err, io.EOF) {
			return dst, &BindError{Msg: "empty body"}
		}
		return dst, &BindError{Msg: fmt.Sprintf("invalid JSON: %v", err)}
	}

	if err := getValidator().v.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return dst, &BindError{Field: fe.Field(), Msg: fe.Translate(getValidator().trans)}
		}
		return dst, &BindError{Msg: err.Error()}
	}
	return dst, nil
}

// deleteCodes membaca body DELETE /scans.
// Hanya {"codes": [...]} yang berarti hapus sebagian; body lain = hapus semua (nil).
func deleteCodes(r *http.Request) []string {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(raw) == 0 {
		return nil
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil
	}
	field, ok := body["codes"]
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(field, &items); err != nil || items == nil {
		return nil
	}

	codes := make([]string, 0, len(items))
	for _, it := range items {
		var s string
		if json.Unmarshal(it, &s) == nil {
			codes = append(codes, s)
		}
	}
	return codes
}
