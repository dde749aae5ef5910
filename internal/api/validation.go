package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/rs/zerolog/log"

	"sentiment-service/internal/common"
)

var registerOnce sync.Once

// registerValidators installs the notblank rule and JSON field names on
// gin's shared validator.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			log.Warn().Msg("Binding validator is not go-playground/validator, custom rules not registered")
			return
		}
		if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
			log.Error().Err(err).Msg("Failed to register notblank validator")
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bindingMessages maps "<json field>.<tag>" to the message returned to the
// caller.
var bindingMessages = map[string]string{
	"text.required":   common.ErrMsgTextRequired,
	"text.notblank":   common.ErrMsgTextEmpty,
	"texts.required":  common.ErrMsgTextsRequired,
	"texts.min":       common.ErrMsgTextsEmpty,
	"labels.required": common.ErrMsgTrainingFields,
	"holdout.gte":     "Holdout fraction must be in [0, 1)",
	"holdout.lt":      "Holdout fraction must be in [0, 1)",
}

// bindingMessage turns a ShouldBindJSON error into a caller-facing message.
// Malformed or empty bodies get fallback.
func bindingMessage(err error, fallback string) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fallback
	}
	first := verrs[0]
	if msg, ok := bindingMessages[first.Field()+"."+first.Tag()]; ok {
		return msg
	}
	return fmt.Sprintf("Invalid value for %s", first.Field())
}
