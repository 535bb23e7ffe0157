package entry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/stockledger/internal/ledger"
	"github.com/odyssey-erp/stockledger/internal/platform/httpx"
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("ledgerdate", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if !strings.Contains(s, "/") {
			return false
		}
		_, ok := ledger.ParseDate(s, nil)
		return ok
	})
	return v
}

// validate runs struct validation and reports failures as a validation
// error naming each offending field.
func validate(v *validator.Validate, input any) error {
	err := v.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", httpx.ErrValidation, strings.Join(fields, ", "))
}
