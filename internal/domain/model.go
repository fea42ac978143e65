package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Item struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int64   `json:"quantity"`
}

// ItemInput is the client payload for create and full-replace update.
// Numeric fields are pointers so that a missing field is rejected rather
// than read as zero.
type ItemInput struct {
	Name      string   `json:"name" validate:"required"`
	UnitPrice *float64 `json:"unitPrice" validate:"required,gte=0"`
	Quantity  *int64   `json:"quantity" validate:"required,gte=0"`
}

var validate = validator.New()

func (in ItemInput) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
}

// ToItem assumes the input has been validated.
func (in ItemInput) ToItem(id string) Item {
	return Item{
		ID:        id,
		Name:      in.Name,
		UnitPrice: *in.UnitPrice,
		Quantity:  *in.Quantity,
	}
}
