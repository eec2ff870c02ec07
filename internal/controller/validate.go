// internal/controller/validate.go
package controller

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/engagecrm/engage-backend/internal/apperrors"
)

var validate = validator.New()

// checkRequest runs struct validation and folds the failures into one
// ValidationError the client can act on.
func checkRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewValidation(err.Error())
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return apperrors.NewValidation(strings.Join(msgs, "; "))
}
