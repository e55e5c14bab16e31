package handler

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/availability"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/model"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators adds the binding tags used by the request DTOs to gin's
// validator. Safe to call more than once.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
			return
		}
		for tag, fn := range map[string]validator.Func{
			"hhmm":        validateHHMM,
			"weekday":     validateWeekDay,
			"servicetype": validateServiceType,
		} {
			if err := v.RegisterValidation(tag, fn); err != nil {
				registerErr = fmt.Errorf("register %s: %w", tag, err)
				return
			}
		}
	})
	return registerErr
}

// "09:30"
func validateHHMM(fl validator.FieldLevel) bool {
	_, err := availability.TimeToMinutes(fl.Field().String())
	return err == nil
}

func validateWeekDay(fl validator.FieldLevel) bool {
	_, ok := model.ParseWeekDay(fl.Field().String())
	return ok
}

func validateServiceType(fl validator.FieldLevel) bool {
	return model.ServiceType(fl.Field().String()).Valid()
}
