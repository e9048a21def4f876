package validator

import (
	"log"

	"medimind_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules wires domain-specific validation tags.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// A broken rule set is a startup error.
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-plan-interval", validatePlanInterval)
	mustRegister("is-user-subscription-status", validateUserSubscriptionStatus)
}

func validatePlanInterval(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "month", "year":
		return true
	}
	return false
}

func validateUserSubscriptionStatus(fl validator.FieldLevel) bool {
	switch models.UserSubscriptionStatus(fl.Field().String()) {
	case models.UserSubscriptionFree, models.UserSubscriptionActive, models.UserSubscriptionInactive:
		return true
	}
	return false
}
