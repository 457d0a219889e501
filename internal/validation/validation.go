// Package validation registers the domain-specific binding tags used by the
// request structs of the controllers.
package validation

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"camion_tracker/internal/models"
	"camion_tracker/internal/statemachine"
)

// Periods accepted by the detailed statistics report.
var Periods = []string{"jour", "semaine", "mois", "annee"}

var once sync.Once

// Register installs the custom tags on gin's validator engine. Safe to call repeatedly.
func Register() error {
	var err error
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		if err = v.RegisterValidation("statut", validStatus); err != nil {
			return
		}
		if err = v.RegisterValidation("periode", validPeriod); err != nil {
			return
		}
		err = v.RegisterValidation("role", validRole)
	})
	return err
}

// validStatus accepts any lifecycle status plus "all", used by list filters.
func validStatus(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "all" || statemachine.IsKnown(models.TruckStatus(s))
}

func validPeriod(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	for _, p := range Periods {
		if s == p {
			return true
		}
	}
	return false
}

func validRole(fl validator.FieldLevel) bool {
	return models.ValidRole(models.UserRole(fl.Field().String()))
}
