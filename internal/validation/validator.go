package validation

import (
	"encoding/json"
	"fmt"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/rental-dispatch/internal/catalog"
)

// New returns a validator with the catalog rules registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// column names end up as quoted SQL identifiers
	_ = v.RegisterValidation("column", func(fl validatorv10.FieldLevel) bool {
		return catalog.ValidColumn(fl.Field().String())
	})
	v.RegisterStructValidation(vehicleUpdateStructValidation, VehicleUpdate{})

	return v
}

// vehicleUpdateStructValidation rejects an update that would clear the name.
func vehicleUpdateStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(VehicleUpdate)
	if req.Name != nil && *req.Name == "" {
		sl.ReportError(req.Name, "name", "Name", "required", "")
	}
}

// ValidateRow checks a catalog row before it is written. Vehicle rows also get their
// known columns checked; partial selects update rules.
func ValidateRow(v *validatorv10.Validate, table catalog.Table, row catalog.Row, partial bool) error {
	if err := v.Struct(RowRequest{Columns: row}); err != nil {
		return err
	}
	if table != catalog.TableVehicles {
		return nil
	}

	raw, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	var target interface{} = &VehicleCreate{}
	if partial {
		target = &VehicleUpdate{}
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode vehicle: %w", err)
	}
	return v.Struct(target)
}
