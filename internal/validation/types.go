package validation

// VehicleCreate is a vehicle row as submitted for insert.
type VehicleCreate struct {
	Name     string   `json:"name" validate:"required"`
	Type     *string  `json:"type,omitempty" validate:"omitempty,oneof=Truck Van"`
	Capacity *float64 `json:"capacity,omitempty" validate:"omitempty,min=0,max=100"` // percent loaded
	Status   *string  `json:"status,omitempty" validate:"omitempty,oneof='Active' 'Maintenance' 'En Route'"`
}

// VehicleUpdate is a partial vehicle row; absent fields are left untouched.
type VehicleUpdate struct {
	Name     *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	Type     *string  `json:"type,omitempty" validate:"omitempty,oneof=Truck Van"`
	Capacity *float64 `json:"capacity,omitempty" validate:"omitempty,min=0,max=100"`
	Status   *string  `json:"status,omitempty" validate:"omitempty,oneof='Active' 'Maintenance' 'En Route'"`
}

// RowRequest wraps a free-form catalog row so its column names can be checked.
type RowRequest struct {
	Columns map[string]interface{} `validate:"dive,keys,column,endkeys"`
}
