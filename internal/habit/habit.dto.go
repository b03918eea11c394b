package habit

// CreateHabitRequest carries the POST /habits body. Color must be a
// 6-digit hex value; hexcolor alone would also admit the #abc short form,
// so it is pinned to len=7.
type CreateHabitRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=100"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=500"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,max=50"`
	Color       *string  `json:"color,omitempty" validate:"omitempty,hexcolor,len=7"`
	Frequency   []string `json:"frequency,omitempty" validate:"omitempty,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
}

// UpdateHabitRequest is the partial form of the create payload; absent
// fields leave the stored value untouched.
type UpdateHabitRequest struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=500"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,max=50"`
	Color       *string  `json:"color,omitempty" validate:"omitempty,hexcolor,len=7"`
	Frequency   []string `json:"frequency,omitempty" validate:"omitempty,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
}
