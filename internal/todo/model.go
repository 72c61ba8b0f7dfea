package todo

// Todo is a single to-do item owned by a user.
// CompletedAt is epoch milliseconds and is set exactly when Completed is true.
type Todo struct {
	ID          string `json:"_id"`
	Text        string `json:"text"`
	Completed   bool   `json:"completed"`
	CompletedAt *int64 `json:"completedAt,omitempty"`
	CreatorID   string `json:"_creator"`
}

// Changes is a partial update. Nil fields are left alone. CompletedAt is
// only consulted when Completed is set: nil then clears the timestamp.
type Changes struct {
	Text        *string
	Completed   *bool
	CompletedAt *int64
}

// IsEmpty reports whether the changes touch no field
func (c Changes) IsEmpty() bool {
	return c.Text == nil && c.Completed == nil
}

// Apply returns t with the changes applied
func (c Changes) Apply(t Todo) Todo {
	if c.Text != nil {
		t.Text = *c.Text
	}
	if c.Completed != nil {
		t.Completed = *c.Completed
		t.CompletedAt = nil
		if *c.Completed && c.CompletedAt != nil {
			at := *c.CompletedAt
			t.CompletedAt = &at
		}
	}
	return t
}
