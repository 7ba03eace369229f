package forms

import "strings"

// Task is the add/edit task form. Body holds rich text (HTML).
type Task struct {
	Title string `form:"title" validate:"required,max=250"`
	Body  string `form:"body"  validate:"required"`
}

func (f *Task) normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Body = strings.TrimSpace(f.Body)
}
