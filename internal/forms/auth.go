package forms

import "strings"

// Login is the /log-in form.
type Login struct {
	Email    string `form:"email"    validate:"required"`
	Password string `form:"password" validate:"required"`
}

func (f *Login) normalize() {
	f.Email = strings.TrimSpace(f.Email)
}

// Register is the /register form.
type Register struct {
	Name       string `form:"name"        validate:"required,max=200"`
	Email      string `form:"email"       validate:"required,email,max=200"`
	Password   string `form:"password"    validate:"required"`
	RePassword string `form:"re_password" validate:"required,eqfield=Password"`
}

func (f *Register) normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
}
