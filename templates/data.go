package templates

import "github.com/dalemusser/phoneform/form"

// Page is the data for PageTemplate, FormTemplate and ToastsTemplate.
type Page struct {
	Title  string
	View   form.View
	Toasts []form.Notification
}

func (Page) Heading() string  { return form.Heading }
func (Page) Subtitle() string { return form.Subtitle }
