package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoginForm is the login submission.
type LoginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// LinkForm is the payment-link creation submission. Amount is in major
// currency units; AmountRaw/QuantityRaw keep what the user typed for
// re-rendering.
type LinkForm struct {
	Name        string  `validate:"required,max=100"`
	Description string  `validate:"omitempty,max=500"`
	Amount      float64 `validate:"required,min=0.5"`
	Currency    string  `validate:"omitempty,oneof=usd eur gbp cad aud"`
	Quantity    int64   `validate:"omitempty,min=1,max=1000"`

	AmountRaw   string `validate:"-"`
	QuantityRaw string `validate:"-"`
}

func parseLoginForm(r *http.Request) LoginForm {
	return LoginForm{
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}
}

// parseLinkForm reads the submission; numeric fields that fail to parse
// are left at zero and caught by validation below.
func parseLinkForm(r *http.Request) (LinkForm, []string) {
	form := LinkForm{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Currency:    r.FormValue("currency"),
		AmountRaw:   r.FormValue("amount"),
		QuantityRaw: r.FormValue("quantity"),
	}

	var errs []string
	if form.AmountRaw != "" {
		// An unparsable amount leaves the field zero, which the
		// required tag reports with the same minimum-amount message.
		if amount, err := strconv.ParseFloat(form.AmountRaw, 64); err == nil {
			form.Amount = amount
		}
	}
	if form.QuantityRaw != "" {
		quantity, err := strconv.ParseInt(form.QuantityRaw, 10, 64)
		if err != nil || quantity == 0 {
			// A zero would read as "absent" to the omitempty tag and
			// silently become the default of 1 downstream.
			errs = append(errs, "Quantity must be between 1 and 1000")
		} else {
			form.Quantity = quantity
		}
	}
	return form, errs
}

// validateForm runs struct validation and maps failures to the messages
// the pages have always shown.
func validateForm(form interface{}) []string {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{"Invalid input"}
	}
	var messages []string
	for _, fe := range verrs {
		messages = append(messages, fieldMessage(fe))
	}
	return messages
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Email":
		return "Please enter a valid email address"
	case "Password":
		return "Password is required"
	case "Name":
		return "Product name is required and must be less than 100 characters"
	case "Description":
		return "Description must be less than 500 characters"
	case "Amount":
		return "Amount must be at least $0.50"
	case "Currency":
		return "Invalid currency"
	case "Quantity":
		return "Quantity must be between 1 and 1000"
	}
	return "Invalid input"
}
