package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ryanbastic/gymdesk/internal/hal"
)

// ErrMissingLink is returned when an entity lacks a link its type requires.
var ErrMissingLink = errors.New("missing required link")

// Customer field names, in display order.
const (
	FieldFirstname     = "firstname"
	FieldLastname      = "lastname"
	FieldStreetaddress = "streetaddress"
	FieldPostcode      = "postcode"
	FieldCity          = "city"
	FieldEmail         = "email"
	FieldPhone         = "phone"
)

// CustomerFields lists every editable customer field in display order.
var CustomerFields = []string{
	FieldFirstname, FieldLastname, FieldStreetaddress, FieldPostcode,
	FieldCity, FieldEmail, FieldPhone,
}

var customerFieldLabels = map[string]string{
	FieldFirstname:     "First name",
	FieldLastname:      "Last name",
	FieldStreetaddress: "Street address",
	FieldPostcode:      "Post code",
	FieldCity:          "City",
	FieldEmail:         "Email",
	FieldPhone:         "Phone",
}

// Customer is a customer record as read from the API. Self is its identity.
type Customer struct {
	Self          string `json:"-"`
	TrainingsLink string `json:"-"`

	CustomerForm
}

// CustomerForm is the body of a customer create or update request.
type CustomerForm struct {
	Firstname     string `json:"firstname"`
	Lastname      string `json:"lastname"`
	Streetaddress string `json:"streetaddress"`
	Postcode      string `json:"postcode"`
	City          string `json:"city"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
}

// CustomerFromEntity decodes a customer entity. The self link is required.
func CustomerFromEntity(e hal.Entity) (Customer, error) {
	self := e.Self()
	if self == "" {
		return Customer{}, fmt.Errorf("customer: %w %q", ErrMissingLink, hal.RelSelf)
	}
	c := Customer{Self: self, TrainingsLink: e.Link(hal.RelTrainings)}
	if err := e.Decode(&c.CustomerForm); err != nil {
		return Customer{}, fmt.Errorf("customer %s: %w", self, err)
	}
	return c, nil
}

// CustomersFromEntities decodes every entity, failing on the first bad one.
func CustomersFromEntities(items []hal.Entity) ([]Customer, error) {
	out := make([]Customer, 0, len(items))
	for _, e := range items {
		c, err := CustomerFromEntity(e)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// FullName is the display name used wherever a customer is referenced.
func (c Customer) FullName() string {
	return strings.TrimSpace(c.Firstname + " " + c.Lastname)
}

// Fields returns the form as a field-name keyed map.
func (f CustomerForm) Fields() map[string]string {
	return map[string]string{
		FieldFirstname:     f.Firstname,
		FieldLastname:      f.Lastname,
		FieldStreetaddress: f.Streetaddress,
		FieldPostcode:      f.Postcode,
		FieldCity:          f.City,
		FieldEmail:         f.Email,
		FieldPhone:         f.Phone,
	}
}

// CustomerFormFromFields is the inverse of Fields. Unknown keys are ignored.
func CustomerFormFromFields(fields map[string]string) CustomerForm {
	return CustomerForm{
		Firstname:     fields[FieldFirstname],
		Lastname:      fields[FieldLastname],
		Streetaddress: fields[FieldStreetaddress],
		Postcode:      fields[FieldPostcode],
		City:          fields[FieldCity],
		Email:         fields[FieldEmail],
		Phone:         fields[FieldPhone],
	}
}

// Validate requires every field to be non-blank.
func (f CustomerForm) Validate() error {
	return RequireFields(f.Fields(), CustomerFields).orNil()
}

// RequireFields reports every listed field that is blank in values.
func RequireFields(values map[string]string, fields []string) ValidationErrors {
	var errs ValidationErrors
	for _, name := range fields {
		if strings.TrimSpace(values[name]) == "" {
			errs = append(errs, ValidationError{Field: name, Reason: requiredReason(name)})
		}
	}
	return errs
}

func requiredReason(field string) string {
	if label, ok := customerFieldLabels[field]; ok {
		return label + " is required"
	}
	return field + " is required"
}
