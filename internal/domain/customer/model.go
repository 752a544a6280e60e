package customer

import (
	"strings"

	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/types"
)

// Customer represents a studio member that invoices are issued to
type Customer struct {
	ID                     string `db:"id" json:"id"`
	FullName               string `db:"full_name" json:"full_name"`
	Email                  string `db:"email" json:"email"`
	Company                string `db:"company" json:"company,omitempty"`
	CompanyRegistration    string `db:"company_registration" json:"company_registration,omitempty"`
	CompanyTaxRegistration string `db:"company_tax_registration" json:"company_tax_registration,omitempty"`
	Address                string `db:"address" json:"address,omitempty"`
	City                   string `db:"city" json:"city,omitempty"`
	Postcode               string `db:"postcode" json:"postcode,omitempty"`
	Country                string `db:"country" json:"country,omitempty"`
	types.BaseModel
}

func (c *Customer) Validate() error {
	if c.FullName == "" {
		return ierr.NewError("customer name is required").
			WithHint("Please provide a name for the customer").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ListName is the name invoices are listed under; the company takes
// precedence over the personal name when set.
func (c *Customer) ListName() string {
	if c.Company != "" {
		return c.Company
	}
	return c.FullName
}

// BillingAddress composes the multi-line postal address snapshot that gets
// frozen onto an invoice when it is linked to the customer.
func (c *Customer) BillingAddress() string {
	var b strings.Builder
	if c.Address != "" {
		b.WriteString(c.Address)
		b.WriteString("\n")
	}
	if c.City != "" {
		b.WriteString(c.City)
		b.WriteString(" ")
	}
	if c.Postcode != "" {
		b.WriteString(c.Postcode)
		b.WriteString("\n")
	}
	if c.Country != "" {
		b.WriteString(c.Country)
	}
	return b.String()
}
