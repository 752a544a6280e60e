package invoice

import (
	"github.com/fitledger/fitledger/internal/domain/taxrate"
	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/types"
	"github.com/shopspring/decimal"
)

// Item is one line on an invoice. TotalPrice, VAT and TotalPriceVAT are
// computed from Quantity x Price and the referenced tax rate, rounded to
// cents when the item is built for persistence.
type Item struct {
	ID        string `db:"id" json:"id"`
	InvoiceID string `db:"invoice_id" json:"invoice_id"`

	// Sorting is the insertion-order position used for display and duplication
	Sorting int `db:"sorting" json:"sorting"`

	ProductName string          `db:"product_name" json:"product_name"`
	Description string          `db:"description" json:"description,omitempty"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	Price       decimal.Decimal `db:"price" json:"price"`

	TaxRateID *string `db:"tax_rate_id" json:"tax_rate_id,omitempty"`

	// TotalPrice is Quantity x Price excluding VAT
	TotalPrice decimal.Decimal `db:"total_price" json:"total_price"`
	// VAT is the tax amount on TotalPrice
	VAT decimal.Decimal `db:"vat" json:"vat"`
	// TotalPriceVAT is TotalPrice + VAT
	TotalPriceVAT decimal.Decimal `db:"total_price_vat" json:"total_price_vat"`

	// LinkType/LinkID point at the originating domain object; at most one
	// link per item, used for traceability and double-billing prevention
	LinkType *types.InvoiceItemLinkType `db:"link_type" json:"link_type,omitempty"`
	LinkID   *string                    `db:"link_id" json:"link_id,omitempty"`

	types.BaseModel
}

func (it *Item) Validate() error {
	if it.InvoiceID == "" {
		return ierr.NewError("invoice id is required").
			Mark(ierr.ErrValidation)
	}
	if it.ProductName == "" {
		return ierr.NewError("product name is required").
			Mark(ierr.ErrValidation)
	}
	if it.Quantity.IsNegative() {
		return ierr.NewError("quantity must be non negative").
			WithReportableDetails(map[string]any{
				"quantity": it.Quantity,
			}).
			Mark(ierr.ErrValidation)
	}
	if (it.LinkType == nil) != (it.LinkID == nil) {
		return ierr.NewError("item link type and id must be set together").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ComputeTotals fills the derived money fields from Quantity x Price and the
// given tax percentage (nil means no tax). Amounts are rounded to cents here
// because this is the persistence boundary for the item.
func (it *Item) ComputeTotals(percentage *decimal.Decimal) {
	subtotal := it.Price.Mul(it.Quantity)
	amounts := taxrate.Compute(subtotal, percentage)

	it.TotalPrice = types.RoundCurrency(subtotal)
	it.VAT = types.RoundCurrency(amounts.VAT)
	it.TotalPriceVAT = types.RoundCurrency(amounts.Total)
}

// Link attaches the item to its originating domain object. Returns an error
// when the item is already linked; an item carries at most one link.
func (it *Item) Link(linkType types.InvoiceItemLinkType, linkID string) error {
	if it.LinkType != nil {
		return ierr.NewError("invoice item is already linked").
			WithReportableDetails(map[string]any{
				"item_id":       it.ID,
				"existing_link": *it.LinkType,
				"new_link":      linkType,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	it.LinkType = &linkType
	it.LinkID = &linkID
	return nil
}
