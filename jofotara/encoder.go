package jofotara

import (
	"encoding/xml"
	"fmt"
	"strconv"

	"jofotara-backend/models"

	"github.com/shopspring/decimal"
)

// CreditContext links a credit note to the already-submitted document it
// reverses.
type CreditContext struct {
	OriginalNumber string
	OriginalUUID   string
	OriginalTotal  decimal.Decimal
	Reason         string
}

// LineTotals is the rounded money of one line. Rounding happens here, at
// the line level, and nowhere else: aggregates are sums of already-rounded
// values, so the document total always equals the sum of displayed line
// totals to the cent.
type LineTotals struct {
	AfterDiscount decimal.Decimal
	Tax           decimal.Decimal
	Discount      decimal.Decimal
}

// Totals are the document-level aggregates.
type Totals struct {
	TaxExclusive decimal.Decimal
	Tax          decimal.Decimal
	Discount     decimal.Decimal
	TaxInclusive decimal.Decimal
	Lines        []LineTotals
}

// ComputeLine rounds one line: lineAfterDiscount = round2(qty*price -
// discount); only Standard-rated lines carry tax.
func ComputeLine(item models.LineItem) (LineTotals, error) {
	if !item.TaxCategory.Valid() {
		return LineTotals{}, fmt.Errorf("%w: %q", ErrInvalidTaxCategory, item.TaxCategory)
	}
	after := item.Quantity.Mul(item.UnitPrice).Sub(item.Discount).Round(2)
	tax := decimal.Zero
	if item.TaxCategory == models.TaxStandard {
		tax = after.Mul(item.TaxPercent).Div(decimal.NewFromInt(100)).Round(2)
	}
	return LineTotals{AfterDiscount: after, Tax: tax, Discount: item.Discount.Round(2)}, nil
}

// ComputeTotals runs the line-first rounding over a full item set.
func ComputeTotals(items []models.LineItem) (*Totals, error) {
	if len(items) == 0 {
		return nil, ErrEmptyLineItems
	}
	t := &Totals{
		TaxExclusive: decimal.Zero,
		Tax:          decimal.Zero,
		Discount:     decimal.Zero,
		Lines:        make([]LineTotals, 0, len(items)),
	}
	for _, item := range items {
		line, err := ComputeLine(item)
		if err != nil {
			return nil, err
		}
		t.TaxExclusive = t.TaxExclusive.Add(line.AfterDiscount)
		t.Tax = t.Tax.Add(line.Tax)
		t.Discount = t.Discount.Add(line.Discount)
		t.Lines = append(t.Lines, line)
	}
	t.TaxInclusive = t.TaxExclusive.Add(t.Tax)
	return t, nil
}

// typeCodeNames maps (taxpayer category, payment method) to the @name tag
// on cbc:InvoiceTypeCode. Fixed vocabulary from the authority's spec.
var typeCodeNames = map[models.TaxpayerCategory]map[models.PaymentMethod]string{
	models.TaxpayerGeneral: {
		models.PaymentCash:       "012",
		models.PaymentReceivable: "022",
	},
	models.TaxpayerSpecial: {
		models.PaymentCash:       "011",
		models.PaymentReceivable: "021",
	},
}

func typeCodeName(category models.TaxpayerCategory, method models.PaymentMethod) string {
	if m, ok := typeCodeNames[category]; ok {
		if name, ok := m[method]; ok {
			return name
		}
	}
	return typeCodeNames[models.TaxpayerGeneral][models.PaymentCash]
}

func taxCategoryCode(c models.TaxCategory) (string, error) {
	switch c {
	case models.TaxStandard:
		return "S", nil
	case models.TaxZeroRated:
		return "Z", nil
	case models.TaxExempt:
		return "O", nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTaxCategory, c)
}

// Encode renders the invoice as the authority's UBL payload. Pure and
// deterministic: identical inputs produce byte-identical output, which is
// what makes stored payloads re-checkable and signable downstream.
func Encode(inv *models.Invoice, items []models.LineItem, seller *models.Company, buyer *models.Customer, credit *CreditContext) ([]byte, error) {
	if inv.IsCreditInvoice || credit != nil {
		if credit == nil || credit.OriginalNumber == "" {
			return nil, ErrMissingCreditReference
		}
	}

	totals, err := ComputeTotals(items)
	if err != nil {
		return nil, err
	}

	currency := inv.Currency
	if currency == "" {
		currency = "JOD"
	}
	amount := func(d decimal.Decimal) ublAmount {
		return ublAmount{CurrencyID: currency, Value: d.StringFixed(2)}
	}

	typeCode := invoiceTypeStandard
	if credit != nil {
		typeCode = invoiceTypeCredit
	}

	doc := ublInvoice{
		Xmlns:    namespaceInvoice,
		XmlnsCAC: namespaceCAC,
		XmlnsCBC: namespaceCBC,
		XmlnsEXT: namespaceEXT,

		ProfileID: profileReporting,
		ID:        inv.Number,
		IssueDate: inv.IssueDate.Format("2006-01-02"),
		InvoiceTypeCode: ublTypeCode{
			Name:  typeCodeName(seller.Category, inv.PaymentMethod),
			Value: typeCode,
		},
		Note:                 inv.Note,
		DocumentCurrencyCode: currency,
		TaxCurrencyCode:      currency,

		AdditionalDocumentReference: ublDocumentReference{
			ID:   "ICV",
			UUID: strconv.FormatUint(uint64(inv.ID), 10),
		},

		AccountingSupplierParty: ublSupplierParty{Party: ublParty{
			PostalAddress: sellerAddress(seller),
			PartyTaxScheme: &ublPartyTaxScheme{
				CompanyID: seller.TIN,
				TaxScheme: ublTaxScheme{ID: "VAT"},
			},
			PartyLegalEntity: ublLegalEntity{RegistrationName: seller.CompanyName},
		}},
		AccountingCustomerParty: ublCustomerParty{Party: buyerParty(buyer)},
		SellerSupplierParty: ublSellerParty{Party: ublSellerInner{
			PartyIdentification: ublPartyIdentification{ID: seller.IncomeSource},
		}},
	}

	if credit != nil {
		doc.BillingReference = &ublBillingReference{
			InvoiceDocumentReference: ublOriginalReference{
				ID:                  credit.OriginalNumber,
				UUID:                credit.OriginalUUID,
				DocumentDescription: credit.OriginalTotal.StringFixed(2),
			},
		}
		doc.PaymentMeans = &ublPaymentMeans{
			PaymentMeansCode: ublListCode{ListID: "UN/ECE 4461", Value: "10"},
			InstructionNote:  credit.Reason,
		}
	}

	if totals.Discount.IsPositive() {
		doc.AllowanceCharge = &ublAllowanceCharge{
			ChargeIndicator:       "false",
			AllowanceChargeReason: "discount",
			Amount:                amount(totals.Discount),
		}
	}

	doc.TaxTotal = ublTaxTotal{TaxAmount: amount(totals.Tax)}
	doc.LegalMonetaryTotal = ublMonetaryTotal{
		TaxExclusiveAmount:   amount(totals.TaxExclusive),
		TaxInclusiveAmount:   amount(totals.TaxInclusive),
		AllowanceTotalAmount: amount(totals.Discount),
		PayableAmount:        amount(totals.TaxInclusive),
	}

	for i, item := range items {
		line := totals.Lines[i]
		code, err := taxCategoryCode(item.TaxCategory)
		if err != nil {
			return nil, err
		}
		ublLine := ublInvoiceLine{
			ID:                  strconv.Itoa(i + 1),
			InvoicedQuantity:    ublQuantity{UnitCode: "PCE", Value: item.Quantity.String()},
			LineExtensionAmount: amount(line.AfterDiscount),
			TaxTotal: ublTaxTotal{
				TaxAmount: amount(line.Tax),
				TaxSubtotal: []ublTaxSubtotal{{
					TaxableAmount: amount(line.AfterDiscount),
					TaxAmount:     amount(line.Tax),
					TaxCategory: ublTaxCategory{
						ID:        ublListCode{ListID: "UN/ECE 5305", Value: code},
						Percent:   item.TaxPercent.StringFixed(2),
						TaxScheme: ublTaxScheme{ID: "VAT"},
					},
				}},
			},
			Item:  ublItem{Name: item.Description},
			Price: ublPrice{PriceAmount: amount(item.UnitPrice.Round(2))},
		}
		if item.Discount.IsPositive() {
			ublLine.Price.AllowanceCharge = &ublAllowanceCharge{
				ChargeIndicator:       "false",
				AllowanceChargeReason: "discount",
				Amount:                amount(item.Discount.Round(2)),
			}
		}
		doc.InvoiceLine = append(doc.InvoiceLine, ublLine)
	}

	out, err := xml.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("marshal invoice document: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

func sellerAddress(seller *models.Company) *ublAddress {
	if seller.City == "" && seller.Zip == "" {
		return nil
	}
	return &ublAddress{
		CityName:   seller.City,
		PostalZone: seller.Zip,
		Country:    &ublCountry{IdentificationCode: "JO"},
	}
}

func buyerParty(buyer *models.Customer) ublParty {
	p := ublParty{
		PartyLegalEntity: ublLegalEntity{RegistrationName: buyer.CompanyName},
	}
	if buyer.City != "" || buyer.Zip != "" {
		p.PostalAddress = &ublAddress{
			CityName:   buyer.City,
			PostalZone: buyer.Zip,
			Country:    &ublCountry{IdentificationCode: "JO"},
		}
	}
	if buyer.TIN != "" {
		p.PartyTaxScheme = &ublPartyTaxScheme{
			CompanyID: buyer.TIN,
			TaxScheme: ublTaxScheme{ID: "VAT"},
		}
	}
	return p
}
