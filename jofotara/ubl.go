package jofotara

import "encoding/xml"

// UBL 2.1 invoice document, restricted to the tag vocabulary JoFotara
// accepts. Field order matters: the schema is sequence-ordered and the
// marshaller emits struct fields in declaration order, which also gives the
// byte-reproducibility the compliance record depends on.

const (
	invoiceTypeStandard = "388"
	invoiceTypeCredit   = "381"

	namespaceInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	namespaceCAC     = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	namespaceCBC     = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	namespaceEXT     = "urn:oasis:names:specification:ubl:schema:xsd:CommonExtensionComponents-2"

	profileReporting = "reporting:1.0"
)

type ublInvoice struct {
	XMLName  xml.Name `xml:"Invoice"`
	Xmlns    string   `xml:"xmlns,attr"`
	XmlnsCAC string   `xml:"xmlns:cac,attr"`
	XmlnsCBC string   `xml:"xmlns:cbc,attr"`
	XmlnsEXT string   `xml:"xmlns:ext,attr"`

	ProfileID            string        `xml:"cbc:ProfileID"`
	ID                   string        `xml:"cbc:ID"`
	UUID                 string        `xml:"cbc:UUID,omitempty"`
	IssueDate            string        `xml:"cbc:IssueDate"`
	InvoiceTypeCode      ublTypeCode   `xml:"cbc:InvoiceTypeCode"`
	Note                 string        `xml:"cbc:Note,omitempty"`
	DocumentCurrencyCode string        `xml:"cbc:DocumentCurrencyCode"`
	TaxCurrencyCode      string        `xml:"cbc:TaxCurrencyCode"`

	BillingReference *ublBillingReference `xml:"cac:BillingReference,omitempty"`

	AdditionalDocumentReference ublDocumentReference `xml:"cac:AdditionalDocumentReference"`

	AccountingSupplierParty ublSupplierParty `xml:"cac:AccountingSupplierParty"`
	AccountingCustomerParty ublCustomerParty `xml:"cac:AccountingCustomerParty"`
	SellerSupplierParty     ublSellerParty   `xml:"cac:SellerSupplierParty"`

	PaymentMeans *ublPaymentMeans `xml:"cac:PaymentMeans,omitempty"`

	AllowanceCharge *ublAllowanceCharge `xml:"cac:AllowanceCharge,omitempty"`

	TaxTotal           ublTaxTotal      `xml:"cac:TaxTotal"`
	LegalMonetaryTotal ublMonetaryTotal `xml:"cac:LegalMonetaryTotal"`

	InvoiceLine []ublInvoiceLine `xml:"cac:InvoiceLine"`
}

type ublTypeCode struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type ublAmount struct {
	CurrencyID string `xml:"currencyID,attr"`
	Value      string `xml:",chardata"`
}

type ublQuantity struct {
	UnitCode string `xml:"unitCode,attr"`
	Value    string `xml:",chardata"`
}

type ublBillingReference struct {
	InvoiceDocumentReference ublOriginalReference `xml:"cac:InvoiceDocumentReference"`
}

// ublOriginalReference points a credit note back at the submitted document
// it reverses: the original's number, its authority UUID and its full
// amount.
type ublOriginalReference struct {
	ID                  string `xml:"cbc:ID"`
	UUID                string `xml:"cbc:UUID"`
	DocumentDescription string `xml:"cbc:DocumentDescription"`
}

type ublDocumentReference struct {
	ID   string `xml:"cbc:ID"`
	UUID string `xml:"cbc:UUID"`
}

type ublSupplierParty struct {
	Party ublParty `xml:"cac:Party"`
}

type ublCustomerParty struct {
	Party ublParty `xml:"cac:Party"`
}

type ublParty struct {
	PostalAddress    *ublAddress        `xml:"cac:PostalAddress,omitempty"`
	PartyTaxScheme   *ublPartyTaxScheme `xml:"cac:PartyTaxScheme,omitempty"`
	PartyLegalEntity ublLegalEntity     `xml:"cac:PartyLegalEntity"`
}

type ublAddress struct {
	CityName   string      `xml:"cbc:CityName,omitempty"`
	PostalZone string      `xml:"cbc:PostalZone,omitempty"`
	Country    *ublCountry `xml:"cac:Country,omitempty"`
}

type ublCountry struct {
	IdentificationCode string `xml:"cbc:IdentificationCode"`
}

type ublPartyTaxScheme struct {
	CompanyID string       `xml:"cbc:CompanyID"`
	TaxScheme ublTaxScheme `xml:"cac:TaxScheme"`
}

type ublTaxScheme struct {
	ID string `xml:"cbc:ID"`
}

type ublLegalEntity struct {
	RegistrationName string `xml:"cbc:RegistrationName"`
}

// ublSellerParty carries the taxpayer's income source sequence, the
// authority's key for routing the document to the right registration.
type ublSellerParty struct {
	Party ublSellerInner `xml:"cac:Party"`
}

type ublSellerInner struct {
	PartyIdentification ublPartyIdentification `xml:"cac:PartyIdentification"`
}

type ublPartyIdentification struct {
	ID string `xml:"cbc:ID"`
}

// ublPaymentMeans appears on credit notes only; InstructionNote carries the
// reason for return as free text.
type ublPaymentMeans struct {
	PaymentMeansCode ublListCode `xml:"cbc:PaymentMeansCode"`
	InstructionNote  string      `xml:"cbc:InstructionNote"`
}

type ublListCode struct {
	ListID string `xml:"listID,attr"`
	Value  string `xml:",chardata"`
}

type ublAllowanceCharge struct {
	ChargeIndicator       string    `xml:"cbc:ChargeIndicator"`
	AllowanceChargeReason string    `xml:"cbc:AllowanceChargeReason"`
	Amount                ublAmount `xml:"cbc:Amount"`
}

type ublTaxTotal struct {
	TaxAmount   ublAmount        `xml:"cbc:TaxAmount"`
	TaxSubtotal []ublTaxSubtotal `xml:"cac:TaxSubtotal,omitempty"`
}

type ublTaxSubtotal struct {
	TaxableAmount ublAmount      `xml:"cbc:TaxableAmount"`
	TaxAmount     ublAmount      `xml:"cbc:TaxAmount"`
	TaxCategory   ublTaxCategory `xml:"cac:TaxCategory"`
}

type ublTaxCategory struct {
	ID        ublListCode  `xml:"cbc:ID"`
	Percent   string       `xml:"cbc:Percent"`
	TaxScheme ublTaxScheme `xml:"cac:TaxScheme"`
}

type ublMonetaryTotal struct {
	TaxExclusiveAmount   ublAmount `xml:"cbc:TaxExclusiveAmount"`
	TaxInclusiveAmount   ublAmount `xml:"cbc:TaxInclusiveAmount"`
	AllowanceTotalAmount ublAmount `xml:"cbc:AllowanceTotalAmount"`
	PayableAmount        ublAmount `xml:"cbc:PayableAmount"`
}

type ublInvoiceLine struct {
	ID                  string      `xml:"cbc:ID"`
	InvoicedQuantity    ublQuantity `xml:"cbc:InvoicedQuantity"`
	LineExtensionAmount ublAmount   `xml:"cbc:LineExtensionAmount"`
	TaxTotal            ublTaxTotal `xml:"cac:TaxTotal"`
	Item                ublItem     `xml:"cac:Item"`
	Price               ublPrice    `xml:"cac:Price"`
}

type ublItem struct {
	Name string `xml:"cbc:Name"`
}

type ublPrice struct {
	PriceAmount     ublAmount           `xml:"cbc:PriceAmount"`
	AllowanceCharge *ublAllowanceCharge `xml:"cac:AllowanceCharge,omitempty"`
}
