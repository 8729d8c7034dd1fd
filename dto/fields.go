package dto

// FieldName identifies one of the fields extracted from every document
type FieldName string

const (
	FieldDocumentNumber   FieldName = "Document Number"
	FieldDocumentDate     FieldName = "Document Date"
	FieldValidityTillDate FieldName = "Validity Till Date"
	FieldDocumentCurrency FieldName = "Document Currency"
	FieldDocumentValue    FieldName = "Document Value (Amount)"
	FieldDocumentSubtype  FieldName = "Document Subtype"
)

// FieldDefinition pairs a field with the instruction sent to the LLM for it
type FieldDefinition struct {
	Name        FieldName `json:"name"`
	Instruction string    `json:"instruction"`
}

// catalog order is the order fields appear in every extraction result
var catalog = []FieldDefinition{
	{
		Name: FieldDocumentNumber,
		Instruction: "Extract the document number. It may appear as invoice number, bill number, reference number, or transaction number. " +
			"Return only an alphanumeric code in the format like XXX/999.",
	},
	{
		Name: FieldDocumentDate,
		Instruction: "Extract the date of the document. It may appear as invoice date, issue date, or bill date. " +
			"Return only the date in format DD-MM-YYYY.",
	},
	{
		Name: FieldValidityTillDate,
		Instruction: "Extract the expiry or due date of the document. Look for terms like valid until, validity period, due date, or termination date. " +
			"Return only the date in format DD-MM-YYYY.",
	},
	{
		Name: FieldDocumentCurrency,
		Instruction: "What currency is used in the document? It may be shown as currency symbol like ₹, $, or code like INR, USD, or full name like Rupees. " +
			"Return the currency in short form like INR or USD.",
	},
	{
		Name: FieldDocumentValue,
		Instruction: "What is the total payable amount in the document? Look for terms like total amount, invoice total, net payable, or total due. " +
			"Return only the numeric amount like 23124.40.",
	},
	{
		Name: FieldDocumentSubtype,
		Instruction: "Is this an import or export document? Decide based on whether goods are being received or sent out. " +
			"Return only one word: Import or Export.",
	},
}

// Fields returns the ordered field catalog. The slice is a copy.
func Fields() []FieldDefinition {
	out := make([]FieldDefinition, len(catalog))
	copy(out, catalog)
	return out
}

// FieldNames returns the catalog field names in order
func FieldNames() []FieldName {
	names := make([]FieldName, 0, len(catalog))
	for _, f := range catalog {
		names = append(names, f.Name)
	}
	return names
}
