package gateway

import "kasir/internal/models"

// NotAvailable fills billing fields the provider requires but the buyer left empty.
const NotAvailable = "NA"

// BillingFields renders billing data in the provider's shape. Every field the
// provider requires is present.
func BillingFields(b models.BillingData) map[string]string {
	fields := map[string]string{
		"first_name":      b.FirstName,
		"last_name":       b.LastName,
		"email":           b.Email,
		"phone_number":    b.PhoneNumber,
		"street":          b.Street,
		"building":        b.Building,
		"floor":           b.Floor,
		"apartment":       b.Apartment,
		"city":            b.City,
		"state":           b.State,
		"country":         b.Country,
		"postal_code":     b.PostalCode,
		"shipping_method": "",
	}
	for k, v := range fields {
		if v == "" {
			fields[k] = NotAvailable
		}
	}
	return fields
}
