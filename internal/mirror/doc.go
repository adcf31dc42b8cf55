package mirror

import (
	"retailpos/m/domain"
)

// Document builders. Mirrored records are flat key-value maps so the sink
// does not depend on the primary store's struct shapes.

func productDoc(p domain.Product) map[string]any {
	return map[string]any{
		"id":            p.ID,
		"sku":           strOrNil(p.SKU),
		"name":          p.Name,
		"description":   strOrNil(p.Description),
		"cost_price":    p.CostPrice.InexactFloat64(),
		"selling_price": p.SellingPrice.InexactFloat64(),
		"quantity":      p.Quantity,
		"created_at":    p.CreatedAt,
		"updated_at":    p.UpdatedAt,
	}
}

func customerDoc(c domain.Customer) map[string]any {
	return map[string]any{
		"id":         c.ID,
		"name":       c.Name,
		"phone":      strOrNil(c.Phone),
		"email":      strOrNil(c.Email),
		"address":    strOrNil(c.Address),
		"created_at": c.CreatedAt,
	}
}

func saleDoc(r domain.Receipt) map[string]any {
	items := make([]map[string]any, 0, len(r.Lines))
	for _, line := range r.Lines {
		items = append(items, map[string]any{
			"product_id":   line.ProductID,
			"product_name": line.ProductName,
			"quantity":     line.Quantity,
			"unit_price":   line.UnitPrice.InexactFloat64(),
			"total_price":  line.TotalPrice.InexactFloat64(),
		})
	}
	return map[string]any{
		"id":             r.SaleID,
		"invoice_number": r.InvoiceNumber,
		"customer_id":    r.CustomerID,
		"customer_name":  r.CustomerName,
		"total_amount":   r.TotalAmount.InexactFloat64(),
		"date":           r.Date,
		"created_at":     r.CreatedAt,
		"items":          items,
	}
}

func saleEventDoc(r domain.Receipt) map[string]any {
	doc := saleDoc(r)
	doc["sale_id"] = r.SaleID
	delete(doc, "id")
	doc["event_type"] = "sale_created"
	return doc
}

func stockEventDoc(saleID int64, line domain.ReceiptLine) map[string]any {
	return map[string]any{
		"sale_id":         saleID,
		"product_id":      line.ProductID,
		"product_name":    line.ProductName,
		"quantity_change": -line.Quantity,
		"unit_price":      line.UnitPrice.InexactFloat64(),
		"total_price":     line.TotalPrice.InexactFloat64(),
		"event_type":      "stock_decremented",
	}
}

func strOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
