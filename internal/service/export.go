package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/tealeg/xlsx"

	"ringside/internal/domain"
)

var exportHeaders = []string{
	"Order", "Created", "Status", "Customer", "Email", "Phone",
	"Shipping", "Delivery", "Delivery code", "Payment", "Items", "Total",
}

// ExportXLSX writes the admin order list as a single-sheet workbook.
func (s *OrderService) ExportXLSX(ctx context.Context, w io.Writer) error {
	orders, err := s.orders.ListAdmin(ctx)
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	header := sheet.AddRow()
	for _, h := range exportHeaders {
		header.AddCell().SetValue(h)
	}

	for _, o := range orders {
		row := sheet.AddRow()
		row.AddCell().SetValue(o.ID)
		row.AddCell().SetValue(o.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetValue(string(o.Status))
		row.AddCell().SetValue(o.PersonalInfo.FirstName + " " + o.PersonalInfo.LastName)
		row.AddCell().SetValue(o.PersonalInfo.Email)
		row.AddCell().SetValue(o.PersonalInfo.Phone)
		row.AddCell().SetValue(o.ShippingMethod.Name)
		row.AddCell().SetValue(deliverySummary(o.DeliveryInfo))
		row.AddCell().SetValue(o.DeliveryCode)
		row.AddCell().SetValue(string(o.PaymentMethod))
		row.AddCell().SetValue(itemsSummary(o.Items))
		row.AddCell().SetFloat(o.TotalAmount)
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func deliverySummary(d domain.DeliveryInfo) string {
	switch {
	case d.Point != nil:
		return d.Point.Name
	case d.Address != nil:
		return strings.TrimSpace(fmt.Sprintf("%s %s, %s %s", d.Address.Street, d.Address.Apartment, d.Address.PostalCode, d.Address.City))
	default:
		return string(d.Kind)
	}
}

func itemsSummary(items []domain.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		line := fmt.Sprintf("%dx %s", it.Quantity, it.Name)
		if it.Size != "" {
			line += " (" + it.Size + ")"
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, "; ")
}
