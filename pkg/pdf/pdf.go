package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// InvoiceDoc carries everything the invoice layout needs. Rendering is a pure
// function of this struct.
type InvoiceDoc struct {
	Number       string
	IssuedAt     time.Time
	BusinessName string
	ClientName   string
	OrderTitle   string
	Description  string
	Amount       decimal.Decimal
	Currency     string
	Paid         bool
	PaidAt       *time.Time
}

const (
	pageLeft   = 20.0
	lineHeight = 8.0
)

// RenderInvoice lays the invoice out on a single A4 page and returns the bytes.
func RenderInvoice(doc InvoiceDoc) ([]byte, error) {
	p := fpdf.New("P", "mm", "A4", "")
	p.SetTitle(fmt.Sprintf("Invoice %s", doc.Number), false)
	p.AddPage()

	p.SetFont("Helvetica", "B", 20)
	p.SetXY(pageLeft, 20)
	p.Cell(0, lineHeight, "INVOICE")

	p.SetFont("Helvetica", "", 11)
	p.SetXY(pageLeft, 32)
	p.Cell(0, lineHeight, fmt.Sprintf("Invoice no: %s", doc.Number))
	p.SetXY(pageLeft, 32+lineHeight)
	p.Cell(0, lineHeight, fmt.Sprintf("Date: %s", doc.IssuedAt.Format("2006-01-02")))

	p.SetFont("Helvetica", "B", 11)
	p.SetXY(pageLeft, 56)
	p.Cell(0, lineHeight, doc.BusinessName)
	p.SetFont("Helvetica", "", 11)
	p.SetXY(pageLeft, 56+lineHeight)
	p.Cell(0, lineHeight, fmt.Sprintf("Billed to: %s", doc.ClientName))

	y := 80.0
	p.SetFont("Helvetica", "B", 11)
	p.SetXY(pageLeft, y)
	p.CellFormat(120, lineHeight, "Description", "B", 0, "L", false, 0, "")
	p.CellFormat(50, lineHeight, "Amount", "B", 0, "R", false, 0, "")

	y += lineHeight + 2
	p.SetFont("Helvetica", "", 11)
	p.SetXY(pageLeft, y)
	desc := doc.OrderTitle
	if doc.Description != "" {
		desc = fmt.Sprintf("%s - %s", doc.OrderTitle, doc.Description)
	}
	p.CellFormat(120, lineHeight, desc, "", 0, "L", false, 0, "")
	p.CellFormat(50, lineHeight, formatMoney(doc.Amount, doc.Currency), "", 0, "R", false, 0, "")

	y += lineHeight * 2
	p.SetFont("Helvetica", "B", 12)
	p.SetXY(pageLeft, y)
	p.CellFormat(120, lineHeight, "Total", "T", 0, "L", false, 0, "")
	p.CellFormat(50, lineHeight, formatMoney(doc.Amount, doc.Currency), "T", 0, "R", false, 0, "")

	if doc.Paid {
		y += lineHeight * 2
		p.SetFont("Helvetica", "B", 12)
		p.SetTextColor(0, 128, 0)
		p.SetXY(pageLeft, y)
		label := "PAID"
		if doc.PaidAt != nil {
			label = fmt.Sprintf("PAID %s", doc.PaidAt.Format("2006-01-02"))
		}
		p.Cell(0, lineHeight, label)
		p.SetTextColor(0, 0, 0)
	}

	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// ReceiptDoc carries the payment receipt layout inputs.
type ReceiptDoc struct {
	PaymentRef   string
	PaidAt       time.Time
	BusinessName string
	PayerName    string
	Amount       decimal.Decimal
	Currency     string
	Description  string
}

// RenderReceipt lays out a single-page payment receipt.
func RenderReceipt(doc ReceiptDoc) ([]byte, error) {
	p := fpdf.New("P", "mm", "A4", "")
	p.SetTitle(fmt.Sprintf("Receipt %s", doc.PaymentRef), false)
	p.AddPage()

	p.SetFont("Helvetica", "B", 20)
	p.SetXY(pageLeft, 20)
	p.Cell(0, lineHeight, "PAYMENT RECEIPT")

	p.SetFont("Helvetica", "", 11)
	rows := []string{
		fmt.Sprintf("Reference: %s", doc.PaymentRef),
		fmt.Sprintf("Date: %s", doc.PaidAt.Format("2006-01-02 15:04")),
		fmt.Sprintf("Received from: %s", doc.PayerName),
		fmt.Sprintf("Received by: %s", doc.BusinessName),
	}
	y := 36.0
	for _, row := range rows {
		p.SetXY(pageLeft, y)
		p.Cell(0, lineHeight, row)
		y += lineHeight
	}

	if doc.Description != "" {
		y += lineHeight
		p.SetXY(pageLeft, y)
		p.Cell(0, lineHeight, doc.Description)
	}

	y += lineHeight * 2
	p.SetFont("Helvetica", "B", 14)
	p.SetXY(pageLeft, y)
	p.Cell(0, lineHeight, fmt.Sprintf("Amount: %s", formatMoney(doc.Amount, doc.Currency)))

	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func formatMoney(amount decimal.Decimal, currency string) string {
	return fmt.Sprintf("%s %s", amount.StringFixed(2), currency)
}
