package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	dues "amicale-backend/internal/dues/domain"
	members "amicale-backend/internal/members/domain"
	payments "amicale-backend/internal/payments/domain"
)

// BuildPeriodDuesXLSX renders a period's dues ledger as a workbook.
func BuildPeriodDuesXLSX(period dues.Period, currency string, items []dues.LineItem, list []dues.MemberDue, resolve dues.MemberNameResolver) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	duesSheet := "dues"
	itemsSheet := "line items"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(duesSheet)
	f.NewSheet(itemsSheet)

	expected := decimal.Zero
	paid := decimal.Zero
	remaining := decimal.Zero
	for _, due := range list {
		expected = expected.Add(due.ExpectedAmount)
		paid = paid.Add(due.PaidAmount)
		remaining = remaining.Add(due.RemainingAmount)
	}

	_ = f.SetCellValue(summarySheet, "A1", "Dues Ledger")
	_ = f.SetCellValue(summarySheet, "A3", "Period")
	_ = f.SetCellValue(summarySheet, "B3", period.String())
	_ = f.SetCellValue(summarySheet, "A4", "Members billed")
	_ = f.SetCellValue(summarySheet, "B4", len(list))
	_ = f.SetCellValue(summarySheet, "A5", "Total expected")
	_ = f.SetCellValue(summarySheet, "B5", expected.StringFixed(2))
	_ = f.SetCellValue(summarySheet, "A6", "Total paid")
	_ = f.SetCellValue(summarySheet, "B6", paid.StringFixed(2))
	_ = f.SetCellValue(summarySheet, "A7", "Total outstanding")
	_ = f.SetCellValue(summarySheet, "B7", remaining.StringFixed(2))
	_ = f.SetCellValue(summarySheet, "A8", "Currency")
	_ = f.SetCellValue(summarySheet, "B8", currency)

	_ = f.SetCellValue(duesSheet, "A1", "Member")
	_ = f.SetCellValue(duesSheet, "B1", "Expected")
	_ = f.SetCellValue(duesSheet, "C1", "Paid")
	_ = f.SetCellValue(duesSheet, "D1", "Remaining")
	_ = f.SetCellValue(duesSheet, "E1", "Status")
	_ = f.SetCellValue(duesSheet, "F1", "Breakdown")
	for i, due := range list {
		row := i + 2
		name := due.MemberID
		if resolve != nil {
			if resolved := resolve(due.MemberID); resolved != "" {
				name = resolved
			}
		}
		_ = f.SetCellValue(duesSheet, fmt.Sprintf("A%d", row), name)
		_ = f.SetCellValue(duesSheet, fmt.Sprintf("B%d", row), due.ExpectedAmount.StringFixed(2))
		_ = f.SetCellValue(duesSheet, fmt.Sprintf("C%d", row), due.PaidAmount.StringFixed(2))
		_ = f.SetCellValue(duesSheet, fmt.Sprintf("D%d", row), due.RemainingAmount.StringFixed(2))
		_ = f.SetCellValue(duesSheet, fmt.Sprintf("E%d", row), string(due.Status))
		_ = f.SetCellValue(duesSheet, fmt.Sprintf("F%d", row), due.Description)
	}

	_ = f.SetCellValue(itemsSheet, "A1", "Kind")
	_ = f.SetCellValue(itemsSheet, "B1", "Label")
	_ = f.SetCellValue(itemsSheet, "C1", "Amount")
	_ = f.SetCellValue(itemsSheet, "D1", "Beneficiary")
	for i, item := range items {
		row := i + 2
		beneficiary := item.BeneficiaryID
		if resolve != nil && beneficiary != "" {
			if resolved := resolve(beneficiary); resolved != "" {
				beneficiary = resolved
			}
		}
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("A%d", row), string(item.Kind))
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("B%d", row), item.Label)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("C%d", row), item.Amount.StringFixed(2))
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("D%d", row), beneficiary)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildMemberStatementPDF renders a member's due history and payments.
func BuildMemberStatementPDF(member *members.Member, currency string, list []dues.MemberDue, history []payments.Payment) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Member Statement")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Member: %s", member.FullName))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Email: %s", member.Email))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Joined: %s", member.JoinedAt.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().UTC().Format(time.RFC3339)))
	pdf.Ln(8)

	outstanding := decimal.Zero
	for _, due := range list {
		outstanding = outstanding.Add(due.RemainingAmount)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Total outstanding: %s %s", outstanding.StringFixed(2), currency))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(25, 6, "Period", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Expected", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Paid", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Remaining", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Status", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, due := range list {
		pdf.CellFormat(25, 6, due.Period.String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, due.ExpectedAmount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, due.PaidAmount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, due.RemainingAmount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, string(due.Status), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	if len(history) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(35, 6, "Date", "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, "Period", "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, "Amount", "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, "Method", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, payment := range history {
			pdf.CellFormat(35, 6, payment.CreatedAt.Format("2006-01-02"), "1", 0, "C", false, 0, "")
			pdf.CellFormat(25, 6, payment.Period.String(), "1", 0, "C", false, 0, "")
			pdf.CellFormat(30, 6, payment.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
			pdf.CellFormat(30, 6, payment.Method, "1", 0, "C", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
