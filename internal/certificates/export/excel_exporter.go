package export

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	ledgerSheet  = "Sent Certificates"
	summarySheet = "Summary"
)

// LedgerRow is one delivery ledger entry flattened for export.
type LedgerRow struct {
	CertificateID  string
	ResponseID     string
	RecipientEmail string
	SentAt         time.Time
}

var ledgerColumns = []string{"Certificate ID", "Response ID", "Recipient Email", "Sent At"}

// WriteLedgerWorkbook writes an xlsx workbook with the raw ledger rows and a
// sent-by-date summary sheet.
func WriteLedgerWorkbook(w io.Writer, rows []LedgerRow) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", ledgerSheet)
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeLedgerSheet(f, headerStyle, rows); err != nil {
		return err
	}
	if err := writeSummarySheet(f, headerStyle, rows); err != nil {
		return err
	}

	return f.Write(w)
}

func writeLedgerSheet(f *excelize.File, headerStyle int, rows []LedgerRow) error {
	for i, col := range ledgerColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(ledgerSheet, cell, col); err != nil {
			return err
		}
		f.SetCellStyle(ledgerSheet, cell, cell, headerStyle)
	}

	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 22}) // m/d/yy h:mm
	if err != nil {
		return err
	}

	for i, row := range rows {
		rowNum := i + 2
		values := []any{row.CertificateID, row.ResponseID, row.RecipientEmail, row.SentAt}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
			if err := f.SetCellValue(ledgerSheet, cell, v); err != nil {
				return err
			}
		}
		sentCell, _ := excelize.CoordinatesToCellName(4, rowNum)
		f.SetCellStyle(ledgerSheet, sentCell, sentCell, dateStyle)
	}

	// Generous fixed widths; ids and emails are long.
	f.SetColWidth(ledgerSheet, "A", "B", 38)
	f.SetColWidth(ledgerSheet, "C", "C", 32)
	f.SetColWidth(ledgerSheet, "D", "D", 20)

	if len(rows) > 0 {
		lastCell, _ := excelize.CoordinatesToCellName(len(ledgerColumns), len(rows)+1)
		f.AutoFilter(ledgerSheet, "A1:"+lastCell, nil)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, headerStyle int, rows []LedgerRow) error {
	byDate := make(map[string]int)
	for _, row := range rows {
		byDate[row.SentAt.Format("2006-01-02")]++
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	for i, col := range []string{"Date", "Certificates Sent"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(summarySheet, cell, col); err != nil {
			return err
		}
		f.SetCellStyle(summarySheet, cell, cell, headerStyle)
	}

	for i, d := range dates {
		rowNum := i + 2
		dateCell, _ := excelize.CoordinatesToCellName(1, rowNum)
		countCell, _ := excelize.CoordinatesToCellName(2, rowNum)
		if err := f.SetCellValue(summarySheet, dateCell, d); err != nil {
			return err
		}
		if err := f.SetCellValue(summarySheet, countCell, byDate[d]); err != nil {
			return err
		}
	}

	totalRow := len(dates) + 2
	labelCell, _ := excelize.CoordinatesToCellName(1, totalRow)
	totalCell, _ := excelize.CoordinatesToCellName(2, totalRow)
	f.SetCellValue(summarySheet, labelCell, "Total")
	f.SetCellValue(summarySheet, totalCell, len(rows))

	f.SetColWidth(summarySheet, "A", "B", 20)
	return nil
}
