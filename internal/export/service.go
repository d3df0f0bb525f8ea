package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/anphuc-nienso/internal/prayers"
)

// PrintDataSource builds the ledger that gets exported.
type PrintDataSource interface {
	PrintData(ctx context.Context, year int, typ string, recordID uuid.UUID) (*prayers.PrintData, error)
}

// Service is a tiny façade over the prayer ledger that produces XLSX bytes.
type Service struct {
	source PrintDataSource
	logger *slog.Logger
}

func NewService(source PrintDataSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, logger: logger}
}

// ExportPrintDataXLSX returns the ledger for year and typ as an XLSX workbook.
// recordID, when set, exports that one record only.
func (s *Service) ExportPrintDataXLSX(ctx context.Context, year int, typ string, recordID uuid.UUID) ([]byte, error) {
	start := time.Now()

	data, err := s.source.PrintData(ctx, year, typ, recordID)
	if err != nil {
		return nil, err
	}
	b, err := WritePrintData(data)
	if err != nil {
		return nil, err
	}

	s.logger.Info("export.xlsx.ok",
		"year", year,
		"type", data.Type,
		"families", len(data.Items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return b, nil
}

var headers = []string{"STT", "Họ tên", "Pháp danh", "Năm sinh", "Tuổi", "Sao", "Hạn"}

// WritePrintData lays the ledger out as one sheet: a title row, a header row,
// then per family a bold family row followed by its numbered members.
func WritePrintData(data *prayers.PrintData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := data.Type.Title()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	title, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}

	row := 1
	write := func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
	styleRow := func(style int) {
		first, _ := excelize.CoordinatesToCellName(1, row)
		last, _ := excelize.CoordinatesToCellName(len(headers), row)
		_ = f.SetCellStyle(sheet, first, last, style)
	}

	write(1, fmt.Sprintf("%s năm %d", sheet, data.Year))
	_ = f.MergeCell(sheet, "A1", "G1")
	styleRow(title)
	row++

	write(1, fmt.Sprintf("Sao hạn tính cho năm %d", data.CurrentYear))
	row++

	for i, h := range headers {
		write(i+1, h)
	}
	styleRow(bold)
	row++

	for _, item := range data.Items {
		label := "Gia chủ: " + item.FamilyName
		if item.FamilyAddress != nil {
			label += " - " + *item.FamilyAddress
		}
		write(1, label)
		first, _ := excelize.CoordinatesToCellName(1, row)
		last, _ := excelize.CoordinatesToCellName(len(headers), row)
		_ = f.MergeCell(sheet, first, last)
		styleRow(bold)
		row++

		for i, m := range item.Members {
			write(1, i+1)
			write(2, m.Name)
			if m.DharmaName != nil {
				write(3, *m.DharmaName)
			}
			write(4, m.BirthYear)
			write(5, m.ApparentAge)
			write(6, m.Star)
			write(7, m.Obstacle)
			row++
		}
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 6)  // stt
	_ = f.SetColWidth(sheet, "B", "B", 30) // name
	_ = f.SetColWidth(sheet, "C", "C", 20) // dharma name
	_ = f.SetColWidth(sheet, "D", "E", 10) // years
	_ = f.SetColWidth(sheet, "F", "G", 14) // fortune

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
