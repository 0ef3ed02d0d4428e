package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"purissima/internal"
	"purissima/internal/orders"
)

const (
	sheetOrders     = "orders"
	sheetItems      = "items"
	sheetProduction = "production"
	sheetRemoved    = "removed"
)

// ExportSnapshotToXLSX writes one sheet per view of the snapshot.
func ExportSnapshotToXLSX(snap Snapshot, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetOrders); err != nil {
		return err
	}
	for _, name := range []string{sheetItems, sheetProduction, sheetRemoved} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	writeRows(f, sheetOrders,
		[]any{"order_id", "status", "customer_name", "document", "email", "phone", "address", "created_at", "items"},
		orderRows(snap.Orders))

	itemRows := make([][]any, 0, len(snap.Aggregates))
	for _, agg := range orders.SortAggregates(snap.Aggregates) {
		ids := make([]string, 0, len(agg.Orders))
		seen := map[string]struct{}{}
		for _, o := range agg.Orders {
			if _, ok := seen[o.ID]; ok {
				continue
			}
			seen[o.ID] = struct{}{}
			ids = append(ids, o.ID)
		}
		itemRows = append(itemRows, []any{agg.Item, agg.TotalQuantity, strings.Join(ids, ", ")})
	}
	writeRows(f, sheetItems, []any{"item", "total_quantity", "order_ids"}, itemRows)

	prodRows := make([][]any, 0, len(snap.ProductionItems)+1)
	for _, it := range snap.ProductionItems {
		prodRows = append(prodRows, []any{it.Item, it.TotalQuantity, it.ProducedQuantity, it.RemainingQuantity})
	}
	prodRows = append(prodRows, []any{"TOTAL", snap.Totals.Required, snap.Totals.Produced, snap.Totals.Remaining})
	writeRows(f, sheetProduction, []any{"item", "required", "produced", "remaining"}, prodRows)

	removedRows := make([][]any, 0, len(snap.Removed))
	for _, r := range snap.Removed {
		removedRows = append(removedRows, []any{r.OrderID, r.RemovedAt.Format("2006-01-02T15:04:05Z07:00")})
	}
	writeRows(f, sheetRemoved, []any{"order_id", "removed_at"}, removedRows)

	f.SetActiveSheet(0)
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func orderRows(list []internal.Order) [][]any {
	rows := make([][]any, 0, len(list))
	for _, o := range list {
		s := orders.Summarize(o)
		items := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, it.CanonicalName+" x"+it.RawQuantity)
		}
		rows = append(rows, []any{
			s.ID, o.Field(internal.FieldStatus), s.Name, s.Document, s.Email, s.Phone, s.Address,
			o.Field(internal.FieldCreatedAt), strings.Join(items, "; "),
		})
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, headers []any, rows [][]any) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for i, row := range rows {
		for j, value := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}
}
