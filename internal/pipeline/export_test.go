package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExportSnapshotToXLSX(t *testing.T) {
	svc, _ := newTestService(t, &stubFetcher{body: readFixture(t, "orders_page.html")})
	ctx := context.Background()
	if _, err := svc.RemoveOrders(ctx, "s1", []string{"1002"}); err != nil {
		t.Fatal(err)
	}
	snap, err := svc.Load(ctx, "s1", Filters{From: "2025-05-01T00:00", To: "2025-05-31T23:59"})
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "nested", "snapshot.xlsx")
	if err := ExportSnapshotToXLSX(snap, path); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{sheetOrders, sheetItems, sheetProduction, sheetRemoved}
	if len(sheets) != len(want) {
		t.Fatalf("sheets=%v", sheets)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Fatalf("sheets=%v", sheets)
		}
	}

	rows, err := f.GetRows(sheetOrders)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1][0] != "1001" || rows[1][2] != "Maria da Silva" {
		t.Fatalf("orders rows=%v", rows)
	}

	rows, err = f.GetRows(sheetProduction)
	if err != nil {
		t.Fatal(err)
	}
	last := rows[len(rows)-1]
	if last[0] != "TOTAL" || last[1] != "4" || last[3] != "4" {
		t.Fatalf("total row=%v", last)
	}

	rows, err = f.GetRows(sheetRemoved)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1][0] != "1002" {
		t.Fatalf("removed rows=%v", rows)
	}

	val, err := f.GetCellValue(sheetItems, "A2")
	if err != nil {
		t.Fatal(err)
	}
	if val != "Sono Regenerativo" {
		t.Fatalf("first item=%q", val)
	}
}
