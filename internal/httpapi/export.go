package httpapi

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"sareepos/backend/internal/domain"
)

// statement is a flat label/amount view of a financial report, shared by the export formats.
type statement struct {
	Title    string
	Filename string
	Rows     []statementRow
}

type statementRow struct {
	Label  string
	Amount decimal.Decimal
}

func balanceSheetStatement(sheet domain.BalanceSheet) statement {
	return statement{
		Title:    "Balance Sheet as of " + sheet.AsOf,
		Filename: "balance-sheet-" + sheet.AsOf,
		Rows: []statementRow{
			{"Total contributions", sheet.TotalContributions},
			{"Total revenue", sheet.TotalRevenue},
			{"Cost of goods sold", sheet.CostOfGoodsSold},
			{"Total expenses", sheet.TotalExpenses},
			{"Inventory value", sheet.InventoryValue},
			{"Cash balance", sheet.CashBalance},
			{"Total assets", sheet.TotalAssets},
		},
	}
}

func profitLossStatement(pl domain.ProfitLoss) statement {
	return statement{
		Title:    fmt.Sprintf("Profit & Loss %s to %s", pl.Start, pl.End),
		Filename: fmt.Sprintf("profit-loss-%s-%s", pl.Start, pl.End),
		Rows: []statementRow{
			{"Revenue", pl.Revenue},
			{"Cost of goods sold", pl.CostOfGoodsSold},
			{"Gross profit", pl.GrossProfit},
			{"Expenses", pl.Expenses},
			{"Net profit", pl.NetProfit},
		},
	}
}

// writeStatement renders payload as JSON unless ?format= asks for csv, html or xlsx.
func (a *API) writeStatement(w http.ResponseWriter, r *http.Request, st statement, payload any) {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format"))) {
	case "csv":
		body, err := statementToCSV(st)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", st.Filename+".csv"))
		_, _ = w.Write(body)
	case "html", "pdf":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(statementToPrintableHTML(st)))
	case "xlsx":
		var buf bytes.Buffer
		if err := statementToXLSX(st, &buf); err != nil {
			a.fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", st.Filename+".xlsx"))
		_, _ = w.Write(buf.Bytes())
	default:
		writeJSON(w, http.StatusOK, payload)
	}
}

func statementToCSV(st statement) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write([]string{"line", "amount"}); err != nil {
		return nil, err
	}
	for _, row := range st.Rows {
		if err := writer.Write([]string{row.Label, row.Amount.StringFixed(2)}); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	return buf.Bytes(), writer.Error()
}

var statementHTMLTmpl = template.Must(template.New("statement").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
}).Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>{{.Title}}</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    table { width: 100%; max-width: 560px; border-collapse: collapse; margin-top: 8px; }
    th, td { border: 1px solid #ddd; padding: 6px; font-size: 13px; }
  </style>
</head>
<body>
  <h2>{{.Title}}</h2>
  <table>
    <thead><tr><th>Line</th><th>Amount</th></tr></thead>
    <tbody>{{range .Rows}}<tr><td>{{.Label}}</td><td style="text-align:right;">{{money .Amount}}</td></tr>{{end}}</tbody>
  </table>
</body>
</html>
`))

func statementToPrintableHTML(st statement) string {
	var buf bytes.Buffer
	if err := statementHTMLTmpl.Execute(&buf, st); err != nil {
		return "<!doctype html><html><body><p>Report rendering error.</p></body></html>"
	}
	return buf.String()
}

func statementToXLSX(st statement, buf *bytes.Buffer) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	f.SetCellValue(sheet, "A1", st.Title)
	f.SetCellValue(sheet, "A2", "Line")
	f.SetCellValue(sheet, "B2", "Amount")
	for i, row := range st.Rows {
		f.SetCellValue(sheet, "A"+fmt.Sprint(i+3), row.Label)
		f.SetCellValue(sheet, "B"+fmt.Sprint(i+3), row.Amount.InexactFloat64())
	}
	if err := f.SetColWidth(sheet, "A", "A", 28); err != nil {
		return err
	}
	return f.Write(buf)
}
