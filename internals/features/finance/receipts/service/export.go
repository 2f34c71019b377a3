// file: internals/features/finance/receipts/service/export.go
package service

import (
	"fmt"
	"html/template"
	"strings"
)

/* =========================================================
   Export adapters
========================================================= */

// Exporter renders an issued receipt's snapshot into one output format.
// Adding a format means adding an implementation, nothing upstream changes.
type Exporter interface {
	ContentType() string
	Render(s *Snapshot) ([]byte, error)
}

/* ---------------- plain text ---------------- */

type TextExporter struct{}

func (TextExporter) ContentType() string { return "text/plain; charset=utf-8" }

func (TextExporter) Render(s *Snapshot) ([]byte, error) {
	var b strings.Builder
	line := strings.Repeat("=", 48)

	b.WriteString(line + "\n")
	b.WriteString(center(s.School.Name, 48) + "\n")
	if s.School.Address != nil {
		b.WriteString(center(*s.School.Address, 48) + "\n")
	}
	b.WriteString(line + "\n")
	fmt.Fprintf(&b, "Receipt No : %s\n", s.ReceiptNumber)
	fmt.Fprintf(&b, "Issued     : %s\n", s.IssuedAt.Format("02 Jan 2006 15:04"))
	fmt.Fprintf(&b, "Student    : %s", s.Student.Name)
	if s.Student.Code != nil {
		fmt.Fprintf(&b, " (%s)", *s.Student.Code)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Payment    : %s / %s\n", s.Provider, s.GatewayPaymentID)
	if s.Method != nil {
		fmt.Fprintf(&b, "Method     : %s\n", *s.Method)
	}
	b.WriteString(strings.Repeat("-", 48) + "\n")
	for _, l := range s.Lines {
		fmt.Fprintf(&b, "%-36s %11s\n", trunc(l.Label, 36), formatINR(l.AmountINR))
	}
	b.WriteString(strings.Repeat("-", 48) + "\n")
	fmt.Fprintf(&b, "%-36s %11s\n", "TOTAL", formatINR(s.TotalINR))
	b.WriteString(line + "\n")

	return []byte(b.String()), nil
}

/* ---------------- html ---------------- */

var receiptTmpl = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Receipt {{.ReceiptNumber}}</title></head>
<body>
<h2>{{.School.Name}}</h2>
{{if .School.Address}}<p>{{.School.Address}}</p>{{end}}
<hr>
<p><strong>Receipt No:</strong> {{.ReceiptNumber}}<br>
<strong>Issued:</strong> {{.IssuedAt.Format "02 Jan 2006 15:04"}}<br>
<strong>Student:</strong> {{.Student.Name}}{{if .Student.Code}} ({{.Student.Code}}){{end}}<br>
<strong>Payment:</strong> {{.Provider}} / {{.GatewayPaymentID}}</p>
<table border="1" cellpadding="6" cellspacing="0">
<tr><th>Item</th><th>Amount (INR)</th></tr>
{{range .Lines}}<tr><td>{{.Label}}</td><td align="right">{{.AmountINR}}</td></tr>
{{end}}<tr><th>Total</th><th align="right">{{.TotalINR}}</th></tr>
</table>
</body>
</html>`))

type HTMLExporter struct{}

func (HTMLExporter) ContentType() string { return "text/html; charset=utf-8" }

func (HTMLExporter) Render(s *Snapshot) ([]byte, error) {
	var b strings.Builder
	if err := receiptTmpl.Execute(&b, s); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

/* ---------------- helpers ---------------- */

func formatINR(v int64) string { return fmt.Sprintf("₹%d", v) }

func trunc(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	pad := (width - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}
