package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"library-lending/date"
	"library-lending/library"
)

// printer writes markdown to a terminal through glamour and as plain text
// anywhere else.
type printer struct {
	w        io.Writer
	md       *glamour.TermRenderer
	currency string
}

func newPrinter(w io.Writer, currency string) *printer {
	p := &printer{w: w, currency: currency}
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return p
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		width = 80
	}
	if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width)); err == nil {
		p.md = r
	}
	return p
}

func (p *printer) printMarkdown(md string) {
	if p.md != nil {
		if out, err := p.md.Render(md); err == nil {
			fmt.Fprint(p.w, out)
			return
		}
	}
	fmt.Fprintln(p.w, strings.TrimRight(md, "\n"))
}

// cell escapes s for a markdown table.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func booksMarkdown(books []library.Book) string {
	if len(books) == 0 {
		return "No books in the library.\n"
	}
	var b strings.Builder
	b.WriteString("| Title | Author | Year | Genre | Copies |\n|:---|:---|---:|:---|---:|\n")
	for _, bk := range books {
		fmt.Fprintf(&b, "| %s | %s | %d | %s | %d |\n", cell(bk.Title), cell(bk.Author), bk.Year, cell(bk.Genre), bk.Copies)
	}
	return b.String()
}

func bookMarkdown(bk library.Book) string {
	return fmt.Sprintf("**%s**\n\n- Author: %s\n- Year: %d\n- Genre: %s\n- Copies: %d\n",
		bk.Title, bk.Author, bk.Year, bk.Genre, bk.Copies)
}

func loansMarkdown(who library.Name, loans []library.LoanEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Active loans of **%s**:\n\n| # | Title | Borrowed | Due |\n|---:|:---|:---|:---|\n", who)
	for _, l := range loans {
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", l.Position, cell(l.Title), l.Borrowed.Display(), l.Due().Display())
	}
	return b.String()
}

func borrowersMarkdown(borrowers []library.BorrowerProfile) string {
	if len(borrowers) == 0 {
		return "No borrowers yet.\n"
	}
	var b strings.Builder
	b.WriteString("| Last name | First name | Active loans | Photo |\n|:---|:---|---:|:---|\n")
	for _, p := range borrowers {
		fmt.Fprintf(&b, "| %s | %s | %d | %s |\n", cell(p.Name.Last), cell(p.Name.First), p.ActiveCount, cell(p.PhotoID))
	}
	return b.String()
}

func borrowerMarkdown(p library.BorrowerProfile, today date.Date) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n", p.Name)
	if p.PhotoID != "" {
		fmt.Fprintf(&b, "Photo: %s\n\n", p.PhotoID)
	} else {
		b.WriteString("No photo\n\n")
	}
	if len(p.Loans) == 0 {
		b.WriteString("No loans.\n")
		return b.String()
	}
	b.WriteString("| Loan | Title | Borrowed | Returned |\n|---:|:---|:---|:---|\n")
	for _, l := range p.Loans {
		returned := l.Returned.Display()
		if l.Active() {
			returned = "not returned"
			if today.After(l.Due()) {
				returned = fmt.Sprintf("overdue since %s", l.Due().Display())
			}
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", l.ID, cell(l.Title), l.Borrowed.Display(), returned)
	}
	return b.String()
}

const borrowReceiptTemplate = `{{ if .NewBorrower }}New borrower **{{ .Borrower }}** registered.

{{ end -}}
{{ if .PreviouslyActive -}}
Already borrowed by {{ .Borrower }}:
{{ range .PreviouslyActive }}
- {{ .Title }} (since {{ .Borrowed.Display }})
{{- end }}

{{ end -}}
{{ if .Accepted -}}
Borrowed by **{{ .Borrower }}**:

| Loan | Title | Borrowed | Due |
|---:|:---|:---|:---|
{{- range .Accepted }}
| {{ .LoanID }} | {{ cell .Title }} | {{ .Borrowed.Display }} | {{ .Due.Display }} |
{{- end }}

Return before {{ .Due.Display }}. After that, each day costs {{ .Rate }}.
{{ end -}}
{{ if .Rejected }}
Not borrowed:
{{ range .Rejected }}
- {{ .Title }}: {{ .Err }}
{{- end }}
{{ end -}}
`

const returnReceiptTemplate = `Returned by **{{ .Borrower }}**:

| Title | Borrowed | Due | Days late | Fee |
|:---|:---|:---|---:|---:|
{{- range .Lines }}
| {{ cell .Title }}{{ if .BookMissing }} (no longer in the catalog){{ end }} | {{ .Borrowed.Display }} | {{ .Fee.Due.Display }} | {{ .Fee.OverdueDays }} | {{ .Amount }} |
{{- end }}
| **Total** | | | | **{{ .Total }}** |
`

var receiptTemplates = template.Must(template.New("borrow").Funcs(template.FuncMap{"cell": cell}).Parse(borrowReceiptTemplate))

func init() {
	template.Must(receiptTemplates.New("return").Parse(returnReceiptTemplate))
}

func (p *printer) borrowReceipt(res *library.BorrowResult) string {
	data := struct {
		*library.BorrowResult
		Rate string
	}{res, library.FormatMoney(res.FeePerDay, p.currency)}
	return execute("borrow", data)
}

func (p *printer) returnReceipt(res *library.ReturnResult) string {
	type line struct {
		library.ReturnedLoan
		Amount string
	}
	data := struct {
		Borrower library.Name
		Lines    []line
		Total    string
	}{Borrower: res.Borrower, Total: library.FormatMoney(res.Total, p.currency)}
	for _, r := range res.Returned {
		data.Lines = append(data.Lines, line{r, library.FormatMoney(r.Fee.Amount, p.currency)})
	}
	return execute("return", data)
}

func execute(name string, data any) string {
	var b strings.Builder
	if err := receiptTemplates.ExecuteTemplate(&b, name, data); err != nil {
		return fmt.Sprintf("Error executing template: %v\n", err)
	}
	return b.String()
}
