package receipts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/storebuddy/storebuddy-backend/pkg/config"
	"github.com/storebuddy/storebuddy-backend/pkg/db/models"
)

const (
	vatRate          = "0.05"
	defaultPageLines = 40
	separator        = "----------------------------------------"
)

// SaleDocument is the data a receipt is rendered from. ID is the store
// assigned sale id and may be absent.
type SaleDocument struct {
	ID    string            `json:"id,omitempty"`
	Date  string            `json:"date"`
	Total float64           `json:"total"`
	Items []models.SaleItem `json:"items"`
}

// Renderer writes paginated plain-text receipts to the configured directory.
type Renderer struct {
	outputDir    string
	linesPerPage int
}

// NewRenderer builds a renderer from the receipts configuration.
func NewRenderer(cfg config.ReceiptsConfig) (*Renderer, error) {
	dir := strings.TrimSpace(cfg.OutputDir)
	if dir == "" {
		return nil, fmt.Errorf("receipts output dir required")
	}
	lines := cfg.LinesPerPage
	if lines <= 0 {
		lines = defaultPageLines
	}
	return &Renderer{outputDir: dir, linesPerPage: lines}, nil
}

// Render writes the receipt document and returns its path. VAT is 5% of the
// sale total, rounded to 2 decimals; the grand total is total plus VAT,
// rounded the same way.
func (r *Renderer) Render(sale SaleDocument) (string, error) {
	if strings.TrimSpace(sale.Date) == "" {
		return "", fmt.Errorf("sale date required")
	}

	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", r.outputDir, err)
	}

	name := fmt.Sprintf("receipt_%s.txt", sale.Date)
	if strings.TrimSpace(sale.ID) != "" {
		name = fmt.Sprintf("receipt_%s_%s.txt", sale.Date, sale.ID)
	}
	path := filepath.Join(r.outputDir, name)

	content := r.layout(sale)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write receipt %q: %w", path, err)
	}
	return path, nil
}

func (r *Renderer) layout(sale SaleDocument) string {
	lines := []string{
		"STOREBUDDY",
		"SALES RECEIPT",
		"Date: " + sale.Date,
	}
	if strings.TrimSpace(sale.ID) != "" {
		lines = append(lines, "Sale: "+sale.ID)
	}
	lines = append(lines, separator)

	for _, item := range sale.Items {
		price := decimal.NewFromFloat(item.Price)
		lineTotal := price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		lines = append(lines, fmt.Sprintf("%s x%d @ %s = %s",
			item.ProductName, item.Quantity, price.StringFixed(2), lineTotal.StringFixed(2)))
	}

	subtotal := decimal.NewFromFloat(sale.Total)
	vat := subtotal.Mul(decimal.RequireFromString(vatRate)).Round(2)
	grand := subtotal.Add(vat).Round(2)

	lines = append(lines,
		separator,
		"Subtotal: "+subtotal.StringFixed(2),
		"VAT (5%): "+vat.StringFixed(2),
		"Total: "+grand.StringFixed(2),
	)

	return paginate(lines, r.linesPerPage)
}

// paginate breaks the line sequence into fixed-height pages separated by a
// form feed and a page footer.
func paginate(lines []string, perPage int) string {
	pages := [][]string{}
	for start := 0; start < len(lines); start += perPage {
		end := start + perPage
		if end > len(lines) {
			end = len(lines)
		}
		pages = append(pages, lines[start:end])
	}
	if len(pages) == 0 {
		pages = append(pages, []string{})
	}

	var b strings.Builder
	for i, page := range pages {
		for _, line := range page {
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("Page %d of %d\n", i+1, len(pages)))
		if i < len(pages)-1 {
			b.WriteString("\f")
		}
	}
	return b.String()
}
