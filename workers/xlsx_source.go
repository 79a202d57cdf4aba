package workers

import (
	"path/filepath"
	"strings"
	"time"

	"autoresponder/models"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ReadLeadSheet lê a planilha de leads de um tenant (primeira aba, header na
// linha 1). Colunas: name, phone, email, status, source, timestamp. Linha sem
// telefone é ignorada.
func ReadLeadSheet(importDir, sheetPath string) ([]models.Lead, error) {
	path := sheetPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(importDir, path)
	}

	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to open lead sheet %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("lead sheet %s has no sheets", path)
	}

	var out []models.Lead
	for i, row := range f.Sheets[0].Rows {
		if i == 0 {
			continue
		}
		cells := make([]string, 6)
		for j := 0; j < len(row.Cells) && j < 6; j++ {
			cells[j] = strings.TrimSpace(row.Cells[j].String())
		}
		if cells[1] == "" {
			continue
		}
		lead := models.Lead{
			Name:   cells[0],
			Phone:  cells[1],
			Email:  cells[2],
			Status: cells[3],
			Source: cells[4],
		}
		if ts := parseSheetTime(cells[5]); ts != nil {
			lead.Timestamp = ts
		}
		out = append(out, lead)
	}
	return out, nil
}

var sheetTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
}

func parseSheetTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range sheetTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
