// Package export writes charting entries to spreadsheet workbooks.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"skillcoach/internal/domain/form"
)

const maxSheetName = 31

// Row is one charting entry with the context needed to label it.
type Row struct {
	EntryID     string
	Student     string
	Session     string
	ScheduledAt time.Time
	Status      string
	Responses   form.Responses
}

// ContentType is the MIME type of the workbook written by WriteCharting.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteCharting writes one sheet per template section. Single sections
// produce one row per entry; repeatable sections one row per instance.
// PRE: every row's Responses were saved against t
func WriteCharting(w io.Writer, t form.Template, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	used := make(map[string]bool)
	for i, s := range t.Sections {
		name := sheetName(s, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}
		if err := writeSection(f, name, s, rows, header); err != nil {
			return fmt.Errorf("sheet %s: %w", name, err)
		}
	}
	return f.Write(w)
}

func writeSection(f *excelize.File, sheet string, s form.Section, rows []Row, headerStyle int) error {
	cols := []any{"Entry", "Student", "Session", "Date", "Status"}
	if s.Repeatable {
		cols = append(cols, "#")
	}
	for _, fld := range s.Fields {
		cols = append(cols, fld.Label)
		if fld.AllowComments {
			cols = append(cols, fld.Label+" (comments)")
		}
	}
	if err := f.SetSheetRow(sheet, "A1", &cols); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return err
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}

	line := 2
	for _, r := range rows {
		instances := r.Responses[s.ID].Instances()
		for n, entry := range instances {
			vals := []any{r.EntryID, r.Student, r.Session, r.ScheduledAt.Format("2006-01-02 15:04"), r.Status}
			if s.Repeatable {
				vals = append(vals, n+1)
			}
			for _, fld := range s.Fields {
				fr := entry[fld.ID]
				vals = append(vals, cellValue(fr.Value))
				if fld.AllowComments {
					vals = append(vals, fr.Comments)
				}
			}
			cell, err := excelize.CoordinatesToCellName(1, line)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
				return err
			}
			line++
		}
	}
	return f.SetColWidth(sheet, "A", "E", 16)
}

func cellValue(v any) any {
	switch x := v.(type) {
	case nil:
		return ""
	case []string:
		return strings.Join(x, "; ")
	case []any:
		parts := make([]string, len(x))
		for i, p := range x {
			parts[i] = fmt.Sprint(p)
		}
		return strings.Join(parts, "; ")
	default:
		return x
	}
}

// sheetName derives a unique, Excel-legal sheet name from a section title.
func sheetName(s form.Section, used map[string]bool) string {
	base := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return ' '
		}
		return r
	}, strings.TrimSpace(s.Title))
	if base == "" {
		base = s.ID
	}
	base = truncate(base, maxSheetName)
	name := base
	for i := 2; used[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		name = truncate(base, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
