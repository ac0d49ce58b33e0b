package excelizedriver

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/locvowork/fleet_management_sample/pkg/excelkit/style"
)

// builtinDateTime is excelize's built-in "m/d/yy h:mm" format, used for time
// values whose style carries no number format of its own.
const builtinDateTime = 22

var borderStyles = map[string]int{
	"thin":   1,
	"medium": 2,
	"dashed": 3,
	"dotted": 4,
	"thick":  5,
	"double": 6,
	"hair":   7,
}

var fillPatterns = map[string]int{
	"none":       0,
	"solid":      1,
	"mediumGray": 2,
	"darkGray":   3,
	"lightGray":  4,
	"gray125":    17,
	"gray0625":   18,
}

// styleCache maps a resolved style to an excelize style ID. Styles are keyed
// by their JSON form, so equal styles share one ID within a workbook.
type styleCache struct {
	file *excelize.File
	ids  map[string]int
}

func newStyleCache(f *excelize.File) *styleCache {
	return &styleCache{file: f, ids: make(map[string]int)}
}

// id returns the style ID for st. A nil style maps to 0, the workbook default,
// unless the cell holds a time, which needs a date format to be readable.
func (c *styleCache) id(st *style.Style, isTime bool) (int, error) {
	if st == nil && !isTime {
		return 0, nil
	}
	var s style.Style
	if st != nil {
		s = *st
	}

	key, err := json.Marshal(s)
	if err != nil {
		return 0, fmt.Errorf("style key: %w", err)
	}
	cacheKey := string(key)
	if isTime && s.NumFmt == "" {
		cacheKey = "time:" + cacheKey
	}
	if id, ok := c.ids[cacheKey]; ok {
		return id, nil
	}

	xs := toExcelize(s)
	if isTime && s.NumFmt == "" {
		xs.NumFmt = builtinDateTime
	}
	id, err := c.file.NewStyle(xs)
	if err != nil {
		return 0, fmt.Errorf("create style: %w", err)
	}
	c.ids[cacheKey] = id
	return id, nil
}

func toExcelize(s style.Style) *excelize.Style {
	xs := &excelize.Style{}

	if s.Font != nil {
		xs.Font = toFont(s.Font)
	}

	if s.Fill != nil {
		pattern, ok := fillPatterns[s.Fill.Pattern]
		if !ok {
			pattern = 1
		}
		colors := make([]string, 0, len(s.Fill.Colors))
		for _, c := range s.Fill.Colors {
			colors = append(colors, hex(c))
		}
		xs.Fill = excelize.Fill{
			Type:    "pattern",
			Pattern: pattern,
			Color:   colors,
		}
	}

	if a := s.Alignment; a != nil {
		xs.Alignment = &excelize.Alignment{
			Horizontal:   a.Horizontal,
			Vertical:     a.Vertical,
			WrapText:     style.IsTrue(a.WrapText),
			Indent:       a.Indent,
			TextRotation: a.TextRotation,
		}
	}

	if b := s.Border; b != nil {
		for _, edge := range []struct {
			typ string
			e   *style.BorderEdge
		}{
			{"left", b.Left},
			{"top", b.Top},
			{"bottom", b.Bottom},
			{"right", b.Right},
		} {
			if edge.e == nil {
				continue
			}
			color := hex(edge.e.Color)
			if color == "" {
				color = "000000"
			}
			xs.Border = append(xs.Border, excelize.Border{
				Type:  edge.typ,
				Color: color,
				Style: borderStyles[edge.e.Style],
			})
		}
	}

	if s.NumFmt != "" {
		numFmt := s.NumFmt
		xs.CustomNumFmt = &numFmt
	}

	if p := s.Protection; p != nil {
		xs.Protection = &excelize.Protection{
			Locked: p.Locked == nil || *p.Locked,
			Hidden: style.IsTrue(p.Hidden),
		}
	}

	return xs
}

func toFont(f *style.Font) *excelize.Font {
	return &excelize.Font{
		Family:    f.Name,
		Size:      f.Size,
		Bold:      style.IsTrue(f.Bold),
		Italic:    style.IsTrue(f.Italic),
		Strike:    style.IsTrue(f.Strike),
		Underline: f.Underline,
		Color:     hex(f.Color),
	}
}

func hex(color string) string {
	return strings.ToUpper(strings.TrimPrefix(color, "#"))
}
