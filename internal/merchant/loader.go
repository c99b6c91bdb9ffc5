package merchant

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Directory file columns.
const (
	ColRepresentative = "LEGAJO_ASESOR_NUM"
	ColName           = "MERCHANT_NAME"
	ColTaxID          = "DOCUMENTO_FISCAL_NUM"
	ColPhone          = "TELEFONO_CARACTERISTICA_TXT"
	ColAddress        = "DOMICILIO_FORMATEADO_TXT"
	ColCategory       = "RUBRO_MERCHANT_DESC"
	ColLatitude       = "LATITUD"
	ColLongitude      = "LONGITUD"
)

var requiredColumns = []string{ColRepresentative, ColName}

// Load reads the directory file at path.
func Load(path string) ([]*Merchant, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening merchant directory: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	merchants, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return merchants, nil
}

// Parse reads a header-led CSV of merchants. Columns are located by name,
// so extra columns and any column order are accepted.
func Parse(r io.Reader) ([]*Merchant, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing required column %s", col)
		}
	}

	field := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var merchants []*Merchant
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}

		name := field(rec, ColName)
		if name == "" {
			continue
		}

		merchants = append(merchants, &Merchant{
			TaxID:            normalizeTaxID(field(rec, ColTaxID)),
			Name:             name,
			RepresentativeID: NormalizeRepresentativeID(field(rec, ColRepresentative)),
			Category:         field(rec, ColCategory),
			Address:          field(rec, ColAddress),
			Phone:            field(rec, ColPhone),
			Latitude:         parseCoordinate(field(rec, ColLatitude)),
			Longitude:        parseCoordinate(field(rec, ColLongitude)),
		})
	}

	return merchants, nil
}
