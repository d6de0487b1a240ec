package booking

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	offeringIDCols          = []string{"ID", "Id", "Row ID", "id"}
	offeringNameCols        = []string{"Servicio", "Nombre", "name"}
	offeringPriceCols       = []string{"Precio", "Valor", "price"}
	offeringDurationCols    = []string{"Duración", "Duracion", "duration"}
	offeringDescriptionCols = []string{"Descripción", "Descripcion", "description"}
)

// Offering is one entry of the service catalog (haircut, beard trim, ...).
type Offering struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"durationMinutes"`
	Description     string  `json:"description,omitempty"`
}

// ListServices returns the catalog sorted by name. Rows without a name are
// dropped.
func (s *Service) ListServices(ctx context.Context) ([]Offering, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.list_services")
	defer span.End()

	rows, err := s.find(ctx, s.tables.Services, "")
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	out := make([]Offering, 0, len(rows))
	for _, row := range rows {
		o := Offering{
			ID:              row.String(offeringIDCols...),
			Name:            row.String(offeringNameCols...),
			Price:           parsePrice(row.String(offeringPriceCols...)),
			DurationMinutes: parseMinutes(row.String(offeringDurationCols...)),
			Description:     row.String(offeringDescriptionCols...),
		}
		if o.Name == "" {
			continue
		}
		if o.ID == "" {
			o.ID = o.Name
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Service) findOffering(ctx context.Context, id string) (Offering, bool) {
	offerings, err := s.ListServices(ctx)
	if err != nil {
		return Offering{}, false
	}
	for _, o := range offerings {
		if o.ID == id || strings.EqualFold(o.Name, id) {
			return o, true
		}
	}
	return Offering{}, false
}

// parsePrice reads "$ 12.500", "12500", "12500.50" or "12.500,50".
func parsePrice(raw string) float64 {
	cleaned := strings.NewReplacer("$", "", " ", "", "ARS", "").Replace(raw)
	if cleaned == "" {
		return 0
	}
	if strings.Contains(cleaned, ",") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else if strings.Count(cleaned, ".") == 1 && len(cleaned)-strings.Index(cleaned, ".") == 4 {
		// "12.500": dot as thousands separator.
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	} else if strings.Count(cleaned, ".") > 1 {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

var (
	clockDuration = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::\d{2})?$`)
	leadingNumber = regexp.MustCompile(`\d+`)
)

// parseMinutes reads "00:45:00", "1:30", "45 min" or "45".
func parseMinutes(raw string) int {
	raw = strings.TrimSpace(raw)
	if m := clockDuration.FindStringSubmatch(raw); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		return h*60 + mins
	}
	if n := leadingNumber.FindString(raw); n != "" {
		v, _ := strconv.Atoi(n)
		return v
	}
	return 0
}
