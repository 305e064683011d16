// Package era parses electronic remittance advice files into a structured
// header plus an ordered list of per-claim payment details.
package era

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/revcycle/rcm/internal/platform/errs"
)

// File is the parsed representation of one remittance file.
type File struct {
	Header Header
	Claims []ClaimDetail
}

// Header carries the payment-level fields of a remittance.
type Header struct {
	RemittanceNumber string
	PayerID          string
	PayerName        string
	CheckNumber      string
	CheckDate        *time.Time
	CheckAmount      decimal.Decimal
}

// ClaimDetail is one adjudicated claim reported by the payer.
type ClaimDetail struct {
	ClaimNumber           string
	StatusCode            string
	StatusDescription     string
	ChargeAmount          decimal.Decimal
	PaidAmount            decimal.Decimal
	PatientResponsibility decimal.Decimal
	PatientName           string
	ServiceDateFrom       *time.Time
	ServiceDateTo         *time.Time
}

// Parse parses raw remittance text into a File. It is a pure function: no
// state survives between invocations. Records are newline-separated, each a
// tag followed by *-delimited fields. Unknown tags are skipped. A
// structurally malformed record fails the whole parse; Parse never returns a
// partial claim list.
func Parse(raw string) (*File, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, fmt.Errorf("era: empty remittance content: %w", errs.ErrParse)
	}

	// Normalize line endings: \r\n and \r both become \n
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	f := &File{}

	// Single mutable accumulator for the claim currently being assembled.
	// Flushed into f.Claims on every CLP and at end of input.
	var cur *ClaimDetail
	flush := func() {
		if cur != nil {
			f.Claims = append(f.Claims, *cur)
			cur = nil
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Split(line, "*")
		tag := strings.ToUpper(fields[0])

		switch tag {
		case "BPR":
			amt, err := parseAmount(field(fields, 2))
			if err != nil {
				return nil, fmt.Errorf("era: malformed BPR check amount %q: %w", field(fields, 2), errs.ErrParse)
			}
			f.Header.CheckAmount = amt
			f.Header.CheckDate = parseDate(field(fields, 16))

		case "TRN":
			f.Header.RemittanceNumber = field(fields, 2)
			f.Header.CheckNumber = field(fields, 2)
			f.Header.PayerID = field(fields, 3)

		case "N1":
			if field(fields, 1) == "PR" {
				f.Header.PayerName = field(fields, 2)
			}

		case "CLP":
			flush()
			if len(fields) < 6 {
				return nil, fmt.Errorf("era: CLP segment has %d fields, want at least 5: %w", len(fields)-1, errs.ErrParse)
			}
			charge, err := parseAmount(field(fields, 3))
			if err != nil {
				return nil, fmt.Errorf("era: malformed CLP charge amount %q: %w", field(fields, 3), errs.ErrParse)
			}
			paid, err := parseAmount(field(fields, 4))
			if err != nil {
				return nil, fmt.Errorf("era: malformed CLP paid amount %q: %w", field(fields, 4), errs.ErrParse)
			}
			respons, err := parseAmount(field(fields, 5))
			if err != nil {
				return nil, fmt.Errorf("era: malformed CLP patient responsibility %q: %w", field(fields, 5), errs.ErrParse)
			}
			code := field(fields, 2)
			cur = &ClaimDetail{
				ClaimNumber:           field(fields, 1),
				StatusCode:            code,
				StatusDescription:     StatusDescription(code),
				ChargeAmount:          charge,
				PaidAmount:            paid,
				PatientResponsibility: respons,
			}

		case "NM1":
			if cur != nil && field(fields, 1) == "QC" {
				cur.PatientName = strings.TrimSpace(field(fields, 3) + " " + field(fields, 4))
			}

		case "DTM":
			if cur == nil {
				continue
			}
			switch field(fields, 1) {
			case "232":
				cur.ServiceDateFrom = parseDate(field(fields, 2))
			case "233":
				cur.ServiceDateTo = parseDate(field(fields, 2))
			}
		}
	}

	flush()
	return f, nil
}

// field returns a segment field by 1-based index; fields[0] is the tag.
func field(fields []string, index int) string {
	if index < 1 || index >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[index])
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// parseDate parses an 8-digit YYYYMMDD token. Anything else yields nil,
// never an error.
func parseDate(s string) *time.Time {
	if len(s) != 8 {
		return nil
	}
	t, err := time.Parse("20060102", s)
	if err != nil {
		return nil
	}
	return &t
}
