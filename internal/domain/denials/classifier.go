package denials

import "time"

// Deadlines applied to every new denial, counted from the denial date.
const (
	AppealWindow   = 90 * 24 * time.Hour
	FollowUpWindow = 14 * 24 * time.Hour
)

// denialCodes are the payer claim status codes that mean a claim was denied
// or bounced rather than paid.
var denialCodes = map[string]bool{
	"4":  true, // denied
	"23": true, // not our claim, forwarded to additional payer
}

// IsDenialCode reports whether a payer claim status code should open a
// denial record.
func IsDenialCode(code string) bool { return denialCodes[code] }

// categoryTables are checked in order; the first table containing the code
// wins. A code listed in more than one table resolves to the earlier entry.
var categoryTables = []struct {
	category Category
	codes    map[string]bool
}{
	{CategoryTechnical, map[string]bool{
		"16": true, "125": true, "226": true, "31": true,
	}},
	{CategoryClinical, map[string]bool{
		"50": true, "55": true, "56": true, "167": true,
	}},
	{CategoryAuthorization, map[string]bool{
		"15": true, "197": true, "198": true,
	}},
	{CategoryEligibility, map[string]bool{
		"26": true, "27": true, "32": true, "33": true, "177": true,
	}},
	{CategoryDuplicate, map[string]bool{
		"18": true,
	}},
}

var urgentCodes = map[string]bool{"50": true, "197": true, "198": true}
var highCodes = map[string]bool{"16": true, "27": true, "29": true}

type Classification struct {
	Category       Category
	Priority       Priority
	AppealDeadline time.Time
	FollowUpDate   time.Time
}

// Classify derives a denial's category, priority and working deadlines from
// the payer reason code and the date the denial landed.
func Classify(code string, denialDate time.Time) Classification {
	c := Classification{
		Category:       CategoryOther,
		Priority:       PriorityMedium,
		AppealDeadline: denialDate.Add(AppealWindow),
		FollowUpDate:   denialDate.Add(FollowUpWindow),
	}
	for _, table := range categoryTables {
		if table.codes[code] {
			c.Category = table.category
			break
		}
	}
	switch {
	case urgentCodes[code]:
		c.Priority = PriorityUrgent
	case highCodes[code]:
		c.Priority = PriorityHigh
	}
	return c
}
