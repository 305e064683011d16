package era

// claimStatusDescriptions maps CLP claim status codes to human-readable
// descriptions. Classification stays data-driven so new codes are additive.
var claimStatusDescriptions = map[string]string{
	"1":  "Processed as Primary",
	"2":  "Processed as Secondary",
	"3":  "Processed as Tertiary",
	"4":  "Denied",
	"19": "Processed as Primary, Forwarded to Additional Payer",
	"20": "Processed as Secondary, Forwarded to Additional Payer",
	"21": "Processed as Tertiary, Forwarded to Additional Payer",
	"22": "Reversal of Previous Payment",
	"23": "Not Our Claim, Forwarded to Additional Payer",
	"25": "Predetermination Pricing Only",
}

// StatusDescription resolves a payer claim status code to its description.
// Unknown codes resolve to "Unknown Status".
func StatusDescription(code string) string {
	if d, ok := claimStatusDescriptions[code]; ok {
		return d
	}
	return "Unknown Status"
}
