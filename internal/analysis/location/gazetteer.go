package location

import "sort"

// stateNames holds the usStates keys, longest first, so "west virginia" beats "virginia".
var stateNames = func() []string {
	names := make([]string, 0, len(usStates))
	for name := range usStates {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}()

var usStates = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR", "california": "CA",
	"colorado": "CO", "connecticut": "CT", "delaware": "DE", "florida": "FL", "georgia": "GA",
	"hawaii": "HI", "idaho": "ID", "illinois": "IL", "indiana": "IN", "iowa": "IA",
	"kansas": "KS", "kentucky": "KY", "louisiana": "LA", "maine": "ME", "maryland": "MD",
	"massachusetts": "MA", "michigan": "MI", "minnesota": "MN", "mississippi": "MS",
	"missouri": "MO", "montana": "MT", "nebraska": "NE", "nevada": "NV", "new hampshire": "NH",
	"new jersey": "NJ", "new mexico": "NM", "new york": "NY", "north carolina": "NC",
	"north dakota": "ND", "ohio": "OH", "oklahoma": "OK", "oregon": "OR", "pennsylvania": "PA",
	"rhode island": "RI", "south carolina": "SC", "south dakota": "SD", "tennessee": "TN",
	"texas": "TX", "utah": "UT", "vermont": "VT", "virginia": "VA", "washington": "WA",
	"west virginia": "WV", "wisconsin": "WI", "wyoming": "WY", "district of columbia": "DC",
}

type city struct {
	name  string
	state string
}

// Ordered so multi-word names win over their prefixes ("san antonio" before "san").
var usCities = []city{
	{"new york city", "NY"}, {"los angeles", "CA"}, {"san antonio", "TX"}, {"san diego", "CA"},
	{"san francisco", "CA"}, {"san jose", "CA"}, {"las vegas", "NV"}, {"fort worth", "TX"},
	{"oklahoma city", "OK"}, {"kansas city", "MO"}, {"salt lake city", "UT"},
	{"st. louis", "MO"}, {"saint louis", "MO"}, {"new orleans", "LA"}, {"el paso", "TX"},
	{"chicago", "IL"}, {"houston", "TX"}, {"phoenix", "AZ"}, {"philadelphia", "PA"},
	{"dallas", "TX"}, {"austin", "TX"}, {"jacksonville", "FL"}, {"columbus", "OH"},
	{"charlotte", "NC"}, {"indianapolis", "IN"}, {"seattle", "WA"}, {"denver", "CO"},
	{"boston", "MA"}, {"nashville", "TN"}, {"detroit", "MI"}, {"portland", "OR"},
	{"memphis", "TN"}, {"louisville", "KY"}, {"baltimore", "MD"}, {"milwaukee", "WI"},
	{"albuquerque", "NM"}, {"tucson", "AZ"}, {"fresno", "CA"}, {"sacramento", "CA"},
	{"atlanta", "GA"}, {"miami", "FL"}, {"raleigh", "NC"}, {"omaha", "NE"},
	{"minneapolis", "MN"}, {"tulsa", "OK"}, {"cleveland", "OH"}, {"tampa", "FL"},
	{"orlando", "FL"}, {"pittsburgh", "PA"}, {"cincinnati", "OH"}, {"honolulu", "HI"},
	{"anchorage", "AK"}, {"boise", "ID"}, {"richmond", "VA"}, {"spokane", "WA"},
	{"buffalo", "NY"}, {"newark", "NJ"}, {"oakland", "CA"}, {"brooklyn", "NY"},
}

var foreignCountries = []string{
	"canada", "mexico", "united kingdom", "uk", "england", "scotland", "ireland", "france",
	"germany", "spain", "italy", "portugal", "india", "china", "japan", "korea", "australia",
	"new zealand", "brazil", "argentina", "colombia", "peru", "chile", "philippines",
	"nigeria", "kenya", "south africa", "egypt", "pakistan", "bangladesh", "vietnam",
	"thailand", "indonesia", "russia", "ukraine", "poland", "netherlands", "sweden",
	"norway", "guatemala", "honduras", "el salvador",
}

var foreignCities = []string{
	"toronto", "vancouver", "montreal", "ottawa", "calgary", "mexico city", "guadalajara",
	"tijuana", "london", "manchester", "dublin", "paris", "berlin", "madrid", "rome",
	"sydney", "melbourne", "mumbai", "delhi", "tokyo", "manila", "lagos", "nairobi",
}
