package model

// GeoLocation is the cached result of an external geo-IP lookup.
type GeoLocation struct {
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Region      string  `json:"region"`
	RegionName  string  `json:"regionName"`
	City        string  `json:"city"`
	Zip         string  `json:"zip"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Timezone    string  `json:"timezone"`
	ISP         string  `json:"isp"`
	Org         string  `json:"org"`
	AS          string  `json:"as"`
	Query       string  `json:"query"`
}

// LocalGeoLocation is the sentinel returned for private and loopback
// addresses without any network call.
func LocalGeoLocation() *GeoLocation {
	return &GeoLocation{
		Country:     "Local",
		CountryCode: "XX",
		City:        "Localhost",
	}
}
