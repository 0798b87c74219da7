package opendata

// BaseURL is the Chicago open-data portal resource root.
const BaseURL = "https://data.cityofchicago.org/resource"

// Endpoints are the registered city feeds. Category and subcategory tags are
// assigned here, not taken from the source data, so the facet vocabulary
// stays fixed no matter what the portal returns.
func Endpoints() []*Adapter {
	return []*Adapter{
		{
			Key:              "workforce_centers",
			URL:              BaseURL + "/cs4s-nsna.json",
			Category:         "employment",
			Subcategory:      "workforce",
			Required:         []string{"site_name", "address", "location"},
			NameField:        "site_name",
			DescriptionLabel: "Workforce Center",
			Location:         LocationObject,
			HoursField:       "hours_of_operation",
			Website:          WebsiteField,
		},
		{
			Key:              "senior_centers",
			URL:              BaseURL + "/qhfc-4cw2.json",
			Category:         "senior",
			Subcategory:      "centers",
			Required:         []string{"site_name", "address", "location"},
			NameField:        "site_name",
			DescriptionField: "program",
			DescriptionLabel: "Senior Center",
			Location:         LocationObject,
			HoursField:       "hours_of_operation",
			Website:          WebsiteNone,
		},
		{
			Key:              "health_centers",
			URL:              BaseURL + "/mw69-m6xi.json",
			Category:         "healthcare",
			Subcategory:      "clinics",
			Required:         []string{"site_name", "address", "location"},
			NameField:        "site_name",
			DescriptionField: "services",
			DescriptionLabel: "Neighborhood Health Center",
			Location:         LocationObject,
			HoursField:       "hours_of_operation",
			Website:          WebsiteURLObject,
		},
		{
			Key:              "cdph_clinics",
			URL:              BaseURL + "/kcki-hnch.json",
			Category:         "healthcare",
			Subcategory:      "clinics",
			Required:         []string{"clinic_name", "address", "location"},
			NameField:        "clinic_name",
			DescriptionLabel: "CDPH Clinic",
			Location:         LocationObject,
			HoursField:       "hours_of_operation",
			Website:          WebsiteURLObject,
		},
		{
			Key:              "libraries",
			URL:              BaseURL + "/x8fc-8rcq.json",
			Category:         "education",
			Subcategory:      "libraries",
			Required:         []string{"branch_", "address", "location"},
			NameField:        "branch_",
			DescriptionLabel: "Public Library",
			Location:         LocationObject,
			HoursField:       "service_hours",
			Website:          WebsiteURLObject,
		},
		{
			Key:                    "warming_centers",
			URL:                    BaseURL + "/h243-v2q5.json",
			Category:               "shelter",
			Subcategory:            "warming",
			Required:               []string{"site_name", "address", "location"},
			NameField:              "site_name",
			DescriptionLabel:       "Warming Center",
			DescriptionPrefixField: "site_type",
			Location:               LocationPair,
			HoursField:             "hours_of_operation",
			Website:                WebsiteNone,
		},
		{
			Key:              "flu_shots",
			URL:              BaseURL + "/j8c5-wxd5.json",
			Category:         "healthcare",
			Subcategory:      "vaccines",
			Required:         []string{"facility_name", "street1", "location"},
			NameField:        "facility_name",
			DescriptionLabel: "Flu Shot Location",
			Location:         LocationPair,
			StreetField:      "street1",
			ZipField:         "postal_code",
			HoursRange:       true,
			Website:          WebsiteFromNotes,
		},
		{
			Key:              "grocery_stores",
			URL:              BaseURL + "/3e26-zek2.json",
			Category:         "food",
			Subcategory:      "grocery",
			Required:         []string{"store_name", "address", "location"},
			NameField:        "store_name",
			DescriptionLabel: "Grocery Store",
			Location:         LocationPair,
			FixedCity:        "Chicago",
			FixedState:       "IL",
			PhoneAbsent:      true,
			Website:          WebsiteNone,
		},
	}
}
