package types

// RawBatch is the decoded upstream payload: "results" holds the recommendation
// groups, each carrying a "listings" list of loosely structured listing objects.
type RawBatch map[string]any

// Ratings is the opaque quality score object produced by the rating service.
type Ratings map[string]any

type Vehicle struct {
	BaseMsrp      *float64 `json:"baseMsrp"`
	BodyStyle     *string  `json:"bodyStyle"`
	Cylinders     *int     `json:"cylinders"`
	Doors         *int     `json:"doors"`
	Drivetrain    *string  `json:"drivetrain"`
	Engine        *string  `json:"engine"`
	ExteriorColor *string  `json:"exteriorColor"`
	Fuel          *string  `json:"fuel"`
	InteriorColor *string  `json:"interiorColor"`
	Make          *string  `json:"make"`
	Model         *string  `json:"model"`
	Seats         *int     `json:"seats"`
	Transmission  *string  `json:"transmission"`
	Trim          *string  `json:"trim"`
	Type          *string  `json:"type"`
	VIN           string   `json:"vin"`
	Year          *int     `json:"year"`
}

type RetailListing struct {
	CarfaxURL *string  `json:"carfaxUrl"`
	City      *string  `json:"city"`
	CPO       *bool    `json:"cpo"`
	Dealer    *string  `json:"dealer"`
	Miles     *float64 `json:"miles"`
	Price     *float64 `json:"price"`
	Images    *string  `json:"images"`
	State     *string  `json:"state"`
	Used      *bool    `json:"used"`
	Listing   *string  `json:"listing"`
	Zip       *string  `json:"zip"`
}

type History struct {
	AccidentCount *int             `json:"accidentCount"`
	Accidents     []map[string]any `json:"accidents"`
	OneOwner      *bool            `json:"oneOwner"`
	OwnerCount    *int             `json:"ownerCount"`
	PersonalUse   *bool            `json:"personalUse"`
	UsageType     *string          `json:"usageType"`
}

// VehicleRecord is the normalized, deduplicated form of one listing, keyed by VIN.
type VehicleRecord struct {
	History       *History           `json:"history,omitempty"`
	RetailListing RetailListing      `json:"retailListing"`
	Vehicle       Vehicle            `json:"vehicle"`
	Ratings       Ratings            `json:"ratings"`
	Insurance     *InsuranceEstimate `json:"insurance,omitempty"`
}

type InsuranceEstimate struct {
	AnnualEstimate  float64   `json:"annualEstimate"`
	MonthlyEstimate float64   `json:"monthlyEstimate"`
	Breakdown       Breakdown `json:"breakdown"`
	Factors         Factors   `json:"factors"`
}

type Breakdown struct {
	BaseCost            float64 `json:"baseCost"`
	LocationMultiplier  float64 `json:"locationMultiplier"`
	MakeMultiplier      float64 `json:"makeMultiplier"`
	BodyStyleMultiplier float64 `json:"bodyStyleMultiplier"`
	EngineMultiplier    float64 `json:"engineMultiplier"`
	AgeMultiplier       float64 `json:"ageMultiplier"`
	MileageMultiplier   float64 `json:"mileageMultiplier"`
	AccidentMultiplier  float64 `json:"accidentMultiplier"`
	OwnerMultiplier     float64 `json:"ownerMultiplier"`
	UsageMultiplier     float64 `json:"usageMultiplier"`
	FuelMultiplier      float64 `json:"fuelMultiplier"`
	TotalMultiplier     float64 `json:"totalMultiplier"`
}

// Factors records the inputs each multiplier was looked up with.
type Factors struct {
	State         *string `json:"state"`
	Make          *string `json:"make"`
	BodyStyle     string  `json:"bodyStyle"`
	Cylinders     *int    `json:"cylinders"`
	Age           int     `json:"age"`
	Miles         float64 `json:"miles"`
	AccidentCount int     `json:"accidentCount"`
	OwnerCount    int     `json:"ownerCount"`
	UsageType     string  `json:"usageType"`
	Fuel          string  `json:"fuel"`
}
