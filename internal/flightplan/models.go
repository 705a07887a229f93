package flightplan

// FlightPlan is the parsed operational flight plan fetched from the planning
// provider
type FlightPlan struct {
	// Route
	Origin       string `json:"origin"`
	Destination  string `json:"destination"`
	Alternate    string `json:"alternate"`
	Route        string `json:"route"`
	FlightNumber string `json:"flight_number"`

	// Fuel
	FuelBlock   int    `json:"fuel_block"`
	FuelTakeoff int    `json:"fuel_takeoff"`
	FuelLanding int    `json:"fuel_landing"`
	FuelUnits   string `json:"fuel_units"`

	// Weights
	Payload     int    `json:"payload"`
	ZFW         int    `json:"zfw"`
	TOW         int    `json:"tow"`
	LDW         int    `json:"ldw"`
	WeightUnits string `json:"weight_units"`

	// Performance
	CruiseAltitude string `json:"cruise_altitude"`
	CostIndex      int    `json:"cost_index"`

	// Weather
	OriginMETAR string `json:"origin_metar"`
	DestMETAR   string `json:"dest_metar"`
	OriginQNH   int    `json:"origin_qnh"` // hPa
	DestQNH     int    `json:"dest_qnh"`   // hPa

	// Trim
	TrimPercent float64 `json:"trim_percent"`
}

// ofpResponse mirrors the provider's OFP JSON shape, limited to the sections
// this client reads
type ofpResponse struct {
	Fetch struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"fetch"`
	Origin struct {
		ICAOCode string `json:"icao_code"`
	} `json:"origin"`
	Destination struct {
		ICAOCode string `json:"icao_code"`
	} `json:"destination"`
	Alternate struct {
		ICAOCode string `json:"icao_code"`
	} `json:"alternate"`
	General struct {
		Route           string      `json:"route"`
		FlightNumber    string      `json:"flight_number"`
		InitialAltitude string      `json:"initial_altitude"`
		CostIndex       stringOrNum `json:"costindex"`
	} `json:"general"`
	Fuel struct {
		PlanRamp    stringOrNum `json:"plan_ramp"`
		PlanTakeoff stringOrNum `json:"plan_takeoff"`
		PlanLanding stringOrNum `json:"plan_landing"`
	} `json:"fuel"`
	Weights struct {
		Payload stringOrNum `json:"payload"`
		EstZFW  stringOrNum `json:"est_zfw"`
		EstTOW  stringOrNum `json:"est_tow"`
		EstLDW  stringOrNum `json:"est_ldw"`
		EstTrim stringOrNum `json:"est_trim"`
	} `json:"weights"`
	Params struct {
		Units string `json:"units"`
	} `json:"params"`
	Weather struct {
		OrigMETAR string `json:"orig_metar"`
		DestMETAR string `json:"dest_metar"`
	} `json:"weather"`
}
