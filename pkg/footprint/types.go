package footprint

import "fmt"

// ElectricityUsage is one month of household electricity activity.
// Solar generation may exceed usage; the surplus is clamped at calculation time.
type ElectricityUsage struct {
	HomeType        string
	CarpetAreaSqft  float64
	MonthlyUnitsKWh float64
	MonthlySolarKWh float64
}

// Trip is distance covered with a single vehicle type.
type Trip struct {
	Vehicle   VehicleType
	KmCovered float64
}

// Result is the outcome of one footprint calculation.
type Result struct {
	Status             string  `json:"status"`
	UserCO2FootprintKg float64 `json:"user_co2_footprint_kg"`
	TokensAwarded      int     `json:"tokens_awarded"`
}

// RangeError reports an input outside its allowed range.
type RangeError struct {
	Field string
	Bound string // "greater_than" or "greater_than_equal"
	Limit float64
	Value float64
}

func (e *RangeError) Error() string {
	op := ">="
	if e.Bound == "greater_than" {
		op = ">"
	}
	return fmt.Sprintf("%s must be %s %g, got %g", e.Field, op, e.Limit, e.Value)
}

// Validate checks the sign constraints on electricity inputs.
func (u ElectricityUsage) Validate() error {
	if u.CarpetAreaSqft <= 0 {
		return &RangeError{Field: "carpetArea_sqft", Bound: "greater_than", Limit: 0, Value: u.CarpetAreaSqft}
	}
	if u.MonthlyUnitsKWh < 0 {
		return &RangeError{Field: "monthly_unitsUsed_kwh", Bound: "greater_than_equal", Limit: 0, Value: u.MonthlyUnitsKWh}
	}
	if u.MonthlySolarKWh < 0 {
		return &RangeError{Field: "monthly_solarUsed_kwh", Bound: "greater_than_equal", Limit: 0, Value: u.MonthlySolarKWh}
	}
	return nil
}

// Validate checks the sign constraint on trip distance.
func (t Trip) Validate() error {
	if t.KmCovered < 0 {
		return &RangeError{Field: "kmCovered", Bound: "greater_than_equal", Limit: 0, Value: t.KmCovered}
	}
	return nil
}

// ActualCO2 is net grid consumption times the electricity factor, never negative.
func (u ElectricityUsage) ActualCO2() float64 {
	net := u.MonthlyUnitsKWh - u.MonthlySolarKWh
	return max(0, net*ElectricityFactorKgPerKWh)
}

// ActualCO2 is distance times the vehicle's emission factor.
func (t Trip) ActualCO2() float64 {
	return t.KmCovered * t.Vehicle.EmissionFactor()
}
