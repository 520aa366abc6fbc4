package engine

import "github.com/NERVsystems/greenlens/pkg/footprint"

// ElectricityRequest is the wire form of footprint.ElectricityUsage.
type ElectricityRequest struct {
	HomeType        *string  `json:"homeType"`
	CarpetAreaSqft  *float64 `json:"carpetArea_sqft"`
	MonthlyUnitsKWh *float64 `json:"monthly_unitsUsed_kwh"`
	MonthlySolarKWh *float64 `json:"monthly_solarUsed_kwh"`
}

var electricityFields = []string{"homeType", "carpetArea_sqft", "monthly_unitsUsed_kwh", "monthly_solarUsed_kwh"}

// Usage converts a decoded request. All fields must be set.
func (r ElectricityRequest) Usage() footprint.ElectricityUsage {
	return footprint.ElectricityUsage{
		HomeType:        *r.HomeType,
		CarpetAreaSqft:  *r.CarpetAreaSqft,
		MonthlyUnitsKWh: *r.MonthlyUnitsKWh,
		MonthlySolarKWh: *r.MonthlySolarKWh,
	}
}

// TravelRequest is the wire form of footprint.Trip.
type TravelRequest struct {
	VehicleType *string  `json:"vehicle_type"`
	KmCovered   *float64 `json:"kmCovered"`
}

var travelFields = []string{"vehicle_type", "kmCovered"}

// Trip converts a decoded request. All fields must be set.
func (r TravelRequest) Trip() footprint.Trip {
	return footprint.Trip{
		Vehicle:   footprint.ParseVehicleType(*r.VehicleType),
		KmCovered: *r.KmCovered,
	}
}
