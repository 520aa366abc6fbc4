// Package footprint computes CO2 footprints for household electricity use and
// personal travel, and converts savings against a benchmark into reward tokens.
package footprint

const (
	// ElectricityFactorKgPerKWh is the grid emission factor in kg CO2 per kWh.
	ElectricityFactorKgPerKWh = 0.384

	// AverageMonthlyTravelCO2Kg is the fixed travel benchmark in kg CO2.
	AverageMonthlyTravelCO2Kg = 150.0

	// BaseTokenReward is awarded whenever a footprint is below its benchmark.
	BaseTokenReward = 10

	// BonusTokensPerKg is one bonus token per 10 kg of CO2 saved.
	BonusTokensPerKg = 0.1

	// StatusSuccess is the status reported on every computed result.
	StatusSuccess = "success"
)
