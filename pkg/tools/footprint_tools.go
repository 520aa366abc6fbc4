package tools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/greenlens/pkg/core"
	"github.com/NERVsystems/greenlens/pkg/footprint"
)

// Tool names
const (
	ToolCalculateElectricity = "calculate_electricity_footprint"
	ToolCalculateTravel      = "calculate_travel_footprint"
	ToolListEmissionFactors  = "list_emission_factors"
)

// CalculateElectricityTool describes the electricity calculation.
func CalculateElectricityTool() mcp.Tool {
	return mcp.NewTool(ToolCalculateElectricity,
		mcp.WithDescription("Calculate monthly CO2 from household electricity use and the tokens earned against the predicted household benchmark"),
		mcp.WithString("homeType",
			mcp.Required(),
			mcp.Description("Home type, e.g. Apartment, Independent House, Villa"),
		),
		mcp.WithNumber("carpetArea_sqft",
			mcp.Required(),
			mcp.Description("Carpet area in square feet (greater than 0)"),
		),
		mcp.WithNumber("monthly_unitsUsed_kwh",
			mcp.Required(),
			mcp.Description("Grid electricity used this month in kWh"),
		),
		mcp.WithNumber("monthly_solarUsed_kwh",
			mcp.Required(),
			mcp.Description("Solar electricity generated this month in kWh"),
		),
	)
}

// CalculateTravelTool describes the travel calculation.
func CalculateTravelTool() mcp.Tool {
	return mcp.NewTool(ToolCalculateTravel,
		mcp.WithDescription("Calculate CO2 for distance travelled and the tokens earned against the fixed 150 kg monthly travel benchmark"),
		mcp.WithString("vehicle_type",
			mcp.Required(),
			mcp.Description("One of Car, Motorcycle, Scooter, E-Bike, Bicycle, Three-Wheeler, Other. Unknown values count as Other"),
		),
		mcp.WithNumber("kmCovered",
			mcp.Required(),
			mcp.Description("Distance covered in km"),
		),
	)
}

// ListEmissionFactorsTool describes the emission factor listing.
func ListEmissionFactorsTool() mcp.Tool {
	return mcp.NewTool(ToolListEmissionFactors,
		mcp.WithDescription("List the per-km emission factor for every vehicle type"),
	)
}

// HandleCalculateElectricity runs the electricity calculation.
func (r *Registry) HandleCalculateElectricity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return r.calculate(ctx, req, r.engine.Electricity)
}

// HandleCalculateTravel runs the travel calculation.
func (r *Registry) HandleCalculateTravel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return r.calculate(ctx, req, r.engine.Travel)
}

func (r *Registry) calculate(ctx context.Context, req mcp.CallToolRequest, run func(context.Context, []byte) (footprint.Result, error)) (*mcp.CallToolResult, error) {
	body, err := argumentsJSON(req)
	if err != nil {
		return core.NewError(core.ErrValidation, "arguments could not be encoded").ToMCPResult(), nil
	}

	res, err := run(ctx, body)
	if err != nil {
		var apiErr *core.Error
		if errors.As(err, &apiErr) {
			return apiErr.ToMCPResult(), nil
		}
		return nil, err
	}
	return jsonResult(res)
}

// HandleListEmissionFactors returns the emission factor table.
func HandleListEmissionFactors(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{
		"emission_factors":           footprint.EmissionFactors(),
		"electricity_kg_co2_per_kwh": footprint.ElectricityFactorKgPerKWh,
		"travel_benchmark_kg":        footprint.AverageMonthlyTravelCO2Kg,
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
