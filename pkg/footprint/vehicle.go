package footprint

// VehicleType is the closed set of vehicle categories with a known
// emission factor. The zero value is VehicleOther.
type VehicleType int

const (
	VehicleOther VehicleType = iota
	VehicleCar
	VehicleMotorcycle
	VehicleScooter
	VehicleEBike
	VehicleBicycle
	VehicleThreeWheeler
)

// vehicleLabels holds the wire labels, indexed by VehicleType.
var vehicleLabels = [...]string{
	VehicleOther:        "Other",
	VehicleCar:          "Car",
	VehicleMotorcycle:   "Motorcycle",
	VehicleScooter:      "Scooter",
	VehicleEBike:        "E-Bike",
	VehicleBicycle:      "Bicycle",
	VehicleThreeWheeler: "Three-Wheeler",
}

// ParseVehicleType maps a wire label to a VehicleType. Labels are matched
// exactly; anything unrecognized is treated as VehicleOther.
func ParseVehicleType(label string) VehicleType {
	for vt, l := range vehicleLabels {
		if l == label {
			return VehicleType(vt)
		}
	}
	return VehicleOther
}

// String returns the wire label.
func (v VehicleType) String() string {
	if v < 0 || int(v) >= len(vehicleLabels) {
		return vehicleLabels[VehicleOther]
	}
	return vehicleLabels[v]
}

// EmissionFactor returns kg CO2 per km for the vehicle type.
func (v VehicleType) EmissionFactor() float64 {
	switch v {
	case VehicleCar:
		return 0.248
	case VehicleMotorcycle, VehicleScooter:
		return 0.114
	case VehicleEBike:
		return 0.077
	case VehicleBicycle:
		return 0.0
	case VehicleThreeWheeler:
		return 0.150
	default:
		return 0.248
	}
}

// EmissionFactor pairs a vehicle label with its factor.
type EmissionFactor struct {
	VehicleType string  `json:"vehicle_type"`
	KgPerKm     float64 `json:"kg_co2_per_km"`
}

// EmissionFactors lists the full table in declaration order, Other last.
func EmissionFactors() []EmissionFactor {
	factors := make([]EmissionFactor, 0, len(vehicleLabels))
	for vt := VehicleCar; int(vt) < len(vehicleLabels); vt++ {
		factors = append(factors, EmissionFactor{VehicleType: vt.String(), KgPerKm: vt.EmissionFactor()})
	}
	return append(factors, EmissionFactor{VehicleType: VehicleOther.String(), KgPerKm: VehicleOther.EmissionFactor()})
}
