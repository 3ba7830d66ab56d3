package ingest

import (
	"math"

	"studio/sheets"
)

// Building info sheet columns. The sheet has 96 columns; the constants below
// name every one of them in sheet order.
const (
	// identity
	bColSrNo = iota
	bColPlotNo
	bColBuildingName
	bColProject
	bColLocation
	bColTypology
	bColStage
	bColStatus

	// plot
	bColPlotArea
	bColFARPermissible
	bColFARAchieved
	bColGroundCoverage

	// GFA
	bColGFAResidential
	bColGFARetail
	bColGFAOffice
	bColGFAAmenity
	bColGFAService
	bColGFATotal

	// sellable
	bColSellableResidential
	bColSellableRetail
	bColSellableOffice
	bColSellableTotal
	bColEfficiency
	bColLoading

	// carpet
	bColCarpetResidential
	bColCarpetRetail
	bColCarpetOffice
	bColCarpetTotal

	// unit mix
	bColStudioCount
	bColStudioArea
	bColOneBHKCount
	bColOneBHKArea
	bColTwoBHKCount
	bColTwoBHKArea
	bColThreeBHKCount
	bColThreeBHKArea
	bColFourBHKCount
	bColFourBHKArea
	bColPenthouseCount
	bColPenthouseArea

	// unit totals
	bColTotalUnits
	bColRetailUnits
	bColOfficeUnits

	// floors
	bColBasements
	bColPodiums
	bColTypicalFloors
	bColTotalFloors
	bColFloorToFloor

	// height and lifts
	bColHeight
	bColPassengerLifts
	bColServiceLifts
	bColFireLifts
	bColTotalLifts
	bColUnitsPerLift

	// parking
	bColParkingRequired
	bColParkingProvided
	bColParkingBasement
	bColParkingPodium
	bColParkingSurface
	bColTwoWheeler
	bColEVChargers
	bColParkingRatio

	// facade
	bColFacadeArea
	bColGlazingArea
	bColWWR
	bColCladdingArea
	bColFacadeType

	// MEP loads
	bColElectricalLoad
	bColTransformer
	bColDGCapacity
	bColCoolingLoad
	bColWaterDemand
	bColSewage
	bColSTPCapacity
	bColFireTank
	bColDomesticTank
	bColSolar

	// open space
	bColOpenSpace
	bColGreenArea
	bColHardscape
	bColSoftscape

	// BUA
	bColBUABasement
	bColBUAPodium
	bColBUATower
	bColBUAServices
	bColBUATotal
	bColBUAGFARatio

	// cost
	bColCostPerSqFt
	bColConstructionCost
	bColRevenue
	bColSaleRate
	bColCostPerBUA

	// meta
	bColApproval
	bColCompletionYear
	bColLastUpdated
	bColRemarks

	// BuildingColumns is the number of columns the mapping covers.
	BuildingColumns
)

// BuildingHeader holds the labels of the key columns of each group.
var BuildingHeader = map[int]string{
	bColSrNo:                "Sr. No",
	bColPlotNo:              "Plot No",
	bColBuildingName:        "Building Name",
	bColPlotArea:            "Plot Area",
	bColGFATotal:            "Total GFA",
	bColSellableTotal:       "Total Sellable",
	bColCarpetTotal:         "Total Carpet",
	bColStudioCount:         "Studio Units",
	bColTotalUnits:          "Total Units",
	bColBasements:           "Basements",
	bColHeight:              "Building Height",
	bColParkingRequired:     "Car Parks Required",
	bColFacadeArea:          "Facade Area",
	bColElectricalLoad:      "Electrical Load (kW)",
	bColOpenSpace:           "Open Space",
	bColBUATotal:            "Total BUA",
	bColCostPerSqFt:         "Cost per sq ft",
	bColApproval:            "Approval Status",
	bColRemarks:             "Remarks",
	bColSellableResidential: "Residential Sellable",
}

// BuildingIdentity names and classifies a building.
type BuildingIdentity struct {
	SrNo     string `json:"sr_no"`
	PlotNo   string `json:"plot_no"`
	Name     string `json:"name"`
	Project  string `json:"project"`
	Location string `json:"location"`
	Typology string `json:"typology"`
	Stage    string `json:"stage"`
	Status   string `json:"status"`
}

// PlotInfo describes the land parcel.
type PlotInfo struct {
	Area           float64  `json:"area"`
	FARPermissible float64  `json:"far_permissible"`
	FARAchieved    *float64 `json:"far_achieved"`
	GroundCoverage float64  `json:"ground_coverage_percent"`
}

// AreaByUse splits an area metric by use.
type AreaByUse struct {
	Residential float64 `json:"residential"`
	Retail      float64 `json:"retail"`
	Office      float64 `json:"office"`
	Total       float64 `json:"total"`
}

// GFAInfo is the gross floor area breakdown.
type GFAInfo struct {
	AreaByUse
	Amenity float64 `json:"amenity"`
	Service float64 `json:"service"`
}

// SellableInfo is the sellable area breakdown.
type SellableInfo struct {
	AreaByUse
	EfficiencyPercent float64 `json:"efficiency_percent"`
	LoadingPercent    float64 `json:"loading_percent"`
}

// UnitType is a count and average area for one unit type.
type UnitType struct {
	Count   int     `json:"count"`
	AvgArea float64 `json:"avg_area"`
}

// UnitMix is the residential unit mix.
type UnitMix struct {
	Studio    UnitType `json:"studio"`
	OneBHK    UnitType `json:"one_bhk"`
	TwoBHK    UnitType `json:"two_bhk"`
	ThreeBHK  UnitType `json:"three_bhk"`
	FourBHK   UnitType `json:"four_bhk"`
	Penthouse UnitType `json:"penthouse"`
}

// UnitTotals counts units by use.
type UnitTotals struct {
	Total  int `json:"total"`
	Retail int `json:"retail"`
	Office int `json:"office"`
}

// FloorInfo describes the vertical stack.
type FloorInfo struct {
	Basements     int      `json:"basements"`
	Podiums       int      `json:"podiums"`
	Typical       int      `json:"typical"`
	Total         int      `json:"total"`
	FloorToFloorM *float64 `json:"floor_to_floor_m"`
}

// LiftInfo describes building height and vertical transport.
type LiftInfo struct {
	HeightM      float64  `json:"height_m"`
	Passenger    int      `json:"passenger"`
	Service      int      `json:"service"`
	Fire         int      `json:"fire"`
	Total        int      `json:"total"`
	UnitsPerLift *float64 `json:"units_per_lift"`
}

// ParkingInfo describes car and two-wheeler parking.
type ParkingInfo struct {
	Required   int      `json:"required"`
	Provided   int      `json:"provided"`
	Basement   int      `json:"basement"`
	Podium     int      `json:"podium"`
	Surface    int      `json:"surface"`
	TwoWheeler int      `json:"two_wheeler"`
	EVChargers int      `json:"ev_chargers"`
	Ratio      *float64 `json:"ratio"`
}

// FacadeInfo describes the envelope.
type FacadeInfo struct {
	Area         float64  `json:"area"`
	GlazingArea  float64  `json:"glazing_area"`
	WWRPercent   *float64 `json:"wwr_percent"`
	CladdingArea float64  `json:"cladding_area"`
	Type         string   `json:"type"`
}

// MEPLoads are the services design loads.
type MEPLoads struct {
	ElectricalKW   float64 `json:"electrical_kw"`
	TransformerKVA float64 `json:"transformer_kva"`
	DGKVA          float64 `json:"dg_kva"`
	CoolingTR      float64 `json:"cooling_tr"`
	WaterKLD       float64 `json:"water_kld"`
	SewageKLD      float64 `json:"sewage_kld"`
	STPKLD         float64 `json:"stp_kld"`
	FireTankKL     float64 `json:"fire_tank_kl"`
	DomesticTankKL float64 `json:"domestic_tank_kl"`
	SolarKWp       float64 `json:"solar_kwp"`
}

// OpenSpaceInfo describes landscape areas.
type OpenSpaceInfo struct {
	Open             float64 `json:"open"`
	Green            float64 `json:"green"`
	Hardscape        float64 `json:"hardscape"`
	SoftscapePercent float64 `json:"softscape_percent"`
}

// BUAInfo is the built-up area breakdown.
type BUAInfo struct {
	Basement float64  `json:"basement"`
	Podium   float64  `json:"podium"`
	Tower    float64  `json:"tower"`
	Services float64  `json:"services"`
	Total    float64  `json:"total"`
	GFARatio *float64 `json:"gfa_ratio"`
}

// CostInfo holds cost and revenue figures.
type CostInfo struct {
	PerSqFt         float64 `json:"per_sqft"`
	Construction    float64 `json:"construction"`
	Revenue         float64 `json:"revenue"`
	SaleRatePerSqFt float64 `json:"sale_rate_per_sqft"`
	PerBUA          float64 `json:"per_bua"`
}

// BuildingMeta carries approval and bookkeeping fields.
type BuildingMeta struct {
	Approval       string   `json:"approval"`
	CompletionYear *float64 `json:"completion_year"`
	LastUpdated    string   `json:"last_updated"`
	Remarks        string   `json:"remarks"`
}

// BuildingRatios are computed from the parsed fields. A ratio is nil when
// its denominator is zero.
type BuildingRatios struct {
	Efficiency       *float64 `json:"efficiency"`
	CarpetToSellable *float64 `json:"carpet_to_sellable"`
	BUAToGFA         *float64 `json:"bua_to_gfa"`
	UnitsPerLift     *float64 `json:"units_per_lift"`
	ParkingPerUnit   *float64 `json:"parking_per_unit"`
	WWR              *float64 `json:"wwr"`
	CostPerSellable  *float64 `json:"cost_per_sellable"`
}

// Building is one row of the building info sheet.
type Building struct {
	Identity  BuildingIdentity `json:"identity"`
	Plot      PlotInfo         `json:"plot"`
	GFA       GFAInfo          `json:"gfa"`
	Sellable  SellableInfo     `json:"sellable"`
	Carpet    AreaByUse        `json:"carpet"`
	UnitMix   UnitMix          `json:"unit_mix"`
	Units     UnitTotals       `json:"units"`
	Floors    FloorInfo        `json:"floors"`
	Lifts     LiftInfo         `json:"lifts"`
	Parking   ParkingInfo      `json:"parking"`
	Facade    FacadeInfo       `json:"facade"`
	MEP       MEPLoads         `json:"mep"`
	OpenSpace OpenSpaceInfo    `json:"open_space"`
	BUA       BUAInfo          `json:"bua"`
	Cost      CostInfo         `json:"cost"`
	Meta      BuildingMeta     `json:"meta"`
	Ratios    BuildingRatios   `json:"ratios"`
}

// BuildingSummary aggregates the sheet.
type BuildingSummary struct {
	Count             int            `json:"count"`
	TotalGFA          float64        `json:"total_gfa"`
	TotalSellable     float64        `json:"total_sellable"`
	TotalBUA          float64        `json:"total_bua"`
	TotalUnits        int            `json:"total_units"`
	TotalCarParks     int            `json:"total_car_parks"`
	TotalElectricalKW float64        `json:"total_electrical_kw"`
	TotalCoolingTR    float64        `json:"total_cooling_tr"`
	AverageEfficiency float64        `json:"average_efficiency"`
	ByTypology        map[string]int `json:"by_typology"`
	ByStatus          map[string]int `json:"by_status"`
}

// ParseBuildings parses the building info sheet. Rows without a plot number
// are dropped.
func ParseBuildings(text string) []Building {
	rows := sheets.Rows(text)
	buildings := make([]Building, 0, len(rows))
	for _, row := range rows {
		if sheets.Cell(row, bColPlotNo) == "" {
			continue
		}
		buildings = append(buildings, parseBuilding(row))
	}
	return buildings
}

func parseBuilding(row []string) Building {
	str := func(i int) string { return sheets.Cell(row, i) }
	num := func(i int) float64 { return sheets.Number(sheets.Cell(row, i)) }
	nullable := func(i int) *float64 { return sheets.NullableNumber(sheets.Cell(row, i)) }
	count := func(i int) int { return sheets.Int(sheets.Cell(row, i)) }
	unit := func(countCol, areaCol int) UnitType {
		return UnitType{Count: count(countCol), AvgArea: num(areaCol)}
	}

	b := Building{
		Identity: BuildingIdentity{
			SrNo:     str(bColSrNo),
			PlotNo:   str(bColPlotNo),
			Name:     sheets.FirstNonEmpty(str(bColBuildingName), str(bColProject), str(bColPlotNo)),
			Project:  str(bColProject),
			Location: str(bColLocation),
			Typology: str(bColTypology),
			Stage:    str(bColStage),
			Status:   str(bColStatus),
		},
		Plot: PlotInfo{
			Area:           num(bColPlotArea),
			FARPermissible: num(bColFARPermissible),
			FARAchieved:    nullable(bColFARAchieved),
			GroundCoverage: num(bColGroundCoverage),
		},
		GFA: GFAInfo{
			AreaByUse: AreaByUse{
				Residential: num(bColGFAResidential),
				Retail:      num(bColGFARetail),
				Office:      num(bColGFAOffice),
				Total:       num(bColGFATotal),
			},
			Amenity: num(bColGFAAmenity),
			Service: num(bColGFAService),
		},
		Sellable: SellableInfo{
			AreaByUse: AreaByUse{
				Residential: num(bColSellableResidential),
				Retail:      num(bColSellableRetail),
				Office:      num(bColSellableOffice),
				Total:       num(bColSellableTotal),
			},
			EfficiencyPercent: num(bColEfficiency),
			LoadingPercent:    num(bColLoading),
		},
		Carpet: AreaByUse{
			Residential: num(bColCarpetResidential),
			Retail:      num(bColCarpetRetail),
			Office:      num(bColCarpetOffice),
			Total:       num(bColCarpetTotal),
		},
		UnitMix: UnitMix{
			Studio:    unit(bColStudioCount, bColStudioArea),
			OneBHK:    unit(bColOneBHKCount, bColOneBHKArea),
			TwoBHK:    unit(bColTwoBHKCount, bColTwoBHKArea),
			ThreeBHK:  unit(bColThreeBHKCount, bColThreeBHKArea),
			FourBHK:   unit(bColFourBHKCount, bColFourBHKArea),
			Penthouse: unit(bColPenthouseCount, bColPenthouseArea),
		},
		Units: UnitTotals{
			Total:  count(bColTotalUnits),
			Retail: count(bColRetailUnits),
			Office: count(bColOfficeUnits),
		},
		Floors: FloorInfo{
			Basements:     count(bColBasements),
			Podiums:       count(bColPodiums),
			Typical:       count(bColTypicalFloors),
			Total:         count(bColTotalFloors),
			FloorToFloorM: nullable(bColFloorToFloor),
		},
		Lifts: LiftInfo{
			HeightM:      num(bColHeight),
			Passenger:    count(bColPassengerLifts),
			Service:      count(bColServiceLifts),
			Fire:         count(bColFireLifts),
			Total:        count(bColTotalLifts),
			UnitsPerLift: nullable(bColUnitsPerLift),
		},
		Parking: ParkingInfo{
			Required:   count(bColParkingRequired),
			Provided:   count(bColParkingProvided),
			Basement:   count(bColParkingBasement),
			Podium:     count(bColParkingPodium),
			Surface:    count(bColParkingSurface),
			TwoWheeler: count(bColTwoWheeler),
			EVChargers: count(bColEVChargers),
			Ratio:      nullable(bColParkingRatio),
		},
		Facade: FacadeInfo{
			Area:         num(bColFacadeArea),
			GlazingArea:  num(bColGlazingArea),
			WWRPercent:   nullable(bColWWR),
			CladdingArea: num(bColCladdingArea),
			Type:         str(bColFacadeType),
		},
		MEP: MEPLoads{
			ElectricalKW:   num(bColElectricalLoad),
			TransformerKVA: num(bColTransformer),
			DGKVA:          num(bColDGCapacity),
			CoolingTR:      num(bColCoolingLoad),
			WaterKLD:       num(bColWaterDemand),
			SewageKLD:      num(bColSewage),
			STPKLD:         num(bColSTPCapacity),
			FireTankKL:     num(bColFireTank),
			DomesticTankKL: num(bColDomesticTank),
			SolarKWp:       num(bColSolar),
		},
		OpenSpace: OpenSpaceInfo{
			Open:             num(bColOpenSpace),
			Green:            num(bColGreenArea),
			Hardscape:        num(bColHardscape),
			SoftscapePercent: num(bColSoftscape),
		},
		BUA: BUAInfo{
			Basement: num(bColBUABasement),
			Podium:   num(bColBUAPodium),
			Tower:    num(bColBUATower),
			Services: num(bColBUAServices),
			Total:    num(bColBUATotal),
			GFARatio: nullable(bColBUAGFARatio),
		},
		Cost: CostInfo{
			PerSqFt:         num(bColCostPerSqFt),
			Construction:    num(bColConstructionCost),
			Revenue:         num(bColRevenue),
			SaleRatePerSqFt: num(bColSaleRate),
			PerBUA:          num(bColCostPerBUA),
		},
		Meta: BuildingMeta{
			Approval:       str(bColApproval),
			CompletionYear: nullable(bColCompletionYear),
			LastUpdated:    str(bColLastUpdated),
			Remarks:        str(bColRemarks),
		},
	}

	if b.Lifts.Total == 0 {
		b.Lifts.Total = b.Lifts.Passenger + b.Lifts.Service + b.Lifts.Fire
	}
	b.Ratios = buildingRatios(b)
	return b
}

func buildingRatios(b Building) BuildingRatios {
	return BuildingRatios{
		Efficiency:       ratio(b.Sellable.Total, b.GFA.Total),
		CarpetToSellable: ratio(b.Carpet.Total, b.Sellable.Total),
		BUAToGFA:         ratio(b.BUA.Total, b.GFA.Total),
		UnitsPerLift:     ratio(float64(b.Units.Total), float64(b.Lifts.Total)),
		ParkingPerUnit:   ratio(float64(b.Parking.Provided), float64(b.Units.Total)),
		WWR:              ratio(b.Facade.GlazingArea, b.Facade.Area),
		CostPerSellable:  ratio(b.Cost.Construction, b.Sellable.Total),
	}
}

func ratio(num, den float64) *float64 {
	if den == 0 {
		return nil
	}
	v := round4(num / den)
	return &v
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// SummarizeBuildings aggregates buildings in one pass. Average efficiency is
// taken over buildings with a computable efficiency.
func SummarizeBuildings(buildings []Building) BuildingSummary {
	s := BuildingSummary{
		ByTypology: map[string]int{},
		ByStatus:   map[string]int{},
	}

	var effTotal float64
	var effCount int
	for _, b := range buildings {
		s.Count++
		s.TotalGFA += b.GFA.Total
		s.TotalSellable += b.Sellable.Total
		s.TotalBUA += b.BUA.Total
		s.TotalUnits += b.Units.Total
		s.TotalCarParks += b.Parking.Provided
		s.TotalElectricalKW += b.MEP.ElectricalKW
		s.TotalCoolingTR += b.MEP.CoolingTR
		if b.Ratios.Efficiency != nil {
			effTotal += *b.Ratios.Efficiency
			effCount++
		}
		s.ByTypology[orUnknown(b.Identity.Typology)]++
		s.ByStatus[orUnknown(b.Identity.Status)]++
	}

	if effCount > 0 {
		s.AverageEfficiency = round4(effTotal / float64(effCount))
	}
	return s
}
