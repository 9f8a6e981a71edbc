package galaxy

import (
	"fmt"
	"strings"
)

// EconType is a bitmask of the economic activities a commodity needs.
type EconType uint8

const (
	EconMining      EconType = 1
	EconAgriculture EconType = 2
	EconIndustry    EconType = 4
)

func (e EconType) String() string {
	var parts []string
	if e&EconMining != 0 {
		parts = append(parts, "mining")
	}
	if e&EconAgriculture != 0 {
		parts = append(parts, "agriculture")
	}
	if e&EconIndustry != 0 {
		parts = append(parts, "industry")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Commodity identifies a tradeable good. CommodityNone is never traded.
type Commodity int

const (
	CommodityNone Commodity = iota
	Hydrogen
	LiquidOxygen
	MetalOre
	CarbonOre
	MetalAlloys
	Plastics
	FruitAndVeg
	AnimalMeat
	LiveAnimals
	Liquor
	Grain
	Textiles
	Fertilizer
	Water
	Medicines
	ConsumerGoods
	Computers
	Robots
	PreciousMetals
	IndustrialMachinery
	FarmMachinery
	MiningMachinery
	AirProcessors
	Slaves
	HandWeapons
	BattleWeapons
	NerveGas
	Narcotics
	MilitaryFuel
	Rubbish
	Radioactives

	CommodityCount
)

type CommodityInfo struct {
	Name     string
	EconType EconType
	Inputs   [2]Commodity
}

var commodities = [CommodityCount]CommodityInfo{
	CommodityNone:       {"NONE", 0, [2]Commodity{}},
	Hydrogen:            {"HYDROGEN", EconIndustry, [2]Commodity{Water}},
	LiquidOxygen:        {"LIQUID_OXYGEN", EconIndustry, [2]Commodity{Water}},
	MetalOre:            {"METAL_ORE", EconMining, [2]Commodity{MiningMachinery}},
	CarbonOre:           {"CARBON_ORE", EconMining, [2]Commodity{MiningMachinery}},
	MetalAlloys:         {"METAL_ALLOYS", EconIndustry, [2]Commodity{MetalOre}},
	Plastics:            {"PLASTICS", EconIndustry, [2]Commodity{CarbonOre}},
	FruitAndVeg:         {"FRUIT_AND_VEG", EconAgriculture, [2]Commodity{FarmMachinery, Fertilizer}},
	AnimalMeat:          {"ANIMAL_MEAT", EconAgriculture, [2]Commodity{FarmMachinery, Fertilizer}},
	LiveAnimals:         {"LIVE_ANIMALS", EconAgriculture, [2]Commodity{FarmMachinery, Fertilizer}},
	Liquor:              {"LIQUOR", EconAgriculture, [2]Commodity{FruitAndVeg}},
	Grain:               {"GRAIN", EconAgriculture, [2]Commodity{FarmMachinery, Fertilizer}},
	Textiles:            {"TEXTILES", EconIndustry, [2]Commodity{Plastics}},
	Fertilizer:          {"FERTILIZER", EconIndustry, [2]Commodity{CarbonOre}},
	Water:               {"WATER", EconMining, [2]Commodity{MiningMachinery}},
	Medicines:           {"MEDICINES", EconIndustry, [2]Commodity{Computers, CarbonOre}},
	ConsumerGoods:       {"CONSUMER_GOODS", EconIndustry, [2]Commodity{Plastics, Textiles}},
	Computers:           {"COMPUTERS", EconIndustry, [2]Commodity{PreciousMetals}},
	Robots:              {"ROBOTS", EconIndustry, [2]Commodity{Plastics, Computers}},
	PreciousMetals:      {"PRECIOUS_METALS", EconMining, [2]Commodity{MiningMachinery}},
	IndustrialMachinery: {"INDUSTRIAL_MACHINERY", EconIndustry, [2]Commodity{MetalAlloys, Robots}},
	FarmMachinery:       {"FARM_MACHINERY", EconIndustry, [2]Commodity{MetalAlloys, Robots}},
	MiningMachinery:     {"MINING_MACHINERY", EconIndustry, [2]Commodity{MetalAlloys, Robots}},
	AirProcessors:       {"AIR_PROCESSORS", EconIndustry, [2]Commodity{Plastics, IndustrialMachinery}},
	Slaves:              {"SLAVES", EconAgriculture, [2]Commodity{}},
	HandWeapons:         {"HAND_WEAPONS", EconIndustry, [2]Commodity{Computers}},
	BattleWeapons:       {"BATTLE_WEAPONS", EconIndustry, [2]Commodity{IndustrialMachinery, MetalAlloys}},
	NerveGas:            {"NERVE_GAS", EconIndustry, [2]Commodity{Medicines}},
	Narcotics:           {"NARCOTICS", EconAgriculture, [2]Commodity{Medicines}},
	MilitaryFuel:        {"MILITARY_FUEL", EconIndustry, [2]Commodity{Hydrogen}},
	Rubbish:             {"RUBBISH", EconIndustry, [2]Commodity{}},
	Radioactives:        {"RADIOACTIVES", EconMining, [2]Commodity{}},
}

// consumables are produced everywhere people live.
var consumables = [...]Commodity{
	AirProcessors,
	Grain,
	FruitAndVeg,
	AnimalMeat,
	Liquor,
	ConsumerGoods,
	Medicines,
	HandWeapons,
	Narcotics,
	LiquidOxygen,
}

func isConsumable(c Commodity) bool {
	for _, x := range consumables {
		if x == c {
			return true
		}
	}
	return false
}

func (c Commodity) Info() CommodityInfo {
	if c < 0 || c >= CommodityCount {
		return CommodityInfo{}
	}
	return commodities[c]
}

func (c Commodity) String() string {
	if c < 0 || c >= CommodityCount {
		return fmt.Sprintf("Commodity(%d)", int(c))
	}
	return commodities[c].Name
}

// ParseCommodity accepts the upper-case names case-insensitively.
func ParseCommodity(name string) (Commodity, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	for i := Commodity(1); i < CommodityCount; i++ {
		if commodities[i].Name == n {
			return i, nil
		}
	}
	return CommodityNone, fmt.Errorf("unknown commodity %q", name)
}
