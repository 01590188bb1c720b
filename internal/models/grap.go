package models

import "time"

type AssetClass string

const (
	AssetClassCollections    AssetClass = "collections"
	AssetClassArt            AssetClass = "art"
	AssetClassMonuments      AssetClass = "monuments"
	AssetClassArchaeological AssetClass = "archaeological"
	AssetClassNatural        AssetClass = "natural"
	AssetClassOther          AssetClass = "other"
)

type MeasurementBasis string

const (
	BasisCost        MeasurementBasis = "cost"
	BasisRevaluation MeasurementBasis = "revaluation"
	BasisNominal     MeasurementBasis = "nominal"
)

// HeritageAsset carries the GRAP 103 financial attributes for one object.
// Compliance percentage and valuation/insurance status are derived at read
// time by the grap service, never stored.
type HeritageAsset struct {
	Base
	ObjectID                string           `gorm:"type:uuid;not null;uniqueIndex" json:"objectId" validate:"required,uuid"`
	Object                  *ArchivalObject  `json:"object,omitempty"`
	AssetClass              AssetClass       `json:"assetClass" validate:"omitempty,asset_class"`
	RecognitionStatus       string           `json:"recognitionStatus" validate:"omitempty,oneof=recognised not_recognised pending"`
	RecognitionDate         *time.Time       `json:"recognitionDate"`
	MeasurementBasis        MeasurementBasis `json:"measurementBasis" validate:"omitempty,measurement_basis"`
	InitialCost             *float64         `json:"initialCost"`
	CarryingAmount          *float64         `json:"carryingAmount"`
	Currency                string           `gorm:"default:'ZAR'" json:"currency"`
	LastValuationDate       *time.Time       `json:"lastValuationDate"`
	ValuationFrequencyYears int              `gorm:"default:3" json:"valuationFrequencyYears"`
	Valuer                  string           `json:"valuer"`
	InsurancePolicyNo       string           `json:"insurancePolicyNo"`
	InsuranceValue          *float64         `json:"insuranceValue"`
	InsuranceExpiry         *time.Time       `json:"insuranceExpiry"`
	AcquisitionMethod       string           `json:"acquisitionMethod" validate:"omitempty,oneof=purchase donation bequest transfer excavation unknown"`
	AcquisitionDate         *time.Time       `json:"acquisitionDate"`
	Custodian               string           `json:"custodian"`
	Condition               string           `json:"condition" validate:"omitempty,oneof=excellent good fair poor critical"`
	SignificanceStatement   string           `gorm:"type:text" json:"significanceStatement"`
	Notes                   string           `gorm:"type:text" json:"notes"`
}

// ValuationRecord is one entry in an asset's valuation history.
type ValuationRecord struct {
	Base
	AssetID         string     `gorm:"type:uuid;not null;index" json:"assetId" validate:"required,uuid"`
	Asset           *HeritageAsset `json:"asset,omitempty"`
	ValuationDate   time.Time  `gorm:"not null" json:"valuationDate"`
	Amount          float64    `gorm:"not null" json:"amount" validate:"required"`
	PreviousAmount  *float64   `json:"previousAmount"`
	Valuer          string     `json:"valuer"`
	Method          string     `json:"method"`
	RecordedBy      string     `gorm:"type:uuid;default:NULL" json:"recordedBy,omitempty"`
	Notes           string     `gorm:"type:text" json:"notes"`
}
