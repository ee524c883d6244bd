package entity

import "time"

// TariffsBoxRecord mirrors the `tariffs_box` table. Metric fields are kept as
// the provider sent them; some are formulas, so they are never parsed as numbers.
type TariffsBoxRecord struct {
	ID        string
	RawID     string
	DtNextBox *string
	DtTillMax *string

	WarehouseMetrics

	Meta      map[string]any
	UpdatedAt time.Time
}

// WarehouseMetrics are the eleven per-warehouse fields of a warehouseList entry.
type WarehouseMetrics struct {
	GeoName                        *string `json:"geoName"`
	WarehouseName                  *string `json:"warehouseName"`
	BoxDeliveryBase                *string `json:"boxDeliveryBase"`
	BoxDeliveryCoefExpr            *string `json:"boxDeliveryCoefExpr"`
	BoxDeliveryLiter               *string `json:"boxDeliveryLiter"`
	BoxDeliveryMarketplaceBase     *string `json:"boxDeliveryMarketplaceBase"`
	BoxDeliveryMarketplaceCoefExpr *string `json:"boxDeliveryMarketplaceCoefExpr"`
	BoxDeliveryMarketplaceLiter    *string `json:"boxDeliveryMarketplaceLiter"`
	BoxStorageBase                 *string `json:"boxStorageBase"`
	BoxStorageCoefExpr             *string `json:"boxStorageCoefExpr"`
	BoxStorageLiter                *string `json:"boxStorageLiter"`
}

// StructuredResponse mirrors the provider's nested shape with normalized entries.
type StructuredResponse struct {
	Response StructuredResponseBody `json:"response"`
}

type StructuredResponseBody struct {
	Data StructuredResponseData `json:"data"`
}

type StructuredResponseData struct {
	DtNextBox     *string            `json:"dtNextBox"`
	DtTillMax     *string            `json:"dtTillMax"`
	WarehouseList []WarehouseMetrics `json:"warehouseList"`
}

// ParseResult is the normalizer output for one payload.
type ParseResult struct {
	Records            []TariffsBoxRecord
	StructuredResponse StructuredResponse
}
