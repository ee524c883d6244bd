package normalizer

import (
	"github.com/google/uuid"

	"github.com/user/tariffs-service/internal/entity"
)

// Normalizer turns a decoded tariffs payload into TariffsBoxRecords.
// It never fails: anything that does not match the expected shape yields
// an empty result.
type Normalizer struct {
	newID func() string
}

func New() *Normalizer {
	return &Normalizer{newID: uuid.NewString}
}

// Parse extracts response.data.warehouseList from payload.
func (n *Normalizer) Parse(payload any, rawID string) entity.ParseResult {
	data := Field(Field(FromAny(payload), "response"), "data")

	result := entity.ParseResult{
		Records: []entity.TariffsBoxRecord{},
		StructuredResponse: entity.StructuredResponse{
			Response: entity.StructuredResponseBody{
				Data: entity.StructuredResponseData{
					WarehouseList: []entity.WarehouseMetrics{},
				},
			},
		},
	}

	list, ok := Field(data, "warehouseList").(Array)
	if !ok {
		return result
	}

	rawNextBox := Field(data, "dtNextBox")
	rawTillMax := Field(data, "dtTillMax")
	dtNextBox := Scalar(rawNextBox)
	dtTillMax := Scalar(rawTillMax)

	summary := &result.StructuredResponse.Response.Data
	summary.DtNextBox = dtNextBox
	summary.DtTillMax = dtTillMax

	for index, item := range list {
		entry, ok := item.(Object)
		if !ok {
			continue
		}
		metrics := extractMetrics(entry)
		summary.WarehouseList = append(summary.WarehouseList, metrics)
		result.Records = append(result.Records, entity.TariffsBoxRecord{
			ID:               n.newID(),
			RawID:            rawID,
			DtNextBox:        dtNextBox,
			DtTillMax:        dtTillMax,
			WarehouseMetrics: metrics,
			Meta: map[string]any{
				"index":     index,
				"source":    ToAny(entry),
				"dtNextBox": ToAny(rawNextBox),
				"dtTillMax": ToAny(rawTillMax),
			},
		})
	}

	return result
}

func extractMetrics(entry Object) entity.WarehouseMetrics {
	return entity.WarehouseMetrics{
		GeoName:                        Scalar(Field(entry, "geoName")),
		WarehouseName:                  Scalar(Field(entry, "warehouseName")),
		BoxDeliveryBase:                Scalar(Field(entry, "boxDeliveryBase")),
		BoxDeliveryCoefExpr:            Scalar(Field(entry, "boxDeliveryCoefExpr")),
		BoxDeliveryLiter:               Scalar(Field(entry, "boxDeliveryLiter")),
		BoxDeliveryMarketplaceBase:     Scalar(Field(entry, "boxDeliveryMarketplaceBase")),
		BoxDeliveryMarketplaceCoefExpr: Scalar(Field(entry, "boxDeliveryMarketplaceCoefExpr")),
		BoxDeliveryMarketplaceLiter:    Scalar(Field(entry, "boxDeliveryMarketplaceLiter")),
		BoxStorageBase:                 Scalar(Field(entry, "boxStorageBase")),
		BoxStorageCoefExpr:             Scalar(Field(entry, "boxStorageCoefExpr")),
		BoxStorageLiter:                Scalar(Field(entry, "boxStorageLiter")),
	}
}
