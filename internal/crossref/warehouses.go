package crossref

import "github.com/basecruz/stockbridge/internal/externalstock"

const (
	// DefaultExcludedWarehouse is never reported back to callers.
	DefaultExcludedWarehouse externalstock.WarehouseCode = "18"
	// WarehouseExternalError marks the placeholder row of a failed external query.
	WarehouseExternalError externalstock.WarehouseCode = "ERROR_EXTERNO"
	// DefaultWindow is the number of SKUs queried concurrently.
	DefaultWindow = 5
)

var warehouseNames = map[externalstock.WarehouseCode]string{
	"10": "Flotaservicio Los Ángeles",
	"14": "Serviteca Los Ángeles",
	"20": "Talca",
	"24": "Curicó",
	"30": "Chillán",
	"40": "Concepción - Talcahuano",
	"50": "Temuco",
	"55": "Valdivia",
	"60": "Osorno",
	"70": "Santiago",
	"75": "Vitacura",
}

// WarehouseName returns the display name of code, or nil when it is not a known warehouse.
func WarehouseName(code externalstock.WarehouseCode) *string {
	name, ok := warehouseNames[code]
	if !ok {
		return nil
	}
	return &name
}
